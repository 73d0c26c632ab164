package core

import "testing"

func TestIsSystemContractRecognizesSentinels(t *testing.T) {
	if !IsSystemContract(MintInstallerHash) {
		t.Fatalf("expected the mint installer hash to be recognized as a system contract")
	}
	if !IsSystemContract(PosInstallerHash) {
		t.Fatalf("expected the pos installer hash to be recognized as a system contract")
	}
	if IsSystemContract(Hash{0x01}) {
		t.Fatalf("did not expect an arbitrary hash to be recognized as a system contract")
	}
}

func TestSentinelHashesAreDistinct(t *testing.T) {
	if MintInstallerHash == PosInstallerHash {
		t.Fatalf("expected distinct sentinel hashes for mint and pos")
	}
}
