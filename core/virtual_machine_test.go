package core

import "testing"

func TestExecutorRunDispatchesNativeMintSentinel(t *testing.T) {
	sp := NewStateProvider()
	tc := NewTrackingCopy(sp, ZeroHash)
	addrGen := NewAddressGenerator(Hash{1}, PhaseSession)
	acct := NewAccount(Hash{2}, URef{})
	exec := NewExecutor()

	signers := map[Hash]struct{}{acct.Addr: {}}
	res := exec.Exec(tc, addrGen, acct, signers, MintInstallerHash, nil, [][]byte{[]byte("create_purse")}, 1_000_000)
	if res.Error != nil {
		t.Fatalf("expected the native mint sentinel to run without invoking wasmer, got %v", res.Error)
	}
	if _, err := decodeKeyArg(res.ReturnData); err != nil {
		t.Fatalf("expected a decodable purse key as return data: %v", err)
	}
}

func TestExecutorBetterExecUsesExplicitKnownKeys(t *testing.T) {
	sp := NewStateProvider()
	tc := NewTrackingCopy(sp, ZeroHash)
	addrGen := NewAddressGenerator(Hash{3}, PhaseGenesis)
	exec := NewExecutor()

	rewardsPurse := MintInitialPurse(tc, addrGen, NewU512(0))
	knownKeys := map[string]Key{"rewards_purse": NewURefKey(rewardsPurse)}
	args := [][]byte{[]byte("bond"), make([]byte, HashLen), NewU512(10).Bytes()}

	res := exec.BetterExec(tc, addrGen, knownKeys, PosInstallerHash, nil, args, MaxPayment)
	if res.Error != nil {
		t.Fatalf("bond via BetterExec: %v", res.Error)
	}
	if res.Effect == nil {
		t.Fatalf("expected a non-nil effect map after a successful run")
	}
}

func TestGasMeterRemainingAfterConsume(t *testing.T) {
	m := NewGasMeter(500)
	if err := m.Consume(500); err != nil {
		t.Fatalf("consume exactly the limit: %v", err)
	}
	if m.Remaining() != 0 {
		t.Fatalf("expected zero remaining gas, got %d", m.Remaining())
	}
}
