package core

import "testing"

func TestInstallChainspecCreatesSystemAccountAndFundsGenesisAccounts(t *testing.T) {
	sp := NewStateProvider()
	installer := NewGenesisInstaller(sp)

	alice := Hash{0xA1}
	cfg := GenesisConfig{
		ProtocolName: "test-net",
		Timestamp:    1,
		Accounts: []GenesisAccount{
			{Addr: alice, Balance: NewU512(1_000), Bonded: true, BondAmount: NewU512(500)},
		},
	}

	root, err := installer.InstallChainspec(cfg)
	if err != nil {
		t.Fatalf("install chainspec: %v", err)
	}
	if root == ZeroHash {
		t.Fatalf("expected a non-zero genesis root")
	}

	tc := NewTrackingCopy(sp, root)

	sysAcct, err := tc.GetAccount(SystemAccountAddr)
	if err != nil {
		t.Fatalf("get system account: %v", err)
	}
	if _, ok := sysAcct.GetKey("mint"); !ok {
		t.Fatalf("expected the system account to carry a mint named key")
	}
	if _, ok := sysAcct.GetKey("pos"); !ok {
		t.Fatalf("expected the system account to carry a pos named key")
	}

	mintInfo, err := GetSystemContractInfo(tc, sysAcct, "mint")
	if err != nil {
		t.Fatalf("resolve mint contract: %v", err)
	}
	if mintInfo.ContractHash == (Hash{}) {
		t.Fatalf("expected a nonzero mint contract hash")
	}

	posInfo, err := GetSystemContractInfo(tc, sysAcct, "pos")
	if err != nil {
		t.Fatalf("resolve pos contract: %v", err)
	}
	if _, ok := posInfo.NamedKeys["rewards_purse"]; !ok {
		t.Fatalf("expected the pos contract to carry a rewards_purse named key")
	}
	if _, ok := posInfo.NamedKeys["payment_purse"]; !ok {
		t.Fatalf("expected the pos contract to carry a payment_purse named key")
	}

	aliceAcct, err := tc.GetAccount(alice)
	if err != nil {
		t.Fatalf("get alice account: %v", err)
	}
	bal, err := tc.GetPurseBalance(NewURefKey(aliceAcct.MainPurse))
	if err != nil {
		t.Fatalf("get alice balance: %v", err)
	}
	if bal.Cmp(NewU512(1_000)) != 0 {
		t.Fatalf("expected alice's genesis balance to be 1000, got %v", bal.Big())
	}

	eng := &Engine{sp: sp}
	bonded, err := eng.BondedValidators(root, []Hash{alice})
	if err != nil {
		t.Fatalf("bonded validators: %v", err)
	}
	if got := bonded[alice]; got == nil || got.Cmp(NewU512(500)) != 0 {
		t.Fatalf("expected alice's bond amount to be 500, got %v", got)
	}
}

func TestInstallLegacyDelegatesToChainspec(t *testing.T) {
	sp := NewStateProvider()
	installer := NewGenesisInstaller(sp)

	bob := Hash{0xB0}
	root, err := installer.InstallLegacy(nil, nil, []GenesisAccount{
		{Addr: bob, Balance: NewU512(42)},
	}, 7)
	if err != nil {
		t.Fatalf("install legacy: %v", err)
	}

	tc := NewTrackingCopy(sp, root)
	bobAcct, err := tc.GetAccount(bob)
	if err != nil {
		t.Fatalf("get bob account: %v", err)
	}
	bal, err := tc.GetPurseBalance(NewURefKey(bobAcct.MainPurse))
	if err != nil {
		t.Fatalf("get bob balance: %v", err)
	}
	if bal.Cmp(NewU512(42)) != 0 {
		t.Fatalf("expected bob's balance to be 42, got %v", bal.Big())
	}
}
