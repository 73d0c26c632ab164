package core

import "testing"

func setupEngineWithFundedAccount(t *testing.T, balance uint64) (*Engine, Hash, Hash) {
	t.Helper()
	sp := NewStateProvider()
	installer := NewGenesisInstaller(sp)

	acctAddr := Hash{0xE1}
	root, err := installer.InstallChainspec(GenesisConfig{
		ProtocolName: "test-net",
		Timestamp:    1,
		Accounts: []GenesisAccount{
			{Addr: acctAddr, Balance: NewU512(balance)},
		},
	})
	if err != nil {
		t.Fatalf("install chainspec: %v", err)
	}

	eng := NewEngine(sp, EngineConfig{UsePaymentCode: true})
	return eng, root, acctAddr
}

func TestRunDeploySessionFailureDiscardsEffectsButFinalizeStillRuns(t *testing.T) {
	eng, root, acctAddr := setupEngineWithFundedAccount(t, MaxPayment)

	d := Deploy{
		Hash:    Hash{0xD1},
		Address: acctAddr,
		Signers: map[Hash]struct{}{acctAddr: {}},
		Session: DeployItem{Tag: DeployItemModuleBytes, ModuleCode: []byte("not a real wasm module")},
	}

	res, err := eng.RunDeploy(root, d)
	if err != nil {
		t.Fatalf("RunDeploy returned an infrastructure error: %v", err)
	}
	if res.Error == nil {
		t.Fatalf("expected the session phase's wasm compile failure to surface on the result")
	}
	if res.NewRoot == root {
		t.Fatalf("expected the finalize phase to still advance the root even after a session failure")
	}

	// The session's own effects must have been discarded, and finalize
	// must never refund more than the account ever handed over.
	tc := NewTrackingCopy(eng.sp, res.NewRoot)
	acct, err := tc.GetAccount(acctAddr)
	if err != nil {
		t.Fatalf("get account post-deploy: %v", err)
	}
	bal, err := tc.GetPurseBalance(NewURefKey(acct.MainPurse))
	if err != nil {
		t.Fatalf("get balance post-deploy: %v", err)
	}
	if bal.Cmp(NewU512(MaxPayment)) > 0 {
		t.Fatalf("expected the account never to be refunded more than its original max-payment allowance, got %v", bal.Big())
	}
}

func TestRunDeployForcesTransferWhenPaymentModuleFails(t *testing.T) {
	eng, root, acctAddr := setupEngineWithFundedAccount(t, MaxPayment)
	// This engine must actually run the payment module rather than the
	// debug affordance that funds the payment purse directly.
	eng.cfg.UsePaymentCode = false

	d := Deploy{
		Hash:    Hash{0xD4},
		Address: acctAddr,
		Signers: map[Hash]struct{}{acctAddr: {}},
		Payment: DeployItem{Tag: DeployItemModuleBytes, ModuleCode: []byte("not a real wasm module")},
		Session: DeployItem{Tag: DeployItemModuleBytes, ModuleCode: []byte("irrelevant, never reached")},
	}

	res, err := eng.RunDeploy(root, d)
	if err != nil {
		t.Fatalf("RunDeploy returned an infrastructure error: %v", err)
	}
	ee, ok := res.Error.(*ExecError)
	if !ok || ee.Kind != KindForcedTransfer {
		t.Fatalf("expected a KindForcedTransfer result error, got %#v", res.Error)
	}
	if res.Cost != MaxPayment {
		t.Fatalf("expected the forced transfer to cost the full max-payment allowance, got %d", res.Cost)
	}
	if res.NewRoot == root {
		t.Fatalf("expected the forced transfer to still commit and advance the root")
	}

	tc := NewTrackingCopy(eng.sp, res.NewRoot)
	acct, err := tc.GetAccount(acctAddr)
	if err != nil {
		t.Fatalf("get account post-deploy: %v", err)
	}
	bal, err := tc.GetPurseBalance(NewURefKey(acct.MainPurse))
	if err != nil {
		t.Fatalf("get balance post-deploy: %v", err)
	}
	if !bal.IsZero() {
		t.Fatalf("expected the entire max-payment allowance to move out of the main purse, got %v", bal.Big())
	}
}

func TestRunDeployRejectsInsufficientBalance(t *testing.T) {
	eng, root, acctAddr := setupEngineWithFundedAccount(t, 1) // far below MaxPayment

	d := Deploy{
		Hash:    Hash{0xD2},
		Address: acctAddr,
		Signers: map[Hash]struct{}{acctAddr: {}},
		Session: DeployItem{Tag: DeployItemModuleBytes, ModuleCode: []byte("irrelevant")},
	}

	if _, err := eng.RunDeploy(root, d); err == nil {
		t.Fatalf("expected an InsufficientPayment precondition error")
	} else if pe, ok := err.(*PreconditionError); !ok || pe.Kind != KindInsufficientPayment {
		t.Fatalf("expected KindInsufficientPayment, got %#v", err)
	}
}

func TestRunDeployRejectsUnauthorizedSigner(t *testing.T) {
	eng, root, acctAddr := setupEngineWithFundedAccount(t, 2_000_000)

	d := Deploy{
		Hash:    Hash{0xD3},
		Address: acctAddr,
		Signers: map[Hash]struct{}{{0xFF}: {}}, // not the account's associated key
		Session: DeployItem{Tag: DeployItemModuleBytes, ModuleCode: []byte("irrelevant")},
	}

	if _, err := eng.RunDeploy(root, d); err == nil {
		t.Fatalf("expected a DeploymentAuthorizationDenied precondition error")
	} else if pe, ok := err.(*PreconditionError); !ok || pe.Kind != KindDeploymentAuthDenied {
		t.Fatalf("expected KindDeploymentAuthDenied, got %#v", err)
	}
}
