package core

import "testing"

func TestExecutionResultBuilderTotalCostSumsPaymentAndSession(t *testing.T) {
	b := NewExecutionResultBuilder()
	b.SetPaymentResult(&ExecutionResult{Cost: 100})
	b.SetSessionResult(&ExecutionResult{Cost: 250})

	if got := b.TotalCost(); got != 350 {
		t.Fatalf("expected total cost 350, got %d", got)
	}
}

func TestExecutionResultBuilderBuildReportsSessionError(t *testing.T) {
	b := NewExecutionResultBuilder()
	sessionErr := newExecError(KindGasLimit, "session out of gas")
	b.SetPaymentResult(&ExecutionResult{Cost: 5})
	b.SetSessionResult(&ExecutionResult{Cost: 7, Error: sessionErr})
	b.SetFinalizeResult(&ExecutionResult{Cost: 3})

	res := b.Build(Hash{0xAB}, []byte("ret"))
	if res.Error != sessionErr {
		t.Fatalf("expected the session error to surface, got %v", res.Error)
	}
	if res.Cost != 15 {
		t.Fatalf("expected cost 5+7+3=15, got %d", res.Cost)
	}
	if res.NewRoot != (Hash{0xAB}) {
		t.Fatalf("unexpected new root: %s", res.NewRoot)
	}
	if string(res.ReturnData) != "ret" {
		t.Fatalf("unexpected return data: %s", res.ReturnData)
	}
}

func TestCheckForcedTransferOnPaymentError(t *testing.T) {
	sp := NewStateProvider()
	tc := NewTrackingCopy(sp, ZeroHash)
	purse := URef{Addr: Hash{0x55}}
	forced, err := checkForcedTransfer(tc, purse, NewU512(MaxPayment), &ExecutionResult{Error: newExecError(KindTrapWasm, "boom")})
	if err != nil {
		t.Fatalf("unexpected infrastructure error: %v", err)
	}
	if !forced {
		t.Fatalf("a failed payment phase must force a transfer")
	}
}

func TestCheckForcedTransferOnUnderfundedPurse(t *testing.T) {
	sp := NewStateProvider()
	tc := NewTrackingCopy(sp, ZeroHash)
	addrGen := NewAddressGenerator(Hash{0x1}, PhaseGenesis)
	purse := MintInitialPurse(tc, addrGen, NewU512(MaxPayment-1))

	forced, err := checkForcedTransfer(tc, purse, NewU512(MaxPayment), &ExecutionResult{Cost: 0})
	if err != nil {
		t.Fatalf("unexpected infrastructure error: %v", err)
	}
	if !forced {
		t.Fatalf("a payment purse short of the max-payment allowance must force a transfer")
	}
}

func TestCheckForcedTransferOnFullyFundedPurse(t *testing.T) {
	sp := NewStateProvider()
	tc := NewTrackingCopy(sp, ZeroHash)
	addrGen := NewAddressGenerator(Hash{0x1}, PhaseGenesis)
	purse := MintInitialPurse(tc, addrGen, NewU512(MaxPayment))

	forced, err := checkForcedTransfer(tc, purse, NewU512(MaxPayment), &ExecutionResult{Cost: 100})
	if err != nil {
		t.Fatalf("unexpected infrastructure error: %v", err)
	}
	if forced {
		t.Fatalf("a fully funded payment purse covering its own cost must not force a transfer")
	}
}

func TestExecutionResultBuilderBuildWithNoErrors(t *testing.T) {
	b := NewExecutionResultBuilder()
	b.SetPaymentResult(&ExecutionResult{Cost: 1})
	b.SetSessionResult(&ExecutionResult{Cost: 2})
	b.SetFinalizeResult(&ExecutionResult{Cost: 3})

	res := b.Build(Hash{}, nil)
	if res.Error != nil {
		t.Fatalf("expected no error, got %v", res.Error)
	}
	if res.Cost != 6 {
		t.Fatalf("expected cost 6, got %d", res.Cost)
	}
}
