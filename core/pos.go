package core

// runPOS is the native implementation standing in for the proof-of-stake
// system contract's wasm bytecode (see the Open Question decision in
// SPEC_FULL.md). It supports two entrypoints: "bond" (records one
// validator's bond; genesis writes its initial bonds directly and does not
// call it) and "finalize_payment" (called by the finalize phase as the virtual system
// account to settle the payment purse against the session's gas cost and
// refund the remainder to the account's main purse).
func runPOS(hctx *HostContext, args [][]byte) ([]byte, error) {
	if len(args) == 0 {
		return nil, nil
	}
	switch string(args[0]) {
	case "bond":
		return posBond(hctx, args[1:])
	case "finalize_payment":
		return posFinalizePayment(hctx, args[1:])
	default:
		return nil, newExecError(KindInvalidContext, "pos: unknown entrypoint %q", args[0])
	}
}

func posBond(hctx *HostContext, args [][]byte) ([]byte, error) {
	if len(args) < 2 {
		return nil, newExecError(KindInvalidContext, "bond: missing validator/amount arguments")
	}
	var validator Hash
	copy(validator[:], args[0])
	amt, _, err := U512FromBytes(args[1])
	if err != nil {
		return nil, err
	}
	key := NewHashKey(Blake2bHash2([]byte("bonded-validator:"), validator[:]))
	return nil, func() error {
		_, err := hctx.TC.Read(key)
		if err != nil {
			return err
		}
		hctx.TC.Write(key, StoredValue{Balance: amt})
		return nil
	}()
}

// BondedValidators reads the "bonded-validator:" key of each address in
// bondedAddrs against a fixed root; addresses with no bond entry are left
// out of the result. It restores the original's get_bonded_validators
// query (see SPEC_FULL.md Supplemented Features).
func (e *Engine) BondedValidators(root Hash, bondedAddrs []Hash) (map[Hash]*U512, error) {
	tc := NewTrackingCopy(e.sp, root)
	out := map[Hash]*U512{}
	for _, addr := range bondedAddrs {
		key := NewHashKey(Blake2bHash2([]byte("bonded-validator:"), addr[:]))
		v, err := tc.Read(key)
		if err != nil {
			return nil, err
		}
		if v != nil && v.Balance != nil {
			out[addr] = v.Balance
		}
	}
	return out, nil
}

// posFinalizePayment is called with gas_limit = MaxUint64 by the finalize
// phase: it reads the payment purse's balance, subtracts the combined
// payment+session gas cost (converted from gas to motes via CONV_RATE),
// sends that amount to the PoS rewards purse, and refunds whatever
// remains to the deploying account's main purse, passed explicitly since
// finalize runs as the virtual system account rather than the deploying
// account. Mirrors the original PoS contract's "finalize_payment"
// entrypoint.
func posFinalizePayment(hctx *HostContext, args [][]byte) ([]byte, error) {
	if len(args) < 4 {
		return nil, newExecError(KindInvalidContext, "finalize_payment: missing purse/cost/refund arguments")
	}
	paymentPurse, err := decodeKeyArg(args[0])
	if err != nil {
		return nil, err
	}
	rewardsPurse, err := decodeKeyArg(args[1])
	if err != nil {
		return nil, err
	}
	cost, _, err := U512FromBytes(args[2])
	if err != nil {
		return nil, err
	}
	accountMainPurse, err := decodeKeyArg(args[3])
	if err != nil {
		return nil, err
	}

	paymentBal, err := hctx.TC.GetPurseBalance(paymentPurse)
	if err != nil {
		return nil, err
	}
	if paymentBal.Cmp(cost) < 0 {
		cost = paymentBal
	}
	refund := paymentBal.Sub(cost)

	if err := subFromPurseBalance(hctx.TC, paymentPurse, cost); err != nil {
		return nil, err
	}
	if err := addToPurseBalance(hctx.TC, rewardsPurse, cost); err != nil {
		return nil, err
	}
	if !refund.IsZero() {
		if err := subFromPurseBalance(hctx.TC, paymentPurse, refund); err != nil {
			return nil, err
		}
		if err := addToPurseBalance(hctx.TC, accountMainPurse, refund); err != nil {
			return nil, err
		}
	}
	return nil, nil
}
