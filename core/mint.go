package core

// runMint is the native implementation standing in for the mint system
// contract's wasm bytecode (see the Open Question decision in
// SPEC_FULL.md). It exposes four entrypoints: "create_purse", "balance",
// "transfer" and "mint", all expressed in terms of the same tracking-copy
// operations a real wasm mint module would reach through the host ABI.
//
// hctx.Args[0] selects the entrypoint by name; this mirrors the
// original's single wasm export dispatching on its first argument.
func runMint(hctx *HostContext) ([]byte, error) {
	if len(hctx.Args) == 0 {
		// Installation call during genesis: nothing to do beyond being
		// resolvable as a StoredContractByHash target.
		return nil, nil
	}
	switch string(hctx.Args[0]) {
	case "create_purse":
		return hostCreatePurse(&HostContext{TC: hctx.TC, AddrGen: hctx.AddrGen, Account: hctx.Account, Meter: hctx.Meter})
	case "balance":
		return hostGetBalance(&HostContext{TC: hctx.TC, AddrGen: hctx.AddrGen, Account: hctx.Account, Meter: hctx.Meter, Args: hctx.Args[1:]})
	case "transfer":
		return hostTransferPurseToPurse(&HostContext{TC: hctx.TC, AddrGen: hctx.AddrGen, Account: hctx.Account, Meter: hctx.Meter, Args: hctx.Args[1:]})
	case "mint":
		if len(hctx.Args) < 3 {
			return nil, newExecError(KindInvalidContext, "mint: missing purse/amount arguments")
		}
		purse, err := decodeKeyArg(hctx.Args[1])
		if err != nil {
			return nil, err
		}
		amt, _, err := U512FromBytes(hctx.Args[2])
		if err != nil {
			return nil, err
		}
		if err := addToPurseBalance(hctx.TC, purse, amt); err != nil {
			return nil, err
		}
		return nil, nil
	default:
		return nil, newExecError(KindInvalidContext, "mint: unknown entrypoint %q", hctx.Args[0])
	}
}

// MintInitialPurse is used directly by the genesis installer (not through
// the host ABI, since genesis has no enclosing wasm call) to create and
// fund an account's starting purse.
func MintInitialPurse(tc *TrackingCopy, addrGen *AddressGenerator, balance *U512) URef {
	balanceURef := addrGen.NewURef()
	purseURef := addrGen.NewURef()
	tc.Write(NewURefKey(balanceURef), StoredValue{Balance: balance})
	balKey := NewURefKey(balanceURef)
	tc.Write(NewURefKey(purseURef), StoredValue{NamedKey: &balKey})
	return purseURef
}
