package core

// This file wires the concrete implementation of every host call in the
// ABI (§4.4/§6) against a HostContext's tracking copy. Each handler reads
// its operands from HostContext.Args, set by the executor immediately
// before dispatch; a real wasm call site marshals these from the module's
// linear memory (pointer/length pairs), which is the executor's
// responsibility, not the dispatcher's.

func init() {
	RegisterHost(HostCallRead, "read", hostRead)
	RegisterHost(HostCallWrite, "write", hostWrite)
	RegisterHost(HostCallAdd, "add", hostAdd)
	RegisterHost(HostCallNewURef, "new_uref", hostNewURef)
	RegisterHost(HostCallPutKey, "put_key", hostPutKey)
	RegisterHost(HostCallGetKey, "get_key", hostGetKey)
	RegisterHost(HostCallHasKey, "has_key", hostHasKey)
	RegisterHost(HostCallGetArg, "get_arg", hostGetArg)
	RegisterHost(HostCallRet, "ret", hostRet)
	RegisterHost(HostCallCallContract, "call_contract", hostCallContract)
	RegisterHost(HostCallCreatePurse, "create_purse", hostCreatePurse)
	RegisterHost(HostCallTransferPurseToPurse, "transfer_from_purse_to_purse", hostTransferPurseToPurse)
	RegisterHost(HostCallGetBalance, "get_balance", hostGetBalance)
	RegisterHost(HostCallGetMainPurse, "get_main_purse", hostGetMainPurse)
	RegisterHost(HostCallSetActionThreshold, "set_action_threshold", hostSetActionThreshold)
	RegisterHost(HostCallAddAssociatedKey, "add_associated_key", hostAddAssociatedKey)
	RegisterHost(HostCallRevert, "revert", hostRevert)
}

func argKey(ctx *HostContext, i int) (Key, error) {
	if i >= len(ctx.Args) {
		return Key{}, newExecError(KindInvalidContext, "host call missing key argument %d", i)
	}
	return decodeKeyArg(ctx.Args[i])
}

// decodeKeyArg/encodeKeyArg give named keys a stable byte representation
// for host-call argument/return marshalling: tag byte, 32-byte address,
// rights byte.
func decodeKeyArg(b []byte) (Key, error) {
	if len(b) != 34 {
		return Key{}, newExecError(KindTypeMismatch, "malformed key argument")
	}
	var k Key
	k.Tag = KeyTag(b[0])
	copy(k.Addr[:], b[1:33])
	k.Rights = AccessRights(b[33])
	return k, nil
}

func encodeKeyArg(k Key) []byte {
	out := make([]byte, 34)
	out[0] = byte(k.Tag)
	copy(out[1:33], k.Addr[:])
	out[33] = byte(k.Rights)
	return out
}

func hostRead(ctx *HostContext) ([]byte, error) {
	k, err := argKey(ctx, 0)
	if err != nil {
		return nil, err
	}
	if k.Tag == KeyTagURef && !k.Rights.Readable() {
		return nil, newPrecondition(KindForgedReference, "uref %s is not readable", k.Addr)
	}
	if k.Tag == KeyTagURef && !ctx.knowsURef(k.Addr) {
		return nil, newPrecondition(KindForgedReference, "uref %s is not one of the caller's known keys", k.Addr)
	}
	v, err := ctx.TC.Read(k)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	if v.Balance != nil {
		return v.Balance.Bytes(), nil
	}
	return nil, nil
}

func hostWrite(ctx *HostContext) ([]byte, error) {
	k, err := argKey(ctx, 0)
	if err != nil {
		return nil, err
	}
	if k.Tag == KeyTagURef && !k.Rights.Writable() {
		return nil, newPrecondition(KindForgedReference, "uref %s is not writable", k.Addr)
	}
	if k.Tag == KeyTagURef && !ctx.knowsURef(k.Addr) {
		return nil, newPrecondition(KindForgedReference, "uref %s is not one of the caller's known keys", k.Addr)
	}
	if len(ctx.Args) < 2 {
		return nil, newExecError(KindInvalidContext, "write: missing value argument")
	}
	bal, _, err := U512FromBytes(ctx.Args[1])
	if err != nil {
		return nil, err
	}
	ctx.TC.Write(k, StoredValue{Balance: bal})
	return nil, nil
}

func hostAdd(ctx *HostContext) ([]byte, error) {
	k, err := argKey(ctx, 0)
	if err != nil {
		return nil, err
	}
	if k.Tag == KeyTagURef && !k.Rights.Addable() {
		return nil, newPrecondition(KindForgedReference, "uref %s is not addable", k.Addr)
	}
	if k.Tag == KeyTagURef && !ctx.knowsURef(k.Addr) {
		return nil, newPrecondition(KindForgedReference, "uref %s is not one of the caller's known keys", k.Addr)
	}
	if len(ctx.Args) < 2 {
		return nil, newExecError(KindInvalidContext, "add: missing value argument")
	}
	bal, _, err := U512FromBytes(ctx.Args[1])
	if err != nil {
		return nil, err
	}
	if err := ctx.TC.Add(k, AddU512Transform(bal)); err != nil {
		return nil, err
	}
	return nil, nil
}

func hostNewURef(ctx *HostContext) ([]byte, error) {
	u := ctx.AddrGen.NewURef()
	if ctx.KnownURefs != nil {
		ctx.KnownURefs[u.Addr] = struct{}{}
	}
	return encodeKeyArg(NewURefKey(u)), nil
}

func hostPutKey(ctx *HostContext) ([]byte, error) {
	if len(ctx.Args) < 2 {
		return nil, newExecError(KindInvalidContext, "put_key: missing name/key arguments")
	}
	name := string(ctx.Args[0])
	k, err := decodeKeyArg(ctx.Args[1])
	if err != nil {
		return nil, err
	}
	ctx.Account.PutKey(name, k)
	return nil, nil
}

func hostGetKey(ctx *HostContext) ([]byte, error) {
	if len(ctx.Args) < 1 {
		return nil, newExecError(KindInvalidContext, "get_key: missing name argument")
	}
	name := string(ctx.Args[0])
	k, ok := ctx.Account.GetKey(name)
	if !ok {
		return nil, newPrecondition(KindKeyNotFound, "named key %q not found", name)
	}
	return encodeKeyArg(k), nil
}

func hostHasKey(ctx *HostContext) ([]byte, error) {
	if len(ctx.Args) < 1 {
		return nil, newExecError(KindInvalidContext, "has_key: missing name argument")
	}
	name := string(ctx.Args[0])
	if _, ok := ctx.Account.GetKey(name); ok {
		return []byte{1}, nil
	}
	return []byte{0}, nil
}

func hostGetArg(ctx *HostContext) ([]byte, error) {
	if len(ctx.Args) < 1 {
		return nil, newExecError(KindInvalidContext, "get_arg: missing index argument")
	}
	return ctx.Args[0], nil
}

func hostRet(ctx *HostContext) ([]byte, error) {
	if len(ctx.Args) < 1 {
		return nil, nil
	}
	return ctx.Args[0], nil
}

// hostCallContract handles the call_contract host function. Contract calls
// from inside a module are not supported: the handler does not resolve or
// run the target and always fails with an InvalidContext ExecError.
func hostCallContract(ctx *HostContext) ([]byte, error) {
	return nil, newExecError(KindInvalidContext, "call_contract is not supported")
}

func hostCreatePurse(ctx *HostContext) ([]byte, error) {
	balanceURef := ctx.AddrGen.NewURef()
	purseURef := ctx.AddrGen.NewURef()
	ctx.TC.Write(NewURefKey(balanceURef), StoredValue{Balance: NewU512(0)})
	balKey := NewURefKey(balanceURef)
	ctx.TC.Write(NewURefKey(purseURef), StoredValue{NamedKey: &balKey})
	if ctx.KnownURefs != nil {
		ctx.KnownURefs[purseURef.Addr] = struct{}{}
	}
	return encodeKeyArg(NewURefKey(purseURef)), nil
}

func hostTransferPurseToPurse(ctx *HostContext) ([]byte, error) {
	if len(ctx.Args) < 3 {
		return nil, newExecError(KindInvalidContext, "transfer_from_purse_to_purse: missing arguments")
	}
	src, err := decodeKeyArg(ctx.Args[0])
	if err != nil {
		return nil, err
	}
	dst, err := decodeKeyArg(ctx.Args[1])
	if err != nil {
		return nil, err
	}
	amt, _, err := U512FromBytes(ctx.Args[2])
	if err != nil {
		return nil, err
	}
	srcBal, err := ctx.TC.GetPurseBalance(src)
	if err != nil {
		return nil, err
	}
	if srcBal.Cmp(amt) < 0 {
		return nil, wrapExecError(KindInvalidContext, nil, "transfer: insufficient purse balance")
	}
	if err := subFromPurseBalance(ctx.TC, src, amt); err != nil {
		return nil, err
	}
	if err := addToPurseBalance(ctx.TC, dst, amt); err != nil {
		return nil, err
	}
	return nil, nil
}

func purseBalanceKey(tc *TrackingCopy, purseKey Key) (Key, error) {
	u, ok := purseKey.AsURef()
	if !ok {
		return Key{}, newPrecondition(KindTypeMismatch, "purse key is not a URef")
	}
	v, err := tc.Read(NewURefKey(u))
	if err != nil {
		return Key{}, err
	}
	if v == nil || v.NamedKey == nil {
		return Key{}, newPrecondition(KindKeyNotFound, "purse %s has no balance indirection", u.Addr)
	}
	return *v.NamedKey, nil
}

// addToPurseBalance uses the commutative Add transform, safe to combine
// with any other deploy's concurrent credit to the same purse.
func addToPurseBalance(tc *TrackingCopy, purseKey Key, delta *U512) error {
	balKey, err := purseBalanceKey(tc, purseKey)
	if err != nil {
		return err
	}
	return tc.Add(balKey, AddU512Transform(delta))
}

// subFromPurseBalance writes the post-subtraction balance directly: U512
// has no signed representation, so a debit cannot be expressed as a
// (necessarily commutative) Add transform and instead takes a Write,
// matching the original's treatment of purse debits as the
// non-commutative half of a transfer.
func subFromPurseBalance(tc *TrackingCopy, purseKey Key, delta *U512) error {
	balKey, err := purseBalanceKey(tc, purseKey)
	if err != nil {
		return err
	}
	cur, err := tc.Read(balKey)
	if err != nil {
		return err
	}
	if cur == nil || cur.Balance == nil {
		return newPrecondition(KindKeyNotFound, "purse balance key empty")
	}
	tc.Write(balKey, StoredValue{Balance: cur.Balance.Sub(delta)})
	return nil
}

func hostGetBalance(ctx *HostContext) ([]byte, error) {
	k, err := argKey(ctx, 0)
	if err != nil {
		return nil, err
	}
	bal, err := ctx.TC.GetPurseBalance(k)
	if err != nil {
		return nil, err
	}
	return bal.Bytes(), nil
}

func hostGetMainPurse(ctx *HostContext) ([]byte, error) {
	return encodeKeyArg(NewURefKey(ctx.Account.MainPurse)), nil
}

// hostSetActionThreshold raises an account's key-management or deployment
// threshold, but only if the deploy's own authorizing signers already
// carry enough combined weight to satisfy the new threshold — otherwise
// an account could lock itself out by raising a threshold past what its
// current signers could ever re-authorize. Mirrors the original's
// set_action_threshold check against the active context's authorization
// keys.
func hostSetActionThreshold(ctx *HostContext) ([]byte, error) {
	if len(ctx.Args) < 2 {
		return nil, newExecError(KindInvalidContext, "set_action_threshold: missing arguments")
	}
	kind := ctx.Args[0][0]
	weight := Weight(ctx.Args[1][0])
	if !ctx.Account.CanManageKeys(ctx.Signers) {
		return nil, newExecError(KindRevert, "set_action_threshold: signer weight below key-management threshold")
	}
	switch kind {
	case 0:
		if ctx.Account.combinedWeight(ctx.Signers) < weight {
			return nil, newExecError(KindRevert, "set_action_threshold: signer weight %d below new key-management threshold %d", ctx.Account.combinedWeight(ctx.Signers), weight)
		}
		ctx.Account.ActionThresholds.KeyManagement = weight
	case 1:
		if ctx.Account.combinedWeight(ctx.Signers) < weight {
			return nil, newExecError(KindRevert, "set_action_threshold: signer weight %d below new deployment threshold %d", ctx.Account.combinedWeight(ctx.Signers), weight)
		}
		ctx.Account.ActionThresholds.Deployment = weight
	default:
		return nil, newExecError(KindInvalidContext, "unknown action threshold kind %d", kind)
	}
	return nil, nil
}

func hostAddAssociatedKey(ctx *HostContext) ([]byte, error) {
	if len(ctx.Args) < 2 {
		return nil, newExecError(KindInvalidContext, "add_associated_key: missing arguments")
	}
	var addr Hash
	copy(addr[:], ctx.Args[0])
	weight := Weight(ctx.Args[1][0])
	ctx.Account.AssociatedKeys = append(ctx.Account.AssociatedKeys, AssociatedKey{Addr: addr, Weight: weight})
	return nil, nil
}

func hostRevert(ctx *HostContext) ([]byte, error) {
	code := uint32(0)
	if len(ctx.Args) > 0 && len(ctx.Args[0]) >= 4 {
		code = uint32(ctx.Args[0][0]) | uint32(ctx.Args[0][1])<<8 | uint32(ctx.Args[0][2])<<16 | uint32(ctx.Args[0][3])<<24
	}
	return nil, newExecError(KindRevert, "module reverted with code %d", code)
}
