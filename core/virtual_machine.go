package core

import (
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/wasmerio/wasmer-go/wasmer"
)

// GasMeter tracks gas consumption against a fixed limit for a single
// phase's execution. Grounded on the teacher's GasMeter (used/limit,
// Consume, Remaining), generalized from opcode-priced consumption to
// host-call-priced consumption.
type GasMeter struct {
	limit uint64
	used  uint64
}

func NewGasMeter(limit uint64) *GasMeter { return &GasMeter{limit: limit} }

// Consume charges cost against the meter, returning an ExecError of kind
// GasLimitExceeded if the limit would be exceeded.
func (m *GasMeter) Consume(cost uint64) error {
	if m.used+cost > m.limit {
		m.used = m.limit
		return newExecError(KindGasLimit, "gas limit %d exceeded (used %d, requested %d)", m.limit, m.used, cost)
	}
	m.used += cost
	return nil
}

func (m *GasMeter) Used() uint64      { return m.used }
func (m *GasMeter) Remaining() uint64 { return m.limit - m.used }

// ExecutionResult is the outcome of one phase's execution: its cost in
// gas, the accumulated buffered transforms (nil if the phase failed) and
// an error if the module trapped or reverted. Grounded on the original's
// per-phase ExecutionResult that the ExecutionResultBuilder later merges.
type ExecutionResult struct {
	Cost       uint64
	Effect     map[Key]Transform
	Error      error
	ReturnData []byte
}

// Executor runs a single module (wasm bytecode, or one of the two native
// system-contract sentinels) against a tracking copy fork, metering gas
// through the host call dispatcher. Grounded directly on the teacher's
// HeavyVM: a wasmer.Engine-backed VM that registers host imports under an
// "env" namespace before invoking the module's entrypoint.
type Executor struct {
	engine *wasmer.Engine
	log    *logrus.Entry
}

func NewExecutor() *Executor {
	return &Executor{
		engine: wasmer.NewEngine(),
		log:    logrus.WithField("component", "executor"),
	}
}

// Exec runs a module's session/payment entrypoint as the given account,
// with normal authorization semantics (the enclosing account's named keys
// and purse are reachable). signers is the deploy's authorizing key set,
// checked by host calls (e.g. set_action_threshold) that are gated on
// combined associated-key weight. Mirrors the original's primary `exec`
// path.
func (e *Executor) Exec(tc *TrackingCopy, addrGen *AddressGenerator, acct *Account, signers map[Hash]struct{}, moduleHash Hash, code []byte, args [][]byte, gasLimit uint64) *ExecutionResult {
	return e.run(tc, addrGen, acct, signers, moduleHash, code, args, gasLimit)
}

// ExecDirect runs a module without requiring the caller to be the
// account's own deploy authorization path — used for the finalize phase's
// call into the proof-of-stake contract's "finalize_payment" entrypoint,
// which runs as the virtual system account regardless of who submitted
// the deploy. Mirrors the original's `exec_direct`.
func (e *Executor) ExecDirect(tc *TrackingCopy, addrGen *AddressGenerator, acct *Account, moduleHash Hash, code []byte, args [][]byte, gasLimit uint64) *ExecutionResult {
	return e.run(tc, addrGen, acct, nil, moduleHash, code, args, gasLimit)
}

// BetterExec runs an installer module (mint/PoS at genesis) with an
// explicit, mutable known-keys map rather than an enclosing account —
// mirrors the original's `better_exec`, used only during genesis.
func (e *Executor) BetterExec(tc *TrackingCopy, addrGen *AddressGenerator, knownKeys map[string]Key, moduleHash Hash, code []byte, args [][]byte, gasLimit uint64) *ExecutionResult {
	installerAcct := &Account{Addr: moduleHash, NamedKeys: knownKeys}
	return e.run(tc, addrGen, installerAcct, nil, moduleHash, code, args, gasLimit)
}

func (e *Executor) run(tc *TrackingCopy, addrGen *AddressGenerator, acct *Account, signers map[Hash]struct{}, moduleHash Hash, code []byte, args [][]byte, gasLimit uint64) *ExecutionResult {
	meter := NewGasMeter(gasLimit)
	hctx := &HostContext{TC: tc, AddrGen: addrGen, Account: acct, Meter: meter, Signers: signers, KnownURefs: newKnownURefs(acct)}

	var returnData []byte
	var runErr error

	switch {
	case moduleHash == MintInstallerHash:
		hctx.Args = args
		returnData, runErr = runMint(hctx)
	case moduleHash == PosInstallerHash:
		returnData, runErr = runPOS(hctx, args)
	default:
		returnData, runErr = e.runWasm(hctx, code, args)
	}

	if runErr != nil {
		return &ExecutionResult{Cost: meter.Used(), Error: runErr}
	}
	return &ExecutionResult{Cost: meter.Used(), Effect: tc.Effect(), ReturnData: returnData}
}

// runWasm instantiates code under wasmer, wires the host ABI under the
// "env" import namespace (read/write/add/new_uref/... from §4.4) and
// invokes its "call" export. Grounded on the teacher's HeavyVM
// compile-and-run path.
func (e *Executor) runWasm(hctx *HostContext, code []byte, args [][]byte) ([]byte, error) {
	// Flat per-instantiation charge standing in for injected opcode
	// metering, which this engine does not perform.
	const instantiationGas uint64 = 10_000
	if err := hctx.Meter.Consume(instantiationGas); err != nil {
		return nil, err
	}
	store := wasmer.NewStore(e.engine)
	module, err := wasmer.NewModule(store, code)
	if err != nil {
		return nil, wrapExecError(KindTrapWasm, err, "compile module")
	}

	importObject := wasmer.NewImportObject()
	registerHostImports(store, importObject, hctx)

	instance, err := wasmer.NewInstance(module, importObject)
	if err != nil {
		return nil, wrapExecError(KindTrapWasm, err, "instantiate module")
	}
	defer instance.Close()

	mem, err := instance.Exports.GetMemory("memory")
	if err != nil {
		return nil, wrapExecError(KindInvalidContext, err, "module has no memory export")
	}
	hctx.Memory = mem

	entry, err := instance.Exports.GetFunction("call")
	if err != nil {
		return nil, wrapExecError(KindInvalidContext, err, "module has no call export")
	}
	if _, err := entry(); err != nil {
		return nil, wrapExecError(KindTrapWasm, err, "module trapped")
	}
	return hctx.returnBuf, nil
}

// registerHostImports binds every host call in the dispatcher's catalogue
// to a wasmer import function, matching the teacher's registerHost
// pattern of one env-namespaced import per host capability. Every import
// shares the same four-i32 calling convention: (in_ptr, in_len, out_ptr,
// out_cap) -> out_len. The guest encodes its call arguments as a run of
// length-prefixed frames at in_ptr/in_len (see decodeArgFrames); the host
// writes whatever the call returns starting at out_ptr, trapping if it
// does not fit within out_cap.
func registerHostImports(store *wasmer.Store, obj *wasmer.ImportObject, hctx *HostContext) {
	fns := map[string]HostCall{
		"read":                         HostCallRead,
		"write":                        HostCallWrite,
		"add":                          HostCallAdd,
		"new_uref":                     HostCallNewURef,
		"put_key":                      HostCallPutKey,
		"get_key":                      HostCallGetKey,
		"has_key":                      HostCallHasKey,
		"get_arg":                      HostCallGetArg,
		"ret":                          HostCallRet,
		"call_contract":                HostCallCallContract,
		"create_purse":                 HostCallCreatePurse,
		"transfer_from_purse_to_purse": HostCallTransferPurseToPurse,
		"get_balance":                  HostCallGetBalance,
		"get_main_purse":               HostCallGetMainPurse,
		"set_action_threshold":         HostCallSetActionThreshold,
		"add_associated_key":           HostCallAddAssociatedKey,
		"revert":                       HostCallRevert,
	}
	wasmFns := make(map[string]wasmer.IntoExtern, len(fns))
	for name, call := range fns {
		name, call := name, call
		ty := wasmer.NewFunctionType(
			wasmer.NewValueTypes(wasmer.I32, wasmer.I32, wasmer.I32, wasmer.I32),
			wasmer.NewValueTypes(wasmer.I32),
		)
		wasmFns[name] = wasmer.NewFunction(store, ty, func(vals []wasmer.Value) ([]wasmer.Value, error) {
			inPtr, inLen := vals[0].I32(), vals[1].I32()
			outPtr, outCap := vals[2].I32(), vals[3].I32()

			frames, err := decodeArgFrames(readGuestMemory(hctx.Memory, inPtr, inLen))
			if err != nil {
				return nil, err
			}
			out, err := DispatchHost(hctx, call, frames)
			if err != nil {
				return nil, err
			}
			hctx.returnBuf = out
			if len(out) > int(outCap) {
				return nil, newExecError(KindInvalidContext, "%s: result of %d bytes exceeds guest buffer of %d", name, len(out), outCap)
			}
			writeGuestMemory(hctx.Memory, outPtr, out)
			return []wasmer.Value{wasmer.NewI32(int32(len(out)))}, nil
		})
	}
	obj.Register("env", wasmFns)
}

// readGuestMemory copies ln bytes out of the module's linear memory
// starting at ptr, matching the teacher's read/write memory-access
// helpers in its Heavy VM host bindings.
func readGuestMemory(mem *wasmer.Memory, ptr, ln int32) []byte {
	if ln == 0 {
		return nil
	}
	out := make([]byte, ln)
	copy(out, mem.Data()[ptr:ptr+ln])
	return out
}

func writeGuestMemory(mem *wasmer.Memory, ptr int32, data []byte) {
	if len(data) == 0 {
		return
	}
	copy(mem.Data()[ptr:], data)
}

// decodeArgFrames splits a host call's input buffer into its individual
// byte-string arguments: each frame is a 4-byte little-endian length
// prefix followed by that many payload bytes, repeated back to back.
func decodeArgFrames(buf []byte) ([][]byte, error) {
	var out [][]byte
	for len(buf) > 0 {
		if len(buf) < 4 {
			return nil, newExecError(KindInvalidContext, "malformed host call argument: truncated length prefix")
		}
		n := binary.LittleEndian.Uint32(buf[:4])
		buf = buf[4:]
		if uint64(n) > uint64(len(buf)) {
			return nil, newExecError(KindInvalidContext, "malformed host call argument: frame length %d exceeds remaining %d bytes", n, len(buf))
		}
		frame := make([]byte, n)
		copy(frame, buf[:n])
		out = append(out, frame)
		buf = buf[n:]
	}
	return out, nil
}

// encodeArgFrames is the guest-side inverse of decodeArgFrames; nothing in
// the engine or its tests calls it.
func encodeArgFrames(frames [][]byte) []byte {
	var out []byte
	var lenBuf [4]byte
	for _, f := range frames {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(f)))
		out = append(out, lenBuf[:]...)
		out = append(out, f...)
	}
	return out
}

func (h *HostContext) String() string {
	return fmt.Sprintf("HostContext{account=%s, used=%d/%d}", h.Account.Addr.String(), h.Meter.Used(), h.Meter.limit)
}
