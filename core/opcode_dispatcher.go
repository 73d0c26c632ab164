// SPDX-License-Identifier: BUSL-1.1
//
// Host call dispatcher
// ---------------------
//   - Every host function the executor exposes to a wasm module is
//     assigned a unique HostCall ordinal (see gas_table.go).
//   - The dispatcher maps HostCall -> concrete handler and charges gas via
//     GasCost() before the handler runs.
//   - Collisions are fatal at registration time; nothing slips into
//     production unnoticed.
package core

import (
	"fmt"
	"log"
	"sync"

	"github.com/wasmerio/wasmer-go/wasmer"
)

// HostContext is the per-call context a host function handler receives:
// the tracking copy it reads/writes through, the address generator for
// this phase, the calling account, and a gas meter to charge against.
type HostContext struct {
	TC      *TrackingCopy
	AddrGen *AddressGenerator
	Account *Account
	Meter   *GasMeter
	Args    [][]byte

	// Signers is the authorizing key set of the deploy this phase belongs
	// to, used to check an account's combined associated-key weight
	// before a host call (e.g. set_action_threshold) is allowed to commit
	// a change. Nil for native installer calls, which never run a
	// wasm-level authorization-gated host call.
	Signers map[Hash]struct{}

	// KnownURefs is the set of URef addresses this phase's account may
	// legitimately present to read/write/add, seeded from the account's
	// named keys and main purse and grown as new URefs are minted.
	// Forged-reference checks in host_handlers.go reject any URef whose
	// address is absent from this set regardless of what access-rights
	// byte the caller attached to it.
	KnownURefs map[Hash]struct{}

	// Memory is the wasm instance's linear memory, bound by the executor
	// after instantiation and before the module's entrypoint runs. Host
	// call closures marshal ptr/len arguments and return values through
	// it; nil for native installer calls, which never go through wasm
	// import traps.
	Memory *wasmer.Memory

	// returnBuf holds whatever the most recent host call produced, read
	// back by the executor once the module's entrypoint returns.
	returnBuf []byte
}

// knowsURef reports whether addr is reachable from this phase's account,
// matching the original's check that a URef is only usable if it appears
// somewhere in the caller's known keys.
func (h *HostContext) knowsURef(addr Hash) bool {
	if h.KnownURefs == nil {
		return true // a context built without a known-URef set checks nothing
	}
	_, ok := h.KnownURefs[addr]
	return ok
}

// newKnownURefs seeds the known-URef set for a fresh phase from an
// account's named keys and main purse.
func newKnownURefs(acct *Account) map[Hash]struct{} {
	out := map[Hash]struct{}{acct.MainPurse.Addr: {}}
	for _, k := range acct.NamedKeys {
		if k.Tag == KeyTagURef {
			out[k.Addr] = struct{}{}
		}
	}
	return out
}

// HostFunc is the concrete implementation invoked by the executor for a
// single host call.
type HostFunc func(ctx *HostContext) ([]byte, error)

var (
	hostTable  = make(map[HostCall]HostFunc, 32)
	hostNames  = make(map[string]HostCall, 32)
	hostMu     sync.RWMutex
)

// RegisterHost binds a host call ordinal to its handler and a canonical
// name. It panics on duplicate registration — this should never happen in
// a correctly wired executor.
func RegisterHost(call HostCall, name string, fn HostFunc) {
	hostMu.Lock()
	defer hostMu.Unlock()
	if _, exists := hostTable[call]; exists {
		log.Panicf("[HOSTCALLS] collision: %d already registered", call)
	}
	hostTable[call] = fn
	hostNames[name] = call
}

// DispatchHost is called by the executor for every host import trap. It
// charges the call's base gas cost before running the handler.
func DispatchHost(hctx *HostContext, call HostCall, args [][]byte) ([]byte, error) {
	hostMu.RLock()
	fn, ok := hostTable[call]
	hostMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown host call %d", call)
	}
	if err := hctx.Meter.Consume(GasCost(call)); err != nil {
		return nil, err
	}
	hctx.Args = args
	return fn(hctx)
}

// OpInfo is one entry in the host call catalogue, used by the
// completeness linter in cmd/opcode-lint.
type OpInfo struct {
	Name string
	Call HostCall
}

// Catalogue returns every host call currently registered, used by
// cmd/opcode-lint to verify every registered host call has a unique name
// and a gas-table entry.
func Catalogue() []OpInfo {
	hostMu.RLock()
	defer hostMu.RUnlock()
	out := make([]OpInfo, 0, len(hostNames))
	for name, call := range hostNames {
		out = append(out, OpInfo{Name: name, Call: call})
	}
	return out
}
