package core

import "fmt"

// TrackingCopy is the per-deploy transactional overlay described in the
// original engine: reads fall through to the committed trie at a fixed
// prestate root, writes and adds buffer into an in-memory map, and
// nothing is visible to any other deploy (or to global state) until the
// buffered transforms are committed by the caller. Grounded on ledger.go's
// Call()/memState copy-on-write isolation, generalized from byte strings
// to the typed Key/Transform model.
type TrackingCopy struct {
	reader Reader
	root   Hash

	// ops tracks, per key, the most recent value observed (post any
	// buffered writes), used to answer reads without re-deriving the
	// combined effect each time.
	ops map[Key]StoredValue
	// transforms accumulates the Add/Write operations applied so far, in
	// the order needed to fold them: only one Transform per key is kept
	// here because Write and Add fold same-key operations into one
	// right-associative combination as they're issued (write-after-write
	// overwrites, add-after-add combines, write-after-add keeps only the
	// write per last-writer-wins for non-commuting pairs).
	transforms map[Key]Transform
}

func NewTrackingCopy(reader Reader, root Hash) *TrackingCopy {
	return &TrackingCopy{
		reader:     reader,
		root:       root,
		ops:        map[Key]StoredValue{},
		transforms: map[Key]Transform{},
	}
}

// Fork returns an independent copy sharing the same reader and root but
// with its own buffered writes — used to give the session phase and the
// finalize phase each their own effect set that can be discarded without
// disturbing the payment phase's already-committed effects.
func (tc *TrackingCopy) Fork() *TrackingCopy {
	f := NewTrackingCopy(tc.reader, tc.root)
	for k, v := range tc.ops {
		f.ops[k] = v
	}
	for k, v := range tc.transforms {
		f.transforms[k] = v
	}
	return f
}

// Read returns the current value visible to this tracking copy: a
// buffered write/add result if present, otherwise whatever the underlying
// reader returns at the fixed prestate root.
func (tc *TrackingCopy) Read(key Key) (*StoredValue, error) {
	nk := key.Normalize()
	if v, ok := tc.ops[nk]; ok {
		cp := v
		return &cp, nil
	}
	v, err := tc.reader.Read(tc.root, key)
	if err != nil {
		return nil, err
	}
	if v != nil {
		tc.ops[nk] = *v
	}
	return v, nil
}

// Write buffers an unconditional overwrite of key, replacing any prior
// buffered transform for that key (last-writer-wins for non-commuting
// operations, matching the spec's Transform algebra).
func (tc *TrackingCopy) Write(key Key, value StoredValue) {
	nk := key.Normalize()
	tc.ops[nk] = value
	tc.transforms[nk] = Transform{Tag: TransformWrite, Write: value}
}

// Add folds transform into whatever is already buffered for key,
// combining same-shaped Add transforms and erroring if the combination is
// not well-typed (e.g. AddUInt512 against a key that currently holds an
// Account).
func (tc *TrackingCopy) Add(key Key, transform Transform) error {
	nk := key.Normalize()
	cur, err := tc.Read(key)
	if err != nil {
		return err
	}
	applied, err := transform.Apply(cur)
	if err != nil {
		return err
	}
	tc.ops[nk] = applied

	prior, hasPrior := tc.transforms[nk]
	switch {
	case !hasPrior:
		tc.transforms[nk] = transform
	case prior.Commutes(transform) && prior.Tag != TransformIdentity:
		// Same-shaped adds combine into a single transform whose value is
		// the running total, so a replay from prestate produces the same
		// result as this deploy's own buffered reads did.
		tc.transforms[nk] = Transform{Tag: transform.Tag, AddU512: sumU512(prior.AddU512, transform.AddU512), AddU256: sumU256(prior.AddU256, transform.AddU256)}
	default:
		// The prior buffered operation was a Write (or another
		// non-commuting shape): an Add layered on top of it can no longer
		// be expressed as a standalone Add relative to prestate, since the
		// Write already discarded whatever prestate held. Collapse the pair
		// into a single Write of the now-applied value instead, so a
		// replay from prestate reproduces this deploy's own view exactly.
		tc.transforms[nk] = Transform{Tag: TransformWrite, Write: applied}
	}
	return nil
}

func sumU512(a, b *U512) *U512 {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return a.Add(b)
}

func sumU256(a, b *UInt256) *UInt256 {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	out := new(UInt256)
	out.Add(a, b)
	return out
}

// Effect returns the buffered transform set accumulated so far, ready to
// hand to StateProvider.Commit.
func (tc *TrackingCopy) Effect() map[Key]Transform {
	out := make(map[Key]Transform, len(tc.transforms))
	for k, v := range tc.transforms {
		out[k] = v
	}
	return out
}

// GetAccount reads and type-asserts an Account at key, returning a
// precondition KeyNotFound/TypeMismatch error on any other outcome —
// grounded on the original's get_account helper used at the top of
// deploy().
func (tc *TrackingCopy) GetAccount(addr Hash) (*Account, error) {
	v, err := tc.Read(NewAccountKey(addr))
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, newPrecondition(KindAccountNotFound, "account %s not found", addr)
	}
	if v.Account == nil {
		return nil, newPrecondition(KindTypeMismatch, "key %s is not an account", addr)
	}
	return v.Account, nil
}

// GetContract reads and type-asserts a Contract at a hash key.
func (tc *TrackingCopy) GetContract(addr Hash) (*Contract, error) {
	v, err := tc.Read(NewHashKey(addr))
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, newPrecondition(KindKeyNotFound, "contract %s not found", addr)
	}
	if v.Contract == nil {
		return nil, newPrecondition(KindTypeMismatch, "key %s is not a contract", addr)
	}
	return v.Contract, nil
}

// GetPurseBalance resolves a purse's balance by following its indirection
// through the internal balance URef, matching the "purses only expose
// their balance through an internally-addressed key" scheme that keeps a
// forged URef from letting an attacker fabricate a balance directly.
func (tc *TrackingCopy) GetPurseBalance(purseKey Key) (*U512, error) {
	u, ok := purseKey.AsURef()
	if !ok {
		return nil, newPrecondition(KindTypeMismatch, "purse key is not a URef")
	}
	v, err := tc.Read(NewURefKey(u))
	if err != nil {
		return nil, err
	}
	if v == nil || v.NamedKey == nil {
		return nil, newPrecondition(KindKeyNotFound, "purse %s has no balance indirection", u.Addr)
	}
	bv, err := tc.Read(*v.NamedKey)
	if err != nil {
		return nil, err
	}
	if bv == nil || bv.Balance == nil {
		return nil, newPrecondition(KindKeyNotFound, "purse %s balance key empty", u.Addr)
	}
	return bv.Balance, nil
}

func (tc *TrackingCopy) String() string {
	return fmt.Sprintf("TrackingCopy{root=%s, buffered=%d}", tc.root.String(), len(tc.ops))
}
