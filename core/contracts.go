package core

// Module resolution for the deploy pipeline.
//
// An ExecutableDeployItem names the code to run in one of four ways; this
// file resolves each variant down to (moduleHash, bytes) pairs the
// executor can run. Grounded on the teacher's ContractRegistry (Deploy/
// Invoke/All) and directly on the original's `get_module`.
//
// Build-graph: depends on tracking_copy, key/value, errors. No VM import.

// DeployItemTag discriminates the four ways a deploy names the code to
// execute, matching the original's ExecutableDeployItem enum.
type DeployItemTag uint8

const (
	DeployItemModuleBytes DeployItemTag = iota
	DeployItemStoredContractByHash
	DeployItemStoredContractByName
	DeployItemStoredContractByURef
)

// DeployItem is one phase's code reference plus its call arguments.
type DeployItem struct {
	Tag        DeployItemTag
	ModuleCode []byte // DeployItemModuleBytes
	Hash       Hash   // DeployItemStoredContractByHash
	Name       string // DeployItemStoredContractByName (resolved via the account's named keys)
	URefBytes  []byte // DeployItemStoredContractByURef (raw address bytes; length-checked below)
	EntryPoint string
	Args       [][]byte
}

// ResolvedModule is what GetModule returns: the bytes to execute plus the
// hash identifying it (used to detect the mint/PoS sentinels in the
// executor, and as the key under which any contract storage happens).
type ResolvedModule struct {
	Hash  Hash
	Bytes []byte
}

// GetModule resolves a DeployItem against an account's named keys and the
// tracking copy's contract storage, mirroring the original's get_module:
// ModuleBytes needs no storage lookup; the three Stored* variants all
// resolve through a Key and must find a Contract there.
func GetModule(tc *TrackingCopy, acct *Account, item DeployItem) (*ResolvedModule, error) {
	switch item.Tag {
	case DeployItemModuleBytes:
		return &ResolvedModule{Hash: Blake2bHash(item.ModuleCode), Bytes: item.ModuleCode}, nil

	case DeployItemStoredContractByHash:
		c, err := tc.GetContract(item.Hash)
		if err != nil {
			return nil, err
		}
		return &ResolvedModule{Hash: item.Hash, Bytes: c.Bytes}, nil

	case DeployItemStoredContractByName:
		k, ok := acct.GetKey(item.Name)
		if !ok {
			return nil, newPrecondition(KindKeyNotFound, "named key %q not found on account %s", item.Name, acct.Addr)
		}
		if k.Tag != KeyTagHash {
			return nil, newPrecondition(KindTypeMismatch, "named key %q is not a contract hash", item.Name)
		}
		c, err := tc.GetContract(k.Addr)
		if err != nil {
			return nil, err
		}
		return &ResolvedModule{Hash: k.Addr, Bytes: c.Bytes}, nil

	case DeployItemStoredContractByURef:
		if len(item.URefBytes) != HashLen {
			return nil, newPrecondition(KindInvalidHashLength, "StoredContractByURef address must be %d bytes, got %d", HashLen, len(item.URefBytes))
		}
		var addr Hash
		copy(addr[:], item.URefBytes)
		u := URef{Addr: addr, Rights: AccessRead}
		if !uRefKnownToAccount(acct, u) {
			return nil, newPrecondition(KindForgedReference, "uref %s is not reachable from account %s", u.Addr, acct.Addr)
		}
		v, err := tc.Read(NewURefKey(u))
		if err != nil {
			return nil, err
		}
		if v == nil || v.NamedKey == nil {
			return nil, newPrecondition(KindKeyNotFound, "uref %s does not indirect to a contract hash", u.Addr)
		}
		inner := *v.NamedKey
		if inner.Tag != KeyTagHash {
			return nil, newPrecondition(KindTypeMismatch, "uref %s does not indirect to a contract hash", u.Addr)
		}
		c, err := tc.GetContract(inner.Addr)
		if err != nil {
			return nil, err
		}
		return &ResolvedModule{Hash: inner.Addr, Bytes: c.Bytes}, nil
	}
	return nil, newPrecondition(KindTypeMismatch, "unknown deploy item tag %d", item.Tag)
}

// uRefKnownToAccount enforces the forged-reference-safety invariant: a
// StoredContractByURef reference is only honored if the URef (ignoring
// access rights) appears somewhere in the account's own named keys —
// an attacker cannot simply invent an address and have it resolved.
func uRefKnownToAccount(acct *Account, u URef) bool {
	for _, k := range acct.NamedKeys {
		if k.Tag == KeyTagURef && k.Addr == u.Addr {
			return true
		}
	}
	return false
}

// StoreContract persists compiled module bytes as a Contract reachable by
// hash, used by the genesis installer and by any session that installs a
// new stored contract via put_key + write.
func StoreContract(tc *TrackingCopy, hash Hash, bytes []byte, namedKeys map[string]Key) {
	tc.Write(NewHashKey(hash), StoredValue{Contract: &Contract{Bytes: bytes, NamedKeys: namedKeys}})
}
