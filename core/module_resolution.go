package core

// System-contract info resolution (renamed/adapted from the teacher's
// contract lifecycle manager: ownership/pause/upgrade administration has
// no home in this domain, so what survives is the piece genuinely
// analogous to the spec's needs — resolving a system contract's hash and
// named keys through a hash-tagged named key; no public/inner URef
// dereference is done).

// SystemContractInfo names the two things the deploy pipeline needs from
// the mint and proof-of-stake contracts: the contract's own hash (so
// GetModule can resolve calls into it) and its "well known" named keys
// (e.g. the PoS rewards purse), found via the virtual system account's
// named keys. Grounded on the original's system-contract lookup performed
// via known_keys on the executing account before the payment phase runs.
type SystemContractInfo struct {
	ContractHash Hash
	NamedKeys    map[string]Key
}

// GetSystemContractInfo resolves name (e.g. "mint" or "pos") against the
// virtual system account's named keys and loads the stored contract at
// the resolved hash, failing with SystemContractMissing if either step
// comes up empty — this precondition is checked once per deploy, before
// any gas is charged, matching the original engine's requirement that
// missing system contracts abort before the payment phase even starts.
func GetSystemContractInfo(tc *TrackingCopy, systemAccount *Account, name string) (*SystemContractInfo, error) {
	k, ok := systemAccount.GetKey(name)
	if !ok {
		return nil, newPrecondition(KindSystemContractMissing, "system contract %q not installed", name)
	}
	if k.Tag != KeyTagHash {
		return nil, newPrecondition(KindTypeMismatch, "system contract %q named key is not a hash", name)
	}
	c, err := tc.GetContract(k.Addr)
	if err != nil {
		return nil, newPrecondition(KindSystemContractMissing, "system contract %q hash %s not found: %v", name, k.Addr, err)
	}
	return &SystemContractInfo{ContractHash: k.Addr, NamedKeys: c.NamedKeys}, nil
}
