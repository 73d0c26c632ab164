package core

import "github.com/holiman/uint256"

// Weight is the influence an associated key carries toward an account's
// key-management and deployment thresholds.
type Weight uint8

// ActionThresholds gate how much combined associated-key weight is needed
// to change an account's keys versus to submit a deploy as that account.
type ActionThresholds struct {
	KeyManagement Weight
	Deployment    Weight
}

// AssociatedKey pairs an account address with the weight it was granted.
type AssociatedKey struct {
	Addr   Hash
	Weight Weight
}

// Account is the session/payment execution context: its associated keys
// govern authorization, its known keys are its private namespace, and its
// main purse is where payment is deducted from and refunds land.
type Account struct {
	Addr             Hash
	NamedKeys        map[string]Key
	AssociatedKeys   []AssociatedKey
	ActionThresholds ActionThresholds
	MainPurse        URef
}

func NewAccount(addr Hash, mainPurse URef) *Account {
	return &Account{
		Addr:      addr,
		NamedKeys: map[string]Key{},
		MainPurse: mainPurse,
		ActionThresholds: ActionThresholds{
			KeyManagement: 1,
			Deployment:    1,
		},
	}
}

// CanDeploy reports whether the combined weight of the supplied signer set
// (each identified by account address) meets the account's deployment
// threshold.
func (a *Account) CanDeploy(signers map[Hash]struct{}) bool {
	return a.combinedWeight(signers) >= a.ActionThresholds.Deployment
}

// CanManageKeys reports whether the combined weight of the supplied signer
// set meets the account's key-management threshold.
func (a *Account) CanManageKeys(signers map[Hash]struct{}) bool {
	return a.combinedWeight(signers) >= a.ActionThresholds.KeyManagement
}

func (a *Account) combinedWeight(signers map[Hash]struct{}) Weight {
	var total int
	for _, ak := range a.AssociatedKeys {
		if _, ok := signers[ak.Addr]; ok {
			total += int(ak.Weight)
		}
	}
	if total > 255 {
		total = 255
	}
	return Weight(total)
}

func (a *Account) GetKey(name string) (Key, bool) {
	k, ok := a.NamedKeys[name]
	return k, ok
}

func (a *Account) PutKey(name string, k Key) {
	a.NamedKeys[name] = k
}

// Contract is the persisted result of storing a module's exports and the
// named keys it closed over at the time it was stored (its "known keys").
type Contract struct {
	Bytes     []byte
	NamedKeys map[string]Key
	ProtocolVersion uint64
}

// Purse is the mint's record of a balance: the balance itself lives at a
// separate, internally-addressed URef reachable only through the purse's
// balance key, matching the original "purses hold an inner balance URef"
// indirection that the spec requires for forged-reference safety.
type Purse struct {
	BalanceKey Key
}

// UInt256 wraps holiman/uint256 for the 256-bit integer value variant,
// used by AddUInt256 transforms.
type UInt256 = uint256.Int

func NewUInt256(v uint64) *UInt256 { return uint256.NewInt(v) }
