package core

import "fmt"

// StoredValue is the sum type of everything a Transform can write or
// combine into global state: account records, contracts, raw balances and
// named-key sets. It is intentionally small and closed, mirroring the
// original Value enum.
type StoredValue struct {
	Account  *Account
	Contract *Contract
	Balance  *U512
	NamedKey *Key // used when a transform only ever touches a single named key slot
}

// TransformTag discriminates the Transform sum type.
type TransformTag uint8

const (
	TransformIdentity TransformTag = iota
	TransformWrite
	TransformAddInt32
	TransformAddUInt256
	TransformAddUInt512
	TransformAddKeys
	TransformFailure
)

// Transform is the commutative effect algebra applied to the tracking
// copy's write-set during commit: every transform in a deploy's effect set
// must compose in any order to the same result except for the rare
// Write-after-Write collision the engine treats as last-writer-wins within
// a single deploy's own buffered writes (never across deploys, which are
// applied strictly sequentially).
type Transform struct {
	Tag      TransformTag
	Write    StoredValue
	AddInt32 int32
	AddU256  *UInt256
	AddU512  *U512
	AddKeys  map[string]Key
	FailMsg  string
}

func Identity() Transform { return Transform{Tag: TransformIdentity} }

func WriteAccount(a *Account) Transform {
	return Transform{Tag: TransformWrite, Write: StoredValue{Account: a}}
}

func WriteContract(c *Contract) Transform {
	return Transform{Tag: TransformWrite, Write: StoredValue{Contract: c}}
}

func WriteBalance(b *U512) Transform {
	return Transform{Tag: TransformWrite, Write: StoredValue{Balance: b}}
}

func AddU512Transform(v *U512) Transform {
	return Transform{Tag: TransformAddUInt512, AddU512: v}
}

func AddU256Transform(v *UInt256) Transform {
	return Transform{Tag: TransformAddUInt256, AddU256: v}
}

func AddKeysTransform(keys map[string]Key) Transform {
	return Transform{Tag: TransformAddKeys, AddKeys: keys}
}

func FailureTransform(msg string) Transform {
	return Transform{Tag: TransformFailure, FailMsg: msg}
}

// Apply combines a transform with the value currently stored at a key
// (nil if absent), returning the new stored value or an error if the
// transform cannot apply to that value's shape (a TypeMismatch
// precondition in the original's terms, surfaced here as an ExecError
// since it can only be discovered mid-execution).
func (t Transform) Apply(current *StoredValue) (StoredValue, error) {
	switch t.Tag {
	case TransformIdentity:
		if current == nil {
			return StoredValue{}, nil
		}
		return *current, nil
	case TransformWrite:
		return t.Write, nil
	case TransformAddUInt512:
		base := NewU512(0)
		if current != nil && current.Balance != nil {
			base = current.Balance
		} else if current != nil {
			return StoredValue{}, wrapExecError(KindTypeMismatch, nil, "AddUInt512 on non-balance value")
		}
		return StoredValue{Balance: base.Add(t.AddU512)}, nil
	case TransformAddUInt256:
		var base UInt256
		if current != nil && current.Balance != nil {
			b := current.Balance.Big()
			base.SetFromBig(b)
		} else if current != nil {
			return StoredValue{}, wrapExecError(KindTypeMismatch, nil, "AddUInt256 on non-balance value")
		}
		base.Add(&base, t.AddU256)
		return StoredValue{Balance: U512FromBig(base.ToBig())}, nil
	case TransformAddKeys:
		var acct *Account
		if current != nil && current.Account != nil {
			acct = current.Account
		} else {
			return StoredValue{}, wrapExecError(KindTypeMismatch, nil, "AddKeys on non-account value")
		}
		merged := &Account{
			Addr:             acct.Addr,
			NamedKeys:        map[string]Key{},
			AssociatedKeys:   acct.AssociatedKeys,
			ActionThresholds: acct.ActionThresholds,
			MainPurse:        acct.MainPurse,
		}
		for k, v := range acct.NamedKeys {
			merged.NamedKeys[k] = v
		}
		for k, v := range t.AddKeys {
			merged.NamedKeys[k] = v
		}
		return StoredValue{Account: merged}, nil
	case TransformFailure:
		return StoredValue{}, wrapExecError(KindTypeMismatch, nil, "%s", t.FailMsg)
	default:
		return StoredValue{}, fmt.Errorf("unknown transform tag %d", t.Tag)
	}
}

// Commutes reports whether two transforms destined for the same key are
// guaranteed to produce the same combined result regardless of apply
// order — false whenever either side is a Write (last-writer-wins is
// order-dependent by definition), otherwise true when either side is
// Identity or both sides are the same kind of Add.
func (t Transform) Commutes(other Transform) bool {
	if t.Tag == TransformWrite || other.Tag == TransformWrite {
		return false
	}
	if t.Tag == TransformIdentity || other.Tag == TransformIdentity {
		return true
	}
	return t.Tag == other.Tag
}
