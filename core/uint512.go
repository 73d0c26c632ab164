package core

import "math/big"

// U512 is the wire type used for purse balances and the motes unit
// everywhere in this engine. No library in the dependency corpus provides
// an arbitrary-width (>256 bit) unsigned integer — holiman/uint256 is
// fixed at 256 bits — so this wraps math/big.Int with the canonical
// length-prefixed little-endian codec described for the balance value
// type. This is the one place in the engine that falls back to the
// standard library for a numeric type; see DESIGN.md.
type U512 struct {
	v big.Int
}

func NewU512(v uint64) *U512 {
	u := &U512{}
	u.v.SetUint64(v)
	return u
}

func U512FromBig(v *big.Int) *U512 {
	u := &U512{}
	u.v.Set(v)
	return u
}

func (u *U512) Big() *big.Int { return new(big.Int).Set(&u.v) }

func (u *U512) Add(other *U512) *U512 {
	out := &U512{}
	out.v.Add(&u.v, &other.v)
	return out
}

func (u *U512) Sub(other *U512) *U512 {
	out := &U512{}
	out.v.Sub(&u.v, &other.v)
	return out
}

func (u *U512) Cmp(other *U512) int { return u.v.Cmp(&other.v) }

func (u *U512) IsZero() bool { return u.v.Sign() == 0 }

// Bytes encodes the value as a 1-byte length (0-64) followed by the
// little-endian magnitude, the canonical wire format for U512 values.
func (u *U512) Bytes() []byte {
	be := u.v.Bytes() // big-endian, no leading zero byte
	le := make([]byte, len(be))
	for i, b := range be {
		le[len(be)-1-i] = b
	}
	out := make([]byte, 1+len(le))
	out[0] = byte(len(le))
	copy(out[1:], le)
	return out
}

// U512FromBytes decodes the canonical length-prefixed little-endian wire
// format produced by Bytes.
func U512FromBytes(b []byte) (*U512, []byte, error) {
	if len(b) < 1 {
		return nil, nil, newExecError(KindTypeMismatch, "u512: empty buffer")
	}
	n := int(b[0])
	if n > 64 || len(b) < 1+n {
		return nil, nil, newExecError(KindTypeMismatch, "u512: invalid length prefix %d", n)
	}
	le := b[1 : 1+n]
	be := make([]byte, n)
	for i, bb := range le {
		be[n-1-i] = bb
	}
	u := &U512{}
	u.v.SetBytes(be)
	return u, b[1+n:], nil
}
