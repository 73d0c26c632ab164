package core

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// HashLen is the width in bytes of every root hash, key hash and URef
// address in this engine, matching the original "Blake2bHash" naming used
// throughout the source the spec was distilled from.
const HashLen = 32

// Hash is a 32-byte Blake2b digest used for state roots, contract
// addresses and URef addresses.
type Hash [HashLen]byte

// ZeroHash is the digest of the empty byte string, used as the genesis
// trie's parent root sentinel.
var ZeroHash = Blake2bHash(nil)

// Blake2bHash hashes data with Blake2b-256, the single hash algorithm this
// engine uses everywhere a digest is required (determinism invariant: one
// algorithm, no negotiation).
func Blake2bHash(data []byte) Hash {
	return Blake2bHash2(data, nil)
}

// Blake2bHash2 hashes the concatenation of a and b without allocating an
// intermediate slice for the common "prefix ++ suffix" shape used by the
// address generator and genesis install-hash derivation.
func Blake2bHash2(a, b []byte) Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only errors on a bad key length, and we never pass one.
		panic(err)
	}
	h.Write(a)
	h.Write(b)
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// Blake2bHashN hashes the concatenation of an arbitrary number of byte
// slices, used by the genesis installer to fold the protocol name, a
// timestamp and the wasm cost schedule into one install-deploy hash.
func Blake2bHashN(parts ...[]byte) Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}
	for _, p := range parts {
		h.Write(p)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

func le64(v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b[:]
}

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) String() string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(h)*2)
	for i, b := range h {
		out[i*2] = hextable[b>>4]
		out[i*2+1] = hextable[b&0xf]
	}
	return string(out)
}
