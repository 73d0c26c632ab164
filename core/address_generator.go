package core

// Phase identifies which stage of the deploy pipeline is currently
// executing, used both to pick a gas limit policy and to seed this
// deploy's address generator so that payment, session and finalize never
// collide on a generated address even when run against the same deploy
// hash.
type Phase uint8

const (
	PhasePayment Phase = iota
	PhaseSession
	PhaseFinalize
	PhaseGenesis
)

// AddressGenerator deterministically derives a stream of fresh 32-byte
// addresses (for new URefs and contract hashes) from a single seed, so
// that re-executing the same deploy against the same prestate always
// allocates the same addresses in the same order — required for the
// engine's determinism invariant. Grounded on the teacher's
// DeriveContractAddress (sha256(creator++code)), generalized to a
// counter-mode stream and switched to Blake2b for consistency with the
// rest of the engine's hashing.
type AddressGenerator struct {
	seed    Hash
	counter uint64
}

// NewAddressGenerator seeds a generator from a deploy (or install) hash
// and the phase it is being used in, matching the original's per-phase
// address generator ("new AddressGenerator for each of payment/session/
// finalize so a session module can't predict or collide with the payment
// module's addresses").
func NewAddressGenerator(deployHash Hash, phase Phase) *AddressGenerator {
	return &AddressGenerator{seed: Blake2bHash2(deployHash[:], []byte{byte(phase)})}
}

// NewURefAddr returns the next address in this generator's deterministic
// stream, advancing the counter.
func (g *AddressGenerator) NewURefAddr() Hash {
	addr := Blake2bHash2(g.seed[:], le64(g.counter))
	g.counter++
	return addr
}

// NewURef allocates a fresh URef with full read/add/write rights — new
// allocations are always maximally capable; restricting rights happens
// only when a capability is copied into another context.
func (g *AddressGenerator) NewURef() URef {
	return URef{Addr: g.NewURefAddr(), Rights: AccessRead | AccessWrite | AccessAdd}
}

// NewContractHash allocates the address a StoredContractByHash resolution
// will use for a module installed during this phase.
func (g *AddressGenerator) NewContractHash() Hash {
	return g.NewURefAddr()
}
