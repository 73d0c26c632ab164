package core

import "testing"

func TestAddressGeneratorDeterministic(t *testing.T) {
	deployHash := Hash{1, 2, 3}
	g1 := NewAddressGenerator(deployHash, PhaseSession)
	g2 := NewAddressGenerator(deployHash, PhaseSession)

	for i := 0; i < 5; i++ {
		a1 := g1.NewURefAddr()
		a2 := g2.NewURefAddr()
		if a1 != a2 {
			t.Fatalf("iteration %d: generators seeded identically diverged: %s vs %s", i, a1, a2)
		}
	}
}

func TestAddressGeneratorPhasesDoNotCollide(t *testing.T) {
	deployHash := Hash{9, 9, 9}
	payment := NewAddressGenerator(deployHash, PhasePayment)
	session := NewAddressGenerator(deployHash, PhaseSession)

	if payment.NewURefAddr() == session.NewURefAddr() {
		t.Fatalf("payment and session phase generators must not produce the same first address")
	}
}

func TestAddressGeneratorAdvancesCounter(t *testing.T) {
	g := NewAddressGenerator(Hash{1}, PhaseGenesis)
	seen := map[Hash]struct{}{}
	for i := 0; i < 10; i++ {
		addr := g.NewURefAddr()
		if _, dup := seen[addr]; dup {
			t.Fatalf("address repeated at iteration %d", i)
		}
		seen[addr] = struct{}{}
	}
}

func TestNewURefHasFullRights(t *testing.T) {
	g := NewAddressGenerator(Hash{1}, PhasePayment)
	u := g.NewURef()
	if !u.Rights.Readable() || !u.Rights.Writable() || !u.Rights.Addable() {
		t.Fatalf("freshly allocated URef must have full rights, got %03o", u.Rights)
	}
}
