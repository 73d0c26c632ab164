package core

import "testing"

func TestU512ArithmeticRoundTrip(t *testing.T) {
	a := NewU512(1000)
	b := NewU512(300)

	if got := a.Add(b); got.Cmp(NewU512(1300)) != 0 {
		t.Fatalf("expected 1300, got %v", got.Big())
	}
	if got := a.Sub(b); got.Cmp(NewU512(700)) != 0 {
		t.Fatalf("expected 700, got %v", got.Big())
	}
	if a.Cmp(b) <= 0 {
		t.Fatalf("expected a > b")
	}
	if NewU512(0).IsZero() != true {
		t.Fatalf("expected zero value to report IsZero")
	}
	if a.IsZero() {
		t.Fatalf("expected nonzero value to report !IsZero")
	}
}

func TestU512BytesRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 255, 256, 1_000_000, 18_446_744_073_709_551_615}
	for _, c := range cases {
		u := NewU512(c)
		encoded := u.Bytes()
		decoded, rest, err := U512FromBytes(encoded)
		if err != nil {
			t.Fatalf("decode %d: %v", c, err)
		}
		if len(rest) != 0 {
			t.Fatalf("expected no leftover bytes, got %d", len(rest))
		}
		if decoded.Cmp(u) != 0 {
			t.Fatalf("round trip mismatch for %d: got %v", c, decoded.Big())
		}
	}
}

func TestU512BytesZeroHasEmptyMagnitude(t *testing.T) {
	encoded := NewU512(0).Bytes()
	if len(encoded) != 1 || encoded[0] != 0 {
		t.Fatalf("expected a single zero length-prefix byte, got %v", encoded)
	}
}

func TestU512FromBytesLeavesTrailingData(t *testing.T) {
	first := NewU512(42).Bytes()
	second := NewU512(7).Bytes()
	buf := append(append([]byte{}, first...), second...)

	decoded, rest, err := U512FromBytes(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Cmp(NewU512(42)) != 0 {
		t.Fatalf("expected first value 42, got %v", decoded.Big())
	}
	decoded2, rest2, err := U512FromBytes(rest)
	if err != nil {
		t.Fatalf("decode second: %v", err)
	}
	if decoded2.Cmp(NewU512(7)) != 0 || len(rest2) != 0 {
		t.Fatalf("expected second value 7 with no leftover, got %v rest=%d", decoded2.Big(), len(rest2))
	}
}

func TestU512FromBytesRejectsTruncatedBuffer(t *testing.T) {
	if _, _, err := U512FromBytes([]byte{5, 1, 2}); err == nil {
		t.Fatalf("expected an error when the buffer is shorter than the declared length")
	}
}

func TestU512FromBytesRejectsEmptyBuffer(t *testing.T) {
	if _, _, err := U512FromBytes(nil); err == nil {
		t.Fatalf("expected an error for an empty buffer")
	}
}

func TestU512FromBytesRejectsOversizedLength(t *testing.T) {
	if _, _, err := U512FromBytes([]byte{65}); err == nil {
		t.Fatalf("expected an error for a length prefix above 64")
	}
}
