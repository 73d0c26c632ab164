package core

import "testing"

func TestTransformApplyWrite(t *testing.T) {
	bal := NewU512(42)
	tr := WriteBalance(bal)
	out, err := tr.Apply(nil)
	if err != nil {
		t.Fatalf("apply write: %v", err)
	}
	if out.Balance.Cmp(bal) != 0 {
		t.Fatalf("write did not take effect: got %v want %v", out.Balance.Big(), bal.Big())
	}
}

func TestTransformApplyAddUInt512(t *testing.T) {
	current := StoredValue{Balance: NewU512(10)}
	tr := AddU512Transform(NewU512(5))
	out, err := tr.Apply(&current)
	if err != nil {
		t.Fatalf("apply add: %v", err)
	}
	if out.Balance.Cmp(NewU512(15)) != 0 {
		t.Fatalf("add result = %v want 15", out.Balance.Big())
	}
}

func TestTransformApplyAddOnAbsentValueStartsFromZero(t *testing.T) {
	tr := AddU512Transform(NewU512(5))
	out, err := tr.Apply(nil)
	if err != nil {
		t.Fatalf("apply add on nil: %v", err)
	}
	if out.Balance.Cmp(NewU512(5)) != 0 {
		t.Fatalf("add-from-nil result = %v want 5", out.Balance.Big())
	}
}

func TestTransformApplyAddTypeMismatch(t *testing.T) {
	current := StoredValue{Account: &Account{}}
	tr := AddU512Transform(NewU512(1))
	if _, err := tr.Apply(&current); err == nil {
		t.Fatalf("expected type mismatch error adding a balance to an account slot")
	}
}

func TestTransformApplyAddKeysMerges(t *testing.T) {
	acct := &Account{Addr: Hash{1}, NamedKeys: map[string]Key{"a": NewHashKey(Hash{2})}}
	current := StoredValue{Account: acct}
	tr := AddKeysTransform(map[string]Key{"b": NewHashKey(Hash{3})})
	out, err := tr.Apply(&current)
	if err != nil {
		t.Fatalf("apply add keys: %v", err)
	}
	if len(out.Account.NamedKeys) != 2 {
		t.Fatalf("expected 2 named keys, got %d", len(out.Account.NamedKeys))
	}
	if _, ok := acct.NamedKeys["b"]; ok {
		t.Fatalf("AddKeys must not mutate the original account's map")
	}
}

func TestTransformApplyFailure(t *testing.T) {
	tr := FailureTransform("boom")
	if _, err := tr.Apply(nil); err == nil {
		t.Fatalf("expected an error from a Failure transform")
	}
}

func TestTransformCommutes(t *testing.T) {
	add1 := AddU512Transform(NewU512(1))
	add2 := AddU512Transform(NewU512(2))
	write := WriteBalance(NewU512(3))

	if !add1.Commutes(add2) {
		t.Fatalf("two AddUInt512 transforms must commute")
	}
	if add1.Commutes(write) {
		t.Fatalf("a Write must never commute with anything")
	}
	if write.Commutes(write) {
		t.Fatalf("two Writes must never be treated as commuting")
	}
	if !Identity().Commutes(add1) {
		t.Fatalf("Identity must commute with an Add")
	}
	if Identity().Commutes(write) {
		t.Fatalf("a Write must not commute even with Identity")
	}
}
