package core

import "testing"

func TestAccountCanDeployThreshold(t *testing.T) {
	acct := NewAccount(Hash{1}, URef{})
	acct.AssociatedKeys = []AssociatedKey{
		{Addr: Hash{2}, Weight: 1},
		{Addr: Hash{3}, Weight: 2},
	}
	acct.ActionThresholds = ActionThresholds{KeyManagement: 3, Deployment: 2}

	if acct.CanDeploy(map[Hash]struct{}{{2}: {}}) {
		t.Fatalf("weight 1 should not satisfy a deployment threshold of 2")
	}
	if !acct.CanDeploy(map[Hash]struct{}{{3}: {}}) {
		t.Fatalf("weight 2 should satisfy a deployment threshold of 2")
	}
	if !acct.CanManageKeys(map[Hash]struct{}{{2}: {}, {3}: {}}) {
		t.Fatalf("combined weight 3 should satisfy a key-management threshold of 3")
	}
	if acct.CanManageKeys(map[Hash]struct{}{{2}: {}}) {
		t.Fatalf("weight 1 should not satisfy a key-management threshold of 3")
	}
}

func TestAccountCombinedWeightCapsAtMaxWeight(t *testing.T) {
	acct := NewAccount(Hash{1}, URef{})
	acct.AssociatedKeys = []AssociatedKey{
		{Addr: Hash{2}, Weight: 200},
		{Addr: Hash{3}, Weight: 200},
	}
	acct.ActionThresholds.Deployment = 255

	if !acct.CanDeploy(map[Hash]struct{}{{2}: {}, {3}: {}}) {
		t.Fatalf("expected combined weight to cap at 255 and satisfy the max threshold")
	}
}

func TestAccountNamedKeyRoundTrip(t *testing.T) {
	acct := NewAccount(Hash{1}, URef{})
	if _, ok := acct.GetKey("missing"); ok {
		t.Fatalf("expected no key for an unset name")
	}
	k := NewHashKey(Hash{9})
	acct.PutKey("thing", k)
	got, ok := acct.GetKey("thing")
	if !ok || got != k {
		t.Fatalf("expected PutKey/GetKey to round trip, got %v ok=%v", got, ok)
	}
}
