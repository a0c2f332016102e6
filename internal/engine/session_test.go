package engine

import "testing"

func TestResolveOrdinal(t *testing.T) {
	sess := NewSession()
	sess.SetListing([]int64{11, 22, 33})

	cases := []struct {
		in string
		id int64
		ok bool
	}{
		{"1", 11, true},
		{"2", 22, true},
		{"3", 33, true},
		{" 2 ", 22, true},
		{"0", 0, false},
		{"4", 0, false},
		{"9", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{"1.5", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		id, ok := sess.ResolveOrdinal(tc.in)
		if ok != tc.ok || id != tc.id {
			t.Fatalf("%q: expected (%d, %v), got (%d, %v)", tc.in, tc.id, tc.ok, id, ok)
		}
	}
}

func TestSetListingReplacesPreviousMapping(t *testing.T) {
	sess := NewSession()
	sess.SetListing([]int64{11, 22, 33})
	sess.SetListing([]int64{44})

	if id, ok := sess.ResolveOrdinal("1"); !ok || id != 44 {
		t.Fatalf("expected ordinal 1 to resolve to 44, got (%d, %v)", id, ok)
	}
	if _, ok := sess.ResolveOrdinal("2"); ok {
		t.Fatalf("stale ordinal 2 must not resolve against the new listing")
	}
}

func TestResetClearsScratchState(t *testing.T) {
	sess := NewSession()
	sess.PendingKind = "expense"
	sess.PendingCategory = "🍔 Food"
	sess.PendingCurrency = "USD"
	sess.SetListing([]int64{1})
	sess.EditTargetID = 7

	sess.Reset()

	if sess.PendingKind != "" || sess.PendingCategory != "" || sess.PendingCurrency != "" {
		t.Fatalf("pending fields not cleared: %+v", sess)
	}
	if len(sess.DisplayedIDs) != 0 || sess.EditTargetID != 0 {
		t.Fatalf("listing state not cleared: %+v", sess)
	}
}
