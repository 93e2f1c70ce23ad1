package cooccur

import (
	"reflect"
	"testing"
)

const (
	id1 = "ard:Y3JpZDovL2Rhc2Vyc3RlLmRlL3RhZ2Vzc2NoYXUyNA"
	id2 = "zdf:zdf-magazin-royale-102"
	id3 = "arte:RC-026195_de"
	id4 = "some:other:identifier"
)

func TestSubmitSingleList(t *testing.T) {
	c := NewCounter()
	c.Submit([]string{id1, id2, id3})

	if got := c.PairCount(); got != 3 {
		t.Fatalf("pair count = %d, want 3", got)
	}
	for other, want := range map[string]uint64{id2: 1, id3: 1} {
		if got := c.Query(id1)[other]; got != want {
			t.Errorf("count(%s, %s) = %d, want %d", id1, other, got, want)
		}
	}
	if got := c.Query(id2)[id3]; got != 1 {
		t.Errorf("count(%s, %s) = %d, want 1", id2, id3, got)
	}
}

func TestSubmitCumulativeCounts(t *testing.T) {
	c := NewCounter()
	c.Submit([]string{"A", "B", "C"})
	c.Submit([]string{"B", "C", "D"})
	c.Submit([]string{"A", "C"})

	if got := c.PairCount(); got != 5 {
		t.Fatalf("pair count = %d, want 5", got)
	}
	wantA := map[string]uint64{"B": 1, "C": 2}
	if got := c.Query("A"); !reflect.DeepEqual(got, wantA) {
		t.Errorf("Query(A) = %v, want %v", got, wantA)
	}
	wantB := map[string]uint64{"A": 1, "C": 2, "D": 1}
	if got := c.Query("B"); !reflect.DeepEqual(got, wantB) {
		t.Errorf("Query(B) = %v, want %v", got, wantB)
	}
	wantC := map[string]uint64{"A": 2, "B": 2, "D": 1}
	if got := c.Query("C"); !reflect.DeepEqual(got, wantC) {
		t.Errorf("Query(C) = %v, want %v", got, wantC)
	}
}

func TestSubmitEmptyAndSingleElementLists(t *testing.T) {
	c := NewCounter()

	c.Submit(nil)
	if c.PairCount() != 0 || c.IdentifierCount() != 0 {
		t.Fatal("empty list must not register anything")
	}

	c.Submit([]string{id1})
	if got := c.PairCount(); got != 0 {
		t.Errorf("pair count after single-element list = %d, want 0", got)
	}
	if got := c.IdentifierCount(); got != 1 {
		t.Errorf("identifier count = %d, want 1", got)
	}
}

// IDs are handed out in first-seen order starting at zero and are stable
// across submissions.
func TestIdentifierIDsStableAndDense(t *testing.T) {
	c := NewCounter()
	c.Submit([]string{id1, id2})
	c.Submit([]string{id2, id3, id1})

	c.mu.Lock()
	defer c.mu.Unlock()
	want := map[string]uint32{id1: 0, id2: 1, id3: 2}
	if !reflect.DeepEqual(c.ids, want) {
		t.Errorf("id assignment = %v, want %v", c.ids, want)
	}
	for s, id := range c.ids {
		if c.names[id] != s {
			t.Errorf("names[%d] = %q, want %q", id, c.names[id], s)
		}
	}
}

// A list containing the same identifier twice produces a self-pair, and the
// identifier reports itself among its co-occurrences.
func TestSubmitRepeatedIdentifierSelfPair(t *testing.T) {
	c := NewCounter()
	c.Submit([]string{id1, id1, id2})

	got := c.Query(id1)
	// Position pairs: (0,1) self, (0,2) and (1,2) with id2.
	if got[id1] != 1 {
		t.Errorf("self-pair count = %d, want 1", got[id1])
	}
	if got[id2] != 2 {
		t.Errorf("count(%s, %s) = %d, want 2", id1, id2, got[id2])
	}
	if c.PairCount() != 2 {
		t.Errorf("pair count = %d, want 2", c.PairCount())
	}
}

func TestQueryUnknownIdentifier(t *testing.T) {
	c := NewCounter()
	c.Submit([]string{id1, id2})

	got := c.Query("never-seen")
	if len(got) != 0 {
		t.Errorf("Query(unknown) = %v, want empty map", got)
	}
	if got == nil {
		t.Error("Query(unknown) must return an empty map, not nil")
	}
}

func TestNewPairCanonical(t *testing.T) {
	if NewPair(7, 3) != (Pair{Lo: 3, Hi: 7}) {
		t.Error("NewPair(7,3) not canonicalized")
	}
	if NewPair(3, 7) != NewPair(7, 3) {
		t.Error("NewPair must be order-independent")
	}
	if NewPair(5, 5) != (Pair{Lo: 5, Hi: 5}) {
		t.Error("NewPair(5,5) must keep both sides")
	}
}

func TestSubmissionCount(t *testing.T) {
	c := NewCounter()
	c.Submit([]string{"a"})
	c.Submit(nil)
	c.Submit([]string{"a", "b"})
	if got := c.SubmissionCount(); got != 3 {
		t.Errorf("SubmissionCount = %d, want 3", got)
	}
}
