package sparse

import "testing"

func TestSet_InsertContains(t *testing.T) {
	s := New(64)

	if s.Contains(5) {
		t.Error("empty set should not contain 5")
	}
	if !s.Insert(5) {
		t.Error("first insert of 5 should report newly added")
	}
	if s.Insert(5) {
		t.Error("second insert of 5 should report already present")
	}
	if !s.Contains(5) {
		t.Error("set should contain 5 after insert")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestSet_InsertionOrder(t *testing.T) {
	s := New(16)
	order := []uint32{7, 2, 11, 0, 3}
	for _, v := range order {
		s.Insert(v)
	}
	// Duplicates must not disturb order.
	s.Insert(2)
	s.Insert(7)

	got := s.Values()
	if len(got) != len(order) {
		t.Fatalf("Values() has %d elements, want %d", len(got), len(order))
	}
	for i, v := range order {
		if got[i] != v {
			t.Errorf("Values()[%d] = %d, want %d", i, got[i], v)
		}
	}
}

func TestSet_Clear(t *testing.T) {
	s := New(8)
	for i := uint32(0); i < 8; i++ {
		s.Insert(i)
	}
	s.Clear()

	if s.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", s.Len())
	}
	for i := uint32(0); i < 8; i++ {
		if s.Contains(i) {
			t.Errorf("set should not contain %d after Clear", i)
		}
	}

	// Stale sparse entries must not produce false positives after reuse.
	s.Insert(3)
	if s.Contains(5) {
		t.Error("set should not contain 5 after Clear and unrelated insert")
	}
}

func TestSet_OutOfRangeContains(t *testing.T) {
	s := New(4)
	if s.Contains(100) {
		t.Error("Contains above capacity should be false, not panic")
	}
}
