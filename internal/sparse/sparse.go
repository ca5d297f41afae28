// Package sparse provides a sparse set over uint32 values.
//
// The set supports O(1) insertion and membership testing and keeps a dense
// list of inserted values in insertion order. It is used to guard the
// epsilon-closure traversal during determinization: repetition constructs
// introduce epsilon cycles in the NFA, and the closure walk must never
// revisit a state.
//
// Clearing the set is O(1) regardless of how many values it holds, which
// matters because the determinizer computes one closure per (state, class)
// pair and reuses the same set throughout.
package sparse

// Set is a sparse set of uint32 values below a fixed capacity.
//
// It maintains a sparse array (value -> dense index) and a dense array
// (the values themselves). A value v is a member iff sparse[v] points at a
// live dense slot holding v; stale sparse entries are harmless, so Clear
// only needs to reset the dense length.
type Set struct {
	sparse []uint32
	dense  []uint32
}

// New creates a set that can hold values in [0, capacity).
func New(capacity uint32) *Set {
	return &Set{
		sparse: make([]uint32, capacity),
		dense:  make([]uint32, 0, capacity),
	}
}

// Insert adds value to the set and reports whether it was newly added.
// Inserting a value at or above the capacity is a caller bug and panics
// via the slice bounds check.
func (s *Set) Insert(value uint32) bool {
	if s.Contains(value) {
		return false
	}
	s.sparse[value] = uint32(len(s.dense))
	s.dense = append(s.dense, value)
	return true
}

// Contains reports whether value is in the set.
func (s *Set) Contains(value uint32) bool {
	if value >= uint32(len(s.sparse)) {
		return false
	}
	idx := s.sparse[value]
	return idx < uint32(len(s.dense)) && s.dense[idx] == value
}

// Len returns the number of values in the set.
func (s *Set) Len() int {
	return len(s.dense)
}

// Values returns the inserted values in insertion order. The slice aliases
// the set's internal storage and is invalidated by Insert or Clear.
func (s *Set) Values() []uint32 {
	return s.dense
}

// Clear empties the set, retaining capacity.
func (s *Set) Clear() {
	s.dense = s.dense[:0]
}

// Capacity returns the exclusive upper bound on storable values.
func (s *Set) Capacity() uint32 {
	return uint32(len(s.sparse))
}
