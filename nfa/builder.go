package nfa

// Builder constructs an NFA incrementally. States are appended with the
// Add methods and wired up with Patch, which resolves the forward
// references that loops and alternations need.
//
// The builder enforces the state ceiling at every append, so construction
// fails fast instead of exhausting memory on adversarial input.
type Builder struct {
	states   []State
	classSet ByteClassSet
	limit    int
}

// NewBuilder creates a builder enforcing the given state ceiling. A limit
// of zero or less means no ceiling.
func NewBuilder(limit int) *Builder {
	return &Builder{
		states: make([]State, 0, 64),
		limit:  limit,
	}
}

func (b *Builder) add(s State) (StateID, error) {
	if b.limit > 0 && len(b.states) >= b.limit {
		return InvalidState, ErrStateLimit
	}
	id := StateID(len(b.states))
	s.id = id
	b.states = append(b.states, s)
	return id, nil
}

// AddRange adds a state consuming one byte in [lo, hi].
func (b *Builder) AddRange(lo, hi byte, next StateID) (StateID, error) {
	b.classSet.AddRange(lo, hi)
	return b.add(State{kind: StateRange, lo: lo, hi: hi, next: next})
}

// AddSparse adds a state consuming one byte from several disjoint ranges,
// all leading to next. The ranges must be normalized.
func (b *Builder) AddSparse(ranges [][2]byte, next StateID) (StateID, error) {
	if len(ranges) == 1 {
		return b.AddRange(ranges[0][0], ranges[0][1], next)
	}
	trans := make([]Transition, len(ranges))
	for i, r := range ranges {
		b.classSet.AddRange(r[0], r[1])
		trans[i] = Transition{Lo: r[0], Hi: r[1], Next: next}
	}
	return b.add(State{kind: StateSparse, ranges: trans})
}

// AddSplit adds an epsilon state forking to two states.
func (b *Builder) AddSplit(left, right StateID) (StateID, error) {
	return b.add(State{kind: StateSplit, left: left, right: right})
}

// AddEpsilon adds an epsilon state leading to next.
func (b *Builder) AddEpsilon(next StateID) (StateID, error) {
	return b.add(State{kind: StateEpsilon, next: next})
}

// AddMatch adds an accepting state with the given label.
func (b *Builder) AddMatch(accept Accept) (StateID, error) {
	return b.add(State{kind: StateMatch, accept: accept})
}

// Patch points a dangling single-target state (Range, Sparse, Epsilon) at
// target. Patching any other kind is a caller bug.
func (b *Builder) Patch(id, target StateID) {
	s := &b.states[id]
	switch s.kind {
	case StateRange, StateEpsilon:
		s.next = target
	case StateSparse:
		for i := range s.ranges {
			s.ranges[i].Next = target
		}
	default:
		panic("nfa: patch on state without a single target")
	}
}

// PatchSplit replaces the targets of a Split state, keeping a target
// unchanged where InvalidState is passed.
func (b *Builder) PatchSplit(id, left, right StateID) {
	s := &b.states[id]
	if s.kind != StateSplit {
		panic("nfa: PatchSplit on non-split state")
	}
	if left != InvalidState {
		s.left = left
	}
	if right != InvalidState {
		s.right = right
	}
}

// Len returns the number of states added so far.
func (b *Builder) Len() int {
	return len(b.states)
}

// Build finalizes the NFA with the given start states. The builder must
// not be used afterwards.
func (b *Builder) Build(start, startBOL StateID) *NFA {
	return &NFA{
		states:   b.states,
		start:    start,
		startBOL: startBOL,
		classes:  b.classSet.Classes(),
	}
}
