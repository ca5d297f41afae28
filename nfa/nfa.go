package nfa

import "fmt"

// StateID uniquely identifies an NFA state.
// This is a 32-bit unsigned integer for compact representation.
type StateID uint32

// InvalidState represents an invalid/uninitialized state ID.
const InvalidState StateID = 0xFFFFFFFF

// NoRule marks an accept label that is not an accept.
const NoRule int32 = -1

// StateKind identifies the type of NFA state and determines which
// transitions are valid.
type StateKind uint8

const (
	// StateRange consumes a single byte in [lo, hi].
	StateRange StateKind = iota

	// StateSparse consumes a byte matching one of several disjoint ranges
	// (a character class).
	StateSparse

	// StateSplit is an epsilon transition to two states, used for
	// alternation and repetition.
	StateSplit

	// StateEpsilon is an epsilon transition to one state, used for
	// sequencing without consuming input.
	StateEpsilon

	// StateMatch is an accepting state carrying its rule's accept label.
	StateMatch
)

// String returns a human-readable representation of the StateKind.
func (k StateKind) String() string {
	switch k {
	case StateRange:
		return "Range"
	case StateSparse:
		return "Sparse"
	case StateSplit:
		return "Split"
	case StateEpsilon:
		return "Epsilon"
	case StateMatch:
		return "Match"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// CutKind says how a trailing-context accept truncates the matched span.
type CutKind uint8

const (
	// CutNone: the lexeme is the full matched span.
	CutNone CutKind = iota

	// CutHead: the head has fixed length CutLen; the lexeme is the first
	// CutLen bytes of the span.
	CutHead

	// CutTrail: the trailing context has fixed length CutLen; the lexeme
	// is the span minus its last CutLen bytes.
	CutTrail
)

// Accept is the label of an accepting state: which rule fires, and how
// trailing context truncates the lexeme. Rule is the rule's declaration
// index; it is a strict total order used only to break ties between
// equal-length matches, never to override the longest match.
type Accept struct {
	Rule   int32
	Cut    CutKind
	CutLen int32
}

// NoAccept is the label of a non-accepting state.
var NoAccept = Accept{Rule: NoRule}

// IsAccept reports whether the label marks an accepting state.
func (a Accept) IsAccept() bool {
	return a.Rule != NoRule
}

// State is a single NFA state. The kind determines which fields are valid.
type State struct {
	id   StateID
	kind StateKind

	// StateRange: byte range [lo, hi]; next is shared with StateEpsilon.
	lo, hi byte
	next   StateID

	// StateSparse: disjoint byte ranges with a shared target.
	ranges []Transition

	// StateSplit: epsilon transitions to two states.
	left, right StateID

	// StateMatch: the accept label.
	accept Accept
}

// Transition is one byte range of a sparse state.
type Transition struct {
	Lo   byte
	Hi   byte
	Next StateID
}

// ID returns the state's unique identifier.
func (s *State) ID() StateID {
	return s.id
}

// Kind returns the state's type.
func (s *State) Kind() StateKind {
	return s.kind
}

// Range returns the byte range and target of a Range state.
// Returns (0, 0, InvalidState) for other kinds.
func (s *State) Range() (lo, hi byte, next StateID) {
	if s.kind == StateRange {
		return s.lo, s.hi, s.next
	}
	return 0, 0, InvalidState
}

// Sparse returns the transitions of a Sparse state, nil otherwise.
func (s *State) Sparse() []Transition {
	if s.kind == StateSparse {
		return s.ranges
	}
	return nil
}

// Split returns the two targets of a Split state.
func (s *State) Split() (left, right StateID) {
	if s.kind == StateSplit {
		return s.left, s.right
	}
	return InvalidState, InvalidState
}

// Epsilon returns the target of an Epsilon state.
func (s *State) Epsilon() StateID {
	if s.kind == StateEpsilon {
		return s.next
	}
	return InvalidState
}

// AcceptLabel returns the accept label of a Match state, NoAccept
// otherwise.
func (s *State) AcceptLabel() Accept {
	if s.kind == StateMatch {
		return s.accept
	}
	return NoAccept
}

// MovesOn reports whether the state consumes b, and if so the target.
// Epsilon and Split states never move on input.
func (s *State) MovesOn(b byte) (StateID, bool) {
	switch s.kind {
	case StateRange:
		if b >= s.lo && b <= s.hi {
			return s.next, true
		}
	case StateSparse:
		for _, t := range s.ranges {
			if b >= t.Lo && b <= t.Hi {
				return t.Next, true
			}
		}
	}
	return InvalidState, false
}

// String returns a human-readable representation of the state.
func (s *State) String() string {
	switch s.kind {
	case StateRange:
		if s.lo == s.hi {
			return fmt.Sprintf("State(%d, Range %#02x -> %d)", s.id, s.lo, s.next)
		}
		return fmt.Sprintf("State(%d, Range [%#02x-%#02x] -> %d)", s.id, s.lo, s.hi, s.next)
	case StateSparse:
		return fmt.Sprintf("State(%d, Sparse %d ranges)", s.id, len(s.ranges))
	case StateSplit:
		return fmt.Sprintf("State(%d, Split -> [%d, %d])", s.id, s.left, s.right)
	case StateEpsilon:
		return fmt.Sprintf("State(%d, Epsilon -> %d)", s.id, s.next)
	case StateMatch:
		return fmt.Sprintf("State(%d, Match rule %d)", s.id, s.accept.Rule)
	default:
		return fmt.Sprintf("State(%d, Unknown)", s.id)
	}
}

// NFA is the merged automaton for one start condition: every rule active
// under the condition joined below two start states. It is immutable once
// built.
type NFA struct {
	states []State

	// start is entered at an interior position; it reaches every
	// unanchored rule.
	start StateID

	// startBOL is entered at the beginning of a line; it additionally
	// reaches the ^-anchored rules.
	startBOL StateID

	// classes partitions the byte alphabet so that two bytes share a
	// class iff every transition in this NFA treats them identically.
	classes ByteClasses
}

// Start returns the interior start state.
func (n *NFA) Start() StateID {
	return n.start
}

// StartBOL returns the beginning-of-line start state.
func (n *NFA) StartBOL() StateID {
	return n.startBOL
}

// State returns the state with the given ID, or nil if out of range.
func (n *NFA) State(id StateID) *State {
	if id == InvalidState || int(id) >= len(n.states) {
		return nil
	}
	return &n.states[id]
}

// Len returns the number of states.
func (n *NFA) Len() int {
	return len(n.states)
}

// ByteClasses returns the byte equivalence classes of this NFA.
func (n *NFA) ByteClasses() *ByteClasses {
	return &n.classes
}

// String returns a human-readable summary of the NFA.
func (n *NFA) String() string {
	return fmt.Sprintf("NFA{states: %d, start: %d, startBOL: %d, classes: %d}",
		len(n.states), n.start, n.startBOL, n.classes.Count())
}
