// Package table holds the compiled, serializable form of a lexer: one
// transition table per start condition, row-compressed, plus the rule
// metadata the scanner needs at match time. Tables marshal to XDR so a
// generated lexer can be built once and loaded elsewhere.
package table

import "github.com/coregx/lexgen/nfa"

// FormatVersion is bumped whenever the serialized layout changes.
const FormatVersion uint32 = 1

// Accept labels a table state. Rule is the winning rule's declaration
// index, or -1 for a non-accepting state. Cut and CutLen carry trailing
// context metadata, mirroring the automaton's labels.
type Accept struct {
	Rule   int32
	Cut    uint8
	CutLen int32
}

// IsAccept reports whether the state accepts at all.
func (a Accept) IsAccept() bool {
	return a.Rule >= 0
}

// NoAccept is the label of non-accepting states.
var NoAccept = Accept{Rule: -1}

// RuleInfo is the per-rule metadata carried alongside the tables.
// Action is the caller-assigned action code reported with each token.
type RuleInfo struct {
	Action   uint32
	HasTrail bool
}

// Except overrides one byte class of a diff row.
type Except struct {
	Class uint8
	Next  uint32
}

// Row is one state's transitions. A dense row stores every class
// directly. A diff row stores a donor row plus the classes where this
// state disagrees with it; lookups fall through to the donor, and donors
// always precede their dependents, so chains are finite and their length
// is bounded at build time.
type Row struct {
	Dense   []uint32
	Default uint32
	Except  []Except
}

// IsDense reports whether the row stores all transitions directly.
func (r *Row) IsDense() bool {
	return r.Dense != nil
}

// Cond is the compiled table of one start condition.
type Cond struct {
	Name       string
	Exclusive  bool
	Classes    [256]byte
	NumClasses uint32
	Start      uint32
	StartBOL   uint32
	Rows       []Row
	Accepts    []Accept
}

// Class maps an input byte to its equivalence class.
func (c *Cond) Class(b byte) uint8 {
	return c.Classes[b]
}

// Next steps from state on an input byte, resolving diff rows through
// their donor chain. State 0 is the dead state.
func (c *Cond) Next(state uint32, b byte) uint32 {
	class := c.Classes[b]
	for {
		r := &c.Rows[state]
		if r.Dense != nil {
			return r.Dense[class]
		}
		if next, ok := lookupExcept(r.Except, class); ok {
			return next
		}
		state = r.Default
	}
}

// Accept returns the accept label of a state.
func (c *Cond) Accept(state uint32) Accept {
	return c.Accepts[state]
}

func lookupExcept(ex []Except, class uint8) (uint32, bool) {
	// Exceptions are few and sorted; linear scan beats binary search at
	// these sizes.
	for i := range ex {
		if ex[i].Class == class {
			return ex[i].Next, true
		}
		if ex[i].Class > class {
			break
		}
	}
	return 0, false
}

// Program is a complete compiled lexer: every start condition's table
// plus rule metadata, in declaration order. Condition 0 is INITIAL.
type Program struct {
	Version uint32
	Rules   []RuleInfo
	Conds   []Cond
}

// New assembles a program at the current format version.
func New(rules []RuleInfo, conds []Cond) *Program {
	return &Program{Version: FormatVersion, Rules: rules, Conds: conds}
}

// CondIndex finds a start condition by name.
func (p *Program) CondIndex(name string) (int, bool) {
	for i := range p.Conds {
		if p.Conds[i].Name == name {
			return i, true
		}
	}
	return 0, false
}

// accept conversion from the automaton's labels.
func fromNFAAccept(a nfa.Accept) Accept {
	if !a.IsAccept() {
		return NoAccept
	}
	return Accept{Rule: a.Rule, Cut: uint8(a.Cut), CutLen: a.CutLen}
}
