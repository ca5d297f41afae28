// Package lexgen compiles lexer rule sets into table-driven scanners.
// Rules are regular expressions in the lex tradition: maximal munch,
// declaration-order tie breaking, ^ and $ anchors, trailing context, and
// named macro definitions. Each start condition compiles to its own
// automaton: pattern ASTs feed a Thompson NFA, subset construction makes
// it deterministic, partition refinement minimizes it, and the result is
// row-compressed into serializable tables the scanner package executes.
package lexgen

import (
	"errors"
	"fmt"

	"github.com/coregx/lexgen/scanner"
	"github.com/coregx/lexgen/table"
)

// Rule is one lexer rule. Rules match in declaration order: when two
// rules match the same longest prefix, the earlier one wins.
type Rule struct {
	// Pattern is the regular expression, including any ^/$ anchor or
	// trailing context.
	Pattern string
	// Conditions names the start conditions this rule is active in. An
	// empty list means every inclusive condition; the single name "*"
	// means every condition, exclusive ones included.
	Conditions []string
	// Action is an opaque code reported on each token this rule
	// produces.
	Action uint32
}

// Condition declares a start condition. INITIAL is implicit and must not
// be declared. Inclusive conditions also run the rules that name no
// condition; exclusive ones run only rules naming them.
type Condition struct {
	Name      string
	Exclusive bool
}

// Config bounds and tunes compilation.
type Config struct {
	// StateLimit caps both NFA and DFA state counts per start
	// condition. Zero or negative means unlimited.
	StateLimit int
	// MaxDepth and MaxExceptions are the row compression bounds; see
	// table.Options.
	MaxDepth      int
	MaxExceptions int
	// NoMinimize skips DFA minimization.
	NoMinimize bool
	// NoCompress emits dense rows only.
	NoCompress bool
	// Serial compiles start conditions one at a time instead of in
	// parallel.
	Serial bool
	// FastPathMinLiterals is the minimum number of rules a condition
	// needs before an all-literal condition gets an Aho-Corasick fast
	// path. Zero or negative disables the fast path.
	FastPathMinLiterals int
}

// DefaultConfig returns the limits used when callers have no opinion.
func DefaultConfig() Config {
	return Config{
		StateLimit:          100000,
		MaxDepth:            4,
		MaxExceptions:       8,
		FastPathMinLiterals: 3,
	}
}

var (
	// ErrDuplicateCondition is returned when two conditions share a
	// name, or a declared condition is named INITIAL.
	ErrDuplicateCondition = errors.New("duplicate start condition")

	// ErrUnknownCondition is returned when a rule names a condition
	// that was never declared.
	ErrUnknownCondition = errors.New("rule names unknown start condition")

	// ErrNoRules is returned when the rule set is empty.
	ErrNoRules = errors.New("no rules")
)

// Error wraps a compilation failure with the rule or condition it came
// from. Rule is -1 for failures not tied to a single rule.
type Error struct {
	Rule    int
	Pattern string
	Cond    string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Rule >= 0 && e.Cond != "":
		return fmt.Sprintf("rule %d (%q) in %s: %v", e.Rule, e.Pattern, e.Cond, e.Err)
	case e.Rule >= 0:
		return fmt.Sprintf("rule %d (%q): %v", e.Rule, e.Pattern, e.Err)
	case e.Cond != "":
		return fmt.Sprintf("condition %s: %v", e.Cond, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Warning flags a rule that can never match in one of its conditions,
// usually because an earlier rule shadows it completely.
type Warning struct {
	Rule int
	Cond string
}

func (w Warning) String() string {
	return fmt.Sprintf("rule %d can never match in condition %s", w.Rule, w.Cond)
}

// Program is a compiled lexer ready to scan, or to serialize via its
// table form.
type Program struct {
	tab  *table.Program
	fast []*scanner.FastPath
}

// Table exposes the serializable tables. Marshal them with
// Table().MarshalXDR.
func (p *Program) Table() *table.Program {
	return p.tab
}

// NewScanner creates an independent scanner over src. Scanners share the
// program's tables but nothing else, so each goroutine gets its own.
func (p *Program) NewScanner(src scanner.Source) *scanner.Scanner {
	s := scanner.New(p.tab, src)
	for i, f := range p.fast {
		if f != nil {
			s.SetFastPath(i, f)
		}
	}
	return s
}

// Load reconstructs a program from serialized tables. Literal fast paths
// are a compile-time artifact and are not revived here; loaded programs
// always scan through the tables.
func Load(bs []byte) (*Program, error) {
	var tab table.Program
	if err := tab.UnmarshalXDR(bs); err != nil {
		return nil, err
	}
	return &Program{tab: &tab, fast: make([]*scanner.FastPath, len(tab.Conds))}, nil
}
