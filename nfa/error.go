// Package nfa builds nondeterministic finite automata from parsed rule
// patterns by Thompson-style structural composition.
//
// One Compiler instance produces the merged NFA for one start condition:
// each eligible rule compiles to a fragment ending in a Match state that
// carries the rule's accept label, and Finish joins the fragments under a
// pair of start states (interior and beginning-of-line). The byte-class
// alphabet for the eventual tables is accumulated as a side effect of
// construction.
package nfa

import (
	"errors"
	"fmt"
)

// Errors reported during NFA construction.
var (
	// ErrStateLimit indicates the configured automaton state ceiling was
	// exceeded. It protects against runaway growth from large bounded
	// repetitions or adversarial macro expansion.
	ErrStateLimit = errors.New("NFA state limit exceeded")

	// ErrAmbiguousTrailing indicates head and trailing context whose
	// boundary cannot be decided: neither part has a fixed length, or
	// both can only match the empty string.
	ErrAmbiguousTrailing = errors.New("ambiguous trailing context")

	// ErrUnsupportedNode indicates an AST node in a position the builder
	// does not accept, such as a nested anchor. The parser does not
	// produce such trees; this guards hand-built ones.
	ErrUnsupportedNode = errors.New("unsupported pattern node")
)

// BuildError wraps a construction failure with the offending rule's
// declaration index.
type BuildError struct {
	Rule int32
	Err  error
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	if e.Rule >= 0 {
		return fmt.Sprintf("rule %d: %v", e.Rule, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *BuildError) Unwrap() error {
	return e.Err
}
