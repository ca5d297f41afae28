// Package pattern parses lexer rule patterns into abstract syntax trees.
//
// The dialect is the lex/flex one: literals, character classes, alternation,
// concatenation, the *, +, ? and {m,n} quantifiers, grouping, {name} macro
// references, the ^ and $ anchors, and head/trail trailing context. Parsing
// is byte-oriented; the alphabet is the 256 byte values.
//
// The parser has no side effects beyond the returned tree and error. Macro
// state lives in an explicit Macros table passed to Parse, so independent
// compilations never interfere.
package pattern

import (
	"errors"
	"fmt"
)

// Errors reported while parsing a pattern or resolving macros. They are
// always returned wrapped in a *ParseError or *MacroError carrying the
// offending location; match with errors.Is.
var (
	// ErrUnterminatedClass indicates a character class with no closing ].
	ErrUnterminatedClass = errors.New("unterminated character class")

	// ErrEmptyClass indicates a character class that matches no byte.
	ErrEmptyClass = errors.New("character class matches no byte")

	// ErrBadClassRange indicates a class range whose low end exceeds its
	// high end, as in [z-a].
	ErrBadClassRange = errors.New("invalid character class range")

	// ErrUnknownMacro indicates a {name} reference to an undefined macro.
	ErrUnknownMacro = errors.New("reference to undefined macro")

	// ErrCyclicMacro indicates a macro that references itself, directly
	// or transitively.
	ErrCyclicMacro = errors.New("cyclic macro definition")

	// ErrDuplicateMacro indicates a macro name defined twice.
	ErrDuplicateMacro = errors.New("macro already defined")

	// ErrBadMacroName indicates a macro name that is not an identifier.
	ErrBadMacroName = errors.New("invalid macro name")

	// ErrInvalidRepetition indicates malformed or out-of-order {m,n}
	// bounds, including a minimum exceeding the maximum.
	ErrInvalidRepetition = errors.New("invalid repetition bounds")

	// ErrNothingToRepeat indicates a quantifier with no preceding atom.
	ErrNothingToRepeat = errors.New("quantifier with nothing to repeat")

	// ErrUnbalancedParen indicates an unmatched ( or ).
	ErrUnbalancedParen = errors.New("unbalanced parenthesis")

	// ErrTrailingBackslash indicates a pattern ending in a bare backslash.
	ErrTrailingBackslash = errors.New("trailing backslash")

	// ErrBadEscape indicates an invalid escape sequence such as \x with
	// missing hex digits.
	ErrBadEscape = errors.New("invalid escape sequence")

	// ErrMisplacedAnchor indicates a ^ not at the start or a $ not at the
	// end of the pattern.
	ErrMisplacedAnchor = errors.New("anchor not at pattern boundary")

	// ErrMultipleTrailing indicates more than one trailing-context
	// operator in a pattern.
	ErrMultipleTrailing = errors.New("multiple trailing contexts")

	// ErrNestingTooDeep indicates group/alternation nesting beyond the
	// parser's fixed depth bound.
	ErrNestingTooDeep = errors.New("pattern nesting too deep")

	// ErrEmptyPattern indicates an entirely empty rule pattern.
	ErrEmptyPattern = errors.New("empty pattern")
)

// ParseError is a pattern parse failure at a byte offset. The offset is
// retained for the caller's error reporter; this package does no location
// formatting beyond Error.
type ParseError struct {
	Pattern string
	Pos     int
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("pattern %q: offset %d: %v", e.Pattern, e.Pos, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// MacroError is a failure to define or resolve a macro.
type MacroError struct {
	Name string
	Err  error
}

// Error implements the error interface.
func (e *MacroError) Error() string {
	return fmt.Sprintf("macro %q: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *MacroError) Unwrap() error {
	return e.Err
}
