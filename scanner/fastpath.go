package scanner

import (
	"github.com/coregx/ahocorasick"
)

// FastPath matches a condition whose rules are all plain literals with
// an Aho-Corasick automaton instead of the transition tables. The
// compiler only builds one when no literal occurs inside another: then
// the automaton's earliest-ending match is the match at the cursor
// whenever one exists, so the fast path and the tables agree on every
// input.
type FastPath struct {
	auto  *ahocorasick.Automaton
	rules map[string]int32
}

// NewFastPath builds a matcher over the given literal-to-rule mapping.
func NewFastPath(literals map[string]int32) (*FastPath, error) {
	builder := ahocorasick.NewBuilder()
	for lit := range literals {
		builder.AddPattern([]byte(lit))
	}
	auto, err := builder.Build()
	if err != nil {
		return nil, err
	}
	rules := make(map[string]int32, len(literals))
	for lit, rule := range literals {
		rules[lit] = rule
	}
	return &FastPath{auto: auto, rules: rules}, nil
}

// match looks for a literal anchored at the start of window. A match
// found further in does not count; the scanner needs the lexeme to begin
// at the cursor.
func (f *FastPath) match(window []byte) (rule int32, length int, ok bool) {
	m := f.auto.Find(window, 0)
	if m == nil || m.Start != 0 {
		return 0, 0, false
	}
	rule, ok = f.rules[string(window[:m.End])]
	if !ok {
		return 0, 0, false
	}
	return rule, m.End, true
}
