package pattern

import (
	"errors"
	"testing"
)

// TestParse_Valid checks that well-formed patterns parse and render the
// expected tree shape.
func TestParse_Valid(t *testing.T) {
	tests := []struct {
		pattern string
		kind    Kind
	}{
		{"a", KindClass},
		{"abc", KindConcat},
		{"a|b", KindAlt},
		{"a*", KindRepeat},
		{"a+", KindRepeat},
		{"a?", KindRepeat},
		{"a{2,5}", KindRepeat},
		{"a{3}", KindRepeat},
		{"a{2,}", KindRepeat},
		{"(ab|cd)", KindGroup},
		{"[a-z]", KindClass},
		{"[^a-z]", KindClass},
		{"[]a]", KindClass},
		{"[a-]", KindClass},
		{".", KindClass},
		{`\n`, KindClass},
		{`\x41`, KindClass},
		{`\d`, KindClass},
		{`a/b`, KindTrail},
		{`ab/cd`, KindTrail},
		{"^a", KindConcat},
		{"a$", KindConcat},
		{`a\*b`, KindConcat},
		{"(a|b)*abb", KindConcat},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			node, err := Parse(tt.pattern, nil)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.pattern, err)
			}
			if node.Kind() != tt.kind {
				t.Errorf("Parse(%q) root kind = %v, want %v", tt.pattern, node.Kind(), tt.kind)
			}
		})
	}
}

// TestParse_Errors checks that malformed patterns fail with the right
// sentinel error.
func TestParse_Errors(t *testing.T) {
	tests := []struct {
		pattern string
		want    error
	}{
		{"[abc", ErrUnterminatedClass},
		{"[", ErrUnterminatedClass},
		{"[]", ErrUnterminatedClass}, // first ] is a literal member
		{"[z-a]", ErrBadClassRange},
		{`[^\x00-\xff]`, ErrEmptyClass},
		{"a{5,2}", ErrInvalidRepetition},
		{"a{5000}", ErrInvalidRepetition},
		{"a{2,x", ErrInvalidRepetition},
		{"*a", ErrNothingToRepeat},
		{"{2,3}", ErrNothingToRepeat},
		{"(ab", ErrUnbalancedParen},
		{"ab)", ErrUnbalancedParen},
		{`ab\`, ErrTrailingBackslash},
		{`\q`, ErrBadEscape},
		{`\x4`, ErrBadEscape},
		{"a^b", ErrMisplacedAnchor},
		{"a$b", ErrMisplacedAnchor},
		{"a/b/c", ErrMultipleTrailing},
		{"{undefined}", ErrUnknownMacro},
		{"", ErrEmptyPattern},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			_, err := Parse(tt.pattern, nil)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want %v", tt.pattern, tt.want)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse(%q) error = %v, want %v", tt.pattern, err, tt.want)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Errorf("Parse(%q) error is not a *ParseError: %T", tt.pattern, err)
			}
		})
	}
}

// TestParse_DeepNesting ensures deeply nested groups fail cleanly instead
// of exhausting the stack.
func TestParse_DeepNesting(t *testing.T) {
	pat := ""
	for i := 0; i < MaxNestingDepth+10; i++ {
		pat += "("
	}
	pat += "a"
	for i := 0; i < MaxNestingDepth+10; i++ {
		pat += ")"
	}

	_, err := Parse(pat, nil)
	if !errors.Is(err, ErrNestingTooDeep) {
		t.Errorf("deeply nested pattern error = %v, want %v", err, ErrNestingTooDeep)
	}
}

func TestParse_ClassNormalization(t *testing.T) {
	node, err := Parse("[d-fa-czb]", nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	ranges := node.Ranges()
	want := []Range{{Lo: 'a', Hi: 'f'}, {Lo: 'z', Hi: 'z'}}
	if len(ranges) != len(want) {
		t.Fatalf("got %d ranges %v, want %d", len(ranges), ranges, len(want))
	}
	for i := range want {
		if ranges[i] != want[i] {
			t.Errorf("range %d = %v, want %v", i, ranges[i], want[i])
		}
	}
}

func TestParse_NegatedClass(t *testing.T) {
	node, err := Parse("[^a]", nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	ranges := node.Ranges()
	want := []Range{{Lo: 0, Hi: 'a' - 1}, {Lo: 'a' + 1, Hi: 0xFF}}
	if len(ranges) != 2 || ranges[0] != want[0] || ranges[1] != want[1] {
		t.Errorf("got ranges %v, want %v", ranges, want)
	}
}

func TestParse_TrailingContextShape(t *testing.T) {
	node, err := Parse("ab/cd", nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if node.Kind() != KindTrail {
		t.Fatalf("root kind = %v, want Trail", node.Kind())
	}
	subs := node.Subs()
	if len(subs) != 2 {
		t.Fatalf("Trail has %d subs, want 2", len(subs))
	}
	if subs[0].Kind() != KindConcat || subs[1].Kind() != KindConcat {
		t.Errorf("head/trail kinds = %v/%v, want Concat/Concat", subs[0].Kind(), subs[1].Kind())
	}
}

// TestParse_SlashInsideGroup verifies / is only a trailing-context
// operator at top level.
func TestParse_SlashInsideGroup(t *testing.T) {
	node, err := Parse("(a/b)", nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if node.Kind() != KindGroup {
		t.Errorf("root kind = %v, want Group", node.Kind())
	}
}

func TestParse_RepetitionOfGroupedMacro(t *testing.T) {
	m := NewMacros()
	if err := m.Define("DIGIT", "[0-9]"); err != nil {
		t.Fatalf("Define failed: %v", err)
	}
	node, err := Parse("{DIGIT}+", nil)
	if !errors.Is(err, ErrUnknownMacro) {
		t.Fatalf("parse without table error = %v, want ErrUnknownMacro", err)
	}

	node, err = Parse("{DIGIT}+", m)
	if err != nil {
		t.Fatalf("Parse with macros failed: %v", err)
	}
	if node.Kind() != KindRepeat {
		t.Errorf("root kind = %v, want Repeat", node.Kind())
	}
	if node.Subs()[0].Kind() != KindGroup {
		t.Errorf("repeated node kind = %v, want Group", node.Subs()[0].Kind())
	}
}

func TestNormalizeRanges_NoWrapAt255(t *testing.T) {
	got := NormalizeRanges([]Range{{Lo: 0xFE, Hi: 0xFF}, {Lo: 0x10, Hi: 0x20}})
	want := []Range{{Lo: 0x10, Hi: 0x20}, {Lo: 0xFE, Hi: 0xFF}}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %v, want %v", got, want)
	}
}
