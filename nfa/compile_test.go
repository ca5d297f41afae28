package nfa

import (
	"errors"
	"sort"
	"testing"

	"github.com/coregx/lexgen/pattern"
)

// simulate runs the NFA from the given start over input and returns the
// rule ids accepting after the whole input is consumed, sorted ascending.
func simulate(n *NFA, from StateID, input string) []int32 {
	cur := closureOf(n, []StateID{from})
	for i := 0; i < len(input); i++ {
		var next []StateID
		for id := range cur {
			if to, ok := n.State(id).MovesOn(input[i]); ok {
				next = append(next, to)
			}
		}
		cur = closureOf(n, next)
		if len(cur) == 0 {
			return nil
		}
	}
	var rules []int32
	for id := range cur {
		if a := n.State(id).AcceptLabel(); a.IsAccept() {
			rules = append(rules, a.Rule)
		}
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i] < rules[j] })
	return rules
}

func closureOf(n *NFA, seed []StateID) map[StateID]bool {
	seen := make(map[StateID]bool)
	stack := append([]StateID(nil), seed...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == InvalidState || seen[id] {
			continue
		}
		seen[id] = true
		switch s := n.State(id); s.Kind() {
		case StateEpsilon:
			stack = append(stack, s.Epsilon())
		case StateSplit:
			left, right := s.Split()
			stack = append(stack, left, right)
		}
	}
	return seen
}

func compileOne(t *testing.T, pat string) *NFA {
	t.Helper()
	node, err := pattern.Parse(pat, nil)
	if err != nil {
		t.Fatalf("Parse(%q): %v", pat, err)
	}
	c := NewCompiler(0)
	if err := c.AddRule(node, 0); err != nil {
		t.Fatalf("AddRule(%q): %v", pat, err)
	}
	n, err := c.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return n
}

func TestCompileRule_Matching(t *testing.T) {
	tests := []struct {
		pattern string
		yes     []string
		no      []string
	}{
		{"ab", []string{"ab"}, []string{"", "a", "b", "abc"}},
		{"ab|cd", []string{"ab", "cd"}, []string{"ad", "cb", "abcd"}},
		{"a*", []string{"", "a", "aaaa"}, []string{"b", "ab"}},
		{"a+b", []string{"ab", "aaab"}, []string{"b", "a"}},
		{"a?b", []string{"b", "ab"}, []string{"aab", "a"}},
		{"a{2,4}", []string{"aa", "aaa", "aaaa"}, []string{"a", "aaaaa"}},
		{"a{3}", []string{"aaa"}, []string{"aa", "aaaa"}},
		{"a{2,}", []string{"aa", "aaaaaa"}, []string{"", "a"}},
		{"[a-c]", []string{"a", "b", "c"}, []string{"d", "ab"}},
		{"[^a]", []string{"b", "\n"}, []string{"a", ""}},
		{".", []string{"x", " "}, []string{"\n", ""}},
		{"(ab)+", []string{"ab", "abab"}, []string{"a", "aba"}},
		{`\d+`, []string{"7", "123"}, []string{"", "12a"}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			n := compileOne(t, tt.pattern)
			for _, in := range tt.yes {
				if got := simulate(n, n.Start(), in); len(got) == 0 {
					t.Errorf("%q should match %q", tt.pattern, in)
				}
			}
			for _, in := range tt.no {
				if got := simulate(n, n.Start(), in); len(got) != 0 {
					t.Errorf("%q should not match %q", tt.pattern, in)
				}
			}
		})
	}
}

func TestCompileRule_TrailingContextCuts(t *testing.T) {
	tests := []struct {
		pattern string
		cut     CutKind
		cutLen  int32
	}{
		{"abc/x*", CutHead, 3},
		{"a*/xy", CutTrail, 2},
		{"if/[ \t]", CutHead, 2},
		{"a$", CutHead, 1},   // both sides fixed; the head side wins
		{"a+$", CutTrail, 1}, // variable head forces the trail side
		{"(ab|cd)/e*", CutHead, 2},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			n := compileOne(t, tt.pattern)
			var found *Accept
			for id := StateID(0); int(id) < n.Len(); id++ {
				if a := n.State(id).AcceptLabel(); a.IsAccept() {
					found = &a
				}
			}
			if found == nil {
				t.Fatal("no accept state")
			}
			if found.Cut != tt.cut || found.CutLen != tt.cutLen {
				t.Errorf("cut = (%d, %d), want (%d, %d)",
					found.Cut, found.CutLen, tt.cut, tt.cutLen)
			}
		})
	}
}

func TestCompileRule_AmbiguousTrailing(t *testing.T) {
	for _, pat := range []string{"a*/b*", "x+/y+"} {
		t.Run(pat, func(t *testing.T) {
			node, err := pattern.Parse(pat, nil)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			c := NewCompiler(0)
			err = c.AddRule(node, 0)
			if !errors.Is(err, ErrAmbiguousTrailing) {
				t.Errorf("err = %v, want ErrAmbiguousTrailing", err)
			}
			var be *BuildError
			if !errors.As(err, &be) || be.Rule != 0 {
				t.Errorf("err = %v, want *BuildError for rule 0", err)
			}
		})
	}
}

func TestCompileRule_TrailingContextMatchesWhole(t *testing.T) {
	// The automaton for head/trail accepts head followed by trail; the
	// cut metadata rewinds the lexeme later.
	n := compileOne(t, "ab/cd")
	if got := simulate(n, n.Start(), "abcd"); len(got) == 0 {
		t.Error("ab/cd should accept abcd as a whole")
	}
	if got := simulate(n, n.Start(), "ab"); len(got) != 0 {
		t.Error("ab/cd should not accept ab alone")
	}
}

func TestCompileRule_BeginLineAnchor(t *testing.T) {
	n := compileOne(t, "^ab")
	if got := simulate(n, n.Start(), "ab"); len(got) != 0 {
		t.Error("^ab reachable from the interior start")
	}
	if got := simulate(n, n.StartBOL(), "ab"); len(got) == 0 {
		t.Error("^ab not reachable from the BOL start")
	}
}

func TestCompileRule_MixedAnchoring(t *testing.T) {
	node1, _ := pattern.Parse("^a", nil)
	node2, _ := pattern.Parse("b", nil)
	c := NewCompiler(0)
	if err := c.AddRule(node1, 0); err != nil {
		t.Fatal(err)
	}
	if err := c.AddRule(node2, 1); err != nil {
		t.Fatal(err)
	}
	n, err := c.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if got := simulate(n, n.Start(), "a"); len(got) != 0 {
		t.Error("interior start should not reach the anchored rule")
	}
	if got := simulate(n, n.StartBOL(), "a"); len(got) != 1 || got[0] != 0 {
		t.Errorf("BOL start on %q = %v, want [0]", "a", got)
	}
	if got := simulate(n, n.Start(), "b"); len(got) != 1 || got[0] != 1 {
		t.Errorf("interior start on %q = %v, want [1]", "b", got)
	}
}

func TestCompileRule_OverlappingRules(t *testing.T) {
	node1, _ := pattern.Parse("a", nil)
	node2, _ := pattern.Parse("[a-z]", nil)
	c := NewCompiler(0)
	if err := c.AddRule(node1, 0); err != nil {
		t.Fatal(err)
	}
	if err := c.AddRule(node2, 1); err != nil {
		t.Fatal(err)
	}
	n, err := c.Finish()
	if err != nil {
		t.Fatal(err)
	}
	got := simulate(n, n.Start(), "a")
	if len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("accepts on %q = %v, want [0 1]", "a", got)
	}
}

func TestCompiler_StateLimit(t *testing.T) {
	node, err := pattern.Parse("abcdefgh", nil)
	if err != nil {
		t.Fatal(err)
	}
	c := NewCompiler(3)
	err = c.AddRule(node, 0)
	if !errors.Is(err, ErrStateLimit) {
		t.Errorf("err = %v, want ErrStateLimit", err)
	}
}

func TestCompiler_FinishNoRules(t *testing.T) {
	c := NewCompiler(0)
	n, err := c.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if got := simulate(n, n.Start(), ""); len(got) != 0 {
		t.Errorf("empty condition accepted empty input: %v", got)
	}
	if got := simulate(n, n.Start(), "a"); len(got) != 0 {
		t.Errorf("empty condition accepted input: %v", got)
	}
}

func TestNFA_ByteClassesFromPattern(t *testing.T) {
	n := compileOne(t, "[a-c]x")
	bc := n.ByteClasses()
	if bc.Get('a') != bc.Get('b') || bc.Get('b') != bc.Get('c') {
		t.Error("bytes inside [a-c] should share a class")
	}
	if bc.Get('a') == bc.Get('x') {
		t.Error("x should not share a class with [a-c]")
	}
	if bc.Get('a') == bc.Get('d') {
		t.Error("d should not share a class with [a-c]")
	}
}
