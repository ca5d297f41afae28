package dfa

import (
	"errors"
	"testing"

	"github.com/coregx/lexgen/nfa"
	"github.com/coregx/lexgen/pattern"
)

func buildNFA(t *testing.T, patterns []string) *nfa.NFA {
	t.Helper()
	c := nfa.NewCompiler(0)
	for i, p := range patterns {
		node, err := pattern.Parse(p, nil)
		if err != nil {
			t.Fatalf("Parse(%q): %v", p, err)
		}
		if err := c.AddRule(node, int32(i)); err != nil {
			t.Fatalf("AddRule(%q): %v", p, err)
		}
	}
	n, err := c.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return n
}

func buildDFA(t *testing.T, patterns []string) *DFA {
	t.Helper()
	d, err := Determinize(buildNFA(t, patterns), 0)
	if err != nil {
		t.Fatalf("Determinize: %v", err)
	}
	return d
}

// runDFA consumes the whole input and returns the final state's accept.
func runDFA(d *DFA, from StateID, input string) nfa.Accept {
	s := from
	for i := 0; i < len(input); i++ {
		s = d.NextState(s, input[i])
		if s == Dead {
			return nfa.NoAccept
		}
	}
	return d.States[s].Accept
}

// nfaAccept is the reference semantics: simulate the NFA over the whole
// input and return the lowest accepting rule.
func nfaAccept(n *nfa.NFA, from nfa.StateID, input string) int32 {
	cur := epsClosure(n, []nfa.StateID{from})
	for i := 0; i < len(input); i++ {
		var next []nfa.StateID
		for id := range cur {
			if to, ok := n.State(id).MovesOn(input[i]); ok {
				next = append(next, to)
			}
		}
		cur = epsClosure(n, next)
		if len(cur) == 0 {
			return nfa.NoRule
		}
	}
	best := nfa.NoRule
	for id := range cur {
		if a := n.State(id).AcceptLabel(); a.IsAccept() {
			if best == nfa.NoRule || a.Rule < best {
				best = a.Rule
			}
		}
	}
	return best
}

func epsClosure(n *nfa.NFA, seed []nfa.StateID) map[nfa.StateID]bool {
	seen := make(map[nfa.StateID]bool)
	stack := append([]nfa.StateID(nil), seed...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == nfa.InvalidState || seen[id] {
			continue
		}
		seen[id] = true
		switch s := n.State(id); s.Kind() {
		case nfa.StateEpsilon:
			stack = append(stack, s.Epsilon())
		case nfa.StateSplit:
			left, right := s.Split()
			stack = append(stack, left, right)
		}
	}
	return seen
}

// allStrings enumerates every string over alphabet up to maxLen bytes.
func allStrings(alphabet string, maxLen int) []string {
	out := []string{""}
	prev := []string{""}
	for l := 1; l <= maxLen; l++ {
		var cur []string
		for _, p := range prev {
			for i := 0; i < len(alphabet); i++ {
				cur = append(cur, p+string(alphabet[i]))
			}
		}
		out = append(out, cur...)
		prev = cur
	}
	return out
}

func TestDeterminize_AgreesWithNFA(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
	}{
		{"single", []string{"ab*c"}},
		{"overlap", []string{"a", "[a-c]+", "abc"}},
		{"bounded", []string{"a{2,3}b?"}},
		{"alt", []string{"ab|ba|aa"}},
		{"nested", []string{"(a|b)*c", "a(bc)+"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := buildNFA(t, tt.patterns)
			d, err := Determinize(n, 0)
			if err != nil {
				t.Fatalf("Determinize: %v", err)
			}
			for _, in := range allStrings("abc", 5) {
				want := nfaAccept(n, n.Start(), in)
				got := runDFA(d, d.Start, in).Rule
				if got != want {
					t.Fatalf("input %q: DFA rule %d, NFA rule %d", in, got, want)
				}
			}
		})
	}
}

func TestDeterminize_TieBreak(t *testing.T) {
	// Both rules accept "ab" at the same length; the earlier declaration
	// must win.
	d := buildDFA(t, []string{"ab|x", "ab"})
	if got := runDFA(d, d.Start, "ab").Rule; got != 0 {
		t.Errorf("rule = %d, want 0", got)
	}

	d = buildDFA(t, []string{"[a-z]+", "abc"})
	if got := runDFA(d, d.Start, "abc").Rule; got != 0 {
		t.Errorf("rule = %d, want 0", got)
	}
}

func TestDeterminize_BOLStart(t *testing.T) {
	d := buildDFA(t, []string{"^ab", "b+"})
	if got := runDFA(d, d.Start, "ab").Rule; got != nfa.NoRule {
		t.Errorf("interior start matched anchored rule %d", got)
	}
	if got := runDFA(d, d.StartBOL, "ab").Rule; got != 0 {
		t.Errorf("BOL start rule = %d, want 0", got)
	}
	if got := runDFA(d, d.Start, "bb").Rule; got != 1 {
		t.Errorf("interior rule = %d, want 1", got)
	}
}

func TestDeterminize_StateLimit(t *testing.T) {
	n := buildNFA(t, []string{"a{30}b{30}"})
	_, err := Determinize(n, 5)
	if !errors.Is(err, ErrStateLimit) {
		t.Errorf("err = %v, want ErrStateLimit", err)
	}
}

func TestDeterminize_DeadState(t *testing.T) {
	d := buildDFA(t, []string{"a"})
	s := d.States[Dead]
	if s.Accept.IsAccept() {
		t.Error("dead state accepts")
	}
	for class, to := range s.Next {
		if to != Dead {
			t.Errorf("dead state leaves on class %d to %d", class, to)
		}
	}
}

func TestMinimize_PreservesBehavior(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
	}{
		{"tails", []string{"abc|abd"}},
		{"overlap", []string{"a+", "[ab]+c", "b"}},
		{"anchored", []string{"^a+b", "ab*"}},
		{"cuts", []string{"ab/c", "xy"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := buildDFA(t, tt.patterns)
			m := Minimize(d)
			if m.Len() > d.Len() {
				t.Errorf("minimized has %d states, input had %d", m.Len(), d.Len())
			}
			for _, in := range allStrings("abcdxy", 4) {
				want := runDFA(d, d.Start, in)
				got := runDFA(m, m.Start, in)
				if got != want {
					t.Fatalf("input %q from interior start: %+v, want %+v", in, got, want)
				}
				want = runDFA(d, d.StartBOL, in)
				got = runDFA(m, m.StartBOL, in)
				if got != want {
					t.Fatalf("input %q from BOL start: %+v, want %+v", in, got, want)
				}
			}
		})
	}
}

func TestMinimize_MergesEquivalentTails(t *testing.T) {
	d := buildDFA(t, []string{"abc|abd"})
	m := Minimize(d)
	if m.Len() >= d.Len() {
		t.Errorf("expected a strictly smaller automaton, got %d -> %d", d.Len(), m.Len())
	}
}

func TestMinimize_KeepsCutMetadata(t *testing.T) {
	m := Minimize(buildDFA(t, []string{"ab/cd"}))
	a := runDFA(m, m.Start, "abcd")
	if a.Rule != 0 || a.Cut != nfa.CutHead || a.CutLen != 2 {
		t.Errorf("accept = %+v, want rule 0 with head cut of 2", a)
	}
}

func TestMinimize_DeadStaysZero(t *testing.T) {
	m := Minimize(buildDFA(t, []string{"a+b"}))
	s := m.States[Dead]
	if s.Accept.IsAccept() {
		t.Error("dead state accepts after minimization")
	}
	for _, to := range s.Next {
		if to != Dead {
			t.Error("dead state has an exit after minimization")
		}
	}
}
