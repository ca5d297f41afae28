package lexgen

import (
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/coregx/lexgen/dfa"
	"github.com/coregx/lexgen/nfa"
	"github.com/coregx/lexgen/pattern"
	"github.com/coregx/lexgen/scanner"
	"github.com/coregx/lexgen/table"
)

// Compile builds a program from a rule set. Conditions are compiled
// independently, in parallel unless cfg.Serial is set; each gets its own
// automaton over exactly the rules eligible in it. The returned warnings
// flag rules that can never match; they do not fail the compile.
func Compile(rules []Rule, conds []Condition, macros *pattern.Macros, cfg Config) (*Program, []Warning, error) {
	if len(rules) == 0 {
		return nil, nil, ErrNoRules
	}

	all := make([]Condition, 0, len(conds)+1)
	all = append(all, Condition{Name: "INITIAL"})
	for _, c := range conds {
		for _, prev := range all {
			if prev.Name == c.Name {
				return nil, nil, &Error{Rule: -1, Cond: c.Name, Err: ErrDuplicateCondition}
			}
		}
		all = append(all, c)
	}

	nodes := make([]*pattern.Node, len(rules))
	for i, r := range rules {
		node, err := pattern.Parse(r.Pattern, macros)
		if err != nil {
			return nil, nil, &Error{Rule: i, Pattern: r.Pattern, Err: err}
		}
		nodes[i] = node
	}

	elig, err := eligibility(rules, all)
	if err != nil {
		return nil, nil, err
	}

	opts := table.Options{
		MaxDepth:      cfg.MaxDepth,
		MaxExceptions: cfg.MaxExceptions,
		NoCompress:    cfg.NoCompress,
	}
	tconds := make([]table.Cond, len(all))
	g := new(errgroup.Group)
	if cfg.Serial {
		g.SetLimit(1)
	}
	for ci := range all {
		g.Go(func() error {
			cond := all[ci]
			c := nfa.NewCompiler(cfg.StateLimit)
			for _, ri := range elig[ci] {
				if err := c.AddRule(nodes[ri], int32(ri)); err != nil {
					return &Error{Rule: ri, Pattern: rules[ri].Pattern, Cond: cond.Name, Err: err}
				}
			}
			n, err := c.Finish()
			if err != nil {
				return &Error{Rule: -1, Cond: cond.Name, Err: err}
			}
			d, err := dfa.Determinize(n, cfg.StateLimit)
			if err != nil {
				return &Error{Rule: -1, Cond: cond.Name, Err: err}
			}
			if !cfg.NoMinimize {
				d = dfa.Minimize(d)
			}
			tconds[ci] = table.NewCond(cond.Name, cond.Exclusive, d, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	infos := make([]table.RuleInfo, len(rules))
	for i, r := range rules {
		infos[i] = table.RuleInfo{Action: r.Action, HasTrail: hasTrail(nodes[i])}
	}

	var warnings []Warning
	for ci := range all {
		reached := make(map[int32]bool)
		for _, a := range tconds[ci].Accepts {
			if a.IsAccept() {
				reached[a.Rule] = true
			}
		}
		for _, ri := range elig[ci] {
			if !reached[int32(ri)] {
				warnings = append(warnings, Warning{Rule: ri, Cond: all[ci].Name})
			}
		}
	}

	p := &Program{
		tab:  table.New(infos, tconds),
		fast: make([]*scanner.FastPath, len(all)),
	}
	if cfg.FastPathMinLiterals > 0 {
		for ci := range all {
			p.fast[ci] = buildFastPath(nodes, elig[ci], cfg.FastPathMinLiterals)
		}
	}
	return p, warnings, nil
}

// eligibility resolves each rule's condition list into per-condition
// rule sets, preserving declaration order within each condition.
func eligibility(rules []Rule, all []Condition) ([][]int, error) {
	index := make(map[string]int, len(all))
	for i, c := range all {
		index[c.Name] = i
	}
	elig := make([][]int, len(all))
	for ri, r := range rules {
		switch {
		case len(r.Conditions) == 0:
			for ci, c := range all {
				if !c.Exclusive {
					elig[ci] = append(elig[ci], ri)
				}
			}
		case len(r.Conditions) == 1 && r.Conditions[0] == "*":
			for ci := range all {
				elig[ci] = append(elig[ci], ri)
			}
		default:
			for _, name := range r.Conditions {
				ci, ok := index[name]
				if !ok {
					return nil, &Error{Rule: ri, Pattern: r.Pattern, Cond: name, Err: ErrUnknownCondition}
				}
				elig[ci] = append(elig[ci], ri)
			}
		}
	}
	return elig, nil
}

// buildFastPath returns a literal matcher when every eligible rule is a
// plain literal and no literal occurs inside another. Substring-freedom
// is what makes the Aho-Corasick result identical to the tables: the
// automaton reports the earliest-ending match in the window, and only a
// literal contained in another could end before a match starting at the
// cursor does.
func buildFastPath(nodes []*pattern.Node, elig []int, minLits int) *scanner.FastPath {
	if len(elig) < minLits {
		return nil
	}
	lits := make(map[string]int32, len(elig))
	for _, ri := range elig {
		s, ok := literalString(nodes[ri])
		if !ok {
			return nil
		}
		if _, dup := lits[s]; dup {
			// The later duplicate is unreachable anyway.
			continue
		}
		lits[s] = int32(ri)
	}
	if !substringFree(lits) {
		return nil
	}
	f, err := scanner.NewFastPath(lits)
	if err != nil {
		return nil
	}
	return f
}

// literalString extracts the literal a pattern matches, when it matches
// exactly one nonempty string.
func literalString(n *pattern.Node) (string, bool) {
	var sb strings.Builder
	if !appendLiteral(&sb, n) || sb.Len() == 0 {
		return "", false
	}
	return sb.String(), true
}

func appendLiteral(sb *strings.Builder, n *pattern.Node) bool {
	switch n.Kind() {
	case pattern.KindClass:
		r := n.Ranges()
		if len(r) != 1 || r[0].Lo != r[0].Hi {
			return false
		}
		sb.WriteByte(r[0].Lo)
		return true
	case pattern.KindConcat, pattern.KindGroup:
		for _, sub := range n.Subs() {
			if !appendLiteral(sb, sub) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// substringFree reports whether no literal occurs within another,
// prefixes included. Literal sets are keyword-sized, so the quadratic
// scan is fine.
func substringFree(lits map[string]int32) bool {
	sorted := make([]string, 0, len(lits))
	for s := range lits {
		sorted = append(sorted, s)
	}
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) < len(sorted[j]) })
	for i, short := range sorted {
		for _, long := range sorted[i+1:] {
			if strings.Contains(long, short) {
				return false
			}
		}
	}
	return true
}

// hasTrail reports whether a rule carries trailing context, the $ anchor
// included.
func hasTrail(n *pattern.Node) bool {
	switch n.Kind() {
	case pattern.KindTrail, pattern.KindEndLine:
		return true
	case pattern.KindConcat:
		subs := n.Subs()
		return len(subs) > 0 && subs[len(subs)-1].Kind() == pattern.KindEndLine
	default:
		return false
	}
}
