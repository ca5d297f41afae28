package nfa

import (
	"github.com/coregx/lexgen/pattern"
)

// Compiler builds the merged NFA for one start condition. Rules are added
// in declaration order; Finish joins their fragments under the two start
// states and finalizes the byte-class alphabet.
type Compiler struct {
	b       *Builder
	entries []ruleEntry
}

type ruleEntry struct {
	start StateID
	bol   bool // rule is ^-anchored: reachable only from the BOL start
}

// NewCompiler creates a compiler enforcing the given state ceiling across
// everything added to this condition's automaton. A limit of zero or less
// means no ceiling.
func NewCompiler(stateLimit int) *Compiler {
	return &Compiler{b: NewBuilder(stateLimit)}
}

// Len returns the number of NFA states built so far.
func (c *Compiler) Len() int {
	return c.b.Len()
}

// AddRule compiles one rule's AST into a fragment ending in a Match state
// labeled with the rule's declaration index. Anchors and trailing context
// are resolved here: ^ routes the fragment to the BOL start only, $
// becomes a one-byte newline trailing context, and head/trail context is
// compiled as head·trail with the accept label carrying the cut.
func (c *Compiler) AddRule(root *pattern.Node, rule int32) error {
	body, bol := stripBOL(root)
	accept := Accept{Rule: rule}

	var head, trail *pattern.Node
	switch {
	case body.Kind() == pattern.KindTrail:
		subs := body.Subs()
		head, trail = subs[0], subs[1]
		head, bol = stripBOLInto(head, bol)
	case endsWithEOL(body):
		head = stripEOL(body)
		trail = pattern.NewLiteral('\n')
	default:
		head = body
	}

	if trail != nil {
		headLen, headFixed := fixedLength(head)
		trailLen, trailFixed := fixedLength(trail)
		switch {
		case headFixed && headLen == 0 && trailFixed && trailLen == 0:
			return &BuildError{Rule: rule, Err: ErrAmbiguousTrailing}
		case headFixed:
			accept.Cut = CutHead
			accept.CutLen = int32(headLen)
		case trailFixed:
			accept.Cut = CutTrail
			accept.CutLen = int32(trailLen)
		default:
			return &BuildError{Rule: rule, Err: ErrAmbiguousTrailing}
		}
	}

	start, out, err := c.compile(head)
	if err != nil {
		return &BuildError{Rule: rule, Err: err}
	}
	if trail != nil {
		tStart, tOut, err := c.compile(trail)
		if err != nil {
			return &BuildError{Rule: rule, Err: err}
		}
		c.b.Patch(out, tStart)
		out = tOut
	}

	match, err := c.b.AddMatch(accept)
	if err != nil {
		return &BuildError{Rule: rule, Err: err}
	}
	c.b.Patch(out, match)

	c.entries = append(c.entries, ruleEntry{start: start, bol: bol})
	return nil
}

// Finish joins all added fragments under fresh start states and returns
// the immutable NFA. The interior start reaches the unanchored rules; the
// BOL start reaches every rule.
func (c *Compiler) Finish() (*NFA, error) {
	var interior, all []StateID
	for _, e := range c.entries {
		if !e.bol {
			interior = append(interior, e.start)
		}
		all = append(all, e.start)
	}

	start, err := c.join(interior)
	if err != nil {
		return nil, err
	}
	startBOL := start
	if len(all) != len(interior) {
		startBOL, err = c.join(all)
		if err != nil {
			return nil, err
		}
	}
	return c.b.Build(start, startBOL), nil
}

// join builds a right-leaning chain of epsilon splits over the given
// fragment starts. An empty list yields a state with no moves, so a
// condition with no eligible rules simply never matches.
func (c *Compiler) join(starts []StateID) (StateID, error) {
	if len(starts) == 0 {
		return c.b.AddEpsilon(InvalidState)
	}
	cur := starts[len(starts)-1]
	for i := len(starts) - 2; i >= 0; i-- {
		sp, err := c.b.AddSplit(starts[i], cur)
		if err != nil {
			return InvalidState, err
		}
		cur = sp
	}
	return cur, nil
}

// compile builds the fragment for one AST node. It returns the fragment's
// entry state and its single dangling exit, a state whose target is
// patched by the caller. Anchors and trailing context never reach here;
// AddRule strips them first.
func (c *Compiler) compile(n *pattern.Node) (start, out StateID, err error) {
	switch n.Kind() {
	case pattern.KindClass:
		ranges := n.Ranges()
		pairs := make([][2]byte, len(ranges))
		for i, r := range ranges {
			pairs[i] = [2]byte{r.Lo, r.Hi}
		}
		id, err := c.b.AddSparse(pairs, InvalidState)
		if err != nil {
			return InvalidState, InvalidState, err
		}
		return id, id, nil

	case pattern.KindConcat:
		return c.compileConcat(n.Subs())

	case pattern.KindGroup:
		return c.compile(n.Subs()[0])

	case pattern.KindAlt:
		return c.compileAlt(n.Subs())

	case pattern.KindRepeat:
		min, max := n.Bounds()
		return c.compileRepeat(n.Subs()[0], min, max)

	default:
		return InvalidState, InvalidState, ErrUnsupportedNode
	}
}

func (c *Compiler) compileConcat(subs []*pattern.Node) (start, out StateID, err error) {
	if len(subs) == 0 {
		id, err := c.b.AddEpsilon(InvalidState)
		return id, id, err
	}
	start, out, err = c.compile(subs[0])
	if err != nil {
		return InvalidState, InvalidState, err
	}
	for _, sub := range subs[1:] {
		s, o, err := c.compile(sub)
		if err != nil {
			return InvalidState, InvalidState, err
		}
		c.b.Patch(out, s)
		out = o
	}
	return start, out, nil
}

func (c *Compiler) compileAlt(subs []*pattern.Node) (start, out StateID, err error) {
	// All branches funnel into one epsilon join, which becomes the
	// fragment's single dangling exit.
	join, err := c.b.AddEpsilon(InvalidState)
	if err != nil {
		return InvalidState, InvalidState, err
	}
	starts := make([]StateID, len(subs))
	for i, sub := range subs {
		s, o, err := c.compile(sub)
		if err != nil {
			return InvalidState, InvalidState, err
		}
		c.b.Patch(o, join)
		starts[i] = s
	}
	start, err = c.join(starts)
	if err != nil {
		return InvalidState, InvalidState, err
	}
	return start, join, nil
}

// compileRepeat wraps sub with epsilon structure for {min, max}. Bounded
// counts replicate the fragment; an unbounded tail is an epsilon
// back-edge, which gives the NFA its epsilon cycles.
func (c *Compiler) compileRepeat(sub *pattern.Node, min, max int) (start, out StateID, err error) {
	start = InvalidState
	var prevOut = InvalidState

	link := func(s StateID) {
		if start == InvalidState {
			start = s
		} else {
			c.b.Patch(prevOut, s)
		}
	}

	// Mandatory copies.
	for i := 0; i < min; i++ {
		s, o, err := c.compile(sub)
		if err != nil {
			return InvalidState, InvalidState, err
		}
		link(s)
		prevOut = o
	}

	if max < 0 {
		// Unbounded tail: one more copy in a star loop.
		s, o, err := c.compile(sub)
		if err != nil {
			return InvalidState, InvalidState, err
		}
		exit, err := c.b.AddEpsilon(InvalidState)
		if err != nil {
			return InvalidState, InvalidState, err
		}
		loop, err := c.b.AddSplit(s, exit)
		if err != nil {
			return InvalidState, InvalidState, err
		}
		c.b.Patch(o, loop) // back-edge
		link(loop)
		return start, exit, nil
	}

	if max == min {
		if min == 0 {
			// {0,0} matches exactly the empty string.
			id, err := c.b.AddEpsilon(InvalidState)
			return id, id, err
		}
		return start, prevOut, nil
	}

	// Optional copies share one exit; each may be skipped.
	exit, err := c.b.AddEpsilon(InvalidState)
	if err != nil {
		return InvalidState, InvalidState, err
	}
	for i := min; i < max; i++ {
		s, o, err := c.compile(sub)
		if err != nil {
			return InvalidState, InvalidState, err
		}
		sp, err := c.b.AddSplit(s, exit)
		if err != nil {
			return InvalidState, InvalidState, err
		}
		link(sp)
		prevOut = o
	}
	c.b.Patch(prevOut, exit)
	return start, exit, nil
}

// stripBOL removes a leading ^ anchor, reporting whether one was present.
func stripBOL(n *pattern.Node) (*pattern.Node, bool) {
	switch {
	case n.Kind() == pattern.KindBeginLine:
		return pattern.NewConcat(), true
	case n.Kind() == pattern.KindConcat && len(n.Subs()) > 0 && n.Subs()[0].Kind() == pattern.KindBeginLine:
		return pattern.NewConcat(n.Subs()[1:]...), true
	default:
		return n, false
	}
}

func stripBOLInto(n *pattern.Node, bol bool) (*pattern.Node, bool) {
	stripped, found := stripBOL(n)
	return stripped, bol || found
}

// endsWithEOL reports whether the node is, or ends with, a $ anchor.
func endsWithEOL(n *pattern.Node) bool {
	if n.Kind() == pattern.KindEndLine {
		return true
	}
	subs := n.Subs()
	return n.Kind() == pattern.KindConcat && len(subs) > 0 &&
		subs[len(subs)-1].Kind() == pattern.KindEndLine
}

// stripEOL removes the trailing $ anchor from a node for which endsWithEOL
// holds.
func stripEOL(n *pattern.Node) *pattern.Node {
	if n.Kind() == pattern.KindEndLine {
		return pattern.NewConcat()
	}
	subs := n.Subs()
	return pattern.NewConcat(subs[:len(subs)-1]...)
}

// fixedLength reports whether every string the node matches has the same
// length, and that length. It decides which side of a trailing context
// carries the cut.
func fixedLength(n *pattern.Node) (int, bool) {
	switch n.Kind() {
	case pattern.KindClass:
		return 1, true
	case pattern.KindConcat:
		total := 0
		for _, sub := range n.Subs() {
			l, ok := fixedLength(sub)
			if !ok {
				return 0, false
			}
			total += l
		}
		return total, true
	case pattern.KindGroup:
		return fixedLength(n.Subs()[0])
	case pattern.KindAlt:
		subs := n.Subs()
		first, ok := fixedLength(subs[0])
		if !ok {
			return 0, false
		}
		for _, sub := range subs[1:] {
			l, ok := fixedLength(sub)
			if !ok || l != first {
				return 0, false
			}
		}
		return first, true
	case pattern.KindRepeat:
		min, max := n.Bounds()
		if min != max {
			return 0, false
		}
		l, ok := fixedLength(n.Subs()[0])
		if !ok {
			return 0, false
		}
		return min * l, true
	case pattern.KindBeginLine, pattern.KindEndLine:
		return 0, true
	default:
		return 0, false
	}
}
