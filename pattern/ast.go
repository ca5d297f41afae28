package pattern

import (
	"fmt"
	"sort"
	"strings"
)

// Kind identifies the type of an AST node and determines which of the
// node's fields are meaningful.
type Kind uint8

const (
	// KindClass matches one byte from a set of sorted, disjoint ranges.
	KindClass Kind = iota

	// KindConcat matches its subnodes in sequence.
	KindConcat

	// KindAlt matches any one of its subnodes.
	KindAlt

	// KindRepeat matches its single subnode between Min and Max times.
	// Max < 0 means unbounded.
	KindRepeat

	// KindGroup wraps its single subnode; it exists so that expanded
	// macro bodies keep their own precedence.
	KindGroup

	// KindBeginLine is the ^ anchor. It may only appear as the first
	// element of a top-level concatenation.
	KindBeginLine

	// KindEndLine is the $ anchor. It may only appear as the last
	// element of a top-level concatenation.
	KindEndLine

	// KindTrail is trailing context head/trail: Subs[0] is the head
	// (the lexeme), Subs[1] must follow for the rule to fire.
	KindTrail
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindClass:
		return "Class"
	case KindConcat:
		return "Concat"
	case KindAlt:
		return "Alt"
	case KindRepeat:
		return "Repeat"
	case KindGroup:
		return "Group"
	case KindBeginLine:
		return "BeginLine"
	case KindEndLine:
		return "EndLine"
	case KindTrail:
		return "Trail"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Range is an inclusive byte range [Lo, Hi].
type Range struct {
	Lo, Hi byte
}

// Node is one node of a parsed pattern. Nodes form an acyclic tree; a node
// is never mutated after construction, so subtrees (for example expanded
// macro bodies) may be shared.
type Node struct {
	kind     Kind
	ranges   []Range // KindClass: sorted, non-overlapping, non-adjacent
	subs     []*Node // KindConcat, KindAlt, KindGroup, KindTrail
	min, max int     // KindRepeat; max < 0 means unbounded
}

// Kind returns the node's kind.
func (n *Node) Kind() Kind {
	return n.kind
}

// Ranges returns the byte ranges of a Class node, nil otherwise.
func (n *Node) Ranges() []Range {
	if n.kind == KindClass {
		return n.ranges
	}
	return nil
}

// Subs returns the subnodes of Concat, Alt, Group, Repeat and Trail nodes.
func (n *Node) Subs() []*Node {
	return n.subs
}

// Bounds returns the repetition bounds of a Repeat node. Max < 0 means
// unbounded. Returns (0, 0) for other kinds.
func (n *Node) Bounds() (min, max int) {
	if n.kind == KindRepeat {
		return n.min, n.max
	}
	return 0, 0
}

// NewClass creates a Class node. The ranges are normalized to the sorted,
// disjoint form; overlapping and adjacent ranges are merged.
func NewClass(ranges []Range) *Node {
	return &Node{kind: KindClass, ranges: NormalizeRanges(ranges)}
}

// NewLiteral creates a Class node matching exactly one byte.
func NewLiteral(b byte) *Node {
	return &Node{kind: KindClass, ranges: []Range{{Lo: b, Hi: b}}}
}

// NewConcat creates a Concat node. A single subnode is returned as-is.
func NewConcat(subs ...*Node) *Node {
	if len(subs) == 1 {
		return subs[0]
	}
	return &Node{kind: KindConcat, subs: subs}
}

// NewAlt creates an Alt node. A single subnode is returned as-is.
func NewAlt(subs ...*Node) *Node {
	if len(subs) == 1 {
		return subs[0]
	}
	return &Node{kind: KindAlt, subs: subs}
}

// NewRepeat creates a Repeat node with the given bounds. Max < 0 means
// unbounded. Bounds are assumed validated by the caller.
func NewRepeat(sub *Node, min, max int) *Node {
	return &Node{kind: KindRepeat, subs: []*Node{sub}, min: min, max: max}
}

// NewGroup creates a Group node around sub.
func NewGroup(sub *Node) *Node {
	return &Node{kind: KindGroup, subs: []*Node{sub}}
}

// NewBeginLine creates a ^ anchor node.
func NewBeginLine() *Node {
	return &Node{kind: KindBeginLine}
}

// NewEndLine creates a $ anchor node.
func NewEndLine() *Node {
	return &Node{kind: KindEndLine}
}

// NewTrail creates a trailing-context node: head is the lexeme, trail must
// follow at the cursor for the rule to fire.
func NewTrail(head, trail *Node) *Node {
	return &Node{kind: KindTrail, subs: []*Node{head, trail}}
}

// NormalizeRanges sorts ranges and merges overlapping or adjacent ones,
// establishing the Class node invariant.
func NormalizeRanges(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}
	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Lo != sorted[j].Lo {
			return sorted[i].Lo < sorted[j].Lo
		}
		return sorted[i].Hi < sorted[j].Hi
	})

	out := sorted[:1]
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		// Merge when overlapping or exactly adjacent. The Hi+1 check must
		// not wrap at 0xFF.
		if r.Lo <= last.Hi || (last.Hi < 0xFF && r.Lo == last.Hi+1) {
			if r.Hi > last.Hi {
				last.Hi = r.Hi
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// NegateRanges returns the complement of ranges over the full byte
// alphabet. The input must be normalized. Returns nil when ranges covers
// every byte.
func NegateRanges(ranges []Range) []Range {
	var out []Range
	next := 0 // next byte value not yet covered
	for _, r := range ranges {
		if int(r.Lo) > next {
			out = append(out, Range{Lo: byte(next), Hi: r.Lo - 1})
		}
		next = int(r.Hi) + 1
	}
	if next <= 0xFF {
		out = append(out, Range{Lo: byte(next), Hi: 0xFF})
	}
	return out
}

// String returns a compact, parenthesized rendering of the tree. Intended
// for tests and debugging, not for round-tripping.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	switch n.kind {
	case KindClass:
		if len(n.ranges) == 1 && n.ranges[0].Lo == n.ranges[0].Hi {
			fmt.Fprintf(b, "%q", n.ranges[0].Lo)
			return
		}
		b.WriteByte('[')
		for _, r := range n.ranges {
			if r.Lo == r.Hi {
				fmt.Fprintf(b, "%02x", r.Lo)
			} else {
				fmt.Fprintf(b, "%02x-%02x", r.Lo, r.Hi)
			}
		}
		b.WriteByte(']')
	case KindConcat:
		b.WriteString("cat(")
		n.writeSubs(b)
		b.WriteByte(')')
	case KindAlt:
		b.WriteString("alt(")
		n.writeSubs(b)
		b.WriteByte(')')
	case KindRepeat:
		b.WriteString("rep(")
		n.subs[0].write(b)
		if n.max < 0 {
			fmt.Fprintf(b, "{%d,}", n.min)
		} else {
			fmt.Fprintf(b, "{%d,%d}", n.min, n.max)
		}
		b.WriteByte(')')
	case KindGroup:
		b.WriteString("grp(")
		n.subs[0].write(b)
		b.WriteByte(')')
	case KindBeginLine:
		b.WriteByte('^')
	case KindEndLine:
		b.WriteByte('$')
	case KindTrail:
		b.WriteString("trail(")
		n.writeSubs(b)
		b.WriteByte(')')
	}
}

func (n *Node) writeSubs(b *strings.Builder) {
	for i, sub := range n.subs {
		if i > 0 {
			b.WriteByte(' ')
		}
		sub.write(b)
	}
}
