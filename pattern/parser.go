package pattern

// MaxNestingDepth bounds group and alternation nesting. The parser recurses
// per nesting level, so the bound keeps adversarially deep patterns from
// exhausting the goroutine stack.
const MaxNestingDepth = 200

// maxRepetition bounds a {m,n} repetition count. Larger bounds would be
// rejected by the automaton state ceiling anyway; rejecting here gives the
// error a source position.
const maxRepetition = 1000

// Parse parses one rule pattern into its AST. Macro references {name} are
// resolved against macros, which may be nil when the pattern uses none.
// All failures are *ParseError values wrapping one of this package's
// sentinel errors.
func Parse(pat string, macros *Macros) (*Node, error) {
	p := &parser{pattern: pat, macros: macros}
	return p.parseTop()
}

type parser struct {
	pattern    string
	pos        int
	macros     *Macros
	depth      int // alternation/group nesting
	groupDepth int // parenthesis nesting; trailing context is top level only
}

func (p *parser) fail(err error) error {
	return &ParseError{Pattern: p.pattern, Pos: p.pos, Err: err}
}

func (p *parser) failAt(pos int, err error) error {
	return &ParseError{Pattern: p.pattern, Pos: pos, Err: err}
}

func (p *parser) atEnd() bool {
	return p.pos >= len(p.pattern)
}

func (p *parser) peek() (byte, bool) {
	if p.atEnd() {
		return 0, false
	}
	return p.pattern[p.pos], true
}

func (p *parser) peekAt(off int) (byte, bool) {
	if p.pos+off >= len(p.pattern) {
		return 0, false
	}
	return p.pattern[p.pos+off], true
}

func (p *parser) next() (byte, bool) {
	c, ok := p.peek()
	if ok {
		p.pos++
	}
	return c, ok
}

// parseTop handles the parts of a rule that only exist at top level: the
// ^ anchor, the single / trailing-context split, and the $ anchor (which
// parseAtom admits only in final position).
func (p *parser) parseTop() (*Node, error) {
	if len(p.pattern) == 0 {
		return nil, p.fail(ErrEmptyPattern)
	}

	bol := false
	if c, ok := p.peek(); ok && c == '^' {
		bol = true
		p.pos++
	}

	head, err := p.parseAlt()
	if err != nil {
		return nil, err
	}

	var node *Node
	switch c, ok := p.peek(); {
	case !ok:
		node = head
	case c == '/':
		p.pos++
		trail, err := p.parseAlt()
		if err != nil {
			return nil, err
		}
		if c, ok := p.peek(); ok {
			if c == '/' {
				return nil, p.fail(ErrMultipleTrailing)
			}
			return nil, p.fail(ErrUnbalancedParen)
		}
		if bol {
			head = NewConcat(NewBeginLine(), head)
			bol = false
		}
		node = NewTrail(head, trail)
	default:
		// parseAlt stops only at |, / and ); | and / are consumed above,
		// so this must be a stray closing parenthesis.
		return nil, p.fail(ErrUnbalancedParen)
	}

	if bol {
		node = NewConcat(NewBeginLine(), node)
	}
	return node, nil
}

func (p *parser) parseAlt() (*Node, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > MaxNestingDepth {
		return nil, p.fail(ErrNestingTooDeep)
	}

	first, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	subs := []*Node{first}
	for {
		c, ok := p.peek()
		if !ok || c != '|' {
			break
		}
		p.pos++
		sub, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return NewAlt(subs...), nil
}

func (p *parser) parseConcat() (*Node, error) {
	var subs []*Node
	for {
		c, ok := p.peek()
		if !ok || c == '|' || c == ')' {
			break
		}
		if c == '/' && p.groupDepth == 0 {
			break
		}
		atom, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		atom, err = p.parsePostfix(atom)
		if err != nil {
			return nil, err
		}
		subs = append(subs, atom)
	}
	return NewConcat(subs...), nil
}

// parsePostfix applies any run of quantifiers following an atom.
func (p *parser) parsePostfix(atom *Node) (*Node, error) {
	for {
		c, ok := p.peek()
		if !ok {
			return atom, nil
		}
		switch c {
		case '*':
			p.pos++
			atom = NewRepeat(atom, 0, -1)
		case '+':
			p.pos++
			atom = NewRepeat(atom, 1, -1)
		case '?':
			p.pos++
			atom = NewRepeat(atom, 0, 1)
		case '{':
			// {digit... is a bounded repetition; {letter... is a macro
			// reference, which is an atom of its own, not a postfix.
			if d, ok := p.peekAt(1); !ok || d < '0' || d > '9' {
				return atom, nil
			}
			min, max, err := p.parseBounds()
			if err != nil {
				return nil, err
			}
			atom = NewRepeat(atom, min, max)
		default:
			return atom, nil
		}
	}
}

// parseBounds parses {m}, {m,} or {m,n}, with the opening brace still
// unconsumed.
func (p *parser) parseBounds() (min, max int, err error) {
	start := p.pos
	p.pos++ // {

	min, ok := p.parseInt()
	if !ok {
		return 0, 0, p.failAt(start, ErrInvalidRepetition)
	}
	max = min
	if c, ok := p.peek(); ok && c == ',' {
		p.pos++
		if c, ok := p.peek(); ok && c == '}' {
			max = -1
		} else {
			max, ok = p.parseInt()
			if !ok {
				return 0, 0, p.failAt(start, ErrInvalidRepetition)
			}
		}
	}
	if c, ok := p.next(); !ok || c != '}' {
		return 0, 0, p.failAt(start, ErrInvalidRepetition)
	}
	if max >= 0 && min > max {
		return 0, 0, p.failAt(start, ErrInvalidRepetition)
	}
	if min > maxRepetition || max > maxRepetition {
		return 0, 0, p.failAt(start, ErrInvalidRepetition)
	}
	return min, max, nil
}

func (p *parser) parseInt() (int, bool) {
	start := p.pos
	n := 0
	for {
		c, ok := p.peek()
		if !ok || c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
		if n > maxRepetition {
			n = maxRepetition + 1 // saturate; parseBounds rejects it
		}
		p.pos++
	}
	return n, p.pos > start
}

func (p *parser) parseAtom() (*Node, error) {
	start := p.pos
	c, _ := p.next()
	switch c {
	case '(':
		p.groupDepth++
		sub, err := p.parseAlt()
		if err != nil {
			return nil, err
		}
		p.groupDepth--
		if c, ok := p.next(); !ok || c != ')' {
			return nil, p.failAt(start, ErrUnbalancedParen)
		}
		return NewGroup(sub), nil

	case '[':
		return p.parseClass(start)

	case '{':
		return p.parseMacroRef(start)

	case '.':
		// Any byte but newline.
		return NewClass([]Range{{Lo: 0, Hi: '\n' - 1}, {Lo: '\n' + 1, Hi: 0xFF}}), nil

	case '\\':
		ranges, err := p.parseEscape()
		if err != nil {
			return nil, err
		}
		return NewClass(ranges), nil

	case '*', '+', '?':
		return nil, p.failAt(start, ErrNothingToRepeat)

	case '^':
		return nil, p.failAt(start, ErrMisplacedAnchor)

	case '$':
		if !p.atEnd() {
			return nil, p.failAt(start, ErrMisplacedAnchor)
		}
		return NewEndLine(), nil

	default:
		return NewLiteral(c), nil
	}
}

// parseMacroRef parses {name} with the opening brace already consumed.
func (p *parser) parseMacroRef(start int) (*Node, error) {
	end := p.pos
	for end < len(p.pattern) && p.pattern[end] != '}' {
		end++
	}
	if end == len(p.pattern) {
		return nil, p.failAt(start, ErrBadMacroName)
	}
	name := p.pattern[p.pos:end]
	p.pos = end + 1

	if name != "" && name[0] >= '0' && name[0] <= '9' {
		// A repetition bound with no preceding atom, e.g. a pattern
		// starting with {2,3}.
		return nil, p.failAt(start, ErrNothingToRepeat)
	}
	if !validMacroName(name) {
		return nil, p.failAt(start, ErrBadMacroName)
	}
	if p.macros == nil || !p.macros.Defined(name) {
		return nil, p.failAt(start, ErrUnknownMacro)
	}
	node, err := p.macros.Resolve(name)
	if err != nil {
		return nil, p.failAt(start, err)
	}
	// Group the expansion so it quantifies as a unit: {AB}* repeats the
	// whole body, not its last atom.
	return NewGroup(node), nil
}

// parseClass parses [...] with the opening bracket already consumed.
func (p *parser) parseClass(start int) (*Node, error) {
	negate := false
	if c, ok := p.peek(); ok && c == '^' {
		negate = true
		p.pos++
	}

	var ranges []Range
	first := true
	for {
		c, ok := p.peek()
		if !ok {
			return nil, p.failAt(start, ErrUnterminatedClass)
		}
		if c == ']' && !first {
			p.pos++
			break
		}
		first = false

		lo, loSet, err := p.parseClassAtom()
		if err != nil {
			return nil, err
		}
		if loSet != nil {
			// A shorthand class like \d cannot be a range endpoint.
			ranges = append(ranges, loSet...)
			continue
		}

		// lo-hi range, unless the dash is the final class member.
		if d, ok := p.peek(); ok && d == '-' {
			if e, ok := p.peekAt(1); ok && e != ']' {
				dashPos := p.pos
				p.pos++
				hi, hiSet, err := p.parseClassAtom()
				if err != nil {
					return nil, err
				}
				if hiSet != nil {
					return nil, p.failAt(dashPos, ErrBadClassRange)
				}
				if lo > hi {
					return nil, p.failAt(dashPos, ErrBadClassRange)
				}
				ranges = append(ranges, Range{Lo: lo, Hi: hi})
				continue
			}
		}
		ranges = append(ranges, Range{Lo: lo, Hi: lo})
	}

	ranges = NormalizeRanges(ranges)
	if negate {
		ranges = NegateRanges(ranges)
	}
	if len(ranges) == 0 {
		return nil, p.failAt(start, ErrEmptyClass)
	}
	return &Node{kind: KindClass, ranges: ranges}, nil
}

// parseClassAtom returns either a single byte (set == nil) or the ranges
// of a shorthand escape like \d.
func (p *parser) parseClassAtom() (b byte, set []Range, err error) {
	c, _ := p.next()
	if c != '\\' {
		return c, nil, nil
	}
	ranges, err := p.parseEscape()
	if err != nil {
		return 0, nil, err
	}
	if len(ranges) == 1 && ranges[0].Lo == ranges[0].Hi {
		return ranges[0].Lo, nil, nil
	}
	return 0, ranges, nil
}

// Shorthand class contents, in normalized range form.
var (
	digitRanges = []Range{{Lo: '0', Hi: '9'}}
	wordRanges  = []Range{{Lo: '0', Hi: '9'}, {Lo: 'A', Hi: 'Z'}, {Lo: '_', Hi: '_'}, {Lo: 'a', Hi: 'z'}}
	spaceRanges = []Range{{Lo: '\t', Hi: '\r'}, {Lo: ' ', Hi: ' '}}
)

// parseEscape parses the byte after a backslash into the range set it
// denotes: one range for a single byte, several for \d-style shorthands.
func (p *parser) parseEscape() ([]Range, error) {
	start := p.pos - 1
	c, ok := p.next()
	if !ok {
		return nil, p.failAt(start, ErrTrailingBackslash)
	}
	single := func(b byte) []Range { return []Range{{Lo: b, Hi: b}} }
	switch c {
	case 'n':
		return single('\n'), nil
	case 'r':
		return single('\r'), nil
	case 't':
		return single('\t'), nil
	case 'f':
		return single('\f'), nil
	case 'v':
		return single('\v'), nil
	case 'a':
		return single(7), nil
	case 'b':
		return single(8), nil
	case '0':
		return single(0), nil
	case 'x':
		hi, ok1 := p.hexDigit()
		lo, ok2 := p.hexDigit()
		if !ok1 || !ok2 {
			return nil, p.failAt(start, ErrBadEscape)
		}
		return single(hi<<4 | lo), nil
	case 'd':
		return digitRanges, nil
	case 'D':
		return NegateRanges(digitRanges), nil
	case 'w':
		return wordRanges, nil
	case 'W':
		return NegateRanges(wordRanges), nil
	case 's':
		return spaceRanges, nil
	case 'S':
		return NegateRanges(spaceRanges), nil
	default:
		// Escaped metacharacters and punctuation stand for themselves;
		// unknown alphanumeric escapes are reserved.
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			return nil, p.failAt(start, ErrBadEscape)
		}
		return single(c), nil
	}
}

func (p *parser) hexDigit() (byte, bool) {
	c, ok := p.next()
	if !ok {
		return 0, false
	}
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
