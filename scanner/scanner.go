// Package scanner is the runtime half of a compiled lexer: it drives the
// transition tables over a Source and produces tokens under maximal
// munch. Each Scanner instance owns its cursor and start condition
// stack, so one compiled program can serve many goroutines as long as
// each uses its own Scanner.
package scanner

import (
	"io"

	"github.com/coregx/lexgen/nfa"
	"github.com/coregx/lexgen/table"
)

// Token is one recognized lexeme. End excludes any trailing context;
// the cursor is left at End after a successful Next.
type Token struct {
	Rule   int32  // declaration index of the matched rule
	Action uint32 // caller-assigned action code of that rule
	Start  int
	End    int
	Text   []byte
}

// Scanner tokenizes a Source against a compiled program.
type Scanner struct {
	prog  *table.Program
	src   Source
	stack []int
	atBOL bool
	fast  []*FastPath
	buf   []byte
}

// New creates a scanner positioned at the source's current offset, in
// condition 0 (INITIAL), at beginning of line.
func New(prog *table.Program, src Source) *Scanner {
	return &Scanner{
		prog:  prog,
		src:   src,
		stack: []int{0},
		atBOL: true,
		fast:  make([]*FastPath, len(prog.Conds)),
	}
}

// SetFastPath installs a literal matcher for one condition. The compiler
// does this for conditions whose rules are all plain literals; callers
// never need to.
func (s *Scanner) SetFastPath(cond int, f *FastPath) {
	s.fast[cond] = f
}

// Condition returns the name of the active start condition.
func (s *Scanner) Condition() string {
	return s.prog.Conds[s.top()].Name
}

// Push enters a start condition, stacking the current one.
func (s *Scanner) Push(name string) error {
	i, ok := s.prog.CondIndex(name)
	if !ok {
		return ErrUnknownCondition
	}
	s.stack = append(s.stack, i)
	return nil
}

// Pop returns to the condition active before the matching Push.
func (s *Scanner) Pop() error {
	if len(s.stack) <= 1 {
		return ErrStackUnderflow
	}
	s.stack = s.stack[:len(s.stack)-1]
	return nil
}

// Begin switches the active condition in place, without growing the
// stack. This is the classic BEGIN action.
func (s *Scanner) Begin(name string) error {
	i, ok := s.prog.CondIndex(name)
	if !ok {
		return ErrUnknownCondition
	}
	s.stack[len(s.stack)-1] = i
	return nil
}

// AtBOL reports whether the cursor sits at the beginning of a line.
func (s *Scanner) AtBOL() bool {
	return s.atBOL
}

// SkipByte consumes one byte without matching, for recovery after a
// NoMatchError. It keeps line-start tracking consistent.
func (s *Scanner) SkipByte() (byte, bool) {
	b, ok := s.src.Peek()
	if !ok {
		return 0, false
	}
	s.src.Advance()
	s.atBOL = b == '\n'
	return b, true
}

func (s *Scanner) top() int {
	return s.stack[len(s.stack)-1]
}

// Next returns the next token under maximal munch: the longest prefix of
// the remaining input matched by any rule of the active condition, ties
// going to the earliest-declared rule. At end of input it returns
// io.EOF; on unmatched input it returns a *NoMatchError and leaves the
// cursor where it was.
func (s *Scanner) Next() (Token, error) {
	condIdx := s.top()
	cond := &s.prog.Conds[condIdx]
	start := s.src.Pos()

	if _, ok := s.src.Peek(); !ok {
		return Token{}, io.EOF
	}

	if f := s.fast[condIdx]; f != nil {
		if w, ok := s.src.(WindowSource); ok {
			return s.nextFast(f, w, cond, start)
		}
	}

	st := cond.Start
	if s.atBOL {
		st = cond.StartBOL
	}
	s.buf = s.buf[:0]
	lastEnd := -1
	var lastAccept table.Accept

	for {
		b, ok := s.src.Peek()
		if !ok {
			break
		}
		to := cond.Next(st, b)
		if to == 0 {
			break
		}
		s.src.Advance()
		s.buf = append(s.buf, b)
		st = to
		if a := cond.Accept(st); a.IsAccept() {
			lastAccept = a
			lastEnd = s.src.Pos()
		}
	}

	if lastEnd < 0 {
		s.src.Rewind(start)
		return Token{}, &NoMatchError{Pos: start, Cond: cond.Name}
	}

	end := lastEnd
	switch nfa.CutKind(lastAccept.Cut) {
	case nfa.CutHead:
		end = start + int(lastAccept.CutLen)
	case nfa.CutTrail:
		end = lastEnd - int(lastAccept.CutLen)
	}
	if end <= start {
		// A zero-width lexeme cannot make progress; treat it as no
		// match rather than loop forever.
		s.src.Rewind(start)
		return Token{}, &NoMatchError{Pos: start, Cond: cond.Name}
	}

	s.src.Rewind(end)
	s.atBOL = s.buf[end-start-1] == '\n'

	text := make([]byte, end-start)
	copy(text, s.buf)
	return Token{
		Rule:   lastAccept.Rule,
		Action: s.prog.Rules[lastAccept.Rule].Action,
		Start:  start,
		End:    end,
		Text:   text,
	}, nil
}

func (s *Scanner) nextFast(f *FastPath, w WindowSource, cond *table.Cond, start int) (Token, error) {
	window := w.Window(start)
	rule, n, ok := f.match(window)
	if !ok {
		return Token{}, &NoMatchError{Pos: start, Cond: cond.Name}
	}
	for i := 0; i < n; i++ {
		s.src.Advance()
	}
	s.atBOL = window[n-1] == '\n'

	text := make([]byte, n)
	copy(text, window)
	return Token{
		Rule:   rule,
		Action: s.prog.Rules[rule].Action,
		Start:  start,
		End:    start + n,
		Text:   text,
	}, nil
}
