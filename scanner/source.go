package scanner

// Source is the scanner's view of the input: a byte cursor that can peek
// ahead one byte and rewind to an earlier position. Rewinding is what
// maximal munch needs when the automaton overshoots the last accepting
// position.
type Source interface {
	// Peek returns the byte at the cursor without consuming it. ok is
	// false at end of input.
	Peek() (b byte, ok bool)
	// Advance consumes one byte.
	Advance()
	// Pos returns the cursor's byte offset from the start of input.
	Pos() int
	// Rewind moves the cursor back to an earlier offset.
	Rewind(pos int)
}

// WindowSource is implemented by sources that can expose the raw bytes
// from a given offset onward. The literal fast path requires it.
type WindowSource interface {
	Source
	Window(from int) []byte
}

// Bytes is a Source over an in-memory byte slice.
type Bytes struct {
	data []byte
	pos  int
}

// NewBytes wraps data in a Source. The slice is not copied.
func NewBytes(data []byte) *Bytes {
	return &Bytes{data: data}
}

func (b *Bytes) Peek() (byte, bool) {
	if b.pos >= len(b.data) {
		return 0, false
	}
	return b.data[b.pos], true
}

func (b *Bytes) Advance() {
	b.pos++
}

func (b *Bytes) Pos() int {
	return b.pos
}

func (b *Bytes) Rewind(pos int) {
	b.pos = pos
}

// Window returns the unread input from the given offset. The slice
// aliases the underlying data.
func (b *Bytes) Window(from int) []byte {
	return b.data[from:]
}
