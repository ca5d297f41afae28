package nfa

// ByteClasses maps each byte value to its equivalence class.
//
// Two bytes belong to the same class iff every transition of the NFA
// treats them identically, so the determinizer and the compiled tables can
// work over N classes (typically well under 32 for a rule set) instead
// of 256 byte values. Class numbers increase with byte value: class 0
// starts at byte 0.
type ByteClasses struct {
	classes [256]byte
}

// Get returns the equivalence class of b.
func (bc *ByteClasses) Get(b byte) byte {
	return bc.classes[b]
}

// Count returns the number of classes.
func (bc *ByteClasses) Count() int {
	// Classes are assigned in ascending byte order, so the last byte
	// carries the highest class number.
	return int(bc.classes[255]) + 1
}

// Representative returns one byte belonging to the given class, chosen as
// the smallest member. The result is only meaningful for class values
// below Count.
func (bc *ByteClasses) Representative(class byte) byte {
	for b := 0; b < 256; b++ {
		if bc.classes[b] == class {
			return byte(b)
		}
	}
	return 0
}

// Representatives returns one byte per class, index i holding a
// representative of class i.
func (bc *ByteClasses) Representatives() []byte {
	reps := make([]byte, 0, bc.Count())
	prev := byte(0)
	for b := 0; b < 256; b++ {
		if len(reps) == 0 || bc.classes[b] != prev {
			reps = append(reps, byte(b))
			prev = bc.classes[b]
		}
	}
	return reps
}

// Table returns the raw byte-to-class lookup array.
func (bc *ByteClasses) Table() [256]byte {
	return bc.classes
}

// ByteClassSet accumulates class boundaries while an NFA is built.
//
// Every byte range [lo, hi] added to the automaton forces boundaries at
// lo-1 and hi: bytes on either side of a boundary may behave differently
// in some transition, bytes between two boundaries never do. Converting
// the boundary set to ByteClasses is a single monotone sweep, so class
// numbers increase with byte value.
type ByteClassSet struct {
	// bits is a 256-bit set; bit b set means a class ends at byte b.
	bits [4]uint64
}

// AddRange records that [lo, hi] is distinguished by some transition.
func (s *ByteClassSet) AddRange(lo, hi byte) {
	if lo > 0 {
		s.set(lo - 1)
	}
	s.set(hi)
}

func (s *ByteClassSet) set(b byte) {
	s.bits[b/64] |= 1 << (b % 64)
}

func (s *ByteClassSet) get(b byte) bool {
	return s.bits[b/64]&(1<<(b%64)) != 0
}

// Classes converts the accumulated boundaries into the byte-to-class
// lookup table.
func (s *ByteClassSet) Classes() ByteClasses {
	var bc ByteClasses
	class := byte(0)
	for b := 0; b < 256; b++ {
		bc.classes[b] = class
		if s.get(byte(b)) && b < 255 {
			class++
		}
	}
	return bc
}
