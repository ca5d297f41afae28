package dfa

import (
	"github.com/coregx/lexgen/nfa"
)

// Minimize merges indistinguishable states by Moore partition
// refinement. The initial partition groups states with identical accept
// labels, cut metadata included, so minimization can never change which
// rule matches or where a trailing context cuts. The dead state keeps
// id 0 and both entry points are remapped.
func Minimize(d *DFA) *DFA {
	n := len(d.States)
	part := make([]int, n)
	seed := make(map[nfa.Accept]int)
	for i, s := range d.States {
		b, ok := seed[s.Accept]
		if !ok {
			b = len(seed)
			seed[s.Accept] = b
		}
		part[i] = b
	}

	count := len(seed)
	for {
		next := make([]int, n)
		sigs := make(map[string]int)
		for i := range d.States {
			sig := blockSignature(d, part, i)
			b, ok := sigs[sig]
			if !ok {
				b = len(sigs)
				sigs[sig] = b
			}
			next[i] = b
		}
		part = next
		if len(sigs) == count {
			break
		}
		count = len(sigs)
	}

	// Renumber blocks: the dead state's block becomes 0, the rest follow
	// in order of their lowest original state id.
	newID := make([]StateID, count)
	assigned := make([]bool, count)
	newID[part[Dead]] = Dead
	assigned[part[Dead]] = true
	nextID := StateID(1)
	for i := 0; i < n; i++ {
		if !assigned[part[i]] {
			newID[part[i]] = nextID
			assigned[part[i]] = true
			nextID++
		}
	}

	out := &DFA{
		Classes:    d.Classes,
		NumClasses: d.NumClasses,
		States:     make([]State, count),
		Start:      newID[part[d.Start]],
		StartBOL:   newID[part[d.StartBOL]],
	}
	for i, s := range d.States {
		id := newID[part[i]]
		if out.States[id].Next != nil {
			continue
		}
		next := make([]StateID, d.NumClasses)
		for class, to := range s.Next {
			next[class] = newID[part[to]]
		}
		out.States[id] = State{Next: next, Accept: s.Accept}
	}
	return out
}

// blockSignature encodes a state's block and the blocks of all its
// successors. States sharing a signature are indistinguishable for one
// more refinement round.
func blockSignature(d *DFA, part []int, i int) string {
	buf := make([]byte, 0, (d.NumClasses+1)*4)
	buf = appendBlock(buf, part[i])
	for _, to := range d.States[i].Next {
		buf = appendBlock(buf, part[to])
	}
	return string(buf)
}

func appendBlock(buf []byte, b int) []byte {
	return append(buf, byte(b), byte(b>>8), byte(b>>16), byte(b>>24))
}
