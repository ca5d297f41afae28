package dfa

import (
	"sort"

	"github.com/coregx/lexgen/internal/sparse"
	"github.com/coregx/lexgen/nfa"
)

// Determinize runs subset construction over the NFA. Each DFA state is a
// canonical sorted set of NFA states; transitions are computed once per
// byte class using the class representatives. A positive limit caps the
// number of DFA states and makes construction fail with ErrStateLimit
// instead of exhausting memory on pathological rule sets.
func Determinize(n *nfa.NFA, limit int) (*DFA, error) {
	bc := n.ByteClasses()
	numClasses := bc.Count()
	reps := bc.Representatives()

	d := &DFA{Classes: *bc, NumClasses: numClasses}
	// State 0 is the dead state: all transitions self-loop and it must
	// not carry an accept label, or minimization would merge it with a
	// terminal accept state of rule 0.
	d.States = append(d.States, State{
		Next:   make([]StateID, numClasses),
		Accept: nfa.NoAccept,
	})

	seen := sparse.New(uint32(n.Len()))
	cache := make(map[string]StateID)
	var subsets [][]nfa.StateID // subset behind state id i+1

	// closure expands epsilon and split states, keeping only the states
	// that consume a byte or accept. The sparse set guards against the
	// epsilon cycles that unbounded repetition introduces.
	closure := func(seed []nfa.StateID) []nfa.StateID {
		seen.Clear()
		stack := append([]nfa.StateID(nil), seed...)
		var out []nfa.StateID
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if id == nfa.InvalidState || !seen.Insert(uint32(id)) {
				continue
			}
			switch s := n.State(id); s.Kind() {
			case nfa.StateEpsilon:
				stack = append(stack, s.Epsilon())
			case nfa.StateSplit:
				left, right := s.Split()
				stack = append(stack, left, right)
			default:
				out = append(out, id)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
		return out
	}

	addState := func(ids []nfa.StateID) (StateID, bool, error) {
		if len(ids) == 0 {
			return Dead, false, nil
		}
		key := subsetKey(ids)
		if id, ok := cache[key]; ok {
			return id, false, nil
		}
		if limit > 0 && len(d.States) >= limit {
			return Dead, false, ErrStateLimit
		}
		id := StateID(len(d.States))
		d.States = append(d.States, State{
			Next:   make([]StateID, numClasses),
			Accept: resolveAccept(n, ids),
		})
		cache[key] = id
		subsets = append(subsets, ids)
		return id, true, nil
	}

	start, startNew, err := addState(closure([]nfa.StateID{n.Start()}))
	if err != nil {
		return nil, err
	}
	var worklist []StateID
	if startNew {
		worklist = append(worklist, start)
	}
	startBOL, bolNew, err := addState(closure([]nfa.StateID{n.StartBOL()}))
	if err != nil {
		return nil, err
	}
	if bolNew {
		worklist = append(worklist, startBOL)
	}
	d.Start, d.StartBOL = start, startBOL

	for len(worklist) > 0 {
		cur := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		ids := subsets[cur-1]
		for class := 0; class < numClasses; class++ {
			b := reps[class]
			var moved []nfa.StateID
			for _, id := range ids {
				if to, ok := n.State(id).MovesOn(b); ok {
					moved = append(moved, to)
				}
			}
			to, isNew, err := addState(closure(moved))
			if err != nil {
				return nil, err
			}
			d.States[cur].Next[class] = to
			if isNew {
				worklist = append(worklist, to)
			}
		}
	}
	return d, nil
}

// resolveAccept picks the accept label for a subset. When several rules
// accept on the same subset they necessarily matched the same length, so
// the earliest-declared rule wins.
func resolveAccept(n *nfa.NFA, ids []nfa.StateID) nfa.Accept {
	best := nfa.NoAccept
	for _, id := range ids {
		a := n.State(id).AcceptLabel()
		if !a.IsAccept() {
			continue
		}
		if !best.IsAccept() || a.Rule < best.Rule {
			best = a
		}
	}
	return best
}

// subsetKey encodes a sorted state set as a map key. The encoding is
// exact, so distinct subsets never collide.
func subsetKey(ids []nfa.StateID) string {
	buf := make([]byte, 0, len(ids)*4)
	for _, id := range ids {
		buf = append(buf, byte(id), byte(id>>8), byte(id>>16), byte(id>>24))
	}
	return string(buf)
}
