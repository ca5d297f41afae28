// Package dfa converts the epsilon NFA of a start condition into a
// deterministic automaton via subset construction, then shrinks it with
// Moore partition refinement. The resulting tables drive the scanner.
package dfa

import (
	"fmt"
	"strings"

	"github.com/coregx/lexgen/nfa"
)

// StateID identifies a DFA state. State 0 is always the dead state: it
// accepts nothing and every transition out of it leads back to it.
type StateID uint32

// Dead is the dead state's id.
const Dead StateID = 0

// State is one deterministic state. Next has one entry per byte class.
type State struct {
	Next   []StateID
	Accept nfa.Accept
}

// DFA is a deterministic automaton over byte classes. Two entry points
// exist because ^-anchored rules are live only at line starts.
type DFA struct {
	Classes    nfa.ByteClasses
	NumClasses int
	States     []State
	Start      StateID
	StartBOL   StateID
}

// NextState steps from state s on input byte b.
func (d *DFA) NextState(s StateID, b byte) StateID {
	return d.States[s].Next[d.Classes.Get(b)]
}

// Len returns the number of states, the dead state included.
func (d *DFA) Len() int {
	return len(d.States)
}

// String renders the automaton for debugging.
func (d *DFA) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "DFA(states=%d, classes=%d, start=%d, startBOL=%d)\n",
		len(d.States), d.NumClasses, d.Start, d.StartBOL)
	for i, s := range d.States {
		fmt.Fprintf(&sb, "  %d:", i)
		for class, next := range s.Next {
			if next != Dead {
				fmt.Fprintf(&sb, " %d->%d", class, next)
			}
		}
		if s.Accept.IsAccept() {
			fmt.Fprintf(&sb, " accept(rule=%d)", s.Accept.Rule)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
