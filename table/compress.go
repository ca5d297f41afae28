package table

import "github.com/coregx/lexgen/dfa"

// Options control row compression.
type Options struct {
	// MaxDepth bounds the donor chain a lookup may walk, keeping Next
	// O(1) amortized. Zero disables diff rows entirely.
	MaxDepth int
	// MaxExceptions caps the exception list of a diff row; rows that
	// disagree with every donor by more than this stay dense.
	MaxExceptions int
	// NoCompress emits every row dense. Useful when table size does not
	// matter and lookup should be a plain array index.
	NoCompress bool
}

// DefaultOptions are the compression settings used by the compiler
// unless overridden.
func DefaultOptions() Options {
	return Options{MaxDepth: 4, MaxExceptions: 8}
}

// NewCond compresses one condition's DFA into table form. Each state row
// is either stored dense or as a diff against the most similar earlier
// row. Donors always have a lower state id than their dependents, so
// chains cannot cycle; MaxDepth bounds their length. The scan over
// earlier rows is quadratic in state count, which is fine at the sizes
// minimized lexer automata reach.
func NewCond(name string, exclusive bool, d *dfa.DFA, opt Options) Cond {
	nc := d.NumClasses
	full := make([][]uint32, d.Len())
	for i, s := range d.States {
		row := make([]uint32, nc)
		for class, to := range s.Next {
			row[class] = uint32(to)
		}
		full[i] = row
	}

	c := Cond{
		Name:       name,
		Exclusive:  exclusive,
		Classes:    d.Classes.Table(),
		NumClasses: uint32(nc),
		Start:      uint32(d.Start),
		StartBOL:   uint32(d.StartBOL),
		Rows:       make([]Row, d.Len()),
		Accepts:    make([]Accept, d.Len()),
	}

	depth := make([]int, d.Len())
	for i := range d.States {
		c.Accepts[i] = fromNFAAccept(d.States[i].Accept)

		// The dead row stays dense so every donor chain has a dense
		// floor to land on.
		if opt.NoCompress || i == 0 {
			c.Rows[i] = Row{Dense: full[i]}
			continue
		}

		best, bestDiff := -1, nc+1
		for j := 0; j < i; j++ {
			if depth[j]+1 > opt.MaxDepth {
				continue
			}
			diff := countDiff(full[i], full[j], bestDiff)
			if diff < bestDiff {
				best, bestDiff = j, diff
			}
		}

		// A diff row costs the default plus one entry per exception;
		// only compress when that undercuts the dense row.
		if best < 0 || bestDiff > opt.MaxExceptions || 2*bestDiff+1 >= nc {
			c.Rows[i] = Row{Dense: full[i]}
			continue
		}
		ex := make([]Except, 0, bestDiff)
		for class := 0; class < nc; class++ {
			if full[i][class] != full[best][class] {
				ex = append(ex, Except{Class: uint8(class), Next: full[i][class]})
			}
		}
		c.Rows[i] = Row{Default: uint32(best), Except: ex}
		depth[i] = depth[best] + 1
	}
	return c
}

// countDiff counts positions where a and b disagree, giving up once the
// count reaches stop.
func countDiff(a, b []uint32, stop int) int {
	diff := 0
	for i := range a {
		if a[i] != b[i] {
			diff++
			if diff >= stop {
				return diff
			}
		}
	}
	return diff
}
