package pattern

import "sort"

// Macros is the macro table for one compilation unit: named sub-patterns
// referenced as {name}. The table is built incrementally with Define and
// consulted by Parse when it encounters a reference.
//
// Cycles are rejected at definition time by walking the reference graph of
// the raw pattern text, before any expansion happens, so a cyclic
// definition can never send the parser into unbounded recursion.
//
// A Macros value is not safe for concurrent mutation; compilations that
// run in parallel must each own their table.
type Macros struct {
	patterns map[string]string
	refs     map[string][]string // lexical {name} references per macro
	nodes    map[string]*Node    // resolved ASTs, memoized
	active   map[string]bool     // resolution in progress, cycle backstop
}

// NewMacros creates an empty macro table.
func NewMacros() *Macros {
	return &Macros{
		patterns: make(map[string]string),
		refs:     make(map[string][]string),
		nodes:    make(map[string]*Node),
		active:   make(map[string]bool),
	}
}

// Define adds a named sub-pattern. It fails with ErrBadMacroName for a
// non-identifier name, ErrDuplicateMacro for a redefinition, and
// ErrCyclicMacro when the definition closes a reference cycle. The pattern
// text itself is validated later, when first referenced.
func (m *Macros) Define(name, pattern string) error {
	if !validMacroName(name) {
		return &MacroError{Name: name, Err: ErrBadMacroName}
	}
	if _, ok := m.patterns[name]; ok {
		return &MacroError{Name: name, Err: ErrDuplicateMacro}
	}
	m.patterns[name] = pattern
	m.refs[name] = scanMacroRefs(pattern)

	if m.hasCycle(name) {
		delete(m.patterns, name)
		delete(m.refs, name)
		return &MacroError{Name: name, Err: ErrCyclicMacro}
	}
	return nil
}

// Defined reports whether name has been defined.
func (m *Macros) Defined(name string) bool {
	_, ok := m.patterns[name]
	return ok
}

// Names returns the defined macro names in sorted order.
func (m *Macros) Names() []string {
	names := make([]string, 0, len(m.patterns))
	for name := range m.patterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve parses the named macro's pattern and returns its AST, memoized.
// It fails with ErrUnknownMacro for an undefined name. The returned tree
// is shared; callers must not mutate it.
func (m *Macros) Resolve(name string) (*Node, error) {
	if node, ok := m.nodes[name]; ok {
		return node, nil
	}
	pat, ok := m.patterns[name]
	if !ok {
		return nil, &MacroError{Name: name, Err: ErrUnknownMacro}
	}
	// Define rejects cycles, so resolution cannot reenter; this guard only
	// protects against that invariant breaking.
	if m.active[name] {
		return nil, &MacroError{Name: name, Err: ErrCyclicMacro}
	}
	m.active[name] = true
	node, err := Parse(pat, m)
	delete(m.active, name)
	if err != nil {
		return nil, &MacroError{Name: name, Err: err}
	}
	m.nodes[name] = node
	return node, nil
}

// hasCycle reports whether the reference graph reaches start again from
// start. Edges through undefined names are followed too, so a cycle is
// caught no matter the definition order of its members.
func (m *Macros) hasCycle(start string) bool {
	seen := map[string]bool{}
	stack := append([]string(nil), m.refs[start]...)
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if name == start {
			return true
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		stack = append(stack, m.refs[name]...)
	}
	return false
}

// scanMacroRefs extracts the {name} references from raw pattern text. It
// is purely lexical: escapes and character classes are skipped, and {m,n}
// repetitions do not scan as references because they do not start with an
// identifier byte.
func scanMacroRefs(pattern string) []string {
	var refs []string
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '\\':
			i++ // skip escaped byte
		case '[':
			// Skip the class body; ] directly after [ or [^ is a literal.
			i++
			if i < len(pattern) && pattern[i] == '^' {
				i++
			}
			if i < len(pattern) && pattern[i] == ']' {
				i++
			}
			for i < len(pattern) && pattern[i] != ']' {
				if pattern[i] == '\\' {
					i++
				}
				i++
			}
		case '{':
			j := i + 1
			for j < len(pattern) && pattern[j] != '}' {
				j++
			}
			if j < len(pattern) {
				if name := pattern[i+1 : j]; validMacroName(name) {
					refs = append(refs, name)
				}
				i = j
			}
		}
	}
	return refs
}

// validMacroName reports whether name is a macro identifier: a letter or
// underscore followed by letters, digits, underscores or dashes.
func validMacroName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_':
		case i > 0 && (c >= '0' && c <= '9' || c == '-'):
		default:
			return false
		}
	}
	return true
}
