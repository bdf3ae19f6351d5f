package session

import (
	"strings"
)

// MacroDelimiter surrounds a macro reference in source text.
const MacroDelimiter = "`"

// Macros maps variable names to the source text of their right-hand side.
// A later line can inline that text by writing the name between
// [MacroDelimiter] characters. Substitution is textual and happens before
// parsing.
type Macros struct {
	names []string
	text  map[string]string
}

// NewMacros creates an empty macro table.
func NewMacros() *Macros {
	return &Macros{text: make(map[string]string)}
}

// Define records rhs as the expansion of name, replacing any earlier one.
func (m *Macros) Define(name, rhs string) {
	if _, ok := m.text[name]; !ok {
		m.names = append(m.names, name)
	}
	m.text[name] = strings.TrimSpace(rhs)
}

// DefineLine records the right-hand side of an assignment line. Comments
// are dropped. Lines without "=" are ignored.
func (m *Macros) DefineLine(name, line string) {
	line, _, _ = strings.Cut(line, "#")
	if _, rhs, ok := strings.Cut(line, "="); ok {
		m.Define(name, rhs)
	}
}

// Lookup returns the expansion of name.
func (m *Macros) Lookup(name string) (string, bool) {
	s, ok := m.text[name]
	return s, ok
}

// Expand replaces every delimited reference in line, in definition order.
// Unknown references are left untouched.
func (m *Macros) Expand(line string) string {
	if !strings.Contains(line, MacroDelimiter) {
		return line
	}
	for _, name := range m.names {
		line = strings.ReplaceAll(line, MacroDelimiter+name+MacroDelimiter, m.text[name])
	}
	return line
}
