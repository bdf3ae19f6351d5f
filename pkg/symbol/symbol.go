// Package symbol defines the expression tree handed from the parser to the
// graph builder.
//
// A [Symbol] is immutable once parsed. Operand0 is the primary (left)
// operand and Operands1 holds the secondary operands, such as the right side
// of a binary operator or the arguments of a call.
package symbol

import (
	"strconv"
	"strings"
)

// Token identifies the operator kind of a symbol.
type Token string

// Tokens produced by the parser.
const (
	Number  Token = "NUMBER"
	Name    Token = "NAME"
	Assign  Token = "="
	Add     Token = "+"
	Sub     Token = "-"
	Mul     Token = "*"
	Div     Token = "/"
	Mod     Token = "%"
	Pow     Token = "**"
	Call    Token = "("
	Default Token = "$"
	Group   Token = "{"
	List    Token = "LIST"
)

// IsBinary reports whether t is an arithmetic operator.
func (t Token) IsBinary() bool {
	switch t {
	case Add, Sub, Mul, Div, Mod, Pow:
		return true
	}
	return false
}

func (t Token) label() string {
	switch t {
	case Call:
		return "call"
	case Group:
		return "group"
	case List:
		return "list"
	}
	return string(t)
}

// Target selects which ports a default-value annotation writes to.
type Target int

const (
	TargetNone Target = iota
	TargetInput
	TargetOutput
)

// DefaultValue is one entry of a default-value annotation. A nil component
// leaves that component untouched. IsList marks a bracketed vector literal.
type DefaultValue struct {
	IsList     bool
	Components []*float64
}

// Symbol is a node of the parsed expression tree.
type Symbol struct {
	Token     Token
	Value     string // literal text or identifier
	Operand0  *Symbol
	Operands1 []*Symbol

	IsFunctionCall bool // name symbol used as a callee
	IsGroupLiteral bool // name symbol naming a group literal
	IsLeftHandSide bool // name symbol on the left of "="

	// Port is the explicit port selector written as name[sel]; empty when
	// absent. It may be a position or a port name.
	Port string

	Target   Target
	Defaults []DefaultValue

	Pos int // byte offset in the source line
}

// HasPort reports whether an explicit port selector was given.
func (s *Symbol) HasPort() bool { return s.Port != "" }

// Linear returns s and all of its descendants in pre-order: the symbol
// itself, then Operand0, then each of Operands1.
func (s *Symbol) Linear() []*Symbol {
	var out []*Symbol
	var walk func(*Symbol)
	walk = func(x *Symbol) {
		if x == nil {
			return
		}
		out = append(out, x)
		walk(x.Operand0)
		for _, o := range x.Operands1 {
			walk(o)
		}
	}
	walk(s)
	return out
}

// Count returns how many symbols in the tree carry token t.
func (s *Symbol) Count(t Token) int {
	n := 0
	for _, x := range s.Linear() {
		if x.Token == t {
			n++
		}
	}
	return n
}

// String renders the tree in a compact prefix form used by tests and
// debug logging.
func (s *Symbol) String() string {
	if s == nil {
		return "<nil>"
	}
	var b strings.Builder
	s.write(&b)
	return b.String()
}

func (s *Symbol) write(b *strings.Builder) {
	switch s.Token {
	case Number, Name:
		b.WriteString(s.Value)
	default:
		b.WriteByte('(')
		b.WriteString(s.Token.label())
		if s.Value != "" {
			b.WriteByte(' ')
			b.WriteString(s.Value)
		}
		if s.Operand0 != nil {
			b.WriteByte(' ')
			s.Operand0.write(b)
		}
		for _, o := range s.Operands1 {
			b.WriteByte(' ')
			o.write(b)
		}
		if len(s.Defaults) > 0 {
			b.WriteString(" [")
			for i, d := range s.Defaults {
				if i > 0 {
					b.WriteByte(' ')
				}
				d.write(b)
			}
			b.WriteByte(']')
		}
		b.WriteByte(')')
	}
	if s.Port != "" {
		b.WriteByte('[')
		b.WriteString(s.Port)
		b.WriteByte(']')
	}
}

func (d DefaultValue) write(b *strings.Builder) {
	if d.IsList {
		b.WriteByte('<')
	}
	for i, c := range d.Components {
		if i > 0 {
			b.WriteByte(',')
		}
		if c == nil {
			b.WriteByte('_')
		} else {
			b.WriteString(strconv.FormatFloat(*c, 'g', -1, 64))
		}
	}
	if d.IsList {
		b.WriteByte('>')
	}
}
