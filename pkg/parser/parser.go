// Package parser turns one line of nodify source into a [symbol.Symbol] tree.
//
// The grammar, loosest binding first:
//
//	line     := [expr] ['#' comment]
//	expr     := sum ['=' expr]
//	sum      := product {('+'|'-') product}
//	product  := power {('*'|'/'|'%') power}
//	power    := postfix ['**' power]
//	postfix  := primary {'[' selector ']' | '$[' defaults ']' | '${' defaults '}'}
//	primary  := NUMBER | '-' primary | NAME | NAME '(' args ')' | [NAME] '{' stmts '}'
//	          | '(' expr {',' expr} ')'
//
// Statements inside braces are separated by ';' or ','. In a default-value
// list, '_' skips an entry and a bracketed list addresses vector components.
package parser

import (
	"strconv"

	"github.com/matzehuels/nodify/pkg/errors"
	"github.com/matzehuels/nodify/pkg/symbol"
)

// Binding powers.
const (
	bpAssign  = 10
	bpSum     = 20
	bpProduct = 30
	bpPower   = 40
	bpUnary   = 45
	bpPostfix = 50
)

// Parse parses a single line. It returns nil for a blank or comment-only
// line. Malformed input yields a SYNTAX_ERROR.
func Parse(line string) (*symbol.Symbol, error) {
	toks, err := lex(line)
	if err != nil {
		return nil, err
	}
	if toks[0].kind == kindEOF {
		return nil, nil
	}
	p := &parser{toks: toks}
	sym, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != kindEOF {
		return nil, p.unexpected(t)
	}
	return sym, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != kindEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(text string) bool {
	t := p.peek()
	return t.kind == kindOp && t.text == text
}

func (p *parser) expect(text string) error {
	if !p.isOp(text) {
		return p.unexpected(p.peek())
	}
	p.next()
	return nil
}

func (p *parser) unexpected(t token) error {
	if t.kind == kindEOF {
		return errors.Syntax("unexpected end of line")
	}
	return errors.Syntax("unexpected %q at column %d", t.text, t.pos+1)
}

func infixPower(t token) (bp int, right bool, ok bool) {
	if t.kind != kindOp {
		return 0, false, false
	}
	switch t.text {
	case "=":
		return bpAssign, true, true
	case "+", "-":
		return bpSum, false, true
	case "*", "/", "%":
		return bpProduct, false, true
	case "**":
		return bpPower, true, true
	case "[", "$":
		return bpPostfix, false, true
	}
	return 0, false, false
}

func (p *parser) expr(minBP int) (*symbol.Symbol, error) {
	left, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		bp, right, ok := infixPower(t)
		if !ok || bp <= minBP {
			return left, nil
		}
		p.next()

		switch t.text {
		case "[":
			if left, err = p.selector(left); err != nil {
				return nil, err
			}
			continue
		case "$":
			if left, err = p.defaults(left, t.pos); err != nil {
				return nil, err
			}
			continue
		}

		next := bp
		if right {
			next = bp - 1
		}
		rhs, err := p.expr(next)
		if err != nil {
			return nil, err
		}
		if t.text == "=" && left.Token == symbol.Name {
			left.IsLeftHandSide = true
		}
		left = &symbol.Symbol{
			Token:     symbol.Token(t.text),
			Operand0:  left,
			Operands1: []*symbol.Symbol{rhs},
			Pos:       t.pos,
		}
	}
}

func (p *parser) primary() (*symbol.Symbol, error) {
	t := p.next()
	switch t.kind {
	case kindNumber:
		return &symbol.Symbol{Token: symbol.Number, Value: t.text, Pos: t.pos}, nil

	case kindName:
		switch {
		case p.isOp("("):
			p.next()
			args, err := p.list(")", ",")
			if err != nil {
				return nil, err
			}
			return &symbol.Symbol{
				Token:     symbol.Call,
				Operand0:  &symbol.Symbol{Token: symbol.Name, Value: t.text, IsFunctionCall: true, Pos: t.pos},
				Operands1: args,
				Pos:       t.pos,
			}, nil
		case p.isOp("{"):
			open := p.next()
			stmts, err := p.list("}", ",", ";")
			if err != nil {
				return nil, err
			}
			return &symbol.Symbol{
				Token:     symbol.Group,
				Operand0:  &symbol.Symbol{Token: symbol.Name, Value: t.text, IsGroupLiteral: true, Pos: t.pos},
				Operands1: stmts,
				Pos:       open.pos,
			}, nil
		}
		return &symbol.Symbol{Token: symbol.Name, Value: t.text, Pos: t.pos}, nil

	case kindOp:
		switch t.text {
		case "-":
			if n := p.peek(); n.kind == kindNumber {
				p.next()
				return &symbol.Symbol{Token: symbol.Number, Value: "-" + n.text, Pos: t.pos}, nil
			}
			operand, err := p.expr(bpUnary)
			if err != nil {
				return nil, err
			}
			return &symbol.Symbol{
				Token:     symbol.Sub,
				Operand0:  &symbol.Symbol{Token: symbol.Number, Value: "0", Pos: t.pos},
				Operands1: []*symbol.Symbol{operand},
				Pos:       t.pos,
			}, nil
		case "{":
			stmts, err := p.list("}", ",", ";")
			if err != nil {
				return nil, err
			}
			return &symbol.Symbol{Token: symbol.Group, Operands1: stmts, Pos: t.pos}, nil
		case "(":
			items, err := p.list(")", ",")
			if err != nil {
				return nil, err
			}
			switch len(items) {
			case 0:
				return nil, errors.Syntax("empty parentheses at column %d", t.pos+1)
			case 1:
				return items[0], nil
			}
			return &symbol.Symbol{Token: symbol.List, Operands1: items, Pos: t.pos}, nil
		}
	}
	return nil, p.unexpected(t)
}

// list parses expressions separated by any of seps up to the closing
// token. The opening token has already been consumed.
func (p *parser) list(closing string, seps ...string) ([]*symbol.Symbol, error) {
	items := []*symbol.Symbol{}
	for !p.isOp(closing) {
		item, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if !p.skipSep(seps) {
			break
		}
	}
	if err := p.expect(closing); err != nil {
		return nil, err
	}
	return items, nil
}

func (p *parser) skipSep(seps []string) bool {
	for _, s := range seps {
		if p.isOp(s) {
			p.next()
			return true
		}
	}
	return false
}

func (p *parser) selector(left *symbol.Symbol) (*symbol.Symbol, error) {
	t := p.next()
	sel := t.text
	switch {
	case t.kind == kindOp && t.text == "-" && p.peek().kind == kindNumber:
		sel = "-" + p.next().text
	case t.kind != kindNumber && t.kind != kindName:
		return nil, p.unexpected(t)
	}
	if err := p.expect("]"); err != nil {
		return nil, err
	}
	left.Port = sel
	return left, nil
}

func (p *parser) defaults(left *symbol.Symbol, pos int) (*symbol.Symbol, error) {
	open := p.next()
	var target symbol.Target
	var closing string
	switch {
	case open.kind == kindOp && open.text == "[":
		target, closing = symbol.TargetInput, "]"
	case open.kind == kindOp && open.text == "{":
		target, closing = symbol.TargetOutput, "}"
	default:
		return nil, errors.Syntax("'$' must be followed by '[' or '{' at column %d", pos+1)
	}

	var vals []symbol.DefaultValue
	for !p.isOp(closing) {
		v, err := p.defaultValue()
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
		if !p.skipSep([]string{","}) {
			break
		}
	}
	if err := p.expect(closing); err != nil {
		return nil, err
	}
	return &symbol.Symbol{
		Token:    symbol.Default,
		Operand0: left,
		Target:   target,
		Defaults: vals,
		Pos:      pos,
	}, nil
}

func (p *parser) defaultValue() (symbol.DefaultValue, error) {
	if !p.isOp("[") {
		c, err := p.component()
		return symbol.DefaultValue{Components: []*float64{c}}, err
	}
	p.next()
	v := symbol.DefaultValue{IsList: true}
	for !p.isOp("]") {
		c, err := p.component()
		if err != nil {
			return v, err
		}
		v.Components = append(v.Components, c)
		if !p.skipSep([]string{","}) {
			break
		}
	}
	return v, p.expect("]")
}

// component parses a number or '_'. A nil result marks a skipped entry.
func (p *parser) component() (*float64, error) {
	t := p.next()
	text := t.text
	switch {
	case t.kind == kindName && t.text == "_":
		return nil, nil
	case t.kind == kindOp && t.text == "-" && p.peek().kind == kindNumber:
		text = "-" + p.next().text
	case t.kind != kindNumber:
		return nil, p.unexpected(t)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, errors.Syntax("invalid number %q", text)
	}
	return &v, nil
}
