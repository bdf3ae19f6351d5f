// Package build compiles one parsed line into host nodes and records where
// each node belongs in the layout grid.
//
// A [Builder] walks the expression tree post-order. Each produced node is
// recorded in the line's [Table] under its owning graph and a column equal
// to the operand depth at which it was built. The right-hand side of an
// assignment keeps the column of its left-hand side.
package build

import (
	"github.com/matzehuels/nodify/pkg/errors"
	"github.com/matzehuels/nodify/pkg/eval"
	"github.com/matzehuels/nodify/pkg/host"
	"github.com/matzehuels/nodify/pkg/symbol"
)

// WarnOutputOnLHS is recorded when a line assigns to the sink.
const WarnOutputOnLHS = "output on LHS is deprecated, use output on RHS with incoming nodes as parameters instead (layout won't be correct)"

// Kind classifies a compiled line.
type Kind int

const (
	// KindFree is an expression without a root assignment.
	KindFree Kind = iota
	// KindDefine assigns the line's result to a variable.
	KindDefine
	// KindSink assigns to the sink node.
	KindSink
)

func (k Kind) String() string {
	switch k {
	case KindDefine:
		return "define"
	case KindSink:
		return "sink"
	}
	return "free"
}

// LineResult is the outcome of compiling one line.
type LineResult struct {
	Node     host.NodeID // node of the root symbol
	Kind     Kind
	Name     string // variable name for KindDefine
	Table    *Table
	Warnings []string
}

// Builder compiles a single line. Create one per line with NewBuilder.
type Builder struct {
	ctx       *eval.Context
	tracker   *Tracker
	displayed NodeSet
	line      int
	table     *Table

	// produced maps every evaluated symbol to its node.
	produced map[*symbol.Symbol]host.NodeID
}

// NewBuilder creates a builder for the line with index line. displayed
// holds the nodes already recorded by earlier displayed lines.
func NewBuilder(ctx *eval.Context, tracker *Tracker, displayed NodeSet, line int) *Builder {
	return &Builder{
		ctx:       ctx,
		tracker:   tracker,
		displayed: displayed,
		line:      line,
		table:     NewTable(),
		produced:  make(map[*symbol.Symbol]host.NodeID),
	}
}

// Compile evaluates sym into graph g.
func (b *Builder) Compile(g host.GraphID, sym *symbol.Symbol) (*LineResult, error) {
	res := &LineResult{Table: b.table}

	for _, st := range statements(sym) {
		if assignments(st) > 1 {
			return nil, errors.New(errors.ErrCodeAssignment, "only one assignment allowed in a line")
		}
	}
	for _, s := range sym.Linear() {
		if s.Token != symbol.Assign {
			continue
		}
		lhs := s.Operand0
		if lhs == nil || lhs.Token != symbol.Name {
			return nil, errors.New(errors.ErrCodeAssignment, "left hand side must be a variable or the output node")
		}
		switch {
		case b.ctx.Registry.IsSinkName(lhs.Value):
			res.Warnings = append(res.Warnings, WarnOutputOnLHS)
			if s == sym {
				res.Kind = KindSink
			}
		case b.ctx.Registry.IsReserved(lhs.Value):
			return nil, errors.New(errors.ErrCodeAssignment, "left hand side cannot refer to a node other than output: %s", lhs.Value)
		case s == sym:
			res.Kind, res.Name = KindDefine, lhs.Value
		}
	}

	op, err := b.eval(g, sym, 0)
	if err != nil {
		return nil, err
	}
	res.Node = op.Node

	if res.Kind == KindDefine {
		if bind, ok := b.ctx.Vars.Lookup(res.Name); ok {
			if n, ok := b.ctx.Host.Node(bind.Node); ok && b.ctx.Registry.IsSinkType(n.Type) {
				res.Warnings = append(res.Warnings, WarnOutputOnLHS)
				res.Kind = KindSink
			}
		}
	}
	return res, nil
}

func (b *Builder) eval(g host.GraphID, sym *symbol.Symbol, col int) (eval.Operand, error) {
	if sym.Operand0 != nil && sym.Operand0.Token == symbol.List {
		return eval.Operand{}, errors.Syntax("%s expression does not evaluate to a node", sym.Token)
	}
	ev, err := eval.For(sym.Token)
	if err != nil {
		return eval.Operand{}, err
	}

	lhs := eval.Operand{}
	if sym.Operand0 != nil {
		next := col + 1
		if sym.Token == symbol.Assign {
			next = col
		}
		if lhs, err = b.eval(g, sym.Operand0, next); err != nil {
			return eval.Operand{}, err
		}
	}

	bus := eval.NewBus(sym, lhs)
	inner, err := ev.BeforeOperand1(b.ctx, g, bus)
	if err != nil {
		return eval.Operand{}, err
	}

	if sym.Operands1 != nil {
		bus.RHS = make([]eval.Operand, 0, len(sym.Operands1))
		for _, s := range sym.Operands1 {
			op, err := b.eval(inner, s, col+1)
			if err != nil {
				return eval.Operand{}, err
			}
			bus.RHS = append(bus.RHS, op)
		}
		if sym.Token == symbol.Group {
			bus.Children = children(sym.Operands1, b.produced)
		}
	}

	node, err := ev.Evaluate(b.ctx, inner, bus)
	if err != nil {
		return eval.Operand{}, err
	}
	b.produced[sym] = node
	b.record(col, node)
	return eval.Operand{Symbol: sym, Node: node, Port: bus.Port}, nil
}

// statements returns root followed by every statement of the group bodies
// below it. Each statement may hold one assignment.
func statements(root *symbol.Symbol) []*symbol.Symbol {
	out := []*symbol.Symbol{root}
	for _, s := range root.Linear() {
		if s.Token == symbol.Group {
			out = append(out, s.Operands1...)
		}
	}
	return out
}

// assignments counts the assignments of one statement without entering
// group bodies.
func assignments(s *symbol.Symbol) int {
	if s == nil {
		return 0
	}
	n := assignments(s.Operand0)
	if s.Token == symbol.Assign {
		n++
	}
	if s.Token != symbol.Group {
		for _, o := range s.Operands1 {
			n += assignments(o)
		}
	}
	return n
}

// children lists the distinct nodes produced by the symbols under roots,
// in pre-order.
func children(roots []*symbol.Symbol, produced map[*symbol.Symbol]host.NodeID) []host.NodeID {
	seen := make(NodeSet)
	var out []host.NodeID
	for _, r := range roots {
		for _, s := range r.Linear() {
			n, ok := produced[s]
			if !ok || n == host.NoNode || seen.Has(n) {
				continue
			}
			seen.Add(n)
			out = append(out, n)
		}
	}
	return out
}

// record places node in the line table unless it is already placed. A
// variable node is placed once per line; any other node is skipped when an
// earlier displayed line already placed it.
func (b *Builder) record(col int, node host.NodeID) {
	if node == host.NoNode {
		return
	}
	info, isVar := b.tracker.Info(node)
	if isVar {
		info.UsageLines[b.line] = struct{}{}
	}
	if (isVar && !info.Processed) || (!b.table.Contains(node) && !b.displayed.Has(node)) {
		b.table.Add(host.GraphOf(b.ctx.Host, node), col, node)
		if isVar {
			info.Processed = true
		}
	}
}
