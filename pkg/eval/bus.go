package eval

import (
	"strconv"

	"github.com/matzehuels/nodify/pkg/host"
	"github.com/matzehuels/nodify/pkg/symbol"
)

// Operand is an evaluated operand: the symbol, the node it produced and the
// port selector to use when reading from that node.
type Operand struct {
	Symbol *symbol.Symbol
	Node   host.NodeID
	Port   string
}

// Valid reports whether the operand produced a node.
func (o Operand) Valid() bool { return o.Node != host.NoNode }

// Bus carries one symbol and its evaluated operands to an evaluator.
type Bus struct {
	Symbol *symbol.Symbol

	// LHS is the evaluated Operand0. Its Symbol is nil when the symbol has
	// no primary operand.
	LHS Operand
	// RHS holds the evaluated Operands1 in order, nil when there are none.
	RHS []Operand

	// Children lists the distinct nodes produced while evaluating the
	// secondary operands, in evaluation order. Only filled for group literals.
	Children []host.NodeID

	// Group is the container created by a group literal's first phase.
	Group host.NodeID

	// Port is the effective selector of this symbol's result. It starts as
	// Symbol.Port and may be replaced by a variable binding.
	Port string
}

// NewBus creates a bus for sym with the evaluated primary operand.
func NewBus(sym *symbol.Symbol, lhs Operand) *Bus {
	return &Bus{Symbol: sym, LHS: lhs, Port: sym.Port}
}

// LHSOutput resolves the default output of the primary operand.
func (b *Bus) LHSOutput(h host.Host) (host.PortRef, bool) {
	if !b.LHS.Valid() {
		return host.PortRef{}, false
	}
	return ResolvePort(h, b.LHS.Node, host.Out, b.LHS.Port, 0)
}

// RHSOutputs resolves the default output of each secondary operand. Missing
// outputs are reported as false in the parallel slice.
func (b *Bus) RHSOutputs(h host.Host) ([]host.PortRef, []bool) {
	refs := make([]host.PortRef, len(b.RHS))
	ok := make([]bool, len(b.RHS))
	for i, op := range b.RHS {
		if op.Valid() {
			refs[i], ok[i] = ResolvePort(h, op.Node, host.Out, op.Port, 0)
		}
	}
	return refs, ok
}

// RHSOutput resolves the default output of the first secondary operand.
func (b *Bus) RHSOutput(h host.Host) (host.PortRef, bool) {
	if len(b.RHS) == 0 || !b.RHS[0].Valid() {
		return host.PortRef{}, false
	}
	return ResolvePort(h, b.RHS[0].Node, host.Out, b.RHS[0].Port, 0)
}

// ResolvePort selects a port of node in direction dir among its enabled,
// visible ports. The returned PortRef carries the raw port index.
//
// Without a selector the port at position def is returned, if there is one.
// With a selector, resolution is deliberately lenient and tries in order:
//
//  1. the selector as a position; negative positions count from the end
//  2. the selector as a port name
//  3. the first port
//
// The boolean is false only when the node has no candidate port at all, or
// when def is out of range without a selector.
func ResolvePort(h host.Host, node host.NodeID, dir host.Direction, sel string, def int) (host.PortRef, bool) {
	n, ok := h.Node(node)
	if !ok {
		return host.PortRef{}, false
	}
	var visible []int
	for i, p := range n.Ports(dir) {
		if p.Visible() {
			visible = append(visible, i)
		}
	}
	if len(visible) == 0 {
		return host.PortRef{}, false
	}
	ref := func(pos int) host.PortRef {
		return host.PortRef{Node: node, Dir: dir, Index: visible[pos]}
	}

	if sel == "" {
		if def < 0 || def >= len(visible) {
			return host.PortRef{}, false
		}
		return ref(def), true
	}

	if pos, err := strconv.Atoi(sel); err == nil {
		if pos < 0 {
			pos += len(visible)
		}
		if pos >= 0 && pos < len(visible) {
			return ref(pos), true
		}
	}
	ports := n.Ports(dir)
	for pos, idx := range visible {
		if ports[idx].Name == sel {
			return ref(pos), true
		}
	}
	return ref(0), true
}

// FirstFreeInput returns the first enabled, visible input of node with no
// incoming link.
func FirstFreeInput(h host.Host, node host.NodeID) (host.PortRef, bool) {
	n, ok := h.Node(node)
	if !ok {
		return host.PortRef{}, false
	}
	for i, p := range n.Inputs {
		if p.Visible() && !p.IsLinked() {
			return host.PortRef{Node: node, Dir: host.In, Index: i}, true
		}
	}
	return host.PortRef{}, false
}
