package eval

import (
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodify/pkg/errors"
	"github.com/matzehuels/nodify/pkg/host"
	"github.com/matzehuels/nodify/pkg/registry"
	"github.com/matzehuels/nodify/pkg/symbol"
)

// DefaultGroupName names group literals written without a name.
const DefaultGroupName = "Group"

// Context is the state shared by evaluators during one compile session.
type Context struct {
	Host     host.Host
	Registry *registry.Registry
	Vars     *VarTable
	Logger   *log.Logger
}

// Evaluator builds the node for one kind of symbol.
type Evaluator interface {
	// BeforeOperand1 runs before the secondary operands are evaluated and
	// returns the graph they are built in.
	BeforeOperand1(c *Context, g host.GraphID, bus *Bus) (host.GraphID, error)
	// Evaluate builds or reuses the node for bus.Symbol. It may return
	// host.NoNode for symbols that stand for no node of their own.
	Evaluate(c *Context, g host.GraphID, bus *Bus) (host.NodeID, error)

	sealed()
}

// For returns the evaluator for a token.
func For(tok symbol.Token) (Evaluator, error) {
	switch tok {
	case symbol.Number:
		return numberEvaluator{}, nil
	case symbol.Name:
		return nameEvaluator{}, nil
	case symbol.Assign:
		return assignEvaluator{}, nil
	case symbol.Add, symbol.Sub, symbol.Mul, symbol.Div, symbol.Mod, symbol.Pow:
		return binaryEvaluator{token: tok}, nil
	case symbol.Call:
		return callEvaluator{}, nil
	case symbol.Default:
		return defaultEvaluator{}, nil
	case symbol.Group:
		return groupEvaluator{}, nil
	case symbol.List:
		return listEvaluator{}, nil
	}
	return nil, errors.Syntax("unsupported token %q", tok)
}

type base struct{}

func (base) BeforeOperand1(_ *Context, g host.GraphID, _ *Bus) (host.GraphID, error) {
	return g, nil
}

func (base) sealed() {}

func addNode(c *Context, g host.GraphID, e *registry.Entry, label, name string, value *float64) (host.NodeID, error) {
	spec := e.Spec()
	if label != "" {
		spec.Label = label
	}
	spec.Name = name
	spec.Value = value
	id, err := c.Host.AddNode(g, spec)
	if err != nil {
		return host.NoNode, errors.Wrap(errors.ErrCodeInternal, err, "create %s node", e.Name)
	}
	return id, nil
}

func link(c *Context, from, to host.PortRef) error {
	if err := c.Host.Link(from, to); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "link %d -> %d", from.Node, to.Node)
	}
	return nil
}

// =============================================================================
// Literals and names
// =============================================================================

type numberEvaluator struct{ base }

func (numberEvaluator) Evaluate(c *Context, g host.GraphID, bus *Bus) (host.NodeID, error) {
	v, err := strconv.ParseFloat(bus.Symbol.Value, 64)
	if err != nil {
		return host.NoNode, errors.Syntax("invalid number %q", bus.Symbol.Value)
	}
	return addNode(c, g, c.Registry.Internal("value"), "", "", &v)
}

type nameEvaluator struct{ base }

func (nameEvaluator) Evaluate(c *Context, g host.GraphID, bus *Bus) (host.NodeID, error) {
	sym := bus.Symbol
	if sym.IsFunctionCall || sym.IsGroupLiteral {
		return host.NoNode, nil
	}
	if e, ok := c.Registry.Lookup(sym.Value); ok {
		return addNode(c, g, e, "", "", nil)
	}
	if sym.IsLeftHandSide {
		return host.NoNode, nil
	}

	if b, ok := c.Vars.Lookup(sym.Value); ok {
		if b.Graph != g {
			return host.NoNode, errors.New(errors.ErrCodeScope,
				"variable %q is defined in another graph; groups cannot share variables", sym.Value)
		}
		if b.Port != "" {
			bus.Port = b.Port
		}
		b.Uses++
		return b.Node, nil
	}

	zero := 0.0
	id, err := addNode(c, g, c.Registry.Internal("value"), sym.Value, sym.Value, &zero)
	if err != nil {
		return host.NoNode, err
	}
	c.Vars.Bind(sym.Value, id, g, "")
	return id, nil
}

type listEvaluator struct{ base }

func (listEvaluator) Evaluate(*Context, host.GraphID, *Bus) (host.NodeID, error) {
	return host.NoNode, errors.Syntax("list expression does not evaluate to a node")
}

// =============================================================================
// Operators
// =============================================================================

type assignEvaluator struct{ base }

func (assignEvaluator) Evaluate(c *Context, g host.GraphID, bus *Bus) (host.NodeID, error) {
	if len(bus.RHS) == 0 || !bus.RHS[0].Valid() {
		return host.NoNode, errors.New(errors.ErrCodeAssignment,
			`right hand side of "=" should be a node type with at least one output`)
	}
	rhs := bus.RHS[0]

	if !bus.LHS.Valid() {
		if bus.LHS.Symbol == nil || bus.LHS.Symbol.Token != symbol.Name {
			return host.NoNode, errors.New(errors.ErrCodeAssignment, "left hand side must be a variable or the output node")
		}
		c.Vars.Bind(bus.LHS.Symbol.Value, rhs.Node, host.GraphOf(c.Host, rhs.Node), rhs.Port)
		return rhs.Node, nil
	}

	lhs, _ := c.Host.Node(bus.LHS.Node)
	if lhs == nil || len(lhs.Inputs) == 0 {
		return host.NoNode, errors.New(errors.ErrCodeAssignment,
			"left hand side should be a node type with at least one input")
	}
	in, ok := ResolvePort(c.Host, bus.LHS.Node, host.In, bus.LHS.Port, 0)
	if p, err := host.PortOf(c.Host, in); !ok || err != nil || p.IsLinked() {
		if in, ok = FirstFreeInput(c.Host, bus.LHS.Node); !ok {
			return host.NoNode, errors.New(errors.ErrCodeAssignment,
				`left hand side of "=" should be a node type with at least one free input`)
		}
	}
	out, ok := bus.RHSOutput(c.Host)
	if !ok {
		return host.NoNode, errors.New(errors.ErrCodeAssignment,
			`right hand side of "=" should be a node type with at least one output`)
	}
	if err := link(c, out, in); err != nil {
		return host.NoNode, err
	}
	return rhs.Node, nil
}

type binaryEvaluator struct {
	base
	token symbol.Token
}

func (e binaryEvaluator) Evaluate(c *Context, g host.GraphID, bus *Bus) (host.NodeID, error) {
	entry, err := c.Registry.Operator(string(e.token))
	if err != nil {
		return host.NoNode, err
	}
	left, ok := bus.LHSOutput(c.Host)
	if !ok {
		return host.NoNode, errors.Syntax("left operand of %q has no output", e.token)
	}
	right, ok := bus.RHSOutput(c.Host)
	if !ok {
		return host.NoNode, errors.Syntax("right operand of %q has no output", e.token)
	}
	id, err := addNode(c, g, entry, "", "", nil)
	if err != nil {
		return host.NoNode, err
	}
	if err := link(c, left, host.PortRef{Node: id, Dir: host.In, Index: 0}); err != nil {
		return host.NoNode, err
	}
	if err := link(c, right, host.PortRef{Node: id, Dir: host.In, Index: 1}); err != nil {
		return host.NoNode, err
	}
	return id, nil
}

// =============================================================================
// Calls and default values
// =============================================================================

type callEvaluator struct{ base }

func (callEvaluator) Evaluate(c *Context, g host.GraphID, bus *Bus) (host.NodeID, error) {
	name := ""
	if bus.LHS.Symbol != nil {
		name = bus.LHS.Symbol.Value
	}
	entry, ok := c.Registry.Lookup(name)
	if !ok {
		return host.NoNode, errors.New(errors.ErrCodeUnknownFunction, "unknown function: %s", name)
	}
	id, err := addNode(c, g, entry, "", "", nil)
	if err != nil {
		return host.NoNode, err
	}

	n, _ := c.Host.Node(id)
	var inputs []int
	for i, p := range n.Inputs {
		if p.Enabled {
			inputs = append(inputs, i)
		}
	}
	outputs, found := bus.RHSOutputs(c.Host)
	for i := 0; i < min(len(outputs), len(inputs)); i++ {
		if !found[i] {
			continue
		}
		if err := link(c, outputs[i], host.PortRef{Node: id, Dir: host.In, Index: inputs[i]}); err != nil {
			return host.NoNode, err
		}
	}
	return id, nil
}

type defaultEvaluator struct{ base }

func (defaultEvaluator) Evaluate(c *Context, _ host.GraphID, bus *Bus) (host.NodeID, error) {
	if !bus.LHS.Valid() {
		return host.NoNode, errors.Syntax("$ should be preceded by a value node name")
	}
	node, _ := c.Host.Node(bus.LHS.Node)
	dir := host.In
	switch bus.Symbol.Target {
	case symbol.TargetInput:
	case symbol.TargetOutput:
		dir = host.Out
	default:
		return host.NoNode, errors.Syntax("$ needs an input or output target")
	}
	ports := node.Ports(dir)

	for i, val := range bus.Symbol.Defaults {
		for j, comp := range val.Components {
			if comp == nil {
				continue
			}
			if i >= len(ports) {
				return host.NoNode, errors.Syntax("incorrect default value assignment: %s has no %s port %d", node.Label, dir, i)
			}
			ref := host.PortRef{Node: node.ID, Dir: dir, Index: i}
			if err := c.Host.SetDefault(ref, j, *comp); err == nil {
				continue
			}
			if err := c.Host.SetDefault(ref, -1, *comp); err != nil && c.Logger != nil {
				c.Logger.Debug("default value ignored", "node", node.ID, "port", i, "component", j, "err", err)
			}
		}
	}
	return node.ID, nil
}

// =============================================================================
// Group literals
// =============================================================================

type groupEvaluator struct{ base }

// BeforeOperand1 creates the container node in g and a subgraph holding the
// boundary proxies. The body is then evaluated inside the subgraph.
func (groupEvaluator) BeforeOperand1(c *Context, g host.GraphID, bus *Bus) (host.GraphID, error) {
	name := DefaultGroupName
	if bus.LHS.Symbol != nil && bus.LHS.Symbol.Value != "" {
		name = bus.LHS.Symbol.Value
	}
	container, err := addNode(c, g, c.Registry.Internal("group"), name, name, nil)
	if err != nil {
		return host.NoGraph, err
	}
	sub, err := c.Host.NewGraph(name)
	if err != nil {
		return host.NoGraph, errors.Wrap(errors.ErrCodeInternal, err, "create group %s", name)
	}
	if err := c.Host.SetSubgraph(container, sub); err != nil {
		return host.NoGraph, errors.Wrap(errors.ErrCodeInternal, err, "attach group %s", name)
	}
	for _, kind := range []string{"group_output", "group_input"} {
		e := c.Registry.Internal(kind)
		if _, err := addNode(c, sub, e, e.Label, e.Label, nil); err != nil {
			return host.NoGraph, err
		}
	}
	bus.Group = container
	return sub, nil
}

// Evaluate exposes every unlinked output and then every unlinked input of
// the body nodes as boundary ports of the group.
func (groupEvaluator) Evaluate(c *Context, sub host.GraphID, bus *Bus) (host.NodeID, error) {
	var children []*host.Node
	for _, id := range bus.Children {
		if n, ok := c.Host.Node(id); ok && n.Graph == sub {
			children = append(children, n)
		}
	}
	for _, n := range children {
		for i, p := range n.Outputs {
			if p.Visible() && !p.IsLinked() {
				if err := c.Host.ExposeOutput(sub, host.PortRef{Node: n.ID, Dir: host.Out, Index: i}); err != nil {
					return host.NoNode, errors.Wrap(errors.ErrCodeInternal, err, "expose output")
				}
			}
		}
	}
	for _, n := range children {
		for i, p := range n.Inputs {
			if p.Visible() && !p.IsLinked() {
				if err := c.Host.ExposeInput(sub, host.PortRef{Node: n.ID, Dir: host.In, Index: i}); err != nil {
					return host.NoNode, errors.Wrap(errors.ErrCodeInternal, err, "expose input")
				}
			}
		}
	}
	return bus.Group, nil
}
