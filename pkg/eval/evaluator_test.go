package eval

import (
	"testing"

	"github.com/matzehuels/nodify/pkg/errors"
	"github.com/matzehuels/nodify/pkg/host"
	"github.com/matzehuels/nodify/pkg/registry"
	"github.com/matzehuels/nodify/pkg/symbol"
)

func newContext() (*Context, *host.Memory) {
	h := host.NewMemory()
	return &Context{Host: h, Registry: registry.MustNew(), Vars: NewVarTable()}, h
}

func evalSym(t *testing.T, c *Context, g host.GraphID, bus *Bus) host.NodeID {
	t.Helper()
	ev, err := For(bus.Symbol.Token)
	if err != nil {
		t.Fatal(err)
	}
	id, err := ev.Evaluate(c, g, bus)
	if err != nil {
		t.Fatalf("Evaluate(%s): %v", bus.Symbol, err)
	}
	return id
}

func nameSym(v string) *symbol.Symbol { return &symbol.Symbol{Token: symbol.Name, Value: v} }
func numSym(v string) *symbol.Symbol  { return &symbol.Symbol{Token: symbol.Number, Value: v} }

func operand(s *symbol.Symbol, id host.NodeID) Operand {
	return Operand{Symbol: s, Node: id, Port: s.Port}
}

func TestNameEvaluator(t *testing.T) {
	c, h := newContext()
	root := h.Root()

	x := nameSym("x")
	first := evalSym(t, c, root, NewBus(x, Operand{}))
	n, _ := h.Node(first)
	if n.Type != host.TypeValue || n.Label != "x" || n.Name != "x" {
		t.Errorf("unbound name built %+v, want a value node labelled x", n)
	}

	second := evalSym(t, c, root, NewBus(x, Operand{}))
	if second != first {
		t.Errorf("bound name built node %d, want reuse of %d", second, first)
	}
	if b, _ := c.Vars.Lookup("x"); b.Uses != 1 {
		t.Errorf("Uses = %d, want 1", b.Uses)
	}

	builtin := evalSym(t, c, root, NewBus(nameSym("combine_xyz"), Operand{}))
	if n, _ := h.Node(builtin); n.Type != "combine_xyz" {
		t.Errorf("builtin name built %s, want combine_xyz", n.Type)
	}

	lhs := &symbol.Symbol{Token: symbol.Name, Value: "y", IsLeftHandSide: true}
	if id := evalSym(t, c, root, NewBus(lhs, Operand{})); id != host.NoNode {
		t.Errorf("left-hand side name built node %d", id)
	}

	sub, _ := h.NewGraph("g")
	ev, _ := For(symbol.Name)
	if _, err := ev.Evaluate(c, sub, NewBus(x, Operand{})); !errors.Is(err, errors.ErrCodeScope) {
		t.Errorf("cross-graph reference error = %v, want SYNTAX_SCOPE", err)
	}
}

func TestNameEvaluatorBindingPort(t *testing.T) {
	c, h := newContext()
	sep := evalSym(t, c, h.Root(), NewBus(nameSym("separate_xyz"), Operand{}))
	c.Vars.Bind("v", sep, h.Root(), "2")

	bus := NewBus(nameSym("v"), Operand{})
	evalSym(t, c, h.Root(), bus)
	if bus.Port != "2" {
		t.Errorf("Port = %q, want binding port 2", bus.Port)
	}
}

func TestAssignEvaluator(t *testing.T) {
	c, h := newContext()
	root := h.Root()

	two := numSym("2")
	val := evalSym(t, c, root, NewBus(two, Operand{}))

	lhs := &symbol.Symbol{Token: symbol.Name, Value: "a", IsLeftHandSide: true}
	assign := &symbol.Symbol{Token: symbol.Assign, Operand0: lhs, Operands1: []*symbol.Symbol{two}}
	bus := NewBus(assign, Operand{Symbol: lhs})
	bus.RHS = []Operand{operand(two, val)}
	if got := evalSym(t, c, root, bus); got != val {
		t.Errorf("assignment returned %d, want %d", got, val)
	}
	if b, ok := c.Vars.Lookup("a"); !ok || b.Node != val || b.Graph != root {
		t.Errorf("binding = %+v, want node %d", b, val)
	}

	out := &symbol.Symbol{Token: symbol.Name, Value: "emission", IsLeftHandSide: true}
	em := evalSym(t, c, root, NewBus(out, Operand{}))
	bus = NewBus(assign, operand(out, em))
	bus.RHS = []Operand{operand(two, val)}
	evalSym(t, c, root, bus)
	evalSym(t, c, root, bus)
	n, _ := h.Node(em)
	if !n.Inputs[0].IsLinked() || !n.Inputs[1].IsLinked() {
		t.Error("repeated assignment did not fill the next free input")
	}

	ev, _ := For(symbol.Assign)
	if _, err := ev.Evaluate(c, root, bus); !errors.Is(err, errors.ErrCodeAssignment) {
		t.Errorf("saturated target error = %v, want SYNTAX_ASSIGNMENT", err)
	}

	bus = NewBus(assign, operand(two, val))
	bus.RHS = []Operand{operand(two, val)}
	if _, err := ev.Evaluate(c, root, bus); !errors.Is(err, errors.ErrCodeAssignment) {
		t.Errorf("target without inputs error = %v, want SYNTAX_ASSIGNMENT", err)
	}

	sink := evalSym(t, c, root, NewBus(nameSym("output"), Operand{}))
	fresh := evalSym(t, c, root, NewBus(out, Operand{}))
	bus = NewBus(assign, operand(out, fresh))
	bus.RHS = []Operand{operand(nameSym("output"), sink)}
	if _, err := ev.Evaluate(c, root, bus); !errors.Is(err, errors.ErrCodeAssignment) {
		t.Errorf("source without outputs error = %v, want SYNTAX_ASSIGNMENT", err)
	}
}

func TestBinaryEvaluator(t *testing.T) {
	c, h := newContext()
	root := h.Root()
	a, b := numSym("1"), numSym("2")
	na := evalSym(t, c, root, NewBus(a, Operand{}))
	nb := evalSym(t, c, root, NewBus(b, Operand{}))

	for _, tok := range []symbol.Token{symbol.Add, symbol.Sub, symbol.Mul, symbol.Div, symbol.Mod, symbol.Pow} {
		sym := &symbol.Symbol{Token: tok, Operand0: a, Operands1: []*symbol.Symbol{b}}
		bus := NewBus(sym, operand(a, na))
		bus.RHS = []Operand{operand(b, nb)}
		id := evalSym(t, c, root, bus)
		n, _ := h.Node(id)
		if n.Type != registry.TypeMath || !n.Inputs[0].IsLinked() || !n.Inputs[1].IsLinked() {
			t.Errorf("%s built %+v, want a math node with both inputs linked", tok, n)
		}
	}

	sink := evalSym(t, c, root, NewBus(nameSym("output"), Operand{}))
	sym := &symbol.Symbol{Token: symbol.Add, Operand0: a, Operands1: []*symbol.Symbol{b}}
	bus := NewBus(sym, operand(a, sink))
	bus.RHS = []Operand{operand(b, nb)}
	ev, _ := For(symbol.Add)
	if _, err := ev.Evaluate(c, root, bus); !errors.IsSyntax(err) {
		t.Errorf("operand without output error = %v, want syntax error", err)
	}
}

func TestCallEvaluator(t *testing.T) {
	c, h := newContext()
	root := h.Root()
	x := numSym("3")
	nx := evalSym(t, c, root, NewBus(x, Operand{}))

	callee := &symbol.Symbol{Token: symbol.Name, Value: "sqrt", IsFunctionCall: true}
	call := &symbol.Symbol{Token: symbol.Call, Operand0: callee, Operands1: []*symbol.Symbol{x, x}}
	bus := NewBus(call, Operand{Symbol: callee})
	bus.RHS = []Operand{operand(x, nx), operand(x, nx)}
	id := evalSym(t, c, root, bus)

	n, _ := h.Node(id)
	if !n.Inputs[0].IsLinked() || n.Inputs[1].IsLinked() {
		t.Error("call must link only up to the number of enabled inputs")
	}

	unknown := &symbol.Symbol{Token: symbol.Name, Value: "sinh2", IsFunctionCall: true}
	bus = NewBus(&symbol.Symbol{Token: symbol.Call, Operand0: unknown}, Operand{Symbol: unknown})
	ev, _ := For(symbol.Call)
	if _, err := ev.Evaluate(c, root, bus); !errors.Is(err, errors.ErrCodeUnknownFunction) {
		t.Errorf("unknown function error = %v, want SYNTAX_UNKNOWN_FUNCTION", err)
	}
}

func TestDefaultEvaluator(t *testing.T) {
	c, h := newContext()
	root := h.Root()
	v := nameSym("principled")
	node := evalSym(t, c, root, NewBus(v, Operand{}))

	f := func(x float64) *float64 { return &x }
	sym := &symbol.Symbol{
		Token:    symbol.Default,
		Operand0: v,
		Target:   symbol.TargetInput,
		Defaults: []symbol.DefaultValue{
			{IsList: true, Components: []*float64{f(1), nil, f(0.25)}}, // Base Color
			{Components: []*float64{f(0.9)}},                          // Metallic
			{Components: []*float64{nil}},                             // Roughness untouched
		},
	}
	if got := evalSym(t, c, root, NewBus(sym, operand(v, node))); got != node {
		t.Errorf("$ returned %d, want its operand %d", got, node)
	}
	n, _ := h.Node(node)
	if got := n.Inputs[0].Default; got[0] != 1 || got[1] != 0.8 || got[2] != 0.25 {
		t.Errorf("Base Color = %v", got)
	}
	if got := n.Inputs[1].Default[0]; got != 0.9 {
		t.Errorf("Metallic = %v, want 0.9", got)
	}
	if got := n.Inputs[2].Default[0]; got != 0.5 {
		t.Errorf("Roughness = %v, want untouched 0.5", got)
	}

	// Type mismatches are swallowed: the BSDF output has no default.
	out := &symbol.Symbol{Token: symbol.Default, Operand0: v, Target: symbol.TargetOutput,
		Defaults: []symbol.DefaultValue{{Components: []*float64{f(2)}}}}
	evalSym(t, c, root, NewBus(out, operand(v, node)))

	ev, _ := For(symbol.Default)
	bad := &symbol.Symbol{Token: symbol.Default, Operand0: v, Target: symbol.TargetOutput,
		Defaults: []symbol.DefaultValue{{Components: []*float64{nil}}, {Components: []*float64{f(1)}}}}
	if _, err := ev.Evaluate(c, root, NewBus(bad, operand(v, node))); !errors.IsSyntax(err) {
		t.Errorf("missing port error = %v, want syntax error", err)
	}
	if _, err := ev.Evaluate(c, root, NewBus(sym, Operand{})); !errors.IsSyntax(err) {
		t.Errorf("missing operand error = %v, want syntax error", err)
	}
}

func TestGroupEvaluator(t *testing.T) {
	c, h := newContext()
	root := h.Root()

	name := &symbol.Symbol{Token: symbol.Name, Value: "blend", IsGroupLiteral: true}
	sym := &symbol.Symbol{Token: symbol.Group, Operand0: name}
	bus := NewBus(sym, Operand{Symbol: name})
	ev, _ := For(symbol.Group)
	sub, err := ev.BeforeOperand1(c, root, bus)
	if err != nil {
		t.Fatal(err)
	}
	if sub == root || len(h.Nodes(sub)) != 2 {
		t.Fatalf("subgraph %d holds %d nodes, want a new graph with 2 proxies", sub, len(h.Nodes(sub)))
	}

	// Body: one add node with a single linked input.
	x, _ := h.AddNode(sub, c.Registry.Internal("value").Spec())
	e, _ := c.Registry.Lookup("add")
	add, _ := h.AddNode(sub, e.Spec())
	_ = h.Link(host.PortRef{Node: x, Dir: host.Out}, host.PortRef{Node: add, Dir: host.In})
	bus.Children = []host.NodeID{add, x}

	id, err := ev.Evaluate(c, sub, bus)
	if err != nil {
		t.Fatal(err)
	}
	g, _ := h.Node(id)
	if g.Name != "blend" || g.Subgraph != sub {
		t.Errorf("container = %+v", g)
	}
	if len(g.Inputs) != 1 || len(g.Outputs) != 1 {
		t.Errorf("container ports = %d in / %d out, want 1 / 1", len(g.Inputs), len(g.Outputs))
	}
}

func TestForUnsupported(t *testing.T) {
	if _, err := For(symbol.Token("?")); !errors.IsSyntax(err) {
		t.Errorf("For(?) error = %v, want syntax error", err)
	}
}
