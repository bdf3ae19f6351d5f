package build

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/nodify/pkg/errors"
	"github.com/matzehuels/nodify/pkg/eval"
	"github.com/matzehuels/nodify/pkg/host"
	"github.com/matzehuels/nodify/pkg/parser"
	"github.com/matzehuels/nodify/pkg/registry"
)

type fixture struct {
	h       *host.Memory
	ctx     *eval.Context
	tracker *Tracker
	shown   NodeSet
	line    int
}

func newFixture() *fixture {
	h := host.NewMemory()
	return &fixture{
		h:       h,
		ctx:     &eval.Context{Host: h, Registry: registry.MustNew(), Vars: eval.NewVarTable()},
		tracker: NewTracker(),
		shown:   make(NodeSet),
	}
}

func (f *fixture) compile(t *testing.T, src string) *LineResult {
	t.Helper()
	res, err := f.try(src)
	if err != nil {
		t.Fatalf("Compile(%q): %v", src, err)
	}
	return res
}

func (f *fixture) try(src string) (*LineResult, error) {
	sym, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	f.tracker.ResetProcessed()
	res, err := NewBuilder(f.ctx, f.tracker, f.shown, f.line).Compile(f.h.Root(), sym)
	if err != nil {
		return nil, err
	}
	if res.Kind == KindDefine {
		f.tracker.Register(res.Node, res.Table)
	} else {
		f.shown.Add(res.Table.Nodes()...)
	}
	f.line++
	return res, nil
}

func (f *fixture) types(cols Columns) map[int][]string {
	out := make(map[int][]string)
	for _, c := range cols.Keys() {
		for _, id := range cols[c] {
			n, _ := f.h.Node(id)
			out[c] = append(out[c], n.Type)
		}
	}
	return out
}

func TestCompileDefine(t *testing.T) {
	f := newFixture()
	res := f.compile(t, "a = 2 + 3")

	if res.Kind != KindDefine || res.Name != "a" {
		t.Errorf("Kind, Name = %v, %q, want define, a", res.Kind, res.Name)
	}
	want := map[int][]string{
		1: {registry.TypeMath},
		2: {host.TypeValue, host.TypeValue},
	}
	if diff := cmp.Diff(want, f.types(res.Table.Columns(f.h.Root()))); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	if b, ok := f.ctx.Vars.Lookup("a"); !ok || b.Node != res.Node {
		t.Errorf("a bound to %v, want %d", b, res.Node)
	}
}

func TestCompileFreeExpression(t *testing.T) {
	f := newFixture()
	res := f.compile(t, "add(1, 2)")

	if res.Kind != KindFree {
		t.Errorf("Kind = %v, want free", res.Kind)
	}
	want := map[int][]string{
		0: {registry.TypeMath},
		1: {host.TypeValue, host.TypeValue},
	}
	if diff := cmp.Diff(want, f.types(res.Table.Columns(f.h.Root()))); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileSharedSubexpression(t *testing.T) {
	f := newFixture()
	f.compile(t, "x = 2 * 3")
	res := f.compile(t, "add(x, x)")

	x, _ := f.ctx.Vars.Lookup("x")
	links := f.h.Links(f.h.Root())
	var into int
	for _, l := range links {
		if l.From.Node == x.Node && l.To.Node == res.Node {
			into++
		}
	}
	if into != 2 {
		t.Errorf("links from x into add = %d, want 2", into)
	}
	if x.Uses != 2 {
		t.Errorf("Uses = %d, want 2", x.Uses)
	}

	info, ok := f.tracker.Info(x.Node)
	if !ok {
		t.Fatal("x has no VarInfo")
	}
	if last, _ := info.LastUse(); last != 1 {
		t.Errorf("LastUse = %d, want 1", last)
	}
	if n := len(res.Table.Columns(f.h.Root())[1]); n != 1 {
		t.Errorf("column 1 holds %d nodes, want the variable once", n)
	}
}

func TestCompileSink(t *testing.T) {
	f := newFixture()
	f.compile(t, "b = emission()")
	res := f.compile(t, "output = b")

	if res.Kind != KindSink {
		t.Errorf("Kind = %v, want sink", res.Kind)
	}
	if diff := cmp.Diff([]string{WarnOutputOnLHS}, res.Warnings); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileVariableBoundToSink(t *testing.T) {
	f := newFixture()
	res := f.compile(t, "o = output")
	if res.Kind != KindSink {
		t.Errorf("Kind = %v, want sink", res.Kind)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one deprecation warning", res.Warnings)
	}
}

func TestCompileGroup(t *testing.T) {
	f := newFixture()
	res := f.compile(t, "g = { y = add(x); y * 2 }")

	n, _ := f.h.Node(res.Node)
	if n.Type != host.TypeGroup || n.Name != eval.DefaultGroupName {
		t.Fatalf("built %s %q, want a group named %s", n.Type, n.Name, eval.DefaultGroupName)
	}
	if len(n.Inputs) != 1 || len(n.Outputs) != 1 {
		t.Errorf("group has %d inputs and %d outputs, want 1 and 1", len(n.Inputs), len(n.Outputs))
	}
	if !res.Table.Has(n.Subgraph) {
		t.Error("subgraph nodes were not recorded")
	}
	if got := res.Table.Columns(f.h.Root())[1]; len(got) != 1 || got[0] != res.Node {
		t.Errorf("root column 1 = %v, want [%d]", got, res.Node)
	}
}

// graphShape describes one graph by node types in creation order and links
// between node positions, so shapes from different hosts can be compared.
type graphShape struct {
	Name  string
	Types []string
	Links []string
}

func shapeOf(h *host.Memory) []graphShape {
	var out []graphShape
	for _, g := range h.Graphs() {
		nodes := h.Nodes(g)
		pos := make(map[host.NodeID]int, len(nodes))
		shape := graphShape{Name: h.GraphName(g)}
		for i, id := range nodes {
			pos[id] = i
			n, _ := h.Node(id)
			shape.Types = append(shape.Types, n.Type)
		}
		for _, l := range h.Links(g) {
			shape.Links = append(shape.Links, fmt.Sprintf("%d.%d->%d.%d",
				pos[l.From.Node], l.From.Index, pos[l.To.Node], l.To.Index))
		}
		out = append(out, shape)
	}
	return out
}

func TestCompileGroupIsStructurallyStable(t *testing.T) {
	const src = "g = { y = add(x); y * 2 }"

	var shapes [2][]graphShape
	var ports [2][2]int
	for i := range shapes {
		f := newFixture()
		res := f.compile(t, src)
		n, _ := f.h.Node(res.Node)
		shapes[i] = shapeOf(f.h)
		ports[i] = [2]int{len(n.Inputs), len(n.Outputs)}
	}

	if len(shapes[0]) != 2 {
		t.Fatalf("compiled %d graphs, want root and group", len(shapes[0]))
	}
	if diff := cmp.Diff(shapes[0], shapes[1]); diff != "" {
		t.Errorf("group shapes differ between compiles (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(ports[0], ports[1]); diff != "" {
		t.Errorf("container ports differ between compiles (-first +second):\n%s", diff)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code errors.Code
	}{
		{"double assignment", "a = 1 = 2", errors.ErrCodeAssignment},
		{"non-name target", "1 = 2", errors.ErrCodeAssignment},
		{"reserved target", "emission = 1", errors.ErrCodeAssignment},
		{"unknown function", "nope(1)", errors.ErrCodeUnknownFunction},
		{"list operand", "(1, 2) + 3", errors.ErrCodeSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.try(tt.src)
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %v, want %v (err: %v)", got, tt.code, err)
			}
		})
	}
}

func TestCompileSkipsDisplayedNodes(t *testing.T) {
	f := newFixture()
	first := f.compile(t, "sqrt(4)")
	f.shown.Add(first.Node)

	b := NewBuilder(f.ctx, f.tracker, f.shown, f.line)
	b.record(0, first.Node)
	if b.table.Contains(first.Node) {
		t.Error("recorded a node shown by an earlier line")
	}
}
