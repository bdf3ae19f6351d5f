package eval

import (
	"slices"

	"github.com/matzehuels/nodify/pkg/host"
)

// Binding is the node a variable name refers to.
type Binding struct {
	Node  host.NodeID
	Graph host.GraphID // graph the variable was defined in
	Port  string       // default port selector, empty for the first port
	Uses  int          // non-defining references since the last bind
}

// VarTable maps variable names to bindings for one compile session.
type VarTable struct {
	bindings map[string]*Binding
	names    []string
}

// NewVarTable creates an empty table.
func NewVarTable() *VarTable {
	return &VarTable{bindings: make(map[string]*Binding)}
}

// Lookup returns the binding for name.
func (t *VarTable) Lookup(name string) (*Binding, bool) {
	b, ok := t.bindings[name]
	return b, ok
}

// Bind binds name to node, replacing any earlier binding. The use count
// starts at zero.
func (t *VarTable) Bind(name string, node host.NodeID, g host.GraphID, port string) *Binding {
	if _, ok := t.bindings[name]; !ok {
		t.names = append(t.names, name)
	}
	b := &Binding{Node: node, Graph: g, Port: port}
	t.bindings[name] = b
	return b
}

// Names returns bound names in first-bind order.
func (t *VarTable) Names() []string { return slices.Clone(t.names) }

// Len reports the number of bound names.
func (t *VarTable) Len() int { return len(t.bindings) }

// BoundTo returns the names currently bound to node.
func (t *VarTable) BoundTo(node host.NodeID) []string {
	var out []string
	for _, n := range t.names {
		if t.bindings[n].Node == node {
			out = append(out, n)
		}
	}
	return out
}
