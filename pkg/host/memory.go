package host

import (
	"slices"
)

type graph struct {
	id    GraphID
	name  string
	nodes []NodeID
	links []Link
}

// Memory is an in-memory [Host] backed by an arena of nodes and graphs.
//
// The zero value is not usable - use NewMemory to create one.
type Memory struct {
	nodes     map[NodeID]*Node
	graphs    map[GraphID]*graph
	order     []GraphID
	nextNode  NodeID
	nextGraph GraphID
	root      GraphID
}

var _ Host = (*Memory)(nil)

// NewMemory creates a host holding an empty root graph.
func NewMemory() *Memory {
	m := &Memory{
		nodes:  make(map[NodeID]*Node),
		graphs: make(map[GraphID]*graph),
	}
	m.root, _ = m.NewGraph("root")
	return m
}

// Root returns the top-level graph.
func (m *Memory) Root() GraphID { return m.root }

// NewGraph creates an empty graph.
func (m *Memory) NewGraph(name string) (GraphID, error) {
	m.nextGraph++
	id := m.nextGraph
	m.graphs[id] = &graph{id: id, name: name}
	m.order = append(m.order, id)
	return id, nil
}

// Graphs returns all live graphs in creation order.
func (m *Memory) Graphs() []GraphID { return slices.Clone(m.order) }

// GraphName returns the name a graph was created with.
func (m *Memory) GraphName(g GraphID) string {
	if gr, ok := m.graphs[g]; ok {
		return gr.name
	}
	return ""
}

// AddNode creates a node in graph g from spec.
func (m *Memory) AddNode(g GraphID, spec NodeSpec) (NodeID, error) {
	gr, ok := m.graphs[g]
	if !ok {
		return NoNode, ErrUnknownGraph
	}
	m.nextNode++
	n := &Node{
		ID:       m.nextNode,
		Graph:    g,
		Type:     spec.Type,
		Op:       spec.Op,
		Label:    spec.Label,
		Name:     spec.Name,
		Inputs:   newPorts(spec.Inputs),
		Outputs:  newPorts(spec.Outputs),
		SizeHint: spec.Size,
	}
	if spec.Value != nil && len(n.Outputs) > 0 {
		n.Outputs[0].Default = []float64{*spec.Value}
	}
	m.nodes[n.ID] = n
	gr.nodes = append(gr.nodes, n.ID)
	return n.ID, nil
}

func newPorts(specs []PortSpec) []*Port {
	ports := make([]*Port, 0, len(specs))
	for _, s := range specs {
		ports = append(ports, &Port{
			Name:    s.Name,
			Type:    s.Type,
			Enabled: !s.Disabled,
			Hidden:  s.Hidden,
			Default: slices.Clone(s.Default),
		})
	}
	return ports
}

// SetSubgraph attaches sub to a group container.
func (m *Memory) SetSubgraph(container NodeID, sub GraphID) error {
	n, ok := m.nodes[container]
	if !ok {
		return ErrUnknownNode
	}
	if _, ok := m.graphs[sub]; !ok {
		return ErrUnknownGraph
	}
	n.Subgraph = sub
	return nil
}

// SetDimensions records a measured node size. Layout prefers measured
// dimensions over size hints when they are non-zero.
func (m *Memory) SetDimensions(id NodeID, d Vec) error {
	n, ok := m.nodes[id]
	if !ok {
		return ErrUnknownNode
	}
	n.Dimensions = d
	return nil
}

// Node returns the node with the given handle.
func (m *Memory) Node(id NodeID) (*Node, bool) {
	n, ok := m.nodes[id]
	return n, ok
}

// Nodes returns the nodes of graph g in creation order.
func (m *Memory) Nodes(g GraphID) []NodeID {
	if gr, ok := m.graphs[g]; ok {
		return slices.Clone(gr.nodes)
	}
	return nil
}

// NodeCount reports the number of live nodes across all graphs.
func (m *Memory) NodeCount() int { return len(m.nodes) }

// Link connects from to to. An existing link into to is replaced.
func (m *Memory) Link(from, to PortRef) error {
	if from.Dir != Out || to.Dir != In {
		return ErrPortDirection
	}
	src, err := PortOf(m, from)
	if err != nil {
		return err
	}
	dst, err := PortOf(m, to)
	if err != nil {
		return err
	}
	g := m.nodes[from.Node].Graph
	if m.nodes[to.Node].Graph != g {
		return ErrCrossGraphLink
	}
	gr := m.graphs[g]
	if dst.links > 0 {
		gr.links = slices.DeleteFunc(gr.links, func(l Link) bool {
			if l.To != to {
				return false
			}
			if p, err := PortOf(m, l.From); err == nil {
				p.links--
			}
			return true
		})
		dst.links = 0
	}
	gr.links = append(gr.links, Link{From: from, To: to})
	src.links++
	dst.links++
	return nil
}

// Links returns the links of graph g in creation order.
func (m *Memory) Links(g GraphID) []Link {
	if gr, ok := m.graphs[g]; ok {
		return slices.Clone(gr.links)
	}
	return nil
}

// proxy returns the first node of type typ in graph g.
func (m *Memory) proxy(g GraphID, typ string) (*Node, error) {
	gr, ok := m.graphs[g]
	if !ok {
		return nil, ErrUnknownGraph
	}
	for _, id := range gr.nodes {
		if n := m.nodes[id]; n.Type == typ {
			return n, nil
		}
	}
	return nil, ErrNotSubgraph
}

// containers returns every group node wrapping graph g.
func (m *Memory) containers(g GraphID) []*Node {
	var out []*Node
	for _, gid := range m.order {
		for _, id := range m.graphs[gid].nodes {
			if n := m.nodes[id]; n.Subgraph == g {
				out = append(out, n)
			}
		}
	}
	return out
}

// ExposeInput adds a boundary input mirroring port to and links the input
// proxy's new output into it.
func (m *Memory) ExposeInput(g GraphID, to PortRef) error {
	if to.Dir != In {
		return ErrPortDirection
	}
	p, err := PortOf(m, to)
	if err != nil {
		return err
	}
	in, err := m.proxy(g, TypeGroupInput)
	if err != nil {
		return err
	}
	in.Outputs = append(in.Outputs, &Port{Name: p.Name, Type: p.Type, Enabled: true})
	for _, c := range m.containers(g) {
		c.Inputs = append(c.Inputs, &Port{Name: p.Name, Type: p.Type, Enabled: true, Default: slices.Clone(p.Default)})
	}
	return m.Link(PortRef{Node: in.ID, Dir: Out, Index: len(in.Outputs) - 1}, to)
}

// ExposeOutput adds a boundary output mirroring port from and links it into
// the output proxy's new input.
func (m *Memory) ExposeOutput(g GraphID, from PortRef) error {
	if from.Dir != Out {
		return ErrPortDirection
	}
	p, err := PortOf(m, from)
	if err != nil {
		return err
	}
	out, err := m.proxy(g, TypeGroupOutput)
	if err != nil {
		return err
	}
	out.Inputs = append(out.Inputs, &Port{Name: p.Name, Type: p.Type, Enabled: true})
	for _, c := range m.containers(g) {
		c.Outputs = append(c.Outputs, &Port{Name: p.Name, Type: p.Type, Enabled: true})
	}
	return m.Link(from, PortRef{Node: out.ID, Dir: In, Index: len(out.Inputs) - 1})
}

// SetDefault sets component of the default value of the port at ref.
// Component -1 addresses a scalar default and fails on vector ports;
// a non-negative component fails on scalar ports.
func (m *Memory) SetDefault(ref PortRef, component int, v float64) error {
	p, err := PortOf(m, ref)
	if err != nil {
		return err
	}
	switch {
	case component < 0 && len(p.Default) == 1:
		p.Default[0] = v
	case component >= 0 && len(p.Default) > 1 && component < len(p.Default):
		p.Default[component] = v
	default:
		return ErrNoComponent
	}
	return nil
}

// SetLocation positions a node.
func (m *Memory) SetLocation(id NodeID, loc Vec) error {
	n, ok := m.nodes[id]
	if !ok {
		return ErrUnknownNode
	}
	n.Location = loc
	return nil
}

// AddFrame creates a frame node labelled label in graph g.
func (m *Memory) AddFrame(g GraphID, label string) (NodeID, error) {
	return m.AddNode(g, NodeSpec{Type: TypeFrame, Label: label, Name: label})
}

// SetParent places node id inside frame.
func (m *Memory) SetParent(id, frame NodeID) error {
	n, ok := m.nodes[id]
	if !ok {
		return ErrUnknownNode
	}
	if frame != NoNode {
		if _, ok := m.nodes[frame]; !ok {
			return ErrUnknownNode
		}
	}
	n.Parent = frame
	return nil
}

// RemoveNode deletes a node, its links, and the subgraph it wraps.
func (m *Memory) RemoveNode(id NodeID) error {
	n, ok := m.nodes[id]
	if !ok {
		return ErrUnknownNode
	}
	gr := m.graphs[n.Graph]
	gr.links = slices.DeleteFunc(gr.links, func(l Link) bool {
		if l.From.Node != id && l.To.Node != id {
			return false
		}
		if l.From.Node != id {
			if p, err := PortOf(m, l.From); err == nil {
				p.links--
			}
		}
		if l.To.Node != id {
			if p, err := PortOf(m, l.To); err == nil {
				p.links--
			}
		}
		return true
	})
	gr.nodes = slices.DeleteFunc(gr.nodes, func(x NodeID) bool { return x == id })
	delete(m.nodes, id)

	for _, other := range m.nodes {
		if other.Parent == id {
			other.Parent = NoNode
		}
	}
	if n.Subgraph != NoGraph && len(m.containers(n.Subgraph)) == 0 {
		if err := m.RemoveGraph(n.Subgraph); err != nil && err != ErrUnknownGraph {
			return err
		}
	}
	return nil
}

// RemoveGraph deletes graph g and every node in it. The root graph is
// emptied but kept.
func (m *Memory) RemoveGraph(g GraphID) error {
	gr, ok := m.graphs[g]
	if !ok {
		return ErrUnknownGraph
	}
	for _, id := range slices.Clone(gr.nodes) {
		if err := m.RemoveNode(id); err != nil && err != ErrUnknownNode {
			return err
		}
	}
	if g == m.root {
		return nil
	}
	delete(m.graphs, g)
	m.order = slices.DeleteFunc(m.order, func(x GraphID) bool { return x == g })
	return nil
}
