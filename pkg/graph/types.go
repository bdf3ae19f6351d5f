package graph

import (
	"github.com/matzehuels/nodify/pkg/host"
	"github.com/matzehuels/nodify/pkg/layout"
	"github.com/matzehuels/nodify/pkg/session"
)

// =============================================================================
// Document Types
// =============================================================================

// Document is a compiled session with its layout.
type Document struct {
	SessionID string           `json:"session_id" yaml:"session_id"`
	Graphs    []Graph          `json:"graphs" yaml:"graphs"`
	Links     []Link           `json:"links,omitempty" yaml:"links,omitempty"`
	Lines     []Line           `json:"lines,omitempty" yaml:"lines,omitempty"`
	Warnings  map[int][]string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Graph is the top-level graph or the body of a group.
type Graph struct {
	ID    int    `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Nodes []Node `json:"nodes,omitempty" yaml:"nodes,omitempty"`
}

// Node is a placed node.
type Node struct {
	ID       int     `json:"id" yaml:"id"`
	Type     string  `json:"type" yaml:"type"`
	Op       string  `json:"op,omitempty" yaml:"op,omitempty"`
	Label    string  `json:"label,omitempty" yaml:"label,omitempty"`
	Name     string  `json:"name,omitempty" yaml:"name,omitempty"`
	X        float64 `json:"x" yaml:"x"`
	Y        float64 `json:"y" yaml:"y"`
	Width    float64 `json:"width" yaml:"width"`
	Height   float64 `json:"height" yaml:"height"`
	Frame    int     `json:"frame,omitempty" yaml:"frame,omitempty"`
	Subgraph int     `json:"subgraph,omitempty" yaml:"subgraph,omitempty"`
	Inputs   []Port  `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs  []Port  `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// Port is a node socket. Only enabled ports are exported.
type Port struct {
	Name    string    `json:"name" yaml:"name"`
	Type    string    `json:"type,omitempty" yaml:"type,omitempty"`
	Default []float64 `json:"default,omitempty" yaml:"default,omitempty,flow"`
	Hidden  bool      `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Index   int       `json:"index" yaml:"index"`
}

// Link connects an output to an input within one graph. Port fields are
// indices into the node's full port list.
type Link struct {
	Graph    int `json:"graph" yaml:"graph"`
	FromNode int `json:"from_node" yaml:"from_node"`
	FromPort int `json:"from_port" yaml:"from_port"`
	ToNode   int `json:"to_node" yaml:"to_node"`
	ToPort   int `json:"to_port" yaml:"to_port"`
}

// Line is a displayed source line.
type Line struct {
	Number int         `json:"number" yaml:"number"`
	Frame  int         `json:"frame,omitempty" yaml:"frame,omitempty"`
	Graphs []LineGraph `json:"graphs" yaml:"graphs"`
}

// LineGraph is the dense column grid of one graph within a line. Column 0
// is the rightmost column.
type LineGraph struct {
	Graph   int     `json:"graph" yaml:"graph"`
	Columns [][]int `json:"columns" yaml:"columns,flow"`
}

// =============================================================================
// Conversion
// =============================================================================

// FromResult converts a compiled session into a document. arranged may be
// nil when the session was not laid out; positions then stay at zero.
func FromResult(h host.Host, res *session.Result, arranged []layout.ArrangedLine) *Document {
	doc := &Document{SessionID: res.SessionID}
	if len(res.Warnings) > 0 {
		doc.Warnings = res.Warnings
	}

	for _, g := range h.Graphs() {
		out := Graph{ID: int(g), Name: h.GraphName(g)}
		for _, id := range h.Nodes(g) {
			n, _ := h.Node(id)
			out.Nodes = append(out.Nodes, fromNode(h, n))
		}
		doc.Graphs = append(doc.Graphs, out)
		for _, l := range h.Links(g) {
			doc.Links = append(doc.Links, Link{
				Graph:    int(g),
				FromNode: int(l.From.Node),
				FromPort: l.From.Index,
				ToNode:   int(l.To.Node),
				ToPort:   l.To.Index,
			})
		}
	}

	frames := make(map[int]host.NodeID, len(arranged))
	for _, a := range arranged {
		frames[a.Number] = a.Frame
	}
	for _, ln := range res.Lines {
		out := Line{Number: ln.Number, Frame: int(frames[ln.Number])}
		for _, g := range ln.Table.Graphs() {
			grid := layout.Normalize(ln.Table.Columns(g))
			cols := make([][]int, len(grid))
			for i, col := range grid {
				for _, id := range col {
					cols[i] = append(cols[i], int(id))
				}
			}
			out.Graphs = append(out.Graphs, LineGraph{Graph: int(g), Columns: cols})
		}
		doc.Lines = append(doc.Lines, out)
	}
	return doc
}

func fromNode(h host.Host, n *host.Node) Node {
	size := layout.NodeSize(h, n.ID)
	return Node{
		ID:       int(n.ID),
		Type:     n.Type,
		Op:       n.Op,
		Label:    n.Label,
		Name:     n.Name,
		X:        n.Location.X,
		Y:        n.Location.Y,
		Width:    size.X,
		Height:   size.Y,
		Frame:    int(n.Parent),
		Subgraph: int(n.Subgraph),
		Inputs:   fromPorts(n.Inputs),
		Outputs:  fromPorts(n.Outputs),
	}
}

func fromPorts(ports []*host.Port) []Port {
	var out []Port
	for i, p := range ports {
		if !p.Enabled {
			continue
		}
		out = append(out, Port{Name: p.Name, Type: p.Type, Default: p.Default, Hidden: p.Hidden, Index: i})
	}
	return out
}

// Node returns the node with the given ID, searching every graph.
func (d *Document) Node(id int) (Node, bool) {
	for _, g := range d.Graphs {
		for _, n := range g.Nodes {
			if n.ID == id {
				return n, true
			}
		}
	}
	return Node{}, false
}

// NodeCount returns the number of nodes across all graphs.
func (d *Document) NodeCount() int {
	n := 0
	for _, g := range d.Graphs {
		n += len(g.Nodes)
	}
	return n
}
