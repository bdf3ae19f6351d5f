package host

import "errors"

var (
	// ErrUnknownNode is returned when a NodeID does not refer to a live node.
	// Removing a node twice reports this error on the second call.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownGraph is returned when a GraphID does not refer to a live graph.
	ErrUnknownGraph = errors.New("unknown graph")

	// ErrUnknownPort is returned when a PortRef index is out of range.
	ErrUnknownPort = errors.New("unknown port")

	// ErrPortDirection is returned by [Host.Link] when the source is not an
	// output or the target is not an input.
	ErrPortDirection = errors.New("links must run from an output to an input")

	// ErrCrossGraphLink is returned by [Host.Link] when both ends do not
	// belong to the same graph.
	ErrCrossGraphLink = errors.New("cannot link nodes of different graphs")

	// ErrNoComponent is returned by [Host.SetDefault] when the port's default
	// value has no such component, or is not a scalar when component is -1.
	ErrNoComponent = errors.New("port default has no such component")

	// ErrNotSubgraph is returned when a graph has no boundary proxy of the
	// required kind.
	ErrNotSubgraph = errors.New("graph has no boundary proxy")
)

// Built-in node types every host understands.
const (
	TypeValue       = "value"
	TypeGroup       = "group"
	TypeGroupInput  = "group_input"
	TypeGroupOutput = "group_output"
	TypeFrame       = "frame"
)

// NodeID is a stable handle to a node. The zero value is [NoNode].
type NodeID int

// NoNode marks the absence of a node.
const NoNode NodeID = 0

// GraphID is a stable handle to a graph. The zero value is [NoGraph].
type GraphID int

// NoGraph marks the absence of a graph.
const NoGraph GraphID = 0

// Direction distinguishes input ports from output ports.
type Direction int

const (
	In Direction = iota
	Out
)

func (d Direction) String() string {
	if d == Out {
		return "out"
	}
	return "in"
}

// PortRef addresses one port of a node by its raw index in the node's
// input or output list.
type PortRef struct {
	Node  NodeID
	Dir   Direction
	Index int
}

// Vec is a 2-D vector used for locations, sizes and scales.
type Vec struct {
	X, Y float64
}

// Add returns v+o.
func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }

// Port is a typed connection point on a node.
type Port struct {
	Name    string
	Type    string    // socket type, e.g. VALUE, VECTOR, RGBA, SHADER
	Enabled bool      // disabled ports are ignored by resolution and linking
	Hidden  bool      // hidden ports are ignored by resolution
	Default []float64 // addressable default value; nil when the port has none

	links int
}

// Links reports the number of links attached to the port.
func (p *Port) Links() int { return p.links }

// IsLinked reports whether at least one link is attached to the port.
func (p *Port) IsLinked() bool { return p.links > 0 }

// Visible reports whether the port takes part in port resolution.
func (p *Port) Visible() bool { return p.Enabled && !p.Hidden }

// Node is a node owned by a host graph. Values returned by [Host.Node] are
// owned by the host and must not be modified by callers.
type Node struct {
	ID         NodeID
	Graph      GraphID
	Type       string
	Op         string // operation code for math-style nodes
	Label      string
	Name       string
	Inputs     []*Port
	Outputs    []*Port
	Subgraph   GraphID // graph wrapped by a group container, NoGraph otherwise
	Location   Vec
	Dimensions Vec    // size as measured by a renderer; zero when unknown
	SizeHint   Vec    // size from the function tables
	Parent     NodeID // enclosing frame, NoNode otherwise
}

// Ports returns the node's ports in the given direction.
func (n *Node) Ports(dir Direction) []*Port {
	if dir == Out {
		return n.Outputs
	}
	return n.Inputs
}

// PortSpec describes a port to create.
type PortSpec struct {
	Name     string
	Type     string
	Default  []float64
	Disabled bool
	Hidden   bool
}

// NodeSpec describes a node to create with [Host.AddNode].
type NodeSpec struct {
	Type    string
	Op      string
	Label   string
	Name    string
	Inputs  []PortSpec
	Outputs []PortSpec
	Size    Vec
	// Value, when set, becomes the default of the first output.
	Value *float64
}

// Link is a directed edge from an output port to an input port.
type Link struct {
	From PortRef
	To   PortRef
}

// Host is the graph surface the compiler builds into.
type Host interface {
	// Root returns the top-level graph.
	Root() GraphID
	// NewGraph creates an empty graph to be wrapped by a group container.
	NewGraph(name string) (GraphID, error)
	// AddNode creates a node in graph g.
	AddNode(g GraphID, spec NodeSpec) (NodeID, error)
	// SetSubgraph attaches graph sub to a group container.
	SetSubgraph(container NodeID, sub GraphID) error
	// Node returns the node with the given handle.
	Node(id NodeID) (*Node, bool)
	// Nodes returns the nodes of graph g in creation order.
	Nodes(g GraphID) []NodeID
	// Graphs returns all live graphs in creation order.
	Graphs() []GraphID
	// GraphName returns the name given to NewGraph, or "root".
	GraphName(g GraphID) string
	// Link connects output from to input to, replacing any link into to.
	Link(from, to PortRef) error
	// Links returns the links of graph g in creation order.
	Links(g GraphID) []Link
	// ExposeInput adds a boundary input to subgraph g and links the input
	// proxy to port to.
	ExposeInput(g GraphID, to PortRef) error
	// ExposeOutput adds a boundary output to subgraph g and links port from
	// to the output proxy.
	ExposeOutput(g GraphID, from PortRef) error
	// SetDefault sets one component of a port default. Component -1 sets a
	// scalar default.
	SetDefault(ref PortRef, component int, v float64) error
	// SetLocation positions a node.
	SetLocation(id NodeID, loc Vec) error
	// AddFrame creates a labelled frame node in graph g.
	AddFrame(g GraphID, label string) (NodeID, error)
	// SetParent places a node inside a frame.
	SetParent(id, frame NodeID) error
	// RemoveNode deletes a node with its links and any wrapped subgraph.
	RemoveNode(id NodeID) error
	// RemoveGraph deletes a graph and every node it holds.
	RemoveGraph(g GraphID) error
}

// PortOf looks up the port addressed by ref.
func PortOf(h Host, ref PortRef) (*Port, error) {
	n, ok := h.Node(ref.Node)
	if !ok {
		return nil, ErrUnknownNode
	}
	ports := n.Ports(ref.Dir)
	if ref.Index < 0 || ref.Index >= len(ports) {
		return nil, ErrUnknownPort
	}
	return ports[ref.Index], nil
}

// GraphOf returns the graph owning node id, or NoGraph.
func GraphOf(h Host, id NodeID) GraphID {
	if n, ok := h.Node(id); ok {
		return n.Graph
	}
	return NoGraph
}
