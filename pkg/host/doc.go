// Package host defines the graph surface the compiler writes into and an
// in-memory implementation of it.
//
// # Overview
//
// The compiler never owns node objects. It issues a small set of primitives
// against a [Host]: create a node from a [NodeSpec], link an output port to
// an input port, set port defaults, expose subgraph boundary ports, assign
// positions and remove nodes. Everything the compiler keeps in its own
// tables is a [NodeID] or [GraphID] handle, never a pointer into the host.
//
// # Graphs and Subgraphs
//
// A host starts with a single root graph ([Host.Root]). Group literals create
// additional graphs with [Host.NewGraph] and attach them to a container node
// of type [TypeGroup]. Every subgraph holds two proxy nodes, a
// [TypeGroupInput] and a [TypeGroupOutput], whose ports mirror the
// container's inputs and outputs. [Host.ExposeInput] and [Host.ExposeOutput]
// add a boundary port to both sides and wire it up.
//
// # Ports and Links
//
// Ports carry Enabled and Hidden flags. Only enabled, visible ports take part
// in port resolution. An input accepts at most one incoming link; linking into
// an already linked input replaces the previous link. Outputs may fan out.
//
// # Memory Host
//
// [NewMemory] returns a deterministic arena: node and graph handles are
// allocated from increasing counters starting at 1, so two compiles of the
// same source produce identical handles. Memory is not safe for concurrent
// use without external synchronization.
package host
