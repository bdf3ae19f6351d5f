// Package nodelink renders compiled node graphs as Graphviz diagrams.
//
// # Overview
//
// Nodes are drawn as record shapes with their input sockets on the left,
// the label in the middle and output sockets on the right. Links connect
// sockets, not node centers. Node positions come from the layout engine and
// are pinned, so the diagram mirrors the editor layout rather than one
// Graphviz computes.
//
// # Usage
//
// Convert a document to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(doc, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot, nodelink.Options{})
//
// # Clusters
//
// Frames become clusters labelled with the frame title. Group bodies are
// emitted as nested clusters named after the group. Pinned layouts use the
// neato engine, which honors positions but draws clusters only as a hint;
// set [Options.Engine] to "dot" for an automatic layout with real clusters.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
