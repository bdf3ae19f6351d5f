// Package layout positions compiled nodes on the canvas.
//
// Layout works on the per-line [build.Table] produced by the compiler. It
// runs in two passes.
//
// # Variable Insertion
//
// [InsertVarNodes] replaces every slot holding a variable node whose last
// use is the current line with the whole table of the variable's defining
// line. The inserted columns start at the host column. A variable already
// laid out by an earlier displayed line is never placed twice, so a value
// defined early and used much later appears next to its last consumer.
//
// # Coordinate Assignment
//
// [Compute] turns a sparse column map into a dense grid. Column 0 is the
// rightmost column, so data flows right to left into the sink:
//
//	col 2      col 1      col 0
//	[2]  ---+
//	        +-> [add] --> [output]
//	[3]  ---+
//
// Each column is as wide as its widest node and as tall as the sum of its
// node heights. Columns are separated by [NoodleWidth] and centered on the
// reference location. Nodes within a column are stacked according to the
// [Alignment]. Group containers recurse into their subgraph, which is laid
// out around the container's position with the boundary proxies pushed to
// either side.
//
// # Multi-line Composition
//
// [ArrangeLines] stacks displayed lines top to bottom, optionally wrapping
// each in a labelled frame.
package layout
