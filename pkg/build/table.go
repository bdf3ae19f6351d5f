package build

import (
	"maps"
	"slices"

	"github.com/matzehuels/nodify/pkg/host"
)

// Columns maps a column index to the nodes placed in it, top to bottom.
// Column indices may be sparse.
type Columns map[int][]host.NodeID

// Keys returns the column indices in ascending order.
func (c Columns) Keys() []int {
	return slices.Sorted(maps.Keys(c))
}

// Len reports the number of nodes across all columns.
func (c Columns) Len() int {
	n := 0
	for _, col := range c {
		n += len(col)
	}
	return n
}

// Table is the node-graph table of one compiled line: graph, then column,
// then the ordered nodes in that column.
//
// Tables are shared by pointer. The table recorded for a variable's
// defining line is the same value later merged into the lines that use it.
type Table struct {
	graphs map[host.GraphID]Columns
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{graphs: make(map[host.GraphID]Columns)}
}

// Add appends node n to column col of graph g.
func (t *Table) Add(g host.GraphID, col int, n host.NodeID) {
	cols := t.graphs[g]
	if cols == nil {
		cols = make(Columns)
		t.graphs[g] = cols
	}
	cols[col] = append(cols[col], n)
}

// Columns returns the columns of graph g, or nil.
func (t *Table) Columns(g host.GraphID) Columns { return t.graphs[g] }

// Set replaces the columns of graph g.
func (t *Table) Set(g host.GraphID, cols Columns) { t.graphs[g] = cols }

// Has reports whether graph g has an entry.
func (t *Table) Has(g host.GraphID) bool {
	_, ok := t.graphs[g]
	return ok
}

// Graphs returns the graphs with entries in ascending handle order.
func (t *Table) Graphs() []host.GraphID {
	return slices.Sorted(maps.Keys(t.graphs))
}

// Contains reports whether n appears anywhere in the table.
func (t *Table) Contains(n host.NodeID) bool {
	for _, cols := range t.graphs {
		for _, col := range cols {
			if slices.Contains(col, n) {
				return true
			}
		}
	}
	return false
}

// Nodes returns every node in the table, graph by graph and column by
// column.
func (t *Table) Nodes() []host.NodeID {
	var out []host.NodeID
	for _, g := range t.Graphs() {
		cols := t.graphs[g]
		for _, k := range cols.Keys() {
			out = append(out, cols[k]...)
		}
	}
	return out
}

// Len reports the number of nodes in the table.
func (t *Table) Len() int {
	n := 0
	for _, cols := range t.graphs {
		n += cols.Len()
	}
	return n
}

// NodeSet is a set of node handles.
type NodeSet map[host.NodeID]struct{}

// Add inserts ids into the set.
func (s NodeSet) Add(ids ...host.NodeID) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Has reports whether id is in the set.
func (s NodeSet) Has(id host.NodeID) bool {
	_, ok := s[id]
	return ok
}
