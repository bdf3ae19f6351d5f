package build

import (
	"maps"
	"slices"

	"github.com/matzehuels/nodify/pkg/host"
)

// VarInfo tracks the node produced by a variable definition.
type VarInfo struct {
	// Table is the node-graph table of the defining line.
	Table *Table
	// UsageLines holds the indices of the lines referencing the variable.
	UsageLines map[int]struct{}
	// Processed is set once the node has been recorded in the current
	// line's table.
	Processed bool
	// LaidOut is set once the variable's table has been placed in a
	// displayed line.
	LaidOut bool
}

// LastUse returns the highest line index referencing the variable.
func (v *VarInfo) LastUse() (int, bool) {
	if len(v.UsageLines) == 0 {
		return 0, false
	}
	return slices.Max(slices.Collect(maps.Keys(v.UsageLines))), true
}

// Tracker holds one VarInfo per variable-producing node.
type Tracker struct {
	infos map[host.NodeID]*VarInfo
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{infos: make(map[host.NodeID]*VarInfo)}
}

// Info returns the VarInfo of node n.
func (t *Tracker) Info(n host.NodeID) (*VarInfo, bool) {
	v, ok := t.infos[n]
	return v, ok
}

// Register records table as the defining table of n. When n already has a
// VarInfo, the existing one is returned unchanged.
func (t *Tracker) Register(n host.NodeID, table *Table) *VarInfo {
	if v, ok := t.infos[n]; ok {
		return v
	}
	v := &VarInfo{Table: table, UsageLines: make(map[int]struct{})}
	t.infos[n] = v
	return v
}

// ResetProcessed clears the Processed flag of every variable. It is called
// at the start of each line.
func (t *Tracker) ResetProcessed() {
	for _, v := range t.infos {
		v.Processed = false
	}
}

// Nodes returns the variable-producing nodes in ascending handle order.
func (t *Tracker) Nodes() []host.NodeID {
	return slices.Sorted(maps.Keys(t.infos))
}
