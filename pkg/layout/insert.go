package layout

import (
	"github.com/matzehuels/nodify/pkg/build"
	"github.com/matzehuels/nodify/pkg/host"
)

// InsertVarNodes returns the columns of graph g in t with every variable
// whose last use is line expanded into its defining table.
//
// Variables used again by a later line are dropped, except in their own
// defining table. Variable columns are shifted so their leftmost column
// lands on the host column. Other graphs of the variable's table (group
// bodies) are added to t when t does not have them yet. When mark is set,
// placed variables are flagged as laid out and will not be expanded again.
func InsertVarNodes(h host.Host, t *build.Table, g host.GraphID, tracker *build.Tracker, line int, mark bool) build.Columns {
	cols := t.Columns(g)
	out := make(build.Columns)
	for _, col := range cols.Keys() {
		for _, id := range cols[col] {
			info, ok := tracker.Info(id)
			if ok && info.Table != t && usedAfter(info, line) {
				continue
			}
			if !ok || !lastUsedOn(info, line) || info.LaidOut {
				out[col] = append(out[col], id)
				continue
			}

			for _, vg := range info.Table.Graphs() {
				if vg != g && !t.Has(vg) {
					t.Set(vg, info.Table.Columns(vg))
				}
			}

			varCols := info.Table.Columns(host.GraphOf(h, id))
			keys := varCols.Keys()
			if len(keys) == 0 {
				out[col] = append(out[col], id)
				continue
			}
			first := keys[0]
			for _, vc := range keys {
				for _, vn := range varCols[vc] {
					vi, isVar := tracker.Info(vn)
					if isVar && (vi.LaidOut || vi != info && usedAfter(vi, line)) {
						continue
					}
					out[col+vc-first] = append(out[col+vc-first], vn)
					if isVar && mark {
						vi.LaidOut = true
					}
				}
			}
			if mark {
				info.LaidOut = true
			}
		}
	}
	return out
}

func lastUsedOn(info *build.VarInfo, line int) bool {
	last, ok := info.LastUse()
	return ok && last == line
}

func usedAfter(info *build.VarInfo, line int) bool {
	last, ok := info.LastUse()
	return ok && last > line
}
