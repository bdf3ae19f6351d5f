package layout

import (
	"fmt"
	"strings"

	"github.com/matzehuels/nodify/pkg/build"
	"github.com/matzehuels/nodify/pkg/errors"
	"github.com/matzehuels/nodify/pkg/host"
)

const (
	// NoodleWidth is the horizontal gap between columns.
	NoodleWidth = 80.0
	// SocketHeight is the height a group container gains per visible port.
	SocketHeight = 22.0

	framedSpacing = 70.0
	bareSpacing   = 30.0
)

// Alignment positions nodes vertically within a column.
type Alignment string

const (
	AlignTop    Alignment = "TOP"
	AlignCenter Alignment = "CENTER"
	AlignBottom Alignment = "BOTTOM"
)

// ParseAlignment parses an alignment name, ignoring case. The empty string
// yields [AlignCenter].
func ParseAlignment(s string) (Alignment, error) {
	switch a := Alignment(strings.ToUpper(strings.TrimSpace(s))); a {
	case "":
		return AlignCenter, nil
	case AlignTop, AlignCenter, AlignBottom:
		return a, nil
	}
	return "", errors.New(errors.ErrCodeInvalidAlignment, "invalid alignment %q: must be TOP, CENTER or BOTTOM", s)
}

func (a Alignment) offset(total, column float64) float64 {
	switch a {
	case AlignTop:
		return 0
	case AlignBottom:
		return total - column
	}
	return (total - column) / 2
}

// Options controls coordinate assignment and line stacking.
type Options struct {
	// Location is the top-center reference point of the first line.
	Location host.Vec
	// Scale multiplies computed offsets. Zero components are treated as 1.
	Scale host.Vec
	// Alignment positions nodes within a column. Empty means CENTER.
	Alignment Alignment
	// AddFrame wraps every displayed line in a frame node.
	AddFrame bool
	// FrameTitle labels frames. Empty means "Line N".
	FrameTitle string
}

func (o Options) withDefaults() Options {
	if o.Scale.X == 0 {
		o.Scale.X = 1
	}
	if o.Scale.Y == 0 {
		o.Scale.Y = 1
	}
	if o.Alignment == "" {
		o.Alignment = AlignCenter
	}
	return o
}

// =============================================================================
// Node sizes
// =============================================================================

// NodeSize returns the size used to place node id. Measured dimensions win
// over the size hint. Group containers grow by [SocketHeight] per visible
// port when only the hint is known.
func NodeSize(h host.Host, id host.NodeID) host.Vec {
	n, ok := h.Node(id)
	if !ok {
		return host.Vec{}
	}
	if n.Dimensions.X > 0 {
		return n.Dimensions
	}
	size := n.SizeHint
	if n.Type == host.TypeGroup {
		for _, p := range n.Inputs {
			if p.Visible() {
				size.Y += SocketHeight
			}
		}
		for _, p := range n.Outputs {
			if p.Visible() {
				size.Y += SocketHeight
			}
		}
	}
	return size
}

// =============================================================================
// Grid
// =============================================================================

// Grid is a dense column-major matrix of nodes. Grid[0] is the rightmost
// column.
type Grid [][]host.NodeID

// Normalize compacts sparse column indices into a dense 0-based grid,
// dropping empty columns.
func Normalize(cols build.Columns) Grid {
	var g Grid
	for _, k := range cols.Keys() {
		if len(cols[k]) > 0 {
			g = append(g, append([]host.NodeID(nil), cols[k]...))
		}
	}
	return g
}

// Nodes returns the grid's nodes column by column.
func (g Grid) Nodes() []host.NodeID {
	var out []host.NodeID
	for _, col := range g {
		out = append(out, col...)
	}
	return out
}

// Placement is the result of laying out one graph of a table.
type Placement struct {
	// Positions holds the location of every placed node, including nodes of
	// nested subgraphs and their boundary proxies.
	Positions map[host.NodeID]host.Vec
	// Grid is the dense grid of the laid-out graph.
	Grid Grid
	// Width and Height are the unscaled extents of the grid.
	Width, Height float64
}

// Compute assigns positions to the nodes of graph g in t without touching
// the host. ref is the reference location the grid is centered on.
func Compute(h host.Host, t *build.Table, g host.GraphID, ref host.Vec, opts Options) *Placement {
	opts = opts.withDefaults()
	p := &Placement{
		Positions: make(map[host.NodeID]host.Vec),
		Grid:      Normalize(t.Columns(g)),
	}
	p.Width, p.Height = compute(h, t, g, ref, opts, p)
	return p
}

func compute(h host.Host, t *build.Table, g host.GraphID, ref host.Vec, opts Options, out *Placement) (width, height float64) {
	grid := Normalize(t.Columns(g))

	sizes := make(map[host.NodeID]host.Vec)
	colWidths := make([]float64, len(grid))
	colHeights := make([]float64, len(grid))
	for c, col := range grid {
		for _, id := range col {
			s := NodeSize(h, id)
			sizes[id] = s
			colHeights[c] += s.Y
			colWidths[c] = max(colWidths[c], s.X)
		}
		height = max(height, colHeights[c])
		width += colWidths[c]
	}
	if len(grid) > 1 {
		width += float64(len(grid)-1) * NoodleWidth
	}

	consumed := 0.0
	for c, col := range grid {
		consumed += colWidths[c]
		offset := opts.Alignment.offset(height, colHeights[c])
		y := 0.0
		for _, id := range col {
			s := sizes[id]
			x := width/2 - consumed - float64(c)*NoodleWidth + (colWidths[c]-s.X)/2
			loc := host.Vec{X: ref.X + opts.Scale.X*x, Y: ref.Y - opts.Scale.Y*(y+offset)}
			out.Positions[id] = loc
			y += s.Y

			if n, ok := h.Node(id); ok && n.Type == host.TypeGroup && n.Subgraph != host.NoGraph && t.Has(n.Subgraph) {
				placeGroup(h, t, n.Subgraph, loc, opts, out)
			}
		}
	}
	return width, height
}

func placeGroup(h host.Host, t *build.Table, sub host.GraphID, ref host.Vec, opts Options, out *Placement) {
	w, _ := compute(h, t, sub, ref, opts, out)
	for _, id := range h.Nodes(sub) {
		n, _ := h.Node(id)
		switch n.Type {
		case host.TypeGroupOutput:
			out.Positions[id] = host.Vec{X: ref.X + NoodleWidth + w/2, Y: ref.Y}
		case host.TypeGroupInput:
			in := NodeSize(h, id)
			out.Positions[id] = host.Vec{X: ref.X - NoodleWidth - w/2 - in.X, Y: ref.Y}
		}
	}
}

// Arrange computes the placement of graph g and moves the nodes there.
func Arrange(h host.Host, t *build.Table, g host.GraphID, ref host.Vec, opts Options) (*Placement, error) {
	p := Compute(h, t, g, ref, opts)
	for id, loc := range p.Positions {
		if err := h.SetLocation(id, loc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "place node %d", id)
		}
	}
	return p, nil
}

// =============================================================================
// Lines
// =============================================================================

// Line is a displayed source line ready for layout.
type Line struct {
	Number int // 1-based source line
	Table  *build.Table
}

// ArrangedLine reports where a line was placed.
type ArrangedLine struct {
	Number    int
	Frame     host.NodeID // NoNode without frames
	Origin    host.Vec
	Placement *Placement
}

// ArrangeLines lays out each line of the root graph below the previous one.
// Each line advances the cursor by its scaled height plus a spacing that is
// larger when frames are drawn. The line height is multiplied by Scale.Y, so
// with a non-unit scale lines sit further apart than an unscaled cursor.
func ArrangeLines(h host.Host, lines []Line, opts Options) ([]ArrangedLine, error) {
	opts = opts.withDefaults()
	spacing := bareSpacing
	if opts.AddFrame {
		spacing = framedSpacing
	}
	spacing *= opts.Scale.Y

	root := h.Root()
	out := make([]ArrangedLine, 0, len(lines))
	cursor := 0.0
	for _, ln := range lines {
		origin := host.Vec{X: opts.Location.X, Y: opts.Location.Y - cursor}
		p, err := Arrange(h, ln.Table, root, origin, opts)
		if err != nil {
			return nil, err
		}
		arranged := ArrangedLine{Number: ln.Number, Origin: origin, Placement: p}
		if opts.AddFrame {
			title := opts.FrameTitle
			if title == "" {
				title = fmt.Sprintf("Line %d", ln.Number)
			}
			frame, err := h.AddFrame(root, title)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "frame line %d", ln.Number)
			}
			for _, id := range p.Grid.Nodes() {
				if err := h.SetParent(id, frame); err != nil {
					return nil, errors.Wrap(errors.ErrCodeInternal, err, "frame line %d", ln.Number)
				}
			}
			arranged.Frame = frame
		}
		out = append(out, arranged)
		cursor += p.Height*opts.Scale.Y + spacing
	}
	return out, nil
}
