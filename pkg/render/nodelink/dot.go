package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/nodify/pkg/graph"
	"github.com/matzehuels/nodify/pkg/host"
)

// Engines accepted by [Options.Engine].
const (
	EngineNeato = "neato"
	EngineDot   = "dot"
)

// pointsPerInch converts layout units into Graphviz inches.
const pointsPerInch = 72.0

// Options configures diagram generation.
type Options struct {
	// Detailed appends port defaults to socket labels.
	Detailed bool
	// Engine selects the Graphviz layout. Empty means neato with pinned
	// positions.
	Engine string
}

func (o Options) engine() string {
	if o.Engine == "" {
		return EngineNeato
	}
	return o.Engine
}

// ToDOT converts a document to Graphviz DOT source.
func ToDOT(doc *graph.Document, opts Options) string {
	pinned := opts.engine() == EngineNeato

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=RL;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  node [shape=record, style=\"rounded,filled\", fillcolor=white, fontsize=12];\n")
	buf.WriteString("\n")

	frames := make(map[int]bool)
	members := make(map[int][]graph.Node)
	bodies := make(map[int]graph.Graph)
	for _, g := range doc.Graphs {
		bodies[g.ID] = g
		for _, n := range g.Nodes {
			if n.Type == host.TypeFrame {
				frames[n.ID] = true
			}
		}
	}

	var root *graph.Graph
	if len(doc.Graphs) > 0 {
		root = &doc.Graphs[0]
	}
	if root != nil {
		var loose []graph.Node
		for _, n := range root.Nodes {
			switch {
			case n.Type == host.TypeFrame:
			case frames[n.Frame]:
				members[n.Frame] = append(members[n.Frame], n)
			default:
				loose = append(loose, n)
			}
		}
		for _, n := range root.Nodes {
			if n.Type != host.TypeFrame {
				continue
			}
			fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", n.ID)
			fmt.Fprintf(&buf, "    label=%q;\n", n.Label)
			for _, m := range members[n.ID] {
				writeNode(&buf, "    ", m, opts, pinned, bodies)
			}
			buf.WriteString("  }\n")
		}
		for _, n := range loose {
			writeNode(&buf, "  ", n, opts, pinned, bodies)
		}
	}

	buf.WriteString("\n")
	for _, l := range doc.Links {
		fmt.Fprintf(&buf, "  \"n%d\":\"o%d\" -> \"n%d\":\"i%d\";\n", l.FromNode, l.FromPort, l.ToNode, l.ToPort)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func writeNode(buf *bytes.Buffer, indent string, n graph.Node, opts Options, pinned bool, bodies map[int]graph.Graph) {
	attrs := []string{fmt.Sprintf("label=%q", recordLabel(n, opts.Detailed))}
	if pinned {
		attrs = append(attrs, fmt.Sprintf("pos=\"%.2f,%.2f!\"", n.X/pointsPerInch, n.Y/pointsPerInch))
	}
	if n.Type == host.TypeGroup {
		attrs = append(attrs, "fillcolor=lightyellow")
	}
	fmt.Fprintf(buf, "%sn%d [%s];\n", indent, n.ID, strings.Join(attrs, ", "))

	body, ok := bodies[n.Subgraph]
	if n.Subgraph == 0 || !ok {
		return
	}
	fmt.Fprintf(buf, "%ssubgraph cluster_g%d {\n", indent, body.ID)
	fmt.Fprintf(buf, "%s  label=%q;\n", indent, body.Name)
	for _, m := range body.Nodes {
		writeNode(buf, indent+"  ", m, opts, pinned, bodies)
	}
	fmt.Fprintf(buf, "%s}\n", indent)
}

var recordEscaper = strings.NewReplacer(`{`, `\{`, `}`, `\}`, `|`, `\|`, `<`, `\<`, `>`, `\>`)

func recordLabel(n graph.Node, detailed bool) string {
	title := n.Label
	if title == "" {
		title = n.Type
		if n.Op != "" {
			title = strings.ToLower(n.Op)
		}
	}
	parts := []string{ports("i", n.Inputs, detailed), recordEscaper.Replace(title), ports("o", n.Outputs, detailed)}
	return strings.Join(parts, "|")
}

func ports(prefix string, ps []graph.Port, detailed bool) string {
	var fields []string
	for _, p := range ps {
		if p.Hidden {
			continue
		}
		text := recordEscaper.Replace(p.Name)
		if detailed && len(p.Default) > 0 {
			vals := make([]string, len(p.Default))
			for i, v := range p.Default {
				vals[i] = strconv.FormatFloat(v, 'g', -1, 64)
			}
			text += " = " + strings.Join(vals, ", ")
		}
		fields = append(fields, fmt.Sprintf("<%s%d> %s", prefix, p.Index, text))
	}
	return "{" + strings.Join(fields, "|") + "}"
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string, opts Options) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.Layout(opts.engine()))

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
