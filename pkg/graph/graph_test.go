package graph

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/nodify/pkg/errors"
	"github.com/matzehuels/nodify/pkg/host"
	"github.com/matzehuels/nodify/pkg/layout"
	"github.com/matzehuels/nodify/pkg/session"
)

func compileDoc(t *testing.T, src string) *Document {
	t.Helper()
	h := host.NewMemory()
	res, err := session.Compile(context.Background(), h, session.Script(src), session.Options{})
	if err != nil {
		t.Fatal(err)
	}
	arranged, err := res.Arrange(h, layout.Options{AddFrame: true})
	if err != nil {
		t.Fatal(err)
	}
	return FromResult(h, res, arranged)
}

func TestFromResult(t *testing.T) {
	doc := compileDoc(t, "a = 2 + 3\noutput = a")

	// 2, 3, add, output and one frame
	if got := doc.NodeCount(); got != 5 {
		t.Errorf("NodeCount = %d, want 5", got)
	}
	if got := len(doc.Links); got != 3 {
		t.Errorf("links = %d, want 3", got)
	}
	if len(doc.Lines) != 1 || doc.Lines[0].Number != 2 {
		t.Fatalf("lines = %+v, want line 2 only", doc.Lines)
	}
	if doc.Lines[0].Frame == 0 {
		t.Error("line has no frame")
	}
	frame, ok := doc.Node(doc.Lines[0].Frame)
	if !ok || frame.Label != "Line 2" {
		t.Errorf("frame = %+v, want label Line 2", frame)
	}

	cols := doc.Lines[0].Graphs[0].Columns
	if len(cols) != 3 {
		t.Errorf("columns = %v, want 3", cols)
	}
	for _, col := range cols {
		for _, id := range col {
			if n, _ := doc.Node(id); n.Frame != doc.Lines[0].Frame {
				t.Errorf("node %d frame = %d, want %d", id, n.Frame, doc.Lines[0].Frame)
			}
		}
	}
	if diff := cmp.Diff(map[int][]string{2: {"output on LHS is deprecated, use output on RHS with incoming nodes as parameters instead (layout won't be correct)"}}, doc.Warnings); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}
}

func TestFromResultSkipsDisabledPorts(t *testing.T) {
	doc := compileDoc(t, "sqrt(4)")
	for _, g := range doc.Graphs {
		for _, n := range g.Nodes {
			if n.Op == "SQRT" && len(n.Inputs) != 1 {
				t.Errorf("sqrt exports %d inputs, want 1", len(n.Inputs))
			}
		}
	}
}

func TestWriteReadFormats(t *testing.T) {
	doc := compileDoc(t, "x = combine_xyz(1, 2, 3)\nseparate_xyz(x)")

	tests := []struct {
		format string
		read   func(*bytes.Reader) (*Document, error)
	}{
		{FormatJSON, func(r *bytes.Reader) (*Document, error) { return ReadJSON(r) }},
		{FormatYAML, func(r *bytes.Reader) (*Document, error) { return ReadYAML(r) }},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			data, err := Marshal(doc, tt.format)
			if err != nil {
				t.Fatal(err)
			}
			got, err := tt.read(bytes.NewReader(data))
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(doc, got); diff != "" {
				t.Errorf("document changed (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMarshalUnsupportedFormat(t *testing.T) {
	_, err := Marshal(&Document{}, "toml")
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want %s", err, errors.ErrCodeInvalidFormat)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	doc := &Document{SessionID: "s"}

	for _, name := range []string{"out.json", "out.yml"} {
		path := filepath.Join(dir, name)
		if err := WriteFile(doc, path); err != nil {
			t.Fatal(err)
		}
	}
	if got := FormatForPath("A.YAML"); got != FormatYAML {
		t.Errorf("FormatForPath(A.YAML) = %s, want yaml", got)
	}
	if got := FormatForPath("a.txt"); got != FormatJSON {
		t.Errorf("FormatForPath(a.txt) = %s, want json", got)
	}
	data, _ := Marshal(doc, FormatYAML)
	if !strings.Contains(string(data), "session_id: s") {
		t.Errorf("yaml output = %q, want session_id field", data)
	}
}
