package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/nodify/pkg/errors"
)

func TestLookup(t *testing.T) {
	r := MustNew()

	tests := []struct {
		name string
		ns   Namespace
		typ  string
		op   string
	}{
		{"output", Functions, "output_material", ""},
		{"combine_xyz", Functions, "combine_xyz", ""},
		{"add", Math, TypeMath, "ADD"},
		{"sin", Math, TypeMath, "SINE"},
		{"dot", VectorMath, TypeVectorMath, "DOT_PRODUCT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := r.Lookup(tt.name)
			if !ok {
				t.Fatalf("Lookup(%q) not found", tt.name)
			}
			if e.Namespace != tt.ns || e.Type != tt.typ || e.Op != tt.op {
				t.Errorf("Lookup(%q) = %s/%s/%s, want %s/%s/%s", tt.name, e.Namespace, e.Type, e.Op, tt.ns, tt.typ, tt.op)
			}
		})
	}

	if _, ok := r.Lookup("nope"); ok {
		t.Error("Lookup(nope) found an entry")
	}
	if _, ok := r.Lookup("value"); ok {
		t.Error("internal entries must not be visible to Lookup")
	}
}

func TestLookupPriority(t *testing.T) {
	r := MustNew()
	err := r.Merge([]byte(`
[[vector_math]]
name = "sin"
op = "SINE"

[[functions]]
name = "floor"
type = "custom_floor"
inputs = [{ name = "In", type = "VALUE", default = [0.0] }]
outputs = [{ name = "Out", type = "VALUE" }]
`))
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if e, _ := r.Lookup("sin"); e.Namespace != Math {
		t.Errorf("sin resolved to %s, want math before vector_math", e.Namespace)
	}
	if e, _ := r.Lookup("floor"); e.Namespace != Functions || e.Type != "custom_floor" {
		t.Errorf("floor resolved to %s/%s, want functions/custom_floor", e.Namespace, e.Type)
	}
	if e, _ := r.Get(VectorMath, "sin"); e == nil {
		t.Error("vector_math sin missing after merge")
	}
}

func TestMathPorts(t *testing.T) {
	r := MustNew()

	sqrt, _ := r.Lookup("sqrt")
	if len(sqrt.Inputs) != 3 {
		t.Fatalf("sqrt inputs = %d, want 3", len(sqrt.Inputs))
	}
	enabled := 0
	for _, p := range sqrt.Inputs {
		if !p.Disabled {
			enabled++
		}
		if len(p.Default) != 1 || p.Default[0] != 0.5 {
			t.Errorf("math input default = %v, want [0.5]", p.Default)
		}
	}
	if enabled != 1 {
		t.Errorf("sqrt enabled inputs = %d, want 1", enabled)
	}

	dot, _ := r.Lookup("dot")
	if !dot.Outputs[0].Disabled || dot.Outputs[1].Disabled {
		t.Errorf("dot outputs = %+v, want only Value enabled", dot.Outputs)
	}
	scale, _ := r.Lookup("scale")
	if scale.Inputs[3].Disabled {
		t.Error("scale input disabled on scale entry")
	}
}

func TestOperator(t *testing.T) {
	r := MustNew()
	want := map[string]string{"+": "ADD", "-": "SUBTRACT", "*": "MULTIPLY", "/": "DIVIDE", "%": "MODULO", "**": "POWER"}
	for tok, op := range want {
		e, err := r.Operator(tok)
		if err != nil {
			t.Errorf("Operator(%q) error = %v", tok, err)
			continue
		}
		if e.Op != op {
			t.Errorf("Operator(%q).Op = %s, want %s", tok, e.Op, op)
		}
	}
	if _, err := r.Operator("^"); !errors.IsSyntax(err) {
		t.Errorf("Operator(^) error = %v, want syntax error", err)
	}
}

func TestReservedAndSink(t *testing.T) {
	r := MustNew()
	if !r.IsReserved("output") || !r.IsReserved("add") {
		t.Error("built-in names must be reserved")
	}
	if r.IsReserved("a") {
		t.Error("plain variable name reported as reserved")
	}
	if !r.IsSinkName("output") || r.IsSinkName("emission") {
		t.Error("IsSinkName mismatch")
	}
	if !r.IsSinkType("output_material") || r.IsSinkType(TypeMath) {
		t.Error("IsSinkType mismatch")
	}
}

func TestInternal(t *testing.T) {
	r := MustNew()
	for _, name := range []string{"value", "group", "group_input", "group_output", "frame"} {
		if e := r.Internal(name); e.Type != name {
			t.Errorf("Internal(%q).Type = %s", name, e.Type)
		}
	}
	spec := r.Internal("value").Spec()
	if len(spec.Outputs) != 1 || spec.Size.X != 140 {
		t.Errorf("value spec = %+v", spec)
	}
}

func TestMergeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		code errors.Code
	}{
		{"bad toml", "[[math]\nname=", errors.ErrCodeInvalidTable},
		{"unknown key", "[[functions]]\nname = \"f\"\ncolour = \"red\"", errors.ErrCodeInvalidTable},
		{"bad name", "[[functions]]\nname = \"1f\"", errors.ErrCodeInvalidTable},
		{"math without op", "[[math]]\nname = \"f\"\narity = 1", errors.ErrCodeInvalidTable},
		{"arity", "[[math]]\nname = \"f\"\nop = \"X\"\narity = 4", errors.ErrCodeInvalidTable},
		{"operator", "[[operators]]\ntoken = \"^\"", errors.ErrCodeInvalidTable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MustNew().Merge([]byte(tt.data))
			if !errors.Is(err, tt.code) {
				t.Errorf("Merge() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tables.toml")
	data := "[[functions]]\nname = \"checker\"\ntype = \"tex_checker\"\noutputs = [{ name = \"Color\", type = \"RGBA\" }]\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if e, ok := r.Lookup("checker"); !ok || e.Label != "checker" {
		t.Errorf("checker = %+v, %v", e, ok)
	}
	if _, ok := r.Lookup("add"); !ok {
		t.Error("built-ins lost after LoadFile")
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("LoadFile(missing) error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestEntriesOrder(t *testing.T) {
	r := MustNew()
	math := r.Entries(Math)
	if len(math) == 0 || math[0].Name != "add" {
		t.Fatalf("first math entry = %v, want add", math)
	}
}
