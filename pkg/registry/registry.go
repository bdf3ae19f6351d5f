// Package registry resolves DSL identifiers and operator tokens to node
// descriptions.
//
// # Tables
//
// Entries live in four namespaces:
//
//   - [Functions]: named nodes such as emission or combine_xyz
//   - [Math]: scalar math nodes, one operation code each
//   - [VectorMath]: vector math nodes, one operation code each
//   - [Internal]: node kinds the compiler creates itself (value, group, ...)
//
// [Registry.Lookup] searches Functions, then Math, then VectorMath and
// returns the first match, so a function shadows a math entry of the same
// name. Operator tokens (+ - * / % **) map to math entries through the
// operators table.
//
// # Loading
//
// The built-in tables are embedded TOML. [LoadFile] and [Registry.Merge]
// layer user tables on top; a user entry replaces a built-in entry of the
// same namespace and name.
package registry

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/nodify/pkg/errors"
	"github.com/matzehuels/nodify/pkg/host"
)

//go:embed tables.toml
var builtinTables []byte

// Namespace partitions the tables.
type Namespace string

const (
	Functions  Namespace = "functions"
	Math       Namespace = "math"
	VectorMath Namespace = "vector_math"
	Internal   Namespace = "internal"
)

// lookupOrder is the priority used by Lookup.
var lookupOrder = []Namespace{Functions, Math, VectorMath}

// Node types of math-style entries.
const (
	TypeMath       = "math"
	TypeVectorMath = "vector_math"
)

// defaultMathInput is the default of every generated scalar math input.
const defaultMathInput = 0.5

// PortSpec describes a port in a table entry.
type PortSpec struct {
	Name     string    `toml:"name" json:"name"`
	Type     string    `toml:"type" json:"type"`
	Default  []float64 `toml:"default" json:"default,omitempty"`
	Hidden   bool      `toml:"hidden" json:"hidden,omitempty"`
	Disabled bool      `toml:"disabled" json:"disabled,omitempty"`
}

// Entry describes one DSL identifier.
type Entry struct {
	Name         string     `toml:"name" json:"name"`
	Type         string     `toml:"type" json:"type"`
	Op           string     `toml:"op" json:"op,omitempty"`
	Label        string     `toml:"label" json:"label"`
	Arity        int        `toml:"arity" json:"arity,omitempty"`
	ScalarOutput bool       `toml:"scalar_output" json:"scalar_output,omitempty"`
	UsesScale    bool       `toml:"uses_scale" json:"uses_scale,omitempty"`
	Sink         bool       `toml:"sink" json:"sink,omitempty"`
	Size         [2]float64 `toml:"size" json:"size"`
	Inputs       []PortSpec `toml:"inputs" json:"inputs,omitempty"`
	Outputs      []PortSpec `toml:"outputs" json:"outputs,omitempty"`
	Namespace    Namespace  `toml:"-" json:"namespace"`
}

// Spec converts the entry into a host node spec.
func (e *Entry) Spec() host.NodeSpec {
	return host.NodeSpec{
		Type:    e.Type,
		Op:      e.Op,
		Label:   e.Label,
		Inputs:  hostPorts(e.Inputs),
		Outputs: hostPorts(e.Outputs),
		Size:    host.Vec{X: e.Size[0], Y: e.Size[1]},
	}
}

func hostPorts(specs []PortSpec) []host.PortSpec {
	out := make([]host.PortSpec, len(specs))
	for i, s := range specs {
		out[i] = host.PortSpec{
			Name:     s.Name,
			Type:     s.Type,
			Default:  slices.Clone(s.Default),
			Hidden:   s.Hidden,
			Disabled: s.Disabled,
		}
	}
	return out
}

// Operator maps an operator token to a math entry name.
type Operator struct {
	Token    string `toml:"token"`
	Function string `toml:"function"`
}

type tables struct {
	Functions  []Entry    `toml:"functions"`
	Math       []Entry    `toml:"math"`
	VectorMath []Entry    `toml:"vector_math"`
	Internal   []Entry    `toml:"internal"`
	Operators  []Operator `toml:"operators"`
}

// Registry holds the operator and function tables. A Registry is read-only
// after loading and safe for concurrent lookups.
type Registry struct {
	entries   map[Namespace]map[string]*Entry
	order     map[Namespace][]string
	operators map[string]string
}

var builtin = sync.OnceValues(func() (*tables, error) {
	return decode(builtinTables)
})

// New returns a registry holding the built-in tables.
func New() (*Registry, error) {
	t, err := builtin()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "built-in tables")
	}
	r := &Registry{
		entries:   make(map[Namespace]map[string]*Entry),
		order:     make(map[Namespace][]string),
		operators: make(map[string]string),
	}
	r.apply(t)
	return r, nil
}

// MustNew is like New but panics on error.
func MustNew() *Registry {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// LoadFile returns the built-in registry with the tables in path merged on top.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "function table %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read function table %s", path)
	}
	r, err := New()
	if err != nil {
		return nil, err
	}
	if err := r.Merge(data); err != nil {
		return nil, err
	}
	return r, nil
}

// Merge decodes TOML tables and layers them over the current entries.
func (r *Registry) Merge(data []byte) error {
	t, err := decode(data)
	if err != nil {
		return err
	}
	r.apply(t)
	return nil
}

func decode(data []byte) (*tables, error) {
	var t tables
	md, err := toml.Decode(string(data), &t)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTable, err, "decode function tables")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidTable, "unknown table key %q", undecoded[0].String())
	}
	sets := []struct {
		ns      Namespace
		entries []Entry
	}{
		{Functions, t.Functions},
		{Math, t.Math},
		{VectorMath, t.VectorMath},
		{Internal, t.Internal},
	}
	for _, s := range sets {
		for i := range s.entries {
			e := &s.entries[i]
			if err := errors.ValidateIdentifier(e.Name); err != nil {
				return nil, err
			}
			if err := normalize(s.ns, e); err != nil {
				return nil, err
			}
		}
	}
	for _, op := range t.Operators {
		if op.Token == "" || op.Function == "" {
			return nil, errors.New(errors.ErrCodeInvalidTable, "operator entries need a token and a function")
		}
	}
	return &t, nil
}

// normalize fills in generated ports, types and labels.
func normalize(ns Namespace, e *Entry) error {
	e.Namespace = ns
	if e.Label == "" {
		e.Label = e.Name
	}
	switch ns {
	case Math:
		if e.Type == "" {
			e.Type = TypeMath
		}
		if e.Op == "" {
			return errors.New(errors.ErrCodeInvalidTable, "math entry %q has no op", e.Name)
		}
		if e.Inputs == nil {
			e.Inputs = mathInputs(e.Arity)
		}
		if e.Outputs == nil {
			e.Outputs = []PortSpec{{Name: "Value", Type: "VALUE", Default: []float64{0}}}
		}
		if e.Size == [2]float64{} {
			e.Size = [2]float64{140, 146}
		}
	case VectorMath:
		if e.Type == "" {
			e.Type = TypeVectorMath
		}
		if e.Op == "" {
			return errors.New(errors.ErrCodeInvalidTable, "vector math entry %q has no op", e.Name)
		}
		if e.Inputs == nil {
			e.Inputs = vectorInputs(e.Arity, e.UsesScale)
		}
		if e.Outputs == nil {
			e.Outputs = []PortSpec{
				{Name: "Vector", Type: "VECTOR", Disabled: e.ScalarOutput},
				{Name: "Value", Type: "VALUE", Disabled: !e.ScalarOutput},
			}
		}
		if e.Size == [2]float64{} {
			e.Size = [2]float64{140, 146}
		}
	default:
		if e.Type == "" {
			e.Type = e.Name
		}
	}
	if e.Arity < 0 || e.Arity > 3 {
		return errors.New(errors.ErrCodeInvalidTable, "entry %q: arity must be between 0 and 3", e.Name)
	}
	return nil
}

func mathInputs(arity int) []PortSpec {
	names := []string{"Value", "Value_001", "Value_002"}
	ports := make([]PortSpec, len(names))
	for i, n := range names {
		ports[i] = PortSpec{Name: n, Type: "VALUE", Default: []float64{defaultMathInput}, Disabled: i >= arity}
	}
	return ports
}

func vectorInputs(arity int, scale bool) []PortSpec {
	names := []string{"Vector", "Vector_001", "Vector_002"}
	ports := make([]PortSpec, 0, len(names)+1)
	for i, n := range names {
		ports = append(ports, PortSpec{Name: n, Type: "VECTOR", Default: []float64{0, 0, 0}, Disabled: i >= arity})
	}
	return append(ports, PortSpec{Name: "Scale", Type: "VALUE", Default: []float64{1}, Disabled: !scale})
}

func (r *Registry) apply(t *tables) {
	sets := []struct {
		ns      Namespace
		entries []Entry
	}{
		{Functions, t.Functions},
		{Math, t.Math},
		{VectorMath, t.VectorMath},
		{Internal, t.Internal},
	}
	for _, s := range sets {
		m := r.entries[s.ns]
		if m == nil {
			m = make(map[string]*Entry)
			r.entries[s.ns] = m
		}
		for i := range s.entries {
			e := s.entries[i]
			if _, exists := m[e.Name]; !exists {
				r.order[s.ns] = append(r.order[s.ns], e.Name)
			}
			m[e.Name] = &e
		}
	}
	for _, op := range t.Operators {
		r.operators[op.Token] = op.Function
	}
}

// Lookup resolves a DSL name against Functions, Math and VectorMath, in
// that order.
func (r *Registry) Lookup(name string) (*Entry, bool) {
	for _, ns := range lookupOrder {
		if e, ok := r.entries[ns][name]; ok {
			return e, true
		}
	}
	return nil, false
}

// Get returns the entry with the given name in a single namespace.
func (r *Registry) Get(ns Namespace, name string) (*Entry, bool) {
	e, ok := r.entries[ns][name]
	return e, ok
}

// Internal returns the entry for a node kind the compiler creates itself.
// It panics if the built-in tables lack the entry.
func (r *Registry) Internal(name string) *Entry {
	e, ok := r.entries[Internal][name]
	if !ok {
		panic(fmt.Sprintf("registry: missing internal entry %q", name))
	}
	return e
}

// Operator returns the math entry an operator token maps to.
func (r *Registry) Operator(token string) (*Entry, error) {
	name, ok := r.operators[token]
	if !ok {
		return nil, errors.Syntax("unsupported operator %q", token)
	}
	e, ok := r.entries[Math][name]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownFunction, "operator %q maps to unknown math function %q", token, name)
	}
	return e, nil
}

// IsReserved reports whether name refers to a built-in node and therefore
// cannot be used as a variable.
func (r *Registry) IsReserved(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// IsSinkName reports whether name resolves to a sink entry.
func (r *Registry) IsSinkName(name string) bool {
	e, ok := r.Lookup(name)
	return ok && e.Sink
}

// IsSinkType reports whether a node type belongs to a sink entry.
func (r *Registry) IsSinkType(typ string) bool {
	for _, ns := range lookupOrder {
		for _, e := range r.entries[ns] {
			if e.Sink && e.Type == typ {
				return true
			}
		}
	}
	return false
}

// Entries returns the entries of a namespace in table order.
func (r *Registry) Entries(ns Namespace) []*Entry {
	names := r.order[ns]
	out := make([]*Entry, 0, len(names))
	for _, n := range names {
		out = append(out, r.entries[ns][n])
	}
	return out
}

// Namespaces returns the namespaces searched by Lookup, in priority order.
func Namespaces() []Namespace { return slices.Clone(lookupOrder) }
