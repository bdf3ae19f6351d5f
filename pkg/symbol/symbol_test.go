package symbol

import "testing"

func num(v string) *Symbol  { return &Symbol{Token: Number, Value: v} }
func name(v string) *Symbol { return &Symbol{Token: Name, Value: v} }

func TestLinear(t *testing.T) {
	// a = add(1, b)
	call := &Symbol{
		Token:     Call,
		Operand0:  &Symbol{Token: Name, Value: "add", IsFunctionCall: true},
		Operands1: []*Symbol{num("1"), name("b")},
	}
	root := &Symbol{
		Token:     Assign,
		Operand0:  &Symbol{Token: Name, Value: "a", IsLeftHandSide: true},
		Operands1: []*Symbol{call},
	}

	var got []string
	for _, s := range root.Linear() {
		if s.Value != "" {
			got = append(got, s.Value)
		} else {
			got = append(got, string(s.Token))
		}
	}
	want := []string{"=", "a", "(", "add", "1", "b"}
	if len(got) != len(want) {
		t.Fatalf("Linear() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Linear()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if n := root.Count(Assign); n != 1 {
		t.Errorf("Count(=) = %d, want 1", n)
	}
}

func TestString(t *testing.T) {
	one := 1.0
	tests := []struct {
		name string
		sym  *Symbol
		want string
	}{
		{"number", num("2"), "2"},
		{"binary", &Symbol{Token: Add, Operand0: num("1"), Operands1: []*Symbol{name("x")}}, "(+ 1 x)"},
		{"port", &Symbol{Token: Name, Value: "sep", Port: "1"}, "sep[1]"},
		{
			"defaults",
			&Symbol{Token: Default, Operand0: name("v"), Target: TargetInput, Defaults: []DefaultValue{
				{Components: []*float64{&one}},
				{IsList: true, Components: []*float64{nil, &one}},
			}},
			"($ v [1 <_,1>])",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sym.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsBinary(t *testing.T) {
	for _, tok := range []Token{Add, Sub, Mul, Div, Mod, Pow} {
		if !tok.IsBinary() {
			t.Errorf("%q.IsBinary() = false, want true", tok)
		}
	}
	for _, tok := range []Token{Assign, Call, Default, Group, Name, Number, List} {
		if tok.IsBinary() {
			t.Errorf("%q.IsBinary() = true, want false", tok)
		}
	}
}

func TestStringCallAndGroup(t *testing.T) {
	call := &Symbol{
		Token:     Call,
		Operand0:  &Symbol{Token: Name, Value: "add", IsFunctionCall: true},
		Operands1: []*Symbol{num("1"), name("b")},
	}
	if got, want := call.String(), "(call add 1 b)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	group := &Symbol{Token: Group, Operands1: []*Symbol{call}}
	if got, want := group.String(), "(group (call add 1 b))"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
