package object

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewVariableSplitsScopeAndProperty(t *testing.T) {
	tests := []struct {
		text   string
		global bool
		name   string
		prop   string
	}{
		{"x", false, "x", ""},
		{"gCount", true, "gCount", ""},
		{"win.width", false, "win", "width"},
		{"gWin.height", true, "gWin", "height"},
	}
	for i, tt := range tests {
		v := NewVariable(tt.text)
		if v.IsGlobal() != tt.global {
			t.Fatalf("tests[%d] - global mismatch for %q", i, tt.text)
		}
		if v.VarName() != tt.name || v.VarProperty() != tt.prop {
			t.Fatalf("tests[%d] - got (%q, %q), want (%q, %q)", i, v.VarName(), v.VarProperty(), tt.name, tt.prop)
		}
		if v.Inspect() != tt.text {
			t.Fatalf("tests[%d] - Inspect() = %q", i, v.Inspect())
		}
	}
}

func TestScopeRejectsSignals(t *testing.T) {
	s := NewScope()
	if err := s.Set("x", BREAK); err == nil {
		t.Fatal("expected error storing a break signal")
	}
	if err := s.Set("x", LIST_HEAD); err == nil {
		t.Fatal("expected error storing a list-head signal")
	}
	if s.Has("x") {
		t.Fatal("signal leaked into scope")
	}
}

func TestComplexValuesAreShared(t *testing.T) {
	s := NewScope()
	l := NewList(NewInteger(1))
	_ = s.Set("a", l)
	_ = s.Set("b", l)

	got, _ := s.Get("a")
	got.(*List).Elements = append(got.(*List).Elements, NewInteger(2))

	other, _ := s.Get("b")
	if other.(*List).Len() != 2 {
		t.Fatalf("expected shared list, got %s", other.Inspect())
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		a, b Object
		want bool
	}{
		{NewInteger(3), NewInteger(3), true},
		{NewInteger(3), NewFloat(3), true},
		{NewString("a"), NewString("a"), true},
		{NewString("a"), NewInteger(0), false},
		{NewList(NewInteger(1), NewString("x")), NewList(NewInteger(1), NewString("x")), true},
		{NewList(NewInteger(1)), NewList(NewInteger(1), NewInteger(2)), false},
		{&Color{R: 1, G: 2, B: 3, A: 255}, &Color{R: 1, G: 2, B: 3, A: 255}, true},
		{NewCustomObject("a"), NewCustomObject("a"), false},
	}
	for i, tt := range tests {
		if got := Equal(tt.a, tt.b); got != tt.want {
			t.Fatalf("tests[%d] - Equal(%s, %s) = %v", i, tt.a.Inspect(), tt.b.Inspect(), got)
		}
	}
}

func TestSelfContainingList(t *testing.T) {
	l := NewList(NewInteger(1), NewInteger(2))
	l.Elements[1] = l
	if !Cyclic(l) {
		t.Fatalf("expected %s to be cyclic", l.Inspect())
	}
	if got := l.Inspect(); got != "[1, [...]]" {
		t.Fatalf("Inspect = %q", got)
	}
	if _, err := DeepEqual(l, l); !errors.Is(err, ErrCyclic) {
		t.Fatalf("DeepEqual error = %v, want ErrCyclic", err)
	}
	if Equal(l, l) {
		t.Fatalf("Equal on a cyclic list should be false")
	}

	o := NewCustomObject("node")
	_ = o.SetProperty("next", o)
	if !Cyclic(NewList(o)) || o.Inspect() != "<node next:<node ...>>" {
		t.Fatalf("object cycle not detected: %s", o.Inspect())
	}

	// the same list twice is shared, not cyclic
	inner := NewList(NewInteger(7))
	shared := NewList(inner, inner)
	if Cyclic(shared) || shared.Inspect() != "[[7], [7]]" {
		t.Fatalf("shared list misreported: %s", shared.Inspect())
	}
}

func TestCustomObjectProperties(t *testing.T) {
	o := NewCustomObject("box")
	if err := o.SetProperty("width", NewInteger(10)); err != nil {
		t.Fatalf("SetProperty: %v", err)
	}
	v, ok := o.GetProperty("WIDTH")
	if !ok || !Equal(v, NewInteger(10)) {
		t.Fatalf("expected case-insensitive property lookup, got %v", v)
	}
	if diff := cmp.Diff([]string{"WIDTH"}, o.PropertyNames()); diff != "" {
		t.Fatalf("property names mismatch (-want +got):\n%s", diff)
	}
}

func TestListLengthProperty(t *testing.T) {
	l := NewList(NewInteger(1), NewInteger(2), NewInteger(3))
	v, ok := l.GetProperty("length")
	if !ok || v.Inspect() != "3" {
		t.Fatalf("length = %v", v)
	}
	if err := l.SetProperty("length", NewInteger(1)); err == nil {
		t.Fatal("expected error setting list length")
	}
	if got := l.Inspect(); got != "[1, 2, 3]" {
		t.Fatalf("Inspect() = %q", got)
	}
}
