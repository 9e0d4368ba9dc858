package ast

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"pebl/internal/object"
)

func TestOpNodeString(t *testing.T) {
	pos := Position{File: "t.pbl", Line: 1}
	n := NewOp(ASSIGN,
		NewLeaf(object.NewVariable("x"), pos),
		NewOp(ADD, NewLeaf(object.NewInteger(1), pos), NewLeaf(object.NewString("a"), pos), pos),
		pos)
	if got, want := n.String(), `(ASSIGN x (ADD 1 "a"))`; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	if got := NewOp(BREAK, nil, nil, pos).String(); got != "(BREAK _ _)" {
		t.Fatalf("String() = %q", got)
	}
}

func TestItemsFlattensChains(t *testing.T) {
	pos := Position{}
	a := NewLeaf(object.NewInteger(1), pos)
	b := NewLeaf(object.NewInteger(2), pos)
	chain := NewOp(LISTITEM, a, NewOp(LISTITEM, b, nil, pos), pos)
	got := Items(chain)
	if diff := cmp.Diff([]string{"1", "2"}, []string{got[0].String(), got[1].String()}); diff != "" || len(got) != 2 {
		t.Fatalf("Items mismatch (-want +got):\n%s", diff)
	}
	if Items(nil) != nil {
		t.Fatal("expected nil for empty chain")
	}
}

func TestWalkOrder(t *testing.T) {
	pos := Position{}
	n := NewOp(SUBTRACT, NewLeaf(object.NewInteger(1), pos), NewLeaf(object.NewInteger(2), pos), pos)
	var seen []string
	Walk(n, func(x Node) bool {
		seen = append(seen, x.String())
		return true
	})
	if diff := cmp.Diff([]string{"(SUBTRACT 1 2)", "1", "2"}, seen); diff != "" {
		t.Fatalf("walk order mismatch (-want +got):\n%s", diff)
	}
}

func TestOpcodeSymbols(t *testing.T) {
	if !ADD.IsBinary() || ADD.Symbol() != "+" || NE.Symbol() != "<>" {
		t.Fatal("unexpected binary symbols")
	}
	if AND.IsBinary() || STATEMENTS.IsBinary() {
		t.Fatal("AND and STATEMENTS are not plain binary operators")
	}
	if LAMBDAFUNCTION.String() != "LAMBDAFUNCTION" {
		t.Fatalf("String() = %q", LAMBDAFUNCTION.String())
	}
}
