package lint

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"pebl/internal/parser"
)

type finding struct {
	Code string
	Line int
	Msg  string
}

func lintSource(t *testing.T, src string, opts Options) []finding {
	t.Helper()
	prog, diags := parser.ParseSource("lint.pbl", src)
	if len(diags) > 0 {
		t.Fatalf("parse errors: %v", diags)
	}
	var out []finding
	for _, d := range RunWithOptions(prog, opts) {
		out = append(out, finding{Code: d.Code, Line: d.Range.Line, Msg: d.Message})
	}
	return out
}

func TestRules(t *testing.T) {
	src := `define Start(p)
{
  unused <- 1
  total <- Helper(1)
  Helper(1, 2, 3)
  Missing()
  while (total < 3) {
    break
    total <- 2
  }
  return total + ghost
}

define Helper(a, b:2)
{
  return a
}
`
	known := func(name string) bool { return name == "Print" }
	got := lintSource(t, src, Options{Known: known, CheckArity: true})
	want := []finding{
		{"PL0001", 3, "unused variable: unused"},
		{"PL0006", 5, "too many arguments to Helper: want at most 2, got 3"},
		{"PL0005", 6, "call to undefined function Missing"},
		{"PL0003", 9, "unreachable code"},
		{"PL0004", 11, "variable ghost is read but never assigned in Start"},
		{"PL0002", 14, "unused parameter: b"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("diagnostics mismatch (-want +got):\n%s", diff)
	}
}

func TestCleanProgram(t *testing.T) {
	src := `define Start(p)
{
  gCount <- 0
  loop(i, [1, 2, 3]) {
    if (i == 2) {
      break
    }
    gCount <- gCount + i
  }
  while (gCount < 10) {
    gCount <- gCount + 1
  }
  return Print(gCount)
}
`
	got := lintSource(t, src, Options{Known: func(string) bool { return true }, CheckArity: true})
	if len(got) != 0 {
		t.Fatalf("expected no diagnostics, got %v", got)
	}
}

func TestUnknownCallsNeedKnown(t *testing.T) {
	got := lintSource(t, "define Start(p)\n{\n  Anything()\n}\n", DefaultOptions())
	if len(got) != 0 {
		t.Fatalf("expected no diagnostics without Known, got %v", got)
	}
}
