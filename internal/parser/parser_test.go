package parser

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"pebl/internal/ast"
	"pebl/internal/lexer"
)

func parseOK(t *testing.T, input string) *ast.Program {
	t.Helper()
	p := NewWithFile(lexer.New(input), "test.pbl")
	prog := p.ParseProgram()
	if len(p.Errors()) > 0 {
		for _, e := range p.Errors() {
			t.Error(e)
		}
		t.Fatalf("parser had %d errors", len(p.Errors()))
	}
	return prog
}

func bodyOf(t *testing.T, body string) string {
	t.Helper()
	prog := parseOK(t, "define Start(p)\n{\n"+body+"\n}\n")
	fn := prog.Function("Start")
	if fn == nil {
		t.Fatalf("Start not defined")
	}
	return fn.Lambda.Right.String()
}

func TestParseStatementShapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"precedence", "x <- 1 + 2 * 3",
			"(STATEMENTS (ASSIGN x (ADD 1 (MULTIPLY 2 3))) (RETURN 1 _))"},
		{"left assoc", "x <- 1 - 2 - 3",
			"(STATEMENTS (ASSIGN x (SUBTRACT (SUBTRACT 1 2) 3)) (RETURN 1 _))"},
		{"power right assoc", "x <- 2 ^ 3 ^ 2",
			"(STATEMENTS (ASSIGN x (POWER 2 (POWER 3 2))) (RETURN 1 _))"},
		{"grouping", "x <- (1 + 2) * 3",
			"(STATEMENTS (ASSIGN x (MULTIPLY (ADD 1 2) 3)) (RETURN 1 _))"},
		{"negative literal", "x <- -5",
			"(STATEMENTS (ASSIGN x -5) (RETURN 1 _))"},
		{"negative float", "x <- -1.5",
			"(STATEMENTS (ASSIGN x -1.5) (RETURN 1 _))"},
		{"negated variable", "x <- -y",
			"(STATEMENTS (ASSIGN x (SUBTRACT 0 y)) (RETURN 1 _))"},
		{"logic", "x <- a < b and not c",
			"(STATEMENTS (ASSIGN x (AND (LT a b) (NOT c _))) (RETURN 1 _))"},
		{"or binds looser than and", "x <- a or b and c",
			"(STATEMENTS (ASSIGN x (OR a (AND b c))) (RETURN 1 _))"},
		{"statements nest left", "a <- 1\nb <- 2\nc <- 3",
			"(STATEMENTS (STATEMENTS (STATEMENTS (ASSIGN a 1) (ASSIGN b 2)) (ASSIGN c 3)) (RETURN 1 _))"},
		{"semicolons separate", "a <- 1; b <- 2",
			"(STATEMENTS (STATEMENTS (ASSIGN a 1) (ASSIGN b 2)) (RETURN 1 _))"},
		{"explicit return", "return [1, \"s\"]",
			"(RETURN (LISTHEAD (LISTITEM 1 (LISTITEM \"s\" _)) _) _)"},
		{"empty list", "return []",
			"(RETURN (LISTHEAD _ _) _)"},
		{"call", "Print(x, y)",
			"(STATEMENTS (FUNCTION Print (ARGLIST (LISTITEM x (LISTITEM y _)) _)) (RETURN 1 _))"},
		{"call without args", "Foo()",
			"(STATEMENTS (FUNCTION Foo (ARGLIST _ _)) (RETURN 1 _))"},
		{"colon call", ":Print(1)",
			"(STATEMENTS (FUNCTION Print (ARGLIST (LISTITEM 1 _) _)) (RETURN 1 _))"},
		{"multiline args", "Print(1,\n  2)",
			"(STATEMENTS (FUNCTION Print (ARGLIST (LISTITEM 1 (LISTITEM 2 _)) _)) (RETURN 1 _))"},
		{"property assign", "gWin.width <- 10",
			"(STATEMENTS (ASSIGN gWin.width 10) (RETURN 1 _))"},
		{"if", "if (x > 1) {\n  y <- 1\n}",
			"(STATEMENTS (IF (GT x 1) (ASSIGN y 1)) (RETURN 1 _))"},
		{"if elseif else", "if (x > 1) {\n  y <- 1\n} elseif (x > 0) {\n  y <- 2\n} else {\n  y <- 3\n}",
			"(STATEMENTS (IFELSE (GT x 1) (ELSE (ASSIGN y 1) (IFELSE (GT x 0) (ELSE (ASSIGN y 2) (ASSIGN y 3))))) (RETURN 1 _))"},
		{"else on next line", "if (x) {\n}\nelse {\n  y <- 1\n}",
			"(STATEMENTS (IFELSE x (ELSE 0 (ASSIGN y 1))) (RETURN 1 _))"},
		{"while break", "while (1) {\n  break\n}",
			"(STATEMENTS (WHILE 1 (BREAK _ _)) (RETURN 1 _))"},
		{"loop", "loop(item, items) {\n  Print(item)\n}",
			"(STATEMENTS (LOOP (VARIABLEDATUM item items) (FUNCTION Print (ARGLIST (LISTITEM item _) _))) (RETURN 1 _))"},
		{"brace on next line", "while (x)\n{\n  x <- x - 1\n}",
			"(STATEMENTS (WHILE x (ASSIGN x (SUBTRACT x 1))) (RETURN 1 _))"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bodyOf(t, tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseParameters(t *testing.T) {
	prog := parseOK(t, `define F(a, b:5, c:-1.5, d:"s", e:gX) {}`)
	got := prog.Function("F").Lambda.String()
	want := `(LAMBDAFUNCTION (VARLIST a (VARLIST (VARPAIR b 5) (VARLIST (VARPAIR c -1.5) (VARLIST (VARPAIR d "s") (VARLIST (VARPAIR e gX) _))))) (STATEMENTS 0 (RETURN 1 _)))`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("lambda mismatch (-want +got):\n%s", diff)
	}
}

func TestParseNoParameters(t *testing.T) {
	prog := parseOK(t, "define Start() {\n  return 2\n}")
	got := prog.Function("Start").Lambda.String()
	if got != "(LAMBDAFUNCTION _ (RETURN 2 _))" {
		t.Fatalf("got %s", got)
	}
}

func TestParseMultipleFunctions(t *testing.T) {
	input := `# experiment
define Start(p)
{
  Helper(1)
}

define Helper(x) {
  return x * 2
}
`
	prog := parseOK(t, input)
	var names []string
	for _, fn := range prog.Functions {
		names = append(names, fn.Name)
	}
	if diff := cmp.Diff([]string{"Start", "Helper"}, names); diff != "" {
		t.Fatalf("functions (-want +got):\n%s", diff)
	}
	if got := prog.Function("Helper").Position; got.Line != 7 || got.File != "test.pbl" {
		t.Fatalf("Helper position = %+v", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"return not last", "define Start() {\n  return 1\n  x <- 2\n}", "return must be the last statement"},
		{"return in block", "define Start() {\n  if (1) {\n    return 2\n  }\n}", "return must be the last statement"},
		{"break outside loop", "define Start() {\n  break\n}", "break outside of while or loop"},
		{"top-level statement", "x <- 1", "expected function definition"},
		{"missing expression", "define Start() {\n  x <-\n}", "unexpected end of line in expression"},
		{"duplicate", "define F() {}\ndefine F() {}", "defined more than once"},
		{"bad default", "define F(a:[1]) {}", "default value must be"},
		{"global parameter", "define F(gA) {}", "parameter names must be local variables"},
		{"default expression", "define F(a:b+1) {}", "expected next token to be )"},
		{"junk after statement", "define Start() {\n  x <- 1 y\n}", "expected end of statement"},
		{"unterminated body", "define Start() {\n  x <- 1\n", "unexpected end of file"},
		{"function name without call", "define Start() {\n  x <- Foo\n}", "expected next token to be ("},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(lexer.New(tt.input))
			p.ParseProgram()
			if len(p.Errors()) == 0 {
				t.Fatalf("expected errors, got none")
			}
			found := false
			for _, e := range p.Errors() {
				if strings.Contains(e, tt.want) {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected error containing %q, got %v", tt.want, p.Errors())
			}
		})
	}
}

func TestParseDiagnostics(t *testing.T) {
	_, diags := ParseSource("bad.pbl", "define Start() {\n  break\n}")
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}
	d := diags[0]
	if d.Code != "PB0001" || d.Range.Line != 2 || d.Range.Col != 3 {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
}
