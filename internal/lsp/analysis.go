package lsp

import (
	"context"
	"strings"

	"pebl/internal/ast"
	"pebl/internal/diag"
	"pebl/internal/object"
	"pebl/internal/parser"
	"pebl/internal/runtime"
	"pebl/internal/validate"
)

type SymbolKind int

const (
	SymFunc SymbolKind = iota
	SymParam
	SymLocal
	SymGlobal
	SymLibrary
	SymKeyword
)

// Occurrence is one spelling of a name in a document. Locals and params
// are tied to the function they appear in; functions and globals are
// document-wide.
type Occurrence struct {
	Name     string
	Kind     SymbolKind
	Pos      Pos
	Decl     bool
	Function string
}

type Analysis struct {
	Program     *ast.Program
	Text        string
	Diagnostics []diag.Diagnostic
	Occurrences []Occurrence
	// Params maps each defined function to its parameter names.
	Params map[string][]string
}

// Analyze parses, loads and lints text. Libraries are the host functions
// loaded next to the standard library.
func Analyze(ctx context.Context, path, text string, libs []runtime.Library) *Analysis {
	res := validate.Source(ctx, path, text, validate.Options{Lint: true, Libraries: libs})
	an := &Analysis{Text: text, Diagnostics: res.Diagnostics, Params: map[string][]string{}}

	// parse errors still leave the definitions that did parse
	prog, _ := parser.ParseSource(path, text)
	an.Program = prog
	lines := splitLines(text)
	for _, fn := range prog.Functions {
		names, _ := runtime.Params(fn.Lambda)
		an.Params[fn.Name] = names
		an.Occurrences = append(an.Occurrences, Occurrence{
			Name:     fn.Name,
			Kind:     SymFunc,
			Pos:      nameAfter(lines, fn.Position, fn.Name),
			Decl:     true,
			Function: fn.Name,
		})
		an.collect(lines, fn.Name, fn.Lambda.Left, true)
		an.collect(lines, fn.Name, fn.Lambda.Right, false)
	}
	return an
}

func (a *Analysis) collect(lines []string, fn string, n ast.Node, params bool) {
	ast.Walk(n, func(n ast.Node) bool {
		leaf, ok := n.(*ast.Leaf)
		if !ok {
			return true
		}
		occ := Occurrence{Pos: Pos{Line: leaf.Line, Col: leaf.Col}, Function: fn}
		switch v := leaf.Value.(type) {
		case *object.FunctionRef:
			occ.Name, occ.Kind = v.Name, SymFunc
			occ.Pos = nameAfter(lines, leaf.Position, v.Name)
		case *object.LocalVar:
			occ.Name, occ.Kind, occ.Decl = v.Name, SymLocal, params
			if params {
				occ.Kind = SymParam
			}
		case *object.GlobalVar:
			occ.Name, occ.Kind = v.Name, SymGlobal
		default:
			return true
		}
		a.Occurrences = append(a.Occurrences, occ)
		return true
	})
}

// nameAfter finds name at or after pos on its line, for nodes positioned
// on "define" or on the ':' of a ":Name(" call.
func nameAfter(lines []string, pos ast.Position, name string) Pos {
	if pos.Line <= 0 || pos.Line > len(lines) || pos.Col <= 0 {
		return Pos{Line: pos.Line, Col: pos.Col}
	}
	line := lines[pos.Line-1]
	from := min(pos.Col-1, len(line))
	if i := strings.Index(line[from:], name); i >= 0 {
		return Pos{Line: pos.Line, Col: from + i + 1}
	}
	return Pos{Line: pos.Line, Col: pos.Col}
}

// At returns the occurrence under p.
func (a *Analysis) At(p Pos) (Occurrence, bool) {
	for _, o := range a.Occurrences {
		if o.Pos.Line == p.Line && p.Col >= o.Pos.Col && p.Col <= o.Pos.Col+len(o.Name) {
			return o, true
		}
	}
	return Occurrence{}, false
}

// Same lists every occurrence that names the same thing as o.
func (a *Analysis) Same(o Occurrence) []Occurrence {
	var out []Occurrence
	for _, x := range a.Occurrences {
		if x.Name != o.Name || sameKind(x.Kind) != sameKind(o.Kind) {
			continue
		}
		if local(o.Kind) && x.Function != o.Function {
			continue
		}
		out = append(out, x)
	}
	return out
}

func local(k SymbolKind) bool { return k == SymLocal || k == SymParam }

func sameKind(k SymbolKind) SymbolKind {
	if k == SymParam {
		return SymLocal
	}
	return k
}
