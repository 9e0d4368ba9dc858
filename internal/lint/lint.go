package lint

import (
	"sort"

	"pebl/internal/ast"
	"pebl/internal/diag"
)

type Options struct {
	// Known reports whether a name outside the program is callable, such
	// as a library function. When nil, calls to unknown names are not
	// checked.
	Known func(name string) bool

	CheckArity bool
}

func DefaultOptions() Options {
	return Options{CheckArity: true}
}

type Linter struct {
	opts Options
}

func New() *Linter {
	return &Linter{opts: DefaultOptions()}
}

func NewWithOptions(opts Options) *Linter {
	return &Linter{opts: opts}
}

func Run(program *ast.Program) []diag.Diagnostic {
	return New().Run(program)
}

func RunWithOptions(program *ast.Program, opts Options) []diag.Diagnostic {
	return NewWithOptions(opts).Run(program)
}

// Run checks every function in program. Diagnostics come back in source
// order.
func (l *Linter) Run(program *ast.Program) []diag.Diagnostic {
	if program == nil {
		return nil
	}
	r := &Runner{opts: l.opts, defs: map[string]arity{}}
	for _, fn := range program.Functions {
		r.defs[fn.Name] = arityOf(fn.Lambda)
	}
	for _, fn := range program.Functions {
		r.walkFunction(fn)
	}
	sort.SliceStable(r.diags, func(i, j int) bool {
		a, b := r.diags[i].Range, r.diags[j].Range
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Col < b.Col
	})
	return r.diags
}
