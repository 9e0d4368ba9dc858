// Package validate checks many scripts in one process. Every file gets its
// own runtime in validator mode, so a fatal error in one script is reported
// and the rest still run.
package validate

import (
	"context"
	"errors"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"

	"pebl/internal/diag"
	"pebl/internal/eventloop"
	"pebl/internal/limits"
	"pebl/internal/lint"
	"pebl/internal/object"
	"pebl/internal/parser"
	"pebl/internal/runtime"
	"pebl/internal/stdlib"
	"pebl/internal/vm"
)

type Options struct {
	// Limit bounds how many files are checked at once. Zero or less means
	// no bound.
	Limit int

	Lint bool

	// Run executes Start on the iterative evaluator with no input devices.
	// MaxSteps caps the run, DefaultMaxSteps when unset; a script still
	// running at the cap passes.
	Run      bool
	MaxSteps int64

	// Libraries are loaded next to the standard library, for hosts such
	// as the window that add their own functions.
	Libraries []runtime.Library
}

const DefaultMaxSteps = 1_000_000

type Result struct {
	Path        string
	Diagnostics []diag.Diagnostic
	// Fatal is the runtime error that stopped the script, if any.
	Fatal *runtime.FatalError
}

func (r Result) HasErrors() bool {
	if r.Fatal != nil {
		return true
	}
	for _, d := range r.Diagnostics {
		if d.Severity == diag.SeverityError {
			return true
		}
	}
	return false
}

// Files checks paths concurrently. Results are in path order. The error is
// only for I/O failures and cancellation; script problems go in Result.
func Files(ctx context.Context, paths []string, opts Options) ([]Result, error) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	results := make([]Result, len(sorted))

	g, ctx := errgroup.WithContext(ctx)
	if opts.Limit > 0 {
		g.SetLimit(opts.Limit)
	}
	for i, path := range sorted {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			results[i] = Source(ctx, path, string(src), opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Source checks one script held in memory.
func Source(ctx context.Context, path, src string, opts Options) Result {
	res := Result{Path: path}
	prog, diags := parser.ParseSource(path, src)
	res.Diagnostics = append(res.Diagnostics, diags...)
	if len(diags) > 0 {
		return res
	}

	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	rt := runtime.NewValidator()
	rt.MaxSteps = opts.MaxSteps
	loop := eventloop.New(rt, nil, nil)
	loop.Idle = nil
	if err := stdlib.Install(rt, loop); err != nil {
		res.Diagnostics = append(res.Diagnostics, loadError(err))
		return res
	}
	if err := rt.LoadLibrary(opts.Libraries); err != nil {
		res.Diagnostics = append(res.Diagnostics, loadError(err))
		return res
	}
	if err := rt.LoadProgram(prog); err != nil {
		res.Diagnostics = append(res.Diagnostics, loadError(err))
		return res
	}
	if !rt.Functions.Has("Start") {
		res.Diagnostics = append(res.Diagnostics, diag.Diagnostic{
			Code:     diag.CodeLoad,
			Message:  "no Start function defined",
			Severity: diag.SeverityError,
			Range:    diag.Range{Line: 1, Col: 1, Length: 1},
		})
		return res
	}

	if opts.Lint {
		res.Diagnostics = append(res.Diagnostics, lint.RunWithOptions(prog, lint.Options{
			Known:      rt.Functions.Has,
			CheckArity: true,
		})...)
	}

	if opts.Run {
		m := vm.New(rt)
		err := m.Start(object.NewList())
		if err == nil {
			err = m.RunContext(ctx)
		}
		var fe *runtime.FatalError
		if errors.As(err, &fe) && !isStepLimit(fe, opts.MaxSteps) {
			res.Fatal = fe
			res.Diagnostics = append(res.Diagnostics, fe.Diagnostic())
		}
	}
	return res
}

func isStepLimit(fe *runtime.FatalError, max int64) bool {
	return max > 0 && fe.Message == limits.MaxStepsMessage(max)
}

func loadError(err error) diag.Diagnostic {
	d := diag.Diagnostic{
		Code:     diag.CodeLoad,
		Message:  err.Error(),
		Severity: diag.SeverityError,
		Range:    diag.Range{Line: 1, Col: 1, Length: 1},
	}
	var le *runtime.LoadError
	if errors.As(err, &le) {
		d.Message = le.Err.Error()
		d.Range.Line, d.Range.Col = le.Pos.Line, le.Pos.Col
		d.Range.Length = len("define")
	}
	return d
}
