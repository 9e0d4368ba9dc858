// Package spectest runs scripts end to end on both evaluators and checks
// what they print and how they fail.
package spectest

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"pebl/internal/diag"
	"pebl/internal/evaluator"
	"pebl/internal/eventloop"
	"pebl/internal/object"
	"pebl/internal/parser"
	"pebl/internal/runtime"
	"pebl/internal/stdlib"
	"pebl/internal/vm"
)

type Mode string

const (
	ModeRecursive Mode = "recursive"
	ModeIterative Mode = "iterative"
)

type Options struct {
	Mode     Mode
	MaxSteps int64
	MaxDepth int
}

type Expectation struct {
	Stdout      string
	ErrCode     string
	ErrContains string
}

type Result struct {
	Stdout  string
	ErrCode string
	ErrMsg  string
}

// RunSource runs src's Start with an empty parameter list on a runtime of
// its own. Fatal errors come back in the Result, never as a panic or exit.
func RunSource(path, src string, opts Options) Result {
	var res Result
	prog, diags := parser.ParseSource(path, src)
	if len(diags) > 0 {
		res.ErrCode = diags[0].Code
		res.ErrMsg = diags[0].Message
		return res
	}

	var out bytes.Buffer
	rt := runtime.NewValidator()
	rt.Out = &out
	rt.MaxSteps = opts.MaxSteps
	if opts.MaxDepth > 0 {
		rt.MaxDepth = opts.MaxDepth
	}
	loop := eventloop.New(rt, nil, nil)
	loop.Idle = nil
	if err := stdlib.Install(rt, loop); err != nil {
		res.ErrCode, res.ErrMsg = diag.CodeLoad, err.Error()
		return res
	}
	if err := rt.LoadProgram(prog); err != nil {
		res.ErrCode, res.ErrMsg = diag.CodeLoad, err.Error()
		return res
	}

	var err error
	switch opts.Mode {
	case ModeRecursive:
		_, err = evaluator.New(rt).Start(object.NewList())
	case ModeIterative, "":
		m := vm.New(rt)
		if err = m.Start(object.NewList()); err == nil {
			err = m.Run()
		}
	default:
		err = fmt.Errorf("unknown mode: %q", opts.Mode)
	}

	res.Stdout = out.String()
	if err != nil {
		var fe *runtime.FatalError
		if errors.As(err, &fe) {
			d := fe.Diagnostic()
			res.ErrCode, res.ErrMsg = d.Code, fe.Message
		} else {
			res.ErrMsg = err.Error()
		}
	}
	return res
}

func Run(t *testing.T, src string, opts Options) Result {
	t.Helper()
	return RunSource("main.pbl", src, opts)
}

func Assert(t *testing.T, res Result, exp Expectation) {
	t.Helper()

	ok, reason, err := MatchStdout(res.Stdout, StdoutExpectation{
		Mode:  StdoutExact,
		Value: exp.Stdout,
	}, "")
	if err != nil {
		t.Fatalf("stdout check failed: %v", err)
	}
	if !ok {
		t.Fatal(reason)
	}

	wantErr := exp.ErrCode != "" || exp.ErrContains != ""
	gotErr := res.ErrCode != "" || res.ErrMsg != ""

	if wantErr && !gotErr {
		t.Fatalf("expected error %q/%q, got none", exp.ErrCode, exp.ErrContains)
	}
	if !wantErr && gotErr {
		t.Fatalf("unexpected error: code=%q msg=%q", res.ErrCode, res.ErrMsg)
	}

	if exp.ErrCode != "" && res.ErrCode != exp.ErrCode {
		t.Fatalf("error code mismatch: expected %q, got %q", exp.ErrCode, res.ErrCode)
	}
	if exp.ErrContains != "" && !strings.Contains(res.ErrMsg, exp.ErrContains) {
		t.Fatalf("error message mismatch: expected to contain %q, got %q", exp.ErrContains, res.ErrMsg)
	}
}

func ExpectBoth(exp Expectation) map[Mode]Expectation {
	return map[Mode]Expectation{
		ModeRecursive: exp,
		ModeIterative: exp,
	}
}

func Expect(mode Mode, exp Expectation) map[Mode]Expectation {
	return map[Mode]Expectation{mode: exp}
}

func FormatError(code, msg string) string {
	if code == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", code, msg)
}
