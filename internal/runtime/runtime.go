package runtime

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"pebl/internal/limits"
	"pebl/internal/object"
	"pebl/internal/semantics"
)

// Policy decides what a fatal error does once it has been reported.
type Policy int

const (
	// PolicyExit reports the error and calls Exit(1).
	PolicyExit Policy = iota
	// PolicyReturn hands the *FatalError back to the caller. Validators use
	// it to check many programs in one process.
	PolicyReturn
)

func (p Policy) String() string {
	if p == PolicyReturn {
		return "return"
	}
	return "exit"
}

// Engine is the evaluator currently running interpreted code. Library
// functions that call back into the program (CallFunction, the event loop)
// go through it.
type Engine interface {
	Call(name string, args *object.List) (object.Object, error)
}

// Runtime is everything one running program shares: the global variables,
// the function table and the diagnostic call stack. Nothing here is
// package-level, so independent runtimes can live side by side.
type Runtime struct {
	Globals   *object.Scope
	Functions *FunctionTable
	CallStack *CallStack

	Policy Policy
	Exit   func(code int)

	Log zerolog.Logger
	Out io.Writer
	Err io.Writer

	MaxDepth int
	MaxSteps int64

	// Clock returns milliseconds since the runtime started.
	Clock func() int64

	engine Engine
}

func New() *Runtime {
	start := time.Now()
	return &Runtime{
		Globals:   object.NewScope(),
		Functions: NewFunctionTable(),
		CallStack: &CallStack{},
		Policy:    PolicyExit,
		Exit:      os.Exit,
		Log:       zerolog.Nop(),
		Out:       os.Stdout,
		Err:       os.Stderr,
		MaxDepth:  limits.DefaultMaxStackDepth,
		Clock: func() int64 {
			return time.Since(start).Milliseconds()
		},
	}
}

// NewValidator returns a runtime whose fatal errors are returned instead of
// ending the process, with library output discarded.
func NewValidator() *Runtime {
	rt := New()
	rt.Policy = PolicyReturn
	rt.Out = io.Discard
	rt.Err = io.Discard
	return rt
}

// Close clears the globals and the call stack. The function table stays
// loaded.
func (rt *Runtime) Close() {
	rt.Globals.Clear()
	rt.CallStack.Reset()
	rt.engine = nil
}

func (rt *Runtime) Engine() Engine { return rt.engine }

// Enter makes e the active engine until the returned func is called.
func (rt *Runtime) Enter(e Engine) (restore func()) {
	prev := rt.engine
	rt.engine = e
	return func() { rt.engine = prev }
}

// Call runs name through the active engine.
func (rt *Runtime) Call(name string, args *object.List) (object.Object, error) {
	if rt.engine == nil {
		return nil, rt.Fatal(nil, "No evaluator is running to call function ["+name+"]")
	}
	return rt.engine.Call(name, args)
}

// KeepLooping reads gKeepLooping, the flag the event loop runs on.
func (rt *Runtime) KeepLooping() bool {
	v, ok := rt.Globals.Get(KeepLoopingVar)
	if !ok {
		return false
	}
	return semantics.ToBool(v)
}

func (rt *Runtime) SetKeepLooping(on bool) {
	_ = rt.Globals.Set(KeepLoopingVar, object.NewBool(on))
}

const KeepLoopingVar = "gKeepLooping"
