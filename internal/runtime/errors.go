package runtime

import (
	"fmt"
	"strings"

	"pebl/internal/ast"
	"pebl/internal/diag"
)

// CallStack records lambda call sites for error traces only. It never
// influences evaluation.
type CallStack struct {
	entries []CallEntry
}

type CallEntry struct {
	Function string
	Site     ast.Node
}

func (cs *CallStack) Push(function string, site ast.Node) {
	cs.entries = append(cs.entries, CallEntry{Function: function, Site: site})
}

func (cs *CallStack) Pop() {
	if len(cs.entries) > 0 {
		cs.entries = cs.entries[:len(cs.entries)-1]
	}
}

func (cs *CallStack) Depth() int { return len(cs.entries) }

// Top is the innermost entry; ok is false when the stack is empty.
func (cs *CallStack) Top() (CallEntry, bool) {
	if len(cs.entries) == 0 {
		return CallEntry{}, false
	}
	return cs.entries[len(cs.entries)-1], true
}

func (cs *CallStack) Entries() []CallEntry {
	out := make([]CallEntry, len(cs.entries))
	copy(out, cs.entries)
	return out
}

// Restore replaces the stack contents, as when resuming a saved machine.
func (cs *CallStack) Restore(entries []CallEntry) {
	cs.entries = append(cs.entries[:0], entries...)
}

func (cs *CallStack) Reset() { cs.entries = cs.entries[:0] }

// Frame is one line of a rendered trace: the function and where in it
// execution was.
type Frame struct {
	Function string
	File     string
	Line     int
	Col      int
}

type FatalError struct {
	Message string
	File    string
	Line    int
	Col     int
	Scope   string
	Trace   []Frame
}

func (e *FatalError) Error() string {
	var out strings.Builder
	out.WriteString("error: ")
	out.WriteString(e.Message)
	out.WriteString("\n")
	if e.Scope != "" {
		out.WriteString("in scope [" + e.Scope + "]\n")
	}
	out.WriteString("stack trace:\n")
	for _, f := range e.Trace {
		file := f.File
		if file == "" {
			file = "<unknown>"
		}
		fmt.Fprintf(&out, "  at %s (%s:%d:%d)\n", f.Function, file, f.Line, f.Col)
	}
	return out.String()
}

func (e *FatalError) Diagnostic() diag.Diagnostic {
	line, col := e.Line, e.Col
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	return diag.Diagnostic{
		Code:     diag.CodeFatal,
		Message:  e.Message,
		Severity: diag.SeverityError,
		Range:    diag.Range{Line: line, Col: col, Length: 1},
	}
}

// Fatal reports msg at node and applies the runtime's policy. Under
// PolicyExit the process ends with status 1; otherwise the *FatalError is
// returned for the caller to propagate.
func (rt *Runtime) Fatal(node ast.Node, msg string) error {
	fe := rt.fatalError(node, msg)
	rt.Log.Error().
		Str("file", fe.File).
		Int("line", fe.Line).
		Str("scope", fe.Scope).
		Msg(msg)
	if rt.Policy == PolicyExit {
		fmt.Fprint(rt.Err, fe.Error())
		rt.Exit(1)
	}
	return fe
}

func (rt *Runtime) Fatalf(node ast.Node, format string, args ...any) error {
	return rt.Fatal(node, fmt.Sprintf(format, args...))
}

// Warn reports a recoverable problem and never stops execution.
func (rt *Runtime) Warn(node ast.Node, msg string) {
	ev := rt.Log.Warn()
	if node != nil {
		pos := node.Pos()
		ev = ev.Str("file", pos.File).Int("line", pos.Line)
	}
	ev.Str("scope", rt.ScopeName()).Msg(msg)
}

// ScopeName is the innermost function on the call stack, or "" at top
// level.
func (rt *Runtime) ScopeName() string {
	if top, ok := rt.CallStack.Top(); ok {
		return top.Function
	}
	return ""
}

func (rt *Runtime) fatalError(node ast.Node, msg string) *FatalError {
	fe := &FatalError{Message: msg, Scope: rt.ScopeName()}
	if node != nil {
		pos := node.Pos()
		fe.File, fe.Line, fe.Col = pos.File, pos.Line, pos.Col
	}

	// innermost first: each function is at the call site of the frame
	// above it, the innermost one at the failing node
	entries := rt.CallStack.entries
	for i := len(entries) - 1; i >= 0; i-- {
		f := Frame{Function: entries[i].Function}
		var at ast.Node
		if i == len(entries)-1 {
			at = node
		} else {
			at = entries[i+1].Site
		}
		if at != nil {
			pos := at.Pos()
			f.File, f.Line, f.Col = pos.File, pos.Line, pos.Col
		}
		fe.Trace = append(fe.Trace, f)
	}
	return fe
}
