package repl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"pebl/internal/ast"
	"pebl/internal/diag"
	"pebl/internal/evaluator"
	"pebl/internal/lexer"
	"pebl/internal/object"
	"pebl/internal/parser"
	"pebl/internal/runtime"
	"pebl/internal/token"
	"pebl/internal/vm"
)

const (
	prompt1     = "pebl> "
	prompt2     = "....> "
	historyFile = ".pebl_history"

	// entryName wraps each entry so the parser sees a function body.
	entryName = "ReplEntry"
)

// Session evaluates REPL entries against one runtime. Locals typed at the
// prompt persist between entries; define blocks add or replace functions.
type Session struct {
	rt     *runtime.Runtime
	locals *object.Scope

	machine *vm.Machine
	eval    *evaluator.Evaluator
}

// NewSession wraps rt, which should already have its libraries loaded.
// With recursive set, entries run on the recursive evaluator instead of
// the machine.
func NewSession(rt *runtime.Runtime, recursive bool) *Session {
	rt.Policy = runtime.PolicyReturn
	s := &Session{rt: rt, locals: object.NewScope()}
	if recursive {
		s.eval = evaluator.New(rt)
	} else {
		s.machine = vm.New(rt)
	}
	return s
}

// Eval runs one complete entry. The result is nil for definitions.
func (s *Session) Eval(src string) (object.Object, error) {
	if startsDefinition(src) {
		return nil, s.define(src)
	}

	wrapped := "define " + entryName + "() {\n" + src + "\n}\n"
	prog, diags := parser.ParseSource("<repl>", wrapped)
	if len(diags) > 0 {
		return nil, entryError(diags, 1)
	}
	fn := prog.Function(entryName)
	if fn == nil {
		return nil, errors.New("nothing to evaluate")
	}
	body := trimImplicitReturn(fn.Lambda.Right, strings.Count(wrapped, "\n"))

	s.rt.CallStack.Reset()
	if s.eval != nil {
		return s.eval.Evaluate(body, s.locals)
	}
	s.machine.Clear()
	s.machine.SetScope(s.locals)
	return s.machine.Evaluate(body)
}

func (s *Session) define(src string) error {
	prog, diags := parser.ParseSource("<repl>", src)
	if len(diags) > 0 {
		return entryError(diags, 0)
	}
	for _, fn := range prog.Functions {
		if err := s.rt.Functions.Redefine(fn.Name, fn.Lambda); err != nil {
			return err
		}
	}
	return nil
}

// startsDefinition reports whether src opens with the define keyword, so
// a variable such as definedTrials is still an ordinary entry.
func startsDefinition(src string) bool {
	l := lexer.New(src)
	tok := l.NextToken()
	for tok.Type == token.NEWLINE {
		tok = l.NextToken()
	}
	return tok.Type == token.DEFINE
}

// entryError reports the first parse error, with lines relative to what
// was typed.
func entryError(diags []diag.Diagnostic, offset int) error {
	d := diags[0]
	line := d.Range.Line - offset
	if line < 1 {
		line = 1
	}
	return fmt.Errorf("%d:%d: %s", line, d.Range.Col, d.Message)
}

// trimImplicitReturn drops the "return 1" the parser appends to a body, so
// an entry's value is its last statement. closeLine is the line of the
// wrapper's closing brace.
func trimImplicitReturn(body ast.Node, closeLine int) ast.Node {
	seq, ok := body.(*ast.OpNode)
	if !ok || seq.Op != ast.STATEMENTS {
		return body
	}
	ret, ok := seq.Right.(*ast.OpNode)
	if !ok || ret.Op != ast.RETURN || ret.Position.Line != closeLine {
		return body
	}
	return seq.Left
}

// Complete reports whether src has balanced brackets and no open string.
func Complete(src string) bool {
	l := lexer.New(src)
	depth := 0
	for {
		tok := l.NextToken()
		switch tok.Type {
		case token.EOF:
			return depth <= 0
		case token.ILLEGAL:
			if tok.Literal == "unterminated string" {
				return false
			}
		case token.LBRACE, token.LPAREN, token.LBRACKET:
			depth++
		case token.RBRACE, token.RPAREN, token.RBRACKET:
			depth--
		}
	}
}

// Start runs the interactive loop on the terminal until EOF or :quit.
func Start(s *Session, out io.Writer) error {
	fmt.Fprint(out, "PEBL REPL (Ctrl+D to exit)\n")

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, historyFile)
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}
	defer func() {
		if histPath == "" {
			return
		}
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()
	ln.SetCompleter(func(line string) []string {
		return completions(s.rt, line)
	})

	for {
		src, ok := readEntry(ln)
		if !ok {
			fmt.Fprintln(out)
			return nil
		}
		trim := strings.TrimSpace(src)
		switch trim {
		case "":
			continue
		case ":quit", "exit", "quit":
			return nil
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		res, err := s.Eval(src)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		if res != nil {
			fmt.Fprintln(out, res.Inspect())
		}
	}
}

func readEntry(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := prompt1
		if b.Len() > 0 {
			prompt = prompt2
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if Complete(b.String()) {
			return b.String(), true
		}
	}
}

// completions offers function names for the word being typed.
func completions(rt *runtime.Runtime, line string) []string {
	i := strings.LastIndexFunc(line, func(r rune) bool {
		return !(r == '_' || r == '.' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	})
	prefix, word := line[:i+1], line[i+1:]
	if word == "" {
		return nil
	}
	var out []string
	for _, name := range rt.Functions.Names() {
		if strings.HasPrefix(name, word) {
			out = append(out, prefix+name)
		}
	}
	return out
}
