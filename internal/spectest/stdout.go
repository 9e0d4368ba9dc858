package spectest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type StdoutMode int

const (
	StdoutNone StdoutMode = iota
	StdoutExact
	StdoutContains
	StdoutFile
)

// StdoutExpectation is what a "# expect: stdout ..." header asks of a
// script's printed output. For StdoutFile, Value is a golden file path,
// relative to the script's directory unless absolute.
type StdoutExpectation struct {
	Mode  StdoutMode
	Value string
}

// NormalizeNewlines folds the \r\n the raw-mode terminal writer emits.
func NormalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// MatchStdout reports whether got satisfies exp. On a mismatch the reason
// names the first differing output line. The error is only for an
// unreadable golden file.
func MatchStdout(got string, exp StdoutExpectation, baseDir string) (bool, string, error) {
	got = NormalizeNewlines(got)
	want := NormalizeNewlines(exp.Value)

	switch exp.Mode {
	case StdoutNone:
		return true, "", nil
	case StdoutContains:
		if strings.Contains(got, want) {
			return true, "", nil
		}
		return false, fmt.Sprintf("stdout does not contain %q; got %q", want, got), nil
	case StdoutFile:
		if exp.Value == "" {
			return false, "stdout file path is empty", nil
		}
		path := exp.Value
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return false, "", err
		}
		want = NormalizeNewlines(string(b))
		if got == want {
			return true, "", nil
		}
		return false, exp.Value + ": " + lineDiff(want, got), nil
	case StdoutExact:
		if got == want {
			return true, "", nil
		}
		return false, lineDiff(want, got), nil
	}
	return false, "unknown stdout expectation", nil
}

func lineDiff(want, got string) string {
	wl := strings.Split(want, "\n")
	gl := strings.Split(got, "\n")
	for i := 0; i < len(wl) || i < len(gl); i++ {
		var w, g string
		if i < len(wl) {
			w = wl[i]
		}
		if i < len(gl) {
			g = gl[i]
		}
		if i >= len(wl) || i >= len(gl) || w != g {
			return fmt.Sprintf("stdout line %d: want %q, got %q", i+1, w, g)
		}
	}
	return "stdout differs"
}
