package spectest

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type ExpectMode int

const (
	ExpectOK ExpectMode = iota
	ExpectError
	ExpectErrorContains
)

// FileExpectation is what a script's leading "# expect:" comments ask
// for.
type FileExpectation struct {
	Mode      ExpectMode
	Substring string
	Stdout    StdoutExpectation

	hasExplicit bool
	hasStdout   bool
}

// ParseExpectation reads directives from the comment block at the top of
// a script. Reading stops at the first line that is not a comment.
func ParseExpectation(r io.Reader, path string) (*FileExpectation, error) {
	exp := &FileExpectation{
		Mode:   ExpectOK,
		Stdout: StdoutExpectation{Mode: StdoutNone},
	}
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "#") {
			break
		}
		comment := strings.TrimSpace(strings.TrimPrefix(line, "#"))
		if !strings.HasPrefix(strings.ToLower(comment), "expect:") {
			continue
		}
		body := strings.TrimSpace(comment[len("expect:"):])
		if err := exp.directive(body); err != nil {
			return nil, fmt.Errorf("%s:%d: %v", path, lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return exp, nil
}

func (exp *FileExpectation) directive(body string) error {
	bodyLower := strings.ToLower(body)
	outcome := func(mode ExpectMode) error {
		if exp.hasExplicit {
			return fmt.Errorf("multiple outcome expect directives")
		}
		exp.hasExplicit = true
		exp.Mode = mode
		return nil
	}
	stdout := func(mode StdoutMode, keyword string) error {
		if exp.hasStdout {
			return fmt.Errorf("multiple stdout expect directives")
		}
		exp.hasStdout = true
		val, err := parseQuoted(body[len(keyword):])
		if err != nil {
			return err
		}
		exp.Stdout = StdoutExpectation{Mode: mode, Value: val}
		return nil
	}

	switch {
	case bodyLower == "ok":
		return outcome(ExpectOK)
	case bodyLower == "error":
		return outcome(ExpectError)
	case strings.HasPrefix(bodyLower, "error contains"):
		if err := outcome(ExpectErrorContains); err != nil {
			return err
		}
		sub, err := parseQuoted(body[len("error contains"):])
		if err != nil {
			return err
		}
		exp.Substring = sub
		return nil
	case strings.HasPrefix(bodyLower, "stdout file"):
		return stdout(StdoutFile, "stdout file")
	case strings.HasPrefix(bodyLower, "stdout contains"):
		return stdout(StdoutContains, "stdout contains")
	case strings.HasPrefix(bodyLower, "stdout"):
		return stdout(StdoutExact, "stdout")
	}
	return fmt.Errorf("invalid expect directive")
}

// Check compares a run against exp. baseDir resolves stdout files.
func (exp *FileExpectation) Check(res Result, baseDir string) (bool, string, error) {
	gotErr := FormatError(res.ErrCode, res.ErrMsg)
	switch exp.Mode {
	case ExpectOK:
		if gotErr != "" {
			return false, "expected ok, got error: " + gotErr, nil
		}
	case ExpectError:
		if gotErr == "" {
			return false, "expected error, got ok", nil
		}
	case ExpectErrorContains:
		if gotErr == "" {
			return false, "expected error, got ok", nil
		}
		if !strings.Contains(gotErr, exp.Substring) {
			return false, fmt.Sprintf("error mismatch: expected to contain %q, got %q", exp.Substring, gotErr), nil
		}
	}
	return MatchStdout(res.Stdout, exp.Stdout, baseDir)
}

func parseQuoted(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw[0] != '"' {
		return "", fmt.Errorf("expected quoted string")
	}
	return strconv.Unquote(raw)
}
