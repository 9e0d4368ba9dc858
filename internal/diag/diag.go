package diag

import (
	"fmt"
	"sort"
	"strings"
)

// Codes starting with PB come from the parser and runtime, PL from lint.
const (
	CodeParse = "PB0001"
	CodeFatal = "PB0100"
	CodeLoad  = "PB0101"

	CodeUnusedVariable  = "PL0001"
	CodeUnusedParameter = "PL0002"
	CodeUnreachable     = "PL0003"
	CodeNeverAssigned   = "PL0004"
	CodeUndefinedFunc   = "PL0005"
	CodeArity           = "PL0006"
)

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// Range is 1-based. Length counts bytes and is 1 when unknown.
type Range struct {
	Line   int
	Col    int
	Length int
}

type Diagnostic struct {
	Code     string
	Message  string
	Severity Severity
	Range    Range
}

// Lint reports whether d came from the linter rather than from loading or
// running the script.
func (d Diagnostic) Lint() bool { return strings.HasPrefix(d.Code, "PL") }

// Format renders d the way pebl lint and pebl validate print it:
// path:line:col: severity CODE: message.
func (d Diagnostic) Format(path string) string {
	head := fmt.Sprintf("%s:%d:%d: %s", path, d.Range.Line, d.Range.Col, d.Severity)
	if d.Code == "" {
		return head + ": " + d.Message
	}
	return head + " " + d.Code + ": " + d.Message
}

// Sort orders ds by position, errors before warnings on the same spot.
func Sort(ds []Diagnostic) {
	sort.SliceStable(ds, func(i, j int) bool {
		a, b := ds[i].Range, ds[j].Range
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Col != b.Col {
			return a.Col < b.Col
		}
		return ds[i].Severity < ds[j].Severity
	})
}
