package lsp

import (
	"pebl/internal/diag"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ToLspDiagnostics converts byte columns in text to UTF-16 ranges.
func ToLspDiagnostics(text string, ds []diag.Diagnostic) []protocol.Diagnostic {
	lines := splitLines(text)
	out := make([]protocol.Diagnostic, 0, len(ds))
	for _, d := range ds {
		line := max(d.Range.Line, 1)
		lineText := ""
		if line <= len(lines) {
			lineText = lines[line-1]
		}
		start := protocol.Position{Line: uint32(line - 1), Character: byteColToUTF16(lineText, d.Range.Col)}
		end := protocol.Position{Line: start.Line, Character: byteColToUTF16(lineText, d.Range.Col+max(d.Range.Length, 1))}
		if end.Character <= start.Character {
			end.Character = start.Character + 1
		}

		severity := protocol.DiagnosticSeverityError
		switch d.Severity {
		case diag.SeverityWarning:
			severity = protocol.DiagnosticSeverityWarning
		case diag.SeverityInfo:
			severity = protocol.DiagnosticSeverityInformation
		}

		source := "pebl"
		if d.Lint() {
			source = "pebl lint"
		}
		pd := protocol.Diagnostic{
			Range:    protocol.Range{Start: start, End: end},
			Severity: &severity,
			Source:   &source,
			Message:  d.Message,
		}
		if d.Code != "" {
			code := protocol.IntegerOrString{Value: d.Code}
			pd.Code = &code
		}
		out = append(out, pd)
	}
	return out
}
