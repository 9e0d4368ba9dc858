package lsp

import (
	"fmt"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"pebl/internal/diag"
)

// CodeActions offers quick fixes for the lint findings in diags.
func CodeActions(uri string, text string, diags []protocol.Diagnostic) []protocol.CodeAction {
	actions := make([]protocol.CodeAction, 0)
	for _, d := range diags {
		switch diagnosticCode(d) {
		case diag.CodeUnreachable:
			if action, ok := MakeRemoveLineAction(uri, text, d.Range, "Remove unreachable code"); ok {
				actions = append(actions, action)
			}
		case diag.CodeUnusedVariable:
			if action, ok := MakeRemoveLineAction(uri, text, d.Range, "Remove unused assignment"); ok {
				actions = append(actions, action)
			}
		case diag.CodeUnusedParameter:
			if action, ok := MakePrefixUnderscoreAction(uri, text, d.Range); ok {
				actions = append(actions, action)
			}
		}
	}
	return actions
}

func diagnosticCode(d protocol.Diagnostic) string {
	if d.Code == nil {
		return ""
	}
	switch v := d.Code.Value.(type) {
	case string:
		return v
	case protocol.Integer:
		return fmt.Sprintf("%d", v)
	default:
		return ""
	}
}

func MakeRemoveLineAction(uri string, text string, r protocol.Range, title string) (protocol.CodeAction, bool) {
	lines := splitLines(text)
	startLine := int(r.Start.Line)
	if startLine < 0 || startLine >= len(lines) {
		return protocol.CodeAction{}, false
	}

	endLine := startLine
	endChar := uint32(utf16Len(lines[startLine]))
	if startLine+1 < len(lines) {
		endLine = startLine + 1
		endChar = 0
	}

	edit := protocol.WorkspaceEdit{
		Changes: map[protocol.DocumentUri][]protocol.TextEdit{
			protocol.DocumentUri(uri): {
				{
					Range: protocol.Range{
						Start: protocol.Position{Line: uint32(startLine), Character: 0},
						End:   protocol.Position{Line: uint32(endLine), Character: endChar},
					},
					NewText: "",
				},
			},
		},
	}

	kind := protocol.CodeActionKindQuickFix
	return protocol.CodeAction{
		Title: title,
		Kind:  &kind,
		Edit:  &edit,
	}, true
}

// MakePrefixUnderscoreAction renames the parameter under r to _name, which
// the linter treats as deliberately unused.
func MakePrefixUnderscoreAction(uri string, text string, r protocol.Range) (protocol.CodeAction, bool) {
	start, ok := positionToByte(text, r.Start)
	if !ok {
		return protocol.CodeAction{}, false
	}
	ident := wordAt(text, start)
	if ident == "" || strings.HasPrefix(ident, "_") {
		return protocol.CodeAction{}, false
	}

	edit := protocol.WorkspaceEdit{
		Changes: map[protocol.DocumentUri][]protocol.TextEdit{
			protocol.DocumentUri(uri): {
				{
					Range:   rangeFor(text, start, ident),
					NewText: "_" + ident,
				},
			},
		},
	}

	kind := protocol.CodeActionKindQuickFix
	return protocol.CodeAction{
		Title: "Prefix with '_' to mark unused",
		Kind:  &kind,
		Edit:  &edit,
	}, true
}
