package lsp

import (
	"strings"
	"unicode/utf16"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Pos is a 1-based line and byte column.
type Pos struct {
	Line int
	Col  int
}

func splitLines(text string) []string {
	return strings.Split(text, "\n")
}

func byteColToUTF16(lineText string, byteCol int) uint32 {
	if byteCol <= 1 {
		return 0
	}
	limit := min(byteCol-1, len(lineText))
	var count uint32
	for _, r := range lineText[:limit] {
		count += uint32(runeLen16(r))
	}
	return count
}

func utf16ColToByte(lineText string, utf16Col int) int {
	if utf16Col <= 0 {
		return 1
	}
	count := 0
	for idx, r := range lineText {
		n := runeLen16(r)
		if count+n > utf16Col {
			return idx + 1
		}
		count += n
	}
	return len(lineText) + 1
}

func runeLen16(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}

func utf16Len(s string) int {
	count := 0
	for _, r := range s {
		count += runeLen16(r)
	}
	return count
}

func positionToByte(text string, pos protocol.Position) (Pos, bool) {
	lines := splitLines(text)
	lineIdx := int(pos.Line)
	if lineIdx < 0 || lineIdx >= len(lines) {
		return Pos{}, false
	}
	return Pos{Line: lineIdx + 1, Col: utf16ColToByte(lines[lineIdx], int(pos.Character))}, true
}

// rangeFor covers literal starting at line:col.
func rangeFor(text string, p Pos, literal string) protocol.Range {
	lines := splitLines(text)
	if p.Line <= 0 || p.Line > len(lines) {
		return protocol.Range{}
	}
	lineText := lines[p.Line-1]
	start := protocol.Position{Line: uint32(p.Line - 1), Character: byteColToUTF16(lineText, p.Col)}
	end := protocol.Position{Line: start.Line, Character: start.Character + uint32(max(1, utf16Len(literal)))}
	return protocol.Range{Start: start, End: end}
}

// wordAt is the identifier around p, or "" when p is not on one.
func wordAt(text string, p Pos) string {
	lines := splitLines(text)
	if p.Line <= 0 || p.Line > len(lines) {
		return ""
	}
	line := lines[p.Line-1]
	i := min(max(p.Col-1, 0), len(line))
	start, end := i, i
	for start > 0 && isWordByte(line[start-1]) {
		start--
	}
	for end < len(line) && isWordByte(line[end]) {
		end++
	}
	return line[start:end]
}

// wordBefore is the part of the identifier at p that precedes p.
func wordBefore(text string, p Pos) string {
	lines := splitLines(text)
	if p.Line <= 0 || p.Line > len(lines) {
		return ""
	}
	line := lines[p.Line-1]
	end := min(max(p.Col-1, 0), len(line))
	start := end
	for start > 0 && isWordByte(line[start-1]) {
		start--
	}
	return line[start:end]
}

func isWordByte(c byte) bool {
	return c == '_' || c == '.' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
