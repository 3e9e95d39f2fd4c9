package lsp

import (
	"strings"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Sumatoshi-tech/uimarkup/pkg/safeconv"
)

// utf16Len is the number of UTF-16 code units encoding r.
func utf16Len(r rune) int {
	if r >= 0x10000 {
		return 2
	}

	return 1
}

// toPosition converts a byte offset into an LSP position, whose character is
// counted in UTF-16 code units.
func toPosition(text string, offset int) protocol.Position {
	offset = min(max(offset, 0), len(text))

	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1
	line := strings.Count(text[:lineStart], "\n")

	character := 0
	for _, r := range text[lineStart:offset] {
		character += utf16Len(r)
	}

	return protocol.Position{
		Line:      protocol.UInteger(safeconv.ClampIntToUint32(line)),
		Character: protocol.UInteger(safeconv.ClampIntToUint32(character)),
	}
}

// toOffset converts an LSP position into a byte offset, clamping positions
// past the end of a line or of the text.
func toOffset(text string, pos protocol.Position) int {
	offset := 0

	for range pos.Line {
		next := strings.IndexByte(text[offset:], '\n')
		if next < 0 {
			return len(text)
		}

		offset += next + 1
	}

	units := int(pos.Character)

	for units > 0 && offset < len(text) {
		r, size := utf8.DecodeRuneInString(text[offset:])
		if r == '\n' {
			break
		}

		units -= utf16Len(r)
		offset += size
	}

	return offset
}

// toRange converts a half-open byte range into an LSP range.
func toRange(text string, start, end int) protocol.Range {
	return protocol.Range{Start: toPosition(text, start), End: toPosition(text, max(start, end))}
}

// applyChange applies one content change event to text.
func applyChange(text string, change any) string {
	switch c := change.(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		return c.Text
	case protocol.TextDocumentContentChangeEvent:
		if c.Range == nil {
			return c.Text
		}

		start := toOffset(text, c.Range.Start)
		end := max(toOffset(text, c.Range.End), start)

		return text[:start] + c.Text + text[end:]
	default:
		return text
	}
}
