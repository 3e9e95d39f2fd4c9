package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func TestPositionConversion(t *testing.T) {
	t.Parallel()

	text := "ab\n\U0001F600x\nlast"

	tests := []struct {
		offset int
		pos    protocol.Position
	}{
		{0, protocol.Position{Line: 0, Character: 0}},
		{2, protocol.Position{Line: 0, Character: 2}},
		{3, protocol.Position{Line: 1, Character: 0}},
		{7, protocol.Position{Line: 1, Character: 2}},
		{8, protocol.Position{Line: 1, Character: 3}},
		{len(text), protocol.Position{Line: 2, Character: 4}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.pos, toPosition(text, tt.offset), "offset %d", tt.offset)
		assert.Equal(t, tt.offset, toOffset(text, tt.pos), "position %v", tt.pos)
	}

	assert.Equal(t, 2, toOffset(text, protocol.Position{Line: 0, Character: 99}), "clamped to line end")
	assert.Equal(t, len(text), toOffset(text, protocol.Position{Line: 9}), "clamped to text end")
}

func TestApplyChange(t *testing.T) {
	t.Parallel()

	text := "<Stack>\n</Stack>"

	ranged := protocol.TextDocumentContentChangeEvent{
		Range: &protocol.Range{
			Start: protocol.Position{Line: 0, Character: 7},
			End:   protocol.Position{Line: 1, Character: 0},
		},
		Text: "<Text/>",
	}

	assert.Equal(t, "<Stack><Text/></Stack>", applyChange(text, ranged))
	assert.Equal(t, "x", applyChange(text, protocol.TextDocumentContentChangeEventWhole{Text: "x"}))
	assert.Equal(t, text, applyChange(text, 42))
}

func TestWordAtAndHoverDoc(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "event.click", wordAt(`<B event.click="x"/>`, 5))
	assert.Equal(t, "", wordAt("", 0))
	assert.NotEmpty(t, hoverDoc("Component"))
	assert.NotEmpty(t, hoverDoc("global.theme"))
	assert.Empty(t, hoverDoc("Button"))
	assert.Empty(t, hoverDoc("data.x"))
}
