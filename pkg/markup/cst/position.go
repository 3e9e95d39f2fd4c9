package cst

import (
	"sort"
	"unicode/utf8"
)

// LineIndex maps byte offsets to line/column positions.
type LineIndex struct {
	src        string
	lineStarts []int
}

// NewLineIndex indexes the line starts of src.
func NewLineIndex(src string) *LineIndex {
	starts := []int{0}

	for i := range len(src) {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}

	return &LineIndex{src: src, lineStarts: starts}
}

// Position returns the 1-based line and rune column of offset. Offsets past
// the end are clamped.
func (li *LineIndex) Position(offset int) (line, column int) {
	offset = max(0, min(offset, len(li.src)))

	idx := sort.Search(len(li.lineStarts), func(i int) bool {
		return li.lineStarts[i] > offset
	}) - 1

	lineStart := li.lineStarts[idx]

	return idx + 1, utf8.RuneCountInString(li.src[lineStart:offset]) + 1
}

// Offset is the inverse of Position for 1-based line and column.
func (li *LineIndex) Offset(line, column int) int {
	if line < 1 {
		return 0
	}

	if line > len(li.lineStarts) {
		return len(li.src)
	}

	offset := li.lineStarts[line-1]

	for col := 1; col < column && offset < len(li.src) && li.src[offset] != '\n'; col++ {
		_, size := utf8.DecodeRuneInString(li.src[offset:])
		offset += size
	}

	return offset
}

// Lines returns the number of lines.
func (li *LineIndex) Lines() int {
	return len(li.lineStarts)
}
