// Package textutil checks and normalizes markup file contents before they
// reach the compiler.
package textutil

import (
	"bytes"
	"errors"
	"unicode/utf8"
)

// sniffLength bounds the null-byte scan of IsBinary, as Git does.
const sniffLength = 8000

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Errors returned by Prepare.
var (
	ErrBinary      = errors.New("file looks binary")
	ErrInvalidUTF8 = errors.New("file is not valid UTF-8")
)

// IsBinary reports whether data holds a null byte in its first 8000 bytes.
func IsBinary(data []byte) bool {
	return bytes.IndexByte(data[:min(len(data), sniffLength)], 0) >= 0
}

// StripBOM drops a leading UTF-8 byte order mark. Offsets into the result
// are what every diagnostic refers to.
func StripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

// CountLines returns the number of lines in data, counting a trailing
// partial line. Empty data has no lines.
func CountLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}

	lines := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		lines++
	}

	return lines
}

// Prepare validates file contents and returns the text to compile.
func Prepare(data []byte) ([]byte, error) {
	if IsBinary(data) {
		return nil, ErrBinary
	}

	data = StripBOM(data)
	if !utf8.Valid(data) {
		return nil, ErrInvalidUTF8
	}

	return data, nil
}
