package textutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBinary(t *testing.T) {
	t.Parallel()

	tail := append(bytes.Repeat([]byte("a"), sniffLength), 0)

	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"empty", nil, false},
		{"text", []byte("<Stack/>\n"), false},
		{"null at start", []byte{0, 'a'}, true},
		{"null inside window", append(bytes.Repeat([]byte("a"), sniffLength-1), 0), true},
		{"null beyond window", tail, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsBinary(tt.data), tt.name)
	}
}

func TestCountLines(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, CountLines(nil))
	assert.Equal(t, 1, CountLines([]byte("<A/>")))
	assert.Equal(t, 1, CountLines([]byte("<A/>\n")))
	assert.Equal(t, 3, CountLines([]byte("<A>\n\n</A>")))
	assert.Equal(t, 1, CountLines([]byte("\n")))
}

func TestPrepare(t *testing.T) {
	t.Parallel()

	out, err := Prepare([]byte("\xEF\xBB\xBF<Text>é</Text>"))
	require.NoError(t, err)
	assert.Equal(t, "<Text>é</Text>", string(out))

	_, err = Prepare([]byte("<A/>\x00"))
	require.ErrorIs(t, err, ErrBinary)

	_, err = Prepare([]byte("<A>\xff</A>"))
	require.ErrorIs(t, err, ErrInvalidUTF8)

	out, err = Prepare(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
