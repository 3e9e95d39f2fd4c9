package safeconv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByteCount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint64(42), ByteCount(42))
	assert.Equal(t, uint64(0), ByteCount(-1))
	assert.Equal(t, uint64(math.MaxInt64), ByteCount(int64(math.MaxInt64)))
}

func TestClampUint64ToInt64(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   uint64
		want int64
	}{
		{name: "zero", in: 0, want: 0},
		{name: "normal_value", in: 1 << 20, want: 1 << 20},
		{name: "max_int64", in: math.MaxInt64, want: math.MaxInt64},
		{name: "saturates", in: math.MaxUint64, want: math.MaxInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, ClampUint64ToInt64(tt.in))
		})
	}
}

func TestClampIntToUint32(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint32(0), ClampIntToUint32(-5))
	assert.Equal(t, uint32(7), ClampIntToUint32(7))
	assert.Equal(t, uint32(math.MaxUint32), ClampIntToUint32(math.MaxInt))
}
