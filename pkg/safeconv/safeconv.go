// Package safeconv converts between integer types without silent wraparound.
package safeconv

import "math"

// ByteCount converts a length or size to the uint64 taken by byte
// formatters. Negative values become 0.
func ByteCount[T ~int | ~int64](n T) uint64 {
	if n < 0 {
		return 0
	}

	return uint64(n)
}

// ClampUint64ToInt64 converts v to int64, saturating at math.MaxInt64.
func ClampUint64ToInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}

	return int64(v)
}

// ClampIntToUint32 converts v to uint32, clamping to [0, math.MaxUint32].
func ClampIntToUint32(v int) uint32 {
	switch {
	case v < 0:
		return 0
	case uint64(v) > math.MaxUint32:
		return math.MaxUint32
	default:
		return uint32(v)
	}
}
