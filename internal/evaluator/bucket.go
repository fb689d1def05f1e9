package evaluator

import (
	"unicode/utf16"
)

// Bucket deterministically maps a user ID to a position in [0,100).
//
// The hash is a rolling accumulation over the UTF-16 code units of the
// ID: h = h*31 + unit, truncated to a 32-bit signed integer at each
// step, then abs(h) mod 100. It is a pure function of the string, so
// the same ID lands in the same bucket within a process and across
// restarts.
//
// Do not change this algorithm: any change silently re-buckets every
// user in every percentage rollout.
func Bucket(userID string) int {
	var h int32
	for _, unit := range utf16.Encode([]rune(userID)) {
		h = h*31 + int32(unit)
	}

	// int64 widening so abs(MinInt32) does not overflow.
	b := int64(h)
	if b < 0 {
		b = -b
	}
	return int(b % 100)
}
