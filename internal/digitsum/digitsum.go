// Package digitsum computes digit sums of 64-bit values in radixes 2 to 50
// and answers whether those sums are prime.
//
// The lookups are built once into an Oracle: a Table per radix holding the
// digit sum of every four-digit group, and a PrimeSet covering every digit
// sum a uint64 can reach. Both are immutable after construction and safe for
// concurrent readers.
package digitsum

import (
	"math"
	"math/bits"

	perr "github.com/rowett/primedigitsum/internal/platform/errors"
)

const (
	// MinRadix is the smallest supported radix
	MinRadix uint32 = 2

	// MaxRadix is the largest supported radix
	MaxRadix uint32 = 50

	// GroupDigits is the number of digits summed by one table lookup
	GroupDigits = 4
)

// ErrOracleUninitialized is returned when a lookup is made against tables
// that were never built or that do not cover the requested radix
var ErrOracleUninitialized = perr.New(perr.ErrorCodeUninitialized, "digit sum oracle not initialised for radix")

// Sum returns the digit sum of value written in radix
func Sum(value uint64, radix uint32) uint64 {
	r := uint64(radix)
	var sum uint64
	for {
		q := value / r
		sum += value - q*r
		value = q
		if value == 0 {
			return sum
		}
	}
}

// Sums returns the digit sums of value in every radix from 2 to maxRadix,
// index 0 holding radix 2
func Sums(value uint64, maxRadix uint32) []uint64 {
	if maxRadix < MinRadix {
		return nil
	}
	out := make([]uint64, 0, maxRadix-1)
	for r := MinRadix; r <= maxRadix; r++ {
		out = append(out, Sum(value, r))
	}
	return out
}

// MaxDigits returns the number of base-radix digits needed to write any
// uint64, i.e. ceil(log(2^64)/log(radix))
func MaxDigits(radix uint32) uint32 {
	var digits uint32
	for v := uint64(math.MaxUint64); v > 0; v /= uint64(radix) {
		digits++
	}
	return digits
}

// LargestSum returns the largest digit sum a uint64 can have in radix
func LargestSum(radix uint32) uint64 {
	return uint64(MaxDigits(radix)) * uint64(radix-1)
}

// ValidRadix reports whether radix is within [MinRadix, MaxRadix]
func ValidRadix(radix uint32) bool {
	return radix >= MinRadix && radix <= MaxRadix
}

// IsPowerOfTwo reports whether radix is a power of two
func IsPowerOfTwo(radix uint32) bool {
	return radix != 0 && radix&(radix-1) == 0
}

// Shift returns log2(radix) for a power-of-two radix
func Shift(radix uint32) uint {
	return uint(bits.TrailingZeros32(radix))
}
