package digitsum

import "math/bits"

// planes[k][j] selects bit j of every k-bit digit, i.e. the bits whose
// position is j mod k. A radix 2^k digit sum is the popcount of each plane
// weighted by 2^j.
var planes = [6][]uint64{
	1: {0xFFFFFFFFFFFFFFFF},
	2: {0x5555555555555555, 0xAAAAAAAAAAAAAAAA},
	3: {0x9249249249249249, 0x2492492492492492, 0x4924924924924924},
	4: {0x1111111111111111, 0x2222222222222222, 0x4444444444444444, 0x8888888888888888},
	5: {0x1084210842108421, 0x2108421084210842, 0x4210842108421084, 0x8421084210842108, 0x0842108421084210},
}

// MaxShift is the largest power-of-two exponent with precomputed bit planes
const MaxShift = 5

// PowerOfTwoSum returns the digit sum of value in radix 1<<shift using one
// population count per bit plane. shift must be in [1, MaxShift].
func PowerOfTwoSum(value uint64, shift uint) uint64 {
	var sum uint64
	for j, mask := range planes[shift] {
		sum += uint64(bits.OnesCount64(value&mask)) << j
	}
	return sum
}
