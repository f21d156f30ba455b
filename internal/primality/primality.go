// Package primality answers whether a 64-bit integer is prime.
//
// Two strategies live behind one capability: wheel trial division, which is
// cheap for the small digit-sum values that seed the prime set, and a
// deterministic Miller-Rabin test whose witness table is exact for every
// uint64. IsPrime picks between them by input size.
package primality

import (
	"fmt"
	"math"
	"math/bits"
	"strings"
)

// TrialDivisionLimit is the input size below which IsPrime trial-divides
// instead of running the witness test
const TrialDivisionLimit = 1 << 20

// wheel30 holds the offsets from 7 of the residues coprime to 30 in [7, 37)
var wheel30 = [...]uint64{0, 4, 6, 10, 12, 16, 22, 24}

// wheel210 holds the offsets from 11 of the residues coprime to 210 in [11, 221)
var wheel210 = [...]uint64{
	0, 2, 6, 8, 12, 18, 20, 26, 30, 32, 36, 42, 48, 50, 56, 60,
	62, 68, 72, 78, 86, 90, 92, 96, 98, 102, 110, 116, 120, 126, 128, 132,
	138, 140, 146, 152, 156, 158, 162, 168, 170, 176, 180, 182, 186, 188, 198, 200,
}

// witness pairs a Miller-Rabin base with the smallest strong pseudoprime to
// every base up to and including it. A number below bound that passes the
// prefix of bases ending here is prime.
type witness struct {
	base  uint64
	bound uint64
}

// Published values (Jaeschke; Feitsma and Galway; Sorenson and Webster).
// The last prefix has no strong pseudoprime below 2^64.
var witnesses = [...]witness{
	{2, 2047},
	{3, 1373653},
	{5, 25326001},
	{7, 3215031751},
	{11, 2152302898747},
	{13, 3474749660383},
	{17, 341550071728321},
	{19, 341550071728321},
	{23, 3825123056546413051},
	{29, 3825123056546413051},
	{31, 3825123056546413051},
	{37, math.MaxUint64},
}

// IsPrime reports whether n is prime, trial-dividing small inputs and using
// the witness test for the rest
func IsPrime(n uint64) bool {
	if n < TrialDivisionLimit {
		return TrialDivision(n)
	}
	return MillerRabin(n)
}

// TrialDivision reports whether n is prime by dividing by every candidate
// coprime to 210 up to the square root of n
func TrialDivision(n uint64) bool {
	if n <= 3 || n == 5 || n == 7 {
		return n > 1
	}
	if n%2 == 0 || n%3 == 0 || n%5 == 0 || n%7 == 0 {
		return false
	}

	limit := isqrt(n)
	if n <= 211 {
		return !hasDivisor(n, 7, limit, wheel30[:], 30)
	}
	return !hasDivisor(n, 11, limit, wheel210[:], 210)
}

// hasDivisor walks the wheel from start and reports whether any spoke up to limit divides n
func hasDivisor(n, start, limit uint64, offsets []uint64, span uint64) bool {
	for base := start; base <= limit; base += span {
		for _, off := range offsets {
			d := base + off
			if d > limit {
				return false
			}
			if n%d == 0 {
				return true
			}
		}
	}
	return false
}

// isqrt returns floor(sqrt(n))
func isqrt(n uint64) uint64 {
	r := uint64(math.Sqrt(float64(n)))
	if r > math.MaxUint32 {
		r = math.MaxUint32
	}
	for r*r > n {
		r--
	}
	for r < math.MaxUint32 && (r+1)*(r+1) <= n {
		r++
	}
	return r
}

// MillerRabin reports whether n is prime using the deterministic witness table
func MillerRabin(n uint64) bool {
	if n < 2 {
		return false
	}
	for _, w := range witnesses {
		if n == w.base {
			return true
		}
		if n%w.base == 0 {
			return false
		}
	}

	// n-1 = d * 2^s with d odd
	s := bits.TrailingZeros64(n - 1)
	d := (n - 1) >> s

	for _, w := range witnesses {
		if !strongProbablePrime(n, w.base, d, s) {
			return false
		}
		if n < w.bound {
			return true
		}
	}
	return true
}

// strongProbablePrime reports whether n is a strong probable prime to base a
func strongProbablePrime(n, a, d uint64, s int) bool {
	x := powMod(a, d, n)
	if x == 1 || x == n-1 {
		return true
	}
	for i := 1; i < s; i++ {
		x = mulMod(x, x, n)
		if x == n-1 {
			return true
		}
		if x == 1 {
			return false
		}
	}
	return false
}

// mulMod returns a*b mod m through the full 128-bit product
func mulMod(a, b, m uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return bits.Rem64(hi, lo, m)
}

// powMod returns b^e mod m
func powMod(b, e, m uint64) uint64 {
	result := uint64(1)
	b %= m
	for e > 0 {
		if e&1 == 1 {
			result = mulMod(result, b, m)
		}
		b = mulMod(b, b, m)
		e >>= 1
	}
	return result
}

// Strategy selects how a Tester decides primality
type Strategy int

const (
	// Auto chooses by input size, see IsPrime
	Auto Strategy = iota

	// Trial always trial-divides
	Trial

	// Witness always runs the deterministic Miller-Rabin test
	Witness
)

// String names the strategy as accepted by ParseStrategy
func (s Strategy) String() string {
	switch s {
	case Trial:
		return "trial"
	case Witness:
		return "witness"
	default:
		return "auto"
	}
}

// ParseStrategy parses "auto", "trial" or "witness"
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Auto, nil
	case "trial":
		return Trial, nil
	case "witness", "miller-rabin":
		return Witness, nil
	default:
		return Auto, fmt.Errorf("unknown primality strategy %q", s)
	}
}

// Tester checks candidates with a fixed strategy and remembers the last
// prime it confirmed. It is not safe for concurrent use.
type Tester struct {
	strategy Strategy
	last     uint64
}

// NewTester returns a Tester using strategy
func NewTester(strategy Strategy) *Tester {
	return &Tester{strategy: strategy}
}

// IsPrime reports whether n is prime
func (t *Tester) IsPrime(n uint64) bool {
	if t.last != 0 && n == t.last {
		return true
	}

	var prime bool
	switch t.strategy {
	case Trial:
		prime = TrialDivision(n)
	case Witness:
		prime = MillerRabin(n)
	default:
		prime = IsPrime(n)
	}

	if prime {
		t.last = n
	}
	return prime
}

// Strategy returns the tester's strategy
func (t *Tester) Strategy() Strategy { return t.strategy }
