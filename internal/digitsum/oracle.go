package digitsum

import (
	"context"

	perr "github.com/rowett/primedigitsum/internal/platform/errors"
)

// Oracle answers digit-sum primality questions from prebuilt tables.
// It is immutable once built and may be shared between goroutines.
type Oracle struct {
	tables *Tables
	primes *PrimeSet
}

// NewOracle pairs tables with a prime set that covers every radix they hold
func NewOracle(tables *Tables, primes *PrimeSet) (*Oracle, error) {
	if tables == nil || primes == nil {
		return nil, ErrOracleUninitialized
	}
	for r := MinRadix; r <= tables.MaxRadix(); r++ {
		if tables.Table(r) == nil || !primes.Covers(r) {
			return nil, perr.WithField(ErrOracleUninitialized, "radix")
		}
	}
	return &Oracle{tables: tables, primes: primes}, nil
}

// Build constructs the prime set and the four-digit tables for radixes up to maxRadix.
// workers is passed to BuildTables.
func Build(ctx context.Context, maxRadix uint32, workers int) (*Oracle, error) {
	primes, err := NewPrimeSet(maxRadix)
	if err != nil {
		return nil, err
	}
	tables, err := BuildTables(ctx, maxRadix, GroupDigits, workers)
	if err != nil {
		return nil, err
	}
	return NewOracle(tables, primes)
}

// MaxRadix returns the largest radix the oracle can answer for
func (o *Oracle) MaxRadix() uint32 { return o.tables.MaxRadix() }

// Tables returns the digit sum tables
func (o *Oracle) Tables() *Tables { return o.tables }

// Primes returns the digit sum prime set
func (o *Oracle) Primes() *PrimeSet { return o.primes }

// Table returns the lookup table for radix, or nil if it is not covered
func (o *Oracle) Table(radix uint32) *Table { return o.tables.Table(radix) }

// SmallPrime reports whether the digit sum s is prime
func (o *Oracle) SmallPrime(s uint64) bool { return o.primes.Contains(s) }

// check validates that the oracle can answer for radix
func (o *Oracle) check(radix uint32) error {
	if o == nil || o.tables == nil || o.primes == nil {
		return ErrOracleUninitialized
	}
	if radix < MinRadix || radix > o.tables.MaxRadix() {
		return perr.WithField(ErrOracleUninitialized, "radix")
	}
	return nil
}

// DigitSum returns the digit sum of value in radix.
// Power-of-two radixes are summed from bit planes, the rest from the tables.
func (o *Oracle) DigitSum(value uint64, radix uint32) (uint64, error) {
	if err := o.check(radix); err != nil {
		return 0, err
	}
	return o.sum(value, radix), nil
}

// sum is DigitSum for a radix already checked against the oracle
func (o *Oracle) sum(value uint64, radix uint32) uint64 {
	if IsPowerOfTwo(radix) {
		return PowerOfTwoSum(value, Shift(radix))
	}
	return o.tables.Table(radix).Sum(value)
}

// IsDigitSumPrime reports whether the digit sum of value in radix is prime
func (o *Oracle) IsDigitSumPrime(value uint64, radix uint32) (bool, error) {
	sum, err := o.DigitSum(value, radix)
	if err != nil {
		return false, err
	}
	return o.primes.Contains(sum), nil
}

// AllDigitSumsPrime reports whether the digit sums of value are prime in
// every radix from MinRadix to radix
func (o *Oracle) AllDigitSumsPrime(value uint64, radix uint32) (bool, error) {
	if err := o.check(radix); err != nil {
		return false, err
	}
	for r := radix; r >= MinRadix; r-- {
		if !o.primes.Contains(o.sum(value, r)) {
			return false, nil
		}
	}
	return true, nil
}
