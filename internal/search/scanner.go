package search

import (
	"context"

	"github.com/rowett/primedigitsum/internal/digitsum"
	perr "github.com/rowett/primedigitsum/internal/platform/errors"
	"github.com/rowett/primedigitsum/internal/primality"
)

// pollMask sets how often a scan checks its context, in candidates
const pollMask = 1<<16 - 1

// Stats counts how far candidates travel through the cascade
type Stats struct {
	Checks uint64    `json:"checks"`
	Gates  [5]uint64 `json:"gates"`  // Gates[k-1] passed the radix 2^k gate
	Sums   uint64    `json:"sums"`   // passed every digit sum test
	Primes uint64    `json:"primes"` // and were prime
	Bands  [3]uint64 `json:"bands"`  // checks per Band
}

// Add accumulates o into s
func (s *Stats) Add(o Stats) {
	s.Checks += o.Checks
	for i := range s.Gates {
		s.Gates[i] += o.Gates[i]
	}
	s.Sums += o.Sums
	s.Primes += o.Primes
	for i := range s.Bands {
		s.Bands[i] += o.Bands[i]
	}
}

// Scanner walks candidate ranges through the cascade.
// It owns a primality cache and counters, so it must not be shared between goroutines.
type Scanner struct {
	oracle *digitsum.Oracle
	tester *primality.Tester
	stats  Stats
}

// NewScanner returns a scanner over o. A nil tester selects primality.Auto.
func NewScanner(o *digitsum.Oracle, tester *primality.Tester) *Scanner {
	if tester == nil {
		tester = primality.NewTester(primality.Auto)
	}
	return &Scanner{oracle: o, tester: tester}
}

// Stats returns the counters accumulated since the last reset
func (s *Scanner) Stats() Stats { return s.stats }

// ResetStats zeroes the counters
func (s *Scanner) ResetStats() { s.stats = Stats{} }

// Scan returns the smallest value in [from, to] whose digit sums in every
// radix 2..radix are prime and which is itself prime. from must be aligned.
// found is false when the range holds no such value.
func (s *Scanner) Scan(ctx context.Context, from, to uint64, radix uint32) (uint64, bool, error) {
	if !Aligned(from) {
		return 0, false, ErrMisaligned
	}
	return s.ScanFrom(ctx, from, to, radix)
}

// ScanFrom is Scan for any lower bound. The cursor starts at AlignDown(lo)
// and candidates below lo are skipped.
func (s *Scanner) ScanFrom(ctx context.Context, lo, to uint64, radix uint32) (uint64, bool, error) {
	p, err := newPlan(s.oracle, radix)
	if err != nil {
		return 0, false, err
	}
	return s.scan(ctx, AlignDown(lo), lo, to, &p)
}

func (s *Scanner) scan(ctx context.Context, v, lo, to uint64, p *plan) (uint64, bool, error) {
	if v > to || lo > to {
		return 0, false, nil
	}

	var n uint64
	for i := 0; ; i = (i + 1) & 7 {
		if v >= lo && s.passes(v, p) {
			return v, true, nil
		}

		n++
		if n&pollMask == 0 {
			if err := ctx.Err(); err != nil {
				return 0, false, perr.Wrap(err, perr.ErrorCodeUnavailable, "scan cancelled")
			}
		}

		// v stays <= to, so the step cannot wrap
		d := wheel[i]
		if to-v < d {
			return 0, false, nil
		}
		v += d
	}
}

// passes runs v through the plan's gates, tables and the primality test
func (s *Scanner) passes(v uint64, p *plan) bool {
	s.stats.Checks++
	s.stats.Bands[p.band]++

	for _, shift := range p.shifts {
		if !s.oracle.SmallPrime(digitsum.PowerOfTwoSum(v, shift)) {
			return false
		}
		s.stats.Gates[shift-1]++
	}
	for _, t := range p.tables {
		if !s.oracle.SmallPrime(t.Sum(v)) {
			return false
		}
	}
	s.stats.Sums++

	if !s.tester.IsPrime(v) {
		return false
	}
	s.stats.Primes++
	return true
}

// Qualifies reports whether v passes the full test at radix, outside any scan
func (s *Scanner) Qualifies(v uint64, radix uint32) (bool, error) {
	p, err := newPlan(s.oracle, radix)
	if err != nil {
		return false, err
	}
	return s.passes(v, &p), nil
}
