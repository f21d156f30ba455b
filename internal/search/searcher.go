// Package search finds ds(n), the smallest prime whose digit sums in every
// base 2..n+1 are all prime, by scanning a value range radix after radix.
//
// A search for radix r starts where the search for r-1 matched: a value that
// qualifies at r also qualifies at r-1, so results never decrease.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/rowett/primedigitsum/internal/digitsum"
	"github.com/rowett/primedigitsum/internal/metrics"
	perr "github.com/rowett/primedigitsum/internal/platform/errors"
	"github.com/rowett/primedigitsum/internal/platform/logger"
	"github.com/rowett/primedigitsum/internal/primality"
)

// Result is the smallest qualifying value for one radix
type Result struct {
	Radix     uint32   `json:"radix"`
	Value     uint64   `json:"value"`
	DigitSums []uint64 `json:"digitSums"` // bases 2..Radix
}

// N is the n of ds(n) this result answers
func (r Result) N() uint32 { return r.Radix - 1 }

// Outcome summarises a finished search
type Outcome struct {
	Results []Result `json:"results"`
	// LastMatch is the last radix with a match, 0 if none
	LastMatch      uint32        `json:"lastMatch"`
	Exhausted      bool          `json:"exhausted"`
	ExhaustedRadix uint32        `json:"exhaustedRadix,omitempty"`
	Stats          Stats         `json:"stats"`
	Elapsed        time.Duration `json:"elapsed"`
}

type settings struct {
	log      *logger.Logger
	recorder *metrics.Recorder
	progress func(string)
	strategy primality.Strategy
	workers  int
}

// Option configures a Searcher
type Option func(*settings)

// WithLogger sets the logger used for scan events
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithMetrics publishes scan counters to r
func WithMetrics(r *metrics.Recorder) Option {
	return func(s *settings) { s.recorder = r }
}

// WithProgress receives a line of text as each radix scan starts
func WithProgress(fn func(string)) Option {
	return func(s *settings) { s.progress = fn }
}

// WithStrategy selects the primality test for candidates
func WithStrategy(st primality.Strategy) Option {
	return func(s *settings) { s.strategy = st }
}

// WithWorkers sets the table build workers used by Search
func WithWorkers(n int) Option {
	return func(s *settings) { s.workers = n }
}

func newSettings(opts []Option) settings {
	s := settings{log: logger.Nop(), progress: func(string) {}}
	for _, opt := range opts {
		opt(&s)
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.progress == nil {
		s.progress = func(string) {}
	}
	return s
}

// Searcher drives scans over a shared read-only oracle.
// A Searcher is not safe for concurrent use; create one per search.
type Searcher struct {
	oracle  *digitsum.Oracle
	scanner *Scanner
	cfg     settings
}

// New returns a Searcher over o
func New(o *digitsum.Oracle, opts ...Option) *Searcher {
	cfg := newSettings(opts)
	return &Searcher{
		oracle:  o,
		scanner: NewScanner(o, primality.NewTester(cfg.strategy)),
		cfg:     cfg,
	}
}

// Oracle returns the searcher's oracle
func (s *Searcher) Oracle() *digitsum.Oracle { return s.oracle }

// Run validates req and searches each radix from req.MinRadix to req.MaxRadix
// in turn, calling emit for each match. The search stops at the first radix
// with no match in range; that is reported in the Outcome, not as an error.
func (s *Searcher) Run(ctx context.Context, req Request, emit func(Result)) (out Outcome, err error) {
	if err := req.Validate(); err != nil {
		return out, err
	}
	if s.oracle == nil || req.MaxRadix > s.oracle.MaxRadix() {
		return out, perr.WithField(digitsum.ErrOracleUninitialized, "maxRadix")
	}

	start := time.Now()
	defer func() { out.Elapsed = time.Since(start) }()

	found := func(radix uint32, v uint64) {
		res := Result{Radix: radix, Value: v, DigitSums: digitsum.Sums(v, radix)}
		out.Results = append(out.Results, res)
		out.LastMatch = radix
		s.cfg.recorder.ObserveMatch(radix)
		s.cfg.log.Info().Uint32("radix", radix).Uint64("value", v).Msg("match")
		if emit != nil {
			emit(res)
		}
	}

	radix, lo := req.MinRadix, req.Start

	// 3 and 5 are below the first wheel cursor
	for _, tiny := range [...]uint64{3, 5} {
		if tiny < req.Start || tiny > req.End {
			continue
		}
		for radix <= req.MaxRadix {
			s.scanner.ResetStats()
			ok, err := s.scanner.Qualifies(tiny, radix)
			out.Stats.Add(s.scanner.Stats())
			if err != nil {
				return out, err
			}
			if !ok {
				break
			}
			found(radix, tiny)
			lo = tiny
			radix++
		}
	}

	for ; radix <= req.MaxRadix; radix++ {
		s.cfg.progress(fmt.Sprintf("Searching radix %d from %d", radix, lo))
		s.cfg.log.Debug().Uint32("radix", radix).Uint64("from", lo).Uint64("to", req.End).Msg("scanning")

		s.scanner.ResetStats()
		scanStart := time.Now()
		v, ok, err := s.scanner.ScanFrom(ctx, lo, req.End, radix)
		stats := s.scanner.Stats()
		out.Stats.Add(stats)
		s.observe(radix, stats, ok, time.Since(scanStart))
		if err != nil {
			return out, err
		}

		if !ok {
			out.Exhausted = true
			out.ExhaustedRadix = radix
			s.cfg.log.Info().Uint32("radix", radix).Uint32("lastMatch", out.LastMatch).Msg("range exhausted")
			break
		}
		found(radix, v)
		lo = v
	}
	return out, nil
}

func (s *Searcher) observe(radix uint32, st Stats, found bool, d time.Duration) {
	s.cfg.recorder.ObserveScan(metrics.Scan{
		Band:     BandOf(radix).String(),
		Radix:    radix,
		Checks:   st.Checks,
		Gates:    st.Gates,
		Sums:     st.Sums,
		Primes:   st.Primes,
		Found:    found,
		Duration: d,
	})
}

// Search validates req, builds an oracle for req.MaxRadix and runs it.
// No table is built for an invalid request.
func Search(ctx context.Context, req Request, emit func(Result), opts ...Option) (Outcome, error) {
	if err := req.Validate(); err != nil {
		return Outcome{}, err
	}

	cfg := newSettings(opts)
	cfg.progress("Building digit sum tables")
	o, err := digitsum.Build(ctx, req.MaxRadix, cfg.workers)
	if err != nil {
		return Outcome{}, err
	}
	cfg.recorder.SetTableBytes(o.Tables().Bytes())

	return New(o, opts...).Run(ctx, req, emit)
}
