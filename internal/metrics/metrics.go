// Package metrics exposes the search cascade counters as Prometheus metrics.
//
// Counters are accumulated per scan by the scanner itself and published here
// once the scan returns, so the per-candidate loop never touches a metric.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dsearch"

// GateRadixes lists the power-of-two gates in cascade order
var GateRadixes = [5]uint32{2, 4, 8, 16, 32}

// Scan is the summary of one radix scan
type Scan struct {
	Band     string
	Radix    uint32
	Checks   uint64
	Gates    [5]uint64
	Sums     uint64
	Primes   uint64
	Found    bool
	Duration time.Duration
}

// Recorder owns a private registry and the search metrics registered on it.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	reg *prometheus.Registry

	candidates   *prometheus.CounterVec
	gatePassed   *prometheus.CounterVec
	survivors    *prometheus.CounterVec
	scanDuration *prometheus.HistogramVec
	tableBytes   prometheus.Gauge
	highestMatch prometheus.Gauge
}

// NewRecorder registers the search metrics on a fresh registry
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	f := promauto.With(reg)

	return &Recorder{
		reg: reg,

		// candidates counts values tested by the cascade.
		// Labels: band (sub16, 16to31, 32plus)
		candidates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "candidates_total",
			Help:      "Candidates tested by the digit sum cascade",
		}, []string{"band"}),

		// gatePassed counts candidates surviving each power-of-two gate.
		// Labels: gate (2, 4, 8, 16, 32)
		gatePassed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cascade",
			Name:      "gate_passed_total",
			Help:      "Candidates whose digit sum in the gate radix is prime",
		}, []string{"gate"}),

		// survivors counts candidates reaching the late stages.
		// Labels: stage (digit_sums, prime)
		survivors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cascade",
			Name:      "survivors_total",
			Help:      "Candidates passing every digit sum stage, and those also prime",
		}, []string{"stage"}),

		// scanDuration measures one radix scan.
		// Labels: band, outcome (found, exhausted)
		scanDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Time spent scanning a range for one radix",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 12),
		}, []string{"band", "outcome"}),

		tableBytes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tables",
			Name:      "bytes",
			Help:      "Memory held by the digit sum lookup tables",
		}),

		highestMatch: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "highest_matched_radix",
			Help:      "Largest radix for which a qualifying prime was found",
		}),
	}
}

// Registry returns the recorder's registry
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ObserveScan publishes the counters of one scan
func (r *Recorder) ObserveScan(s Scan) {
	if r == nil {
		return
	}
	r.candidates.WithLabelValues(s.Band).Add(float64(s.Checks))
	for i, n := range s.Gates {
		if n > 0 {
			r.gatePassed.WithLabelValues(strconv.Itoa(int(GateRadixes[i]))).Add(float64(n))
		}
	}
	r.survivors.WithLabelValues("digit_sums").Add(float64(s.Sums))
	r.survivors.WithLabelValues("prime").Add(float64(s.Primes))

	outcome := "exhausted"
	if s.Found {
		outcome = "found"
	}
	r.scanDuration.WithLabelValues(s.Band, outcome).Observe(s.Duration.Seconds())
}

// ObserveMatch records that radix produced a match
func (r *Recorder) ObserveMatch(radix uint32) {
	if r == nil {
		return
	}
	r.highestMatch.Set(float64(radix))
}

// SetTableBytes records the size of the lookup tables
func (r *Recorder) SetTableBytes(n uint64) {
	if r == nil {
		return
	}
	r.tableBytes.Set(float64(n))
}
