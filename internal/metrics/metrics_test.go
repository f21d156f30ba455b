package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_ObserveScan(t *testing.T) {
	r := NewRecorder()

	r.ObserveScan(Scan{
		Band:     "sub16",
		Radix:    5,
		Checks:   100,
		Gates:    [5]uint64{40, 12, 0, 0, 0},
		Sums:     3,
		Primes:   1,
		Found:    true,
		Duration: 5 * time.Millisecond,
	})
	r.ObserveScan(Scan{Band: "sub16", Checks: 50, Gates: [5]uint64{20, 0, 0, 0, 0}})

	assert.Equal(t, 150.0, testutil.ToFloat64(r.candidates.WithLabelValues("sub16")))
	assert.Equal(t, 60.0, testutil.ToFloat64(r.gatePassed.WithLabelValues("2")))
	assert.Equal(t, 12.0, testutil.ToFloat64(r.gatePassed.WithLabelValues("4")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.survivors.WithLabelValues("digit_sums")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.survivors.WithLabelValues("prime")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.scanDuration))
}

func TestRecorder_Gauges(t *testing.T) {
	r := NewRecorder()
	r.SetTableBytes(65666664)
	r.ObserveMatch(13)

	assert.Equal(t, 65666664.0, testutil.ToFloat64(r.tableBytes))
	assert.Equal(t, 13.0, testutil.ToFloat64(r.highestMatch))
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.ObserveScan(Scan{Band: "32plus", Checks: 7})

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `dsearch_scan_candidates_total{band="32plus"} 7`)
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	r.ObserveScan(Scan{Checks: 1})
	r.ObserveMatch(3)
	r.SetTableBytes(1)
	assert.Nil(t, r.Registry())

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
