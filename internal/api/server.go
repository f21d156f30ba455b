package api

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/rowett/primedigitsum/internal/digitsum"
	"github.com/rowett/primedigitsum/internal/metrics"
	perr "github.com/rowett/primedigitsum/internal/platform/errors"
	"github.com/rowett/primedigitsum/internal/platform/logger"
	"github.com/rowett/primedigitsum/internal/primality"
	"github.com/rowett/primedigitsum/internal/search"
	"github.com/rowett/primedigitsum/internal/store"
)

// Error is the body of every failed response
type Error struct {
	Error string `json:"error"`
}

// Server serves known ds(n) values and bounded searches.
// The oracle is shared read-only; each search gets its own Searcher.
type Server struct {
	db       *sql.DB
	oracle   *digitsum.Oracle
	recorder *metrics.Recorder
	maxSpan  uint64
	log      *logger.Logger
}

// NewServer returns a ServerInterface backed by db and oracle.
// Searches covering more than maxSpan values are refused.
func NewServer(db *sql.DB, oracle *digitsum.Oracle, recorder *metrics.Recorder, maxSpan uint64) ServerInterface {
	return &Server{
		db:       db,
		oracle:   oracle,
		recorder: recorder,
		maxSpan:  maxSpan,
		log:      logger.Named("api"),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := perr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, Error{Error: err.Error()})
}

func toDSValue(r search.Result) DSValue {
	return DSValue{N: r.N(), Radix: r.Radix, Value: r.Value, DigitSums: r.DigitSums}
}

// ListKnown handles GET /ds
func (s *Server) ListKnown(w http.ResponseWriter, r *http.Request) {
	results, err := store.KnownValues(s.db)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	values := make([]DSValue, len(results))
	for i, res := range results {
		values[i] = toDSValue(res)
	}
	writeJSON(w, http.StatusOK, values)
}

// GetKnown handles GET /ds/{n}
func (s *Server) GetKnown(w http.ResponseWriter, r *http.Request, n uint32) {
	if n < 1 || n >= digitsum.MaxRadix {
		s.writeError(w, r, perr.WithField(perr.InvalidArgf("n must be in the range 1 to %d", digitsum.MaxRadix-1), "n"))
		return
	}

	res, err := store.KnownValue(s.db, n)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDSValue(res))
}

// GetDigitSums handles GET /digitsums/{value}
func (s *Server) GetDigitSums(w http.ResponseWriter, r *http.Request, value uint64, params GetDigitSumsParams) {
	maxRadix := s.oracle.MaxRadix()
	if params.MaxRadix != nil {
		maxRadix = *params.MaxRadix
	}
	if maxRadix < digitsum.MinRadix || maxRadix > s.oracle.MaxRadix() {
		s.writeError(w, r, perr.WithField(
			perr.InvalidArgf("maxRadix must be in the range %d to %d", digitsum.MinRadix, s.oracle.MaxRadix()), "maxRadix"))
		return
	}

	report := DigitSumReport{
		Value:    value,
		Prime:    primality.IsPrime(value),
		MaxRadix: maxRadix,
		AllPrime: true,
		Sums:     make([]BaseSum, 0, maxRadix-1),
	}
	for radix := digitsum.MinRadix; radix <= maxRadix; radix++ {
		sum, err := s.oracle.DigitSum(value, radix)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		prime := s.oracle.SmallPrime(sum)
		report.AllPrime = report.AllPrime && prime
		report.Sums = append(report.Sums, BaseSum{Radix: radix, Sum: sum, Prime: prime})
	}
	report.Qualifies = report.Prime && report.AllPrime

	writeJSON(w, http.StatusOK, report)
}

// RunSearch handles POST /search
func (s *Server) RunSearch(w http.ResponseWriter, r *http.Request) {
	var req search.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Error{Error: "Invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if span := req.End - req.Start; span > s.maxSpan {
		s.writeError(w, r, perr.WithField(perr.InvalidArgf("search span %d exceeds the limit of %d", span, s.maxSpan), "end"))
		return
	}
	if req.MaxRadix > s.oracle.MaxRadix() {
		s.writeError(w, r, perr.WithField(
			perr.InvalidArgf("maxRadix must not exceed %d", s.oracle.MaxRadix()), "maxRadix"))
		return
	}

	searcher := search.New(s.oracle,
		search.WithLogger(logger.Named("search")),
		search.WithMetrics(s.recorder))
	out, err := searcher.Run(r.Context(), req, nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	runID, err := store.RecordRun(s.db, req, out)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{RunID: runID, Outcome: out})
}

// GetMetrics handles GET /metrics
func (s *Server) GetMetrics(w http.ResponseWriter, r *http.Request) {
	s.recorder.Handler().ServeHTTP(w, r)
}
