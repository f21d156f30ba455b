// Package store keeps completed search runs and their results in SQLite.
//
// uint64 values are stored as zero-padded decimal TEXT: the driver cannot bind
// integers above 2^63-1, and the padding keeps text order equal to numeric order.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	perr "github.com/rowett/primedigitsum/internal/platform/errors"
	"github.com/rowett/primedigitsum/internal/search"
)

// ErrNotFound is returned when no stored result answers a query
var ErrNotFound = perr.New(perr.ErrorCodeNotFound, "result not found")

// completeStart is the largest start for which a run's results are ds values
const completeStart = 3

const (
	DropSchema = `
		DROP TABLE IF EXISTS results;
		DROP TABLE IF EXISTS runs;
	`

	CreateSchema = `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			start_value TEXT NOT NULL,
			end_value TEXT NOT NULL,
			min_radix INTEGER NOT NULL,
			max_radix INTEGER NOT NULL,
			last_match INTEGER NOT NULL,
			exhausted_radix INTEGER,
			checks TEXT NOT NULL,
			elapsed_ms INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS results (
			run_id TEXT NOT NULL,
			radix INTEGER NOT NULL,
			value TEXT NOT NULL,
			digit_sums TEXT NOT NULL,
			FOREIGN KEY (run_id) REFERENCES runs(id),
			PRIMARY KEY (run_id, radix)
		);

		CREATE INDEX IF NOT EXISTS results_radix_value ON results (radix, value);
	`
)

// Run is a stored search run
type Run struct {
	ID             string          `json:"id"`
	CreatedAt      time.Time       `json:"createdAt"`
	Request        search.Request  `json:"request"`
	LastMatch      uint32          `json:"lastMatch"`
	Exhausted      bool            `json:"exhausted"`
	ExhaustedRadix uint32          `json:"exhaustedRadix,omitempty"`
	Checks         uint64          `json:"checks"`
	Elapsed        time.Duration   `json:"elapsed"`
	Results        []search.Result `json:"results"`
}

// InitDB initializes and returns a SQLite database connection
func InitDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, perr.DBf(err, "failed to open database")
	}

	if err := db.Ping(); err != nil {
		return nil, perr.DBf(err, "failed to ping database")
	}

	return db, nil
}

// EnsureSchema creates any missing tables
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(CreateSchema); err != nil {
		return perr.DBf(err, "failed to create schema")
	}
	return nil
}

// Reset drops and recreates every table
func Reset(db *sql.DB) error {
	if _, err := db.Exec(DropSchema); err != nil {
		return perr.DBf(err, "failed to drop tables")
	}
	return EnsureSchema(db)
}

func encodeUint(v uint64) string { return fmt.Sprintf("%020d", v) }

func decodeUint(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, perr.DBf(err, "corrupt stored value %q", s)
	}
	return v, nil
}

func encodeSums(sums []uint64) string {
	parts := make([]string, len(sums))
	for i, s := range sums {
		parts[i] = strconv.FormatUint(s, 10)
	}
	return strings.Join(parts, " ")
}

func decodeSums(s string) ([]uint64, error) {
	fields := strings.Fields(s)
	sums := make([]uint64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return nil, perr.DBf(err, "corrupt stored digit sums %q", s)
		}
		sums[i] = v
	}
	return sums, nil
}

// RecordRun stores a finished search and its results, returning the run id
func RecordRun(db *sql.DB, req search.Request, out search.Outcome) (string, error) {
	runID := uuid.New().String()

	tx, err := db.Begin()
	if err != nil {
		return "", perr.DBf(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var exhausted sql.NullInt64
	if out.Exhausted {
		exhausted = sql.NullInt64{Int64: int64(out.ExhaustedRadix), Valid: true}
	}

	insertRun := `INSERT INTO runs
		(id, start_value, end_value, min_radix, max_radix, last_match, exhausted_radix, checks, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.Exec(insertRun, runID, encodeUint(req.Start), encodeUint(req.End),
		req.MinRadix, req.MaxRadix, out.LastMatch, exhausted,
		encodeUint(out.Stats.Checks), out.Elapsed.Milliseconds()); err != nil {
		return "", perr.DBf(err, "failed to insert run")
	}

	insertResult := `INSERT INTO results (run_id, radix, value, digit_sums) VALUES (?, ?, ?, ?)`
	for _, r := range out.Results {
		if _, err := tx.Exec(insertResult, runID, r.Radix, encodeUint(r.Value), encodeSums(r.DigitSums)); err != nil {
			return "", perr.DBf(err, "failed to insert result for radix %d", r.Radix)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", perr.DBf(err, "failed to commit transaction")
	}

	return runID, nil
}

// knownQuery picks the smallest value per radix over runs that started low
// enough to be exhaustive. SQLite fills the bare digit_sums column from the
// row holding MIN(value).
const knownQuery = `
	SELECT r.radix, MIN(r.value), r.digit_sums
	FROM results r JOIN runs u ON u.id = r.run_id
	WHERE u.start_value <= ?`

func scanResult(rows interface{ Scan(...any) error }) (search.Result, error) {
	var (
		radix       uint32
		value, sums string
	)
	if err := rows.Scan(&radix, &value, &sums); err != nil {
		return search.Result{}, perr.DBf(err, "failed to scan result")
	}

	v, err := decodeUint(value)
	if err != nil {
		return search.Result{}, err
	}
	ds, err := decodeSums(sums)
	if err != nil {
		return search.Result{}, err
	}
	return search.Result{Radix: radix, Value: v, DigitSums: ds}, nil
}

// KnownValues returns ds(n) for every radix answered by a complete run, by radix
func KnownValues(db *sql.DB) ([]search.Result, error) {
	rows, err := db.Query(knownQuery+` GROUP BY r.radix ORDER BY r.radix`, encodeUint(completeStart))
	if err != nil {
		return nil, perr.DBf(err, "failed to query known values")
	}
	defer rows.Close()

	var results []search.Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, perr.DBf(err, "error iterating known values")
	}

	return results, nil
}

// KnownValue returns ds(n), or ErrNotFound
func KnownValue(db *sql.DB, n uint32) (search.Result, error) {
	row := db.QueryRow(knownQuery+` AND r.radix = ? GROUP BY r.radix`, encodeUint(completeStart), n+1)

	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return search.Result{}, perr.WithField(ErrNotFound, "n")
	}
	return r, err
}

// GetRun fetches a run with its results, or ErrNotFound
func GetRun(db *sql.DB, id string) (Run, error) {
	query := `SELECT id, created_at, start_value, end_value, min_radix, max_radix,
		last_match, exhausted_radix, checks, elapsed_ms FROM runs WHERE id = ?`

	var (
		run              Run
		start, end, chks string
		exhausted        sql.NullInt64
		elapsedMS        int64
	)
	err := db.QueryRow(query, id).Scan(&run.ID, &run.CreatedAt, &start, &end,
		&run.Request.MinRadix, &run.Request.MaxRadix, &run.LastMatch, &exhausted, &chks, &elapsedMS)
	if err == sql.ErrNoRows {
		return Run{}, perr.WithField(ErrNotFound, "id")
	}
	if err != nil {
		return Run{}, perr.DBf(err, "failed to query run")
	}

	if run.Request.Start, err = decodeUint(start); err != nil {
		return Run{}, err
	}
	if run.Request.End, err = decodeUint(end); err != nil {
		return Run{}, err
	}
	if run.Checks, err = decodeUint(chks); err != nil {
		return Run{}, err
	}
	run.Exhausted = exhausted.Valid
	run.ExhaustedRadix = uint32(exhausted.Int64)
	run.Elapsed = time.Duration(elapsedMS) * time.Millisecond

	rows, err := db.Query(`SELECT radix, value, digit_sums FROM results WHERE run_id = ? ORDER BY radix`, id)
	if err != nil {
		return Run{}, perr.DBf(err, "failed to query results")
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return Run{}, err
		}
		run.Results = append(run.Results, r)
	}
	if err := rows.Err(); err != nil {
		return Run{}, perr.DBf(err, "error iterating results")
	}

	return run, nil
}
