package main

import (
	"bytes"
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perr "github.com/rowett/primedigitsum/internal/platform/errors"
	"github.com/rowett/primedigitsum/internal/report"
	"github.com/rowett/primedigitsum/internal/search"
	"github.com/rowett/primedigitsum/internal/store"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		want     string
	}{
		{
			name:     "zero duration",
			duration: 0,
			want:     "0s",
		},
		{
			name:     "one second",
			duration: 1 * time.Second,
			want:     "1s",
		},
		{
			name:     "29 minutes 59 seconds",
			duration: 29*time.Minute + 59*time.Second,
			want:     "29m59s",
		},
		{
			name:     "159 minutes 59 seconds",
			duration: 159*time.Minute + 59*time.Second,
			want:     "159m59s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatElapsed(tt.duration)
			assert.Equal(t, tt.want, got, "formatElapsed should return expected format for %v", tt.duration)
		})
	}
}

func TestParseArgs(t *testing.T) {
	req, err := parseArgs([]string{"1", "18446744073709551615", "2", "50"})
	require.NoError(t, err)
	assert.Equal(t, search.Request{Start: 1, End: math.MaxUint64, MinRadix: 2, MaxRadix: 50}, req)

	tests := []struct {
		name  string
		args  []string
		field string
	}{
		{name: "negative start", args: []string{"-1", "10", "2", "5"}, field: "start"},
		{name: "end overflows", args: []string{"1", "18446744073709551616", "2", "5"}, field: "end"},
		{name: "word base", args: []string{"1", "10", "two", "5"}, field: "minbase"},
		{name: "base overflows", args: []string{"1", "10", "2", "4294967296"}, field: "maxbase"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs(tt.args)
			require.Error(t, err)
			e, ok := perr.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.field, e.Field())
		})
	}
}

func TestApplyProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: p.txt\nworkers: 3\nmetrics: true\nprimality: trial\n"), 0644))

	opts := options{configPath: path, output: "flag.txt", logLevel: "warn"}
	changed := func(name string) bool { return name == "output" }
	require.NoError(t, applyProfile(&opts, changed))

	assert.Equal(t, "flag.txt", opts.output)
	assert.Equal(t, 3, opts.workers)
	assert.True(t, opts.metrics)
	assert.Equal(t, "trial", opts.primality)
	assert.Equal(t, "warn", opts.logLevel)

	opts = options{configPath: filepath.Join(t.TempDir(), "missing.yaml")}
	assert.Error(t, applyProfile(&opts, changed))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_Search(t *testing.T) {
	dir := t.TempDir()
	resultsPath := filepath.Join(dir, "results.txt")
	dbPath := filepath.Join(dir, "ds.db")

	out, err := execute(t, "1", "1000", "2", "13", "--metrics", "--workers", "2",
		"--output", resultsPath, "--db", dbPath)
	require.NoError(t, err)

	assert.Contains(t, out, "Searching from 1 to 1,000 from base 2 to 13")
	assert.Contains(t, out, "Cached primes up to 216")
	assert.Contains(t, out, "4: [11]  3 3 5 3")
	assert.Contains(t, out, "10: [131] ")
	assert.Contains(t, out, "No matches after 10 primes")
	assert.Contains(t, out, "Checks: ")
	assert.Contains(t, out, "Time: ")

	results, err := report.LoadFile(resultsPath)
	require.NoError(t, err)
	require.Len(t, results, 10)
	assert.Equal(t, uint64(131), results[9].Value)

	db, err := store.InitDB(dbPath)
	require.NoError(t, err)
	defer db.Close()
	known, err := store.KnownValues(db)
	require.NoError(t, err)
	assert.Len(t, known, 10)
}

func TestRootCmd_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing args", args: []string{"1", "10"}},
		{name: "start after end", args: []string{"10", "1", "2", "5"}},
		{name: "base out of range", args: []string{"1", "10", "2", "51"}},
		{name: "bad primality", args: []string{"1", "10", "2", "3", "--primality", "guess"}},
		{name: "missing profile", args: []string{"1", "10", "2", "3", "--config", "/nonexistent/profile.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			assert.Error(t, err)
			assert.NotContains(t, out, "Building lookup tables")
		})
	}
}
