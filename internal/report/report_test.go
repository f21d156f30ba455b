package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowett/primedigitsum/internal/search"
)

var (
	r2663 = search.Result{
		Radix:     13,
		Value:     2663,
		DigitSums: []uint64{7, 11, 11, 11, 13, 11, 17, 23, 17, 3, 23, 23},
	}
	r892747 = search.Result{
		Radix:     15,
		Value:     892747,
		DigitSums: []uint64{13, 11, 19, 19, 17, 19, 23, 19, 37, 37, 31, 31, 37, 37},
	}
)

func TestPrinter_Lines(t *testing.T) {
	p := NewPrinter("")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			name: "header",
			got:  p.Header(search.Request{Start: 1, End: 1_000_000, MinRadix: 2, MaxRadix: 5}),
			want: "Searching from 1 to 1,000,000 from base 2 to 5",
		},
		{
			name: "tables",
			got:  p.Tables(4, 3, 2048),
			want: "Lookup cache for 4 digit sums for radix 2 to 3 = 2,048 bytes (2.0 KiB)",
		},
		{
			name: "primes",
			got:  p.Primes(588),
			want: "Cached primes up to 588",
		},
		{
			name: "result",
			got:  p.Result(r892747),
			want: "14: [892,747]  13 11 19 19 17 19 23 19 37 37 31 31 37 37",
		},
		{
			name: "no match without any",
			got:  p.NoMatch(0),
			want: "No matches after -- primes",
		},
		{
			name: "no match after radix 13",
			got:  p.NoMatch(13),
			want: "No matches after 12 primes",
		},
		{
			name: "elapsed",
			got:  p.Elapsed(1500 * time.Millisecond),
			want: "Time: 1.50 seconds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestPrinter_Stats(t *testing.T) {
	out := NewPrinter("en").Stats(search.Stats{
		Checks: 1234567,
		Gates:  [5]uint64{1000, 500, 250, 0, 0},
		Sums:   12,
		Primes: 3,
		Bands:  [3]uint64{1234567, 0, 0},
	})

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 11)
	assert.Equal(t, "Checks: 1,234,567", lines[0])
	assert.Equal(t, "Gate2:  1,000", lines[4])
	assert.Equal(t, "Primes: 3", lines[10])
}

func TestLine(t *testing.T) {
	assert.Equal(t, "12: 2663 7 11 11 11 13 11 17 23 17 3 23 23", Line(r2663))
}

func TestParseLine(t *testing.T) {
	got, err := ParseLine(Line(r2663))
	require.NoError(t, err)
	assert.Equal(t, r2663, got)

	bad := []string{
		"no colon",
		"x: 5 2",
		"0: 5",
		"2:",
		"2: five 1 2",
		"2: 5 1 x",
		"2: 5 1",
	}
	for _, line := range bad {
		_, err := ParseLine(line)
		assert.Error(t, err, "%q", line)
	}
}

func TestWriteTextFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		results   []search.Result
		wantLines int
	}{
		{name: "two results", results: []search.Result{r2663, r892747}, wantLines: 2},
		{name: "empty", results: nil, wantLines: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "results.txt")
			require.NoError(t, WriteTextFile(tt.results, path))

			content, err := os.ReadFile(path)
			require.NoError(t, err)
			if tt.wantLines == 0 {
				assert.Empty(t, content)
				return
			}
			assert.Equal(t, byte('\n'), content[len(content)-1])
			assert.Len(t, strings.Split(strings.TrimSpace(string(content)), "\n"), tt.wantLines)
		})
	}
}

func TestWriteTextFile_InvalidPath(t *testing.T) {
	err := WriteTextFile([]search.Result{r2663}, "/nonexistent/directory/results.txt")
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.txt")
	require.NoError(t, WriteTextFile([]search.Result{r2663, r892747}, path))

	// blank lines are tolerated
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []search.Result{r2663, r892747}, got)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "corrupt.txt")
	require.NoError(t, os.WriteFile(path, []byte(Line(r2663)+"\n3: 5 1\n"), 0644))
	_, err = LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ":2:")
}
