// Package report formats search results for terminals and result files
package report

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rowett/primedigitsum/internal/search"
)

// Printer groups digits the way an English locale does
type Printer struct {
	p *message.Printer
}

// NewPrinter returns a Printer for tag, or English when tag is empty
func NewPrinter(tag string) Printer {
	lang := language.English
	if tag != "" {
		if t, err := language.Parse(tag); err == nil {
			lang = t
		}
	}
	return Printer{p: message.NewPrinter(lang)}
}

// Header describes the search about to run
func (pr Printer) Header(req search.Request) string {
	return pr.p.Sprintf("Searching from %d to %d from base %d to %d", req.Start, req.End, req.MinRadix, req.MaxRadix)
}

// Tables describes the lookup tables and their size
func (pr Printer) Tables(digits int, maxRadix uint32, bytes uint64) string {
	return pr.p.Sprintf("Lookup cache for %d digit sums for radix 2 to %d = %d bytes (%s)",
		digits, maxRadix, bytes, humanize.IBytes(bytes))
}

// Primes describes the small prime set
func (pr Printer) Primes(largest int) string {
	return pr.p.Sprintf("Cached primes up to %d", largest)
}

// Result renders "n: [value]  s2 s3 ... sr"
func (pr Printer) Result(r search.Result) string {
	var b strings.Builder
	b.WriteString(pr.p.Sprintf("%d: [%d] ", r.N(), r.Value))
	for _, s := range r.DigitSums {
		b.WriteString(" ")
		b.WriteString(strconv.FormatUint(s, 10))
	}
	return b.String()
}

// NoMatch reports where a search ran out of range
func (pr Printer) NoMatch(lastMatch uint32) string {
	if lastMatch == 0 {
		return "No matches after -- primes"
	}
	return pr.p.Sprintf("No matches after %d primes", lastMatch-1)
}

// Elapsed renders the search time in seconds
func (pr Printer) Elapsed(d time.Duration) string {
	return pr.p.Sprintf("Time: %.2f seconds", d.Seconds())
}

// Stats renders the cascade counters, one per line
func (pr Printer) Stats(s search.Stats) string {
	rows := []struct {
		name string
		n    uint64
	}{
		{"Checks:", s.Checks},
		{"Sub16:", s.Bands[search.BandSub16]},
		{"Plus16:", s.Bands[search.Band16To31]},
		{"Plus32:", s.Bands[search.Band32Plus]},
		{"Gate2:", s.Gates[0]},
		{"Gate4:", s.Gates[1]},
		{"Gate8:", s.Gates[2]},
		{"Gate16:", s.Gates[3]},
		{"Gate32:", s.Gates[4]},
		{"Sums:", s.Sums},
		{"Primes:", s.Primes},
	}

	var b strings.Builder
	for _, r := range rows {
		b.WriteString(pr.p.Sprintf("%-7s %d\n", r.name, r.n))
	}
	return b.String()
}

// Line renders a result for a results file: "n: value s2 s3 ... sr"
func Line(r search.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d: %d", r.N(), r.Value)
	for _, s := range r.DigitSums {
		b.WriteString(" ")
		b.WriteString(strconv.FormatUint(s, 10))
	}
	return b.String()
}

// WriteTextFile writes one Line per result.
// A non-empty file ends with a newline.
func WriteTextFile(results []search.Result, outputPath string) error {
	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = Line(r)
	}

	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}

	if err := os.WriteFile(outputPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}

// ParseLine parses a line written by Line
func ParseLine(line string) (search.Result, error) {
	head, rest, ok := strings.Cut(line, ":")
	if !ok {
		return search.Result{}, fmt.Errorf("missing ':' in %q", line)
	}

	n, err := strconv.ParseUint(strings.TrimSpace(head), 10, 32)
	if err != nil || n == 0 {
		return search.Result{}, fmt.Errorf("bad n in %q", line)
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return search.Result{}, fmt.Errorf("missing value in %q", line)
	}
	value, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return search.Result{}, fmt.Errorf("bad value in %q: %w", line, err)
	}

	sums := make([]uint64, 0, len(fields)-1)
	for _, f := range fields[1:] {
		s, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return search.Result{}, fmt.Errorf("bad digit sum in %q: %w", line, err)
		}
		sums = append(sums, s)
	}
	if uint64(len(sums)) != n {
		return search.Result{}, fmt.Errorf("%q has %d digit sums, want %d", line, len(sums), n)
	}

	return search.Result{Radix: uint32(n) + 1, Value: value, DigitSums: sums}, nil
}

// LoadFile reads a results file written by WriteTextFile.
// Blank lines are skipped.
func LoadFile(filename string) ([]search.Result, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer f.Close()

	var results []search.Result
	scanner := bufio.NewScanner(f)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		r, err := ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", filename, lineNo, err)
		}
		results = append(results, r)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", filename, err)
	}

	return results, nil
}
