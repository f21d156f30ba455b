package digitsum

import (
	"context"
	"fmt"
	"math"
	"math/bits"
	"runtime"

	perr "github.com/rowett/primedigitsum/internal/platform/errors"

	"golang.org/x/sync/errgroup"
)

// maxTableEntries caps a single table so a bad groupDigits cannot ask for an absurd allocation
const maxTableEntries = 1 << 32

// Table holds the base-radix digit sum of every value below radix^digits
type Table struct {
	radix uint32
	group uint64
	sums  []uint8
}

// NewTable builds the lookup table for radix with groups of digits digits
func NewTable(radix uint32, digits int) (*Table, error) {
	if !ValidRadix(radix) {
		return nil, perr.InvalidArgf("radix %d outside %d..%d", radix, MinRadix, MaxRadix)
	}
	if digits < 1 {
		return nil, perr.InvalidArgf("group digits must be positive, got %d", digits)
	}

	// every entry must fit a uint8 sum
	if uint64(digits)*uint64(radix-1) > math.MaxUint8 {
		return nil, perr.InvalidArgf("%d digits of radix %d overflow a byte-sized digit sum", digits, radix)
	}

	group := uint64(1)
	for i := 0; i < digits; i++ {
		group *= uint64(radix)
		if group > maxTableEntries {
			return nil, perr.InvalidArgf("%d digits of radix %d exceed the table size limit", digits, radix)
		}
	}

	sums := make([]uint8, group)
	r := uint64(radix)
	for g := uint64(1); g < group; g++ {
		// the sum of g is the sum of g without its last digit plus that digit
		q := g / r
		sums[g] = sums[q] + uint8(g-q*r)
	}

	return &Table{radix: radix, group: group, sums: sums}, nil
}

// Radix returns the table's radix
func (t *Table) Radix() uint32 { return t.radix }

// Len returns the number of entries, radix^digits
func (t *Table) Len() int { return len(t.sums) }

// At returns the digit sum of the group value g
func (t *Table) At(g uint64) uint8 { return t.sums[g] }

// Sum returns the digit sum of value, one table lookup per group of digits
func (t *Table) Sum(value uint64) uint64 {
	var sum uint64
	for {
		q := value / t.group
		sum += uint64(t.sums[value-q*t.group])
		value = q
		if value == 0 {
			return sum
		}
	}
}

// Tables holds one Table per radix from MinRadix to a maximum radix
type Tables struct {
	digits   int
	maxRadix uint32
	byRadix  []*Table
	bytes    uint64
}

// Table returns the table for radix, or nil if radix is not covered
func (ts *Tables) Table(radix uint32) *Table {
	if ts == nil || radix < MinRadix || radix > ts.maxRadix {
		return nil
	}
	return ts.byRadix[radix]
}

// MaxRadix returns the largest covered radix
func (ts *Tables) MaxRadix() uint32 { return ts.maxRadix }

// GroupDigits returns the number of digits per lookup
func (ts *Tables) GroupDigits() int { return ts.digits }

// Bytes returns the memory held by the tables, including the per-radix index
func (ts *Tables) Bytes() uint64 { return ts.bytes }

// BuildTables builds the tables for every radix from MinRadix to maxRadix
// using a pool of workers, one job per radix.
// workers: number of parallel builders. If 0 or negative, uses runtime.NumCPU().
func BuildTables(ctx context.Context, maxRadix uint32, digits int, workers int) (*Tables, error) {
	if !ValidRadix(maxRadix) {
		return nil, perr.InvalidArgf("max radix %d outside %d..%d", maxRadix, MinRadix, MaxRadix)
	}

	workerPoolSize := workers
	if workerPoolSize <= 0 {
		workerPoolSize = runtime.NumCPU()
	}

	numJobs := int(maxRadix - MinRadix + 1)
	radixes := make(chan uint32, numJobs)
	results := make(chan *Table, workerPoolSize)

	// Collect results in a separate goroutine
	ts := &Tables{
		digits:   digits,
		maxRadix: maxRadix,
		byRadix:  make([]*Table, maxRadix+1),
		bytes:    uint64(maxRadix+1) * (bits.UintSize / 8),
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for t := range results {
			ts.byRadix[t.radix] = t
			ts.bytes += uint64(len(t.sums))
		}
	}()

	// Start worker pool
	eg, egCtx := errgroup.WithContext(ctx)
	for w := 0; w < workerPoolSize; w++ {
		eg.Go(func() error {
			return buildTablesWorker(egCtx, digits, radixes, results)
		})
	}

	// Send all radixes to workers
	for r := MinRadix; r <= maxRadix; r++ {
		radixes <- r
	}
	close(radixes)

	// Wait for all workers before closing results so the collector sees every table
	err := eg.Wait()
	close(results)
	<-done

	if err != nil {
		return nil, err
	}
	return ts, nil
}

// buildTablesWorker builds tables for radixes until the channel drains or ctx is cancelled
func buildTablesWorker(ctx context.Context, digits int, radixes <-chan uint32, results chan<- *Table) error {
	for r := range radixes {
		if err := ctx.Err(); err != nil {
			return perr.Wrap(err, perr.ErrorCodeUnavailable, "table build cancelled")
		}
		t, err := NewTable(r, digits)
		if err != nil {
			return fmt.Errorf("failed to build table for radix %d: %w", r, err)
		}
		results <- t
	}
	return nil
}
