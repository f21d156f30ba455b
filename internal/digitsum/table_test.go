package digitsum

import (
	"context"
	"math/bits"
	"testing"

	perr "github.com/rowett/primedigitsum/internal/platform/errors"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNewTable_EntriesMatchSum(t *testing.T) {
	for _, radix := range []uint32{2, 3, 7, 10, 16, 31, 50} {
		table, err := NewTable(radix, GroupDigits)
		require.NoError(t, err)

		r := uint64(radix)
		assert.Equal(t, int(r*r*r*r), table.Len())
		assert.Equal(t, radix, table.Radix())

		for g := 0; g < table.Len(); g += 1 + table.Len()/5000 {
			if got, want := uint64(table.At(uint64(g))), Sum(uint64(g), radix); got != want {
				t.Fatalf("radix %d group %d: got %d, want %d", radix, g, got, want)
			}
		}
		// last entry is all (radix-1) digits
		assert.Equal(t, uint8(4*(radix-1)), table.At(uint64(table.Len()-1)))
	}
}

func TestNewTable_InvalidArguments(t *testing.T) {
	tests := []struct {
		name   string
		radix  uint32
		digits int
	}{
		{name: "radix too small", radix: 1, digits: 4},
		{name: "radix too large", radix: 51, digits: 4},
		{name: "zero digits", radix: 10, digits: 0},
		{name: "byte overflow", radix: 50, digits: 6},
		{name: "size limit", radix: 3, digits: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.radix, tt.digits)
			require.Error(t, err)
			assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument))
		})
	}
}

func TestTable_Sum(t *testing.T) {
	table, err := NewTable(10, GroupDigits)
	require.NoError(t, err)

	assert.Equal(t, uint64(0), table.Sum(0))
	assert.Equal(t, uint64(17), table.Sum(2663))
	assert.Equal(t, uint64(1), table.Sum(10000))
	assert.Equal(t, Sum(18446744073709551615, 10), table.Sum(18446744073709551615))
}

func TestBuildTables(t *testing.T) {
	ts, err := BuildTables(context.Background(), 12, GroupDigits, 3)
	require.NoError(t, err)

	assert.Equal(t, uint32(12), ts.MaxRadix())
	assert.Equal(t, GroupDigits, ts.GroupDigits())
	assert.Nil(t, ts.Table(1))
	assert.Nil(t, ts.Table(13))

	want := uint64(13) * (bits.UintSize / 8)
	for r := uint32(2); r <= 12; r++ {
		table := ts.Table(r)
		require.NotNil(t, table, "radix %d", r)
		assert.Equal(t, r, table.Radix())
		want += uint64(r * r * r * r)
	}
	assert.Equal(t, want, ts.Bytes())
}

func TestBuildTables_Idempotent(t *testing.T) {
	first, err := BuildTables(context.Background(), 20, GroupDigits, 1)
	require.NoError(t, err)
	second, err := BuildTables(context.Background(), 20, GroupDigits, 0)
	require.NoError(t, err)

	assert.Equal(t, first.Bytes(), second.Bytes())
	for r := uint32(2); r <= 20; r++ {
		if diff := cmp.Diff(first.Table(r).sums, second.Table(r).sums); diff != "" {
			t.Fatalf("radix %d tables differ (-first +second):\n%s", r, diff)
		}
	}
}

func TestBuildTables_Errors(t *testing.T) {
	_, err := BuildTables(context.Background(), 51, GroupDigits, 2)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument))

	_, err = BuildTables(context.Background(), 10, 0, 2)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = BuildTables(ctx, 10, GroupDigits, 2)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeUnavailable))
}

func TestPrimeSet(t *testing.T) {
	ps, err := NewPrimeSet(50)
	require.NoError(t, err)

	assert.Equal(t, 589, ps.Len())
	assert.Equal(t, uint32(50), ps.MaxRadix())
	for _, p := range []uint64{2, 3, 5, 7, 11, 13, 587} {
		assert.True(t, ps.Contains(p), "%d", p)
	}
	for _, c := range []uint64{0, 1, 4, 9, 588, 589, 10_000} {
		assert.False(t, ps.Contains(c), "%d", c)
	}
	assert.True(t, ps.Covers(50))
	assert.False(t, ps.Covers(51))

	small, err := NewPrimeSet(2)
	require.NoError(t, err)
	// a uint64 of all ones has binary digit sum 64, which must be addressable
	assert.Equal(t, 65, small.Len())
	assert.False(t, small.Covers(3))

	_, err = NewPrimeSet(1)
	assert.Error(t, err)
}

func TestPrimeSet_Idempotent(t *testing.T) {
	a, err := NewPrimeSet(37)
	require.NoError(t, err)
	b, err := NewPrimeSet(37)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(a.set, b.set))
}
