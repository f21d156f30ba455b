package digitsum

import (
	perr "github.com/rowett/primedigitsum/internal/platform/errors"
	"github.com/rowett/primedigitsum/internal/primality"
)

// PrimeSet records which digit sums are prime, up to the largest digit sum
// any uint64 can have in the covered radixes
type PrimeSet struct {
	maxRadix uint32
	set      []bool
}

// NewPrimeSet builds the set for every radix up to maxRadix
func NewPrimeSet(maxRadix uint32) (*PrimeSet, error) {
	if !ValidRadix(maxRadix) {
		return nil, perr.InvalidArgf("max radix %d outside %d..%d", maxRadix, MinRadix, MaxRadix)
	}

	var largest uint64
	for r := MinRadix; r <= maxRadix; r++ {
		largest = max(largest, LargestSum(r))
	}

	set := make([]bool, largest+1)
	for i := range set {
		set[i] = primality.TrialDivision(uint64(i))
	}

	return &PrimeSet{maxRadix: maxRadix, set: set}, nil
}

// Contains reports whether v is a prime within the set's range
func (p *PrimeSet) Contains(v uint64) bool {
	return v < uint64(len(p.set)) && p.set[v]
}

// Len returns the number of entries, one past the largest digit sum covered
func (p *PrimeSet) Len() int { return len(p.set) }

// Covers reports whether every digit sum of radix falls inside the set
func (p *PrimeSet) Covers(radix uint32) bool {
	return p != nil && ValidRadix(radix) && LargestSum(radix) < uint64(len(p.set))
}

// MaxRadix returns the largest radix the set was sized for
func (p *PrimeSet) MaxRadix() uint32 { return p.maxRadix }
