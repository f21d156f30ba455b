package search

import (
	"github.com/rowett/primedigitsum/internal/digitsum"
	perr "github.com/rowett/primedigitsum/internal/platform/errors"
)

// Candidates are 30k+1, 30k+7, ... the residues coprime to 30.
// The walk starts at 30k+7 and cycles through these gaps.
var wheel = [8]uint64{4, 2, 4, 2, 4, 6, 2, 6}

const (
	wheelStart = 7
	wheelSpan  = 30
)

// ErrMisaligned is returned when a scan cursor is not of the form 30k+7
var ErrMisaligned = perr.New(perr.ErrorCodeInvalidArgument, "scan start must be 7 modulo 30")

// Aligned reports whether v is a valid scan cursor
func Aligned(v uint64) bool { return v%wheelSpan == wheelStart }

// AlignDown returns the largest cursor 30k+7 not above v, or 7 when v < 7
func AlignDown(v uint64) uint64 {
	if v < wheelStart {
		return wheelStart
	}
	return v - (v-wheelStart)%wheelSpan
}

// Band groups radixes for reporting
type Band int

const (
	// BandSub16 covers radixes below 16
	BandSub16 Band = iota
	// Band16To31 covers radixes 16 to 31
	Band16To31
	// Band32Plus covers radixes 32 and above
	Band32Plus
)

// String returns the band's metric label
func (b Band) String() string {
	switch b {
	case BandSub16:
		return "sub16"
	case Band16To31:
		return "16to31"
	default:
		return "32plus"
	}
}

// BandOf returns the reporting band of radix
func BandOf(radix uint32) Band {
	switch {
	case radix < 16:
		return BandSub16
	case radix < 32:
		return Band16To31
	default:
		return Band32Plus
	}
}

// plan is the cascade for one radix: bit plane gates, then tables
type plan struct {
	radix  uint32
	band   Band
	shifts []uint
	tables []*digitsum.Table
}

// CheckOrder returns the radixes tested for a candidate at radix, in the
// order the cascade tests them.
func CheckOrder(radix uint32) []uint32 {
	var order []uint32
	for p := uint32(2); p <= radix && p <= 1<<digitsum.MaxShift; p <<= 1 {
		order = append(order, p)
	}

	add := func(r uint32) {
		if r >= digitsum.MinRadix && !digitsum.IsPowerOfTwo(r) {
			order = append(order, r)
		}
	}
	if radix < 32 {
		for r := radix; r > 2; r-- {
			add(r)
		}
		return order
	}

	even, odd := radix, radix
	if radix%2 == 1 {
		even--
	} else {
		odd--
	}
	for r := even; r > 2; r -= 2 {
		add(r)
	}
	for r := odd; r > 2; r -= 2 {
		add(r)
	}
	return order
}

func newPlan(o *digitsum.Oracle, radix uint32) (plan, error) {
	if o == nil || radix < digitsum.MinRadix || radix > o.MaxRadix() {
		return plan{}, perr.WithField(digitsum.ErrOracleUninitialized, "radix")
	}

	p := plan{radix: radix, band: BandOf(radix)}
	for _, r := range CheckOrder(radix) {
		if digitsum.IsPowerOfTwo(r) {
			p.shifts = append(p.shifts, digitsum.Shift(r))
			continue
		}
		p.tables = append(p.tables, o.Table(r))
	}
	return p, nil
}
