package regheap

import (
	"fmt"
	"math"
)

// Range is the support of a random modifiable. Infinite ends are unbounded.
type Range struct {
	Lower float64
	Upper float64
}

func Unbounded() Range {
	return Range{
		Lower: math.Inf(-1),
		Upper: math.Inf(1),
	}
}

func (r Range) validate() error {
	if math.IsNaN(r.Lower) || math.IsNaN(r.Upper) || r.Lower >= r.Upper {
		return fmt.Errorf("range %v: %w", r, ErrBadRange)
	}
	return nil
}

func (r Range) Contains(x float64) bool {
	return x >= r.Lower && x <= r.Upper
}

// Reflect folds x back into r by mirroring at the ends.
// Proposals reflected this way stay symmetric.
func (r Range) Reflect(x float64) float64 {
	if math.IsNaN(x) || r.Contains(x) {
		return x
	}
	lowerOpen := math.IsInf(r.Lower, -1)
	upperOpen := math.IsInf(r.Upper, 1)
	switch {
	case lowerOpen:
		return 2*r.Upper - x
	case upperOpen:
		return 2*r.Lower - x
	}
	width := r.Upper - r.Lower
	d := math.Mod(x-r.Lower, 2*width)
	if d < 0 {
		d += 2 * width
	}
	if d > width {
		d = 2*width - d
	}
	return r.Lower + d
}

func (r Range) String() string {
	return fmt.Sprintf("[%g, %g]", r.Lower, r.Upper)
}

// RandomModifiable is a modifiable that proposals may change.
// Rate weighs how often it is proposed relative to the others.
type RandomModifiable struct {
	Reg   int
	Range Range
	Rate  float64
}
