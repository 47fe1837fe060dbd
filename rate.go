package vrs

import (
	"fmt"

	"golang.org/x/text/cases"
)

// ShadingRate is the number of pixels covered by one shaded sample.
//
// The underlying value uses the hardware encoding shared by D3D12 and Vulkan
// fragment shading rate images: the log2 of the horizontal factor in bits 2-3
// and the log2 of the vertical factor in bits 0-1. This is also the byte
// stored per tile in a RateImage.
type ShadingRate uint8

const (
	Rate1x1 ShadingRate = 0x0
	Rate1x2 ShadingRate = 0x1
	Rate2x1 ShadingRate = 0x4
	Rate2x2 ShadingRate = 0x5
	Rate2x4 ShadingRate = 0x6
	Rate4x2 ShadingRate = 0x9
	Rate4x4 ShadingRate = 0xA
)

// RateCount is the number of distinct shading rates.
const RateCount = 7

// Rates lists every shading rate from finest to coarsest. The position of a
// rate in this slice is its index (see RateFromIndex).
var Rates = [RateCount]ShadingRate{
	Rate1x1, Rate1x2, Rate2x1, Rate2x2, Rate2x4, Rate4x2, Rate4x4,
}

// BaseRates is the rate set every tier-1 device supports.
var BaseRates = []ShadingRate{Rate1x1, Rate1x2, Rate2x1, Rate2x2}

var rateNames = [RateCount]string{"1x1", "1x2", "2x1", "2x2", "2x4", "4x2", "4x4"}

// String returns the rate name ("2x2").
func (r ShadingRate) String() string {
	if i := r.Index(); i >= 0 {
		return rateNames[i]
	}
	return fmt.Sprintf("ShadingRate(%#x)", uint8(r))
}

// Index returns the position of r in Rates, or -1 if r is not a valid rate.
func (r ShadingRate) Index() int {
	for i, v := range Rates {
		if v == r {
			return i
		}
	}
	return -1
}

// Valid reports whether r is one of the seven defined rates.
func (r ShadingRate) Valid() bool {
	return r.Index() >= 0
}

// IsAdditional reports whether r needs extended-rate support (2x4, 4x2, 4x4).
func (r ShadingRate) IsAdditional() bool {
	return r == Rate2x4 || r == Rate4x2 || r == Rate4x4
}

// Exponents returns the log2 shading factors along x and y.
func (r ShadingRate) Exponents() (ex, ey int) {
	return int(r>>2) & 0x3, int(r) & 0x3
}

// Axes returns the horizontal and vertical pixel factors (4x2 -> 4, 2).
func (r ShadingRate) Axes() (x, y int) {
	ex, ey := r.Exponents()
	return 1 << ex, 1 << ey
}

// Rank orders rates by total sample reduction: 1x1 < {1x2,2x1} < 2x2 < {2x4,4x2} < 4x4.
// Rates with equal rank reduce the number of samples equally.
func (r ShadingRate) Rank() int {
	ex, ey := r.Exponents()
	return ex + ey
}

// rateFromExponents builds a rate from log2 factors. The pair must describe
// one of the seven defined rates.
func rateFromExponents(ex, ey int) ShadingRate {
	return ShadingRate(ex<<2 | ey)
}

// RateFromIndex maps an index into Rates to its rate. This is the explicit
// mapping used by UI-style integer selectors.
func RateFromIndex(i int) (ShadingRate, bool) {
	if i < 0 || i >= RateCount {
		return Rate1x1, false
	}
	return Rates[i], true
}

// ParseShadingRate parses a rate name such as "2x2" or "4X4".
func ParseShadingRate(s string) (ShadingRate, error) {
	name := foldName(s)
	for i, n := range rateNames {
		if n == name {
			return Rates[i], nil
		}
	}
	return Rate1x1, fmt.Errorf("vrs: unknown shading rate %q", s)
}

// foldName case-folds a user supplied name. A Caser keeps state between
// calls, so a new one is created for every use.
func foldName(s string) string {
	return cases.Fold().String(s)
}
