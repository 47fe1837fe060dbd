package vrs

import "fmt"

// Percentages is the share of tiles at each shading rate, indexed like
// Rates. The seven values sum to 100 for a non-empty image.
type Percentages [RateCount]float64

// Of returns the percentage for rate r.
func (p Percentages) Of(r ShadingRate) float64 {
	if i := r.Index(); i >= 0 {
		return p[i]
	}
	return 0
}

// Sum returns the total of all seven counters.
func (p Percentages) Sum() float64 {
	var s float64
	for _, v := range p {
		s += v
	}
	return s
}

// String formats the counters as "1x1=50.00% 1x2=0.00% ...".
func (p Percentages) String() string {
	var s string
	for i, v := range p {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s=%.2f%%", rateNames[i], v)
	}
	return s
}

// DisabledPercentages is the result when shading rates are turned off:
// every tile shades at 1x1.
func DisabledPercentages() Percentages {
	var p Percentages
	p[0] = 100
	return p
}

// ComputePercentages counts every tile of img and returns the share at each
// rate. The image must be fully written. Cells holding an unknown code are
// counted in the total but in no rate. An empty image yields all zeros.
func ComputePercentages(img *RateImage) Percentages {
	var p Percentages
	if img == nil || img.Cells() == 0 {
		return p
	}

	var counts [256]int
	for y := range img.Height {
		for _, v := range img.Row(y) {
			counts[v]++
		}
	}

	total := float64(img.Cells())
	for i, r := range Rates {
		p[i] = float64(counts[r]) * 100 / total
	}
	return p
}
