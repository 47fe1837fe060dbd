package vrs

import "fmt"

// Combiner merges two requested shading rates into one.
type Combiner int

const (
	// CombinerPassthrough keeps the first rate and ignores the second.
	CombinerPassthrough Combiner = iota

	// CombinerOverride replaces the first rate with the second.
	CombinerOverride

	// CombinerMin keeps the finer of the two rates.
	CombinerMin

	// CombinerMax keeps the coarser of the two rates.
	CombinerMax

	// CombinerSum adds the per-axis log2 factors of both rates.
	CombinerSum

	combinerCount
)

var combinerNames = [combinerCount]string{"Passthrough", "Override", "Min", "Max", "Sum"}

// String returns the combiner name.
func (m Combiner) String() string {
	if m >= 0 && m < combinerCount {
		return combinerNames[m]
	}
	return fmt.Sprintf("Combiner(%d)", int(m))
}

// CombinerFromIndex maps a selector index to a combiner.
// Out-of-range indices yield Passthrough and false.
func CombinerFromIndex(i int) (Combiner, bool) {
	if i < 0 || i >= int(combinerCount) {
		return CombinerPassthrough, false
	}
	return Combiner(i), true
}

// ParseCombiner matches name case-insensitively against the combiner names.
// An unknown name yields Passthrough and logs a warning.
func ParseCombiner(name string) Combiner {
	folded := foldName(name)
	for i, n := range combinerNames {
		if foldName(n) == folded {
			return Combiner(i)
		}
	}
	Logger().Warn("vrs: unknown shading rate combiner, using passthrough", "name", name)
	return CombinerPassthrough
}

// Combine merges a and b with mode assuming extended rates are available.
// Use Capability.Combine to restrict the result to a device's legal set.
func Combine(a, b ShadingRate, mode Combiner) ShadingRate {
	return combine(a, b, mode, 2)
}

// Combine merges a and b with mode. Both inputs are clamped into the legal
// set first, so the result is always legal for c.
func (c Capability) Combine(a, b ShadingRate, mode Combiner) ShadingRate {
	return combine(c.Clamp(a), c.Clamp(b), mode, c.maxExponent())
}

func combine(a, b ShadingRate, mode Combiner, maxExp int) ShadingRate {
	switch mode {
	case CombinerOverride:
		return b
	case CombinerMin:
		if b.Rank() < a.Rank() {
			return b
		}
		return a
	case CombinerMax:
		if b.Rank() > a.Rank() {
			return b
		}
		return a
	case CombinerSum:
		ax, ay := a.Exponents()
		bx, by := b.Exponents()
		return legalize(ax+bx, ay+by, maxExp)
	default:
		return a
	}
}

// CombinerStages holds the two combiners applied in sequence by the
// rasterizer: the first merges the draw rate with the per-primitive rate,
// the second merges that result with the rate image.
type CombinerStages struct {
	First  Combiner
	Second Combiner
}

// DefaultCombinerStages keeps the draw rate at the first stage and lets the
// rate image override it at the second.
func DefaultCombinerStages() CombinerStages {
	return CombinerStages{First: CombinerPassthrough, Second: CombinerOverride}
}

// Resolve computes the effective rate for one pixel.
func (s CombinerStages) Resolve(c Capability, draw, first, second ShadingRate) ShadingRate {
	return c.Combine(c.Combine(draw, first, s.First), second, s.Second)
}
