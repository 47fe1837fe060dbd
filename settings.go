package vrs

import (
	"strings"
)

// Settings is the configuration record of the shading rate layer. It is
// owned by the caller (UI, automation, command line) and only mutated
// between frames.
type Settings struct {
	// Enabled turns shading rate control on. When off, every tile is 1x1.
	Enabled bool

	// Overlay draws the debug visualization; BlendMask and DrawGrid select
	// its parts.
	Overlay   bool
	BlendMask bool
	DrawGrid  bool

	// Tier1Rate is the per-draw rate used by the draw path.
	Tier1Rate ShadingRate

	Combiners CombinerStages
	Params    Params

	// DynamicThreshold derives the sensitivity threshold from the frame
	// time each frame, targeting TargetFPS.
	DynamicThreshold bool
	TargetFPS        int

	// CalculatePercents enables statistics collection.
	CalculatePercents bool
}

// DefaultSettings returns the default configuration.
func DefaultSettings() Settings {
	return Settings{
		Enabled:           true,
		BlendMask:         true,
		Tier1Rate:         Rate1x1,
		Combiners:         DefaultCombinerStages(),
		Params:            DefaultParams(),
		TargetFPS:         DefaultTargetFPS,
		CalculatePercents: true,
	}
}

// Overrides are command line style settings. Empty fields leave the
// setting unchanged.
type Overrides struct {
	// VRS is "off" to disable shading rates; anything else leaves them on.
	VRS string

	// Overlay is "on" to enable the debug overlay.
	Overlay string

	// Rate is the tier 1 rate name ("2X2").
	Rate string

	// Combiner1 and Combiner2 are combiner names matched case-insensitively.
	Combiner1 string
	Combiner2 string
}

// Apply returns s with o applied. Invalid values never fail: an unknown
// or unsupported rate becomes 1x1 and an unknown combiner becomes
// Passthrough, each with a warning.
func (s Settings) Apply(o Overrides, c Capability) Settings {
	if foldName(strings.TrimSpace(o.VRS)) == "off" {
		s.Enabled = false
	}
	if foldName(strings.TrimSpace(o.Overlay)) == "on" {
		s.Overlay = true
	}
	if o.Rate != "" {
		s.Tier1Rate = resolveTier1Rate(o.Rate, c)
	}
	if o.Combiner1 != "" {
		s.Combiners.First = ParseCombiner(strings.TrimSpace(o.Combiner1))
	}
	if o.Combiner2 != "" {
		s.Combiners.Second = ParseCombiner(strings.TrimSpace(o.Combiner2))
	}
	return s
}

// SetTier1RateIndex sets the tier 1 rate from a selector index. An out of
// range index or an unsupported rate becomes 1x1 with a warning.
func (s *Settings) SetTier1RateIndex(i int, c Capability) {
	r, ok := RateFromIndex(i)
	if !ok {
		Logger().Warn("vrs: shading rate index out of range, using 1x1", "index", i)
		s.Tier1Rate = Rate1x1
		return
	}
	s.Tier1Rate = checkTier1Rate(r, c)
}

func resolveTier1Rate(name string, c Capability) ShadingRate {
	r, err := ParseShadingRate(strings.TrimSpace(name))
	if err != nil {
		Logger().Warn("vrs: invalid shading rate, using 1x1", "rate", name)
		return Rate1x1
	}
	return checkTier1Rate(r, c)
}

func checkTier1Rate(r ShadingRate, c Capability) ShadingRate {
	if r.IsAdditional() && !c.ExtendedRates {
		Logger().Warn("vrs: additional shading rates not supported, using 1x1", "rate", r.String())
		return Rate1x1
	}
	return r
}
