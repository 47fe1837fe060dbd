package vrs

import (
	"math"
	"time"
)

// Parameter ranges.
const (
	MinThreshold = 0.0
	MaxThreshold = 1.0
	MaxK         = 10.0
	MaxAmbient   = 10.0
	MaxWFConst   = 10.0

	DefaultTargetFPS = 30
	MinTargetFPS     = 15
	MaxTargetFPS     = 60
)

// Params configures the contrast adaptive classifier for one frame.
//
// Params is passed by value into every classification; the owner mutates
// its copy between frames only.
type Params struct {
	// SensitivityThreshold is the perceived contrast at or above which a
	// tile keeps full rate shading. Range [0, 1].
	SensitivityThreshold float64

	// QuarterRateSensitivity (K) divides the threshold to form the lower
	// edge of the half rate band. K = 0 sends every tile below the threshold
	// to quarter rate when it is allowed.
	QuarterRateSensitivity float64

	// AllowQuarterRate gates 4x4 output.
	AllowQuarterRate bool

	AmbientLuma          float64
	WeberFechnerConstant float64
	UseWeberFechnerLaw   bool

	// UseMotionVectors relaxes contrast for moving content. Ignored for
	// frames without velocity.
	UseMotionVectors bool

	// UseHighResVelocity selects the output resolution velocity field over
	// the render resolution one when both are supplied.
	UseHighResVelocity bool
}

// DefaultParams returns the default classifier parameters.
func DefaultParams() Params {
	return Params{
		SensitivityThreshold:   0.5,
		QuarterRateSensitivity: 2.13,
		AllowQuarterRate:       true,
		AmbientLuma:            0.05,
		WeberFechnerConstant:   1.0,
		UseHighResVelocity:     true,
	}
}

// Sanitize returns p with every numeric field clamped into its range.
// Non-finite values fall back to the default. Each correction is logged
// as a warning.
func (p Params) Sanitize() Params {
	d := DefaultParams()
	p.SensitivityThreshold = sanitizeField("threshold", p.SensitivityThreshold, d.SensitivityThreshold, MinThreshold, MaxThreshold)
	p.QuarterRateSensitivity = sanitizeField("K", p.QuarterRateSensitivity, d.QuarterRateSensitivity, 0, MaxK)
	p.AmbientLuma = sanitizeField("ambient luma", p.AmbientLuma, d.AmbientLuma, 0, MaxAmbient)
	p.WeberFechnerConstant = sanitizeField("weber-fechner constant", p.WeberFechnerConstant, d.WeberFechnerConstant, 0, MaxWFConst)
	return p
}

func sanitizeField(name string, v, def, lo, hi float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		Logger().Warn("vrs: non-finite parameter, using default", "param", name, "value", v, "default", def)
		return def
	}
	c := min(max(v, lo), hi)
	if c != v {
		Logger().Warn("vrs: parameter out of range, clamped", "param", name, "value", v, "clamped", c)
	}
	return c
}

// DynamicThreshold derives the next frame's sensitivity threshold from the
// last measured frame time. Running slower than the target raises the
// threshold, which favors coarser shading.
type DynamicThreshold struct {
	TargetFPS int
}

// TargetFrameTime returns the frame time budget implied by TargetFPS.
// TargetFPS is clamped to [MinTargetFPS, MaxTargetFPS]; zero means default.
func (d DynamicThreshold) TargetFrameTime() time.Duration {
	fps := d.TargetFPS
	if fps == 0 {
		fps = DefaultTargetFPS
	}
	fps = min(max(fps, MinTargetFPS), MaxTargetFPS)
	return time.Second / time.Duration(fps)
}

// Next returns the threshold for the next frame. The result is always in
// [0, 1]. A non-positive frame time leaves current unchanged apart from
// clamping.
func (d DynamicThreshold) Next(current float64, frameTime time.Duration) float64 {
	if frameTime <= 0 {
		return clamp01(current)
	}
	return clamp01(frameTime.Seconds() / d.TargetFrameTime().Seconds())
}

// NextRatio is Next for an already measured frame time ratio
// (actual / target). An infinite ratio saturates at 1; NaN and negative
// ratios keep current.
func (d DynamicThreshold) NextRatio(current, ratio float64) float64 {
	if math.IsNaN(ratio) || ratio < 0 {
		return clamp01(current)
	}
	return clamp01(ratio)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return MinThreshold
	}
	return min(max(v, MinThreshold), MaxThreshold)
}
