// Package contrast implements the per-tile decision of the contrast
// adaptive shading rate classifier.
//
// The same arithmetic is implemented by the WGSL kernel in internal/gpu;
// this package is the CPU reference and is used by the CPU backend.
package contrast

import (
	"math"

	"github.com/gogpu/vrs/internal/color"
	"github.com/gogpu/vrs/internal/wide"
)

// Band is the coarseness class selected for a tile.
type Band uint8

const (
	// BandFull keeps full rate shading (1x1).
	BandFull Band = iota
	// BandHalf allows half rate shading (2x2).
	BandHalf
	// BandQuarter allows quarter rate shading (4x4).
	BandQuarter
)

// MinDivisor bounds the Weber-Fechner denominator away from zero.
const MinDivisor = 1e-4

// Params is the kernel view of the classifier parameters.
type Params struct {
	Threshold            float32
	K                    float32
	AmbientLuma          float32
	WeberFechnerConstant float32
	WeberFechner         bool

	// Motion enables motion relaxation. It is ignored for a frame without
	// velocity.
	Motion bool

	// Quarter allows BandQuarter. It must already combine the quarter rate
	// setting with extended rate support of the device.
	Quarter bool
}

// Image is a packed RGBA8 sRGB image.
type Image struct {
	Width, Height, Stride int
	Pix                   []uint8
}

// Velocity is a motion vector field with interleaved x, y components in
// pixels per frame.
type Velocity struct {
	Width, Height int
	Vec           []float32
}

// Measure returns the maximum absolute luminance difference between
// horizontally or vertically adjacent pixels in the rectangle, and the mean
// luminance of the rectangle.
//
// The rectangle must lie inside img. scratch must hold at least w*h values.
func Measure(img *Image, x0, y0, w, h int, scratch []float32) (maxDiff, mean float32) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	luma := scratch[:w*h]
	var sum float32
	var acc wide.F32x8
	for y := range h {
		row := luma[y*w : (y+1)*w]
		src := img.Pix[(y0+y)*img.Stride+x0*4:]
		color.LuminanceRow(row, src[:w*4])
		for _, l := range row {
			sum += l
		}

		// Horizontal neighbours: row[x] - row[x-1] for x >= 1.
		acc, maxDiff = maxStep(acc, maxDiff, row[1:], row[:w-1])
		if y > 0 {
			acc, maxDiff = maxStep(acc, maxDiff, row, luma[(y-1)*w:y*w])
		}
	}
	return max(maxDiff, acc.ReduceMax()), sum / float32(w*h)
}

// maxStep folds |a[i]-b[i]| into the lane accumulator, eight elements at a
// time, and the remainder into the scalar maximum.
func maxStep(acc wide.F32x8, m float32, a, b []float32) (wide.F32x8, float32) {
	n := len(a)
	i := 0
	for ; i+wide.Lanes <= n; i += wide.Lanes {
		d := wide.Load(a[i:]).Sub(wide.Load(b[i:])).Abs()
		acc = acc.Max(d)
	}
	for ; i < n; i++ {
		m = max(m, abs(a[i]-b[i]))
	}
	return acc, m
}

// WeberFechner scales raw contrast by the perceived brightness of the tile.
func WeberFechner(raw, baseLuma float32, p Params) float32 {
	d := max(p.AmbientLuma+baseLuma, MinDivisor)
	return raw * p.WeberFechnerConstant / d
}

// MaxMotion returns the largest motion vector length over the velocity
// samples that cover the frame rectangle. The velocity field may have a
// different resolution than the frame; coordinates are scaled, and at least
// one sample is always inspected. Samples with a NaN or infinite component
// are skipped.
func MaxMotion(v *Velocity, frameW, frameH, x0, y0, w, h int) float32 {
	if v == nil || v.Width <= 0 || v.Height <= 0 || frameW <= 0 || frameH <= 0 {
		return 0
	}
	vx0, vx1 := scaleSpan(x0, x0+w, frameW, v.Width)
	vy0, vy1 := scaleSpan(y0, y0+h, frameH, v.Height)

	var m float32
	for y := vy0; y < vy1; y++ {
		for x := vx0; x < vx1; x++ {
			i := (y*v.Width + x) * 2
			dx, dy := float64(v.Vec[i]), float64(v.Vec[i+1])
			if !finite(dx) || !finite(dy) {
				continue
			}
			m = max(m, float32(math.Sqrt(dx*dx+dy*dy)))
		}
	}
	return m
}

// scaleSpan maps the pixel span [a, b) of an axis of length from to an axis
// of length to. The result is clamped and never empty.
func scaleSpan(a, b, from, to int) (int, int) {
	lo := a * to / from
	hi := (b*to + from - 1) / from
	lo = min(max(lo, 0), to-1)
	hi = min(max(hi, lo+1), to)
	return lo, hi
}

// Relax lowers perceived contrast for moving content. It never raises it.
func Relax(perceived, motion float32) float32 {
	if motion <= 0 {
		return perceived
	}
	return perceived / (1 + motion)
}

// Select maps perceived contrast to a band.
//
//	c >= T        -> BandFull
//	c * K >= T    -> BandHalf
//	otherwise     -> BandQuarter if allowed, else BandHalf
func Select(c float32, p Params) Band {
	if c >= p.Threshold {
		return BandFull
	}
	if c*p.K >= p.Threshold {
		return BandHalf
	}
	if p.Quarter {
		return BandQuarter
	}
	return BandHalf
}

// Perceive applies the optional perceptual and motion adjustments to raw
// contrast. motion is ignored unless p.Motion is set.
func Perceive(raw, baseLuma, motion float32, p Params) float32 {
	c := raw
	if p.WeberFechner {
		c = WeberFechner(c, baseLuma, p)
	}
	if p.Motion {
		c = Relax(c, motion)
	}
	return c
}

// Classify runs the full per-tile decision for the rectangle. vel may be nil.
func Classify(img *Image, vel *Velocity, x0, y0, w, h int, p Params, scratch []float32) Band {
	raw, base := Measure(img, x0, y0, w, h, scratch)
	var m float32
	if p.Motion && vel != nil {
		m = MaxMotion(vel, img.Width, img.Height, x0, y0, w, h)
	}
	return Select(Perceive(raw, base, m, p), p)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
