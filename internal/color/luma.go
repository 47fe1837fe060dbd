package color

import "github.com/gogpu/vrs/internal/wide"

// Rec. 709 luma weights for linear RGB.
const (
	LumaR = 0.2126
	LumaG = 0.7152
	LumaB = 0.0722
)

// Luminance returns the linear relative luminance of an sRGB8 pixel in [0, 1].
// Alpha is ignored.
func Luminance(r, g, b uint8) float32 {
	return LumaR*SRGBToLinearFast(r) + LumaG*SRGBToLinearFast(g) + LumaB*SRGBToLinearFast(b)
}

// LuminanceRow converts one row of packed RGBA8 pixels into dst.
// dst must hold at least len(pix)/4 values.
//
// Pixels are converted eight at a time; the remainder goes through Luminance.
func LuminanceRow(dst []float32, pix []uint8) {
	n := len(pix) / 4
	wr := wide.SplatF32(LumaR)
	wg := wide.SplatF32(LumaG)
	wb := wide.SplatF32(LumaB)

	i := 0
	for ; i+wide.Lanes <= n; i += wide.Lanes {
		var r, g, b wide.F32x8
		for j := range wide.Lanes {
			p := pix[(i+j)*4:]
			r[j] = SRGBToLinearFast(p[0])
			g[j] = SRGBToLinearFast(p[1])
			b[j] = SRGBToLinearFast(p[2])
		}
		y := b.MulAdd(wb, g.MulAdd(wg, r.Mul(wr)))
		copy(dst[i:i+wide.Lanes], y[:])
	}
	for ; i < n; i++ {
		p := pix[i*4 : i*4+3 : i*4+3]
		dst[i] = Luminance(p[0], p[1], p[2])
	}
}
