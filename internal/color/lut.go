// Package color converts 8-bit sRGB pixels into the linear luminance
// values the contrast classifier works on.
//
// The lookup table provides O(1) sRGB to linear conversion, replacing
// math.Pow calls with an array lookup. Contrast is measured in linear space
// so that equal code value steps in dark and bright regions are not treated
// as equal light differences.
//
// References:
//   - sRGB specification: https://www.w3.org/Graphics/Color/sRGB
//   - ITU-R BT.709 luma coefficients
package color

import "math"

// sRGBToLinearLUT provides O(1) sRGB to linear conversion.
// Converts sRGB byte [0-255] to linear float32 [0.0-1.0].
var sRGBToLinearLUT [256]float32

func init() {
	for i := 0; i < 256; i++ {
		sRGBToLinearLUT[i] = SRGBToLinearSlow(uint8(i))
	}
}

// SRGBToLinearFast converts an sRGB byte to linear float32 using the lookup table.
//
// Example:
//
//	r := SRGBToLinearFast(128) // ~0.2159 (not 0.5!)
func SRGBToLinearFast(s uint8) float32 {
	return sRGBToLinearLUT[s]
}

// SRGBToLinearSlow converts an sRGB byte to linear float32 using math.Pow.
//
// This is the reference implementation used to build the table and in tests.
func SRGBToLinearSlow(s uint8) float32 {
	sf := float64(s) / 255.0
	if sf <= 0.04045 {
		return float32(sf / 12.92)
	}
	return float32(math.Pow((sf+0.055)/1.055, 2.4))
}

// Table returns a copy of the sRGB to linear table.
// The GPU classifier uploads it so both paths share the same curve.
func Table() [256]float32 {
	return sRGBToLinearLUT
}
