// Package wide provides a fixed-width float vector for batch luminance work.
//
// F32x8 is a plain [8]float32 with element-wise methods written as simple
// loops over the fixed array, so the Go compiler can vectorize them on
// architectures with SSE, AVX or NEON. No unsafe or assembly is used.
//
// # Usage Example
//
//	// weighted sum of eight linear channel triples
//	y := b.MulAdd(wide.SplatF32(0.0722),
//		g.MulAdd(wide.SplatF32(0.7152), r.Mul(wide.SplatF32(0.2126))))
//
//	// largest step between neighbours
//	step := wide.Load(row[1:]).Sub(wide.Load(row)).Abs().ReduceMax()
package wide
