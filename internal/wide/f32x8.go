package wide

// Lanes is the number of elements in an F32x8.
const Lanes = 8

// F32x8 represents 8 float32 values for SIMD-style operations.
type F32x8 [Lanes]float32

// SplatF32 creates F32x8 with all elements set to n.
func SplatF32(n float32) F32x8 {
	var result F32x8
	for i := range result {
		result[i] = n
	}
	return result
}

// Load returns the first eight elements of s. s must hold at least Lanes
// values.
func Load(s []float32) F32x8 {
	var result F32x8
	copy(result[:], s[:Lanes])
	return result
}

// Sub performs element-wise subtraction.
func (v F32x8) Sub(other F32x8) F32x8 {
	var result F32x8
	for i := range v {
		result[i] = v[i] - other[i]
	}
	return result
}

// Mul performs element-wise multiplication.
func (v F32x8) Mul(other F32x8) F32x8 {
	var result F32x8
	for i := range v {
		result[i] = v[i] * other[i]
	}
	return result
}

// MulAdd returns v*a + b element-wise.
func (v F32x8) MulAdd(a, b F32x8) F32x8 {
	var result F32x8
	for i := range v {
		result[i] = v[i]*a[i] + b[i]
	}
	return result
}

// Abs returns the absolute value of each element.
func (v F32x8) Abs() F32x8 {
	var result F32x8
	for i := range v {
		if v[i] < 0 {
			result[i] = -v[i]
		} else {
			result[i] = v[i]
		}
	}
	return result
}

// Max performs element-wise maximum.
func (v F32x8) Max(other F32x8) F32x8 {
	var result F32x8
	for i := range v {
		if v[i] > other[i] {
			result[i] = v[i]
		} else {
			result[i] = other[i]
		}
	}
	return result
}

// ReduceMax returns the largest element.
func (v F32x8) ReduceMax() float32 {
	m := v[0]
	for _, x := range v[1:] {
		if x > m {
			m = x
		}
	}
	return m
}
