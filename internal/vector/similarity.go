package vector

// InnerProduct returns the dot product of two equal-length vectors.
// For unit-length inputs this equals their cosine similarity.
func InnerProduct(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// ClampScore maps a raw similarity into [0, 1].
func ClampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
