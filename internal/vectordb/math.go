package vectordb

import "math"

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// normalized returns a unit-length copy of v. Zero vectors are copied as is.
func normalized(v []float32) []float32 {
	out := make([]float32, len(v))
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		copy(out, v)
		return out
	}
	scale := 1 / math.Sqrt(norm)
	for i, x := range v {
		out[i] = float32(float64(x) * scale)
	}
	return out
}

// similarityToDistance maps cosine similarity of unit vectors to squared L2
// distance.
func similarityToDistance(sim float32) float32 {
	d := 2 - 2*sim
	if d < 0 {
		return 0
	}
	return d
}
