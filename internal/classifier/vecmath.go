package classifier

import "math"

// l2Normalize returns v scaled to unit Euclidean length. A zero vector is
// returned unchanged.
func l2Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

// softmax is computed in float64 with the max subtracted for stability.
func softmax(scores []float32) []float32 {
	if len(scores) == 0 {
		return nil
	}
	maxv := math.Inf(-1)
	for _, s := range scores {
		maxv = math.Max(maxv, float64(s))
	}
	exps := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		exps[i] = math.Exp(float64(s) - maxv)
		sum += exps[i]
	}
	out := make([]float32, len(scores))
	for i, e := range exps {
		out[i] = float32(e / sum)
	}
	return out
}

// argmax returns the first index of the largest value, or -1 for an empty slice.
func argmax(v []float32) int {
	idx := -1
	var best float32
	for i, x := range v {
		if idx < 0 || x > best {
			idx, best = i, x
		}
	}
	return idx
}
