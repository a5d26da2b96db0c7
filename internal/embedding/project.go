package embedding

import "math"

// ProjectQueryToImageSpace maps query text into the image vector space using
// a deterministic character-hash projection. Characters are bucketed into
// ImageDims dimensions by code point and the result is L2-normalized, which
// gives text queries a stable, cheap stand-in for a CLIP text encoder.
func ProjectQueryToImageSpace(query string) []float32 {
	vec := make([]float32, ImageDims)
	for _, r := range query {
		vec[int(r)%ImageDims]++
	}

	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	norm := math.Sqrt(sumSquares)
	if norm == 0 {
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
