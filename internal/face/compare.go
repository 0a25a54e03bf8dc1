package face

import "math"

// CompareFunc scores two face crops in [0, 1].
type CompareFunc func(a, b FaceCrop) float64

// CompareFaces returns dot(a,b) / (|a| |b|) over the pixel buffers. It is 0
// when either buffer has zero norm or the buffers differ in size.
func CompareFaces(a, b FaceCrop) float64 {
	if len(a.Pixels) == 0 || len(a.Pixels) != len(b.Pixels) {
		return 0
	}

	var dot, na, nb float64
	for i := range a.Pixels {
		x, y := float64(a.Pixels[i]), float64(b.Pixels[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}

	c := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return min(max(c, 0), 1)
}

// BestMatch returns the highest score between any candidate face and any
// reference face, or 0 when either side is empty.
func BestMatch(candidates []FaceCrop, refs []ReferenceFace, cmp CompareFunc) float64 {
	best := 0.0
	for _, c := range candidates {
		for _, r := range refs {
			if s := cmp(r.FaceCrop, c); s > best {
				best = s
			}
		}
	}
	return best
}
