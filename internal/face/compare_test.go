package face

import (
	"image"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func randomCrop(seed int64) FaceCrop {
	r := rand.New(rand.NewSource(seed))
	px := make([]byte, BufferLen)
	r.Read(px)
	return FaceCrop{Box: image.Rect(0, 0, CropSide, CropSide), Pixels: px}
}

func TestCompareFaces_SelfSimilarity(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		c := randomCrop(seed)
		assert.InDelta(t, 1.0, CompareFaces(c, c), 1e-9)
	}
}

func TestCompareFaces_Degenerate(t *testing.T) {
	zero := FaceCrop{Pixels: make([]byte, BufferLen)}
	c := randomCrop(7)

	assert.Equal(t, 0.0, CompareFaces(zero, c))
	assert.Equal(t, 0.0, CompareFaces(c, zero))
	assert.Equal(t, 0.0, CompareFaces(FaceCrop{}, FaceCrop{}))
	assert.Equal(t, 0.0, CompareFaces(c, FaceCrop{Pixels: c.Pixels[:10]}))
}

func TestCompareFaces_Range(t *testing.T) {
	a, b := randomCrop(11), randomCrop(12)
	s := CompareFaces(a, b)
	assert.GreaterOrEqual(t, s, 0.0)
	assert.LessOrEqual(t, s, 1.0)
	assert.InDelta(t, s, CompareFaces(b, a), 1e-12)
}

func TestBestMatch_TakesMaximumOverAllPairs(t *testing.T) {
	scores := map[[2]int]float64{
		{0, 0}: 0.2, {0, 1}: 0.5,
		{1, 0}: 0.8, {1, 1}: 0.1,
	}
	cmp := func(ref, cand FaceCrop) float64 {
		return scores[[2]int{ref.Box.Min.X, cand.Box.Min.X}]
	}

	refs := []ReferenceFace{
		{FaceCrop: FaceCrop{Box: image.Rect(0, 0, 1, 1)}},
		{FaceCrop: FaceCrop{Box: image.Rect(1, 0, 2, 1)}},
	}
	cands := []FaceCrop{{Box: image.Rect(0, 0, 1, 1)}, {Box: image.Rect(1, 0, 2, 1)}}

	assert.Equal(t, 0.8, BestMatch(cands, refs, cmp))
	assert.Equal(t, 0.0, BestMatch(nil, refs, cmp))
	assert.Equal(t, 0.0, BestMatch(cands, nil, cmp))
}
