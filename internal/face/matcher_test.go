package face

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/dmitrijs2005/exeraser/internal/common"
	"github.com/dmitrijs2005/exeraser/internal/logging"
	"github.com/dmitrijs2005/exeraser/internal/models"
	"github.com/dmitrijs2005/exeraser/internal/providers/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMatcher(lib *fakeLibrary) *Matcher {
	return NewMatcher(lib, centerDetector{}, logging.NewDiscard())
}

var refIDs = []string{"ref1", "ref2", "ref3"}

func addRefs(t *testing.T, lib *fakeLibrary, colors ...color.Color) {
	for i, c := range colors {
		lib.addReference(refIDs[i], solidPNG(t, c))
	}
}

func TestExtractReferenceFace(t *testing.T) {
	lib := newFakeLibrary()
	lib.addReference("face", solidPNG(t, rgb(200, 0, 0)))
	lib.addReference("blank", solidPNG(t, black))
	lib.addReference("junk", []byte("junk"))
	m := newTestMatcher(lib)
	ctx := context.Background()

	ref, err := m.ExtractReferenceFace(ctx, "face")
	require.NoError(t, err)
	assert.Equal(t, "face", ref.SourceID)
	assert.Len(t, ref.Pixels, BufferLen)

	_, err = m.ExtractReferenceFace(ctx, "blank")
	require.ErrorIs(t, err, common.ErrNoFaceFound)

	_, err = m.ExtractReferenceFace(ctx, "junk")
	require.ErrorIs(t, err, common.ErrNoFaceFound)
	require.ErrorIs(t, err, common.ErrDecodeFailure)

	_, err = m.ExtractReferenceFace(ctx, "missing")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestScanLibrary_ThresholdScenario(t *testing.T) {
	lib := newFakeLibrary()
	addRefs(t, lib, rgb(200, 0, 0), rgb(0, 0, 200), rgb(0, 100, 100))
	lib.addPhoto("candidate", solidPNG(t, rgb(200, 150, 0)))
	m := newTestMatcher(lib)
	ctx := context.Background()

	matches, err := m.ScanLibrary(ctx, refIDs, 0.6, 50, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.InDelta(t, 0.8, matches[0].Confidence, 0.01)

	matches, err = m.ScanLibrary(ctx, refIDs, 0.9, 50, nil)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

// offImageDetector reports a box outside white images and defers to
// centerDetector otherwise.
type offImageDetector struct{}

func (offImageDetector) Detect(img image.Image) ([]image.Rectangle, error) {
	b := img.Bounds()
	r, g, bl, _ := img.At(b.Min.X, b.Min.Y).RGBA()
	if r == 0xffff && g == 0xffff && bl == 0xffff {
		return []image.Rectangle{b.Add(image.Pt(b.Dx()*10, b.Dy()*10))}, nil
	}
	return centerDetector{}.Detect(img)
}

func TestScanLibrary_UncroppableFacesNeverMatch(t *testing.T) {
	lib := newFakeLibrary()
	addRefs(t, lib, rgb(200, 0, 0), rgb(0, 0, 200), rgb(0, 100, 100))
	lib.addPhoto("off-image", solidPNG(t, rgb(255, 255, 255)))
	lib.addPhoto("candidate", solidPNG(t, rgb(200, 150, 0)))
	m := NewMatcher(lib, offImageDetector{}, logging.NewDiscard())

	matches, err := m.ScanLibrary(context.Background(), refIDs, 0, 50, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"candidate"}, matchIDs(matches))
}

func TestScanLibrary_ThresholdMonotonic(t *testing.T) {
	lib := newFakeLibrary()
	addRefs(t, lib, rgb(200, 0, 0), rgb(0, 200, 0), rgb(90, 90, 90))
	for i := 0; i < 12; i++ {
		lib.addPhoto(fmt.Sprintf("p%02d", i), solidPNG(t, rgb(uint8(20*i), uint8(255-20*i), uint8(10*i))))
	}
	m := newTestMatcher(lib)

	thresholds := []float64{0, 0.3, 0.6, 0.8, 0.95, 1}
	var previous map[string]bool
	for _, th := range thresholds {
		matches, err := m.ScanLibrary(context.Background(), refIDs, th, 5, nil)
		require.NoError(t, err)

		current := map[string]bool{}
		for _, id := range matchIDs(matches) {
			current[id] = true
			if previous != nil {
				assert.True(t, previous[id], "%s matched at %.2f but not at a lower threshold", id, th)
			}
		}
		previous = current
	}
}

func TestScanLibrary_ProgressPerBatch(t *testing.T) {
	lib := newFakeLibrary()
	addRefs(t, lib, rgb(200, 0, 0), rgb(200, 0, 0), rgb(200, 0, 0))
	for i := 0; i < 7; i++ {
		lib.addPhoto(fmt.Sprintf("p%d", i), solidPNG(t, rgb(200, 0, 0)))
	}
	lib.addPhoto("broken", []byte("not an image"))
	lib.addPhoto("blank", solidPNG(t, black))
	lib.assets = append(lib.assets, media.Asset{ID: "gone", Kind: models.MediaPhoto})
	lib.assets = append(lib.assets, media.Asset{ID: "clip", Kind: models.MediaVideo})

	var events []Progress
	matches, err := newTestMatcher(lib).ScanLibrary(context.Background(), refIDs, 0.6, 4, func(p Progress) {
		events = append(events, p)
	})
	require.NoError(t, err)

	assert.Len(t, matches, 7)
	assert.Equal(t, []Progress{
		{Processed: 4, Total: 10, BatchMatches: 4},
		{Processed: 8, Total: 10, BatchMatches: 3},
		{Processed: 10, Total: 10, BatchMatches: 0},
	}, events)
}

func TestScanLibrary_NoReferenceFacesFailsBeforeListing(t *testing.T) {
	lib := newFakeLibrary()
	addRefs(t, lib, black, black)
	lib.addPhoto("p1", solidPNG(t, rgb(200, 0, 0)))

	_, err := newTestMatcher(lib).ScanLibrary(context.Background(), refIDs, 0.6, 50, nil)
	require.ErrorIs(t, err, common.ErrNoReferenceFaces)
	assert.Equal(t, 0, lib.listCalls)
}

func TestScanLibrary_CancelKeepsCompletedBatches(t *testing.T) {
	lib := newFakeLibrary()
	addRefs(t, lib, rgb(200, 0, 0), rgb(200, 0, 0), rgb(200, 0, 0))
	for i := 0; i < 10; i++ {
		lib.addPhoto(fmt.Sprintf("p%d", i), solidPNG(t, rgb(200, 0, 0)))
	}
	m := newTestMatcher(lib)

	// cancel in the middle of the second batch
	lib.onOpen = func(id string) {
		if id == "p4" {
			m.Cancel()
		}
	}

	var events []Progress
	matches, err := m.ScanLibrary(context.Background(), refIDs, 0.6, 3, func(p Progress) {
		events = append(events, p)
	})
	require.ErrorIs(t, err, common.ErrScanAborted)
	assert.Equal(t, []string{"p0", "p1", "p2"}, matchIDs(matches))
	assert.Len(t, events, 1)

	// a new scan starts from scratch
	lib.onOpen = nil
	events = nil
	matches, err = m.ScanLibrary(context.Background(), refIDs, 0.6, 3, func(p Progress) {
		events = append(events, p)
	})
	require.NoError(t, err)
	assert.Len(t, matches, 10)
	require.NotEmpty(t, events)
	assert.Equal(t, 3, events[0].Processed)
}

func TestScanLibrary_ContextCancelledBeforeStart(t *testing.T) {
	lib := newFakeLibrary()
	addRefs(t, lib, rgb(200, 0, 0))
	lib.addPhoto("p1", solidPNG(t, rgb(200, 0, 0)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	matches, err := newTestMatcher(lib).ScanLibrary(ctx, refIDs[:1], 0.6, 50, nil)
	require.ErrorIs(t, err, common.ErrScanAborted)
	assert.Empty(t, matches)
}

func TestCancel_NoScanIsNoop(t *testing.T) {
	m := newTestMatcher(newFakeLibrary())
	assert.NotPanics(t, func() {
		m.Cancel()
		m.Cancel()
	})
}

func TestNewPigoDetector_EmptyCascade(t *testing.T) {
	_, err := NewPigoDetector(nil)
	require.Error(t, err)
}
