package face

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/exeraser/internal/common"
	"github.com/dmitrijs2005/exeraser/internal/models"
	"github.com/dmitrijs2005/exeraser/internal/providers/media"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func solidPNG(t *testing.T, c color.Color) []byte {
	return encodePNG(t, solidImage(80, 80, c))
}

var black = color.RGBA{A: 255}

func rgb(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// centerDetector reports one face in the middle of the image unless the
// image is black.
type centerDetector struct{}

func (centerDetector) Detect(img image.Image) ([]image.Rectangle, error) {
	b := img.Bounds()
	r, g, bl, _ := img.At(b.Min.X, b.Min.Y).RGBA()
	if r == 0 && g == 0 && bl == 0 {
		return nil, nil
	}
	return []image.Rectangle{image.Rect(b.Min.X+b.Dx()/4, b.Min.Y+b.Dy()/4, b.Max.X-b.Dx()/4, b.Max.Y-b.Dy()/4)}, nil
}

type fakeLibrary struct {
	mu        sync.Mutex
	assets    []media.Asset
	files     map[string][]byte
	listCalls int
	onOpen    func(id string)
}

func newFakeLibrary() *fakeLibrary {
	return &fakeLibrary{files: map[string][]byte{}}
}

func (f *fakeLibrary) addReference(id string, data []byte) {
	f.files[id] = data
}

func (f *fakeLibrary) addPhoto(id string, data []byte) {
	f.files[id] = data
	f.assets = append(f.assets, media.Asset{
		ID:           id,
		Kind:         models.MediaPhoto,
		CreationDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Duration(len(f.assets)) * time.Hour),
	})
}

func (f *fakeLibrary) ListAll(ctx context.Context) ([]media.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return append([]media.Asset(nil), f.assets...), nil
}

func (f *fakeLibrary) Open(ctx context.Context, id string) ([]byte, error) {
	if f.onOpen != nil {
		f.onOpen(id)
	}
	data, ok := f.files[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return data, nil
}

func matchIDs(matches []Match) []string {
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.Asset.ID
	}
	return ids
}
