package face

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/dmitrijs2005/exeraser/internal/common"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// CropSide is the side of the normalized face buffer.
	CropSide = 64

	// CropPadding is added on each side of a detected box, as a fraction of
	// the box size.
	CropPadding = 0.15

	// MaxCandidateSide bounds library images before detection.
	MaxCandidateSide = 600

	channels  = 3
	BufferLen = CropSide * CropSide * channels
)

// FaceCrop is a detected face region normalized for comparison.
type FaceCrop struct {
	Box    image.Rectangle
	Pixels []byte
}

func decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDecodeFailure, err)
	}
	return img, nil
}

// fit scales img down to fit within side x side, keeping the aspect ratio.
// Smaller images are returned unchanged.
func fit(img image.Image, side int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= side && h <= side {
		return img
	}

	nw, nh := side, side
	if w >= h {
		nh = max(1, h*side/w)
	} else {
		nw = max(1, w*side/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// padBox grows box by CropPadding on every side and clamps it to bounds.
func padBox(box, bounds image.Rectangle) image.Rectangle {
	dx := int(float64(box.Dx()) * CropPadding)
	dy := int(float64(box.Dy()) * CropPadding)
	return image.Rect(box.Min.X-dx, box.Min.Y-dy, box.Max.X+dx, box.Max.Y+dy).Intersect(bounds)
}

// cropFace pads box, crops it out of img and normalizes it. It reports false
// when the padded box does not overlap the image.
func cropFace(img image.Image, box image.Rectangle) (FaceCrop, bool) {
	r := padBox(box, img.Bounds())
	if r.Empty() {
		return FaceCrop{}, false
	}

	dst := image.NewRGBA(image.Rect(0, 0, CropSide, CropSide))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, r, draw.Src, nil)

	pixels := make([]byte, 0, BufferLen)
	for i := 0; i < len(dst.Pix); i += 4 {
		pixels = append(pixels, dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2])
	}
	return FaceCrop{Box: r, Pixels: pixels}, true
}
