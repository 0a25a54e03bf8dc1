package vault

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

const (
	thumbnailSide    = 256
	thumbnailQuality = 80
)

// makeThumbnail renders a JPEG no larger than thumbnailSide on either side.
// It reports false for data that is not a decodable image.
func makeThumbnail(data []byte) ([]byte, bool) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, false
	}

	nw, nh := w, h
	if w > thumbnailSide || h > thumbnailSide {
		if w >= h {
			nw, nh = thumbnailSide, max(1, h*thumbnailSide/w)
		} else {
			nw, nh = max(1, w*thumbnailSide/h), thumbnailSide
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}
