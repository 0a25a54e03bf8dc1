package face

import (
	"errors"
	"fmt"
	"image"
	"sort"

	pigo "github.com/esimov/pigo/core"
	"golang.org/x/image/draw"
)

// Detector finds face regions in an image. Regions are returned in the
// image's coordinate space, most confident first.
type Detector interface {
	Detect(img image.Image) ([]image.Rectangle, error)
}

// PigoDetector detects faces with a pigo pixel-intensity cascade.
type PigoDetector struct {
	classifier *pigo.Pigo

	MinSize     int
	ShiftFactor float64
	ScaleFactor float64
	IoU         float64
	MinQuality  float32
}

// NewPigoDetector unpacks a pigo cascade file (facefinder).
func NewPigoDetector(cascade []byte) (*PigoDetector, error) {
	if len(cascade) == 0 {
		return nil, errors.New("empty face cascade")
	}

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("unpack cascade: %w", err)
	}

	return &PigoDetector{
		classifier:  classifier,
		MinSize:     20,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		IoU:         0.2,
		MinQuality:  5.0,
	}, nil
}

func (d *PigoDetector) Detect(img image.Image) ([]image.Rectangle, error) {
	b := img.Bounds()
	cols, rows := b.Dx(), b.Dy()
	if cols == 0 || rows == 0 {
		return nil, nil
	}

	// pigo expects a zero-origin image
	src := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	draw.Draw(src, src.Bounds(), img, b.Min, draw.Src)

	pixels := pigo.RgbToGrayscale(src)
	params := pigo.CascadeParams{
		MinSize:     d.MinSize,
		MaxSize:     max(cols, rows),
		ShiftFactor: d.ShiftFactor,
		ScaleFactor: d.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, d.IoU)

	sort.SliceStable(dets, func(i, j int) bool { return dets[i].Q > dets[j].Q })

	var boxes []image.Rectangle
	for _, det := range dets {
		if det.Q < d.MinQuality {
			continue
		}
		half := det.Scale / 2
		boxes = append(boxes, image.Rect(det.Col-half, det.Row-half, det.Col+half, det.Row+half).Add(b.Min))
	}
	return boxes, nil
}
