package face

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/dmitrijs2005/exeraser/internal/common"
	"github.com/dmitrijs2005/exeraser/internal/logging"
	"github.com/dmitrijs2005/exeraser/internal/models"
	"github.com/dmitrijs2005/exeraser/internal/providers/media"
)

// Library is the part of media.Provider the matcher reads from.
type Library interface {
	ListAll(ctx context.Context) ([]media.Asset, error)
	Open(ctx context.Context, id string) ([]byte, error)
}

// ReferenceFace is the normalized face taken from one reference photo.
type ReferenceFace struct {
	SourceID string
	FaceCrop
}

// Match is a library photo whose best similarity reached the threshold.
type Match struct {
	Asset      media.Asset
	Confidence float64
}

// Progress is reported after every completed batch.
type Progress struct {
	Processed    int
	Total        int
	BatchMatches int
}

type ProgressFunc func(Progress)

type Matcher struct {
	library  Library
	detector Detector
	compare  CompareFunc
	log      logging.Logger

	mu     sync.Mutex
	run    uint64
	cancel context.CancelFunc
}

func NewMatcher(library Library, detector Detector, log logging.Logger) *Matcher {
	return &Matcher{
		library:  library,
		detector: detector,
		compare:  CompareFaces,
		log:      log.With("component", "face"),
	}
}

// ExtractReferenceFace detects faces in a full resolution photo and
// normalizes the first one. Undecodable images and images without faces
// fail with common.ErrNoFaceFound.
func (m *Matcher) ExtractReferenceFace(ctx context.Context, id string) (ReferenceFace, error) {
	data, err := m.library.Open(ctx, id)
	if err != nil {
		return ReferenceFace{}, fmt.Errorf("open reference %s: %w", id, err)
	}

	img, err := decode(data)
	if err != nil {
		return ReferenceFace{}, fmt.Errorf("%w: %w", common.ErrNoFaceFound, err)
	}

	boxes, err := m.detector.Detect(img)
	if err != nil {
		return ReferenceFace{}, fmt.Errorf("%w: detect: %w", common.ErrNoFaceFound, err)
	}

	for _, box := range boxes {
		if crop, ok := cropFace(img, box); ok {
			return ReferenceFace{SourceID: id, FaceCrop: crop}, nil
		}
	}
	return ReferenceFace{}, common.ErrNoFaceFound
}

// Cancel stops the running scan at the next check point. It is safe to call
// at any time, any number of times.
func (m *Matcher) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *Matcher) begin(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	m.run++
	run := m.run
	m.cancel = cancel
	m.mu.Unlock()

	return ctx, func() {
		m.mu.Lock()
		cancel()
		if m.run == run {
			m.cancel = nil
		}
		m.mu.Unlock()
	}
}

// ScanLibrary compares every library photo against the reference photos in
// batches of batchSize, newest first.
//
// Photos that fail to load, decode or detect count as processed without a
// match. When ctx is cancelled or Cancel is called, the matches of completed
// batches are returned together with common.ErrScanAborted.
func (m *Matcher) ScanLibrary(ctx context.Context, referenceIDs []string, threshold float64, batchSize int, progress ProgressFunc) ([]Match, error) {
	ctx, done := m.begin(ctx)
	defer done()

	if batchSize <= 0 {
		batchSize = common.ScanBatchSize
	}

	refs := m.references(ctx, referenceIDs)
	if ctx.Err() != nil {
		return nil, common.ErrScanAborted
	}
	if len(refs) == 0 {
		return nil, common.ErrNoReferenceFaces
	}
	m.log.Info(ctx, "reference faces extracted", "count", len(refs), "requested", len(referenceIDs))

	assets, err := m.library.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list library: %w", err)
	}

	photos := make([]media.Asset, 0, len(assets))
	for _, a := range assets {
		if a.Kind == models.MediaPhoto {
			photos = append(photos, a)
		}
	}

	total := len(photos)
	processed := 0
	var matches []Match

	for start := 0; start < total; start += batchSize {
		if ctx.Err() != nil {
			return m.aborted(ctx, matches, processed, total)
		}

		end := min(start+batchSize, total)
		var batch []Match

		for _, asset := range photos[start:end] {
			if ctx.Err() != nil {
				// the unfinished batch is dropped
				return m.aborted(ctx, matches, processed, total)
			}

			confidence, err := m.score(ctx, asset.ID, refs)
			processed++
			if err != nil {
				m.log.Debug(ctx, "candidate skipped", "asset", asset.ID, "error", err)
				continue
			}
			if confidence >= threshold {
				batch = append(batch, Match{Asset: asset, Confidence: confidence})
			}
		}

		matches = append(matches, batch...)
		if progress != nil {
			progress(Progress{Processed: processed, Total: total, BatchMatches: len(batch)})
		}
	}

	m.log.Info(ctx, "library scan complete", "processed", processed, "matches", len(matches))
	return matches, nil
}

func (m *Matcher) aborted(ctx context.Context, matches []Match, processed, total int) ([]Match, error) {
	m.log.Info(ctx, "library scan cancelled", "processed", processed, "total", total, "matches", len(matches))
	return matches, common.ErrScanAborted
}

func (m *Matcher) references(ctx context.Context, ids []string) []ReferenceFace {
	refs := make([]ReferenceFace, 0, len(ids))
	for _, id := range ids {
		ref, err := m.ExtractReferenceFace(ctx, id)
		if err != nil {
			m.log.Warn(ctx, "reference photo unusable", "photo", id, "error", err)
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}

// score decodes and detects once, then returns the best similarity of any
// detected face against any reference.
func (m *Matcher) score(ctx context.Context, id string, refs []ReferenceFace) (float64, error) {
	data, err := m.library.Open(ctx, id)
	if err != nil {
		return 0, err
	}

	img, err := decode(data)
	if err != nil {
		return 0, err
	}
	img = fit(img, MaxCandidateSide)

	boxes, err := m.detector.Detect(img)
	if err != nil {
		return 0, fmt.Errorf("detect: %w", err)
	}
	faces := crops(img, boxes)
	if len(faces) == 0 {
		return 0, errNoCandidateFaces
	}

	return BestMatch(faces, refs, m.compare), nil
}

var errNoCandidateFaces = errors.New("no faces in candidate")

func crops(img image.Image, boxes []image.Rectangle) []FaceCrop {
	out := make([]FaceCrop, 0, len(boxes))
	for _, box := range boxes {
		if c, ok := cropFace(img, box); ok {
			out = append(out, c)
		}
	}
	return out
}
