package scan

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/exeraser/internal/face"
	"github.com/dmitrijs2005/exeraser/internal/models"
	"github.com/dmitrijs2005/exeraser/internal/providers/events"
	"github.com/dmitrijs2005/exeraser/internal/providers/media"
)

type fakeMedia struct {
	media.Provider
	status   media.AuthStatus
	assets   []media.Asset
	fetchErr error
}

func (f *fakeMedia) AuthorizationStatus(ctx context.Context) (media.AuthStatus, error) {
	return f.status, nil
}

func (f *fakeMedia) FetchByDateRange(ctx context.Context, start, end time.Time) ([]media.Asset, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	r := models.DateRange{Start: start, End: end}
	var out []media.Asset
	for _, a := range f.assets {
		if r.Contains(a.CreationDate) {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeEvents struct {
	events.Provider
	status    media.AuthStatus
	found     []events.Event
	searchErr error

	from, to time.Time
	name     string
}

func (f *fakeEvents) AuthorizationStatus(ctx context.Context) (media.AuthStatus, error) {
	return f.status, nil
}

func (f *fakeEvents) SearchEvents(ctx context.Context, name, phone string, from, to time.Time) ([]events.Event, error) {
	f.name, f.from, f.to = name, from, to
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.found, nil
}

type fakeFaces struct {
	mu        sync.Mutex
	matches   []face.Match
	progress  []face.Progress
	err       error
	calls     int
	cancelled int
	threshold float64
	batchSize int
	// during runs while the scan is in flight, before returning
	during func()
}

func (f *fakeFaces) ScanLibrary(ctx context.Context, refs []string, threshold float64, batchSize int, progress face.ProgressFunc) ([]face.Match, error) {
	f.mu.Lock()
	f.calls++
	f.threshold, f.batchSize = threshold, batchSize
	during := f.during
	f.mu.Unlock()

	for _, p := range f.progress {
		progress(p)
	}
	if during != nil {
		during()
	}
	return f.matches, f.err
}

func (f *fakeFaces) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled++
}
