package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/exeraser/internal/common"
	"github.com/dmitrijs2005/exeraser/internal/face"
	"github.com/dmitrijs2005/exeraser/internal/logging"
	"github.com/dmitrijs2005/exeraser/internal/models"
	"github.com/dmitrijs2005/exeraser/internal/providers/events"
	"github.com/dmitrijs2005/exeraser/internal/providers/media"
	"github.com/google/uuid"
)

// Progress windows per phase. The face phase always ends at 0.6.
const (
	faceEnd     = 0.6
	datesEnd    = 0.75
	calendarEnd = 1.0
)

// lerp maps f in [0, 1] onto [a, b], returning b exactly for f == 1.
func lerp(a, b, f float64) float64 {
	return a*(1-f) + b*f
}

// FaceScanner is the part of face.Matcher the orchestrator drives.
type FaceScanner interface {
	ScanLibrary(ctx context.Context, referenceIDs []string, threshold float64, batchSize int, progress face.ProgressFunc) ([]face.Match, error)
	Cancel()
}

// Listener receives every state change, on the scanning goroutine.
type Listener func(State)

// ApplyFunc carries out the user's decisions before a run completes.
type ApplyFunc func(ctx context.Context, decided []models.MatchCandidate) error

type Options struct {
	Threshold     float64
	BatchSize     int
	LookbackYears int
}

func DefaultOptions() Options {
	return Options{
		Threshold:     common.FaceMatchThreshold,
		BatchSize:     common.ScanBatchSize,
		LookbackYears: common.CalendarLookbackYears,
	}
}

type Orchestrator struct {
	media  media.Provider
	events events.Provider
	faces  FaceScanner
	opts   Options
	log    logging.Logger
	now    func() time.Time

	mu       sync.Mutex
	state    State
	listener Listener
	cancel   context.CancelFunc
}

func New(mp media.Provider, ep events.Provider, faces FaceScanner, opts Options, log logging.Logger) *Orchestrator {
	return &Orchestrator{
		media:  mp,
		events: ep,
		faces:  faces,
		opts:   opts,
		log:    log.With("component", "scan"),
		now:    time.Now,
		state:  idle(),
	}
}

// SetListener registers l for state changes, replacing any previous one.
func (o *Orchestrator) SetListener(l Listener) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listener = l
}

// State returns a snapshot of the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.clone()
}

func (o *Orchestrator) set(s State) {
	o.mu.Lock()
	if s.Status == StatusScanning && o.state.Status == StatusScanning && s.Progress < o.state.Progress {
		s.Progress = o.state.Progress
	}
	o.state = s
	l := o.listener
	snapshot := s.clone()
	o.mu.Unlock()

	if l != nil {
		l(snapshot)
	}
}

// Start runs the scan on a new goroutine. The returned channel yields the
// final state and is then closed.
func (o *Orchestrator) Start(ctx context.Context, profile models.ExProfile) <-chan State {
	done := make(chan State, 1)
	go func() {
		defer close(done)
		s, err := o.Run(ctx, profile)
		if err != nil {
			o.log.Debug(ctx, "scan run returned", "error", err)
		}
		done <- s
	}()
	return done
}

// Cancel stops a running scan. Completed results are kept and the run ends in
// review with Aborted set. Safe to call when nothing is running.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	o.faces.Cancel()
}

// Run executes the face, date range and calendar phases in order and leaves
// the orchestrator in review. It blocks until the run ends.
func (o *Orchestrator) Run(ctx context.Context, profile models.ExProfile) (State, error) {
	if err := profile.Validate(); err != nil {
		return o.State(), err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	o.mu.Lock()
	if o.cancel != nil || !o.state.Status.CanStart() {
		status := o.state.Status
		o.mu.Unlock()
		return o.State(), fmt.Errorf("%w: cannot start a scan while %s", common.ErrInvalidTransition, status)
	}
	o.cancel = cancel
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.cancel = nil
		o.mu.Unlock()
	}()

	if err := o.authorize(ctx); err != nil {
		o.log.Warn(ctx, "scan not started", "error", err)
		o.set(failed(StatusUnauthorized, err.Error()))
		return o.State(), err
	}

	startedAt := o.now()
	o.set(scanning(0, models.PhaseFaces))
	o.log.Info(ctx, "scan started",
		"references", len(profile.ReferencePhotoIDs), "date_ranges", len(profile.DateRanges))
	o.log.Debug(ctx, "scan target", "name", profile.Name)

	results, err := o.scanFaces(ctx, profile)
	if errors.Is(err, common.ErrScanAborted) {
		return o.abort(ctx, results)
	}
	if err != nil {
		return o.fail(ctx, models.PhaseFaces, err)
	}
	o.set(scanning(faceEnd, models.PhaseFaces))
	o.log.Info(ctx, "face phase complete", "matches", len(results))

	if profile.HasDateRanges() {
		if ctx.Err() != nil {
			return o.abort(ctx, results)
		}
		o.set(scanning(faceEnd, models.PhaseDates))

		dated, err := o.scanDateRanges(ctx, profile.DateRanges)
		if err != nil {
			if ctx.Err() != nil {
				return o.abort(ctx, results)
			}
			return o.fail(ctx, models.PhaseDates, err)
		}
		kept := Dedupe(results, dated)
		results = append(results, kept...)
		o.log.Info(ctx, "date range phase complete", "matches", len(dated), "kept", len(kept))
	}

	if ctx.Err() != nil {
		return o.abort(ctx, results)
	}
	o.set(scanning(datesEnd, models.PhaseCalendar))

	found, err := o.scanCalendar(ctx, profile, startedAt)
	if err != nil {
		if ctx.Err() != nil {
			return o.abort(ctx, results)
		}
		return o.fail(ctx, models.PhaseCalendar, err)
	}
	kept := Dedupe(results, found)
	results = append(results, kept...)
	o.log.Info(ctx, "calendar phase complete", "matches", len(found), "kept", len(kept))

	o.set(scanning(calendarEnd, models.PhaseCalendar))
	o.set(review(results, false))
	o.log.Info(ctx, "scan complete", "results", len(results))

	return o.State(), nil
}

func (o *Orchestrator) abort(ctx context.Context, partial []models.MatchCandidate) (State, error) {
	o.log.Info(ctx, "scan cancelled", "results", len(partial))
	o.set(review(partial, true))
	return o.State(), nil
}

func (o *Orchestrator) fail(ctx context.Context, phase models.ScanPhase, err error) (State, error) {
	o.log.Error(ctx, "scan failed", "phase", phase, "error", err)
	o.set(failed(StatusError, err.Error()))
	return o.State(), fmt.Errorf("%s phase: %w", phase, err)
}

func (o *Orchestrator) authorize(ctx context.Context) error {
	ms, err := o.media.AuthorizationStatus(ctx)
	if err != nil {
		return fmt.Errorf("media authorization: %w", err)
	}
	if !ms.Readable() {
		return fmt.Errorf("%w: photo library access is %s", common.ErrProviderUnauthorized, ms)
	}

	es, err := o.events.AuthorizationStatus(ctx)
	if err != nil {
		return fmt.Errorf("calendar authorization: %w", err)
	}
	if !es.Readable() {
		return fmt.Errorf("%w: calendar access is %s", common.ErrProviderUnauthorized, es)
	}
	return nil
}

func (o *Orchestrator) scanFaces(ctx context.Context, profile models.ExProfile) ([]models.MatchCandidate, error) {
	progress := func(p face.Progress) {
		if p.Total > 0 {
			o.set(scanning(lerp(0, faceEnd, float64(p.Processed)/float64(p.Total)), models.PhaseFaces))
		}
	}

	matches, err := o.faces.ScanLibrary(ctx, profile.ReferencePhotoIDs, o.opts.Threshold, o.opts.BatchSize, progress)

	results := make([]models.MatchCandidate, 0, len(matches))
	for _, m := range matches {
		results = append(results, models.MatchCandidate{
			ID:           uuid.NewString(),
			AssetID:      m.Asset.ID,
			Kind:         m.Asset.Kind,
			Source:       models.SourceFace,
			Confidence:   m.Confidence,
			Timestamp:    m.Asset.CreationDate,
			ThumbnailURI: m.Asset.ThumbnailURI,
			IsCloudAsset: m.Asset.IsCloudAsset,
		})
	}
	return results, err
}

// scanDateRanges returns every asset inside the profile's ranges as a full
// confidence match.
func (o *Orchestrator) scanDateRanges(ctx context.Context, ranges []models.DateRange) ([]models.MatchCandidate, error) {
	var results []models.MatchCandidate
	for i, r := range ranges {
		assets, err := o.media.FetchByDateRange(ctx, r.Start, r.End)
		if err != nil {
			return nil, err
		}
		for _, a := range assets {
			results = append(results, models.MatchCandidate{
				ID:           uuid.NewString(),
				AssetID:      a.ID,
				Kind:         a.Kind,
				Source:       models.SourceDateRange,
				Confidence:   1.0,
				Timestamp:    a.CreationDate,
				ThumbnailURI: a.ThumbnailURI,
				IsCloudAsset: a.IsCloudAsset,
			})
		}
		o.set(scanning(lerp(faceEnd, datesEnd, float64(i+1)/float64(len(ranges))), models.PhaseDates))
	}
	return results, nil
}

// scanCalendar searches the lookback window ending at the scan start.
func (o *Orchestrator) scanCalendar(ctx context.Context, profile models.ExProfile, now time.Time) ([]models.MatchCandidate, error) {
	years := o.opts.LookbackYears
	if years <= 0 {
		years = common.CalendarLookbackYears
	}
	from := now.AddDate(-years, 0, 0)

	found, err := o.events.SearchEvents(ctx, profile.Name, profile.PhoneNumber, from, now)
	if err != nil {
		return nil, err
	}

	results := make([]models.MatchCandidate, 0, len(found))
	for _, e := range found {
		results = append(results, models.MatchCandidate{
			ID:         uuid.NewString(),
			AssetID:    e.EventID,
			Kind:       models.MediaCalendarEvent,
			Source:     models.SourceContact,
			Confidence: 1.0,
			Timestamp:  e.StartDate,
		})
	}
	return results, nil
}

// SetDecision records the user's verdict for a candidate under review.
func (o *Orchestrator) SetDecision(candidateID string, d models.Decision) error {
	if !d.Valid() {
		return fmt.Errorf("unknown decision %q", d)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.Status != StatusReview {
		return fmt.Errorf("%w: no results under review", common.ErrInvalidTransition)
	}
	for i := range o.state.Results {
		if o.state.Results[i].ID == candidateID {
			o.state.Results[i].Decision = d
			return nil
		}
	}
	return common.ErrNotFound
}

// Summary reduces the results under review. Usable as a progress indicator
// while decisions are still being made.
func (o *Orchestrator) Summary() (models.CleanupSummary, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state.Status {
	case StatusReview:
		return BuildSummary(o.state.Results), nil
	case StatusComplete:
		return o.state.Summary, nil
	}
	return models.CleanupSummary{}, fmt.Errorf("%w: no results", common.ErrInvalidTransition)
}

// Complete applies the decided results and moves review to complete. If
// apply fails the orchestrator stays in review so the user can retry.
func (o *Orchestrator) Complete(ctx context.Context, apply ApplyFunc) (models.CleanupSummary, error) {
	s := o.State()
	if s.Status != StatusReview {
		return models.CleanupSummary{}, fmt.Errorf("%w: cannot complete while %s", common.ErrInvalidTransition, s.Status)
	}

	if apply != nil {
		decided := make([]models.MatchCandidate, 0, len(s.Results))
		for _, r := range s.Results {
			if r.Decision.Valid() {
				decided = append(decided, r)
			}
		}
		if err := apply(ctx, decided); err != nil {
			return models.CleanupSummary{}, fmt.Errorf("apply decisions: %w", err)
		}
	}

	summary := BuildSummary(s.Results)
	o.set(State{Status: StatusComplete, Summary: summary})
	o.log.Info(ctx, "scan results applied",
		"vaulted", summary.TotalVaulted, "deleted", summary.TotalDeleted, "kept", summary.TotalKept)
	return summary, nil
}

// Reset returns to idle. It fails while a scan is running.
func (o *Orchestrator) Reset() error {
	if o.State().Status == StatusScanning {
		return fmt.Errorf("%w: scan in progress", common.ErrInvalidTransition)
	}
	o.set(idle())
	return nil
}
