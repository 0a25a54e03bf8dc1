// Package coolingoff runs the sweep that finishes scheduled deletions once
// their cooling-off period ends and sends the last-chance reminder the day
// before.
//
// A sweep is triggered from outside: by the CLI on start-up and by the
// daemon's periodic wake. Both may fire close together, so overlapping sweeps
// are refused with common.ErrSweepInProgress instead of queued.
package coolingoff

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/exeraser/internal/common"
	"github.com/dmitrijs2005/exeraser/internal/logging"
	"github.com/dmitrijs2005/exeraser/internal/models"
)

// Vault is the part of the vault manager the sweep drives.
type Vault interface {
	DueDeletions(ctx context.Context, now time.Time) ([]*models.CoolingOffItem, error)
	// DeleteExpired reports false when the item was cancelled, restored or
	// already deleted since it was listed.
	DeleteExpired(ctx context.Context, coolingOffID string, now time.Time) (bool, error)
	PendingDeletions(ctx context.Context) ([]*models.CoolingOffItem, error)
	MarkReminded(ctx context.Context, coolingOffID string) (bool, error)
}

type Options struct {
	CoolingOffDays int
	ReminderDay    int
}

// Report counts what one sweep did.
type Report struct {
	Checked  int
	Deleted  int
	Reminded int
	Failed   int
}

type Scheduler struct {
	vault    Vault
	notifier Notifier
	opts     Options
	log      logging.Logger
	now      func() time.Time

	running sync.Mutex
}

func NewScheduler(v Vault, n Notifier, opts Options, log logging.Logger) *Scheduler {
	if opts.CoolingOffDays <= 0 {
		opts.CoolingOffDays = common.CoolingOffDays
	}
	if opts.ReminderDay <= 0 || opts.ReminderDay >= opts.CoolingOffDays {
		opts.ReminderDay = min(common.CoolingOffReminderDay, opts.CoolingOffDays-1)
	}
	return &Scheduler{
		vault:    v,
		notifier: n,
		opts:     opts,
		log:      log.With("component", "coolingoff"),
		now:      time.Now,
	}
}

// reminderWindow is the number of remaining days at which the reminder is due.
func (s *Scheduler) reminderWindow() int {
	return s.opts.CoolingOffDays - s.opts.ReminderDay
}

// Sweep processes every pending deletion once. Items whose period is over
// are deleted unless they were cancelled in the meantime, and items inside
// the reminder window get a single reminder. A failure on one item is logged
// and counted, and the sweep moves on.
func (s *Scheduler) Sweep(ctx context.Context) (Report, error) {
	if !s.running.TryLock() {
		return Report{}, common.ErrSweepInProgress
	}
	defer s.running.Unlock()

	var rep Report
	now := s.now()

	due, err := s.vault.DueDeletions(ctx, now)
	if err != nil {
		return rep, err
	}
	for _, co := range due {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.Checked++

		deleted, err := s.vault.DeleteExpired(ctx, co.ID, now)
		if err != nil {
			rep.Failed++
			s.log.Error(ctx, "permanent deletion failed", "cooling_off_id", co.ID, "vault_item_id", co.VaultItemID, "error", err)
			continue
		}
		if deleted {
			rep.Deleted++
		}
	}

	pending, err := s.vault.PendingDeletions(ctx)
	if err != nil {
		return rep, err
	}
	for _, co := range pending {
		// left over from a failed deletion above
		if co.Expired(now) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.Checked++

		if co.Reminded || co.DaysRemaining(now) > s.reminderWindow() {
			continue
		}
		sent, err := s.remind(ctx, co, now)
		if err != nil {
			rep.Failed++
			s.log.Error(ctx, "reminder failed", "cooling_off_id", co.ID, "error", err)
			continue
		}
		if sent {
			rep.Reminded++
		}
	}

	s.log.Info(ctx, "sweep finished", "checked", rep.Checked, "deleted", rep.Deleted, "reminded", rep.Reminded, "failed", rep.Failed)
	return rep, nil
}

// remind claims the reminder in the store before notifying, so a reminder is
// sent at most once even if delivery fails.
func (s *Scheduler) remind(ctx context.Context, co *models.CoolingOffItem, now time.Time) (bool, error) {
	claimed, err := s.vault.MarkReminded(ctx, co.ID)
	if err != nil || !claimed {
		return false, err
	}

	r := Reminder{
		CoolingOffID:  co.ID,
		VaultItemID:   co.VaultItemID,
		DeleteAfter:   co.DeleteAfter,
		DaysRemaining: co.DaysRemaining(now),
	}
	if err := s.notifier.Notify(ctx, r); err != nil {
		return false, err
	}
	return true, nil
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	s.tick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.Sweep(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Warn(ctx, "sweep skipped", "error", err)
	}
}
