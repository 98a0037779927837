// Package reminder decides when the daily reminder fires. It is polled, not
// scheduled: callers check ShouldTrigger on a short interval and call
// MarkSent after notifying, which limits the reminder to once per day.
package reminder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/asifrahman2003/devpulse/internal/store"
	"github.com/asifrahman2003/devpulse/internal/timeutil"
)

// Store is the persistence the scheduler needs. *store.Store satisfies it.
type Store interface {
	ReminderSettings() (store.ReminderSettings, error)
	LastReminderDate() (string, error)
	SetLastReminderDate(date string) error
}

type Scheduler struct {
	store  Store
	logger *slog.Logger
}

func New(s Store, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scheduler{store: s, logger: logger}
}

// ShouldTrigger reports whether the reminder is enabled, now's local HH:MM
// equals the configured time, and no reminder was sent yet on now's date.
func (s *Scheduler) ShouldTrigger(now time.Time) (bool, error) {
	settings, err := s.store.ReminderSettings()
	if err != nil {
		return false, fmt.Errorf("reminder settings: %w", err)
	}
	if !settings.Enabled {
		return false, nil
	}
	if now.Local().Format("15:04") != settings.Time {
		return false, nil
	}
	last, err := s.store.LastReminderDate()
	if err != nil {
		return false, fmt.Errorf("last reminder date: %w", err)
	}
	return last != timeutil.Today(now), nil
}

// MarkSent records that the reminder fired on date.
func (s *Scheduler) MarkSent(date string) error {
	if err := s.store.SetLastReminderDate(date); err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}

// Check runs one poll: when the reminder is due it returns the settings,
// records today as sent and reports true.
func (s *Scheduler) Check(now time.Time) (store.ReminderSettings, bool, error) {
	due, err := s.ShouldTrigger(now)
	if err != nil || !due {
		return store.ReminderSettings{}, false, err
	}
	settings, err := s.store.ReminderSettings()
	if err != nil {
		return store.ReminderSettings{}, false, err
	}
	if err := s.MarkSent(timeutil.Today(now)); err != nil {
		return store.ReminderSettings{}, false, err
	}
	return settings, true, nil
}

// Poll checks every interval until ctx is done, calling fire when the
// reminder is due. Check errors are logged and polling continues.
func (s *Scheduler) Poll(ctx context.Context, interval time.Duration, fire func(store.ReminderSettings)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			settings, due, err := s.Check(now)
			if err != nil {
				s.logger.Error("reminder check failed", "error", err)
				continue
			}
			if due {
				s.logger.Info("reminder fired", "time", settings.Time)
				fire(settings)
			}
		}
	}
}
