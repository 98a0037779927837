package store

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/asifrahman2003/devpulse/internal/timeutil"
)

// DefaultReminderMessage is shown when no custom message is set.
const DefaultReminderMessage = "Time for your development session in DevPulse."

var reminderTimeRe = regexp.MustCompile(`^\d{2}:\d{2}$`)

// DefaultReminderSettings returns the reminder settings used when none are
// stored.
func DefaultReminderSettings() ReminderSettings {
	return ReminderSettings{Enabled: false, Time: "20:00", Message: DefaultReminderMessage}
}

// ValidReminderTime reports whether t has the HH:MM shape.
func ValidReminderTime(t string) bool {
	return reminderTimeRe.MatchString(t)
}

// ReminderSettings returns the stored reminder settings. Each invalid field
// falls back to its default on its own.
func (s *Store) ReminderSettings() (ReminderSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reminderSettings()
}

func (s *Store) reminderSettings() (ReminderSettings, error) {
	settings := DefaultReminderSettings()

	var stored map[string]any
	ok, err := s.getJSON(KeyReminder, &stored)
	if err != nil {
		return settings, err
	}
	if !ok || stored == nil {
		return settings, nil
	}

	settings.Enabled = truthy(stored["enabled"])
	if t, ok := stored["time"].(string); ok && ValidReminderTime(t) {
		settings.Time = t
	}
	if m, ok := stored["message"].(string); ok && strings.TrimSpace(m) != "" {
		settings.Message = strings.TrimSpace(m)
	}
	return settings, nil
}

// UpdateReminderSettings applies the set and valid fields of u on top of the
// current settings, stores the result and returns it.
func (s *Store) UpdateReminderSettings(u ReminderUpdate) (ReminderSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.reminderSettings()
	if err != nil {
		return next, fmt.Errorf("update reminder settings: %w", err)
	}
	if u.Enabled != nil {
		next.Enabled = *u.Enabled
	}
	if u.Time != nil && ValidReminderTime(*u.Time) {
		next.Time = *u.Time
	}
	if u.Message != nil && strings.TrimSpace(*u.Message) != "" {
		next.Message = strings.TrimSpace(*u.Message)
	}
	if err := s.setJSON(KeyReminder, next); err != nil {
		return next, fmt.Errorf("update reminder settings: %w", err)
	}
	return next, nil
}

// LastReminderDate returns the date the reminder last fired, or "".
func (s *Store) LastReminderDate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, _, err := s.getItem(KeyLastReminder)
	return v, err
}

// SetLastReminderDate records that the reminder fired on date.
func (s *Store) SetLastReminderDate(date string) error {
	if date == "" {
		date = timeutil.Today(s.now())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setItem(KeyLastReminder, date)
}

// truthy follows loose JSON truthiness: false, 0, "", null are false.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}
