// Package backup builds the full-state Backup Payload and imports one back,
// either merging with or replacing local data.
package backup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/asifrahman2003/devpulse/internal/store"
)

// Version tags payloads written by this package.
const Version = 2

// Payload is a snapshot of every exportable record.
type Payload struct {
	Version          int                    `json:"version"`
	ExportedAt       time.Time              `json:"exportedAt"`
	Sessions         []store.Session        `json:"sessions"`
	Notes            map[string]string      `json:"notes"`
	Badges           []store.BadgeUnlock    `json:"badges"`
	DailyGoal        int                    `json:"dailyGoal"`
	ReminderSettings store.ReminderSettings `json:"reminderSettings"`
}

// Options controls Import.
type Options struct {
	// Merge unions incoming data with local data. When false, incoming
	// sessions, notes and badges replace local ones.
	Merge bool
}

// Result reports what an import changed.
type Result struct {
	SessionsImported int `json:"sessionsImported"`
	TotalSessions    int `json:"totalSessions"`
	NotesImported    int `json:"notesImported"`
}

// Build snapshots the store.
func Build(s *store.Store, now time.Time) (Payload, error) {
	sessions, err := s.ListSessions()
	if err != nil {
		return Payload{}, fmt.Errorf("build payload: %w", err)
	}
	notes, err := s.Notes()
	if err != nil {
		return Payload{}, fmt.Errorf("build payload: %w", err)
	}
	badges, err := s.UnlockedBadges()
	if err != nil {
		return Payload{}, fmt.Errorf("build payload: %w", err)
	}
	goal, err := s.DailyGoal()
	if err != nil {
		return Payload{}, fmt.Errorf("build payload: %w", err)
	}
	reminder, err := s.ReminderSettings()
	if err != nil {
		return Payload{}, fmt.Errorf("build payload: %w", err)
	}

	return Payload{
		Version:          Version,
		ExportedAt:       now.UTC().Truncate(time.Millisecond),
		Sessions:         sessions,
		Notes:            notes,
		Badges:           badges,
		DailyGoal:        goal,
		ReminderSettings: reminder,
	}, nil
}

// incoming is the loosely decoded import document. Fields keep their raw
// JSON so a bad field degrades to "ignored" instead of failing the import.
type incoming struct {
	Sessions         json.RawMessage `json:"sessions"`
	Notes            json.RawMessage `json:"notes"`
	Badges           json.RawMessage `json:"badges"`
	DailyGoal        json.RawMessage `json:"dailyGoal"`
	ReminderSettings json.RawMessage `json:"reminderSettings"`
}

// Import applies raw, a JSON Backup Payload, to the store. Only a payload
// that is not a JSON object fails; any malformed field is skipped.
func Import(s *store.Store, raw []byte, opts Options) (Result, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Result{}, ErrInvalidPayload
	}
	var in incoming
	if err := json.Unmarshal(trimmed, &in); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	incomingSessions := []store.Session{}
	if isArray(in.Sessions) {
		normalized, err := s.NormalizeSessions(in.Sessions)
		if err == nil {
			incomingSessions = normalized
		}
	}

	next, err := s.ModifySessions(func(existing []store.Session) ([]store.Session, error) {
		if !opts.Merge {
			return incomingSessions, nil
		}
		return mergeSessions(existing, incomingSessions), nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("import sessions: %w", err)
	}

	notesIn := decodeNotes(in.Notes)
	notes := notesIn
	if opts.Merge {
		existing, err := s.Notes()
		if err != nil {
			return Result{}, fmt.Errorf("import notes: %w", err)
		}
		for date, note := range notesIn {
			existing[date] = note
		}
		notes = existing
	}
	if err := s.ReplaceNotes(notes); err != nil {
		return Result{}, fmt.Errorf("import notes: %w", err)
	}

	badges := decodeBadges(in.Badges, s.Now())
	if opts.Merge {
		existing, err := s.UnlockedBadges()
		if err != nil {
			return Result{}, fmt.Errorf("import badges: %w", err)
		}
		badges = unionBadges(existing, badges)
	}
	if err := s.ReplaceBadges(badges); err != nil {
		return Result{}, fmt.Errorf("import badges: %w", err)
	}

	if goal, ok := decodeGoal(in.DailyGoal); ok {
		if _, err := s.SetDailyGoal(goal); err != nil {
			return Result{}, fmt.Errorf("import daily goal: %w", err)
		}
	}

	if u, ok := decodeReminder(in.ReminderSettings); ok {
		if _, err := s.UpdateReminderSettings(u); err != nil {
			return Result{}, fmt.Errorf("import reminder settings: %w", err)
		}
	}

	return Result{
		SessionsImported: len(incomingSessions),
		TotalSessions:    len(next),
		NotesImported:    len(notesIn),
	}, nil
}

// ImportFile reads a payload from path and imports it.
func ImportFile(s *store.Store, path string, opts Options) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read backup: %w", err)
	}
	return Import(s, data, opts)
}

// mergeSessions unions by id, keeping existing order and appending new ids.
// On collision the later updatedAt wins; ties go to incoming.
func mergeSessions(existing, incoming []store.Session) []store.Session {
	out := make([]store.Session, len(existing), len(existing)+len(incoming))
	copy(out, existing)
	index := make(map[string]int, len(out))
	for i, s := range out {
		index[s.ID] = i
	}
	for _, s := range incoming {
		i, ok := index[s.ID]
		if !ok {
			index[s.ID] = len(out)
			out = append(out, s)
			continue
		}
		if !s.UpdatedAt.Before(out[i].UpdatedAt) {
			out[i] = s
		}
	}
	return out
}

func unionBadges(existing, incoming []store.BadgeUnlock) []store.BadgeUnlock {
	out := make([]store.BadgeUnlock, 0, len(existing)+len(incoming))
	seen := map[string]bool{}
	for _, list := range [][]store.BadgeUnlock{existing, incoming} {
		for _, b := range list {
			if b.ID == "" || seen[b.ID] {
				continue
			}
			seen[b.ID] = true
			out = append(out, b)
		}
	}
	return out
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func decodeNotes(raw json.RawMessage) map[string]string {
	notes := map[string]string{}
	if !isObject(raw) {
		return notes
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return notes
	}
	for date, v := range m {
		if str, ok := v.(string); ok {
			notes[date] = str
		}
	}
	return notes
}

func decodeBadges(raw json.RawMessage, now time.Time) []store.BadgeUnlock {
	badges := []store.BadgeUnlock{}
	if !isArray(raw) {
		return badges
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return badges
	}
	for _, entry := range list {
		var b struct {
			ID         any `json:"id"`
			UnlockedAt any `json:"unlockedAt"`
		}
		if !isObject(entry) || json.Unmarshal(entry, &b) != nil {
			continue
		}
		id, _ := b.ID.(string)
		if strings.TrimSpace(id) == "" {
			continue
		}
		at := now.UTC().Truncate(time.Millisecond)
		if str, ok := b.UnlockedAt.(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, str); err == nil {
				at = t
			}
		}
		badges = append(badges, store.BadgeUnlock{ID: id, UnlockedAt: at})
	}
	return badges
}

// decodeGoal accepts a positive number or numeric string.
func decodeGoal(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 || f > math.MaxInt32 {
		return 0, false
	}
	return int(math.Max(1, math.Floor(f+0.5))), true
}

// decodeReminder keeps only the fields with the right JSON type; the store
// validates the values.
func decodeReminder(raw json.RawMessage) (store.ReminderUpdate, bool) {
	if !isObject(raw) {
		return store.ReminderUpdate{}, false
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return store.ReminderUpdate{}, false
	}
	var u store.ReminderUpdate
	if v, ok := m["enabled"].(bool); ok {
		u.Enabled = &v
	}
	if v, ok := m["time"].(string); ok {
		u.Time = &v
	}
	if v, ok := m["message"].(string); ok {
		u.Message = &v
	}
	return u, true
}
