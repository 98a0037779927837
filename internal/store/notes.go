package store

import (
	"fmt"
	"time"

	"github.com/asifrahman2003/devpulse/internal/timeutil"
)

// Notes returns every stored note keyed by date. Non-string values are
// skipped.
func (s *Store) Notes() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notes()
}

func (s *Store) notes() (map[string]string, error) {
	var stored map[string]any
	ok, err := s.getJSON(KeyNotes, &stored)
	if err != nil {
		return nil, err
	}
	notes := make(map[string]string, len(stored))
	if !ok {
		return notes, nil
	}
	for date, v := range stored {
		if str, isStr := v.(string); isStr {
			notes[date] = str
		}
	}
	return notes, nil
}

// Note returns the note for date, or "" when there is none.
func (s *Store) Note(date string) (string, error) {
	notes, err := s.Notes()
	if err != nil {
		return "", err
	}
	return notes[date], nil
}

// TodayNote returns the note for now's local date.
func (s *Store) TodayNote(now time.Time) (string, error) {
	return s.Note(timeutil.Today(now))
}

// SaveNote stores content as the note for date.
func (s *Store) SaveNote(date, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.notes()
	if err != nil {
		return fmt.Errorf("save note %s: %w", date, err)
	}
	notes[date] = content
	if err := s.setJSON(KeyNotes, notes); err != nil {
		return fmt.Errorf("save note %s: %w", date, err)
	}
	return nil
}

// ClearNote removes the note for date.
func (s *Store) ClearNote(date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.notes()
	if err != nil {
		return fmt.Errorf("clear note %s: %w", date, err)
	}
	delete(notes, date)
	if err := s.setJSON(KeyNotes, notes); err != nil {
		return fmt.Errorf("clear note %s: %w", date, err)
	}
	return nil
}

// ReplaceNotes overwrites the whole notes record.
func (s *Store) ReplaceNotes(notes map[string]string) error {
	if notes == nil {
		notes = map[string]string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.setJSON(KeyNotes, notes); err != nil {
		return fmt.Errorf("replace notes: %w", err)
	}
	return nil
}
