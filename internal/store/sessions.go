package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/asifrahman2003/devpulse/internal/timeutil"
)

// ListSessions returns every session, most recent date first and, within a
// date, most recently created first.
func (s *Store) ListSessions() ([]Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.loadSessions()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	SortSessions(sessions)
	return sessions, nil
}

// SortSessions orders sessions by date descending, then createdAt descending.
func SortSessions(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// GetSession returns the session with the given id.
func (s *Store) GetSession(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.loadSessions()
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	for i := range sessions {
		if sessions[i].ID == id {
			return &sessions[i], nil
		}
	}
	return nil, ErrSessionNotFound
}

// CreateSession normalizes in and appends it as a new session. It returns
// ErrInvalidMinutes, without writing, when the duration is under a minute.
func (s *Store) CreateSession(in SessionInput) (*Session, error) {
	minutes, err := minutesFor(in)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadSessions()
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	entry := Session{
		ID:        uuid.NewString(),
		Date:      s.normalizeDate(in.Date),
		Minutes:   minutes,
		Project:   normalizeProject(in.Project),
		Tags:      normalizeTagList(in.Tags),
		Mode:      normalizeMode(in.Mode),
		CreatedAt: now,
		UpdatedAt: now,
	}
	all = append(all, entry)
	if err := s.persistSessions(all); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &entry, nil
}

// UpdateSession applies the set fields of u to the session with the given
// id. Invalid minutes keep the previous value. UpdatedAt is always bumped.
func (s *Store) UpdateSession(id string, u SessionUpdate) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadSessions()
	if err != nil {
		return nil, fmt.Errorf("update session %s: %w", id, err)
	}

	idx := -1
	for i := range all {
		if all[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrSessionNotFound
	}

	sess := all[idx]
	if u.Date != nil {
		sess.Date = s.normalizeDate(*u.Date)
	}
	if u.Minutes != nil {
		if m := roundHalfUp(*u.Minutes); inMinuteRange(m) {
			sess.Minutes = int(m)
		}
	}
	if u.Project != nil {
		sess.Project = normalizeProject(*u.Project)
	}
	if u.Tags != nil {
		sess.Tags = normalizeTagList(*u.Tags)
	}
	if u.Mode != nil {
		sess.Mode = normalizeMode(*u.Mode)
	}
	sess.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)
	all[idx] = sess

	if err := s.persistSessions(all); err != nil {
		return nil, fmt.Errorf("update session %s: %w", id, err)
	}
	return &sess, nil
}

// DeleteSession removes the session with the given id and reports whether
// one was removed.
func (s *Store) DeleteSession(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadSessions()
	if err != nil {
		return false, fmt.Errorf("delete session %s: %w", id, err)
	}

	kept := make([]Session, 0, len(all))
	for _, sess := range all {
		if sess.ID != id {
			kept = append(kept, sess)
		}
	}
	if len(kept) == len(all) {
		return false, nil
	}
	if err := s.persistSessions(kept); err != nil {
		return false, fmt.Errorf("delete session %s: %w", id, err)
	}
	return true, nil
}

// ModifySessions replaces the session collection with the result of fn,
// under the store lock. fn must not call back into the store.
func (s *Store) ModifySessions(fn func([]Session) ([]Session, error)) ([]Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.loadSessions()
	if err != nil {
		return nil, fmt.Errorf("modify sessions: %w", err)
	}
	next, err := fn(all)
	if err != nil {
		return nil, err
	}
	if next == nil {
		next = []Session{}
	}
	if err := s.persistSessions(next); err != nil {
		return nil, fmt.Errorf("modify sessions: %w", err)
	}
	return next, nil
}

// LogsByDate derives the legacy date → minutes view from the sessions.
func (s *Store) LogsByDate() (map[string][]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.loadSessions()
	if err != nil {
		return nil, fmt.Errorf("logs by date: %w", err)
	}
	return LegacyLogs(sessions), nil
}

// TodayTotal returns the minutes logged on now's local date.
func (s *Store) TodayTotal(now time.Time) (int, error) {
	logs, err := s.LogsByDate()
	if err != nil {
		return 0, err
	}
	total := 0
	for _, m := range logs[timeutil.Today(now)] {
		total += m
	}
	return total, nil
}

// persistSessions writes the session collection, then mirrors the legacy
// date → minutes map. The mirror is advisory: it is always rederivable from
// the sessions, so its failure is logged and not returned.
func (s *Store) persistSessions(sessions []Session) error {
	if sessions == nil {
		sessions = []Session{}
	}
	if err := s.setJSON(KeySessions, sessions); err != nil {
		return err
	}
	if !s.mirrorLegacy {
		return nil
	}
	if err := s.setJSON(KeyLegacyLogs, LegacyLogs(sessions)); err != nil {
		s.logger.Warn("legacy logs mirror failed", "error", err)
	}
	return nil
}
