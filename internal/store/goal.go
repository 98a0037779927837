package store

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultDailyGoal is the goal in minutes when none is stored.
const DefaultDailyGoal = 60

// DailyGoal returns the daily goal in minutes.
func (s *Store) DailyGoal() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dailyGoal()
}

func (s *Store) dailyGoal() (int, error) {
	raw, ok, err := s.getItem(KeyDailyGoal)
	if err != nil {
		return 0, err
	}
	if !ok {
		return DefaultDailyGoal, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		s.logger.Warn("discarding unreadable daily goal", "value", raw)
		return DefaultDailyGoal, nil
	}
	if g := roundHalfUp(f); inMinuteRange(g) {
		return int(g), nil
	}
	return DefaultDailyGoal, nil
}

// SetDailyGoal stores minutes as the daily goal, clamped to at least one, and
// returns the stored value.
func (s *Store) SetDailyGoal(minutes int) (int, error) {
	if minutes < 1 {
		minutes = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.setItem(KeyDailyGoal, strconv.Itoa(minutes)); err != nil {
		return 0, fmt.Errorf("set daily goal: %w", err)
	}
	return minutes, nil
}
