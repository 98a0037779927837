package store

import (
	"fmt"
	"strings"
	"time"
)

// UnlockedBadges returns the persisted badge unlocks in unlock order.
// Entries without an id are dropped.
func (s *Store) UnlockedBadges() ([]BadgeUnlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unlockedBadges()
}

func (s *Store) unlockedBadges() ([]BadgeUnlock, error) {
	var stored []map[string]any
	ok, err := s.getJSON(KeyBadges, &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []BadgeUnlock{}, nil
	}
	badges, stamped := badgesFromRaw(stored, s.now())
	if stamped {
		// Persist the stamp so the unlock time stays fixed across reads.
		if err := s.setJSON(KeyBadges, badges); err != nil {
			s.logger.Warn("could not persist repaired badges", "error", err)
		}
	}
	return badges, nil
}

// badgesFromRaw converts loosely typed badge records, dropping entries
// without an id and keeping the first of any duplicates. Entries without a
// readable unlockedAt get now; stamped reports whether that happened.
func badgesFromRaw(raw []map[string]any, now time.Time) (badges []BadgeUnlock, stamped bool) {
	out := make([]BadgeUnlock, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, r := range raw {
		id, _ := r["id"].(string)
		if strings.TrimSpace(id) == "" || seen[id] {
			continue
		}
		seen[id] = true
		at, ok := parseTimestamp(r["unlockedAt"])
		if !ok {
			at = now.UTC().Truncate(time.Millisecond)
			stamped = true
		}
		out = append(out, BadgeUnlock{ID: id, UnlockedAt: at})
	}
	return out, stamped
}

// UnlockBadges adds each id not already unlocked, stamped with the current
// time, and returns the newly unlocked records. Existing unlocks are never
// removed or restamped.
func (s *Store) UnlockBadges(ids ...string) ([]BadgeUnlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.unlockedBadges()
	if err != nil {
		return nil, fmt.Errorf("unlock badges: %w", err)
	}
	have := make(map[string]bool, len(current))
	for _, b := range current {
		have[b.ID] = true
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	var added []BadgeUnlock
	for _, id := range ids {
		if id == "" || have[id] {
			continue
		}
		have[id] = true
		b := BadgeUnlock{ID: id, UnlockedAt: now}
		current = append(current, b)
		added = append(added, b)
	}
	if len(added) == 0 {
		return nil, nil
	}
	if err := s.setJSON(KeyBadges, current); err != nil {
		return nil, fmt.Errorf("unlock badges: %w", err)
	}
	return added, nil
}

// ReplaceBadges overwrites the badge record.
func (s *Store) ReplaceBadges(badges []BadgeUnlock) error {
	if badges == nil {
		badges = []BadgeUnlock{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.setJSON(KeyBadges, badges); err != nil {
		return fmt.Errorf("replace badges: %w", err)
	}
	return nil
}
