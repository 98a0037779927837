// Package badges holds the fixed achievement catalog and the rules that
// unlock it.
package badges

import (
	"fmt"
	"time"

	"github.com/asifrahman2003/devpulse/internal/analytics"
	"github.com/asifrahman2003/devpulse/internal/store"
)

// Kind is what a badge threshold is measured against.
type Kind int

const (
	KindMinutes Kind = iota
	KindStreak
)

// Badge is one catalog entry.
type Badge struct {
	ID          string
	Title       string
	Description string
	Kind        Kind
	Threshold   int
}

var catalog = []Badge{
	{ID: "starter", Title: "Getting Started", Description: "Log 100+ minutes total", Kind: KindMinutes, Threshold: 100},
	{ID: "digger", Title: "Development Digger", Description: "Log 500+ minutes total", Kind: KindMinutes, Threshold: 500},
	{ID: "pilot", Title: "Productive Pilot", Description: "Log 1000+ minutes total", Kind: KindMinutes, Threshold: 1000},
	{ID: "deep", Title: "Deep Developer", Description: "Log 2000+ minutes total", Kind: KindMinutes, Threshold: 2000},
	{ID: "streak3", Title: "Warm-Up Streak", Description: "3-day streak", Kind: KindStreak, Threshold: 3},
	{ID: "streak7", Title: "Focus Flame", Description: "7-day streak", Kind: KindStreak, Threshold: 7},
	{ID: "streak14", Title: "Persistent Fire", Description: "14-day streak", Kind: KindStreak, Threshold: 14},
	{ID: "streak30", Title: "Unbreakable", Description: "30-day streak", Kind: KindStreak, Threshold: 30},
}

// Catalog returns a copy of every badge in display order.
func Catalog() []Badge {
	out := make([]Badge, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the badge with the given id.
func Lookup(id string) (Badge, bool) {
	for _, b := range catalog {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

// Evaluate returns the ids of every badge whose threshold is met.
func Evaluate(totalMinutes, streak int) []string {
	var ids []string
	for _, b := range catalog {
		v := totalMinutes
		if b.Kind == KindStreak {
			v = streak
		}
		if v >= b.Threshold {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

// Unlocker persists badge unlocks. *store.Store satisfies it.
type Unlocker interface {
	UnlockBadges(ids ...string) ([]store.BadgeUnlock, error)
}

// Refresh evaluates the sessions and records any newly qualifying badges.
// Badges already unlocked stay unlocked.
func Refresh(u Unlocker, sessions []store.Session, now time.Time) ([]store.BadgeUnlock, error) {
	total := 0
	for _, s := range sessions {
		total += s.Minutes
	}
	ids := Evaluate(total, analytics.CurrentStreak(sessions, now))
	if len(ids) == 0 {
		return nil, nil
	}
	added, err := u.UnlockBadges(ids...)
	if err != nil {
		return nil, fmt.Errorf("refresh badges: %w", err)
	}
	return added, nil
}

// Entry pairs a catalog badge with its unlock state.
type Entry struct {
	Badge
	Unlocked   bool
	UnlockedAt time.Time
}

// Status lists the catalog with unlock state taken from unlocked. Unknown ids
// in unlocked are ignored.
func Status(unlocked []store.BadgeUnlock) []Entry {
	at := make(map[string]time.Time, len(unlocked))
	for _, u := range unlocked {
		at[u.ID] = u.UnlockedAt
	}
	entries := make([]Entry, 0, len(catalog))
	for _, b := range catalog {
		t, ok := at[b.ID]
		entries = append(entries, Entry{Badge: b, Unlocked: ok, UnlockedAt: t})
	}
	return entries
}
