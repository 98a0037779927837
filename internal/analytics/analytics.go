// Package analytics derives streaks, averages, goal statistics and breakdowns
// from a snapshot of sessions. Every function is pure: the caller passes the
// sessions, the goal and the current time.
//
// Trailing windows of N days cover the calendar dates
// [today-(N-1), today] in local time. Sessions whose date does not parse are
// left out of windowed figures.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/asifrahman2003/devpulse/internal/store"
	"github.com/asifrahman2003/devpulse/internal/timeutil"
)

// DayTotal is the minutes logged on one date.
type DayTotal struct {
	Date    string `json:"date"`
	Minutes int    `json:"minutes"`
}

// HourTotal is the minutes started in one hour of the day.
type HourTotal struct {
	Hour    int `json:"hour"`
	Minutes int `json:"minutes"`
}

// Group is one row of a project or tag breakdown.
type Group struct {
	Name     string `json:"name"`
	Minutes  int    `json:"minutes"`
	Sessions int    `json:"sessions"`
}

// Summary is the combined view rendered by the dashboard and analytics tab.
type Summary struct {
	TotalMinutes    int        `json:"totalMinutes"`
	ActiveDays      int        `json:"activeDays"`
	ActiveDays30    int        `json:"activeDays30"`
	GoalHitDays30   int        `json:"goalHitDays30"`
	GoalHitRate30   int        `json:"goalHitRate30"`
	Rolling7Average float64    `json:"rolling7Average"`
	BestDay         *DayTotal  `json:"bestDay"`
	TopProject      *Group     `json:"topProject"`
	TopTag          *Group     `json:"topTag"`
	BestHour        *HourTotal `json:"bestHour"`
	StreakAtRisk    bool       `json:"streakAtRisk"`
	RiskStreakDays  int        `json:"riskStreakDays"`
	CurrentStreak   int        `json:"currentStreak"`
}

// DailyTotals sums minutes per date across all sessions.
func DailyTotals(sessions []store.Session) map[string]int {
	totals := make(map[string]int)
	for _, s := range sessions {
		totals[s.Date] += s.Minutes
	}
	return totals
}

func sessionCounts(sessions []store.Session) map[string]int {
	counts := make(map[string]int)
	for _, s := range sessions {
		counts[s.Date]++
	}
	return counts
}

// Streak counts consecutive dates ending at anchor that have at least one
// session, stopping at the first date without one.
func Streak(sessions []store.Session, anchor string) int {
	if _, err := timeutil.ParseDate(anchor, time.Local); err != nil {
		return 0
	}
	counts := sessionCounts(sessions)
	streak := 0
	for d := anchor; counts[d] > 0; d = timeutil.AddDays(d, -1) {
		streak++
	}
	return streak
}

// CurrentStreak is the streak anchored at today.
func CurrentStreak(sessions []store.Session, now time.Time) int {
	return Streak(sessions, timeutil.Today(now))
}

// AtRiskStreak reports whether the streak will break unless a session is
// logged today: today has no sessions but yesterday does. days is the
// streak anchored at yesterday, or zero when not at risk.
func AtRiskStreak(sessions []store.Session, now time.Time) (atRisk bool, days int) {
	today := timeutil.Today(now)
	yesterday := timeutil.AddDays(today, -1)
	counts := sessionCounts(sessions)
	if counts[today] > 0 || counts[yesterday] == 0 {
		return false, 0
	}
	return true, Streak(sessions, yesterday)
}

// window returns the first and last date of the trailing days-day window.
func window(now time.Time, days int) (start, end string) {
	end = timeutil.Today(now)
	if days < 1 {
		days = 1
	}
	return timeutil.AddDays(end, -(days - 1)), end
}

func inWindow(date, start, end string) bool {
	if _, err := timeutil.ParseDate(date, time.Local); err != nil {
		return false
	}
	return date >= start && date <= end
}

// TotalInRange sums minutes over the trailing days-day window.
func TotalInRange(sessions []store.Session, now time.Time, days int) int {
	start, end := window(now, days)
	total := 0
	for _, s := range sessions {
		if inWindow(s.Date, start, end) {
			total += s.Minutes
		}
	}
	return total
}

// Rolling7Average is the trailing 7-day total divided by 7, rounded to one
// decimal place.
func Rolling7Average(sessions []store.Session, now time.Time) float64 {
	avg := float64(TotalInRange(sessions, now, 7)) / 7
	return math.Floor(avg*10+0.5) / 10
}

// GoalHit30 counts trailing-30-day dates whose total reaches goal and returns
// that count as a whole percentage of 30. Days without sessions count as
// missed.
func GoalHit30(sessions []store.Session, goal int, now time.Time) (days, rate int) {
	start, end := window(now, 30)
	for date, total := range DailyTotals(sessions) {
		if inWindow(date, start, end) && total >= goal {
			days++
		}
	}
	rate = int(math.Floor(float64(days)/30*100 + 0.5))
	return days, rate
}

// ActiveDays30 counts trailing-30-day dates with any minutes logged.
func ActiveDays30(sessions []store.Session, now time.Time) int {
	start, end := window(now, 30)
	active := 0
	for date, total := range DailyTotals(sessions) {
		if inWindow(date, start, end) && total > 0 {
			active++
		}
	}
	return active
}

// BestDay returns the date with the highest total over all history. Ties go
// to the earliest date. ok is false when nothing is logged.
func BestDay(sessions []store.Session) (best DayTotal, ok bool) {
	for date, total := range DailyTotals(sessions) {
		if total <= 0 {
			continue
		}
		if !ok || total > best.Minutes || (total == best.Minutes && date < best.Date) {
			best, ok = DayTotal{Date: date, Minutes: total}, true
		}
	}
	return best, ok
}

// BestHour returns the local hour of day, taken from each session's
// createdAt, with the most minutes. Ties go to the lowest hour.
func BestHour(sessions []store.Session) (best HourTotal, ok bool) {
	var hours [24]int
	for _, s := range sessions {
		if s.CreatedAt.IsZero() {
			continue
		}
		hours[s.CreatedAt.Local().Hour()] += s.Minutes
	}
	for h, m := range hours {
		if m > 0 && m > best.Minutes {
			best, ok = HourTotal{Hour: h, Minutes: m}, true
		}
	}
	return best, ok
}

// ProjectBreakdown groups the trailing days-day window by project.
func ProjectBreakdown(sessions []store.Session, now time.Time, days int) []Group {
	return breakdown(sessions, now, days, func(s store.Session) []string {
		return []string{s.Project}
	})
}

// TagBreakdown groups the trailing days-day window by tag. A session with k
// tags counts toward k groups.
func TagBreakdown(sessions []store.Session, now time.Time, days int) []Group {
	return breakdown(sessions, now, days, func(s store.Session) []string {
		return s.Tags
	})
}

// breakdown sorts groups by minutes descending, then name ascending.
func breakdown(sessions []store.Session, now time.Time, days int, keys func(store.Session) []string) []Group {
	start, end := window(now, days)
	byName := map[string]*Group{}
	for _, s := range sessions {
		if !inWindow(s.Date, start, end) {
			continue
		}
		for _, k := range keys(s) {
			g, ok := byName[k]
			if !ok {
				g = &Group{Name: k}
				byName[k] = g
			}
			g.Minutes += s.Minutes
			g.Sessions++
		}
	}

	groups := make([]Group, 0, len(byName))
	for _, g := range byName {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Minutes != groups[j].Minutes {
			return groups[i].Minutes > groups[j].Minutes
		}
		return groups[i].Name < groups[j].Name
	})
	return groups
}

// Summarize computes every figure of Summary for the snapshot.
func Summarize(sessions []store.Session, goal int, now time.Time) Summary {
	totals := DailyTotals(sessions)

	sum := Summary{
		ActiveDays:      len(totals),
		ActiveDays30:    ActiveDays30(sessions, now),
		Rolling7Average: Rolling7Average(sessions, now),
		CurrentStreak:   CurrentStreak(sessions, now),
	}
	for _, s := range sessions {
		sum.TotalMinutes += s.Minutes
	}
	sum.GoalHitDays30, sum.GoalHitRate30 = GoalHit30(sessions, goal, now)
	sum.StreakAtRisk, sum.RiskStreakDays = AtRiskStreak(sessions, now)

	if d, ok := BestDay(sessions); ok {
		sum.BestDay = &d
	}
	if h, ok := BestHour(sessions); ok {
		sum.BestHour = &h
	}
	if p := ProjectBreakdown(sessions, now, 30); len(p) > 0 {
		sum.TopProject = &p[0]
	}
	if t := TagBreakdown(sessions, now, 30); len(t) > 0 {
		sum.TopTag = &t[0]
	}
	return sum
}

// Series returns the daily totals for the trailing days-day window, oldest
// first, with zero-minute days filled in. It feeds the analytics bar chart.
func Series(sessions []store.Session, now time.Time, days int) []DayTotal {
	totals := DailyTotals(sessions)
	start, _ := window(now, days)
	out := make([]DayTotal, 0, days)
	for i, d := 0, start; i < days; i, d = i+1, timeutil.AddDays(d, 1) {
		out = append(out, DayTotal{Date: d, Minutes: totals[d]})
	}
	return out
}
