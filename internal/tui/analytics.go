package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/asifrahman2003/devpulse/internal/analytics"
	"github.com/asifrahman2003/devpulse/internal/badges"
	"github.com/asifrahman2003/devpulse/internal/store"
	"github.com/asifrahman2003/devpulse/internal/timeutil"
)

const breakdownRows = 5

type analyticsModel struct {
	store  *store.Store
	width  int
	height int

	days     int // chart and breakdown window: 7 or 30
	goal     int
	series   []analytics.DayTotal
	summary  analytics.Summary
	projects []analytics.Group
	tags     []analytics.Group
	badges   []badges.Entry

	chart barchart.Model
}

func newAnalyticsModel(s *store.Store) analyticsModel {
	return analyticsModel{
		store: s,
		days:  7,
		goal:  store.DefaultDailyGoal,
		chart: barchart.New(60, 12),
	}
}

func (a *analyticsModel) setSize(w, h int) {
	a.width = w
	a.height = h
	a.buildChart()
}

type analyticsDataMsg struct {
	days     int
	goal     int
	series   []analytics.DayTotal
	summary  analytics.Summary
	projects []analytics.Group
	tags     []analytics.Group
	badges   []badges.Entry
	unlocked []string
}

// refresh recomputes every figure and evaluates badge unlocks against the
// current history.
func (a analyticsModel) refresh() tea.Cmd {
	days := a.days
	return func() tea.Msg {
		unlocked := refreshBadges(a.store)

		sessions, err := a.store.ListSessions()
		if err != nil {
			return errStatus("Load sessions", err)
		}
		goal, err := a.store.DailyGoal()
		if err != nil {
			return errStatus("Load goal", err)
		}
		earned, err := a.store.UnlockedBadges()
		if err != nil {
			return errStatus("Load badges", err)
		}

		now := a.store.Now()
		return analyticsDataMsg{
			days:     days,
			goal:     goal,
			series:   analytics.Series(sessions, now, days),
			summary:  analytics.Summarize(sessions, goal, now),
			projects: analytics.ProjectBreakdown(sessions, now, days),
			tags:     analytics.TagBreakdown(sessions, now, days),
			badges:   badges.Status(earned),
			unlocked: unlocked,
		}
	}
}

func (a analyticsModel) update(msg tea.Msg) (analyticsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case analyticsDataMsg:
		a.days = msg.days
		a.goal = msg.goal
		a.series = msg.series
		a.summary = msg.summary
		a.projects = msg.projects
		a.tags = msg.tags
		a.badges = msg.badges
		a.buildChart()
		if len(msg.unlocked) > 0 {
			return a, func() tea.Msg {
				return statusMsg{text: "Badge unlocked: " + strings.Join(msg.unlocked, ", ")}
			}
		}
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Range):
			if a.days == 7 {
				a.days = 30
			} else {
				a.days = 7
			}
			return a, a.refresh()
		case key.Matches(msg, keys.Left):
			a.days = 7
			return a, a.refresh()
		case key.Matches(msg, keys.Right):
			a.days = 30
			return a, a.refresh()
		}
	}
	return a, nil
}

func (a *analyticsModel) buildChart() {
	chartWidth := a.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 10
	if a.height > 40 {
		chartHeight = 14
	}

	a.chart = barchart.New(chartWidth, chartHeight)

	bars := make([]barchart.BarData, 0, len(a.series))
	for _, d := range a.series {
		style := lipgloss.NewStyle().Foreground(colorPrimary)
		if d.Minutes >= a.goal {
			style = lipgloss.NewStyle().Foreground(colorSuccess)
		}
		bars = append(bars, barchart.BarData{
			Label:  chartLabel(d.Date, len(a.series)),
			Values: []barchart.BarValue{{Name: d.Date, Value: float64(d.Minutes), Style: style}},
		})
	}

	a.chart.PushAll(bars)
	a.chart.Draw()
}

// chartLabel shortens dates to fit: weekday names for a week, day of month
// for longer windows.
func chartLabel(date string, bars int) string {
	t, err := timeutil.ParseDate(date, time.Local)
	if err != nil {
		return date
	}
	if bars <= 7 {
		return t.Format("Mon")
	}
	return t.Format("02")
}

func (a analyticsModel) view() string {
	w := a.width - 4

	week := inactiveTabStyle.Render("7 days")
	month := inactiveTabStyle.Render("30 days")
	if a.days == 7 {
		week = activeTabStyle.Render("7 days")
	} else {
		month = activeTabStyle.Render("30 days")
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Analytics"), "  ", week, month,
	)

	nav := mutedStyle.Render("  r: toggle range  ←/→: 7/30 days")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "",
			a.chart.View(), "",
			a.renderMetrics(), "",
			a.renderBreakdowns(w), "",
			a.renderBadges(), "",
			nav,
		),
	)
}

func (a analyticsModel) renderMetrics() string {
	s := a.summary
	best := "none yet"
	if s.BestDay != nil {
		best = fmt.Sprintf("%s (%s)", s.BestDay.Date, timeutil.FormatMinutes(s.BestDay.Minutes))
	}
	hour := "none yet"
	if s.BestHour != nil {
		hour = timeutil.FormatHour(s.BestHour.Hour)
	}

	streak := fmt.Sprintf("%d days", s.CurrentStreak)
	if s.StreakAtRisk {
		streak = warningStyle.Render(fmt.Sprintf("%d days at risk", s.RiskStreakDays))
	}

	lines := []string{
		metric("Total logged", humanize.Comma(int64(s.TotalMinutes))+" min"),
		metric("Active days", fmt.Sprintf("%d all time, %d in last 30", s.ActiveDays, s.ActiveDays30)),
		metric("7-day average", fmt.Sprintf("%.1f min/day", s.Rolling7Average)),
		metric("Goal hit (30d)", fmt.Sprintf("%d days, %d%%", s.GoalHitDays30, s.GoalHitRate30)),
		metric("Current streak", streak),
		metric("Best day", best),
		metric("Best hour", hour),
	}
	return strings.Join(lines, "\n")
}

func metric(label, value string) string {
	return "  " + lipgloss.NewStyle().Width(18).Render(label) + highlightStyle.Render(value)
}

func (a analyticsModel) renderBreakdowns(w int) string {
	col := max(24, (w-8)/2)
	left := renderGroups(fmt.Sprintf("Projects (%dd)", a.days), a.projects, col)
	right := renderGroups(fmt.Sprintf("Tags (%dd)", a.days), a.tags, col)
	return lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(col).Render(left),
		lipgloss.NewStyle().Width(col).Render(right),
	)
}

func renderGroups(title string, groups []analytics.Group, width int) string {
	rows := []string{subtitleStyle.Render("  " + title)}
	if len(groups) == 0 {
		return strings.Join(append(rows, mutedStyle.Render("  no data")), "\n")
	}
	nameWidth := max(8, width-22)
	for i, g := range groups {
		if i == breakdownRows {
			rows = append(rows, mutedStyle.Render(fmt.Sprintf("  +%d more", len(groups)-breakdownRows)))
			break
		}
		rows = append(rows, fmt.Sprintf("  %-*s %8s %3dx", nameWidth, truncate(g.Name, nameWidth),
			timeutil.FormatMinutes(g.Minutes), g.Sessions))
	}
	return strings.Join(rows, "\n")
}

func (a analyticsModel) renderBadges() string {
	rows := []string{subtitleStyle.Render("  Badges")}
	for _, b := range a.badges {
		if b.Unlocked {
			rows = append(rows, badgeStyle.Render("  ★ "+b.Title)+mutedStyle.Render(
				fmt.Sprintf("  %s, %s", b.Description, b.UnlockedAt.Local().Format("Jan 02, 2006"))))
		} else {
			rows = append(rows, mutedStyle.Render("  ☆ "+b.Title+"  "+b.Description))
		}
	}
	return strings.Join(rows, "\n")
}
