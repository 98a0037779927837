package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/asifrahman2003/devpulse/internal/analytics"
	"github.com/asifrahman2003/devpulse/internal/badges"
	"github.com/asifrahman2003/devpulse/internal/store"
	"github.com/asifrahman2003/devpulse/internal/timeutil"
)

const recentLimit = 5

type dashboardModel struct {
	store  *store.Store
	timer  timerModel
	width  int
	height int

	todayTotal   int
	goal         int
	streak       int
	streakAtRisk bool
	riskDays     int
	recent       []store.Session

	// Metadata form shown before the timer starts
	meta       sessionMeta
	formActive bool
	form       *huh.Form
}

func newDashboardModel(s *store.Store) dashboardModel {
	return dashboardModel{
		store: s,
		timer: newTimerModel(s.Now),
		goal:  store.DefaultDailyGoal,
		meta:  newSessionMeta(),
	}
}

func (d dashboardModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d dashboardModel) isRunning() bool { return d.timer.running() }
func (d dashboardModel) isPaused() bool  { return d.timer.paused() }
func (d dashboardModel) elapsed() time.Duration {
	return d.timer.currentElapsed()
}

type dashboardDataMsg struct {
	todayTotal   int
	goal         int
	streak       int
	streakAtRisk bool
	riskDays     int
	recent       []store.Session
}

func (d dashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		sessions, err := d.store.ListSessions()
		if err != nil {
			return errStatus("Load sessions", err)
		}
		goal, err := d.store.DailyGoal()
		if err != nil {
			return errStatus("Load goal", err)
		}

		now := d.store.Now()
		today := timeutil.Today(now)
		msg := dashboardDataMsg{
			goal:   goal,
			streak: analytics.CurrentStreak(sessions, now),
		}
		msg.streakAtRisk, msg.riskDays = analytics.AtRiskStreak(sessions, now)
		for _, s := range sessions {
			if s.Date == today {
				msg.todayTotal += s.Minutes
			}
		}
		if len(sessions) > recentLimit {
			sessions = sessions[:recentLimit]
		}
		msg.recent = sessions
		return msg
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if d.formActive && d.form != nil {
		return d.updateForm(msg)
	}

	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.todayTotal = msg.todayTotal
		d.goal = msg.goal
		d.streak = msg.streak
		d.streakAtRisk = msg.streakAtRisk
		d.riskDays = msg.riskDays
		d.recent = msg.recent
		return d, nil

	case tickMsg:
		d.timer.tick()
		return d, nil

	case tea.KeyMsg:
		d.timer.recordActivity()

		switch {
		case key.Matches(msg, keys.Start):
			if d.timer.running() {
				return d, nil
			}
			d.form = d.meta.form("Start Development Session")
			d.formActive = true
			return d, d.form.Init()

		case key.Matches(msg, keys.Stop):
			return d.stopTimer()

		case key.Matches(msg, keys.Pause):
			d.timer.toggle()
			return d, nil
		}
	}
	return d, nil
}

func (d dashboardModel) updateForm(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		d.formActive = false
		d.form = nil
		return d, nil
	}

	form, cmd := d.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form = f
	}

	if d.form.State == huh.StateCompleted {
		d.formActive = false
		d.form = nil
		return d.startTimer(d.meta.projectName(), d.meta.tagList())
	}
	return d, cmd
}

func (d dashboardModel) startTimer(project string, tags []string) (dashboardModel, tea.Cmd) {
	d.timer.start(project, tags)
	return d, func() tea.Msg { return statusMsg{text: "Timer started: " + project} }
}

func (d dashboardModel) stopTimer() (dashboardModel, tea.Cmd) {
	if !d.timer.running() {
		return d, nil
	}
	project, tags := d.timer.project, d.timer.tags
	elapsed := d.timer.stop()
	return d, recordSession(d.store, store.SessionInput{
		Elapsed: elapsed,
		Project: project,
		Tags:    tags,
		Mode:    store.ModeTimer,
	})
}

// recordSession saves in, then unlocks any badges the new totals earn.
// Sessions under a minute are dropped with a status note.
func recordSession(s *store.Store, in store.SessionInput) tea.Cmd {
	return func() tea.Msg {
		sess, err := s.CreateSession(in)
		if errors.Is(err, store.ErrInvalidMinutes) {
			return statusMsg{text: "Session under a minute was not saved"}
		}
		if err != nil {
			return errStatus("Save session", err)
		}
		return sessionSavedMsg{session: sess, unlocked: refreshBadges(s)}
	}
}

// refreshBadges unlocks newly earned badges and returns their titles.
// Failures are not surfaced; the next refresh retries.
func refreshBadges(s *store.Store) []string {
	sessions, err := s.ListSessions()
	if err != nil {
		return nil
	}
	added, err := badges.Refresh(s, sessions, s.Now())
	if err != nil {
		return nil
	}
	var titles []string
	for _, u := range added {
		if b, ok := badges.Lookup(u.ID); ok {
			titles = append(titles, b.Title)
		}
	}
	return titles
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	if d.formActive && d.form != nil {
		return activePanelStyle.Width(contentWidth).Render(d.form.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		d.renderTimerPanel(contentWidth),
		d.renderSummaryPanel(contentWidth),
		d.renderRecentPanel(contentWidth),
	)
}

func (d dashboardModel) renderTimerPanel(w int) string {
	if d.timer.running() {
		timeStr := timeutil.FormatDuration(d.timer.currentElapsed())

		var timeDisplay, indicator string
		if d.timer.paused() {
			timeDisplay = timerPausedStyle.Width(w - 6).Render(timeStr)
			if d.timer.isIdle {
				indicator = warningStyle.Render("⏸  IDLE")
			} else {
				indicator = warningStyle.Render("⏸  PAUSED")
			}
		} else {
			timeDisplay = timerRunningStyle.Width(w - 6).Render(timeStr)
			indicator = successStyle.Render("●  RUNNING")
		}

		projectLine := highlightStyle.Render(d.timer.project)
		if tags := tagLabel(d.timer.tags); tags != "" {
			projectLine += mutedStyle.Render("  " + tags)
		}

		content := lipgloss.JoinVertical(lipgloss.Center,
			timeDisplay,
			indicator,
			projectLine,
		)
		return activePanelStyle.Width(w).Render(content)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		timerStyle.Width(w-6).Render("00:00:00"),
		mutedStyle.Render("■  STOPPED"),
		mutedStyle.Render("Press s to start a development session"),
	)
	return panelStyle.Width(w).Render(content)
}

func (d dashboardModel) renderSummaryPanel(w int) string {
	title := titleStyle.Render("Today")
	total := highlightStyle.Render(timeutil.FormatMinutes(d.todayTotal))
	goal := mutedStyle.Render(fmt.Sprintf("of %s goal", timeutil.FormatMinutes(d.goal)))

	progress := goalBar(d.todayTotal, d.goal, max(10, min(40, w-30)))
	if d.todayTotal >= d.goal {
		progress += "  " + successStyle.Render("goal reached")
	}

	var streak string
	switch {
	case d.streakAtRisk:
		streak = warningStyle.Render(fmt.Sprintf("Streak at risk: log a session today to keep your %d-day streak", d.riskDays))
	case d.streak > 0:
		streak = streakStyle.Render(fmt.Sprintf("🔥 %d-day streak", d.streak))
	default:
		streak = mutedStyle.Render("No active streak")
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		fmt.Sprintf("%s  %s %s", title, total, goal),
		progress,
		streak,
	)
	return panelStyle.Width(w).Render(content)
}

// goalBar renders minutes/goal as a fixed-width bar.
func goalBar(minutes, goal, width int) string {
	if goal < 1 {
		goal = 1
	}
	filled := minutes * width / goal
	if filled > width {
		filled = width
	}
	return successStyle.Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", width-filled))
}

func (d dashboardModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Sessions")
	if len(d.recent) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No sessions yet"),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{title}
	for _, s := range d.recent {
		row := fmt.Sprintf("  %s  %-8s %-18s %s",
			s.Date,
			timeutil.FormatMinutes(s.Minutes),
			truncate(s.Project, 18),
			mutedStyle.Render(tagLabel(s.Tags)),
		)
		rows = append(rows, row)
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
