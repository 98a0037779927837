package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/asifrahman2003/devpulse/internal/store"
	"github.com/asifrahman2003/devpulse/internal/timeutil"
)

type pomodoroPhase int

const (
	pomodoroIdle pomodoroPhase = iota
	pomodoroWork
	pomodoroBreak
	pomodoroCompleted
)

var phaseNames = map[pomodoroPhase]string{
	pomodoroIdle:      "IDLE",
	pomodoroWork:      "WORK",
	pomodoroBreak:     "BREAK",
	pomodoroCompleted: "COMPLETED",
}

type pomodoroModel struct {
	store  *store.Store
	now    func() time.Time
	width  int
	height int

	phase        pomodoroPhase
	currentCycle int // 1-based while running
	targetCount  int

	// Countdown state
	remaining time.Duration
	phaseEnd  time.Time

	workDuration  time.Duration
	breakDuration time.Duration

	meta       sessionMeta
	formActive bool
	form       *huh.Form
}

func newPomodoroModel(s *store.Store) pomodoroModel {
	m := pomodoroModel{
		store: s,
		now:   s.Now,
		phase: pomodoroIdle,
		meta:  newSessionMeta(),
	}
	m.applySettings(store.DefaultPomodoroSettings())
	return m
}

func (p *pomodoroModel) applySettings(ps store.PomodoroSettings) {
	p.workDuration = time.Duration(max(1, ps.WorkMinutes)) * time.Minute
	p.breakDuration = time.Duration(max(1, ps.BreakMinutes)) * time.Minute
	p.targetCount = max(1, ps.Cycles)
}

type pomodoroSettingsMsg struct {
	settings store.PomodoroSettings
}

func (p pomodoroModel) refresh() tea.Cmd {
	return func() tea.Msg {
		ps, err := p.store.PomodoroSettings()
		if err != nil {
			return errStatus("Load pomodoro settings", err)
		}
		return pomodoroSettingsMsg{settings: ps}
	}
}

func (p *pomodoroModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

func (p pomodoroModel) active() bool {
	return p.phase == pomodoroWork || p.phase == pomodoroBreak
}

func (p pomodoroModel) update(msg tea.Msg) (pomodoroModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case pomodoroSettingsMsg:
		// Lengths change only between runs.
		if !p.active() {
			p.applySettings(msg.settings)
		}
		return p, nil

	case tickMsg:
		if p.active() {
			p.remaining = p.phaseEnd.Sub(p.now())
			if p.remaining <= 0 {
				return p.advancePhase()
			}
		}
		return p, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Start):
			if !p.active() {
				p.form = p.meta.form("Start Pomodoro")
				p.formActive = true
				return p, p.form.Init()
			}
		case key.Matches(msg, keys.Stop):
			if p.phase != pomodoroIdle {
				return p.stopSession()
			}
		case key.Matches(msg, keys.Pause):
			// Skip break
			if p.phase == pomodoroBreak {
				return p.advancePhase()
			}
		}
	}
	return p, nil
}

func (p pomodoroModel) updateForm(msg tea.Msg) (pomodoroModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		p.formActive = false
		p.form = nil
		return p, nil
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		p.form = nil
		return p.startSession()
	}
	return p, cmd
}

func (p pomodoroModel) startSession() (pomodoroModel, tea.Cmd) {
	p.currentCycle = 1
	p, _ = p.startWorkPhase()
	return p, func() tea.Msg {
		return statusMsg{text: fmt.Sprintf("Cycle 1/%d. Focus mode.", p.targetCount)}
	}
}

func (p pomodoroModel) startWorkPhase() (pomodoroModel, tea.Cmd) {
	p.phase = pomodoroWork
	p.remaining = p.workDuration
	p.phaseEnd = p.now().Add(p.workDuration)
	return p, nil
}

func (p pomodoroModel) session(elapsed time.Duration) store.SessionInput {
	return store.SessionInput{
		Elapsed: elapsed,
		Project: p.meta.projectName(),
		Tags:    p.meta.tagList(),
		Mode:    store.ModePomodoro,
	}
}

// advancePhase ends the current phase. A finished work phase is saved as a
// full-length pomodoro session.
func (p pomodoroModel) advancePhase() (pomodoroModel, tea.Cmd) {
	switch p.phase {
	case pomodoroWork:
		save := recordSession(p.store, p.session(p.workDuration))

		if p.currentCycle >= p.targetCount {
			p.phase = pomodoroCompleted
			p.remaining = 0
			return p, tea.Batch(save, func() tea.Msg {
				return statusMsg{text: "Pomodoro complete. Excellent consistency. \a"}
			})
		}

		done := p.currentCycle
		p.phase = pomodoroBreak
		p.remaining = p.breakDuration
		p.phaseEnd = p.now().Add(p.breakDuration)
		return p, tea.Batch(save, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Cycle %d/%d done. Break time. \a", done, p.targetCount)}
		})

	case pomodoroBreak:
		p.currentCycle++
		p, _ = p.startWorkPhase()
		cycle := p.currentCycle
		return p, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Cycle %d/%d. Focus mode.", cycle, p.targetCount)}
		}
	}
	return p, nil
}

// stopSession ends the run early. Time already spent in a work phase is
// saved; the store drops it when it rounds to under a minute.
func (p pomodoroModel) stopSession() (pomodoroModel, tea.Cmd) {
	var save tea.Cmd
	if p.phase == pomodoroWork {
		if spent := p.workDuration - p.phaseEnd.Sub(p.now()); spent > 0 {
			save = recordSession(p.store, p.session(min(spent, p.workDuration)))
		}
	}
	p.phase = pomodoroIdle
	p.currentCycle = 0
	p.remaining = 0
	return p, tea.Batch(save, func() tea.Msg {
		return statusMsg{text: "Pomodoro stopped."}
	})
}

func (p pomodoroModel) view() string {
	w := p.width - 4

	if p.formActive && p.form != nil {
		return activePanelStyle.Width(w).Render(p.form.View())
	}

	title := titleStyle.Render("Pomodoro")

	var timeDisplay, phaseLabel, indicator string
	switch p.phase {
	case pomodoroIdle:
		timeDisplay = timerStyle.Width(w - 6).Render(timeutil.FormatCountdown(p.workDuration))
		phaseLabel = mutedStyle.Render("Ready to start")
		indicator = mutedStyle.Render(fmt.Sprintf("%d × %s work, %s break",
			p.targetCount, timeutil.FormatMinutes(int(p.workDuration.Minutes())),
			timeutil.FormatMinutes(int(p.breakDuration.Minutes()))))
	case pomodoroWork:
		timeDisplay = accentStyle.Bold(true).Width(w - 6).Align(lipgloss.Center).Render(timeutil.FormatCountdown(p.remaining))
		phaseLabel = accentStyle.Bold(true).Render(fmt.Sprintf("WORK  %s", p.meta.projectName()))
		indicator = p.renderProgress()
	case pomodoroBreak:
		timeDisplay = successStyle.Bold(true).Width(w - 6).Align(lipgloss.Center).Render(timeutil.FormatCountdown(p.remaining))
		phaseLabel = successStyle.Bold(true).Render("BREAK")
		indicator = p.renderProgress()
	case pomodoroCompleted:
		timeDisplay = successStyle.Bold(true).Width(w - 6).Align(lipgloss.Center).Render("Done!")
		phaseLabel = successStyle.Bold(true).Render("SESSION COMPLETE")
		indicator = p.renderProgress()
	}

	var controls string
	switch p.phase {
	case pomodoroIdle, pomodoroCompleted:
		controls = mutedStyle.Render("s: start")
	case pomodoroWork:
		controls = mutedStyle.Render("x: stop (saves time worked)")
	case pomodoroBreak:
		controls = mutedStyle.Render("space: skip break  x: stop")
	}

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center,
			title, "", timeDisplay, phaseLabel, "", indicator, "", controls,
		),
	)
}

func (p pomodoroModel) completedCount() int {
	switch p.phase {
	case pomodoroCompleted:
		return p.targetCount
	case pomodoroBreak:
		return p.currentCycle
	case pomodoroWork:
		return p.currentCycle - 1
	}
	return 0
}

func (p pomodoroModel) renderProgress() string {
	done := p.completedCount()
	parts := make([]string, 0, p.targetCount)
	for i := 0; i < p.targetCount; i++ {
		switch {
		case i < done:
			parts = append(parts, successStyle.Render("●"))
		case i == done && p.phase == pomodoroWork:
			parts = append(parts, accentStyle.Render("◐"))
		default:
			parts = append(parts, mutedStyle.Render("○"))
		}
	}
	counter := mutedStyle.Render(fmt.Sprintf("  %d/%d", done, p.targetCount))
	return strings.Join(parts, " ") + counter
}
