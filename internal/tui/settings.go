package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/asifrahman2003/devpulse/internal/store"
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	goal     int
	reminder store.ReminderSettings
	lastSent string
	pomodoro store.PomodoroSettings

	formActive bool
	form       *huh.Form

	// clearing marks the open form as the clear-all confirmation.
	clearing bool

	// Form values as pointers (survive value copies)
	dailyGoal       *string
	reminderOn      *bool
	reminderTime    *string
	reminderMessage *string
	pomodoroWork    *string
	pomodoroBreak   *string
	pomodoroCycles  *string
	confirmClear    *bool
}

func newSettingsModel(s *store.Store) settingsModel {
	dg, rt, rm := "", "", ""
	pw, pb, pc := "", "", ""
	on, confirm := false, false
	return settingsModel{
		store:           s,
		goal:            store.DefaultDailyGoal,
		reminder:        store.DefaultReminderSettings(),
		pomodoro:        store.DefaultPomodoroSettings(),
		dailyGoal:       &dg,
		reminderOn:      &on,
		reminderTime:    &rt,
		reminderMessage: &rm,
		pomodoroWork:    &pw,
		pomodoroBreak:   &pb,
		pomodoroCycles:  &pc,
		confirmClear:    &confirm,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	goal     int
	reminder store.ReminderSettings
	lastSent string
	pomodoro store.PomodoroSettings
}

type settingsSavedMsg struct{}

// dataClearedMsg reports that every local record was removed.
type dataClearedMsg struct{}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		goal, err := s.store.DailyGoal()
		if err != nil {
			return errStatus("Load goal", err)
		}
		rem, err := s.store.ReminderSettings()
		if err != nil {
			return errStatus("Load reminder", err)
		}
		last, err := s.store.LastReminderDate()
		if err != nil {
			return errStatus("Load reminder", err)
		}
		pom, err := s.store.PomodoroSettings()
		if err != nil {
			return errStatus("Load pomodoro settings", err)
		}
		return settingsDataMsg{goal: goal, reminder: rem, lastSent: last, pomodoro: pom}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.goal = msg.goal
		s.reminder = msg.reminder
		s.lastSent = msg.lastSent
		s.pomodoro = msg.pomodoro
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		case key.Matches(msg, keys.ClearAll):
			return s.showClearConfirm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.dailyGoal = strconv.Itoa(s.goal)
	*s.reminderOn = s.reminder.Enabled
	*s.reminderTime = s.reminder.Time
	*s.reminderMessage = s.reminder.Message
	*s.pomodoroWork = strconv.Itoa(s.pomodoro.WorkMinutes)
	*s.pomodoroBreak = strconv.Itoa(s.pomodoro.BreakMinutes)
	*s.pomodoroCycles = strconv.Itoa(s.pomodoro.Cycles)

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Daily goal (min)").Value(s.dailyGoal).Validate(validatePositive),
		).Title("Goal"),
		huh.NewGroup(
			huh.NewConfirm().Title("Daily reminder").Affirmative("On").Negative("Off").Value(s.reminderOn),
			huh.NewInput().Title("Reminder time (HH:MM)").Value(s.reminderTime).Validate(validateReminderTime),
			huh.NewInput().Title("Reminder message").Value(s.reminderMessage),
		).Title("Reminder"),
		huh.NewGroup(
			huh.NewInput().Title("Pomodoro work (min)").Value(s.pomodoroWork).Validate(validatePositive),
			huh.NewInput().Title("Pomodoro break (min)").Value(s.pomodoroBreak).Validate(validatePositive),
			huh.NewInput().Title("Cycles").Value(s.pomodoroCycles).Validate(validatePositive),
		).Title("Pomodoro"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) showClearConfirm() (settingsModel, tea.Cmd) {
	*s.confirmClear = false
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Clear all local data?").
				Description("Sessions, notes, badges, settings and the cloud sign-in are removed.").
				Affirmative("Clear").
				Negative("Cancel").
				Value(s.confirmClear),
		),
	).WithShowHelp(true)

	s.formActive = true
	s.clearing = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.clearing = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		return s.finishForm()
	}

	return s, cmd
}

// finishForm closes a completed form and runs what it asked for.
func (s settingsModel) finishForm() (settingsModel, tea.Cmd) {
	s.formActive = false
	s.form = nil
	if s.clearing {
		s.clearing = false
		if !*s.confirmClear {
			return s, nil
		}
		return s, s.clearAll()
	}
	return s, s.saveSettings()
}

func (s settingsModel) saveSettings() tea.Cmd {
	goal := minutesOr(*s.dailyGoal, s.goal)
	on := *s.reminderOn
	at := strings.TrimSpace(*s.reminderTime)
	message := *s.reminderMessage
	pom := store.PomodoroSettings{
		WorkMinutes:  minutesOr(*s.pomodoroWork, s.pomodoro.WorkMinutes),
		BreakMinutes: minutesOr(*s.pomodoroBreak, s.pomodoro.BreakMinutes),
		Cycles:       minutesOr(*s.pomodoroCycles, s.pomodoro.Cycles),
	}

	return func() tea.Msg {
		if _, err := s.store.SetDailyGoal(goal); err != nil {
			return errStatus("Save goal", err)
		}
		if _, err := s.store.UpdateReminderSettings(store.ReminderUpdate{
			Enabled: &on,
			Time:    &at,
			Message: &message,
		}); err != nil {
			return errStatus("Save reminder", err)
		}
		if _, err := s.store.SavePomodoroSettings(pom); err != nil {
			return errStatus("Save pomodoro settings", err)
		}
		return settingsSavedMsg{}
	}
}

func (s settingsModel) clearAll() tea.Cmd {
	return func() tea.Msg {
		if err := s.store.ClearAll(); err != nil {
			return errStatus("Clear data", err)
		}
		return dataClearedMsg{}
	}
}

// minutesOr parses a whole or fractional number of minutes, rounding to the
// nearest minute, and falls back when it does not parse.
func minutesOr(s string, fallback int) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fallback
	}
	return int(f + 0.5)
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	reminder := "off"
	if s.reminder.Enabled {
		reminder = "daily at " + s.reminder.Time
	}
	lastSent := s.lastSent
	if lastSent == "" {
		lastSent = "never"
	}

	rows := []string{
		title,
		"",
		setting("Daily goal", fmt.Sprintf("%d min", s.goal)),
		setting("Reminder", reminder),
		setting("Reminder message", s.reminder.Message),
		setting("Last reminded", lastSent),
		setting("Pomodoro work", fmt.Sprintf("%d min", s.pomodoro.WorkMinutes)),
		setting("Pomodoro break", fmt.Sprintf("%d min", s.pomodoro.BreakMinutes)),
		setting("Pomodoro cycles", strconv.Itoa(s.pomodoro.Cycles)),
		"",
		mutedStyle.Render("Press enter to edit settings, D to clear all local data"),
	}

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func setting(label, value string) string {
	return fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(20).Render(label), highlightStyle.Render(value))
}
