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
	"github.com/asifrahman2003/devpulse/internal/timeutil"
)

type historyModel struct {
	store  *store.Store
	width  int
	height int

	sessions []store.Session
	cursor   int

	formActive bool
	form       *huh.Form
	editingID  string // empty when adding

	// Form field pointers (survive value copies)
	formDate    *string
	formMinutes *string
	formProject *string
	formTags    *string
	formMode    *store.Mode
}

func newHistoryModel(s *store.Store) historyModel {
	date, minutes, project, tags := "", "", "", ""
	mode := store.ModeTimer
	return historyModel{
		store:       s,
		formDate:    &date,
		formMinutes: &minutes,
		formProject: &project,
		formTags:    &tags,
		formMode:    &mode,
	}
}

func (h *historyModel) setSize(w, ht int) {
	h.width = w
	h.height = ht
}

type historyDataMsg struct {
	sessions []store.Session
}

func (h historyModel) refresh() tea.Cmd {
	return func() tea.Msg {
		sessions, err := h.store.ListSessions()
		if err != nil {
			return errStatus("Load sessions", err)
		}
		return historyDataMsg{sessions: sessions}
	}
}

func (h historyModel) selected() (store.Session, bool) {
	if h.cursor < 0 || h.cursor >= len(h.sessions) {
		return store.Session{}, false
	}
	return h.sessions[h.cursor], true
}

func (h historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	if h.formActive && h.form != nil {
		return h.updateForm(msg)
	}

	switch msg := msg.(type) {
	case historyDataMsg:
		h.sessions = msg.sessions
		if h.cursor >= len(h.sessions) {
			h.cursor = max(0, len(h.sessions)-1)
		}
		return h, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if h.cursor > 0 {
				h.cursor--
			}
		case key.Matches(msg, keys.Down):
			if h.cursor < len(h.sessions)-1 {
				h.cursor++
			}
		case key.Matches(msg, keys.New):
			return h.showNewForm()
		case key.Matches(msg, keys.Enter):
			if sess, ok := h.selected(); ok {
				return h.showEditForm(sess)
			}
		case key.Matches(msg, keys.Delete):
			if sess, ok := h.selected(); ok {
				return h, h.deleteSession(sess.ID)
			}
		}
	}
	return h, nil
}

func (h historyModel) showNewForm() (historyModel, tea.Cmd) {
	*h.formDate = timeutil.Today(h.store.Now())
	*h.formMinutes = ""
	*h.formProject = store.DefaultProject
	*h.formTags = ""
	*h.formMode = store.ModeTimer
	h.editingID = ""
	return h.openForm("Add Session")
}

func (h historyModel) showEditForm(sess store.Session) (historyModel, tea.Cmd) {
	*h.formDate = sess.Date
	*h.formMinutes = strconv.Itoa(sess.Minutes)
	*h.formProject = sess.Project
	*h.formTags = strings.Join(sess.Tags, ", ")
	*h.formMode = sess.Mode
	h.editingID = sess.ID
	return h.openForm("Edit Session")
}

func (h historyModel) openForm(title string) (historyModel, tea.Cmd) {
	h.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Date (YYYY-MM-DD)").Value(h.formDate).Validate(validateDate),
			huh.NewInput().Title("Minutes").Value(h.formMinutes).Validate(validatePositive),
			huh.NewInput().Title("Project").Value(h.formProject),
			huh.NewInput().Title("Tags (comma-separated)").Value(h.formTags),
			huh.NewSelect[store.Mode]().Title("Mode").
				Options(
					huh.NewOption("Timer", store.ModeTimer),
					huh.NewOption("Pomodoro", store.ModePomodoro),
				).Value(h.formMode),
		).Title(title),
	).WithShowHelp(true).WithShowErrors(true)

	h.formActive = true
	return h, h.form.Init()
}

func (h historyModel) updateForm(msg tea.Msg) (historyModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		h.formActive = false
		h.form = nil
		return h, nil
	}

	form, cmd := h.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		h.form = f
	}

	if h.form.State == huh.StateCompleted {
		h.formActive = false
		h.form = nil
		return h, h.saveForm()
	}
	return h, cmd
}

func (h historyModel) saveForm() tea.Cmd {
	minutes, _ := strconv.ParseFloat(strings.TrimSpace(*h.formMinutes), 64)
	date := strings.TrimSpace(*h.formDate)
	tags := store.ParseTags(*h.formTags)
	mode := *h.formMode

	if h.editingID == "" {
		return recordSession(h.store, store.SessionInput{
			Date:    date,
			Minutes: minutes,
			Project: *h.formProject,
			Tags:    tags,
			Mode:    mode,
		})
	}

	id := h.editingID
	project := *h.formProject
	return func() tea.Msg {
		_, err := h.store.UpdateSession(id, store.SessionUpdate{
			Date:    &date,
			Minutes: &minutes,
			Project: &project,
			Tags:    &tags,
			Mode:    &mode,
		})
		if err != nil {
			return errStatus("Update session", err)
		}
		return sessionsChangedMsg{}
	}
}

func (h historyModel) deleteSession(id string) tea.Cmd {
	return func() tea.Msg {
		removed, err := h.store.DeleteSession(id)
		if err != nil {
			return errStatus("Delete session", err)
		}
		if !removed {
			return statusMsg{text: "Session already deleted"}
		}
		return sessionsChangedMsg{}
	}
}

func (h historyModel) view() string {
	w := h.width - 4
	if h.formActive && h.form != nil {
		return panelStyle.Width(w).Render(h.form.View())
	}

	title := titleStyle.Render("Session History")
	if len(h.sessions) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No sessions yet. Press n to add one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{title, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %-8s %-20s %-9s %s", "Date", "Time", "Project", "Mode", "Tags")))

	start, end := h.visibleRange()
	for i := start; i < end; i++ {
		s := h.sessions[i]
		cursor := "  "
		style := normalItemStyle
		if i == h.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		row := style.Render(fmt.Sprintf("%s%-12s %-8s %-20s %-9s", cursor,
			s.Date, timeutil.FormatMinutes(s.Minutes), truncate(s.Project, 20), s.Mode))
		rows = append(rows, row+" "+mutedStyle.Render(tagLabel(s.Tags)))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %d sessions   n: new  enter: edit  d: delete", len(h.sessions))))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// visibleRange keeps the cursor on screen when the list is taller than the
// panel.
func (h historyModel) visibleRange() (int, int) {
	rows := h.height - 10
	if rows < 5 {
		rows = 5
	}
	if len(h.sessions) <= rows {
		return 0, len(h.sessions)
	}
	start := h.cursor - rows/2
	start = max(0, min(start, len(h.sessions)-rows))
	return start, start + rows
}
