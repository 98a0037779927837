package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/asifrahman2003/devpulse/internal/richtext"
	"github.com/asifrahman2003/devpulse/internal/store"
	"github.com/asifrahman2003/devpulse/internal/timeutil"
)

const earlierNotes = 5

type notesModel struct {
	store  *store.Store
	width  int
	height int

	date    string
	editor  textarea.Model
	dirty   bool
	earlier []noteLine
}

type noteLine struct {
	date  string
	first string
}

func newNotesModel(s *store.Store) notesModel {
	ta := textarea.New()
	ta.Placeholder = "What did you work on today?"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(8)
	return notesModel{
		store:  s,
		date:   timeutil.Today(s.Now()),
		editor: ta,
	}
}

func (n *notesModel) setSize(w, h int) {
	n.width = w
	n.height = h
	n.editor.SetWidth(max(20, w-10))
	n.editor.SetHeight(max(4, min(12, h-16)))
}

func (n notesModel) editing() bool {
	return n.editor.Focused()
}

type notesDataMsg struct {
	date    string
	text    string
	earlier []noteLine
}

type noteSavedMsg struct {
	cleared bool
}

func (n notesModel) refresh() tea.Cmd {
	return func() tea.Msg {
		all, err := n.store.Notes()
		if err != nil {
			return errStatus("Load notes", err)
		}
		today := timeutil.Today(n.store.Now())

		dates := make([]string, 0, len(all))
		for d := range all {
			if d != today {
				dates = append(dates, d)
			}
		}
		sort.Sort(sort.Reverse(sort.StringSlice(dates)))

		var earlier []noteLine
		for _, d := range dates {
			if len(earlier) == earlierNotes {
				break
			}
			text := richtext.ToPlain(all[d])
			if text == "" {
				continue
			}
			first, _, _ := strings.Cut(text, "\n")
			earlier = append(earlier, noteLine{date: d, first: first})
		}

		return notesDataMsg{
			date:    today,
			text:    richtext.ToPlain(all[today]),
			earlier: earlier,
		}
	}
}

func (n notesModel) update(msg tea.Msg) (notesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case notesDataMsg:
		n.date = msg.date
		n.earlier = msg.earlier
		// Keep unsaved edits across refreshes.
		if !n.dirty {
			n.editor.SetValue(msg.text)
		}
		return n, nil

	case noteSavedMsg:
		n.dirty = false
		if msg.cleared {
			n.editor.Reset()
		}
		return n, n.refresh()

	case tea.KeyMsg:
		if n.editor.Focused() {
			switch {
			case key.Matches(msg, keys.Save):
				n.editor.Blur()
				return n, n.save()
			case key.Matches(msg, keys.Back):
				n.editor.Blur()
				return n, nil
			}
			before := n.editor.Value()
			var cmd tea.Cmd
			n.editor, cmd = n.editor.Update(msg)
			if n.editor.Value() != before {
				n.dirty = true
			}
			return n, cmd
		}

		switch {
		case key.Matches(msg, keys.Enter):
			cmd := n.editor.Focus()
			return n, cmd
		case key.Matches(msg, keys.Save):
			return n, n.save()
		case key.Matches(msg, keys.Clear):
			return n, n.clear()
		}
	}
	return n, nil
}

// save stores the editor text as the note for the model's date. A blank
// note removes the entry instead.
func (n notesModel) save() tea.Cmd {
	date, text := n.date, n.editor.Value()
	return func() tea.Msg {
		content := richtext.FromPlain(text)
		if richtext.IsBlank(content) {
			if err := n.store.ClearNote(date); err != nil {
				return errStatus("Clear note", err)
			}
			return noteSavedMsg{cleared: true}
		}
		if err := n.store.SaveNote(date, content); err != nil {
			return errStatus("Save note", err)
		}
		return noteSavedMsg{}
	}
}

func (n notesModel) clear() tea.Cmd {
	date := n.date
	return func() tea.Msg {
		if err := n.store.ClearNote(date); err != nil {
			return errStatus("Clear note", err)
		}
		return noteSavedMsg{cleared: true}
	}
}

func (n notesModel) view() string {
	w := n.width - 4

	title := titleStyle.Render("Notes") + "  " + mutedStyle.Render(n.date)
	if n.dirty {
		title += "  " + warningStyle.Render("unsaved")
	}

	var hint string
	if n.editor.Focused() {
		hint = mutedStyle.Render("  ctrl+s: save  esc: stop editing")
	} else {
		hint = mutedStyle.Render("  enter: edit  ctrl+s: save  c: clear")
	}

	rows := []string{title, "", n.editor.View(), hint}
	if len(n.earlier) > 0 {
		rows = append(rows, "", subtitleStyle.Render("Earlier"))
		for _, e := range n.earlier {
			rows = append(rows, fmt.Sprintf("  %s  %s", mutedStyle.Render(e.date), truncate(e.first, max(10, w-20))))
		}
	}

	style := panelStyle
	if n.editor.Focused() {
		style = activePanelStyle
	}
	return style.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
