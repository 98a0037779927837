package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Start    key.Binding
	Stop     key.Binding
	Pause    key.Binding
	New      key.Binding
	Delete   key.Binding
	Range    key.Binding
	Save     key.Binding
	Clear    key.Binding
	SignIn   key.Binding
	SignUp   key.Binding
	SignOut  key.Binding
	Upload   key.Binding
	Merge    key.Binding
	Replace  key.Binding
	Export   key.Binding
	Restore  key.Binding
	ClearAll key.Binding
	Tab1     key.Binding
	Tab2     key.Binding
	Tab3     key.Binding
	Tab4     key.Binding
	Tab5     key.Binding
	Tab6     key.Binding
	Tab7     key.Binding
	Tab8     key.Binding
	Tab      key.Binding
	Help     key.Binding
	Enter    key.Binding
	Back     key.Binding
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Start: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "start"),
	),
	Stop: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "stop"),
	),
	Pause: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "pause/resume"),
	),
	New: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete"),
	),
	Range: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "7/30 days"),
	),
	Save: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "save"),
	),
	Clear: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clear"),
	),
	SignIn: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "sign in"),
	),
	SignUp: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "sign up"),
	),
	SignOut: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "sign out"),
	),
	Upload: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "upload"),
	),
	Merge: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "download + merge"),
	),
	Replace: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "download + replace"),
	),
	Export: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "export"),
	),
	Restore: key.NewBinding(
		key.WithKeys("I"),
		key.WithHelp("I", "restore backup"),
	),
	ClearAll: key.NewBinding(
		key.WithKeys("D"),
		key.WithHelp("D", "clear all data"),
	),
	Tab1: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "dashboard"),
	),
	Tab2: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "history"),
	),
	Tab3: key.NewBinding(
		key.WithKeys("3"),
		key.WithHelp("3", "analytics"),
	),
	Tab4: key.NewBinding(
		key.WithKeys("4"),
		key.WithHelp("4", "pomodoro"),
	),
	Tab5: key.NewBinding(
		key.WithKeys("5"),
		key.WithHelp("5", "notes"),
	),
	Tab6: key.NewBinding(
		key.WithKeys("6"),
		key.WithHelp("6", "settings"),
	),
	Tab7: key.NewBinding(
		key.WithKeys("7"),
		key.WithHelp("7", "sync"),
	),
	Tab8: key.NewBinding(
		key.WithKeys("8"),
		key.WithHelp("8", "about"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select/edit"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "left"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "right"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Stop, k.Pause, k.New, k.Export, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Stop, k.Pause},
		{k.New, k.Enter, k.Delete, k.Range},
		{k.Save, k.Clear, k.Export, k.Restore, k.ClearAll},
		{k.SignIn, k.SignUp, k.SignOut, k.Upload, k.Merge, k.Replace},
		{k.Tab1, k.Tab2, k.Tab3, k.Tab4, k.Tab5, k.Tab6, k.Tab7, k.Tab8},
		{k.Up, k.Down, k.Back, k.Quit},
	}
}
