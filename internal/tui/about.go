package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const aboutMarkdown = `# About DevPulse

**DevPulse** is your personal development time logger. It helps you build
habits, see your progress and stay motivated. Whether you are grinding
LeetCode, learning a new stack or shipping side projects, DevPulse tracks your
daily development minutes, unlocks badges and celebrates streaks, because
**consistency builds mastery**.

## Where your data lives

Everything is stored locally in a single SQLite file, so it loads instantly
and no login is required. Sign in on the **Sync** tab to keep a backup
in the cloud and restore it on another machine.

## Keys

| Key | Action |
| --- | --- |
| ` + "`1`-`8`" + ` | switch tabs |
| ` + "`s` / `x`" + ` | start / stop the timer or pomodoro |
| ` + "`space`" + ` | pause the timer, skip a break |
| ` + "`e`" + ` | export sessions, notes or a full backup |
| ` + "`I`" + ` | restore a backup file, merged or replacing local data |
| ` + "`D`" + ` | clear all local data (on the Settings tab) |
| ` + "`?`" + ` | show every key |

Keep going and stay committed to your goals.
`

type aboutModel struct {
	width    int
	height   int
	rendered string
}

func newAboutModel() aboutModel {
	return aboutModel{}
}

func (a *aboutModel) setSize(w, h int) {
	if w == a.width && a.rendered != "" {
		a.height = h
		return
	}
	a.width = w
	a.height = h
	a.rendered = renderMarkdown(aboutMarkdown, w-8)
}

func (a aboutModel) view() string {
	content := a.rendered
	if content == "" {
		content = renderMarkdown(aboutMarkdown, a.width-8)
	}
	return panelStyle.Width(a.width - 4).Render(content)
}

// renderMarkdown renders md with glamour's dark style, falling back to the
// raw text when rendering fails.
func renderMarkdown(md string, width int) string {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
