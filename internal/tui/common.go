package tui

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/asifrahman2003/devpulse/internal/backup"
	"github.com/asifrahman2003/devpulse/internal/store"
	"github.com/asifrahman2003/devpulse/internal/timeutil"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewHistory
	viewAnalytics
	viewPomodoro
	viewNotes
	viewSettings
	viewSync
	viewAbout
)

var viewNames = []string{"Dashboard", "History", "Analytics", "Pomodoro", "Notes", "Settings", "Sync", "About"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

// ReminderMsg tells the program that the daily reminder is due.
type ReminderMsg struct {
	Settings store.ReminderSettings
}

// sessionSavedMsg is sent whenever a session is written so that views showing
// totals reload. unlocked holds the titles of badges earned by the write.
type sessionSavedMsg struct {
	session  *store.Session
	unlocked []string
}

type sessionsChangedMsg struct{}

type exportDoneMsg struct {
	path string
}

type restoreDoneMsg struct {
	path   string
	merge  bool
	result backup.Result
}

func errStatus(prefix string, err error) statusMsg {
	return statusMsg{text: fmt.Sprintf("%s: %v", prefix, err), isError: true}
}

// --- Helpers ---

// sessionMeta holds the project and tags chosen before a timer starts.
type sessionMeta struct {
	project *string
	tags    *string
}

func newSessionMeta() sessionMeta {
	project, tags := store.DefaultProject, ""
	return sessionMeta{project: &project, tags: &tags}
}

func (m sessionMeta) form(title string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Project").Value(m.project),
			huh.NewInput().Title("Tags (comma-separated)").Value(m.tags),
		).Title(title),
	).WithShowHelp(true).WithShowErrors(true)
}

func (m sessionMeta) projectName() string {
	p := strings.TrimSpace(*m.project)
	if p == "" {
		return store.DefaultProject
	}
	return p
}

func (m sessionMeta) tagList() []string {
	return store.ParseTags(*m.tags)
}

func validateDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := timeutil.ParseDate(s, nil); err != nil {
		return fmt.Errorf("use YYYY-MM-DD")
	}
	return nil
}

func validatePositive(s string) error {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a positive number")
	}
	if n > math.MaxInt32 {
		return fmt.Errorf("number is too large")
	}
	return nil
}

func validateBackupFile(s string) error {
	info, err := os.Stat(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("file not found")
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory")
	}
	return nil
}

func validateReminderTime(s string) error {
	if !store.ValidReminderTime(s) {
		return fmt.Errorf("use HH:MM")
	}
	return nil
}

func tagLabel(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return "#" + strings.Join(tags, " #")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
