package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/asifrahman2003/devpulse/internal/backup"
	"github.com/asifrahman2003/devpulse/internal/cloudsync"
	"github.com/asifrahman2003/devpulse/internal/config"
	"github.com/asifrahman2003/devpulse/internal/export"
	"github.com/asifrahman2003/devpulse/internal/store"
	"github.com/asifrahman2003/devpulse/internal/timeutil"
)

var exportFormats = []export.Format{export.FormatCSV, export.FormatJSON, export.FormatNotes, export.FormatBackup}

// Options wires the App to its collaborators. Zero values are usable: no
// sync backend, exports to the home directory, discarded logs.
type Options struct {
	Context   context.Context
	Sync      *cloudsync.Client
	ExportDir string
	Logger    *slog.Logger
}

// App is the root Bubble Tea model.
type App struct {
	store     *store.Store
	logger    *slog.Logger
	exportDir string
	width     int
	height    int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	// Restore form values as pointers (survive value copies)
	restoring    bool
	restoreForm  *huh.Form
	restorePath  *string
	restoreMerge *bool

	dashboard dashboardModel
	history   historyModel
	analytics analyticsModel
	pomodoro  pomodoroModel
	notes     notesModel
	settings  settingsModel
	sync      syncModel
	about     aboutModel

	help        help.Model
	status      string
	statusError bool
}

func NewApp(s *store.Store, opts Options) App {
	h := help.New()
	h.ShowAll = false

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	client := opts.Sync
	if client == nil {
		client = cloudsync.New(config.SyncConfig{}, s, logger)
	}
	dir := opts.ExportDir
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = home
		} else {
			dir = "."
		}
	}

	path, merge := "", true
	return App{
		store:      s,
		logger:     logger,
		exportDir:  dir,
		activeView: viewDashboard,
		dashboard:  newDashboardModel(s),
		history:    newHistoryModel(s),
		analytics:  newAnalyticsModel(s),
		pomodoro:   newPomodoroModel(s),
		notes:      newNotesModel(s),
		settings:   newSettingsModel(s),
		sync:       newSyncModel(ctx, s, client),
		about:      newAboutModel(),
		help:       h,

		restorePath:  &path,
		restoreMerge: &merge,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.dashboard.Init(),
		a.pomodoro.refresh(),
		a.sync.refresh(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.history.setSize(a.width, contentHeight)
		a.analytics.setSize(a.width, contentHeight)
		a.pomodoro.setSize(a.width, contentHeight)
		a.notes.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		a.sync.setSize(a.width, contentHeight)
		a.about.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// Export picker and restore form
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}
		if a.restoring {
			return a.updateRestore(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Restore):
			return a.showRestore()
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchView(viewDashboard)
		case key.Matches(msg, keys.Tab2):
			return a.switchView(viewHistory)
		case key.Matches(msg, keys.Tab3):
			return a.switchView(viewAnalytics)
		case key.Matches(msg, keys.Tab4):
			return a.switchView(viewPomodoro)
		case key.Matches(msg, keys.Tab5):
			return a.switchView(viewNotes)
		case key.Matches(msg, keys.Tab6):
			return a.switchView(viewSettings)
		case key.Matches(msg, keys.Tab7):
			return a.switchView(viewSync)
		case key.Matches(msg, keys.Tab8):
			return a.switchView(viewAbout)
		case key.Matches(msg, keys.Tab):
			return a.switchView((a.activeView + 1) % viewState(len(viewNames)))
		}

	case tickMsg:
		cmds = append(cmds, tickCmd())
		// Timers keep running whichever view is shown.
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		cmds = append(cmds, cmd)
		a.pomodoro, cmd = a.pomodoro.update(msg)
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)

	case ReminderMsg:
		a.setStatus("⏰ "+msg.Settings.Message+" \a", false)
		return a, nil

	case statusMsg:
		a.setStatus(msg.text, msg.isError)
		return a, nil

	case sessionSavedMsg:
		text := fmt.Sprintf("Saved %s to %s", timeutil.FormatMinutes(msg.session.Minutes), msg.session.Project)
		if len(msg.unlocked) > 0 {
			text += ". Badge unlocked: " + strings.Join(msg.unlocked, ", ")
		}
		a.setStatus(text, false)
		return a, a.reloadSessions()

	case sessionsChangedMsg:
		return a, a.reloadSessions()

	case settingsSavedMsg:
		a.setStatus("Settings saved", false)
		return a, tea.Batch(a.settings.refresh(), a.pomodoro.refresh(), a.dashboard.loadData())

	case exportDoneMsg:
		a.setStatus("Exported to "+msg.path, false)
		a.exportPicking = false
		return a, nil

	case restoreDoneMsg:
		how := "replaced local data"
		if msg.merge {
			how = "merged"
		}
		a.setStatus(fmt.Sprintf("Restored %d sessions from %s (%s, %d total)",
			msg.result.SessionsImported, msg.path, how, msg.result.TotalSessions), false)
		return a, a.reloadAll()

	case dataClearedMsg:
		a.setStatus("All local data cleared", false)
		return a, a.reloadAll()

	// Data messages go to their owner even when another view is shown.
	case dashboardDataMsg:
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		return a, cmd
	case historyDataMsg:
		var cmd tea.Cmd
		a.history, cmd = a.history.update(msg)
		return a, cmd
	case analyticsDataMsg:
		var cmd tea.Cmd
		a.analytics, cmd = a.analytics.update(msg)
		return a, cmd
	case pomodoroSettingsMsg:
		var cmd tea.Cmd
		a.pomodoro, cmd = a.pomodoro.update(msg)
		return a, cmd
	case notesDataMsg, noteSavedMsg:
		var cmd tea.Cmd
		a.notes, cmd = a.notes.update(msg)
		return a, cmd
	case settingsDataMsg:
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd
	case syncAccountMsg, syncDoneMsg:
		var cmd tea.Cmd
		a.sync, cmd = a.sync.update(msg)
		return a, cmd
	}

	if a.restoring {
		return a.updateRestore(msg)
	}
	return a.updateActiveView(msg)
}

func (a *App) setStatus(text string, isError bool) {
	a.status = text
	a.statusError = isError
	if isError {
		a.logger.Warn("status error", "message", text)
	}
}

func (a App) switchView(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	return a, a.refreshCurrentView()
}

// reloadSessions refreshes every view derived from the session list.
func (a App) reloadSessions() tea.Cmd {
	cmds := []tea.Cmd{a.dashboard.loadData(), a.history.refresh()}
	if a.activeView == viewAnalytics {
		cmds = append(cmds, a.analytics.refresh())
	}
	return tea.Batch(cmds...)
}

// reloadAll refreshes every view after the whole store was rewritten.
func (a App) reloadAll() tea.Cmd {
	return tea.Batch(
		a.reloadSessions(),
		a.notes.refresh(),
		a.settings.refresh(),
		a.pomodoro.refresh(),
		a.sync.refresh(),
	)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewHistory:
		a.history, cmd = a.history.update(msg)
	case viewAnalytics:
		a.analytics, cmd = a.analytics.update(msg)
	case viewPomodoro:
		a.pomodoro, cmd = a.pomodoro.update(msg)
	case viewNotes:
		a.notes, cmd = a.notes.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	case viewSync:
		a.sync, cmd = a.sync.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.formActive
	case viewHistory:
		return a.history.formActive
	case viewPomodoro:
		return a.pomodoro.formActive
	case viewNotes:
		return a.notes.editing()
	case viewSettings:
		return a.settings.formActive
	case viewSync:
		return a.sync.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.loadData()
	case viewHistory:
		return a.history.refresh()
	case viewAnalytics:
		return a.analytics.refresh()
	case viewPomodoro:
		return a.pomodoro.refresh()
	case viewNotes:
		return a.notes.refresh()
	case viewSettings:
		return a.settings.refresh()
	case viewSync:
		return a.sync.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewHistory:
		content = a.history.view()
	case viewAnalytics:
		content = a.analytics.view()
	case viewPomodoro:
		content = a.pomodoro.view()
	case viewNotes:
		content = a.notes.view()
	case viewSettings:
		content = a.settings.view()
	case viewSync:
		content = a.sync.view()
	case viewAbout:
		content = a.about.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	// Show export picker or restore overlay
	if a.exportPicking {
		content = a.renderExportPicker()
	}
	if a.restoring && a.restoreForm != nil {
		content = a.renderRestore()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		MaxHeight(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("DevPulse")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := statusBarStyle
		if a.statusError {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Timer indicator in footer
	timerInfo := ""
	if a.dashboard.isRunning() {
		elapsed := timeutil.FormatDuration(a.dashboard.elapsed())
		timerInfo = successStyle.Render(" ● " + elapsed)
		if a.dashboard.isPaused() {
			timerInfo = warningStyle.Render(" ⏸ " + elapsed)
		}
	} else if a.pomodoro.active() {
		timerInfo = accentStyle.Render(fmt.Sprintf(" 🍅 %s %s",
			phaseNames[a.pomodoro.phase], timeutil.FormatCountdown(a.pomodoro.remaining)))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	rows := []string{titleStyle.Render("Export"), ""}
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f.String())+
			mutedStyle.Render("  "+export.Filename(f, a.store.Now())))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  saved to "+a.exportDir))
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(exportFormats[a.exportCursor])
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(f export.Format) tea.Cmd {
	s, dir := a.store, a.exportDir
	return func() tea.Msg {
		now := s.Now()
		path := export.Path(dir, f, now)

		var err error
		switch f {
		case export.FormatCSV, export.FormatJSON:
			var sessions []store.Session
			sessions, err = s.ListSessions()
			if err != nil {
				break
			}
			if f == export.FormatCSV {
				err = export.ToCSV(sessions, path)
			} else {
				err = export.ToJSON(sessions, path)
			}
		case export.FormatNotes:
			var notes map[string]string
			notes, err = s.Notes()
			if err == nil {
				err = export.NotesToJSON(notes, path)
			}
		case export.FormatBackup:
			var p backup.Payload
			p, err = backup.Build(s, now)
			if err == nil {
				err = export.BackupToJSON(p, path)
			}
		}
		if err != nil {
			return errStatus(f.String()+" export", err)
		}
		return exportDoneMsg{path: path}
	}
}

func (a App) showRestore() (tea.Model, tea.Cmd) {
	*a.restorePath = export.Path(a.exportDir, export.FormatBackup, a.store.Now())
	*a.restoreMerge = true

	a.restoreForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Backup file").Value(a.restorePath).Validate(validateBackupFile),
			huh.NewSelect[bool]().
				Title("Mode").
				Options(
					huh.NewOption("Merge with local data", true),
					huh.NewOption("Replace local data", false),
				).
				Value(a.restoreMerge),
		),
	).WithShowHelp(true).WithShowErrors(true)

	a.restoring = true
	return a, a.restoreForm.Init()
}

func (a App) updateRestore(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.Back) {
		a.restoring = false
		a.restoreForm = nil
		return a, nil
	}

	form, cmd := a.restoreForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.restoreForm = f
	}

	if a.restoreForm.State == huh.StateCompleted {
		return a.finishRestore()
	}
	return a, cmd
}

func (a App) finishRestore() (tea.Model, tea.Cmd) {
	a.restoring = false
	a.restoreForm = nil
	return a, a.doRestore(strings.TrimSpace(*a.restorePath), *a.restoreMerge)
}

func (a App) renderRestore() string {
	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Restore backup"),
		"",
		a.restoreForm.View(),
		mutedStyle.Render("  esc: cancel"),
	))
}

// doRestore imports a Backup Payload file. Merge unions it with local data;
// otherwise it replaces sessions, notes and badges.
func (a App) doRestore(path string, merge bool) tea.Cmd {
	s := a.store
	return func() tea.Msg {
		res, err := backup.ImportFile(s, path, backup.Options{Merge: merge})
		if err != nil {
			return errStatus("Restore", err)
		}
		return restoreDoneMsg{path: path, merge: merge, result: res}
	}
}
