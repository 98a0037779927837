package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/asifrahman2003/devpulse/internal/cloudsync"
	"github.com/asifrahman2003/devpulse/internal/config"
	"github.com/asifrahman2003/devpulse/internal/export"
	"github.com/asifrahman2003/devpulse/internal/store"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore(t *testing.T) (*store.Store, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 3, 10, 14, 0, 0, 0, time.Local)}
	s, err := store.NewMemory(store.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, clock
}

// collect runs cmd and flattens batches. Commands that sleep (ticks, form
// cursors) must not be passed in.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func findMsg[T any](t *testing.T, msgs []tea.Msg) T {
	t.Helper()
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			return v
		}
	}
	var zero T
	t.Fatalf("no %T in %#v", zero, msgs)
	return zero
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func mustList(t *testing.T, s *store.Store) []store.Session {
	t.Helper()
	sessions, err := s.ListSessions()
	if err != nil {
		t.Fatal(err)
	}
	return sessions
}

// ============================================================
// Timer model
// ============================================================

func TestTimerStartStop(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)}
	tm := newTimerModel(clock.Now)
	if tm.running() {
		t.Fatal("timer should start stopped")
	}

	tm.start("api", []string{"go"})
	if !tm.running() {
		t.Fatal("timer should be running after start")
	}
	if tm.paused() {
		t.Fatal("timer should not be paused")
	}
	if tm.project != "api" || len(tm.tags) != 1 {
		t.Fatal("session metadata not set")
	}

	clock.advance(25 * time.Minute)
	if got := tm.stop(); got != 25*time.Minute {
		t.Fatalf("stop = %v, want 25m", got)
	}
	if tm.running() {
		t.Fatal("timer should be stopped")
	}
}

func TestTimerStopWhenStopped(t *testing.T) {
	tm := newTimerModel(nil)
	if got := tm.stop(); got != 0 {
		t.Fatalf("stop on stopped timer should return 0, got %v", got)
	}
}

func TestTimerPauseExcludedFromElapsed(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)}
	tm := newTimerModel(clock.Now)
	tm.start("api", nil)

	clock.advance(10 * time.Minute)
	tm.pause()
	if !tm.paused() || !tm.running() {
		t.Fatal("paused timer is paused and still running")
	}

	clock.advance(5 * time.Minute)
	if got := tm.currentElapsed(); got != 10*time.Minute {
		t.Fatalf("elapsed while paused = %v, want 10m", got)
	}

	tm.resume()
	clock.advance(2 * time.Minute)
	if got := tm.currentElapsed(); got != 12*time.Minute {
		t.Fatalf("elapsed after resume = %v, want 12m", got)
	}
}

func TestTimerPauseWhenNotRunning(t *testing.T) {
	tm := newTimerModel(nil)

	// Pause when stopped is a no-op
	tm.pause()
	if tm.paused() {
		t.Fatal("should not be paused when stopped")
	}
}

func TestTimerToggle(t *testing.T) {
	tm := newTimerModel(nil)
	tm.toggle()
	if tm.running() {
		t.Fatal("toggle on stopped timer should do nothing")
	}

	tm.start("api", nil)
	tm.toggle() // running -> paused
	if !tm.paused() {
		t.Fatal("toggle should pause")
	}
	tm.toggle() // paused -> running
	if tm.paused() {
		t.Fatal("toggle should resume")
	}
}

func TestTimerTick(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)}
	tm := newTimerModel(clock.Now)
	tm.start("api", nil)

	clock.advance(90 * time.Second)
	tm.recordActivity()
	tm.tick()
	if tm.elapsed != 90*time.Second {
		t.Fatalf("elapsed = %v, want 90s", tm.elapsed)
	}
}

func TestTimerIdleDetection(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)}
	tm := newTimerModel(clock.Now)
	tm.start("api", nil)

	clock.advance(6 * time.Minute)
	tm.tick()
	if !tm.isIdle || !tm.paused() {
		t.Fatal("timer should auto-pause after the idle timeout")
	}

	tm.recordActivity()
	if tm.isIdle || tm.paused() {
		t.Fatal("activity should resume an idle timer")
	}
}

// ============================================================
// Helpers
// ============================================================

func TestTagLabel(t *testing.T) {
	if got := tagLabel(nil); got != "" {
		t.Fatalf("tagLabel(nil) = %q", got)
	}
	if got := tagLabel([]string{"go", "server"}); got != "#go #server" {
		t.Fatalf("tagLabel = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"a long project", 6, "a lon…"},
		{"héllo wörld", 5, "héll…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestValidators(t *testing.T) {
	if validateDate("") != nil || validateDate("2026-03-10") != nil {
		t.Fatal("empty and valid dates should pass")
	}
	if validateDate("2026-02-30") == nil || validateDate("03/10/2026") == nil {
		t.Fatal("invalid dates should fail")
	}
	if validatePositive("25") != nil || validatePositive(" 1.5 ") != nil {
		t.Fatal("positive numbers should pass")
	}
	if validatePositive("0") == nil || validatePositive("-3") == nil || validatePositive("abc") == nil || validatePositive("1e20") == nil {
		t.Fatal("non-positive input should fail")
	}
	if validateReminderTime("20:00") != nil || validateReminderTime("8pm") == nil {
		t.Fatal("reminder time validation wrong")
	}

	dir := t.TempDir()
	file := filepath.Join(dir, "backup.json")
	if err := os.WriteFile(file, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if validateBackupFile(" "+file+" ") != nil {
		t.Fatal("existing backup file should pass")
	}
	if validateBackupFile(dir) == nil || validateBackupFile(filepath.Join(dir, "missing.json")) == nil {
		t.Fatal("directories and missing files should fail")
	}
}

func TestSessionMeta(t *testing.T) {
	m := newSessionMeta()
	if m.projectName() != store.DefaultProject {
		t.Fatalf("default project = %q", m.projectName())
	}
	*m.project = "  "
	*m.tags = "go, , server "
	if m.projectName() != store.DefaultProject {
		t.Fatal("blank project should fall back to the default")
	}
	if tags := m.tagList(); len(tags) != 2 || tags[0] != "go" || tags[1] != "server" {
		t.Fatalf("tags = %v", tags)
	}
}

func TestMinutesOr(t *testing.T) {
	if minutesOr("45", 1) != 45 || minutesOr("2.5", 1) != 3 || minutesOr("x", 7) != 7 {
		t.Fatal("minutesOr parsed wrong")
	}
}

// ============================================================
// View state
// ============================================================

func TestViewNames(t *testing.T) {
	expected := []string{"Dashboard", "History", "Analytics", "Pomodoro", "Notes", "Settings", "Sync", "About"}
	if len(viewNames) != len(expected) {
		t.Fatalf("expected %d view names, got %d", len(expected), len(viewNames))
	}
	for i, name := range expected {
		if viewNames[i] != name {
			t.Fatalf("viewNames[%d] = %q, want %q", i, viewNames[i], name)
		}
	}
}

func TestViewStateConstants(t *testing.T) {
	if viewDashboard != 0 || viewHistory != 1 || viewAnalytics != 2 || viewPomodoro != 3 ||
		viewNotes != 4 || viewSettings != 5 || viewSync != 6 || viewAbout != 7 {
		t.Fatal("view state constants out of order")
	}
}

// ============================================================
// Dashboard model
// ============================================================

func TestDashboardInit(t *testing.T) {
	s, _ := newTestStore(t)
	d := newDashboardModel(s)

	if d.isRunning() || d.isPaused() || d.elapsed() != 0 {
		t.Fatal("dashboard timer should be idle initially")
	}
}

func TestDashboardLoadData(t *testing.T) {
	s, _ := newTestStore(t)
	for _, in := range []store.SessionInput{
		{Date: "2026-03-08", Minutes: 30},
		{Date: "2026-03-09", Minutes: 20},
		{Date: "2026-03-10", Minutes: 45, Project: "api"},
	} {
		if _, err := s.CreateSession(in); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.SetDailyGoal(90); err != nil {
		t.Fatal(err)
	}

	d := newDashboardModel(s)
	msg, ok := d.loadData()().(dashboardDataMsg)
	if !ok {
		t.Fatal("loadData should return dashboardDataMsg")
	}
	if msg.todayTotal != 45 || msg.goal != 90 || msg.streak != 3 {
		t.Fatalf("unexpected data: %+v", msg)
	}
	if msg.streakAtRisk {
		t.Fatal("streak is not at risk once today has a session")
	}

	d, _ = d.update(msg)
	if d.todayTotal != 45 || len(d.recent) != 3 {
		t.Fatal("data not applied")
	}
}

func TestDashboardStreakAtRisk(t *testing.T) {
	s, _ := newTestStore(t)
	s.CreateSession(store.SessionInput{Date: "2026-03-08", Minutes: 30})
	s.CreateSession(store.SessionInput{Date: "2026-03-09", Minutes: 30})

	msg := newDashboardModel(s).loadData()().(dashboardDataMsg)
	if !msg.streakAtRisk || msg.riskDays != 2 || msg.streak != 0 {
		t.Fatalf("expected a 2-day streak at risk, got %+v", msg)
	}
}

func TestDashboardStopSavesSession(t *testing.T) {
	s, clock := newTestStore(t)
	d := newDashboardModel(s)

	d, _ = d.startTimer("api", []string{"go"})
	if !d.isRunning() {
		t.Fatal("timer should be running")
	}

	clock.advance(25 * time.Minute)
	d, cmd := d.stopTimer()
	if d.isRunning() {
		t.Fatal("timer should be stopped")
	}

	saved := findMsg[sessionSavedMsg](t, collect(cmd))
	if saved.session.Minutes != 25 || saved.session.Project != "api" || saved.session.Mode != store.ModeTimer {
		t.Fatalf("unexpected session: %+v", saved.session)
	}
	if got := mustList(t, s); len(got) != 1 || got[0].Date != "2026-03-10" {
		t.Fatalf("session not persisted: %+v", got)
	}
}

func TestDashboardStopUnderAMinute(t *testing.T) {
	s, clock := newTestStore(t)
	d := newDashboardModel(s)

	d, _ = d.startTimer("api", nil)
	clock.advance(20 * time.Second)
	_, cmd := d.stopTimer()

	status := findMsg[statusMsg](t, collect(cmd))
	if status.isError || !strings.Contains(status.text, "under a minute") {
		t.Fatalf("unexpected status: %+v", status)
	}
	if len(mustList(t, s)) != 0 {
		t.Fatal("short session should not be saved")
	}
}

func TestDashboardStopWhenStopped(t *testing.T) {
	s, _ := newTestStore(t)
	_, cmd := newDashboardModel(s).stopTimer()
	if cmd != nil {
		t.Fatal("stop with no timer should do nothing")
	}
}

func TestRecordSessionUnlocksBadges(t *testing.T) {
	s, _ := newTestStore(t)

	msgs := collect(recordSession(s, store.SessionInput{Minutes: 120}))
	saved := findMsg[sessionSavedMsg](t, msgs)
	if len(saved.unlocked) != 1 || saved.unlocked[0] != "Getting Started" {
		t.Fatalf("unlocked = %v", saved.unlocked)
	}

	// Already unlocked: nothing new.
	saved = findMsg[sessionSavedMsg](t, collect(recordSession(s, store.SessionInput{Minutes: 10})))
	if len(saved.unlocked) != 0 {
		t.Fatalf("badge unlocked twice: %v", saved.unlocked)
	}
}

func TestGoalBar(t *testing.T) {
	bar := goalBar(30, 60, 10)
	if strings.Count(bar, "█") != 5 || strings.Count(bar, "░") != 5 {
		t.Fatalf("half goal bar wrong: %q", bar)
	}
	if strings.Count(goalBar(200, 60, 10), "█") != 10 {
		t.Fatal("bar should cap at full width")
	}
}

// ============================================================
// History model
// ============================================================

func TestHistoryRefresh(t *testing.T) {
	s, _ := newTestStore(t)
	s.CreateSession(store.SessionInput{Date: "2026-03-09", Minutes: 30})
	s.CreateSession(store.SessionInput{Date: "2026-03-10", Minutes: 15})

	h := newHistoryModel(s)
	h, _ = h.update(h.refresh()())
	if len(h.sessions) != 2 || h.sessions[0].Date != "2026-03-10" {
		t.Fatalf("sessions not loaded newest first: %+v", h.sessions)
	}

	h, _ = h.update(tea.KeyMsg{Type: tea.KeyDown})
	if h.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", h.cursor)
	}
	h, _ = h.update(tea.KeyMsg{Type: tea.KeyDown})
	if h.cursor != 1 {
		t.Fatal("cursor should stop at the last row")
	}
}

func TestHistoryAddSession(t *testing.T) {
	s, _ := newTestStore(t)
	h := newHistoryModel(s)

	h, _ = h.showNewForm()
	if !h.formActive || *h.formDate != "2026-03-10" || *h.formProject != store.DefaultProject {
		t.Fatal("new form should default to today and the default project")
	}

	*h.formMinutes = "45"
	*h.formProject = "api"
	*h.formTags = "go, server"
	findMsg[sessionSavedMsg](t, collect(h.saveForm()))

	got := mustList(t, s)
	if len(got) != 1 || got[0].Minutes != 45 || got[0].Project != "api" || len(got[0].Tags) != 2 {
		t.Fatalf("unexpected sessions: %+v", got)
	}
}

func TestHistoryEditSession(t *testing.T) {
	s, _ := newTestStore(t)
	orig, _ := s.CreateSession(store.SessionInput{Date: "2026-03-09", Minutes: 30, Project: "api"})

	h := newHistoryModel(s)
	h, _ = h.showEditForm(*orig)
	if h.editingID != orig.ID || *h.formMinutes != "30" {
		t.Fatal("edit form not populated")
	}

	*h.formMinutes = "50"
	*h.formTags = "review"
	*h.formMode = store.ModePomodoro
	findMsg[sessionsChangedMsg](t, collect(h.saveForm()))

	got, err := s.GetSession(orig.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Minutes != 50 || got.Mode != store.ModePomodoro || got.Tags[0] != "review" || got.Date != "2026-03-09" {
		t.Fatalf("session not updated: %+v", got)
	}
}

func TestHistoryDeleteSession(t *testing.T) {
	s, _ := newTestStore(t)
	sess, _ := s.CreateSession(store.SessionInput{Minutes: 30})

	h := newHistoryModel(s)
	findMsg[sessionsChangedMsg](t, collect(h.deleteSession(sess.ID)))
	if len(mustList(t, s)) != 0 {
		t.Fatal("session should be deleted")
	}

	status := findMsg[statusMsg](t, collect(h.deleteSession(sess.ID)))
	if status.isError {
		t.Fatal("deleting a missing session is not an error")
	}
}

// ============================================================
// Analytics model
// ============================================================

func TestAnalyticsRefresh(t *testing.T) {
	s, _ := newTestStore(t)
	s.CreateSession(store.SessionInput{Date: "2026-03-09", Minutes: 60, Project: "api", Tags: []string{"go"}})
	s.CreateSession(store.SessionInput{Date: "2026-03-10", Minutes: 50, Project: "web"})

	a := newAnalyticsModel(s)
	a.setSize(100, 40)
	msg, ok := a.refresh()().(analyticsDataMsg)
	if !ok {
		t.Fatal("refresh should return analyticsDataMsg")
	}
	if len(msg.series) != 7 || msg.series[6].Date != "2026-03-10" || msg.series[6].Minutes != 50 {
		t.Fatalf("unexpected series: %+v", msg.series)
	}
	if msg.summary.TotalMinutes != 110 || msg.summary.CurrentStreak != 2 {
		t.Fatalf("unexpected summary: %+v", msg.summary)
	}
	if len(msg.projects) != 2 || msg.projects[0].Name != "api" {
		t.Fatalf("unexpected projects: %+v", msg.projects)
	}
	if len(msg.badges) != 8 {
		t.Fatalf("badge catalog has %d entries", len(msg.badges))
	}
	if len(msg.unlocked) != 1 || msg.unlocked[0] != "Getting Started" {
		t.Fatalf("refresh should unlock earned badges, got %v", msg.unlocked)
	}

	a, cmd := a.update(msg)
	if cmd == nil {
		t.Fatal("unlocks should raise a status")
	}
	if !strings.Contains(a.view(), "Getting Started") {
		t.Fatal("view should list badges")
	}
}

func TestAnalyticsRangeToggle(t *testing.T) {
	s, _ := newTestStore(t)
	a := newAnalyticsModel(s)

	a, cmd := a.update(keyPress("r"))
	if a.days != 30 || cmd == nil {
		t.Fatal("r should switch to 30 days and reload")
	}
	msg := cmd().(analyticsDataMsg)
	if len(msg.series) != 30 {
		t.Fatalf("series length = %d, want 30", len(msg.series))
	}

	a, _ = a.update(keyPress("r"))
	if a.days != 7 {
		t.Fatal("r should switch back to 7 days")
	}
}

func TestChartLabel(t *testing.T) {
	if got := chartLabel("2026-03-10", 7); got != "Tue" {
		t.Fatalf("weekly label = %q", got)
	}
	if got := chartLabel("2026-03-10", 30); got != "10" {
		t.Fatalf("monthly label = %q", got)
	}
	if got := chartLabel("bad", 7); got != "bad" {
		t.Fatalf("invalid date label = %q", got)
	}
}

// ============================================================
// Pomodoro model
// ============================================================

func TestPomodoroInit(t *testing.T) {
	s, _ := newTestStore(t)
	pm := newPomodoroModel(s)

	if pm.phase != pomodoroIdle {
		t.Fatalf("expected idle phase, got %d", pm.phase)
	}
	if pm.workDuration != 25*time.Minute || pm.breakDuration != 5*time.Minute || pm.targetCount != 4 {
		t.Fatalf("unexpected defaults: %v %v %d", pm.workDuration, pm.breakDuration, pm.targetCount)
	}
}

func TestPomodoroLoadsSettings(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.SavePomodoroSettings(store.PomodoroSettings{WorkMinutes: 50, BreakMinutes: 10, Cycles: 2}); err != nil {
		t.Fatal(err)
	}

	pm := newPomodoroModel(s)
	pm, _ = pm.update(pm.refresh()())
	if pm.workDuration != 50*time.Minute || pm.breakDuration != 10*time.Minute || pm.targetCount != 2 {
		t.Fatalf("settings not applied: %v %v %d", pm.workDuration, pm.breakDuration, pm.targetCount)
	}
}

func TestPomodoroStartSession(t *testing.T) {
	s, _ := newTestStore(t)
	pm := newPomodoroModel(s)

	pm, _ = pm.startSession()
	if pm.phase != pomodoroWork || pm.currentCycle != 1 {
		t.Fatal("should be in work phase, cycle 1, after start")
	}
	if pm.remaining != 25*time.Minute {
		t.Fatalf("remaining = %v", pm.remaining)
	}
}

func TestPomodoroWorkPhaseSavesSession(t *testing.T) {
	s, clock := newTestStore(t)
	pm := newPomodoroModel(s)
	*pm.meta.project = "api"
	pm, _ = pm.startSession()

	clock.advance(25 * time.Minute)
	pm, cmd := pm.update(tickMsg(clock.now))
	if pm.phase != pomodoroBreak {
		t.Fatalf("expected break after work, got %s", phaseNames[pm.phase])
	}

	saved := findMsg[sessionSavedMsg](t, collect(cmd))
	if saved.session.Minutes != 25 || saved.session.Mode != store.ModePomodoro || saved.session.Project != "api" {
		t.Fatalf("unexpected session: %+v", saved.session)
	}
}

func TestPomodoroBreakToWork(t *testing.T) {
	s, _ := newTestStore(t)
	pm := newPomodoroModel(s)
	pm, _ = pm.startSession()

	pm, _ = pm.advancePhase() // work -> break
	pm, _ = pm.advancePhase() // break -> work
	if pm.phase != pomodoroWork || pm.currentCycle != 2 {
		t.Fatalf("expected work cycle 2, got %s cycle %d", phaseNames[pm.phase], pm.currentCycle)
	}
	if pm.completedCount() != 1 {
		t.Fatalf("completed = %d, want 1", pm.completedCount())
	}
}

func TestPomodoroFullCycle(t *testing.T) {
	s, _ := newTestStore(t)
	s.SavePomodoroSettings(store.PomodoroSettings{WorkMinutes: 25, BreakMinutes: 5, Cycles: 2})
	pm := newPomodoroModel(s)
	pm, _ = pm.update(pm.refresh()())
	pm, _ = pm.startSession()

	var cmd tea.Cmd
	pm, cmd = pm.advancePhase() // work 1 -> break
	collect(cmd)
	pm, _ = pm.advancePhase() // break -> work 2
	pm, cmd = pm.advancePhase() // work 2 -> completed
	collect(cmd)

	if pm.phase != pomodoroCompleted || pm.completedCount() != 2 {
		t.Fatalf("expected completed after 2 cycles, got %s", phaseNames[pm.phase])
	}
	got := mustList(t, s)
	if len(got) != 2 {
		t.Fatalf("expected 2 pomodoro sessions, got %d", len(got))
	}
	for _, sess := range got {
		if sess.Mode != store.ModePomodoro || sess.Minutes != 25 {
			t.Fatalf("unexpected session: %+v", sess)
		}
	}
}

func TestPomodoroStopSavesPartialWork(t *testing.T) {
	s, clock := newTestStore(t)
	pm := newPomodoroModel(s)
	pm, _ = pm.startSession()

	clock.advance(10 * time.Minute)
	pm, cmd := pm.stopSession()
	if pm.phase != pomodoroIdle {
		t.Fatal("should be idle after stop")
	}

	saved := findMsg[sessionSavedMsg](t, collect(cmd))
	if saved.session.Minutes != 10 || saved.session.Mode != store.ModePomodoro {
		t.Fatalf("unexpected partial session: %+v", saved.session)
	}
}

func TestPomodoroStopDuringBreakSavesNothing(t *testing.T) {
	s, _ := newTestStore(t)
	pm := newPomodoroModel(s)
	pm, _ = pm.startSession()
	pm, cmd := pm.advancePhase()
	collect(cmd)

	_, cmd = pm.stopSession()
	collect(cmd)
	if got := mustList(t, s); len(got) != 1 {
		t.Fatalf("stopping a break should not add a session, got %d", len(got))
	}
}

func TestPomodoroSettingsIgnoredWhileRunning(t *testing.T) {
	s, _ := newTestStore(t)
	pm := newPomodoroModel(s)
	pm, _ = pm.startSession()

	pm, _ = pm.update(pomodoroSettingsMsg{settings: store.PomodoroSettings{WorkMinutes: 50, BreakMinutes: 10, Cycles: 2}})
	if pm.workDuration != 25*time.Minute {
		t.Fatal("lengths should not change mid-run")
	}
}

func TestPomodoroPhaseNames(t *testing.T) {
	for _, p := range []pomodoroPhase{pomodoroIdle, pomodoroWork, pomodoroBreak, pomodoroCompleted} {
		if phaseNames[p] == "" {
			t.Fatalf("missing phase name for %d", p)
		}
	}
}

// ============================================================
// Notes model
// ============================================================

func TestNotesSaveAndReload(t *testing.T) {
	s, _ := newTestStore(t)
	n := newNotesModel(s)

	n.editor.SetValue("shipped the parser\nfixed <b> escaping")
	n.dirty = true
	msg := n.save()()
	if _, ok := msg.(noteSavedMsg); !ok {
		t.Fatalf("save returned %#v", msg)
	}

	stored, err := s.Note("2026-03-10")
	if err != nil {
		t.Fatal(err)
	}
	if stored != "shipped the parser<br>fixed &lt;b&gt; escaping" {
		t.Fatalf("stored note = %q", stored)
	}

	fresh := newNotesModel(s)
	data := fresh.refresh()().(notesDataMsg)
	if data.text != "shipped the parser\nfixed <b> escaping" {
		t.Fatalf("reloaded text = %q", data.text)
	}
}

func TestNotesBlankSaveClears(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.SaveNote("2026-03-10", "old"); err != nil {
		t.Fatal(err)
	}

	n := newNotesModel(s)
	n.editor.SetValue("   ")
	saved := n.save()().(noteSavedMsg)
	if !saved.cleared {
		t.Fatal("blank note should clear")
	}
	if note, _ := s.Note("2026-03-10"); note != "" {
		t.Fatalf("note should be removed, got %q", note)
	}
}

func TestNotesEarlierList(t *testing.T) {
	s, _ := newTestStore(t)
	s.SaveNote("2026-03-08", "first line<br>second")
	s.SaveNote("2026-03-09", "<p><br></p>")
	s.SaveNote("2026-03-10", "today")

	data := newNotesModel(s).refresh()().(notesDataMsg)
	if data.text != "today" {
		t.Fatalf("today text = %q", data.text)
	}
	if len(data.earlier) != 1 || data.earlier[0].date != "2026-03-08" || data.earlier[0].first != "first line" {
		t.Fatalf("earlier = %+v", data.earlier)
	}
}

func TestNotesEditingCapturesKeys(t *testing.T) {
	s, _ := newTestStore(t)
	n := newNotesModel(s)

	n, _ = n.update(tea.KeyMsg{Type: tea.KeyEnter})
	if !n.editing() {
		t.Fatal("enter should focus the editor")
	}
	n, _ = n.update(keyPress("q"))
	if n.editor.Value() != "q" || !n.dirty {
		t.Fatalf("typing should reach the editor, value %q", n.editor.Value())
	}
	n, _ = n.update(tea.KeyMsg{Type: tea.KeyEsc})
	if n.editing() {
		t.Fatal("esc should leave the editor")
	}
}

// ============================================================
// Settings model
// ============================================================

func TestSettingsSave(t *testing.T) {
	s, _ := newTestStore(t)
	m := newSettingsModel(s)
	m, _ = m.update(m.refresh()())

	m, _ = m.showForm()
	if *m.dailyGoal != "60" || *m.reminderTime != "20:00" || *m.pomodoroWork != "25" {
		t.Fatal("form not populated from stored settings")
	}

	*m.dailyGoal = "90"
	*m.reminderOn = true
	*m.reminderTime = "07:30"
	*m.reminderMessage = "Code time"
	*m.pomodoroWork = "50"
	*m.pomodoroBreak = "10"
	*m.pomodoroCycles = "3"

	if _, ok := m.saveSettings()().(settingsSavedMsg); !ok {
		t.Fatal("save should succeed")
	}

	goal, _ := s.DailyGoal()
	rem, _ := s.ReminderSettings()
	pom, _ := s.PomodoroSettings()
	if goal != 90 {
		t.Fatalf("goal = %d", goal)
	}
	if !rem.Enabled || rem.Time != "07:30" || rem.Message != "Code time" {
		t.Fatalf("reminder = %+v", rem)
	}
	if pom != (store.PomodoroSettings{WorkMinutes: 50, BreakMinutes: 10, Cycles: 3}) {
		t.Fatalf("pomodoro = %+v", pom)
	}
}

func TestSettingsView(t *testing.T) {
	s, _ := newTestStore(t)
	m := newSettingsModel(s)
	m.setSize(100, 30)
	m, _ = m.update(m.refresh()())

	view := m.view()
	for _, want := range []string{"Daily goal", "60 min", "Last reminded", "never"} {
		if !strings.Contains(view, want) {
			t.Fatalf("settings view missing %q", want)
		}
	}
}

func TestSettingsClearAll(t *testing.T) {
	s, _ := newTestStore(t)
	s.CreateSession(store.SessionInput{Minutes: 30, Project: "api"})
	s.SaveNote("2026-03-10", "note")
	s.SetDailyGoal(90)
	m := newSettingsModel(s)

	m, _ = m.update(keyPress("D"))
	if !m.formActive || !m.clearing {
		t.Fatal("D should open the clear confirmation")
	}
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.formActive || m.clearing {
		t.Fatal("esc should close the confirmation")
	}

	// The confirmation defaults to cancel.
	m, _ = m.update(keyPress("D"))
	m, cmd := m.finishForm()
	if cmd != nil || m.formActive || m.clearing {
		t.Fatal("a declined confirmation should do nothing")
	}
	if len(mustList(t, s)) != 1 {
		t.Fatal("sessions should survive a declined clear")
	}

	m, _ = m.update(keyPress("D"))
	*m.confirmClear = true
	_, cmd = m.finishForm()
	if cmd == nil {
		t.Fatal("a confirmed clear should return a command")
	}
	if _, ok := cmd().(dataClearedMsg); !ok {
		t.Fatal("clear should report dataClearedMsg")
	}

	if len(mustList(t, s)) != 0 {
		t.Fatal("sessions should be gone")
	}
	notes, _ := s.Notes()
	goal, _ := s.DailyGoal()
	if len(notes) != 0 || goal != store.DefaultDailyGoal {
		t.Fatalf("notes = %v, goal = %d after clear", notes, goal)
	}
}

// ============================================================
// Sync model
// ============================================================

func TestSyncNotConfigured(t *testing.T) {
	s, _ := newTestStore(t)
	m := newSyncModel(context.Background(), s, cloudsync.New(config.SyncConfig{}, s, nil))
	m.setSize(100, 30)

	if !strings.Contains(m.view(), "not configured") {
		t.Fatal("view should say sync is not configured")
	}
	m, cmd := m.update(keyPress("i"))
	if m.formActive {
		t.Fatal("sign-in form should not open without a backend")
	}
	if status := cmd().(statusMsg); !status.isError {
		t.Fatal("expected an error status")
	}
}

func TestSyncUploadRequiresSignIn(t *testing.T) {
	s, _ := newTestStore(t)
	client := cloudsync.New(config.SyncConfig{URL: "http://127.0.0.1:1", AnonKey: "anon"}, s, nil)
	m := newSyncModel(context.Background(), s, client)

	m, cmd := m.update(keyPress("p"))
	if !m.busy {
		t.Fatal("upload should mark the view busy")
	}

	// A second request while busy is ignored.
	if _, again := m.update(keyPress("p")); again != nil {
		t.Fatal("busy view should ignore new requests")
	}

	done := cmd().(syncDoneMsg)
	if !errors.Is(done.err, cloudsync.ErrNotSignedIn) {
		t.Fatalf("err = %v, want ErrNotSignedIn", done.err)
	}

	m, _ = m.update(done)
	if m.busy {
		t.Fatal("busy flag should clear when the call ends")
	}
	if m.lastResult != cloudsync.ErrNotSignedIn.Error() {
		t.Fatalf("lastResult = %q", m.lastResult)
	}
}

func TestSyncAccountView(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.SaveCloudSession(store.CloudSession{AccessToken: "tok", User: store.CloudUser{ID: "u1", Email: "dev@example.com"}}); err != nil {
		t.Fatal(err)
	}
	client := cloudsync.New(config.SyncConfig{URL: "http://127.0.0.1:1", AnonKey: "anon"}, s, nil)
	m := newSyncModel(context.Background(), s, client)
	m.setSize(100, 30)
	m, _ = m.update(m.refresh()())

	view := m.view()
	if !strings.Contains(view, "dev@example.com") || !strings.Contains(view, "never") {
		t.Fatalf("account view missing details:\n%s", view)
	}

	m, _ = m.signOut()
	if m.account != nil {
		t.Fatal("sign out should clear the account")
	}
	if cs, _ := s.CloudSession(); cs != nil {
		t.Fatal("sign out should clear the stored session")
	}
}

// ============================================================
// App model
// ============================================================

func newTestApp(t *testing.T) (App, *store.Store) {
	t.Helper()
	s, _ := newTestStore(t)
	app := NewApp(s, Options{ExportDir: t.TempDir()})
	app.width = 120
	app.height = 40
	return app, s
}

func TestNewApp(t *testing.T) {
	app, _ := newTestApp(t)

	if app.activeView != viewDashboard {
		t.Fatal("default view should be dashboard")
	}
	if app.showHelp || app.exportPicking || app.restoring {
		t.Fatal("help, export picker and restore form should be hidden by default")
	}
	if app.isFormActive() {
		t.Fatal("no forms should be active initially")
	}
}

func TestAppViewStates(t *testing.T) {
	app, _ := newTestApp(t)
	model, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	app = model.(App)

	for v := range viewNames {
		app.activeView = viewState(v)
		if output := app.View(); output == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppTabSwitch(t *testing.T) {
	app, _ := newTestApp(t)

	model, cmd := app.Update(keyPress("3"))
	app = model.(App)
	if app.activeView != viewAnalytics || cmd == nil {
		t.Fatal("3 should open analytics and load it")
	}

	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyTab})
	if model.(App).activeView != viewPomodoro {
		t.Fatal("tab should move to the next view")
	}

	app.activeView = viewAbout
	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyTab})
	if model.(App).activeView != viewDashboard {
		t.Fatal("tab should wrap around")
	}
}

func TestAppRoutesDataToOwner(t *testing.T) {
	app, _ := newTestApp(t)
	app.activeView = viewHistory

	model, _ := app.Update(dashboardDataMsg{todayTotal: 42, goal: 60})
	if model.(App).dashboard.todayTotal != 42 {
		t.Fatal("dashboard data should reach the dashboard from any view")
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	app, _ := newTestApp(t)

	header := app.renderHeader()
	if !strings.Contains(header, "DevPulse") {
		t.Fatal("header missing title")
	}
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppLoadingState(t *testing.T) {
	s, _ := newTestStore(t)
	app := NewApp(s, Options{})
	// Width 0 means not yet sized
	if output := app.View(); output != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", output)
	}
}

func TestAppStatusMessage(t *testing.T) {
	app, _ := newTestApp(t)

	model, _ := app.Update(statusMsg{text: "test status"})
	app = model.(App)
	if !strings.Contains(app.renderFooter(), "test status") {
		t.Fatal("footer should contain status message")
	}
}

func TestAppReminder(t *testing.T) {
	app, _ := newTestApp(t)

	model, _ := app.Update(ReminderMsg{Settings: store.ReminderSettings{Enabled: true, Time: "20:00", Message: "Code time"}})
	app = model.(App)
	if !strings.Contains(app.status, "Code time") || !strings.Contains(app.status, "\a") {
		t.Fatalf("reminder status = %q", app.status)
	}
}

func TestAppSessionSavedReloads(t *testing.T) {
	app, _ := newTestApp(t)

	model, cmd := app.Update(sessionSavedMsg{
		session:  &store.Session{Minutes: 120, Project: "api"},
		unlocked: []string{"Getting Started"},
	})
	app = model.(App)
	if !strings.Contains(app.status, "Saved 2h 00m to api") || !strings.Contains(app.status, "Getting Started") {
		t.Fatalf("status = %q", app.status)
	}
	if cmd == nil {
		t.Fatal("saved sessions should reload views")
	}
}

func TestAppExportPicker(t *testing.T) {
	app, _ := newTestApp(t)

	model, _ := app.Update(keyPress("e"))
	app = model.(App)
	if !app.exportPicking {
		t.Fatal("e should open the export picker")
	}
	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyDown})
	app = model.(App)
	if app.exportCursor != 1 {
		t.Fatalf("cursor = %d", app.exportCursor)
	}
	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if model.(App).exportPicking {
		t.Fatal("esc should close the picker")
	}
}

func TestAppExportWritesFiles(t *testing.T) {
	app, s := newTestApp(t)
	s.CreateSession(store.SessionInput{Minutes: 30, Project: "api"})
	s.SaveNote("2026-03-10", "note")

	for _, f := range exportFormats {
		msg := app.doExport(f)()
		done, ok := msg.(exportDoneMsg)
		if !ok {
			t.Fatalf("%s export failed: %#v", f, msg)
		}
		if done.path != export.Path(app.exportDir, f, s.Now()) {
			t.Fatalf("%s exported to %q", f, done.path)
		}
		if info, err := os.Stat(done.path); err != nil || info.Size() == 0 {
			t.Fatalf("%s export missing: %v", f, err)
		}
	}
}

func TestAppRestoreForm(t *testing.T) {
	app, s := newTestApp(t)

	model, _ := app.Update(keyPress("I"))
	app = model.(App)
	if !app.restoring || app.restoreForm == nil {
		t.Fatal("I should open the restore form")
	}
	if *app.restorePath != export.Path(app.exportDir, export.FormatBackup, s.Now()) || !*app.restoreMerge {
		t.Fatalf("restore form defaults: path %q merge %v", *app.restorePath, *app.restoreMerge)
	}
	if !strings.Contains(app.View(), "Restore backup") {
		t.Fatal("view should show the restore form")
	}

	// Keys go to the form, not the tabs.
	model, _ = app.Update(keyPress("3"))
	app = model.(App)
	if app.activeView != viewDashboard || !app.restoring {
		t.Fatal("the restore form should capture keys")
	}

	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if model.(App).restoring {
		t.Fatal("esc should close the restore form")
	}
}

func TestAppRestoreBackup(t *testing.T) {
	src, srcStore := newTestApp(t)
	srcStore.CreateSession(store.SessionInput{Minutes: 30, Project: "api"})
	srcStore.SaveNote("2026-03-10", "shipped")
	exported, ok := src.doExport(export.FormatBackup)().(exportDoneMsg)
	if !ok {
		t.Fatal("backup export failed")
	}

	app, s := newTestApp(t)
	s.CreateSession(store.SessionInput{Minutes: 15, Project: "web"})

	model, _ := app.Update(keyPress("I"))
	app = model.(App)
	*app.restorePath = " " + exported.path + " "
	model, cmd := app.finishRestore()
	app = model.(App)
	if app.restoring {
		t.Fatal("finished restore should close the form")
	}

	done, ok := cmd().(restoreDoneMsg)
	if !ok {
		t.Fatal("merge restore failed")
	}
	if !done.merge || done.path != exported.path || done.result.SessionsImported != 1 || done.result.TotalSessions != 2 {
		t.Fatalf("merge result = %+v", done)
	}
	if len(mustList(t, s)) != 2 {
		t.Fatal("merge should keep local sessions")
	}

	model, cmd = app.Update(done)
	app = model.(App)
	if !strings.Contains(app.status, "Restored 1 sessions") || !strings.Contains(app.status, "merged") {
		t.Fatalf("status = %q", app.status)
	}
	msgs := collect(cmd)
	findMsg[dashboardDataMsg](t, msgs)
	findMsg[historyDataMsg](t, msgs)
	if notes := findMsg[notesDataMsg](t, msgs); notes.date != "2026-03-10" {
		t.Fatalf("notes reloaded for %q", notes.date)
	}

	replaced, ok := app.doRestore(exported.path, false)().(restoreDoneMsg)
	if !ok || replaced.merge {
		t.Fatal("replace restore failed")
	}
	sessions := mustList(t, s)
	if len(sessions) != 1 || sessions[0].Project != "api" {
		t.Fatalf("replace should drop local sessions, got %+v", sessions)
	}

	if msg, ok := app.doRestore(filepath.Join(t.TempDir(), "missing.json"), true)().(statusMsg); !ok || !msg.isError {
		t.Fatal("missing file should report an error status")
	}
}

func TestAppDataClearedReloadsEveryView(t *testing.T) {
	app, s := newTestApp(t)
	s.CreateSession(store.SessionInput{Minutes: 30, Project: "api"})
	app.activeView = viewSettings

	model, _ := app.Update(keyPress("D"))
	app = model.(App)
	if !app.settings.clearing || !app.isFormActive() {
		t.Fatal("D on the settings tab should open the clear confirmation")
	}
	*app.settings.confirmClear = true
	var cmd tea.Cmd
	app.settings, cmd = app.settings.finishForm()
	if _, ok := cmd().(dataClearedMsg); !ok {
		t.Fatal("clear failed")
	}

	model, cmd = app.Update(dataClearedMsg{})
	app = model.(App)
	if app.status != "All local data cleared" {
		t.Fatalf("status = %q", app.status)
	}
	msgs := collect(cmd)
	if dash := findMsg[dashboardDataMsg](t, msgs); dash.todayTotal != 0 || len(dash.recent) != 0 {
		t.Fatalf("dashboard still shows data: %+v", dash)
	}
	if hist := findMsg[historyDataMsg](t, msgs); len(hist.sessions) != 0 {
		t.Fatal("history still shows sessions")
	}
	findMsg[notesDataMsg](t, msgs)
	findMsg[settingsDataMsg](t, msgs)
	findMsg[pomodoroSettingsMsg](t, msgs)
	findMsg[syncAccountMsg](t, msgs)
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should have bindings")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

// ============================================================
// Styles and about page (smoke tests)
// ============================================================

func TestStylesRender(t *testing.T) {
	styles := map[string]func() string{
		"activeTab":    func() string { return activeTabStyle.Render("test") },
		"inactiveTab":  func() string { return inactiveTabStyle.Render("test") },
		"panel":        func() string { return panelStyle.Render("test") },
		"activePanel":  func() string { return activePanelStyle.Render("test") },
		"timer":        func() string { return timerStyle.Render("test") },
		"title":        func() string { return titleStyle.Render("test") },
		"streak":       func() string { return streakStyle.Render("test") },
		"badge":        func() string { return badgeStyle.Render("test") },
		"statusBar":    func() string { return statusBarStyle.Render("test") },
		"selectedItem": func() string { return selectedItemStyle.Render("test") },
	}
	for name, fn := range styles {
		if fn() == "" {
			t.Fatalf("style %q rendered empty", name)
		}
	}
}

func TestAboutRendersMarkdown(t *testing.T) {
	a := newAboutModel()
	a.setSize(100, 30)
	if !strings.Contains(a.view(), "DevPulse") {
		t.Fatal("about page should mention DevPulse")
	}
	if strings.Contains(a.rendered, "**consistency") {
		t.Fatal("markdown should be rendered, not shown raw")
	}
}
