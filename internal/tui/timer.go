package tui

import "time"

// timerState tracks the current state of the stopwatch.
type timerState int

const (
	timerStopped timerState = iota
	timerRunning
	timerPaused
)

// timerModel is the dashboard stopwatch. It only measures time; the
// dashboard turns the result into a session when it stops.
type timerModel struct {
	now func() time.Time

	state     timerState
	startTime time.Time
	elapsed   time.Duration
	pausedAt  time.Time // when paused, to compute pause gap
	pauseGap  time.Duration

	project string
	tags    []string

	// Idle detection
	lastActivity time.Time
	idleTimeout  time.Duration
	isIdle       bool
}

func newTimerModel(now func() time.Time) timerModel {
	if now == nil {
		now = time.Now
	}
	return timerModel{
		now:          now,
		state:        timerStopped,
		lastActivity: now(),
		idleTimeout:  5 * time.Minute,
	}
}

func (t *timerModel) start(project string, tags []string) {
	now := t.now()
	t.state = timerRunning
	t.startTime = now
	t.elapsed = 0
	t.pauseGap = 0
	t.project = project
	t.tags = tags
	t.lastActivity = now
	t.isIdle = false
}

// stop returns the measured time, excluding pauses, and resets the timer.
func (t *timerModel) stop() time.Duration {
	if t.state == timerStopped {
		return 0
	}
	d := t.currentElapsed()
	t.state = timerStopped
	t.elapsed = 0
	t.pauseGap = 0
	t.isIdle = false
	return d
}

func (t *timerModel) pause() {
	if t.state != timerRunning {
		return
	}
	t.state = timerPaused
	t.pausedAt = t.now()
}

func (t *timerModel) resume() {
	if t.state != timerPaused {
		return
	}
	now := t.now()
	t.pauseGap += now.Sub(t.pausedAt)
	t.state = timerRunning
	t.isIdle = false
	t.lastActivity = now
}

func (t *timerModel) toggle() {
	switch t.state {
	case timerRunning:
		t.pause()
	case timerPaused:
		t.resume()
	}
}

func (t *timerModel) tick() {
	if t.state != timerRunning {
		return
	}
	now := t.now()
	t.elapsed = now.Sub(t.startTime) - t.pauseGap

	if now.Sub(t.lastActivity) > t.idleTimeout && !t.isIdle {
		t.isIdle = true
		t.pause()
	}
}

func (t *timerModel) recordActivity() {
	t.lastActivity = t.now()
	if t.isIdle && t.state == timerPaused {
		t.resume()
		t.isIdle = false
	}
}

func (t timerModel) running() bool {
	return t.state != timerStopped
}

func (t timerModel) paused() bool {
	return t.state == timerPaused
}

func (t timerModel) currentElapsed() time.Duration {
	switch t.state {
	case timerPaused:
		return t.pausedAt.Sub(t.startTime) - t.pauseGap
	case timerRunning:
		return t.now().Sub(t.startTime) - t.pauseGap
	}
	return 0
}
