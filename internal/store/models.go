package store

import "time"

// Mode records how a session was timed.
type Mode string

const (
	ModeTimer    Mode = "timer"
	ModePomodoro Mode = "pomodoro"
)

// DefaultProject is used when a session has no project label.
const DefaultProject = "General"

// Session is one logged block of development time.
type Session struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"` // YYYY-MM-DD, local calendar day
	Minutes   int       `json:"minutes"`
	Project   string    `json:"project"`
	Tags      []string  `json:"tags"`
	Mode      Mode      `json:"mode"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SessionInput describes a new session.
//
// When Elapsed is non-zero the minutes are derived from it, rounded to the
// nearest minute, and anything under half a minute is rejected. Otherwise
// Minutes is used and clamped to at least one.
type SessionInput struct {
	Date    string
	Minutes float64
	Elapsed time.Duration
	Project string
	Tags    []string
	Mode    Mode
}

// SessionUpdate carries the fields to change on an existing session. Nil
// fields keep their current value.
type SessionUpdate struct {
	Date    *string
	Minutes *float64
	Project *string
	Tags    *[]string
	Mode    *Mode
}

// ReminderSettings configures the daily reminder.
type ReminderSettings struct {
	Enabled bool   `json:"enabled"`
	Time    string `json:"time"` // HH:MM, local
	Message string `json:"message"`
}

// ReminderUpdate carries reminder fields to change. Nil or invalid fields keep
// their current value.
type ReminderUpdate struct {
	Enabled *bool
	Time    *string
	Message *string
}

// BadgeUnlock records when a badge was first earned.
type BadgeUnlock struct {
	ID         string    `json:"id"`
	UnlockedAt time.Time `json:"unlockedAt"`
}

// CloudUser identifies the signed-in backup account.
type CloudUser struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// CloudSession is the persisted auth token record for cloud backups.
type CloudSession struct {
	AccessToken string    `json:"access_token"`
	User        CloudUser `json:"user"`
}

// PomodoroSettings holds the pomodoro cycle lengths.
type PomodoroSettings struct {
	WorkMinutes  int `json:"workMinutes"`
	BreakMinutes int `json:"breakMinutes"`
	Cycles       int `json:"cycles"`
}
