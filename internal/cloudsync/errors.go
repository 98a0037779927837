package cloudsync

import "errors"

var (
	// ErrNotConfigured indicates the backend URL or anon key is missing.
	ErrNotConfigured = errors.New("Cloud sync is not configured. Set DEVPULSE_SUPABASE_URL and DEVPULSE_SUPABASE_ANON_KEY.")
	// ErrNotSignedIn indicates an upload or download without a cloud session.
	ErrNotSignedIn = errors.New("You must be signed in to sync.")
)

// Error is a failed backend call. Message is meant for display.
type Error struct {
	Op      string
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
