// Package export writes sessions, notes and backups to files.
package export

import (
	"fmt"
	"path/filepath"
	"time"
)

// Format is a file export kind offered by the TUI.
type Format int

const (
	FormatCSV Format = iota
	FormatJSON
	FormatNotes
	FormatBackup
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "Sessions CSV"
	case FormatJSON:
		return "Sessions JSON"
	case FormatNotes:
		return "Notes JSON"
	case FormatBackup:
		return "Full backup JSON"
	default:
		return "unknown"
	}
}

// Filename returns the default file name for f, dated with now.
func Filename(f Format, now time.Time) string {
	date := now.Format("2006-01-02")
	switch f {
	case FormatCSV:
		return fmt.Sprintf("devpulse_sessions_%s.csv", date)
	case FormatJSON:
		return fmt.Sprintf("devpulse_sessions_%s.json", date)
	case FormatNotes:
		return "devpulse_notes.json"
	default:
		return fmt.Sprintf("devpulse_backup_%s.json", date)
	}
}

// Path joins dir and the default file name for f.
func Path(dir string, f Format, now time.Time) string {
	return filepath.Join(dir, Filename(f, now))
}
