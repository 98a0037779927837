package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/asifrahman2003/devpulse/internal/backup"
	"github.com/asifrahman2003/devpulse/internal/store"
)

type jsonExport struct {
	Version    int              `json:"version"`
	ExportedAt string           `json:"exportedAt"`
	Sessions   []store.Session  `json:"sessions"`
	LogsByDate map[string][]int `json:"logsByDate"`
}

// ToJSON writes the sessions together with the derived date → minutes map.
func ToJSON(sessions []store.Session, path string) error {
	if sessions == nil {
		sessions = []store.Session{}
	}
	return writeJSON(path, jsonExport{
		Version:    backup.Version,
		ExportedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Sessions:   sessions,
		LogsByDate: store.LegacyLogs(sessions),
	})
}

// NotesToJSON writes the date → note map as is.
func NotesToJSON(notes map[string]string, path string) error {
	if notes == nil {
		notes = map[string]string{}
	}
	return writeJSON(path, notes)
}

// BackupToJSON writes a full Backup Payload that backup.ImportFile reads.
func BackupToJSON(p backup.Payload, path string) error {
	return writeJSON(path, p)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
