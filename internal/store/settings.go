package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Item is a raw stored record.
type Item struct {
	Key   string
	Value string
}

// getItem returns the raw value under key and whether it exists.
func (s *Store) getItem(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM local_storage WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get item %q: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) setItem(key, value string) error {
	now := s.now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO local_storage (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now,
	)
	if err != nil {
		return fmt.Errorf("set item %q: %w", key, err)
	}
	return nil
}

func (s *Store) removeItem(key string) error {
	if _, err := s.db.Exec(`DELETE FROM local_storage WHERE key = ?`, key); err != nil {
		return fmt.Errorf("remove item %q: %w", key, err)
	}
	return nil
}

// setJSON marshals v and stores it under key.
func (s *Store) setJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %q: %w", key, err)
	}
	return s.setItem(key, string(data))
}

// getJSON decodes the value under key into v. Missing keys leave v untouched
// and report false. Corrupt values are logged and also report false, so
// callers fall back to their default.
func (s *Store) getJSON(key string, v any) (bool, error) {
	raw, ok, err := s.getItem(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		s.logger.Warn("discarding unreadable stored value", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

// Items lists every stored record, ordered by key.
func (s *Store) Items() ([]Item, error) {
	rows, err := s.db.Query(`SELECT key, value FROM local_storage ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.Key, &it.Value); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
