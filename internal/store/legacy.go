package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// storedShape identifies one historical layout of the session data.
type storedShape int

const (
	shapeEmpty storedShape = iota
	// shapeSessionArray is the current layout: a JSON array of sessions
	// under KeySessions.
	shapeSessionArray
	// shapeDateMap is a date → minutes map saved under KeySessions by an
	// older build.
	shapeDateMap
	// shapeLegacyLogs is the original date → minutes map under
	// KeyLegacyLogs.
	shapeLegacyLogs
)

func (sh storedShape) String() string {
	switch sh {
	case shapeSessionArray:
		return "session-array"
	case shapeDateMap:
		return "date-map"
	case shapeLegacyLogs:
		return "legacy-logs"
	default:
		return "empty"
	}
}

// shapeDecoder recognizes one stored layout and converts it to sessions.
type shapeDecoder struct {
	shape storedShape
	key   string
	match func(raw []byte) bool
	// decode returns the canonical sessions and whether they must be
	// written back under KeySessions.
	decode func(s *Store, raw []byte) ([]Session, bool, error)
}

// shapeDecoders lists the decoders in the order they are tried.
var shapeDecoders = []shapeDecoder{
	{
		shape:  shapeSessionArray,
		key:    KeySessions,
		match:  isJSONArray,
		decode: decodeSessionArray,
	},
	{
		shape: shapeDateMap,
		key:   KeySessions,
		match: isJSONObject,
		decode: func(s *Store, raw []byte) ([]Session, bool, error) {
			sessions, err := s.decodeDateMap(raw, "converted")
			return sessions, true, err
		},
	},
	{
		shape: shapeLegacyLogs,
		key:   KeyLegacyLogs,
		match: func([]byte) bool { return true },
		decode: func(s *Store, raw []byte) ([]Session, bool, error) {
			if !isJSONObject(raw) {
				return []Session{}, true, nil
			}
			sessions, err := s.decodeDateMap(raw, "legacy")
			return sessions, true, err
		},
	},
}

// decodeSessionArray re-normalizes a stored session array. It asks for a
// write-back only when the canonical encoding differs from what is stored.
func decodeSessionArray(s *Store, raw []byte) ([]Session, bool, error) {
	sessions, err := s.NormalizeSessions(raw)
	if err != nil {
		return nil, false, err
	}
	canonical, err := json.Marshal(sessions)
	if err != nil {
		return nil, false, fmt.Errorf("marshal sessions: %w", err)
	}
	var stored bytes.Buffer
	if err := json.Compact(&stored, raw); err != nil {
		return sessions, true, nil
	}
	return sessions, !bytes.Equal(stored.Bytes(), canonical), nil
}

// decodeDateMap converts a date → minutes map into synthetic sessions. Dates
// are visited in ascending order; non-numeric and out-of-range minutes are
// dropped.
func (s *Store) decodeDateMap(raw []byte, idTag string) ([]Session, error) {
	var byDate map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byDate); err != nil {
		return nil, fmt.Errorf("decode date map: %w", err)
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	sessions := []Session{}
	for _, date := range dates {
		var values []any
		if err := json.Unmarshal(byDate[date], &values); err != nil {
			continue
		}
		for idx, v := range values {
			minutes := roundHalfUp(toNumber(v))
			if !inMinuteRange(minutes) {
				continue
			}
			sessions = append(sessions, s.normalizeRaw(rawSession{
				ID:      fmt.Sprintf("%s-%s-%d", date, idTag, idx),
				Date:    date,
				Minutes: minutes,
				Project: DefaultProject,
				Tags:    []any{},
				Mode:    string(ModeTimer),
			}, idx))
		}
	}
	return sessions, nil
}

// loadSessions returns the canonical session list in stored order, migrating
// older layouts in place. It is safe to run repeatedly: once the data is in
// canonical form nothing is written. Callers must hold s.mu.
func (s *Store) loadSessions() ([]Session, error) {
	type storedValue struct {
		raw []byte
		ok  bool
	}
	cache := map[string]storedValue{}
	read := func(key string) ([]byte, bool, error) {
		if c, hit := cache[key]; hit {
			return c.raw, c.ok, nil
		}
		v, ok, err := s.getItem(key)
		if err != nil {
			return nil, false, err
		}
		cache[key] = storedValue{[]byte(v), ok}
		return []byte(v), ok, nil
	}

	for _, dec := range shapeDecoders {
		raw, ok, err := read(dec.key)
		if err != nil {
			return nil, err
		}
		if !ok || !json.Valid(raw) || !dec.match(raw) {
			if ok && !json.Valid(raw) {
				s.logger.Warn("ignoring unreadable session data", "key", dec.key)
			}
			continue
		}

		sessions, write, err := dec.decode(s, raw)
		if err != nil {
			s.logger.Warn("session data decode failed", "shape", dec.shape.String(), "error", err)
			continue
		}
		if write {
			if err := s.setJSON(KeySessions, sessions); err != nil {
				return nil, err
			}
			if dec.shape != shapeSessionArray {
				s.logger.Info("migrated session data", "from", dec.shape.String(), "sessions", len(sessions))
			}
		}
		return sessions, nil
	}

	if err := s.setJSON(KeySessions, []Session{}); err != nil {
		return nil, err
	}
	return []Session{}, nil
}

// LegacyLogs derives the date → minutes map from sessions. It backs both
// the legacy mirror and exports.
func LegacyLogs(sessions []Session) map[string][]int {
	logs := make(map[string][]int)
	for _, sess := range sessions {
		logs[sess.Date] = append(logs[sess.Date], sess.Minutes)
	}
	return logs
}
