package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/asifrahman2003/devpulse/internal/timeutil"
)

// rawSession mirrors the stored session shape with loosely typed fields so
// documents written by older versions or by the web app still decode.
type rawSession struct {
	ID        any `json:"id"`
	Date      any `json:"date"`
	Minutes   any `json:"minutes"`
	Project   any `json:"project"`
	Tags      any `json:"tags"`
	Mode      any `json:"mode"`
	CreatedAt any `json:"createdAt"`
	UpdatedAt any `json:"updatedAt"`
}

// repairNamespace seeds name-based ids for stored sessions that lack one, so
// the same document always repairs to the same ids.
var repairNamespace = uuid.MustParse("6f1c2d8e-4b7a-4e55-9a0e-3d4f2b1c9e70")

// toNumber converts a loosely typed JSON value to a float. Blank and missing
// values are zero; anything unparseable is NaN.
func toNumber(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		return x
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		t := strings.TrimSpace(x)
		if t == "" {
			return 0
		}
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// roundHalfUp rounds .5 toward positive infinity.
func roundHalfUp(f float64) float64 {
	return math.Floor(f + 0.5)
}

// ParseTags splits a comma-separated tag list, trimming whitespace and
// dropping empty entries.
func ParseTags(s string) []string {
	return normalizeTagList(strings.Split(s, ","))
}

func normalizeTagList(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func tagsFromAny(v any) []string {
	switch x := v.(type) {
	case string:
		return ParseTags(x)
	case []any:
		tags := make([]string, 0, len(x))
		for _, t := range x {
			if t == nil {
				continue
			}
			tags = append(tags, fmt.Sprint(t))
		}
		return normalizeTagList(tags)
	default:
		return []string{}
	}
}

func normalizeProject(p string) string {
	if p = strings.TrimSpace(p); p == "" {
		return DefaultProject
	}
	return p
}

func normalizeMode(m Mode) Mode {
	if m == ModePomodoro {
		return ModePomodoro
	}
	return ModeTimer
}

func (s *Store) normalizeDate(date string) string {
	if timeutil.IsDate(date) {
		return date
	}
	return timeutil.Today(s.now())
}

func stringOf(v any) string {
	str, _ := v.(string)
	return str
}

func parseTimestamp(v any) (time.Time, bool) {
	str, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, str)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// syntheticTime derives a creation time for sessions that have none: local
// midnight of the session date, offset by idx milliseconds to keep ordering.
func (s *Store) syntheticTime(date string, idx int) time.Time {
	day, err := timeutil.ParseDate(date, time.Local)
	if err != nil {
		day = timeutil.StartOfDay(s.now())
	}
	return day.Add(time.Duration(idx) * time.Millisecond).UTC()
}

func repairID(date string, idx, minutes int) string {
	name := fmt.Sprintf("%s/%d/%d", date, idx, minutes)
	return uuid.NewSHA1(repairNamespace, []byte(name)).String()
}

// normalizeRaw turns a loosely typed stored session into a valid Session.
func (s *Store) normalizeRaw(r rawSession, idx int) Session {
	minutes := roundHalfUp(toNumber(r.Minutes))
	if !inMinuteRange(minutes) {
		minutes = 1
	}

	date := s.normalizeDate(stringOf(r.Date))

	createdAt, ok := parseTimestamp(r.CreatedAt)
	if !ok {
		createdAt = s.syntheticTime(date, idx)
	}
	updatedAt, ok := parseTimestamp(r.UpdatedAt)
	if !ok {
		updatedAt = createdAt
	}

	id := stringOf(r.ID)
	if strings.TrimSpace(id) == "" {
		id = repairID(date, idx, int(minutes))
	}

	return Session{
		ID:        id,
		Date:      date,
		Minutes:   int(minutes),
		Project:   normalizeProject(stringOf(r.Project)),
		Tags:      tagsFromAny(r.Tags),
		Mode:      normalizeMode(Mode(stringOf(r.Mode))),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// NormalizeSessions decodes a JSON array of sessions and normalizes every
// entry. Entries that are not JSON objects are skipped. It fails only when
// data is not an array.
func (s *Store) NormalizeSessions(data []byte) ([]Session, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	if entries == nil {
		return nil, fmt.Errorf("decode sessions: not an array")
	}

	sessions := make([]Session, 0, len(entries))
	for idx, entry := range entries {
		if !isJSONObject(entry) {
			continue
		}
		var r rawSession
		if err := json.Unmarshal(entry, &r); err != nil {
			continue
		}
		sessions = append(sessions, s.normalizeRaw(r, idx))
	}
	return sessions, nil
}

func isJSONObject(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{'
}

func isJSONArray(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '['
}

// maxMinutes bounds every stored minute count so it converts to int exactly.
const maxMinutes = math.MaxInt32

// inMinuteRange reports whether m is a finite, positive count no larger than
// maxMinutes.
func inMinuteRange(m float64) bool {
	return isFinite(m) && m > 0 && m <= maxMinutes
}

// minutesFor resolves the minutes of a new session from its input.
func minutesFor(in SessionInput) (int, error) {
	if in.Elapsed != 0 {
		m := roundHalfUp(float64(in.Elapsed.Milliseconds()) / 60000)
		if !inMinuteRange(m) {
			return 0, ErrInvalidMinutes
		}
		return int(m), nil
	}
	if !isFinite(in.Minutes) {
		return 0, ErrInvalidMinutes
	}
	m := math.Max(1, roundHalfUp(in.Minutes))
	if m > maxMinutes {
		return 0, ErrInvalidMinutes
	}
	return int(m), nil
}
