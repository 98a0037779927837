package store

import "fmt"

// DefaultPomodoroSettings returns the classic 25/5 cycle, four rounds.
func DefaultPomodoroSettings() PomodoroSettings {
	return PomodoroSettings{WorkMinutes: 25, BreakMinutes: 5, Cycles: 4}
}

// PomodoroSettings returns the stored pomodoro lengths. Fields that are
// missing or not positive fall back to the defaults.
func (s *Store) PomodoroSettings() (PomodoroSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	def := DefaultPomodoroSettings()
	var stored PomodoroSettings
	ok, err := s.getJSON(KeyPomodoroSettings, &stored)
	if err != nil {
		return def, fmt.Errorf("get pomodoro settings: %w", err)
	}
	if !ok {
		return def, nil
	}
	return stored.withDefaults(def), nil
}

// SavePomodoroSettings stores p, replacing non-positive fields with defaults,
// and returns what was stored.
func (s *Store) SavePomodoroSettings(p PomodoroSettings) (PomodoroSettings, error) {
	p = p.withDefaults(DefaultPomodoroSettings())

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.setJSON(KeyPomodoroSettings, p); err != nil {
		return p, fmt.Errorf("save pomodoro settings: %w", err)
	}
	return p, nil
}

func (p PomodoroSettings) withDefaults(def PomodoroSettings) PomodoroSettings {
	if p.WorkMinutes <= 0 {
		p.WorkMinutes = def.WorkMinutes
	}
	if p.BreakMinutes <= 0 {
		p.BreakMinutes = def.BreakMinutes
	}
	if p.Cycles <= 0 {
		p.Cycles = def.Cycles
	}
	return p
}
