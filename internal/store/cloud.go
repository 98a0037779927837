package store

import "fmt"

// CloudSession returns the persisted cloud auth record, or nil when signed
// out or when the record lacks a token or user id.
func (s *Store) CloudSession() (*CloudSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cs CloudSession
	ok, err := s.getJSON(KeyCloudSession, &cs)
	if err != nil {
		return nil, fmt.Errorf("get cloud session: %w", err)
	}
	if !ok || cs.AccessToken == "" || cs.User.ID == "" {
		return nil, nil
	}
	return &cs, nil
}

func (s *Store) SaveCloudSession(cs CloudSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.setJSON(KeyCloudSession, cs); err != nil {
		return fmt.Errorf("save cloud session: %w", err)
	}
	return nil
}

func (s *Store) ClearCloudSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeItem(KeyCloudSession)
}
