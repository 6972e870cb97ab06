// Package storage persists the last applied animation state per fixture.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ravekit/raved/internal/standalone"
)

// FixtureStateStore keeps one JSON state blob per fixture id in sqlite.
// It backs restart continuity: the runtime seeds from here when it has no
// in-memory state for a fixture.
type FixtureStateStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewFixtureStateStore creates a store over an opened database.
func NewFixtureStateStore(db *sql.DB) *FixtureStateStore {
	return &FixtureStateStore{db: db}
}

// Get returns the persisted state for a fixture, or nil when none exists.
func (s *FixtureStateStore) Get(id string) (*standalone.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRow(`
		SELECT payload FROM fixture_state WHERE id = ?
	`, id).Scan(&payload)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fixture state: %w", err)
	}

	var st standalone.State
	if err := json.Unmarshal([]byte(payload), &st); err != nil {
		return nil, fmt.Errorf("failed to decode fixture state: %w", err)
	}
	return &st, nil
}

// Has reports whether a persisted snapshot exists for a fixture.
func (s *FixtureStateStore) Has(id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var one int
	err := s.db.QueryRow(`
		SELECT 1 FROM fixture_state WHERE id = ?
	`, id).Scan(&one)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check fixture state: %w", err)
	}
	return true, nil
}

// Set stores the state for a fixture, replacing any previous snapshot.
func (s *FixtureStateStore) Set(id string, st standalone.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode fixture state: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO fixture_state (id, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, id, string(payload), time.Now().UTC().Unix())

	if err != nil {
		return fmt.Errorf("failed to store fixture state: %w", err)
	}
	return nil
}

// Delete removes the snapshot for a fixture.
func (s *FixtureStateStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM fixture_state WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete fixture state: %w", err)
	}
	return nil
}

// Clear removes every snapshot. Used by the --reset-state startup flag.
func (s *FixtureStateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM fixture_state`)
	if err != nil {
		return fmt.Errorf("failed to clear fixture state: %w", err)
	}
	return nil
}
