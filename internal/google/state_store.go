package google

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultStateTTL bounds how long a login attempt may take between redirect and callback.
const DefaultStateTTL = 10 * time.Minute

// StateStore tracks the OAuth state values handed out with authorization URLs.
// Each state can be consumed once.
type StateStore struct {
	states map[string]time.Time
	ttl    time.Duration
	now    func() time.Time
	mu     sync.Mutex
	logger *slog.Logger
}

// NewStateStore creates a state store whose entries expire after ttl.
func NewStateStore(ttl time.Duration, logger *slog.Logger) *StateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &StateStore{
		states: make(map[string]time.Time),
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// Issue creates and records a new random state.
func (s *StateStore) Issue() string {
	state := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupExpiredLocked()
	s.states[state] = s.now().Add(s.ttl)

	return state
}

// Consume validates state and removes it so it cannot be replayed.
func (s *StateStore) Consume(state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.states[state]
	if !ok {
		return ErrInvalidState
	}
	delete(s.states, state)

	if s.now().After(expiresAt) {
		return ErrInvalidState
	}

	return nil
}

// Len returns the number of outstanding states.
func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

func (s *StateStore) cleanupExpiredLocked() {
	now := s.now()
	deleted := 0
	for state, expiresAt := range s.states {
		if now.After(expiresAt) {
			delete(s.states, state)
			deleted++
		}
	}

	if deleted > 0 {
		s.logger.Debug("Cleaned up expired OAuth states", "states_deleted", deleted)
	}
}
