package session

import (
	"context"
	"sync"
	"time"

	"github.com/deep-ag/copilot/internal/agent/model"
)

// MemoryStore keeps sessions in process memory. Used when no REDIS_URL is
// configured, and by tests. Snapshots returned by Get are deep copies so the
// store remains the single owner of live state.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*model.SessionState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*model.SessionState)}
}

func (s *MemoryStore) getLocked(sessionID string) *model.SessionState {
	state, ok := s.sessions[sessionID]
	if !ok {
		state = model.NewSessionState(sessionID)
		s.sessions[sessionID] = state
	}
	return state
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*model.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.getLocked(sessionID)
	state.LastActive = time.Now()
	return state.Clone(), nil
}

func (s *MemoryStore) UpdateContext(_ context.Context, sessionID string, upd model.ContextUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.getLocked(sessionID)
	applyContextUpdate(state, upd)
	state.LastActive = time.Now()
	return nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, sessionID, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.getLocked(sessionID)
	appendHistory(state, role, content)
	state.LastActive = time.Now()
	return nil
}

func (s *MemoryStore) UpdateMemory(_ context.Context, sessionID, userText, assistantText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.getLocked(sessionID)
	applyMemory(state, userText, assistantText)
	state.LastActive = time.Now()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

var _ model.SessionStore = (*MemoryStore)(nil)
