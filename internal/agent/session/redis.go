package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/deep-ag/copilot/internal/agent/model"
	errx "github.com/deep-ag/copilot/internal/core/error"
	logx "github.com/deep-ag/copilot/pkg/logger"
)

// RedisStore persists whole sessions as JSON values with a sliding TTL.
// A per-session-id mutex serializes read-modify-write cycles so rapid
// concurrent turns on one session cannot lose updates.
type RedisStore struct {
	rdb   redis.Cmdable
	ttl   time.Duration
	locks sync.Map // session id -> *sync.Mutex
}

func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) sessionKey(sessionID string) string {
	return fmt.Sprintf("agribot:session:%s", sessionID)
}

func (s *RedisStore) lock(sessionID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *RedisStore) load(ctx context.Context, sessionID string) (*model.SessionState, error) {
	raw, err := s.rdb.Get(ctx, s.sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return model.NewSessionState(sessionID), nil
	}
	if err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("failed to load session from redis")
		return nil, errx.WrapRedis(err)
	}

	var state model.SessionState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("corrupt session payload, recreating")
		return model.NewSessionState(sessionID), nil
	}
	return &state, nil
}

func (s *RedisStore) save(ctx context.Context, state *model.SessionState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.rdb.Set(ctx, s.sessionKey(state.SessionID), b, s.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("session_id", state.SessionID).Msg("failed to save session to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

// Get returns a snapshot, creating the session when the id is unseen. The
// activity timestamp is refreshed on every read.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*model.SessionState, error) {
	mu := s.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	state.LastActive = time.Now()
	if err := s.save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// mutate runs fn on the freshly loaded state under the per-session lock and
// saves the result.
func (s *RedisStore) mutate(ctx context.Context, sessionID string, fn func(*model.SessionState)) error {
	mu := s.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	fn(state)
	state.LastActive = time.Now()
	return s.save(ctx, state)
}

func (s *RedisStore) UpdateContext(ctx context.Context, sessionID string, upd model.ContextUpdate) error {
	return s.mutate(ctx, sessionID, func(state *model.SessionState) {
		applyContextUpdate(state, upd)
	})
}

func (s *RedisStore) AppendMessage(ctx context.Context, sessionID, role, content string) error {
	return s.mutate(ctx, sessionID, func(state *model.SessionState) {
		appendHistory(state, role, content)
	})
}

func (s *RedisStore) UpdateMemory(ctx context.Context, sessionID, userText, assistantText string) error {
	return s.mutate(ctx, sessionID, func(state *model.SessionState) {
		applyMemory(state, userText, assistantText)
	})
}

// Clear deletes the session; the next Get recreates it empty.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	mu := s.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.rdb.Del(ctx, s.sessionKey(sessionID)).Err(); err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("failed to delete session from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.SessionStore = (*RedisStore)(nil)
