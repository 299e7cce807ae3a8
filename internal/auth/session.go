package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found or expired")

// SessionStore maps a session id to its principal. Entries expire after ttl
// unless touched.
type SessionStore interface {
	Create(ctx context.Context, p Principal, ttl time.Duration) (string, error)
	Get(ctx context.Context, sessionID string) (*Principal, error)
	Touch(ctx context.Context, sessionID string, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
	Count(ctx context.Context) (int, error)
}

const sessionKeyFmt = "session:%s"

type RedisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func (s *RedisSessionStore) Create(ctx context.Context, p Principal, ttl time.Duration) (string, error) {
	id := uuid.NewString()
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, fmt.Sprintf(sessionKeyFmt, id), raw, ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return id, nil
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*Principal, error) {
	raw, err := s.rdb.Get(ctx, fmt.Sprintf(sessionKeyFmt, sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var p Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	p.SessionID = sessionID
	return &p, nil
}

func (s *RedisSessionStore) Touch(ctx context.Context, sessionID string, ttl time.Duration) error {
	ok, err := s.rdb.Expire(ctx, fmt.Sprintf(sessionKeyFmt, sessionID), ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, fmt.Sprintf(sessionKeyFmt, sessionID)).Err()
}

// Count returns the number of live sessions.
func (s *RedisSessionStore) Count(ctx context.Context) (int, error) {
	var cursor uint64
	n := 0
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, "session:*", 100).Result()
		if err != nil {
			return 0, err
		}
		n += len(keys)
		if next == 0 {
			break
		}
		cursor = next
	}
	return n, nil
}

type memorySession struct {
	principal Principal
	expires   time.Time
}

// MemorySessionStore keeps sessions in process memory. Sessions do not
// survive a restart and are not shared between replicas.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	now      func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: map[string]memorySession{}, now: time.Now}
}

func (s *MemorySessionStore) Create(ctx context.Context, p Principal, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	p.SessionID = ""
	s.sessions[id] = memorySession{principal: p, expires: s.now().Add(ttl)}
	return id, nil
}

func (s *MemorySessionStore) live(id string) (memorySession, bool) {
	sess, ok := s.sessions[id]
	if !ok {
		return sess, false
	}
	if !s.now().Before(sess.expires) {
		delete(s.sessions, id)
		return sess, false
	}
	return sess, true
}

func (s *MemorySessionStore) Get(ctx context.Context, sessionID string) (*Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.live(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	p := sess.principal
	p.Authorities = append([]string(nil), sess.principal.Authorities...)
	p.SessionID = sessionID
	return &p, nil
}

func (s *MemorySessionStore) Touch(ctx context.Context, sessionID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.live(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	sess.expires = s.now().Add(ttl)
	s.sessions[sessionID] = sess
	return nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *MemorySessionStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id := range s.sessions {
		if _, ok := s.live(id); ok {
			n++
		}
	}
	return n, nil
}
