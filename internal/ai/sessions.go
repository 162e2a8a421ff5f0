package ai

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
)

var (
	ErrSessionNotFound = errors.New("ai session not found")
	ErrSessionRejected = errors.New("ai session rejected by store")
)

// Session хранит состояние одного прогона конвейера агентов.
type Session struct {
	ID string

	mu    sync.RWMutex
	state map[string]any
}

// Value возвращает значение по ключу состояния.
func (s *Session) Value(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.state[key]
	return value, ok
}

// Snapshot возвращает копию состояния.
func (s *Session) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.state))
	for key, value := range s.state {
		out[key] = value
	}
	return out
}

func (s *Session) put(key string, value any) {
	s.mu.Lock()
	s.state[key] = value
	s.mu.Unlock()
}

// SessionStore держит сессии агентов в ristretto с TTL, чтобы брошенные сессии истекали сами.
type SessionStore struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewSessionStore создает хранилище на maxSessions сессий.
func NewSessionStore(maxSessions int64, ttl time.Duration) (*SessionStore, error) {
	if maxSessions <= 0 {
		maxSessions = 1000
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        maxSessions * 10,
		MaxCost:            maxSessions,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}

	return &SessionStore{cache: cache, ttl: ttl}, nil
}

// Create регистрирует новую сессию с начальным состоянием.
func (s *SessionStore) Create(id string, state map[string]any) (*Session, error) {
	session := &Session{ID: id, state: make(map[string]any, len(state))}
	for key, value := range state {
		session.state[key] = value
	}

	if !s.cache.SetWithTTL(id, session, 1, s.ttl) {
		return nil, ErrSessionRejected
	}
	s.cache.Wait()

	if _, ok := s.Get(id); !ok {
		return nil, ErrSessionRejected
	}
	return session, nil
}

// Get возвращает живую сессию.
func (s *SessionStore) Get(id string) (*Session, bool) {
	value, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}

	session, ok := value.(*Session)
	return session, ok
}

// Put записывает значение в состояние сессии.
func (s *SessionStore) Put(id, key string, value any) error {
	session, ok := s.Get(id)
	if !ok {
		return ErrSessionNotFound
	}

	session.put(key, value)
	return nil
}

// Delete удаляет сессию.
func (s *SessionStore) Delete(id string) error {
	if _, ok := s.Get(id); !ok {
		return ErrSessionNotFound
	}

	s.cache.Del(id)
	s.cache.Wait()
	return nil
}

// Close останавливает фоновые горутины ristretto.
func (s *SessionStore) Close() {
	s.cache.Close()
}
