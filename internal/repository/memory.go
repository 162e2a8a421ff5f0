package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/ai-finance-coach/backend/internal/models"
)

// MemoryUserStore держит пользователей в памяти процесса.
type MemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]models.User
	byEmail map[string]uuid.UUID
	now     func() time.Time
}

// NewMemoryUserStore создает пустое in-memory хранилище пользователей.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:    make(map[uuid.UUID]models.User),
		byEmail: make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

// Create добавляет пользователя, если email еще не занят.
func (s *MemoryUserStore) Create(_ context.Context, email, passwordHash string, name *string) (models.User, error) {
	email = normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return models.User{}, ErrConflict
	}

	now := s.now().UTC()
	user := models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.byID[user.ID] = user
	s.byEmail[email] = user.ID

	return user, nil
}

// GetByEmail возвращает пользователя по email.
func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return s.byID[id], nil
}

// GetByID возвращает пользователя по идентификатору.
func (s *MemoryUserStore) GetByID(_ context.Context, id uuid.UUID) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
