package repository

import (
	"context"

	"github.com/google/uuid"

	"example.com/ai-finance-coach/backend/internal/models"
)

// UserStore хранит учетные записи пользователей.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string, name *string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.User, error)
}

var (
	_ UserStore = (*UserRepository)(nil)
	_ UserStore = (*MemoryUserStore)(nil)
)
