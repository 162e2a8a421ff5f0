package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/ai-finance-coach/backend/internal/auth"
	"example.com/ai-finance-coach/backend/internal/models"
	"example.com/ai-finance-coach/backend/internal/repository"
)

const tokenTypeBearer = "bearer"

type AuthHandler struct {
	Users        repository.UserStore
	TokenManager *auth.TokenManager
}

// NewAuthHandler создает обработчик авторизации.
func NewAuthHandler(users repository.UserStore, manager *auth.TokenManager) *AuthHandler {
	return &AuthHandler{
		Users:        users,
		TokenManager: manager,
	}
}

type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Name     *string `json:"name" validate:"omitempty,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  *string   `json:"name,omitempty"`
}

type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        AuthUser  `json:"user"`
}

type UserResponse struct {
	User AuthUser `json:"user"`
}

// Register регистрирует пользователя и выдает access-токен.
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindRequest(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	passwordHash, err := auth.HashPassword(strings.TrimSpace(req.Password))
	if err != nil {
		return serverError(c)
	}

	user, err := h.Users.Create(c.Request().Context(), req.Email, passwordHash, normalizeName(req.Name))
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return conflict(c, "user already exists")
		}
		return serverError(c)
	}

	return h.respondWithToken(c, http.StatusCreated, user)
}

// Login выполняет вход и выдает access-токен.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindRequest(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	user, err := h.Users.GetByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return unauthorized(c)
		}
		return serverError(c)
	}

	if err = auth.ComparePassword(user.PasswordHash, strings.TrimSpace(req.Password)); err != nil {
		return unauthorized(c)
	}

	return h.respondWithToken(c, http.StatusOK, user)
}

// Logout ничего не хранит на сервере: клиент просто забывает токен.
func (h *AuthHandler) Logout(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// Me возвращает данные текущего пользователя.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	user, err := h.Users.GetByID(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "user not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, UserResponse{User: toAuthUser(user)})
}

func (h *AuthHandler) respondWithToken(c echo.Context, status int, user models.User) error {
	token, err := h.TokenManager.NewAccessToken(user.ID, user.Email)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(status, AuthResponse{
		AccessToken: token.Token,
		TokenType:   tokenTypeBearer,
		ExpiresAt:   token.ExpiresAt,
		User:        toAuthUser(user),
	})
}

func toAuthUser(user models.User) AuthUser {
	return AuthUser{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	}
}

func normalizeName(name *string) *string {
	if name == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil
	}

	return &trimmed
}
