package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	manager := NewTokenManager("secret", "finance", time.Minute)
	userID := uuid.New()

	token, err := manager.NewAccessToken(userID, "demo@example.com")
	require.NoError(t, err)

	claims, err := manager.ParseAccessToken(token.Token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, "demo@example.com", claims.Email)
}

func TestParseAccessTokenRejectsForeignTokens(t *testing.T) {
	manager := NewTokenManager("secret", "finance", time.Minute)
	token, err := manager.NewAccessToken(uuid.New(), "a@b.c")
	require.NoError(t, err)

	_, err = NewTokenManager("other", "finance", time.Minute).ParseAccessToken(token.Token)
	assert.Error(t, err)

	_, err = NewTokenManager("secret", "someone-else", time.Minute).ParseAccessToken(token.Token)
	assert.Error(t, err)
}

func TestParseAccessTokenExpired(t *testing.T) {
	manager := NewTokenManager("secret", "finance", time.Minute)
	manager.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := manager.NewAccessToken(uuid.New(), "a@b.c")
	require.NoError(t, err)

	_, err = manager.ParseAccessToken(token.Token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)

	assert.NoError(t, ComparePassword(hash, "password123"))
	assert.Error(t, ComparePassword(hash, "wrong"))

	_, err = HashPassword(string(make([]byte, 73)))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func runMiddleware(t *testing.T, middleware echo.MiddlewareFunc, header string) (*httptest.ResponseRecorder, bool, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var authenticated bool
	err := middleware(func(c echo.Context) error {
		_, authenticated = UserIDFromContext(c)
		return c.NoContent(http.StatusNoContent)
	})(c)
	return rec, authenticated, err
}

func TestJWTMiddleware(t *testing.T) {
	manager := NewTokenManager("secret", "finance", time.Minute)
	token, err := manager.NewAccessToken(uuid.New(), "a@b.c")
	require.NoError(t, err)

	_, authenticated, err := runMiddleware(t, JWTMiddleware(manager), "Bearer "+token.Token)
	require.NoError(t, err)
	assert.True(t, authenticated)

	_, _, err = runMiddleware(t, JWTMiddleware(manager), "")
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)

	_, _, err = runMiddleware(t, JWTMiddleware(manager), "Basic abc")
	require.ErrorAs(t, err, &httpErr)
}

func TestOptionalJWTMiddleware(t *testing.T) {
	manager := NewTokenManager("secret", "finance", time.Minute)

	rec, authenticated, err := runMiddleware(t, OptionalJWTMiddleware(manager), "")
	require.NoError(t, err)
	assert.False(t, authenticated)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, _, err = runMiddleware(t, OptionalJWTMiddleware(manager), "Bearer garbage")
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}
