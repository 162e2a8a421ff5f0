package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/ai-finance-coach/backend/internal/config"
	"example.com/ai-finance-coach/backend/internal/handlers"
	"example.com/ai-finance-coach/backend/internal/logging"
	"example.com/ai-finance-coach/backend/internal/orchestrator"
	"example.com/ai-finance-coach/backend/internal/repository"
)

const profileBody = `{"monthly_income": 5000, "dependants": 1, "manual_expenses": {"Housing": 1500}}`

func testConfig(authRequired bool) config.Config {
	return config.Config{
		Server: config.ServerConfig{BodyLimit: "1M"},
		Auth: config.AuthConfig{
			JWTSecret:          "secret",
			JWTIssuer:          "finance",
			AccessTokenTTL:     time.Minute,
			RateLimitPerMinute: 600,
			RateLimitBurst:     100,
			Required:           authRequired,
		},
		AI:   config.AIConfig{RateLimitPerMinute: 600, RateLimitBurst: 100},
		CORS: config.CORSConfig{AllowOrigins: []string{"*"}},
	}
}

func newTestServer(authRequired bool) *echo.Echo {
	logger := logging.Discard()
	return New(testConfig(authRequired), logger, Deps{
		Orchestrator: orchestrator.New(nil, orchestrator.WithLogger(logger)),
		Users:        repository.NewMemoryUserStore(),
	})
}

func do(e *echo.Echo, method, target, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPublicRoutes(t *testing.T) {
	e := newTestServer(false)

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/service-status", "", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/", "", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/chat", `{"message": "hello"}`, "").Code)

	rec := do(e, http.MethodPost, "/analyze-basic", profileBody, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestOptionalAuthRejectsBadToken(t *testing.T) {
	e := newTestServer(false)

	rec := do(e, http.MethodPost, "/analyze", profileBody, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequiredAuth(t *testing.T) {
	e := newTestServer(true)

	rec := do(e, http.MethodPost, "/analyze-basic", profileBody, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodPost, "/auth/register", `{"email": "a@example.com", "password": "password123"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	token := extractToken(t, rec.Body.Bytes())
	rec = do(e, http.MethodPost, "/analyze-basic", profileBody, token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/auth/me", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBodyLimit(t *testing.T) {
	e := newTestServer(false)

	big := `{"monthly_income": 1, "padding": "` + strings.Repeat("x", 2<<20) + `"}`
	rec := do(e, http.MethodPost, "/analyze-basic", big, "")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func extractToken(t *testing.T, body []byte) string {
	t.Helper()
	var response handlers.AuthResponse
	require.NoError(t, json.Unmarshal(body, &response))
	require.NotEmpty(t, response.AccessToken)
	return response.AccessToken
}
