package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"example.com/ai-finance-coach/backend/internal/auth"
	"example.com/ai-finance-coach/backend/internal/config"
	"example.com/ai-finance-coach/backend/internal/handlers"
	"example.com/ai-finance-coach/backend/internal/notifications"
	"example.com/ai-finance-coach/backend/internal/orchestrator"
	"example.com/ai-finance-coach/backend/internal/repository"
)

const Version = "2.0.0"

// Deps собирает зависимости, которые сервер получает от main.
type Deps struct {
	Orchestrator *orchestrator.Orchestrator
	Users        repository.UserStore
	Hub          *notifications.Hub
}

// New собирает HTTP-сервер Echo с роутами и зависимостями.
func New(cfg config.Config, logger *logrus.Logger, deps Deps) *echo.Echo {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if deps.Hub == nil {
		deps.Hub = notifications.NewHub()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORS.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	if cfg.Server.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	}

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)

	analysisAuth := auth.OptionalJWTMiddleware(tokenManager)
	if cfg.Auth.Required {
		analysisAuth = auth.JWTMiddleware(tokenManager)
	}

	registerRoutes(e, routes{
		status:        handlers.NewStatusHandler(deps.Orchestrator, Version),
		analysis:      handlers.NewAnalysisHandler(deps.Orchestrator, deps.Hub, logger),
		auth:          handlers.NewAuthHandler(deps.Users, tokenManager),
		notifications: handlers.NewNotificationHandler(deps.Hub),

		requireAuth:     auth.JWTMiddleware(tokenManager),
		analysisAuth:    analysisAuth,
		authRateLimit:   rateLimiter(cfg.Auth.RateLimitPerMinute, cfg.Auth.RateLimitBurst),
		analysisLimiter: rateLimiter(cfg.AI.RateLimitPerMinute, cfg.AI.RateLimitBurst),
	})

	return e
}

// NewHTTPServer создает net/http сервер с заданными таймаутами.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func requestLogger(logger *logrus.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"remote_ip":  v.RemoteIP,
				"request_id": v.RequestID,
				"latency":    v.Latency.String(),
			})
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}

			if v.Status >= http.StatusInternalServerError {
				entry.Error("request completed")
				return nil
			}

			entry.Info("request completed")
			return nil
		},
	})
}

func rateLimiter(perMinute, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(perMinute) / 60.0),
		Burst:     burst,
		ExpiresIn: time.Minute,
	})

	return middleware.RateLimiter(store)
}
