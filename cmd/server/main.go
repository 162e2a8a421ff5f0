package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"example.com/ai-finance-coach/backend/internal/ai"
	"example.com/ai-finance-coach/backend/internal/auth"
	"example.com/ai-finance-coach/backend/internal/config"
	"example.com/ai-finance-coach/backend/internal/database"
	"example.com/ai-finance-coach/backend/internal/logging"
	"example.com/ai-finance-coach/backend/internal/orchestrator"
	"example.com/ai-finance-coach/backend/internal/repository"
	"example.com/ai-finance-coach/backend/internal/server"
)

func main() {
	ensureEnvFile()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	var pool *pgxpool.Pool
	if cfg.UserStore == config.UserStorePostgres {
		pool, err = database.Open(ctx, cfg.Database, logger)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to database")
		}
		defer pool.Close()

		if err := database.Migrate(ctx, pool); err != nil {
			logger.WithError(err).Fatal("failed to apply database schema")
		}
	}

	users, err := newUserStore(ctx, cfg, pool)
	if err != nil {
		logger.WithError(err).Fatal("failed to prepare user store")
	}

	pipelineOpts := []ai.Option{ai.WithLogger(logger)}
	if pool != nil {
		pipelineOpts = append(pipelineOpts, ai.WithAuditLog(repository.NewAIRepository(pool)))
	}

	pipeline, cleanup, err := ai.Setup(ctx, cfg.AI, pipelineOpts...)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialise ai pipeline")
	}
	defer cleanup()

	orch := orchestrator.New(pipeline,
		orchestrator.WithTimeout(cfg.AI.PipelineTimeout),
		orchestrator.WithLogger(logger),
	)

	status := orch.Status()
	logger.WithFields(logrus.Fields{
		"provider":     status.Provider,
		"model":        status.Model,
		"ai_available": status.AIAvailable,
		"user_store":   cfg.UserStore,
	}).Info("analysis service configured")

	e := server.New(cfg, logger, server.Deps{
		Orchestrator: orch,
		Users:        users,
	})
	httpServer := server.NewHTTPServer(cfg.Server, e)

	go func() {
		logger.WithField("addr", httpServer.Addr).Info("http server started")
		if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("http server failed")
		}
	}()

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownSignal

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}

// newUserStore выбирает хранилище пользователей; in-memory хранилище получает демо-пользователя.
func newUserStore(ctx context.Context, cfg config.Config, pool *pgxpool.Pool) (repository.UserStore, error) {
	if pool != nil {
		return repository.NewUserRepository(pool), nil
	}

	store := repository.NewMemoryUserStore()

	passwordHash, err := auth.HashPassword(cfg.Auth.DemoUser.Password)
	if err != nil {
		return nil, err
	}

	name := cfg.Auth.DemoUser.Name
	if _, err := store.Create(ctx, cfg.Auth.DemoUser.Email, passwordHash, &name); err != nil {
		return nil, err
	}

	return store, nil
}

func ensureEnvFile() {
	if os.Getenv("ENV_FILE") != "" {
		return
	}

	if _, err := os.Stat(".env"); err == nil {
		_ = os.Setenv("ENV_FILE", ".env")
		return
	}

	if _, err := os.Stat("../.env"); err == nil {
		_ = os.Setenv("ENV_FILE", "../.env")
	}
}
