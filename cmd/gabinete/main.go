package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gbp-politico/gabinete/internal/config"
	httpserver "github.com/gbp-politico/gabinete/internal/http"
	"github.com/gbp-politico/gabinete/internal/http/middleware"
	"github.com/gbp-politico/gabinete/pkg/auth"
	"github.com/gbp-politico/gabinete/pkg/repository"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := repository.NewDB(repository.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("connected to database")

	// Initialize repositories
	identitiesRepo := repository.NewIdentitiesRepository(db)
	credentialsRepo := repository.NewCredentialsRepository(db)
	organizationsRepo := repository.NewOrganizationsRepository(db)
	sessionsRepo := repository.NewSessionsRepository(db)
	votersRepo := repository.NewVotersRepository(db)

	// Initialize services
	sessionService := auth.NewSessionService(auth.SessionConfig{
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		JWTSecret:       []byte(cfg.JWTSecret),
		Issuer:          cfg.JWTIssuer,
	}, sessionsRepo, identitiesRepo, organizationsRepo)

	signInService := auth.NewSignInService(
		db,
		identitiesRepo,
		credentialsRepo,
		organizationsRepo,
		sessionService,
		auth.DefaultPasswordPolicy(),
	)

	middleware.InitMetrics()

	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:            logger,
		SignInService:     signInService,
		SessionService:    sessionService,
		IdentitiesRepo:    identitiesRepo,
		OrganizationsRepo: organizationsRepo,
		VotersRepo:        votersRepo,
		LoginPath:         cfg.LoginPath,
		LandingPath:       cfg.LandingPath,
		CookieSecure:      cfg.CookieSecure,
		RateLimitConfig:   cfg.RateLimit,
		SecurityHeaders:   cfg.SecurityHeaders,
		MaxRequestBody:    cfg.MaxRequestBodySize,
	})

	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Expired sessions are purged in the background until shutdown.
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go cleanupSessions(cleanupCtx, logger, sessionsRepo)

	go func() {
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	cleanupCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

func cleanupSessions(ctx context.Context, logger *slog.Logger, sessions *repository.SessionsRepository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := sessions.DeleteExpired(ctx, 24*time.Hour)
			if err != nil {
				logger.Error("failed to delete expired sessions", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("deleted expired sessions", "count", deleted)
			}
		}
	}
}
