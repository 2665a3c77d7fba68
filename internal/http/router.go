package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gbp-politico/gabinete/internal/config"
	"github.com/gbp-politico/gabinete/internal/http/features/identities"
	"github.com/gbp-politico/gabinete/internal/http/features/me"
	"github.com/gbp-politico/gabinete/internal/http/features/organization"
	"github.com/gbp-politico/gabinete/internal/http/features/session"
	"github.com/gbp-politico/gabinete/internal/http/features/voters"
	"github.com/gbp-politico/gabinete/internal/http/middleware"
	"github.com/gbp-politico/gabinete/internal/httputil"
	"github.com/gbp-politico/gabinete/pkg/auth"
	"github.com/gbp-politico/gabinete/pkg/domain"
	"github.com/gbp-politico/gabinete/pkg/repository"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger            *slog.Logger
	SignInService     *auth.SignInService
	SessionService    *auth.SessionService
	IdentitiesRepo    *repository.IdentitiesRepository
	OrganizationsRepo *repository.OrganizationsRepository
	VotersRepo        *repository.VotersRepository
	LoginPath         string
	LandingPath       string
	CookieSecure      bool
	RateLimitConfig   config.RateLimitConfig
	SecurityHeaders   config.SecurityHeadersConfig
	MaxRequestBody    int64
}

// NewRouter creates a new HTTP router with all routes registered. Every
// protected group runs the same gate middleware; no route carries its own
// copy of the subscription checks.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(cfg.MaxRequestBody))

	// Health check and metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", middleware.MetricsHandler())

	rateLimiters := middleware.CreateRateLimiters(cfg.RateLimitConfig, cfg.Logger)

	cookieConfig := httputil.DefaultCookieConfig()
	cookieConfig.Secure = cfg.CookieSecure

	// Public-only auth routes. The gate with RequireAuth unset steers
	// already-authenticated callers back to the landing page.
	publicGate := middleware.Gate(middleware.GateConfig{
		RequireAuth:   false,
		LoginPath:     cfg.LoginPath,
		LandingPath:   cfg.LandingPath,
		Organizations: cfg.OrganizationsRepo,
		Logger:        cfg.Logger,
	})

	sessionHandler := session.NewHandler(cfg.SignInService, cfg.SessionService, cookieConfig)
	r.Group(func(r chi.Router) {
		r.Use(rateLimiters["auth"])
		r.Use(middleware.OptionalAuth(cfg.SessionService))
		r.Use(publicGate)
		r.Post("/v1/auth/login", sessionHandler.Login)
	})
	r.Group(func(r chi.Router) {
		r.Use(rateLimiters["refresh"])
		r.Post("/v1/auth/refresh", sessionHandler.Refresh)
	})
	r.Post("/v1/auth/logout", sessionHandler.Logout)
	r.With(middleware.Auth(cfg.SessionService)).Post("/v1/auth/logout/all", sessionHandler.LogoutAll)

	// Authenticated routes behind the access gate. The gate re-fetches
	// and re-classifies the organization on every request.
	protectedGate := middleware.Gate(middleware.GateConfig{
		RequireAuth:   true,
		LoginPath:     cfg.LoginPath,
		LandingPath:   cfg.LandingPath,
		Organizations: cfg.OrganizationsRepo,
		Logger:        cfg.Logger,
	})

	orgHandler := organization.NewHandler(cfg.OrganizationsRepo, cfg.SignInService, cfg.SessionService, cookieConfig)
	meHandler := me.NewHandler(cfg.IdentitiesRepo, cfg.OrganizationsRepo)
	votersHandler := voters.NewHandler(cfg.VotersRepo)
	identitiesHandler := identities.NewHandler(cfg.Logger, cfg.IdentitiesRepo, cfg.SignInService, cfg.SessionService)

	// Organization selection sits outside the gate: a session without a
	// tenant claim must be able to reach it, and the selection service
	// classifies the chosen organization itself.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.SessionService))
		r.Use(rateLimiters["api"])
		r.Post("/v1/organization/select", orgHandler.Select)
	})

	r.Group(func(r chi.Router) {
		r.Use(rateLimiters["api"])
		r.Use(middleware.OptionalAuth(cfg.SessionService))
		r.Use(protectedGate)

		r.Get("/v1/me", meHandler.GetMe)
		r.Get("/v1/organization", orgHandler.Current)

		r.Get("/v1/voters", votersHandler.List)
		r.Post("/v1/voters", votersHandler.Create)
		r.Get("/v1/voters/{id}", votersHandler.Get)
		r.Put("/v1/voters/{id}", votersHandler.Update)
		r.Delete("/v1/voters/{id}", votersHandler.Delete)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleAdmin))
			r.Get("/v1/identities", identitiesHandler.List)
			r.Post("/v1/identities", identitiesHandler.Create)
			r.Post("/v1/identities/{id}/block", identitiesHandler.Block)
			r.Post("/v1/identities/{id}/unblock", identitiesHandler.Unblock)
		})
	})

	return r
}
