package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gbp-politico/gabinete/internal/httputil"
	"github.com/gbp-politico/gabinete/pkg/auth"
	"github.com/gbp-politico/gabinete/pkg/domain"
	"github.com/gbp-politico/gabinete/pkg/repository"
)

// TrialWarningHeader carries the days remaining on an expiring trial.
const TrialWarningHeader = "X-Trial-Days-Left"

// GateConfig configures one concrete guard over the shared decision table.
// Protected route groups set RequireAuth; public-only routes (login) leave
// it false so authenticated callers are steered back to the landing page.
type GateConfig struct {
	RequireAuth   bool
	LoginPath     string
	LandingPath   string
	Organizations *repository.OrganizationsRepository
	Logger        *slog.Logger
}

// Gate resolves the access decision table for every request. It runs after
// OptionalAuth, re-fetches the organization row, and re-classifies it each
// time: subscription checks are enforced here, at the data-access boundary,
// not only in the browser. Decisions map onto HTTP as follows:
//
//	redirect-login       401, login path and the requested path echoed
//	redirect-away        303 to the landing page
//	select-organization  409, organization picker required
//	block                403, classification-specific reason and recovery
//	allow-with-warning   200 path, days-left header set
func Gate(cfg GateConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, authenticated := GetIdentityID(r.Context())
			orgID, hasOrg := GetOrganizationID(r.Context())

			classification := domain.Classification{}
			if authenticated && hasOrg && cfg.RequireAuth {
				org, err := cfg.Organizations.GetByID(r.Context(), orgID)
				if err != nil && !errors.Is(err, domain.ErrOrganizationNotFound) {
					httputil.Error(w, http.StatusInternalServerError, "failed to verify organization")
					return
				}
				// A missing row classifies as unknown and blocks below.
				classification = domain.Classify(org, time.Now())
			}

			decision := auth.Decide(auth.GateInput{
				Authenticated:   authenticated,
				HasOrganization: hasOrg,
				Classification:  classification,
				RequireAuth:     cfg.RequireAuth,
				Path:            r.URL.Path,
			})

			switch decision.Verdict {
			case auth.VerdictRedirectLogin:
				httputil.JSON(w, http.StatusUnauthorized, map[string]string{
					"code":     "authentication_required",
					"error":    "authentication required",
					"redirect": cfg.LoginPath,
					"from":     decision.From,
				})

			case auth.VerdictRedirectAway:
				http.Redirect(w, r, cfg.LandingPath, http.StatusSeeOther)

			case auth.VerdictSelectOrganization:
				httputil.JSON(w, http.StatusConflict, map[string]string{
					"code":     "organization_required",
					"error":    "select an organization to continue",
					"redirect": "/app/select-organization",
				})

			case auth.VerdictBlock:
				code, message := blockResponse(decision.Reason)
				CountGateBlock(string(decision.Reason))
				if cfg.Logger != nil {
					cfg.Logger.Warn("access blocked",
						"reason", string(decision.Reason),
						"path", r.URL.Path,
					)
				}
				httputil.ErrorCode(w, http.StatusForbidden, code, message, "return to login or contact support")

			case auth.VerdictAllowWithWarning:
				w.Header().Set(TrialWarningHeader, strconv.Itoa(decision.DaysLeft))
				next.ServeHTTP(w, r)

			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// blockResponse names each blocking classification so the client can show
// why access was denied, never a dead end.
func blockResponse(reason domain.AccessClass) (code, message string) {
	switch reason {
	case domain.ClassCancelled:
		return "subscription_cancelled", "this organization's subscription has been cancelled"
	case domain.ClassTrialExpired:
		return "trial_expired", "this organization's trial period has ended"
	default:
		return "organization_unavailable", "this organization's subscription state could not be verified"
	}
}

// RequireRole guards a route group behind a minimum access level.
func RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := GetRole(r.Context())
			if !ok || got != role {
				httputil.Error(w, http.StatusForbidden, "insufficient access level")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
