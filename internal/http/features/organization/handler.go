package organization

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gbp-politico/gabinete/internal/http/middleware"
	"github.com/gbp-politico/gabinete/internal/httputil"
	"github.com/gbp-politico/gabinete/pkg/auth"
	"github.com/gbp-politico/gabinete/pkg/domain"
	"github.com/gbp-politico/gabinete/pkg/repository"
)

// Handler handles organization endpoints.
type Handler struct {
	organizations  *repository.OrganizationsRepository
	signInService  *auth.SignInService
	sessionService *auth.SessionService
	cookieConfig   httputil.CookieConfig
}

// NewHandler creates a new organization handler.
func NewHandler(
	organizations *repository.OrganizationsRepository,
	signInService *auth.SignInService,
	sessionService *auth.SessionService,
	cookieConfig httputil.CookieConfig,
) *Handler {
	return &Handler{
		organizations:  organizations,
		signInService:  signInService,
		sessionService: sessionService,
		cookieConfig:   cookieConfig,
	}
}

// OrganizationResponse represents an organization with its current access
// classification.
type OrganizationResponse struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Slug               string     `json:"slug"`
	SubscriptionStatus string     `json:"subscription_status"`
	TrialExpiresAt     *time.Time `json:"trial_expires_at,omitempty"`
	AccessClass        string     `json:"access_class"`
	TrialDaysLeft      int        `json:"trial_days_left,omitempty"`
}

// SelectRequest represents an organization selection request.
type SelectRequest struct {
	OrganizationID string `json:"organization_id"`
}

// SelectResponse carries the reissued tokens after selection. Tokens are
// present only for API clients.
type SelectResponse struct {
	Organization OrganizationResponse `json:"organization"`
	AccessToken  string               `json:"access_token,omitempty"`
	RefreshToken string               `json:"refresh_token,omitempty"`
	TokenType    string               `json:"token_type"`
	ExpiresIn    int                  `json:"expires_in"`
}

// Current returns the caller's organization with its live classification.
// GET /v1/organization
// Requires authentication and a selected organization.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	orgID, ok := middleware.GetOrganizationID(r.Context())
	if !ok {
		httputil.ErrorCode(w, http.StatusConflict, "organization_required",
			"select an organization to continue", "")
		return
	}

	org, err := h.organizations.GetByID(r.Context(), orgID)
	if err != nil {
		if errors.Is(err, domain.ErrOrganizationNotFound) {
			httputil.Error(w, http.StatusNotFound, "organization not found")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "failed to load organization")
		return
	}

	httputil.JSON(w, http.StatusOK, toOrganizationResponse(org, time.Now()))
}

// Select binds the caller to an organization and reissues tokens carrying
// the tenant claim. The organization is classified before anything is
// written; a lapsed tenant cannot be selected.
// POST /v1/organization/select
// Requires authentication.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	identityID, ok := middleware.GetIdentityID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	orgID, err := uuid.Parse(req.OrganizationID)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid organization_id")
		return
	}

	opts := auth.IssueSessionOpts{
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}

	result, err := h.signInService.SelectOrganization(r.Context(), identityID, orgID, opts)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrganizationNotSelectable):
			httputil.Error(w, http.StatusForbidden, "this organization is not available to your account")
		case errors.Is(err, domain.ErrOrganizationMissing):
			httputil.Error(w, http.StatusNotFound, "organization not found")
		case errors.Is(err, domain.ErrIdentityBlocked):
			httputil.Error(w, http.StatusForbidden, "this account has been blocked")
		case errors.Is(err, domain.ErrOrganizationBlocked):
			httputil.ErrorCode(w, http.StatusForbidden, "subscription_cancelled",
				"this organization's subscription has been cancelled", "contact support to reactivate")
		case errors.Is(err, domain.ErrTrialExpired):
			httputil.ErrorCode(w, http.StatusForbidden, "trial_expired",
				"this organization's trial period has ended", "contact support to reactivate")
		case errors.Is(err, domain.ErrUnknownClassification):
			httputil.ErrorCode(w, http.StatusForbidden, "organization_unavailable",
				"this organization's subscription state could not be verified", "contact support")
		default:
			httputil.Error(w, http.StatusInternalServerError, "failed to select organization")
		}
		return
	}

	resp := SelectResponse{
		Organization: toOrganizationResponse(result.Organization, time.Now()),
		TokenType:    result.Tokens.TokenType,
		ExpiresIn:    result.Tokens.ExpiresIn,
	}

	if httputil.IsAPIClient(r) {
		resp.AccessToken = result.Tokens.AccessToken
		resp.RefreshToken = result.Tokens.RefreshToken
		httputil.JSON(w, http.StatusOK, resp)
		return
	}

	httputil.SetAuthCookies(
		w,
		result.Tokens.AccessToken,
		result.Tokens.RefreshToken,
		h.sessionService.AccessTokenTTL(),
		h.sessionService.RefreshTokenTTL(),
		h.cookieConfig,
	)
	httputil.JSON(w, http.StatusOK, resp)
}

func toOrganizationResponse(org *domain.Organization, now time.Time) OrganizationResponse {
	c := domain.Classify(org, now)
	return OrganizationResponse{
		ID:                 org.ID.String(),
		Name:               org.Name,
		Slug:               org.Slug,
		SubscriptionStatus: string(org.Subscription),
		TrialExpiresAt:     org.TrialExpiresAt,
		AccessClass:        string(c.Class),
		TrialDaysLeft:      c.DaysLeft,
	}
}
