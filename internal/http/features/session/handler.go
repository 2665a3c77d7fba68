package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gbp-politico/gabinete/internal/http/middleware"
	"github.com/gbp-politico/gabinete/internal/httputil"
	"github.com/gbp-politico/gabinete/pkg/auth"
	"github.com/gbp-politico/gabinete/pkg/domain"
)

// Handler handles sign-in and session lifecycle endpoints.
type Handler struct {
	signInService  *auth.SignInService
	sessionService *auth.SessionService
	cookieConfig   httputil.CookieConfig
}

// NewHandler creates a new session handler.
func NewHandler(signInService *auth.SignInService, sessionService *auth.SessionService, cookieConfig httputil.CookieConfig) *Handler {
	return &Handler{
		signInService:  signInService,
		sessionService: sessionService,
		cookieConfig:   cookieConfig,
	}
}

// LoginRequest represents a sign-in request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a successful sign-in. Tokens are present only
// for API clients; web clients receive them as HttpOnly cookies. The trial
// warning rides along when the organization's trial is inside the warning
// window, so the client can surface it right after login.
type LoginResponse struct {
	Identity       IdentityView  `json:"identity"`
	Organization   *OrgView      `json:"organization,omitempty"`
	TrialWarning   *TrialWarning `json:"trial_warning,omitempty"`
	AccessToken    string        `json:"access_token,omitempty"`
	RefreshToken   string        `json:"refresh_token,omitempty"`
	TokenType      string        `json:"token_type"`
	ExpiresIn      int           `json:"expires_in"`
	NeedsSelection bool          `json:"needs_organization_selection,omitempty"`
}

// IdentityView is the identity as exposed over HTTP.
type IdentityView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// OrgView is the organization summary returned with a session.
type OrgView struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	SubscriptionStatus string `json:"subscription_status"`
}

// TrialWarning tells the client how long an expiring trial has left.
type TrialWarning struct {
	DaysLeft int `json:"days_left"`
}

// RefreshRequest represents a token refresh request (for API clients).
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse represents a token response.
type TokenResponse struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// LogoutRequest represents a logout request (for API clients).
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Login authenticates an operator with email and password.
// POST /v1/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	opts := auth.IssueSessionOpts{
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}

	result, err := h.signInService.SignIn(r.Context(), req.Email, req.Password, opts)
	if err != nil {
		h.writeSignInError(w, err)
		return
	}

	h.writeLoginResponse(w, r, result)
}

// Refresh exchanges a refresh token for a new access token.
// POST /v1/auth/refresh
//
// Web clients carry the refresh token in a cookie; API clients send it in
// the request body.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var refreshToken string

	if httputil.IsAPIClient(r) {
		var req RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
		refreshToken = req.RefreshToken
	} else {
		var ok bool
		refreshToken, ok = httputil.GetRefreshTokenFromCookie(r)
		if !ok {
			httputil.Error(w, http.StatusUnauthorized, "refresh token not found")
			return
		}
	}

	if refreshToken == "" {
		httputil.Error(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	tokens, err := h.sessionService.RefreshSession(r.Context(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSessionNotFound),
			errors.Is(err, domain.ErrSessionExpired),
			errors.Is(err, domain.ErrSessionRevoked),
			errors.Is(err, domain.ErrIdentityBlocked):
			if !httputil.IsAPIClient(r) {
				httputil.ClearAuthCookies(w, h.cookieConfig)
			}
			httputil.Error(w, http.StatusUnauthorized, "invalid or expired refresh token")
		case errors.Is(err, domain.ErrOrganizationBlocked),
			errors.Is(err, domain.ErrTrialExpired),
			errors.Is(err, domain.ErrUnknownClassification):
			// The session was revoked because the tenant lapsed.
			if !httputil.IsAPIClient(r) {
				httputil.ClearAuthCookies(w, h.cookieConfig)
			}
			code, message := classificationResponse(err)
			httputil.ErrorCode(w, http.StatusForbidden, code, message, "return to login or contact support")
		default:
			httputil.Error(w, http.StatusInternalServerError, "failed to refresh token")
		}
		return
	}

	h.writeTokenResponse(w, r, tokens)
}

// Logout revokes the current session.
// POST /v1/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var refreshToken string

	if httputil.IsAPIClient(r) {
		var req LogoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
		refreshToken = req.RefreshToken
	} else {
		refreshToken, _ = httputil.GetRefreshTokenFromCookie(r)
	}

	if refreshToken != "" {
		// Unknown or already-revoked tokens are ignored to prevent enumeration.
		_ = h.sessionService.RevokeSession(r.Context(), refreshToken)
	}

	if !httputil.IsAPIClient(r) {
		httputil.ClearAuthCookies(w, h.cookieConfig)
	}

	w.WriteHeader(http.StatusNoContent)
}

// LogoutAll revokes every session of the current identity.
// POST /v1/auth/logout/all
// Requires authentication.
func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	identityID, ok := middleware.GetIdentityID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.sessionService.RevokeAllSessions(r.Context(), identityID); err != nil {
		httputil.Error(w, http.StatusInternalServerError, "failed to logout all sessions")
		return
	}

	if !httputil.IsAPIClient(r) {
		httputil.ClearAuthCookies(w, h.cookieConfig)
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeSignInError maps sign-in failures onto HTTP. Credential failures
// stay deliberately vague; tenant failures name the reason and a recovery
// action so the operator is not left at a dead end.
func (h *Handler) writeSignInError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidEmail):
		httputil.Error(w, http.StatusBadRequest, "invalid email address")
	case errors.Is(err, domain.ErrInvalidCredentials):
		httputil.Error(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, domain.ErrAccountLocked):
		httputil.ErrorCode(w, http.StatusUnauthorized, "account_locked",
			"too many failed attempts, try again later", "wait and retry or reset your password")
	case errors.Is(err, domain.ErrIdentityBlocked):
		httputil.ErrorCode(w, http.StatusForbidden, "identity_blocked",
			"this account has been blocked", "contact your administrator")
	case errors.Is(err, domain.ErrOrganizationMissing):
		httputil.ErrorCode(w, http.StatusForbidden, "organization_missing",
			"no organization is linked to this account", "contact support")
	case errors.Is(err, domain.ErrOrganizationBlocked),
		errors.Is(err, domain.ErrTrialExpired),
		errors.Is(err, domain.ErrUnknownClassification):
		code, message := classificationResponse(err)
		httputil.ErrorCode(w, http.StatusForbidden, code, message, "contact support to reactivate")
	default:
		httputil.Error(w, http.StatusInternalServerError, "sign in failed")
	}
}

func classificationResponse(err error) (code, message string) {
	switch {
	case errors.Is(err, domain.ErrOrganizationBlocked):
		return "subscription_cancelled", "this organization's subscription has been cancelled"
	case errors.Is(err, domain.ErrTrialExpired):
		return "trial_expired", "this organization's trial period has ended"
	default:
		return "organization_unavailable", "this organization's subscription state could not be verified"
	}
}

func (h *Handler) writeLoginResponse(w http.ResponseWriter, r *http.Request, result *auth.SignInResult) {
	resp := LoginResponse{
		Identity: IdentityView{
			ID:    result.Identity.ID.String(),
			Email: result.Identity.Email,
			Name:  result.Identity.Name,
			Role:  string(result.Identity.Role),
		},
		TokenType:      result.Tokens.TokenType,
		ExpiresIn:      result.Tokens.ExpiresIn,
		NeedsSelection: result.Organization == nil,
	}

	if result.Organization != nil {
		resp.Organization = &OrgView{
			ID:                 result.Organization.ID.String(),
			Name:               result.Organization.Name,
			SubscriptionStatus: string(result.Organization.Subscription),
		}
	}
	if result.Classification.Class == domain.ClassTrialExpiring {
		resp.TrialWarning = &TrialWarning{DaysLeft: result.Classification.DaysLeft}
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

func (h *Handler) writeTokenResponse(w http.ResponseWriter, r *http.Request, tokens *domain.TokenPair) {
	if httputil.IsAPIClient(r) {
		httputil.JSON(w, http.StatusOK, TokenResponse{
			AccessToken:  tokens.AccessToken,
			RefreshToken: tokens.RefreshToken,
			TokenType:    tokens.TokenType,
			ExpiresIn:    tokens.ExpiresIn,
		})
		return
	}

	httputil.SetAuthCookies(
		w,
		tokens.AccessToken,
		tokens.RefreshToken,
		h.sessionService.AccessTokenTTL(),
		h.sessionService.RefreshTokenTTL(),
		h.cookieConfig,
	)
	httputil.JSON(w, http.StatusOK, TokenResponse{
		TokenType: tokens.TokenType,
		ExpiresIn: tokens.ExpiresIn,
	})
}
