package me

import (
	"errors"
	"net/http"
	"time"

	"github.com/gbp-politico/gabinete/internal/http/middleware"
	"github.com/gbp-politico/gabinete/internal/httputil"
	"github.com/gbp-politico/gabinete/pkg/domain"
	"github.com/gbp-politico/gabinete/pkg/repository"
)

// Handler handles the current-operator profile endpoint.
type Handler struct {
	identities    *repository.IdentitiesRepository
	organizations *repository.OrganizationsRepository
}

// NewHandler creates a new me handler.
func NewHandler(identities *repository.IdentitiesRepository, organizations *repository.OrganizationsRepository) *Handler {
	return &Handler{
		identities:    identities,
		organizations: organizations,
	}
}

// MeResponse represents the profile response. The organization block is
// absent for identities that have not selected a tenant yet.
type MeResponse struct {
	ID           string        `json:"id"`
	Email        string        `json:"email"`
	Name         string        `json:"name"`
	Role         string        `json:"role"`
	Permissions  []string      `json:"permissions,omitempty"`
	Organization *OrgSummary   `json:"organization,omitempty"`
	TrialWarning *TrialWarning `json:"trial_warning,omitempty"`
	LastAccessAt *time.Time    `json:"last_access_at,omitempty"`
}

// OrgSummary is the organization block of a profile response.
type OrgSummary struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	SubscriptionStatus string `json:"subscription_status"`
	AccessClass        string `json:"access_class"`
}

// TrialWarning tells the client how long an expiring trial has left.
type TrialWarning struct {
	DaysLeft int `json:"days_left"`
}

// GetMe returns the caller's profile from the database, never from token
// claims alone. Identity status and the organization's classification are
// checked on every call, so a session restored from an old token cannot
// outlive a block or a lapsed trial.
// GET /v1/me
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	identityID, ok := middleware.GetIdentityID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	identity, err := h.identities.GetByID(r.Context(), identityID)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			httputil.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	if !identity.IsActive() {
		httputil.ErrorCode(w, http.StatusForbidden, "identity_blocked",
			"this account has been blocked", "contact your administrator")
		return
	}

	resp := MeResponse{
		ID:           identity.ID.String(),
		Email:        identity.Email,
		Name:         identity.Name,
		Role:         string(identity.Role),
		Permissions:  identity.Permissions,
		LastAccessAt: identity.LastAccessAt,
	}

	if identity.OrganizationID != nil {
		org, err := h.organizations.GetByID(r.Context(), *identity.OrganizationID)
		if err != nil && !errors.Is(err, domain.ErrOrganizationNotFound) {
			httputil.Error(w, http.StatusInternalServerError, "failed to load organization")
			return
		}

		c := domain.Classify(org, time.Now())
		if c.Blocking() {
			code := "organization_unavailable"
			message := "this organization's subscription state could not be verified"
			switch c.Class {
			case domain.ClassCancelled:
				code, message = "subscription_cancelled", "this organization's subscription has been cancelled"
			case domain.ClassTrialExpired:
				code, message = "trial_expired", "this organization's trial period has ended"
			}
			httputil.ErrorCode(w, http.StatusForbidden, code, message, "return to login or contact support")
			return
		}

		resp.Organization = &OrgSummary{
			ID:                 org.ID.String(),
			Name:               org.Name,
			SubscriptionStatus: string(org.Subscription),
			AccessClass:        string(c.Class),
		}
		if c.Class == domain.ClassTrialExpiring {
			resp.TrialWarning = &TrialWarning{DaysLeft: c.DaysLeft}
		}
	}

	httputil.JSON(w, http.StatusOK, resp)
}
