package identities

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gbp-politico/gabinete/internal/http/middleware"
	"github.com/gbp-politico/gabinete/internal/httputil"
	"github.com/gbp-politico/gabinete/pkg/auth"
	"github.com/gbp-politico/gabinete/pkg/domain"
	"github.com/gbp-politico/gabinete/pkg/repository"
)

// Handler handles admin identity management. All routes require the admin
// role; the router enforces that before these handlers run.
type Handler struct {
	logger         *slog.Logger
	identities     *repository.IdentitiesRepository
	signInService  *auth.SignInService
	sessionService *auth.SessionService
}

// NewHandler creates a new identities handler.
func NewHandler(
	logger *slog.Logger,
	identities *repository.IdentitiesRepository,
	signInService *auth.SignInService,
	sessionService *auth.SessionService,
) *Handler {
	return &Handler{
		logger:         logger,
		identities:     identities,
		signInService:  signInService,
		sessionService: sessionService,
	}
}

// IdentityResponse represents an identity in admin listings.
type IdentityResponse struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Role         string     `json:"role"`
	Status       string     `json:"status"`
	LastAccessAt *time.Time `json:"last_access_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// CreateRequest represents an admin invite request.
type CreateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// List returns the identities of the caller's organization.
// GET /v1/identities
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID, ok := middleware.GetOrganizationID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusConflict, "select an organization to continue")
		return
	}

	list, err := h.identities.ListByOrganization(r.Context(), orgID)
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "failed to list identities")
		return
	}

	resp := make([]IdentityResponse, 0, len(list))
	for _, identity := range list {
		resp = append(resp, toIdentityResponse(identity))
	}

	httputil.JSON(w, http.StatusOK, map[string]any{"identities": resp})
}

// Create registers a new operator in the caller's organization.
// POST /v1/identities
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	orgID, ok := middleware.GetOrganizationID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusConflict, "select an organization to continue")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	identity, err := h.signInService.Register(r.Context(), req.Email, req.Password, req.Name, domain.Role(req.Role), &orgID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidEmail):
			httputil.Error(w, http.StatusBadRequest, "invalid email address")
		case errors.Is(err, domain.ErrWeakPassword):
			httputil.Error(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrIdentityAlreadyExists):
			httputil.Error(w, http.StatusConflict, "an account with this email already exists")
		default:
			httputil.Error(w, http.StatusInternalServerError, "failed to create identity")
		}
		return
	}

	h.logger.Info("identity created", "identity_id", identity.ID, "organization_id", orgID)
	httputil.JSON(w, http.StatusCreated, toIdentityResponse(identity))
}

// Block blocks an identity and revokes all of its sessions, so the block
// takes effect immediately, not at the next token expiry.
// POST /v1/identities/{id}/block
func (h *Handler) Block(w http.ResponseWriter, r *http.Request) {
	target, ok := h.targetIdentity(w, r)
	if !ok {
		return
	}

	callerID, _ := middleware.GetIdentityID(r.Context())
	if target.ID == callerID {
		httputil.Error(w, http.StatusBadRequest, "cannot block your own account")
		return
	}

	if err := h.identities.UpdateStatus(r.Context(), target.ID, domain.IdentityStatusBlocked); err != nil {
		httputil.Error(w, http.StatusInternalServerError, "failed to block identity")
		return
	}
	if err := h.sessionService.RevokeAllSessions(r.Context(), target.ID); err != nil {
		h.logger.Error("failed to revoke sessions of blocked identity", "error", err, "identity_id", target.ID)
	}

	h.logger.Info("identity blocked", "identity_id", target.ID, "by", callerID)
	w.WriteHeader(http.StatusNoContent)
}

// Unblock reactivates a blocked identity.
// POST /v1/identities/{id}/unblock
func (h *Handler) Unblock(w http.ResponseWriter, r *http.Request) {
	target, ok := h.targetIdentity(w, r)
	if !ok {
		return
	}

	if err := h.identities.UpdateStatus(r.Context(), target.ID, domain.IdentityStatusActive); err != nil {
		httputil.Error(w, http.StatusInternalServerError, "failed to unblock identity")
		return
	}

	callerID, _ := middleware.GetIdentityID(r.Context())
	h.logger.Info("identity unblocked", "identity_id", target.ID, "by", callerID)
	w.WriteHeader(http.StatusNoContent)
}

// targetIdentity resolves the path identity and confirms it belongs to the
// caller's organization. Identities of other tenants read as not found.
func (h *Handler) targetIdentity(w http.ResponseWriter, r *http.Request) (*domain.Identity, bool) {
	orgID, ok := middleware.GetOrganizationID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusConflict, "select an organization to continue")
		return nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid identity id")
		return nil, false
	}

	identity, err := h.identities.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			httputil.Error(w, http.StatusNotFound, "identity not found")
			return nil, false
		}
		httputil.Error(w, http.StatusInternalServerError, "failed to load identity")
		return nil, false
	}
	if identity.OrganizationID == nil || *identity.OrganizationID != orgID {
		httputil.Error(w, http.StatusNotFound, "identity not found")
		return nil, false
	}

	return identity, true
}

func toIdentityResponse(identity *domain.Identity) IdentityResponse {
	return IdentityResponse{
		ID:           identity.ID.String(),
		Email:        identity.Email,
		Name:         identity.Name,
		Role:         string(identity.Role),
		Status:       string(identity.Status),
		LastAccessAt: identity.LastAccessAt,
		CreatedAt:    identity.CreatedAt,
	}
}
