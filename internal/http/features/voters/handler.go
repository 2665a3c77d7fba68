package voters

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gbp-politico/gabinete/internal/http/middleware"
	"github.com/gbp-politico/gabinete/internal/httputil"
	"github.com/gbp-politico/gabinete/pkg/domain"
	"github.com/gbp-politico/gabinete/pkg/repository"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

// Handler handles voter registry endpoints. Every operation is scoped to
// the caller's organization taken from the request context; a voter ID from
// another tenant behaves exactly like a missing one.
type Handler struct {
	voters *repository.VotersRepository
}

// NewHandler creates a new voters handler.
func NewHandler(voters *repository.VotersRepository) *Handler {
	return &Handler{voters: voters}
}

// VoterRequest represents a create or update request.
type VoterRequest struct {
	Name         string  `json:"name"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Document     *string `json:"document,omitempty"`
	City         string  `json:"city"`
	Neighborhood string  `json:"neighborhood"`
	Notes        *string `json:"notes,omitempty"`
}

// VoterResponse represents a voter over HTTP.
type VoterResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        *string   `json:"email,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	Document     *string   `json:"document,omitempty"`
	City         string    `json:"city"`
	Neighborhood string    `json:"neighborhood"`
	Notes        *string   `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ListResponse is one page of voters.
type ListResponse struct {
	Voters []VoterResponse `json:"voters"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// List returns one page of the organization's voters, newest first.
// GET /v1/voters
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID, ok := middleware.GetOrganizationID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusConflict, "select an organization to continue")
		return
	}

	limit := queryInt(r, "limit", defaultPageSize)
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	voters, err := h.voters.List(r.Context(), orgID, limit, offset)
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "failed to list voters")
		return
	}
	total, err := h.voters.CountByOrganization(r.Context(), orgID)
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "failed to list voters")
		return
	}

	resp := ListResponse{
		Voters: make([]VoterResponse, 0, len(voters)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for _, v := range voters {
		resp.Voters = append(resp.Voters, toVoterResponse(v))
	}

	httputil.JSON(w, http.StatusOK, resp)
}

// Get returns one voter.
// GET /v1/voters/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, ok := middleware.GetOrganizationID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusConflict, "select an organization to continue")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid voter id")
		return
	}

	voter, err := h.voters.GetByID(r.Context(), orgID, id)
	if err != nil {
		if errors.Is(err, domain.ErrVoterNotFound) {
			httputil.Error(w, http.StatusNotFound, "voter not found")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "failed to load voter")
		return
	}

	httputil.JSON(w, http.StatusOK, toVoterResponse(voter))
}

// Create registers a new voter in the caller's organization.
// POST /v1/voters
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	orgID, ok := middleware.GetOrganizationID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusConflict, "select an organization to continue")
		return
	}

	var req VoterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		httputil.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	now := time.Now()
	voter := &domain.Voter{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Document:       req.Document,
		City:           strings.TrimSpace(req.City),
		Neighborhood:   strings.TrimSpace(req.Neighborhood),
		Notes:          req.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.voters.Create(r.Context(), voter); err != nil {
		httputil.Error(w, http.StatusInternalServerError, "failed to create voter")
		return
	}

	httputil.JSON(w, http.StatusCreated, toVoterResponse(voter))
}

// Update replaces a voter's fields.
// PUT /v1/voters/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	orgID, ok := middleware.GetOrganizationID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusConflict, "select an organization to continue")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid voter id")
		return
	}

	var req VoterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		httputil.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	voter := &domain.Voter{
		ID:             id,
		OrganizationID: orgID,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Document:       req.Document,
		City:           strings.TrimSpace(req.City),
		Neighborhood:   strings.TrimSpace(req.Neighborhood),
		Notes:          req.Notes,
	}

	if err := h.voters.Update(r.Context(), voter); err != nil {
		if errors.Is(err, domain.ErrVoterNotFound) {
			httputil.Error(w, http.StatusNotFound, "voter not found")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "failed to update voter")
		return
	}

	updated, err := h.voters.GetByID(r.Context(), orgID, id)
	if err != nil {
		httputil.Error(w, http.StatusInternalServerError, "failed to load voter")
		return
	}

	httputil.JSON(w, http.StatusOK, toVoterResponse(updated))
}

// Delete removes a voter from the registry.
// DELETE /v1/voters/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID, ok := middleware.GetOrganizationID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusConflict, "select an organization to continue")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid voter id")
		return
	}

	if err := h.voters.SoftDelete(r.Context(), orgID, id); err != nil {
		if errors.Is(err, domain.ErrVoterNotFound) {
			httputil.Error(w, http.StatusNotFound, "voter not found")
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "failed to delete voter")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toVoterResponse(v *domain.Voter) VoterResponse {
	return VoterResponse{
		ID:           v.ID.String(),
		Name:         v.Name,
		Email:        v.Email,
		Phone:        v.Phone,
		Document:     v.Document,
		City:         v.City,
		Neighborhood: v.Neighborhood,
		Notes:        v.Notes,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
