package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/gbp-politico/gabinete/internal/httputil"
	"github.com/gbp-politico/gabinete/pkg/auth"
	"github.com/gbp-politico/gabinete/pkg/domain"
)

type contextKey string

const (
	// IdentityIDKey is the context key for the authenticated identity ID.
	IdentityIDKey contextKey = "identity_id"
	// OrganizationIDKey is the context key for the selected organization ID.
	OrganizationIDKey contextKey = "organization_id"
	// RoleKey is the context key for the identity's role.
	RoleKey contextKey = "role"
	// ClaimsKey is the context key for the token claims.
	ClaimsKey contextKey = "claims"
)

// Auth creates middleware that validates JWT access tokens. It checks the
// Authorization header first, then falls back to the cookie for web
// clients. Tokens without an organization claim still pass; the gate
// middleware decides what such a session may reach.
func Auth(sessions *auth.SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				if token, ok := httputil.GetAccessTokenFromCookie(r); ok {
					tokenString = token
				}
			}

			if tokenString == "" {
				httputil.Error(w, http.StatusUnauthorized, "missing authorization")
				return
			}

			claims, err := sessions.ValidateAccessToken(tokenString)
			if err != nil {
				httputil.Error(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			identityID, err := uuid.Parse(claims.Subject)
			if err != nil {
				httputil.Error(w, http.StatusUnauthorized, "invalid token subject")
				return
			}

			ctx := context.WithValue(r.Context(), IdentityIDKey, identityID)
			ctx = context.WithValue(ctx, RoleKey, domain.Role(claims.Role))
			ctx = context.WithValue(ctx, ClaimsKey, claims)

			if claims.OrganizationID != "" {
				orgID, err := uuid.Parse(claims.OrganizationID)
				if err != nil {
					httputil.Error(w, http.StatusUnauthorized, "invalid organization in token")
					return
				}
				ctx = context.WithValue(ctx, OrganizationIDKey, orgID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth populates the context from a valid access token when one is
// present but lets the request through either way. The gate downstream
// decides what an anonymous request may reach.
func OptionalAuth(sessions *auth.SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				if token, ok := httputil.GetAccessTokenFromCookie(r); ok {
					tokenString = token
				}
			}
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := sessions.ValidateAccessToken(tokenString)
			if err != nil {
				// Expired or tampered tokens count as anonymous.
				next.ServeHTTP(w, r)
				return
			}
			identityID, err := uuid.Parse(claims.Subject)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityIDKey, identityID)
			ctx = context.WithValue(ctx, RoleKey, domain.Role(claims.Role))
			ctx = context.WithValue(ctx, ClaimsKey, claims)
			if orgID, err := uuid.Parse(claims.OrganizationID); err == nil {
				ctx = context.WithValue(ctx, OrganizationIDKey, orgID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// GetIdentityID extracts the identity ID from the request context.
func GetIdentityID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(IdentityIDKey).(uuid.UUID)
	return id, ok
}

// GetOrganizationID extracts the organization ID from the request context.
func GetOrganizationID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(OrganizationIDKey).(uuid.UUID)
	return id, ok
}

// GetRole extracts the role from the request context.
func GetRole(ctx context.Context) (domain.Role, bool) {
	role, ok := ctx.Value(RoleKey).(domain.Role)
	return role, ok
}

// GetClaims extracts the token claims from the request context.
func GetClaims(ctx context.Context) (*auth.AccessTokenClaims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*auth.AccessTokenClaims)
	return claims, ok
}
