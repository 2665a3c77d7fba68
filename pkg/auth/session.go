package auth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gbp-politico/gabinete/pkg/domain"
	"github.com/gbp-politico/gabinete/pkg/repository"
)

const (
	refreshTokenLen = 32

	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// SessionConfig holds session configuration.
type SessionConfig struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	JWTSecret       []byte
	Issuer          string
}

// SessionService issues, refreshes, and revokes sessions. It is the only
// writer of session rows; handlers and middleware go through it.
type SessionService struct {
	config        SessionConfig
	sessions      *repository.SessionsRepository
	identities    *repository.IdentitiesRepository
	organizations *repository.OrganizationsRepository
}

// NewSessionService creates a new session service.
func NewSessionService(
	config SessionConfig,
	sessions *repository.SessionsRepository,
	identities *repository.IdentitiesRepository,
	organizations *repository.OrganizationsRepository,
) *SessionService {
	if config.AccessTokenTTL == 0 {
		config.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if config.RefreshTokenTTL == 0 {
		config.RefreshTokenTTL = DefaultRefreshTokenTTL
	}
	return &SessionService{
		config:        config,
		sessions:      sessions,
		identities:    identities,
		organizations: organizations,
	}
}

// AccessTokenTTL returns the access token TTL.
func (s *SessionService) AccessTokenTTL() time.Duration {
	return s.config.AccessTokenTTL
}

// RefreshTokenTTL returns the refresh token TTL.
func (s *SessionService) RefreshTokenTTL() time.Duration {
	return s.config.RefreshTokenTTL
}

// IssueSessionOpts holds options for session issuance.
type IssueSessionOpts struct {
	IP        string
	UserAgent string
}

// AccessTokenClaims represents the claims in an access token. The
// organization claim is empty for identities that have not yet selected
// a tenant; the gate steers those to the tenant picker.
type AccessTokenClaims struct {
	jwt.RegisteredClaims
	Email          string `json:"email,omitempty"`
	Name           string `json:"name,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
	Role           string `json:"role,omitempty"`
}

// IssueSession creates a new session for an identity and returns the
// access/refresh token pair. The session row is the final write of any
// sign-in flow: a failure before this point leaves no partial state.
func (s *SessionService) IssueSession(ctx context.Context, identity *domain.Identity, org *domain.Organization, opts IssueSessionOpts) (*domain.TokenPair, error) {
	now := time.Now()

	refreshToken, err := GenerateToken(refreshTokenLen)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		ID:         uuid.New(),
		IdentityID: identity.ID,
		TokenHash:  HashToken(refreshToken),
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.config.RefreshTokenTTL),
	}
	if org != nil {
		orgID := org.ID
		session.OrganizationID = &orgID
	}

	if opts.IP != "" || opts.UserAgent != "" {
		metadata, _ := json.Marshal(domain.SessionMetadata{
			IP:        opts.IP,
			UserAgent: opts.UserAgent,
		})
		session.Metadata = metadata
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	_ = s.identities.TouchLastAccess(ctx, identity.ID, now)

	return s.signTokenPair(identity, org, session.ID, refreshToken, now)
}

// RefreshSession exchanges a refresh token for a new access token. The
// identity's status and the organization's classification are re-checked,
// so a blocked operator or a lapsed tenant cannot keep a session alive.
func (s *SessionService) RefreshSession(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	session, err := s.sessions.GetByTokenHash(ctx, HashToken(refreshToken))
	if err != nil {
		return nil, err
	}

	if !session.IsValid() {
		if session.RevokedAt != nil {
			return nil, domain.ErrSessionRevoked
		}
		return nil, domain.ErrSessionExpired
	}

	identity, err := s.identities.GetByID(ctx, session.IdentityID)
	if err != nil {
		return nil, err
	}
	if !identity.IsActive() {
		_ = s.sessions.Revoke(ctx, session.ID)
		return nil, domain.ErrIdentityBlocked
	}

	var org *domain.Organization
	if session.OrganizationID != nil {
		org, err = s.organizations.GetByID(ctx, *session.OrganizationID)
		if err != nil {
			return nil, err
		}
		if err := ClassificationError(domain.Classify(org, time.Now())); err != nil {
			_ = s.sessions.Revoke(ctx, session.ID)
			return nil, err
		}
	}

	_ = s.sessions.UpdateLastSeen(ctx, session.ID)

	// The refresh token itself is not rotated; only the access token is reissued.
	pair, err := s.signTokenPair(identity, org, session.ID, refreshToken, time.Now())
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// RevokeSession revokes a session by refresh token. Safe to call with an
// unknown or already-revoked token.
func (s *SessionService) RevokeSession(ctx context.Context, refreshToken string) error {
	return s.sessions.RevokeByTokenHash(ctx, HashToken(refreshToken))
}

// RevokeAllSessions revokes every session of an identity.
func (s *SessionService) RevokeAllSessions(ctx context.Context, identityID uuid.UUID) error {
	return s.sessions.RevokeAllByIdentityID(ctx, identityID)
}

// ValidateAccessToken validates an access token and returns its claims.
func (s *SessionService) ValidateAccessToken(tokenString string) (*AccessTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return s.config.JWTSecret, nil
	})
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*AccessTokenClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}

func (s *SessionService) signTokenPair(identity *domain.Identity, org *domain.Organization, sessionID uuid.UUID, refreshToken string, now time.Time) (*domain.TokenPair, error) {
	accessTokenExpiry := now.Add(s.config.AccessTokenTTL)
	claims := AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessTokenExpiry),
			Issuer:    s.config.Issuer,
			ID:        sessionID.String(),
		},
		Email: identity.Email,
		Name:  identity.Name,
		Role:  string(identity.Role),
	}
	if org != nil {
		claims.OrganizationID = org.ID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := token.SignedString(s.config.JWTSecret)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.config.AccessTokenTTL.Seconds()),
		ExpiresAt:    accessTokenExpiry,
	}, nil
}

// ClassificationError maps a blocking classification to its typed error.
// Non-blocking classifications map to nil.
func ClassificationError(c domain.Classification) error {
	switch c.Class {
	case domain.ClassCancelled:
		return domain.ErrOrganizationBlocked
	case domain.ClassTrialExpired:
		return domain.ErrTrialExpired
	case domain.ClassUnknown:
		return domain.ErrUnknownClassification
	}
	return nil
}
