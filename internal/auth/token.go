package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/courtweb-service/internal/domain"
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute}
}

// Claims is the short-lived token payload. The capability flags are a
// client-held snapshot used only for cheap route gating; privileged
// operations re-verify against the durable session record.
type Claims struct {
	SessionID      string                   `json:"sid"`
	ExternalID     string                   `json:"ext,omitempty"`
	HasAccess      bool                     `json:"has_access"`
	HasStaffAccess bool                     `json:"has_staff_access"`
	Permissions    *domain.PermissionResult `json:"permissions,omitempty"`
	AccessDenied   bool                     `json:"access_denied,omitempty"`
	DenialReason   string                   `json:"denial_reason,omitempty"`
	jwt.RegisteredClaims
}

// Capabilities returns the snapshot flags carried by the token.
func (c *Claims) Capabilities() domain.Capabilities {
	return domain.Capabilities{HasAccess: c.HasAccess, HasStaffAccess: c.HasStaffAccess}
}

// GenerateToken builds and signs a JWT carrying the sign-in outcome for
// the given session.
func (tm *TokenManager) GenerateToken(sessionID, externalID string, outcome domain.SignInOutcome) (string, time.Time, error) {
	expiresAt := time.Now().Add(tm.ttl)
	claims := &Claims{
		SessionID:      sessionID,
		ExternalID:     externalID,
		HasAccess:      outcome.Capabilities.HasAccess,
		HasStaffAccess: outcome.Capabilities.HasStaffAccess,
		Permissions:    outcome.Permissions,
		AccessDenied:   !outcome.Accepted,
		DenialReason:   outcome.DenialReason,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
