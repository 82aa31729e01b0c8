package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/courtweb-service/internal/domain"
	"github.com/spec-kit/courtweb-service/internal/observability"
	"github.com/spec-kit/courtweb-service/internal/repository"
	apperrors "github.com/spec-kit/courtweb-service/pkg/util/errorutil"
)

// SessionVerifier re-derives trust at request time from the durable
// record. Client-supplied capability flags are never consulted here:
// every privileged operation must pass through one of these checks.
type SessionVerifier struct {
	store   repository.SessionStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewSessionVerifier builds the verifier.
func NewSessionVerifier(store repository.SessionStore, metrics *observability.Metrics, logger *zap.Logger) *SessionVerifier {
	return &SessionVerifier{store: store, metrics: metrics, logger: logger}
}

// VerifySession returns the live durable record for the session id.
// Absent, expired, and unreachable-store cases all fail closed.
func (v *SessionVerifier) VerifySession(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	if sessionID == "" {
		v.metrics.RecordVerification("invalid")
		return nil, apperrors.NewUnauthorized("no session id")
	}

	record, err := v.store.Get(ctx, sessionID)
	if err != nil {
		v.metrics.RecordVerification("invalid")
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, apperrors.NewUnauthorized("session not found or expired")
		}
		// Store outage: refusing is the only safe answer.
		v.logger.Error("session store unavailable during verification",
			zap.String("session_id", sessionID), zap.Error(err))
		return nil, apperrors.NewUnauthorized("session verification failed")
	}

	v.metrics.RecordVerification("verified")
	return record, nil
}

// VerifyPermission composes VerifySession with a capability check on the
// durable record.
func (v *SessionVerifier) VerifyPermission(ctx context.Context, sessionID string, capability domain.Capability) (*domain.SessionRecord, error) {
	record, err := v.VerifySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !record.Capabilities.Allows(capability) {
		v.metrics.RecordVerification("denied")
		return nil, apperrors.NewAccessDenied(fmt.Sprintf("missing required permission: %s", capability.PermissionID()))
	}
	return record, nil
}

// VerifyRouteAccess maps the route to its required capability and
// delegates to VerifyPermission.
func (v *SessionVerifier) VerifyRouteAccess(ctx context.Context, sessionID, route string) (*domain.SessionRecord, error) {
	return v.VerifyPermission(ctx, sessionID, domain.RequiredCapability(route))
}
