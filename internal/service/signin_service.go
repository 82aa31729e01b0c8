package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/courtweb-service/internal/auth"
	"github.com/spec-kit/courtweb-service/internal/config"
	"github.com/spec-kit/courtweb-service/internal/domain"
	"github.com/spec-kit/courtweb-service/internal/events"
	"github.com/spec-kit/courtweb-service/internal/observability"
	"github.com/spec-kit/courtweb-service/internal/permission"
	"github.com/spec-kit/courtweb-service/internal/repository"
	apperrors "github.com/spec-kit/courtweb-service/pkg/util/errorutil"
)

// PermissionFetcher retrieves the external permission set for a subject.
type PermissionFetcher interface {
	FetchPermissions(ctx context.Context, subjectID string) (*domain.PermissionResult, error)
}

// SignInService runs the claims pipeline: identity assertion in, sign-in
// outcome out, with session materialization into the durable store.
type SignInService struct {
	permissions PermissionFetcher
	store       repository.SessionStore
	tokenMgr    *auth.TokenManager
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	sessionTTL  time.Duration
}

// SignInDependencies encapsulates collaborator requirements.
type SignInDependencies struct {
	Permissions PermissionFetcher
	Store       repository.SessionStore
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewSignInService builds the service.
func NewSignInService(cfg config.Config, deps SignInDependencies) *SignInService {
	return &SignInService{
		permissions: deps.Permissions,
		store:       deps.Store,
		tokenMgr:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		sessionTTL:  cfg.Session.TTL(),
	}
}

// SignIn decides whether the asserted identity may enter. A policy denial
// is a valid outcome, not an error; infrastructure and configuration
// failures reject the attempt entirely (fail-closed).
func (s *SignInService) SignIn(ctx context.Context, assertion domain.IdentityAssertion) (domain.SignInOutcome, error) {
	if assertion.SubjectID == "" {
		s.metrics.RecordSignIn("failed")
		return domain.SignInOutcome{}, apperrors.NewConfigurationError("identity assertion missing subject id")
	}

	result, err := s.permissions.FetchPermissions(ctx, assertion.SubjectID)
	if err != nil {
		s.metrics.RecordSignIn("failed")
		var fetchErr *permission.FetchError
		if errors.As(err, &fetchErr) {
			return domain.SignInOutcome{}, apperrors.NewPermissionFetchError(fetchErr.Message, fetchErr.StatusCode, err)
		}
		return domain.SignInOutcome{}, apperrors.NewPermissionFetchError(err.Error(), 0, err)
	}

	capabilities := domain.CapabilitiesFrom(result)
	if !capabilities.HasAccess {
		reason := fmt.Sprintf("You do not have the required %q permission to access this system.", domain.PermissionAccess)
		s.metrics.RecordSignIn("denied")
		s.publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventSignInDenied,
			SessionID: assertion.SubjectID,
			Timestamp: time.Now(),
			Payload:   events.SignInDeniedPayload{ExternalID: assertion.SubjectID, Reason: reason},
		})
		return domain.SignInDenied(reason), nil
	}

	s.metrics.RecordSignIn("accepted")
	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventSignInAccepted,
		SessionID: assertion.SubjectID,
		Timestamp: time.Now(),
		Payload:   events.SignInAcceptedPayload{ExternalID: assertion.SubjectID, Capabilities: capabilities},
	})
	return domain.SignInAccepted(capabilities, result), nil
}

// MaterializeSession issues the short-lived token for the outcome and,
// for accepted sign-ins, re-upserts the durable record with a fresh TTL
// window. The upsert is the one deliberately fail-open write: losing the
// durable mirror must not lock out an authorized user.
func (s *SignInService) MaterializeSession(ctx context.Context, assertion domain.IdentityAssertion, outcome domain.SignInOutcome) (string, time.Time, error) {
	token, expiresAt, err := s.tokenMgr.GenerateToken(assertion.SubjectID, assertion.SubjectID, outcome)
	if err != nil {
		return "", time.Time{}, err
	}

	if outcome.Accepted {
		now := time.Now()
		record := &domain.SessionRecord{
			SessionID:    assertion.SubjectID,
			ExternalID:   assertion.SubjectID,
			Name:         assertion.Name,
			Email:        assertion.Email,
			AvatarURL:    assertion.AvatarURL,
			Capabilities: outcome.Capabilities,
			Permissions:  outcome.Permissions,
			CreatedAt:    now,
			UpdatedAt:    now,
			ExpiresAt:    now.Add(s.sessionTTL),
		}
		if err := s.store.Upsert(ctx, record); err != nil {
			s.logger.Error("failed to store session record",
				zap.String("session_id", record.SessionID),
				zap.Error(err))
		}
	}

	return token, expiresAt, nil
}

// RefreshSession re-issues a token from the caller's durable record and
// slides the record's TTL window forward. It fails closed when no live
// record exists.
func (s *SignInService) RefreshSession(ctx context.Context, sessionID string) (string, time.Time, error) {
	record, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return "", time.Time{}, apperrors.NewUnauthorized("session not found or expired")
		}
		s.logger.Error("session store unavailable during refresh", zap.Error(err))
		return "", time.Time{}, apperrors.NewUnauthorized("session verification failed")
	}

	assertion := domain.IdentityAssertion{
		SubjectID: record.SessionID,
		Name:      record.Name,
		Email:     record.Email,
		AvatarURL: record.AvatarURL,
	}
	outcome := domain.SignInAccepted(record.Capabilities, record.Permissions)
	return s.MaterializeSession(ctx, assertion, outcome)
}

// SignOut removes the durable record. Cleanup failures are swallowed so
// sign-out always appears to succeed to the caller.
func (s *SignInService) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		s.logger.Warn("signout cleanup failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil
	}
	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventSessionSignedOut,
		SessionID: sessionID,
		Timestamp: time.Now(),
	})
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *SignInService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *SignInService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
