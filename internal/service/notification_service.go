package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/courtweb-service/internal/config"
	"github.com/spec-kit/courtweb-service/internal/events"
)

// NotificationService handles emitting notifications for audit events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventSignInAccepted, n.handleSignInAccepted)
	n.dispatcher.Subscribe(events.EventSignInDenied, n.handleSignInDenied)
	n.dispatcher.Subscribe(events.EventSessionSignedOut, n.handleSessionSignedOut)
	n.dispatcher.Subscribe(events.EventSessionsSwept, n.handleSessionsSwept)
}

func (n *NotificationService) handleSignInAccepted(ctx context.Context, event events.Event) error {
	n.logger.Info("SignInAccepted", zap.String("session_id", event.SessionID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSignInDenied(ctx context.Context, event events.Event) error {
	n.logger.Info("SignInDenied", zap.String("session_id", event.SessionID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSessionSignedOut(ctx context.Context, event events.Event) error {
	n.logger.Info("SessionSignedOut", zap.String("session_id", event.SessionID))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSessionsSwept(ctx context.Context, event events.Event) error {
	n.logger.Info("SessionsSwept", zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("session_id", event.SessionID),
		zap.String("event_type", string(event.Type)))
}
