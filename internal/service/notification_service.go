package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/lead-crm-service/internal/config"
	"github.com/spec-kit/lead-crm-service/internal/events"
)

// NotificationService emits notifications for domain events. Delivery is
// best-effort: failures are logged and never surfaced to callers.
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
	n.dispatcher.Subscribe(events.EventLeadCreated, n.handleLeadCreated)
	n.dispatcher.Subscribe(events.EventLeadAssigned, n.handleLeadAssigned)
	n.dispatcher.Subscribe(events.EventLeadStatusChanged, n.handleLeadStatusChanged)
}

func (n *NotificationService) handleLeadCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("LeadCreated", zap.String("lead_id", event.LeadID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleLeadAssigned(ctx context.Context, event events.Event) error {
	n.logger.Info("LeadAssigned", zap.String("lead_id", event.LeadID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleLeadStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("LeadStatusChanged", zap.String("lead_id", event.LeadID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("lead_id", event.LeadID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("lead_id", event.LeadID),
		zap.String("event_type", string(event.Type)))
}
