package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/mionax/starfusion-manager/internal/events"
)

// AuditService writes an audit trail entry for every published event.
type AuditService struct {
	logger *zap.Logger
}

// NewAuditService builds the service.
func NewAuditService(logger *zap.Logger) *AuditService {
	return &AuditService{logger: logger}
}

// RegisterHandlers subscribes the audit log to every event type.
func (s *AuditService) RegisterHandlers(dispatcher events.Dispatcher) {
	for _, eventType := range []events.EventType{
		events.EventUserLoggedIn,
		events.EventUserRegistered,
		events.EventCacheCleared,
	} {
		dispatcher.Subscribe(eventType, s.record)
	}
}

func (s *AuditService) record(_ context.Context, event events.Event) error {
	s.logger.Info("audit event",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("user_id", event.UserID),
		zap.Any("payload", event.Payload),
	)
	return nil
}
