package services

import (
	"context"
	"fmt"

	"github.com/foodvlog/backend/internal/events"
	"github.com/foodvlog/backend/internal/metrics"
	"github.com/foodvlog/backend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// transitionRecord describes a committed status change.
type transitionRecord struct {
	Actor      *Actor
	EntityType string
	EntityID   uuid.UUID
	From       string // empty on creation
	To         string
	EventType  string
	Payload    map[string]any
}

// recorder performs the best-effort writes that follow a committed
// transition. Failures are logged and counted, never returned.
type recorder struct {
	audit     AuditLogger
	publisher events.Publisher
	log       *zap.Logger
}

func (r recorder) record(ctx context.Context, tr transitionRecord) {
	action := fmt.Sprintf("%s_created", tr.EntityType)
	if tr.From != "" {
		action = fmt.Sprintf("%s_%s_to_%s", tr.EntityType, tr.From, tr.To)
	}

	entry := models.AuditLog{
		ActorType:  models.ActorTypeSystem,
		Action:     action,
		EntityType: tr.EntityType,
		EntityID:   &tr.EntityID,
		Meta:       map[string]any{"old_status": tr.From, "new_status": tr.To},
	}
	if tr.Actor != nil {
		entry.ActorID = &tr.Actor.ID
		entry.ActorType = tr.Actor.Role
	}
	if err := r.audit.Log(ctx, entry); err != nil {
		metrics.DerivedWriteFailures.WithLabelValues(metrics.DerivedAudit).Inc()
		r.log.Warn("audit log write failed",
			zap.String("action", action),
			zap.String("entity_id", tr.EntityID.String()),
			zap.Error(err),
		)
	}

	payload := map[string]any{
		tr.EntityType + "_id": tr.EntityID.String(),
		"old_status":          tr.From,
		"new_status":          tr.To,
	}
	for k, v := range tr.Payload {
		payload[k] = v
	}
	if err := r.publisher.Publish(ctx, events.StreamWorkflow, events.Event{Type: tr.EventType, Payload: payload}); err != nil {
		metrics.DerivedWriteFailures.WithLabelValues(metrics.DerivedEvent).Inc()
		r.log.Warn("event publish failed", zap.String("type", tr.EventType), zap.Error(err))
	}
}
