package models

import (
	"time"

	"github.com/google/uuid"
)

// ActorTypeSystem marks transitions no actor triggered. Actor-driven
// entries use the actor's role as their type.
const ActorTypeSystem = "system"

type AuditLog struct {
	ID         uuid.UUID      `json:"id"`
	ActorID    *uuid.UUID     `json:"actor_id,omitempty"`
	ActorType  string         `json:"actor_type"`
	Action     string         `json:"action"` // e.g. promotion_active_to_cancelled
	EntityType string         `json:"entity_type"`
	EntityID   *uuid.UUID     `json:"entity_id,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
