package services

import "github.com/google/uuid"

// Actor is the already-authenticated caller of a workflow operation.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// CapabilityChecker answers role -> permission questions.
type CapabilityChecker interface {
	HasPermission(role, permission string) bool
}

// capabilities is the single authorization gate used by every operation.
type capabilities struct {
	checker CapabilityChecker
}

func (c capabilities) require(actor Actor, permission string) error {
	if actor.ID == uuid.Nil || actor.Role == "" {
		return unauthorized("authentication required")
	}
	if !c.checker.HasPermission(actor.Role, permission) {
		return forbidden("not allowed to " + permission)
	}
	return nil
}

func (c capabilities) has(actor Actor, permission string) bool {
	return c.checker.HasPermission(actor.Role, permission)
}
