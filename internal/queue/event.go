// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CatalogQueueName is the durable queue carrying CatalogEvent messages.
const CatalogQueueName = "catalog.changed"

// Entity kinds reported in CatalogEvent.Entity.
const (
	EntityTheme = "theme"
	EntityGroup = "group"
	EntityToken = "token"
	EntityUser  = "user"
)

// Actions reported in CatalogEvent.Action.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// CatalogEvent is published after a theme, group, token or user mutation has
// been committed. Consumers get enough context to audit the change without
// querying the primary database.
type CatalogEvent struct {
	ID         string   `json:"id"`
	Entity     string   `json:"entity"`
	Action     string   `json:"action"`
	EntityID   uint64   `json:"entity_id"`
	Name       string   `json:"name,omitempty"`
	Affected   []uint64 `json:"affected,omitempty"`
	OccurredAt string   `json:"occurred_at"`
}

// NewCatalogEvent stamps a fresh event id and the current time.
func NewCatalogEvent(entity, action string, entityID uint64, name string) CatalogEvent {
	return CatalogEvent{
		ID:         uuid.NewString(),
		Entity:     entity,
		Action:     action,
		EntityID:   entityID,
		Name:       name,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// AuditLine renders ev as one line of the audit log.
func (ev CatalogEvent) AuditLine() string {
	line := fmt.Sprintf("[%s] %s %s | id=%d", ev.OccurredAt, ev.Entity, ev.Action, ev.EntityID)
	if ev.Name != "" {
		line += fmt.Sprintf(" | name=%q", ev.Name)
	}
	if len(ev.Affected) > 1 {
		line += fmt.Sprintf(" | cascade=%d", len(ev.Affected)-1)
	}
	return line + " | event=" + ev.ID + "\n"
}
