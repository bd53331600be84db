// Package audit defines the append-only action trail.
// The trail is a write-only side channel: core logic records entries
// best-effort and never reads them back or fails because of them.
package audit

import (
	"context"
	"time"

	"pharmapos/internal/core/id"
)

// Action classifies an audited operation.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionReturn  Action = "return"
	ActionResolve Action = "resolve"
)

// Entry is one appended audit record.
type Entry struct {
	ID         id.ID          `db:"id" json:"id"`
	Action     Action         `db:"action" json:"action"`
	EntityType string         `db:"entity_type" json:"entityType"`
	EntityID   id.ID          `db:"entity_id" json:"entityId"`
	Message    string         `db:"message" json:"message"`
	Details    map[string]any `db:"-" json:"details,omitempty"`
	ActorRole  string         `db:"actor_role" json:"actorRole"`
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
}

// Recorder appends entries to the trail.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Nop is a Recorder that discards entries, used in tests.
type Nop struct{}

func (Nop) Record(ctx context.Context, entry Entry) error { return nil }
