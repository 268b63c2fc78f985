// Package events publishes best-effort account events (e.g. to Kafka).
// Emission never affects the request that produced the event.
package events

import (
	"context"
	"time"
)

// Event types emitted by the auth flows.
const (
	TypeUserRegistered  = "user.registered"
	TypeUserLogin       = "user.login"
	TypePasswordChanged = "user.password_changed"
)

// Event is one account event record.
type Event struct {
	Type   string    `json:"type"`
	UserID int64     `json:"user_id"`
	IP     string    `json:"ip,omitempty"`
	At     time.Time `json:"at"`
}

// Producer emits account events. Callers use it best-effort: log and ignore errors.
type Producer interface {
	// Emit sends a single event. Implementations may block briefly; call via
	// EmitAsync from request handlers.
	Emit(ctx context.Context, event *Event) error
	// Close releases resources (e.g. Kafka writer). Safe to call if already closed.
	Close() error
}
