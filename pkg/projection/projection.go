// Package projection implements the projection engine (§4.4): one worker per
// registered projection, each independently polling the event store from its
// own durable cursor, applying events to a read model through an idempotent
// Handler, and never advancing its cursor until the handler has succeeded.
package projection

import (
	"context"

	"github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

// Cursor is the durable, per-projection read position: "this projection has
// applied every event up to and including Position for this instance."
type Cursor struct {
	Name       string
	InstanceID string
	Position   domain.Position
}

// CursorStore persists projection cursors. Implementations must make Advance
// safe to call concurrently with Load for the same (name, instanceID) only if
// the supervisor guarantees a single worker per projection per instance — the
// engine does guarantee this, so CursorStore implementations need not add
// their own locking beyond what their backing store already provides.
type CursorStore interface {
	// Load returns the last acknowledged position for (name, instanceID), or
	// the zero Position if the projection has never run for that instance.
	Load(ctx context.Context, name, instanceID string) (domain.Position, error)

	// Advance persists the new position once a batch has been fully and
	// successfully applied.
	Advance(ctx context.Context, name, instanceID string, position domain.Position) error
}

// Handler applies one batch of events to a projection's read model. It must
// be idempotent: the engine guarantees at-least-once delivery, so the same
// event can arrive twice (e.g. after a crash mid-batch, before the cursor was
// advanced). A Handler should typically upsert/delete by aggregate_id rather
// than blindly insert.
type Handler interface {
	// Name identifies the projection; it is also the CursorStore key.
	Name() string

	// EventTypes lists the event types this projection cares about. The
	// supervisor subscribes only to these types (plus the wildcard "*.*" if
	// the list is empty, meaning "every event").
	EventTypes() []string

	// Apply processes one batch of events in order. If it returns an error,
	// the batch is retried from the same cursor — the cursor is only advanced
	// after a nil return.
	Apply(ctx context.Context, events []domain.EventEnvelope[any]) error
}
