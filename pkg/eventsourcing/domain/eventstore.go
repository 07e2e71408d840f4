package domain

import (
	"context"
	"errors"
)

var (
	// ErrEventNotFound is returned when an event is not found in the store.
	ErrEventNotFound = errors.New("event not found")

	// ErrConcurrencyConflict is returned when a Push's expected version doesn't
	// match an aggregate's current version.
	ErrConcurrencyConflict = errors.New("concurrency conflict: expected version mismatch")

	// ErrInvalidEvent is returned when an event or command is invalid or malformed.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrEmptyPush is returned when Push is called with zero commands.
	ErrEmptyPush = errors.New("push requires at least one command")
)

// Filter narrows a Query to a subset of the log. Zero-valued fields are
// unconstrained. AggregateIDs, when set, restricts to those aggregates (OR'd);
// EventTypes similarly restricts to those types. FromPosition is exclusive — the
// typical subscribe/catch-up idiom is "events strictly after my cursor".
type Filter struct {
	InstanceID    string
	AggregateType string
	AggregateIDs  []string
	EventTypes    []string
	FromPosition  *Position
	Limit         int
}

// EventStore defines the interface for persisting and retrieving events. An
// implementation must guarantee that, within one InstanceID:
//   - positions are strictly increasing and never reused, even across restarts;
//   - a single Push is atomic: either every command's event is durably appended
//     and visible, or none are;
//   - aggregate_version is gap-free per (instance_id, aggregate_type,
//     aggregate_id), starting at 1.
type EventStore interface {
	// Push appends the given commands as one atomic, ordered batch of events and
	// returns the resulting envelopes in the same order, each stamped with its
	// assigned Position and AggregateVersion. If any command's ExpectedVersion
	// does not match the aggregate's current max version at commit time, the
	// whole batch is rejected with ErrConcurrencyConflict and nothing is
	// persisted.
	Push(ctx context.Context, instanceID string, commands ...UnsignedCommand[any]) ([]EventEnvelope[any], error)

	// Query returns events matching filter in ascending Position order.
	Query(ctx context.Context, filter Filter) ([]EventEnvelope[any], error)

	// LatestPosition returns the highest Position appended so far for instanceID,
	// or the zero Position if the instance has no events yet.
	LatestPosition(ctx context.Context, instanceID string) (Position, error)

	// Subscribe streams events for instanceID with Position strictly greater than
	// from, both events already in the log and events appended after the call.
	// The channel is closed when ctx is canceled or the store is closed.
	Subscribe(ctx context.Context, instanceID string, from Position) (<-chan EventEnvelope[any], error)

	// GetEventByID retrieves a specific event by its ID. Returns ErrEventNotFound
	// if the event doesn't exist.
	GetEventByID(ctx context.Context, instanceID, eventID string) (EventEnvelope[any], error)

	// GetCurrentVersion returns the current max aggregate_version for
	// (instanceID, aggregateType, aggregateID), or 0 if the aggregate has no
	// events yet.
	GetCurrentVersion(ctx context.Context, instanceID, aggregateType, aggregateID string) (int, error)

	// Close closes the event store and releases any resources, including
	// unblocking any Subscribe channels.
	Close() error
}
