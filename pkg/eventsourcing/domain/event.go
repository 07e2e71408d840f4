package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/ksuid"
)

// Event is an optional interface that events can implement for convenience.
// It provides a way to extract the aggregate ID from an event.
type Event interface {
	GetAggregateID() string
}

// Position is the authoritative, totally-ordered cursor of one instance's event
// log. Base is allocated once per push (e.g. from a Postgres sequence) and shared
// by every event appended in that push; Order disambiguates events within the
// same push, starting at 0. Events compare first on Base, then on Order.
type Position struct {
	Base  int64 `json:"base"`
	Order int   `json:"order"`
}

// Less reports whether p sorts strictly before o.
func (p Position) Less(o Position) bool {
	if p.Base != o.Base {
		return p.Base < o.Base
	}
	return p.Order < o.Order
}

// Compare returns -1, 0 or 1 as p is less than, equal to, or greater than o.
func (p Position) Compare(o Position) int {
	switch {
	case p.Less(o):
		return -1
	case o.Less(p):
		return 1
	default:
		return 0
	}
}

func (p Position) String() string {
	return fmt.Sprintf("%d.%d", p.Base, p.Order)
}

// IsZero reports whether p is the zero cursor (nothing has ever been read).
func (p Position) IsZero() bool { return p.Base == 0 && p.Order == 0 }

// EventEnvelope is a generic struct that wraps event payloads with the full
// metadata of one row of the append-only log: tenant, aggregate identity,
// optimistic-concurrency version, and the global ordering position. The type
// parameter T represents the strongly-typed event payload.
type EventEnvelope[T any] struct {
	ID               string                 `json:"id"`
	InstanceID       string                 `json:"instance_id"`
	AggregateType    string                 `json:"aggregate_type"`
	AggregateID      string                 `json:"aggregate_id"`
	AggregateVersion int                    `json:"aggregate_version"`
	EventType        string                 `json:"event_type"`
	Revision         int                    `json:"revision"`
	Payload          T                      `json:"payload"`
	EditorUser       string                 `json:"editor_user"`
	ResourceOwner    string                 `json:"resource_owner"`
	Position         Position               `json:"position"`
	Created          time.Time              `json:"creation_date"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// SequenceNo reports the aggregate version of this event, matching the
// `sequence` column convention used by projection read models.
func (e EventEnvelope[T]) SequenceNo() int { return e.AggregateVersion }

// UnsignedCommand is what a caller hands the event store: an intent to append one
// event for one aggregate, with an optional expected version for optimistic
// concurrency. See EventStore.Push.
type UnsignedCommand[T any] struct {
	InstanceID    string
	AggregateType string
	AggregateID   string
	EventType     string
	Revision      int
	Payload       T
	EditorUser    string
	ResourceOwner string

	// ExpectedVersion, if non-nil, must equal the aggregate's current max
	// version at commit time or the push aborts with ErrConcurrencyConflict.
	ExpectedVersion *int
}

// NewEventEnvelope creates a new EventEnvelope with the given payload and metadata.
// If the payload implements the Event interface, the AggregateID is extracted from
// it; otherwise the provided aggregateID parameter is used. Position and
// AggregateVersion are left at their zero values — the event store assigns both
// atomically during Push.
func NewEventEnvelope[T any](payload T, aggregateID, eventType string) EventEnvelope[T] {
	if event, ok := any(payload).(Event); ok {
		aggregateID = event.GetAggregateID()
	}

	return EventEnvelope[T]{
		ID:          ksuid.New().String(),
		AggregateID: aggregateID,
		EventType:   eventType,
		Payload:     payload,
		Created:     time.Now(),
		Metadata:    make(map[string]interface{}),
	}
}

// MarshalJSON implements json.Marshaler for EventEnvelope.
func (e *EventEnvelope[T]) MarshalJSON() ([]byte, error) {
	type Alias EventEnvelope[T]
	return json.Marshal(&struct {
		*Alias
	}{
		Alias: (*Alias)(e),
	})
}

// UnmarshalJSON implements json.Unmarshaler for EventEnvelope.
func (e *EventEnvelope[T]) UnmarshalJSON(data []byte) error {
	type Alias EventEnvelope[T]
	aux := &struct {
		*Alias
	}{
		Alias: (*Alias)(e),
	}
	return json.Unmarshal(data, aux)
}

// ToAnyEnvelope widens EventEnvelope[T] to EventEnvelope[any], so events of
// different payload types can travel through the same store/dispatcher plumbing.
func ToAnyEnvelope[T any](envelope EventEnvelope[T]) EventEnvelope[any] {
	return EventEnvelope[any]{
		ID:               envelope.ID,
		InstanceID:       envelope.InstanceID,
		AggregateType:    envelope.AggregateType,
		AggregateID:      envelope.AggregateID,
		AggregateVersion: envelope.AggregateVersion,
		EventType:        envelope.EventType,
		Revision:         envelope.Revision,
		Payload:          envelope.Payload,
		EditorUser:       envelope.EditorUser,
		ResourceOwner:    envelope.ResourceOwner,
		Position:         envelope.Position,
		Created:          envelope.Created,
		Metadata:         envelope.Metadata,
	}
}
