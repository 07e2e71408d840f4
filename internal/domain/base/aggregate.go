// Package base provides the shared aggregate-root scaffolding every
// IAM entity (organization, user, project, application, session, policy,
// IDP, web key, ...) builds on: identity, version/position bookkeeping, and
// the uncommitted-event buffer the command engine's UnitOfWork tracks.
package base

import (
	"fmt"

	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

// Aggregate is embedded by every concrete aggregate. It satisfies
// esdomain.Entity so command handlers can Track it with the UnitOfWork.
// Reducing historical events and recording new ones are the concrete
// aggregate's job (via Record/Reduce below); Aggregate only tracks the
// bookkeeping that's identical across every entity type.
type Aggregate struct {
	id            string
	aggregateType string
	instanceID    string
	version       int // aggregate_version at load time (0 = new aggregate)
	position      esdomain.Position
	uncommitted   []esdomain.EventEnvelope[any]
	exists        bool // true once at least one event has been reduced
	applier       func(esdomain.EventEnvelope[any]) error
}

// NewAggregate creates an empty aggregate shell ready to either reduce
// history onto, or have its first command decide new events.
func NewAggregate(aggregateType, instanceID, id string) Aggregate {
	return Aggregate{aggregateType: aggregateType, instanceID: instanceID, id: id}
}

// SetApplier wires the concrete aggregate's own event-folding method back
// into Record, so a command that decides a new event sees its effect on the
// in-memory struct immediately rather than only after a later Reduce. Every
// concrete constructor calls this once with its own apply/applyExecution
// method right after embedding NewAggregate.
func (a *Aggregate) SetApplier(f func(esdomain.EventEnvelope[any]) error) {
	a.applier = f
}

func (a *Aggregate) GetID() string         { return a.id }
func (a *Aggregate) AggregateType() string  { return a.aggregateType }
func (a *Aggregate) GetSequenceNo() int     { return a.version }
func (a *Aggregate) InstanceID() string     { return a.instanceID }
func (a *Aggregate) Position() esdomain.Position { return a.position }
func (a *Aggregate) Exists() bool           { return a.exists }

func (a *Aggregate) GetUncommittedEvents() []esdomain.EventEnvelope[any] {
	out := make([]esdomain.EventEnvelope[any], len(a.uncommitted))
	copy(out, a.uncommitted)
	return out
}

func (a *Aggregate) ClearUncommittedEvents() {
	a.uncommitted = a.uncommitted[:0]
}

// Observe updates the bookkeeping fields (version, position, exists) as one
// historical event is folded in. Concrete reducers call this once per event
// in their Reduce loop, alongside their own field-level apply logic.
func (a *Aggregate) Observe(env esdomain.EventEnvelope[any]) {
	a.exists = true
	a.version = env.AggregateVersion
	a.position = env.Position
}

// Record appends a brand-new, not-yet-persisted event to the aggregate's
// uncommitted buffer, advances its in-memory version so a second command
// decided in the same batch sees the bumped version, and immediately folds
// the event into the aggregate via the applier set by SetApplier. The
// payload passed in is always the concrete Go struct the apply switch
// expects, so the fold cannot fail; a failure here would mean the command
// and the reducer have drifted out of sync and is a programming error.
func (a *Aggregate) Record(eventType string, revision int, payload any, editorUser, resourceOwner string) {
	a.version++
	env := esdomain.EventEnvelope[any]{
		InstanceID:       a.instanceID,
		AggregateType:    a.aggregateType,
		AggregateID:      a.id,
		AggregateVersion: a.version,
		EventType:        eventType,
		Revision:         revision,
		Payload:          payload,
		EditorUser:       editorUser,
		ResourceOwner:    resourceOwner,
	}
	a.uncommitted = append(a.uncommitted, env)
	a.exists = true
	if a.applier != nil {
		if err := a.applier(env); err != nil {
			panic(fmt.Sprintf("aggregate %s/%s: applier rejected its own just-recorded %s event: %v", a.aggregateType, a.id, eventType, err))
		}
	}
}

// ExpectedVersionAtLoad returns the version the aggregate was loaded at, for use
// as UnsignedCommand.ExpectedVersion when a command pushes its own event
// directly rather than going through Record+UnitOfWork.
func (a *Aggregate) ExpectedVersionAtLoad() int {
	return a.version - len(a.uncommitted)
}

func (a *Aggregate) String() string {
	return fmt.Sprintf("%s/%s@v%d", a.aggregateType, a.id, a.version)
}
