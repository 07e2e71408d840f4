package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

// UnitOfWork manages one command's transaction across the one or more
// aggregates it touches. It batches every tracked entity's uncommitted events
// into a single atomic EventStore.Push so a command that mutates two
// aggregates (e.g. "remove member" touching both Org and User) either lands
// both sides or neither.
type UnitOfWork interface {
	// Track registers entities to be included in the next Commit. Each
	// entity's ExpectedVersionAtLoad() is captured as its expected version for
	// optimistic concurrency. Tracking the same aggregate ID twice is an error.
	Track(entities ...domain.Entity) error

	// Commit pushes every tracked entity's uncommitted events as one atomic
	// batch, then best-effort dispatches them for in-process projections.
	Commit(ctx context.Context) error

	// Rollback clears tracking without touching entities' uncommitted events,
	// so the same entities can be retried in a new UnitOfWork.
	Rollback() error
}

// SimpleUnitOfWork is the default UnitOfWork, backed directly by an
// domain.EventStore and an optional domain.EventDispatcher for synchronous,
// best-effort in-process fan-out (the authoritative path for read models is
// always the projection engine's durable cursor, never this dispatch).
type SimpleUnitOfWork struct {
	instanceID string
	eventStore domain.EventStore
	dispatcher *domain.EventDispatcher

	mu               sync.Mutex
	entities         map[string]domain.Entity
	expectedVersions map[string]int
}

// NewSimpleUnitOfWork creates a UnitOfWork scoped to one tenant. dispatcher
// may be nil if no in-process fan-out is needed.
func NewSimpleUnitOfWork(instanceID string, eventStore domain.EventStore, dispatcher *domain.EventDispatcher) *SimpleUnitOfWork {
	return &SimpleUnitOfWork{
		instanceID:       instanceID,
		eventStore:       eventStore,
		dispatcher:       dispatcher,
		entities:         make(map[string]domain.Entity),
		expectedVersions: make(map[string]int),
	}
}

// Track implements UnitOfWork.
func (uow *SimpleUnitOfWork) Track(entities ...domain.Entity) error {
	if len(entities) == 0 {
		return nil
	}

	uow.mu.Lock()
	defer uow.mu.Unlock()

	seen := make(map[string]bool, len(entities))
	for _, entity := range entities {
		if entity == nil {
			return fmt.Errorf("entity cannot be nil")
		}
		id := entity.GetID()
		if id == "" {
			return fmt.Errorf("entity must have a non-empty aggregate ID")
		}
		if _, exists := uow.entities[id]; exists {
			return fmt.Errorf("entity with aggregate ID %q is already tracked", id)
		}
		if seen[id] {
			return fmt.Errorf("duplicate entity with aggregate ID %q in batch", id)
		}
		seen[id] = true
	}

	for _, entity := range entities {
		id := entity.GetID()
		uow.entities[id] = entity
		uow.expectedVersions[id] = entity.ExpectedVersionAtLoad()
	}

	return nil
}

// Commit implements UnitOfWork.
func (uow *SimpleUnitOfWork) Commit(ctx context.Context) error {
	uow.mu.Lock()

	commands := make([]domain.UnsignedCommand[any], 0)
	for id, entity := range uow.entities {
		uncommitted := entity.GetUncommittedEvents()
		if len(uncommitted) == 0 {
			continue
		}
		base := uow.expectedVersions[id]
		for i, event := range uncommitted {
			expected := base + i
			commands = append(commands, domain.UnsignedCommand[any]{
				InstanceID:      uow.instanceID,
				AggregateType:   event.AggregateType,
				AggregateID:     id,
				EventType:       event.EventType,
				Revision:        event.Revision,
				Payload:         event.Payload,
				EditorUser:      event.EditorUser,
				ResourceOwner:   event.ResourceOwner,
				ExpectedVersion: &expected,
			})
		}
	}

	entities := make([]domain.Entity, 0, len(uow.entities))
	for _, entity := range uow.entities {
		entities = append(entities, entity)
	}
	dispatcher := uow.dispatcher
	uow.mu.Unlock()

	if len(commands) == 0 {
		uow.clear()
		return nil
	}

	persisted, err := uow.eventStore.Push(ctx, uow.instanceID, commands...)
	if err != nil {
		uow.Rollback()
		return fmt.Errorf("failed to persist events: %w", err)
	}

	for _, entity := range entities {
		entity.ClearUncommittedEvents()
	}
	uow.clear()

	if dispatcher != nil {
		for _, event := range persisted {
			// Dispatch is synchronous best-effort fan-out for in-process
			// read models; events are already durably persisted, so a
			// dispatch error never fails the command.
			_ = dispatcher.Dispatch(ctx, event)
		}
	}

	return nil
}

// Rollback implements UnitOfWork.
func (uow *SimpleUnitOfWork) Rollback() error {
	uow.clear()
	return nil
}

func (uow *SimpleUnitOfWork) clear() {
	uow.mu.Lock()
	defer uow.mu.Unlock()
	uow.entities = make(map[string]domain.Entity)
	uow.expectedVersions = make(map[string]int)
}
