package infrastructure

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

type aggregateKey struct {
	aggregateType string
	aggregateID   string
}

// MemoryStore is an in-memory EventStore, useful for unit tests and the
// single-process demo path. It is not suitable for production: nothing
// survives a restart, and LatestPosition resets to zero every time.
type MemoryStore struct {
	mu sync.RWMutex

	// events is ordered by Position within each instance, mirroring an
	// append-only log table.
	events map[string][]domain.EventEnvelope[any] // instanceID -> events

	eventsByID map[string]domain.EventEnvelope[any] // instanceID+"/"+eventID -> event
	versions   map[string]map[aggregateKey]int      // instanceID -> aggregate -> current version
	nextBase   map[string]int64                     // instanceID -> next Position.Base to allocate

	subscribers map[string][]chan domain.EventEnvelope[any] // instanceID -> live subscriber channels
}

// NewMemoryStore creates a new in-memory event store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:      make(map[string][]domain.EventEnvelope[any]),
		eventsByID:  make(map[string]domain.EventEnvelope[any]),
		versions:    make(map[string]map[aggregateKey]int),
		nextBase:    make(map[string]int64),
		subscribers: make(map[string][]chan domain.EventEnvelope[any]),
	}
}

func eventIDKey(instanceID, eventID string) string { return instanceID + "/" + eventID }

// Push implements domain.EventStore.
func (m *MemoryStore) Push(ctx context.Context, instanceID string, commands ...domain.UnsignedCommand[any]) ([]domain.EventEnvelope[any], error) {
	if len(commands) == 0 {
		return nil, domain.ErrEmptyPush
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.versions[instanceID] == nil {
		m.versions[instanceID] = make(map[aggregateKey]int)
	}

	// Validate optimistic concurrency for every touched aggregate before
	// mutating anything, so a conflict on command N never leaves commands
	// 0..N-1 partially applied.
	pendingBump := make(map[aggregateKey]int)
	for _, cmd := range commands {
		if cmd.AggregateType == "" || cmd.AggregateID == "" {
			return nil, fmt.Errorf("%w: aggregate_type and aggregate_id are required", domain.ErrInvalidEvent)
		}
		key := aggregateKey{aggregateType: cmd.AggregateType, aggregateID: cmd.AggregateID}
		current := m.versions[instanceID][key] + pendingBump[key]
		if cmd.ExpectedVersion != nil && *cmd.ExpectedVersion != current {
			return nil, fmt.Errorf("%w: aggregate %s/%s expected version %d, got %d",
				domain.ErrConcurrencyConflict, cmd.AggregateType, cmd.AggregateID, *cmd.ExpectedVersion, current)
		}
		pendingBump[key]++
	}

	base := m.nextBase[instanceID] + 1
	m.nextBase[instanceID] = base

	envelopes := make([]domain.EventEnvelope[any], 0, len(commands))
	for i, cmd := range commands {
		key := aggregateKey{aggregateType: cmd.AggregateType, aggregateID: cmd.AggregateID}
		m.versions[instanceID][key]++

		env := domain.EventEnvelope[any]{
			ID:               newEventID(),
			InstanceID:       instanceID,
			AggregateType:    cmd.AggregateType,
			AggregateID:      cmd.AggregateID,
			AggregateVersion: m.versions[instanceID][key],
			EventType:        cmd.EventType,
			Revision:         cmd.Revision,
			Payload:          cmd.Payload,
			EditorUser:       cmd.EditorUser,
			ResourceOwner:    cmd.ResourceOwner,
			Position:         domain.Position{Base: base, Order: i},
			Created:          now(),
		}

		m.events[instanceID] = append(m.events[instanceID], env)
		m.eventsByID[eventIDKey(instanceID, env.ID)] = env
		envelopes = append(envelopes, env)
	}

	m.notifySubscribers(instanceID, envelopes)

	return envelopes, nil
}

// Query implements domain.EventStore.
func (m *MemoryStore) Query(ctx context.Context, filter domain.Filter) ([]domain.EventEnvelope[any], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	aggIDs := make(map[string]bool, len(filter.AggregateIDs))
	for _, id := range filter.AggregateIDs {
		aggIDs[id] = true
	}
	types := make(map[string]bool, len(filter.EventTypes))
	for _, t := range filter.EventTypes {
		types[t] = true
	}

	result := make([]domain.EventEnvelope[any], 0)
	for _, event := range m.events[filter.InstanceID] {
		if filter.FromPosition != nil && !filter.FromPosition.Less(event.Position) {
			continue
		}
		if filter.AggregateType != "" && event.AggregateType != filter.AggregateType {
			continue
		}
		if len(aggIDs) > 0 && !aggIDs[event.AggregateID] {
			continue
		}
		if len(types) > 0 && !types[event.EventType] {
			continue
		}
		result = append(result, event)
		if filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}

	return result, nil
}

// LatestPosition implements domain.EventStore.
func (m *MemoryStore) LatestPosition(ctx context.Context, instanceID string) (domain.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := m.events[instanceID]
	if len(events) == 0 {
		return domain.Position{}, nil
	}
	return events[len(events)-1].Position, nil
}

// Subscribe implements domain.EventStore. The returned channel receives every
// already-stored event strictly after `from`, followed by every event pushed
// afterward, until ctx is canceled or Close is called.
func (m *MemoryStore) Subscribe(ctx context.Context, instanceID string, from domain.Position) (<-chan domain.EventEnvelope[any], error) {
	m.mu.Lock()

	ch := make(chan domain.EventEnvelope[any], 64)
	backlog := make([]domain.EventEnvelope[any], 0)
	for _, event := range m.events[instanceID] {
		if from.Less(event.Position) {
			backlog = append(backlog, event)
		}
	}

	m.subscribers[instanceID] = append(m.subscribers[instanceID], ch)
	m.mu.Unlock()

	go func() {
		for _, event := range backlog {
			select {
			case ch <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		m.removeSubscriberLocked(instanceID, ch)
	}()

	return ch, nil
}

func (m *MemoryStore) notifySubscribers(instanceID string, events []domain.EventEnvelope[any]) {
	for _, ch := range m.subscribers[instanceID] {
		for _, event := range events {
			select {
			case ch <- event:
			default:
				// Slow subscriber: drop rather than block the push path. The
				// projection supervisor re-polls from its cursor, so a dropped
				// notification only delays delivery, it never loses it.
			}
		}
	}
}

func (m *MemoryStore) removeSubscriberLocked(instanceID string, target chan domain.EventEnvelope[any]) {
	subs := m.subscribers[instanceID]
	for i, ch := range subs {
		if ch == target {
			m.subscribers[instanceID] = append(subs[:i], subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// GetEventByID implements domain.EventStore.
func (m *MemoryStore) GetEventByID(ctx context.Context, instanceID, eventID string) (domain.EventEnvelope[any], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	event, exists := m.eventsByID[eventIDKey(instanceID, eventID)]
	if !exists {
		return domain.EventEnvelope[any]{}, domain.ErrEventNotFound
	}
	return event, nil
}

// GetCurrentVersion implements domain.EventStore.
func (m *MemoryStore) GetCurrentVersion(ctx context.Context, instanceID, aggregateType, aggregateID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.versions[instanceID][aggregateKey{aggregateType: aggregateType, aggregateID: aggregateID}], nil
}

// Close implements domain.EventStore.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, subs := range m.subscribers {
		for _, ch := range subs {
			close(ch)
		}
	}

	m.events = make(map[string][]domain.EventEnvelope[any])
	m.eventsByID = make(map[string]domain.EventEnvelope[any])
	m.versions = make(map[string]map[aggregateKey]int)
	m.nextBase = make(map[string]int64)
	m.subscribers = make(map[string][]chan domain.EventEnvelope[any])

	return nil
}

// GetAllInstanceIDs returns every instance the store has ever seen events for
// (test/debug helper).
func (m *MemoryStore) GetAllInstanceIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.events))
	for id := range m.events {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
