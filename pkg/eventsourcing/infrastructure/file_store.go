package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

// FileStore is a file-based EventStore: one JSON file per instance, holding
// its whole ordered log. Durable across restarts, single-node only — there is
// no locking between processes, so it is meant for local development and the
// single-binary demo path, not for a deployment with more than one writer.
type FileStore struct {
	baseDir string
	mu      sync.RWMutex

	cache       map[string][]domain.EventEnvelope[any]    // instanceID -> ordered log
	versions    map[string]map[aggregateKey]int           // instanceID -> aggregate -> version
	nextBase    map[string]int64                          // instanceID -> next Position.Base
	subscribers map[string][]chan domain.EventEnvelope[any]
}

// NewFileStore creates a file-based event store rooted at baseDir, loading any
// existing instance logs already on disk.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		return nil, errors.New("base directory cannot be empty")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	store := &FileStore{
		baseDir:     baseDir,
		cache:       make(map[string][]domain.EventEnvelope[any]),
		versions:    make(map[string]map[aggregateKey]int),
		nextBase:    make(map[string]int64),
		subscribers: make(map[string][]chan domain.EventEnvelope[any]),
	}

	if err := store.loadAllFromDisk(); err != nil {
		return nil, fmt.Errorf("failed to load existing events: %w", err)
	}

	return store, nil
}

func (f *FileStore) filePath(instanceID string) string {
	safeID := filepath.Base(instanceID)
	return filepath.Join(f.baseDir, safeID+".json")
}

func (f *FileStore) loadAllFromDisk() error {
	entries, err := os.ReadDir(f.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		instanceID := entry.Name()[:len(entry.Name())-len(".json")]
		events, err := f.loadFromFile(f.filePath(instanceID))
		if err != nil {
			return fmt.Errorf("failed to load events from %s: %w", entry.Name(), err)
		}
		f.cache[instanceID] = events
		f.reindexLocked(instanceID, events)
	}

	return nil
}

func (f *FileStore) reindexLocked(instanceID string, events []domain.EventEnvelope[any]) {
	versions := make(map[aggregateKey]int)
	var base int64
	for _, event := range events {
		key := aggregateKey{aggregateType: event.AggregateType, aggregateID: event.AggregateID}
		if event.AggregateVersion > versions[key] {
			versions[key] = event.AggregateVersion
		}
		if event.Position.Base > base {
			base = event.Position.Base
		}
	}
	f.versions[instanceID] = versions
	f.nextBase[instanceID] = base
}

func (f *FileStore) loadFromFile(filePath string) ([]domain.EventEnvelope[any], error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.EventEnvelope[any]{}, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return []domain.EventEnvelope[any]{}, nil
	}

	var events []domain.EventEnvelope[any]
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("failed to unmarshal events: %w", err)
	}
	return events, nil
}

func (f *FileStore) saveToFile(instanceID string, events []domain.EventEnvelope[any]) error {
	filePath := f.filePath(instanceID)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal events: %w", err)
	}

	tmpPath := filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// Push implements domain.EventStore.
func (f *FileStore) Push(ctx context.Context, instanceID string, commands ...domain.UnsignedCommand[any]) ([]domain.EventEnvelope[any], error) {
	if len(commands) == 0 {
		return nil, domain.ErrEmptyPush
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.versions[instanceID] == nil {
		f.versions[instanceID] = make(map[aggregateKey]int)
	}

	pendingBump := make(map[aggregateKey]int)
	for _, cmd := range commands {
		if cmd.AggregateType == "" || cmd.AggregateID == "" {
			return nil, fmt.Errorf("%w: aggregate_type and aggregate_id are required", domain.ErrInvalidEvent)
		}
		key := aggregateKey{aggregateType: cmd.AggregateType, aggregateID: cmd.AggregateID}
		current := f.versions[instanceID][key] + pendingBump[key]
		if cmd.ExpectedVersion != nil && *cmd.ExpectedVersion != current {
			return nil, fmt.Errorf("%w: aggregate %s/%s expected version %d, got %d",
				domain.ErrConcurrencyConflict, cmd.AggregateType, cmd.AggregateID, *cmd.ExpectedVersion, current)
		}
		pendingBump[key]++
	}

	base := f.nextBase[instanceID] + 1
	f.nextBase[instanceID] = base

	envelopes := make([]domain.EventEnvelope[any], 0, len(commands))
	for i, cmd := range commands {
		key := aggregateKey{aggregateType: cmd.AggregateType, aggregateID: cmd.AggregateID}
		f.versions[instanceID][key]++

		envelopes = append(envelopes, domain.EventEnvelope[any]{
			ID:               newEventID(),
			InstanceID:       instanceID,
			AggregateType:    cmd.AggregateType,
			AggregateID:      cmd.AggregateID,
			AggregateVersion: f.versions[instanceID][key],
			EventType:        cmd.EventType,
			Revision:         cmd.Revision,
			Payload:          cmd.Payload,
			EditorUser:       cmd.EditorUser,
			ResourceOwner:    cmd.ResourceOwner,
			Position:         domain.Position{Base: base, Order: i},
			Created:          now(),
		})
	}

	updated := append(f.cache[instanceID], envelopes...)
	if err := f.saveToFile(instanceID, updated); err != nil {
		return nil, err
	}
	f.cache[instanceID] = updated

	for _, ch := range f.subscribers[instanceID] {
		for _, event := range envelopes {
			select {
			case ch <- event:
			default:
			}
		}
	}

	return envelopes, nil
}

// Query implements domain.EventStore.
func (f *FileStore) Query(ctx context.Context, filter domain.Filter) ([]domain.EventEnvelope[any], error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	aggIDs := make(map[string]bool, len(filter.AggregateIDs))
	for _, id := range filter.AggregateIDs {
		aggIDs[id] = true
	}
	types := make(map[string]bool, len(filter.EventTypes))
	for _, t := range filter.EventTypes {
		types[t] = true
	}

	result := make([]domain.EventEnvelope[any], 0)
	for _, event := range f.cache[filter.InstanceID] {
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
func (f *FileStore) LatestPosition(ctx context.Context, instanceID string) (domain.Position, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	events := f.cache[instanceID]
	if len(events) == 0 {
		return domain.Position{}, nil
	}
	return events[len(events)-1].Position, nil
}

// Subscribe implements domain.EventStore.
func (f *FileStore) Subscribe(ctx context.Context, instanceID string, from domain.Position) (<-chan domain.EventEnvelope[any], error) {
	f.mu.Lock()
	ch := make(chan domain.EventEnvelope[any], 64)
	backlog := make([]domain.EventEnvelope[any], 0)
	for _, event := range f.cache[instanceID] {
		if from.Less(event.Position) {
			backlog = append(backlog, event)
		}
	}
	f.subscribers[instanceID] = append(f.subscribers[instanceID], ch)
	f.mu.Unlock()

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
		f.mu.Lock()
		defer f.mu.Unlock()
		subs := f.subscribers[instanceID]
		for i, c := range subs {
			if c == ch {
				f.subscribers[instanceID] = append(subs[:i], subs[i+1:]...)
				close(c)
				return
			}
		}
	}()

	return ch, nil
}

// GetEventByID implements domain.EventStore.
func (f *FileStore) GetEventByID(ctx context.Context, instanceID, eventID string) (domain.EventEnvelope[any], error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, event := range f.cache[instanceID] {
		if event.ID == eventID {
			return event, nil
		}
	}
	return domain.EventEnvelope[any]{}, domain.ErrEventNotFound
}

// GetCurrentVersion implements domain.EventStore.
func (f *FileStore) GetCurrentVersion(ctx context.Context, instanceID, aggregateType, aggregateID string) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.versions[instanceID][aggregateKey{aggregateType: aggregateType, aggregateID: aggregateID}], nil
}

// Close implements domain.EventStore.
func (f *FileStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, subs := range f.subscribers {
		for _, ch := range subs {
			close(ch)
		}
	}

	f.cache = make(map[string][]domain.EventEnvelope[any])
	f.versions = make(map[string]map[aggregateKey]int)
	f.nextBase = make(map[string]int64)
	f.subscribers = make(map[string][]chan domain.EventEnvelope[any])
	return nil
}
