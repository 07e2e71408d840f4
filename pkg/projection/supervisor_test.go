package projection

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
	"github.com/iamcore/iamcore/pkg/eventsourcing/infrastructure"
)

type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{})  {}
func (noopLogger) Info(string, ...interface{})   {}
func (noopLogger) Warn(string, ...interface{})   {}
func (noopLogger) Error(string, ...interface{})  {}
func (noopLogger) Fatal(string, ...interface{})  {}
func (noopLogger) Debugf(string, ...interface{}) {}
func (noopLogger) Infof(string, ...interface{})  {}
func (noopLogger) Warnf(string, ...interface{})  {}
func (noopLogger) Errorf(string, ...interface{}) {}
func (noopLogger) Fatalf(string, ...interface{}) {}

// memCursorStore is an in-memory CursorStore for tests that don't need a
// real database round trip (that's gorm_cursor_store_test.go's job).
type memCursorStore struct {
	mu   sync.Mutex
	data map[string]esdomain.Position
}

func newMemCursorStore() *memCursorStore {
	return &memCursorStore{data: make(map[string]esdomain.Position)}
}

func (s *memCursorStore) key(name, instanceID string) string { return name + "/" + instanceID }

func (s *memCursorStore) Load(_ context.Context, name, instanceID string) (esdomain.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[s.key(name, instanceID)], nil
}

func (s *memCursorStore) Advance(_ context.Context, name, instanceID string, position esdomain.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[s.key(name, instanceID)] = position
	return nil
}

// collectingHandler records every event it's given; optionally fails the
// first N calls to exercise the no-cursor-advance-on-error path.
type collectingHandler struct {
	mu         sync.Mutex
	name       string
	eventTypes []string
	received   []esdomain.EventEnvelope[any]
	failFirstN int
	calls      int
}

func (h *collectingHandler) Name() string         { return h.name }
func (h *collectingHandler) EventTypes() []string { return h.eventTypes }

func (h *collectingHandler) Apply(_ context.Context, events []esdomain.EventEnvelope[any]) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	if h.calls <= h.failFirstN {
		return assertableErr{"simulated handler failure"}
	}
	h.received = append(h.received, events...)
	return nil
}

func (h *collectingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.received)
}

type assertableErr struct{ msg string }

func (e assertableErr) Error() string { return e.msg }

func pushEvents(t *testing.T, store *infrastructure.MemoryStore, instanceID, aggregateType, eventType string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := store.Push(context.Background(), instanceID, esdomain.UnsignedCommand[any]{
			InstanceID:    instanceID,
			AggregateType: aggregateType,
			AggregateID:   "agg-1",
			EventType:     eventType,
			Payload:       map[string]any{"n": i},
		})
		require.NoError(t, err)
	}
}

func TestSupervisor_AppliesBacklogAndAdvancesCursor(t *testing.T) {
	store := infrastructure.NewMemoryStore()
	pushEvents(t, store, "inst-1", "user", "user.created", 5)

	cursors := newMemCursorStore()
	handler := &collectingHandler{name: "users-read-model", eventTypes: []string{"user.created"}}

	sup := NewSupervisor(store, cursors, noopLogger{}, 4, 2, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_ = sup.Run(ctx, []string{"inst-1"}, []Handler{handler})

	require.Equal(t, 5, handler.count())

	pos, err := cursors.Load(context.Background(), "users-read-model", "inst-1")
	require.NoError(t, err)
	require.False(t, pos.IsZero())
}

func TestSupervisor_DoesNotAdvanceCursorOnHandlerError(t *testing.T) {
	store := infrastructure.NewMemoryStore()
	pushEvents(t, store, "inst-1", "user", "user.created", 2)

	cursors := newMemCursorStore()
	handler := &collectingHandler{name: "users-read-model", eventTypes: []string{"user.created"}, failFirstN: 1000}

	sup := NewSupervisor(store, cursors, noopLogger{}, 2, 10, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	_ = sup.Run(ctx, []string{"inst-1"}, []Handler{handler})

	pos, err := cursors.Load(context.Background(), "users-read-model", "inst-1")
	require.NoError(t, err)
	require.True(t, pos.IsZero())
	require.Equal(t, 0, handler.count())
}

func TestSupervisor_ResumesFromPersistedCursor(t *testing.T) {
	store := infrastructure.NewMemoryStore()
	pushEvents(t, store, "inst-1", "user", "user.created", 3)

	cursors := newMemCursorStore()
	handler := &collectingHandler{name: "users-read-model", eventTypes: []string{"user.created"}}

	sup := NewSupervisor(store, cursors, noopLogger{}, 1, 10, 5*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	sup.Run(ctx, []string{"inst-1"}, []Handler{handler})
	cancel()
	require.Equal(t, 3, handler.count())

	pushEvents(t, store, "inst-1", "user", "user.created", 2)

	ctx2, cancel2 := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel2()
	sup.Run(ctx2, []string{"inst-1"}, []Handler{handler})

	require.Equal(t, 5, handler.count())
}
