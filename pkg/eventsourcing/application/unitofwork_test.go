package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamcore/iamcore/pkg/eventsourcing/application"
	"github.com/iamcore/iamcore/pkg/eventsourcing/domain"
	"github.com/iamcore/iamcore/pkg/eventsourcing/infrastructure"
)

// testEntity is a minimal domain.Entity double: it buffers events recorded by
// a test and reports the version it claims to have been hydrated at.
type testEntity struct {
	id            string
	aggregateType string
	sequenceNo    int
	uncommitted   []domain.EventEnvelope[any]
}

func (e *testEntity) GetID() string                { return e.id }
func (e *testEntity) AggregateType() string         { return e.aggregateType }
func (e *testEntity) GetSequenceNo() int            { return e.sequenceNo + len(e.uncommitted) }
func (e *testEntity) ExpectedVersionAtLoad() int    { return e.sequenceNo }
func (e *testEntity) GetUncommittedEvents() []domain.EventEnvelope[any] {
	return e.uncommitted
}
func (e *testEntity) ClearUncommittedEvents() { e.uncommitted = nil }

func (e *testEntity) record(eventType string, payload any) {
	e.uncommitted = append(e.uncommitted, domain.EventEnvelope[any]{
		AggregateType: e.aggregateType,
		EventType:     eventType,
		Payload:       payload,
	})
}

func TestUnitOfWork_CommitPersistsAllTrackedEntitiesAtomically(t *testing.T) {
	store := infrastructure.NewMemoryStore()
	uow := application.NewSimpleUnitOfWork("tenant-1", store, nil)

	org := &testEntity{id: "org-1", aggregateType: "org"}
	org.record("org.added", "payload")
	org.record("org.renamed", "payload2")

	user := &testEntity{id: "user-1", aggregateType: "user"}
	user.record("user.added", "payload3")

	require.NoError(t, uow.Track(org, user))
	require.NoError(t, uow.Commit(context.Background()))

	orgVersion, err := store.GetCurrentVersion(context.Background(), "tenant-1", "org", "org-1")
	require.NoError(t, err)
	assert.Equal(t, 2, orgVersion)

	userVersion, err := store.GetCurrentVersion(context.Background(), "tenant-1", "user", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, userVersion)

	assert.Empty(t, org.GetUncommittedEvents())
}

func TestUnitOfWork_TrackRejectsDuplicateAggregateID(t *testing.T) {
	store := infrastructure.NewMemoryStore()
	uow := application.NewSimpleUnitOfWork("tenant-1", store, nil)

	a := &testEntity{id: "org-1", aggregateType: "org"}
	b := &testEntity{id: "org-1", aggregateType: "org"}

	require.NoError(t, uow.Track(a))
	assert.Error(t, uow.Track(b))
}

func TestUnitOfWork_CommitWithNoUncommittedEventsIsANoOp(t *testing.T) {
	store := infrastructure.NewMemoryStore()
	uow := application.NewSimpleUnitOfWork("tenant-1", store, nil)

	org := &testEntity{id: "org-1", aggregateType: "org"}
	require.NoError(t, uow.Track(org))
	require.NoError(t, uow.Commit(context.Background()))

	version, err := store.GetCurrentVersion(context.Background(), "tenant-1", "org", "org-1")
	require.NoError(t, err)
	assert.Equal(t, 0, version)
}

func TestUnitOfWork_CommitFailureRollsBackTracking(t *testing.T) {
	store := infrastructure.NewMemoryStore()

	// Seed the store so the entity's stale expected version conflicts.
	_, err := store.Push(context.Background(), "tenant-1", domain.UnsignedCommand[any]{
		AggregateType: "org", AggregateID: "org-1", EventType: "org.added", Payload: "p",
	})
	require.NoError(t, err)

	uow := application.NewSimpleUnitOfWork("tenant-1", store, nil)
	org := &testEntity{id: "org-1", aggregateType: "org", sequenceNo: 0}
	org.record("org.renamed", "p2")

	require.NoError(t, uow.Track(org))
	err = uow.Commit(context.Background())
	assert.Error(t, err)

	// Uncommitted events remain on the entity for a retry in a fresh UnitOfWork.
	assert.NotEmpty(t, org.GetUncommittedEvents())
}
