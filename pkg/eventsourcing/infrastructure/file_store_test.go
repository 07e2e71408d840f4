package infrastructure_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamcore/iamcore/pkg/eventsourcing/domain"
	"github.com/iamcore/iamcore/pkg/eventsourcing/infrastructure"
)

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := infrastructure.NewFileStore(dir)
	require.NoError(t, err)

	_, err = store.Push(ctx, "tenant-1", domain.UnsignedCommand[any]{
		AggregateType: "org", AggregateID: "org-1", EventType: "org.added", Payload: "p1",
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := infrastructure.NewFileStore(dir)
	require.NoError(t, err)

	version, err := reopened.GetCurrentVersion(ctx, "tenant-1", "org", "org-1")
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	events, err := reopened.Query(ctx, domain.Filter{InstanceID: "tenant-1"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "org.added", events[0].EventType)
}

func TestFileStore_RejectsEmptyBaseDir(t *testing.T) {
	_, err := infrastructure.NewFileStore("")
	assert.Error(t, err)
}

func TestFileStore_ConcurrencyConflictAfterReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := infrastructure.NewFileStore(dir)
	require.NoError(t, err)
	_, err = store.Push(ctx, "tenant-1", domain.UnsignedCommand[any]{
		AggregateType: "org", AggregateID: "org-1", EventType: "org.added", Payload: "p1",
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := infrastructure.NewFileStore(dir)
	require.NoError(t, err)

	stale := 0
	_, err = reopened.Push(ctx, "tenant-1", domain.UnsignedCommand[any]{
		AggregateType: "org", AggregateID: "org-1", EventType: "org.renamed", Payload: "p2",
		ExpectedVersion: &stale,
	})
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
}
