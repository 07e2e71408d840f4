//go:build integration

package infrastructure

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

// newTestPostgresStore spins up a real Postgres container and returns a
// migrated PostgresStore against it. Gated behind the integration build tag
// since it requires a container runtime, the same way midaz gates its
// Postgres bootstrap tests.
func newTestPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("iamcore_test"),
		tcpostgres.WithUsername("iamcore"),
		tcpostgres.WithPassword("iamcore"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp")),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := NewPostgresStore(pool)
	require.NoError(t, store.Migrate(ctx))
	return store
}

func TestIntegration_PostgresStore_PushThenQuery(t *testing.T) {
	store := newTestPostgresStore(t)
	ctx := context.Background()

	envs, err := store.Push(ctx, "inst-1", domain.UnsignedCommand[any]{
		AggregateType: "instance.org", AggregateID: "org1", EventType: "instance.org.added",
		Payload: map[string]any{"name": "Acme"}, EditorUser: "editor",
	})
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, 1, envs[0].AggregateVersion)
	assert.Equal(t, int64(1), envs[0].Position.Base)

	events, err := store.Query(ctx, domain.Filter{InstanceID: "inst-1", AggregateType: "instance.org"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "instance.org.added", events[0].EventType)
}

func TestIntegration_PostgresStore_ConcurrencyConflictRejectsWholeBatch(t *testing.T) {
	store := newTestPostgresStore(t)
	ctx := context.Background()

	_, err := store.Push(ctx, "inst-1", domain.UnsignedCommand[any]{
		AggregateType: "instance.org", AggregateID: "org2", EventType: "instance.org.added",
		Payload: map[string]any{"name": "Acme"},
	})
	require.NoError(t, err)

	stale := 0
	_, err = store.Push(ctx, "inst-1", domain.UnsignedCommand[any]{
		AggregateType: "instance.org", AggregateID: "org2", EventType: "instance.org.renamed",
		Payload: map[string]any{"name": "Acme 2"}, ExpectedVersion: &stale,
	})
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	version, err := store.GetCurrentVersion(ctx, "inst-1", "instance.org", "org2")
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestIntegration_PostgresStore_LatestPositionAdvancesAcrossPushes(t *testing.T) {
	store := newTestPostgresStore(t)
	ctx := context.Background()

	_, err := store.Push(ctx, "inst-2", domain.UnsignedCommand[any]{
		AggregateType: "instance.org", AggregateID: "org3", EventType: "instance.org.added", Payload: map[string]any{"name": "A"},
	})
	require.NoError(t, err)
	_, err = store.Push(ctx, "inst-2", domain.UnsignedCommand[any]{
		AggregateType: "instance.org", AggregateID: "org4", EventType: "instance.org.added", Payload: map[string]any{"name": "B"},
	})
	require.NoError(t, err)

	pos, err := store.LatestPosition(ctx, "inst-2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), pos.Base)
}
