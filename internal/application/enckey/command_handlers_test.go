package enckey

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/pkg/application"
)

func newTestStore(t *testing.T) *infrastructure.EncryptionKeyGORMStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	store := infrastructure.NewEncryptionKeyGORMStore(db)
	require.NoError(t, store.Migrate())
	return store
}

func TestAddEncryptionKey_ThenGet(t *testing.T) {
	store := newTestStore(t)
	bus := application.NewCommandBus()
	NewCommandHandlers(store).Register(bus)
	ctx := context.Background()
	log := application.NewMockLogger()

	require.NoError(t, bus.Handle(ctx, log, AddEncryptionKeyCommand{
		InstanceID: "inst-1", Identifier: "key1", Algorithm: "AES-256-GCM", Material: "deadbeef", EditorUser: "editor",
	}))

	k, err := store.Get(ctx, "inst-1", "key1")
	require.NoError(t, err)
	require.NotNil(t, k)
	assert.Equal(t, "AES-256-GCM", k.Algorithm)
}

func TestAddEncryptionKey_DuplicateIdentifierFails(t *testing.T) {
	store := newTestStore(t)
	bus := application.NewCommandBus()
	NewCommandHandlers(store).Register(bus)
	ctx := context.Background()
	log := application.NewMockLogger()

	cmd := AddEncryptionKeyCommand{InstanceID: "inst-1", Identifier: "key2", Algorithm: "AES-256-GCM", Material: "deadbeef", EditorUser: "editor"}
	require.NoError(t, bus.Handle(ctx, log, cmd))

	err := bus.Handle(ctx, log, cmd)
	assert.Error(t, err)
}

func TestAddEncryptionKey_RequiresMaterial(t *testing.T) {
	store := newTestStore(t)
	bus := application.NewCommandBus()
	NewCommandHandlers(store).Register(bus)

	err := bus.Handle(context.Background(), application.NewMockLogger(), AddEncryptionKeyCommand{
		InstanceID: "inst-1", Identifier: "key3", Algorithm: "AES-256-GCM", EditorUser: "editor",
	})
	assert.Error(t, err)
}

func TestRemoveEncryptionKey_ThenGetIsNotFound(t *testing.T) {
	store := newTestStore(t)
	bus := application.NewCommandBus()
	NewCommandHandlers(store).Register(bus)
	ctx := context.Background()
	log := application.NewMockLogger()

	require.NoError(t, bus.Handle(ctx, log, AddEncryptionKeyCommand{
		InstanceID: "inst-1", Identifier: "key4", Algorithm: "AES-256-GCM", Material: "deadbeef", EditorUser: "editor",
	}))
	require.NoError(t, bus.Handle(ctx, log, RemoveEncryptionKeyCommand{InstanceID: "inst-1", Identifier: "key4", EditorUser: "editor"}))

	k, err := store.Get(ctx, "inst-1", "key4")
	require.NoError(t, err)
	assert.Nil(t, k)
}

func TestRemoveEncryptionKey_MissingReturnsNotFound(t *testing.T) {
	store := newTestStore(t)
	bus := application.NewCommandBus()
	NewCommandHandlers(store).Register(bus)

	err := bus.Handle(context.Background(), application.NewMockLogger(), RemoveEncryptionKeyCommand{InstanceID: "inst-1", Identifier: "missing", EditorUser: "editor"})
	assert.Error(t, err)
}
