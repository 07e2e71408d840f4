package webkey

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	webkeydomain "github.com/iamcore/iamcore/internal/domain/webkey"
	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/pkg/application"
	esinfra "github.com/iamcore/iamcore/pkg/eventsourcing/infrastructure"
)

func newTestHandlers(t *testing.T) (*CommandHandlers, *infrastructure.WebKeyRepository, *infrastructure.WebKeyProjectionGORM) {
	t.Helper()
	store := esinfra.NewMemoryStore()
	repo := infrastructure.NewWebKeyRepository(store)

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	readModel := infrastructure.NewWebKeyProjectionGORM(db)
	require.NoError(t, readModel.Migrate())

	return NewCommandHandlers(repo, store, nil, infrastructure.NewKeyMaterial()), repo, readModel
}

func TestGenerateThenActivateThenDeactivate(t *testing.T) {
	handlers, repo, _ := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)
	ctx := context.Background()
	log := application.NewMockLogger()

	require.NoError(t, bus.Handle(ctx, log, GenerateWebKeyCommand{
		InstanceID: "inst-1", ID: "k1", Algorithm: webkeydomain.AlgorithmRS256, PublicJWK: `{"kty":"RSA"}`, EditorUser: "editor",
	}))
	k, err := repo.Load(ctx, "inst-1", "k1")
	require.NoError(t, err)
	assert.Equal(t, webkeydomain.StateInitial, k.State)

	require.NoError(t, bus.Handle(ctx, log, ActivateWebKeyCommand{InstanceID: "inst-1", ID: "k1", EditorUser: "editor"}))
	k, err = repo.Load(ctx, "inst-1", "k1")
	require.NoError(t, err)
	assert.Equal(t, webkeydomain.StateActive, k.State)

	require.NoError(t, bus.Handle(ctx, log, DeactivateWebKeyCommand{InstanceID: "inst-1", ID: "k1", EditorUser: "editor"}))
	k, err = repo.Load(ctx, "inst-1", "k1")
	require.NoError(t, err)
	assert.Equal(t, webkeydomain.StateInactive, k.State)
}

func TestActivateTwice_FailsPrecondition(t *testing.T) {
	handlers, _, _ := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)
	ctx := context.Background()
	log := application.NewMockLogger()

	require.NoError(t, bus.Handle(ctx, log, GenerateWebKeyCommand{
		InstanceID: "inst-1", ID: "k2", Algorithm: webkeydomain.AlgorithmES256, PublicJWK: `{"kty":"EC"}`, EditorUser: "editor",
	}))
	require.NoError(t, bus.Handle(ctx, log, ActivateWebKeyCommand{InstanceID: "inst-1", ID: "k2", EditorUser: "editor"}))

	err := bus.Handle(ctx, log, ActivateWebKeyCommand{InstanceID: "inst-1", ID: "k2", EditorUser: "editor"})
	assert.Error(t, err)
}

func TestRemoveActiveKey_Fails(t *testing.T) {
	handlers, _, _ := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)
	ctx := context.Background()
	log := application.NewMockLogger()

	require.NoError(t, bus.Handle(ctx, log, GenerateWebKeyCommand{
		InstanceID: "inst-1", ID: "k3", Algorithm: webkeydomain.AlgorithmRS256, PublicJWK: `{"kty":"RSA"}`, EditorUser: "editor",
	}))
	require.NoError(t, bus.Handle(ctx, log, ActivateWebKeyCommand{InstanceID: "inst-1", ID: "k3", EditorUser: "editor"}))

	err := bus.Handle(ctx, log, RemoveWebKeyCommand{InstanceID: "inst-1", ID: "k3", EditorUser: "editor"})
	assert.Error(t, err)
}

func TestGenerateWithoutPublicJWK_FillsInGeneratedKeyMaterial(t *testing.T) {
	handlers, repo, _ := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)
	ctx := context.Background()
	log := application.NewMockLogger()

	require.NoError(t, bus.Handle(ctx, log, GenerateWebKeyCommand{
		InstanceID: "inst-1", ID: "k4", Algorithm: webkeydomain.AlgorithmRS256, EditorUser: "editor",
	}))
	k, err := repo.Load(ctx, "inst-1", "k4")
	require.NoError(t, err)
	assert.Equal(t, webkeydomain.StateInitial, k.State)
	assert.Contains(t, k.PublicJWK, `"kty":"RSA"`)
}

func TestActivateMissing_ReturnsNotFound(t *testing.T) {
	handlers, _, _ := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)

	err := bus.Handle(context.Background(), application.NewMockLogger(), ActivateWebKeyCommand{
		InstanceID: "inst-1", ID: "missing", EditorUser: "editor",
	})
	require.Error(t, err)
}
