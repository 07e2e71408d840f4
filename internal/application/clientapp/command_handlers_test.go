package clientapp

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	appdomain "github.com/iamcore/iamcore/internal/domain/application"
	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/pkg/application"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
	esinfra "github.com/iamcore/iamcore/pkg/eventsourcing/infrastructure"
)

func newTestHandlers(t *testing.T) (*CommandHandlers, *infrastructure.ClientAppRepository, *infrastructure.ClientAppProjectionGORM) {
	t.Helper()
	store := esinfra.NewMemoryStore()
	repo := infrastructure.NewClientAppRepository(store)

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	readModel := infrastructure.NewClientAppProjectionGORM(db)
	require.NoError(t, readModel.Migrate())

	return NewCommandHandlers(repo, store, nil, readModel), repo, readModel
}

func TestCreateOIDCApp_ThenChangeConfig(t *testing.T) {
	handlers, repo, _ := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)
	ctx := context.Background()
	log := application.NewMockLogger()

	require.NoError(t, bus.Handle(ctx, log, AddOIDCAppCommand{
		InstanceID: "inst-1", ID: "app1", ProjectID: "p1", ClientID: "client-1",
		AppType: "web", RedirectURIs: []string{"https://example.com/cb"}, AuthMethod: appdomain.AuthMethodBasic, EditorUser: "editor",
	}))

	a, err := repo.Load(ctx, "inst-1", "app1")
	require.NoError(t, err)
	assert.True(t, a.Exists())
	assert.Equal(t, appdomain.TypeOIDC, a.Type)

	require.NoError(t, bus.Handle(ctx, log, ChangeOIDCAppConfigCommand{
		InstanceID: "inst-1", ID: "app1", AppType: "native", RedirectURIs: []string{"myapp://cb"}, EditorUser: "editor",
	}))
	a, err = repo.Load(ctx, "inst-1", "app1")
	require.NoError(t, err)
	assert.Equal(t, "native", a.OIDC.AppType)
}

func TestAddOIDCApp_RejectsDuplicateClientID(t *testing.T) {
	handlers, _, readModel := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)
	ctx := context.Background()
	log := application.NewMockLogger()

	require.NoError(t, bus.Handle(ctx, log, AddOIDCAppCommand{
		InstanceID: "inst-1", ID: "app2", ProjectID: "p1", ClientID: "dup-client",
		AppType: "web", RedirectURIs: []string{"https://example.com/cb"}, AuthMethod: appdomain.AuthMethodBasic, EditorUser: "editor",
	}))
	// The uniqueness check reads the projection, not the event store, so the
	// projection engine's write has to be simulated here.
	require.NoError(t, readModel.Apply(ctx, []esdomain.EventEnvelope[any]{
		{InstanceID: "inst-1", AggregateType: appdomain.AggregateType, AggregateID: "app2", EventType: "project.application.oidc.added", Payload: map[string]any{
			"projectId": "p1", "clientId": "dup-client", "appType": "web", "redirectUris": []string{"https://example.com/cb"}, "authMethod": string(appdomain.AuthMethodBasic),
		}},
	}))

	err := bus.Handle(ctx, log, AddAPIAppCommand{
		InstanceID: "inst-1", ID: "app3", ProjectID: "p1", ClientID: "dup-client", AuthMethod: appdomain.AuthMethodBasic, EditorUser: "editor",
	})
	assert.Error(t, err)
}

func TestDeactivateAndRemove(t *testing.T) {
	handlers, repo, _ := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)
	ctx := context.Background()
	log := application.NewMockLogger()

	require.NoError(t, bus.Handle(ctx, log, AddAPIAppCommand{
		InstanceID: "inst-1", ID: "app4", ProjectID: "p1", ClientID: "client-4", AuthMethod: appdomain.AuthMethodBasic, EditorUser: "editor",
	}))
	require.NoError(t, bus.Handle(ctx, log, DeactivateAppCommand{InstanceID: "inst-1", ID: "app4", EditorUser: "editor"}))
	a, err := repo.Load(ctx, "inst-1", "app4")
	require.NoError(t, err)
	assert.Equal(t, appdomain.StateInactive, a.State)

	require.NoError(t, bus.Handle(ctx, log, RemoveAppCommand{InstanceID: "inst-1", ID: "app4", EditorUser: "editor"}))
	a, err = repo.Load(ctx, "inst-1", "app4")
	require.NoError(t, err)
	assert.Equal(t, appdomain.StateRemoved, a.State)
}

func TestChangeOIDCConfig_NotFoundReturnsNotFound(t *testing.T) {
	handlers, _, _ := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)

	err := bus.Handle(context.Background(), application.NewMockLogger(), ChangeOIDCAppConfigCommand{
		InstanceID: "inst-1", ID: "missing", AppType: "web", RedirectURIs: []string{"https://example.com/cb"}, EditorUser: "editor",
	})
	require.Error(t, err)
}
