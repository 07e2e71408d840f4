package idp

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	idpdomain "github.com/iamcore/iamcore/internal/domain/idp"
	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/pkg/application"
	esinfra "github.com/iamcore/iamcore/pkg/eventsourcing/infrastructure"
)

func newTestHandlers(t *testing.T) (*CommandHandlers, *infrastructure.IDPRepository, *infrastructure.IDPProjectionGORM) {
	t.Helper()
	store := esinfra.NewMemoryStore()
	repo := infrastructure.NewIDPRepository(store)

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	readModel := infrastructure.NewIDPProjectionGORM(db)
	require.NoError(t, readModel.Migrate())

	return NewCommandHandlers(repo, store, nil), repo, readModel
}

func TestAddOIDC_ThenChangeConfig(t *testing.T) {
	handlers, repo, _ := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)
	ctx := context.Background()
	log := application.NewMockLogger()

	require.NoError(t, bus.Handle(ctx, log, AddOIDCIDPCommand{
		InstanceID: "inst-1", ID: "idp1", Scope: idpdomain.ScopeInstance,
		IssuerURL: "https://issuer.example.com", ClientID: "client-1", ClientSecret: "secret-1", EditorUser: "editor",
	}))

	i, err := repo.Load(ctx, "inst-1", "idp1")
	require.NoError(t, err)
	assert.True(t, i.Exists())
	assert.Equal(t, idpdomain.TypeOIDC, i.Type)
	assert.Equal(t, "https://issuer.example.com", i.OIDC.IssuerURL)

	require.NoError(t, bus.Handle(ctx, log, ChangeOIDCIDPCommand{
		InstanceID: "inst-1", ID: "idp1", IssuerURL: "https://issuer2.example.com", ClientID: "client-2", EditorUser: "editor",
	}))
	i, err = repo.Load(ctx, "inst-1", "idp1")
	require.NoError(t, err)
	assert.Equal(t, "https://issuer2.example.com", i.OIDC.IssuerURL)
	assert.Equal(t, "client-2", i.OIDC.ClientID)
}

func TestAddJWT_ThenChangeRejectedAsOIDC(t *testing.T) {
	handlers, repo, _ := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)
	ctx := context.Background()
	log := application.NewMockLogger()

	require.NoError(t, bus.Handle(ctx, log, AddJWTIDPCommand{
		InstanceID: "inst-1", ID: "idp2", Scope: idpdomain.ScopeOrg, ScopeID: "org-1",
		JWTEndpoint: "https://jwt.example.com/token", KeysEndpoint: "https://jwt.example.com/keys", HeaderName: "X-Auth", EditorUser: "editor",
	}))
	i, err := repo.Load(ctx, "inst-1", "idp2")
	require.NoError(t, err)
	assert.Equal(t, idpdomain.TypeJWT, i.Type)

	err = bus.Handle(ctx, log, ChangeOIDCIDPCommand{
		InstanceID: "inst-1", ID: "idp2", IssuerURL: "https://issuer.example.com", ClientID: "x", EditorUser: "editor",
	})
	assert.Error(t, err)
}

func TestAddSAML_RequiresMetadataOrURL(t *testing.T) {
	handlers, _, _ := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)

	err := bus.Handle(context.Background(), application.NewMockLogger(), AddSAMLIDPCommand{
		InstanceID: "inst-1", ID: "idp3", Scope: idpdomain.ScopeInstance, EditorUser: "editor",
	})
	assert.Error(t, err)
}

func TestRemoveIDP_ThenChangeFailsNotFound(t *testing.T) {
	handlers, repo, _ := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)
	ctx := context.Background()
	log := application.NewMockLogger()

	require.NoError(t, bus.Handle(ctx, log, AddSAMLIDPCommand{
		InstanceID: "inst-1", ID: "idp4", Scope: idpdomain.ScopeInstance, MetadataURL: "https://idp.example.com/metadata", EditorUser: "editor",
	}))
	require.NoError(t, bus.Handle(ctx, log, RemoveIDPCommand{InstanceID: "inst-1", ID: "idp4", EditorUser: "editor"}))

	i, err := repo.Load(ctx, "inst-1", "idp4")
	require.NoError(t, err)
	assert.Equal(t, idpdomain.StateRemoved, i.State)

	err = bus.Handle(ctx, log, ChangeSAMLIDPCommand{InstanceID: "inst-1", ID: "idp4", MetadataURL: "https://new.example.com/metadata", EditorUser: "editor"})
	assert.Error(t, err)
}

func TestChangeIDP_NotFoundReturnsNotFound(t *testing.T) {
	handlers, _, _ := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)

	err := bus.Handle(context.Background(), application.NewMockLogger(), ChangeJWTIDPCommand{
		InstanceID: "inst-1", ID: "missing", JWTEndpoint: "https://jwt.example.com/token", KeysEndpoint: "https://jwt.example.com/keys", EditorUser: "editor",
	})
	require.Error(t, err)
}
