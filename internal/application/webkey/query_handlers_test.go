package webkey

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/pkg/application"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

func TestQueryHandlers_GetAfterProjecting(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	proj := infrastructure.NewWebKeyProjectionGORM(db)
	require.NoError(t, proj.Migrate())

	ctx := context.Background()
	require.NoError(t, proj.Apply(ctx, []esdomain.EventEnvelope[any]{
		{InstanceID: "inst-1", AggregateType: "web_key", AggregateID: "k1", EventType: "web_key.generated", Payload: map[string]any{
			"algorithm": "RS256", "publicJwk": `{"kty":"RSA"}`,
		}},
	}))

	bus := application.NewQueryBus()
	NewQueryHandlers(proj).Register(bus)

	data, err := bus.Handle(ctx, application.NewMockLogger(), GetWebKeyQuery{InstanceID: "inst-1", ID: "k1"})
	require.NoError(t, err)
	view := data.(WebKeyView)
	assert.Equal(t, "RS256", view.Algorithm)
}

func TestQueryHandlers_ListActive(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	proj := infrastructure.NewWebKeyProjectionGORM(db)
	require.NoError(t, proj.Migrate())

	ctx := context.Background()
	require.NoError(t, proj.Apply(ctx, []esdomain.EventEnvelope[any]{
		{InstanceID: "inst-1", AggregateType: "web_key", AggregateID: "k2", EventType: "web_key.generated", Payload: map[string]any{"algorithm": "RS256", "publicJwk": `{"kty":"RSA"}`}},
		{InstanceID: "inst-1", AggregateType: "web_key", AggregateID: "k2", EventType: "web_key.activated", Payload: struct{}{}},
	}))

	bus := application.NewQueryBus()
	NewQueryHandlers(proj).Register(bus)

	data, err := bus.Handle(ctx, application.NewMockLogger(), ListActiveWebKeysQuery{InstanceID: "inst-1"})
	require.NoError(t, err)
	views := data.([]WebKeyView)
	assert.Len(t, views, 1)
}
