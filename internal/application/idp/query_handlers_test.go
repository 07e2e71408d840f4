package idp

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
	proj := infrastructure.NewIDPProjectionGORM(db)
	require.NoError(t, proj.Migrate())

	ctx := context.Background()
	require.NoError(t, proj.Apply(ctx, []esdomain.EventEnvelope[any]{
		{InstanceID: "inst-1", AggregateType: "idp", AggregateID: "i1", EventType: "idp.jwt.added", Payload: map[string]any{
			"scope": "INSTANCE", "scopeId": "", "jwtEndpoint": "https://jwt.example.com/token", "keysEndpoint": "https://jwt.example.com/keys", "headerName": "X-Auth",
		}},
	}))

	bus := application.NewQueryBus()
	NewQueryHandlers(proj).Register(bus)

	data, err := bus.Handle(ctx, application.NewMockLogger(), GetIDPQuery{InstanceID: "inst-1", ID: "i1"})
	require.NoError(t, err)
	view := data.(IDPView)
	assert.Equal(t, "JWT", view.Type)
	assert.Equal(t, "X-Auth", view.HeaderName)
}

func TestQueryHandlers_GetMissingReturnsError(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	proj := infrastructure.NewIDPProjectionGORM(db)
	require.NoError(t, proj.Migrate())

	bus := application.NewQueryBus()
	NewQueryHandlers(proj).Register(bus)

	_, err = bus.Handle(context.Background(), application.NewMockLogger(), GetIDPQuery{InstanceID: "inst-1", ID: "missing"})
	assert.Error(t, err)
}

func TestQueryHandlers_ListByScope(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	proj := infrastructure.NewIDPProjectionGORM(db)
	require.NoError(t, proj.Migrate())

	ctx := context.Background()
	require.NoError(t, proj.Apply(ctx, []esdomain.EventEnvelope[any]{
		{InstanceID: "inst-1", AggregateType: "idp", AggregateID: "i2", EventType: "idp.saml.added", Payload: map[string]any{
			"scope": "ORG", "scopeId": "org-1", "metadata": "<xml/>",
		}},
	}))

	bus := application.NewQueryBus()
	NewQueryHandlers(proj).Register(bus)

	data, err := bus.Handle(ctx, application.NewMockLogger(), ListIDPsByScopeQuery{InstanceID: "inst-1", Scope: "ORG", ScopeID: "org-1"})
	require.NoError(t, err)
	views := data.([]IDPView)
	assert.Len(t, views, 1)
}
