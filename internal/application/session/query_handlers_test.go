package session

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
	proj := infrastructure.NewSessionProjectionGORM(db)
	require.NoError(t, proj.Migrate())

	ctx := context.Background()
	require.NoError(t, proj.Apply(ctx, []esdomain.EventEnvelope[any]{
		{InstanceID: "inst-1", AggregateType: "session", AggregateID: "s1", EventType: "session.added", Payload: map[string]any{"userId": "u1", "orgId": "org-1"}},
	}))

	bus := application.NewQueryBus()
	NewQueryHandlers(proj).Register(bus)

	data, err := bus.Handle(ctx, application.NewMockLogger(), GetSessionQuery{InstanceID: "inst-1", ID: "s1"})
	require.NoError(t, err)
	view := data.(SessionView)
	assert.Equal(t, "u1", view.UserID)
	assert.Equal(t, "ACTIVE", view.State)
}

func TestQueryHandlers_GetMissingReturnsError(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	proj := infrastructure.NewSessionProjectionGORM(db)
	require.NoError(t, proj.Migrate())

	bus := application.NewQueryBus()
	NewQueryHandlers(proj).Register(bus)

	_, err = bus.Handle(context.Background(), application.NewMockLogger(), GetSessionQuery{InstanceID: "inst-1", ID: "missing"})
	assert.Error(t, err)
}
