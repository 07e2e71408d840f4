package notifyconfig

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

func TestQueryHandlers_GetSMTPAfterProjecting(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	proj := infrastructure.NewNotifyConfigProjectionGORM(db)
	require.NoError(t, proj.Migrate())

	ctx := context.Background()
	require.NoError(t, proj.Apply(ctx, []esdomain.EventEnvelope[any]{
		{InstanceID: "inst-1", AggregateType: "smtp_config", AggregateID: "s1", EventType: "smtp_config.added", Payload: map[string]any{"host": "smtp.example.com", "port": 587}},
	}))

	bus := application.NewQueryBus()
	NewQueryHandlers(proj).Register(bus)

	data, err := bus.Handle(ctx, application.NewMockLogger(), GetSMTPConfigQuery{InstanceID: "inst-1", ID: "s1"})
	require.NoError(t, err)
	view := data.(SMTPConfigView)
	assert.Equal(t, "smtp.example.com", view.Host)
}

func TestQueryHandlers_GetSMSMissingReturnsError(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	proj := infrastructure.NewNotifyConfigProjectionGORM(db)
	require.NoError(t, proj.Migrate())

	bus := application.NewQueryBus()
	NewQueryHandlers(proj).Register(bus)

	_, err = bus.Handle(context.Background(), application.NewMockLogger(), GetSMSConfigQuery{InstanceID: "inst-1", ID: "missing"})
	assert.Error(t, err)
}
