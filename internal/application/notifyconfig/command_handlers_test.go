package notifyconfig

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	notifydomain "github.com/iamcore/iamcore/internal/domain/notifyconfig"
	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/pkg/application"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
	esinfra "github.com/iamcore/iamcore/pkg/eventsourcing/infrastructure"
)

func newTestHandlers(t *testing.T) (*CommandHandlers, *infrastructure.NotifyConfigRepository, *infrastructure.NotifyConfigProjectionGORM) {
	t.Helper()
	store := esinfra.NewMemoryStore()
	repo := infrastructure.NewNotifyConfigRepository(store)

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	readModel := infrastructure.NewNotifyConfigProjectionGORM(db)
	require.NoError(t, readModel.Migrate())

	return NewCommandHandlers(repo, store, nil, readModel), repo, readModel
}

func TestAddSMTP_ThenChange(t *testing.T) {
	handlers, repo, _ := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)
	ctx := context.Background()
	log := application.NewMockLogger()

	require.NoError(t, bus.Handle(ctx, log, AddSMTPConfigCommand{
		InstanceID: "inst-1", ID: "smtp1", Host: "smtp.example.com", Port: 587, User: "u", Password: "p", EditorUser: "editor",
	}))
	c, err := repo.LoadSMTP(ctx, "inst-1", "smtp1")
	require.NoError(t, err)
	assert.Equal(t, notifydomain.StateInactive, c.State)

	require.NoError(t, bus.Handle(ctx, log, ChangeSMTPConfigCommand{
		InstanceID: "inst-1", ID: "smtp1", Host: "smtp2.example.com", Port: 465, User: "u", Password: "p", EditorUser: "editor",
	}))
	c, err = repo.LoadSMTP(ctx, "inst-1", "smtp1")
	require.NoError(t, err)
	assert.Equal(t, "smtp2.example.com", c.Host)
}

func TestActivateSMTP_DeactivatesPreviouslyActiveSibling(t *testing.T) {
	handlers, repo, readModel := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)
	ctx := context.Background()
	log := application.NewMockLogger()

	require.NoError(t, bus.Handle(ctx, log, AddSMTPConfigCommand{InstanceID: "inst-1", ID: "smtp2", Host: "a.example.com", Port: 587, EditorUser: "editor"}))
	require.NoError(t, bus.Handle(ctx, log, AddSMTPConfigCommand{InstanceID: "inst-1", ID: "smtp3", Host: "b.example.com", Port: 587, EditorUser: "editor"}))

	require.NoError(t, bus.Handle(ctx, log, ActivateSMTPConfigCommand{InstanceID: "inst-1", ID: "smtp2", EditorUser: "editor"}))
	// Simulate the projection engine materializing smtp2's activation before the second Activate fans out.
	require.NoError(t, readModel.Apply(ctx, []esdomain.EventEnvelope[any]{
		{InstanceID: "inst-1", AggregateType: notifydomain.SMTPAggregateType, AggregateID: "smtp2", EventType: "smtp_config.added", Payload: map[string]any{"host": "a.example.com", "port": 587}},
		{InstanceID: "inst-1", AggregateType: notifydomain.SMTPAggregateType, AggregateID: "smtp2", EventType: "smtp_config.activated", Payload: struct{}{}},
	}))

	require.NoError(t, bus.Handle(ctx, log, ActivateSMTPConfigCommand{InstanceID: "inst-1", ID: "smtp3", EditorUser: "editor"}))

	smtp2, err := repo.LoadSMTP(ctx, "inst-1", "smtp2")
	require.NoError(t, err)
	assert.Equal(t, notifydomain.StateInactive, smtp2.State)

	smtp3, err := repo.LoadSMTP(ctx, "inst-1", "smtp3")
	require.NoError(t, err)
	assert.Equal(t, notifydomain.StateActive, smtp3.State)
}

func TestAddSMS_RejectsUnknownProvider(t *testing.T) {
	handlers, _, _ := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)

	err := bus.Handle(context.Background(), application.NewMockLogger(), AddSMSConfigCommand{
		InstanceID: "inst-1", ID: "sms1", Provider: "carrier-pigeon", EditorUser: "editor",
	})
	assert.Error(t, err)
}

func TestRemoveSMS_ThenChangeFailsNotFound(t *testing.T) {
	handlers, repo, _ := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)
	ctx := context.Background()
	log := application.NewMockLogger()

	require.NoError(t, bus.Handle(ctx, log, AddSMSConfigCommand{
		InstanceID: "inst-1", ID: "sms2", Provider: "twilio", Settings: map[string]any{"accountSid": "AC1"}, EditorUser: "editor",
	}))
	require.NoError(t, bus.Handle(ctx, log, RemoveSMSConfigCommand{InstanceID: "inst-1", ID: "sms2", EditorUser: "editor"}))

	c, err := repo.LoadSMS(ctx, "inst-1", "sms2")
	require.NoError(t, err)
	assert.Equal(t, notifydomain.StateRemoved, c.State)

	err = bus.Handle(ctx, log, ChangeSMSConfigCommand{InstanceID: "inst-1", ID: "sms2", Settings: map[string]any{"accountSid": "AC2"}, EditorUser: "editor"})
	assert.Error(t, err)
}
