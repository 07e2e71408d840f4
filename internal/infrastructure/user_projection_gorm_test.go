package infrastructure

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

func newTestUserProjection(t *testing.T) *UserProjectionGORM {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	proj := NewUserProjectionGORM(db)
	require.NoError(t, proj.Migrate())
	return proj
}

func userEnv(instanceID, userID, eventType string, payload any) esdomain.EventEnvelope[any] {
	return esdomain.EventEnvelope[any]{InstanceID: instanceID, AggregateType: "user", AggregateID: userID, EventType: eventType, Payload: payload}
}

func TestUserProjectionGORM_HumanAddedThenProfileChanged(t *testing.T) {
	proj := newTestUserProjection(t)
	ctx := context.Background()

	require.NoError(t, proj.Apply(ctx, []esdomain.EventEnvelope[any]{
		userEnv("inst-1", "u1", "user.human.added", map[string]any{
			"username": "alice", "displayName": "Alice", "email": "alice@example.com", "phone": "", "passwordHash": "hash",
		}),
	}))
	require.NoError(t, proj.Apply(ctx, []esdomain.EventEnvelope[any]{
		userEnv("inst-1", "u1", "user.profile.changed", map[string]any{"displayName": "Alice Smith"}),
	}))

	row, err := proj.GetByID(ctx, "inst-1", "u1")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "HUMAN", row.Type)
	assert.Equal(t, "INITIAL", row.State)
	assert.Equal(t, "Alice Smith", row.DisplayName)
}

func TestUserProjectionGORM_EmailVerificationLifecycle(t *testing.T) {
	proj := newTestUserProjection(t)
	ctx := context.Background()

	require.NoError(t, proj.Apply(ctx, []esdomain.EventEnvelope[any]{
		userEnv("inst-1", "u2", "user.human.added", map[string]any{
			"username": "bob", "displayName": "Bob", "email": "bob@example.com", "phone": "", "passwordHash": "hash",
		}),
		userEnv("inst-1", "u2", "user.email.change.code.added", map[string]any{"email": "bob2@example.com", "code": "123456"}),
		userEnv("inst-1", "u2", "user.email.verified", nil),
	}))

	row, err := proj.GetByID(ctx, "inst-1", "u2")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.True(t, row.EmailVerified)
}

func TestUserProjectionGORM_MachineAddedAndLocked(t *testing.T) {
	proj := newTestUserProjection(t)
	ctx := context.Background()

	require.NoError(t, proj.Apply(ctx, []esdomain.EventEnvelope[any]{
		userEnv("inst-1", "m1", "user.machine.added", map[string]any{"username": "svc-bot", "displayName": "Service Bot"}),
		userEnv("inst-1", "m1", "user.locked", nil),
	}))

	row, err := proj.GetByID(ctx, "inst-1", "m1")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "MACHINE", row.Type)
	assert.Equal(t, "LOCKED", row.State)
}

func TestUserProjectionGORM_TOTPLifecycle(t *testing.T) {
	proj := newTestUserProjection(t)
	ctx := context.Background()

	require.NoError(t, proj.Apply(ctx, []esdomain.EventEnvelope[any]{
		userEnv("inst-1", "u3", "user.human.added", map[string]any{
			"username": "carol", "displayName": "Carol", "email": "carol@example.com", "phone": "", "passwordHash": "hash",
		}),
		userEnv("inst-1", "u3", "user.human.totp.added", nil),
		userEnv("inst-1", "u3", "user.human.totp.verified", nil),
	}))

	row, err := proj.GetByID(ctx, "inst-1", "u3")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.True(t, row.TOTPAdded)
	assert.True(t, row.TOTPVerified)

	require.NoError(t, proj.Apply(ctx, []esdomain.EventEnvelope[any]{
		userEnv("inst-1", "u3", "user.human.totp.removed", nil),
	}))
	row, err = proj.GetByID(ctx, "inst-1", "u3")
	require.NoError(t, err)
	assert.False(t, row.TOTPAdded)
}

func TestUserProjectionGORM_GetByEmail(t *testing.T) {
	proj := newTestUserProjection(t)
	ctx := context.Background()

	require.NoError(t, proj.Apply(ctx, []esdomain.EventEnvelope[any]{
		userEnv("inst-1", "u4", "user.human.added", map[string]any{
			"username": "dave", "displayName": "Dave", "email": "dave@example.com", "phone": "", "passwordHash": "hash",
		}),
	}))

	row, err := proj.GetByEmail(ctx, "inst-1", "dave@example.com")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "u4", row.ID)
}
