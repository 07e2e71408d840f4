package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/internal/ports"
	"github.com/iamcore/iamcore/pkg/application"
	esinfra "github.com/iamcore/iamcore/pkg/eventsourcing/infrastructure"
	"github.com/iamcore/iamcore/pkg/security"
)

func newTestHandlers(t *testing.T) (*CommandHandlers, *infrastructure.UserRepository) {
	t.Helper()
	store := esinfra.NewMemoryStore()
	repo := infrastructure.NewUserRepository(store)
	codeGen := security.NewCSPRNGCodeGen([]byte("0123456789012345678901234567890a"), nil)
	hasher := ports.NewBcryptPasswordHasher(4)
	phones := ports.BasicPhoneNormalizer{}
	return NewCommandHandlers(repo, store, nil, hasher, phones, codeGen), repo
}

func TestCreateHuman_ThenChangeProfile(t *testing.T) {
	handlers, repo := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)
	ctx := context.Background()
	log := application.NewMockLogger()

	require.NoError(t, bus.Handle(ctx, log, CreateHumanUserCommand{
		InstanceID: "inst-1", ID: "u1", Username: "alice", DisplayName: "Alice",
		Email: "alice@example.com", Password: "hunter2pass", EditorUser: "editor",
	}))
	require.NoError(t, bus.Handle(ctx, log, ChangeProfileCommand{
		InstanceID: "inst-1", ID: "u1", DisplayName: "Alice Smith", EditorUser: "editor",
	}))

	u, err := repo.Load(ctx, "inst-1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", u.DisplayName)
	assert.NotEqual(t, "hunter2pass", u.PasswordHash)
}

func TestChangeProfile_NotFoundReturnsNotFound(t *testing.T) {
	handlers, _ := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)

	err := bus.Handle(context.Background(), application.NewMockLogger(), ChangeProfileCommand{
		InstanceID: "inst-1", ID: "missing", DisplayName: "x", EditorUser: "editor",
	})
	require.Error(t, err)
}

func TestChangeEmail_GeneratesVerifyCode(t *testing.T) {
	handlers, repo := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)
	ctx := context.Background()
	log := application.NewMockLogger()

	require.NoError(t, bus.Handle(ctx, log, CreateHumanUserCommand{
		InstanceID: "inst-1", ID: "u1", Username: "alice", DisplayName: "Alice",
		Email: "alice@example.com", Password: "hunter2pass", EditorUser: "editor",
	}))
	require.NoError(t, bus.Handle(ctx, log, ChangeEmailCommand{
		InstanceID: "inst-1", ID: "u1", NewEmail: "alice2@example.com", EditorUser: "editor",
	}))

	u, err := repo.Load(ctx, "inst-1", "u1")
	require.NoError(t, err)
	require.NotNil(t, u.PendingEmail)
	assert.NotEmpty(t, u.PendingEmail.Code)
	assert.False(t, u.EmailVerified)
}

func TestVerifyEmail_WrongCodeRejected(t *testing.T) {
	handlers, repo := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)
	ctx := context.Background()
	log := application.NewMockLogger()

	require.NoError(t, bus.Handle(ctx, log, CreateHumanUserCommand{
		InstanceID: "inst-1", ID: "u1", Username: "alice", DisplayName: "Alice",
		Email: "alice@example.com", Password: "hunter2pass", EditorUser: "editor",
	}))
	require.NoError(t, bus.Handle(ctx, log, ChangeEmailCommand{
		InstanceID: "inst-1", ID: "u1", NewEmail: "alice2@example.com", EditorUser: "editor",
	}))

	err := bus.Handle(ctx, log, VerifyEmailCommand{InstanceID: "inst-1", ID: "u1", Code: "wrong-code", EditorUser: "editor"})
	assert.Error(t, err)

	u, err := repo.Load(ctx, "inst-1", "u1")
	require.NoError(t, err)
	assert.False(t, u.EmailVerified)
}

func TestCreateMachine_LockAndUnlock(t *testing.T) {
	handlers, repo := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)
	ctx := context.Background()
	log := application.NewMockLogger()

	require.NoError(t, bus.Handle(ctx, log, CreateMachineUserCommand{
		InstanceID: "inst-1", ID: "m1", Username: "svc-bot", DisplayName: "Service Bot", EditorUser: "editor",
	}))
	require.NoError(t, bus.Handle(ctx, log, LockUserCommand{InstanceID: "inst-1", ID: "m1", EditorUser: "editor"}))

	u, err := repo.Load(ctx, "inst-1", "m1")
	require.NoError(t, err)
	assert.Equal(t, "LOCKED", string(u.State))

	require.NoError(t, bus.Handle(ctx, log, UnlockUserCommand{InstanceID: "inst-1", ID: "m1", EditorUser: "editor"}))
	u, err = repo.Load(ctx, "inst-1", "m1")
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", string(u.State))
}
