package domain_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

func TestEventDispatcher_ExactTypeMatch(t *testing.T) {
	d := domain.NewEventDispatcher()

	var got domain.EventEnvelope[userCreated]
	err := domain.Subscribe(d, "user.human.added", func(ctx context.Context, env domain.EventEnvelope[userCreated]) error {
		got = env
		return nil
	})
	require.NoError(t, err)

	env := domain.NewEventEnvelope(userCreated{UserID: "u1", Name: "Ada"}, "", "user.human.added")
	require.NoError(t, d.Dispatch(context.Background(), domain.ToAnyEnvelope(env)))

	assert.Equal(t, "u1", got.Payload.UserID)
}

func TestEventDispatcher_WildcardPatterns(t *testing.T) {
	d := domain.NewEventDispatcher()

	var mu sync.Mutex
	var seen []string
	record := func(ctx context.Context, env domain.EventEnvelope[userCreated]) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, env.EventType)
		return nil
	}

	require.NoError(t, domain.Subscribe(d, "user.*", record))
	require.NoError(t, domain.Subscribe(d, "*.added", record))

	env := domain.ToAnyEnvelope(domain.NewEventEnvelope(userCreated{UserID: "u1"}, "", "user.added"))
	require.NoError(t, d.Dispatch(context.Background(), env))

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 2)
}

func TestEventDispatcher_WildcardHandlerSeesEverything(t *testing.T) {
	d := domain.NewEventDispatcher()

	var count int
	var mu sync.Mutex
	require.NoError(t, d.SubscribeWildcard(func(ctx context.Context, env domain.EventEnvelope[any]) error {
		mu.Lock()
		defer mu.Unlock()
		count++
		return nil
	}))

	require.NoError(t, d.Dispatch(context.Background(), domain.ToAnyEnvelope(domain.NewEventEnvelope(userCreated{UserID: "u1"}, "", "org.created"))))
	require.NoError(t, d.Dispatch(context.Background(), domain.ToAnyEnvelope(domain.NewEventEnvelope(userCreated{UserID: "u2"}, "", "user.added"))))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, count)
}

func TestEventDispatcher_NoHandlersIsNotAnError(t *testing.T) {
	d := domain.NewEventDispatcher()
	err := d.Dispatch(context.Background(), domain.ToAnyEnvelope(domain.NewEventEnvelope(userCreated{UserID: "u1"}, "", "nothing.listens")))
	assert.NoError(t, err)
}

func TestEventDispatcher_HandlerErrorsAreAggregatedNotFatal(t *testing.T) {
	d := domain.NewEventDispatcher()

	require.NoError(t, domain.Subscribe(d, "user.added", func(ctx context.Context, env domain.EventEnvelope[userCreated]) error {
		return assert.AnError
	}))

	err := d.Dispatch(context.Background(), domain.ToAnyEnvelope(domain.NewEventEnvelope(userCreated{UserID: "u1"}, "", "user.added")))
	assert.Error(t, err)
}
