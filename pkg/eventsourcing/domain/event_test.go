package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

type userCreated struct {
	UserID string
	Name   string
}

func (e userCreated) GetAggregateID() string { return e.UserID }

func TestNewEventEnvelope_ExtractsAggregateIDFromEvent(t *testing.T) {
	env := domain.NewEventEnvelope(userCreated{UserID: "user-1", Name: "Ada"}, "", "user.human.added")

	assert.Equal(t, "user-1", env.AggregateID)
	assert.Equal(t, "user.human.added", env.EventType)
	assert.NotEmpty(t, env.ID)
	assert.False(t, env.Created.IsZero())
}

func TestNewEventEnvelope_FallsBackToProvidedAggregateID(t *testing.T) {
	type anonymousPayload struct{ Foo string }

	env := domain.NewEventEnvelope(anonymousPayload{Foo: "bar"}, "provided-id", "thing.happened")

	assert.Equal(t, "provided-id", env.AggregateID)
}

func TestEventEnvelope_KSUIDsAreUnique(t *testing.T) {
	env1 := domain.NewEventEnvelope(userCreated{UserID: "u1"}, "", "user.human.added")
	env2 := domain.NewEventEnvelope(userCreated{UserID: "u2"}, "", "user.human.added")

	assert.NotEqual(t, env1.ID, env2.ID)
}

func TestPosition_Ordering(t *testing.T) {
	p1 := domain.Position{Base: 1, Order: 0}
	p2 := domain.Position{Base: 1, Order: 1}
	p3 := domain.Position{Base: 2, Order: 0}

	assert.True(t, p1.Less(p2))
	assert.True(t, p2.Less(p3))
	assert.False(t, p3.Less(p1))
	assert.Equal(t, 0, p1.Compare(p1))
	assert.True(t, domain.Position{}.IsZero())
	assert.False(t, p1.IsZero())
}

func TestEventEnvelope_JSONRoundTrip(t *testing.T) {
	env := domain.NewEventEnvelope(userCreated{UserID: "u1", Name: "Ada"}, "", "user.human.added")
	env.InstanceID = "tenant-1"
	env.AggregateType = "user.human"
	env.AggregateVersion = 1
	env.Position = domain.Position{Base: 42, Order: 0}

	data, err := domain.MarshalEventToJSON(env)
	require.NoError(t, err)

	decoded, err := domain.UnmarshalEventFromJSON[userCreated](data)
	require.NoError(t, err)

	assert.Equal(t, env.ID, decoded.ID)
	assert.Equal(t, env.InstanceID, decoded.InstanceID)
	assert.Equal(t, env.Position, decoded.Position)
	assert.Equal(t, env.Payload, decoded.Payload)
}

func TestToAnyEnvelope(t *testing.T) {
	env := domain.NewEventEnvelope(userCreated{UserID: "u1"}, "", "user.human.added")
	env.AggregateVersion = 3

	anyEnv := domain.ToAnyEnvelope(env)

	assert.Equal(t, env.ID, anyEnv.ID)
	assert.Equal(t, env.AggregateVersion, anyEnv.AggregateVersion)
	assert.Equal(t, env.Payload, anyEnv.Payload.(userCreated))
}
