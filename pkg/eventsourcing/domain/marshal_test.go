package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

func TestWrapEvent(t *testing.T) {
	env, err := domain.WrapEvent(userCreated{UserID: "u1", Name: "Ada"}, "", "user.human.added")
	require.NoError(t, err)

	assert.Equal(t, "u1", env.AggregateID)
	assert.Equal(t, "user.human.added", env.EventType)
}
