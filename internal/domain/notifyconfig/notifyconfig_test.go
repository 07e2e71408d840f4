package notifyconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamcore/iamcore/pkg/domain"
)

// TestSMTPActivation_IdempotentOnSecondCall mirrors spec.md §8 end-to-end
// scenario 5 verbatim: after activateSMTPConfig(id), calling it again emits
// no new event; projection state remains ACTIVE.
func TestSMTPActivation_IdempotentOnSecondCall(t *testing.T) {
	c, err := AddSMTP("inst-1", "c1", "smtp.acme.com", 587, "bot", "secret", "editor")
	require.NoError(t, err)

	require.NoError(t, c.Activate("editor"))
	assert.Equal(t, StateActive, c.State)
	c.ClearUncommittedEvents()

	require.NoError(t, c.Activate("editor"))
	assert.Empty(t, c.GetUncommittedEvents())
	assert.Equal(t, StateActive, c.State)
}

func TestAddSMTP_RejectsEmptyHost(t *testing.T) {
	_, err := AddSMTP("inst-1", "c1", "", 587, "", "", "editor")
	assert.Equal(t, domain.KindInvalidArgument, domain.KindOf(err))
}

func TestAddSMS_RejectsUnknownProvider(t *testing.T) {
	_, err := AddSMS("inst-1", "c1", "sendgrid", nil, "editor")
	assert.Equal(t, domain.KindInvalidArgument, domain.KindOf(err))
}

func TestSMSLifecycle(t *testing.T) {
	c, err := AddSMS("inst-1", "c1", "twilio", map[string]any{"accountSid": "AC1"}, "editor")
	require.NoError(t, err)

	require.NoError(t, c.Activate("editor"))
	assert.Equal(t, StateActive, c.State)

	require.NoError(t, c.Deactivate("editor"))
	assert.Equal(t, StateInactive, c.State)

	require.NoError(t, c.Remove("editor"))
	assert.Equal(t, StateRemoved, c.State)
}

func TestReduceSMTP_IsReplayEquivalent(t *testing.T) {
	c, err := AddSMTP("inst-1", "c1", "smtp.acme.com", 587, "bot", "secret", "editor")
	require.NoError(t, err)
	require.NoError(t, c.Activate("editor"))

	events := c.GetUncommittedEvents()
	replay1, err := ReduceSMTP("inst-1", "c1", events)
	require.NoError(t, err)
	replay2, err := ReduceSMTP("inst-1", "c1", events)
	require.NoError(t, err)

	assert.Equal(t, replay1.State, replay2.State)
	assert.Equal(t, replay1.GetSequenceNo(), replay2.GetSequenceNo())
}
