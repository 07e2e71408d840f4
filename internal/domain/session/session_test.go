package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamcore/iamcore/pkg/domain"
)

func TestCreateClassic_RejectsEmptyUserID(t *testing.T) {
	_, err := CreateClassic("inst-1", "s1", "", "o1", "editor")
	assert.Equal(t, domain.KindInvalidArgument, domain.KindOf(err))
}

// TestCreateOIDC_PKCE mirrors spec.md §8 end-to-end scenario 7 verbatim:
// createOIDCSession(codeChallenge="x", codeChallengeMethod=undefined) →
// InvalidArgument("codeChallengeMethod required with codeChallenge").
func TestCreateOIDC_PKCE(t *testing.T) {
	_, err := CreateOIDC("inst-1", "s1", "u1", "o1", "x", "", "editor")
	assert.Equal(t, domain.KindInvalidArgument, domain.KindOf(err))

	_, err = CreateOIDC("inst-1", "s1", "u1", "o1", "", "S256", "editor")
	assert.Equal(t, domain.KindInvalidArgument, domain.KindOf(err))

	s, err := CreateOIDC("inst-1", "s1", "u1", "o1", "x", "S256", "editor")
	require.NoError(t, err)
	assert.Equal(t, "x", s.CodeChallenge)
}

func TestSessionLifecycle(t *testing.T) {
	s, err := CreateClassic("inst-1", "s1", "u1", "o1", "editor")
	require.NoError(t, err)

	require.NoError(t, s.VerifyFactor("password", "editor"))
	require.NoError(t, s.VerifyFactor("password", "editor")) // no-op, same method twice
	require.NoError(t, s.VerifyFactor("totp", "editor"))

	events := s.GetUncommittedEvents()
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.EventType
	}
	assert.Equal(t, []string{"session.added", "session.factor.verified", "session.factor.verified"}, types)
	assert.ElementsMatch(t, []string{"password", "totp"}, s.AMR)

	require.NoError(t, s.UpdateTokens([]string{"tok-1"}, "editor"))
	require.NoError(t, s.Terminate("editor"))
	assert.Equal(t, StateTerminated, s.State)

	err = s.VerifyFactor("password", "editor")
	assert.Equal(t, domain.KindFailedPrecondition, domain.KindOf(err))
}

func TestTerminate_NoOpWhenAlreadyTerminated(t *testing.T) {
	s, err := CreateClassic("inst-1", "s1", "u1", "o1", "editor")
	require.NoError(t, err)
	require.NoError(t, s.Terminate("editor"))
	s.ClearUncommittedEvents()

	require.NoError(t, s.Terminate("editor"))
	assert.Empty(t, s.GetUncommittedEvents())
}

func TestReduce_IsReplayEquivalent(t *testing.T) {
	s, err := CreateClassic("inst-1", "s1", "u1", "o1", "editor")
	require.NoError(t, err)
	require.NoError(t, s.VerifyFactor("password", "editor"))

	events := s.GetUncommittedEvents()
	replay1, err := Reduce("inst-1", "s1", events)
	require.NoError(t, err)
	replay2, err := Reduce("inst-1", "s1", events)
	require.NoError(t, err)

	assert.Equal(t, replay1.Factors, replay2.Factors)
	assert.Equal(t, replay1.GetSequenceNo(), replay2.GetSequenceNo())
}
