package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamcore/iamcore/pkg/domain"
)

func freshAction(instanceID, id string) *Action {
	a, _ := Reduce(instanceID, id, nil)
	return a
}

// TestAddWithID_RejectsReaddOnLiveAction mirrors spec.md §4.3's literal
// decision example: addInstanceActionWithID when the aggregate already has
// instance.action.added and no …removed → AlreadyExists.
func TestAddWithID_RejectsReaddOnLiveAction(t *testing.T) {
	a, err := AddWithID(freshAction("inst-1", "a1"), "notify-slack", "echo hi", false, "editor")
	require.NoError(t, err)

	_, err = AddWithID(a, "notify-slack-2", "echo hi", false, "editor")
	assert.Equal(t, domain.KindAlreadyExists, domain.KindOf(err))
}

func TestAddWithID_AllowsReaddAfterRemoval(t *testing.T) {
	a, err := AddWithID(freshAction("inst-1", "a1"), "notify-slack", "echo hi", false, "editor")
	require.NoError(t, err)
	require.NoError(t, a.Remove("editor"))

	removed, err := Reduce("inst-1", "a1", a.GetUncommittedEvents())
	require.NoError(t, err)

	_, err = AddWithID(removed, "notify-slack-v2", "echo hi v2", false, "editor")
	assert.NoError(t, err)
}

// TestDeactivate_WhenNotActive mirrors spec.md §4.3's literal decision
// example: deactivateInstanceAction when state is not ACTIVE →
// FailedPrecondition("instance action is not active").
func TestDeactivate_WhenNotActive(t *testing.T) {
	a, err := AddWithID(freshAction("inst-1", "a1"), "notify-slack", "echo hi", false, "editor")
	require.NoError(t, err)
	require.NoError(t, a.Deactivate("editor"))

	err = a.Deactivate("editor")
	assert.Equal(t, domain.KindFailedPrecondition, domain.KindOf(err))
}

func TestActionLifecycle(t *testing.T) {
	a, err := AddWithID(freshAction("inst-1", "a1"), "notify-slack", "echo hi", false, "editor")
	require.NoError(t, err)

	require.NoError(t, a.Deactivate("editor"))
	require.NoError(t, a.Reactivate("editor"))
	assert.Equal(t, StateActive, a.State)

	require.NoError(t, a.Remove("editor"))
	assert.Equal(t, StateRemoved, a.State)
}

func TestExecutionLifecycle(t *testing.T) {
	e, err := NewExecution("inst-1", "e1", []string{"action:a1"}, "editor")
	require.NoError(t, err)

	require.NoError(t, e.Change([]string{"action:a1", "action:a2"}, "editor"))
	assert.Equal(t, []string{"action:a1", "action:a2"}, e.Targets)

	e.ClearUncommittedEvents()
	require.NoError(t, e.Change([]string{"action:a1", "action:a2"}, "editor"))
	assert.Empty(t, e.GetUncommittedEvents())

	require.NoError(t, e.Remove("editor"))
	assert.True(t, e.Removed)
}

func TestNewExecution_RejectsEmptyTargets(t *testing.T) {
	_, err := NewExecution("inst-1", "e1", nil, "editor")
	assert.Equal(t, domain.KindInvalidArgument, domain.KindOf(err))
}
