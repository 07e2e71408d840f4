package project

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/pkg/application"
	esinfra "github.com/iamcore/iamcore/pkg/eventsourcing/infrastructure"
)

func newTestHandlers(t *testing.T) (*CommandHandlers, *infrastructure.ProjectRepository) {
	t.Helper()
	store := esinfra.NewMemoryStore()
	repo := infrastructure.NewProjectRepository(store)
	return NewCommandHandlers(repo, store, nil), repo
}

func TestCreateThenAddRoleThenGrant(t *testing.T) {
	handlers, repo := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)
	ctx := context.Background()
	log := application.NewMockLogger()

	require.NoError(t, bus.Handle(ctx, log, CreateProjectCommand{InstanceID: "inst-1", ID: "p1", Name: "Widgets", EditorUser: "editor"}))
	require.NoError(t, bus.Handle(ctx, log, AddProjectRoleCommand{InstanceID: "inst-1", ID: "p1", Key: "VIEWER", DisplayName: "Viewer", EditorUser: "editor"}))
	require.NoError(t, bus.Handle(ctx, log, AddProjectGrantCommand{
		InstanceID: "inst-1", ID: "p1", GrantID: "g1", GrantedOrgID: "org-1", RoleKeys: []string{"VIEWER"}, EditorUser: "editor",
	}))

	p, err := repo.Load(ctx, "inst-1", "p1")
	require.NoError(t, err)
	assert.Len(t, p.Roles, 1)
	require.Contains(t, p.Grants, "g1")
	assert.Equal(t, []string{"VIEWER"}, p.Grants["g1"].RoleKeys)
}

func TestAddGrant_RejectsRoleKeyOutsideProject(t *testing.T) {
	handlers, _ := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)
	ctx := context.Background()
	log := application.NewMockLogger()

	require.NoError(t, bus.Handle(ctx, log, CreateProjectCommand{InstanceID: "inst-1", ID: "p2", Name: "Widgets", EditorUser: "editor"}))

	err := bus.Handle(ctx, log, AddProjectGrantCommand{
		InstanceID: "inst-1", ID: "p2", GrantID: "g1", GrantedOrgID: "org-1", RoleKeys: []string{"NOPE"}, EditorUser: "editor",
	})
	assert.Error(t, err)
}

func TestAddGrantMember_ThenRemove(t *testing.T) {
	handlers, repo := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)
	ctx := context.Background()
	log := application.NewMockLogger()

	require.NoError(t, bus.Handle(ctx, log, CreateProjectCommand{InstanceID: "inst-1", ID: "p3", Name: "Widgets", EditorUser: "editor"}))
	require.NoError(t, bus.Handle(ctx, log, AddProjectRoleCommand{InstanceID: "inst-1", ID: "p3", Key: "VIEWER", DisplayName: "Viewer", EditorUser: "editor"}))
	require.NoError(t, bus.Handle(ctx, log, AddProjectGrantCommand{
		InstanceID: "inst-1", ID: "p3", GrantID: "g1", GrantedOrgID: "org-1", RoleKeys: []string{"VIEWER"}, EditorUser: "editor",
	}))
	require.NoError(t, bus.Handle(ctx, log, AddProjectGrantMemberCommand{
		InstanceID: "inst-1", ID: "p3", GrantID: "g1", UserID: "u1", Roles: []string{"VIEWER"}, EditorUser: "editor",
	}))

	p, err := repo.Load(ctx, "inst-1", "p3")
	require.NoError(t, err)
	require.Contains(t, p.Grants["g1"].Members, "u1")

	require.NoError(t, bus.Handle(ctx, log, RemoveProjectGrantMemberCommand{InstanceID: "inst-1", ID: "p3", GrantID: "g1", UserID: "u1", EditorUser: "editor"}))
	p, err = repo.Load(ctx, "inst-1", "p3")
	require.NoError(t, err)
	assert.NotContains(t, p.Grants["g1"].Members, "u1")
}

func TestChange_NotFoundReturnsNotFound(t *testing.T) {
	handlers, _ := newTestHandlers(t)
	bus := application.NewCommandBus()
	handlers.Register(bus)

	err := bus.Handle(context.Background(), application.NewMockLogger(), ChangeProjectCommand{InstanceID: "inst-1", ID: "missing", Name: "x", EditorUser: "editor"})
	require.Error(t, err)
}
