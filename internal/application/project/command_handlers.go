package project

import (
	"context"
	"fmt"

	"github.com/iamcore/iamcore/internal/domain/project"
	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/pkg/application"
	"github.com/iamcore/iamcore/pkg/domain"
	esapp "github.com/iamcore/iamcore/pkg/eventsourcing/application"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
	"github.com/iamcore/iamcore/pkg/security"
)

// CommandHandlers follows the same load -> decide -> commit shape as
// internal/application/org.CommandHandlers.
type CommandHandlers struct {
	repo       *infrastructure.ProjectRepository
	store      esdomain.EventStore
	dispatcher *esdomain.EventDispatcher
}

func NewCommandHandlers(repo *infrastructure.ProjectRepository, store esdomain.EventStore, dispatcher *esdomain.EventDispatcher) *CommandHandlers {
	return &CommandHandlers{repo: repo, store: store, dispatcher: dispatcher}
}

func (h *CommandHandlers) Register(bus application.CommandBus) {
	bus.Register(CreateProjectCommand{}.CommandType(), h.handleCreate)
	bus.Register(ChangeProjectCommand{}.CommandType(), h.handleChange)
	bus.Register(DeactivateProjectCommand{}.CommandType(), h.handleDeactivate)
	bus.Register(ReactivateProjectCommand{}.CommandType(), h.handleReactivate)
	bus.Register(RemoveProjectCommand{}.CommandType(), h.handleRemove)
	bus.Register(AddProjectRoleCommand{}.CommandType(), h.handleAddRole)
	bus.Register(ChangeProjectRoleCommand{}.CommandType(), h.handleChangeRole)
	bus.Register(RemoveProjectRoleCommand{}.CommandType(), h.handleRemoveRole)
	bus.Register(AddProjectGrantCommand{}.CommandType(), h.handleAddGrant)
	bus.Register(ChangeProjectGrantCommand{}.CommandType(), h.handleChangeGrant)
	bus.Register(DeactivateProjectGrantCommand{}.CommandType(), h.handleDeactivateGrant)
	bus.Register(ReactivateProjectGrantCommand{}.CommandType(), h.handleReactivateGrant)
	bus.Register(RemoveProjectGrantCommand{}.CommandType(), h.handleRemoveGrant)
	bus.Register(AddProjectMemberCommand{}.CommandType(), h.handleAddMember)
	bus.Register(ChangeProjectMemberCommand{}.CommandType(), h.handleChangeMember)
	bus.Register(RemoveProjectMemberCommand{}.CommandType(), h.handleRemoveMember)
	bus.Register(AddProjectGrantMemberCommand{}.CommandType(), h.handleAddGrantMember)
	bus.Register(ChangeProjectGrantMemberCommand{}.CommandType(), h.handleChangeGrantMember)
	bus.Register(RemoveProjectGrantMemberCommand{}.CommandType(), h.handleRemoveGrantMember)
}

func empty() application.Response[struct{}] { return application.Response[struct{}]{Data: struct{}{}} }

func fail(err error) (application.Response[struct{}], error) {
	return application.Response[struct{}]{Error: err}, err
}

func (h *CommandHandlers) commit(ctx context.Context, instanceID string, entity esdomain.Entity) error {
	uow := esapp.NewSimpleUnitOfWork(instanceID, h.store, h.dispatcher)
	if err := uow.Track(entity); err != nil {
		return fmt.Errorf("track %s: %w", entity.GetID(), err)
	}
	return uow.Commit(ctx)
}

func (h *CommandHandlers) load(ctx context.Context, instanceID, id string) (*project.Project, error) {
	p, err := h.repo.Load(ctx, instanceID, id)
	if err != nil {
		return nil, security.ClassifyForCaller(err, "PROJECT-LOAD-001")
	}
	if !p.Exists() {
		return nil, domain.NewNotFound("PROJECT-002", "project not found")
	}
	return p, nil
}

func (h *CommandHandlers) handleCreate(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(CreateProjectCommand)
	if err := cmd.Validate(); err != nil {
		return fail(err)
	}
	proj, err := project.New(cmd.InstanceID, cmd.ID, cmd.Name, cmd.EditorUser)
	if err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, proj); err != nil {
		return fail(security.ClassifyForCaller(err, "PROJECT-CREATE-001"))
	}
	log.Info("project created", "instanceId", cmd.InstanceID, "projectId", cmd.ID)
	return empty(), nil
}

func (h *CommandHandlers) handleChange(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ChangeProjectCommand)
	proj, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := proj.Change(cmd.Name, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, proj); err != nil {
		return fail(security.ClassifyForCaller(err, "PROJECT-CHANGE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleDeactivate(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(DeactivateProjectCommand)
	proj, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := proj.Deactivate(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, proj); err != nil {
		return fail(security.ClassifyForCaller(err, "PROJECT-STATE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleReactivate(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ReactivateProjectCommand)
	proj, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := proj.Reactivate(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, proj); err != nil {
		return fail(security.ClassifyForCaller(err, "PROJECT-STATE-002"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleRemove(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(RemoveProjectCommand)
	proj, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := proj.Remove(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, proj); err != nil {
		return fail(security.ClassifyForCaller(err, "PROJECT-REMOVE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleAddRole(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(AddProjectRoleCommand)
	proj, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := proj.AddRole(cmd.Key, cmd.DisplayName, cmd.Group, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, proj); err != nil {
		return fail(security.ClassifyForCaller(err, "PROJECT-ROLE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleChangeRole(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ChangeProjectRoleCommand)
	proj, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := proj.ChangeRole(cmd.Key, cmd.DisplayName, cmd.Group, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, proj); err != nil {
		return fail(security.ClassifyForCaller(err, "PROJECT-ROLE-002"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleRemoveRole(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(RemoveProjectRoleCommand)
	proj, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := proj.RemoveRole(cmd.Key, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, proj); err != nil {
		return fail(security.ClassifyForCaller(err, "PROJECT-ROLE-003"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleAddGrant(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(AddProjectGrantCommand)
	proj, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := proj.AddGrant(cmd.GrantID, cmd.GrantedOrgID, cmd.RoleKeys, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, proj); err != nil {
		return fail(security.ClassifyForCaller(err, "PROJECT-GRANT-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleChangeGrant(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ChangeProjectGrantCommand)
	proj, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := proj.ChangeGrant(cmd.GrantID, cmd.RoleKeys, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, proj); err != nil {
		return fail(security.ClassifyForCaller(err, "PROJECT-GRANT-002"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleDeactivateGrant(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(DeactivateProjectGrantCommand)
	proj, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := proj.DeactivateGrant(cmd.GrantID, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, proj); err != nil {
		return fail(security.ClassifyForCaller(err, "PROJECT-GRANT-003"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleReactivateGrant(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ReactivateProjectGrantCommand)
	proj, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := proj.ReactivateGrant(cmd.GrantID, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, proj); err != nil {
		return fail(security.ClassifyForCaller(err, "PROJECT-GRANT-004"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleRemoveGrant(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(RemoveProjectGrantCommand)
	proj, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := proj.RemoveGrant(cmd.GrantID, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, proj); err != nil {
		return fail(security.ClassifyForCaller(err, "PROJECT-GRANT-005"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleAddMember(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(AddProjectMemberCommand)
	proj, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := proj.AddMember(cmd.UserID, cmd.Roles, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, proj); err != nil {
		return fail(security.ClassifyForCaller(err, "PROJECT-MEMBER-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleChangeMember(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ChangeProjectMemberCommand)
	proj, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := proj.ChangeMember(cmd.UserID, cmd.Roles, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, proj); err != nil {
		return fail(security.ClassifyForCaller(err, "PROJECT-MEMBER-002"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleRemoveMember(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(RemoveProjectMemberCommand)
	proj, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := proj.RemoveMember(cmd.UserID, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, proj); err != nil {
		return fail(security.ClassifyForCaller(err, "PROJECT-MEMBER-003"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleAddGrantMember(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(AddProjectGrantMemberCommand)
	proj, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := proj.AddGrantMember(cmd.GrantID, cmd.UserID, cmd.Roles, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, proj); err != nil {
		return fail(security.ClassifyForCaller(err, "PROJECT-GRANT-MEMBER-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleChangeGrantMember(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ChangeProjectGrantMemberCommand)
	proj, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := proj.ChangeGrantMember(cmd.GrantID, cmd.UserID, cmd.Roles, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, proj); err != nil {
		return fail(security.ClassifyForCaller(err, "PROJECT-GRANT-MEMBER-002"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleRemoveGrantMember(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(RemoveProjectGrantMemberCommand)
	proj, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := proj.RemoveGrantMember(cmd.GrantID, cmd.UserID, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, proj); err != nil {
		return fail(security.ClassifyForCaller(err, "PROJECT-GRANT-MEMBER-003"))
	}
	return empty(), nil
}
