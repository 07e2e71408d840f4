package action

import (
	"context"
	"fmt"

	"github.com/iamcore/iamcore/internal/domain/action"
	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/pkg/application"
	"github.com/iamcore/iamcore/pkg/domain"
	esapp "github.com/iamcore/iamcore/pkg/eventsourcing/application"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
	"github.com/iamcore/iamcore/pkg/security"
)

// CommandHandlers covers both the Action and Execution aggregates, the
// same one-package-two-aggregate-types split internal/domain/action uses.
type CommandHandlers struct {
	repo       *infrastructure.ActionRepository
	store      esdomain.EventStore
	dispatcher *esdomain.EventDispatcher
}

func NewCommandHandlers(repo *infrastructure.ActionRepository, store esdomain.EventStore, dispatcher *esdomain.EventDispatcher) *CommandHandlers {
	return &CommandHandlers{repo: repo, store: store, dispatcher: dispatcher}
}

func (h *CommandHandlers) Register(bus application.CommandBus) {
	bus.Register(AddActionCommand{}.CommandType(), h.handleAdd)
	bus.Register(ChangeActionCommand{}.CommandType(), h.handleChange)
	bus.Register(DeactivateActionCommand{}.CommandType(), h.handleDeactivate)
	bus.Register(ReactivateActionCommand{}.CommandType(), h.handleReactivate)
	bus.Register(RemoveActionCommand{}.CommandType(), h.handleRemove)

	bus.Register(AddExecutionCommand{}.CommandType(), h.handleAddExecution)
	bus.Register(ChangeExecutionCommand{}.CommandType(), h.handleChangeExecution)
	bus.Register(RemoveExecutionCommand{}.CommandType(), h.handleRemoveExecution)
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

func (h *CommandHandlers) loadAction(ctx context.Context, instanceID, id string) (*action.Action, error) {
	a, err := h.repo.LoadAction(ctx, instanceID, id)
	if err != nil {
		return nil, security.ClassifyForCaller(err, "ACTION-LOAD-001")
	}
	if !a.Exists() || a.State == action.StateRemoved {
		return nil, domain.NewNotFound("ACTION-003", "instance action not found")
	}
	return a, nil
}

func (h *CommandHandlers) loadExecution(ctx context.Context, instanceID, id string) (*action.Execution, error) {
	e, err := h.repo.LoadExecution(ctx, instanceID, id)
	if err != nil {
		return nil, security.ClassifyForCaller(err, "EXECUTION-LOAD-001")
	}
	if !e.Exists() || e.Removed {
		return nil, domain.NewNotFound("EXECUTION-002", "instance execution not found")
	}
	return e, nil
}

// handleAdd loads the (possibly nonexistent) aggregate first: AddWithID
// itself decides whether a caller-specified ID collides with a live
// action, per action.AddWithID's own doc comment.
func (h *CommandHandlers) handleAdd(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(AddActionCommand)
	existing, err := h.repo.LoadAction(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(security.ClassifyForCaller(err, "ACTION-LOAD-002"))
	}
	a, err := action.AddWithID(existing, cmd.Name, cmd.Script, cmd.AllowedToFail, cmd.EditorUser)
	if err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, a); err != nil {
		return fail(security.ClassifyForCaller(err, "ACTION-CREATE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleChange(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ChangeActionCommand)
	a, err := h.loadAction(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := a.Change(cmd.Name, cmd.Script, cmd.AllowedToFail, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, a); err != nil {
		return fail(security.ClassifyForCaller(err, "ACTION-CHANGE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleDeactivate(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(DeactivateActionCommand)
	a, err := h.loadAction(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := a.Deactivate(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, a); err != nil {
		return fail(security.ClassifyForCaller(err, "ACTION-DEACTIVATE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleReactivate(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ReactivateActionCommand)
	a, err := h.loadAction(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := a.Reactivate(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, a); err != nil {
		return fail(security.ClassifyForCaller(err, "ACTION-REACTIVATE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleRemove(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(RemoveActionCommand)
	a, err := h.loadAction(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := a.Remove(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, a); err != nil {
		return fail(security.ClassifyForCaller(err, "ACTION-REMOVE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleAddExecution(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(AddExecutionCommand)
	e, err := action.NewExecution(cmd.InstanceID, cmd.ID, cmd.Targets, cmd.EditorUser)
	if err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, e); err != nil {
		return fail(security.ClassifyForCaller(err, "EXECUTION-CREATE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleChangeExecution(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ChangeExecutionCommand)
	e, err := h.loadExecution(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := e.Change(cmd.Targets, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, e); err != nil {
		return fail(security.ClassifyForCaller(err, "EXECUTION-CHANGE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleRemoveExecution(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(RemoveExecutionCommand)
	e, err := h.loadExecution(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := e.Remove(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, e); err != nil {
		return fail(security.ClassifyForCaller(err, "EXECUTION-REMOVE-001"))
	}
	return empty(), nil
}
