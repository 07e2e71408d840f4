package policy

import (
	"context"
	"fmt"

	policydomain "github.com/iamcore/iamcore/internal/domain/policy"
	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/pkg/application"
	"github.com/iamcore/iamcore/pkg/domain"
	esapp "github.com/iamcore/iamcore/pkg/eventsourcing/application"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
	"github.com/iamcore/iamcore/pkg/security"
)

// CommandHandlers follows the same load -> decide -> commit shape as
// internal/application/clientapp.CommandHandlers, including the same
// cross-aggregate uniqueness check before Add: a scope may have at most
// one policy of a given kind, which the Policy aggregate cannot see on
// its own.
type CommandHandlers struct {
	repo       *infrastructure.PolicyRepository
	store      esdomain.EventStore
	dispatcher *esdomain.EventDispatcher
	readModel  *infrastructure.PolicyProjectionGORM
}

func NewCommandHandlers(repo *infrastructure.PolicyRepository, store esdomain.EventStore, dispatcher *esdomain.EventDispatcher, readModel *infrastructure.PolicyProjectionGORM) *CommandHandlers {
	return &CommandHandlers{repo: repo, store: store, dispatcher: dispatcher, readModel: readModel}
}

func (h *CommandHandlers) Register(bus application.CommandBus) {
	bus.Register(AddPolicyCommand{}.CommandType(), h.handleAdd)
	bus.Register(ChangePolicyCommand{}.CommandType(), h.handleChange)
	bus.Register(RemovePolicyCommand{}.CommandType(), h.handleRemove)
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

func (h *CommandHandlers) load(ctx context.Context, instanceID, id string) (*policydomain.Policy, error) {
	p, err := h.repo.Load(ctx, instanceID, id)
	if err != nil {
		return nil, security.ClassifyForCaller(err, "POLICY-LOAD-001")
	}
	if !p.Exists() || p.State == policydomain.StateRemoved {
		return nil, domain.NewNotFound("POLICY-002", "policy not found")
	}
	return p, nil
}

func (h *CommandHandlers) handleAdd(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(AddPolicyCommand)
	exists, err := h.readModel.ExistsForScope(ctx, cmd.InstanceID, cmd.Kind, cmd.Scope, cmd.ScopeID)
	if err != nil {
		return fail(domain.NewInternal("POLICY-SCOPE-001", "failed to check existing policy for scope", err))
	}
	if exists {
		return fail(domain.NewAlreadyExists("POLICY-SCOPE-002", "a policy of this kind already exists for the scope"))
	}
	pol, err := policydomain.Add(cmd.InstanceID, cmd.ID, cmd.Kind, cmd.Scope, cmd.ScopeID, cmd.Settings, cmd.EditorUser)
	if err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, pol); err != nil {
		return fail(security.ClassifyForCaller(err, "POLICY-CREATE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleChange(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ChangePolicyCommand)
	pol, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := pol.Change(cmd.Settings, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, pol); err != nil {
		return fail(security.ClassifyForCaller(err, "POLICY-CHANGE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleRemove(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(RemovePolicyCommand)
	pol, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := pol.Remove(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, pol); err != nil {
		return fail(security.ClassifyForCaller(err, "POLICY-REMOVE-001"))
	}
	return empty(), nil
}
