package idp

import (
	"context"
	"fmt"

	idpdomain "github.com/iamcore/iamcore/internal/domain/idp"
	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/pkg/application"
	"github.com/iamcore/iamcore/pkg/domain"
	esapp "github.com/iamcore/iamcore/pkg/eventsourcing/application"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
	"github.com/iamcore/iamcore/pkg/security"
)

// CommandHandlers follows the same load -> decide -> commit shape as
// internal/application/clientapp.CommandHandlers; unlike Application and
// Policy, adding an IDP has no uniqueness invariant against its siblings,
// so no projection lookup happens before the constructors run.
type CommandHandlers struct {
	repo       *infrastructure.IDPRepository
	store      esdomain.EventStore
	dispatcher *esdomain.EventDispatcher
}

func NewCommandHandlers(repo *infrastructure.IDPRepository, store esdomain.EventStore, dispatcher *esdomain.EventDispatcher) *CommandHandlers {
	return &CommandHandlers{repo: repo, store: store, dispatcher: dispatcher}
}

func (h *CommandHandlers) Register(bus application.CommandBus) {
	bus.Register(AddOIDCIDPCommand{}.CommandType(), h.handleAddOIDC)
	bus.Register(AddJWTIDPCommand{}.CommandType(), h.handleAddJWT)
	bus.Register(AddSAMLIDPCommand{}.CommandType(), h.handleAddSAML)
	bus.Register(ChangeOIDCIDPCommand{}.CommandType(), h.handleChangeOIDC)
	bus.Register(ChangeJWTIDPCommand{}.CommandType(), h.handleChangeJWT)
	bus.Register(ChangeSAMLIDPCommand{}.CommandType(), h.handleChangeSAML)
	bus.Register(RemoveIDPCommand{}.CommandType(), h.handleRemove)
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

func (h *CommandHandlers) load(ctx context.Context, instanceID, id string) (*idpdomain.IDP, error) {
	i, err := h.repo.Load(ctx, instanceID, id)
	if err != nil {
		return nil, security.ClassifyForCaller(err, "IDP-LOAD-001")
	}
	if !i.Exists() || i.State == idpdomain.StateRemoved {
		return nil, domain.NewNotFound("IDP-002", "idp not found")
	}
	return i, nil
}

func (h *CommandHandlers) handleAddOIDC(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(AddOIDCIDPCommand)
	i, err := idpdomain.AddOIDC(cmd.InstanceID, cmd.ID, cmd.Scope, cmd.ScopeID, cmd.IssuerURL, cmd.ClientID, cmd.ClientSecret, cmd.EditorUser)
	if err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, i); err != nil {
		return fail(security.ClassifyForCaller(err, "IDP-CREATE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleAddJWT(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(AddJWTIDPCommand)
	i, err := idpdomain.AddJWT(cmd.InstanceID, cmd.ID, cmd.Scope, cmd.ScopeID, cmd.JWTEndpoint, cmd.KeysEndpoint, cmd.HeaderName, cmd.EditorUser)
	if err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, i); err != nil {
		return fail(security.ClassifyForCaller(err, "IDP-CREATE-002"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleAddSAML(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(AddSAMLIDPCommand)
	i, err := idpdomain.AddSAML(cmd.InstanceID, cmd.ID, cmd.Scope, cmd.ScopeID, cmd.Metadata, cmd.MetadataURL, cmd.EditorUser)
	if err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, i); err != nil {
		return fail(security.ClassifyForCaller(err, "IDP-CREATE-003"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleChangeOIDC(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ChangeOIDCIDPCommand)
	i, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := i.ChangeOIDC(cmd.IssuerURL, cmd.ClientID, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, i); err != nil {
		return fail(security.ClassifyForCaller(err, "IDP-CHANGE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleChangeJWT(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ChangeJWTIDPCommand)
	i, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := i.ChangeJWT(cmd.JWTEndpoint, cmd.KeysEndpoint, cmd.HeaderName, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, i); err != nil {
		return fail(security.ClassifyForCaller(err, "IDP-CHANGE-002"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleChangeSAML(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ChangeSAMLIDPCommand)
	i, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := i.ChangeSAML(cmd.Metadata, cmd.MetadataURL, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, i); err != nil {
		return fail(security.ClassifyForCaller(err, "IDP-CHANGE-003"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleRemove(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(RemoveIDPCommand)
	i, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := i.RemoveIDP(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, i); err != nil {
		return fail(security.ClassifyForCaller(err, "IDP-REMOVE-001"))
	}
	return empty(), nil
}
