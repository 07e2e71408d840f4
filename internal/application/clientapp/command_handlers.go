package clientapp

import (
	"context"
	"fmt"

	appdomain "github.com/iamcore/iamcore/internal/domain/application"
	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/pkg/application"
	"github.com/iamcore/iamcore/pkg/domain"
	esapp "github.com/iamcore/iamcore/pkg/eventsourcing/application"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
	"github.com/iamcore/iamcore/pkg/security"
)

// CommandHandlers follows the same load -> decide -> commit shape as
// internal/application/org.CommandHandlers. Client ID / SAML entity ID
// uniqueness is checked against the projection read model before the
// aggregate is created, since the aggregate has no way to see sibling
// aggregates.
type CommandHandlers struct {
	repo       *infrastructure.ClientAppRepository
	store      esdomain.EventStore
	dispatcher *esdomain.EventDispatcher
	readModel  *infrastructure.ClientAppProjectionGORM
}

func NewCommandHandlers(repo *infrastructure.ClientAppRepository, store esdomain.EventStore, dispatcher *esdomain.EventDispatcher, readModel *infrastructure.ClientAppProjectionGORM) *CommandHandlers {
	return &CommandHandlers{repo: repo, store: store, dispatcher: dispatcher, readModel: readModel}
}

func (h *CommandHandlers) Register(bus application.CommandBus) {
	bus.Register(AddOIDCAppCommand{}.CommandType(), h.handleAddOIDC)
	bus.Register(AddAPIAppCommand{}.CommandType(), h.handleAddAPI)
	bus.Register(AddSAMLAppCommand{}.CommandType(), h.handleAddSAML)
	bus.Register(ChangeOIDCAppConfigCommand{}.CommandType(), h.handleChangeOIDCConfig)
	bus.Register(ChangeSAMLAppConfigCommand{}.CommandType(), h.handleChangeSAMLConfig)
	bus.Register(ChangeAPIAppAuthMethodCommand{}.CommandType(), h.handleChangeAPIAuthMethod)
	bus.Register(DeactivateAppCommand{}.CommandType(), h.handleDeactivate)
	bus.Register(ReactivateAppCommand{}.CommandType(), h.handleReactivate)
	bus.Register(RemoveAppCommand{}.CommandType(), h.handleRemove)
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

func (h *CommandHandlers) load(ctx context.Context, instanceID, id string) (*appdomain.Application, error) {
	a, err := h.repo.Load(ctx, instanceID, id)
	if err != nil {
		return nil, security.ClassifyForCaller(err, "APP-LOAD-001")
	}
	if !a.Exists() {
		return nil, domain.NewNotFound("APP-002", "application not found")
	}
	return a, nil
}

func (h *CommandHandlers) handleAddOIDC(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(AddOIDCAppCommand)
	if err := cmd.Validate(); err != nil {
		return fail(err)
	}
	if taken, err := h.readModel.ClientIDTaken(ctx, cmd.InstanceID, cmd.ClientID); err != nil {
		return fail(domain.NewInternal("APP-CLIENTID-001", "failed to check client id uniqueness", err))
	} else if taken {
		return fail(domain.NewAlreadyExists("APP-CLIENTID-002", "client id already in use"))
	}
	a, err := appdomain.AddOIDC(cmd.InstanceID, cmd.ID, cmd.ProjectID, cmd.ClientID, cmd.AppType, cmd.RedirectURIs, cmd.AuthMethod, cmd.EditorUser)
	if err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, a); err != nil {
		return fail(security.ClassifyForCaller(err, "APP-CREATE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleAddAPI(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(AddAPIAppCommand)
	if taken, err := h.readModel.ClientIDTaken(ctx, cmd.InstanceID, cmd.ClientID); err != nil {
		return fail(domain.NewInternal("APP-CLIENTID-001", "failed to check client id uniqueness", err))
	} else if taken {
		return fail(domain.NewAlreadyExists("APP-CLIENTID-002", "client id already in use"))
	}
	a, err := appdomain.AddAPI(cmd.InstanceID, cmd.ID, cmd.ProjectID, cmd.ClientID, cmd.AuthMethod, cmd.EditorUser)
	if err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, a); err != nil {
		return fail(security.ClassifyForCaller(err, "APP-CREATE-002"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleAddSAML(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(AddSAMLAppCommand)
	if taken, err := h.readModel.EntityIDTaken(ctx, cmd.InstanceID, cmd.EntityID); err != nil {
		return fail(domain.NewInternal("APP-ENTITYID-001", "failed to check entity id uniqueness", err))
	} else if taken {
		return fail(domain.NewAlreadyExists("APP-ENTITYID-002", "entity id already in use"))
	}
	a, err := appdomain.AddSAML(cmd.InstanceID, cmd.ID, cmd.ProjectID, cmd.EntityID, cmd.Metadata, cmd.MetadataURL, cmd.EditorUser)
	if err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, a); err != nil {
		return fail(security.ClassifyForCaller(err, "APP-CREATE-003"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleChangeOIDCConfig(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ChangeOIDCAppConfigCommand)
	a, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := a.ChangeOIDCConfig(cmd.AppType, cmd.RedirectURIs, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, a); err != nil {
		return fail(security.ClassifyForCaller(err, "APP-OIDC-CONFIG-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleChangeSAMLConfig(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ChangeSAMLAppConfigCommand)
	a, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := a.ChangeSAMLConfig(cmd.Metadata, cmd.MetadataURL, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, a); err != nil {
		return fail(security.ClassifyForCaller(err, "APP-SAML-CONFIG-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleChangeAPIAuthMethod(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ChangeAPIAppAuthMethodCommand)
	a, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := a.ChangeAPIAppAuthMethod(cmd.AuthMethod, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, a); err != nil {
		return fail(security.ClassifyForCaller(err, "APP-API-AUTH-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleDeactivate(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(DeactivateAppCommand)
	a, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := a.Deactivate(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, a); err != nil {
		return fail(security.ClassifyForCaller(err, "APP-STATE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleReactivate(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ReactivateAppCommand)
	a, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := a.Reactivate(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, a); err != nil {
		return fail(security.ClassifyForCaller(err, "APP-STATE-002"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleRemove(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(RemoveAppCommand)
	a, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := a.Remove(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, a); err != nil {
		return fail(security.ClassifyForCaller(err, "APP-REMOVE-001"))
	}
	return empty(), nil
}
