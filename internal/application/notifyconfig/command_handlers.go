package notifyconfig

import (
	"context"
	"fmt"

	"github.com/iamcore/iamcore/internal/domain/notifyconfig"
	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/pkg/application"
	"github.com/iamcore/iamcore/pkg/domain"
	esapp "github.com/iamcore/iamcore/pkg/eventsourcing/application"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
	"github.com/iamcore/iamcore/pkg/security"
)

// CommandHandlers covers both SMTP and SMS configs, same as
// internal/domain/notifyconfig sharing one package for both aggregate
// types. Activating either kind enforces "at most one active config per
// instance" (per that package's own doc comment) by first listing and
// deactivating every other currently-active config of the same kind from
// the projection, then activating the requested one — the same
// load-affected-IDs-from-the-projection-then-fan-out shape
// internal/application/session uses for its global terminations.
type CommandHandlers struct {
	repo       *infrastructure.NotifyConfigRepository
	store      esdomain.EventStore
	dispatcher *esdomain.EventDispatcher
	readModel  *infrastructure.NotifyConfigProjectionGORM
}

func NewCommandHandlers(repo *infrastructure.NotifyConfigRepository, store esdomain.EventStore, dispatcher *esdomain.EventDispatcher, readModel *infrastructure.NotifyConfigProjectionGORM) *CommandHandlers {
	return &CommandHandlers{repo: repo, store: store, dispatcher: dispatcher, readModel: readModel}
}

func (h *CommandHandlers) Register(bus application.CommandBus) {
	bus.Register(AddSMTPConfigCommand{}.CommandType(), h.handleAddSMTP)
	bus.Register(ChangeSMTPConfigCommand{}.CommandType(), h.handleChangeSMTP)
	bus.Register(ActivateSMTPConfigCommand{}.CommandType(), h.handleActivateSMTP)
	bus.Register(DeactivateSMTPConfigCommand{}.CommandType(), h.handleDeactivateSMTP)
	bus.Register(RemoveSMTPConfigCommand{}.CommandType(), h.handleRemoveSMTP)

	bus.Register(AddSMSConfigCommand{}.CommandType(), h.handleAddSMS)
	bus.Register(ChangeSMSConfigCommand{}.CommandType(), h.handleChangeSMS)
	bus.Register(ActivateSMSConfigCommand{}.CommandType(), h.handleActivateSMS)
	bus.Register(DeactivateSMSConfigCommand{}.CommandType(), h.handleDeactivateSMS)
	bus.Register(RemoveSMSConfigCommand{}.CommandType(), h.handleRemoveSMS)
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

func (h *CommandHandlers) loadSMTP(ctx context.Context, instanceID, id string) (*notifyconfig.SMTPConfig, error) {
	c, err := h.repo.LoadSMTP(ctx, instanceID, id)
	if err != nil {
		return nil, security.ClassifyForCaller(err, "SMTP-LOAD-001")
	}
	if !c.Exists() || c.State == notifyconfig.StateRemoved {
		return nil, domain.NewNotFound("SMTP-002", "smtp config not found")
	}
	return c, nil
}

func (h *CommandHandlers) loadSMS(ctx context.Context, instanceID, id string) (*notifyconfig.SMSConfig, error) {
	c, err := h.repo.LoadSMS(ctx, instanceID, id)
	if err != nil {
		return nil, security.ClassifyForCaller(err, "SMS-LOAD-001")
	}
	if !c.Exists() || c.State == notifyconfig.StateRemoved {
		return nil, domain.NewNotFound("SMS-002", "sms config not found")
	}
	return c, nil
}

func (h *CommandHandlers) handleAddSMTP(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(AddSMTPConfigCommand)
	c, err := notifyconfig.AddSMTP(cmd.InstanceID, cmd.ID, cmd.Host, cmd.Port, cmd.User, cmd.Password, cmd.EditorUser)
	if err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, c); err != nil {
		return fail(security.ClassifyForCaller(err, "SMTP-CREATE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleChangeSMTP(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ChangeSMTPConfigCommand)
	c, err := h.loadSMTP(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := c.Change(cmd.Host, cmd.Port, cmd.User, cmd.Password, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, c); err != nil {
		return fail(security.ClassifyForCaller(err, "SMTP-CHANGE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleActivateSMTP(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ActivateSMTPConfigCommand)

	others, err := h.readModel.ListActiveSMTPIDsExcept(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	for _, otherID := range others {
		other, err := h.loadSMTP(ctx, cmd.InstanceID, otherID)
		if err != nil {
			continue
		}
		if err := other.Deactivate(cmd.EditorUser); err != nil {
			return fail(err)
		}
		if err := h.commit(ctx, cmd.InstanceID, other); err != nil {
			return fail(security.ClassifyForCaller(err, "SMTP-DEACTIVATE-002"))
		}
	}

	c, err := h.loadSMTP(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := c.Activate(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, c); err != nil {
		return fail(security.ClassifyForCaller(err, "SMTP-ACTIVATE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleDeactivateSMTP(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(DeactivateSMTPConfigCommand)
	c, err := h.loadSMTP(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := c.Deactivate(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, c); err != nil {
		return fail(security.ClassifyForCaller(err, "SMTP-DEACTIVATE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleRemoveSMTP(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(RemoveSMTPConfigCommand)
	c, err := h.loadSMTP(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := c.Remove(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, c); err != nil {
		return fail(security.ClassifyForCaller(err, "SMTP-REMOVE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleAddSMS(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(AddSMSConfigCommand)
	c, err := notifyconfig.AddSMS(cmd.InstanceID, cmd.ID, cmd.Provider, cmd.Settings, cmd.EditorUser)
	if err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, c); err != nil {
		return fail(security.ClassifyForCaller(err, "SMS-CREATE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleChangeSMS(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ChangeSMSConfigCommand)
	c, err := h.loadSMS(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := c.Change(cmd.Settings, cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, c); err != nil {
		return fail(security.ClassifyForCaller(err, "SMS-CHANGE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleActivateSMS(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ActivateSMSConfigCommand)

	others, err := h.readModel.ListActiveSMSIDsExcept(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	for _, otherID := range others {
		other, err := h.loadSMS(ctx, cmd.InstanceID, otherID)
		if err != nil {
			continue
		}
		if err := other.Deactivate(cmd.EditorUser); err != nil {
			return fail(err)
		}
		if err := h.commit(ctx, cmd.InstanceID, other); err != nil {
			return fail(security.ClassifyForCaller(err, "SMS-DEACTIVATE-002"))
		}
	}

	c, err := h.loadSMS(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := c.Activate(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, c); err != nil {
		return fail(security.ClassifyForCaller(err, "SMS-ACTIVATE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleDeactivateSMS(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(DeactivateSMSConfigCommand)
	c, err := h.loadSMS(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := c.Deactivate(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, c); err != nil {
		return fail(security.ClassifyForCaller(err, "SMS-DEACTIVATE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleRemoveSMS(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(RemoveSMSConfigCommand)
	c, err := h.loadSMS(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := c.Remove(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, c); err != nil {
		return fail(security.ClassifyForCaller(err, "SMS-REMOVE-001"))
	}
	return empty(), nil
}
