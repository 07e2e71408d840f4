package webkey

import (
	"context"
	"fmt"

	webkeydomain "github.com/iamcore/iamcore/internal/domain/webkey"
	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/pkg/application"
	"github.com/iamcore/iamcore/pkg/domain"
	esapp "github.com/iamcore/iamcore/pkg/eventsourcing/application"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
	"github.com/iamcore/iamcore/pkg/security"
)

// CommandHandlers follows the same load -> decide -> commit shape as
// internal/application/idp.CommandHandlers. Generate accepts a caller-supplied
// PublicJWK (e.g. an imported key, or a test fixture); when the caller leaves
// it blank, keyMaterial produces a fresh RS256/ES256 keypair and self-tests
// it before the event is ever written.
type CommandHandlers struct {
	repo        *infrastructure.WebKeyRepository
	store       esdomain.EventStore
	dispatcher  *esdomain.EventDispatcher
	keyMaterial *infrastructure.KeyMaterial
}

func NewCommandHandlers(repo *infrastructure.WebKeyRepository, store esdomain.EventStore, dispatcher *esdomain.EventDispatcher, keyMaterial *infrastructure.KeyMaterial) *CommandHandlers {
	return &CommandHandlers{repo: repo, store: store, dispatcher: dispatcher, keyMaterial: keyMaterial}
}

func (h *CommandHandlers) Register(bus application.CommandBus) {
	bus.Register(GenerateWebKeyCommand{}.CommandType(), h.handleGenerate)
	bus.Register(ActivateWebKeyCommand{}.CommandType(), h.handleActivate)
	bus.Register(DeactivateWebKeyCommand{}.CommandType(), h.handleDeactivate)
	bus.Register(RemoveWebKeyCommand{}.CommandType(), h.handleRemove)
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

func (h *CommandHandlers) load(ctx context.Context, instanceID, id string) (*webkeydomain.WebKey, error) {
	k, err := h.repo.Load(ctx, instanceID, id)
	if err != nil {
		return nil, security.ClassifyForCaller(err, "WEBKEY-LOAD-001")
	}
	if !k.Exists() || k.State == webkeydomain.StateRemoved {
		return nil, domain.NewNotFound("WEBKEY-002", "web key not found")
	}
	return k, nil
}

func (h *CommandHandlers) handleGenerate(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(GenerateWebKeyCommand)
	publicJWK := cmd.PublicJWK
	if publicJWK == "" && h.keyMaterial != nil {
		gk, err := h.keyMaterial.Generate(cmd.ID, cmd.Algorithm)
		if err != nil {
			return fail(domain.NewInternal("WEBKEY-KEYGEN-001", "failed to generate key material", err))
		}
		publicJWK = gk.PublicJWK
	}
	k, err := webkeydomain.Generate(cmd.InstanceID, cmd.ID, cmd.Algorithm, publicJWK, cmd.EditorUser)
	if err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, k); err != nil {
		return fail(security.ClassifyForCaller(err, "WEBKEY-CREATE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleActivate(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(ActivateWebKeyCommand)
	k, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := k.Activate(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, k); err != nil {
		return fail(security.ClassifyForCaller(err, "WEBKEY-ACTIVATE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleDeactivate(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(DeactivateWebKeyCommand)
	k, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := k.Deactivate(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, k); err != nil {
		return fail(security.ClassifyForCaller(err, "WEBKEY-DEACTIVATE-001"))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleRemove(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(RemoveWebKeyCommand)
	k, err := h.load(ctx, cmd.InstanceID, cmd.ID)
	if err != nil {
		return fail(err)
	}
	if err := k.Remove(cmd.EditorUser); err != nil {
		return fail(err)
	}
	if err := h.commit(ctx, cmd.InstanceID, k); err != nil {
		return fail(security.ClassifyForCaller(err, "WEBKEY-REMOVE-001"))
	}
	return empty(), nil
}
