package enckey

import (
	"context"
	"errors"

	enckeydomain "github.com/iamcore/iamcore/internal/domain/enckey"
	"github.com/iamcore/iamcore/pkg/application"
	"github.com/iamcore/iamcore/pkg/domain"
)

// CommandHandlers operates directly on enckeydomain.Store; there is no
// aggregate, repository, or event dispatcher to wire since enckey is not
// event-sourced.
type CommandHandlers struct {
	store enckeydomain.Store
}

func NewCommandHandlers(store enckeydomain.Store) *CommandHandlers {
	return &CommandHandlers{store: store}
}

func (h *CommandHandlers) Register(bus application.CommandBus) {
	bus.Register(AddEncryptionKeyCommand{}.CommandType(), h.handleAdd)
	bus.Register(RemoveEncryptionKeyCommand{}.CommandType(), h.handleRemove)
}

func empty() application.Response[struct{}] { return application.Response[struct{}]{Data: struct{}{}} }

func fail(err error) (application.Response[struct{}], error) {
	return application.Response[struct{}]{Error: err}, err
}

func (h *CommandHandlers) handleAdd(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(AddEncryptionKeyCommand)
	k := enckeydomain.Key{
		InstanceID: cmd.InstanceID,
		Identifier: cmd.Identifier,
		Algorithm:  cmd.Algorithm,
		Material:   cmd.Material,
	}
	if err := enckeydomain.Validate(k); err != nil {
		return fail(err)
	}
	if err := h.store.Add(ctx, k); err != nil {
		if errors.Is(err, enckeydomain.ErrAlreadyExists) {
			return fail(domain.NewAlreadyExists("ENCKEY-003", "encryption key already exists"))
		}
		return fail(domain.NewInternal("ENCKEY-004", "failed to add encryption key", err))
	}
	return empty(), nil
}

func (h *CommandHandlers) handleRemove(ctx context.Context, log domain.Logger, p application.Payload[application.Command]) (application.Response[struct{}], error) {
	cmd := p.Data.(RemoveEncryptionKeyCommand)
	existing, err := h.store.Get(ctx, cmd.InstanceID, cmd.Identifier)
	if err != nil {
		return fail(domain.NewInternal("ENCKEY-005", "failed to look up encryption key", err))
	}
	if existing == nil {
		return fail(domain.NewNotFound("ENCKEY-006", "encryption key not found"))
	}
	if err := h.store.Remove(ctx, cmd.InstanceID, cmd.Identifier); err != nil {
		return fail(domain.NewInternal("ENCKEY-007", "failed to remove encryption key", err))
	}
	return empty(), nil
}
