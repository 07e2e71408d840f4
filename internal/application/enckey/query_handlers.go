package enckey

import (
	"context"

	enckeydomain "github.com/iamcore/iamcore/internal/domain/enckey"
	"github.com/iamcore/iamcore/pkg/application"
	"github.com/iamcore/iamcore/pkg/domain"
)

type QueryHandlers struct {
	store enckeydomain.Store
}

func NewQueryHandlers(store enckeydomain.Store) *QueryHandlers {
	return &QueryHandlers{store: store}
}

func (h *QueryHandlers) Register(bus application.QueryBus) {
	bus.Register(GetEncryptionKeyQuery{}.QueryType(), h.handleGet)
	bus.Register(ListEncryptionKeysQuery{}.QueryType(), h.handleList)
}

func (h *QueryHandlers) handleGet(ctx context.Context, log domain.Logger, p application.Payload[application.Query]) (application.Response[any], error) {
	q := p.Data.(GetEncryptionKeyQuery)
	k, err := h.store.Get(ctx, q.InstanceID, q.Identifier)
	if err != nil {
		wrapped := domain.NewInternal("ENCKEY-Q-001", "failed to look up encryption key", err)
		return application.Response[any]{Error: wrapped}, wrapped
	}
	if k == nil {
		err := domain.NewNotFound("ENCKEY-Q-002", "encryption key not found")
		return application.Response[any]{Error: err}, err
	}
	return application.Response[any]{Data: toEncryptionKeyView(*k)}, nil
}

func (h *QueryHandlers) handleList(ctx context.Context, log domain.Logger, p application.Payload[application.Query]) (application.Response[any], error) {
	q := p.Data.(ListEncryptionKeysQuery)
	keys, err := h.store.List(ctx, q.InstanceID)
	if err != nil {
		wrapped := domain.NewInternal("ENCKEY-Q-003", "failed to list encryption keys", err)
		return application.Response[any]{Error: wrapped}, wrapped
	}
	views := make([]EncryptionKeyView, 0, len(keys))
	for _, k := range keys {
		views = append(views, toEncryptionKeyView(k))
	}
	return application.Response[any]{Data: views}, nil
}

func toEncryptionKeyView(k enckeydomain.Key) EncryptionKeyView {
	return EncryptionKeyView{Identifier: k.Identifier, Algorithm: k.Algorithm}
}
