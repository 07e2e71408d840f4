package webkey

import (
	"context"

	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/pkg/application"
	"github.com/iamcore/iamcore/pkg/domain"
)

type QueryHandlers struct {
	readModel *infrastructure.WebKeyProjectionGORM
}

func NewQueryHandlers(readModel *infrastructure.WebKeyProjectionGORM) *QueryHandlers {
	return &QueryHandlers{readModel: readModel}
}

func (h *QueryHandlers) Register(bus application.QueryBus) {
	bus.Register(GetWebKeyQuery{}.QueryType(), h.handleGet)
	bus.Register(ListActiveWebKeysQuery{}.QueryType(), h.handleListActive)
}

func (h *QueryHandlers) handleGet(ctx context.Context, log domain.Logger, p application.Payload[application.Query]) (application.Response[any], error) {
	q := p.Data.(GetWebKeyQuery)
	rm, err := h.readModel.GetByID(ctx, q.InstanceID, q.ID)
	if err != nil {
		return application.Response[any]{Error: err}, err
	}
	if rm == nil {
		err := domain.NewNotFound("WEBKEY-Q-001", "web key not found")
		return application.Response[any]{Error: err}, err
	}
	return application.Response[any]{Data: toWebKeyView(*rm)}, nil
}

func (h *QueryHandlers) handleListActive(ctx context.Context, log domain.Logger, p application.Payload[application.Query]) (application.Response[any], error) {
	q := p.Data.(ListActiveWebKeysQuery)
	rows, err := h.readModel.ListActive(ctx, q.InstanceID)
	if err != nil {
		return application.Response[any]{Error: err}, err
	}
	views := make([]WebKeyView, 0, len(rows))
	for _, row := range rows {
		views = append(views, toWebKeyView(row))
	}
	return application.Response[any]{Data: views}, nil
}

func toWebKeyView(rm infrastructure.WebKeyReadModel) WebKeyView {
	return WebKeyView{ID: rm.ID, State: rm.State, Algorithm: rm.Algorithm, PublicJWK: rm.PublicJWK}
}
