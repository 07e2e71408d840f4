package idp

import (
	"context"

	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/pkg/application"
	"github.com/iamcore/iamcore/pkg/domain"
)

type QueryHandlers struct {
	readModel *infrastructure.IDPProjectionGORM
}

func NewQueryHandlers(readModel *infrastructure.IDPProjectionGORM) *QueryHandlers {
	return &QueryHandlers{readModel: readModel}
}

func (h *QueryHandlers) Register(bus application.QueryBus) {
	bus.Register(GetIDPQuery{}.QueryType(), h.handleGet)
	bus.Register(ListIDPsByScopeQuery{}.QueryType(), h.handleListByScope)
}

func (h *QueryHandlers) handleGet(ctx context.Context, log domain.Logger, p application.Payload[application.Query]) (application.Response[any], error) {
	q := p.Data.(GetIDPQuery)
	rm, err := h.readModel.GetByID(ctx, q.InstanceID, q.ID)
	if err != nil {
		return application.Response[any]{Error: err}, err
	}
	if rm == nil {
		err := domain.NewNotFound("IDP-Q-001", "idp not found")
		return application.Response[any]{Error: err}, err
	}
	return application.Response[any]{Data: toIDPView(*rm)}, nil
}

func (h *QueryHandlers) handleListByScope(ctx context.Context, log domain.Logger, p application.Payload[application.Query]) (application.Response[any], error) {
	q := p.Data.(ListIDPsByScopeQuery)
	rows, err := h.readModel.ListByScope(ctx, q.InstanceID, q.Scope, q.ScopeID)
	if err != nil {
		return application.Response[any]{Error: err}, err
	}
	views := make([]IDPView, 0, len(rows))
	for _, row := range rows {
		views = append(views, toIDPView(row))
	}
	return application.Response[any]{Data: views}, nil
}

func toIDPView(rm infrastructure.IDPReadModel) IDPView {
	return IDPView{
		ID: rm.ID, Type: rm.Type, Scope: rm.Scope, ScopeID: rm.ScopeID, State: rm.State,
		IssuerURL: rm.IssuerURL, ClientID: rm.ClientID, ClientSecret: rm.ClientSecret,
		JWTEndpoint: rm.JWTEndpoint, KeysEndpoint: rm.KeysEndpoint, HeaderName: rm.HeaderName,
		Metadata: rm.Metadata, MetadataURL: rm.MetadataURL,
	}
}
