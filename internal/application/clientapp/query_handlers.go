package clientapp

import (
	"context"

	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/pkg/application"
	"github.com/iamcore/iamcore/pkg/domain"
)

// QueryHandlers reads exclusively from the projection read model
// (internal/infrastructure.ClientAppProjectionGORM); it never touches the
// event store.
type QueryHandlers struct {
	readModel *infrastructure.ClientAppProjectionGORM
}

func NewQueryHandlers(readModel *infrastructure.ClientAppProjectionGORM) *QueryHandlers {
	return &QueryHandlers{readModel: readModel}
}

func (h *QueryHandlers) Register(bus application.QueryBus) {
	bus.Register(GetAppQuery{}.QueryType(), h.handleGet)
	bus.Register(ListAppsByProjectQuery{}.QueryType(), h.handleListByProject)
}

func (h *QueryHandlers) handleGet(ctx context.Context, log domain.Logger, p application.Payload[application.Query]) (application.Response[any], error) {
	q := p.Data.(GetAppQuery)
	row, err := h.readModel.GetByID(ctx, q.InstanceID, q.ID)
	if err != nil {
		wrapped := domain.NewInternal("APP-QUERY-001", "failed to load application", err)
		return application.Response[any]{Error: wrapped}, wrapped
	}
	if row == nil {
		err := domain.NewNotFound("APP-002", "application not found")
		return application.Response[any]{Error: err}, err
	}
	return application.Response[any]{Data: toAppView(*row)}, nil
}

func (h *QueryHandlers) handleListByProject(ctx context.Context, log domain.Logger, p application.Payload[application.Query]) (application.Response[any], error) {
	q := p.Data.(ListAppsByProjectQuery)
	rows, err := h.readModel.ListByProjectID(ctx, q.InstanceID, q.ProjectID)
	if err != nil {
		wrapped := domain.NewInternal("APP-QUERY-002", "failed to list applications", err)
		return application.Response[any]{Error: wrapped}, wrapped
	}
	views := make([]AppView, len(rows))
	for i, row := range rows {
		views[i] = toAppView(row)
	}
	return application.Response[any]{Data: views}, nil
}

func toAppView(row infrastructure.ClientAppReadModel) AppView {
	return AppView{
		ID: row.ID, ProjectID: row.ProjectID, Type: row.Type, State: row.State,
		ClientID: row.ClientID, EntityID: row.EntityID, AuthMethod: row.AuthMethod,
		AppType: row.AppType, RedirectURIs: row.RedirectURIs, Metadata: row.Metadata, MetadataURL: row.MetadataURL,
	}
}
