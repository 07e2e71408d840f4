package policy

import (
	"context"

	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/pkg/application"
	"github.com/iamcore/iamcore/pkg/domain"
)

// QueryHandlers reads exclusively from the projection read model
// (internal/infrastructure.PolicyProjectionGORM); it never touches the
// event store.
type QueryHandlers struct {
	readModel *infrastructure.PolicyProjectionGORM
}

func NewQueryHandlers(readModel *infrastructure.PolicyProjectionGORM) *QueryHandlers {
	return &QueryHandlers{readModel: readModel}
}

func (h *QueryHandlers) Register(bus application.QueryBus) {
	bus.Register(GetPolicyQuery{}.QueryType(), h.handleGet)
	bus.Register(ListPoliciesByScopeQuery{}.QueryType(), h.handleListByScope)
}

func (h *QueryHandlers) handleGet(ctx context.Context, log domain.Logger, p application.Payload[application.Query]) (application.Response[any], error) {
	q := p.Data.(GetPolicyQuery)
	row, err := h.readModel.GetByID(ctx, q.InstanceID, q.ID)
	if err != nil {
		wrapped := domain.NewInternal("POLICY-QUERY-001", "failed to load policy", err)
		return application.Response[any]{Error: wrapped}, wrapped
	}
	if row == nil {
		err := domain.NewNotFound("POLICY-002", "policy not found")
		return application.Response[any]{Error: err}, err
	}
	return application.Response[any]{Data: toPolicyView(*row)}, nil
}

func (h *QueryHandlers) handleListByScope(ctx context.Context, log domain.Logger, p application.Payload[application.Query]) (application.Response[any], error) {
	q := p.Data.(ListPoliciesByScopeQuery)
	rows, err := h.readModel.ListByScope(ctx, q.InstanceID, q.Scope, q.ScopeID)
	if err != nil {
		wrapped := domain.NewInternal("POLICY-QUERY-002", "failed to list policies", err)
		return application.Response[any]{Error: wrapped}, wrapped
	}
	views := make([]PolicyView, len(rows))
	for i, row := range rows {
		views[i] = toPolicyView(row)
	}
	return application.Response[any]{Data: views}, nil
}

func toPolicyView(row infrastructure.PolicyReadModel) PolicyView {
	return PolicyView{ID: row.ID, Kind: row.Kind, Scope: row.Scope, ScopeID: row.ScopeID, State: row.State, Settings: row.Settings}
}
