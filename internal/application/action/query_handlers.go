package action

import (
	"context"

	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/pkg/application"
	"github.com/iamcore/iamcore/pkg/domain"
)

type QueryHandlers struct {
	readModel *infrastructure.ActionProjectionGORM
}

func NewQueryHandlers(readModel *infrastructure.ActionProjectionGORM) *QueryHandlers {
	return &QueryHandlers{readModel: readModel}
}

func (h *QueryHandlers) Register(bus application.QueryBus) {
	bus.Register(GetActionQuery{}.QueryType(), h.handleGet)
	bus.Register(ListActionsQuery{}.QueryType(), h.handleList)
	bus.Register(GetExecutionQuery{}.QueryType(), h.handleGetExecution)
}

func (h *QueryHandlers) handleGet(ctx context.Context, log domain.Logger, p application.Payload[application.Query]) (application.Response[any], error) {
	q := p.Data.(GetActionQuery)
	rm, err := h.readModel.GetActionByID(ctx, q.InstanceID, q.ID)
	if err != nil {
		return application.Response[any]{Error: err}, err
	}
	if rm == nil {
		err := domain.NewNotFound("ACTION-Q-001", "instance action not found")
		return application.Response[any]{Error: err}, err
	}
	return application.Response[any]{Data: toActionView(*rm)}, nil
}

func (h *QueryHandlers) handleList(ctx context.Context, log domain.Logger, p application.Payload[application.Query]) (application.Response[any], error) {
	q := p.Data.(ListActionsQuery)
	rows, err := h.readModel.ListActions(ctx, q.InstanceID)
	if err != nil {
		return application.Response[any]{Error: err}, err
	}
	views := make([]ActionView, 0, len(rows))
	for _, row := range rows {
		views = append(views, toActionView(row))
	}
	return application.Response[any]{Data: views}, nil
}

func (h *QueryHandlers) handleGetExecution(ctx context.Context, log domain.Logger, p application.Payload[application.Query]) (application.Response[any], error) {
	q := p.Data.(GetExecutionQuery)
	rm, err := h.readModel.GetExecutionByID(ctx, q.InstanceID, q.ID)
	if err != nil {
		return application.Response[any]{Error: err}, err
	}
	if rm == nil {
		err := domain.NewNotFound("EXECUTION-Q-001", "instance execution not found")
		return application.Response[any]{Error: err}, err
	}
	return application.Response[any]{Data: ExecutionView{ID: rm.ID, Targets: rm.Targets}}, nil
}

func toActionView(rm infrastructure.ActionReadModel) ActionView {
	return ActionView{ID: rm.ID, Name: rm.Name, Script: rm.Script, AllowedToFail: rm.AllowedToFail, State: rm.State}
}
