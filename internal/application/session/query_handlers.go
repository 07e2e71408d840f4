package session

import (
	"context"

	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/pkg/application"
	"github.com/iamcore/iamcore/pkg/domain"
)

// QueryHandlers reads exclusively from the projection read model
// (internal/infrastructure.SessionProjectionGORM); it never touches the
// event store.
type QueryHandlers struct {
	readModel infrastructure.SessionReadModelRepository
}

func NewQueryHandlers(readModel infrastructure.SessionReadModelRepository) *QueryHandlers {
	return &QueryHandlers{readModel: readModel}
}

func (h *QueryHandlers) Register(bus application.QueryBus) {
	bus.Register(GetSessionQuery{}.QueryType(), h.handleGet)
	bus.Register(ListSessionsByUserQuery{}.QueryType(), h.handleListByUser)
}

func (h *QueryHandlers) handleGet(ctx context.Context, log domain.Logger, p application.Payload[application.Query]) (application.Response[any], error) {
	q := p.Data.(GetSessionQuery)
	row, err := h.readModel.GetByID(ctx, q.InstanceID, q.ID)
	if err != nil {
		wrapped := domain.NewInternal("SESSION-QUERY-001", "failed to load session", err)
		return application.Response[any]{Error: wrapped}, wrapped
	}
	if row == nil {
		err := domain.NewNotFound("SESSION-002", "session not found")
		return application.Response[any]{Error: err}, err
	}
	return application.Response[any]{Data: toSessionView(*row)}, nil
}

func (h *QueryHandlers) handleListByUser(ctx context.Context, log domain.Logger, p application.Payload[application.Query]) (application.Response[any], error) {
	q := p.Data.(ListSessionsByUserQuery)
	rows, err := h.readModel.ListByUser(ctx, q.InstanceID, q.UserID)
	if err != nil {
		wrapped := domain.NewInternal("SESSION-QUERY-002", "failed to list sessions", err)
		return application.Response[any]{Error: wrapped}, wrapped
	}
	views := make([]SessionView, len(rows))
	for i, row := range rows {
		views[i] = toSessionView(row)
	}
	return application.Response[any]{Data: views}, nil
}

func toSessionView(row infrastructure.SessionReadModel) SessionView {
	return SessionView{
		ID: row.ID, UserID: row.UserID, OrgID: row.OrgID, State: row.State, AMR: row.AMR,
		TokenIDs: row.TokenIDs, AuthTime: row.AuthTime, CodeChallenge: row.CodeChallenge, CodeChallengeMethod: row.CodeChallengeMethod,
	}
}
