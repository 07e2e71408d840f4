package user

import (
	"context"

	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/pkg/application"
	"github.com/iamcore/iamcore/pkg/domain"
)

// QueryHandlers reads exclusively from the projection read model
// (internal/infrastructure.UserProjectionGORM); it never touches the event
// store, per the projection engine's read/write split.
type QueryHandlers struct {
	readModel *infrastructure.UserProjectionGORM
}

func NewQueryHandlers(readModel *infrastructure.UserProjectionGORM) *QueryHandlers {
	return &QueryHandlers{readModel: readModel}
}

func (h *QueryHandlers) Register(bus application.QueryBus) {
	bus.Register(GetUserQuery{}.QueryType(), h.handleGet)
	bus.Register(GetUserByEmailQuery{}.QueryType(), h.handleGetByEmail)
	bus.Register(ListUsersQuery{}.QueryType(), h.handleList)
}

func (h *QueryHandlers) handleGet(ctx context.Context, log domain.Logger, p application.Payload[application.Query]) (application.Response[any], error) {
	q := p.Data.(GetUserQuery)
	row, err := h.readModel.GetByID(ctx, q.InstanceID, q.ID)
	if err != nil {
		wrapped := domain.NewInternal("USER-QUERY-001", "failed to load user", err)
		return application.Response[any]{Error: wrapped}, wrapped
	}
	if row == nil {
		err := domain.NewNotFound("USER-002", "user not found")
		return application.Response[any]{Error: err}, err
	}
	return application.Response[any]{Data: toUserView(*row)}, nil
}

func (h *QueryHandlers) handleGetByEmail(ctx context.Context, log domain.Logger, p application.Payload[application.Query]) (application.Response[any], error) {
	q := p.Data.(GetUserByEmailQuery)
	row, err := h.readModel.GetByEmail(ctx, q.InstanceID, q.Email)
	if err != nil {
		wrapped := domain.NewInternal("USER-QUERY-002", "failed to load user by email", err)
		return application.Response[any]{Error: wrapped}, wrapped
	}
	if row == nil {
		err := domain.NewNotFound("USER-002", "user not found")
		return application.Response[any]{Error: err}, err
	}
	return application.Response[any]{Data: toUserView(*row)}, nil
}

func (h *QueryHandlers) handleList(ctx context.Context, log domain.Logger, p application.Payload[application.Query]) (application.Response[any], error) {
	q := p.Data.(ListUsersQuery)
	rows, err := h.readModel.List(ctx, q.InstanceID)
	if err != nil {
		wrapped := domain.NewInternal("USER-QUERY-003", "failed to list users", err)
		return application.Response[any]{Error: wrapped}, wrapped
	}
	views := make([]UserView, len(rows))
	for i, row := range rows {
		views[i] = toUserView(row)
	}
	return application.Response[any]{Data: views}, nil
}

func toUserView(row infrastructure.UserReadModel) UserView {
	return UserView{
		ID: row.ID, Type: row.Type, State: row.State,
		Username: row.Username, DisplayName: row.DisplayName,
		Email: row.Email, EmailVerified: row.EmailVerified,
		Phone: row.Phone, PhoneVerified: row.PhoneVerified,
		TOTPEnrolled: row.TOTPEnrolled,
	}
}
