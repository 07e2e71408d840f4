package project

import (
	"context"

	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/pkg/application"
	"github.com/iamcore/iamcore/pkg/domain"
)

// QueryHandlers reads exclusively from the projection read model
// (internal/infrastructure.ProjectProjectionGORM); it never touches the
// event store.
type QueryHandlers struct {
	readModel *infrastructure.ProjectProjectionGORM
}

func NewQueryHandlers(readModel *infrastructure.ProjectProjectionGORM) *QueryHandlers {
	return &QueryHandlers{readModel: readModel}
}

func (h *QueryHandlers) Register(bus application.QueryBus) {
	bus.Register(GetProjectQuery{}.QueryType(), h.handleGet)
	bus.Register(ListProjectsQuery{}.QueryType(), h.handleList)
}

func (h *QueryHandlers) handleGet(ctx context.Context, log domain.Logger, p application.Payload[application.Query]) (application.Response[any], error) {
	q := p.Data.(GetProjectQuery)
	row, err := h.readModel.GetByID(ctx, q.InstanceID, q.ID)
	if err != nil {
		wrapped := domain.NewInternal("PROJECT-QUERY-001", "failed to load project", err)
		return application.Response[any]{Error: wrapped}, wrapped
	}
	if row == nil {
		err := domain.NewNotFound("PROJECT-002", "project not found")
		return application.Response[any]{Error: err}, err
	}
	return application.Response[any]{Data: toProjectView(*row)}, nil
}

func (h *QueryHandlers) handleList(ctx context.Context, log domain.Logger, p application.Payload[application.Query]) (application.Response[any], error) {
	q := p.Data.(ListProjectsQuery)
	rows, err := h.readModel.List(ctx, q.InstanceID)
	if err != nil {
		wrapped := domain.NewInternal("PROJECT-QUERY-002", "failed to list projects", err)
		return application.Response[any]{Error: wrapped}, wrapped
	}
	views := make([]ProjectView, len(rows))
	for i, row := range rows {
		views[i] = toProjectView(row)
	}
	return application.Response[any]{Data: views}, nil
}

func toProjectView(row infrastructure.ProjectReadModel) ProjectView {
	roles := make([]RoleView, len(row.Roles))
	for i, r := range row.Roles {
		roles[i] = RoleView{Key: r.Key, DisplayName: r.DisplayName, Group: r.Group}
	}
	members := make([]MemberView, len(row.Members))
	for i, m := range row.Members {
		members[i] = MemberView{UserID: m.UserID, Roles: m.Roles}
	}
	grants := make([]GrantView, len(row.Grants))
	for i, g := range row.Grants {
		grantMembers := make([]GrantMemberView, len(g.Members))
		for j, m := range g.Members {
			grantMembers[j] = GrantMemberView{UserID: m.UserID, Roles: m.Roles}
		}
		grants[i] = GrantView{GrantID: g.GrantID, GrantedOrgID: g.GrantedOrgID, State: g.State, RoleKeys: g.RoleKeys, Members: grantMembers}
	}
	return ProjectView{ID: row.ID, Name: row.Name, State: row.State, Roles: roles, Grants: grants, Members: members}
}
