package org

import (
	"context"

	"github.com/iamcore/iamcore/internal/infrastructure"
	"github.com/iamcore/iamcore/pkg/application"
	"github.com/iamcore/iamcore/pkg/domain"
)

// QueryHandlers reads exclusively from the projection read model
// (internal/infrastructure.OrgProjectionGORM); it never touches the event
// store, per the projection engine's read/write split (spec.md §4.4).
type QueryHandlers struct {
	readModel *infrastructure.OrgProjectionGORM
}

func NewQueryHandlers(readModel *infrastructure.OrgProjectionGORM) *QueryHandlers {
	return &QueryHandlers{readModel: readModel}
}

func (h *QueryHandlers) Register(bus application.QueryBus) {
	bus.Register(GetOrgQuery{}.QueryType(), h.handleGet)
	bus.Register(ListOrgsQuery{}.QueryType(), h.handleList)
	bus.Register(ListOrgMembersQuery{}.QueryType(), h.handleListMembers)
}

func (h *QueryHandlers) handleGet(ctx context.Context, log domain.Logger, p application.Payload[application.Query]) (application.Response[any], error) {
	q := p.Data.(GetOrgQuery)
	row, err := h.readModel.GetByID(ctx, q.InstanceID, q.ID)
	if err != nil {
		wrapped := domain.NewInternal("ORG-QUERY-001", "failed to load organization", err)
		return application.Response[any]{Error: wrapped}, wrapped
	}
	if row == nil {
		err := domain.NewNotFound("ORG-002", "organization not found")
		return application.Response[any]{Error: err}, err
	}
	return application.Response[any]{Data: toOrgView(*row)}, nil
}

func (h *QueryHandlers) handleList(ctx context.Context, log domain.Logger, p application.Payload[application.Query]) (application.Response[any], error) {
	q := p.Data.(ListOrgsQuery)
	rows, err := h.readModel.List(ctx, q.InstanceID)
	if err != nil {
		wrapped := domain.NewInternal("ORG-QUERY-002", "failed to list organizations", err)
		return application.Response[any]{Error: wrapped}, wrapped
	}
	views := make([]OrgView, len(rows))
	for i, row := range rows {
		views[i] = toOrgView(row)
	}
	return application.Response[any]{Data: views}, nil
}

func (h *QueryHandlers) handleListMembers(ctx context.Context, log domain.Logger, p application.Payload[application.Query]) (application.Response[any], error) {
	q := p.Data.(ListOrgMembersQuery)
	rows, err := h.readModel.ListMembers(ctx, q.InstanceID, q.OrgID)
	if err != nil {
		wrapped := domain.NewInternal("ORG-QUERY-003", "failed to list organization members", err)
		return application.Response[any]{Error: wrapped}, wrapped
	}
	views := make([]MemberView, len(rows))
	for i, row := range rows {
		views[i] = MemberView{UserID: row.UserID, Roles: row.Roles}
	}
	return application.Response[any]{Data: views}, nil
}

func toOrgView(row infrastructure.OrgReadModel) OrgView {
	domains := make([]DomainView, len(row.Domains))
	for i, d := range row.Domains {
		domains[i] = DomainView{Name: d.Name, Verified: d.Verified, Primary: d.Primary}
	}
	return OrgView{ID: row.ID, Name: row.Name, State: row.State, Domains: domains}
}
