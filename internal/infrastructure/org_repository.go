package infrastructure

import (
	"context"
	"fmt"

	"github.com/iamcore/iamcore/internal/domain/org"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

// OrgRepository loads and tracks Organization aggregates against the event
// store directly; there is no intermediate snapshot. Load replays the full
// event stream through org.Reduce every time, the same cost every other
// event-sourced repository in this package pays.
type OrgRepository struct {
	store esdomain.EventStore
}

func NewOrgRepository(store esdomain.EventStore) *OrgRepository {
	return &OrgRepository{store: store}
}

// Load reconstructs the Organization aggregate with the given ID. A never-
// seen ID comes back as an Organization with Exists()==false rather than an
// error, matching org.Reduce's contract.
func (r *OrgRepository) Load(ctx context.Context, instanceID, id string) (*org.Organization, error) {
	events, err := r.store.Query(ctx, esdomain.Filter{
		InstanceID:    instanceID,
		AggregateType: org.AggregateType,
		AggregateIDs:  []string{id},
	})
	if err != nil {
		return nil, fmt.Errorf("query org %s events: %w", id, err)
	}
	return org.Reduce(instanceID, id, events)
}
