package infrastructure

import (
	"context"
	"fmt"

	"github.com/iamcore/iamcore/internal/domain/policy"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

// PolicyRepository loads the Policy aggregate by replaying its event
// stream, identical Load-via-Query-then-Reduce shape as the other
// repositories.
type PolicyRepository struct {
	store esdomain.EventStore
}

func NewPolicyRepository(store esdomain.EventStore) *PolicyRepository {
	return &PolicyRepository{store: store}
}

func (r *PolicyRepository) Load(ctx context.Context, instanceID, id string) (*policy.Policy, error) {
	events, err := r.store.Query(ctx, esdomain.Filter{
		InstanceID:    instanceID,
		AggregateType: policy.AggregateType,
		AggregateIDs:  []string{id},
	})
	if err != nil {
		return nil, fmt.Errorf("query policy %s events: %w", id, err)
	}
	return policy.Reduce(instanceID, id, events)
}
