package infrastructure

import (
	"context"
	"fmt"

	"github.com/iamcore/iamcore/internal/domain/action"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

// ActionRepository loads the Action and Execution aggregates by replaying
// their event streams, same Load-via-Query-then-Reduce shape as the other
// repositories, covering both aggregate types the domain package defines.
type ActionRepository struct {
	store esdomain.EventStore
}

func NewActionRepository(store esdomain.EventStore) *ActionRepository {
	return &ActionRepository{store: store}
}

func (r *ActionRepository) LoadAction(ctx context.Context, instanceID, id string) (*action.Action, error) {
	events, err := r.store.Query(ctx, esdomain.Filter{
		InstanceID:    instanceID,
		AggregateType: action.AggregateType,
		AggregateIDs:  []string{id},
	})
	if err != nil {
		return nil, fmt.Errorf("query instance action %s events: %w", id, err)
	}
	return action.Reduce(instanceID, id, events)
}

func (r *ActionRepository) LoadExecution(ctx context.Context, instanceID, id string) (*action.Execution, error) {
	events, err := r.store.Query(ctx, esdomain.Filter{
		InstanceID:    instanceID,
		AggregateType: action.ExecutionAggregateType,
		AggregateIDs:  []string{id},
	})
	if err != nil {
		return nil, fmt.Errorf("query instance execution %s events: %w", id, err)
	}
	return action.ReduceExecution(instanceID, id, events)
}
