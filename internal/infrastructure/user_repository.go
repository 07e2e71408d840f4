package infrastructure

import (
	"context"
	"fmt"

	"github.com/iamcore/iamcore/internal/domain/user"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

// UserRepository loads User aggregates by replaying the event store, the
// same load-through-Reduce shape every other entity's repository uses.
type UserRepository struct {
	store esdomain.EventStore
}

func NewUserRepository(store esdomain.EventStore) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) Load(ctx context.Context, instanceID, id string) (*user.User, error) {
	events, err := r.store.Query(ctx, esdomain.Filter{
		InstanceID:    instanceID,
		AggregateType: user.AggregateType,
		AggregateIDs:  []string{id},
	})
	if err != nil {
		return nil, fmt.Errorf("query user %s events: %w", id, err)
	}
	return user.Reduce(instanceID, id, events)
}
