package infrastructure

import (
	"context"
	"fmt"

	appdomain "github.com/iamcore/iamcore/internal/domain/application"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

// ClientAppRepository loads the Application aggregate (internal/domain/
// application, aliased appdomain here since "application" also names the
// pkg/application CQRS package). Named ClientApp on the infrastructure/
// application sides to keep both readable next to those imports.
type ClientAppRepository struct {
	store esdomain.EventStore
}

func NewClientAppRepository(store esdomain.EventStore) *ClientAppRepository {
	return &ClientAppRepository{store: store}
}

func (r *ClientAppRepository) Load(ctx context.Context, instanceID, id string) (*appdomain.Application, error) {
	events, err := r.store.Query(ctx, esdomain.Filter{
		InstanceID:    instanceID,
		AggregateType: appdomain.AggregateType,
		AggregateIDs:  []string{id},
	})
	if err != nil {
		return nil, fmt.Errorf("query application %s events: %w", id, err)
	}
	return appdomain.Reduce(instanceID, id, events)
}
