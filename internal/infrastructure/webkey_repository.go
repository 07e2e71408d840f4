package infrastructure

import (
	"context"
	"fmt"

	"github.com/iamcore/iamcore/internal/domain/webkey"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

// WebKeyRepository loads the WebKey aggregate by replaying its event
// stream, same Load-via-Query-then-Reduce shape as the other repositories.
type WebKeyRepository struct {
	store esdomain.EventStore
}

func NewWebKeyRepository(store esdomain.EventStore) *WebKeyRepository {
	return &WebKeyRepository{store: store}
}

func (r *WebKeyRepository) Load(ctx context.Context, instanceID, id string) (*webkey.WebKey, error) {
	events, err := r.store.Query(ctx, esdomain.Filter{
		InstanceID:    instanceID,
		AggregateType: webkey.AggregateType,
		AggregateIDs:  []string{id},
	})
	if err != nil {
		return nil, fmt.Errorf("query web key %s events: %w", id, err)
	}
	return webkey.Reduce(instanceID, id, events)
}
