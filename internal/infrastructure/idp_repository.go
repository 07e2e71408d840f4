package infrastructure

import (
	"context"
	"fmt"

	"github.com/iamcore/iamcore/internal/domain/idp"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

// IDPRepository loads the IDP aggregate by replaying its event stream,
// identical Load-via-Query-then-Reduce shape as the other repositories.
type IDPRepository struct {
	store esdomain.EventStore
}

func NewIDPRepository(store esdomain.EventStore) *IDPRepository {
	return &IDPRepository{store: store}
}

func (r *IDPRepository) Load(ctx context.Context, instanceID, id string) (*idp.IDP, error) {
	events, err := r.store.Query(ctx, esdomain.Filter{
		InstanceID:    instanceID,
		AggregateType: idp.AggregateType,
		AggregateIDs:  []string{id},
	})
	if err != nil {
		return nil, fmt.Errorf("query idp %s events: %w", id, err)
	}
	return idp.Reduce(instanceID, id, events)
}
