package infrastructure

import (
	"context"
	"fmt"

	"github.com/iamcore/iamcore/internal/domain/session"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

// SessionRepository loads the Session aggregate by replaying its event
// stream, identical Load-via-Query-then-Reduce shape as OrgRepository.
type SessionRepository struct {
	store esdomain.EventStore
}

func NewSessionRepository(store esdomain.EventStore) *SessionRepository {
	return &SessionRepository{store: store}
}

func (r *SessionRepository) Load(ctx context.Context, instanceID, id string) (*session.Session, error) {
	events, err := r.store.Query(ctx, esdomain.Filter{
		InstanceID:    instanceID,
		AggregateType: session.AggregateType,
		AggregateIDs:  []string{id},
	})
	if err != nil {
		return nil, fmt.Errorf("query session %s events: %w", id, err)
	}
	return session.Reduce(instanceID, id, events)
}
