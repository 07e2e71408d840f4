package infrastructure

import (
	"context"
	"fmt"

	"github.com/iamcore/iamcore/internal/domain/project"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

type ProjectRepository struct {
	store esdomain.EventStore
}

func NewProjectRepository(store esdomain.EventStore) *ProjectRepository {
	return &ProjectRepository{store: store}
}

func (r *ProjectRepository) Load(ctx context.Context, instanceID, id string) (*project.Project, error) {
	events, err := r.store.Query(ctx, esdomain.Filter{
		InstanceID:    instanceID,
		AggregateType: project.AggregateType,
		AggregateIDs:  []string{id},
	})
	if err != nil {
		return nil, fmt.Errorf("query project %s events: %w", id, err)
	}
	return project.Reduce(instanceID, id, events)
}
