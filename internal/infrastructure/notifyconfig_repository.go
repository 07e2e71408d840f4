package infrastructure

import (
	"context"
	"fmt"

	"github.com/iamcore/iamcore/internal/domain/notifyconfig"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

// NotifyConfigRepository loads either the SMTP or SMS configuration
// aggregate by replaying its event stream, same Load-via-Query-then-Reduce
// shape as the other repositories, just split across two aggregate types
// sharing one package the way notifyconfig.go itself does.
type NotifyConfigRepository struct {
	store esdomain.EventStore
}

func NewNotifyConfigRepository(store esdomain.EventStore) *NotifyConfigRepository {
	return &NotifyConfigRepository{store: store}
}

func (r *NotifyConfigRepository) LoadSMTP(ctx context.Context, instanceID, id string) (*notifyconfig.SMTPConfig, error) {
	events, err := r.store.Query(ctx, esdomain.Filter{
		InstanceID:    instanceID,
		AggregateType: notifyconfig.SMTPAggregateType,
		AggregateIDs:  []string{id},
	})
	if err != nil {
		return nil, fmt.Errorf("query smtp config %s events: %w", id, err)
	}
	return notifyconfig.ReduceSMTP(instanceID, id, events)
}

func (r *NotifyConfigRepository) LoadSMS(ctx context.Context, instanceID, id string) (*notifyconfig.SMSConfig, error) {
	events, err := r.store.Query(ctx, esdomain.Filter{
		InstanceID:    instanceID,
		AggregateType: notifyconfig.SMSAggregateType,
		AggregateIDs:  []string{id},
	})
	if err != nil {
		return nil, fmt.Errorf("query sms config %s events: %w", id, err)
	}
	return notifyconfig.ReduceSMS(instanceID, id, events)
}
