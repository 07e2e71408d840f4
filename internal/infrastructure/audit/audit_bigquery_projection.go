// Package audit projects the full event stream into BigQuery for long-term
// analytics and audit trails — a separate concern from any in-process
// projection.Handler driving a read model: nothing here serves a query, it
// only accumulates history for ad-hoc SQL later.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

// Row is one event flattened for BigQuery's columnar store. Payload and
// Metadata are kept as raw JSON strings rather than nested RECORD columns —
// event payload shapes vary per event type and per aggregate, so a JSON
// string column is the only schema stable enough to survive new event types
// without a migration.
type Row struct {
	EventID          string
	InstanceID       string
	AggregateType    string
	AggregateID      string
	AggregateVersion int
	EventType        string
	EditorUser       string
	ResourceOwner    string
	PayloadJSON      string
	MetadataJSON     string
	OccurredAt       time.Time
	IngestedAt       time.Time
}

// Save implements bigquery.ValueSaver so rows can be handed straight to an
// Inserter without an intermediate map conversion.
func (r Row) Save() (map[string]bigquery.Value, string, error) {
	return map[string]bigquery.Value{
		"event_id":          r.EventID,
		"instance_id":       r.InstanceID,
		"aggregate_type":    r.AggregateType,
		"aggregate_id":      r.AggregateID,
		"aggregate_version": r.AggregateVersion,
		"event_type":        r.EventType,
		"editor_user":       r.EditorUser,
		"resource_owner":    r.ResourceOwner,
		"payload_json":      r.PayloadJSON,
		"metadata_json":     r.MetadataJSON,
		"occurred_at":       r.OccurredAt,
		"ingested_at":       r.IngestedAt,
	}, r.EventID, nil // insertID = event ID, so BigQuery's best-effort dedup catches replays
}

// Inserter is the subset of *bigquery.Inserter this projection needs, so
// tests can substitute a fake instead of talking to the real service.
type Inserter interface {
	Put(ctx context.Context, src any) error
}

// Projection appends every event, across every aggregate type, as one audit
// row. EventTypes returns nil so the supervisor subscribes it to everything.
type Projection struct {
	inserter Inserter
	nowFn    func() time.Time
}

// NewProjection wraps a BigQuery table's Inserter. Callers typically build it
// from client.Dataset(datasetID).Table(tableID).Inserter().
func NewProjection(inserter Inserter) *Projection {
	return &Projection{inserter: inserter, nowFn: time.Now}
}

func (p *Projection) Name() string { return "audit_bigquery_projection" }

func (p *Projection) EventTypes() []string { return nil }

func (p *Projection) Apply(ctx context.Context, events []esdomain.EventEnvelope[any]) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]Row, 0, len(events))
	for _, env := range events {
		row, err := p.toRow(env)
		if err != nil {
			return fmt.Errorf("encode audit row for %s/%s: %w", env.EventType, env.AggregateID, err)
		}
		rows = append(rows, row)
	}
	if err := p.inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("insert %d audit rows: %w", len(rows), err)
	}
	return nil
}

func (p *Projection) toRow(env esdomain.EventEnvelope[any]) (Row, error) {
	payloadJSON, err := json.Marshal(env.Payload)
	if err != nil {
		return Row{}, err
	}
	metadataJSON, err := json.Marshal(env.Metadata)
	if err != nil {
		return Row{}, err
	}
	now := time.Now
	if p.nowFn != nil {
		now = p.nowFn
	}
	return Row{
		EventID:          env.ID,
		InstanceID:       env.InstanceID,
		AggregateType:    env.AggregateType,
		AggregateID:      env.AggregateID,
		AggregateVersion: env.AggregateVersion,
		EventType:        env.EventType,
		EditorUser:       env.EditorUser,
		ResourceOwner:    env.ResourceOwner,
		PayloadJSON:      string(payloadJSON),
		MetadataJSON:     string(metadataJSON),
		OccurredAt:       env.Created,
		IngestedAt:       now(),
	}, nil
}

// Schema is the BigQuery table schema Row encodes to, for callers creating
// the audit table on first deploy.
func Schema() bigquery.Schema {
	return bigquery.Schema{
		{Name: "event_id", Type: bigquery.StringFieldType, Required: true},
		{Name: "instance_id", Type: bigquery.StringFieldType, Required: true},
		{Name: "aggregate_type", Type: bigquery.StringFieldType, Required: true},
		{Name: "aggregate_id", Type: bigquery.StringFieldType, Required: true},
		{Name: "aggregate_version", Type: bigquery.IntegerFieldType, Required: true},
		{Name: "event_type", Type: bigquery.StringFieldType, Required: true},
		{Name: "editor_user", Type: bigquery.StringFieldType},
		{Name: "resource_owner", Type: bigquery.StringFieldType},
		{Name: "payload_json", Type: bigquery.StringFieldType, Required: true},
		{Name: "metadata_json", Type: bigquery.StringFieldType},
		{Name: "occurred_at", Type: bigquery.TimestampFieldType, Required: true},
		{Name: "ingested_at", Type: bigquery.TimestampFieldType, Required: true},
	}
}
