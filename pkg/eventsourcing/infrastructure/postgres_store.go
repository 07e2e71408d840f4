package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

// PostgresStore is the production domain.EventStore: one append-only
// `event_log` table per deployment, partitioned logically by instance_id,
// plus an `instance_positions` row per instance that SELECT ... FOR UPDATE
// serializes Base allocation through. GORM can model the row shape but not
// the locked-read-then-increment Push does, so this talks to pgx directly.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an already-configured pool. Call Migrate before
// first use.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS instance_positions (
	instance_id TEXT PRIMARY KEY,
	next_base   BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS event_log (
	id                TEXT NOT NULL,
	instance_id       TEXT NOT NULL,
	aggregate_type    TEXT NOT NULL,
	aggregate_id      TEXT NOT NULL,
	aggregate_version INTEGER NOT NULL,
	event_type        TEXT NOT NULL,
	revision          INTEGER NOT NULL,
	payload           JSONB NOT NULL,
	editor_user       TEXT NOT NULL DEFAULT '',
	resource_owner    TEXT NOT NULL DEFAULT '',
	metadata          JSONB,
	position_base     BIGINT NOT NULL,
	position_order    INTEGER NOT NULL,
	created           TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (instance_id, position_base, position_order),
	UNIQUE (instance_id, aggregate_type, aggregate_id, aggregate_version)
);

CREATE INDEX IF NOT EXISTS event_log_by_id ON event_log (instance_id, id);
CREATE INDEX IF NOT EXISTS event_log_by_aggregate ON event_log (instance_id, aggregate_type, aggregate_id);
CREATE INDEX IF NOT EXISTS event_log_by_type ON event_log (instance_id, event_type);
`

// Migrate creates event_log and instance_positions if they don't exist yet.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, postgresSchema)
	if err != nil {
		return fmt.Errorf("migrate event log schema: %w", err)
	}
	return nil
}

// Push implements domain.EventStore. Base allocation and per-aggregate
// version checks happen inside one transaction: the instance_positions row
// is locked first (gap-free Base across concurrent pushes to the same
// instance), then each touched aggregate's current version is read via
// pg_advisory_xact_lock so a brand-new aggregate (zero existing rows, hence
// nothing for SELECT ... FOR UPDATE to lock) is still serialized against a
// concurrent first write.
func (p *PostgresStore) Push(ctx context.Context, instanceID string, commands ...domain.UnsignedCommand[any]) ([]domain.EventEnvelope[any], error) {
	if len(commands) == 0 {
		return nil, domain.ErrEmptyPush
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin push transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `INSERT INTO instance_positions (instance_id, next_base) VALUES ($1, 0) ON CONFLICT (instance_id) DO NOTHING`, instanceID); err != nil {
		return nil, fmt.Errorf("seed instance position: %w", err)
	}

	var nextBase int64
	if err := tx.QueryRow(ctx, `SELECT next_base FROM instance_positions WHERE instance_id = $1 FOR UPDATE`, instanceID).Scan(&nextBase); err != nil {
		return nil, fmt.Errorf("lock instance position: %w", err)
	}
	base := nextBase + 1

	pendingBump := make(map[aggregateKey]int)
	envelopes := make([]domain.EventEnvelope[any], 0, len(commands))

	for i, cmd := range commands {
		if cmd.AggregateType == "" || cmd.AggregateID == "" {
			return nil, fmt.Errorf("%w: aggregate_type and aggregate_id are required", domain.ErrInvalidEvent)
		}

		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, instanceID+"/"+cmd.AggregateType+"/"+cmd.AggregateID); err != nil {
			return nil, fmt.Errorf("lock aggregate %s/%s: %w", cmd.AggregateType, cmd.AggregateID, err)
		}

		key := aggregateKey{aggregateType: cmd.AggregateType, aggregateID: cmd.AggregateID}
		if _, seen := pendingBump[key]; !seen {
			var current int
			err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(aggregate_version), 0) FROM event_log WHERE instance_id = $1 AND aggregate_type = $2 AND aggregate_id = $3`,
				instanceID, cmd.AggregateType, cmd.AggregateID).Scan(&current)
			if err != nil {
				return nil, fmt.Errorf("read current version for %s/%s: %w", cmd.AggregateType, cmd.AggregateID, err)
			}
			pendingBump[key] = current
		}

		if cmd.ExpectedVersion != nil && *cmd.ExpectedVersion != pendingBump[key] {
			return nil, fmt.Errorf("%w: aggregate %s/%s expected version %d, got %d",
				domain.ErrConcurrencyConflict, cmd.AggregateType, cmd.AggregateID, *cmd.ExpectedVersion, pendingBump[key])
		}
		pendingBump[key]++

		payload, err := json.Marshal(cmd.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload for %s: %w", cmd.EventType, err)
		}
		metadata, err := json.Marshal(map[string]interface{}{})
		if err != nil {
			return nil, fmt.Errorf("marshal metadata: %w", err)
		}

		env := domain.EventEnvelope[any]{
			ID:               newEventID(),
			InstanceID:       instanceID,
			AggregateType:    cmd.AggregateType,
			AggregateID:      cmd.AggregateID,
			AggregateVersion: pendingBump[key],
			EventType:        cmd.EventType,
			Revision:         cmd.Revision,
			Payload:          cmd.Payload,
			EditorUser:       cmd.EditorUser,
			ResourceOwner:    cmd.ResourceOwner,
			Position:         domain.Position{Base: base, Order: i},
			Created:          time.Now().UTC(),
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO event_log (id, instance_id, aggregate_type, aggregate_id, aggregate_version, event_type, revision, payload, editor_user, resource_owner, metadata, position_base, position_order, created)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			env.ID, env.InstanceID, env.AggregateType, env.AggregateID, env.AggregateVersion, env.EventType, env.Revision,
			payload, env.EditorUser, env.ResourceOwner, metadata, env.Position.Base, env.Position.Order, env.Created)
		if err != nil {
			return nil, fmt.Errorf("insert event %s: %w", env.EventType, err)
		}

		envelopes = append(envelopes, env)
	}

	if _, err := tx.Exec(ctx, `UPDATE instance_positions SET next_base = $2 WHERE instance_id = $1`, instanceID, base); err != nil {
		return nil, fmt.Errorf("advance instance position: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit push: %w", err)
	}

	return envelopes, nil
}

// Query implements domain.EventStore.
func (p *PostgresStore) Query(ctx context.Context, filter domain.Filter) ([]domain.EventEnvelope[any], error) {
	sql := `SELECT id, instance_id, aggregate_type, aggregate_id, aggregate_version, event_type, revision, payload, editor_user, resource_owner, metadata, position_base, position_order, created
		FROM event_log WHERE instance_id = $1`
	args := []any{filter.InstanceID}

	if filter.AggregateType != "" {
		args = append(args, filter.AggregateType)
		sql += fmt.Sprintf(" AND aggregate_type = $%d", len(args))
	}
	if len(filter.AggregateIDs) > 0 {
		args = append(args, filter.AggregateIDs)
		sql += fmt.Sprintf(" AND aggregate_id = ANY($%d)", len(args))
	}
	if len(filter.EventTypes) > 0 {
		args = append(args, filter.EventTypes)
		sql += fmt.Sprintf(" AND event_type = ANY($%d)", len(args))
	}
	if filter.FromPosition != nil {
		args = append(args, filter.FromPosition.Base, filter.FromPosition.Order)
		sql += fmt.Sprintf(" AND (position_base, position_order) > ($%d, $%d)", len(args)-1, len(args))
	}
	sql += " ORDER BY position_base, position_order"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query event log: %w", err)
	}
	defer rows.Close()

	return scanEnvelopes(rows)
}

func scanEnvelopes(rows pgx.Rows) ([]domain.EventEnvelope[any], error) {
	result := make([]domain.EventEnvelope[any], 0)
	for rows.Next() {
		var env domain.EventEnvelope[any]
		var payload, metadata []byte
		if err := rows.Scan(&env.ID, &env.InstanceID, &env.AggregateType, &env.AggregateID, &env.AggregateVersion,
			&env.EventType, &env.Revision, &payload, &env.EditorUser, &env.ResourceOwner, &metadata,
			&env.Position.Base, &env.Position.Order, &env.Created); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		var decoded any
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, fmt.Errorf("decode payload for event %s: %w", env.ID, err)
		}
		env.Payload = decoded
		if len(metadata) > 0 {
			var m map[string]interface{}
			if err := json.Unmarshal(metadata, &m); err != nil {
				return nil, fmt.Errorf("decode metadata for event %s: %w", env.ID, err)
			}
			env.Metadata = m
		}
		result = append(result, env)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// LatestPosition implements domain.EventStore.
func (p *PostgresStore) LatestPosition(ctx context.Context, instanceID string) (domain.Position, error) {
	var base int64
	var order int
	err := p.pool.QueryRow(ctx, `SELECT position_base, position_order FROM event_log WHERE instance_id = $1 ORDER BY position_base DESC, position_order DESC LIMIT 1`, instanceID).
		Scan(&base, &order)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Position{}, nil
	}
	if err != nil {
		return domain.Position{}, fmt.Errorf("read latest position: %w", err)
	}
	return domain.Position{Base: base, Order: order}, nil
}

// Subscribe implements domain.EventStore by polling: it has no LISTEN/NOTIFY
// wiring, so a caller's effective latency is bounded by pollInterval. The
// projection supervisor tolerates this the same way it tolerates a dropped
// MemoryStore notification — it just re-polls from its cursor.
const subscribePollInterval = 500 * time.Millisecond

func (p *PostgresStore) Subscribe(ctx context.Context, instanceID string, from domain.Position) (<-chan domain.EventEnvelope[any], error) {
	ch := make(chan domain.EventEnvelope[any], 64)

	go func() {
		defer close(ch)
		cursor := from
		ticker := time.NewTicker(subscribePollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				events, err := p.Query(ctx, domain.Filter{InstanceID: instanceID, FromPosition: &cursor})
				if err != nil {
					continue
				}
				for _, event := range events {
					select {
					case ch <- event:
						cursor = event.Position
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return ch, nil
}

// GetEventByID implements domain.EventStore.
func (p *PostgresStore) GetEventByID(ctx context.Context, instanceID, eventID string) (domain.EventEnvelope[any], error) {
	rows, err := p.pool.Query(ctx, `SELECT id, instance_id, aggregate_type, aggregate_id, aggregate_version, event_type, revision, payload, editor_user, resource_owner, metadata, position_base, position_order, created
		FROM event_log WHERE instance_id = $1 AND id = $2`, instanceID, eventID)
	if err != nil {
		return domain.EventEnvelope[any]{}, fmt.Errorf("query event by id: %w", err)
	}
	defer rows.Close()

	envs, err := scanEnvelopes(rows)
	if err != nil {
		return domain.EventEnvelope[any]{}, err
	}
	if len(envs) == 0 {
		return domain.EventEnvelope[any]{}, domain.ErrEventNotFound
	}
	return envs[0], nil
}

// GetCurrentVersion implements domain.EventStore.
func (p *PostgresStore) GetCurrentVersion(ctx context.Context, instanceID, aggregateType, aggregateID string) (int, error) {
	var version int
	err := p.pool.QueryRow(ctx, `SELECT COALESCE(MAX(aggregate_version), 0) FROM event_log WHERE instance_id = $1 AND aggregate_type = $2 AND aggregate_id = $3`,
		instanceID, aggregateType, aggregateID).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("read current version: %w", err)
	}
	return version, nil
}

// Close implements domain.EventStore.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
