package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	policydomain "github.com/iamcore/iamcore/internal/domain/policy"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

// PolicyProjectionRow is the GORM row for one policy aggregate. Settings is
// kept as a JSON column since its shape varies by Kind (password
// complexity vs. login vs. label, …) and the projection has no reason to
// understand any one kind's fields.
type PolicyProjectionRow struct {
	InstanceID   string `gorm:"primaryKey;type:varchar(64)"`
	ID           string `gorm:"primaryKey;type:varchar(64)"`
	Kind         string `gorm:"index:idx_policy_scope;type:varchar(32);not null"`
	Scope        string `gorm:"index:idx_policy_scope;type:varchar(16);not null"`
	ScopeID      string `gorm:"index:idx_policy_scope;type:varchar(64)"`
	State        string `gorm:"type:varchar(32);not null"`
	SettingsJSON string `gorm:"column:settings;type:text;not null;default:'{}'"`
}

func (PolicyProjectionRow) TableName() string { return "policies_projection" }

// PolicyReadModel is the plain read shape handed back to callers;
// internal/application/policy converts it into its own view type.
type PolicyReadModel struct {
	ID       string
	Kind     string
	Scope    string
	ScopeID  string
	State    string
	Settings map[string]any
}

// PolicyProjectionGORM is both the projection engine's Handler (writing)
// and the query side's read model (reading) for policies, and doubles as
// the at-most-one-per-scope uniqueness check the command handler runs
// before Add.
type PolicyProjectionGORM struct {
	db *gorm.DB
}

func NewPolicyProjectionGORM(db *gorm.DB) *PolicyProjectionGORM {
	return &PolicyProjectionGORM{db: db}
}

func (p *PolicyProjectionGORM) Migrate() error {
	return p.db.AutoMigrate(&PolicyProjectionRow{})
}

func (p *PolicyProjectionGORM) Name() string { return "policy_projection" }

func (p *PolicyProjectionGORM) EventTypes() []string {
	return []string{"policy.added", "policy.changed", "policy.removed"}
}

func (p *PolicyProjectionGORM) Apply(ctx context.Context, events []esdomain.EventEnvelope[any]) error {
	for _, env := range events {
		if err := p.applyOne(ctx, env); err != nil {
			return fmt.Errorf("apply %s for policy %s: %w", env.EventType, env.AggregateID, err)
		}
	}
	return nil
}

func (p *PolicyProjectionGORM) applyOne(ctx context.Context, env esdomain.EventEnvelope[any]) error {
	db := p.db.WithContext(ctx)
	policyID := env.AggregateID

	switch env.EventType {
	case "policy.added":
		var payload struct {
			Kind     string         `json:"kind"`
			Scope    string         `json:"scope"`
			ScopeID  string         `json:"scopeId"`
			Settings map[string]any `json:"settings"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		settingsJSON, err := json.Marshal(payload.Settings)
		if err != nil {
			return err
		}
		row := PolicyProjectionRow{
			InstanceID: env.InstanceID, ID: policyID, Kind: payload.Kind, Scope: payload.Scope,
			ScopeID: payload.ScopeID, State: "ACTIVE", SettingsJSON: string(settingsJSON),
		}
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "instance_id"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"kind", "scope", "scope_id", "state", "settings"}),
		}).Create(&row).Error

	case "policy.changed":
		var payload struct {
			Settings map[string]any `json:"settings"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		settingsJSON, err := json.Marshal(payload.Settings)
		if err != nil {
			return err
		}
		return db.Model(&PolicyProjectionRow{}).
			Where("instance_id = ? AND id = ?", env.InstanceID, policyID).
			Update("settings", string(settingsJSON)).Error

	case "policy.removed":
		return db.Model(&PolicyProjectionRow{}).
			Where("instance_id = ? AND id = ?", env.InstanceID, policyID).
			Update("state", "REMOVED").Error
	}

	return nil
}

func (p *PolicyProjectionGORM) toReadModel(row PolicyProjectionRow) (*PolicyReadModel, error) {
	var settings map[string]any
	if err := json.Unmarshal([]byte(row.SettingsJSON), &settings); err != nil {
		return nil, fmt.Errorf("decode settings for policy %s: %w", row.ID, err)
	}
	return &PolicyReadModel{ID: row.ID, Kind: row.Kind, Scope: row.Scope, ScopeID: row.ScopeID, State: row.State, Settings: settings}, nil
}

// GetByID returns the policy's read model, or nil if not found.
func (p *PolicyProjectionGORM) GetByID(ctx context.Context, instanceID, id string) (*PolicyReadModel, error) {
	var row PolicyProjectionRow
	err := p.db.WithContext(ctx).Where("instance_id = ? AND id = ?", instanceID, id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get policy %s: %w", id, err)
	}
	return p.toReadModel(row)
}

// ListByScope returns every non-removed policy for scope/scopeID.
func (p *PolicyProjectionGORM) ListByScope(ctx context.Context, instanceID string, scope policydomain.Scope, scopeID string) ([]PolicyReadModel, error) {
	var rows []PolicyProjectionRow
	err := p.db.WithContext(ctx).
		Where("instance_id = ? AND scope = ? AND scope_id = ? AND state != ?", instanceID, string(scope), scopeID, "REMOVED").
		Order("id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list policies for scope %s/%s: %w", scope, scopeID, err)
	}
	out := make([]PolicyReadModel, 0, len(rows))
	for _, row := range rows {
		rm, err := p.toReadModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *rm)
	}
	return out, nil
}

// ExistsForScope reports whether a non-removed policy of kind already
// exists for scope/scopeID, the invariant Add must check before creating
// a new aggregate.
func (p *PolicyProjectionGORM) ExistsForScope(ctx context.Context, instanceID string, kind policydomain.Kind, scope policydomain.Scope, scopeID string) (bool, error) {
	var count int64
	err := p.db.WithContext(ctx).Model(&PolicyProjectionRow{}).
		Where("instance_id = ? AND kind = ? AND scope = ? AND scope_id = ? AND state != ?", instanceID, string(kind), string(scope), scopeID, "REMOVED").
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check existing policy for scope %s/%s kind %s: %w", scope, scopeID, kind, err)
	}
	return count > 0, nil
}
