package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

type ActionProjectionRow struct {
	InstanceID    string `gorm:"primaryKey;type:varchar(64)"`
	ID            string `gorm:"primaryKey;type:varchar(64)"`
	Name          string `gorm:"type:varchar(255);not null"`
	Script        string `gorm:"type:text;not null"`
	AllowedToFail bool   `gorm:"not null"`
	State         string `gorm:"index;type:varchar(32);not null"`
}

func (ActionProjectionRow) TableName() string { return "instance_actions_projection" }

type ExecutionProjectionRow struct {
	InstanceID  string `gorm:"primaryKey;type:varchar(64)"`
	ID          string `gorm:"primaryKey;type:varchar(64)"`
	TargetsJSON string `gorm:"column:targets;type:text;not null;default:'[]'"`
}

func (ExecutionProjectionRow) TableName() string { return "instance_executions_projection" }

type ActionReadModel struct {
	ID            string
	Name          string
	Script        string
	AllowedToFail bool
	State         string
}

type ExecutionReadModel struct {
	ID      string
	Targets []string
}

type ActionProjectionGORM struct {
	db *gorm.DB
}

func NewActionProjectionGORM(db *gorm.DB) *ActionProjectionGORM {
	return &ActionProjectionGORM{db: db}
}

func (p *ActionProjectionGORM) Migrate() error {
	return p.db.AutoMigrate(&ActionProjectionRow{}, &ExecutionProjectionRow{})
}

func (p *ActionProjectionGORM) Name() string { return "action_projection" }

func (p *ActionProjectionGORM) EventTypes() []string {
	return []string{
		"instance.action.added", "instance.action.changed", "instance.action.deactivated",
		"instance.action.reactivated", "instance.action.removed",
		"instance.execution.added", "instance.execution.changed", "instance.execution.removed",
	}
}

func (p *ActionProjectionGORM) Apply(ctx context.Context, events []esdomain.EventEnvelope[any]) error {
	for _, env := range events {
		if err := p.applyOne(ctx, env); err != nil {
			return fmt.Errorf("apply %s for %s: %w", env.EventType, env.AggregateID, err)
		}
	}
	return nil
}

func (p *ActionProjectionGORM) applyOne(ctx context.Context, env esdomain.EventEnvelope[any]) error {
	db := p.db.WithContext(ctx)
	id := env.AggregateID

	switch env.EventType {
	case "instance.action.added", "instance.action.changed":
		var payload struct {
			Name          string `json:"name"`
			Script        string `json:"script"`
			AllowedToFail bool   `json:"allowedToFail"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		if env.EventType == "instance.action.added" {
			row := ActionProjectionRow{InstanceID: env.InstanceID, ID: id, Name: payload.Name, Script: payload.Script, AllowedToFail: payload.AllowedToFail, State: "ACTIVE"}
			return db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "instance_id"}, {Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "script", "allowed_to_fail", "state"}),
			}).Create(&row).Error
		}
		return db.Model(&ActionProjectionRow{}).Where("instance_id = ? AND id = ?", env.InstanceID, id).
			Updates(map[string]any{"name": payload.Name, "script": payload.Script, "allowed_to_fail": payload.AllowedToFail}).Error

	case "instance.action.deactivated":
		return db.Model(&ActionProjectionRow{}).Where("instance_id = ? AND id = ?", env.InstanceID, id).Update("state", "INACTIVE").Error

	case "instance.action.reactivated":
		return db.Model(&ActionProjectionRow{}).Where("instance_id = ? AND id = ?", env.InstanceID, id).Update("state", "ACTIVE").Error

	case "instance.action.removed":
		return db.Where("instance_id = ? AND id = ?", env.InstanceID, id).Delete(&ActionProjectionRow{}).Error

	case "instance.execution.added", "instance.execution.changed":
		var payload struct {
			Targets []string `json:"targets"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		targetsJSON, err := json.Marshal(payload.Targets)
		if err != nil {
			return err
		}
		if env.EventType == "instance.execution.added" {
			row := ExecutionProjectionRow{InstanceID: env.InstanceID, ID: id, TargetsJSON: string(targetsJSON)}
			return db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "instance_id"}, {Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"targets"}),
			}).Create(&row).Error
		}
		return db.Model(&ExecutionProjectionRow{}).Where("instance_id = ? AND id = ?", env.InstanceID, id).Update("targets", string(targetsJSON)).Error

	case "instance.execution.removed":
		return db.Where("instance_id = ? AND id = ?", env.InstanceID, id).Delete(&ExecutionProjectionRow{}).Error
	}

	return nil
}

func (p *ActionProjectionGORM) GetActionByID(ctx context.Context, instanceID, id string) (*ActionReadModel, error) {
	var row ActionProjectionRow
	err := p.db.WithContext(ctx).Where("instance_id = ? AND id = ?", instanceID, id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get instance action %s: %w", id, err)
	}
	return &ActionReadModel{ID: row.ID, Name: row.Name, Script: row.Script, AllowedToFail: row.AllowedToFail, State: row.State}, nil
}

func (p *ActionProjectionGORM) ListActions(ctx context.Context, instanceID string) ([]ActionReadModel, error) {
	var rows []ActionProjectionRow
	err := p.db.WithContext(ctx).Where("instance_id = ?", instanceID).Order("id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list instance actions: %w", err)
	}
	out := make([]ActionReadModel, 0, len(rows))
	for _, row := range rows {
		out = append(out, ActionReadModel{ID: row.ID, Name: row.Name, Script: row.Script, AllowedToFail: row.AllowedToFail, State: row.State})
	}
	return out, nil
}

func (p *ActionProjectionGORM) GetExecutionByID(ctx context.Context, instanceID, id string) (*ExecutionReadModel, error) {
	var row ExecutionProjectionRow
	err := p.db.WithContext(ctx).Where("instance_id = ? AND id = ?", instanceID, id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get instance execution %s: %w", id, err)
	}
	var targets []string
	if err := json.Unmarshal([]byte(row.TargetsJSON), &targets); err != nil {
		return nil, fmt.Errorf("decode instance execution %s targets: %w", id, err)
	}
	return &ExecutionReadModel{ID: row.ID, Targets: targets}, nil
}
