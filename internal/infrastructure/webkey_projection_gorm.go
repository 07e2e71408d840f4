package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

type WebKeyProjectionRow struct {
	InstanceID string `gorm:"primaryKey;type:varchar(64)"`
	ID         string `gorm:"primaryKey;type:varchar(64)"`
	State      string `gorm:"index;type:varchar(32);not null"`
	Algorithm  string `gorm:"type:varchar(16);not null"`
	PublicJWK  string `gorm:"column:public_jwk;type:text;not null"`
}

func (WebKeyProjectionRow) TableName() string { return "web_keys_projection" }

type WebKeyReadModel struct {
	ID        string
	State     string
	Algorithm string
	PublicJWK string
}

type WebKeyProjectionGORM struct {
	db *gorm.DB
}

func NewWebKeyProjectionGORM(db *gorm.DB) *WebKeyProjectionGORM {
	return &WebKeyProjectionGORM{db: db}
}

func (p *WebKeyProjectionGORM) Migrate() error {
	return p.db.AutoMigrate(&WebKeyProjectionRow{})
}

func (p *WebKeyProjectionGORM) Name() string { return "web_key_projection" }

func (p *WebKeyProjectionGORM) EventTypes() []string {
	return []string{"web_key.generated", "web_key.activated", "web_key.deactivated", "web_key.removed"}
}

func (p *WebKeyProjectionGORM) Apply(ctx context.Context, events []esdomain.EventEnvelope[any]) error {
	for _, env := range events {
		if err := p.applyOne(ctx, env); err != nil {
			return fmt.Errorf("apply %s for web key %s: %w", env.EventType, env.AggregateID, err)
		}
	}
	return nil
}

func (p *WebKeyProjectionGORM) applyOne(ctx context.Context, env esdomain.EventEnvelope[any]) error {
	db := p.db.WithContext(ctx)
	id := env.AggregateID

	switch env.EventType {
	case "web_key.generated":
		var payload struct {
			Algorithm string `json:"algorithm"`
			PublicJWK string `json:"publicJwk"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		row := WebKeyProjectionRow{InstanceID: env.InstanceID, ID: id, State: "INITIAL", Algorithm: payload.Algorithm, PublicJWK: payload.PublicJWK}
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "instance_id"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"state", "algorithm", "public_jwk"}),
		}).Create(&row).Error

	case "web_key.activated":
		return db.Model(&WebKeyProjectionRow{}).Where("instance_id = ? AND id = ?", env.InstanceID, id).Update("state", "ACTIVE").Error

	case "web_key.deactivated":
		return db.Model(&WebKeyProjectionRow{}).Where("instance_id = ? AND id = ?", env.InstanceID, id).Update("state", "INACTIVE").Error

	case "web_key.removed":
		return db.Model(&WebKeyProjectionRow{}).Where("instance_id = ? AND id = ?", env.InstanceID, id).Update("state", "REMOVED").Error
	}

	return nil
}

func (p *WebKeyProjectionGORM) toReadModel(row WebKeyProjectionRow) WebKeyReadModel {
	return WebKeyReadModel{ID: row.ID, State: row.State, Algorithm: row.Algorithm, PublicJWK: row.PublicJWK}
}

func (p *WebKeyProjectionGORM) GetByID(ctx context.Context, instanceID, id string) (*WebKeyReadModel, error) {
	var row WebKeyProjectionRow
	err := p.db.WithContext(ctx).Where("instance_id = ? AND id = ?", instanceID, id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get web key %s: %w", id, err)
	}
	rm := p.toReadModel(row)
	return &rm, nil
}

// ListActive returns every ACTIVE web key for the instance — the set a
// token verifier would fetch to build its JWKS response.
func (p *WebKeyProjectionGORM) ListActive(ctx context.Context, instanceID string) ([]WebKeyReadModel, error) {
	var rows []WebKeyProjectionRow
	err := p.db.WithContext(ctx).Where("instance_id = ? AND state = ?", instanceID, "ACTIVE").Order("id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list active web keys: %w", err)
	}
	out := make([]WebKeyReadModel, 0, len(rows))
	for _, row := range rows {
		out = append(out, p.toReadModel(row))
	}
	return out, nil
}
