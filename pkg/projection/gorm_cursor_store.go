package projection

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

func onConflictUpdatePosition() clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}, {Name: "instance_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"position_base", "position_order"}),
	}
}

// cursorRow is the GORM model backing GORMCursorStore. One row per
// (name, instance_id): the projection's last acknowledged position.
type cursorRow struct {
	Name            string `gorm:"primaryKey;type:varchar(255)"`
	InstanceID      string `gorm:"primaryKey;type:varchar(64)"`
	PositionBase    int64  `gorm:"not null;default:0"`
	PositionOrder   int    `gorm:"not null;default:0"`
	UpdatedAtMillis int64  `gorm:"not null;default:0"`
}

func (cursorRow) TableName() string {
	return "projection_states"
}

// GORMCursorStore persists projection cursors in a relational table via
// GORM, the same way every other read-model repository in this codebase
// talks to its database.
type GORMCursorStore struct {
	db *gorm.DB
}

func NewGORMCursorStore(db *gorm.DB) *GORMCursorStore {
	return &GORMCursorStore{db: db}
}

func (s *GORMCursorStore) Migrate() error {
	return s.db.AutoMigrate(&cursorRow{})
}

func (s *GORMCursorStore) Load(ctx context.Context, name, instanceID string) (domain.Position, error) {
	var row cursorRow
	err := s.db.WithContext(ctx).
		Where("name = ? AND instance_id = ?", name, instanceID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Position{}, nil
	}
	if err != nil {
		return domain.Position{}, fmt.Errorf("load cursor %s/%s: %w", name, instanceID, err)
	}
	return domain.Position{Base: row.PositionBase, Order: row.PositionOrder}, nil
}

func (s *GORMCursorStore) Advance(ctx context.Context, name, instanceID string, position domain.Position) error {
	row := cursorRow{
		Name:          name,
		InstanceID:    instanceID,
		PositionBase:  position.Base,
		PositionOrder: position.Order,
	}
	err := s.db.WithContext(ctx).
		Clauses(onConflictUpdatePosition()).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("advance cursor %s/%s: %w", name, instanceID, err)
	}
	return nil
}
