package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

// UserProjectionRow is the GORM row for one user, kept in sync by
// UserProjectionGORM as user.* events are applied (spec.md §4.4). It
// projects the internal/domain/user aggregate, not the older pkg/domain
// User type.
type UserProjectionRow struct {
	InstanceID    string `gorm:"primaryKey;type:varchar(64)"`
	ID            string `gorm:"primaryKey;type:varchar(64)"`
	Type          string `gorm:"type:varchar(16);not null"`
	State         string `gorm:"type:varchar(32);not null"`
	Username      string `gorm:"type:varchar(200);not null;index"`
	DisplayName   string `gorm:"type:varchar(200)"`
	Email         string `gorm:"type:varchar(320);index"`
	EmailVerified bool   `gorm:"not null;default:false"`
	Phone         string `gorm:"type:varchar(32)"`
	PhoneVerified bool   `gorm:"not null;default:false"`
	TOTPAdded     bool   `gorm:"not null;default:false"`
	TOTPVerified  bool   `gorm:"not null;default:false"`
}

func (UserProjectionRow) TableName() string { return "users_projection" }

// UserReadModel is the shape handed back to callers; the user application
// package's query handlers convert this into its own view type, keeping this
// package free of a dependency on internal/application/user.
type UserReadModel struct {
	ID            string
	Type          string
	State         string
	Username      string
	DisplayName   string
	Email         string
	EmailVerified bool
	Phone         string
	PhoneVerified bool
	TOTPEnrolled  bool
}

// UserProjectionGORM is both the projection engine's Handler (writing) and
// the query side's read model (reading) for users, backed by the same GORM
// table.
type UserProjectionGORM struct {
	db *gorm.DB
}

func NewUserProjectionGORM(db *gorm.DB) *UserProjectionGORM {
	return &UserProjectionGORM{db: db}
}

func (p *UserProjectionGORM) Migrate() error {
	return p.db.AutoMigrate(&UserProjectionRow{})
}

// Name implements projection.Handler.
func (p *UserProjectionGORM) Name() string { return "user_projection" }

// EventTypes implements projection.Handler.
func (p *UserProjectionGORM) EventTypes() []string {
	return []string{
		"user.human.added", "user.machine.added",
		"user.username.changed", "user.profile.changed",
		"user.email.change.code.added", "user.email.verified", "user.email.verify.check.failed",
		"user.phone.change.code.added", "user.phone.verified", "user.phone.verify.check.failed",
		"user.password.changed",
		"user.locked", "user.unlocked", "user.deactivated", "user.reactivated", "user.removed",
		"user.human.totp.added", "user.human.totp.verified", "user.human.totp.removed",
	}
}

// Apply implements projection.Handler. Every write is an upsert or update
// keyed by (instance_id, id), so replaying the same event twice after a
// crash leaves the row unchanged.
func (p *UserProjectionGORM) Apply(ctx context.Context, events []esdomain.EventEnvelope[any]) error {
	for _, env := range events {
		if err := p.applyOne(ctx, env); err != nil {
			return fmt.Errorf("apply %s for user %s: %w", env.EventType, env.AggregateID, err)
		}
	}
	return nil
}

func (p *UserProjectionGORM) applyOne(ctx context.Context, env esdomain.EventEnvelope[any]) error {
	db := p.db.WithContext(ctx)
	userID := env.AggregateID

	switch env.EventType {
	case "user.human.added":
		var payload struct {
			Username     string `json:"username"`
			DisplayName  string `json:"displayName"`
			Email        string `json:"email"`
			Phone        string `json:"phone"`
			PasswordHash string `json:"passwordHash"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		row := UserProjectionRow{
			InstanceID: env.InstanceID, ID: userID, Type: "HUMAN", State: "INITIAL",
			Username: payload.Username, DisplayName: payload.DisplayName,
			Email: payload.Email, Phone: payload.Phone,
		}
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "instance_id"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"type", "state", "username", "display_name", "email", "phone"}),
		}).Create(&row).Error

	case "user.machine.added":
		var payload struct {
			Username    string `json:"username"`
			DisplayName string `json:"displayName"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		row := UserProjectionRow{
			InstanceID: env.InstanceID, ID: userID, Type: "MACHINE", State: "ACTIVE",
			Username: payload.Username, DisplayName: payload.DisplayName,
		}
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "instance_id"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"type", "state", "username", "display_name"}),
		}).Create(&row).Error

	case "user.username.changed":
		var payload struct {
			Username string `json:"username"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		return p.update(db, env.InstanceID, userID, "username", payload.Username)

	case "user.profile.changed":
		var payload struct {
			DisplayName string `json:"displayName"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		return p.update(db, env.InstanceID, userID, "display_name", payload.DisplayName)

	case "user.email.change.code.added":
		return nil

	case "user.email.verified":
		var row UserProjectionRow
		if err := db.Where("instance_id = ? AND id = ?", env.InstanceID, userID).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		return db.Model(&UserProjectionRow{}).
			Where("instance_id = ? AND id = ?", env.InstanceID, userID).
			Update("email_verified", true).Error

	case "user.email.verify.check.failed":
		return nil

	case "user.phone.change.code.added":
		return nil

	case "user.phone.verified":
		return db.Model(&UserProjectionRow{}).
			Where("instance_id = ? AND id = ?", env.InstanceID, userID).
			Update("phone_verified", true).Error

	case "user.phone.verify.check.failed":
		return nil

	case "user.password.changed":
		return nil

	case "user.locked":
		return p.setState(db, env.InstanceID, userID, "LOCKED")

	case "user.unlocked":
		return p.setState(db, env.InstanceID, userID, "ACTIVE")

	case "user.deactivated":
		return p.setState(db, env.InstanceID, userID, "INACTIVE")

	case "user.reactivated":
		return p.setState(db, env.InstanceID, userID, "ACTIVE")

	case "user.removed":
		return p.setState(db, env.InstanceID, userID, "DELETED")

	case "user.human.totp.added":
		return db.Model(&UserProjectionRow{}).
			Where("instance_id = ? AND id = ?", env.InstanceID, userID).
			Updates(map[string]any{"totp_added": true, "totp_verified": false}).Error

	case "user.human.totp.verified":
		return db.Model(&UserProjectionRow{}).
			Where("instance_id = ? AND id = ?", env.InstanceID, userID).
			Update("totp_verified", true).Error

	case "user.human.totp.removed":
		return db.Model(&UserProjectionRow{}).
			Where("instance_id = ? AND id = ?", env.InstanceID, userID).
			Updates(map[string]any{"totp_added": false, "totp_verified": false}).Error
	}

	return nil
}

func (p *UserProjectionGORM) update(db *gorm.DB, instanceID, userID, column, value string) error {
	return db.Model(&UserProjectionRow{}).
		Where("instance_id = ? AND id = ?", instanceID, userID).
		Update(column, value).Error
}

func (p *UserProjectionGORM) setState(db *gorm.DB, instanceID, userID, state string) error {
	return db.Model(&UserProjectionRow{}).
		Where("instance_id = ? AND id = ?", instanceID, userID).
		Update("state", state).Error
}

// GetByID returns the user's read model, or nil if not found.
func (p *UserProjectionGORM) GetByID(ctx context.Context, instanceID, id string) (*UserReadModel, error) {
	var row UserProjectionRow
	err := p.db.WithContext(ctx).Where("instance_id = ? AND id = ?", instanceID, id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return toUserReadModel(row), nil
}

// GetByEmail returns the user's read model matching email within instanceID.
func (p *UserProjectionGORM) GetByEmail(ctx context.Context, instanceID, email string) (*UserReadModel, error) {
	var row UserProjectionRow
	err := p.db.WithContext(ctx).Where("instance_id = ? AND email = ?", instanceID, email).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email %s: %w", email, err)
	}
	return toUserReadModel(row), nil
}

// List returns every user's read model for instanceID.
func (p *UserProjectionGORM) List(ctx context.Context, instanceID string) ([]UserReadModel, error) {
	var rows []UserProjectionRow
	if err := p.db.WithContext(ctx).Where("instance_id = ?", instanceID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]UserReadModel, len(rows))
	for i, row := range rows {
		out[i] = *toUserReadModel(row)
	}
	return out, nil
}

func toUserReadModel(row UserProjectionRow) *UserReadModel {
	return &UserReadModel{
		ID: row.ID, Type: row.Type, State: row.State,
		Username: row.Username, DisplayName: row.DisplayName,
		Email: row.Email, EmailVerified: row.EmailVerified,
		Phone: row.Phone, PhoneVerified: row.PhoneVerified,
		TOTPEnrolled: row.TOTPAdded,
	}
}
