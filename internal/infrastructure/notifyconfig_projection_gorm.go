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

type SMTPConfigProjectionRow struct {
	InstanceID string `gorm:"primaryKey;type:varchar(64)"`
	ID         string `gorm:"primaryKey;type:varchar(64)"`
	Host       string `gorm:"type:varchar(255);not null"`
	Port       int    `gorm:"not null"`
	User       string `gorm:"type:varchar(255)"`
	Password   string `gorm:"type:varchar(255)"`
	State      string `gorm:"index;type:varchar(32);not null"`
}

func (SMTPConfigProjectionRow) TableName() string { return "smtp_configs_projection" }

type SMSConfigProjectionRow struct {
	InstanceID   string `gorm:"primaryKey;type:varchar(64)"`
	ID           string `gorm:"primaryKey;type:varchar(64)"`
	Provider     string `gorm:"type:varchar(16);not null"`
	SettingsJSON string `gorm:"column:settings;type:text;not null;default:'{}'"`
	State        string `gorm:"index;type:varchar(32);not null"`
}

func (SMSConfigProjectionRow) TableName() string { return "sms_configs_projection" }

type SMTPConfigReadModel struct {
	ID       string
	Host     string
	Port     int
	User     string
	Password string
	State    string
}

type SMSConfigReadModel struct {
	ID       string
	Provider string
	Settings map[string]any
	State    string
}

type NotifyConfigProjectionGORM struct {
	db *gorm.DB
}

func NewNotifyConfigProjectionGORM(db *gorm.DB) *NotifyConfigProjectionGORM {
	return &NotifyConfigProjectionGORM{db: db}
}

func (p *NotifyConfigProjectionGORM) Migrate() error {
	return p.db.AutoMigrate(&SMTPConfigProjectionRow{}, &SMSConfigProjectionRow{})
}

func (p *NotifyConfigProjectionGORM) Name() string { return "notify_config_projection" }

func (p *NotifyConfigProjectionGORM) EventTypes() []string {
	return []string{
		"smtp_config.added", "smtp_config.changed", "smtp_config.activated", "smtp_config.deactivated", "smtp_config.removed",
		"sms_config.added", "sms_config.changed", "sms_config.activated", "sms_config.deactivated", "sms_config.removed",
	}
}

func (p *NotifyConfigProjectionGORM) Apply(ctx context.Context, events []esdomain.EventEnvelope[any]) error {
	for _, env := range events {
		if err := p.applyOne(ctx, env); err != nil {
			return fmt.Errorf("apply %s for %s: %w", env.EventType, env.AggregateID, err)
		}
	}
	return nil
}

func (p *NotifyConfigProjectionGORM) applyOne(ctx context.Context, env esdomain.EventEnvelope[any]) error {
	db := p.db.WithContext(ctx)
	id := env.AggregateID

	switch env.EventType {
	case "smtp_config.added", "smtp_config.changed":
		var payload struct {
			Host     string `json:"host"`
			Port     int    `json:"port"`
			User     string `json:"user"`
			Password string `json:"password"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		if env.EventType == "smtp_config.added" {
			row := SMTPConfigProjectionRow{InstanceID: env.InstanceID, ID: id, Host: payload.Host, Port: payload.Port, User: payload.User, Password: payload.Password, State: "INACTIVE"}
			return db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "instance_id"}, {Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"host", "port", "user", "password", "state"}),
			}).Create(&row).Error
		}
		return db.Model(&SMTPConfigProjectionRow{}).Where("instance_id = ? AND id = ?", env.InstanceID, id).
			Updates(map[string]any{"host": payload.Host, "port": payload.Port, "user": payload.User, "password": payload.Password}).Error

	case "smtp_config.activated":
		return db.Model(&SMTPConfigProjectionRow{}).Where("instance_id = ? AND id = ?", env.InstanceID, id).Update("state", "ACTIVE").Error

	case "smtp_config.deactivated":
		return db.Model(&SMTPConfigProjectionRow{}).Where("instance_id = ? AND id = ?", env.InstanceID, id).Update("state", "INACTIVE").Error

	case "smtp_config.removed":
		return db.Model(&SMTPConfigProjectionRow{}).Where("instance_id = ? AND id = ?", env.InstanceID, id).Update("state", "REMOVED").Error

	case "sms_config.added", "sms_config.changed":
		var payload struct {
			Provider string         `json:"provider"`
			Settings map[string]any `json:"settings"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		settingsJSON, err := json.Marshal(payload.Settings)
		if err != nil {
			return err
		}
		if env.EventType == "sms_config.added" {
			row := SMSConfigProjectionRow{InstanceID: env.InstanceID, ID: id, Provider: payload.Provider, SettingsJSON: string(settingsJSON), State: "INACTIVE"}
			return db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "instance_id"}, {Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"provider", "settings", "state"}),
			}).Create(&row).Error
		}
		return db.Model(&SMSConfigProjectionRow{}).Where("instance_id = ? AND id = ?", env.InstanceID, id).
			Update("settings", string(settingsJSON)).Error

	case "sms_config.activated":
		return db.Model(&SMSConfigProjectionRow{}).Where("instance_id = ? AND id = ?", env.InstanceID, id).Update("state", "ACTIVE").Error

	case "sms_config.deactivated":
		return db.Model(&SMSConfigProjectionRow{}).Where("instance_id = ? AND id = ?", env.InstanceID, id).Update("state", "INACTIVE").Error

	case "sms_config.removed":
		return db.Model(&SMSConfigProjectionRow{}).Where("instance_id = ? AND id = ?", env.InstanceID, id).Update("state", "REMOVED").Error
	}

	return nil
}

func (p *NotifyConfigProjectionGORM) GetSMTPByID(ctx context.Context, instanceID, id string) (*SMTPConfigReadModel, error) {
	var row SMTPConfigProjectionRow
	err := p.db.WithContext(ctx).Where("instance_id = ? AND id = ?", instanceID, id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get smtp config %s: %w", id, err)
	}
	return &SMTPConfigReadModel{ID: row.ID, Host: row.Host, Port: row.Port, User: row.User, Password: row.Password, State: row.State}, nil
}

func (p *NotifyConfigProjectionGORM) GetSMSByID(ctx context.Context, instanceID, id string) (*SMSConfigReadModel, error) {
	var row SMSConfigProjectionRow
	err := p.db.WithContext(ctx).Where("instance_id = ? AND id = ?", instanceID, id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sms config %s: %w", id, err)
	}
	var settings map[string]any
	if err := json.Unmarshal([]byte(row.SettingsJSON), &settings); err != nil {
		return nil, fmt.Errorf("decode sms config %s settings: %w", id, err)
	}
	return &SMSConfigReadModel{ID: row.ID, Provider: row.Provider, Settings: settings, State: row.State}, nil
}

// ListActiveSMTPIDsExcept returns the IDs of every ACTIVE SMTP config other
// than exceptID — the set that must be deactivated to hold the
// at-most-one-active invariant when a new one is activated.
func (p *NotifyConfigProjectionGORM) ListActiveSMTPIDsExcept(ctx context.Context, instanceID, exceptID string) ([]string, error) {
	var ids []string
	err := p.db.WithContext(ctx).Model(&SMTPConfigProjectionRow{}).
		Where("instance_id = ? AND state = ? AND id != ?", instanceID, "ACTIVE", exceptID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list active smtp configs: %w", err)
	}
	return ids, nil
}

// ListActiveSMSIDsExcept is the SMS counterpart of ListActiveSMTPIDsExcept.
func (p *NotifyConfigProjectionGORM) ListActiveSMSIDsExcept(ctx context.Context, instanceID, exceptID string) ([]string, error) {
	var ids []string
	err := p.db.WithContext(ctx).Model(&SMSConfigProjectionRow{}).
		Where("instance_id = ? AND state = ? AND id != ?", instanceID, "ACTIVE", exceptID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list active sms configs: %w", err)
	}
	return ids, nil
}
