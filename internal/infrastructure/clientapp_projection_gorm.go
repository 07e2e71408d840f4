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

// ClientAppProjectionRow is the GORM row for one Application aggregate
// instance. OIDC/API/SAML share Type/State/ClientID/AuthMethod; the
// type-specific fields are kept in a single JSON config column rather than
// three mostly-empty side tables, since an application is exactly one of
// the three types for its whole lifetime.
type ClientAppProjectionRow struct {
	InstanceID string `gorm:"primaryKey;type:varchar(64)"`
	ID         string `gorm:"primaryKey;type:varchar(64)"`
	ProjectID  string `gorm:"index;type:varchar(64);not null"`
	Type       string `gorm:"type:varchar(16);not null"`
	State      string `gorm:"type:varchar(32);not null"`
	ClientID   string `gorm:"index;type:varchar(64)"`
	EntityID   string `gorm:"index;type:varchar(300)"`
	AuthMethod string `gorm:"type:varchar(32)"`
	ConfigJSON string `gorm:"column:config;type:text;not null;default:'{}'"`
}

func (ClientAppProjectionRow) TableName() string { return "applications_projection" }

type oidcConfigJSON struct {
	AppType      string   `json:"appType"`
	RedirectURIs []string `json:"redirectUris"`
}

type samlConfigJSON struct {
	Metadata    string `json:"metadata"`
	MetadataURL string `json:"metadataUrl"`
}

// ClientAppReadModel is the plain read shape handed back to callers;
// internal/application/clientapp converts it into its own view type.
type ClientAppReadModel struct {
	ID           string
	ProjectID    string
	Type         string
	State        string
	ClientID     string
	EntityID     string
	AuthMethod   string
	AppType      string
	RedirectURIs []string
	Metadata     string
	MetadataURL  string
}

// ClientAppProjectionGORM is both the projection engine's Handler (writing)
// and the query side's read model (reading) for applications, and also
// answers the client-ID / SAML-entity-ID uniqueness checks the command
// handlers run before creating a new application.
type ClientAppProjectionGORM struct {
	db *gorm.DB
}

func NewClientAppProjectionGORM(db *gorm.DB) *ClientAppProjectionGORM {
	return &ClientAppProjectionGORM{db: db}
}

func (p *ClientAppProjectionGORM) Migrate() error {
	return p.db.AutoMigrate(&ClientAppProjectionRow{})
}

func (p *ClientAppProjectionGORM) Name() string { return "clientapp_projection" }

func (p *ClientAppProjectionGORM) EventTypes() []string {
	return []string{
		"project.application.oidc.added",
		"project.application.oidc.config.changed",
		"project.application.api.added",
		"project.application.saml.added",
		"project.application.saml.config.changed",
		"project.application.auth_method.changed",
		"project.application.deactivated",
		"project.application.reactivated",
		"project.application.removed",
	}
}

func (p *ClientAppProjectionGORM) Apply(ctx context.Context, events []esdomain.EventEnvelope[any]) error {
	for _, env := range events {
		if err := p.applyOne(ctx, env); err != nil {
			return fmt.Errorf("apply %s for application %s: %w", env.EventType, env.AggregateID, err)
		}
	}
	return nil
}

func (p *ClientAppProjectionGORM) applyOne(ctx context.Context, env esdomain.EventEnvelope[any]) error {
	db := p.db.WithContext(ctx)
	appID := env.AggregateID

	switch env.EventType {
	case "project.application.oidc.added":
		var payload struct {
			ProjectID    string   `json:"projectId"`
			ClientID     string   `json:"clientId"`
			AppType      string   `json:"appType"`
			RedirectURIs []string `json:"redirectUris"`
			AuthMethod   string   `json:"authMethod"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		cfg, err := json.Marshal(oidcConfigJSON{AppType: payload.AppType, RedirectURIs: payload.RedirectURIs})
		if err != nil {
			return err
		}
		row := ClientAppProjectionRow{
			InstanceID: env.InstanceID, ID: appID, ProjectID: payload.ProjectID, Type: "OIDC", State: "ACTIVE",
			ClientID: payload.ClientID, AuthMethod: payload.AuthMethod, ConfigJSON: string(cfg),
		}
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "instance_id"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"project_id", "type", "state", "client_id", "auth_method", "config"}),
		}).Create(&row).Error

	case "project.application.api.added":
		var payload struct {
			ProjectID  string `json:"projectId"`
			ClientID   string `json:"clientId"`
			AuthMethod string `json:"authMethod"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		row := ClientAppProjectionRow{
			InstanceID: env.InstanceID, ID: appID, ProjectID: payload.ProjectID, Type: "API", State: "ACTIVE",
			ClientID: payload.ClientID, AuthMethod: payload.AuthMethod, ConfigJSON: "{}",
		}
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "instance_id"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"project_id", "type", "state", "client_id", "auth_method", "config"}),
		}).Create(&row).Error

	case "project.application.saml.added":
		var payload struct {
			ProjectID   string `json:"projectId"`
			EntityID    string `json:"entityId"`
			Metadata    string `json:"metadata"`
			MetadataURL string `json:"metadataUrl"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		cfg, err := json.Marshal(samlConfigJSON{Metadata: payload.Metadata, MetadataURL: payload.MetadataURL})
		if err != nil {
			return err
		}
		row := ClientAppProjectionRow{
			InstanceID: env.InstanceID, ID: appID, ProjectID: payload.ProjectID, Type: "SAML", State: "ACTIVE",
			EntityID: payload.EntityID, ConfigJSON: string(cfg),
		}
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "instance_id"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"project_id", "type", "state", "entity_id", "config"}),
		}).Create(&row).Error

	case "project.application.oidc.config.changed":
		var payload struct {
			AppType      string   `json:"appType"`
			RedirectURIs []string `json:"redirectUris"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		cfg, err := json.Marshal(oidcConfigJSON{AppType: payload.AppType, RedirectURIs: payload.RedirectURIs})
		if err != nil {
			return err
		}
		return db.Model(&ClientAppProjectionRow{}).
			Where("instance_id = ? AND id = ?", env.InstanceID, appID).
			Update("config", string(cfg)).Error

	case "project.application.saml.config.changed":
		var payload struct {
			Metadata    string `json:"metadata"`
			MetadataURL string `json:"metadataUrl"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		cfg, err := json.Marshal(samlConfigJSON{Metadata: payload.Metadata, MetadataURL: payload.MetadataURL})
		if err != nil {
			return err
		}
		return db.Model(&ClientAppProjectionRow{}).
			Where("instance_id = ? AND id = ?", env.InstanceID, appID).
			Update("config", string(cfg)).Error

	case "project.application.auth_method.changed":
		var payload struct {
			AuthMethod string `json:"authMethod"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		return db.Model(&ClientAppProjectionRow{}).
			Where("instance_id = ? AND id = ?", env.InstanceID, appID).
			Update("auth_method", payload.AuthMethod).Error

	case "project.application.deactivated", "project.application.reactivated":
		state := "INACTIVE"
		if env.EventType == "project.application.reactivated" {
			state = "ACTIVE"
		}
		return db.Model(&ClientAppProjectionRow{}).
			Where("instance_id = ? AND id = ?", env.InstanceID, appID).
			Update("state", state).Error

	case "project.application.removed":
		return db.Where("instance_id = ? AND id = ?", env.InstanceID, appID).Delete(&ClientAppProjectionRow{}).Error
	}

	return nil
}

func (p *ClientAppProjectionGORM) toReadModel(row ClientAppProjectionRow) (*ClientAppReadModel, error) {
	rm := &ClientAppReadModel{
		ID: row.ID, ProjectID: row.ProjectID, Type: row.Type, State: row.State,
		ClientID: row.ClientID, EntityID: row.EntityID, AuthMethod: row.AuthMethod,
	}
	switch row.Type {
	case "OIDC":
		var cfg oidcConfigJSON
		if err := json.Unmarshal([]byte(row.ConfigJSON), &cfg); err != nil {
			return nil, fmt.Errorf("decode oidc config for application %s: %w", row.ID, err)
		}
		rm.AppType = cfg.AppType
		rm.RedirectURIs = cfg.RedirectURIs
	case "SAML":
		var cfg samlConfigJSON
		if err := json.Unmarshal([]byte(row.ConfigJSON), &cfg); err != nil {
			return nil, fmt.Errorf("decode saml config for application %s: %w", row.ID, err)
		}
		rm.Metadata = cfg.Metadata
		rm.MetadataURL = cfg.MetadataURL
	}
	return rm, nil
}

// GetByID returns the application's read model, or nil if not found.
func (p *ClientAppProjectionGORM) GetByID(ctx context.Context, instanceID, id string) (*ClientAppReadModel, error) {
	var row ClientAppProjectionRow
	err := p.db.WithContext(ctx).Where("instance_id = ? AND id = ?", instanceID, id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get application %s: %w", id, err)
	}
	return p.toReadModel(row)
}

// ListByProjectID returns every application belonging to projectID.
func (p *ClientAppProjectionGORM) ListByProjectID(ctx context.Context, instanceID, projectID string) ([]ClientAppReadModel, error) {
	var rows []ClientAppProjectionRow
	if err := p.db.WithContext(ctx).Where("instance_id = ? AND project_id = ?", instanceID, projectID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list applications for project %s: %w", projectID, err)
	}
	out := make([]ClientAppReadModel, 0, len(rows))
	for _, row := range rows {
		rm, err := p.toReadModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *rm)
	}
	return out, nil
}

// ClientIDTaken reports whether clientID is already used by another
// application within instanceID.
func (p *ClientAppProjectionGORM) ClientIDTaken(ctx context.Context, instanceID, clientID string) (bool, error) {
	if clientID == "" {
		return false, nil
	}
	var count int64
	if err := p.db.WithContext(ctx).Model(&ClientAppProjectionRow{}).
		Where("instance_id = ? AND client_id = ?", instanceID, clientID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check client id %s: %w", clientID, err)
	}
	return count > 0, nil
}

// EntityIDTaken reports whether entityID is already used by another SAML
// application within instanceID.
func (p *ClientAppProjectionGORM) EntityIDTaken(ctx context.Context, instanceID, entityID string) (bool, error) {
	if entityID == "" {
		return false, nil
	}
	var count int64
	if err := p.db.WithContext(ctx).Model(&ClientAppProjectionRow{}).
		Where("instance_id = ? AND entity_id = ?", instanceID, entityID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check entity id %s: %w", entityID, err)
	}
	return count > 0, nil
}
