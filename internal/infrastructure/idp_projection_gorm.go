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

// IDPProjectionRow is the GORM row for one IDP aggregate. Same single-table,
// JSON-config-column shape as ClientAppProjectionRow: an IDP is exactly one
// of OIDC/JWT/SAML for its whole lifetime.
type IDPProjectionRow struct {
	InstanceID string `gorm:"primaryKey;type:varchar(64)"`
	ID         string `gorm:"primaryKey;type:varchar(64)"`
	Type       string `gorm:"type:varchar(16);not null"`
	Scope      string `gorm:"index:idx_idp_scope;type:varchar(16);not null"`
	ScopeID    string `gorm:"index:idx_idp_scope;type:varchar(64)"`
	State      string `gorm:"type:varchar(32);not null"`
	ConfigJSON string `gorm:"column:config;type:text;not null;default:'{}'"`
}

func (IDPProjectionRow) TableName() string { return "idps_projection" }

type idpOIDCConfigJSON struct {
	IssuerURL    string `json:"issuerUrl"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

type idpJWTConfigJSON struct {
	JWTEndpoint  string `json:"jwtEndpoint"`
	KeysEndpoint string `json:"keysEndpoint"`
	HeaderName   string `json:"headerName"`
}

type idpSAMLConfigJSON struct {
	Metadata    string `json:"metadata"`
	MetadataURL string `json:"metadataUrl"`
}

// IDPReadModel is the plain read shape handed back to callers;
// internal/application/idp converts it into its own view type.
type IDPReadModel struct {
	ID           string
	Type         string
	Scope        string
	ScopeID      string
	State        string
	IssuerURL    string
	ClientID     string
	ClientSecret string
	JWTEndpoint  string
	KeysEndpoint string
	HeaderName   string
	Metadata     string
	MetadataURL  string
}

// IDPProjectionGORM is both the projection engine's Handler (writing) and
// the query side's read model (reading) for IDPs.
type IDPProjectionGORM struct {
	db *gorm.DB
}

func NewIDPProjectionGORM(db *gorm.DB) *IDPProjectionGORM {
	return &IDPProjectionGORM{db: db}
}

func (p *IDPProjectionGORM) Migrate() error {
	return p.db.AutoMigrate(&IDPProjectionRow{})
}

func (p *IDPProjectionGORM) Name() string { return "idp_projection" }

func (p *IDPProjectionGORM) EventTypes() []string {
	return []string{
		"idp.oidc.added", "idp.oidc.changed",
		"idp.jwt.added", "idp.jwt.changed",
		"idp.saml.added", "idp.saml.changed",
		"idp.removed",
	}
}

func (p *IDPProjectionGORM) Apply(ctx context.Context, events []esdomain.EventEnvelope[any]) error {
	for _, env := range events {
		if err := p.applyOne(ctx, env); err != nil {
			return fmt.Errorf("apply %s for idp %s: %w", env.EventType, env.AggregateID, err)
		}
	}
	return nil
}

func (p *IDPProjectionGORM) applyOne(ctx context.Context, env esdomain.EventEnvelope[any]) error {
	db := p.db.WithContext(ctx)
	idpID := env.AggregateID

	switch env.EventType {
	case "idp.oidc.added":
		var payload struct {
			Scope        string `json:"scope"`
			ScopeID      string `json:"scopeId"`
			IssuerURL    string `json:"issuerUrl"`
			ClientID     string `json:"clientId"`
			ClientSecret string `json:"clientSecret"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		cfg, err := json.Marshal(idpOIDCConfigJSON{IssuerURL: payload.IssuerURL, ClientID: payload.ClientID, ClientSecret: payload.ClientSecret})
		if err != nil {
			return err
		}
		row := IDPProjectionRow{
			InstanceID: env.InstanceID, ID: idpID, Type: "OIDC", Scope: payload.Scope, ScopeID: payload.ScopeID,
			State: "ACTIVE", ConfigJSON: string(cfg),
		}
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "instance_id"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"type", "scope", "scope_id", "state", "config"}),
		}).Create(&row).Error

	case "idp.oidc.changed":
		var payload struct {
			IssuerURL string `json:"issuerUrl"`
			ClientID  string `json:"clientId"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		cfg, err := json.Marshal(idpOIDCConfigJSON{IssuerURL: payload.IssuerURL, ClientID: payload.ClientID})
		if err != nil {
			return err
		}
		return db.Model(&IDPProjectionRow{}).
			Where("instance_id = ? AND id = ?", env.InstanceID, idpID).
			Update("config", string(cfg)).Error

	case "idp.jwt.added":
		var payload struct {
			Scope        string `json:"scope"`
			ScopeID      string `json:"scopeId"`
			JWTEndpoint  string `json:"jwtEndpoint"`
			KeysEndpoint string `json:"keysEndpoint"`
			HeaderName   string `json:"headerName"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		cfg, err := json.Marshal(idpJWTConfigJSON{JWTEndpoint: payload.JWTEndpoint, KeysEndpoint: payload.KeysEndpoint, HeaderName: payload.HeaderName})
		if err != nil {
			return err
		}
		row := IDPProjectionRow{
			InstanceID: env.InstanceID, ID: idpID, Type: "JWT", Scope: payload.Scope, ScopeID: payload.ScopeID,
			State: "ACTIVE", ConfigJSON: string(cfg),
		}
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "instance_id"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"type", "scope", "scope_id", "state", "config"}),
		}).Create(&row).Error

	case "idp.jwt.changed":
		var payload struct {
			JWTEndpoint  string `json:"jwtEndpoint"`
			KeysEndpoint string `json:"keysEndpoint"`
			HeaderName   string `json:"headerName"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		cfg, err := json.Marshal(idpJWTConfigJSON{JWTEndpoint: payload.JWTEndpoint, KeysEndpoint: payload.KeysEndpoint, HeaderName: payload.HeaderName})
		if err != nil {
			return err
		}
		return db.Model(&IDPProjectionRow{}).
			Where("instance_id = ? AND id = ?", env.InstanceID, idpID).
			Update("config", string(cfg)).Error

	case "idp.saml.added":
		var payload struct {
			Scope       string `json:"scope"`
			ScopeID     string `json:"scopeId"`
			Metadata    string `json:"metadata"`
			MetadataURL string `json:"metadataUrl"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		cfg, err := json.Marshal(idpSAMLConfigJSON{Metadata: payload.Metadata, MetadataURL: payload.MetadataURL})
		if err != nil {
			return err
		}
		row := IDPProjectionRow{
			InstanceID: env.InstanceID, ID: idpID, Type: "SAML", Scope: payload.Scope, ScopeID: payload.ScopeID,
			State: "ACTIVE", ConfigJSON: string(cfg),
		}
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "instance_id"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"type", "scope", "scope_id", "state", "config"}),
		}).Create(&row).Error

	case "idp.saml.changed":
		var payload struct {
			Metadata    string `json:"metadata"`
			MetadataURL string `json:"metadataUrl"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		cfg, err := json.Marshal(idpSAMLConfigJSON{Metadata: payload.Metadata, MetadataURL: payload.MetadataURL})
		if err != nil {
			return err
		}
		return db.Model(&IDPProjectionRow{}).
			Where("instance_id = ? AND id = ?", env.InstanceID, idpID).
			Update("config", string(cfg)).Error

	case "idp.removed":
		return db.Model(&IDPProjectionRow{}).
			Where("instance_id = ? AND id = ?", env.InstanceID, idpID).
			Update("state", "REMOVED").Error
	}

	return nil
}

func (p *IDPProjectionGORM) toReadModel(row IDPProjectionRow) (*IDPReadModel, error) {
	rm := &IDPReadModel{ID: row.ID, Type: row.Type, Scope: row.Scope, ScopeID: row.ScopeID, State: row.State}
	switch row.Type {
	case "OIDC":
		var cfg idpOIDCConfigJSON
		if err := json.Unmarshal([]byte(row.ConfigJSON), &cfg); err != nil {
			return nil, fmt.Errorf("decode oidc config for idp %s: %w", row.ID, err)
		}
		rm.IssuerURL, rm.ClientID, rm.ClientSecret = cfg.IssuerURL, cfg.ClientID, cfg.ClientSecret
	case "JWT":
		var cfg idpJWTConfigJSON
		if err := json.Unmarshal([]byte(row.ConfigJSON), &cfg); err != nil {
			return nil, fmt.Errorf("decode jwt config for idp %s: %w", row.ID, err)
		}
		rm.JWTEndpoint, rm.KeysEndpoint, rm.HeaderName = cfg.JWTEndpoint, cfg.KeysEndpoint, cfg.HeaderName
	case "SAML":
		var cfg idpSAMLConfigJSON
		if err := json.Unmarshal([]byte(row.ConfigJSON), &cfg); err != nil {
			return nil, fmt.Errorf("decode saml config for idp %s: %w", row.ID, err)
		}
		rm.Metadata, rm.MetadataURL = cfg.Metadata, cfg.MetadataURL
	}
	return rm, nil
}

// GetByID returns the idp's read model, or nil if not found.
func (p *IDPProjectionGORM) GetByID(ctx context.Context, instanceID, id string) (*IDPReadModel, error) {
	var row IDPProjectionRow
	err := p.db.WithContext(ctx).Where("instance_id = ? AND id = ?", instanceID, id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get idp %s: %w", id, err)
	}
	return p.toReadModel(row)
}

// ListByScope returns every non-removed IDP for scope/scopeID.
func (p *IDPProjectionGORM) ListByScope(ctx context.Context, instanceID, scope, scopeID string) ([]IDPReadModel, error) {
	var rows []IDPProjectionRow
	err := p.db.WithContext(ctx).
		Where("instance_id = ? AND scope = ? AND scope_id = ? AND state != ?", instanceID, scope, scopeID, "REMOVED").
		Order("id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list idps for scope %s/%s: %w", scope, scopeID, err)
	}
	out := make([]IDPReadModel, 0, len(rows))
	for _, row := range rows {
		rm, err := p.toReadModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *rm)
	}
	return out, nil
}
