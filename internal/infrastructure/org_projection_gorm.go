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

// OrganizationProjectionRow is the GORM row for one organization, kept in
// sync by OrgProjectionGORM as org.* events are applied (spec.md §4.4).
type OrganizationProjectionRow struct {
	InstanceID string `gorm:"primaryKey;type:varchar(64)"`
	ID         string `gorm:"primaryKey;type:varchar(64)"`
	Name       string `gorm:"type:varchar(200);not null"`
	State      string `gorm:"type:varchar(32);not null"`
}

func (OrganizationProjectionRow) TableName() string { return "organizations_projection" }

// OrgDomainProjectionRow is one verified-or-pending domain row for an org.
type OrgDomainProjectionRow struct {
	InstanceID string `gorm:"primaryKey;type:varchar(64)"`
	OrgID      string `gorm:"primaryKey;type:varchar(64)"`
	Name       string `gorm:"primaryKey;type:varchar(255)"`
	Verified   bool   `gorm:"not null;default:false"`
	Primary    bool   `gorm:"not null;default:false"`
}

func (OrgDomainProjectionRow) TableName() string { return "org_domains_projection" }

// OrgMemberProjectionRow is one member row for an org. Roles is stored as a
// JSON array; the member's own command rules (add/change/remove) keep it
// small enough that a JSON column is simpler than a join table.
type OrgMemberProjectionRow struct {
	InstanceID string `gorm:"primaryKey;type:varchar(64)"`
	OrgID      string `gorm:"primaryKey;type:varchar(64)"`
	UserID     string `gorm:"primaryKey;type:varchar(64)"`
	RolesJSON  string `gorm:"column:roles;type:text;not null;default:'[]'"`
}

func (OrgMemberProjectionRow) TableName() string { return "org_members_projection" }

// OrgReadModel, OrgDomainReadModel and OrgMemberReadModel are the shapes
// handed back to callers (the org application package's query handlers
// convert these into its own view types, keeping this package free of a
// dependency on internal/application/org).
type OrgReadModel struct {
	ID      string
	Name    string
	State   string
	Domains []OrgDomainReadModel
}

type OrgDomainReadModel struct {
	Name     string
	Verified bool
	Primary  bool
}

type OrgMemberReadModel struct {
	UserID string
	Roles  []string
}

// OrgProjectionGORM is both the projection engine's Handler (writing) and
// the query side's read model (reading) for organizations, backed by the
// same GORM tables.
type OrgProjectionGORM struct {
	db *gorm.DB
}

func NewOrgProjectionGORM(db *gorm.DB) *OrgProjectionGORM {
	return &OrgProjectionGORM{db: db}
}

func (p *OrgProjectionGORM) Migrate() error {
	return p.db.AutoMigrate(&OrganizationProjectionRow{}, &OrgDomainProjectionRow{}, &OrgMemberProjectionRow{})
}

// Name implements projection.Handler.
func (p *OrgProjectionGORM) Name() string { return "org_projection" }

// EventTypes implements projection.Handler.
func (p *OrgProjectionGORM) EventTypes() []string {
	return []string{
		"org.added", "org.changed", "org.deactivated", "org.reactivated", "org.removed",
		"org.domain.added", "org.domain.verified", "org.domain.primary.set", "org.domain.removed",
		"org.member.added", "org.member.changed", "org.member.removed",
	}
}

// Apply implements projection.Handler. It is idempotent: every write is an
// upsert or delete keyed by (instance_id, aggregate_id[, secondary key]), so
// replaying the same event twice after a crash leaves the row unchanged.
func (p *OrgProjectionGORM) Apply(ctx context.Context, events []esdomain.EventEnvelope[any]) error {
	for _, env := range events {
		if err := p.applyOne(ctx, env); err != nil {
			return fmt.Errorf("apply %s for org %s: %w", env.EventType, env.AggregateID, err)
		}
	}
	return nil
}

func (p *OrgProjectionGORM) applyOne(ctx context.Context, env esdomain.EventEnvelope[any]) error {
	db := p.db.WithContext(ctx)
	orgID := env.AggregateID

	switch env.EventType {
	case "org.added":
		var payload struct {
			Name string `json:"name"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		row := OrganizationProjectionRow{InstanceID: env.InstanceID, ID: orgID, Name: payload.Name, State: "ACTIVE"}
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "instance_id"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "state"}),
		}).Create(&row).Error

	case "org.changed":
		var payload struct {
			Name string `json:"name"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		return db.Model(&OrganizationProjectionRow{}).
			Where("instance_id = ? AND id = ?", env.InstanceID, orgID).
			Update("name", payload.Name).Error

	case "org.deactivated":
		return p.setState(db, env.InstanceID, orgID, "INACTIVE")

	case "org.reactivated":
		return p.setState(db, env.InstanceID, orgID, "ACTIVE")

	case "org.removed":
		if err := db.Where("instance_id = ? AND org_id = ?", env.InstanceID, orgID).Delete(&OrgDomainProjectionRow{}).Error; err != nil {
			return err
		}
		if err := db.Where("instance_id = ? AND org_id = ?", env.InstanceID, orgID).Delete(&OrgMemberProjectionRow{}).Error; err != nil {
			return err
		}
		return db.Where("instance_id = ? AND id = ?", env.InstanceID, orgID).Delete(&OrganizationProjectionRow{}).Error

	case "org.domain.added":
		var payload struct {
			Name string `json:"name"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		row := OrgDomainProjectionRow{InstanceID: env.InstanceID, OrgID: orgID, Name: payload.Name}
		return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error

	case "org.domain.verified":
		var payload struct {
			Name string `json:"name"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		return db.Model(&OrgDomainProjectionRow{}).
			Where("instance_id = ? AND org_id = ? AND name = ?", env.InstanceID, orgID, payload.Name).
			Update("verified", true).Error

	case "org.domain.primary.set":
		var payload struct {
			Name string `json:"name"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		return db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&OrgDomainProjectionRow{}).
				Where("instance_id = ? AND org_id = ?", env.InstanceID, orgID).
				Update("primary", false).Error; err != nil {
				return err
			}
			return tx.Model(&OrgDomainProjectionRow{}).
				Where("instance_id = ? AND org_id = ? AND name = ?", env.InstanceID, orgID, payload.Name).
				Update("primary", true).Error
		})

	case "org.domain.removed":
		var payload struct {
			Name string `json:"name"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		return db.Where("instance_id = ? AND org_id = ? AND name = ?", env.InstanceID, orgID, payload.Name).
			Delete(&OrgDomainProjectionRow{}).Error

	case "org.member.added":
		var payload struct {
			UserID string   `json:"userId"`
			Roles  []string `json:"roles"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		rolesJSON, err := json.Marshal(payload.Roles)
		if err != nil {
			return err
		}
		row := OrgMemberProjectionRow{InstanceID: env.InstanceID, OrgID: orgID, UserID: payload.UserID, RolesJSON: string(rolesJSON)}
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "instance_id"}, {Name: "org_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"roles"}),
		}).Create(&row).Error

	case "org.member.changed":
		var payload struct {
			UserID string   `json:"userId"`
			Roles  []string `json:"roles"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		rolesJSON, err := json.Marshal(payload.Roles)
		if err != nil {
			return err
		}
		return db.Model(&OrgMemberProjectionRow{}).
			Where("instance_id = ? AND org_id = ? AND user_id = ?", env.InstanceID, orgID, payload.UserID).
			Update("roles", string(rolesJSON)).Error

	case "org.member.removed":
		var payload struct {
			UserID string `json:"userId"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		return db.Where("instance_id = ? AND org_id = ? AND user_id = ?", env.InstanceID, orgID, payload.UserID).
			Delete(&OrgMemberProjectionRow{}).Error
	}

	return nil
}

func (p *OrgProjectionGORM) setState(db *gorm.DB, instanceID, orgID, state string) error {
	return db.Model(&OrganizationProjectionRow{}).
		Where("instance_id = ? AND id = ?", instanceID, orgID).
		Update("state", state).Error
}

// decodeOrgPayload recovers a typed payload from the any an EventEnvelope
// carries, the same re-marshal-through-JSON trick the domain packages use
// for replayed events.
func decodeOrgPayload(payload any, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// GetByID returns the organization's read model, or nil if not found.
func (p *OrgProjectionGORM) GetByID(ctx context.Context, instanceID, id string) (*OrgReadModel, error) {
	var row OrganizationProjectionRow
	err := p.db.WithContext(ctx).Where("instance_id = ? AND id = ?", instanceID, id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get org %s: %w", id, err)
	}

	var domainRows []OrgDomainProjectionRow
	if err := p.db.WithContext(ctx).Where("instance_id = ? AND org_id = ?", instanceID, id).Find(&domainRows).Error; err != nil {
		return nil, fmt.Errorf("get org %s domains: %w", id, err)
	}

	domains := make([]OrgDomainReadModel, len(domainRows))
	for i, d := range domainRows {
		domains[i] = OrgDomainReadModel{Name: d.Name, Verified: d.Verified, Primary: d.Primary}
	}

	return &OrgReadModel{ID: row.ID, Name: row.Name, State: row.State, Domains: domains}, nil
}

// List returns every organization's read model for instanceID.
func (p *OrgProjectionGORM) List(ctx context.Context, instanceID string) ([]OrgReadModel, error) {
	var rows []OrganizationProjectionRow
	if err := p.db.WithContext(ctx).Where("instance_id = ?", instanceID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list orgs: %w", err)
	}
	out := make([]OrgReadModel, len(rows))
	for i, row := range rows {
		out[i] = OrgReadModel{ID: row.ID, Name: row.Name, State: row.State}
	}
	return out, nil
}

// ListMembers returns every member row for one organization.
func (p *OrgProjectionGORM) ListMembers(ctx context.Context, instanceID, orgID string) ([]OrgMemberReadModel, error) {
	var rows []OrgMemberProjectionRow
	if err := p.db.WithContext(ctx).Where("instance_id = ? AND org_id = ?", instanceID, orgID).Order("user_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list org %s members: %w", orgID, err)
	}
	out := make([]OrgMemberReadModel, len(rows))
	for i, row := range rows {
		var roles []string
		if err := json.Unmarshal([]byte(row.RolesJSON), &roles); err != nil {
			return nil, fmt.Errorf("decode roles for member %s: %w", row.UserID, err)
		}
		out[i] = OrgMemberReadModel{UserID: row.UserID, Roles: roles}
	}
	return out, nil
}
