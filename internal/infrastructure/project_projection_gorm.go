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

// ProjectProjectionRow is the GORM row for one project, kept in sync by
// ProjectProjectionGORM as project.* events are applied.
type ProjectProjectionRow struct {
	InstanceID string `gorm:"primaryKey;type:varchar(64)"`
	ID         string `gorm:"primaryKey;type:varchar(64)"`
	Name       string `gorm:"type:varchar(200);not null"`
	State      string `gorm:"type:varchar(32);not null"`
}

func (ProjectProjectionRow) TableName() string { return "projects_projection" }

type ProjectRoleProjectionRow struct {
	InstanceID  string `gorm:"primaryKey;type:varchar(64)"`
	ProjectID   string `gorm:"primaryKey;type:varchar(64)"`
	Key         string `gorm:"primaryKey;type:varchar(64)"`
	DisplayName string `gorm:"type:varchar(200)"`
	Group       string `gorm:"column:role_group;type:varchar(100)"`
}

func (ProjectRoleProjectionRow) TableName() string { return "project_roles_projection" }

type ProjectGrantProjectionRow struct {
	InstanceID   string `gorm:"primaryKey;type:varchar(64)"`
	ProjectID    string `gorm:"primaryKey;type:varchar(64)"`
	GrantID      string `gorm:"primaryKey;type:varchar(64)"`
	GrantedOrgID string `gorm:"type:varchar(64);not null"`
	State        string `gorm:"type:varchar(32);not null"`
	RoleKeysJSON string `gorm:"column:role_keys;type:text;not null;default:'[]'"`
}

func (ProjectGrantProjectionRow) TableName() string { return "project_grants_projection" }

type ProjectMemberProjectionRow struct {
	InstanceID string `gorm:"primaryKey;type:varchar(64)"`
	ProjectID  string `gorm:"primaryKey;type:varchar(64)"`
	UserID     string `gorm:"primaryKey;type:varchar(64)"`
	RolesJSON  string `gorm:"column:roles;type:text;not null;default:'[]'"`
}

func (ProjectMemberProjectionRow) TableName() string { return "project_members_projection" }

type ProjectGrantMemberProjectionRow struct {
	InstanceID string `gorm:"primaryKey;type:varchar(64)"`
	ProjectID  string `gorm:"primaryKey;type:varchar(64)"`
	GrantID    string `gorm:"primaryKey;type:varchar(64)"`
	UserID     string `gorm:"primaryKey;type:varchar(64)"`
	RolesJSON  string `gorm:"column:roles;type:text;not null;default:'[]'"`
}

func (ProjectGrantMemberProjectionRow) TableName() string { return "project_grant_members_projection" }

// Read model shapes handed back to callers; internal/application/project
// converts these into its own view types.
type ProjectReadModel struct {
	ID      string
	Name    string
	State   string
	Roles   []ProjectRoleReadModel
	Grants  []ProjectGrantReadModel
	Members []ProjectMemberReadModel
}

type ProjectRoleReadModel struct {
	Key         string
	DisplayName string
	Group       string
}

type ProjectGrantReadModel struct {
	GrantID      string
	GrantedOrgID string
	State        string
	RoleKeys     []string
	Members      []ProjectGrantMemberReadModel
}

type ProjectMemberReadModel struct {
	UserID string
	Roles  []string
}

type ProjectGrantMemberReadModel struct {
	UserID string
	Roles  []string
}

// ProjectProjectionGORM is both the projection engine's Handler (writing) and
// the query side's read model (reading) for projects, backed by the same
// five GORM tables.
type ProjectProjectionGORM struct {
	db *gorm.DB
}

func NewProjectProjectionGORM(db *gorm.DB) *ProjectProjectionGORM {
	return &ProjectProjectionGORM{db: db}
}

func (p *ProjectProjectionGORM) Migrate() error {
	return p.db.AutoMigrate(
		&ProjectProjectionRow{}, &ProjectRoleProjectionRow{}, &ProjectGrantProjectionRow{},
		&ProjectMemberProjectionRow{}, &ProjectGrantMemberProjectionRow{},
	)
}

func (p *ProjectProjectionGORM) Name() string { return "project_projection" }

func (p *ProjectProjectionGORM) EventTypes() []string {
	return []string{
		"project.added", "project.changed", "project.deactivated", "project.reactivated", "project.removed",
		"project.role.added", "project.role.changed", "project.role.removed",
		"project.grant.added", "project.grant.changed", "project.grant.deactivated", "project.grant.reactivated", "project.grant.removed",
		"project.member.added", "project.member.changed", "project.member.removed",
		"project.grant.member.added", "project.grant.member.changed", "project.grant.member.removed",
	}
}

func (p *ProjectProjectionGORM) Apply(ctx context.Context, events []esdomain.EventEnvelope[any]) error {
	for _, env := range events {
		if err := p.applyOne(ctx, env); err != nil {
			return fmt.Errorf("apply %s for project %s: %w", env.EventType, env.AggregateID, err)
		}
	}
	return nil
}

func (p *ProjectProjectionGORM) applyOne(ctx context.Context, env esdomain.EventEnvelope[any]) error {
	db := p.db.WithContext(ctx)
	projectID := env.AggregateID

	switch env.EventType {
	case "project.added":
		var payload struct {
			Name string `json:"name"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		row := ProjectProjectionRow{InstanceID: env.InstanceID, ID: projectID, Name: payload.Name, State: "ACTIVE"}
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "instance_id"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "state"}),
		}).Create(&row).Error

	case "project.changed":
		var payload struct {
			Name string `json:"name"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		return db.Model(&ProjectProjectionRow{}).
			Where("instance_id = ? AND id = ?", env.InstanceID, projectID).
			Update("name", payload.Name).Error

	case "project.deactivated":
		return p.setState(db, env.InstanceID, projectID, "INACTIVE")

	case "project.reactivated":
		return p.setState(db, env.InstanceID, projectID, "ACTIVE")

	case "project.removed":
		if err := db.Where("instance_id = ? AND project_id = ?", env.InstanceID, projectID).Delete(&ProjectRoleProjectionRow{}).Error; err != nil {
			return err
		}
		if err := db.Where("instance_id = ? AND project_id = ?", env.InstanceID, projectID).Delete(&ProjectGrantProjectionRow{}).Error; err != nil {
			return err
		}
		if err := db.Where("instance_id = ? AND project_id = ?", env.InstanceID, projectID).Delete(&ProjectMemberProjectionRow{}).Error; err != nil {
			return err
		}
		if err := db.Where("instance_id = ? AND project_id = ?", env.InstanceID, projectID).Delete(&ProjectGrantMemberProjectionRow{}).Error; err != nil {
			return err
		}
		return db.Where("instance_id = ? AND id = ?", env.InstanceID, projectID).Delete(&ProjectProjectionRow{}).Error

	case "project.role.added", "project.role.changed":
		var payload struct {
			Key         string `json:"key"`
			DisplayName string `json:"displayName"`
			Group       string `json:"group"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		row := ProjectRoleProjectionRow{InstanceID: env.InstanceID, ProjectID: projectID, Key: payload.Key, DisplayName: payload.DisplayName, Group: payload.Group}
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "instance_id"}, {Name: "project_id"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name", "role_group"}),
		}).Create(&row).Error

	case "project.role.removed":
		var payload struct {
			Key string `json:"key"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		return db.Where("instance_id = ? AND project_id = ? AND key = ?", env.InstanceID, projectID, payload.Key).
			Delete(&ProjectRoleProjectionRow{}).Error

	case "project.grant.added":
		var payload struct {
			GrantID      string   `json:"grantId"`
			GrantedOrgID string   `json:"grantedOrgId"`
			RoleKeys     []string `json:"roleKeys"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		rolesJSON, err := json.Marshal(payload.RoleKeys)
		if err != nil {
			return err
		}
		row := ProjectGrantProjectionRow{
			InstanceID: env.InstanceID, ProjectID: projectID, GrantID: payload.GrantID,
			GrantedOrgID: payload.GrantedOrgID, State: "ACTIVE", RoleKeysJSON: string(rolesJSON),
		}
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "instance_id"}, {Name: "project_id"}, {Name: "grant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"granted_org_id", "state", "role_keys"}),
		}).Create(&row).Error

	case "project.grant.changed":
		var payload struct {
			GrantID  string   `json:"grantId"`
			RoleKeys []string `json:"roleKeys"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		rolesJSON, err := json.Marshal(payload.RoleKeys)
		if err != nil {
			return err
		}
		return db.Model(&ProjectGrantProjectionRow{}).
			Where("instance_id = ? AND project_id = ? AND grant_id = ?", env.InstanceID, projectID, payload.GrantID).
			Update("role_keys", string(rolesJSON)).Error

	case "project.grant.deactivated", "project.grant.reactivated":
		var payload struct {
			GrantID string `json:"grantId"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		state := "INACTIVE"
		if env.EventType == "project.grant.reactivated" {
			state = "ACTIVE"
		}
		return db.Model(&ProjectGrantProjectionRow{}).
			Where("instance_id = ? AND project_id = ? AND grant_id = ?", env.InstanceID, projectID, payload.GrantID).
			Update("state", state).Error

	case "project.grant.removed":
		var payload struct {
			GrantID string `json:"grantId"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		if err := db.Where("instance_id = ? AND project_id = ? AND grant_id = ?", env.InstanceID, projectID, payload.GrantID).
			Delete(&ProjectGrantMemberProjectionRow{}).Error; err != nil {
			return err
		}
		return db.Where("instance_id = ? AND project_id = ? AND grant_id = ?", env.InstanceID, projectID, payload.GrantID).
			Delete(&ProjectGrantProjectionRow{}).Error

	case "project.member.added", "project.member.changed":
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
		row := ProjectMemberProjectionRow{InstanceID: env.InstanceID, ProjectID: projectID, UserID: payload.UserID, RolesJSON: string(rolesJSON)}
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "instance_id"}, {Name: "project_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"roles"}),
		}).Create(&row).Error

	case "project.member.removed":
		var payload struct {
			UserID string `json:"userId"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		return db.Where("instance_id = ? AND project_id = ? AND user_id = ?", env.InstanceID, projectID, payload.UserID).
			Delete(&ProjectMemberProjectionRow{}).Error

	case "project.grant.member.added", "project.grant.member.changed":
		var payload struct {
			GrantID string   `json:"grantId"`
			UserID  string   `json:"userId"`
			Roles   []string `json:"roles"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		rolesJSON, err := json.Marshal(payload.Roles)
		if err != nil {
			return err
		}
		row := ProjectGrantMemberProjectionRow{
			InstanceID: env.InstanceID, ProjectID: projectID, GrantID: payload.GrantID,
			UserID: payload.UserID, RolesJSON: string(rolesJSON),
		}
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "instance_id"}, {Name: "project_id"}, {Name: "grant_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"roles"}),
		}).Create(&row).Error

	case "project.grant.member.removed":
		var payload struct {
			GrantID string `json:"grantId"`
			UserID  string `json:"userId"`
		}
		if err := decodeOrgPayload(env.Payload, &payload); err != nil {
			return err
		}
		return db.Where("instance_id = ? AND project_id = ? AND grant_id = ? AND user_id = ?", env.InstanceID, projectID, payload.GrantID, payload.UserID).
			Delete(&ProjectGrantMemberProjectionRow{}).Error
	}

	return nil
}

func (p *ProjectProjectionGORM) setState(db *gorm.DB, instanceID, projectID, state string) error {
	return db.Model(&ProjectProjectionRow{}).
		Where("instance_id = ? AND id = ?", instanceID, projectID).
		Update("state", state).Error
}

// GetByID returns the project's read model, or nil if not found.
func (p *ProjectProjectionGORM) GetByID(ctx context.Context, instanceID, id string) (*ProjectReadModel, error) {
	var row ProjectProjectionRow
	err := p.db.WithContext(ctx).Where("instance_id = ? AND id = ?", instanceID, id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}

	var roleRows []ProjectRoleProjectionRow
	if err := p.db.WithContext(ctx).Where("instance_id = ? AND project_id = ?", instanceID, id).Find(&roleRows).Error; err != nil {
		return nil, fmt.Errorf("get project %s roles: %w", id, err)
	}
	roles := make([]ProjectRoleReadModel, len(roleRows))
	for i, r := range roleRows {
		roles[i] = ProjectRoleReadModel{Key: r.Key, DisplayName: r.DisplayName, Group: r.Group}
	}

	var memberRows []ProjectMemberProjectionRow
	if err := p.db.WithContext(ctx).Where("instance_id = ? AND project_id = ?", instanceID, id).Find(&memberRows).Error; err != nil {
		return nil, fmt.Errorf("get project %s members: %w", id, err)
	}
	members := make([]ProjectMemberReadModel, len(memberRows))
	for i, m := range memberRows {
		var roles []string
		if err := json.Unmarshal([]byte(m.RolesJSON), &roles); err != nil {
			return nil, fmt.Errorf("decode roles for member %s: %w", m.UserID, err)
		}
		members[i] = ProjectMemberReadModel{UserID: m.UserID, Roles: roles}
	}

	grants, err := p.listGrants(ctx, instanceID, id)
	if err != nil {
		return nil, err
	}

	return &ProjectReadModel{ID: row.ID, Name: row.Name, State: row.State, Roles: roles, Grants: grants, Members: members}, nil
}

func (p *ProjectProjectionGORM) listGrants(ctx context.Context, instanceID, projectID string) ([]ProjectGrantReadModel, error) {
	var grantRows []ProjectGrantProjectionRow
	if err := p.db.WithContext(ctx).Where("instance_id = ? AND project_id = ?", instanceID, projectID).Find(&grantRows).Error; err != nil {
		return nil, fmt.Errorf("get project %s grants: %w", projectID, err)
	}
	grants := make([]ProjectGrantReadModel, len(grantRows))
	for i, g := range grantRows {
		var roleKeys []string
		if err := json.Unmarshal([]byte(g.RoleKeysJSON), &roleKeys); err != nil {
			return nil, fmt.Errorf("decode role keys for grant %s: %w", g.GrantID, err)
		}

		var memberRows []ProjectGrantMemberProjectionRow
		if err := p.db.WithContext(ctx).Where("instance_id = ? AND project_id = ? AND grant_id = ?", instanceID, projectID, g.GrantID).Find(&memberRows).Error; err != nil {
			return nil, fmt.Errorf("get grant %s members: %w", g.GrantID, err)
		}
		members := make([]ProjectGrantMemberReadModel, len(memberRows))
		for j, m := range memberRows {
			var roles []string
			if err := json.Unmarshal([]byte(m.RolesJSON), &roles); err != nil {
				return nil, fmt.Errorf("decode roles for grant member %s: %w", m.UserID, err)
			}
			members[j] = ProjectGrantMemberReadModel{UserID: m.UserID, Roles: roles}
		}

		grants[i] = ProjectGrantReadModel{GrantID: g.GrantID, GrantedOrgID: g.GrantedOrgID, State: g.State, RoleKeys: roleKeys, Members: members}
	}
	return grants, nil
}

// List returns every project's read model for instanceID (without the
// roles/grants/members detail, matching org.List's summary shape).
func (p *ProjectProjectionGORM) List(ctx context.Context, instanceID string) ([]ProjectReadModel, error) {
	var rows []ProjectProjectionRow
	if err := p.db.WithContext(ctx).Where("instance_id = ?", instanceID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	out := make([]ProjectReadModel, len(rows))
	for i, row := range rows {
		out[i] = ProjectReadModel{ID: row.ID, Name: row.Name, State: row.State}
	}
	return out, nil
}
