// Package project wires the Project aggregate (internal/domain/project) into
// the command/query buses, following the same load -> decide -> commit shape
// as internal/application/org.
package project

import (
	"github.com/iamcore/iamcore/pkg/application"
)

type CreateProjectCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	Name       string `json:"name"`
	EditorUser string `json:"editorUser"`
}

func (c CreateProjectCommand) CommandType() string { return "project.Create" }

func (c CreateProjectCommand) Validate() error {
	if c.ID == "" {
		return application.NewValidationError("id", "id must not be empty")
	}
	if c.Name == "" {
		return application.NewValidationError("name", "name must not be empty")
	}
	return nil
}

type ChangeProjectCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	Name       string `json:"name"`
	EditorUser string `json:"editorUser"`
}

func (c ChangeProjectCommand) CommandType() string { return "project.Change" }

type DeactivateProjectCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c DeactivateProjectCommand) CommandType() string { return "project.Deactivate" }

type ReactivateProjectCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c ReactivateProjectCommand) CommandType() string { return "project.Reactivate" }

type RemoveProjectCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c RemoveProjectCommand) CommandType() string { return "project.Remove" }

type AddProjectRoleCommand struct {
	InstanceID  string `json:"instanceId"`
	ID          string `json:"id"`
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
	Group       string `json:"group"`
	EditorUser  string `json:"editorUser"`
}

func (c AddProjectRoleCommand) CommandType() string { return "project.role.Add" }

type ChangeProjectRoleCommand struct {
	InstanceID  string `json:"instanceId"`
	ID          string `json:"id"`
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
	Group       string `json:"group"`
	EditorUser  string `json:"editorUser"`
}

func (c ChangeProjectRoleCommand) CommandType() string { return "project.role.Change" }

type RemoveProjectRoleCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	Key        string `json:"key"`
	EditorUser string `json:"editorUser"`
}

func (c RemoveProjectRoleCommand) CommandType() string { return "project.role.Remove" }

type AddProjectGrantCommand struct {
	InstanceID   string   `json:"instanceId"`
	ID           string   `json:"id"`
	GrantID      string   `json:"grantId"`
	GrantedOrgID string   `json:"grantedOrgId"`
	RoleKeys     []string `json:"roleKeys"`
	EditorUser   string   `json:"editorUser"`
}

func (c AddProjectGrantCommand) CommandType() string { return "project.grant.Add" }

type ChangeProjectGrantCommand struct {
	InstanceID string   `json:"instanceId"`
	ID         string   `json:"id"`
	GrantID    string   `json:"grantId"`
	RoleKeys   []string `json:"roleKeys"`
	EditorUser string   `json:"editorUser"`
}

func (c ChangeProjectGrantCommand) CommandType() string { return "project.grant.Change" }

type DeactivateProjectGrantCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	GrantID    string `json:"grantId"`
	EditorUser string `json:"editorUser"`
}

func (c DeactivateProjectGrantCommand) CommandType() string { return "project.grant.Deactivate" }

type ReactivateProjectGrantCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	GrantID    string `json:"grantId"`
	EditorUser string `json:"editorUser"`
}

func (c ReactivateProjectGrantCommand) CommandType() string { return "project.grant.Reactivate" }

type RemoveProjectGrantCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	GrantID    string `json:"grantId"`
	EditorUser string `json:"editorUser"`
}

func (c RemoveProjectGrantCommand) CommandType() string { return "project.grant.Remove" }

type AddProjectMemberCommand struct {
	InstanceID string   `json:"instanceId"`
	ID         string   `json:"id"`
	UserID     string   `json:"userId"`
	Roles      []string `json:"roles"`
	EditorUser string   `json:"editorUser"`
}

func (c AddProjectMemberCommand) CommandType() string { return "project.member.Add" }

type ChangeProjectMemberCommand struct {
	InstanceID string   `json:"instanceId"`
	ID         string   `json:"id"`
	UserID     string   `json:"userId"`
	Roles      []string `json:"roles"`
	EditorUser string   `json:"editorUser"`
}

func (c ChangeProjectMemberCommand) CommandType() string { return "project.member.Change" }

type RemoveProjectMemberCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	EditorUser string `json:"editorUser"`
}

func (c RemoveProjectMemberCommand) CommandType() string { return "project.member.Remove" }

type AddProjectGrantMemberCommand struct {
	InstanceID string   `json:"instanceId"`
	ID         string   `json:"id"`
	GrantID    string   `json:"grantId"`
	UserID     string   `json:"userId"`
	Roles      []string `json:"roles"`
	EditorUser string   `json:"editorUser"`
}

func (c AddProjectGrantMemberCommand) CommandType() string { return "project.grant.member.Add" }

type ChangeProjectGrantMemberCommand struct {
	InstanceID string   `json:"instanceId"`
	ID         string   `json:"id"`
	GrantID    string   `json:"grantId"`
	UserID     string   `json:"userId"`
	Roles      []string `json:"roles"`
	EditorUser string   `json:"editorUser"`
}

func (c ChangeProjectGrantMemberCommand) CommandType() string { return "project.grant.member.Change" }

type RemoveProjectGrantMemberCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	GrantID    string `json:"grantId"`
	UserID     string `json:"userId"`
	EditorUser string `json:"editorUser"`
}

func (c RemoveProjectGrantMemberCommand) CommandType() string { return "project.grant.member.Remove" }
