// Package org wires the Organization aggregate (internal/domain/org) into
// the command/query buses: one command type per aggregate operation, one
// handler per command type that loads the aggregate, decides, and commits
// through a UnitOfWork, and a GORM-backed read model for queries.
//
// Every command carries its own InstanceID rather than relying on ambient
// context, since application.Payload has no tenant field of its own.
package org

import (
	"github.com/iamcore/iamcore/pkg/application"
)

type CreateOrgCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	Name       string `json:"name"`
	EditorUser string `json:"editorUser"`
}

func (c CreateOrgCommand) CommandType() string { return "org.Create" }

func (c CreateOrgCommand) Validate() error {
	if c.ID == "" {
		return application.NewValidationError("id", "id must not be empty")
	}
	if c.Name == "" {
		return application.NewValidationError("name", "name must not be empty")
	}
	return nil
}

type ChangeOrgCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	Name       string `json:"name"`
	EditorUser string `json:"editorUser"`
}

func (c ChangeOrgCommand) CommandType() string { return "org.Change" }

func (c ChangeOrgCommand) Validate() error {
	if c.ID == "" {
		return application.NewValidationError("id", "id must not be empty")
	}
	return nil
}

type DeactivateOrgCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c DeactivateOrgCommand) CommandType() string { return "org.Deactivate" }

type ReactivateOrgCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c ReactivateOrgCommand) CommandType() string { return "org.Reactivate" }

type RemoveOrgCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c RemoveOrgCommand) CommandType() string { return "org.Remove" }

// AddOrgDomainCommand carries only the domain name; the verification code is
// generated by the handler (via the injected security.CodeGen capability)
// rather than supplied by the caller, since org.AddDomain takes a
// pre-generated code as a parameter instead of generating one itself.
type AddOrgDomainCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	Name       string `json:"name"`
	EditorUser string `json:"editorUser"`
}

func (c AddOrgDomainCommand) CommandType() string { return "org.AddDomain" }

func (c AddOrgDomainCommand) Validate() error {
	if c.Name == "" {
		return application.NewValidationError("name", "domain name must not be empty")
	}
	return nil
}

type VerifyOrgDomainCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	Name       string `json:"name"`
	Code       string `json:"code"`
	EditorUser string `json:"editorUser"`
}

func (c VerifyOrgDomainCommand) CommandType() string { return "org.VerifyDomain" }

type SetPrimaryOrgDomainCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	Name       string `json:"name"`
	EditorUser string `json:"editorUser"`
}

func (c SetPrimaryOrgDomainCommand) CommandType() string { return "org.SetPrimaryDomain" }

type RemoveOrgDomainCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	Name       string `json:"name"`
	EditorUser string `json:"editorUser"`
}

func (c RemoveOrgDomainCommand) CommandType() string { return "org.RemoveDomain" }

type AddOrgMemberCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string   `json:"id"`
	UserID     string   `json:"userId"`
	Roles      []string `json:"roles"`
	EditorUser string   `json:"editorUser"`
}

func (c AddOrgMemberCommand) CommandType() string { return "org.AddMember" }

func (c AddOrgMemberCommand) Validate() error {
	if c.UserID == "" {
		return application.NewValidationError("userId", "userId must not be empty")
	}
	return nil
}

type ChangeOrgMemberCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string   `json:"id"`
	UserID     string   `json:"userId"`
	Roles      []string `json:"roles"`
	EditorUser string   `json:"editorUser"`
}

func (c ChangeOrgMemberCommand) CommandType() string { return "org.ChangeMember" }

type RemoveOrgMemberCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	EditorUser string `json:"editorUser"`
}

func (c RemoveOrgMemberCommand) CommandType() string { return "org.RemoveMember" }
