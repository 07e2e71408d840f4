// Package project implements the Project and Project Grant aggregates
// (spec.md §3.3, §4.2, §4.3): role catalog with unique per-project role
// keys, grants scoping a subset of those roles to a granted organization,
// and member/grant-member role assignment.
package project

import (
	"fmt"

	"github.com/iamcore/iamcore/internal/domain/base"
	"github.com/iamcore/iamcore/pkg/domain"
	esdomain "github.com/iamcore/iamcore/pkg/eventsourcing/domain"
)

const AggregateType = "project"

type State string

const (
	StateUnspecified State = "UNSPECIFIED"
	StateActive      State = "ACTIVE"
	StateInactive    State = "INACTIVE"
	StateRemoved     State = "REMOVED"
)

type Role struct {
	Key         string
	DisplayName string
	Group       string
}

type Member struct {
	UserID string
	Roles  []string
}

type GrantMember struct {
	UserID string
	Roles  []string
}

type Grant struct {
	ID            string
	GrantedOrgID  string
	State         State
	RoleKeys      []string
	Members       map[string]*GrantMember
}

// Project is the reduced state of one project aggregate.
type Project struct {
	base.Aggregate

	Name    string
	State   State
	Roles   map[string]*Role
	Grants  map[string]*Grant
	Members map[string]*Member
}

func newProject(instanceID, id string) *Project {
	p := &Project{
		Aggregate: base.NewAggregate(AggregateType, instanceID, id),
		Roles:     make(map[string]*Role),
		Grants:    make(map[string]*Grant),
		Members:   make(map[string]*Member),
	}
	p.SetApplier(p.apply)
	return p
}

// Reduce folds a historical event stream into a fresh Project. Unknown event
// types are ignored, per §4.2.
func Reduce(instanceID, id string, events []esdomain.EventEnvelope[any]) (*Project, error) {
	p := newProject(instanceID, id)
	for _, env := range events {
		if err := p.apply(env); err != nil {
			return nil, fmt.Errorf("reduce project %s: %w", id, err)
		}
		p.Observe(env)
	}
	return p, nil
}

func (p *Project) apply(env esdomain.EventEnvelope[any]) error {
	switch env.EventType {
	case "project.added":
		v, err := decodePayload[AddedPayload](env)
		if err != nil {
			return err
		}
		p.Name = v.Name
		p.State = StateActive

	case "project.changed":
		v, err := decodePayload[ChangedPayload](env)
		if err != nil {
			return err
		}
		p.Name = v.Name

	case "project.deactivated":
		p.State = StateInactive

	case "project.reactivated":
		p.State = StateActive

	case "project.removed":
		p.State = StateRemoved

	case "project.role.added":
		v, err := decodePayload[RoleAddedPayload](env)
		if err != nil {
			return err
		}
		p.Roles[v.Key] = &Role{Key: v.Key, DisplayName: v.DisplayName, Group: v.Group}

	case "project.role.changed":
		v, err := decodePayload[RoleChangedPayload](env)
		if err != nil {
			return err
		}
		if r, ok := p.Roles[v.Key]; ok {
			r.DisplayName = v.DisplayName
			r.Group = v.Group
		}

	case "project.role.removed":
		v, err := decodePayload[RoleRemovedPayload](env)
		if err != nil {
			return err
		}
		delete(p.Roles, v.Key)

	case "project.grant.added":
		v, err := decodePayload[GrantAddedPayload](env)
		if err != nil {
			return err
		}
		p.Grants[v.GrantID] = &Grant{
			ID: v.GrantID, GrantedOrgID: v.GrantedOrgID, State: StateActive,
			RoleKeys: v.RoleKeys, Members: make(map[string]*GrantMember),
		}

	case "project.grant.changed":
		v, err := decodePayload[GrantChangedPayload](env)
		if err != nil {
			return err
		}
		if g, ok := p.Grants[v.GrantID]; ok {
			g.RoleKeys = v.RoleKeys
		}

	case "project.grant.deactivated":
		v, err := decodePayload[GrantStatePayload](env)
		if err != nil {
			return err
		}
		if g, ok := p.Grants[v.GrantID]; ok {
			g.State = StateInactive
		}

	case "project.grant.reactivated":
		v, err := decodePayload[GrantStatePayload](env)
		if err != nil {
			return err
		}
		if g, ok := p.Grants[v.GrantID]; ok {
			g.State = StateActive
		}

	case "project.grant.removed":
		v, err := decodePayload[GrantStatePayload](env)
		if err != nil {
			return err
		}
		delete(p.Grants, v.GrantID)

	case "project.member.added":
		v, err := decodePayload[MemberAddedPayload](env)
		if err != nil {
			return err
		}
		p.Members[v.UserID] = &Member{UserID: v.UserID, Roles: v.Roles}

	case "project.member.changed":
		v, err := decodePayload[MemberChangedPayload](env)
		if err != nil {
			return err
		}
		if m, ok := p.Members[v.UserID]; ok {
			m.Roles = v.Roles
		}

	case "project.member.removed":
		v, err := decodePayload[MemberRemovedPayload](env)
		if err != nil {
			return err
		}
		delete(p.Members, v.UserID)

	case "project.grant.member.added":
		v, err := decodePayload[GrantMemberAddedPayload](env)
		if err != nil {
			return err
		}
		if g, ok := p.Grants[v.GrantID]; ok {
			g.Members[v.UserID] = &GrantMember{UserID: v.UserID, Roles: v.Roles}
		}

	case "project.grant.member.changed":
		v, err := decodePayload[GrantMemberChangedPayload](env)
		if err != nil {
			return err
		}
		if g, ok := p.Grants[v.GrantID]; ok {
			if m, ok := g.Members[v.UserID]; ok {
				m.Roles = v.Roles
			}
		}

	case "project.grant.member.removed":
		v, err := decodePayload[GrantMemberRemovedPayload](env)
		if err != nil {
			return err
		}
		if g, ok := p.Grants[v.GrantID]; ok {
			delete(g.Members, v.UserID)
		}
	}

	return nil
}

func decodePayload[T any](env esdomain.EventEnvelope[any]) (T, error) {
	var zero T
	if payload, ok := env.Payload.(T); ok {
		return payload, nil
	}
	decoded, err := decodeViaJSON[T](env.Payload)
	if err != nil {
		return zero, domain.NewInternal("PROJECT-DECODE-001", fmt.Sprintf("corrupted %s payload", env.EventType), err)
	}
	return decoded, nil
}
