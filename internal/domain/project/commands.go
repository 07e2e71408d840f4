package project

import (
	"regexp"
	"sort"

	"github.com/iamcore/iamcore/pkg/domain"
)

const maxNameLen = 200

var roleKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

func New(instanceID, id, name, editorUser string) (*Project, error) {
	if name == "" || len(name) > maxNameLen {
		return nil, domain.NewInvalidArgument("PROJECT-001", "project name must be non-empty and at most 200 characters")
	}
	p := newProject(instanceID, id)
	p.Record("project.added", 1, AddedPayload{Name: name}, editorUser, id)
	return p, nil
}

func (p *Project) notFoundIfMissing() error {
	if !p.Exists() || p.State == StateRemoved {
		return domain.NewNotFound("PROJECT-002", "project not found")
	}
	return nil
}

func (p *Project) Change(name, editorUser string) error {
	if err := p.notFoundIfMissing(); err != nil {
		return err
	}
	if name == "" || len(name) > maxNameLen {
		return domain.NewInvalidArgument("PROJECT-001", "project name must be non-empty and at most 200 characters")
	}
	if name == p.Name {
		return nil
	}
	p.Record("project.changed", 1, ChangedPayload{Name: name}, editorUser, p.GetID())
	return nil
}

func (p *Project) Deactivate(editorUser string) error {
	if err := p.notFoundIfMissing(); err != nil {
		return err
	}
	if p.State != StateActive {
		return domain.NewFailedPrecondition("PROJECT-004", "project is not active")
	}
	p.Record("project.deactivated", 1, struct{}{}, editorUser, p.GetID())
	return nil
}

func (p *Project) Reactivate(editorUser string) error {
	if err := p.notFoundIfMissing(); err != nil {
		return err
	}
	if p.State != StateInactive {
		return domain.NewFailedPrecondition("PROJECT-003", "project is not inactive")
	}
	p.Record("project.reactivated", 1, struct{}{}, editorUser, p.GetID())
	return nil
}

func (p *Project) Remove(editorUser string) error {
	if err := p.notFoundIfMissing(); err != nil {
		return err
	}
	p.Record("project.removed", 1, struct{}{}, editorUser, p.GetID())
	return nil
}

func (p *Project) AddRole(key, displayName, group, editorUser string) error {
	if err := p.notFoundIfMissing(); err != nil {
		return err
	}
	if !roleKeyPattern.MatchString(key) {
		return domain.NewInvalidArgument("PROJECT-ROLE-001", "role key must match ^[A-Z][A-Z0-9_]*$")
	}
	if _, exists := p.Roles[key]; exists {
		return domain.NewAlreadyExists("PROJECT-ROLE-002", "role key already exists on this project")
	}
	p.Record("project.role.added", 1, RoleAddedPayload{Key: key, DisplayName: displayName, Group: group}, editorUser, p.GetID())
	return nil
}

func (p *Project) ChangeRole(key, displayName, group, editorUser string) error {
	if err := p.notFoundIfMissing(); err != nil {
		return err
	}
	r, exists := p.Roles[key]
	if !exists {
		return domain.NewNotFound("PROJECT-ROLE-003", "role not found")
	}
	if r.DisplayName == displayName && r.Group == group {
		return nil
	}
	p.Record("project.role.changed", 1, RoleChangedPayload{Key: key, DisplayName: displayName, Group: group}, editorUser, p.GetID())
	return nil
}

func (p *Project) RemoveRole(key, editorUser string) error {
	if err := p.notFoundIfMissing(); err != nil {
		return err
	}
	if _, exists := p.Roles[key]; !exists {
		return domain.NewNotFound("PROJECT-ROLE-003", "role not found")
	}
	p.Record("project.role.removed", 1, RoleRemovedPayload{Key: key}, editorUser, p.GetID())
	return nil
}

// roleKeysSubsetOfProject checks roleKeys ⊆ p.Roles, per spec's Project Grant
// invariant.
func (p *Project) roleKeysSubsetOfProject(roleKeys []string) bool {
	for _, k := range roleKeys {
		if _, ok := p.Roles[k]; !ok {
			return false
		}
	}
	return true
}

func sameStringSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := append([]string{}, a...), append([]string{}, b...)
	sort.Strings(sa)
	sort.Strings(sb)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

func (p *Project) AddGrant(grantID, grantedOrgID string, roleKeys []string, editorUser string) error {
	if err := p.notFoundIfMissing(); err != nil {
		return err
	}
	if _, exists := p.Grants[grantID]; exists {
		return domain.NewAlreadyExists("PROJECT-GRANT-001", "grant already exists")
	}
	if !p.roleKeysSubsetOfProject(roleKeys) {
		return domain.NewInvalidArgument("PROJECT-GRANT-002", "role keys must be a subset of the project's roles")
	}
	p.Record("project.grant.added", 1, GrantAddedPayload{GrantID: grantID, GrantedOrgID: grantedOrgID, RoleKeys: roleKeys}, editorUser, p.GetID())
	return nil
}

func (p *Project) grantOrErr(grantID string) (*Grant, error) {
	g, exists := p.Grants[grantID]
	if !exists {
		return nil, domain.NewNotFound("PROJECT-GRANT-003", "grant not found")
	}
	return g, nil
}

func (p *Project) ChangeGrant(grantID string, roleKeys []string, editorUser string) error {
	if err := p.notFoundIfMissing(); err != nil {
		return err
	}
	g, err := p.grantOrErr(grantID)
	if err != nil {
		return err
	}
	if !p.roleKeysSubsetOfProject(roleKeys) {
		return domain.NewInvalidArgument("PROJECT-GRANT-002", "role keys must be a subset of the project's roles")
	}
	if sameStringSet(g.RoleKeys, roleKeys) {
		return nil
	}
	p.Record("project.grant.changed", 1, GrantChangedPayload{GrantID: grantID, RoleKeys: roleKeys}, editorUser, p.GetID())
	return nil
}

func (p *Project) DeactivateGrant(grantID, editorUser string) error {
	if err := p.notFoundIfMissing(); err != nil {
		return err
	}
	g, err := p.grantOrErr(grantID)
	if err != nil {
		return err
	}
	if g.State != StateActive {
		return domain.NewFailedPrecondition("PROJECT-GRANT-005", "grant is not active")
	}
	p.Record("project.grant.deactivated", 1, GrantStatePayload{GrantID: grantID}, editorUser, p.GetID())
	return nil
}

func (p *Project) ReactivateGrant(grantID, editorUser string) error {
	if err := p.notFoundIfMissing(); err != nil {
		return err
	}
	g, err := p.grantOrErr(grantID)
	if err != nil {
		return err
	}
	if g.State != StateInactive {
		return domain.NewFailedPrecondition("PROJECT-GRANT-004", "grant is not inactive")
	}
	p.Record("project.grant.reactivated", 1, GrantStatePayload{GrantID: grantID}, editorUser, p.GetID())
	return nil
}

func (p *Project) RemoveGrant(grantID, editorUser string) error {
	if err := p.notFoundIfMissing(); err != nil {
		return err
	}
	if _, err := p.grantOrErr(grantID); err != nil {
		return err
	}
	p.Record("project.grant.removed", 1, GrantStatePayload{GrantID: grantID}, editorUser, p.GetID())
	return nil
}

func (p *Project) AddMember(userID string, roles []string, editorUser string) error {
	if err := p.notFoundIfMissing(); err != nil {
		return err
	}
	if _, exists := p.Members[userID]; exists {
		return domain.NewAlreadyExists("PROJECT-MEMBER-001", "member already exists")
	}
	p.Record("project.member.added", 1, MemberAddedPayload{UserID: userID, Roles: roles}, editorUser, p.GetID())
	return nil
}

func (p *Project) ChangeMember(userID string, roles []string, editorUser string) error {
	if err := p.notFoundIfMissing(); err != nil {
		return err
	}
	m, exists := p.Members[userID]
	if !exists {
		return domain.NewNotFound("PROJECT-MEMBER-002", "member not found")
	}
	if sameStringSet(m.Roles, roles) {
		return nil
	}
	p.Record("project.member.changed", 1, MemberChangedPayload{UserID: userID, Roles: roles}, editorUser, p.GetID())
	return nil
}

func (p *Project) RemoveMember(userID, editorUser string) error {
	if err := p.notFoundIfMissing(); err != nil {
		return err
	}
	if _, exists := p.Members[userID]; !exists {
		return domain.NewNotFound("PROJECT-MEMBER-002", "member not found")
	}
	p.Record("project.member.removed", 1, MemberRemovedPayload{UserID: userID}, editorUser, p.GetID())
	return nil
}

func (p *Project) AddGrantMember(grantID, userID string, roles []string, editorUser string) error {
	if err := p.notFoundIfMissing(); err != nil {
		return err
	}
	g, err := p.grantOrErr(grantID)
	if err != nil {
		return err
	}
	if !p.roleKeysSubsetOfProject(roles) {
		return domain.NewInvalidArgument("PROJECT-GRANT-002", "role keys must be a subset of the project's roles")
	}
	if _, exists := g.Members[userID]; exists {
		return domain.NewAlreadyExists("PROJECT-GRANT-MEMBER-001", "grant member already exists")
	}
	p.Record("project.grant.member.added", 1, GrantMemberAddedPayload{GrantID: grantID, UserID: userID, Roles: roles}, editorUser, p.GetID())
	return nil
}

func (p *Project) ChangeGrantMember(grantID, userID string, roles []string, editorUser string) error {
	if err := p.notFoundIfMissing(); err != nil {
		return err
	}
	g, err := p.grantOrErr(grantID)
	if err != nil {
		return err
	}
	if !p.roleKeysSubsetOfProject(roles) {
		return domain.NewInvalidArgument("PROJECT-GRANT-002", "role keys must be a subset of the project's roles")
	}
	m, exists := g.Members[userID]
	if !exists {
		return domain.NewNotFound("PROJECT-GRANT-MEMBER-002", "grant member not found")
	}
	if sameStringSet(m.Roles, roles) {
		return nil
	}
	p.Record("project.grant.member.changed", 1, GrantMemberChangedPayload{GrantID: grantID, UserID: userID, Roles: roles}, editorUser, p.GetID())
	return nil
}

func (p *Project) RemoveGrantMember(grantID, userID, editorUser string) error {
	if err := p.notFoundIfMissing(); err != nil {
		return err
	}
	g, err := p.grantOrErr(grantID)
	if err != nil {
		return err
	}
	if _, exists := g.Members[userID]; !exists {
		return domain.NewNotFound("PROJECT-GRANT-MEMBER-002", "grant member not found")
	}
	p.Record("project.grant.member.removed", 1, GrantMemberRemovedPayload{GrantID: grantID, UserID: userID}, editorUser, p.GetID())
	return nil
}
