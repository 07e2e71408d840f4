package org

import (
	"github.com/iamcore/iamcore/pkg/domain"
)

const maxNameLen = 200

// New creates a brand-new org aggregate and records org.added. id is
// generated by the caller (ports.IDGen) before this is invoked.
func New(instanceID, id, name, editorUser string) (*Organization, error) {
	if name == "" || len(name) > maxNameLen {
		return nil, domain.NewInvalidArgument("ORG-001", "org name must be non-empty and at most 200 characters")
	}

	o := newOrganization(instanceID, id)
	o.Name = name
	o.State = StateActive
	o.Record("org.added", 1, OrgAddedPayload{Name: name}, editorUser, id)
	return o, nil
}

// Change updates the org's name. Per the idempotence rule (spec.md §4.3), if
// the new name equals the current one, no event is emitted.
func (o *Organization) Change(name, editorUser string) error {
	if o.State == StateRemoved {
		return domain.NewNotFound("ORG-002", "organization not found")
	}
	if name == "" || len(name) > maxNameLen {
		return domain.NewInvalidArgument("ORG-001", "org name must be non-empty and at most 200 characters")
	}
	if name == o.Name {
		return nil
	}
	o.Record("org.changed", 1, OrgChangedPayload{Name: name}, editorUser, o.GetID())
	return nil
}

func (o *Organization) Deactivate(editorUser string) error {
	if o.State == StateRemoved {
		return domain.NewNotFound("ORG-002", "organization not found")
	}
	if o.State != StateActive {
		return domain.NewFailedPrecondition("ORG-003", "organization is not active")
	}
	o.Record("org.deactivated", 1, struct{}{}, editorUser, o.GetID())
	return nil
}

func (o *Organization) Reactivate(editorUser string) error {
	if o.State == StateRemoved {
		return domain.NewNotFound("ORG-002", "organization not found")
	}
	if o.State != StateInactive {
		return domain.NewFailedPrecondition("ORG-004", "organization is not inactive")
	}
	o.Record("org.reactivated", 1, struct{}{}, editorUser, o.GetID())
	return nil
}

func (o *Organization) Remove(editorUser string) error {
	if o.State == StateRemoved {
		return domain.NewNotFound("ORG-002", "organization not found")
	}
	o.Record("org.removed", 1, struct{}{}, editorUser, o.GetID())
	return nil
}

// AddDomain adds an unverified domain and records the verification code
// alongside it (spec.md's "commands that accept external verification emit
// an event carrying the code" rule, §4.3).
func (o *Organization) AddDomain(name, verifyCode, editorUser string) error {
	if o.State != StateActive {
		return domain.NewFailedPrecondition("ORG-DOMAIN-001", "organization is not active")
	}
	if name == "" {
		return domain.NewInvalidArgument("ORG-DOMAIN-002", "domain name must not be empty")
	}
	if o.findDomain(name) != nil {
		return domain.NewAlreadyExists("ORG-DOMAIN-003", "domain already added to organization")
	}
	o.Record("org.domain.added", 1, OrgDomainAddedPayload{Name: name, VerifyCode: verifyCode}, editorUser, o.GetID())
	return nil
}

// VerifyDomain marks a domain verified if code matches the stored
// verification code. Stored codes carry no expiry and none is checked.
// On mismatch it records a check-failed event
// (so projections can track failed attempts) but still returns an error to
// the caller, per spec.md §7.
func (o *Organization) VerifyDomain(name, code, editorUser string) error {
	d := o.findDomain(name)
	if d == nil {
		return domain.NewNotFound("ORG-DOMAIN-004", "domain not found")
	}
	if d.Verified {
		return nil
	}
	if code != d.VerifyCode {
		o.Record("org.domain.verify.check.failed", 1, OrgDomainVerifiedPayload{Name: name}, editorUser, o.GetID())
		return domain.NewInvalidArgument("ORG-DOMAIN-005", "verification code does not match")
	}
	o.Record("org.domain.verified", 1, OrgDomainVerifiedPayload{Name: name}, editorUser, o.GetID())
	return nil
}

// SetPrimaryDomain promotes an already-verified domain to primary.
func (o *Organization) SetPrimaryDomain(name, editorUser string) error {
	d := o.findDomain(name)
	if d == nil {
		return domain.NewNotFound("ORG-DOMAIN-004", "domain not found")
	}
	if !d.Verified {
		return domain.NewFailedPrecondition("ORG-DOMAIN-006", "domain must be verified to set as primary")
	}
	if d.Primary {
		return nil
	}
	o.Record("org.domain.primary.set", 1, OrgDomainPrimarySetPayload{Name: name}, editorUser, o.GetID())
	return nil
}

// RemoveDomain removes a domain. If it was primary, no domain is primary
// afterward (spec.md §4.2: "primary becomes undefined").
func (o *Organization) RemoveDomain(name, editorUser string) error {
	if o.findDomain(name) == nil {
		return domain.NewNotFound("ORG-DOMAIN-004", "domain not found")
	}
	o.Record("org.domain.removed", 1, OrgDomainRemovedPayload{Name: name}, editorUser, o.GetID())
	return nil
}

func (o *Organization) AddMember(userID string, roles []string, editorUser string) error {
	if _, exists := o.Members[userID]; exists {
		return domain.NewAlreadyExists("ORG-MEMBER-001", "user is already a member of this organization")
	}
	o.Record("org.member.added", 1, OrgMemberAddedPayload{UserID: userID, Roles: roles}, editorUser, o.GetID())
	return nil
}

func (o *Organization) ChangeMember(userID string, roles []string, editorUser string) error {
	m, exists := o.Members[userID]
	if !exists {
		return domain.NewNotFound("ORG-MEMBER-002", "organization member not found")
	}
	if sameRoles(m.Roles, roles) {
		return nil
	}
	o.Record("org.member.changed", 1, OrgMemberChangedPayload{UserID: userID, Roles: roles}, editorUser, o.GetID())
	return nil
}

func (o *Organization) RemoveMember(userID, editorUser string) error {
	if _, exists := o.Members[userID]; !exists {
		return domain.NewNotFound("ORG-MEMBER-002", "organization member not found")
	}
	o.Record("org.member.removed", 1, OrgMemberRemovedPayload{UserID: userID}, editorUser, o.GetID())
	return nil
}

func sameRoles(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, r := range a {
		seen[r]++
	}
	for _, r := range b {
		seen[r]--
	}
	for _, count := range seen {
		if count != 0 {
			return false
		}
	}
	return true
}
