package policy

import "github.com/iamcore/iamcore/pkg/domain"

// Add creates a policy of the given kind for a scope. A scope may have at
// most one policy of a given kind and scope ID (§3.3's "at-most-one default
// per instance" — the same rule applies at org scope); the command handler
// is responsible for checking this against the existing aggregate before
// calling Add for a fresh ID, same pattern as Application's client-ID
// uniqueness.
func Add(instanceID, id string, kind Kind, scope Scope, scopeID string, settings map[string]any, editorUser string) (*Policy, error) {
	if scopeID == "" && scope == ScopeOrg {
		return nil, domain.NewInvalidArgument("POLICY-001", "org scope requires a scope id")
	}
	p := newPolicy(instanceID, id)
	p.Record("policy.added", 1, AddedPayload{Kind: kind, Scope: scope, ScopeID: scopeID, Settings: settings}, editorUser, scopeID)
	return p, nil
}

func (p *Policy) notFoundIfMissing() error {
	if !p.Exists() || p.State == StateRemoved {
		return domain.NewNotFound("POLICY-002", "policy not found")
	}
	return nil
}

func (p *Policy) Change(settings map[string]any, editorUser string) error {
	if err := p.notFoundIfMissing(); err != nil {
		return err
	}
	if settingsEqual(p.Settings, settings) {
		return nil
	}
	p.Record("policy.changed", 1, ChangedPayload{Settings: settings}, editorUser, p.ScopeID)
	return nil
}

func (p *Policy) Remove(editorUser string) error {
	if err := p.notFoundIfMissing(); err != nil {
		return err
	}
	p.Record("policy.removed", 1, struct{}{}, editorUser, p.ScopeID)
	return nil
}
