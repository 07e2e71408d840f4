package policy

import policydomain "github.com/iamcore/iamcore/internal/domain/policy"

type GetPolicyQuery struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
}

func (q GetPolicyQuery) QueryType() string { return "policy.Get" }

type ListPoliciesByScopeQuery struct {
	InstanceID string             `json:"instanceId"`
	Scope      policydomain.Scope `json:"scope"`
	ScopeID    string             `json:"scopeId"`
}

func (q ListPoliciesByScopeQuery) QueryType() string { return "policy.ListByScope" }

type PolicyView struct {
	ID       string
	Kind     string
	Scope    string
	ScopeID  string
	State    string
	Settings map[string]any
}
