package policy

import (
	policydomain "github.com/iamcore/iamcore/internal/domain/policy"
)

type AddPolicyCommand struct {
	InstanceID string             `json:"instanceId"`
	ID         string             `json:"id"`
	Kind       policydomain.Kind  `json:"kind"`
	Scope      policydomain.Scope `json:"scope"`
	ScopeID    string             `json:"scopeId"`
	Settings   map[string]any     `json:"settings"`
	EditorUser string             `json:"editorUser"`
}

func (c AddPolicyCommand) CommandType() string { return "policy.Add" }

type ChangePolicyCommand struct {
	InstanceID string         `json:"instanceId"`
	ID         string         `json:"id"`
	Settings   map[string]any `json:"settings"`
	EditorUser string         `json:"editorUser"`
}

func (c ChangePolicyCommand) CommandType() string { return "policy.Change" }

type RemovePolicyCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c RemovePolicyCommand) CommandType() string { return "policy.Remove" }
