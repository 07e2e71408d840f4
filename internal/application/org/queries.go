package org

type GetOrgQuery struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
}

func (q GetOrgQuery) QueryType() string { return "org.Get" }

type ListOrgsQuery struct {
	InstanceID string `json:"instanceId"`
}

func (q ListOrgsQuery) QueryType() string { return "org.List" }

type ListOrgMembersQuery struct {
	InstanceID string `json:"instanceId"`
	OrgID      string `json:"orgId"`
}

func (q ListOrgMembersQuery) QueryType() string { return "org.ListMembers" }

// DomainView and MemberView are the read-side shapes of org.Domain/org.Member,
// decoupled from the aggregate's own structs so the projection schema can
// evolve independently of the event-sourced reducer.
type DomainView struct {
	Name     string `json:"name"`
	Verified bool   `json:"verified"`
	Primary  bool   `json:"primary"`
}

type MemberView struct {
	UserID string   `json:"userId"`
	Roles  []string `json:"roles"`
}

type OrgView struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	State   string       `json:"state"`
	Domains []DomainView `json:"domains"`
}
