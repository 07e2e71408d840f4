package project

type GetProjectQuery struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
}

func (q GetProjectQuery) QueryType() string { return "project.Get" }

type ListProjectsQuery struct {
	InstanceID string `json:"instanceId"`
}

func (q ListProjectsQuery) QueryType() string { return "project.List" }

type RoleView struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
	Group       string `json:"group"`
}

type MemberView struct {
	UserID string   `json:"userId"`
	Roles  []string `json:"roles"`
}

type GrantMemberView struct {
	UserID string   `json:"userId"`
	Roles  []string `json:"roles"`
}

type GrantView struct {
	GrantID      string            `json:"grantId"`
	GrantedOrgID string            `json:"grantedOrgId"`
	State        string            `json:"state"`
	RoleKeys     []string          `json:"roleKeys"`
	Members      []GrantMemberView `json:"members"`
}

type ProjectView struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	State   string       `json:"state"`
	Roles   []RoleView   `json:"roles"`
	Grants  []GrantView  `json:"grants"`
	Members []MemberView `json:"members"`
}
