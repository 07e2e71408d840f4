package project

type AddedPayload struct {
	Name string `json:"name"`
}

type ChangedPayload struct {
	Name string `json:"name"`
}

type RoleAddedPayload struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
	Group       string `json:"group"`
}

type RoleChangedPayload struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
	Group       string `json:"group"`
}

type RoleRemovedPayload struct {
	Key string `json:"key"`
}

type GrantAddedPayload struct {
	GrantID      string   `json:"grantId"`
	GrantedOrgID string   `json:"grantedOrgId"`
	RoleKeys     []string `json:"roleKeys"`
}

type GrantChangedPayload struct {
	GrantID  string   `json:"grantId"`
	RoleKeys []string `json:"roleKeys"`
}

type GrantStatePayload struct {
	GrantID string `json:"grantId"`
}

type MemberAddedPayload struct {
	UserID string   `json:"userId"`
	Roles  []string `json:"roles"`
}

type MemberChangedPayload struct {
	UserID string   `json:"userId"`
	Roles  []string `json:"roles"`
}

type MemberRemovedPayload struct {
	UserID string `json:"userId"`
}

type GrantMemberAddedPayload struct {
	GrantID string   `json:"grantId"`
	UserID  string   `json:"userId"`
	Roles   []string `json:"roles"`
}

type GrantMemberChangedPayload struct {
	GrantID string   `json:"grantId"`
	UserID  string   `json:"userId"`
	Roles   []string `json:"roles"`
}

type GrantMemberRemovedPayload struct {
	GrantID string `json:"grantId"`
	UserID  string `json:"userId"`
}
