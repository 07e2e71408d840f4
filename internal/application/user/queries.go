package user

type GetUserQuery struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
}

func (q GetUserQuery) QueryType() string { return "user.Get" }

type GetUserByEmailQuery struct {
	InstanceID string `json:"instanceId"`
	Email      string `json:"email"`
}

func (q GetUserByEmailQuery) QueryType() string { return "user.GetByEmail" }

type ListUsersQuery struct {
	InstanceID string `json:"instanceId"`
}

func (q ListUsersQuery) QueryType() string { return "user.List" }

type UserView struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	State         string `json:"state"`
	Username      string `json:"username"`
	DisplayName   string `json:"displayName"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
	Phone         string `json:"phone"`
	PhoneVerified bool   `json:"phoneVerified"`
	TOTPEnrolled  bool   `json:"totpEnrolled"`
}
