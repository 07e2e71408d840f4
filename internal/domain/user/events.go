package user

type HumanAddedPayload struct {
	Username     string `json:"username"`
	DisplayName  string `json:"displayName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	PasswordHash string `json:"passwordHash"`
}

type MachineAddedPayload struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

type UsernameChangedPayload struct {
	Username string `json:"username"`
}

type ProfileChangedPayload struct {
	DisplayName string `json:"displayName"`
}

type EmailChangeCodeAddedPayload struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type PhoneChangeCodeAddedPayload struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type PasswordChangedPayload struct {
	PasswordHash string `json:"passwordHash"`
}
