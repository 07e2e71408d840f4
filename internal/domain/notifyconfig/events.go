package notifyconfig

type SMTPAddedPayload struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type SMSAddedPayload struct {
	Provider string         `json:"provider"`
	Settings map[string]any `json:"settings"`
}
