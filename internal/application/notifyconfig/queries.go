package notifyconfig

type GetSMTPConfigQuery struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
}

func (q GetSMTPConfigQuery) QueryType() string { return "notifyConfig.GetSMTP" }

type GetSMSConfigQuery struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
}

func (q GetSMSConfigQuery) QueryType() string { return "notifyConfig.GetSMS" }

type SMTPConfigView struct {
	ID       string
	Host     string
	Port     int
	User     string
	Password string
	State    string
}

type SMSConfigView struct {
	ID       string
	Provider string
	Settings map[string]any
	State    string
}
