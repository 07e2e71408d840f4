package notifyconfig

type AddSMTPConfigCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	Host       string `json:"host"`
	Port       int    `json:"port"`
	User       string `json:"user"`
	Password   string `json:"password"`
	EditorUser string `json:"editorUser"`
}

func (c AddSMTPConfigCommand) CommandType() string { return "notifyConfig.AddSMTP" }

type ChangeSMTPConfigCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	Host       string `json:"host"`
	Port       int    `json:"port"`
	User       string `json:"user"`
	Password   string `json:"password"`
	EditorUser string `json:"editorUser"`
}

func (c ChangeSMTPConfigCommand) CommandType() string { return "notifyConfig.ChangeSMTP" }

type ActivateSMTPConfigCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c ActivateSMTPConfigCommand) CommandType() string { return "notifyConfig.ActivateSMTP" }

type DeactivateSMTPConfigCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c DeactivateSMTPConfigCommand) CommandType() string { return "notifyConfig.DeactivateSMTP" }

type RemoveSMTPConfigCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c RemoveSMTPConfigCommand) CommandType() string { return "notifyConfig.RemoveSMTP" }

type AddSMSConfigCommand struct {
	InstanceID string         `json:"instanceId"`
	ID         string         `json:"id"`
	Provider   string         `json:"provider"`
	Settings   map[string]any `json:"settings"`
	EditorUser string         `json:"editorUser"`
}

func (c AddSMSConfigCommand) CommandType() string { return "notifyConfig.AddSMS" }

type ChangeSMSConfigCommand struct {
	InstanceID string         `json:"instanceId"`
	ID         string         `json:"id"`
	Settings   map[string]any `json:"settings"`
	EditorUser string         `json:"editorUser"`
}

func (c ChangeSMSConfigCommand) CommandType() string { return "notifyConfig.ChangeSMS" }

type ActivateSMSConfigCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c ActivateSMSConfigCommand) CommandType() string { return "notifyConfig.ActivateSMS" }

type DeactivateSMSConfigCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c DeactivateSMSConfigCommand) CommandType() string { return "notifyConfig.DeactivateSMS" }

type RemoveSMSConfigCommand struct {
	InstanceID string `json:"instanceId"`
	ID         string `json:"id"`
	EditorUser string `json:"editorUser"`
}

func (c RemoveSMSConfigCommand) CommandType() string { return "notifyConfig.RemoveSMS" }
