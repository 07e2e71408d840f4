package notifyconfig

import "github.com/iamcore/iamcore/pkg/domain"

func AddSMTP(instanceID, id, host string, port int, user, password, editorUser string) (*SMTPConfig, error) {
	if host == "" {
		return nil, domain.NewInvalidArgument("SMTP-001", "host is required")
	}
	c := newSMTPConfig(instanceID, id)
	c.Record("smtp_config.added", 1, SMTPAddedPayload{Host: host, Port: port, User: user, Password: password}, editorUser, id)
	return c, nil
}

func (c *SMTPConfig) notFoundIfMissing() error {
	if !c.Exists() || c.State == StateRemoved {
		return domain.NewNotFound("SMTP-002", "smtp config not found")
	}
	return nil
}

func (c *SMTPConfig) Change(host string, port int, user, password, editorUser string) error {
	if err := c.notFoundIfMissing(); err != nil {
		return err
	}
	if host == "" {
		return domain.NewInvalidArgument("SMTP-001", "host is required")
	}
	if c.Host == host && c.Port == port && c.User == user && c.Password == password {
		return nil
	}
	c.Record("smtp_config.changed", 1, SMTPAddedPayload{Host: host, Port: port, User: user, Password: password}, editorUser, c.GetID())
	return nil
}

// Activate is idempotent when already active, per §4.3 ("activate emits no
// event if already active").
func (c *SMTPConfig) Activate(editorUser string) error {
	if err := c.notFoundIfMissing(); err != nil {
		return err
	}
	if c.State == StateActive {
		return nil
	}
	c.Record("smtp_config.activated", 1, struct{}{}, editorUser, c.GetID())
	return nil
}

func (c *SMTPConfig) Deactivate(editorUser string) error {
	if err := c.notFoundIfMissing(); err != nil {
		return err
	}
	if c.State != StateActive {
		return domain.NewFailedPrecondition("SMTP-003", "smtp config is not active")
	}
	c.Record("smtp_config.deactivated", 1, struct{}{}, editorUser, c.GetID())
	return nil
}

func (c *SMTPConfig) Remove(editorUser string) error {
	if err := c.notFoundIfMissing(); err != nil {
		return err
	}
	c.Record("smtp_config.removed", 1, struct{}{}, editorUser, c.GetID())
	return nil
}

func AddSMS(instanceID, id, provider string, settings map[string]any, editorUser string) (*SMSConfig, error) {
	if provider != "twilio" && provider != "http" {
		return nil, domain.NewInvalidArgument("SMS-001", "provider must be twilio or http")
	}
	c := newSMSConfig(instanceID, id)
	c.Record("sms_config.added", 1, SMSAddedPayload{Provider: provider, Settings: settings}, editorUser, id)
	return c, nil
}

func (c *SMSConfig) notFoundIfMissing() error {
	if !c.Exists() || c.State == StateRemoved {
		return domain.NewNotFound("SMS-002", "sms config not found")
	}
	return nil
}

func (c *SMSConfig) Change(settings map[string]any, editorUser string) error {
	if err := c.notFoundIfMissing(); err != nil {
		return err
	}
	c.Record("sms_config.changed", 1, SMSAddedPayload{Provider: c.Provider, Settings: settings}, editorUser, c.GetID())
	return nil
}

func (c *SMSConfig) Activate(editorUser string) error {
	if err := c.notFoundIfMissing(); err != nil {
		return err
	}
	if c.State == StateActive {
		return nil
	}
	c.Record("sms_config.activated", 1, struct{}{}, editorUser, c.GetID())
	return nil
}

func (c *SMSConfig) Deactivate(editorUser string) error {
	if err := c.notFoundIfMissing(); err != nil {
		return err
	}
	if c.State != StateActive {
		return domain.NewFailedPrecondition("SMS-003", "sms config is not active")
	}
	c.Record("sms_config.deactivated", 1, struct{}{}, editorUser, c.GetID())
	return nil
}

func (c *SMSConfig) Remove(editorUser string) error {
	if err := c.notFoundIfMissing(); err != nil {
		return err
	}
	c.Record("sms_config.removed", 1, struct{}{}, editorUser, c.GetID())
	return nil
}
