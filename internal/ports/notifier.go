package ports

import (
	"context"

	"github.com/iamcore/iamcore/pkg/domain"
)

// LoggingNotifier is a best-effort Notifier that records the send attempt
// through the structured logger instead of talking to a real mail/SMS
// provider. Outbound delivery is explicitly an external collaborator this
// module only defines the contract for; deployments plug in an SMTP- or
// SMS-gateway-backed Notifier built against their own configured
// instance-level SMTP/SMS settings.
type LoggingNotifier struct {
	logger domain.Logger
}

func NewLoggingNotifier(logger domain.Logger) *LoggingNotifier {
	return &LoggingNotifier{logger: logger}
}

func (n *LoggingNotifier) SendEmail(ctx context.Context, to, subject, body string) error {
	n.logger.Info("notifier: email send (best-effort)", "to", to, "subject", subject)
	return nil
}

func (n *LoggingNotifier) SendSMS(ctx context.Context, to, body string) error {
	n.logger.Info("notifier: sms send (best-effort)", "to", to)
	return nil
}
