package ports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingLogger struct {
	infos []string
}

func (l *recordingLogger) Debug(string, ...interface{}) {}
func (l *recordingLogger) Info(msg string, _ ...interface{}) {
	l.infos = append(l.infos, msg)
}
func (l *recordingLogger) Warn(string, ...interface{})   {}
func (l *recordingLogger) Error(string, ...interface{})  {}
func (l *recordingLogger) Fatal(string, ...interface{})  {}
func (l *recordingLogger) Debugf(string, ...interface{}) {}
func (l *recordingLogger) Infof(string, ...interface{})  {}
func (l *recordingLogger) Warnf(string, ...interface{})  {}
func (l *recordingLogger) Errorf(string, ...interface{}) {}
func (l *recordingLogger) Fatalf(string, ...interface{}) {}

func TestLoggingNotifier_SendEmailNeverReturnsError(t *testing.T) {
	logger := &recordingLogger{}
	notifier := NewLoggingNotifier(logger)

	err := notifier.SendEmail(context.Background(), "user@example.com", "subject", "body")
	assert.NoError(t, err)
	assert.Len(t, logger.infos, 1)
}

func TestLoggingNotifier_SendSMSNeverReturnsError(t *testing.T) {
	logger := &recordingLogger{}
	notifier := NewLoggingNotifier(logger)

	err := notifier.SendSMS(context.Background(), "+15551234567", "body")
	assert.NoError(t, err)
	assert.Len(t, logger.infos, 1)
}
