package infrastructure

import (
	"go.uber.org/zap"

	"github.com/iamcore/iamcore/pkg/domain"
)

// zapLogger adapts a *zap.SugaredLogger to domain.Logger. This is the
// production logger: structured output, leveled, safe for concurrent use
// from every command/query handler and projection worker.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger builds a domain.Logger backed by zap. dev selects
// zap.NewDevelopment's human-readable console encoding (for local/CLI use);
// otherwise zap.NewProduction's JSON encoding is used.
func NewZapLogger(dev bool) (domain.Logger, error) {
	var z *zap.Logger
	var err error
	if dev {
		z, err = zap.NewDevelopment()
	} else {
		z, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return &zapLogger{sugar: z.Sugar()}, nil
}

func (l *zapLogger) Debug(msg string, keysAndValues ...interface{}) { l.sugar.Debugw(msg, keysAndValues...) }
func (l *zapLogger) Info(msg string, keysAndValues ...interface{})  { l.sugar.Infow(msg, keysAndValues...) }
func (l *zapLogger) Warn(msg string, keysAndValues ...interface{})  { l.sugar.Warnw(msg, keysAndValues...) }
func (l *zapLogger) Error(msg string, keysAndValues ...interface{}) { l.sugar.Errorw(msg, keysAndValues...) }
func (l *zapLogger) Fatal(msg string, keysAndValues ...interface{}) { l.sugar.Fatalw(msg, keysAndValues...) }

func (l *zapLogger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *zapLogger) Infof(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *zapLogger) Warnf(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *zapLogger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }
func (l *zapLogger) Fatalf(format string, args ...interface{}) { l.sugar.Fatalf(format, args...) }
