package linkschema

import "go.uber.org/zap"

// ZapLogger adapts a *zap.Logger to the Logger capability (spec §4.15).
// The core never constructs one on its own initiative; a caller that wants
// structured logging of validation/import activity passes one in
// explicitly, following the teacher/gatekeeper convention of zap as the
// structured-logging stack.
type ZapLogger struct {
	l *zap.Logger
}

// NewZapLogger wraps l. A nil l yields a Logger whose Log calls are no-ops.
func NewZapLogger(l *zap.Logger) *ZapLogger { return &ZapLogger{l: l} }

func (z *ZapLogger) Log(level LogLevel, msg string, fields map[string]any) {
	if z == nil || z.l == nil {
		return
	}
	zfields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zfields = append(zfields, zap.Any(k, v))
	}
	switch level {
	case LogDebug:
		z.l.Debug(msg, zfields...)
	case LogInfo:
		z.l.Info(msg, zfields...)
	case LogWarn:
		z.l.Warn(msg, zfields...)
	case LogError:
		z.l.Error(msg, zfields...)
	default:
		z.l.Info(msg, zfields...)
	}
}
