package logger

import (
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"
)

// GetFxLogger adapts our Logger to fx's event logging interface
func (l *Logger) GetFxLogger() fxevent.Logger {
	zl := &fxevent.ZapLogger{Logger: l.Desugar()}
	zl.UseLogLevel(zapcore.DebugLevel)
	return zl
}
