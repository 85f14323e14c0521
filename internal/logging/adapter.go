package logging

import (
	"context"

	"github.com/getpup/seeder"
	"go.uber.org/zap"
)

// ZapLogger adapts a zap.Logger to seeder.Logger.
// Args are alternating key/value pairs, as accepted by zap's sugared logger.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

var _ seeder.Logger = (*ZapLogger)(nil)

// NewZapLogger wraps logger.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{sugar: logger.Sugar()}
}

// Debug implements seeder.Logger.
func (l *ZapLogger) Debug(_ context.Context, msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

// Info implements seeder.Logger.
func (l *ZapLogger) Info(_ context.Context, msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

// Error implements seeder.Logger.
func (l *ZapLogger) Error(_ context.Context, msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}

// Sync flushes buffered log entries.
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}
