package log

import (
	"context"
	"os"

	"go.uber.org/zap"
)

type ctxKey string

const (
	SessionIDKey ctxKey = "session_id"
	ClientIPKey  ctxKey = "client_ip"
	UserAgentKey ctxKey = "user_agent"
)

var logger *zap.Logger

func init() {
	if os.Getenv("DEBUG") == "true" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
}

// WithSession stores the per-connection identifiers that WithCtx reports.
func WithSession(ctx context.Context, sessionID, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, SessionIDKey, sessionID)
	ctx = context.WithValue(ctx, ClientIPKey, clientIP)
	ctx = context.WithValue(ctx, UserAgentKey, userAgent)
	return ctx
}

func WithCtx(ctx context.Context) *zap.Logger {
	fields := []zap.Field{}

	if v := ctx.Value(SessionIDKey); v != nil {
		fields = append(fields, zap.Any("session_id", v))
	}
	if v := ctx.Value(ClientIPKey); v != nil {
		fields = append(fields, zap.Any("client_ip", v))
	}
	if v := ctx.Value(UserAgentKey); v != nil {
		fields = append(fields, zap.Any("user_agent", v))
	}

	return logger.With(fields...)
}

func With(fields ...zap.Field) *zap.Logger {
	return logger.With(fields...)
}

// Logger returns the process logger.
func Logger() *zap.Logger {
	return logger
}

// Sync flushes buffered entries; call it before exit.
func Sync() {
	_ = logger.Sync()
}
