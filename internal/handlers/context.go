package handlers

import (
	"context"

	"github.com/HammerMeetNail/postcoach/internal/logging"
)

type contextKey string

const requestIDContextKey contextKey = "request_id"

func SetRequestIDInContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

func GetRequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// loggerFor returns logger tagged with the request ID carried by ctx.
func loggerFor(ctx context.Context, logger *logging.Logger) *logging.Logger {
	if logger == nil {
		logger = logging.Default
	}
	if id := GetRequestIDFromContext(ctx); id != "" {
		return logger.WithField("request_id", id)
	}
	return logger
}
