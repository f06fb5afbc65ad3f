package obs

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// WithRequestID attaches an id that Time includes in every log line.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Time logs the duration of an operation when the returned func is deferred.
// Errors matching one of expected (errors.Is) are outcomes, not failures,
// and are logged at debug level.
//
//	defer obs.Time(ctx, logger, "routes.GetDistance")(&err)
func Time(ctx context.Context, logger *zap.Logger, name string, expected ...error) func(errp *error) {
	start := time.Now()
	reqID := RequestID(ctx)

	return func(errp *error) {
		fields := []zap.Field{
			zap.String("req_id", reqID),
			zap.String("op", name),
			zap.Duration("dur", time.Since(start)),
		}

		if errp == nil || *errp == nil {
			logger.Debug("op done", fields...)
			return
		}

		err := *errp
		for _, e := range expected {
			if errors.Is(err, e) {
				logger.Debug("op done", append(fields, zap.Error(err))...)
				return
			}
		}
		logger.Warn("op failed", append(fields, zap.Error(err))...)
	}
}
