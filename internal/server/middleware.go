package server

import (
	"context"
	"strconv"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/google/uuid"

	"github.com/yixianOu/moviestore/internal/pkg/metrics"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// RequestID reuses the caller's X-Request-Id or generates one, echoes it in
// the reply and stores it in the context for logging.
func RequestID() middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			tr, ok := transport.FromServerContext(ctx)
			if !ok {
				return handler(ctx, req)
			}

			id := tr.RequestHeader().Get(RequestIDHeader)
			if id == "" {
				id = newRequestID()
			}
			tr.ReplyHeader().Set(RequestIDHeader, id)
			return handler(context.WithValue(ctx, requestIDKey{}, id), req)
		}
	}
}

// RequestIDValuer exposes the request id to log.With.
func RequestIDValuer() log.Valuer {
	return func(ctx context.Context) interface{} {
		if id, ok := ctx.Value(requestIDKey{}).(string); ok {
			return id
		}
		return ""
	}
}

func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Metrics records request counts and latency per operation.
func Metrics() middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			operation := "unknown"
			if tr, ok := transport.FromServerContext(ctx); ok {
				operation = tr.Operation()
			}

			start := time.Now()
			reply, err := handler(ctx, req)

			code := 200
			if err != nil {
				code = int(errors.FromError(err).Code)
			}
			metrics.HTTPRequests.WithLabelValues(operation, strconv.Itoa(code)).Inc()
			metrics.HTTPDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
			return reply, err
		}
	}
}
