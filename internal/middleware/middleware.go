package middleware

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/go-faster/errors"

	"github.com/pavelc4/aether-fetch/pkg/logger"
)

type Handler func(ctx context.Context) error

type Middleware func(Handler) Handler

// ErrPanic wraps a recovered panic so the caller can still answer the chat.
var ErrPanic = errors.New("handler panicked")

func Recover(next Handler) Handler {
	return func(ctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic recovered", "error", r, "stack", string(debug.Stack()))
				err = errors.Wrapf(ErrPanic, "%v", r)
			}
		}()
		return next(ctx)
	}
}

func Logger(name string) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context) error {
			start := time.Now()
			err := next(ctx)
			duration := time.Since(start)

			switch {
			case err != nil:
				logger.Error("Handler failed", "name", name, "duration", duration, "error", err)
			case duration > 100*time.Millisecond:
				logger.Info("Handler completed (slow)", "name", name, "duration", duration)
			default:
				logger.Debug("Handler completed", "name", name, "duration", duration)
			}
			return err
		}
	}
}

// Timeout bounds the whole invocation. Zero disables it.
func Timeout(d time.Duration) Middleware {
	return func(next Handler) Handler {
		if d <= 0 {
			return next
		}
		return func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx)
		}
	}
}

func Chain(h Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
