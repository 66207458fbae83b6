package fetch

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-faster/errors"

	"github.com/pavelc4/aether-fetch/config"
	httpx "github.com/pavelc4/aether-fetch/pkg/http"
	"github.com/pavelc4/aether-fetch/pkg/logger"
)

// Policy retries an operation Retries more times, waiting Delay*n before the
// n-th retry.
type Policy struct {
	Retries int
	Delay   time.Duration
}

func DefaultPolicy() Policy {
	return Policy{Retries: config.DefaultRetryLimit, Delay: config.DefaultRetryDelay}
}

type linearBackOff struct {
	delay   time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.delay * time.Duration(b.attempt)
}

func (b *linearBackOff) Reset() {
	b.attempt = 0
}

type statusCoder interface {
	HTTPStatus() int
}

// Permanent reports whether err cannot be cured by trying again.
func Permanent(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrTooLarge) {
		return true
	}
	var se *httpx.StatusError
	if errors.As(err, &se) {
		return se.Permanent()
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		code := sc.HTTPStatus()
		return code >= 400 && code < 500 && code != 429
	}
	return false
}

// Retry runs op until it succeeds, fails permanently, the policy is used up
// or ctx ends. The last error is returned.
func Retry(ctx context.Context, p Policy, name string, op func() error) error {
	var b backoff.BackOff = &linearBackOff{delay: p.Delay}
	b = backoff.WithMaxRetries(b, uint64(max(p.Retries, 0)))

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		err := op()
		if Permanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		logger.Warn("Retrying", "op", name, "attempt", attempt, "wait", wait, "error", err)
	})
}
