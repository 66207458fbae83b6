package fetch

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"

	httpx "github.com/pavelc4/aether-fetch/pkg/http"
)

func TestLinearBackOff(t *testing.T) {
	b := &linearBackOff{delay: time.Second}
	assert.Equal(t, time.Second, b.NextBackOff())
	assert.Equal(t, 2*time.Second, b.NextBackOff())
	b.Reset()
	assert.Equal(t, time.Second, b.NextBackOff())
}

func TestRetryBounded(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), Policy{Retries: 2, Delay: time.Millisecond}, "test", func() error {
		calls++
		return errors.New("flaky")
	})

	assert.EqualError(t, err, "flaky")
	assert.Equal(t, 3, calls)
}

func TestRetryRecovers(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), Policy{Retries: 2, Delay: time.Millisecond}, "test", func() error {
		calls++
		if calls < 2 {
			return errors.New("flaky")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryStopsOnClientErrors(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), Policy{Retries: 5, Delay: time.Millisecond}, "test", func() error {
		calls++
		return &httpx.StatusError{Code: http.StatusNotFound}
	})

	assert.Equal(t, http.StatusNotFound, httpx.StatusCode(err))
	assert.Equal(t, 1, calls)
}

type ytStatus struct{ code int }

func (e ytStatus) Error() string    { return "yt" }
func (e ytStatus) HTTPStatus() int { return e.code }

func TestPermanent(t *testing.T) {
	assert.False(t, Permanent(nil))
	assert.True(t, Permanent(context.Canceled))
	assert.True(t, Permanent(errors.Wrap(ErrTooLarge, "x")))
	assert.True(t, Permanent(ytStatus{410}))
	assert.False(t, Permanent(ytStatus{429}))
	assert.False(t, Permanent(&httpx.StatusError{Code: http.StatusBadGateway}))
	assert.False(t, Permanent(&httpx.StatusError{Code: http.StatusTooManyRequests}))
}
