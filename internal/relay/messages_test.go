package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelc4/aether-fetch/internal/fetch"
	"github.com/pavelc4/aether-fetch/internal/provider"
	httpx "github.com/pavelc4/aether-fetch/pkg/http"
)

func TestUserMessage(t *testing.T) {
	yt := func(code string) error {
		return &provider.YtdlpError{Err: errors.New("exit 1"), Stderr: "ERROR: HTTP Error " + code + ": x"}
	}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", errors.Wrap(provider.ErrNotFound, "no source"), MsgNotFound},
		{"delivery", errors.Wrap(ErrDelivery, "x"), MsgDelivery},
		{"too large", errors.Wrap(fetch.ErrTooLarge, "x"), MsgTooLarge},
		{"timeout", errors.Wrap(context.DeadlineExceeded, "x"), MsgTimeout},
		{"yt 410", yt("410"), MsgGone},
		{"yt 403", yt("403"), MsgForbidden},
		{"yt 404", yt("404"), MsgMissing},
		{"http 404 from file host", &httpx.StatusError{Code: http.StatusNotFound}, MsgDownload},
		{"size mismatch", errors.Wrap(fetch.ErrSizeMismatch, "x"), MsgDownload},
		{"connection refused", &httpx.NetworkError{Err: errors.New("dial tcp 127.0.0.1:1: connect: connection refused")}, MsgDownload},
		{"network timeout", &httpx.NetworkError{Err: context.DeadlineExceeded}, MsgTimeout},
		{"other", errors.New("boom"), "❌ *Error:* boom"},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UserMessage(tt.err), tt.name)
	}
}

func TestUserMessageHidesDialErrors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	closed := srv.URL
	srv.Close()

	_, err := fetch.New(httpx.NewClient("x", 0), 0).ToFile(context.Background(), closed+"/x.apk", filepath.Join(t.TempDir(), "x.apk"))

	require.Error(t, err)
	msg := UserMessage(err)
	assert.Equal(t, MsgDownload, msg)
	assert.NotContains(t, msg, "127.0.0.1")
}
