package relay

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/pavelc4/aether-fetch/internal/fetch"
	"github.com/pavelc4/aether-fetch/internal/provider"
	httpx "github.com/pavelc4/aether-fetch/pkg/http"
)

const (
	MsgNotFound   = "❌ Unable to find it. Try a different name or link."
	MsgDownload   = "❌ Failed to download the file. The source may be down or the link expired."
	MsgTooLarge   = "❌ The file is too large to send."
	MsgDelivery   = "❌ Failed to send the file to the chat. The file might be too large or the bot cannot send files."
	MsgTimeout    = "⏱️ The request took too long. Please try again later."
	MsgGone       = "⚠️ *YouTube responded 410 Gone.* The video may have been removed, private, or region-blocked."
	MsgForbidden  = "⚠️ *Request blocked (403).* YouTube may be restricting access from this server."
	MsgMissing    = "⚠️ *Video not found (404).* Check the link or whether the video was deleted."
	MsgRateLimits = "⚠️ *Too many requests (429).* Try again in a few minutes."
)

type statusCoder interface {
	HTTPStatus() int
}

// UserMessage turns an invocation error into the one line the chat sees.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, provider.ErrNotFound):
		return MsgNotFound
	case errors.Is(err, ErrDelivery):
		return MsgDelivery
	case errors.Is(err, fetch.ErrTooLarge):
		return MsgTooLarge
	case errors.Is(err, context.DeadlineExceeded):
		return MsgTimeout
	}

	if msg := statusMessage(err); msg != "" {
		return msg
	}

	switch {
	case errors.Is(err, fetch.ErrStatus), errors.Is(err, fetch.ErrNetwork),
		errors.Is(err, fetch.ErrSizeMismatch), httpx.StatusCode(err) != 0:
		return MsgDownload
	default:
		return "❌ *Error:* " + err.Error()
	}
}

// statusMessage explains yt-dlp failures. Plain HTTP errors from file
// hosts fall through to the generic download message.
func statusMessage(err error) string {
	var sc statusCoder
	if !errors.As(err, &sc) {
		return ""
	}
	switch sc.HTTPStatus() {
	case 410:
		return MsgGone
	case 403:
		return MsgForbidden
	case 404:
		return MsgMissing
	case 429:
		return MsgRateLimits
	}
	return ""
}
