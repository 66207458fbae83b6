package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-faster/errors"
)

var (
	// ErrStatus matches every *StatusError.
	ErrStatus = errors.New("unexpected http status")
	// ErrNetwork matches every *NetworkError.
	ErrNetwork  = errors.New("network error")
	ErrTooLarge = errors.New("file too large")
)

// NetworkError is a request that failed before or while reading the
// response: dial, TLS, reset or timeout.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "request: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http error: %d %s", e.Code, http.StatusText(e.Code))
}

func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// Permanent reports whether repeating the request cannot help.
func (e *StatusError) Permanent() bool {
	return e.Code >= 400 && e.Code < 500 && e.Code != http.StatusTooManyRequests
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

func StreamRequest(ctx context.Context, client *http.Client, url string, headers map[string]string) (io.ReadCloser, int64, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, "", errors.Wrap(err, "create request")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, "", &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, 0, "", &StatusError{Code: resp.StatusCode, URL: url}
	}

	return resp.Body, resp.ContentLength, resp.Header.Get("Content-Type"), nil
}

// GetBody reads a 2xx response body. Bodies over limit are refused with
// ErrTooLarge rather than cut short.
func GetBody(ctx context.Context, client *http.Client, url string, limit int64) ([]byte, error) {
	body, length, _, err := StreamRequest(ctx, client, url, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	if length > limit {
		return nil, errors.Wrapf(ErrTooLarge, "%d bytes", length)
	}

	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	if int64(len(data)) > limit {
		return nil, errors.Wrapf(ErrTooLarge, "more than %d bytes", limit)
	}
	return data, nil
}

func GetJSON(ctx context.Context, client *http.Client, url string, out any) error {
	body, _, _, err := StreamRequest(ctx, client, url, map[string]string{"Accept": "application/json"})
	if err != nil {
		return err
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(out); err != nil {
		return errors.Wrap(err, "decode json")
	}
	return nil
}

// PostJSON sends payload as JSON and decodes the response into out. A string
// payload is sent as is, so callers can post a form by overriding
// Content-Type in headers.
func PostJSON(ctx context.Context, client *http.Client, url string, payload any, headers map[string]string, out any) error {
	var body io.Reader
	switch p := payload.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(p)
	default:
		raw, err := json.Marshal(p)
		if err != nil {
			return errors.Wrap(err, "encode payload")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, URL: url}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode json")
	}
	return nil
}
