// Package fetch retrieves resolved links, either streamed to disk or
// buffered in memory.
package fetch

import (
	"context"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/pavelc4/aether-fetch/config"
	"github.com/pavelc4/aether-fetch/pkg/buffer"
	httpx "github.com/pavelc4/aether-fetch/pkg/http"
	"github.com/pavelc4/aether-fetch/pkg/logger"
)

var (
	ErrStatus       = httpx.ErrStatus
	ErrNetwork      = httpx.ErrNetwork
	ErrTooLarge     = httpx.ErrTooLarge
	ErrSizeMismatch = errors.New("size does not match content-length")
)

// Artifact is a fetched file, held either on disk (Path) or in memory (Data).
type Artifact struct {
	Path     string
	Data     []byte
	Size     int64
	MimeType string
	FileName string
	Title    string
	Duration time.Duration
	// Temp marks files the relay must remove once delivered.
	Temp bool
}

// Remove deletes the backing file of a temp artifact.
func (a *Artifact) Remove() {
	if a == nil || !a.Temp || a.Path == "" {
		return
	}
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to remove artifact", "path", a.Path, "error", err)
	}
}

type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

func New(client *http.Client, maxBytes int64) *Fetcher {
	if maxBytes <= 0 {
		maxBytes = config.DefaultMaxDownloadMB * 1024 * 1024
	}
	return &Fetcher{client: client, maxBytes: maxBytes}
}

func (f *Fetcher) MaxBytes() int64 {
	return f.maxBytes
}

// ToFile streams url into path. When the server announces a length the
// written size must match it; otherwise nothing is left at path.
func (f *Fetcher) ToFile(ctx context.Context, url, path string) (*Artifact, error) {
	ctx, cancel := context.WithTimeout(ctx, config.StreamTimeout)
	defer cancel()

	start := time.Now()
	body, length, contentType, err := httpx.StreamRequest(ctx, f.client, url, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	if length > f.maxBytes {
		return nil, errors.Wrapf(ErrTooLarge, "%d bytes", length)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create folder")
	}

	part := path + ".part"
	file, err := os.Create(part)
	if err != nil {
		return nil, errors.Wrap(err, "create file")
	}

	buf := buffer.Get()
	// The wrapper hides ReadFrom so the pooled buffer is used.
	written, err := io.CopyBuffer(struct{ io.Writer }{file}, io.LimitReader(bodyReader{body}, f.maxBytes+1), *buf)
	buffer.Put(buf)
	closeErr := file.Close()

	switch {
	case err != nil:
		err = errors.Wrap(err, "write file")
	case closeErr != nil:
		err = errors.Wrap(closeErr, "close file")
	case written > f.maxBytes:
		err = errors.Wrapf(ErrTooLarge, "more than %d bytes", f.maxBytes)
	case length >= 0 && written != length:
		err = errors.Wrapf(ErrSizeMismatch, "got %d of %d bytes", written, length)
	}
	if err != nil {
		os.Remove(part)
		return nil, err
	}

	if err := os.Rename(part, path); err != nil {
		os.Remove(part)
		return nil, errors.Wrap(err, "finalize file")
	}

	logger.InfoWithDuration("Downloaded to disk", start, "path", path, "size", written)
	return &Artifact{
		Path:     path,
		Size:     written,
		MimeType: mediaType(contentType),
		FileName: filepath.Base(path),
	}, nil
}

// ToMemory buffers the whole body, refusing anything above the size limit.
func (f *Fetcher) ToMemory(ctx context.Context, url string) (*Artifact, error) {
	ctx, cancel := context.WithTimeout(ctx, config.BufferTimeout)
	defer cancel()

	body, length, contentType, err := httpx.StreamRequest(ctx, f.client, url, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	if length > f.maxBytes {
		return nil, errors.Wrapf(ErrTooLarge, "%d bytes", length)
	}

	data, err := io.ReadAll(io.LimitReader(bodyReader{body}, f.maxBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	if int64(len(data)) > f.maxBytes {
		return nil, errors.Wrapf(ErrTooLarge, "more than %d bytes", f.maxBytes)
	}
	if len(data) == 0 {
		return nil, errors.New("empty response")
	}
	if length >= 0 && int64(len(data)) != length {
		return nil, errors.Wrapf(ErrSizeMismatch, "got %d of %d bytes", len(data), length)
	}

	return &Artifact{
		Data:     data,
		Size:     int64(len(data)),
		MimeType: mediaType(contentType),
	}, nil
}

// ManyToMemory buffers several small files (slideshow pictures) with at most
// limit requests in flight. Results keep the order of urls.
func (f *Fetcher) ManyToMemory(ctx context.Context, urls []string, limit int) ([]*Artifact, error) {
	out := make([]*Artifact, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, u := range urls {
		g.Go(func() error {
			a, err := f.ToMemory(ctx, u)
			if err != nil {
				return errors.Wrapf(err, "item %d", i+1)
			}
			out[i] = a
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// bodyReader marks failures while reading a response as network errors.
type bodyReader struct {
	r io.Reader
}

func (b bodyReader) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err != nil && err != io.EOF {
		err = &httpx.NetworkError{Err: err}
	}
	return n, err
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.TrimSpace(strings.Split(contentType, ";")[0])
	}
	return mt
}
