package provider

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/pavelc4/aether-fetch/pkg/logger"
)

// SourceDirect names results that needed no lookup.
const SourceDirect = "direct"

var ErrNotFound = errors.New("not found")

// Mode tells the fetcher how to retrieve a download URL.
type Mode int

const (
	Stream Mode = iota
	Buffer
)

// ResolvedSource is what a strategy hands to the fetcher. Only Source and
// DownloadURL are guaranteed; the rest is best-effort metadata.
type ResolvedSource struct {
	Source      string
	PageURL     string
	DownloadURL string
	Mode        Mode

	ID        string
	Title     string
	Author    string
	Thumbnail string
	Size      string
	Package   string
	Updated   string
	Quality   string
	Music     string
	Duration  time.Duration
	Views     int64
	Likes     int64
	Comments  int64
	// Images holds slideshow pictures when the post has no video.
	Images []string
}

type Strategy interface {
	Name() string
	Resolve(ctx context.Context, query string) (*ResolvedSource, error)
}

// Observer is told about every strategy attempt. err is nil on success.
type Observer func(strategy string, err error)

// Resolver tries its strategies in order and returns the first success.
type Resolver struct {
	strategies []Strategy
	directExt  string

	Observer Observer
}

// NewResolver builds a resolver. Inputs that are URLs ending in directExt
// (e.g. ".apk") skip the strategies entirely; an empty directExt disables
// that shortcut.
func NewResolver(directExt string, strategies ...Strategy) *Resolver {
	return &Resolver{
		strategies: strategies,
		directExt:  strings.ToLower(directExt),
	}
}

func (r *Resolver) Strategies() []string {
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.Name()
	}
	return names
}

func (r *Resolver) Resolve(ctx context.Context, query string) (*ResolvedSource, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.Wrap(ErrNotFound, "empty query")
	}

	if r.directExt != "" && IsDirectURL(query, r.directExt) {
		return &ResolvedSource{
			Source:      SourceDirect,
			PageURL:     query,
			DownloadURL: query,
			Mode:        Stream,
			Title:       DirectFileName(query),
		}, nil
	}

	for _, s := range r.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		res, err := attempt(ctx, s, query)
		if r.Observer != nil {
			r.Observer(s.Name(), err)
		}
		if err != nil {
			logger.Debug("Strategy found nothing", "strategy", s.Name(), "query", query, "error", err, "duration", time.Since(start))
			continue
		}

		res.Source = s.Name()
		logger.InfoWithDuration("Source resolved", start, "strategy", s.Name(), "page", res.PageURL)
		return res, nil
	}

	return nil, errors.Wrapf(ErrNotFound, "no source has %q", query)
}

// attempt isolates one strategy: panics and empty results both count as
// not found.
func attempt(ctx context.Context, s Strategy, query string) (res *ResolvedSource, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = nil, errors.Wrap(ErrNotFound, fmt.Sprintf("%s panicked: %v", s.Name(), p))
		}
	}()

	res, err = s.Resolve(ctx, query)
	if err != nil {
		return nil, err
	}
	if res == nil || (res.DownloadURL == "" && len(res.Images) == 0) {
		return nil, errors.Wrapf(ErrNotFound, "%s returned no link", s.Name())
	}
	return res, nil
}

// IsDirectURL reports whether raw is an absolute http(s) URL whose path
// ends in ext.
func IsDirectURL(raw, ext string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), strings.ToLower(ext))
}

// DirectFileName is the last path element of raw, or "".
func DirectFileName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return ""
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}
	return name
}
