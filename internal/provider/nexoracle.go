package provider

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-faster/errors"

	"github.com/pavelc4/aether-fetch/config"
	httpx "github.com/pavelc4/aether-fetch/pkg/http"
)

// NexOracle queries a JSON APK API. The payload shape has changed over time,
// so every field is looked up under several names.
type NexOracle struct {
	client *http.Client

	Endpoint string
	APIKey   string
}

func NewNexOracle(client *http.Client, endpoint, apiKey string) *NexOracle {
	if endpoint == "" {
		endpoint = config.DefaultNexOracleAPI
	}
	if apiKey == "" {
		apiKey = config.DefaultNexOracleKey
	}
	return &NexOracle{client: client, Endpoint: endpoint, APIKey: apiKey}
}

func (n *NexOracle) Name() string {
	return "nexoracle"
}

func (n *NexOracle) Resolve(ctx context.Context, query string) (*ResolvedSource, error) {
	ctx, cancel := context.WithTimeout(ctx, config.APITimeout)
	defer cancel()

	params := url.Values{}
	params.Set("apikey", n.APIKey)
	params.Set("q", query)

	var body map[string]any
	if err := httpx.GetJSON(ctx, n.client, n.Endpoint+"?"+params.Encode(), &body); err != nil {
		return nil, err
	}

	result := nexResult(body)
	if result == nil {
		return nil, errors.Wrap(ErrNotFound, "no result in api response")
	}

	link := pickString(result, "dllink", "download", "download_link", "link")
	if link == "" {
		if list, ok := result["downloads"].([]any); ok && len(list) > 0 {
			link = asString(list[0])
		}
	}
	if link == "" {
		return nil, errors.Wrap(ErrNotFound, "no download link in result")
	}

	title := pickString(result, "name", "title")
	if title == "" {
		title = query
	}

	return &ResolvedSource{
		PageURL:     n.Endpoint,
		DownloadURL: link,
		Mode:        Buffer,
		Title:       title,
		Updated:     orDefault(pickString(result, "lastup", "updated_at", "last_update"), "Unknown"),
		Package:     orDefault(pickString(result, "package", "pkg", "package_name"), "unknown"),
		Size:        orDefault(pickString(result, "size", "file_size"), "unknown"),
		Thumbnail:   pickString(result, "icon", "thumbnail"),
	}, nil
}

func nexResult(body map[string]any) map[string]any {
	if r, ok := body["result"].(map[string]any); ok {
		return r
	}
	if data, ok := body["data"].(map[string]any); ok {
		if r, ok := data["result"].(map[string]any); ok {
			return r
		}
	}
	return nil
}

func pickString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := asString(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]any:
		// {"url": "..."} style download entries
		return pickString(t, "url", "link")
	default:
		return ""
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
