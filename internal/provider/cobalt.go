package provider

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"

	"github.com/pavelc4/aether-fetch/config"
	httpx "github.com/pavelc4/aether-fetch/pkg/http"
)

// Cobalt talks to a self-hosted cobalt instance.
type Cobalt struct {
	client *http.Client

	Endpoint string
	APIKey   string
}

func NewCobalt(client *http.Client, endpoint, apiKey string) *Cobalt {
	return &Cobalt{client: client, Endpoint: endpoint, APIKey: apiKey}
}

func (cp *Cobalt) Name() string {
	return "cobalt"
}

type cobaltAPIResponse struct {
	Status   string       `json:"status"`
	URL      string       `json:"url"`
	Filename string       `json:"filename"`
	Picker   []cobaltItem `json:"picker"`
	Error    cobaltError  `json:"error"`
}

type cobaltItem struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

type cobaltError struct {
	Code string `json:"code"`
}

func (cp *Cobalt) Resolve(ctx context.Context, mediaURL string) (*ResolvedSource, error) {
	if cp.Endpoint == "" {
		return nil, errors.Wrap(ErrNotFound, "cobalt not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, config.SearchTimeout)
	defer cancel()

	headers := map[string]string{}
	if cp.APIKey != "" {
		headers["Authorization"] = "Api-Key " + cp.APIKey
	}

	var resp cobaltAPIResponse
	err := httpx.PostJSON(ctx, cp.client, cp.Endpoint, map[string]any{
		"url":          mediaURL,
		"downloadMode": "auto",
		"videoQuality": "max",
	}, headers, &resp)
	if err != nil {
		return nil, err
	}

	res := &ResolvedSource{
		PageURL: mediaURL,
		Mode:    Stream,
		Title:   strings.TrimSuffix(resp.Filename, filepath.Ext(resp.Filename)),
		Quality: "max",
	}

	switch resp.Status {
	case "tunnel", "redirect":
		res.DownloadURL = resp.URL
	case "picker":
		for _, item := range resp.Picker {
			if item.URL == "" {
				continue
			}
			if item.Type == "video" && res.DownloadURL == "" {
				res.DownloadURL = item.URL
				continue
			}
			if item.Type == "photo" {
				res.Images = append(res.Images, item.URL)
			}
		}
		if res.DownloadURL != "" {
			res.Images = nil
		}
	case "error":
		return nil, errors.Wrapf(ErrNotFound, "cobalt: %s", resp.Error.Code)
	default:
		return nil, errors.Errorf("unknown cobalt status %q", resp.Status)
	}

	if res.DownloadURL == "" && len(res.Images) == 0 {
		return nil, errors.Wrap(ErrNotFound, "cobalt returned no media")
	}
	return res, nil
}
