package provider

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/pavelc4/aether-fetch/config"
)

var (
	urlRegex       = regexp.MustCompile(`https?://[^\s]+`)
	youtubeIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{6,}$`)
)

func ExtractURL(text string) string {
	return urlRegex.FindString(text)
}

func hostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func IsTikTokURL(raw string) bool {
	host := hostOf(raw)
	return host == "tiktok.com" || strings.HasSuffix(host, ".tiktok.com")
}

// IsTikTokShortLink matches the vt./vm. redirectors.
func IsTikTokShortLink(raw string) bool {
	host := hostOf(raw)
	return host == "vt.tiktok.com" || host == "vm.tiktok.com"
}

// IsYouTubeURL accepts watch, shorts, youtu.be and music.youtube.com links.
func IsYouTubeURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	switch hostOf(raw) {
	case "youtu.be":
		return youtubeIDRegex.MatchString(strings.Trim(u.Path, "/"))
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if u.Path == "/watch" {
			return youtubeIDRegex.MatchString(u.Query().Get("v"))
		}
		if rest, ok := strings.CutPrefix(u.Path, "/shorts/"); ok {
			return youtubeIDRegex.MatchString(strings.Trim(rest, "/"))
		}
	}
	return false
}

// ExpandShortLink follows redirects and returns the final URL. On any
// failure the input comes back unchanged.
func ExpandShortLink(ctx context.Context, client *http.Client, raw string) string {
	ctx, cancel := context.WithTimeout(ctx, config.APITimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return raw
	}
	resp, err := client.Do(req)
	if err != nil {
		return raw
	}
	resp.Body.Close()

	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return raw
}
