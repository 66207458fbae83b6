package provider

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-faster/errors"

	"github.com/pavelc4/aether-fetch/config"
	httpx "github.com/pavelc4/aether-fetch/pkg/http"
)

const maxPageSize = 8 << 20

// Site scrapes an APK mirror: search page, item page, optional
// intermediate pages, then the download link.
type Site struct {
	name   string
	client *http.Client

	BaseURL string
	// SearchPath is appended to BaseURL followed by the escaped query.
	SearchPath string
	// Results select the first hit on the search page. When none match, the
	// first anchor with a path of two or more segments is used.
	Results []string
	// Hops are followed in order from the item page, one selector list per
	// page, before link extraction.
	Hops [][]string
	// Links select the download anchor. Patterns run over the raw page
	// text when no selector matches, or before the selectors when
	// PatternsFirst is set.
	Links         []string
	Patterns      []*regexp.Regexp
	PatternsFirst bool
}

func APKPure(client *http.Client) *Site {
	return &Site{
		name:       "apkpure",
		client:     client,
		BaseURL:    "https://apkpure.com",
		SearchPath: "/search?q=",
		Results:    []string{"a.dd", "div.search-dl a"},
		Hops:       [][]string{{"a.da", `a[href*="/download?"]`}},
		Links:      []string{"a#download_link", `a[href*="download.apkpure.com"]`},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`https?://download\.apkpure\.com/b/[^"'\s<>]+`),
			regexp.MustCompile(`https?://r\d+\.apkpure\.com/[^"'\s<>]+`),
		},
		PatternsFirst: true,
	}
}

func APKCombo(client *http.Client) *Site {
	return &Site{
		name:       "apkcombo",
		client:     client,
		BaseURL:    "https://apkcombo.com",
		SearchPath: "/en/search/?s=",
		Results:    []string{".search-list a", "a.item-title"},
		Links:      []string{`a[href*="/dl/"]`, "a.btn-download"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`https?://[^"'\s<>]*apkcombo[^"'\s<>]*\.apk[^"'\s<>]*`),
		},
	}
}

func (s *Site) Name() string {
	return s.name
}

func (s *Site) Resolve(ctx context.Context, query string) (*ResolvedSource, error) {
	ctx, cancel := context.WithTimeout(ctx, config.SearchTimeout)
	defer cancel()

	searchURL := strings.TrimRight(s.BaseURL, "/") + s.SearchPath + url.QueryEscape(query)
	doc, _, err := s.load(ctx, searchURL)
	if err != nil {
		return nil, errors.Wrap(err, "search")
	}

	item := FirstHref(doc, s.Results...)
	if item == "" {
		item = FirstDeepAnchor(doc)
	}
	if item == "" {
		return nil, errors.Wrap(ErrNotFound, "no search result")
	}
	pageURL := Absolutize(s.BaseURL, item)

	doc, raw, err := s.load(ctx, pageURL)
	if err != nil {
		return nil, errors.Wrap(err, "item page")
	}
	title := strings.TrimSpace(doc.Find("h1").First().Text())

	current := pageURL
	for _, hop := range s.Hops {
		next := FirstHref(doc, hop...)
		if next == "" {
			return nil, errors.Wrap(ErrNotFound, "no download page")
		}
		current = Absolutize(current, next)
		if doc, raw, err = s.load(ctx, current); err != nil {
			return nil, errors.Wrap(err, "download page")
		}
	}

	link := s.extract(doc, raw)
	if link == "" {
		return nil, errors.Wrap(ErrNotFound, "no download link")
	}

	return &ResolvedSource{
		PageURL:     pageURL,
		DownloadURL: Absolutize(current, link),
		Mode:        Stream,
		Title:       title,
	}, nil
}

func (s *Site) extract(doc *goquery.Document, raw []byte) string {
	if s.PatternsFirst {
		if link := FirstMatch(raw, s.Patterns...); link != "" {
			return link
		}
		return FirstHref(doc, s.Links...)
	}
	if link := FirstHref(doc, s.Links...); link != "" {
		return link
	}
	return FirstMatch(raw, s.Patterns...)
}

func (s *Site) load(ctx context.Context, pageURL string) (*goquery.Document, []byte, error) {
	raw, err := httpx.GetBody(ctx, s.client, pageURL, maxPageSize)
	if err != nil {
		return nil, nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, errors.Wrap(err, "parse html")
	}
	return doc, raw, nil
}

// FirstHref returns the href of the first element matched by the first
// selector that matches anything.
func FirstHref(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		var href string
		doc.Find(sel).EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href = strings.TrimSpace(a.AttrOr("href", ""))
			return href == ""
		})
		if href != "" {
			return href
		}
	}
	return ""
}

// FirstDeepAnchor finds the first site-relative anchor with at least two
// path segments, e.g. "/whatsapp/com.whatsapp".
func FirstDeepAnchor(doc *goquery.Document) string {
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//") && len(strings.Split(href, "/")) > 2 {
			found = href
			return false
		}
		return true
	})
	return found
}

func FirstMatch(raw []byte, patterns ...*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.Find(raw); m != nil {
			return string(m)
		}
	}
	return ""
}

// Absolutize resolves href against base. Protocol-relative links take the
// base scheme, or https when base has none.
func Absolutize(base, href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}

	b, err := url.Parse(base)
	if err != nil || b.Scheme == "" {
		if strings.HasPrefix(href, "//") {
			return "https:" + href
		}
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}
