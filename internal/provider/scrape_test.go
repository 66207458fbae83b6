package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpx "github.com/pavelc4/aether-fetch/pkg/http"
)

// siteServer serves canned HTML by path and counts hits per path.
type siteServer struct {
	*httptest.Server
	mu    sync.Mutex
	pages map[string]string
	hits  map[string]int
}

func newSiteServer(t *testing.T, pages map[string]string) *siteServer {
	t.Helper()
	s := &siteServer{pages: pages, hits: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.mu.Unlock()

		body, ok := s.pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, strings.ReplaceAll(body, "{{base}}", s.URL))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *siteServer) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func testClient() *http.Client {
	return httpx.NewClient("test-agent", httpx.DefaultTimeout)
}

func TestSiteFallsThroughToSecondMirror(t *testing.T) {
	pure := newSiteServer(t, map[string]string{
		"/search": `<html><body><p>No results</p></body></html>`,
	})
	combo := newSiteServer(t, map[string]string{
		"/en/search/": `<div class="search-list"><a href="/whatsapp/com.whatsapp/">WhatsApp</a></div>`,
		"/whatsapp/com.whatsapp/": `<h1>WhatsApp Messenger</h1>
			<a class="btn-download" href="/whatsapp/com.whatsapp/download/apk">Download</a>
			<a href="/dl/whatsapp.apk">Direct</a>`,
	})

	apkpure := APKPure(testClient())
	apkpure.BaseURL = pure.URL
	apkcombo := APKCombo(testClient())
	apkcombo.BaseURL = combo.URL

	var outcomes []string
	r := NewResolver(".apk", apkpure, apkcombo)
	r.Observer = func(name string, err error) {
		outcomes = append(outcomes, fmt.Sprintf("%s:%v", name, errors.Is(err, ErrNotFound)))
	}

	res, err := r.Resolve(context.Background(), "WhatsApp")

	require.NoError(t, err)
	assert.Equal(t, []string{"apkpure:true", "apkcombo:false"}, outcomes)
	assert.Equal(t, "apkcombo", res.Source)
	assert.Equal(t, combo.URL+"/whatsapp/com.whatsapp/", res.PageURL)
	assert.Equal(t, combo.URL+"/dl/whatsapp.apk", res.DownloadURL)
	assert.Equal(t, "WhatsApp Messenger", res.Title)
	assert.Equal(t, 1, pure.Hits("/search"))
}

func TestSiteFollowsHopsAndFallsBackToPatterns(t *testing.T) {
	srv := newSiteServer(t, map[string]string{
		"/search": `<nav><a href="/">home</a></nav><a href="/signal/org.thoughtcrime.securesms">Signal</a>`,
		"/signal/org.thoughtcrime.securesms": `<h1>Signal</h1><a class="da" href="/signal/org.thoughtcrime.securesms/download?from=details">Get</a>`,
		"/signal/org.thoughtcrime.securesms/download": `<script>var u = "https://download.apkpure.com/b/APK/b3JnLnRob3VnaHQ?versionCode=1";</script>`,
	})

	site := APKPure(testClient())
	site.BaseURL = srv.URL

	res, err := site.Resolve(context.Background(), "signal")

	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/signal/org.thoughtcrime.securesms", res.PageURL)
	assert.Equal(t, "https://download.apkpure.com/b/APK/b3JnLnRob3VnaHQ?versionCode=1", res.DownloadURL)
	assert.Equal(t, "Signal", res.Title)
}

func TestSiteExtractionOrder(t *testing.T) {
	page := `<script>var u = "https://download.apkpure.com/b/APK/script"; var c = "https://apkcombo.com/d/script.apk";</script>
		<a id="download_link" href="https://download.apkpure.com/b/APK/anchor">Download</a>
		<a class="btn-download" href="/dl/anchor.apk">Download</a>`
	doc := mustDoc(t, page)

	assert.Equal(t, "https://download.apkpure.com/b/APK/script", APKPure(testClient()).extract(doc, []byte(page)))
	assert.Equal(t, "/dl/anchor.apk", APKCombo(testClient()).extract(doc, []byte(page)))

	noScript := `<a id="download_link" href="https://download.apkpure.com/b/APK/anchor">Download</a>`
	assert.Equal(t, "https://download.apkpure.com/b/APK/anchor", APKPure(testClient()).extract(mustDoc(t, noScript), []byte(noScript)))
}

func TestSiteResultPageWithoutLinkIsNotFound(t *testing.T) {
	srv := newSiteServer(t, map[string]string{
		"/en/search/": `<a class="item-title" href="/app/id/">App</a>`,
		"/app/id/":    `<h1>App</h1><p>Region locked</p>`,
	})

	site := APKCombo(testClient())
	site.BaseURL = srv.URL

	var (
		res *ResolvedSource
		err error
	)
	require.NotPanics(t, func() { res, err = site.Resolve(context.Background(), "app") })

	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, 1, srv.Hits("/app/id/"))
}

func TestSiteSearchHTTPErrorIsReported(t *testing.T) {
	srv := newSiteServer(t, map[string]string{})
	site := APKPure(testClient())
	site.BaseURL = srv.URL

	_, err := site.Resolve(context.Background(), "x")

	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httpx.StatusCode(err))
}

func TestFirstDeepAnchor(t *testing.T) {
	doc := mustDoc(t, `<a href="/">root</a><a href="//cdn.x/y/z">cdn</a><a href="/top">top</a><a href="/a/b">deep</a>`)
	assert.Equal(t, "/a/b", FirstDeepAnchor(doc))

	assert.Equal(t, "", FirstDeepAnchor(mustDoc(t, `<a href="/only">x</a>`)))
}

func TestFirstHrefSkipsEmpty(t *testing.T) {
	doc := mustDoc(t, `<a class="dd" href="">empty</a><a class="dd" href="/x/y">ok</a>`)
	assert.Equal(t, "/x/y", FirstHref(doc, "a.missing", "a.dd"))
}

func TestAbsolutize(t *testing.T) {
	tests := []struct {
		base, href, want string
	}{
		{"https://apkpure.com/a/b", "/dl/x", "https://apkpure.com/dl/x"},
		{"https://apkpure.com", "//download.apkpure.com/b/x", "https://download.apkpure.com/b/x"},
		{"", "//download.apkpure.com/b/x", "https://download.apkpure.com/b/x"},
		{"https://apkcombo.com/x/", "https://other/y", "https://other/y"},
		{"https://apkcombo.com/x/", "dl", "https://apkcombo.com/x/dl"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Absolutize(tt.base, tt.href), tt.href)
	}
}

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewBufferString(html))
	require.NoError(t, err)
	return doc
}
