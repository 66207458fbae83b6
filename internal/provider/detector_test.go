package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsYouTubeURL(t *testing.T) {
	valid := []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
		"https://youtube.com/shorts/abcdefGHIJ",
		"https://music.youtube.com/watch?v=dQw4w9WgXcQ&feature=share",
		"https://m.youtube.com/watch?v=dQw4w9WgXcQ",
	}
	invalid := []string{
		"https://www.youtube.com/channel/UC123",
		"https://youtu.be/",
		"https://notyoutube.com/watch?v=dQw4w9WgXcQ",
		"rick astley",
	}
	for _, u := range valid {
		assert.True(t, IsYouTubeURL(u), u)
	}
	for _, u := range invalid {
		assert.False(t, IsYouTubeURL(u), u)
	}
}

func TestTikTokURLs(t *testing.T) {
	assert.True(t, IsTikTokURL("https://www.tiktok.com/@user/video/123"))
	assert.True(t, IsTikTokURL("https://vt.tiktok.com/ZSabc/"))
	assert.False(t, IsTikTokURL("https://tiktok.com.evil.net/x"))
	assert.True(t, IsTikTokShortLink("https://vm.tiktok.com/ZSabc/"))
	assert.False(t, IsTikTokShortLink("https://www.tiktok.com/@user/video/123"))
}

func TestExtractURL(t *testing.T) {
	assert.Equal(t, "https://vt.tiktok.com/x", ExtractURL("look https://vt.tiktok.com/x now"))
	assert.Equal(t, "", ExtractURL("nothing here"))
}

func TestExpandShortLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/short" {
			http.Redirect(w, r, "/@user/video/42", http.StatusMovedPermanently)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	got := ExpandShortLink(context.Background(), testClient(), srv.URL+"/short")
	assert.Equal(t, srv.URL+"/@user/video/42", got)

	assert.Equal(t, "http://127.0.0.1:1/x", ExpandShortLink(context.Background(), testClient(), "http://127.0.0.1:1/x"))
}
