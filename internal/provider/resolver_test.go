package provider

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStrategy struct {
	name  string
	res   *ResolvedSource
	err   error
	panic bool
	calls int
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Resolve(context.Context, string) (*ResolvedSource, error) {
	f.calls++
	if f.panic {
		panic("selector exploded")
	}
	return f.res, f.err
}

func TestResolverFirstSuccessWins(t *testing.T) {
	a := &fakeStrategy{name: "a", err: ErrNotFound}
	b := &fakeStrategy{name: "b", err: errors.New("connection reset")}
	c := &fakeStrategy{name: "c", res: &ResolvedSource{DownloadURL: "https://c/x.apk"}}
	d := &fakeStrategy{name: "d", res: &ResolvedSource{DownloadURL: "https://d/x.apk"}}

	var attempts []string
	r := NewResolver(".apk", a, b, c, d)
	r.Observer = func(name string, err error) {
		attempts = append(attempts, name)
		if name != "c" {
			assert.Error(t, err, name)
		}
	}

	res, err := r.Resolve(context.Background(), "WhatsApp")

	require.NoError(t, err)
	assert.Equal(t, "c", res.Source)
	assert.Equal(t, "https://c/x.apk", res.DownloadURL)
	assert.Equal(t, []string{"a", "b", "c"}, attempts)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
	assert.Zero(t, d.calls)
}

func TestResolverPanicAndEmptyResultCountAsNotFound(t *testing.T) {
	a := &fakeStrategy{name: "a", panic: true}
	b := &fakeStrategy{name: "b", res: &ResolvedSource{PageURL: "https://b/page"}}
	c := &fakeStrategy{name: "c"}

	r := NewResolver(".apk", a, b, c)

	var res *ResolvedSource
	var err error
	require.NotPanics(t, func() { res, err = r.Resolve(context.Background(), "x") })

	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, 1, b.calls)
	assert.Equal(t, 1, c.calls)
}

func TestResolverDirectURLBypassesStrategies(t *testing.T) {
	a := &fakeStrategy{name: "a", res: &ResolvedSource{DownloadURL: "https://a/x.apk"}}
	r := NewResolver(".apk", a)

	res, err := r.Resolve(context.Background(), "https://cdn.example.com/files/Some%20App.APK?token=1")

	require.NoError(t, err)
	assert.Equal(t, SourceDirect, res.Source)
	assert.Equal(t, "https://cdn.example.com/files/Some%20App.APK?token=1", res.DownloadURL)
	assert.Equal(t, "Some App.APK", res.Title)
	assert.Zero(t, a.calls)
}

func TestResolverEmptyQuery(t *testing.T) {
	a := &fakeStrategy{name: "a"}
	_, err := NewResolver("").Resolve(context.Background(), "   ")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Zero(t, a.calls)
}

func TestResolverStopsOnCancelledContext(t *testing.T) {
	a := &fakeStrategy{name: "a"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewResolver("", a).Resolve(ctx, "x")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, a.calls)
}

func TestIsDirectURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://example.com/app.apk", true},
		{"http://example.com/a/b/APP.APK", true},
		{"https://example.com/app.apk?x=1", true},
		{"https://example.com/app.apk/details", false},
		{"ftp://example.com/app.apk", false},
		{"app.apk", false},
		{"WhatsApp", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsDirectURL(tt.in, ".apk"), tt.in)
	}
}

