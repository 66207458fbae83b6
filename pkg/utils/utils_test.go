package utils

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.50 KB", FormatFileSize(1536))
	assert.Equal(t, "2.00 MB", FormatFileSize(2*1024*1024))
	assert.Equal(t, "1.00 GB", FormatFileSize(1024*1024*1024))
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "03:25", FormatClock(205*time.Second))
	assert.Equal(t, "01:00:05", FormatClock(time.Hour+5*time.Second))
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "999", FormatCount(999))
	assert.Equal(t, "1.2K", FormatCount(1234))
	assert.Equal(t, "5.3M", FormatCount(5_300_000))
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"WhatsApp Messenger", "WhatsApp Messenger"},
		{"a/b\\c:d?.apk", "a_b_c_d_.apk"},
		{"Télégram", "T_l_gram"},
		{"   ", "file"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFileName(tt.in), tt.in)
	}

	long := SanitizeFileName(strings.Repeat("x", 300))
	assert.Len(t, long, 120)
}

func TestSanitizeTitleKeepsUnicode(t *testing.T) {
	assert.Equal(t, "Песня_ 1", SanitizeTitle("Песня: 1", 0))
	assert.Equal(t, "abc", SanitizeTitle("abcdef", 3))
	assert.Equal(t, "media", SanitizeTitle("", 10))
}

func TestUnderscored(t *testing.T) {
	assert.Equal(t, "Whats_App", Underscored(" Whats   App "))
}

func TestUniqueNameDoesNotCollide(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		name := UniqueName("aether-relay")
		require.True(t, strings.HasPrefix(name, "aether-relay_"))
		_, dup := seen[name]
		require.False(t, dup)
		seen[name] = struct{}{}
	}
}

func TestCleanupTempFilesByPatternHonoursAge(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "aether-relay-old")
	fresh := filepath.Join(dir, "aether-relay-new")
	other := filepath.Join(dir, "keep.txt")
	for _, p := range []string{stale, fresh, other} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	n := CleanupTempFilesByPattern(context.Background(), dir, TempFilePatterns, time.Hour)

	assert.Equal(t, 1, n)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
	assert.FileExists(t, other)
}

func TestRemoveLater(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	RemoveLater(path, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return os.IsNotExist(err)
	}, time.Second, 10*time.Millisecond)
}
