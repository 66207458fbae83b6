package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxFileNameLength = 120

var (
	unsafeFileChars = regexp.MustCompile(`(?i)[^a-z0-9_\-. ]`)
	titleUnsafe     = regexp.MustCompile(`[\\/?%*:|"<>]`)
	spaceRun        = regexp.MustCompile(`\s+`)
)

// SanitizeFileName keeps ASCII letters, digits, '_', '-', '.', ' ' and
// replaces everything else with '_'.
func SanitizeFileName(name string) string {
	name = unsafeFileChars.ReplaceAllString(strings.TrimSpace(name), "_")
	if len(name) > maxFileNameLength {
		name = name[:maxFileNameLength]
	}
	if name == "" {
		return "file"
	}
	return name
}

// SanitizeTitle only strips path and shell separators, so non-latin titles
// survive.
func SanitizeTitle(title string, limit int) string {
	title = titleUnsafe.ReplaceAllString(strings.TrimSpace(title), "_")
	if r := []rune(title); limit > 0 && len(r) > limit {
		title = string(r[:limit])
	}
	if title == "" {
		return "media"
	}
	return title
}

// Underscored turns "Whats App" into "Whats_App".
func Underscored(s string) string {
	return spaceRun.ReplaceAllString(strings.TrimSpace(s), "_")
}

// UniqueName builds "<prefix>_<unix ms>_<random>" so concurrent invocations
// never collide on disk.
func UniqueName(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if prefix == "" {
		return fmt.Sprintf("%d_%s", time.Now().UnixMilli(), suffix)
	}
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), suffix)
}
