package utils

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pavelc4/aether-fetch/pkg/logger"
)

// TempFilePatterns contains all temporary file patterns used by the bot
var TempFilePatterns = []string{
	"aether-ytdlp-*",
	"aether-relay-*",
	"*.apk.part",
	"apk_*",
	"tiktok_*",
}

// RemoveLater deletes path once delay has passed. The returned timer can be
// stopped to keep the file.
func RemoveLater(path string, delay time.Duration) *time.Timer {
	return time.AfterFunc(delay, func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("Failed to remove temp file", "path", path, "error", err)
			return
		}
		logger.Debug("Removed temp file", "path", path)
	})
}

// CleanupTempFiles removes each path, ignoring missing ones.
func CleanupTempFiles(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			logger.Warn("Failed to cleanup temp path", "path", path, "error", err)
		}
	}
}

// CleanupTempFilesByPattern removes entries in dir matching patterns that are
// older than maxAge. A zero maxAge removes every match.
func CleanupTempFilesByPattern(ctx context.Context, dir string, patterns []string, maxAge time.Duration) int {
	cleaned := 0
	now := time.Now()

	for _, pattern := range patterns {
		if ctx.Err() != nil {
			logger.Warn("Cleanup cancelled", "cleaned", cleaned)
			return cleaned
		}

		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			logger.Warn("Bad cleanup pattern", "pattern", pattern, "error", err)
			continue
		}

		for _, path := range matches {
			if ctx.Err() != nil {
				logger.Warn("Cleanup cancelled", "cleaned", cleaned)
				return cleaned
			}

			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if maxAge > 0 && now.Sub(info.ModTime()) < maxAge {
				continue
			}
			if err := os.RemoveAll(path); err != nil {
				logger.Warn("Failed to remove", "path", path, "error", err)
				continue
			}
			cleaned++
		}
	}

	if cleaned > 0 {
		logger.Info("Temp files cleaned", "dir", dir, "count", cleaned)
	}
	return cleaned
}

// RunJanitor cleans dir at start and then every interval until ctx is done.
func RunJanitor(ctx context.Context, dir string, interval, maxAge time.Duration) error {
	CleanupTempFilesByPattern(ctx, dir, TempFilePatterns, maxAge)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			CleanupTempFilesByPattern(ctx, dir, TempFilePatterns, maxAge)
		}
	}
}
