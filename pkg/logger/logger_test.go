package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestPrettyHandlerWritesAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, slog.LevelInfo, "15:04"))

	log.With("source", "apkpure").Info("strategy finished", "found", true)

	out := buf.String()
	assert.Contains(t, out, "[AETHER]")
	assert.Contains(t, out, "strategy finished")
	assert.Contains(t, out, "source"+Reset+"=apkpure")
	assert.Contains(t, out, "found"+Reset+"=true")
}

func TestPrettyHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, slog.LevelWarn, ""))

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestZapFollowsLevel(t *testing.T) {
	SetLevel("info")
	log := Zap("gotd")
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))

	SetLevel("debug")
	defer SetLevel("info")
	assert.True(t, Zap("gotd").Core().Enabled(zapcore.DebugLevel))
}
