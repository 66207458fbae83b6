package relay

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelc4/aether-fetch/internal/chat"
	"github.com/pavelc4/aether-fetch/internal/chat/chattest"
	"github.com/pavelc4/aether-fetch/internal/command"
	"github.com/pavelc4/aether-fetch/internal/fetch"
)

func invocation(tr chat.Transport) *command.Invocation {
	return command.NewInvocation(tr, chat.Inbound{ChatID: "c", MessageID: "m"}, nil, "apk", ".", nil)
}

func TestDeliverBuffer(t *testing.T) {
	tr := chattest.New()
	r := New(t.TempDir(), time.Minute)

	err := r.Deliver(context.Background(), invocation(tr), &fetch.Artifact{Data: []byte("apk!"), Size: 4, FileName: "WhatsApp.apk"}, chat.Document, "caption")

	require.NoError(t, err)
	sent := tr.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "WhatsApp.apk", sent[0].Attachment.FileName)
	assert.Equal(t, []byte("apk!"), sent[0].Attachment.Data)
	assert.Equal(t, "caption", sent[0].Attachment.Caption)
	assert.Equal(t, "m", sent[0].ReplyTo)
}

func TestDeliverFallsBackToTempFile(t *testing.T) {
	dir := t.TempDir()
	tr := chattest.New()
	tr.SendHook = func(a *chat.Attachment) error {
		if a.Data != nil {
			return errors.New("media upload rejected")
		}
		return nil
	}
	r := New(dir, 50*time.Millisecond)

	err := r.Deliver(context.Background(), invocation(tr), &fetch.Artifact{Data: []byte("apk!"), Size: 4, FileName: "Whats/App.apk"}, chat.Document, "")

	require.NoError(t, err)
	sent := tr.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(4), sent[0].Size)
	assert.Equal(t, dir, filepath.Dir(sent[0].Attachment.Path))
	assert.Contains(t, filepath.Base(sent[0].Attachment.Path), "Whats_App.apk")

	assert.Eventually(t, func() bool {
		_, err := os.Stat(sent[0].Attachment.Path)
		return os.IsNotExist(err)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestDeliverBothPathsFail(t *testing.T) {
	tr := chattest.New()
	tr.SendHook = func(*chat.Attachment) error { return errors.New("not allowed") }

	err := New(t.TempDir(), time.Millisecond).Deliver(context.Background(), invocation(tr), &fetch.Artifact{Data: []byte("x")}, chat.Document, "")

	assert.True(t, errors.Is(err, ErrDelivery))
	assert.Equal(t, MsgDelivery, UserMessage(err))
	assert.Empty(t, tr.Sent())
}

func TestDeliverPathRemovesTempArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("video"), 0o644))
	tr := chattest.New()

	err := New(t.TempDir(), time.Minute).Deliver(context.Background(), invocation(tr), &fetch.Artifact{Path: path, Size: 5, Temp: true}, chat.Video, "")

	require.NoError(t, err)
	require.Len(t, tr.Sent(), 1)
	assert.Equal(t, chat.Video, tr.Sent()[0].Attachment.Kind)
	assert.NoFileExists(t, path)
}

func TestSendURL(t *testing.T) {
	tr := chattest.New()
	err := New("", 0).SendURL(context.Background(), invocation(tr), "https://v/x.mp4", chat.Video, "x.mp4", "hi")

	require.NoError(t, err)
	assert.Equal(t, "https://v/x.mp4", tr.Sent()[0].Attachment.URL)
}
