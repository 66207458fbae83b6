// Package relay hands fetched artifacts to the chat.
package relay

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/go-faster/errors"

	"github.com/pavelc4/aether-fetch/internal/chat"
	"github.com/pavelc4/aether-fetch/internal/fetch"
	"github.com/pavelc4/aether-fetch/pkg/logger"
	"github.com/pavelc4/aether-fetch/pkg/utils"
)

var ErrDelivery = errors.New("could not send file")

// Sender is the per-invocation send helper, usually a *command.Invocation.
type Sender interface {
	Send(ctx context.Context, a *chat.Attachment) error
}

type Relay struct {
	tempDir string
	ttl     time.Duration
}

// New returns a relay that spills failed buffer sends into tempDir and
// removes those files ttl after sending.
func New(tempDir string, ttl time.Duration) *Relay {
	return &Relay{tempDir: tempDir, ttl: ttl}
}

// SendURL delivers a remote file by reference. The transport fetches it.
func (r *Relay) SendURL(ctx context.Context, s Sender, url string, kind chat.Kind, fileName, caption string) error {
	err := s.Send(ctx, &chat.Attachment{Kind: kind, URL: url, FileName: fileName, Caption: caption})
	if err != nil {
		return errors.Wrapf(ErrDelivery, "by url: %v", err)
	}
	return nil
}

// Deliver sends a. Buffered artifacts that the transport rejects are written
// to a temp file and sent again from disk. Temp artifacts are removed once
// delivery finished, successful or not.
func (r *Relay) Deliver(ctx context.Context, s Sender, a *fetch.Artifact, kind chat.Kind, caption string) error {
	if a == nil {
		return errors.Wrap(ErrDelivery, "nothing to send")
	}

	att := &chat.Attachment{
		Kind:     kind,
		FileName: a.FileName,
		MimeType: a.MimeType,
		Caption:  caption,
	}

	if a.Path != "" {
		defer a.Remove()
		att.Path = a.Path
		if err := s.Send(ctx, att); err != nil {
			return errors.Wrapf(ErrDelivery, "from disk: %v", err)
		}
		return nil
	}

	att.Data = a.Data
	err := s.Send(ctx, att)
	if err == nil {
		return nil
	}
	logger.Warn("Buffer send failed, falling back to temp file", "file", a.FileName, "size", a.Size, "error", err)

	path, werr := r.spill(a)
	if werr != nil {
		return errors.Wrapf(ErrDelivery, "spill: %v (send: %v)", werr, err)
	}
	utils.RemoveLater(path, r.ttl)

	att.Data = nil
	att.Path = path
	if err := s.Send(ctx, att); err != nil {
		return errors.Wrapf(ErrDelivery, "from temp file: %v", err)
	}
	return nil
}

func (r *Relay) spill(a *fetch.Artifact) (string, error) {
	if err := os.MkdirAll(r.tempDir, 0o755); err != nil {
		return "", err
	}
	name := "aether-relay-" + utils.UniqueName("") + "_" + utils.SanitizeFileName(nameOf(a))
	path := filepath.Join(r.tempDir, name)
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func nameOf(a *fetch.Artifact) string {
	if a.FileName != "" {
		return a.FileName
	}
	return "file"
}
