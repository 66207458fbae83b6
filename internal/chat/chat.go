// Package chat describes the narrow surface command plugins need from a
// messaging network: send text, send a file, react to a message.
package chat

import (
	"context"
	"path/filepath"
	"strings"
)

type Kind int

const (
	Document Kind = iota
	Video
	Audio
	Image
)

func (k Kind) String() string {
	switch k {
	case Video:
		return "video"
	case Audio:
		return "audio"
	case Image:
		return "image"
	default:
		return "document"
	}
}

// Attachment is referenced by exactly one of URL, Data or Path.
type Attachment struct {
	Kind     Kind
	URL      string
	Data     []byte
	Path     string
	FileName string
	MimeType string
	Caption  string
}

func (a *Attachment) Name() string {
	if a.FileName != "" {
		return a.FileName
	}
	if a.Path != "" {
		return filepath.Base(a.Path)
	}
	return "file"
}

// Mime returns the declared type or guesses one from the kind and name.
func (a *Attachment) Mime() string {
	if a.MimeType != "" {
		return a.MimeType
	}
	switch strings.ToLower(filepath.Ext(a.Name())) {
	case ".apk":
		return "application/vnd.android.package-archive"
	case ".mp4":
		return "video/mp4"
	case ".mp3":
		return "audio/mpeg"
	case ".m4a":
		return "audio/mp4"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	}
	switch a.Kind {
	case Video:
		return "video/mp4"
	case Audio:
		return "audio/mpeg"
	case Image:
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

// Inbound is a received text message, already flattened by the transport.
type Inbound struct {
	ChatID    string
	SenderID  string
	MessageID string
	Text      string
	FromMe    bool
}

type Transport interface {
	SendText(ctx context.Context, chatID, replyTo, text string) error
	SendAttachment(ctx context.Context, chatID, replyTo string, a *Attachment) error
	React(ctx context.Context, chatID, messageID, senderID, emoji string) error
}

// Handler consumes inbound messages. *command.Dispatcher is the usual one.
type Handler interface {
	Dispatch(ctx context.Context, in Inbound) bool
}
