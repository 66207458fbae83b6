// Package chattest provides an in-memory chat.Transport for tests.
package chattest

import (
	"context"
	"os"
	"sync"

	"github.com/pavelc4/aether-fetch/internal/chat"
)

type Text struct {
	ChatID  string
	ReplyTo string
	Text    string
}

type Sent struct {
	ChatID     string
	ReplyTo    string
	Attachment chat.Attachment
	// Size is the number of bytes the transport could read, whichever way
	// the attachment was referenced.
	Size int64
}

type Reaction struct {
	ChatID    string
	MessageID string
	Emoji     string
}

// Transport records everything it is asked to send. SendHook, when set,
// decides whether an attachment send fails.
type Transport struct {
	mu        sync.Mutex
	texts     []Text
	sent      []Sent
	reactions []Reaction

	SendHook func(a *chat.Attachment) error
}

func New() *Transport {
	return &Transport{}
}

func (t *Transport) SendText(_ context.Context, chatID, replyTo, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.texts = append(t.texts, Text{ChatID: chatID, ReplyTo: replyTo, Text: text})
	return nil
}

func (t *Transport) SendAttachment(_ context.Context, chatID, replyTo string, a *chat.Attachment) error {
	if t.SendHook != nil {
		if err := t.SendHook(a); err != nil {
			return err
		}
	}

	size := int64(len(a.Data))
	if a.Path != "" {
		info, err := os.Stat(a.Path)
		if err != nil {
			return err
		}
		size = info.Size()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, Sent{ChatID: chatID, ReplyTo: replyTo, Attachment: *a, Size: size})
	return nil
}

func (t *Transport) React(_ context.Context, chatID, messageID, _, emoji string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reactions = append(t.reactions, Reaction{ChatID: chatID, MessageID: messageID, Emoji: emoji})
	return nil
}

func (t *Transport) Texts() []Text {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Text(nil), t.texts...)
}

func (t *Transport) Sent() []Sent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Sent(nil), t.sent...)
}

func (t *Transport) Reactions() []Reaction {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Reaction(nil), t.reactions...)
}

// LastText returns the most recent text message or "".
func (t *Transport) LastText() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.texts) == 0 {
		return ""
	}
	return t.texts[len(t.texts)-1].Text
}
