package command

import (
	"context"

	"github.com/pavelc4/aether-fetch/internal/chat"
)

// Invocation is everything a handler gets to know about one command call.
type Invocation struct {
	Chat      string
	Sender    string
	MessageID string
	// Name is the word the user typed, which may be an alias.
	Name    string
	Prefix  string
	Args    []string
	Query   string
	Command *Command

	transport chat.Transport
}

func NewInvocation(t chat.Transport, in chat.Inbound, cmd *Command, name, prefix string, args []string) *Invocation {
	return &Invocation{
		Chat:      in.ChatID,
		Sender:    in.SenderID,
		MessageID: in.MessageID,
		Name:      name,
		Prefix:    prefix,
		Args:      args,
		Query:     joinArgs(args),
		Command:   cmd,
		transport: t,
	}
}

func (inv *Invocation) Reply(ctx context.Context, text string) error {
	return inv.transport.SendText(ctx, inv.Chat, inv.MessageID, text)
}

func (inv *Invocation) Send(ctx context.Context, a *chat.Attachment) error {
	return inv.transport.SendAttachment(ctx, inv.Chat, inv.MessageID, a)
}

func (inv *Invocation) React(ctx context.Context, emoji string) error {
	return inv.transport.React(ctx, inv.Chat, inv.MessageID, inv.Sender, emoji)
}

// Arg returns the i-th argument or "".
func (inv *Invocation) Arg(i int) string {
	if i < 0 || i >= len(inv.Args) {
		return ""
	}
	return inv.Args[i]
}

// UsageText renders the command usage with the active prefix.
func (inv *Invocation) UsageText() string {
	if inv.Command == nil || inv.Command.Usage == "" {
		return "Usage: " + inv.Prefix + inv.Name
	}
	return "Usage: " + inv.Prefix + inv.Name + " " + inv.Command.Usage
}
