package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/pavelc4/aether-fetch/internal/chat"
	"github.com/pavelc4/aether-fetch/internal/middleware"
	"github.com/pavelc4/aether-fetch/pkg/logger"
)

// ErrUsage makes the dispatcher answer with the command's usage line.
var ErrUsage = errors.New("invalid usage")

type usageError struct {
	hint string
}

func (e *usageError) Error() string        { return e.hint }
func (e *usageError) Is(target error) bool { return target == ErrUsage }

// Usagef reports bad user input. The chat sees the hint followed by the
// usage line; no network call should have been made.
func Usagef(format string, args ...any) error {
	return &usageError{hint: fmt.Sprintf(format, args...)}
}

type Dispatcher struct {
	registry  *Registry
	transport chat.Transport
	prefix    string

	// Timeout bounds one invocation. Zero means no bound beyond what
	// handlers set themselves.
	Timeout time.Duration
	// ErrorText turns a handler error into the single message the chat
	// sees. Returning "" suppresses the message.
	ErrorText func(error) string
}

func NewDispatcher(reg *Registry, t chat.Transport, prefix string) *Dispatcher {
	return &Dispatcher{
		registry:  reg,
		transport: t,
		prefix:    prefix,
		ErrorText: DefaultErrorText,
	}
}

func DefaultErrorText(err error) string {
	return "❌ " + err.Error()
}

// Parse splits "<prefix>name arg1 arg2" into its parts. ok is false when
// text does not carry the prefix or names nothing. A Telegram style
// "@botname" suffix on the command word is dropped.
func Parse(prefix, text string) (name string, args []string, ok bool) {
	text = strings.TrimSpace(text)
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return "", nil, false
	}

	fields := strings.Fields(strings.TrimPrefix(text, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}

	name = strings.ToLower(fields[0])
	if i := strings.IndexByte(name, '@'); i > 0 {
		name = name[:i]
	}
	return name, fields[1:], true
}

// Dispatch runs the command named by in.Text. It reports whether a command
// matched. Handler failures never escape: they are logged and answered with
// one chat message.
func (d *Dispatcher) Dispatch(ctx context.Context, in chat.Inbound) bool {
	if in.FromMe || strings.TrimSpace(in.Text) == "" {
		return false
	}

	name, args, ok := Parse(d.prefix, in.Text)
	if !ok {
		return false
	}

	cmd, found := d.registry.Lookup(name)
	if !found {
		logger.Debug("Unknown command", "name", name, "chat", in.ChatID)
		return false
	}

	inv := NewInvocation(d.transport, in, cmd, name, d.prefix, args)
	logger.Info("Command received", "command", cmd.Name, "chat", in.ChatID, "sender", in.SenderID, "args", len(args))

	if cmd.React != "" {
		if err := inv.React(ctx, cmd.React); err != nil {
			logger.Debug("React failed", "command", cmd.Name, "error", err)
		}
	}

	run := middleware.Chain(
		func(ctx context.Context) error { return cmd.Handler(ctx, inv) },
		middleware.Logger(cmd.Name),
		middleware.Recover,
		middleware.Timeout(d.Timeout),
	)

	if err := run(ctx); err != nil {
		d.reportError(ctx, inv, err)
	}
	return true
}

func (d *Dispatcher) reportError(ctx context.Context, inv *Invocation, err error) {
	var text string
	switch {
	case errors.Is(err, ErrUsage):
		text = inv.UsageText()
		var ue *usageError
		if errors.As(err, &ue) && ue.hint != "" {
			text = ue.hint + "\n" + text
		}
	case d.ErrorText != nil:
		text = d.ErrorText(err)
	default:
		text = DefaultErrorText(err)
	}
	if text == "" {
		return
	}

	// The invocation context may be the one that expired.
	replyCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		replyCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
	}
	if rerr := inv.Reply(replyCtx, text); rerr != nil {
		logger.Error("Failed to send error reply", "command", inv.Command.Name, "error", rerr)
	}
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
