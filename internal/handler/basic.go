package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pavelc4/aether-fetch/internal/command"
)

type BasicHandler struct {
	reg *command.Registry
}

func NewBasicHandler(reg *command.Registry) *BasicHandler {
	return &BasicHandler{reg: reg}
}

func (h *BasicHandler) HandleMenu(ctx context.Context, inv *command.Invocation) error {
	return inv.Reply(ctx, menuText(h.reg.List(), inv.Prefix))
}

// menuText groups commands by category. List is already sorted.
func menuText(cmds []*command.Command, prefix string) string {
	var b strings.Builder
	b.WriteString("🤖 *AETHER FETCH* 🤖\n")

	category := ""
	for _, c := range cmds {
		if c.Category != category {
			category = c.Category
			name := category
			if name == "" {
				name = "misc"
			}
			fmt.Fprintf(&b, "\n*%s*\n", strings.ToUpper(name))
		}
		fmt.Fprintf(&b, "• %s%s", prefix, c.Name)
		if c.Usage != "" {
			fmt.Fprintf(&b, " %s", c.Usage)
		}
		if c.Description != "" {
			fmt.Fprintf(&b, " - %s", c.Description)
		}
		b.WriteByte('\n')
		if len(c.Aliases) > 0 {
			fmt.Fprintf(&b, "   ↳ %s%s\n", prefix, strings.Join(c.Aliases, ", "+prefix))
		}
	}
	return b.String()
}

func (h *BasicHandler) HandlePing(ctx context.Context, inv *command.Invocation) error {
	start := time.Now()
	if err := inv.Reply(ctx, "🏓 Pong!"); err != nil {
		return err
	}
	return inv.Reply(ctx, fmt.Sprintf("⚡ *Latency:* %dms", time.Since(start).Milliseconds()))
}
