package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pavelc4/aether-fetch/internal/command"
	"github.com/pavelc4/aether-fetch/internal/stats"
	"github.com/pavelc4/aether-fetch/pkg/logger"
	"github.com/pavelc4/aether-fetch/pkg/utils"
)

type AdminHandler struct {
	stats   *stats.Stats
	ownerID string
}

func NewAdminHandler(st *stats.Stats, ownerID string) *AdminHandler {
	return &AdminHandler{stats: st, ownerID: ownerID}
}

func (h *AdminHandler) isOwner(sender string) bool {
	return h.ownerID == "" || sender == h.ownerID
}

// HandleStats answers only the owner. Anyone else gets no reply at all.
func (h *AdminHandler) HandleStats(ctx context.Context, inv *command.Invocation) error {
	if !h.isOwner(inv.Sender) {
		logger.Debug("Stats denied", "sender", inv.Sender)
		return nil
	}
	if h.stats == nil {
		return inv.Reply(ctx, "📊 Statistics are disabled.")
	}
	return inv.Reply(ctx, statsText(h.stats.SystemInfo(ctx), h.stats.Snapshot()))
}

func statsText(sys *stats.SystemInfo, snap stats.Snapshot) string {
	var b strings.Builder

	b.WriteString("🖥️ *SYSTEM*\n")
	fmt.Fprintf(&b, "OS: %s (%s)\n", sys.OS, sys.Hostname)
	fmt.Fprintf(&b, "Uptime: %s\n", utils.FormatUptime(uint64(sys.SystemUptime.Seconds())))
	fmt.Fprintf(&b, "CPU: %d cores, %.1f%% (load %.2f %.2f %.2f)\n", sys.CPUCores, sys.CPUUsage, sys.Load1, sys.Load5, sys.Load15)
	fmt.Fprintf(&b, "RAM: %s / %s (%.1f%%)\n", utils.FormatFileSize(int64(sys.MemUsed)), utils.FormatFileSize(int64(sys.MemTotal)), sys.MemPercent)
	fmt.Fprintf(&b, "Disk: %s / %s (%.1f%%)\n", utils.FormatFileSize(int64(sys.DiskUsed)), utils.FormatFileSize(int64(sys.DiskTotal)), sys.DiskPercent)
	fmt.Fprintf(&b, "Net: ↑ %s ↓ %s\n", utils.FormatFileSize(int64(sys.NetSent)), utils.FormatFileSize(int64(sys.NetRecv)))

	b.WriteString("\n⚙️ *PROCESS*\n")
	fmt.Fprintf(&b, "PID %d, CPU %.1f%%, RSS %s\n", sys.ProcessPID, sys.ProcessCPU, utils.FormatFileSize(int64(sys.ProcessMem)))
	fmt.Fprintf(&b, "%s, %d goroutines, heap %s, %d GC\n", sys.GoVersion, sys.Goroutines, utils.FormatFileSize(int64(sys.HeapAlloc)), sys.GCRuns)

	b.WriteString("\n📥 *DOWNLOADS*\n")
	fmt.Fprintf(&b, "Bot uptime: %s\n", utils.FormatUptime(uint64(snap.Uptime.Seconds())))
	fmt.Fprintf(&b, "Sent: %d, failed: %d, users: %d\n", snap.Success, snap.Failed, snap.UniqueUsers)
	fmt.Fprintf(&b, "Traffic: %s\n", utils.FormatFileSize(snap.Bytes))
	if !snap.LastDownload.IsZero() {
		fmt.Fprintf(&b, "Last: %s ago\n", utils.FormatClock(time.Since(snap.LastDownload)))
	}
	for _, s := range snap.Sources {
		fmt.Fprintf(&b, "• %s: %d\n", s.Source, s.Count)
	}
	return b.String()
}
