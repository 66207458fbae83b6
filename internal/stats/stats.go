package stats

import (
	"context"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

// Stats counts deliveries since process start. Safe for concurrent use.
type Stats struct {
	mu        sync.RWMutex
	startTime time.Time

	success int64
	failed  int64
	bytes   int64
	users   map[string]struct{}
	sources map[string]int64
	last    time.Time

	netSentBaseline uint64
	netRecvBaseline uint64
}

type Snapshot struct {
	Uptime       time.Duration
	Success      int64
	Failed       int64
	Bytes        int64
	UniqueUsers  int
	LastDownload time.Time
	Sources      []SourceCount
}

type SourceCount struct {
	Source string
	Count  int64
}

func New() *Stats {
	s := &Stats{
		startTime: time.Now(),
		users:     make(map[string]struct{}),
		sources:   make(map[string]int64),
	}
	if counters, err := net.IOCounters(false); err == nil && len(counters) > 0 {
		s.netSentBaseline = counters[0].BytesSent
		s.netRecvBaseline = counters[0].BytesRecv
	}
	return s
}

// Record notes one finished request. source is the strategy that served it.
func (s *Stats) Record(user, source string, bytes int64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !ok {
		s.failed++
		return
	}
	s.success++
	s.bytes += bytes
	s.last = time.Now()
	if user != "" {
		s.users[user] = struct{}{}
	}
	if source != "" {
		s.sources[source]++
	}
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Uptime:       time.Since(s.startTime),
		Success:      s.success,
		Failed:       s.failed,
		Bytes:        s.bytes,
		UniqueUsers:  len(s.users),
		LastDownload: s.last,
	}
	for src, n := range s.sources {
		snap.Sources = append(snap.Sources, SourceCount{Source: src, Count: n})
	}
	sort.Slice(snap.Sources, func(i, j int) bool {
		if snap.Sources[i].Count != snap.Sources[j].Count {
			return snap.Sources[i].Count > snap.Sources[j].Count
		}
		return snap.Sources[i].Source < snap.Sources[j].Source
	})
	return snap
}

type SystemInfo struct {
	OS           string
	Hostname     string
	SystemUptime time.Duration

	CPUCores int
	CPUUsage float64
	Load1    float64
	Load5    float64
	Load15   float64

	MemUsed    uint64
	MemTotal   uint64
	MemPercent float64

	DiskUsed    uint64
	DiskTotal   uint64
	DiskPercent float64

	NetSent uint64
	NetRecv uint64

	ProcessPID    int
	ProcessCPU    float64
	ProcessMem    uint64
	ProcessUptime time.Duration

	GoVersion  string
	Goroutines int
	HeapAlloc  uint64
	GCRuns     uint32
}

// SystemInfo samples host and process figures. Missing figures stay zero.
func (s *Stats) SystemInfo(ctx context.Context) *SystemInfo {
	info := &SystemInfo{}

	if h, err := host.InfoWithContext(ctx); err == nil {
		info.OS = h.OS
		info.Hostname = h.Hostname
		info.SystemUptime = time.Duration(h.Uptime) * time.Second
	}

	if pct, err := cpu.PercentWithContext(ctx, 500*time.Millisecond, false); err == nil && len(pct) > 0 {
		info.CPUUsage = pct[0]
	}
	info.CPUCores = runtime.NumCPU()

	if l, err := load.AvgWithContext(ctx); err == nil {
		info.Load1, info.Load5, info.Load15 = l.Load1, l.Load5, l.Load15
	}

	if m, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.MemUsed = m.Used
		info.MemTotal = m.Total
		info.MemPercent = m.UsedPercent
	}

	if d, err := disk.UsageWithContext(ctx, "/"); err == nil {
		info.DiskUsed = d.Used
		info.DiskTotal = d.Total
		info.DiskPercent = d.UsedPercent
	}

	if counters, err := net.IOCountersWithContext(ctx, false); err == nil && len(counters) > 0 {
		info.NetSent = counters[0].BytesSent - s.netSentBaseline
		info.NetRecv = counters[0].BytesRecv - s.netRecvBaseline
	}

	info.ProcessPID = os.Getpid()
	if proc, err := process.NewProcessWithContext(ctx, int32(info.ProcessPID)); err == nil {
		if pct, err := proc.CPUPercentWithContext(ctx); err == nil {
			info.ProcessCPU = pct
		}
		if m, err := proc.MemoryInfoWithContext(ctx); err == nil {
			info.ProcessMem = m.RSS
		}
	}
	info.ProcessUptime = time.Since(s.startTime)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	info.GoVersion = runtime.Version()
	info.Goroutines = runtime.NumGoroutine()
	info.HeapAlloc = m.Alloc
	info.GCRuns = m.NumGC

	return info
}
