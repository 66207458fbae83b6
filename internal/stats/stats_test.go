package stats

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordAndSnapshot(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Record("u1", "apkcombo", 100, true)
		}()
	}
	wg.Wait()
	s.Record("u2", "tikwm", 50, true)
	s.Record("u3", "", 0, false)

	snap := s.Snapshot()
	assert.Equal(t, int64(11), snap.Success)
	assert.Equal(t, int64(1), snap.Failed)
	assert.Equal(t, int64(1050), snap.Bytes)
	assert.Equal(t, 2, snap.UniqueUsers)
	assert.Equal(t, []SourceCount{{"apkcombo", 10}, {"tikwm", 1}}, snap.Sources)
	assert.False(t, snap.LastDownload.IsZero())
}

func TestSystemInfo(t *testing.T) {
	info := New().SystemInfo(context.Background())

	assert.Positive(t, info.CPUCores)
	assert.Positive(t, info.ProcessPID)
	assert.NotEmpty(t, info.GoVersion)
}
