package runner

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInMemoryMetricsTracksFileDurations(t *testing.T) {
	t.Parallel()

	m := NewInMemoryMetrics()
	m.RecordFile("a", 30*time.Millisecond, true)
	m.RecordFile("b", 10*time.Millisecond, false)
	m.RecordFile("c", 20*time.Millisecond, true)

	snapshot := m.GetSnapshot()
	require.Equal(t, int64(3), snapshot.Files.Total)
	require.Equal(t, int64(2), snapshot.Files.Changed)
	require.Equal(t, int64(1), snapshot.Files.Unchanged)
	require.Equal(t, 10*time.Millisecond, snapshot.Files.MinTime)
	require.Equal(t, 30*time.Millisecond, snapshot.Files.MaxTime)
	require.Equal(t, 60*time.Millisecond, snapshot.Files.TotalTime)
}

func TestInMemoryMetricsConcurrentUpdates(t *testing.T) {
	t.Parallel()

	m := NewInMemoryMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(ok bool) {
			defer wg.Done()
			m.RecordHunks(2, 1)
			m.RecordRoot("root", ok)
		}(i%2 == 0)
	}
	wg.Wait()

	snapshot := m.GetSnapshot()
	require.Equal(t, int64(40), snapshot.HunksApplied)
	require.Equal(t, int64(20), snapshot.HunksFailed)
	require.Equal(t, int64(10), snapshot.RootsOK)
	require.Equal(t, int64(10), snapshot.RootsFailed)

	m.Reset()
	require.Equal(t, MetricsSnapshot{}, m.GetSnapshot())
}

func TestNoOpMetricsReportsNothing(t *testing.T) {
	t.Parallel()

	var m Metrics = &NoOpMetrics{}
	m.RecordFile("a", time.Second, true)
	m.RecordRoot("r", true)
	require.Equal(t, MetricsSnapshot{}, m.GetSnapshot())
}
