package runner

import (
	"sync"
	"time"
)

// Metrics collects counters for a patch run.
type Metrics interface {
	// RecordFile records one processed file with its duration and whether it changed.
	RecordFile(path string, duration time.Duration, changed bool)
	// RecordHunks records hunk outcomes for one file.
	RecordHunks(applied, failed int)
	// RecordRoot records whether a root directory was patched successfully.
	RecordRoot(root string, ok bool)
	// GetSnapshot returns the current metrics snapshot.
	GetSnapshot() MetricsSnapshot
	// Reset clears all metrics (useful for testing).
	Reset()
}

// MetricsSnapshot contains a point-in-time view of collected metrics.
type MetricsSnapshot struct {
	Files        FileMetrics `json:"files"`
	HunksApplied int64       `json:"hunksApplied"`
	HunksFailed  int64       `json:"hunksFailed"`
	RootsOK      int64       `json:"rootsOk"`
	RootsFailed  int64       `json:"rootsFailed"`
}

// FileMetrics tracks per-file statistics.
type FileMetrics struct {
	Total     int64         `json:"total"`
	Changed   int64         `json:"changed"`
	Unchanged int64         `json:"unchanged"`
	TotalTime time.Duration `json:"totalTimeNs"`
	MinTime   time.Duration `json:"minTimeNs"`
	MaxTime   time.Duration `json:"maxTimeNs"`
}

// NoOpMetrics is a metrics collector that discards all metrics.
type NoOpMetrics struct{}

func (n *NoOpMetrics) RecordFile(_ string, _ time.Duration, _ bool) {}
func (n *NoOpMetrics) RecordHunks(_, _ int)                         {}
func (n *NoOpMetrics) RecordRoot(_ string, _ bool)                  {}
func (n *NoOpMetrics) GetSnapshot() MetricsSnapshot                 { return MetricsSnapshot{} }
func (n *NoOpMetrics) Reset()                                       {}

// InMemoryMetrics is a thread-safe in-memory metrics collector.
type InMemoryMetrics struct {
	mu       sync.RWMutex
	snapshot MetricsSnapshot
}

// NewInMemoryMetrics creates a new in-memory metrics collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{}
}

func (m *InMemoryMetrics) RecordFile(_ string, duration time.Duration, changed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	files := &m.snapshot.Files
	if files.Total == 0 || duration < files.MinTime {
		files.MinTime = duration
	}
	if duration > files.MaxTime {
		files.MaxTime = duration
	}
	files.Total++
	files.TotalTime += duration
	if changed {
		files.Changed++
	} else {
		files.Unchanged++
	}
}

func (m *InMemoryMetrics) RecordHunks(applied, failed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot.HunksApplied += int64(applied)
	m.snapshot.HunksFailed += int64(failed)
}

func (m *InMemoryMetrics) RecordRoot(_ string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.snapshot.RootsOK++
	} else {
		m.snapshot.RootsFailed++
	}
}

func (m *InMemoryMetrics) GetSnapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

func (m *InMemoryMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = MetricsSnapshot{}
}
