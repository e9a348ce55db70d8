// Package health tracks the agent's own overhead: collection delay and
// write-time percentiles over rolling windows, drop counts, queue depth,
// and process CPU/memory, with SLO evaluation on top.
package health

import (
	"sort"
	"sync"
	"time"

	"github.com/tinytelemetry/vigil/internal/model"
)

// windowSize bounds each percentile series. Old samples fall off the front
// so GetMetrics always reflects recent behavior, not lifetime history.
const windowSize = 1000

// Monitor accumulates self-telemetry samples. All methods are safe for
// concurrent use; recording is cheap enough for hot paths.
type Monitor struct {
	mu sync.Mutex

	collectionDelays []float64 // seconds
	writeTimes       []float64 // milliseconds
	droppedEvents    int64

	// queueDepth is polled at snapshot time so the monitor never holds a
	// reference into the queue itself.
	queueDepth func() int

	cpu cpuTracker
}

// NewMonitor creates a monitor. queueDepth may be nil until SetQueueDepth
// is called.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// SetQueueDepth installs the function polled for queue depth at snapshot
// time.
func (m *Monitor) SetQueueDepth(fn func() int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queueDepth = fn
}

// RecordCollectionDelay records one sampler-to-write latency in seconds.
func (m *Monitor) RecordCollectionDelay(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collectionDelays = appendBounded(m.collectionDelays, seconds)
}

// RecordWriteTime records one batch write duration in milliseconds.
func (m *Monitor) RecordWriteTime(ms float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeTimes = appendBounded(m.writeTimes, ms)
}

// RecordDrop counts one record rejected by the full queue. Drops accumulate
// for the process lifetime; they are the one series that must not decay.
func (m *Monitor) RecordDrop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.droppedEvents++
}

// GetMetrics returns a snapshot of current health.
func (m *Monitor) GetMetrics() model.HealthMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	cpuPercent, memMB := m.cpu.sample()

	depth := 0
	if m.queueDepth != nil {
		depth = m.queueDepth()
	}

	return model.HealthMetrics{
		Timestamp:     time.Now().UTC(),
		CPUPercent:    cpuPercent,
		MemMB:         memMB,
		QueueDepth:    depth,
		DelayP50:      percentile(m.collectionDelays, 50),
		DelayP95:      percentile(m.collectionDelays, 95),
		DroppedEvents: m.droppedEvents,
		WriteTimeP95:  percentile(m.writeTimes, 95),
	}
}

// CheckSLO compares current metrics against thresholds. Zero-valued
// thresholds are disabled.
func (m *Monitor) CheckSLO(thresholds model.SLOThresholds) model.SLOResult {
	metrics := m.GetMetrics()
	res := model.SLOResult{Healthy: true}

	check := func(metric string, observed, threshold float64) {
		if threshold <= 0 || observed <= threshold {
			return
		}
		res.Healthy = false
		res.Violations = append(res.Violations, model.SLOViolation{
			Metric:    metric,
			Observed:  observed,
			Threshold: threshold,
		})
	}

	check("collection_delay_p95", metrics.DelayP95, thresholds.MaxDelayP95Seconds)
	check("dropped_events", float64(metrics.DroppedEvents), float64(thresholds.MaxDroppedEvents))
	check("db_write_time_p95", metrics.WriteTimeP95, thresholds.MaxWriteTimeP95MS)
	check("queue_depth", float64(metrics.QueueDepth), float64(thresholds.MaxQueueDepth))

	return res
}

func appendBounded(series []float64, v float64) []float64 {
	series = append(series, v)
	if len(series) > windowSize {
		series = series[len(series)-windowSize:]
	}
	return series
}

// percentile returns the pth percentile using nearest-rank on a sorted copy.
// Empty series yield 0.
func percentile(series []float64, p int) float64 {
	if len(series) == 0 {
		return 0
	}
	sorted := make([]float64, len(series))
	copy(sorted, series)
	sort.Float64s(sorted)

	rank := (p * len(sorted) + 99) / 100 // ceil(p/100 * n)
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
