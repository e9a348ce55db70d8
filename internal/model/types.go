package model

import "time"

// Interval is a contiguous span during which one application held foreground
// focus (or the system was idle). It is the canonical record handed from the
// sampler to the storage engine. Duration is derived in storage from
// End - Start and is never carried on this struct.
type Interval struct {
	ProcessName     string
	ProcessPathHash string
	WindowHash      string
	Domain          string // optional, browser-like foreground contexts only
	Start           time.Time
	End             time.Time
	Idle            bool
}

// SameIdentity reports whether a foreground observation belongs to the same
// logical interval (same process and window).
func (iv Interval) SameIdentity(fg ForegroundInfo) bool {
	return iv.ProcessName == fg.ProcessName &&
		iv.ProcessPathHash == fg.ProcessPathHash &&
		iv.WindowHash == fg.WindowHash
}

// ForegroundInfo is one observation of the focused application, as returned
// by the platform foreground probe. Path and window title arrive already
// hashed; raw values never cross this boundary.
type ForegroundInfo struct {
	ProcessName     string
	ProcessPathHash string
	WindowHash      string
	Domain          string
}

// SystemEvent is a normalized platform log entry (Windows Event Log, Linux
// syslog/journal). MessageHash is always populated, even when Message has
// been redacted under the privacy policy.
type SystemEvent struct {
	Timestamp   time.Time
	EventType   string // info|warning|error|critical
	Severity    int    // clamped to [0,100] at construction
	Source      string // windows_eventlog|linux_syslog|...
	Category    string // security|network|storage|performance|other
	EventID     int64  // platform event id, 0 = none
	Message     string
	MessageHash string
	RawJSON     string
	ProcessName string
	UserName    string
	MachineName string
}

// ClampSeverity bounds a severity score to [0,100].
func ClampSeverity(severity int) int {
	if severity < 0 {
		return 0
	}
	if severity > 100 {
		return 100
	}
	return severity
}

// HealthMetrics is a point-in-time rollup of collector health, persisted as
// one health snapshot row.
type HealthMetrics struct {
	Timestamp     time.Time
	CPUPercent    float64
	MemMB         float64
	QueueDepth    int
	DelayP50      float64 // seconds
	DelayP95      float64 // seconds
	DroppedEvents int64
	WriteTimeP95  float64 // milliseconds
}

// SLOThresholds holds the configured service-level objectives. A zero value
// disables the corresponding check.
type SLOThresholds struct {
	MaxDelayP95Seconds float64
	MaxDroppedEvents   int64
	MaxWriteTimeP95MS  float64
	MaxQueueDepth      int
}

// SLOViolation names one breached objective together with the observed and
// allowed values.
type SLOViolation struct {
	Metric    string
	Observed  float64
	Threshold float64
}

// SLOResult is the outcome of comparing the latest metrics against the
// configured thresholds.
type SLOResult struct {
	Healthy    bool
	Violations []SLOViolation
}
