package model

// IntervalWriter persists closed activity intervals in batches. The entire
// batch commits or none of it does.
type IntervalWriter interface {
	BulkInsertIntervals(batch []Interval) error
}

// EventWriter persists normalized system events in batches.
type EventWriter interface {
	BulkInsertEvents(batch []SystemEvent) error
}

// SnapshotWriter persists one health snapshot row.
type SnapshotWriter interface {
	SaveHealthSnapshot(metrics HealthMetrics) error
}

// HealthSource is the contract the collector loops depend on for rolling
// operational metrics.
type HealthSource interface {
	RecordCollectionDelay(seconds float64)
	RecordDrop()
	RecordWriteTime(milliseconds float64)
	GetMetrics() HealthMetrics
	CheckSLO(thresholds SLOThresholds) SLOResult
}
