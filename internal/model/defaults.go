package model

import "time"

// Shared defaults used by the agent binary and the collector loops. Values
// mirror the shipped configuration: a 12 second sampling tick, a one minute
// idle boundary, small write batches with a short staleness bound.
const (
	DefaultSamplingInterval   = 12 * time.Second
	DefaultIdleThreshold      = 60 * time.Second
	DefaultBatchSize          = 10
	DefaultWriteTimeout       = 3 * time.Second
	DefaultMaxQueueSize       = 1000
	DefaultSnapshotInterval   = 60 * time.Second
	DefaultCollectionInterval = 5 * time.Minute
	DefaultRetentionDays      = 30
)
