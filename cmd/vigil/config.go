package main

import (
	"time"

	"github.com/tinytelemetry/vigil/internal/model"
)

const (
	defaultSamplingInterval   = model.DefaultSamplingInterval
	defaultIdleThreshold      = model.DefaultIdleThreshold
	defaultBatchSize          = model.DefaultBatchSize
	defaultWriteTimeout       = model.DefaultWriteTimeout
	defaultMaxQueueSize       = model.DefaultMaxQueueSize
	defaultSnapshotInterval   = model.DefaultSnapshotInterval
	defaultCollectionInterval = model.DefaultCollectionInterval
	defaultRetentionDays      = model.DefaultRetentionDays
	defaultQueryTimeout       = 30 * time.Second

	defaultSLOMaxDelayP95   = 30.0 // seconds
	defaultSLOMaxDropped    = 100
	defaultSLOMaxWriteP95   = 1000.0 // milliseconds
	defaultSLOMaxQueueDepth = 900
	defaultLinuxPriorityMin = "warning"
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	DBPath       string        `mapstructure:"db-path"`
	QueryTimeout time.Duration `mapstructure:"query-timeout"`

	SamplingInterval time.Duration `mapstructure:"sampling-interval"`
	IdleThreshold    time.Duration `mapstructure:"idle-threshold"`
	BatchSize        int           `mapstructure:"batch-size"`
	WriteTimeout     time.Duration `mapstructure:"write-timeout"`
	MaxQueueSize     int           `mapstructure:"max-queue-size"`
	SnapshotInterval time.Duration `mapstructure:"snapshot-interval"`

	RetentionDays      int `mapstructure:"retention-days"`
	EventRetentionDays int `mapstructure:"event-retention-days"`

	SLOMaxDelayP95      float64 `mapstructure:"slo-max-delay-p95"`
	SLOMaxDroppedEvents int64   `mapstructure:"slo-max-dropped-events"`
	SLOMaxWriteP95MS    float64 `mapstructure:"slo-max-write-p95-ms"`
	SLOMaxQueueDepth    int     `mapstructure:"slo-max-queue-depth"`

	EventCollectionEnabled bool          `mapstructure:"event-collection-enabled"`
	CollectionInterval     time.Duration `mapstructure:"collection-interval"`
	EventTypes             []string      `mapstructure:"event-types"`
	WindowsLogNames        []string      `mapstructure:"windows-log-names"`
	LinuxFacilities        []string      `mapstructure:"linux-facilities"`
	LinuxPriorityMin       string        `mapstructure:"linux-priority-min"`
	ClassificationRules    string        `mapstructure:"classification-rules"`

	ExcludeProcesses     []string `mapstructure:"exclude-processes"`
	SensitiveKeywords    []string `mapstructure:"sensitive-keywords"`
	HashMessages         bool     `mapstructure:"hash-messages"`
	HashUserNames        bool     `mapstructure:"hash-user-names"`
	StoreMessageHashOnly bool     `mapstructure:"store-message-hash-only"`

	ConfigPath string `mapstructure:"-"` // not from config file
}
