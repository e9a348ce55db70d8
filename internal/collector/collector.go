// Package collector runs the agent's concurrent loops: foreground/idle
// sampling, batched interval writing, health snapshots, and platform event
// collection. Closed intervals travel from the sampler to the writer over a
// bounded queue; when the queue is full the interval is dropped and counted,
// never blocking the sampler.
package collector

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/vigil/internal/eventlog"
	"github.com/tinytelemetry/vigil/internal/model"
	"github.com/tinytelemetry/vigil/internal/privacy"
	"github.com/tinytelemetry/vigil/internal/probe"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// RealClock is the production Clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Storage is the persistence surface the loops write to.
type Storage interface {
	model.IntervalWriter
	model.EventWriter
	model.SnapshotWriter
}

// Health is the self-telemetry sink and source.
type Health interface {
	model.HealthSource
	SetQueueDepth(fn func() int)
}

// Config tunes the loops. Zero values are replaced with the model defaults.
type Config struct {
	SamplingInterval   time.Duration
	IdleThreshold      time.Duration
	BatchSize          int
	WriteTimeout       time.Duration
	MaxQueueSize       int
	SnapshotInterval   time.Duration
	CollectionInterval time.Duration
	EventTypes         []string
	SLO                model.SLOThresholds
}

func (c *Config) applyDefaults() {
	if c.SamplingInterval <= 0 {
		c.SamplingInterval = model.DefaultSamplingInterval
	}
	if c.IdleThreshold <= 0 {
		c.IdleThreshold = model.DefaultIdleThreshold
	}
	if c.BatchSize <= 0 {
		c.BatchSize = model.DefaultBatchSize
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = model.DefaultWriteTimeout
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = model.DefaultMaxQueueSize
	}
	if c.SnapshotInterval <= 0 {
		c.SnapshotInterval = model.DefaultSnapshotInterval
	}
	if c.CollectionInterval <= 0 {
		c.CollectionInterval = model.DefaultCollectionInterval
	}
}

// Collector owns the loops and the current-interval state machine. The
// state machine is touched only by the sampling loop; the queue is the
// sole hand-off to the writer.
type Collector struct {
	cfg    Config
	store  Storage
	health Health
	policy privacy.Policy

	foreground probe.ForegroundProbe
	idle       probe.IdleProbe
	events     eventlog.Collector // nil when event collection is disabled

	clock Clock
	queue chan model.Interval

	current *model.Interval
}

// New wires a collector. events may be nil to disable the event loop;
// clock may be nil for real time.
func New(cfg Config, store Storage, health Health, fg probe.ForegroundProbe, idle probe.IdleProbe, events eventlog.Collector, policy privacy.Policy, clock Clock) *Collector {
	cfg.applyDefaults()
	if clock == nil {
		clock = RealClock{}
	}

	c := &Collector{
		cfg:        cfg,
		store:      store,
		health:     health,
		policy:     policy,
		foreground: fg,
		idle:       idle,
		events:     events,
		clock:      clock,
		queue:      make(chan model.Interval, cfg.MaxQueueSize),
	}
	health.SetQueueDepth(func() int { return len(c.queue) })
	return c
}

// Run starts all loops and blocks until ctx is cancelled. Shutdown is
// sequenced through the queue: the sampler closes its open interval, then
// closes the queue, and the writer drains to storage before exiting.
func (c *Collector) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return c.sampleLoop(ctx) })
	g.Go(func() error { return c.writeLoop() })
	g.Go(func() error { return c.healthLoop(ctx) })
	if c.events != nil {
		g.Go(func() error { return c.eventLoop(ctx) })
	}

	return g.Wait()
}

// QueueDepth reports how many closed intervals are waiting for the writer.
func (c *Collector) QueueDepth() int {
	return len(c.queue)
}
