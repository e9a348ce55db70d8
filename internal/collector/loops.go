package collector

import (
	"context"
	"log"
	"time"

	"github.com/tinytelemetry/vigil/internal/model"
)

// dequeueWait bounds how long the writer blocks on an empty queue before
// checking whether a partial batch is due.
const dequeueWait = 1 * time.Second

// eventErrorBackoff is how long the event loop waits after a failed cycle
// before trying the same watermark again.
const eventErrorBackoff = 60 * time.Second

// writeLoop drains the queue into batches and flushes when the batch is full
// or the oldest buffered interval has waited past the write timeout. It runs
// until the sampler closes the queue on shutdown, which guarantees the
// closing interval has already been enqueued before the final flush.
func (c *Collector) writeLoop() error {
	var batch []model.Interval
	lastWrite := c.clock.Now()

	timer := time.NewTimer(dequeueWait)
	defer timer.Stop()

	for {
		// Drain a stale expiry before rearming, per the time.Timer contract.
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(dequeueWait)

		select {
		case iv, ok := <-c.queue:
			if !ok {
				c.flush(&batch)
				return nil
			}
			batch = append(batch, iv)
			if len(batch) >= c.cfg.BatchSize || c.clock.Now().Sub(lastWrite) > c.cfg.WriteTimeout {
				if c.flush(&batch) {
					lastWrite = c.clock.Now()
				}
			}

		case <-timer.C:
			if len(batch) > 0 && c.flush(&batch) {
				lastWrite = c.clock.Now()
			}
		}
	}
}

// flush writes the batch and reports the write time. On failure the batch is
// kept for the next attempt.
func (c *Collector) flush(batch *[]model.Interval) bool {
	if len(*batch) == 0 {
		return false
	}
	start := time.Now()
	if err := c.store.BulkInsertIntervals(*batch); err != nil {
		log.Printf("collector: bulk write failed, retrying next cycle: %v", err)
		return false
	}
	c.health.RecordWriteTime(float64(time.Since(start).Milliseconds()))
	*batch = (*batch)[:0]
	return true
}

// healthLoop snapshots self-telemetry and checks the SLOs.
func (c *Collector) healthLoop(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			metrics := c.health.GetMetrics()
			if err := c.store.SaveHealthSnapshot(metrics); err != nil {
				log.Printf("collector: saving health snapshot: %v", err)
			}

			if res := c.health.CheckSLO(c.cfg.SLO); !res.Healthy {
				for _, v := range res.Violations {
					log.Printf("collector: SLO violation: %s = %.2f exceeds %.2f",
						v.Metric, v.Observed, v.Threshold)
				}
			}
		}
	}
}

// eventLoop periodically pulls platform log events since the watermark. The
// watermark starts at process start (historical events belong to a previous
// run) and only advances after a successful cycle, so a failed collect or
// write is re-covered rather than lost.
func (c *Collector) eventLoop(ctx context.Context) error {
	watermark := c.clock.Now()

	ticker := time.NewTicker(c.cfg.CollectionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			next, ok := c.collectEventsOnce(watermark)
			watermark = next
			if !ok {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(eventErrorBackoff):
				}
			}
		}
	}
}

// collectEventsOnce runs one collection cycle and returns the watermark for
// the next one: advanced to the cycle start only when both the collect and
// the write succeeded, unchanged otherwise. An empty result with no error is
// a success (the window held no events).
func (c *Collector) collectEventsOnce(watermark time.Time) (time.Time, bool) {
	cycleStart := c.clock.Now()

	events, err := c.events.CollectEvents(watermark, c.cfg.EventTypes)
	if err != nil {
		log.Printf("collector: event collection failed, keeping watermark: %v", err)
		return watermark, false
	}

	if len(events) > 0 {
		if err := c.store.BulkInsertEvents(events); err != nil {
			log.Printf("collector: event write failed, keeping watermark: %v", err)
			return watermark, false
		}
		log.Printf("collector: collected %d system events", len(events))
	}
	return cycleStart, true
}
