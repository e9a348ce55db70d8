package collector

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tinytelemetry/vigil/internal/model"
)

// recoverySleep is how long the sampling loop backs off after a probe error.
const recoverySleep = 5 * time.Second

func (c *Collector) sampleLoop(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.SamplingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Close the open interval, then the queue: the writer keeps
			// draining until the queue closes, so the span up to shutdown
			// reaches storage instead of being stranded in the channel.
			c.finalize(c.clock.Now())
			close(c.queue)
			return nil
		case <-ticker.C:
			if err := c.sampleOnce(c.clock.Now()); err != nil {
				log.Printf("collector: sampling error: %v", err)
				select {
				case <-ctx.Done():
				case <-time.After(recoverySleep):
				}
			}
		}
	}
}

// sampleOnce runs one sampling tick against the probes at the given instant.
// Split out from the loop so tests can drive the state machine with a fake
// clock and synthetic observations.
func (c *Collector) sampleOnce(now time.Time) error {
	idleSeconds, err := c.idle.IdleSeconds()
	if err != nil {
		return fmt.Errorf("reading idle time: %w", err)
	}

	fg, err := c.foreground.Foreground()
	if err != nil {
		return fmt.Errorf("reading foreground window: %w", err)
	}
	if fg == nil {
		// Nothing has focus; not an error, just no observation this tick.
		return nil
	}

	// Excluded processes leave the state machine untouched: the open
	// interval (if any) keeps accruing and closes on the next transition.
	if c.policy.ExcludesProcess(fg.ProcessName) {
		return nil
	}

	isIdle := time.Duration(idleSeconds)*time.Second > c.cfg.IdleThreshold

	// Foreground switch: close the running interval and open one for the
	// new identity, carrying the current idle state.
	if c.current == nil || !c.current.SameIdentity(*fg) {
		c.finalize(now)
		c.open(*fg, now, isIdle)
		return nil
	}

	// Same identity, idle flag crossed the threshold: close and reopen so
	// every stored interval covers exactly one idle state.
	if c.current.Idle != isIdle {
		c.finalize(now)
		c.open(*fg, now, isIdle)
	}

	return nil
}

func (c *Collector) open(fg model.ForegroundInfo, start time.Time, idle bool) {
	c.current = &model.Interval{
		ProcessName:     fg.ProcessName,
		ProcessPathHash: fg.ProcessPathHash,
		WindowHash:      fg.WindowHash,
		Domain:          fg.Domain,
		Start:           start,
		Idle:            idle,
	}
}

// finalize closes the current interval at end and enqueues it. A full queue
// drops the interval and bumps the drop counter; the sampler never blocks.
func (c *Collector) finalize(end time.Time) {
	if c.current == nil {
		return
	}
	iv := *c.current
	iv.End = end
	c.current = nil

	select {
	case c.queue <- iv:
		c.health.RecordCollectionDelay(end.Sub(iv.Start).Seconds())
	default:
		log.Printf("collector: queue full, dropping interval for %s", iv.ProcessName)
		c.health.RecordDrop()
	}
}
