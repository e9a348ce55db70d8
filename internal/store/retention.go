package store

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Health snapshots are diagnostic and never worth keeping long; retention is
// fixed rather than configurable.
const healthRetentionDays = 7

// CleanupResult reports what one retention pass removed.
type CleanupResult struct {
	Intervals       int64
	Events          int64
	HealthSnapshots int64
	OrphanedApps    int64
}

// Cleanup deletes intervals older than retentionDays, system events older
// than eventRetentionDays, health snapshots older than a fixed week, and any
// apps left without intervals. A non-positive day count disables that class.
func (s *Store) Cleanup(retentionDays, eventRetentionDays int) (CleanupResult, error) {
	var res CleanupResult

	err := withLockRetry(func() error {
		ctx, cancel := s.queryCtx()
		defer cancel()

		now := time.Now().UTC()

		if retentionDays > 0 {
			cutoff := fmtTime(now.AddDate(0, 0, -retentionDays))
			r, err := s.db.ExecContext(ctx,
				"DELETE FROM activity_intervals WHERE end_ts < ?", cutoff)
			if err != nil {
				return fmt.Errorf("deleting expired intervals: %w", err)
			}
			res.Intervals, _ = r.RowsAffected()
		}

		if eventRetentionDays > 0 {
			cutoff := fmtTime(now.AddDate(0, 0, -eventRetentionDays))
			r, err := s.db.ExecContext(ctx,
				"DELETE FROM system_events WHERE event_timestamp < ?", cutoff)
			if err != nil {
				return fmt.Errorf("deleting expired events: %w", err)
			}
			res.Events, _ = r.RowsAffected()
		}

		cutoff := fmtTime(now.AddDate(0, 0, -healthRetentionDays))
		r, err := s.db.ExecContext(ctx,
			"DELETE FROM health_snapshots WHERE ts < ?", cutoff)
		if err != nil {
			return fmt.Errorf("deleting expired health snapshots: %w", err)
		}
		res.HealthSnapshots, _ = r.RowsAffected()

		r, err = s.db.ExecContext(ctx,
			`DELETE FROM apps WHERE app_id NOT IN
				(SELECT DISTINCT app_id FROM activity_intervals)`)
		if err != nil {
			return fmt.Errorf("deleting orphaned apps: %w", err)
		}
		res.OrphanedApps, _ = r.RowsAffected()

		return nil
	})

	return res, err
}

// RetentionCleaner periodically prunes expired rows.
type RetentionCleaner struct {
	store              *Store
	retentionDays      int
	eventRetentionDays int
	done               chan struct{}
	wg                 sync.WaitGroup
	stopOnce           sync.Once
}

// NewRetentionCleaner creates and starts a cleaner. Returns nil when both
// retention periods are disabled.
func NewRetentionCleaner(store *Store, retentionDays, eventRetentionDays int) *RetentionCleaner {
	if retentionDays <= 0 && eventRetentionDays <= 0 {
		return nil
	}

	rc := &RetentionCleaner{
		store:              store,
		retentionDays:      retentionDays,
		eventRetentionDays: eventRetentionDays,
		done:               make(chan struct{}),
	}

	// Startup cleanup to catch up after downtime.
	rc.cleanup()

	rc.wg.Add(1)
	go rc.tickLoop()

	return rc
}

func (rc *RetentionCleaner) tickLoop() {
	defer rc.wg.Done()
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rc.cleanup()
		case <-rc.done:
			return
		}
	}
}

func (rc *RetentionCleaner) cleanup() {
	res, err := rc.store.Cleanup(rc.retentionDays, rc.eventRetentionDays)
	if err != nil {
		log.Printf("store: retention cleanup error: %v", err)
		return
	}
	total := res.Intervals + res.Events + res.HealthSnapshots + res.OrphanedApps
	if total > 0 {
		log.Printf("store: retention cleanup removed %d intervals, %d events, %d health snapshots, %d orphaned apps",
			res.Intervals, res.Events, res.HealthSnapshots, res.OrphanedApps)
	}
}

// Stop signals the cleaner to stop and waits for it to finish.
func (rc *RetentionCleaner) Stop() {
	rc.stopOnce.Do(func() {
		close(rc.done)
		rc.wg.Wait()
	})
}
