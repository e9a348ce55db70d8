package store

import (
	"fmt"
	"log"
	"time"

	"github.com/tinytelemetry/vigil/internal/model"
)

// BulkInsertIntervals writes a batch of closed intervals in one immediate
// transaction: app rows are resolved (or created) for every record, then all
// intervals are inserted. The whole batch commits or rolls back together.
// Re-ingesting an identical (start_ts, app, window_hash) triple is a no-op.
func (s *Store) BulkInsertIntervals(batch []model.Interval) error {
	if len(batch) == 0 {
		return nil
	}

	err := withLockRetry(func() error {
		ctx, cancel := s.queryCtx()
		defer cancel()

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO activity_intervals
				(start_ts, end_ts, app_id, window_hash, domain, is_idle)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(start_ts, app_id, window_hash) DO NOTHING`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		now := time.Now()
		for _, iv := range batch {
			appID, err := getOrCreateAppTx(tx, iv.ProcessName, iv.ProcessPathHash, now)
			if err != nil {
				return fmt.Errorf("resolving app %s: %w", iv.ProcessName, err)
			}

			var domain any
			if iv.Domain != "" {
				domain = iv.Domain
			}
			if _, err := stmt.ExecContext(ctx,
				fmtTime(iv.Start), fmtTime(iv.End), appID, iv.WindowHash, domain, boolToInt(iv.Idle),
			); err != nil {
				return fmt.Errorf("inserting interval: %w", err)
			}
		}

		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("bulk insert %d intervals: %w", len(batch), err)
	}

	log.Printf("store: bulk inserted %d intervals", len(batch))
	return nil
}

// BulkInsertEvents writes a batch of normalized system events in one
// transaction. No app resolution is involved; all-or-nothing semantics apply.
func (s *Store) BulkInsertEvents(batch []model.SystemEvent) error {
	if len(batch) == 0 {
		return nil
	}

	err := withLockRetry(func() error {
		ctx, cancel := s.queryCtx()
		defer cancel()

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO system_events
				(event_timestamp, event_type, severity, source, category,
				 event_id, message, message_hash, raw_data_json,
				 process_name, user_name, machine_name)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, ev := range batch {
			var eventID any
			if ev.EventID != 0 {
				eventID = ev.EventID
			}
			if _, err := stmt.ExecContext(ctx,
				fmtTime(ev.Timestamp), ev.EventType, ev.Severity, ev.Source, ev.Category,
				eventID, ev.Message, ev.MessageHash, ev.RawJSON,
				ev.ProcessName, ev.UserName, ev.MachineName,
			); err != nil {
				return fmt.Errorf("inserting event: %w", err)
			}
		}

		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("bulk insert %d events: %w", len(batch), err)
	}

	log.Printf("store: bulk inserted %d events", len(batch))
	return nil
}

// SaveHealthSnapshot persists one health snapshot row, keyed by timestamp.
func (s *Store) SaveHealthSnapshot(m model.HealthMetrics) error {
	err := withLockRetry(func() error {
		ctx, cancel := s.queryCtx()
		defer cancel()

		_, err := s.db.ExecContext(ctx,
			`INSERT INTO health_snapshots
				(ts, cpu_percent, mem_mb, queue_depth,
				 collection_delay_p50, collection_delay_p95,
				 dropped_events, db_write_time_p95)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			fmtTime(m.Timestamp), m.CPUPercent, m.MemMB, m.QueueDepth,
			m.DelayP50, m.DelayP95, m.DroppedEvents, m.WriteTimeP95,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("saving health snapshot: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
