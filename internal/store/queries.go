package store

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tinytelemetry/vigil/internal/model"
)

// Read paths. These are the only contract the viewer/report layers depend
// on; nothing here writes.

// StoredInterval is one activity_intervals row read back, including the
// derived duration.
type StoredInterval struct {
	ID              int64
	ProcessName     string
	WindowHash      string
	Domain          string
	Start           time.Time
	End             time.Time
	Idle            bool
	DurationSeconds int64
}

// TimelineEntry is one row of the unified activity+event timeline view.
// Kind is "activity" or "system_event"; event-only fields are zero-valued
// for activity rows.
type TimelineEntry struct {
	Kind        string
	Timestamp   time.Time
	EventType   string
	Severity    int
	ProcessName string
	WindowHash  string
	Message     string
	Category    string
}

// DailyAppUsageRow aggregates one app's usage for one day.
type DailyAppUsageRow struct {
	Date          string
	AppID         int64
	ProcessName   string
	TotalSeconds  int64
	IntervalCount int64
	ActiveSeconds int64
}

// HourlyActivityRow splits one hour into active and idle seconds.
type HourlyActivityRow struct {
	Hour          time.Time
	ActiveSeconds int64
	IdleSeconds   int64
}

// DailyEventSummaryRow aggregates system events per day/type/category.
type DailyEventSummaryRow struct {
	Date        string
	EventType   string
	Category    string
	EventCount  int64
	AvgSeverity float64
	MaxSeverity int
	MinSeverity int
}

// EventsByRange returns system events in [start, end), newest first,
// optionally filtered by event types and a minimum severity (values > 0).
func (s *Store) EventsByRange(start, end time.Time, eventTypes []string, minSeverity int) ([]model.SystemEvent, error) {
	ctx, cancel := s.queryCtx()
	defer cancel()

	query := `SELECT event_timestamp, event_type, severity, source, category,
			event_id, message, message_hash, raw_data_json,
			process_name, user_name, machine_name
		FROM system_events
		WHERE event_timestamp >= ? AND event_timestamp < ?`
	args := []any{fmtTime(start), fmtTime(end)}

	if len(eventTypes) > 0 {
		placeholders := strings.Repeat("?,", len(eventTypes))
		query += " AND event_type IN (" + placeholders[:len(placeholders)-1] + ")"
		for _, t := range eventTypes {
			args = append(args, t)
		}
	}
	if minSeverity > 0 {
		query += " AND severity >= ?"
		args = append(args, minSeverity)
	}
	query += " ORDER BY event_timestamp DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var results []model.SystemEvent
	for rows.Next() {
		var (
			ev                              model.SystemEvent
			ts                              string
			category, message, messageHash  sql.NullString
			rawJSON, process, user, machine sql.NullString
			eventID                         sql.NullInt64
		)
		if err := rows.Scan(&ts, &ev.EventType, &ev.Severity, &ev.Source, &category,
			&eventID, &message, &messageHash, &rawJSON, &process, &user, &machine); err != nil {
			log.Printf("store: scan error (EventsByRange): %v", err)
			continue
		}
		ev.Timestamp = parseTime(ts)
		ev.Category = category.String
		ev.EventID = eventID.Int64
		ev.Message = message.String
		ev.MessageHash = messageHash.String
		ev.RawJSON = rawJSON.String
		ev.ProcessName = process.String
		ev.UserName = user.String
		ev.MachineName = machine.String
		results = append(results, ev)
	}
	return results, rows.Err()
}

// UnifiedTimeline returns the merged activity+event stream in [start, end),
// newest first. Order is imposed here, not by insertion order.
func (s *Store) UnifiedTimeline(start, end time.Time) ([]TimelineEntry, error) {
	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT event_source, timestamp, event_type, severity,
			process_name, window_hash, message, category
		 FROM unified_timeline
		 WHERE timestamp >= ? AND timestamp < ?
		 ORDER BY timestamp DESC`,
		fmtTime(start), fmtTime(end))
	if err != nil {
		return nil, fmt.Errorf("querying unified timeline: %w", err)
	}
	defer rows.Close()

	var results []TimelineEntry
	for rows.Next() {
		var (
			entry                         TimelineEntry
			ts                            string
			eventType, process            sql.NullString
			windowHash, message, category sql.NullString
			severity                      sql.NullInt64
		)
		if err := rows.Scan(&entry.Kind, &ts, &eventType, &severity,
			&process, &windowHash, &message, &category); err != nil {
			log.Printf("store: scan error (UnifiedTimeline): %v", err)
			continue
		}
		entry.Timestamp = parseTime(ts)
		entry.EventType = eventType.String
		entry.Severity = int(severity.Int64)
		entry.ProcessName = process.String
		entry.WindowHash = windowHash.String
		entry.Message = message.String
		entry.Category = category.String
		results = append(results, entry)
	}
	return results, rows.Err()
}

// IntervalsByRange returns stored intervals overlapping [start, end), oldest
// first, joined with their owning app.
func (s *Store) IntervalsByRange(start, end time.Time) ([]StoredInterval, error) {
	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT i.id, a.process_name, i.window_hash, i.domain,
			i.start_ts, i.end_ts, i.is_idle, i.duration_seconds
		 FROM activity_intervals i
		 JOIN apps a ON i.app_id = a.app_id
		 WHERE i.start_ts >= ? AND i.start_ts < ?
		 ORDER BY i.start_ts ASC, i.id ASC`,
		fmtTime(start), fmtTime(end))
	if err != nil {
		return nil, fmt.Errorf("querying intervals: %w", err)
	}
	defer rows.Close()

	var results []StoredInterval
	for rows.Next() {
		var (
			iv      StoredInterval
			domain  sql.NullString
			startTS string
			endTS   string
			idle    int
		)
		if err := rows.Scan(&iv.ID, &iv.ProcessName, &iv.WindowHash, &domain,
			&startTS, &endTS, &idle, &iv.DurationSeconds); err != nil {
			log.Printf("store: scan error (IntervalsByRange): %v", err)
			continue
		}
		iv.Domain = domain.String
		iv.Start = parseTime(startTS)
		iv.End = parseTime(endTS)
		iv.Idle = idle != 0
		results = append(results, iv)
	}
	return results, rows.Err()
}

// DailyAppUsage returns per-app usage aggregates for one calendar day
// (UTC, "YYYY-MM-DD").
func (s *Store) DailyAppUsage(date string) ([]DailyAppUsageRow, error) {
	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT date, app_id, process_name, total_seconds, interval_count, active_seconds
		 FROM daily_app_usage
		 WHERE date = ?
		 ORDER BY total_seconds DESC`, date)
	if err != nil {
		return nil, fmt.Errorf("querying daily app usage: %w", err)
	}
	defer rows.Close()

	var results []DailyAppUsageRow
	for rows.Next() {
		var r DailyAppUsageRow
		if err := rows.Scan(&r.Date, &r.AppID, &r.ProcessName,
			&r.TotalSeconds, &r.IntervalCount, &r.ActiveSeconds); err != nil {
			log.Printf("store: scan error (DailyAppUsage): %v", err)
			continue
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// HourlyActivity returns active/idle second aggregates per hour in
// [start, end).
func (s *Store) HourlyActivity(start, end time.Time) ([]HourlyActivityRow, error) {
	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT hour, active_seconds, idle_seconds
		 FROM hourly_activity
		 WHERE hour >= ? AND hour < ?
		 ORDER BY hour ASC`,
		fmtTime(start), fmtTime(end))
	if err != nil {
		return nil, fmt.Errorf("querying hourly activity: %w", err)
	}
	defer rows.Close()

	var results []HourlyActivityRow
	for rows.Next() {
		var (
			r    HourlyActivityRow
			hour string
		)
		if err := rows.Scan(&hour, &r.ActiveSeconds, &r.IdleSeconds); err != nil {
			log.Printf("store: scan error (HourlyActivity): %v", err)
			continue
		}
		r.Hour = parseTime(hour)
		results = append(results, r)
	}
	return results, rows.Err()
}

// DailyEventSummary returns the per-type/category event rollup for one
// calendar day (UTC, "YYYY-MM-DD").
func (s *Store) DailyEventSummary(date string) ([]DailyEventSummaryRow, error) {
	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT date, event_type, category, event_count, avg_severity, max_severity, min_severity
		 FROM daily_event_summary
		 WHERE date = ?
		 ORDER BY event_count DESC`, date)
	if err != nil {
		return nil, fmt.Errorf("querying daily event summary: %w", err)
	}
	defer rows.Close()

	var results []DailyEventSummaryRow
	for rows.Next() {
		var (
			r        DailyEventSummaryRow
			category sql.NullString
		)
		if err := rows.Scan(&r.Date, &r.EventType, &category,
			&r.EventCount, &r.AvgSeverity, &r.MaxSeverity, &r.MinSeverity); err != nil {
			log.Printf("store: scan error (DailyEventSummary): %v", err)
			continue
		}
		r.Category = category.String
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *Store) countRows(table string) (int64, error) {
	var n int64
	// Table names are internal constants, never user input.
	err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n)
	return n, err
}
