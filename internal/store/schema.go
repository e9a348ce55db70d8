package store

// Interval-normalized schema tuned for high-frequency small writes. Tables
// and indexes are created with IF NOT EXISTS so applying the schema on every
// open is a no-op for existing databases. Views are managed by Migrate, which
// drops and recreates them so definition changes propagate.

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS apps (
	app_id INTEGER PRIMARY KEY AUTOINCREMENT,
	process_name TEXT NOT NULL,
	process_path_hash TEXT NOT NULL,
	first_seen DATETIME NOT NULL,
	last_seen DATETIME NOT NULL,
	UNIQUE(process_name, process_path_hash)
);

CREATE INDEX IF NOT EXISTS idx_apps_name ON apps(process_name);

CREATE TABLE IF NOT EXISTS activity_intervals (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	start_ts DATETIME NOT NULL,
	end_ts DATETIME NOT NULL,
	app_id INTEGER NOT NULL,
	window_hash TEXT NOT NULL,
	domain TEXT,
	is_idle INTEGER NOT NULL DEFAULT 0,
	duration_seconds INTEGER GENERATED ALWAYS AS
		(strftime('%s', end_ts) - strftime('%s', start_ts)) STORED,
	CHECK (end_ts >= start_ts),
	FOREIGN KEY(app_id) REFERENCES apps(app_id)
);

CREATE INDEX IF NOT EXISTS idx_intervals_time ON activity_intervals(start_ts, end_ts);
CREATE INDEX IF NOT EXISTS idx_intervals_app ON activity_intervals(app_id);
CREATE INDEX IF NOT EXISTS idx_intervals_date ON activity_intervals(date(start_ts));
CREATE UNIQUE INDEX IF NOT EXISTS idx_intervals_identity
	ON activity_intervals(start_ts, app_id, window_hash);

CREATE TABLE IF NOT EXISTS health_snapshots (
	ts DATETIME PRIMARY KEY,
	cpu_percent REAL,
	mem_mb REAL,
	queue_depth INTEGER,
	collection_delay_p50 REAL,
	collection_delay_p95 REAL,
	dropped_events INTEGER,
	db_write_time_p95 REAL
);

CREATE INDEX IF NOT EXISTS idx_health_ts ON health_snapshots(ts);

CREATE TABLE IF NOT EXISTS system_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event_timestamp DATETIME NOT NULL,
	event_type TEXT NOT NULL,
	severity INTEGER NOT NULL CHECK (severity BETWEEN 0 AND 100),
	source TEXT NOT NULL,
	category TEXT,
	event_id INTEGER,
	message TEXT,
	message_hash TEXT,
	raw_data_json TEXT,
	process_name TEXT,
	user_name TEXT,
	machine_name TEXT,
	collected_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_events_timestamp ON system_events(event_timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_events_type ON system_events(event_type);
CREATE INDEX IF NOT EXISTS idx_events_severity ON system_events(severity DESC);
CREATE INDEX IF NOT EXISTS idx_events_source ON system_events(source);
CREATE INDEX IF NOT EXISTS idx_events_category ON system_events(category);
CREATE INDEX IF NOT EXISTS idx_events_date ON system_events(date(event_timestamp));
CREATE INDEX IF NOT EXISTS idx_events_process ON system_events(process_name);
`

// Views are external read contracts (CLI viewer, report generators). Each is
// recreated by Migrate; none may write.
var viewDefinitions = map[string]string{
	"unified_timeline": `
CREATE VIEW unified_timeline AS
SELECT
	'activity' AS event_source,
	start_ts AS timestamp,
	NULL AS event_type,
	NULL AS severity,
	a.process_name AS process_name,
	i.window_hash AS window_hash,
	NULL AS message,
	NULL AS category
FROM activity_intervals i
JOIN apps a ON i.app_id = a.app_id

UNION ALL

SELECT
	'system_event' AS event_source,
	event_timestamp AS timestamp,
	event_type,
	severity,
	process_name,
	NULL AS window_hash,
	message,
	category
FROM system_events`,

	"daily_event_summary": `
CREATE VIEW daily_event_summary AS
SELECT
	date(event_timestamp) AS date,
	event_type,
	category,
	COUNT(*) AS event_count,
	AVG(severity) AS avg_severity,
	MAX(severity) AS max_severity,
	MIN(severity) AS min_severity
FROM system_events
GROUP BY date(event_timestamp), event_type, category`,

	"daily_app_usage": `
CREATE VIEW daily_app_usage AS
SELECT
	date(start_ts) AS date,
	i.app_id,
	a.process_name,
	SUM(duration_seconds) AS total_seconds,
	COUNT(*) AS interval_count,
	SUM(CASE WHEN is_idle = 0 THEN duration_seconds ELSE 0 END) AS active_seconds
FROM activity_intervals i
JOIN apps a ON i.app_id = a.app_id
GROUP BY date(start_ts), i.app_id`,

	"hourly_activity": `
CREATE VIEW hourly_activity AS
SELECT
	strftime('%Y-%m-%d %H:00:00', start_ts) AS hour,
	SUM(CASE WHEN is_idle = 0 THEN duration_seconds ELSE 0 END) AS active_seconds,
	SUM(CASE WHEN is_idle = 1 THEN duration_seconds ELSE 0 END) AS idle_seconds
FROM activity_intervals
GROUP BY strftime('%Y-%m-%d %H:00:00', start_ts)`,
}

// pragmaSettings tune the connection for many small writes: write-ahead log,
// relaxed fsync, memory temp store, a 256MB mmap window, ~20MB page cache,
// and a 5s busy timeout. Applied to every pooled connection via the DSN.
var pragmaSettings = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"temp_store(MEMORY)",
	"mmap_size(268435456)",
	"page_size(4096)",
	"cache_size(-20000)",
	"busy_timeout(5000)",
}
