// Package store is the embedded storage engine: schema, migrations, batched
// writers, retention, and the typed read queries the viewer layers depend on.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is the SQLite datetime text format. All timestamps are stored
// as UTC strings in this layout so date()/strftime() in views work directly.
const timeLayout = "2006-01-02 15:04:05"

// Store manages the SQLite database and provides the write and read APIs.
// All methods are safe for concurrent use; each worker's statements run on
// its own pooled connection.
type Store struct {
	db           *sql.DB
	dbPath       string
	QueryTimeout time.Duration
}

// Open creates or opens the database file, applies the performance pragmas,
// the full schema, and any pending additive migrations. An unwritable
// database file is a fatal initialization error.
func Open(dbPath string, queryTimeout ...time.Duration) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("store: database path is required")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One writer plus a handful of readers; SQLite serializes writes anyway
	// and the busy_timeout/lock-retry pair resolves contention.
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if _, err := db.Exec(createTablesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	qt := 30 * time.Second
	if len(queryTimeout) > 0 && queryTimeout[0] > 0 {
		qt = queryTimeout[0]
	}

	s := &Store{db: db, dbPath: dbPath, QueryTimeout: qt}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	log.Printf("store: database initialized: %s", dbPath)
	return s, nil
}

// dsn builds the connection string. Pragmas ride in the DSN so every pooled
// connection gets them; _txlock=immediate makes write transactions take the
// write lock up front instead of failing on upgrade mid-transaction.
func dsn(dbPath string) string {
	q := url.Values{}
	for _, pragma := range pragmaSettings {
		q.Add("_pragma", pragma)
	}
	q.Set("_txlock", "immediate")
	return "file:" + dbPath + "?" + q.Encode()
}

// Close closes the database connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) queryCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.QueryTimeout)
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	// Stored values are in timeLayout; view expressions like the
	// hourly bucket strftime return the same shape.
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}
