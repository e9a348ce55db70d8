package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
)

// Migrations are presence-driven and additive-only: there is no schema
// version number. Missing tables arrive through createTablesSQL, missing
// columns through best-effort ALTER TABLE, and views are dropped and
// recreated so definition changes always win. Running Migrate on a current
// database is a no-op.

// wantedColumns lists columns added after the initial schema shipped. ALTER
// failures for columns that already exist are swallowed, not fatal.
var wantedColumns = []struct {
	table  string
	column string
	ddl    string
}{
	{"activity_intervals", "domain", "ALTER TABLE activity_intervals ADD COLUMN domain TEXT"},
	{"system_events", "machine_name", "ALTER TABLE system_events ADD COLUMN machine_name TEXT"},
	{"system_events", "collected_at", "ALTER TABLE system_events ADD COLUMN collected_at DATETIME"},
}

// Migrate inspects existing schema objects and additively applies whatever is
// missing. It is idempotent and never destroys data.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(createTablesSQL); err != nil {
		return fmt.Errorf("ensuring tables: %w", err)
	}

	for _, wc := range wantedColumns {
		has, err := s.hasColumn(wc.table, wc.column)
		if err != nil {
			return fmt.Errorf("inspecting %s.%s: %w", wc.table, wc.column, err)
		}
		if has {
			continue
		}
		if _, err := s.db.Exec(wc.ddl); err != nil {
			// A concurrent open may have added the column between the check
			// and the ALTER; duplicates are fine, anything else is logged
			// but still non-fatal for an additive change.
			if strings.Contains(strings.ToLower(err.Error()), "duplicate column") {
				continue
			}
			log.Printf("store: migration add column %s.%s: %v", wc.table, wc.column, err)
			continue
		}
		log.Printf("store: migration added column %s.%s", wc.table, wc.column)
	}

	for name, ddl := range viewDefinitions {
		if _, err := s.db.Exec("DROP VIEW IF EXISTS " + name); err != nil {
			return fmt.Errorf("dropping view %s: %w", name, err)
		}
		if _, err := s.db.Exec(ddl); err != nil {
			return fmt.Errorf("creating view %s: %w", name, err)
		}
	}

	return nil
}

// hasTable reports whether a table exists.
func (s *Store) hasTable(name string) (bool, error) {
	var found string
	err := s.db.QueryRow(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, name,
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// hasView reports whether a view exists.
func (s *Store) hasView(name string) (bool, error) {
	var found string
	err := s.db.QueryRow(
		`SELECT name FROM sqlite_master WHERE type = 'view' AND name = ?`, name,
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// hasColumn reports whether a table has the named column.
func (s *Store) hasColumn(table, column string) (bool, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue any
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
