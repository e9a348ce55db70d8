package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetOrCreateApp resolves the surrogate id for a (process name, path hash)
// pair, creating the row on first observation and bumping last_seen on every
// subsequent one.
func (s *Store) GetOrCreateApp(processName, pathHash string) (int64, error) {
	var appID int64
	err := withLockRetry(func() error {
		ctx, cancel := s.queryCtx()
		defer cancel()

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		appID, err = getOrCreateAppTx(tx, processName, pathHash, time.Now())
		if err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, fmt.Errorf("upserting app %s: %w", processName, err)
	}
	return appID, nil
}

// getOrCreateAppTx is the upsert used inside batch transactions so app
// resolution and interval insertion commit together.
func getOrCreateAppTx(tx *sql.Tx, processName, pathHash string, now time.Time) (int64, error) {
	var appID int64
	err := tx.QueryRow(
		`SELECT app_id FROM apps WHERE process_name = ? AND process_path_hash = ?`,
		processName, pathHash,
	).Scan(&appID)

	switch {
	case err == nil:
		if _, err := tx.Exec(
			`UPDATE apps SET last_seen = ? WHERE app_id = ?`, fmtTime(now), appID,
		); err != nil {
			return 0, err
		}
		return appID, nil

	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.Exec(
			`INSERT INTO apps (process_name, process_path_hash, first_seen, last_seen)
			 VALUES (?, ?, ?, ?)`,
			processName, pathHash, fmtTime(now), fmtTime(now),
		)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()

	default:
		return 0, err
	}
}
