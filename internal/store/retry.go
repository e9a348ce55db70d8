package store

import (
	"strings"
	"time"
)

const (
	lockRetries   = 5
	lockRetryBase = 200 * time.Millisecond
)

// isLockError reports whether err is SQLite write-lock contention. Only these
// errors are retried; anything else propagates immediately.
func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "sqlite_busy") ||
		strings.Contains(msg, "database table is locked")
}

// withLockRetry runs fn, retrying lock-contention failures up to lockRetries
// times with exponential backoff (base * 2^attempt).
func withLockRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt <= lockRetries; attempt++ {
		err = fn()
		if err == nil || !isLockError(err) {
			return err
		}
		if attempt < lockRetries {
			time.Sleep(lockRetryBase << uint(attempt))
		}
	}
	return err
}
