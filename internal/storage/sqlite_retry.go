package storage

import (
	"database/sql"
	"errors"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

const (
	maxLockRetries = 200
	baseLockDelay  = 10 * time.Millisecond
	maxLockDelay   = 25 * time.Millisecond
)

// isRetryableError reports whether err is a transient SQLite lock
// conflict worth retrying, as opposed to a real constraint violation
// or I/O failure.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

// isUniqueViolation reports whether err is a unique-constraint failure,
// the signal that a concurrent insert raced us for a (group, number)
// slot and the caller should re-read MAX and retry.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

// retryableExec executes a statement, retrying on lock contention with
// a bounded, jittered backoff.
func retryableExec(db *sql.DB, query string, args ...interface{}) (sql.Result, error) {
	var result sql.Result
	var err error
	for attempt := 0; attempt < maxLockRetries; attempt++ {
		result, err = db.Exec(query, args...)
		if !isRetryableError(err) {
			return result, err
		}
		sleepWithJitter(attempt)
		log.Printf("[STORAGE] retry %d/%d on lock contention: %s", attempt+1, maxLockRetries, truncate(query, 60))
	}
	return result, err
}

// retryableQueryRowScan runs a single-row query and scans it, retrying
// on lock contention.
func retryableQueryRowScan(db *sql.DB, query string, args []interface{}, dest ...interface{}) error {
	var err error
	for attempt := 0; attempt < maxLockRetries; attempt++ {
		err = db.QueryRow(query, args...).Scan(dest...)
		if !isRetryableError(err) {
			return err
		}
		sleepWithJitter(attempt)
	}
	return err
}

func sleepWithJitter(attempt int) {
	delay := time.Duration(attempt+1) * baseLockDelay
	if delay > maxLockDelay {
		delay = maxLockDelay
	}
	jitter := time.Duration(rand.Int63n(int64(delay)/2 + 1))
	time.Sleep(delay + jitter)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
