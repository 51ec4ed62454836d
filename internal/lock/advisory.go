// Package lock provides PostgreSQL advisory locking for target database loads.
package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
)

// ErrLockHeld is returned when the load lock is held by another instance.
var ErrLockHeld = errors.New("load lock is held by another instance")

// loadLockName namespaces the advisory lock key so it does not collide
// with other applications using advisory locks on the same database.
const loadLockName = "dbsample:load"

// LoadLock serializes loads into a target database using a PostgreSQL
// session-level advisory lock. Two concurrent loads into the same target
// would interleave inserts and break referential ordering, so the second
// one fails fast instead.
//
// The lock is tied to a single pooled connection: pg_advisory locks are
// per-session, so acquire and release must happen on the same connection.
type LoadLock struct {
	db   *sql.DB
	conn *sql.Conn
	key  int64
	held bool
}

// NewLoadLock creates a lock against the target database. The lock is not
// acquired until AcquireOrFail is called.
func NewLoadLock(db *sql.DB) *LoadLock {
	return &LoadLock{
		db:  db,
		key: lockKey(loadLockName),
	}
}

// AcquireOrFail attempts to take the lock without waiting.
// Returns nil if acquired, ErrLockHeld if another instance holds it, and
// other errors for database failures.
func (l *LoadLock) AcquireOrFail(ctx context.Context) error {
	if l.held {
		return nil
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to obtain connection for advisory lock: %w", err)
	}

	var acquired bool
	err = conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.key).Scan(&acquired)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to execute pg_try_advisory_lock: %w", err)
	}
	if !acquired {
		_ = conn.Close()
		return fmt.Errorf("%w: key %d", ErrLockHeld, l.key)
	}

	l.conn = conn
	l.held = true
	return nil
}

// Release releases the lock and returns its connection to the pool.
// Releasing an unheld lock is a no-op. The lock also auto-releases if the
// session ends, so a crashed process never leaves the target locked.
func (l *LoadLock) Release(ctx context.Context) error {
	if !l.held {
		return nil
	}

	var released bool
	err := l.conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", l.key).Scan(&released)
	closeErr := l.conn.Close()
	l.conn = nil
	l.held = false

	if err != nil {
		return fmt.Errorf("failed to execute pg_advisory_unlock: %w", err)
	}
	if !released {
		return fmt.Errorf("pg_advisory_unlock returned false for key %d (lock was not held by this session)", l.key)
	}
	return closeErr
}

// IsHeld returns true if this lock is currently held by this instance.
func (l *LoadLock) IsHeld() bool {
	return l.held
}

// Key returns the numeric advisory lock key.
func (l *LoadLock) Key() int64 {
	return l.key
}

// lockKey maps a lock name onto the bigint key space pg_advisory_lock
// expects. FNV-1a keeps the mapping stable across builds and instances.
func lockKey(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}
