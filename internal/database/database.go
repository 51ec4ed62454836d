// Package database provides Postgres connection management for dbsample.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver

	"github.com/dbsmedya/dbsample/internal/config"
)

// ConnectionError reports a failure to reach one of the configured
// databases, naming the endpoint that failed.
type ConnectionError struct {
	Endpoint string // "source" or "target"
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s database: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Manager handles the source and target connection pools for a run.
type Manager struct {
	Source *sql.DB
	Target *sql.DB
	config *config.Config
}

// NewManager creates a new database manager from configuration.
func NewManager(cfg *config.Config) *Manager {
	return &Manager{config: cfg}
}

// Connect establishes connections to both databases. The source pool is
// shared read-only across sampling tasks; the target pool is only used
// during load.
func (m *Manager) Connect(ctx context.Context) error {
	var err error

	m.Source, err = m.connectWithRetry(ctx, m.config.SourceDatabaseURL)
	if err != nil {
		return &ConnectionError{Endpoint: "source", Err: err}
	}

	m.Target, err = m.connectWithRetry(ctx, m.config.TargetDatabaseURL)
	if err != nil {
		m.Source.Close()
		m.Source = nil
		return &ConnectionError{Endpoint: "target", Err: err}
	}

	return nil
}

// ConnectSource establishes the source connection only. Used by read-only
// operations such as plan.
func (m *Manager) ConnectSource(ctx context.Context) error {
	db, err := m.connectWithRetry(ctx, m.config.SourceDatabaseURL)
	if err != nil {
		return &ConnectionError{Endpoint: "source", Err: err}
	}
	m.Source = db
	return nil
}

// connectWithRetry attempts to connect with exponential backoff.
func (m *Manager) connectWithRetry(ctx context.Context, url string) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 3
	backoff := time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = m.connect(url)
		if err == nil {
			if pingErr := db.PingContext(ctx); pingErr == nil {
				return db, nil
			} else {
				db.Close()
				err = pingErr
			}
		}

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2 // Exponential backoff
			}
		}
	}

	return nil, fmt.Errorf("failed after %d retries: %w", maxRetries, err)
}

// connect opens a pool with the configured limits.
func (m *Manager) connect(url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, err
	}

	if m.config.Sampling.MaxConnections > 0 {
		db.SetMaxOpenConns(m.config.Sampling.MaxConnections)
	}
	if m.config.Sampling.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(m.config.Sampling.MaxIdleConnections)
	}
	db.SetConnMaxLifetime(10 * time.Minute)

	return db, nil
}

// Close closes all database connections gracefully.
func (m *Manager) Close() error {
	var errs []error

	if m.Target != nil {
		if err := m.Target.Close(); err != nil {
			errs = append(errs, fmt.Errorf("target close: %w", err))
		}
	}

	if m.Source != nil {
		if err := m.Source.Close(); err != nil {
			errs = append(errs, fmt.Errorf("source close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing connections: %v", errs)
	}
	return nil
}

// Ping verifies all open connections are alive.
func (m *Manager) Ping(ctx context.Context) error {
	if m.Source != nil {
		if err := m.Source.PingContext(ctx); err != nil {
			return &ConnectionError{Endpoint: "source", Err: err}
		}
	}

	if m.Target != nil {
		if err := m.Target.PingContext(ctx); err != nil {
			return &ConnectionError{Endpoint: "target", Err: err}
		}
	}

	return nil
}
