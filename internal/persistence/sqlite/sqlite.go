// Package sqlite implements the persistence repositories on SQLite via the
// pure-Go modernc.org driver.
package sqlite

import (
	"context"
	"fmt"
)

// Storage bundles the connection pool and the repository implementations
// backed by it.
type Storage struct {
	pool        *ConnectionPool
	Members     *MemberRepository
	Assignments *AssignmentRepository
	Sessions    *SessionRepository
}

// Open creates the storage for the given DSN.
func Open(dsn string) (*Storage, error) {
	pool, err := NewConnectionPool(dsn)
	if err != nil {
		return nil, err
	}
	return &Storage{
		pool:        pool,
		Members:     NewMemberRepository(pool),
		Assignments: NewAssignmentRepository(pool),
		Sessions:    NewSessionRepository(pool),
	}, nil
}

// Close releases the underlying database handle.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Ping verifies database connectivity.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// schemaStatements holds the idempotent schema definition. The member sort
// key column is named position because ORDER is a SQL keyword.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS members (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL CHECK (length(trim(name)) > 0),
		position INTEGER NOT NULL CHECK (position >= 1),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS assignments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		member_id INTEGER NOT NULL REFERENCES members(id),
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL CHECK (end_date >= start_date),
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_assignments_active_start
		ON assignments (is_active, start_date)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		start_time TEXT NOT NULL DEFAULT '',
		end_time TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		is_recurring INTEGER NOT NULL DEFAULT 0,
		recurring_pattern TEXT,
		recurring_end_date TEXT,
		weekdays TEXT,
		max_occurrences INTEGER,
		template_id INTEGER REFERENCES sessions(id) ON DELETE SET NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_date ON sessions (date)`,
}

// Migrate applies the schema. Statements are idempotent, so running Migrate
// repeatedly at every startup is safe.
func (s *Storage) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
