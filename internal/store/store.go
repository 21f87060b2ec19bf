// Package store provides the embedded transactional SQL layer: ordinary
// tables, an FTS5 full-text index with BM25 scoring, and an optional
// cosine-distance operator over stored float32 vector blobs. It owns all
// durable state for the agent memory engine.
//
// The driver is modernc.org/sqlite, a pure-Go SQLite implementation, in
// the same spirit as the sqvect and memento reference repos: no cgo, a
// single file on disk, WAL journaling.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agentmemory/memoryd/internal/store/migrations"
)

// Store is the embedded SQL database described in . All writes
// that must be atomic go through Batch; all DDL goes through
// InitializeSchema at startup only.
type Store struct {
	db *sql.DB

	mu          struct{} // placeholder to make zero value unusable by convention
	vectorExtOK bool
	path        string
}

// Stmt is one statement of a Batch transaction.
type Stmt struct {
	SQL  string
	Args []any
}

// Open connects to (creating if absent) the database file at path and
// applies pragmas. It does not run schema migrations; call
// InitializeSchema for that.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1) // single-writer embedded file; avoid SQLITE_BUSY storms

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			// Degrade gracefully: some embedded/cloud-limited SQLite
			// builds reject WAL or pragmas outright.
			slog.Warn("pragma failed, continuing without it", "pragma", p, "error", err)
		}
	}

	s := &Store{db: db, path: path}
	s.vectorExtOK = s.probeVectorExtension()
	return s, nil
}

// DB exposes the underlying *sql.DB for package-internal collaborators
// (graph, memory, retrieval) that own their own typed SQL.
func (s *Store) DB() *sql.DB { return s.db }

// HasVectorExtension reports whether vector_distance_cos is usable
// in-database; callers otherwise compute cosine distance in process.
func (s *Store) HasVectorExtension() bool { return s.vectorExtOK }

func (s *Store) probeVectorExtension() bool {
	// modernc.org/sqlite does not ship a native vector_distance_cos
	// operator; register a best-effort Go scalar function and probe it.
	// If registration or execution fails, callers fall back to
	// in-process cosine.
	if err := registerCosineFunction(); err != nil {
		return false
	}
	var v float64
	err := s.db.QueryRow(`SELECT vector_distance_cos(x'00000000', x'00000000')`).Scan(&v)
	return err == nil
}

// Ping verifies the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// InitializeSchema idempotently creates all tables, indexes, and the
// FTS5 virtual table, tracking applied versions in schema_migrations.
func (s *Store) InitializeSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	applied := map[int]bool{}
	rows, err := s.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan schema_migrations: %w", err)
		}
		applied[v] = true
	}
	rows.Close()

	for _, m := range migrations.All() {
		if applied[m.Version()] {
			continue
		}
		slog.Info("applying schema migration", "version", m.Version(), "description", m.Description())
		if err := m.Apply(ctx, s.db); err != nil {
			// Schema/startup failure: propagated, the host cannot recover.
			return fmt.Errorf("apply migration %d (%s): %w", m.Version(), m.Description(), err)
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO schema_migrations(version, description, applied_at) VALUES (?, ?, ?)`,
			m.Version(), m.Description(), time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("record migration %d: %w", m.Version(), err)
		}
	}
	return nil
}

// Execute runs a single parameterized statement outside any explicit
// transaction.
func (s *Store) Execute(ctx context.Context, sqlStmt string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, sqlStmt, args...)
}

// Query runs a parameterized SELECT.
func (s *Store) Query(ctx context.Context, sqlStmt string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, sqlStmt, args...)
}

// QueryRow runs a parameterized SELECT expected to return at most one row.
func (s *Store) QueryRow(ctx context.Context, sqlStmt string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, sqlStmt, args...)
}

// Batch executes all statements atomically in a single transaction,
// rolling back the whole unit on any error. Used for all
// memory insertions: the triple-write to memories + FTS + embedding.
func (s *Store) Batch(ctx context.Context, stmts []Stmt) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for i, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt.SQL, stmt.Args...); err != nil {
			return fmt.Errorf("batch statement %d failed, rolled back: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	committed = true
	return nil
}

// ExecuteMultiple runs DDL statements one at a time, logging and skipping
// any that fail. It has no callers; schema setup runs its own loop.
func (s *Store) ExecuteMultiple(ctx context.Context, ddlStatements []string) {
	for _, ddl := range ddlStatements {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			slog.Warn("non-atomic DDL statement failed, ignoring", "error", err)
		}
	}
}
