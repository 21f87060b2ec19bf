// Package migrations holds versioned, idempotent schema steps applied to
// the embedded SQL database. Mirrors the teacher's migration interface,
// adapted from SurrealDB's schemaless DDL to standard SQL DDL.
package migrations

import (
	"context"
	"database/sql"
)

// Migration is one forward schema step.
type Migration interface {
	Apply(ctx context.Context, db *sql.DB) error
	Version() int
	Description() string
}

// All returns the ordered list of migrations to apply from scratch.
// Append new migrations here; never mutate an already-released one.
func All() []Migration {
	return []Migration{
		&v1InitialSchema{},
	}
}
