package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

type v1InitialSchema struct{}

func (v1InitialSchema) Version() int { return 1 }

func (v1InitialSchema) Description() string {
	return "memories, FTS5 index, embeddings, embedding cache, code graph, closure, observer tables"
}

// statements that may legitimately fail on a limited backend (e.g. FTS5 or
// a vector extension unavailable) and must degrade gracefully rather than
// abort schema setup, "DDL failures on unsupported pragmas
// are silently ignored".
var v1BestEffort = []string{
	`CREATE VIRTUAL TABLE IF NOT EXISTS memories_fts USING fts5(
		memory_id UNINDEXED,
		content,
		tags,
		related_files,
		tokenize = 'porter unicode61'
	)`,
}

var v1Required = []string{
	`PRAGMA foreign_keys = ON`,

	`CREATE TABLE IF NOT EXISTS memories (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		content TEXT NOT NULL,
		citation TEXT,
		confidence REAL NOT NULL DEFAULT 0.5,
		access_count INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		last_accessed_at TEXT NOT NULL,
		decay_half_life_days REAL,
		project_id TEXT NOT NULL,
		scope TEXT NOT NULL DEFAULT 'module',
		session_id TEXT,
		provenance_session_ids TEXT NOT NULL DEFAULT '[]',
		work_unit_ref TEXT,
		methodology TEXT,
		related_files TEXT NOT NULL DEFAULT '[]',
		related_modules TEXT NOT NULL DEFAULT '[]',
		target_node_id TEXT,
		impacted_node_ids TEXT NOT NULL DEFAULT '[]',
		relations TEXT NOT NULL DEFAULT '[]',
		source TEXT,
		pinned INTEGER NOT NULL DEFAULT 0,
		needs_review INTEGER NOT NULL DEFAULT 0,
		user_verified INTEGER NOT NULL DEFAULT 0,
		deprecated INTEGER NOT NULL DEFAULT 0,
		deprecated_at TEXT,
		stale_at TEXT,
		chunk_type TEXT,
		chunk_start_line INTEGER,
		chunk_end_line INTEGER,
		context_prefix TEXT,
		embedding_model_id TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_memories_project ON memories(project_id, deprecated)`,
	`CREATE INDEX IF NOT EXISTS idx_memories_type ON memories(project_id, type)`,

	`CREATE TABLE IF NOT EXISTS memory_embeddings (
		memory_id TEXT PRIMARY KEY REFERENCES memories(id) ON DELETE CASCADE,
		vector BLOB NOT NULL,
		model_id TEXT NOT NULL,
		dims INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_memory_embeddings_model ON memory_embeddings(model_id, dims)`,

	`CREATE TABLE IF NOT EXISTS embedding_cache (
		cache_key TEXT PRIMARY KEY,
		vector BLOB NOT NULL,
		model_id TEXT NOT NULL,
		dims INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		expires_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_embedding_cache_expires ON embedding_cache(expires_at)`,

	`CREATE TABLE IF NOT EXISTS graph_nodes (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		type TEXT NOT NULL,
		label TEXT NOT NULL,
		file_path TEXT,
		language TEXT,
		start_line INTEGER,
		end_line INTEGER,
		layer INTEGER NOT NULL DEFAULT 1,
		source TEXT,
		confidence TEXT NOT NULL DEFAULT 'verified',
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		stale_at TEXT,
		associated_memory_ids TEXT NOT NULL DEFAULT '[]'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_graph_nodes_project_file ON graph_nodes(project_id, file_path)`,
	`CREATE INDEX IF NOT EXISTS idx_graph_nodes_label ON graph_nodes(project_id, label)`,

	`CREATE TABLE IF NOT EXISTS graph_edges (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		from_id TEXT NOT NULL REFERENCES graph_nodes(id) ON DELETE CASCADE,
		to_id TEXT NOT NULL REFERENCES graph_nodes(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		weight REAL NOT NULL DEFAULT 1.0,
		confidence TEXT NOT NULL DEFAULT 'verified',
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		stale_at TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_graph_edges_from ON graph_edges(from_id)`,
	`CREATE INDEX IF NOT EXISTS idx_graph_edges_to ON graph_edges(to_id)`,

	`CREATE TABLE IF NOT EXISTS graph_closure (
		project_id TEXT NOT NULL,
		ancestor TEXT NOT NULL,
		descendant TEXT NOT NULL,
		depth INTEGER NOT NULL,
		path TEXT NOT NULL DEFAULT '[]',
		edge_types TEXT NOT NULL DEFAULT '[]',
		total_weight REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (project_id, ancestor, descendant)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_graph_closure_descendant ON graph_closure(project_id, descendant)`,

	`CREATE TABLE IF NOT EXISTS code_projects (
		project_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		root_path TEXT NOT NULL,
		language_stats TEXT NOT NULL DEFAULT '{}',
		last_indexed_at TEXT,
		indexing_status TEXT NOT NULL DEFAULT 'pending',
		watcher_enabled INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS graph_index_state (
		project_id TEXT PRIMARY KEY REFERENCES code_projects(project_id) ON DELETE CASCADE,
		files_indexed INTEGER NOT NULL DEFAULT 0,
		nodes_count INTEGER NOT NULL DEFAULT 0,
		edges_count INTEGER NOT NULL DEFAULT 0,
		last_indexed_at TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS indexing_jobs (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		project_path TEXT NOT NULL,
		status TEXT NOT NULL,
		progress REAL NOT NULL DEFAULT 0,
		files_total INTEGER NOT NULL DEFAULT 0,
		files_indexed INTEGER NOT NULL DEFAULT 0,
		started_at TEXT NOT NULL,
		completed_at TEXT,
		error TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS observer_file_nodes (
		project_id TEXT NOT NULL,
		file_path TEXT NOT NULL,
		access_count INTEGER NOT NULL DEFAULT 0,
		last_accessed_at TEXT,
		PRIMARY KEY (project_id, file_path)
	)`,
	`CREATE TABLE IF NOT EXISTS observer_co_access_edges (
		project_id TEXT NOT NULL,
		file_a TEXT NOT NULL,
		file_b TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (project_id, file_a, file_b)
	)`,
	`CREATE TABLE IF NOT EXISTS observer_error_patterns (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		signature TEXT NOT NULL,
		occurrences INTEGER NOT NULL DEFAULT 1,
		last_seen_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS observer_module_session_counts (
		project_id TEXT NOT NULL,
		module TEXT NOT NULL,
		session_count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (project_id, module)
	)`,
	`CREATE TABLE IF NOT EXISTS observer_synthesis_log (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		created_memory_id TEXT,
		reason TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
}

// Apply runs the required DDL transactionally, then best-effort DDL
// outside the transaction so a failure there (e.g. FTS5 missing) cannot
// roll back the rest of the schema.
func (v1InitialSchema) Apply(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range v1Required {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply required schema statement: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}

	for _, stmt := range v1BestEffort {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			// Graceful degradation: callers fall back to in-process
			// equivalents (BM25-less substring search is out of scope;
			// FTS5 is expected on modernc.org/sqlite builds, but a
			// restricted host environment may reject virtual tables).
			continue
		}
	}
	return nil
}
