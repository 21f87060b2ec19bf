package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentmemory/memoryd/internal/model"
	"github.com/agentmemory/memoryd/internal/store"
)

// CreateProject upserts a code_projects row,
// leaving language_stats/last_indexed_at untouched on a bare re-register.
func (idx *Indexer) CreateProject(ctx context.Context, p *model.CodeProject) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.IndexingStatus == "" {
		p.IndexingStatus = model.IndexingStatusPending
	}
	stats, err := json.Marshal(orEmptyStats(p.LanguageStats))
	if err != nil {
		return fmt.Errorf("marshal language stats: %w", err)
	}
	var lastIndexed any
	if p.LastIndexedAt != nil {
		lastIndexed = p.LastIndexedAt.UTC().Format(time.RFC3339Nano)
	}

	_, err = idx.store.Execute(ctx, `
		INSERT INTO code_projects(project_id, name, root_path, language_stats, last_indexed_at,
			indexing_status, watcher_enabled, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?)
		ON CONFLICT(project_id) DO UPDATE SET
			name=excluded.name, root_path=excluded.root_path,
			language_stats=CASE WHEN excluded.language_stats != '{}' THEN excluded.language_stats ELSE code_projects.language_stats END,
			last_indexed_at=COALESCE(excluded.last_indexed_at, code_projects.last_indexed_at),
			indexing_status=excluded.indexing_status, updated_at=excluded.updated_at`,
		p.ProjectID, p.Name, p.RootPath, string(stats), lastIndexed,
		string(p.IndexingStatus), p.WatcherEnabled, p.CreatedAt.Format(time.RFC3339Nano), p.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert code project: %w", err)
	}

	_, err = idx.store.Execute(ctx, `
		INSERT INTO graph_index_state(project_id, files_indexed, nodes_count, edges_count, last_indexed_at)
		VALUES (?, 0, 0, 0, NULL)
		ON CONFLICT(project_id) DO NOTHING`, p.ProjectID)
	if err != nil {
		return fmt.Errorf("init index state: %w", err)
	}
	return nil
}

// GetProject returns a project by id, or nil if not registered.
func (idx *Indexer) GetProject(ctx context.Context, projectID string) (*model.CodeProject, error) {
	row := idx.store.QueryRow(ctx, `
		SELECT project_id, name, root_path, language_stats, last_indexed_at, indexing_status,
			watcher_enabled, created_at, updated_at
		FROM code_projects WHERE project_id = ?`, projectID)
	p, err := scanProject(row)
	if err != nil {
		return nil, nil
	}
	return p, nil
}

// ListProjects returns every registered project.
func (idx *Indexer) ListProjects(ctx context.Context) ([]model.CodeProject, error) {
	rows, err := idx.store.Query(ctx, `
		SELECT project_id, name, root_path, language_stats, last_indexed_at, indexing_status,
			watcher_enabled, created_at, updated_at
		FROM code_projects ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []model.CodeProject
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanProject(row interface{ Scan(...any) error }) (*model.CodeProject, error) {
	var p model.CodeProject
	var stats string
	var lastIndexed, createdAt, updatedAt string
	var status string
	if err := row.Scan(&p.ProjectID, &p.Name, &p.RootPath, &stats, &nullableString{&lastIndexed}, &status,
		&p.WatcherEnabled, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.IndexingStatus = model.IndexingStatus(status)
	_ = json.Unmarshal([]byte(stats), &p.LanguageStats)
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		p.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		p.UpdatedAt = t
	}
	if lastIndexed != "" {
		if t, err := time.Parse(time.RFC3339Nano, lastIndexed); err == nil {
			p.LastIndexedAt = &t
		}
	}
	return &p, nil
}

// nullableString scans a NULL-able TEXT column into a plain string,
// leaving it empty on NULL.
type nullableString struct{ dst *string }

func (n *nullableString) Scan(src any) error {
	if src == nil {
		*n.dst = ""
		return nil
	}
	switch v := src.(type) {
	case string:
		*n.dst = v
	case []byte:
		*n.dst = string(v)
	}
	return nil
}

// UpdateProjectStatus sets a project's indexing_status.
func (idx *Indexer) UpdateProjectStatus(ctx context.Context, projectID string, status model.IndexingStatus) error {
	_, err := idx.store.Execute(ctx,
		`UPDATE code_projects SET indexing_status = ?, updated_at = ? WHERE project_id = ?`,
		string(status), time.Now().UTC().Format(time.RFC3339Nano), projectID)
	return err
}

// UpdateProjectWatcher sets whether a project's watcher should auto-start.
func (idx *Indexer) UpdateProjectWatcher(ctx context.Context, projectID string, enabled bool) error {
	_, err := idx.store.Execute(ctx,
		`UPDATE code_projects SET watcher_enabled = ?, updated_at = ? WHERE project_id = ?`,
		enabled, time.Now().UTC().Format(time.RFC3339Nano), projectID)
	return err
}

// DeleteProject removes a project and its graph state (nodes/edges cascade
// via project_id scoping at the call sites that delete them explicitly,
// since SQLite has no cross-table project_id foreign key there).
func (idx *Indexer) DeleteProject(ctx context.Context, projectID string) error {
	stmts := []store.Stmt{
		{SQL: `DELETE FROM graph_edges WHERE project_id = ?`, Args: []any{projectID}},
		{SQL: `DELETE FROM graph_nodes WHERE project_id = ?`, Args: []any{projectID}},
		{SQL: `DELETE FROM graph_closure WHERE project_id = ?`, Args: []any{projectID}},
		{SQL: `DELETE FROM graph_index_state WHERE project_id = ?`, Args: []any{projectID}},
		{SQL: `DELETE FROM code_projects WHERE project_id = ?`, Args: []any{projectID}},
	}
	return idx.store.Batch(ctx, stmts)
}

// bumpIndexState implements step 11: update per-project counters
// in graph_index_state after a file finishes indexing.
func (idx *Indexer) bumpIndexState(ctx context.Context, projectID string, filesDelta, nodesDelta, edgesDelta int) error {
	_, err := idx.store.Execute(ctx, `
		UPDATE graph_index_state SET
			files_indexed = files_indexed + ?,
			nodes_count = nodes_count + ?,
			edges_count = edges_count + ?,
			last_indexed_at = ?
		WHERE project_id = ?`,
		filesDelta, nodesDelta, edgesDelta, time.Now().UTC().Format(time.RFC3339Nano), projectID)
	return err
}

func orEmptyStats(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}
