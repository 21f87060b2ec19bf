package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agentmemory/memoryd/internal/model"
	"github.com/agentmemory/memoryd/internal/retrieval"
)

// SearchResult is the output of Search: materialized memories plus,
// when the query delegated to the retrieval pipeline, its markdown
// rendering.
type SearchResult struct {
	Memories         []model.Memory
	FormattedContext string
}

// Search implements "search(filters) -> memories": when a
// free-text query is present it delegates to the RetrievalPipeline,
// otherwise it runs a direct structural query over the given filters.
func (s *Service) Search(ctx context.Context, f model.SearchFilters) (*SearchResult, error) {
	if strings.TrimSpace(f.Query) != "" && s.pipeline != nil {
		toolNames := make([]string, len(f.RecentToolCalls))
		for i, t := range f.RecentToolCalls {
			toolNames[i] = t.ToolName
		}
		limit := f.Limit
		if limit <= 0 {
			limit = 8
		}
		res, err := s.pipeline.Search(ctx, f.Query, retrieval.Options{
			ProjectID:       f.ProjectID,
			Phase:           f.Phase,
			MaxResults:      limit,
			RecentFiles:     f.RecentFiles,
			RecentToolCalls: toolNames,
		})
		if err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
		return &SearchResult{Memories: res.Memories, FormattedContext: res.FormattedContext}, nil
	}

	memories, err := s.structuralSearch(ctx, f)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Memories: memories}, nil
}

// structuralSearch implements the non-query branch search:
// direct SQL filtering by project, scope, type, source and confidence,
// excluding deprecated rows by default, sorted by the requested order.
func (s *Service) structuralSearch(ctx context.Context, f model.SearchFilters) ([]model.Memory, error) {
	var where []string
	var args []any

	if f.ProjectID != "" {
		where = append(where, "project_id = ?")
		args = append(args, f.ProjectID)
	}
	if f.Scope != "" {
		where = append(where, "scope = ?")
		args = append(args, string(f.Scope))
	}
	if len(f.Types) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(f.Types)), ",")
		where = append(where, fmt.Sprintf("type IN (%s)", placeholders))
		for _, t := range f.Types {
			args = append(args, string(t))
		}
	}
	if len(f.Sources) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(f.Sources)), ",")
		where = append(where, fmt.Sprintf("source IN (%s)", placeholders))
		for _, src := range f.Sources {
			args = append(args, src)
		}
	}
	if f.MinConfidence > 0 {
		where = append(where, "confidence >= ?")
		args = append(args, f.MinConfidence)
	}
	if !f.IncludeDeprecated {
		where = append(where, "deprecated = 0")
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	orderBy := "last_accessed_at DESC"
	switch f.Sort {
	case model.SortConfidence:
		orderBy = "confidence DESC"
	case model.SortRecency:
		orderBy = "created_at DESC"
	case model.SortAccess:
		orderBy = "access_count DESC"
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT id, type, content, citation, confidence, access_count, created_at, last_accessed_at,
			decay_half_life_days, project_id, scope, session_id, provenance_session_ids, work_unit_ref,
			methodology, related_files, related_modules, target_node_id, impacted_node_ids, relations,
			source, pinned, needs_review, user_verified, deprecated, deprecated_at, stale_at,
			chunk_type, chunk_start_line, chunk_end_line, context_prefix, embedding_model_id
		FROM memories %s ORDER BY %s LIMIT ?`, whereClause, orderBy)

	rows, err := s.st.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("structural search: %w", err)
	}
	defer rows.Close()

	var out []model.Memory
	for rows.Next() {
		m, err := scanMemoryRow(rows)
		if err != nil {
			return nil, err
		}
		if f.Filter != nil && !f.Filter(&m) {
			continue
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SearchByPattern implements "searchByPattern": a BM25-only
// top-1 short-circuit used by the StepInjectionDecider's search
// trigger, bypassing the fused pipeline entirely for latency.
func (s *Service) SearchByPattern(ctx context.Context, projectID, pattern string) (*model.Memory, error) {
	b, err := json.Marshal(pattern)
	if err != nil {
		return nil, err
	}
	rows, err := s.st.Query(ctx, `
		SELECT m.id, m.type, m.content, m.citation, m.confidence, m.access_count, m.created_at, m.last_accessed_at,
			m.decay_half_life_days, m.project_id, m.scope, m.session_id, m.provenance_session_ids, m.work_unit_ref,
			m.methodology, m.related_files, m.related_modules, m.target_node_id, m.impacted_node_ids, m.relations,
			m.source, m.pinned, m.needs_review, m.user_verified, m.deprecated, m.deprecated_at, m.stale_at,
			m.chunk_type, m.chunk_start_line, m.chunk_end_line, m.context_prefix, m.embedding_model_id
		FROM memories_fts f
		JOIN memories m ON m.id = f.memory_id
		WHERE memories_fts MATCH ? AND m.project_id = ? AND m.deprecated = 0
		ORDER BY bm25(memories_fts) ASC
		LIMIT 1`, string(b), projectID)
	if err != nil {
		return nil, fmt.Errorf("search by pattern: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	m, err := scanMemoryRow(rows)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// InsertUserTaught implements "insertUserTaught": a preference
// memory recorded directly by the user rather than inferred by the
// agent, stored at full confidence and global scope.
func (s *Service) InsertUserTaught(ctx context.Context, content, projectID string, tags []string) (string, error) {
	m := &model.Memory{
		Type:           model.MemoryTypePreference,
		Content:        content,
		ProjectID:      projectID,
		Scope:          model.ScopeGlobal,
		Source:         string(model.SourceUserTaught),
		Confidence:     1.0,
		RelatedModules: tags,
	}
	return s.Store(ctx, m)
}

// SearchWorkflowRecipe implements "searchWorkflowRecipe":
// retrieval-pipeline search scoped to the implement phase, oversampled
// to compensate for the workflow_recipe type filter applied after
// fusion.
func (s *Service) SearchWorkflowRecipe(ctx context.Context, projectID, description string, limit int) ([]model.Memory, error) {
	if limit <= 0 {
		limit = 5
	}
	if s.pipeline == nil {
		return nil, nil
	}
	res, err := s.pipeline.Search(ctx, description, retrieval.Options{
		ProjectID:  projectID,
		Phase:      "implement",
		MaxResults: limit * 3,
	})
	if err != nil {
		return nil, fmt.Errorf("search workflow recipe: %w", err)
	}

	var out []model.Memory
	for _, m := range res.Memories {
		if m.Type == model.MemoryTypeWorkflowRecipe {
			out = append(out, m)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
