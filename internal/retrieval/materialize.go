package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentmemory/memoryd/internal/model"
	"github.com/agentmemory/memoryd/internal/store"
)

// materialize fetches full memory rows for ids, preserving the given
// order and excluding deprecated rows,
// limited to maxResults.
func materialize(ctx context.Context, st *store.Store, ids []string, maxResults int) ([]model.Memory, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	byID := make(map[string]model.Memory, len(ids))
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	inClause := ""
	for i, p := range placeholders {
		if i > 0 {
			inClause += ","
		}
		inClause += p
	}

	rows, err := st.Query(ctx, fmt.Sprintf(`
		SELECT id, type, content, citation, confidence, access_count, created_at, last_accessed_at,
			decay_half_life_days, project_id, scope, session_id, provenance_session_ids, work_unit_ref,
			methodology, related_files, related_modules, target_node_id, impacted_node_ids, relations,
			source, pinned, needs_review, user_verified, deprecated, deprecated_at, stale_at,
			chunk_type, chunk_start_line, chunk_end_line, context_prefix, embedding_model_id
		FROM memories WHERE id IN (%s) AND deprecated = 0`, inClause), args...)
	if err != nil {
		return nil, fmt.Errorf("materialize memories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		byID[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]model.Memory, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			out = append(out, m)
		}
		if len(out) >= maxResults {
			break
		}
	}
	return out, nil
}

type rowsScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row rowsScanner) (model.Memory, error) {
	var m model.Memory
	var typ, scope string
	var citation, sessionID, workUnitRef, methodology, targetNodeID, source, chunkType, contextPrefix, embModel nullableStr
	var decayHalfLife nullableFloat
	var chunkStart, chunkEnd nullableInt
	var createdAt, lastAccessedAt string
	var deprecatedAt, staleAt nullableStr
	var provenance, relatedFiles, relatedModules, impacted, relations string

	if err := row.Scan(
		&m.ID, &typ, &m.Content, &citation, &m.Confidence, &m.AccessCount, &createdAt, &lastAccessedAt,
		&decayHalfLife, &m.ProjectID, &scope, &sessionID, &provenance, &workUnitRef,
		&methodology, &relatedFiles, &relatedModules, &targetNodeID, &impacted, &relations,
		&source, &m.Pinned, &m.NeedsReview, &m.UserVerified, &m.Deprecated, &deprecatedAt, &staleAt,
		&chunkType, &chunkStart, &chunkEnd, &contextPrefix, &embModel,
	); err != nil {
		return m, err
	}

	m.Type = model.MemoryType(typ)
	m.Scope = model.MemoryScope(scope)
	if citation.valid {
		m.Citation = &citation.s
	}
	if sessionID.valid {
		m.SessionID = sessionID.s
	}
	if workUnitRef.valid {
		m.WorkUnitRef = workUnitRef.s
	}
	if methodology.valid {
		m.Methodology = methodology.s
	}
	if targetNodeID.valid {
		m.TargetNodeID = targetNodeID.s
	}
	if source.valid {
		m.Source = source.s
	}
	if chunkType.valid {
		m.ChunkType = chunkType.s
	}
	if contextPrefix.valid {
		m.ContextPrefix = contextPrefix.s
	}
	if embModel.valid {
		m.EmbeddingModelID = embModel.s
	}
	if decayHalfLife.valid {
		v := decayHalfLife.v
		m.DecayHalfLife = &v
	}
	if chunkStart.valid {
		m.ChunkStartLine = chunkStart.v
	}
	if chunkEnd.valid {
		m.ChunkEndLine = chunkEnd.v
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		m.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, lastAccessedAt); err == nil {
		m.LastAccessedAt = t
	}
	if deprecatedAt.valid {
		if t, err := time.Parse(time.RFC3339Nano, deprecatedAt.s); err == nil {
			m.DeprecatedAt = &t
		}
	}
	if staleAt.valid {
		if t, err := time.Parse(time.RFC3339Nano, staleAt.s); err == nil {
			m.StaleAt = &t
		}
	}

	_ = json.Unmarshal([]byte(provenance), &m.ProvenanceSessionIDs)
	_ = json.Unmarshal([]byte(relatedFiles), &m.RelatedFiles)
	_ = json.Unmarshal([]byte(relatedModules), &m.RelatedModules)
	_ = json.Unmarshal([]byte(impacted), &m.ImpactedNodeIDs)
	_ = json.Unmarshal([]byte(relations), &m.Relations)

	return m, nil
}

type nullableStr struct {
	s     string
	valid bool
}

func (n *nullableStr) Scan(src any) error {
	if src == nil {
		n.valid = false
		return nil
	}
	switch v := src.(type) {
	case string:
		n.s, n.valid = v, true
	case []byte:
		n.s, n.valid = string(v), true
	}
	return nil
}

type nullableFloat struct {
	v     float64
	valid bool
}

func (n *nullableFloat) Scan(src any) error {
	if src == nil {
		n.valid = false
		return nil
	}
	switch v := src.(type) {
	case float64:
		n.v, n.valid = v, true
	case int64:
		n.v, n.valid = float64(v), true
	}
	return nil
}

type nullableInt struct {
	v     int
	valid bool
}

func (n *nullableInt) Scan(src any) error {
	if src == nil {
		n.valid = false
		return nil
	}
	switch v := src.(type) {
	case int64:
		n.v, n.valid = int(v), true
	case float64:
		n.v, n.valid = int(v), true
	}
	return nil
}
