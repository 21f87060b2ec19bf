package memory

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/agentmemory/memoryd/internal/model"
)

// scanMemoryRow decodes one row of the memories table's full column list
// (see insertStatements) into a Memory, the read-side counterpart of
// Store's write path.
func scanMemoryRow(row *sql.Rows) (model.Memory, error) {
	var m model.Memory
	var typ, scope string
	var citation, sessionID, workUnitRef, methodology, targetNodeID, source, chunkType, contextPrefix, embModel sql.NullString
	var decayHalfLife sql.NullFloat64
	var chunkStart, chunkEnd sql.NullInt64
	var createdAt, lastAccessedAt string
	var deprecatedAt, staleAt sql.NullString
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
	if citation.Valid {
		m.Citation = &citation.String
	}
	m.SessionID = sessionID.String
	m.WorkUnitRef = workUnitRef.String
	m.Methodology = methodology.String
	m.TargetNodeID = targetNodeID.String
	m.Source = source.String
	m.ChunkType = chunkType.String
	m.ContextPrefix = contextPrefix.String
	m.EmbeddingModelID = embModel.String

	if decayHalfLife.Valid {
		v := decayHalfLife.Float64
		m.DecayHalfLife = &v
	}
	if chunkStart.Valid {
		m.ChunkStartLine = int(chunkStart.Int64)
	}
	if chunkEnd.Valid {
		m.ChunkEndLine = int(chunkEnd.Int64)
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		m.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, lastAccessedAt); err == nil {
		m.LastAccessedAt = t
	}
	if deprecatedAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, deprecatedAt.String); err == nil {
			m.DeprecatedAt = &t
		}
	}
	if staleAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, staleAt.String); err == nil {
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
