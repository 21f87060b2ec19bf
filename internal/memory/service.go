// Package memory implements MemoryService: memory CRUD, the
// BM25 search short-circuit, and delegation to the retrieval pipeline.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agentmemory/memoryd/internal/embedding"
	"github.com/agentmemory/memoryd/internal/model"
	"github.com/agentmemory/memoryd/internal/retrieval"
	"github.com/agentmemory/memoryd/internal/store"
)

// Service implements the MemoryService contract.
type Service struct {
	st        *store.Store
	embedding *embedding.Service
	pipeline  *retrieval.Pipeline
}

// New binds a MemoryService to its Store, EmbeddingService, and
// RetrievalPipeline. pipeline may be nil for callers that only need
// CRUD/storage operations (e.g. the indexer persisting code chunks);
// Search then falls back to the direct structural query path.
func New(st *store.Store, emb *embedding.Service, pipeline *retrieval.Pipeline) *Service {
	return &Service{st: st, embedding: emb, pipeline: pipeline}
}

// Store persists a new memory: generates a UUID, computes its contextual
// embedding at 1024 dims, and writes an atomic 3-statement batch (memories
// row, FTS row, embedding row). JSON-collection fields are serialized and
// numeric/bool defaults applied.
func (s *Service) Store(ctx context.Context, m *model.Memory) (string, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.LastAccessedAt.IsZero() {
		m.LastAccessedAt = now
	}
	if m.Confidence == 0 {
		m.Confidence = 0.5
	}
	if m.Scope == "" {
		m.Scope = model.ScopeModule
	}

	vector, err := s.embedding.EmbedMemory(ctx, m)
	if err != nil {
		return "", fmt.Errorf("embed memory: %w", err)
	}
	modelID := s.embedding.GetModelID(len(vector))
	m.EmbeddingModelID = modelID

	stmts, err := s.insertStatements(m, vector, modelID)
	if err != nil {
		return "", err
	}
	if err := s.st.Batch(ctx, stmts); err != nil {
		return "", fmt.Errorf("store memory: %w", err)
	}
	return m.ID, nil
}

// insertStatements builds the atomic triple-write: memories + FTS +
// embedding rows used for all memory insertions.
func (s *Service) insertStatements(m *model.Memory, vector []float32, modelID string) ([]store.Stmt, error) {
	provenance, err := json.Marshal(orEmptyStrings(m.ProvenanceSessionIDs))
	if err != nil {
		return nil, err
	}
	relatedFiles, err := json.Marshal(orEmptyStrings(m.RelatedFiles))
	if err != nil {
		return nil, err
	}
	relatedModules, err := json.Marshal(orEmptyStrings(m.RelatedModules))
	if err != nil {
		return nil, err
	}
	impacted, err := json.Marshal(orEmptyStrings(m.ImpactedNodeIDs))
	if err != nil {
		return nil, err
	}
	relations, err := json.Marshal(orEmptyRelations(m.Relations))
	if err != nil {
		return nil, err
	}

	var deprecatedAt, staleAt any
	if m.DeprecatedAt != nil {
		deprecatedAt = m.DeprecatedAt.UTC().Format(time.RFC3339Nano)
	}
	if m.StaleAt != nil {
		staleAt = m.StaleAt.UTC().Format(time.RFC3339Nano)
	}
	var decayHalfLife any
	if m.DecayHalfLife != nil {
		decayHalfLife = *m.DecayHalfLife
	}

	memStmt := store.Stmt{
		SQL: `INSERT INTO memories(
			id, type, content, citation, confidence, access_count, created_at, last_accessed_at,
			decay_half_life_days, project_id, scope, session_id, provenance_session_ids, work_unit_ref,
			methodology, related_files, related_modules, target_node_id, impacted_node_ids, relations,
			source, pinned, needs_review, user_verified, deprecated, deprecated_at, stale_at,
			chunk_type, chunk_start_line, chunk_end_line, context_prefix, embedding_model_id
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		Args: []any{
			m.ID, string(m.Type), m.Content, m.Citation, m.Confidence, m.AccessCount,
			m.CreatedAt.Format(time.RFC3339Nano), m.LastAccessedAt.Format(time.RFC3339Nano),
			decayHalfLife, m.ProjectID, string(m.Scope), nullIfEmpty(m.SessionID), string(provenance),
			nullIfEmpty(m.WorkUnitRef), nullIfEmpty(m.Methodology), string(relatedFiles), string(relatedModules),
			nullIfEmpty(m.TargetNodeID), string(impacted), string(relations),
			nullIfEmpty(m.Source), m.Pinned, m.NeedsReview, m.UserVerified, m.Deprecated, deprecatedAt, staleAt,
			nullIfEmpty(m.ChunkType), zeroToNil(m.ChunkStartLine), zeroToNil(m.ChunkEndLine),
			nullIfEmpty(m.ContextPrefix), nullIfEmpty(modelID),
		},
	}

	ftsStmt := store.Stmt{
		SQL:  `INSERT INTO memories_fts(memory_id, content, tags, related_files) VALUES (?,?,?,?)`,
		Args: []any{m.ID, m.Content, joinTags(m.Tags()), string(relatedFiles)},
	}

	embStmt := store.Stmt{
		SQL:  `INSERT INTO memory_embeddings(memory_id, vector, model_id, dims) VALUES (?,?,?,?)`,
		Args: []any{m.ID, store.EncodeVector(vector), modelID, len(vector)},
	}

	return []store.Stmt{memStmt, ftsStmt, embStmt}, nil
}

func orEmptyStrings(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

func orEmptyRelations(rs []model.Relation) []model.Relation {
	if rs == nil {
		return []model.Relation{}
	}
	return rs
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func zeroToNil(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func joinTags(tags []string) string {
	b, _ := json.Marshal(tags)
	return string(b)
}
