// Package model holds the entity types shared across the store, graph,
// embedding, retrieval, and indexer packages.
package model

import "time"

// MemoryType classifies the semantics of a Memory row. The set is
// extensible by string tag but these carry special meaning to filters
// and formatters.
type MemoryType string

const (
	MemoryTypeGotcha           MemoryType = "gotcha"
	MemoryTypeErrorPattern     MemoryType = "error_pattern"
	MemoryTypeDeadEnd          MemoryType = "dead_end"
	MemoryTypePreference       MemoryType = "preference"
	MemoryTypeDecision         MemoryType = "decision"
	MemoryTypePattern          MemoryType = "pattern"
	MemoryTypeWorkflowRecipe   MemoryType = "workflow_recipe"
	MemoryTypeTaskCalibration  MemoryType = "task_calibration"
	MemoryTypeCausalDependency MemoryType = "causal_dependency"
	MemoryTypeWorkUnitOutcome  MemoryType = "work_unit_outcome"
	MemoryTypeE2EObservation   MemoryType = "e2e_observation"
	MemoryTypeRequirement      MemoryType = "requirement"

	// MemoryTypeCodeChunk marks a memory row materialized from an ASTChunk
	// by the indexer rather than recorded directly by the agent loop.
	MemoryTypeCodeChunk MemoryType = "code_chunk"
)

// MemoryScope controls visibility of a memory beyond its project.
type MemoryScope string

const (
	ScopeGlobal MemoryScope = "global"
	ScopeModule MemoryScope = "module"
)

// MemorySource records how a memory entered the system: record_memory
// sets agent_recorded, InsertUserTaught sets user_taught, and the
// Observer's error-pattern promotion sets observer_promotion.
type MemorySource string

const (
	SourceAgentRecorded MemorySource = "agent_recorded"
	SourceUserTaught    MemorySource = "user_taught"
	SourceObserverPromo MemorySource = "observer_promotion"
)

// Relation is a structured edge from a Memory to another memory.
type Relation struct {
	TargetMemoryID string `json:"targetMemoryId"`
	Type           string `json:"type"`
}

// Memory is a durable unit of agent-extracted knowledge.
type Memory struct {
	ID   string     `json:"id"`
	Type MemoryType `json:"type"`

	Content  string  `json:"content"`
	Citation *string `json:"citation,omitempty"`

	Confidence     float64   `json:"confidence"`
	AccessCount    int       `json:"accessCount"`
	CreatedAt      time.Time `json:"createdAt"`
	LastAccessedAt time.Time `json:"lastAccessedAt"`
	DecayHalfLife  *float64  `json:"decayHalfLifeDays,omitempty"`

	ProjectID            string      `json:"projectId"`
	Scope                MemoryScope `json:"scope"`
	SessionID            string      `json:"sessionId,omitempty"`
	ProvenanceSessionIDs []string    `json:"provenanceSessionIds,omitempty"`
	WorkUnitRef          string      `json:"workUnitRef,omitempty"`
	Methodology          string      `json:"methodology,omitempty"`

	RelatedFiles    []string   `json:"relatedFiles,omitempty"`
	RelatedModules  []string   `json:"relatedModules,omitempty"`
	TargetNodeID    string     `json:"targetNodeId,omitempty"`
	ImpactedNodeIDs []string   `json:"impactedNodeIds,omitempty"`
	Relations       []Relation `json:"relations,omitempty"`

	Source string `json:"source,omitempty"`

	Pinned       bool       `json:"pinned"`
	NeedsReview  bool       `json:"needsReview"`
	UserVerified bool       `json:"userVerified"`
	Deprecated   bool       `json:"deprecated"`
	DeprecatedAt *time.Time `json:"deprecatedAt,omitempty"`
	StaleAt      *time.Time `json:"staleAt,omitempty"`

	ChunkType        string `json:"chunkType,omitempty"`
	ChunkStartLine   int    `json:"chunkStartLine,omitempty"`
	ChunkEndLine     int    `json:"chunkEndLine,omitempty"`
	ContextPrefix    string `json:"contextPrefix,omitempty"`
	EmbeddingModelID string `json:"embeddingModelId,omitempty"`
}

// Tags returns the free-text tag surface indexed by FTS (derived, not
// stored separately): the memory type plus related files/modules.
func (m *Memory) Tags() []string {
	tags := []string{string(m.Type)}
	tags = append(tags, m.RelatedFiles...)
	tags = append(tags, m.RelatedModules...)
	return tags
}

// MemoryEmbedding is 1-to-1 with a Memory by id.
type MemoryEmbedding struct {
	MemoryID string    `json:"memoryId"`
	Vector   []float32 `json:"vector"`
	ModelID  string    `json:"modelId"`
	Dims     int       `json:"dims"`
}

// SearchFilters is the structural-filter contract for MemoryService.Search.
type SearchFilters struct {
	Query         string
	ProjectID     string
	Scope         MemoryScope
	Types         []MemoryType
	Sources       []string
	MinConfidence float64

	RelatedFiles []string

	Phase           string
	RecentFiles     []string
	RecentToolCalls []ToolCall

	// IncludeDeprecated opts into returning deprecated memories. Deprecated
	// memories are excluded by default (spec invariant: deprecated rows are
	// invisible to retrieval unless the caller explicitly disables the filter).
	IncludeDeprecated bool
	Sort              SortOrder
	Limit             int

	Filter func(*Memory) bool
}

// SortOrder controls ordering of structural search results.
type SortOrder string

const (
	SortRecency    SortOrder = "recency"
	SortConfidence SortOrder = "confidence"
	SortAccess     SortOrder = "access"
)

// ToolCall is a minimal description of a recent tool invocation, as seen
// by the observer, the decider, and the retrieval query classifier.
type ToolCall struct {
	ToolName   string            `json:"toolName"`
	Args       map[string]string `json:"args"`
	StepNumber int               `json:"stepNumber"`
}
