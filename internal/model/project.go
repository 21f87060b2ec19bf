package model

import "time"

// IndexingStatus is the lifecycle state of a code project's index.
type IndexingStatus string

const (
	IndexingStatusPending    IndexingStatus = "pending"
	IndexingStatusInProgress IndexingStatus = "in_progress"
	IndexingStatusCompleted  IndexingStatus = "completed"
	IndexingStatusFailed     IndexingStatus = "failed"
	IndexingStatusCancelled  IndexingStatus = "cancelled"
)

// CodeProject is a registered project root the indexer watches and
// extracts a code graph from.
type CodeProject struct {
	ProjectID      string
	Name           string
	RootPath       string
	LanguageStats  map[string]int
	LastIndexedAt  *time.Time
	IndexingStatus IndexingStatus
	WatcherEnabled bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IndexState tracks the running counters graph_index_state persists
// per project.
type IndexState struct {
	ProjectID     string
	FilesIndexed  int
	NodesCount    int
	EdgesCount    int
	LastIndexedAt *time.Time
}

// IndexingJob is one cold-start or reindex run, persisted so progress
// survives process restarts.
type IndexingJob struct {
	ID           string
	ProjectID    string
	ProjectPath  string
	Status       IndexingStatus
	Progress     float64
	FilesTotal   int
	FilesIndexed int
	StartedAt    time.Time
	CompletedAt  *time.Time
	Error        *string
}
