package indexer

import (
	"time"

	"github.com/agentmemory/memoryd/internal/model"
)

// IndexingProgress tracks the live (in-memory) progress of one project's
// indexing run; graph_index_state holds the durable counters (
// step 11).
type IndexingProgress struct {
	ProjectID    string
	Status       model.IndexingStatus
	FilesTotal   int
	FilesIndexed int
	NodesFound   int
	EdgesFound   int
	CurrentFile  string
	StartedAt    time.Time
	UpdatedAt    time.Time
	Error        *string
}

func (idx *Indexer) initProgress(projectID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.progress[projectID] = &IndexingProgress{
		ProjectID: projectID,
		Status:    model.IndexingStatusInProgress,
		StartedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func (idx *Indexer) updateProgress(projectID string, fn func(p *IndexingProgress)) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if p, ok := idx.progress[projectID]; ok {
		fn(p)
		p.UpdatedAt = time.Now()
	}
}

func (idx *Indexer) setError(projectID string, err error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if p, ok := idx.progress[projectID]; ok {
		errStr := err.Error()
		p.Error = &errStr
		p.Status = model.IndexingStatusFailed
		p.UpdatedAt = time.Now()
	}
}

// GetProgress returns the current progress for a project, or nil.
func (idx *Indexer) GetProgress(projectID string) *IndexingProgress {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if p, ok := idx.progress[projectID]; ok {
		cp := *p
		return &cp
	}
	return nil
}

// GetAllProgress returns progress for every project tracked this process
// lifetime.
func (idx *Indexer) GetAllProgress() map[string]*IndexingProgress {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	result := make(map[string]*IndexingProgress)
	for k, v := range idx.progress {
		cp := *v
		result[k] = &cp
	}
	return result
}

// ClearProgress removes in-memory progress tracking for a project.
func (idx *Indexer) ClearProgress(projectID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.progress, projectID)
}
