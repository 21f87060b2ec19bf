// Package indexer provides async job management for code indexing.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/agentmemory/memoryd/internal/model"
)

// JobManager manages asynchronous indexing jobs, queuing cold-start walks
// so the MCP tool surface can return immediately and poll for status.
type JobManager struct {
	indexer *Indexer

	mu      sync.RWMutex
	jobs    map[string]*Job
	running map[string]context.CancelFunc

	jobQueue chan *Job
	quit     chan struct{}
	wg       sync.WaitGroup

	maxConcurrentJobs int
}

// Job represents an indexing job.
type Job struct {
	ID           string
	ProjectID    string
	ProjectPath  string
	ProjectName  string
	Status       model.IndexingStatus
	Progress     float64
	FilesTotal   int
	FilesIndexed int
	NodesFound   int
	StartedAt    time.Time
	CompletedAt  *time.Time
	Error        *string
	CreatedAt    time.Time
}

// JobManagerConfig holds configuration for the job manager.
type JobManagerConfig struct {
	MaxConcurrentJobs int
	QueueSize         int
}

// DefaultJobManagerConfig returns sensible defaults.
func DefaultJobManagerConfig() JobManagerConfig {
	return JobManagerConfig{
		MaxConcurrentJobs: 2,
		QueueSize:         100,
	}
}

// NewJobManager wraps an already-constructed Indexer with a bounded
// worker pool of cold-start jobs.
func NewJobManager(idx *Indexer, config JobManagerConfig) *JobManager {
	jm := &JobManager{
		indexer:           idx,
		jobs:              make(map[string]*Job),
		running:           make(map[string]context.CancelFunc),
		jobQueue:          make(chan *Job, config.QueueSize),
		quit:              make(chan struct{}),
		maxConcurrentJobs: config.MaxConcurrentJobs,
	}

	jm.wg.Add(config.MaxConcurrentJobs)
	for i := 0; i < config.MaxConcurrentJobs; i++ {
		go jm.worker()
	}

	return jm
}

// SubmitJob submits a new indexing job.
func (jm *JobManager) SubmitJob(projectPath, projectName string) (*Job, error) {
	jobID := fmt.Sprintf("job_%d", time.Now().UnixNano())

	job := &Job{
		ID:          jobID,
		ProjectPath: projectPath,
		ProjectName: projectName,
		Status:      model.IndexingStatusPending,
		CreatedAt:   time.Now(),
	}

	jm.mu.Lock()
	jm.jobs[jobID] = job
	jm.mu.Unlock()

	select {
	case jm.jobQueue <- job:
		slog.Info("job queued", "job_id", jobID, "project_path", projectPath)
		return job, nil
	default:
		jm.mu.Lock()
		delete(jm.jobs, jobID)
		jm.mu.Unlock()
		return nil, fmt.Errorf("job queue is full")
	}
}

func (jm *JobManager) worker() {
	defer jm.wg.Done()

	for {
		select {
		case <-jm.quit:
			return
		case job := <-jm.jobQueue:
			jm.processJob(job)
		}
	}
}

func (jm *JobManager) processJob(job *Job) {
	ctx, cancel := context.WithCancel(context.Background())

	jm.mu.Lock()
	jm.running[job.ID] = cancel
	job.Status = model.IndexingStatusInProgress
	job.StartedAt = time.Now()
	jm.mu.Unlock()

	defer func() {
		jm.mu.Lock()
		delete(jm.running, job.ID)
		jm.mu.Unlock()
		cancel()
	}()

	slog.Info("job started", "job_id", job.ID, "project_path", job.ProjectPath)

	projectID, err := jm.indexer.IndexProject(ctx, job.ProjectPath, job.ProjectName)

	jm.mu.Lock()
	job.ProjectID = projectID
	now := time.Now()
	job.CompletedAt = &now

	if err != nil {
		errStr := err.Error()
		job.Error = &errStr
		job.Status = model.IndexingStatusFailed
		slog.Warn("job failed", "job_id", job.ID, "error", err)
	} else {
		job.Status = model.IndexingStatusCompleted
		if progress := jm.indexer.GetProgress(projectID); progress != nil {
			job.FilesTotal = progress.FilesTotal
			job.FilesIndexed = progress.FilesIndexed
			job.NodesFound = progress.NodesFound
		}
		slog.Info("job completed", "job_id", job.ID, "files_indexed", job.FilesIndexed)
	}
	jobCopy := *job
	jm.mu.Unlock()

	indexingJob := &model.IndexingJob{
		ID: jobCopy.ID, ProjectID: jobCopy.ProjectID, ProjectPath: jobCopy.ProjectPath,
		Status: jobCopy.Status, Progress: 100.0, FilesTotal: jobCopy.FilesTotal,
		FilesIndexed: jobCopy.FilesIndexed, StartedAt: jobCopy.StartedAt,
		CompletedAt: jobCopy.CompletedAt, Error: jobCopy.Error,
	}
	if err := jm.indexer.persistIndexingJob(ctx, indexingJob); err != nil {
		slog.Warn("failed to persist job record", "job_id", job.ID, "error", err)
	}
}

// GetJob returns a job by ID from the in-process registry.
func (jm *JobManager) GetJob(jobID string) *Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	if job, ok := jm.jobs[jobID]; ok {
		cp := *job
		return &cp
	}
	return nil
}

// GetJobStatus returns the current status of a job, falling back to the
// persisted record for jobs from a prior process lifetime.
func (jm *JobManager) GetJobStatus(jobID string) (*Job, error) {
	jm.mu.RLock()
	job, exists := jm.jobs[jobID]
	jm.mu.RUnlock()

	if !exists {
		dbJob, err := jm.indexer.getIndexingJob(context.Background(), jobID)
		if err != nil {
			return nil, fmt.Errorf("failed to get job: %w", err)
		}
		return &Job{
			ID: dbJob.ID, ProjectID: dbJob.ProjectID, ProjectPath: dbJob.ProjectPath,
			Status: dbJob.Status, Progress: dbJob.Progress, FilesTotal: dbJob.FilesTotal,
			FilesIndexed: dbJob.FilesIndexed, StartedAt: dbJob.StartedAt,
			CompletedAt: dbJob.CompletedAt, Error: dbJob.Error,
		}, nil
	}

	if job.Status == model.IndexingStatusInProgress {
		if progress := jm.indexer.GetProgress(job.ProjectID); progress != nil {
			job.FilesTotal = progress.FilesTotal
			job.FilesIndexed = progress.FilesIndexed
			job.NodesFound = progress.NodesFound
			if progress.FilesTotal > 0 {
				job.Progress = float64(progress.FilesIndexed) / float64(progress.FilesTotal) * 100
			}
		}
	}

	cp := *job
	return &cp, nil
}

// ListActiveJobs returns all currently pending/in-progress jobs.
func (jm *JobManager) ListActiveJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	jobs := make([]*Job, 0)
	for _, job := range jm.jobs {
		if job.Status == model.IndexingStatusPending || job.Status == model.IndexingStatusInProgress {
			cp := *job
			jobs = append(jobs, &cp)
		}
	}
	return jobs
}

// ListAllJobs returns all jobs tracked this process lifetime.
func (jm *JobManager) ListAllJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	jobs := make([]*Job, 0, len(jm.jobs))
	for _, job := range jm.jobs {
		cp := *job
		jobs = append(jobs, &cp)
	}
	return jobs
}

// CancelJob attempts to cancel a running job.
func (jm *JobManager) CancelJob(jobID string) error {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	cancel, ok := jm.running[jobID]
	if !ok {
		return fmt.Errorf("job not running: %s", jobID)
	}
	cancel()

	if job, ok := jm.jobs[jobID]; ok {
		job.Status = model.IndexingStatusCancelled
		errStr := "cancelled by user"
		job.Error = &errStr
		now := time.Now()
		job.CompletedAt = &now
	}

	slog.Info("job cancelled", "job_id", jobID)
	return nil
}

// Stop gracefully stops the job manager.
func (jm *JobManager) Stop() {
	close(jm.quit)

	jm.mu.Lock()
	for _, cancel := range jm.running {
		cancel()
	}
	jm.mu.Unlock()

	jm.wg.Wait()
	slog.Info("job manager stopped")
}

// CleanupOldJobs removes completed jobs older than the specified duration.
func (jm *JobManager) CleanupOldJobs(olderThan time.Duration) int {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	removed := 0

	for id, job := range jm.jobs {
		terminal := job.Status == model.IndexingStatusCompleted ||
			job.Status == model.IndexingStatusFailed ||
			job.Status == model.IndexingStatusCancelled
		if terminal && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(jm.jobs, id)
			removed++
		}
	}

	return removed
}

// GetIndexer returns the underlying indexer.
func (jm *JobManager) GetIndexer() *Indexer {
	return jm.indexer
}

// ReindexProject queues a project for re-indexing.
func (jm *JobManager) ReindexProject(ctx context.Context, projectID string) (*Job, error) {
	project, err := jm.indexer.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if project == nil {
		return nil, fmt.Errorf("project not found: %s", projectID)
	}
	return jm.SubmitJob(project.RootPath, project.Name)
}
