package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/agentmemory/memoryd/internal/model"
)

// persistIndexingJob upserts a durable record of a job into indexing_jobs,
// independent of the JobManager's in-memory Job (which also tracks
// ProjectName/NodesFound that are not part of the persisted schema).
func (idx *Indexer) persistIndexingJob(ctx context.Context, job *model.IndexingJob) error {
	var completedAt any
	if job.CompletedAt != nil {
		completedAt = job.CompletedAt.UTC().Format(time.RFC3339Nano)
	}
	var errStr any
	if job.Error != nil {
		errStr = *job.Error
	}

	_, err := idx.store.Execute(ctx, `
		INSERT INTO indexing_jobs(id, project_id, project_path, status, progress, files_total,
			files_indexed, started_at, completed_at, error)
		VALUES (?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			project_id=excluded.project_id, status=excluded.status, progress=excluded.progress,
			files_total=excluded.files_total, files_indexed=excluded.files_indexed,
			completed_at=excluded.completed_at, error=excluded.error`,
		job.ID, job.ProjectID, job.ProjectPath, string(job.Status), job.Progress, job.FilesTotal,
		job.FilesIndexed, job.StartedAt.UTC().Format(time.RFC3339Nano), completedAt, errStr)
	if err != nil {
		return fmt.Errorf("persist indexing job: %w", err)
	}
	return nil
}

// getIndexingJob loads a persisted job record, returning nil if not found.
func (idx *Indexer) getIndexingJob(ctx context.Context, jobID string) (*model.IndexingJob, error) {
	row := idx.store.QueryRow(ctx, `
		SELECT id, project_id, project_path, status, progress, files_total, files_indexed,
			started_at, completed_at, error
		FROM indexing_jobs WHERE id = ?`, jobID)

	var j model.IndexingJob
	var status, startedAt string
	var completedAt, errStr nullableString
	completedAt.dst = new(string)
	errStr.dst = new(string)

	if err := row.Scan(&j.ID, &j.ProjectID, &j.ProjectPath, &status, &j.Progress, &j.FilesTotal,
		&j.FilesIndexed, &startedAt, &completedAt, &errStr); err != nil {
		return nil, err
	}
	j.Status = model.IndexingStatus(status)
	if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
		j.StartedAt = t
	}
	if *completedAt.dst != "" {
		if t, err := time.Parse(time.RFC3339Nano, *completedAt.dst); err == nil {
			j.CompletedAt = &t
		}
	}
	if *errStr.dst != "" {
		e := *errStr.dst
		j.Error = &e
	}
	return &j, nil
}
