package mcp_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
)

func (tm *ToolManager) registerCodeTools(reg registerFunc) error {
	if err := reg("index_project", tm.indexProjectTool(), tm.indexProjectHandler); err != nil {
		return err
	}
	if err := reg("index_status", tm.indexStatusTool(), tm.indexStatusHandler); err != nil {
		return err
	}
	if err := reg("list_projects", tm.listProjectsTool(), tm.listProjectsHandler); err != nil {
		return err
	}
	if err := reg("delete_project", tm.deleteProjectTool(), tm.deleteProjectHandler); err != nil {
		return err
	}
	if err := reg("reindex_file", tm.reindexFileTool(), tm.reindexFileHandler); err != nil {
		return err
	}
	return nil
}

func (tm *ToolManager) indexProjectTool() *protocol.Tool {
	tool, err := protocol.NewTool("index_project", `Start a cold-start index of a code project.

Explanation: Queues a background job that walks the project tree, extracts ASTs, and builds the code graph and code_chunk memories. Returns immediately with a job id; poll index_status to track progress.

When to call: The first time a project is opened, or after cloning/checking out a project that has never been indexed.

Example arguments/values:
	project_path: "/home/user/projects/widget"
	project_name: "widget"
`, IndexProjectInput{})
	if err != nil {
		slog.Error("failed to create tool", "name", "index_project", "err", err)
		return nil
	}
	return tool
}

func (tm *ToolManager) indexProjectHandler(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var input IndexProjectInput
	if err := json.Unmarshal(request.RawArguments, &input); err != nil {
		return nil, fmt.Errorf(errParseArgs, err)
	}
	if input.ProjectPath == "" {
		return nil, fmt.Errorf("project_path is required")
	}

	job, err := tm.jobManager.SubmitJob(input.ProjectPath, input.ProjectName)
	if err != nil {
		return nil, fmt.Errorf("failed to start indexing: %w", err)
	}

	payload := map[string]any{
		"message":    fmt.Sprintf("indexing started for %s", input.ProjectPath),
		"job_id":     job.ID,
		"status":     string(job.Status),
		"created_at": job.CreatedAt,
	}
	return protocol.NewCallToolResult([]protocol.Content{
		&protocol.TextContent{Type: "text", Text: MarshalTOON(payload)},
	}, false), nil
}

func (tm *ToolManager) indexStatusTool() *protocol.Tool {
	tool, err := protocol.NewTool("index_status", `Check the status of a cold-start indexing job, or list all active jobs.

Explanation: With job_id set, returns that job's progress, files indexed, and nodes found. Without it, lists every currently running or queued job.

Example arguments/values:
	job_id: "job_1700000000000000000"
`, IndexStatusInput{})
	if err != nil {
		slog.Error("failed to create tool", "name", "index_status", "err", err)
		return nil
	}
	return tool
}

func (tm *ToolManager) indexStatusHandler(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var input IndexStatusInput
	if err := json.Unmarshal(request.RawArguments, &input); err != nil {
		return nil, fmt.Errorf(errParseArgs, err)
	}

	if input.JobID != "" {
		job, err := tm.jobManager.GetJobStatus(input.JobID)
		if err != nil {
			return nil, fmt.Errorf("failed to get job status: %w", err)
		}
		return protocol.NewCallToolResult([]protocol.Content{
			&protocol.TextContent{Type: "text", Text: MarshalTOON(job)},
		}, false), nil
	}

	jobs := tm.jobManager.ListActiveJobs()
	payload := map[string]any{"active_jobs": jobs, "count": len(jobs)}
	return protocol.NewCallToolResult([]protocol.Content{
		&protocol.TextContent{Type: "text", Text: MarshalTOON(payload)},
	}, false), nil
}

func (tm *ToolManager) listProjectsTool() *protocol.Tool {
	tool, err := protocol.NewTool("list_projects", `List every registered code project.

Explanation: Returns each project's id, root path, indexing status, and per-language file counts.

When to call: To discover a project's id before calling index_status, delete_project, or a watch tool.
`, struct{}{})
	if err != nil {
		slog.Error("failed to create tool", "name", "list_projects", "err", err)
		return nil
	}
	return tool
}

func (tm *ToolManager) listProjectsHandler(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	projects, err := tm.indexer.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	if len(projects) == 0 {
		return protocol.NewCallToolResult([]protocol.Content{
			&protocol.TextContent{Type: "text", Text: CreateEmptyResultTOON("no code projects indexed", tm.projectAlternatives(ctx, ""))},
		}, false), nil
	}

	payload := map[string]any{"projects": projects, "count": len(projects)}
	return protocol.NewCallToolResult([]protocol.Content{
		&protocol.TextContent{Type: "text", Text: MarshalTOON(payload)},
	}, false), nil
}

func (tm *ToolManager) deleteProjectTool() *protocol.Tool {
	tool, err := protocol.NewTool("delete_project", `Delete a registered project and its graph/index rows.

Explanation: Removes the code_projects row, all of its graph nodes, edges and closure rows, and its index state, and stops the watcher if it is watching this project. Memories recorded about the project are left in place.

Example arguments/values:
	project_id: "proj_abcd"
`, ProjectIDInput{})
	if err != nil {
		slog.Error("failed to create tool", "name", "delete_project", "err", err)
		return nil
	}
	return tool
}

func (tm *ToolManager) deleteProjectHandler(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var input ProjectIDInput
	if err := json.Unmarshal(request.RawArguments, &input); err != nil {
		return nil, fmt.Errorf(errParseArgs, err)
	}
	if input.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}
	if tm.watcherManager != nil && tm.watcherManager.IsProjectActive(input.ProjectID) {
		if _, err := tm.watcherManager.DeactivateProject(ctx, input.ProjectID); err != nil {
			slog.Warn("failed to stop watcher for deleted project", "project_id", input.ProjectID, "err", err)
		}
	}
	if err := tm.jobManager.GetIndexer().DeleteProject(ctx, input.ProjectID); err != nil {
		return nil, fmt.Errorf("failed to delete project: %w", err)
	}
	return protocol.NewCallToolResult([]protocol.Content{
		&protocol.TextContent{Type: "text", Text: fmt.Sprintf("deleted project %s", input.ProjectID)},
	}, false), nil
}

func (tm *ToolManager) reindexFileTool() *protocol.Tool {
	tool, err := protocol.NewTool("reindex_file", `Re-extract and re-index a single file.

Explanation: Runs the same extract-upsert-resolve-sweep pipeline as the file watcher, for one file, synchronously.

When to call: After an external edit to a file the watcher missed (watcher disabled, or edit made outside the process).

Example arguments/values:
	project_id: "proj_abcd"
	file_path: "internal/store/store.go"
`, ReindexFileInput{})
	if err != nil {
		slog.Error("failed to create tool", "name", "reindex_file", "err", err)
		return nil
	}
	return tool
}

func (tm *ToolManager) reindexFileHandler(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var input ReindexFileInput
	if err := json.Unmarshal(request.RawArguments, &input); err != nil {
		return nil, fmt.Errorf(errParseArgs, err)
	}
	if input.ProjectID == "" || input.FilePath == "" {
		return nil, fmt.Errorf("project_id and file_path are required")
	}
	if err := tm.jobManager.GetIndexer().ReindexFile(ctx, input.ProjectID, input.FilePath); err != nil {
		return nil, fmt.Errorf("failed to reindex file: %w", err)
	}
	return protocol.NewCallToolResult([]protocol.Content{
		&protocol.TextContent{Type: "text", Text: fmt.Sprintf("reindexed %s", input.FilePath)},
	}, false), nil
}
