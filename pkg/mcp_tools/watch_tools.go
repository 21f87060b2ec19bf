package mcp_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
)

func (tm *ToolManager) registerWatchTools(reg registerFunc) error {
	if err := reg("activate_project_watch", tm.activateProjectWatchTool(), tm.activateProjectWatchHandler); err != nil {
		return err
	}
	if err := reg("deactivate_project_watch", tm.deactivateProjectWatchTool(), tm.deactivateProjectWatchHandler); err != nil {
		return err
	}
	if err := reg("get_watch_status", tm.getWatchStatusTool(), tm.getWatchStatusHandler); err != nil {
		return err
	}
	return nil
}

func (tm *ToolManager) activateProjectWatchTool() *protocol.Tool {
	tool, err := protocol.NewTool("activate_project_watch", `Start watching a project for live file changes.

Explanation: Only one project can be actively watched at a time; activating a new one deactivates whatever was active. On activation, files changed while unwatched are scanned and reindexed.

Example arguments/values:
	project_id: "proj_abcd"
`, WatchProjectInput{})
	if err != nil {
		slog.Error("failed to create tool", "name", "activate_project_watch", "err", err)
		return nil
	}
	return tool
}

func (tm *ToolManager) activateProjectWatchHandler(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var input WatchProjectInput
	if err := json.Unmarshal(request.RawArguments, &input); err != nil {
		return nil, fmt.Errorf(errParseArgs, err)
	}
	if input.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}

	outdated, previous, err := tm.watcherManager.ActivateProject(ctx, input.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to activate watch: %w", err)
	}

	payload := map[string]any{
		"project_id":         input.ProjectID,
		"outdated_reindexed": outdated,
	}
	if previous != "" {
		payload["deactivated_project_id"] = previous
	}
	return protocol.NewCallToolResult([]protocol.Content{
		&protocol.TextContent{Type: "text", Text: MarshalTOON(payload)},
	}, false), nil
}

func (tm *ToolManager) deactivateProjectWatchTool() *protocol.Tool {
	tool, err := protocol.NewTool("deactivate_project_watch", `Stop watching a project.

Explanation: If project_id is omitted, deactivates whichever project is currently active.

Example arguments/values:
	project_id: "proj_abcd"
`, WatchProjectInput{})
	if err != nil {
		slog.Error("failed to create tool", "name", "deactivate_project_watch", "err", err)
		return nil
	}
	return tool
}

func (tm *ToolManager) deactivateProjectWatchHandler(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var input WatchProjectInput
	if err := json.Unmarshal(request.RawArguments, &input); err != nil {
		return nil, fmt.Errorf(errParseArgs, err)
	}

	var deactivated string
	var err error
	if input.ProjectID == "" {
		deactivated, err = tm.watcherManager.DeactivateCurrent(ctx)
	} else {
		deactivated, err = tm.watcherManager.DeactivateProject(ctx, input.ProjectID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate watch: %w", err)
	}

	return protocol.NewCallToolResult([]protocol.Content{
		&protocol.TextContent{Type: "text", Text: fmt.Sprintf("deactivated watch for %s", deactivated)},
	}, false), nil
}

func (tm *ToolManager) getWatchStatusTool() *protocol.Tool {
	tool, err := protocol.NewTool("get_watch_status", `Get the watch status of one project, or every project.

Explanation: With project_id set, returns that project's watcher_enabled/is_active flags. Without it, returns the status of every registered project.

Example arguments/values:
	project_id: "proj_abcd"
`, WatchProjectInput{})
	if err != nil {
		slog.Error("failed to create tool", "name", "get_watch_status", "err", err)
		return nil
	}
	return tool
}

func (tm *ToolManager) getWatchStatusHandler(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var input WatchProjectInput
	if err := json.Unmarshal(request.RawArguments, &input); err != nil {
		return nil, fmt.Errorf(errParseArgs, err)
	}

	if input.ProjectID != "" {
		status, err := tm.watcherManager.GetProjectWatchStatus(ctx, input.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("failed to get watch status: %w", err)
		}
		return protocol.NewCallToolResult([]protocol.Content{
			&protocol.TextContent{Type: "text", Text: MarshalTOON(status)},
		}, false), nil
	}

	statuses, err := tm.watcherManager.GetAllWatchStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get watch status: %w", err)
	}
	payload := map[string]any{"projects": statuses, "count": len(statuses)}
	return protocol.NewCallToolResult([]protocol.Content{
		&protocol.TextContent{Type: "text", Text: MarshalTOON(payload)},
	}, false), nil
}
