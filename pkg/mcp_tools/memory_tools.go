package mcp_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"

	"github.com/agentmemory/memoryd/internal/model"
)

func (tm *ToolManager) registerMemoryTools(reg registerFunc) error {
	if err := reg("record_memory", tm.recordMemoryTool(), tm.recordMemoryHandler); err != nil {
		return err
	}
	if err := reg("search_memory", tm.searchMemoryTool(), tm.searchMemoryHandler); err != nil {
		return err
	}
	if err := reg("record_preference", tm.recordPreferenceTool(), tm.recordPreferenceHandler); err != nil {
		return err
	}
	if err := reg("search_workflow_recipe", tm.searchWorkflowRecipeTool(), tm.searchWorkflowRecipeHandler); err != nil {
		return err
	}
	if err := reg("deprecate_memory", tm.deprecateMemoryTool(), tm.deprecateMemoryHandler); err != nil {
		return err
	}
	if err := reg("verify_memory", tm.verifyMemoryTool(), tm.verifyMemoryHandler); err != nil {
		return err
	}
	if err := reg("pin_memory", tm.pinMemoryTool(), tm.pinMemoryHandler); err != nil {
		return err
	}
	if err := reg("delete_memory", tm.deleteMemoryTool(), tm.deleteMemoryHandler); err != nil {
		return err
	}
	return nil
}

func (tm *ToolManager) recordMemoryTool() *protocol.Tool {
	tool, err := protocol.NewTool("record_memory", `Record a durable unit of project knowledge.

Explanation: Persists a typed memory (gotcha, error_pattern, dead_end, preference, decision, pattern, workflow_recipe, task_calibration, causal_dependency, work_unit_outcome, e2e_observation, requirement), embeds it, and makes it retrievable by search_memory and the step-injection decider.

When to call: After discovering something worth remembering across sessions: a gotcha that bit you, a decision you made and why, a dead end that wasted time, a workflow that worked.

Example arguments/values:
	type: "gotcha"
	content: "Calling Close() twice on this handle panics; guard with sync.Once."
	project_id: "proj_abcd"
	related_files: ["internal/store/store.go"]
`, RecordMemoryInput{})
	if err != nil {
		slog.Error("failed to create tool", "name", "record_memory", "err", err)
		return nil
	}
	return tool
}

func (tm *ToolManager) recordMemoryHandler(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var input RecordMemoryInput
	if err := json.Unmarshal(request.RawArguments, &input); err != nil {
		return nil, fmt.Errorf(errParseArgs, err)
	}
	if input.Content == "" || input.Type == "" {
		return nil, fmt.Errorf("type and content are required")
	}

	scope := model.MemoryScope(input.Scope)
	if scope == "" {
		scope = model.ScopeModule
	}

	m := &model.Memory{
		Type:           model.MemoryType(input.Type),
		Content:        input.Content,
		ProjectID:      input.ProjectID,
		Scope:          scope,
		Confidence:     input.Confidence,
		RelatedFiles:   input.RelatedFiles,
		RelatedModules: input.RelatedModules,
		ContextPrefix:  input.ContextPrefix,
		Source:         string(model.SourceAgentRecorded),
	}

	id, err := tm.mem.Store(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("failed to record memory: %w", err)
	}

	return protocol.NewCallToolResult([]protocol.Content{
		&protocol.TextContent{Type: "text", Text: fmt.Sprintf("Recorded memory %s", id)},
	}, false), nil
}

func (tm *ToolManager) searchMemoryTool() *protocol.Tool {
	tool, err := protocol.NewTool("search_memory", `Search recorded memories, fusing keyword, semantic, and code-graph recall.

Explanation: Runs the retrieval pipeline when a query is given (BM25 + dense + graph-neighborhood fusion) or a direct structural listing when it is omitted. Returns the ready-to-inject markdown block when one is produced, otherwise the matching memories encoded as TOON.

When to call: Before starting a task in a project, or whenever you need prior context about a file, error, or decision.

Example arguments/values:
	query: "sqlite busy timeout"
	project_id: "proj_abcd"
	phase: "implement"
`, SearchMemoryInput{})
	if err != nil {
		slog.Error("failed to create tool", "name", "search_memory", "err", err)
		return nil
	}
	return tool
}

func (tm *ToolManager) searchMemoryHandler(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var input SearchMemoryInput
	if err := json.Unmarshal(request.RawArguments, &input); err != nil {
		return nil, fmt.Errorf(errParseArgs, err)
	}

	types := make([]model.MemoryType, 0, len(input.Types))
	for _, t := range input.Types {
		types = append(types, model.MemoryType(t))
	}

	result, err := tm.mem.Search(ctx, model.SearchFilters{
		Query:       input.Query,
		ProjectID:   input.ProjectID,
		Types:       types,
		Phase:       input.Phase,
		RecentFiles: input.RecentFiles,
		Limit:       input.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search memory: %w", err)
	}

	for _, m := range result.Memories {
		tm.mem.UpdateAccessCount(ctx, m.ID)
	}

	text := result.FormattedContext
	if text == "" {
		payload := map[string]any{"memories": result.Memories, "count": len(result.Memories)}
		text = MarshalTOON(payload)
	}

	return protocol.NewCallToolResult([]protocol.Content{
		&protocol.TextContent{Type: "text", Text: text},
	}, false), nil
}

func (tm *ToolManager) recordPreferenceTool() *protocol.Tool {
	tool, err := protocol.NewTool("record_preference", `Record a user-taught preference with full confidence.

Explanation: Stores content as a global preference memory, sourced as user_taught rather than agent_recorded, and tagged via related_modules.

When to call: When a person explicitly tells you a standing preference ("always format with gofmt -s", "never use em dashes").

Example arguments/values:
	content: "Prefer table-driven tests over repeated assertions."
	project_id: "proj_abcd"
	tags: ["testing"]
`, InsertPreferenceInput{})
	if err != nil {
		slog.Error("failed to create tool", "name", "record_preference", "err", err)
		return nil
	}
	return tool
}

func (tm *ToolManager) recordPreferenceHandler(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var input InsertPreferenceInput
	if err := json.Unmarshal(request.RawArguments, &input); err != nil {
		return nil, fmt.Errorf(errParseArgs, err)
	}
	if input.Content == "" {
		return nil, fmt.Errorf("content is required")
	}

	id, err := tm.mem.InsertUserTaught(ctx, input.Content, input.ProjectID, input.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to record preference: %w", err)
	}

	return protocol.NewCallToolResult([]protocol.Content{
		&protocol.TextContent{Type: "text", Text: fmt.Sprintf("Recorded preference %s", id)},
	}, false), nil
}

func (tm *ToolManager) searchWorkflowRecipeTool() *protocol.Tool {
	tool, err := protocol.NewTool("search_workflow_recipe", `Find a previously recorded workflow recipe matching a task description.

Explanation: Oversamples the retrieval pipeline and filters to workflow_recipe memories, surfacing step-by-step procedures that worked before.

When to call: Before starting a multi-step task that resembles something done before in this project (a release process, a migration, a recurring debugging procedure).

Example arguments/values:
	project_id: "proj_abcd"
	description: "cut a release branch and tag it"
`, SearchWorkflowRecipeInput{})
	if err != nil {
		slog.Error("failed to create tool", "name", "search_workflow_recipe", "err", err)
		return nil
	}
	return tool
}

func (tm *ToolManager) searchWorkflowRecipeHandler(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var input SearchWorkflowRecipeInput
	if err := json.Unmarshal(request.RawArguments, &input); err != nil {
		return nil, fmt.Errorf(errParseArgs, err)
	}
	if input.Description == "" {
		return nil, fmt.Errorf("description is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 4
	}

	recipes, err := tm.mem.SearchWorkflowRecipe(ctx, input.ProjectID, input.Description, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search workflow recipes: %w", err)
	}

	payload := map[string]any{"recipes": recipes, "count": len(recipes)}
	return protocol.NewCallToolResult([]protocol.Content{
		&protocol.TextContent{Type: "text", Text: MarshalTOON(payload)},
	}, false), nil
}

func (tm *ToolManager) deprecateMemoryTool() *protocol.Tool {
	tool, err := protocol.NewTool("deprecate_memory", `Mark a memory deprecated so it stops surfacing in search.

Explanation: Sets deprecated=true and deprecated_at=now; the row is kept for audit but excluded from future retrieval.

When to call: When a recorded memory is found to be stale or wrong.

Example arguments/values:
	id: "mem_1234"
`, MemoryIDInput{})
	if err != nil {
		slog.Error("failed to create tool", "name", "deprecate_memory", "err", err)
		return nil
	}
	return tool
}

func (tm *ToolManager) deprecateMemoryHandler(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var input MemoryIDInput
	if err := json.Unmarshal(request.RawArguments, &input); err != nil {
		return nil, fmt.Errorf(errParseArgs, err)
	}
	if input.ID == "" {
		return nil, fmt.Errorf("id is required")
	}
	tm.mem.DeprecateMemory(ctx, input.ID)
	return protocol.NewCallToolResult([]protocol.Content{
		&protocol.TextContent{Type: "text", Text: fmt.Sprintf("Deprecated memory %s", input.ID)},
	}, false), nil
}

func (tm *ToolManager) verifyMemoryTool() *protocol.Tool {
	tool, err := protocol.NewTool("verify_memory", `Mark a memory as user-verified, clearing needs_review.

Explanation: Sets user_verified=true and needs_review=false. Use after a person has confirmed a recorded memory is accurate.

Example arguments/values:
	id: "mem_1234"
`, MemoryIDInput{})
	if err != nil {
		slog.Error("failed to create tool", "name", "verify_memory", "err", err)
		return nil
	}
	return tool
}

func (tm *ToolManager) verifyMemoryHandler(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var input MemoryIDInput
	if err := json.Unmarshal(request.RawArguments, &input); err != nil {
		return nil, fmt.Errorf(errParseArgs, err)
	}
	if input.ID == "" {
		return nil, fmt.Errorf("id is required")
	}
	if err := tm.mem.VerifyMemory(ctx, input.ID); err != nil {
		return nil, fmt.Errorf("failed to verify memory: %w", err)
	}
	return protocol.NewCallToolResult([]protocol.Content{
		&protocol.TextContent{Type: "text", Text: fmt.Sprintf("Verified memory %s", input.ID)},
	}, false), nil
}

func (tm *ToolManager) pinMemoryTool() *protocol.Tool {
	tool, err := protocol.NewTool("pin_memory", `Pin or unpin a memory.

Explanation: Pinned memories are a hint for future ranking passes; pinning does not itself change search order today.

Example arguments/values:
	id: "mem_1234"
	pinned: true
`, PinMemoryInput{})
	if err != nil {
		slog.Error("failed to create tool", "name", "pin_memory", "err", err)
		return nil
	}
	return tool
}

func (tm *ToolManager) pinMemoryHandler(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var input PinMemoryInput
	if err := json.Unmarshal(request.RawArguments, &input); err != nil {
		return nil, fmt.Errorf(errParseArgs, err)
	}
	if input.ID == "" {
		return nil, fmt.Errorf("id is required")
	}
	if err := tm.mem.PinMemory(ctx, input.ID, input.Pinned); err != nil {
		return nil, fmt.Errorf("failed to pin memory: %w", err)
	}
	return protocol.NewCallToolResult([]protocol.Content{
		&protocol.TextContent{Type: "text", Text: fmt.Sprintf("Set pinned=%v on memory %s", input.Pinned, input.ID)},
	}, false), nil
}

func (tm *ToolManager) deleteMemoryTool() *protocol.Tool {
	tool, err := protocol.NewTool("delete_memory", `Permanently delete a memory and its index rows.

Explanation: Removes the memories row along with its FTS and embedding rows. Unlike deprecate_memory this is not reversible.

Example arguments/values:
	id: "mem_1234"
`, MemoryIDInput{})
	if err != nil {
		slog.Error("failed to create tool", "name", "delete_memory", "err", err)
		return nil
	}
	return tool
}

func (tm *ToolManager) deleteMemoryHandler(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var input MemoryIDInput
	if err := json.Unmarshal(request.RawArguments, &input); err != nil {
		return nil, fmt.Errorf(errParseArgs, err)
	}
	if input.ID == "" {
		return nil, fmt.Errorf("id is required")
	}
	if err := tm.mem.DeleteMemory(ctx, input.ID); err != nil {
		return nil, fmt.Errorf("failed to delete memory: %w", err)
	}
	return protocol.NewCallToolResult([]protocol.Content{
		&protocol.TextContent{Type: "text", Text: fmt.Sprintf("Deleted memory %s", input.ID)},
	}, false), nil
}
