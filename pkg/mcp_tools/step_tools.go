package mcp_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"

	"github.com/agentmemory/memoryd/internal/model"
)

func (tm *ToolManager) registerStepTools(reg registerFunc) error {
	return reg("request_step_injection", tm.requestStepInjectionTool(), tm.requestStepInjectionHandler)
}

func (tm *ToolManager) requestStepInjectionTool() *protocol.Tool {
	tool, err := protocol.NewTool("request_step_injection", `Ask the step-injection decider whether anything should be spliced into context right now.

Explanation: Runs the three-trigger priority chain (gotcha alert over recently touched files, scratchpad reflection since the last step, search short-circuit over recent Grep/Glob patterns) and returns at most one injection, or none.

When to call: Once per agent step, passing the tool calls made since the previous step and the set of memory ids already injected this session.

Example arguments/values:
	project_id: "proj_abcd"
	step_number: 12
	recent_tool_calls: [{"tool_name": "Read", "args": {"path": "internal/store/store.go"}}]
`, RequestStepInjectionInput{})
	if err != nil {
		slog.Error("failed to create tool", "name", "request_step_injection", "err", err)
		return nil
	}
	return tool
}

func (tm *ToolManager) requestStepInjectionHandler(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var input RequestStepInjectionInput
	if err := json.Unmarshal(request.RawArguments, &input); err != nil {
		return nil, fmt.Errorf(errParseArgs, err)
	}

	calls := make([]model.ToolCall, 0, len(input.RecentToolCalls))
	for _, c := range input.RecentToolCalls {
		calls = append(calls, model.ToolCall{ToolName: c.ToolName, Args: c.Args, StepNumber: c.StepNumber})
	}
	injected := make(map[string]bool, len(input.InjectedMemoryIDs))
	for _, id := range input.InjectedMemoryIDs {
		injected[id] = true
	}

	injection, err := tm.decider.Decide(ctx, input.ProjectID, input.StepNumber, model.RecentContext{
		ToolCalls:         calls,
		InjectedMemoryIDs: injected,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate step injection: %w", err)
	}
	if injection == nil {
		return protocol.NewCallToolResult([]protocol.Content{
			&protocol.TextContent{Type: "text", Text: "no injection"},
		}, false), nil
	}

	return protocol.NewCallToolResult([]protocol.Content{
		&protocol.TextContent{Type: "text", Text: MarshalTOON(injection)},
	}, false), nil
}
