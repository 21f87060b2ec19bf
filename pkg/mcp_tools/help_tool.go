package mcp_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
)

// HowToUseInput is the input for how_to_use.
type HowToUseInput struct {
	Topic string `json:"topic,omitempty" description:"memory, code, or watch (a group name; individual tool names are not accepted); omit for an overview"`
}

const overviewDoc = `memoryd exposes three tool groups:

  memory: record_memory, search_memory, record_preference, search_workflow_recipe,
          deprecate_memory, verify_memory, pin_memory, delete_memory
  step:   request_step_injection
  code:   index_project, index_status, list_projects, delete_project, reindex_file,
          activate_project_watch, deactivate_project_watch, get_watch_status

Call how_to_use(topic: "memory") or how_to_use(topic: "code") for a group overview;
topics name a group, not an individual tool.`

const memoryGroupDoc = `Memory tools record and retrieve durable project knowledge.

record_memory persists a typed memory (gotcha, decision, preference, ...).
search_memory runs the fused retrieval pipeline (keyword + semantic + code-graph)
when a query is given, or a structural listing otherwise.
deprecate_memory/verify_memory/pin_memory/delete_memory manage existing rows.`

const codeGroupDoc = `Code tools manage the project index and file watcher.

index_project queues a cold-start walk of a project tree; index_status polls it.
list_projects/delete_project manage registered projects.
reindex_file re-extracts a single file synchronously.
activate_project_watch/deactivate_project_watch/get_watch_status control the
live fsnotify-backed watcher, which only tracks one project at a time.`

func (tm *ToolManager) registerHelpTools(reg registerFunc) error {
	return reg("how_to_use", tm.howToUseTool(), tm.howToUseHandler)
}

func (tm *ToolManager) howToUseTool() *protocol.Tool {
	tool, err := protocol.NewTool("how_to_use", `Get help on memoryd's tools. Call with no args for an overview, or pass a topic.`, HowToUseInput{})
	if err != nil {
		slog.Error("failed to create tool", "name", "how_to_use", "err", err)
		return nil
	}
	return tool
}

func (tm *ToolManager) howToUseHandler(ctx context.Context, request *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var input HowToUseInput
	if err := json.Unmarshal(request.RawArguments, &input); err != nil {
		return nil, fmt.Errorf(errParseArgs, err)
	}

	topic := strings.TrimSpace(strings.ToLower(input.Topic))
	var content string
	switch topic {
	case "", "overview":
		content = overviewDoc
	case "memory":
		content = memoryGroupDoc
	case "code", "watch", "indexing":
		content = codeGroupDoc
	default:
		content = fmt.Sprintf("unknown topic %q; call how_to_use() with no arguments for an overview", topic)
	}

	return protocol.NewCallToolResult([]protocol.Content{
		&protocol.TextContent{Type: "text", Text: content},
	}, false), nil
}
