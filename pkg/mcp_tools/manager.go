// Package mcp_tools registers the MCP tool surface over the memory and
// retrieval engine: memory CRUD/search, step injection, and code
// project indexing/watching.
package mcp_tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	mcpserver "github.com/ThinkInAIXYZ/go-mcp/server"

	"github.com/agentmemory/memoryd/internal/decider"
	"github.com/agentmemory/memoryd/internal/indexer"
	"github.com/agentmemory/memoryd/internal/memory"
)

// ToolManager owns the collaborators the tool surface is wired to and
// registers every tool with the MCP server.
type ToolManager struct {
	mem            *memory.Service
	decider        *decider.Decider
	jobManager     *indexer.JobManager
	watcherManager *indexer.WatcherManager
	indexer        *indexer.Indexer
}

// NewToolManager builds a ToolManager over the host-owned services.
// watcherManager may be nil when DisableCodeWatch is set, in which case
// the watch-status tools are not registered.
func NewToolManager(mem *memory.Service, dec *decider.Decider, jm *indexer.JobManager, wm *indexer.WatcherManager, idx *indexer.Indexer) *ToolManager {
	return &ToolManager{mem: mem, decider: dec, jobManager: jm, watcherManager: wm, indexer: idx}
}

// RegisterTools registers every tool with the server.
func (tm *ToolManager) RegisterTools(srv *mcpserver.Server) error {
	reg := func(name string, tool *protocol.Tool, handler func(context.Context, *protocol.CallToolRequest) (*protocol.CallToolResult, error)) error {
		if tool == nil {
			return fmt.Errorf("tool %s creation returned nil", name)
		}
		srv.RegisterTool(tool, handler)
		return nil
	}

	if err := tm.registerMemoryTools(reg); err != nil {
		return err
	}
	if err := tm.registerStepTools(reg); err != nil {
		return err
	}
	if err := tm.registerCodeTools(reg); err != nil {
		return err
	}
	if tm.watcherManager != nil {
		if err := tm.registerWatchTools(reg); err != nil {
			return err
		}
	}
	if err := tm.registerHelpTools(reg); err != nil {
		return err
	}

	slog.Info("registered MCP tool surface")
	return nil
}

type registerFunc func(string, *protocol.Tool, func(context.Context, *protocol.CallToolRequest) (*protocol.CallToolResult, error)) error
