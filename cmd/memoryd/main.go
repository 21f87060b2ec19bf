// Package main is the entry point for the memoryd agent memory and
// retrieval engine.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	mcpserver "github.com/ThinkInAIXYZ/go-mcp/server"
	mcptransport "github.com/ThinkInAIXYZ/go-mcp/transport"

	"github.com/agentmemory/memoryd/internal/bridge"
	"github.com/agentmemory/memoryd/internal/config"
	"github.com/agentmemory/memoryd/internal/decider"
	"github.com/agentmemory/memoryd/internal/embedding"
	"github.com/agentmemory/memoryd/internal/graph"
	"github.com/agentmemory/memoryd/internal/indexer"
	"github.com/agentmemory/memoryd/internal/memory"
	"github.com/agentmemory/memoryd/internal/retrieval"
	"github.com/agentmemory/memoryd/internal/scratchpad"
	"github.com/agentmemory/memoryd/internal/store"
	"github.com/agentmemory/memoryd/pkg/mcp_tools"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.SetupLogging(); err != nil {
		fmt.Fprintf(os.Stderr, "error configuring logging: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.DbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer st.Close()
	if err := st.InitializeSchema(ctx); err != nil {
		log.Fatalf("failed to initialize schema: %v", err)
	}

	embSvc := embedding.NewService(embedding.Config{
		OllamaBaseURL:  cfg.OllamaURL,
		OpenAIAPIKey:   cfg.OpenAIKey,
		OpenAIBaseURL:  cfg.OpenAIURL,
		ProbeTimeout:   cfg.GetProbeTimeoutSeconds(),
		SystemRAMBytes: systemRAMBytes(),
	}, embedding.NewCache(st))
	if err := embSvc.Initialize(ctx); err != nil {
		log.Fatalf("failed to initialize embedding service: %v", err)
	}

	g := graph.New(st)
	pipeline := retrieval.New(st, embSvc, g)
	memSvc := memory.New(st, embSvc, pipeline)

	idxConfig := indexer.DefaultIndexerConfig()
	idxConfig.Concurrency = cfg.GetIndexerConcurrency()
	idx := indexer.New(st, g, memSvc, idxConfig)

	jobManager := indexer.NewJobManager(idx, indexer.DefaultJobManagerConfig())
	defer jobManager.Stop()

	var watcherManager *indexer.WatcherManager
	if !cfg.DisableCodeWatch {
		watcherManager = indexer.NewWatcherManager(idx)
		if err := watcherManager.AutoActivateOnStartup(ctx); err != nil {
			slog.Warn("failed to auto-activate project watch on startup", "error", err)
		}
		defer func() {
			if err := watcherManager.Stop(); err != nil {
				slog.Warn("failed to stop watcher manager", "error", err)
			}
		}()
	}

	pad := scratchpad.New()
	observer := scratchpad.NewObserver(st, memSvc, pad)
	dec := decider.New(memSvc, pad)
	wb := bridge.New(memSvc, dec, observer)
	defer wb.Shutdown()

	var t mcptransport.ServerTransport
	if cfg.MCPStreamableHTTP {
		addr := cfg.MCPStreamableHTTPAddr
		slog.Info("starting MCP over Streamable HTTP", "addr", addr, "endpoint", cfg.MCPStreamableHTTPEndpoint)
		t, err = mcptransport.NewStreamableHTTPServerTransport(addr)
		if err != nil {
			log.Fatalf("failed to initialize Streamable HTTP transport: %v", err)
		}
	} else {
		slog.Info("starting MCP over stdio")
		t = mcptransport.NewStdioServerTransport()
	}

	srv, err := mcpserver.NewServer(
		t,
		mcpserver.WithServerInfo(protocol.Implementation{
			Name:    "memoryd",
			Version: "0.1.0",
		}),
		mcpserver.WithInstructions("memoryd is ready: record_memory, search_memory, request_step_injection, index_project and friends. Call how_to_use() for an overview."),
	)
	if err != nil {
		log.Fatalf("failed to create MCP server: %v", err)
	}

	toolManager := mcp_tools.NewToolManager(memSvc, dec, jobManager, watcherManager, idx)
	if err := toolManager.RegisterTools(srv); err != nil {
		log.Fatalf("failed to register tools: %v", err)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Run(); err != nil {
		log.Fatalf("server run error: %v", err)
	}
}
