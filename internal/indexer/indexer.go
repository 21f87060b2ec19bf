package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/agentmemory/memoryd/internal/astindex"
	"github.com/agentmemory/memoryd/internal/graph"
	"github.com/agentmemory/memoryd/internal/memory"
	"github.com/agentmemory/memoryd/internal/model"
	"github.com/agentmemory/memoryd/internal/store"
)

// IndexerConfig holds tunables for a cold-start walk.
type IndexerConfig struct {
	// Concurrency is carried in the config but not read: the cold-start
	// walk indexes files one at a time.
	Concurrency int
	// Scanner discovers and filters project files.
	Scanner *FileScanner
	// YieldEvery is the cold-start "yield to the host event loop" cadence.
	YieldEvery int
}

// DefaultIndexerConfig returns sensible defaults.
func DefaultIndexerConfig() IndexerConfig {
	return IndexerConfig{
		Concurrency: 4,
		Scanner:     NewFileScanner(),
		YieldEvery:  100,
	}
}

// Indexer is IncrementalIndexer: it owns the per-file
// extract-upsert-resolve-sweep pipeline and the cold-start walker, built
// on top of GraphDatabase, ASTExtractor, and MemoryService.
type Indexer struct {
	config    IndexerConfig
	store     *store.Store
	graph     *graph.Graph
	extractor *astindex.Extractor
	memory    *memory.Service

	mu       sync.RWMutex
	progress map[string]*IndexingProgress

	// indexing guards a project's cold-start walk so two cold starts of
	// the same project never run at once; single-file reindexes from the
	// watcher do not consult it.
	indexingMu sync.Mutex
	indexing   map[string]bool
}

// New builds an Indexer over the shared Store/Graph/MemoryService.
func New(st *store.Store, g *graph.Graph, mem *memory.Service, config IndexerConfig) *Indexer {
	return &Indexer{
		config:    config,
		store:     st,
		graph:     g,
		extractor: astindex.New(),
		memory:    mem,
		progress:  make(map[string]*IndexingProgress),
		indexing:  make(map[string]bool),
	}
}

// GetScanner exposes the configured FileScanner (used by CodeWatcher's
// directory-exclusion checks).
func (idx *Indexer) GetScanner() *FileScanner { return idx.config.Scanner }

func (idx *Indexer) beginIndexing(projectID string) bool {
	idx.indexingMu.Lock()
	defer idx.indexingMu.Unlock()
	if idx.indexing[projectID] {
		return false
	}
	idx.indexing[projectID] = true
	return true
}

func (idx *Indexer) endIndexing(projectID string) {
	idx.indexingMu.Lock()
	defer idx.indexingMu.Unlock()
	delete(idx.indexing, projectID)
}

// IndexProject performs the cold-start walk: scan the
// project, index every supported file (yielding every YieldEvery files),
// then rebuild the closure once at the end.
func (idx *Indexer) IndexProject(ctx context.Context, projectPath, projectName string) (string, error) {
	absPath, err := filepath.Abs(projectPath)
	if err != nil {
		return "", fmt.Errorf("invalid project path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("cannot access project path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project path is not a directory: %s", absPath)
	}

	projectID := generateProjectID(absPath)
	if !idx.beginIndexing(projectID) {
		return projectID, fmt.Errorf("project %s is already being indexed", projectID)
	}
	defer idx.endIndexing(projectID)

	if projectName == "" {
		projectName = filepath.Base(absPath)
	}
	idx.initProgress(projectID)

	if err := idx.CreateProject(ctx, &model.CodeProject{
		ProjectID:      projectID,
		Name:           projectName,
		RootPath:       absPath,
		IndexingStatus: model.IndexingStatusInProgress,
		WatcherEnabled: true,
	}); err != nil {
		return "", fmt.Errorf("register project: %w", err)
	}

	scanResult, err := idx.config.Scanner.Scan(absPath)
	if err != nil {
		idx.setError(projectID, err)
		idx.UpdateProjectStatus(ctx, projectID, model.IndexingStatusFailed)
		return projectID, fmt.Errorf("scan project: %w", err)
	}
	idx.updateProgress(projectID, func(p *IndexingProgress) { p.FilesTotal = scanResult.TotalFiles })

	for i, f := range scanResult.Files {
		select {
		case <-ctx.Done():
			return projectID, ctx.Err()
		default:
		}
		if err := idx.indexFile(ctx, projectID, absPath, f.RelPath); err != nil {
			slog.Warn("cold start: failed to index file", "project_id", projectID, "file", f.RelPath, "error", err)
		}
		idx.updateProgress(projectID, func(p *IndexingProgress) {
			p.FilesIndexed++
			p.CurrentFile = f.RelPath
		})
		if (i+1)%idx.config.YieldEvery == 0 {
			runtime.Gosched()
		}
	}

	if err := idx.graph.RebuildClosure(ctx, projectID); err != nil {
		slog.Warn("cold start: closure rebuild failed", "project_id", projectID, "error", err)
	}

	now := time.Now()
	idx.UpdateProjectStatus(ctx, projectID, model.IndexingStatusCompleted)
	idx.CreateProject(ctx, &model.CodeProject{
		ProjectID: projectID, Name: projectName, RootPath: absPath,
		LastIndexedAt: &now, IndexingStatus: model.IndexingStatusCompleted,
		LanguageStats: languageStatsOf(scanResult),
	})
	idx.updateProgress(projectID, func(p *IndexingProgress) { p.Status = model.IndexingStatusCompleted })

	return projectID, nil
}

// ReindexFile re-runs the per-file pipeline for a single already-registered
// project's file (watcher path).
func (idx *Indexer) ReindexFile(ctx context.Context, projectID, relPath string) error {
	project, err := idx.GetProject(ctx, projectID)
	if err != nil || project == nil {
		return fmt.Errorf("project not found: %s", projectID)
	}
	return idx.indexFile(ctx, projectID, project.RootPath, relPath)
}

// DeleteFile marks a removed file's nodes/edges stale and sweeps them
// (watcher "unlink" path, "Watcher").
func (idx *Indexer) DeleteFile(ctx context.Context, projectID, relPath string) error {
	if err := idx.graph.MarkFileStale(ctx, projectID, relPath); err != nil {
		return err
	}
	return idx.graph.DeleteStaleForFile(ctx, projectID, relPath)
}

// indexFile implements the eleven-step per-file pipeline.
func (idx *Indexer) indexFile(ctx context.Context, projectID, rootPath, relPath string) error {
	absPath := filepath.Join(rootPath, relPath)

	// Step 3: read; on error mark stale and return.
	content, err := os.ReadFile(absPath)
	if err != nil {
		if markErr := idx.graph.MarkFileStale(ctx, projectID, relPath); markErr != nil {
			slog.Warn("failed to mark file stale after read error", "file", relPath, "error", markErr)
		}
		return fmt.Errorf("read %s: %w", relPath, err)
	}

	// Step 4: mark existing nodes/edges for this file stale.
	if err := idx.graph.MarkFileStale(ctx, projectID, relPath); err != nil {
		return fmt.Errorf("mark stale %s: %w", relPath, err)
	}

	// Steps 5-6: parse + extract. A parse failure comes back as an error,
	// so this returns with the file's prior nodes still marked stale by
	// step 4; a file with no registered grammar yields a prose-only result.
	result, err := idx.extractor.ExtractFile(ctx, projectID, relPath, content)
	if err != nil {
		return fmt.Errorf("extract %s: %w", relPath, err)
	}

	// Step 7: upsert nodes; build label->id map.
	local := make(map[string]string, len(result.Nodes))
	for _, n := range result.Nodes {
		if err := idx.graph.UpsertNode(ctx, n); err != nil {
			return fmt.Errorf("upsert node %s: %w", n.Label, err)
		}
		local[n.Label] = n.ID
	}

	// Step 8: resolved edges upsert directly; unresolved edges resolve
	// through the local map, stubbing file/module nodes as needed.
	for _, e := range result.Edges {
		if err := idx.graph.UpsertEdge(ctx, e); err != nil {
			return fmt.Errorf("upsert edge: %w", err)
		}
	}
	for _, raw := range result.Unresolved {
		toID, err := idx.resolveEdge(ctx, projectID, relPath, raw, local)
		if err != nil {
			slog.Warn("failed to resolve edge target, skipping", "file", relPath, "to_label", raw.ToLabel, "error", err)
			continue
		}
		conf := model.ConfidenceVerified
		if raw.External {
			conf = model.ConfidenceInferred
		}
		if err := idx.graph.UpsertEdge(ctx, &model.GraphEdge{
			ProjectID: projectID, FromID: raw.FromID, ToID: toID, Type: raw.Type,
			Weight: 1, Confidence: conf,
		}); err != nil {
			return fmt.Errorf("upsert resolved edge: %w", err)
		}
	}

	// Persist chunks as code_chunk memories so retrieval can surface them.
	fileID := local[relPath]
	if err := idx.storeChunks(ctx, projectID, relPath, fileID, result.Chunks); err != nil {
		slog.Warn("failed to persist chunks as memories", "file", relPath, "error", err)
	}

	// Step 9: delete remaining stale rows for this file.
	if err := idx.graph.DeleteStaleForFile(ctx, projectID, relPath); err != nil {
		return fmt.Errorf("delete stale %s: %w", relPath, err)
	}

	// Step 10: recompute closure for the file node.
	if fileID != "" {
		if err := idx.graph.UpdateClosureForNode(ctx, projectID, fileID); err != nil {
			slog.Warn("closure update failed", "file", relPath, "error", err)
		}
	}

	// Step 11: update per-project counters.
	if err := idx.bumpIndexState(ctx, projectID, 1, len(result.Nodes), len(result.Edges)+len(result.Unresolved)); err != nil {
		slog.Warn("failed to update index state counters", "project_id", projectID, "error", err)
	}

	return nil
}

// storeChunks embeds and stores each ASTChunk as a code_chunk memory, so
// the retrieval pipeline can surface code alongside agent-recorded
// knowledge.
func (idx *Indexer) storeChunks(ctx context.Context, projectID, relPath, fileID string, chunks []*model.ASTChunk) error {
	for _, c := range chunks {
		m := &model.Memory{
			Type:           model.MemoryTypeCodeChunk,
			Content:        c.Content,
			ProjectID:      projectID,
			Scope:          model.ScopeModule,
			RelatedFiles:   []string{relPath},
			TargetNodeID:   fileID,
			Source:         "indexer",
			ChunkType:      string(c.Type),
			ChunkStartLine: c.StartLine,
			ChunkEndLine:   c.EndLine,
			ContextPrefix:  c.ContextPrefix,
		}
		if _, err := idx.memory.Store(ctx, m); err != nil {
			return fmt.Errorf("store chunk memory for %s:%d-%d: %w", relPath, c.StartLine, c.EndLine, err)
		}
	}
	return nil
}

// generateProjectID derives a stable id from a project's absolute root
// path, so re-registering the same directory always resolves to the same
// project.
func generateProjectID(absPath string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(absPath)))
	return filepath.Base(absPath) + "-" + hex.EncodeToString(sum[:])[:12]
}

func languageStatsOf(r *ScanResult) map[string]int {
	stats := make(map[string]int, len(r.ByLanguage))
	for lang, files := range r.ByLanguage {
		stats[string(lang)] = len(files)
	}
	return stats
}
