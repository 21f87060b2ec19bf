// Package indexer provides the main indexing service for code projects.
package indexer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/agentmemory/memoryd/internal/model"
	"github.com/agentmemory/memoryd/pkg/treesitter"
)

// CodeWatcher watches a code project directory for file changes and triggers reindexing.
type CodeWatcher struct {
	projectID string
	rootPath  string
	indexer   *Indexer
	watcher   *fsnotify.Watcher
	cancel    context.CancelFunc
	once      sync.Once
}

// StartCodeWatcher creates and starts a new code watcher for a project.
// It returns immediately after starting a background event-loop goroutine.
func StartCodeWatcher(parentCtx context.Context, project *model.CodeProject, indexer *Indexer) (*CodeWatcher, error) {
	if project == nil {
		return nil, nil
	}

	info, err := os.Stat(project.RootPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, os.ErrNotExist
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(parentCtx)
	w := &CodeWatcher{
		projectID: project.ProjectID,
		rootPath:  project.RootPath,
		indexer:   indexer,
		watcher:   fw,
		cancel:    cancel,
	}

	// Add the root directory (fsnotify is not recursive)
	// We will dynamically add subdirectories when Create events are detected
	if err := fw.Add(project.RootPath); err != nil {
		fw.Close()
		return nil, err
	}

	// Add all subdirectories recursively
	err = filepath.WalkDir(project.RootPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if d.IsDir() && path != project.RootPath {
			if w.isExcludedDir(d.Name()) {
				return filepath.SkipDir
			}
			if err := fw.Add(path); err != nil {
				slog.Warn("failed to watch subdirectory", "path", path, "error", err)
			}
		}
		return nil
	})
	if err != nil {
		fw.Close()
		return nil, err
	}

	go w.run(ctx)

	slog.Info("code watcher started", "project_id", project.ProjectID, "path", project.RootPath)
	return w, nil
}

// Stop stops the watcher (idempotent).
func (w *CodeWatcher) Stop() {
	if w == nil {
		return
	}
	w.once.Do(func() {
		w.cancel()
		_ = w.watcher.Close()
		slog.Info("code watcher stopped", "project_id", w.projectID, "path", w.rootPath)
	})
}

// GetProjectID returns the project ID being watched.
func (w *CodeWatcher) GetProjectID() string {
	if w == nil {
		return ""
	}
	return w.projectID
}

// run processes watcher events and debounces rapid successive writes
// per path.
func (w *CodeWatcher) run(ctx context.Context) {
	debounce := make(map[string]time.Time)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if evt.Op&fsnotify.Create == fsnotify.Create {
				info, err := os.Stat(evt.Name)
				if err == nil && info.IsDir() {
					dirName := filepath.Base(evt.Name)
					if !w.isExcludedDir(dirName) {
						if err := w.watcher.Add(evt.Name); err != nil {
							slog.Warn("failed to add new directory to watcher", "dir", evt.Name, "error", err)
						}
					}
					continue
				}
			}

			if !w.isCodeFile(evt.Name) {
				continue
			}

			if evt.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				rel := w.relativePath(evt.Name)
				if err := w.indexer.DeleteFile(ctx, w.projectID, rel); err != nil {
					slog.Warn("failed to delete code file after removal", "file", rel, "error", err)
				} else {
					slog.Info("code file removed from index", "file", rel)
				}
				continue
			}

			if evt.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				debounce[evt.Name] = time.Now()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("code watcher error", "error", err)

		case now := <-ticker.C:
			for file, t := range debounce {
				if now.Sub(t) > 300*time.Millisecond {
					w.processFile(ctx, file)
					delete(debounce, file)
				}
			}
		}
	}
}

// processFile reindexes a single file.
func (w *CodeWatcher) processFile(ctx context.Context, fullPath string) {
	rel := w.relativePath(fullPath)

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		slog.Debug("file no longer exists, skipping", "file", rel)
		return
	}

	startTime := time.Now()
	slog.Debug("processing code file change", "file", rel)

	if err := w.indexer.ReindexFile(ctx, w.projectID, rel); err != nil {
		slog.Warn("failed to reindex code file", "file", rel, "error", err)
		return
	}

	slog.Info("code file reindexed", "file", rel, "duration", time.Since(startTime))
}

// isCodeFile checks if the file is a supported code file based on extension.
func (w *CodeWatcher) isCodeFile(path string) bool {
	ext := filepath.Ext(path)
	if ext == "" {
		return false
	}
	_, ok := treesitter.GetLanguageByExtension(ext[1:])
	return ok
}

// isExcludedDir delegates to the FileScanner's exclusion logic so that
// user-configured exclude patterns (e.g., "Pods", ".venv") are respected.
func (w *CodeWatcher) isExcludedDir(name string) bool {
	scanner := w.indexer.GetScanner()
	if scanner == nil {
		return false
	}
	return scanner.ShouldExclude(name, name, true)
}

// relativePath returns the path relative to the project root.
func (w *CodeWatcher) relativePath(full string) string {
	rel, err := filepath.Rel(w.rootPath, full)
	if err != nil {
		return filepath.Base(full)
	}
	return filepath.ToSlash(rel)
}

// OutdatedFile represents a file found out of sync between disk and the
// graph during catch-up reconciliation ("on startup, reconcile
// watcher downtime").
type OutdatedFile struct {
	FilePath string // Relative path from project root
	Reason   string // "new", "deleted"; everything else is reindexed unconditionally
	AbsPath  string // Absolute path on disk
}

// ScanOutdatedFiles compares the set of file nodes already indexed for
// the project against what is currently on disk. Since no per-file
// content hash is persisted, every on-disk file is reported so the
// caller can reindex it (indexFile's mark-then-sweep makes this a no-op
// for files that have not actually changed); missing or newly appeared
// files are reported with their specific reason.
func (w *CodeWatcher) ScanOutdatedFiles(ctx context.Context) ([]OutdatedFile, error) {
	indexedPaths, err := w.indexer.graph.ListFilePaths(ctx, w.projectID)
	if err != nil {
		return nil, err
	}
	indexed := make(map[string]bool, len(indexedPaths))
	for _, p := range indexedPaths {
		indexed[p] = true
	}

	var outdated []OutdatedFile
	filesOnDisk := make(map[string]bool)

	err = filepath.WalkDir(w.rootPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if w.isExcludedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !w.isCodeFile(path) {
			return nil
		}

		rel := w.relativePath(path)
		filesOnDisk[rel] = true

		reason := "modified"
		if !indexed[rel] {
			reason = "new"
		}
		outdated = append(outdated, OutdatedFile{FilePath: rel, Reason: reason, AbsPath: path})
		return nil
	})
	if err != nil {
		return nil, err
	}

	for indexedPath := range indexed {
		if !filesOnDisk[indexedPath] {
			outdated = append(outdated, OutdatedFile{
				FilePath: indexedPath,
				Reason:   "deleted",
				AbsPath:  filepath.Join(w.rootPath, indexedPath),
			})
		}
	}

	return outdated, nil
}

// ProcessOutdatedFiles reindexes new/modified files and removes deleted
// ones from the graph.
func (w *CodeWatcher) ProcessOutdatedFiles(ctx context.Context, files []OutdatedFile) error {
	for _, f := range files {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		switch f.Reason {
		case "deleted":
			if err := w.indexer.DeleteFile(ctx, w.projectID, f.FilePath); err != nil {
				slog.Warn("failed to delete file from index", "file", f.FilePath, "error", err)
			} else {
				slog.Info("deleted file removed from index", "file", f.FilePath)
			}
		default:
			if err := w.indexer.ReindexFile(ctx, w.projectID, f.FilePath); err != nil {
				slog.Warn("failed to reindex file", "file", f.FilePath, "reason", f.Reason, "error", err)
			} else {
				slog.Info("file reindexed", "file", f.FilePath, "reason", f.Reason)
			}
		}
	}
	return nil
}
