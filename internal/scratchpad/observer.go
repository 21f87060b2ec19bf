package scratchpad

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/agentmemory/memoryd/internal/memory"
	"github.com/agentmemory/memoryd/internal/model"
	"github.com/agentmemory/memoryd/internal/store"
)

// coAccessPromotionThreshold is the co-access count at which two files
// are considered a durable working pair worth a gotcha-adjacent memory
// (not itself promoted today; tracked for future ranking use).
const coAccessPromotionThreshold = 5

// errorRepeatThreshold is the occurrence count at which a recurring
// error signature is promoted from observation to a durable
// error_pattern memory.
const errorRepeatThreshold = 3

// selfCorrectionMarkers are substrings in agent reasoning text that
// heuristically indicate the agent is reversing an earlier decision.
var selfCorrectionMarkers = []string{
	"i was wrong", "that's not right", "let me reconsider", "actually, i need to", "on second thought",
}

// fileTouchingTools are the tool names the Observer treats as evidence
// of a file being read or modified by the agent.
var fileTouchingTools = map[string]bool{
	"Read": true, "Edit": true, "Write": true, "MultiEdit": true,
}

// Observer implements the live session half of C10: it watches the
// tool-call stream and turns it into both durable aggregate statistics
// (observer_* tables, owned exclusively by the Observer) and transient
// Scratchpad signals for the current session.
type Observer struct {
	store *store.Store
	mem   *memory.Service
	pad   *Scratchpad

	mu          sync.Mutex
	recentFiles map[string][]string // projectID -> small ring of recently touched files
}

// NewObserver binds an Observer to its Store, MemoryService (for
// promotions), and the Scratchpad it feeds.
func NewObserver(st *store.Store, mem *memory.Service, pad *Scratchpad) *Observer {
	return &Observer{store: st, mem: mem, pad: pad, recentFiles: make(map[string][]string)}
}

// OnToolCall implements the "Read/Edit tool call targets a file path"
// data flow: it bumps observer_file_nodes and records a co-access edge
// against whatever files this session touched most recently.
func (o *Observer) OnToolCall(ctx context.Context, projectID, sessionID string, call model.ToolCall) {
	if !fileTouchingTools[call.ToolName] {
		return
	}
	path := call.Args["path"]
	if path == "" {
		path = call.Args["file_path"]
	}
	if path == "" {
		return
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := o.store.Execute(ctx, `
		INSERT INTO observer_file_nodes(project_id, file_path, access_count, last_accessed_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(project_id, file_path) DO UPDATE SET
			access_count = access_count + 1, last_accessed_at = excluded.last_accessed_at`,
		projectID, path, now); err != nil {
		slog.Warn("observer: file node bump failed", "project_id", projectID, "path", path, "error", err)
	}

	o.recordCoAccess(ctx, projectID, path)
}

// recordCoAccess pairs path against a short ring of recently touched
// files in this project's session, bumping observer_co_access_edges for
// each pair. The ring is intentionally small and process-local: it is a
// working-memory proxy, not a durable session log.
func (o *Observer) recordCoAccess(ctx context.Context, projectID, path string) {
	const ringSize = 5

	o.mu.Lock()
	ring := o.recentFiles[projectID]
	pairs := make([]string, 0, len(ring))
	for _, other := range ring {
		if other != path {
			pairs = append(pairs, other)
		}
	}
	ring = append(ring, path)
	if len(ring) > ringSize {
		ring = ring[len(ring)-ringSize:]
	}
	o.recentFiles[projectID] = ring
	o.mu.Unlock()

	for _, other := range pairs {
		a, b := path, other
		if b < a {
			a, b = b, a
		}
		if _, err := o.store.Execute(ctx, `
			INSERT INTO observer_co_access_edges(project_id, file_a, file_b, count)
			VALUES (?, ?, ?, 1)
			ON CONFLICT(project_id, file_a, file_b) DO UPDATE SET count = count + 1`,
			projectID, a, b); err != nil {
			slog.Warn("observer: co-access bump failed", "project_id", projectID, "error", err)
		}
	}
}

// OnToolResult implements ObserverErrorPattern accumulation:
// error results are normalized to a signature and counted; crossing
// errorRepeatThreshold promotes a durable error_pattern memory and
// raises a repeated_error scratchpad signal.
func (o *Observer) OnToolResult(ctx context.Context, projectID string, stepNumber int, call model.ToolCall, result string, isError bool) {
	if !isError || strings.TrimSpace(result) == "" {
		return
	}

	sig := errorSignature(result)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	var occurrences int
	row := o.store.QueryRow(ctx, `
		SELECT occurrences FROM observer_error_patterns WHERE project_id = ? AND signature = ?`, projectID, sig)
	err := row.Scan(&occurrences)
	switch {
	case err == nil:
		occurrences++
		if _, err := o.store.Execute(ctx, `
			UPDATE observer_error_patterns SET occurrences = ?, last_seen_at = ?
			WHERE project_id = ? AND signature = ?`, occurrences, now, projectID, sig); err != nil {
			slog.Warn("observer: error pattern update failed", "error", err)
			return
		}
	default:
		occurrences = 1
		if _, err := o.store.Execute(ctx, `
			INSERT INTO observer_error_patterns(id, project_id, signature, occurrences, last_seen_at)
			VALUES (?, ?, ?, 1, ?)`, errorPatternID(projectID, sig), projectID, sig, now); err != nil {
			slog.Warn("observer: error pattern insert failed", "error", err)
			return
		}
	}

	o.pad.Add(model.AcuteCandidate{
		SignalType: model.SignalRepeatedError,
		RawData:    truncate(result, 200),
		Priority:   occurrences,
		CapturedAt: time.Now().UTC(),
		StepNumber: stepNumber,
	})

	if occurrences == errorRepeatThreshold {
		o.promoteErrorPattern(ctx, projectID, sig, result)
	}
}

// promoteErrorPattern writes a durable error_pattern memory the first
// time a signature crosses the threshold, and logs the promotion to
// observer_synthesis_log so later synthesis passes don't double-count
// it.
func (o *Observer) promoteErrorPattern(ctx context.Context, projectID, sig, sample string) {
	id, err := o.mem.Store(ctx, &model.Memory{
		Type:       model.MemoryTypeErrorPattern,
		Content:    fmt.Sprintf("Recurring error (seen %d+ times): %s", errorRepeatThreshold, truncate(sample, 500)),
		ProjectID:  projectID,
		Scope:      model.ScopeModule,
		Source:     string(model.SourceObserverPromo),
		Confidence: 0.7,
	})
	if err != nil {
		slog.Warn("observer: error pattern promotion failed", "project_id", projectID, "error", err)
		return
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := o.store.Execute(ctx, `
		INSERT INTO observer_synthesis_log(id, project_id, created_memory_id, reason, created_at)
		VALUES (?, ?, ?, ?, ?)`, sig+":"+id, projectID, id, "error_pattern_threshold", now); err != nil {
		slog.Warn("observer: synthesis log write failed", "error", err)
	}
}

// OnReasoning implements the self-correction scratchpad signal: a
// shallow phrase match over the agent's own reasoning trace, cheap
// enough to run on every step.
func (o *Observer) OnReasoning(stepNumber int, text string) {
	lower := strings.ToLower(text)
	for _, marker := range selfCorrectionMarkers {
		if strings.Contains(lower, marker) {
			o.pad.Add(model.AcuteCandidate{
				SignalType: model.SignalSelfCorrection,
				RawData:    truncate(text, 200),
				Priority:   1,
				CapturedAt: time.Now().UTC(),
				StepNumber: stepNumber,
			})
			return
		}
	}
}

// OnStepComplete implements the module-session counters: for every file
// touched this step, bump the session count of its top-level module
// (first path segment). The counts are only recorded; retrieval does not
// read them.
func (o *Observer) OnStepComplete(ctx context.Context, projectID string, touchedFiles []string) {
	seen := make(map[string]bool)
	for _, f := range touchedFiles {
		mod := topLevelModule(f)
		if mod == "" || seen[mod] {
			continue
		}
		seen[mod] = true
		if _, err := o.store.Execute(ctx, `
			INSERT INTO observer_module_session_counts(project_id, module, session_count)
			VALUES (?, ?, 1)
			ON CONFLICT(project_id, module) DO UPDATE SET session_count = session_count + 1`,
			projectID, mod); err != nil {
			slog.Warn("observer: module session count bump failed", "project_id", projectID, "error", err)
		}
	}
}

func topLevelModule(relPath string) string {
	parts := strings.Split(filepath.ToSlash(relPath), "/")
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

func errorSignature(result string) string {
	firstLine := result
	if idx := strings.IndexByte(result, '\n'); idx >= 0 {
		firstLine = result[:idx]
	}
	sum := sha256.Sum256([]byte(strings.TrimSpace(firstLine)))
	return hex.EncodeToString(sum[:])[:16]
}

func errorPatternID(projectID, sig string) string {
	sum := sha256.Sum256([]byte(projectID + ":" + sig))
	return hex.EncodeToString(sum[:])[:32]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
