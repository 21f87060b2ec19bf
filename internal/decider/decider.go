// Package decider implements StepInjectionDecider: per-step
// injection triage over MemoryService and the Scratchpad, returning at
// most one Injection to splice into the agent's context.
package decider

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/agentmemory/memoryd/internal/memory"
	"github.com/agentmemory/memoryd/internal/model"
	"github.com/agentmemory/memoryd/internal/scratchpad"
)

// latencyBudget is the soft wall-clock budget: exceeding it
// only logs a warning, the result is still returned.
const latencyBudget = 50 * time.Millisecond

// gotchaMinConfidence and gotchaLimit parameterize the gotcha-injection
// trigger's MemoryService.search call.
const (
	gotchaMinConfidence = 0.65
	gotchaLimit         = 4
)

// Decider is stateless: every field is a read-only collaborator, and the
// caller owns recentContext.injectedMemoryIds across steps (
// "State").
type Decider struct {
	mem *memory.Service
	pad *scratchpad.Scratchpad
}

// New binds a Decider to the MemoryService and Scratchpad it consults.
func New(mem *memory.Service, pad *scratchpad.Scratchpad) *Decider {
	return &Decider{mem: mem, pad: pad}
}

// Decide implements three triggers in strict priority order.
// It never throws: any internal failure degrades to a nil Injection.
func (d *Decider) Decide(ctx context.Context, projectID string, stepNumber int, recent model.RecentContext) (injection *model.Injection, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("decider: recovered from panic", "error", r)
			injection, err = nil, nil
		}
	}()

	start := time.Now()
	defer func() {
		if elapsed := time.Since(start); elapsed > latencyBudget {
			slog.Warn("decider: exceeded latency budget", "elapsed", elapsed, "budget", latencyBudget)
		}
	}()

	if inj := d.gotchaInjection(ctx, projectID, recent); inj != nil {
		return inj, nil
	}
	if inj := d.scratchpadReflection(stepNumber); inj != nil {
		return inj, nil
	}
	if inj := d.searchShortCircuit(ctx, projectID, recent); inj != nil {
		return inj, nil
	}
	return nil, nil
}

// gotchaInjection implements trigger 1: recent Read/Edit tool calls seed
// a search over gotcha/error_pattern/dead_end memories scoped to those
// files, excluding anything already injected this session.
func (d *Decider) gotchaInjection(ctx context.Context, projectID string, recent model.RecentContext) *model.Injection {
	paths := fileToolPaths(recent.ToolCalls)
	if len(paths) == 0 {
		return nil
	}

	res, err := d.mem.Search(ctx, model.SearchFilters{
		ProjectID:     projectID,
		Types:         []model.MemoryType{model.MemoryTypeGotcha, model.MemoryTypeErrorPattern, model.MemoryTypeDeadEnd},
		RelatedFiles:  paths,
		MinConfidence: gotchaMinConfidence,
		Limit:         gotchaLimit,
		Filter: func(m *model.Memory) bool {
			if recent.InjectedMemoryIDs == nil {
				return true
			}
			return !recent.InjectedMemoryIDs[m.ID]
		},
	})
	if err != nil {
		slog.Warn("decider: gotcha search failed", "project_id", projectID, "error", err)
		return nil
	}
	matches := filterByRelatedFiles(res.Memories, paths)
	if len(matches) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("MEMORY ALERT:\n")
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		fmt.Fprintf(&b, "- [%s] (%s): %s\n", m.Type, joinBasenames(m.RelatedFiles), m.Content)
		ids = append(ids, m.ID)
	}

	return &model.Injection{
		Content:   strings.TrimRight(b.String(), "\n"),
		Type:      model.InjectionGotcha,
		MemoryIDs: ids,
	}
}

// scratchpadReflection implements trigger 2: any acute candidate
// captured since the previous step is surfaced verbatim, carrying no
// memory ids since it references transient session signals.
func (d *Decider) scratchpadReflection(stepNumber int) *model.Injection {
	candidates := d.pad.GetNewSince(stepNumber - 1)
	if len(candidates) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("MEMORY REFLECTION:\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "- [step %d] %s: %s\n", c.StepNumber, c.SignalType, truncate(c.RawData, 200))
	}

	return &model.Injection{
		Content:   strings.TrimRight(b.String(), "\n"),
		Type:      model.InjectionScratchpad,
		MemoryIDs: []string{},
	}
}

// searchShortCircuit implements trigger 3: the last 3 Grep/Glob calls,
// in order, each tried against searchByPattern until one returns a
// not-yet-injected hit.
func (d *Decider) searchShortCircuit(ctx context.Context, projectID string, recent model.RecentContext) *model.Injection {
	patterns := searchToolPatterns(recent.ToolCalls, 3)
	for _, pattern := range patterns {
		m, err := d.mem.SearchByPattern(ctx, projectID, pattern)
		if err != nil {
			slog.Warn("decider: search short-circuit failed", "project_id", projectID, "pattern", pattern, "error", err)
			continue
		}
		if m == nil {
			continue
		}
		if recent.InjectedMemoryIDs != nil && recent.InjectedMemoryIDs[m.ID] {
			continue
		}
		return &model.Injection{
			Content:   "MEMORY CONTEXT: " + m.Content,
			Type:      model.InjectionSearchShortCircuit,
			MemoryIDs: []string{m.ID},
		}
	}
	return nil
}

// fileToolPaths extracts file paths targeted by Read, Edit, Write and
// MultiEdit tool calls.
func fileToolPaths(calls []model.ToolCall) []string {
	var paths []string
	for _, c := range calls {
		if c.ToolName != "Read" && c.ToolName != "Edit" && c.ToolName != "Write" && c.ToolName != "MultiEdit" {
			continue
		}
		p := c.Args["path"]
		if p == "" {
			p = c.Args["file_path"]
		}
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// searchToolPatterns extracts non-empty patterns from the last n
// Grep/Glob tool calls, in call order.
func searchToolPatterns(calls []model.ToolCall, n int) []string {
	var patterns []string
	for _, c := range calls {
		if c.ToolName != "Grep" && c.ToolName != "Glob" {
			continue
		}
		p := c.Args["pattern"]
		if p != "" {
			patterns = append(patterns, p)
		}
	}
	if len(patterns) > n {
		patterns = patterns[len(patterns)-n:]
	}
	return patterns
}

// filterByRelatedFiles keeps only memories whose relatedFiles intersect
// paths, since Search's structural filters don't natively support an
// array-overlap predicate.
func filterByRelatedFiles(memories []model.Memory, paths []string) []model.Memory {
	want := make(map[string]bool, len(paths))
	for _, p := range paths {
		want[p] = true
	}
	var out []model.Memory
	for _, m := range memories {
		for _, f := range m.RelatedFiles {
			if want[f] {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

func joinBasenames(paths []string) string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return strings.Join(names, ", ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
