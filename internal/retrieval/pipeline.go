package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agentmemory/memoryd/internal/embedding"
	"github.com/agentmemory/memoryd/internal/graph"
	"github.com/agentmemory/memoryd/internal/model"
	"github.com/agentmemory/memoryd/internal/store"
)

const defaultMaxResults = 8

// Pipeline is RetrievalPipeline: it fans a query out across
// three independent recall paths, fuses them by weighted reciprocal
// rank, applies a graph-proximity boost, and materializes the final
// memories plus a markdown rendering for the agent loop.
type Pipeline struct {
	store     *store.Store
	embedding *embedding.Service
	graph     *graph.Graph
}

// New builds a Pipeline over the given store, embedding service and code
// graph.
func New(st *store.Store, emb *embedding.Service, g *graph.Graph) *Pipeline {
	return &Pipeline{store: st, embedding: emb, graph: g}
}

// Options configures a single Search call.
type Options struct {
	ProjectID       string
	Phase           string
	MaxResults      int
	RecentFiles     []string
	RecentToolCalls []string
}

// Result is a Search call's materialized output.
type Result struct {
	Memories         []model.Memory
	FormattedContext string
	QueryType        QueryType
}

// Search implements end to end. Per the "pipeline never
// throws" failure model, a recall path that errors degrades to an empty
// result for that path rather than failing the whole search; only a
// hard materialization failure is returned as an error.
func (p *Pipeline) Search(ctx context.Context, query string, opts Options) (*Result, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	qt := ClassifyQuery(query, opts.RecentToolCalls)
	weights := WeightsFor(qt)

	bm25IDs, err := bm25Path(ctx, p.store, opts.ProjectID, query)
	if err != nil {
		slog.Warn("retrieval: bm25 path failed", "error", err)
		bm25IDs = nil
	}

	denseIDs, err := densePath(ctx, p.store, p.embedding, opts.ProjectID, query)
	if err != nil {
		slog.Warn("retrieval: dense path failed", "error", err)
		denseIDs = nil
	}

	graphIDs, err := graphPath(ctx, p.store, p.graph, opts.ProjectID, opts.RecentFiles)
	if err != nil {
		slog.Warn("retrieval: graph path failed", "error", err)
		graphIDs = nil
	}
	if len(graphIDs) == 0 {
		weights = redistributeGraphWeight(weights)
	}

	fused := fuse(bm25IDs, denseIDs, graphIDs, weights)
	if len(fused) == 0 {
		return &Result{QueryType: qt}, nil
	}

	allIDs := make([]string, len(fused))
	for i, s := range fused {
		allIDs[i] = s.id
	}
	relatedFilesByID, err := fetchRelatedFiles(ctx, p.store, allIDs)
	if err != nil {
		slog.Warn("retrieval: related-files lookup failed", "error", err)
		relatedFilesByID = map[string][]string{}
	}

	neighborOf := func(anchors []string) []string {
		neighbors, err := p.graph.NeighborFiles(ctx, opts.ProjectID, anchors)
		if err != nil {
			slog.Warn("retrieval: graph boost neighbor lookup failed", "error", err)
			return nil
		}
		return neighbors
	}
	boosted := applyGraphBoost(fused, relatedFilesByID, neighborOf)

	finalIDs := make([]string, len(boosted))
	for i, s := range boosted {
		finalIDs[i] = s.id
	}

	memories, err := materialize(ctx, p.store, finalIDs, maxResults)
	if err != nil {
		return nil, fmt.Errorf("retrieval search: %w", err)
	}

	return &Result{
		Memories:         memories,
		FormattedContext: formatContext(opts.Phase, memories),
		QueryType:        qt,
	}, nil
}

// fetchRelatedFiles bulk-loads related_files for a set of memory ids, for
// use by the post-fusion graph boost.
func fetchRelatedFiles(ctx context.Context, st *store.Store, ids []string) (map[string][]string, error) {
	out := make(map[string][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := st.Query(ctx, fmt.Sprintf(
		`SELECT id, related_files FROM memories WHERE id IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, relatedJSON string
		if err := rows.Scan(&id, &relatedJSON); err != nil {
			return nil, err
		}
		var related []string
		if err := json.Unmarshal([]byte(relatedJSON), &related); err == nil {
			out[id] = related
		}
	}
	return out, rows.Err()
}

// formatContext renders memories as a phase-appropriate markdown block,
// grouped by type with section titles, returned verbatim to the agent.
func formatContext(phase string, memories []model.Memory) string {
	if len(memories) == 0 {
		return ""
	}

	groups := make(map[model.MemoryType][]model.Memory)
	var order []model.MemoryType
	for _, m := range memories {
		if _, seen := groups[m.Type]; !seen {
			order = append(order, m.Type)
		}
		groups[m.Type] = append(groups[m.Type], m)
	}

	var b strings.Builder
	if phase != "" {
		fmt.Fprintf(&b, "## Retrieved memories (%s)\n\n", phase)
	} else {
		b.WriteString("## Retrieved memories\n\n")
	}

	for _, t := range order {
		fmt.Fprintf(&b, "### %s\n", sectionTitle(t))
		for _, m := range groups[t] {
			content := m.Content
			if m.ContextPrefix != "" {
				content = m.ContextPrefix + "\n" + content
			}
			fmt.Fprintf(&b, "- %s\n", strings.ReplaceAll(strings.TrimSpace(content), "\n", "\n  "))
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func sectionTitle(t model.MemoryType) string {
	switch t {
	case model.MemoryTypeGotcha:
		return "Gotchas"
	case model.MemoryTypeErrorPattern:
		return "Error patterns"
	case model.MemoryTypeDeadEnd:
		return "Dead ends"
	case model.MemoryTypeCodeChunk:
		return "Code"
	case model.MemoryTypePreference:
		return "Preferences"
	case model.MemoryTypeWorkflowRecipe:
		return "Workflow recipes"
	case model.MemoryTypeDecision:
		return "Architecture decisions"
	case model.MemoryTypePattern:
		return "Patterns"
	case model.MemoryTypeTaskCalibration:
		return "Task calibrations"
	case model.MemoryTypeCausalDependency:
		return "Causal dependencies"
	case model.MemoryTypeWorkUnitOutcome:
		return "Work-unit outcomes"
	case model.MemoryTypeE2EObservation:
		return "End-to-end observations"
	case model.MemoryTypeRequirement:
		return "Requirements"
	default:
		return strings.ToUpper(string(t)[:1]) + strings.ReplaceAll(string(t)[1:], "_", " ")
	}
}
