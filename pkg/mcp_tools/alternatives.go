package mcp_tools

import (
	"context"
	"log/slog"
)

const defaultAlternativesLimit = 5

// AlternativeSuggestions carries "did you mean" hints shown alongside an
// empty search/list result.
type AlternativeSuggestions struct {
	SimilarNames []string
	OtherIDs     []string
}

// projectAlternatives suggests known project ids. With an empty query, as
// list_projects passes for its empty result, it returns the ids only;
// otherwise it also fuzzy-matches the query against them.
func (tm *ToolManager) projectAlternatives(ctx context.Context, query string) AlternativeSuggestions {
	projects, err := tm.indexer.ListProjects(ctx)
	if err != nil {
		slog.Warn("failed to list projects for alternatives", "err", err)
		return AlternativeSuggestions{}
	}

	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ProjectID)
	}

	if query == "" {
		return AlternativeSuggestions{OtherIDs: ids}
	}

	matches := FindSimilarStrings(query, ids, -1)
	names := make([]string, 0, defaultAlternativesLimit)
	for i, m := range matches {
		if i >= defaultAlternativesLimit {
			break
		}
		names = append(names, m.Value)
	}
	return AlternativeSuggestions{SimilarNames: names, OtherIDs: ids}
}
