package graph

import (
	"context"
	"fmt"

	"github.com/agentmemory/memoryd/internal/model"
)

// FindSymbolByName resolves a bare call-target identifier (no file
// qualifier) to a function/method node elsewhere in the project, used by
// the indexer's call-edge resolution. Ambiguous names
// resolve to the first match; callers fall back to a stub node when none
// is found.
func (g *Graph) FindSymbolByName(ctx context.Context, projectID, name string) (*model.GraphNode, error) {
	row := g.st.QueryRow(ctx, `
		SELECT id, type, label, file_path, language, start_line, end_line, layer, source, confidence
		FROM graph_nodes
		WHERE project_id = ? AND stale_at IS NULL AND type IN ('function','method')
		  AND (label = ? OR label LIKE '%:' || ?)
		LIMIT 1`, projectID, name, name)
	n, err := scanNode(row, projectID)
	if err != nil {
		return nil, fmt.Errorf("find symbol %q: %w", name, err)
	}
	return n, nil
}
