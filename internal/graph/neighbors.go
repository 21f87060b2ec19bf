package graph

import (
	"context"
	"fmt"
)

// NeighborFiles resolves each of filePaths to its file node, then returns
// the distinct set of file paths reachable within one closure hop in
// either direction (Path C / graph-neighborhood boost: "1-hop
// closure neighborhood of those files").
func (g *Graph) NeighborFiles(ctx context.Context, projectID string, filePaths []string) ([]string, error) {
	if len(filePaths) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(filePaths))
	args := make([]any, 0, len(filePaths)+1)
	args = append(args, projectID)
	for i, p := range filePaths {
		placeholders[i] = "?"
		args = append(args, p)
	}
	inClause := ""
	for i, ph := range placeholders {
		if i > 0 {
			inClause += ","
		}
		inClause += ph
	}

	rows, err := g.st.Query(ctx, fmt.Sprintf(`
		SELECT id FROM graph_nodes
		WHERE project_id = ? AND type = 'file' AND stale_at IS NULL AND file_path IN (%s)`, inClause),
		args...)
	if err != nil {
		return nil, fmt.Errorf("resolve anchor file nodes: %w", err)
	}
	var anchorIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		anchorIDs = append(anchorIDs, id)
	}
	rows.Close()
	if len(anchorIDs) == 0 {
		return nil, nil
	}

	idPlaceholders := make([]string, len(anchorIDs))
	for i := range anchorIDs {
		idPlaceholders[i] = "?"
	}
	idIn := ""
	for i, ph := range idPlaceholders {
		if i > 0 {
			idIn += ","
		}
		idIn += ph
	}

	idArgs := make([]any, 0, 2*(len(anchorIDs)+1))
	idArgs = append(idArgs, projectID)
	for _, id := range anchorIDs {
		idArgs = append(idArgs, id)
	}
	idArgs = append(idArgs, projectID)
	for _, id := range anchorIDs {
		idArgs = append(idArgs, id)
	}

	neighborRows, err := g.st.Query(ctx, fmt.Sprintf(`
		SELECT DISTINCT n.file_path
		FROM graph_closure c
		JOIN graph_nodes n ON n.id = c.descendant AND n.project_id = c.project_id
		WHERE c.project_id = ? AND c.depth = 1 AND c.ancestor IN (%s) AND n.type = 'file' AND n.stale_at IS NULL
		UNION
		SELECT DISTINCT n.file_path
		FROM graph_closure c
		JOIN graph_nodes n ON n.id = c.ancestor AND n.project_id = c.project_id
		WHERE c.project_id = ? AND c.depth = 1 AND c.descendant IN (%s) AND n.type = 'file' AND n.stale_at IS NULL`,
		idIn, idIn), idArgs...)
	if err != nil {
		return nil, fmt.Errorf("query neighbor files: %w", err)
	}
	defer neighborRows.Close()

	var neighbors []string
	for neighborRows.Next() {
		var p string
		if err := neighborRows.Scan(&p); err != nil {
			return nil, err
		}
		neighbors = append(neighbors, p)
	}
	return neighbors, neighborRows.Err()
}
