package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentmemory/memoryd/internal/model"
)

// resolveTarget implements the three-tier target resolution
// "analyzeImpact": an exact label match, then a ":symbol" suffix match
// (e.g. "Login" matching label "src/auth.go:Login"), then a file-path
// match against the file node.
func (g *Graph) resolveTarget(ctx context.Context, projectID, target string) (*model.GraphNode, error) {
	if n, err := g.NodeByLabel(ctx, projectID, target); err == nil {
		return n, nil
	}

	row := g.st.QueryRow(ctx, `
		SELECT id, type, label, file_path, language, start_line, end_line, layer, source, confidence
		FROM graph_nodes
		WHERE project_id = ? AND label LIKE '%:' || ? AND stale_at IS NULL LIMIT 1`,
		projectID, target)
	if n, err := scanNode(row, projectID); err == nil {
		return n, nil
	}

	if n, err := g.NodeByFilePath(ctx, projectID, target); err == nil {
		return n, nil
	}

	return nil, fmt.Errorf("target %q not found in graph for project %s", target, projectID)
}

// directDependents returns the nodes with a direct (depth-1) edge into
// targetID, i.e. the immediate callers/importers of the target.
func (g *Graph) directDependents(ctx context.Context, projectID, targetID string) ([]model.GraphNode, error) {
	rows, err := g.st.Query(ctx, `
		SELECT n.id, n.type, n.label, n.file_path, n.language, n.start_line, n.end_line, n.layer, n.source, n.confidence
		FROM graph_nodes n
		JOIN graph_edges e ON e.from_id = n.id
		WHERE e.project_id = ? AND e.to_id = ? AND e.stale_at IS NULL AND n.stale_at IS NULL`,
		projectID, targetID)
	if err != nil {
		return nil, fmt.Errorf("load direct dependents: %w", err)
	}
	defer rows.Close()

	var out []model.GraphNode
	seen := map[string]bool{}
	for rows.Next() {
		var n model.GraphNode
		var typ, conf string
		if err := rows.Scan(&n.ID, &typ, &n.Label, &n.FilePath, &n.Language, &n.StartLine, &n.EndLine, &n.Layer, &n.Source, &conf); err != nil {
			return nil, err
		}
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		n.ProjectID = projectID
		n.Type = model.NodeType(typ)
		n.Confidence = model.NodeConfidence(conf)
		out = append(out, n)
	}
	return out, rows.Err()
}

// AnalyzeImpact implements blast-radius query: given a target
// symbol or file reference, resolve it to a node, then report everything
// that (transitively, up to MaxClosureDepth) depends on it, which of
// those are tests, and which memories reference the affected nodes.
func (g *Graph) AnalyzeImpact(ctx context.Context, projectID, target string) (*model.ImpactResult, error) {
	node, err := g.resolveTarget(ctx, projectID, target)
	if err != nil {
		return nil, err
	}

	direct, err := g.directDependents(ctx, projectID, node.ID)
	if err != nil {
		return nil, err
	}

	transitive, err := g.ancestorsOf(ctx, projectID, node.ID, MaxClosureDepth)
	if err != nil {
		return nil, err
	}

	var tests []model.GraphNode
	testSeen := map[string]bool{}
	for _, hop := range transitive {
		if isTestPath(hop.Node.FilePath) && !testSeen[hop.Node.ID] {
			testSeen[hop.Node.ID] = true
			tests = append(tests, hop.Node)
		}
	}
	for _, n := range direct {
		if isTestPath(n.FilePath) && !testSeen[n.ID] {
			testSeen[n.ID] = true
			tests = append(tests, n)
		}
	}

	affectedIDs := map[string]bool{node.ID: true}
	for _, n := range direct {
		affectedIDs[n.ID] = true
	}
	for _, hop := range transitive {
		affectedIDs[hop.Node.ID] = true
	}
	memIDs, err := g.memoriesForNodes(ctx, affectedIDs)
	if err != nil {
		return nil, err
	}

	return &model.ImpactResult{
		Target:               node.Label,
		DirectDependents:     direct,
		TransitiveDependents: transitive,
		AffectedTests:        tests,
		AffectedMemoryIDs:    memIDs,
	}, nil
}

// memoriesForNodes collects the deduplicated associated_memory_ids across
// a set of nodes.
func (g *Graph) memoriesForNodes(ctx context.Context, nodeIDs map[string]bool) ([]string, error) {
	if len(nodeIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(nodeIDs))
	for id := range nodeIDs {
		ids = append(ids, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := g.st.Query(ctx,
		fmt.Sprintf(`SELECT associated_memory_ids FROM graph_nodes WHERE id IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("load associated memories: %w", err)
	}
	defer rows.Close()

	seen := map[string]bool{}
	var out []string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		for _, id := range decodeStrings(raw) {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out, rows.Err()
}
