package graph

import (
	"context"
	"fmt"

	"github.com/agentmemory/memoryd/internal/model"
	"github.com/agentmemory/memoryd/internal/store"
)

type closureRow struct {
	ancestor   string
	descendant string
	depth      int
	path       []string
	edgeTypes  []string
	weight     float64
}

// adjacency loads the full edge set for a project as forward adjacency
// (fromID -> []edge), used by both incremental and full closure builds.
func (g *Graph) adjacency(ctx context.Context, projectID string) (map[string][]*model.GraphEdge, error) {
	rows, err := g.st.Query(ctx, `
		SELECT id, from_id, to_id, type, weight, confidence
		FROM graph_edges WHERE project_id = ? AND stale_at IS NULL`, projectID)
	if err != nil {
		return nil, fmt.Errorf("load edges: %w", err)
	}
	defer rows.Close()

	adj := make(map[string][]*model.GraphEdge)
	for rows.Next() {
		var e model.GraphEdge
		var typ, conf string
		if err := rows.Scan(&e.ID, &e.FromID, &e.ToID, &typ, &e.Weight, &conf); err != nil {
			return nil, err
		}
		e.ProjectID = projectID
		e.Type = model.EdgeType(typ)
		e.Confidence = model.NodeConfidence(conf)
		adj[e.FromID] = append(adj[e.FromID], &e)
	}
	return adj, rows.Err()
}

// bfsFrom walks forward adjacency from root up to MaxClosureDepth hops,
// returning one closureRow per distinct descendant reached (shortest path
// kept when a node is reachable by multiple routes).
func bfsFrom(root string, adj map[string][]*model.GraphEdge) []closureRow {
	type frontierEntry struct {
		node      string
		path      []string
		edgeTypes []string
		weight    float64
	}
	visited := map[string]bool{root: true}
	frontier := []frontierEntry{{node: root, path: []string{root}}}
	var out []closureRow

	for depth := 1; depth <= MaxClosureDepth && len(frontier) > 0; depth++ {
		var next []frontierEntry
		for _, fe := range frontier {
			for _, e := range adj[fe.node] {
				if visited[e.ToID] {
					continue
				}
				visited[e.ToID] = true
				path := append(append([]string{}, fe.path...), e.ToID)
				edgeTypes := append(append([]string{}, fe.edgeTypes...), string(e.Type))
				next = append(next, frontierEntry{node: e.ToID, path: path, edgeTypes: edgeTypes, weight: fe.weight + e.Weight})
				out = append(out, closureRow{
					ancestor: root, descendant: e.ToID, depth: depth,
					path: path, edgeTypes: edgeTypes, weight: fe.weight + e.Weight,
				})
			}
		}
		frontier = next
	}
	return out
}

// RebuildClosure recomputes graph_closure for every node in projectID from
// scratch ("Closure maintenance" — full rebuild path, used after
// a cold-start index or bulk staleness sweep).
func (g *Graph) RebuildClosure(ctx context.Context, projectID string) error {
	adj, err := g.adjacency(ctx, projectID)
	if err != nil {
		return err
	}
	rows, err := g.st.Query(ctx, `SELECT id FROM graph_nodes WHERE project_id = ? AND stale_at IS NULL`, projectID)
	if err != nil {
		return fmt.Errorf("load nodes: %w", err)
	}
	var roots []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		roots = append(roots, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if _, err := g.st.Execute(ctx, `DELETE FROM graph_closure WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("clear closure: %w", err)
	}

	stmts := make([]store.Stmt, 0, len(roots)*4)
	for _, root := range roots {
		for _, r := range bfsFrom(root, adj) {
			stmts = append(stmts, store.Stmt{
				SQL: `INSERT INTO graph_closure(project_id, ancestor, descendant, depth, path, edge_types, total_weight)
					VALUES (?,?,?,?,?,?,?)
					ON CONFLICT(project_id, ancestor, descendant) DO UPDATE SET
					  depth=excluded.depth, path=excluded.path, edge_types=excluded.edge_types, total_weight=excluded.total_weight`,
				Args: []any{projectID, r.ancestor, r.descendant, r.depth, encodeStrings(r.path), encodeStrings(r.edgeTypes), r.weight},
			})
		}
	}
	if len(stmts) == 0 {
		return nil
	}
	return g.st.Batch(ctx, stmts)
}

// UpdateClosureForNode recomputes closure rows rooted at nodeID (both as
// ancestor and, for correctness of anyone whose shortest path now routes
// through it, by a full recompute of affected ancestors). For the bounded
// depths this system operates at, recomputing from every ancestor that can
// reach nodeID plus nodeID's own descendants keeps cost proportional to
// the local neighborhood rather than the whole graph: incremental,
// bounded to depth 5.
func (g *Graph) UpdateClosureForNode(ctx context.Context, projectID, nodeID string) error {
	adj, err := g.adjacency(ctx, projectID)
	if err != nil {
		return err
	}

	// Ancestors of nodeID: any node whose existing closure row reaches it,
	// plus nodeID itself (to pick up its own new outgoing edges).
	affected := map[string]bool{nodeID: true}
	rows, err := g.st.Query(ctx, `SELECT ancestor FROM graph_closure WHERE project_id = ? AND descendant = ?`, projectID, nodeID)
	if err != nil {
		return fmt.Errorf("load ancestors: %w", err)
	}
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			rows.Close()
			return err
		}
		affected[a] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	stmts := make([]store.Stmt, 0, len(affected)*4+1)
	for root := range affected {
		stmts = append(stmts, store.Stmt{
			SQL:  `DELETE FROM graph_closure WHERE project_id = ? AND ancestor = ?`,
			Args: []any{projectID, root},
		})
		for _, r := range bfsFrom(root, adj) {
			stmts = append(stmts, store.Stmt{
				SQL: `INSERT INTO graph_closure(project_id, ancestor, descendant, depth, path, edge_types, total_weight)
					VALUES (?,?,?,?,?,?,?)
					ON CONFLICT(project_id, ancestor, descendant) DO UPDATE SET
					  depth=excluded.depth, path=excluded.path, edge_types=excluded.edge_types, total_weight=excluded.total_weight`,
				Args: []any{projectID, r.ancestor, r.descendant, r.depth, encodeStrings(r.path), encodeStrings(r.edgeTypes), r.weight},
			})
		}
	}
	if len(stmts) == 0 {
		return nil
	}
	return g.st.Batch(ctx, stmts)
}

// ancestorsOf returns the closure rows in which nodeID is the descendant,
// used by analyzeImpact's transitive-dependents walk: analyzeImpact wants
// "what depends on nodeID", i.e. the ancestors that reach nodeID within
// maxDepth hops, sorted by depth then label.
func (g *Graph) ancestorsOf(ctx context.Context, projectID, nodeID string, maxDepth int) ([]model.ImpactHop, error) {
	rows, err := g.st.Query(ctx, `
		SELECT ancestor, depth FROM graph_closure
		WHERE project_id = ? AND descendant = ? AND depth <= ?`, projectID, nodeID, maxDepth)
	if err != nil {
		return nil, fmt.Errorf("load ancestors of %s: %w", nodeID, err)
	}
	defer rows.Close()

	var hops []model.ImpactHop
	for rows.Next() {
		var id string
		var depth int
		if err := rows.Scan(&id, &depth); err != nil {
			return nil, err
		}
		n, err := g.nodeByID(ctx, projectID, id)
		if err != nil {
			continue
		}
		hops = append(hops, model.ImpactHop{Node: *n, Depth: depth})
	}
	sortHops(hops)
	return hops, rows.Err()
}

func (g *Graph) nodeByID(ctx context.Context, projectID, id string) (*model.GraphNode, error) {
	row := g.st.QueryRow(ctx, `
		SELECT id, type, label, file_path, language, start_line, end_line, layer, source, confidence
		FROM graph_nodes WHERE project_id = ? AND id = ?`, projectID, id)
	return scanNode(row, projectID)
}
