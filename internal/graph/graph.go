// Package graph implements GraphDatabase: CRUD over typed
// code-symbol nodes and edges, a Glean-style mark-then-sweep staleness
// model keyed on file edits, transitive-closure maintenance, and impact
// analysis.
package graph

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/agentmemory/memoryd/internal/model"
	"github.com/agentmemory/memoryd/internal/store"
)

// MaxClosureDepth bounds both incremental BFS maintenance and
// analyzeImpact's transitive walk.
const MaxClosureDepth = 5

// Graph owns all node/edge/closure persistence.
type Graph struct {
	st *store.Store
}

// New binds a Graph to the shared Store.
func New(st *store.Store) *Graph { return &Graph{st: st} }

// MakeNodeID computes the deterministic node id from its identifying
// fields.
func MakeNodeID(projectID, filePath, label string, typ model.NodeType) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s", projectID, filePath, label, typ)
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// MakeEdgeID computes the deterministic edge id.
func MakeEdgeID(projectID, fromID, toID string, typ model.EdgeType) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s", projectID, fromID, toID, typ)
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// UpsertNode inserts or updates a node by its deterministic id, clearing
// staleAt on every upsert.
func (g *Graph) UpsertNode(ctx context.Context, n *model.GraphNode) error {
	if n.ID == "" {
		n.ID = MakeNodeID(n.ProjectID, n.FilePath, n.Label, n.Type)
	}
	now := time.Now().UTC()
	n.UpdatedAt = now
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	metaJSON, err := json.Marshal(orEmpty(n.Metadata))
	if err != nil {
		return fmt.Errorf("marshal node metadata: %w", err)
	}
	memIDs, _ := json.Marshal(n.AssociatedMemoryIDs)

	_, err = g.st.Execute(ctx, `
		INSERT INTO graph_nodes(id, project_id, type, label, file_path, language, start_line, end_line,
			layer, source, confidence, metadata, created_at, updated_at, stale_at, associated_memory_ids)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,NULL,?)
		ON CONFLICT(id) DO UPDATE SET
			type=excluded.type, label=excluded.label, file_path=excluded.file_path,
			language=excluded.language, start_line=excluded.start_line, end_line=excluded.end_line,
			layer=excluded.layer, source=excluded.source, confidence=excluded.confidence,
			metadata=excluded.metadata, updated_at=excluded.updated_at, stale_at=NULL`,
		n.ID, n.ProjectID, string(n.Type), n.Label, n.FilePath, n.Language, n.StartLine, n.EndLine,
		n.Layer, n.Source, string(n.Confidence), string(metaJSON),
		n.CreatedAt.Format(time.RFC3339Nano), n.UpdatedAt.Format(time.RFC3339Nano), string(memIDs))
	if err != nil {
		return fmt.Errorf("upsert node: %w", err)
	}
	return nil
}

// UpsertEdge inserts or updates an edge by its deterministic id, clearing
// staleAt and advancing updatedAt on re-upsert.
func (g *Graph) UpsertEdge(ctx context.Context, e *model.GraphEdge) error {
	if e.ID == "" {
		e.ID = MakeEdgeID(e.ProjectID, e.FromID, e.ToID, e.Type)
	}
	now := time.Now().UTC()
	e.UpdatedAt = now
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	metaJSON, err := json.Marshal(orEmpty(e.Metadata))
	if err != nil {
		return fmt.Errorf("marshal edge metadata: %w", err)
	}
	_, err = g.st.Execute(ctx, `
		INSERT INTO graph_edges(id, project_id, from_id, to_id, type, weight, confidence, metadata,
			created_at, updated_at, stale_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,NULL)
		ON CONFLICT(id) DO UPDATE SET
			weight=excluded.weight, confidence=excluded.confidence, metadata=excluded.metadata,
			updated_at=excluded.updated_at, stale_at=NULL`,
		e.ID, e.ProjectID, e.FromID, e.ToID, string(e.Type), e.Weight, string(e.Confidence),
		string(metaJSON), e.CreatedAt.Format(time.RFC3339Nano), e.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert edge: %w", err)
	}
	return nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// MarkFileStale implements the Glean-style staleness model's first two
// steps: mark all nodes for filePath stale, then all edges with either
// endpoint among those nodes.
func (g *Graph) MarkFileStale(ctx context.Context, projectID, filePath string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := g.st.Execute(ctx,
		`UPDATE graph_nodes SET stale_at = ? WHERE project_id = ? AND file_path = ? AND stale_at IS NULL`,
		now, projectID, filePath); err != nil {
		return fmt.Errorf("mark nodes stale: %w", err)
	}
	if _, err := g.st.Execute(ctx, `
		UPDATE graph_edges SET stale_at = ?
		WHERE project_id = ? AND stale_at IS NULL AND (
			from_id IN (SELECT id FROM graph_nodes WHERE project_id = ? AND file_path = ?) OR
			to_id IN (SELECT id FROM graph_nodes WHERE project_id = ? AND file_path = ?)
		)`, now, projectID, projectID, filePath, projectID, filePath); err != nil {
		return fmt.Errorf("mark edges stale: %w", err)
	}
	return nil
}

// DeleteStaleForFile implements step 4: delete remaining stale rows for
// filePath after re-extraction has cleared staleAt on anything still
// current.
func (g *Graph) DeleteStaleForFile(ctx context.Context, projectID, filePath string) error {
	if _, err := g.st.Execute(ctx, `
		DELETE FROM graph_edges WHERE project_id = ? AND stale_at IS NOT NULL AND (
			from_id IN (SELECT id FROM graph_nodes WHERE project_id = ? AND file_path = ?) OR
			to_id IN (SELECT id FROM graph_nodes WHERE project_id = ? AND file_path = ?)
		)`, projectID, projectID, filePath, projectID, filePath); err != nil {
		return fmt.Errorf("delete stale edges: %w", err)
	}
	if _, err := g.st.Execute(ctx,
		`DELETE FROM graph_nodes WHERE project_id = ? AND file_path = ? AND stale_at IS NOT NULL`,
		projectID, filePath); err != nil {
		return fmt.Errorf("delete stale nodes: %w", err)
	}
	return nil
}

// NodeByLabel resolves a node by exact (project, label) match, used by
// local label->id maps during indexing and by analyzeImpact.
func (g *Graph) NodeByLabel(ctx context.Context, projectID, label string) (*model.GraphNode, error) {
	row := g.st.QueryRow(ctx, `
		SELECT id, type, label, file_path, language, start_line, end_line, layer, source, confidence
		FROM graph_nodes WHERE project_id = ? AND label = ? AND stale_at IS NULL LIMIT 1`,
		projectID, label)
	return scanNode(row, projectID)
}

// NodeByFilePath resolves the file node for a path.
func (g *Graph) NodeByFilePath(ctx context.Context, projectID, filePath string) (*model.GraphNode, error) {
	row := g.st.QueryRow(ctx, `
		SELECT id, type, label, file_path, language, start_line, end_line, layer, source, confidence
		FROM graph_nodes WHERE project_id = ? AND file_path = ? AND type = 'file' AND stale_at IS NULL LIMIT 1`,
		projectID, filePath)
	return scanNode(row, projectID)
}

// ListFilePaths returns every non-stale file node's path for a project,
// used by the watcher's catch-up reconciliation against the filesystem.
func (g *Graph) ListFilePaths(ctx context.Context, projectID string) ([]string, error) {
	rows, err := g.st.Query(ctx, `
		SELECT file_path FROM graph_nodes
		WHERE project_id = ? AND type = 'file' AND stale_at IS NULL`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list file paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner, projectID string) (*model.GraphNode, error) {
	var n model.GraphNode
	var typ, conf string
	if err := row.Scan(&n.ID, &typ, &n.Label, &n.FilePath, &n.Language, &n.StartLine, &n.EndLine, &n.Layer, &n.Source, &conf); err != nil {
		return nil, err
	}
	n.ProjectID = projectID
	n.Type = model.NodeType(typ)
	n.Confidence = model.NodeConfidence(conf)
	return &n, nil
}

// encodeStrings serializes a string slice (a closure path or edge-type
// sequence) as a JSON array, in the given order.
func encodeStrings(ss []string) string {
	b, _ := json.Marshal(ss)
	return string(b)
}

func decodeStrings(s string) []string {
	var out []string
	_ = json.Unmarshal([]byte(s), &out)
	return out
}

// isTestPath is the heuristic used by analyzeImpact's affectedTests.
func isTestPath(p string) bool {
	lower := strings.ToLower(p)
	return strings.Contains(lower, "_test.") || strings.Contains(lower, "/test/") ||
		strings.Contains(lower, ".test.") || strings.Contains(lower, ".spec.") ||
		strings.HasPrefix(lower, "test_")
}

func sortHops(hops []model.ImpactHop) {
	sort.Slice(hops, func(i, j int) bool {
		if hops[i].Depth != hops[j].Depth {
			return hops[i].Depth < hops[j].Depth
		}
		return hops[i].Node.Label < hops[j].Node.Label
	})
}
