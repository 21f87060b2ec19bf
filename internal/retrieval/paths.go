package retrieval

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agentmemory/memoryd/internal/embedding"
	"github.com/agentmemory/memoryd/internal/graph"
	"github.com/agentmemory/memoryd/internal/store"
)

// rankedList is an ordered list of memory ids, best first, as produced by
// one recall path.
type rankedList []string

const pathTopN = 30

// bm25Path implements Path A: standard FTS5 BM25 sorted
// ascending (more negative is better), scoped to project, excluding
// deprecated.
func bm25Path(ctx context.Context, st *store.Store, projectID, query string) (rankedList, error) {
	rows, err := st.Query(ctx, `
		SELECT f.memory_id
		FROM memories_fts f
		JOIN memories m ON m.id = f.memory_id
		WHERE memories_fts MATCH ? AND m.project_id = ? AND m.deprecated = 0
		ORDER BY bm25(memories_fts) ASC
		LIMIT ?`, ftsQuery(query), projectID, pathTopN)
	if err != nil {
		return nil, fmt.Errorf("bm25 path: %w", err)
	}
	defer rows.Close()

	var ids rankedList
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ftsQuery escapes a free-text query for FTS5 MATCH by wrapping the whole
// query in double quotes, so punctuation in identifiers (e.g. "foo.Bar")
// doesn't break the query-syntax parser. FTS5 reads the result as a single
// phrase: its tokens must appear adjacent and in order.
func ftsQuery(q string) string {
	b, _ := json.Marshal(q)
	return string(b)
}

// densePath implements Path B: embed the query at 256 dims
// (Stage-1), then rank by ascending cosine distance, either in-database
// (if the vector extension is available) or in process.
func densePath(ctx context.Context, st *store.Store, emb *embedding.Service, projectID, query string) (rankedList, error) {
	qv, err := emb.Embed(ctx, query, 256)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	qBlob := store.EncodeVector(qv)

	if st.HasVectorExtension() {
		rows, err := st.Query(ctx, `
			SELECT e.memory_id
			FROM memory_embeddings e
			JOIN memories m ON m.id = e.memory_id
			WHERE m.project_id = ? AND m.deprecated = 0 AND e.dims = 256
			ORDER BY vector_distance_cos(e.vector, ?) ASC
			LIMIT ?`, projectID, qBlob, pathTopN)
		if err == nil {
			defer rows.Close()
			var ids rankedList
			for rows.Next() {
				var id string
				if err := rows.Scan(&id); err != nil {
					return nil, err
				}
				ids = append(ids, id)
			}
			return ids, rows.Err()
		}
	}

	rows, err := st.Query(ctx, `
		SELECT e.memory_id, e.vector
		FROM memory_embeddings e
		JOIN memories m ON m.id = e.memory_id
		WHERE m.project_id = ? AND m.deprecated = 0 AND e.dims = 256`, projectID)
	if err != nil {
		return nil, fmt.Errorf("dense path (in-process): %w", err)
	}
	defer rows.Close()

	var candidates []scoredMemory
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, err
		}
		candidates = append(candidates, scoredMemory{id: id, dist: store.CosineDistance(qv, store.DecodeVector(blob))})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortByDistAsc(candidates)
	if len(candidates) > pathTopN {
		candidates = candidates[:pathTopN]
	}
	ids := make(rankedList, len(candidates))
	for i, c := range candidates {
		ids[i] = c.id
	}
	return ids, nil
}

// scoredMemory pairs a memory id with its cosine distance for in-process
// ranking when the vector extension is unavailable.
type scoredMemory struct {
	id   string
	dist float64
}

func sortByDistAsc(s []scoredMemory) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].dist < s[j-1].dist; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// graphPath implements Path C: memories whose relatedFiles
// overlap the 1-hop closure neighborhood of recentFiles. Returns an empty
// list (not an error) when recentFiles is empty, signaling the caller to
// redistribute this path's weight.
func graphPath(ctx context.Context, st *store.Store, g *graph.Graph, projectID string, recentFiles []string) (rankedList, error) {
	if len(recentFiles) == 0 {
		return nil, nil
	}
	neighbors, err := g.NeighborFiles(ctx, projectID, recentFiles)
	if err != nil {
		return nil, fmt.Errorf("graph path neighbors: %w", err)
	}
	all := append(append([]string{}, recentFiles...), neighbors...)
	if len(all) == 0 {
		return nil, nil
	}

	rows, err := st.Query(ctx, `
		SELECT id, related_files FROM memories
		WHERE project_id = ? AND deprecated = 0 AND related_files != '[]'
		LIMIT 500`, projectID)
	if err != nil {
		return nil, fmt.Errorf("graph path candidates: %w", err)
	}
	defer rows.Close()

	fileSet := make(map[string]bool, len(all))
	for _, f := range all {
		fileSet[f] = true
	}

	var ids rankedList
	for rows.Next() {
		var id, relatedJSON string
		if err := rows.Scan(&id, &relatedJSON); err != nil {
			return nil, err
		}
		var related []string
		if err := json.Unmarshal([]byte(relatedJSON), &related); err != nil {
			continue
		}
		for _, f := range related {
			if fileSet[f] {
				ids = append(ids, id)
				break
			}
		}
		if len(ids) >= pathTopN {
			break
		}
	}
	return ids, rows.Err()
}
