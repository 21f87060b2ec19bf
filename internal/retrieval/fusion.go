package retrieval

import "sort"

// rrfK is the reciprocal-rank-fusion damping constant.
const rrfK = 60

// graphBoostFactor scales the post-fusion neighborhood-overlap bonus.
const graphBoostFactor = 0.3

// scoredID is one memory id with its fused score and contributing paths.
type scoredID struct {
	id      string
	score   float64
	sources map[string]bool
}

// fuse implements weighted reciprocal-rank fusion: each item
// at 0-indexed rank r in path p contributes w_p / (k + r + 1), summed per
// memory id.
func fuse(bm25, dense, graphIDs rankedList, w Weights) []scoredID {
	scores := make(map[string]*scoredID)

	add := func(list rankedList, weight float64, source string) {
		for r, id := range list {
			s, ok := scores[id]
			if !ok {
				s = &scoredID{id: id, sources: make(map[string]bool)}
				scores[id] = s
			}
			s.score += weight / float64(rrfK+r+1)
			s.sources[source] = true
		}
	}

	add(bm25, w.FTS, "fts")
	add(dense, w.Dense, "dense")
	add(graphIDs, w.Graph, "graph")

	out := make([]scoredID, 0, len(scores))
	for _, s := range scores {
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out
}

// applyGraphBoost implements post-fusion neighborhood boost:
// anchor files come from the top-10 results' relatedFiles; candidates
// ranked below top-10 gain score proportional to how many of their
// related files are new (non-anchor) 1-hop neighbors of the anchors.
func applyGraphBoost(ranked []scoredID, relatedFilesByID map[string][]string, neighborOf func(anchors []string) []string) []scoredID {
	if len(ranked) == 0 {
		return ranked
	}
	topK := ranked
	if len(topK) > 10 {
		topK = topK[:10]
	}

	anchorSet := make(map[string]bool)
	for _, r := range topK {
		for _, f := range relatedFilesByID[r.id] {
			anchorSet[f] = true
		}
	}
	if len(anchorSet) == 0 {
		return ranked
	}
	anchors := make([]string, 0, len(anchorSet))
	for f := range anchorSet {
		anchors = append(anchors, f)
	}

	neighborSet := make(map[string]bool)
	for _, f := range neighborOf(anchors) {
		if !anchorSet[f] {
			neighborSet[f] = true
		}
	}
	if len(neighborSet) == 0 {
		return ranked
	}

	for i := 10; i < len(ranked); i++ {
		overlap := 0
		for _, f := range relatedFilesByID[ranked[i].id] {
			if neighborSet[f] {
				overlap++
			}
		}
		if overlap > 0 {
			ranked[i].score += graphBoostFactor * (float64(overlap) / float64(maxInt(len(anchorSet), 1)))
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	return ranked
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
