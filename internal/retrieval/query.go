// Package retrieval implements RetrievalPipeline: query-type
// classification, three independent recall paths (BM25, dense cosine,
// graph-neighborhood), weighted reciprocal-rank fusion, a graph-proximity
// boost, and markdown materialization for the agent loop.
package retrieval

import (
	"path"
	"regexp"
	"strings"
)

// QueryType is the classification performs before fusion
// weights are picked.
type QueryType string

const (
	QueryIdentifier QueryType = "identifier"
	QueryStructural QueryType = "structural"
	QuerySemantic   QueryType = "semantic"
)

var camelCaseRe = regexp.MustCompile(`[a-z][A-Z]`)

// sourceExtensions is the set of "ends with a known source extension"
// suffixes uses as an identifier signal.
var sourceExtensions = []string{
	".go", ".ts", ".tsx", ".js", ".jsx", ".py", ".rs", ".rb", ".java", ".kt", ".c", ".cpp", ".h", ".hpp",
}

// structuralToolNames are the tool calls treats as carrying a
// structural-query signal ("impact analysis, dependency queries").
var structuralToolNames = map[string]bool{
	"analyze_impact":       true,
	"code_impact_analysis": true,
	"find_dependents":      true,
	"dependency_graph":     true,
	"code_graph_query":     true,
}

// hasIdentifierSignal reports whether query looks like a source
// identifier rather than prose.
func hasIdentifierSignal(query string) bool {
	if camelCaseRe.MatchString(query) {
		return true
	}
	if strings.ContainsAny(query, "_/") {
		return true
	}
	ext := path.Ext(query)
	for _, known := range sourceExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

// ClassifyQuery implements three-way query classification.
func ClassifyQuery(query string, recentToolCalls []string) QueryType {
	if hasIdentifierSignal(query) {
		return QueryIdentifier
	}
	for _, t := range recentToolCalls {
		if structuralToolNames[t] {
			return QueryStructural
		}
	}
	return QuerySemantic
}
