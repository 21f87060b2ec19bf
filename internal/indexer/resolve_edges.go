package indexer

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/agentmemory/memoryd/internal/astindex"
	"github.com/agentmemory/memoryd/internal/graph"
	"github.com/agentmemory/memoryd/internal/model"
)

// resolveEdge implements step 8: resolve a RawEdge's target
// against the local (this-file) label->id map first; for a relative-path
// import label, create a stub file node at the resolved path; for an
// unresolved external symbol, create a stub module node tagged
// metadata.external = true.
func (idx *Indexer) resolveEdge(ctx context.Context, projectID, relPath string, raw astindex.RawEdge, local map[string]string) (string, error) {
	if id, ok := local[raw.ToLabel]; ok {
		return id, nil
	}

	switch raw.Type {
	case model.EdgeImports, model.EdgeImportsSymbol:
		return idx.resolveImportTarget(ctx, projectID, relPath, raw)
	case model.EdgeCalls:
		return idx.resolveCallTarget(ctx, projectID, raw.ToLabel)
	default:
		return idx.stubModuleNode(ctx, projectID, raw.ToLabel)
	}
}

// resolveImportTarget resolves an imports/imports_symbol edge's module
// specifier. A relative specifier ("./x", "../x") is resolved against the
// importing file's directory and stubbed as a file node if not already
// indexed; anything else is an external package, stubbed as a module node.
func (idx *Indexer) resolveImportTarget(ctx context.Context, projectID, relPath string, raw astindex.RawEdge) (string, error) {
	spec := raw.ToLabel
	if sym := strings.LastIndex(spec, ":"); raw.Type == model.EdgeImportsSymbol && sym >= 0 {
		module, symbol := spec[:sym], spec[sym+1:]
		if n, err := idx.graph.FindSymbolByName(ctx, projectID, symbol); err == nil {
			return n.ID, nil
		}
		return idx.resolveImportTarget(ctx, projectID, relPath, astindex.RawEdge{ToLabel: module, Type: model.EdgeImports, External: raw.External})
	}

	if strings.HasPrefix(spec, ".") {
		resolved := path.Clean(path.Join(path.Dir(relPath), spec))
		if n, err := idx.graph.NodeByFilePath(ctx, projectID, resolved); err == nil {
			return n.ID, nil
		}
		return idx.stubFileNode(ctx, projectID, resolved)
	}
	return idx.stubModuleNode(ctx, projectID, spec)
}

// resolveCallTarget resolves a bare call-target identifier against the
// whole project's function/method nodes, stubbing an external module node
// when nothing matches (the callee is assumed to come from a dependency).
func (idx *Indexer) resolveCallTarget(ctx context.Context, projectID, name string) (string, error) {
	if n, err := idx.graph.FindSymbolByName(ctx, projectID, name); err == nil {
		return n.ID, nil
	}
	return idx.stubModuleNode(ctx, projectID, name)
}

// stubFileNode creates (or returns the id of) a low-confidence file node
// for a path referenced by an import but not yet indexed.
func (idx *Indexer) stubFileNode(ctx context.Context, projectID, filePath string) (string, error) {
	n := &model.GraphNode{
		ProjectID:  projectID,
		Type:       model.NodeFile,
		Label:      filePath,
		FilePath:   filePath,
		Layer:      1,
		Source:     "indexer-stub",
		Confidence: model.ConfidenceInferred,
	}
	n.ID = graph.MakeNodeID(projectID, filePath, filePath, model.NodeFile)
	if err := idx.graph.UpsertNode(ctx, n); err != nil {
		return "", fmt.Errorf("stub file node %s: %w", filePath, err)
	}
	return n.ID, nil
}

// stubModuleNode creates (or returns the id of) an external-module stub
// node for an unresolved import specifier or call target.
func (idx *Indexer) stubModuleNode(ctx context.Context, projectID, label string) (string, error) {
	n := &model.GraphNode{
		ProjectID:  projectID,
		Type:       model.NodeModule,
		Label:      label,
		Layer:      1,
		Source:     "indexer-stub",
		Confidence: model.ConfidenceInferred,
		Metadata:   map[string]any{"external": true},
	}
	n.ID = graph.MakeNodeID(projectID, "", label, model.NodeModule)
	if err := idx.graph.UpsertNode(ctx, n); err != nil {
		return "", fmt.Errorf("stub module node %s: %w", label, err)
	}
	return n.ID, nil
}
