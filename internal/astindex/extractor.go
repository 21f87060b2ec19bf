// Package astindex implements ASTExtractor + Chunker: it turns
// a source file into the GraphNodes/GraphEdges the code graph stores and
// the ASTChunks the embedding pipeline indexes, driven by the tree-sitter
// grammars in pkg/treesitter.
package astindex

import (
	"context"
	"fmt"

	"github.com/agentmemory/memoryd/internal/graph"
	"github.com/agentmemory/memoryd/internal/model"
	"github.com/agentmemory/memoryd/pkg/treesitter"
)

// Extractor wraps the tree-sitter parser and per-language symbol
// extractors to produce graph nodes/edges and chunks for one file at a
// time.
type Extractor struct {
	parser *treesitter.Parser
	walker *treesitter.ASTWalker
}

// New builds an Extractor with the default language registrations.
func New() *Extractor {
	return &Extractor{
		parser: treesitter.NewParser(),
		walker: treesitter.NewASTWalker(treesitter.DefaultWalkerConfig()),
	}
}

// Close releases parser resources.
func (e *Extractor) Close() { e.parser.Close() }

// Result bundles everything one ExtractFile call produces.
type Result struct {
	Nodes []*model.GraphNode
	Edges []*model.GraphEdge
	// Unresolved carries edges whose target is still a bare label (an
	// import specifier, an imported symbol name, a call target
	// identifier) rather than a graph node id. The indexer resolves
	// these against its running label->id map, creating stub nodes for
	// anything not locally defined.
	Unresolved []RawEdge
	Chunks     []*model.ASTChunk
}

// RawEdge is an edge whose endpoints are still plain labels.
type RawEdge struct {
	FromID   string // already-resolved source node id
	ToLabel  string
	Type     model.EdgeType
	External bool // true when ToLabel names something outside this file/project
}

// symbolTypeToNodeType maps tree-sitter symbol kinds onto the graph's
// narrower node-type vocabulary.
var symbolTypeToNodeType = map[treesitter.SymbolType]model.NodeType{
	treesitter.SymbolTypeFunction:    model.NodeFunction,
	treesitter.SymbolTypeConstructor: model.NodeFunction,
	treesitter.SymbolTypeMethod:      model.NodeMethod,
	treesitter.SymbolTypeClass:       model.NodeClass,
	treesitter.SymbolTypeStruct:      model.NodeClass,
	treesitter.SymbolTypeTrait:       model.NodeInterface,
	treesitter.SymbolTypeInterface:   model.NodeInterface,
	treesitter.SymbolTypeEnum:        model.NodeEnum,
	treesitter.SymbolTypeModule:      model.NodeModule,
	treesitter.SymbolTypeNamespace:   model.NodeModule,
	treesitter.SymbolTypePackage:     model.NodeModule,
	treesitter.SymbolTypeTypeAlias:   model.NodeTypeAlias,
}

// chunkableTypes is the subset of symbol kinds that become their own
// top-level chunk rather than folding into the file's module chunk.
var chunkableTypes = map[treesitter.SymbolType]model.ChunkType{
	treesitter.SymbolTypeFunction:    model.ChunkFunction,
	treesitter.SymbolTypeConstructor: model.ChunkFunction,
	treesitter.SymbolTypeMethod:      model.ChunkFunction,
	treesitter.SymbolTypeClass:       model.ChunkClass,
	treesitter.SymbolTypeStruct:      model.ChunkClass,
	treesitter.SymbolTypeInterface:   model.ChunkClass,
	treesitter.SymbolTypeTrait:       model.ChunkClass,
}

// ExtractFile parses content and produces the file's nodes, edges, and
// chunks. A language with no registered grammar degrades to a prose-only
// result (the extractor still emits the bare file node so callers can
// mark/sweep it). A language that IS registered but whose parse genuinely
// fails is a different case: it returns an error so the caller leaves the
// file's prior nodes stale rather than sweeping them away.
func (e *Extractor) ExtractFile(ctx context.Context, projectID, filePath string, content []byte) (*Result, error) {
	fileNode := &model.GraphNode{
		ProjectID:  projectID,
		Type:       model.NodeFile,
		Label:      filePath,
		FilePath:   filePath,
		Layer:      1,
		Source:     "astindex",
		Confidence: model.ConfidenceVerified,
	}
	fileNode.ID = graph.MakeNodeID(projectID, filePath, filePath, model.NodeFile)

	lang, ok := treesitter.DetectLanguage(filePath)
	if !ok {
		return &Result{
			Nodes:  []*model.GraphNode{fileNode},
			Chunks: ChunkProse(filePath, content),
		}, nil
	}
	fileNode.Language = string(lang)

	tree, err := e.parser.Parse(ctx, content, lang)
	if err != nil && treesitter.IsLanguageSupported(lang) {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}
	if err != nil || tree == nil {
		return &Result{
			Nodes:  []*model.GraphNode{fileNode},
			Chunks: ChunkProse(filePath, content),
		}, nil
	}

	symbols, err := e.walker.ExtractSymbols(tree, content, lang, filePath, projectID)
	if err != nil {
		return nil, fmt.Errorf("extract symbols from %s: %w", filePath, err)
	}

	nodes := make([]*model.GraphNode, 0, len(symbols)+1)
	nodes = append(nodes, fileNode)
	edges := make([]*model.GraphEdge, 0, len(symbols))

	for _, sym := range symbols {
		nodeType, ok := symbolTypeToNodeType[sym.SymbolType]
		if !ok {
			// Fields/properties/variables/constants are not first-class
			// graph nodes; they still
			// contribute to chunk content via their parent.
			continue
		}
		label := fmt.Sprintf("%s:%s", filePath, sym.Name)
		n := &model.GraphNode{
			ProjectID:  projectID,
			Type:       nodeType,
			Label:      label,
			FilePath:   filePath,
			Language:   string(lang),
			StartLine:  sym.StartLine,
			EndLine:    sym.EndLine,
			Layer:      1,
			Source:     "astindex",
			Confidence: model.ConfidenceVerified,
		}
		n.ID = graph.MakeNodeID(projectID, filePath, label, nodeType)
		nodes = append(nodes, n)

		edges = append(edges, &model.GraphEdge{
			ProjectID:  projectID,
			FromID:     n.ID,
			ToID:       fileNode.ID,
			Type:       model.EdgeDefinedIn,
			Weight:     1,
			Confidence: model.ConfidenceVerified,
		})
	}

	unresolved := extractImportExportEdges(tree, content, lang, fileNode.ID, nodes)
	unresolved = append(unresolved, extractCallEdges(tree, content, lang, symbols, nodes)...)

	chunks := ChunkSymbols(filePath, content, symbols, chunkableTypes)

	return &Result{Nodes: nodes, Edges: edges, Unresolved: unresolved, Chunks: chunks}, nil
}
