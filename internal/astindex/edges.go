package astindex

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/agentmemory/memoryd/internal/model"
	"github.com/agentmemory/memoryd/pkg/treesitter"
)

// extractImportExportEdges walks the tree for import and export
// statements: import specifiers become `imports` edges,
// named imports additionally become `imports_symbol` edges, and
// declarations wrapped in an export statement become `exports` edges
// from the file to the already-resolved inner symbol node.
//
// Only the four languages with dedicated grammar support here (Go,
// TypeScript, JavaScript, Python) get dedicated import/export edges; other
// tree-sitter-supported languages still get file/symbol nodes and
// chunks, just no edges beyond defined_in.
func extractImportExportEdges(tree *sitter.Tree, content []byte, lang treesitter.Language, fileID string, nodes []*model.GraphNode) []RawEdge {
	switch lang {
	case treesitter.LanguageGo:
		return goImports(tree, content, fileID)
	case treesitter.LanguageTypeScript, treesitter.LanguageJavaScript:
		return jsImportsExports(tree, content, fileID, nodes)
	case treesitter.LanguagePython:
		return pyImports(tree, content, fileID)
	default:
		return nil
	}
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	return strings.Trim(s, `"'`+"`")
}

// goImports walks import_declaration > import_spec nodes, emitting one
// `imports` edge per imported package path.
func goImports(tree *sitter.Tree, content []byte, fileID string) []RawEdge {
	var edges []RawEdge
	root := tree.RootNode()
	for _, decl := range treesitter.FindChildrenByType(root, "import_declaration") {
		specs := collectImportSpecs(decl)
		for _, spec := range specs {
			pathNode := treesitter.FindChildByType(spec, "interpreted_string_literal")
			if pathNode == nil {
				continue
			}
			path := unquote(treesitter.GetNodeContent(pathNode, content))
			edges = append(edges, RawEdge{FromID: fileID, ToLabel: path, Type: model.EdgeImports, External: true})
		}
	}
	return edges
}

func collectImportSpecs(decl *sitter.Node) []*sitter.Node {
	if list := treesitter.FindChildByType(decl, "import_spec_list"); list != nil {
		return treesitter.FindChildrenByType(list, "import_spec")
	}
	return treesitter.FindChildrenByType(decl, "import_spec")
}

// jsImportsExports handles ES module import/export statements.
func jsImportsExports(tree *sitter.Tree, content []byte, fileID string, nodes []*model.GraphNode) []RawEdge {
	var edges []RawEdge
	root := tree.RootNode()

	for _, imp := range treesitter.FindChildrenByType(root, "import_statement") {
		sourceNode := imp.ChildByFieldName("source")
		if sourceNode == nil {
			continue
		}
		modulePath := unquote(treesitter.GetNodeContent(sourceNode, content))
		edges = append(edges, RawEdge{FromID: fileID, ToLabel: modulePath, Type: model.EdgeImports, External: true})

		clause := treesitter.FindChildByType(imp, "import_clause")
		if clause == nil {
			continue
		}
		for _, name := range namedImportIdentifiers(clause, content) {
			edges = append(edges, RawEdge{
				FromID:   fileID,
				ToLabel:  modulePath + ":" + name,
				Type:     model.EdgeImportsSymbol,
				External: true,
			})
		}
	}

	for _, exp := range treesitter.FindChildrenByType(root, "export_statement") {
		inner := innermostDeclaration(exp)
		if inner == nil {
			continue
		}
		name := declarationName(inner, content)
		if name == "" {
			continue
		}
		if n := findNodeByLineRange(nodes, int(inner.StartPoint().Row)+1, int(inner.EndPoint().Row)+1); n != nil {
			edges = append(edges, RawEdge{FromID: fileID, ToLabel: n.Label, Type: model.EdgeExports})
		}
	}
	return edges
}

func namedImportIdentifiers(clause *sitter.Node, content []byte) []string {
	var names []string
	namedImports := treesitter.FindChildByType(clause, "named_imports")
	if namedImports == nil {
		return names
	}
	for _, spec := range treesitter.FindChildrenByType(namedImports, "import_specifier") {
		nameNode := spec.ChildByFieldName("name")
		if nameNode == nil {
			nameNode = spec.NamedChild(0)
		}
		if nameNode != nil {
			names = append(names, treesitter.GetNodeContent(nameNode, content))
		}
	}
	return names
}

func innermostDeclaration(exportStmt *sitter.Node) *sitter.Node {
	for i := 0; i < int(exportStmt.NamedChildCount()); i++ {
		child := exportStmt.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "function_declaration", "class_declaration", "lexical_declaration", "variable_declaration":
			return child
		}
	}
	return nil
}

func declarationName(node *sitter.Node, content []byte) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return treesitter.GetNodeContent(nameNode, content)
	}
	// lexical/variable declarations: first declarator's name.
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Type() == "variable_declarator" {
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				return treesitter.GetNodeContent(nameNode, content)
			}
		}
	}
	return ""
}

// pyImports handles `import x` and `from x import a, b`.
func pyImports(tree *sitter.Tree, content []byte, fileID string) []RawEdge {
	var edges []RawEdge
	root := tree.RootNode()

	for _, imp := range treesitter.FindChildrenByType(root, "import_statement") {
		for i := 0; i < int(imp.NamedChildCount()); i++ {
			child := imp.NamedChild(i)
			if child == nil {
				continue
			}
			if child.Type() == "dotted_name" || child.Type() == "aliased_import" {
				module := treesitter.GetNodeContent(child, content)
				edges = append(edges, RawEdge{FromID: fileID, ToLabel: module, Type: model.EdgeImports, External: true})
			}
		}
	}

	for _, imp := range treesitter.FindChildrenByType(root, "import_from_statement") {
		moduleNode := imp.ChildByFieldName("module_name")
		if moduleNode == nil {
			continue
		}
		module := treesitter.GetNodeContent(moduleNode, content)
		edges = append(edges, RawEdge{FromID: fileID, ToLabel: module, Type: model.EdgeImports, External: true})

		for i := 0; i < int(imp.NamedChildCount()); i++ {
			child := imp.NamedChild(i)
			if child != nil && child.Type() == "dotted_name" && child != moduleNode {
				name := treesitter.GetNodeContent(child, content)
				edges = append(edges, RawEdge{FromID: fileID, ToLabel: module + ":" + name, Type: model.EdgeImportsSymbol, External: true})
			}
		}
	}
	return edges
}

// callNodeType and calleeField describe how to recognize and extract a
// call expression's target per language.
var callNodeType = map[treesitter.Language]string{
	treesitter.LanguageGo:         "call_expression",
	treesitter.LanguageTypeScript: "call_expression",
	treesitter.LanguageJavaScript: "call_expression",
	treesitter.LanguagePython:     "call",
}

// extractCallEdges emits a `calls` edge from each function/method node to
// every call target textually nested in its body ("Call
// expressions nested inside a named function body").
func extractCallEdges(tree *sitter.Tree, content []byte, lang treesitter.Language, symbols []*treesitter.CodeSymbol, nodes []*model.GraphNode) []RawEdge {
	callType, ok := callNodeType[lang]
	if !ok {
		return nil
	}

	funcNodes := make([]*model.GraphNode, 0, len(nodes))
	for _, n := range nodes {
		if n.Type == model.NodeFunction || n.Type == model.NodeMethod {
			funcNodes = append(funcNodes, n)
		}
	}
	if len(funcNodes) == 0 {
		return nil
	}

	var edges []RawEdge
	root := tree.RootNode()
	iter := treesitter.NewNodeIterator(root)
	for node := iter.Next(); node != nil; node = iter.Next() {
		if node.Type() != callType {
			continue
		}
		callee := callTargetName(node, content)
		if callee == "" {
			continue
		}
		line := int(node.StartPoint().Row) + 1
		enclosing := enclosingFunction(funcNodes, line)
		if enclosing == nil {
			continue
		}
		edges = append(edges, RawEdge{FromID: enclosing.ID, ToLabel: callee, Type: model.EdgeCalls})
	}
	return edges
}

func callTargetName(call *sitter.Node, content []byte) string {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return treesitter.GetNodeContent(fn, content)
	case "selector_expression", "member_expression", "attribute":
		if field := fn.ChildByFieldName("field"); field != nil {
			return treesitter.GetNodeContent(field, content)
		}
		if field := fn.ChildByFieldName("attribute"); field != nil {
			return treesitter.GetNodeContent(field, content)
		}
		if field := fn.ChildByFieldName("property"); field != nil {
			return treesitter.GetNodeContent(field, content)
		}
		return treesitter.GetNodeContent(fn, content)
	default:
		return treesitter.GetNodeContent(fn, content)
	}
}

// enclosingFunction returns the smallest-range function/method node whose
// line span contains line, i.e. the innermost enclosing function.
func enclosingFunction(funcNodes []*model.GraphNode, line int) *model.GraphNode {
	var best *model.GraphNode
	bestSpan := -1
	for _, n := range funcNodes {
		if line < n.StartLine || line > n.EndLine {
			continue
		}
		span := n.EndLine - n.StartLine
		if best == nil || span < bestSpan {
			best = n
			bestSpan = span
		}
	}
	return best
}

func findNodeByLineRange(nodes []*model.GraphNode, startLine, endLine int) *model.GraphNode {
	for _, n := range nodes {
		if n.StartLine == startLine && n.EndLine == endLine {
			return n
		}
	}
	return nil
}
