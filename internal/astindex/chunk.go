package astindex

import (
	"fmt"
	"strings"

	"github.com/agentmemory/memoryd/internal/model"
	"github.com/agentmemory/memoryd/pkg/treesitter"
)

// proseChunkLines is the contiguous line window used for unsupported
// languages and parse failures ("contiguous 100-line chunks of
// type prose").
const proseChunkLines = 100

// contextPrefix builds the chunk half contextual-prefixing
// rule: "File: {path} | {chunkType}: {name|unknown} | Lines: {start}-{end}",
// with the chunkType label omitted when it equals "module".
func contextPrefix(filePath string, typ model.ChunkType, name string, startLine, endLine int) string {
	if name == "" {
		name = "unknown"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s | ", filePath)
	if typ != model.ChunkModule {
		fmt.Fprintf(&b, "%s: %s | ", typ, name)
	}
	fmt.Fprintf(&b, "Lines: %d-%d", startLine, endLine)
	return b.String()
}

// ChunkProse splits content into contiguous proseChunkLines-line windows.
func ChunkProse(filePath string, content []byte) []*model.ASTChunk {
	lines := strings.Split(string(content), "\n")
	if len(lines) == 0 {
		return nil
	}

	var chunks []*model.ASTChunk
	for start := 0; start < len(lines); start += proseChunkLines {
		end := start + proseChunkLines
		if end > len(lines) {
			end = len(lines)
		}
		body := strings.TrimRight(strings.Join(lines[start:end], "\n"), "\n")
		if strings.TrimSpace(body) == "" {
			continue
		}
		startLine, endLine := start+1, end
		chunks = append(chunks, &model.ASTChunk{
			FilePath:      filePath,
			Type:          model.ChunkProse,
			Content:       body,
			StartLine:     startLine,
			EndLine:       endLine,
			ContextPrefix: contextPrefix(filePath, model.ChunkProse, "", startLine, endLine),
		})
	}
	return chunks
}

// ChunkSymbols partitions a successfully-parsed file into one chunk per
// chunkable top-level symbol, folding everything else into module
// chunks: each top-level declaration becomes a chunk, and uncovered
// non-blank top-level lines are grouped into module chunks.
func ChunkSymbols(filePath string, content []byte, symbols []*treesitter.CodeSymbol, chunkableTypes map[treesitter.SymbolType]model.ChunkType) []*model.ASTChunk {
	lines := strings.Split(string(content), "\n")
	if len(lines) == 0 {
		return nil
	}
	covered := make([]bool, len(lines)+1) // 1-indexed

	var chunks []*model.ASTChunk
	for _, sym := range symbols {
		typ, ok := chunkableTypes[sym.SymbolType]
		if !ok {
			// Top-level var/const bindings holding an arrow/closure
			// literal are treated as functions ("arrow-function
			// variable bindings are detected and treated as functions").
			if sym.SymbolType == treesitter.SymbolTypeVariable && looksLikeArrowBinding(sym.SourceCode) {
				typ = model.ChunkFunction
			} else {
				continue
			}
		}
		if sym.ParentID != nil {
			// Only top-level declarations get their own chunk; nested
			// symbols (methods inside a class already chunked as a
			// whole) are covered by their enclosing declaration.
			continue
		}
		body := sliceLines(lines, sym.StartLine, sym.EndLine)
		if strings.TrimSpace(body) == "" {
			continue
		}
		markCovered(covered, sym.StartLine, sym.EndLine)
		chunks = append(chunks, &model.ASTChunk{
			FilePath:      filePath,
			Type:          typ,
			Name:          sym.Name,
			Content:       body,
			StartLine:     sym.StartLine,
			EndLine:       sym.EndLine,
			ContextPrefix: contextPrefix(filePath, typ, sym.Name, sym.StartLine, sym.EndLine),
		})
	}

	chunks = append(chunks, moduleChunksForGaps(filePath, lines, covered)...)
	return chunks
}

// looksLikeArrowBinding is a crude heuristic for "const f = (...) => {...}"
// / "const f = function(...) {...}" style bindings emitted as plain
// variable symbols by grammars that don't distinguish them.
func looksLikeArrowBinding(source string) bool {
	return strings.Contains(source, "=>") || strings.Contains(source, "function(") || strings.Contains(source, "function (")
}

func sliceLines(lines []string, startLine, endLine int) string {
	if startLine < 1 {
		startLine = 1
	}
	if endLine > len(lines) {
		endLine = len(lines)
	}
	if startLine > endLine {
		return ""
	}
	return strings.TrimRight(strings.Join(lines[startLine-1:endLine], "\n"), "\n")
}

func markCovered(covered []bool, startLine, endLine int) {
	if startLine < 1 {
		startLine = 1
	}
	if endLine >= len(covered) {
		endLine = len(covered) - 1
	}
	for i := startLine; i <= endLine; i++ {
		covered[i] = true
	}
}

// moduleChunksForGaps groups contiguous runs of non-blank, uncovered lines
// into module chunks.
func moduleChunksForGaps(filePath string, lines []string, covered []bool) []*model.ASTChunk {
	var chunks []*model.ASTChunk
	runStart := -1
	flush := func(end int) {
		if runStart < 0 {
			return
		}
		body := sliceLines(lines, runStart, end)
		if strings.TrimSpace(body) != "" {
			chunks = append(chunks, &model.ASTChunk{
				FilePath:      filePath,
				Type:          model.ChunkModule,
				Content:       body,
				StartLine:     runStart,
				EndLine:       end,
				ContextPrefix: contextPrefix(filePath, model.ChunkModule, "", runStart, end),
			})
		}
		runStart = -1
	}

	for i := 1; i <= len(lines); i++ {
		blank := strings.TrimSpace(lines[i-1]) == ""
		if covered[i] || blank {
			flush(i - 1)
			continue
		}
		if runStart < 0 {
			runStart = i
		}
	}
	flush(len(lines))
	return chunks
}
