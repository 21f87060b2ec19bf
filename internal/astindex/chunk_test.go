package astindex

import (
	"strings"
	"testing"

	"github.com/agentmemory/memoryd/internal/model"
	"github.com/agentmemory/memoryd/pkg/treesitter"
)

func TestChunkProseSplitsInto100LineWindows(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 250; i++ {
		b.WriteString("line\n")
	}
	chunks := ChunkProse("readme.md", []byte(b.String()))
	if len(chunks) != 3 {
		t.Fatalf("len(chunks) = %d, want 3", len(chunks))
	}
	if chunks[0].Type != model.ChunkProse {
		t.Errorf("chunk type = %v, want prose", chunks[0].Type)
	}
	if chunks[0].StartLine != 1 || chunks[0].EndLine != 100 {
		t.Errorf("chunk 0 lines = %d-%d, want 1-100", chunks[0].StartLine, chunks[0].EndLine)
	}
	if chunks[2].StartLine != 201 {
		t.Errorf("chunk 2 start = %d, want 201", chunks[2].StartLine)
	}
}

func TestChunkProseSkipsBlankWindows(t *testing.T) {
	chunks := ChunkProse("empty.txt", []byte("\n\n\n"))
	if len(chunks) != 0 {
		t.Errorf("expected no chunks for all-blank content, got %d", len(chunks))
	}
}

func TestContextPrefixOmitsModuleLabel(t *testing.T) {
	got := contextPrefix("a.ts", model.ChunkModule, "", 1, 3)
	want := "File: a.ts | Lines: 1-3"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestContextPrefixIncludesTypeAndUnknownName(t *testing.T) {
	got := contextPrefix("a.ts", model.ChunkFunction, "", 1, 3)
	want := "File: a.ts | function: unknown | Lines: 1-3"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestChunkSymbolsOneChunkPerTopLevelDeclaration(t *testing.T) {
	content := []byte("func myFunction(x int) int {\n\treturn x * 2\n}\n")
	symbols := []*treesitter.CodeSymbol{
		{SymbolType: treesitter.SymbolTypeFunction, Name: "myFunction", StartLine: 1, EndLine: 3},
	}
	chunks := ChunkSymbols("src/utils.go", content, symbols, chunkableTypes)
	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1", len(chunks))
	}
	c := chunks[0]
	if c.Type != model.ChunkFunction || c.Name != "myFunction" {
		t.Errorf("chunk = %+v, want function myFunction", c)
	}
	if c.StartLine != 1 || c.EndLine != 3 {
		t.Errorf("chunk lines = %d-%d, want 1-3", c.StartLine, c.EndLine)
	}
}

func TestChunkSymbolsSkipsNestedSymbols(t *testing.T) {
	parentID := "class-id"
	content := []byte("class Foo {\n  bar() {}\n}\n")
	symbols := []*treesitter.CodeSymbol{
		{ID: "class-id", SymbolType: treesitter.SymbolTypeClass, Name: "Foo", StartLine: 1, EndLine: 3},
		{SymbolType: treesitter.SymbolTypeMethod, Name: "bar", StartLine: 2, EndLine: 2, ParentID: &parentID},
	}
	chunks := ChunkSymbols("a.ts", content, symbols, chunkableTypes)
	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1 (nested method folded into class)", len(chunks))
	}
	if chunks[0].Name != "Foo" {
		t.Errorf("chunk name = %q, want Foo", chunks[0].Name)
	}
}

func TestChunkSymbolsDetectsArrowFunctionBinding(t *testing.T) {
	content := []byte("const handler = (req, res) => {\n  res.send('ok')\n}\n")
	symbols := []*treesitter.CodeSymbol{
		{SymbolType: treesitter.SymbolTypeVariable, Name: "handler", StartLine: 1, EndLine: 3, SourceCode: "const handler = (req, res) => {\n  res.send('ok')\n}"},
	}
	chunks := ChunkSymbols("a.js", content, symbols, chunkableTypes)
	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1", len(chunks))
	}
	if chunks[0].Type != model.ChunkFunction {
		t.Errorf("chunk type = %v, want function (arrow binding detected)", chunks[0].Type)
	}
}

func TestChunkSymbolsGroupsUncoveredLinesIntoModuleChunks(t *testing.T) {
	content := []byte("import x from 'x'\n\nfunc myFunc() {}\n")
	symbols := []*treesitter.CodeSymbol{
		{SymbolType: treesitter.SymbolTypeFunction, Name: "myFunc", StartLine: 3, EndLine: 3},
	}
	chunks := ChunkSymbols("a.go", content, symbols, chunkableTypes)
	var hasModule, hasFunction bool
	for _, c := range chunks {
		if c.Type == model.ChunkModule {
			hasModule = true
			if !strings.Contains(c.Content, "import x from 'x'") {
				t.Errorf("module chunk content = %q, want to contain import line", c.Content)
			}
		}
		if c.Type == model.ChunkFunction {
			hasFunction = true
		}
	}
	if !hasModule || !hasFunction {
		t.Errorf("expected both module and function chunks, got %+v", chunks)
	}
}

func TestChunkSymbolsNonChunkableTypeVariableFoldsIntoModule(t *testing.T) {
	content := []byte("const PI = 3.14\n")
	symbols := []*treesitter.CodeSymbol{
		{SymbolType: treesitter.SymbolTypeConstant, Name: "PI", StartLine: 1, EndLine: 1},
	}
	chunks := ChunkSymbols("a.go", content, symbols, chunkableTypes)
	if len(chunks) != 1 || chunks[0].Type != model.ChunkModule {
		t.Fatalf("chunks = %+v, want single module chunk", chunks)
	}
}
