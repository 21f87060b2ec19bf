package embedding

import (
	"strings"
	"testing"

	"github.com/agentmemory/memoryd/internal/model"
)

func TestChunkContextTextOmitsModuleLabel(t *testing.T) {
	c := &model.ASTChunk{
		FilePath:  "src/utils.ts",
		Type:      model.ChunkModule,
		StartLine: 1,
		EndLine:   3,
		Content:   "const x = 1;",
	}
	got := ChunkContextText(c)
	want := "File: src/utils.ts | Lines: 1-3\n\nconst x = 1;"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestChunkContextTextIncludesTypeAndName(t *testing.T) {
	c := &model.ASTChunk{
		FilePath:  "src/utils.ts",
		Type:      model.ChunkFunction,
		Name:      "myFunction",
		StartLine: 3,
		EndLine:   5,
		Content:   "function myFunction() {}",
	}
	got := ChunkContextText(c)
	want := "File: src/utils.ts | function: myFunction | Lines: 3-5\n\nfunction myFunction() {}"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestChunkContextTextUnnamedUsesUnknown(t *testing.T) {
	c := &model.ASTChunk{FilePath: "f.go", Type: model.ChunkFunction, StartLine: 1, EndLine: 2, Content: "x"}
	got := ChunkContextText(c)
	if !strings.Contains(got, "function: unknown") {
		t.Errorf("got %q, want it to contain %q", got, "function: unknown")
	}
}

func TestMemoryContextTextAllEmptyReturnsContentUnmodified(t *testing.T) {
	m := &model.Memory{Type: model.MemoryTypeGotcha, Content: "raw content"}
	got := MemoryContextText(m)
	if got != "raw content" {
		t.Errorf("got %q, want unmodified content", got)
	}
}

func TestMemoryContextTextOmitsEmptyBracketedParts(t *testing.T) {
	m := &model.Memory{
		Type:         model.MemoryTypeGotcha,
		Content:      "body",
		RelatedFiles: []string{"a.go", "b.go"},
	}
	got := MemoryContextText(m)
	want := "[Files: a.go, b.go] | Type: gotcha\n\nbody"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMemoryContextTextIncludesFirstModuleOnly(t *testing.T) {
	m := &model.Memory{
		Type:           model.MemoryTypeDecision,
		Content:        "body",
		RelatedModules: []string{"auth", "billing"},
	}
	got := MemoryContextText(m)
	want := "[Module: auth] | Type: decision\n\nbody"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
