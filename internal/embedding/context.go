package embedding

import (
	"fmt"
	"strings"

	"github.com/agentmemory/memoryd/internal/model"
)

// ChunkContextText formats a chunk: "File: {path} |
// {chunkType}: {name|unknown} | Lines: {start}-{end}\n\n{content}", with
// the chunkType label omitted when it equals "module".
func ChunkContextText(c *model.ASTChunk) string {
	name := c.Name
	if name == "" {
		name = "unknown"
	}
	var typePart string
	if c.Type != model.ChunkModule {
		typePart = fmt.Sprintf("%s: %s | ", c.Type, name)
	}
	return fmt.Sprintf("File: %s | %sLines: %d-%d\n\n%s", c.FilePath, typePart, c.StartLine, c.EndLine, c.Content)
}

// MemoryContextText formats a memory: "[Files: …] |
// [Module: first related module] | Type: {type}\n\n{content}", omitting
// bracketed parts that are empty; if everything is empty, the content is
// embedded unmodified.
func MemoryContextText(m *model.Memory) string {
	var parts []string
	if len(m.RelatedFiles) > 0 {
		parts = append(parts, fmt.Sprintf("[Files: %s]", strings.Join(m.RelatedFiles, ", ")))
	}
	if len(m.RelatedModules) > 0 {
		parts = append(parts, fmt.Sprintf("[Module: %s]", m.RelatedModules[0]))
	}
	if len(parts) == 0 {
		return m.Content
	}
	parts = append(parts, fmt.Sprintf("Type: %s", m.Type))
	return strings.Join(parts, " | ") + "\n\n" + m.Content
}
