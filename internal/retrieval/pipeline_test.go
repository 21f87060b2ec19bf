package retrieval

import (
	"strings"
	"testing"

	"github.com/agentmemory/memoryd/internal/model"
)

func TestFormatContextEmptyMemoriesReturnsEmptyString(t *testing.T) {
	if got := formatContext("planning", nil); got != "" {
		t.Errorf("formatContext(empty) = %q, want empty string", got)
	}
}

func TestFormatContextIncludesPhaseHeading(t *testing.T) {
	got := formatContext("planning", []model.Memory{{Type: model.MemoryTypeGotcha, Content: "watch out"}})
	if !strings.Contains(got, "## Retrieved memories (planning)") {
		t.Errorf("formatContext = %q, want a phase-qualified heading", got)
	}
}

func TestFormatContextOmitsPhaseParenWhenEmpty(t *testing.T) {
	got := formatContext("", []model.Memory{{Type: model.MemoryTypeGotcha, Content: "watch out"}})
	if !strings.Contains(got, "## Retrieved memories\n") || strings.Contains(got, "(") {
		t.Errorf("formatContext = %q, want a bare heading with no phase", got)
	}
}

func TestFormatContextGroupsByTypeWithSectionTitles(t *testing.T) {
	got := formatContext("coding", []model.Memory{
		{Type: model.MemoryTypeGotcha, Content: "gotcha one"},
		{Type: model.MemoryTypeDecision, Content: "decision one"},
		{Type: model.MemoryTypeGotcha, Content: "gotcha two"},
	})
	if !strings.Contains(got, "### Gotchas") {
		t.Errorf("formatContext missing Gotchas section: %q", got)
	}
	if !strings.Contains(got, "### Architecture decisions") {
		t.Errorf("formatContext missing Architecture decisions section: %q", got)
	}
	gotchaIdx := strings.Index(got, "### Gotchas")
	decisionIdx := strings.Index(got, "### Architecture decisions")
	if gotchaIdx == -1 || decisionIdx == -1 || gotchaIdx > decisionIdx {
		t.Errorf("expected first-seen type order (gotcha before decision): %q", got)
	}
	if !strings.Contains(got, "gotcha one") || !strings.Contains(got, "gotcha two") {
		t.Errorf("expected both gotcha memories grouped under one section: %q", got)
	}
}

func TestFormatContextPrependsContextPrefix(t *testing.T) {
	got := formatContext("coding", []model.Memory{
		{Type: model.MemoryTypeCodeChunk, Content: "return x + 1", ContextPrefix: "File: a.go | Lines: 1-3"},
	})
	if !strings.Contains(got, "File: a.go | Lines: 1-3\n  return x + 1") {
		t.Errorf("formatContext = %q, want context prefix prepended to content", got)
	}
}

func TestSectionTitleUnknownTypeFallsBackToTitleCase(t *testing.T) {
	got := sectionTitle(model.MemoryType("custom_type"))
	if got != "Custom type" {
		t.Errorf("sectionTitle(custom_type) = %q, want %q", got, "Custom type")
	}
}
