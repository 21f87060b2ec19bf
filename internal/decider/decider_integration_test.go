package decider

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/agentmemory/memoryd/internal/embedding"
	"github.com/agentmemory/memoryd/internal/memory"
	"github.com/agentmemory/memoryd/internal/model"
	"github.com/agentmemory/memoryd/internal/scratchpad"
	"github.com/agentmemory/memoryd/internal/store"
)

func newTestDecider(t *testing.T) (*Decider, *memory.Service, *scratchpad.Scratchpad) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "decider.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if err := st.InitializeSchema(context.Background()); err != nil {
		t.Fatalf("InitializeSchema: %v", err)
	}
	emb := embedding.NewService(embedding.Config{}, embedding.NewCache(st))
	mem := memory.New(st, emb, nil)
	pad := scratchpad.New()
	return New(mem, pad), mem, pad
}

// Scenario 3: a gotcha linked to /src/auth.ts and a self_correction
// scratchpad entry for step 4 both apply at step 5; gotcha wins (trigger
// priority order).
func TestDecideGotchaWinsOverScratchpadReflection(t *testing.T) {
	d, mem, pad := newTestDecider(t)
	ctx := context.Background()

	if _, err := mem.Store(ctx, &model.Memory{
		Type:         model.MemoryTypeGotcha,
		Content:      "auth middleware must validate JWT expiry",
		ProjectID:    "p",
		Confidence:   0.9,
		RelatedFiles: []string{"/src/auth.ts"},
	}); err != nil {
		t.Fatalf("store gotcha: %v", err)
	}
	pad.Add(model.AcuteCandidate{SignalType: model.SignalSelfCorrection, RawData: "I made a mistake", StepNumber: 4})

	inj, err := d.Decide(ctx, "p", 5, model.RecentContext{
		ToolCalls: []model.ToolCall{{ToolName: "Read", Args: map[string]string{"file_path": "/src/auth.ts"}}},
	})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if inj == nil {
		t.Fatal("expected an injection, got nil")
	}
	if inj.Type != model.InjectionGotcha {
		t.Errorf("injection type = %v, want gotcha_injection (priority over reflection)", inj.Type)
	}
}

// Scenario 4: with no recent Read/Edit and no new scratchpad entries, a
// Grep call whose pattern matches a stored memory yields the search
// short-circuit trigger.
func TestDecideSearchShortCircuitWhenNoHigherTriggerFires(t *testing.T) {
	d, mem, _ := newTestDecider(t)
	ctx := context.Background()

	if _, err := mem.Store(ctx, &model.Memory{
		Type:       model.MemoryTypePattern,
		Content:    "useCallback requires a stable dependency array",
		ProjectID:  "p",
		Confidence: 0.8,
	}); err != nil {
		t.Fatalf("store: %v", err)
	}

	inj, err := d.Decide(ctx, "p", 5, model.RecentContext{
		ToolCalls: []model.ToolCall{{ToolName: "Grep", Args: map[string]string{"pattern": "useCallback"}}},
	})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if inj == nil {
		t.Fatal("expected a search_short_circuit injection, got nil")
	}
	if inj.Type != model.InjectionSearchShortCircuit {
		t.Errorf("injection type = %v, want search_short_circuit", inj.Type)
	}
	want := "MEMORY CONTEXT: useCallback requires a stable dependency array"
	if inj.Content != want {
		t.Errorf("content = %q, want %q", inj.Content, want)
	}
}

// P9: a pattern whose match is already in recentInjectedIds is not
// re-selected by the search short-circuit trigger.
func TestDecideSearchShortCircuitSkipsAlreadyInjected(t *testing.T) {
	d, mem, _ := newTestDecider(t)
	ctx := context.Background()

	id, err := mem.Store(ctx, &model.Memory{
		Type:       model.MemoryTypePattern,
		Content:    "debounceHandler collapses rapid calls",
		ProjectID:  "p",
		Confidence: 0.8,
	})
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	inj, err := d.Decide(ctx, "p", 5, model.RecentContext{
		ToolCalls:         []model.ToolCall{{ToolName: "Grep", Args: map[string]string{"pattern": "debounceHandler"}}},
		InjectedMemoryIDs: map[string]bool{id: true},
	})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if inj != nil {
		t.Errorf("expected nil injection for already-injected match, got %+v", inj)
	}
}

func TestDecideReturnsNilWhenNothingApplies(t *testing.T) {
	d, _, _ := newTestDecider(t)
	inj, err := d.Decide(context.Background(), "p", 1, model.RecentContext{})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if inj != nil {
		t.Errorf("expected nil, got %+v", inj)
	}
}
