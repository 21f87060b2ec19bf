// Package bridge implements WorkerBridge: the correlated
// request/response channel between a sandboxed agent-session worker and
// the host thread that owns the MemoryService, GraphDatabase and
// Decider. This port chooses concurrency model (b) — a
// single host process with a dedicated DB/service owner and
// request-scoped goroutines per in-flight call — rather than spawning
// literal OS worker processes; the requestId-correlated timeout
// contract is identical either way.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentmemory/memoryd/internal/decider"
	"github.com/agentmemory/memoryd/internal/memory"
	"github.com/agentmemory/memoryd/internal/model"
	"github.com/agentmemory/memoryd/internal/scratchpad"
)

// requestTimeout is 3 second per-request deadline.
const requestTimeout = 3 * time.Second

// Bridge is the host-side endpoint: it owns the MemoryService, Decider
// and Observer, and answers correlated requests from worker sessions.
type Bridge struct {
	mem      *memory.Service
	decider  *decider.Decider
	observer *scratchpad.Observer

	mu      sync.Mutex
	pending map[string]context.CancelFunc
}

// New binds a Bridge to the host-owned collaborators it answers
// requests against.
func New(mem *memory.Service, dec *decider.Decider, observer *scratchpad.Observer) *Bridge {
	return &Bridge{mem: mem, decider: dec, observer: observer, pending: make(map[string]context.CancelFunc)}
}

// NotifyToolCall, NotifyToolResult, NotifyReasoning and NotifyStepComplete
// are the fire-and-forget messages ("tool-call,
// tool-result, reasoning, step-complete"); they forward directly to the
// Observer and never block the caller on a response.
func (b *Bridge) NotifyToolCall(ctx context.Context, projectID, sessionID string, call model.ToolCall) {
	b.observer.OnToolCall(ctx, projectID, sessionID, call)
}

func (b *Bridge) NotifyToolResult(ctx context.Context, projectID string, stepNumber int, call model.ToolCall, result string, isError bool) {
	b.observer.OnToolResult(ctx, projectID, stepNumber, call, result, isError)
}

func (b *Bridge) NotifyReasoning(stepNumber int, text string) {
	b.observer.OnReasoning(stepNumber, text)
}

func (b *Bridge) NotifyStepComplete(ctx context.Context, projectID string, touchedFiles []string) {
	b.observer.OnStepComplete(ctx, projectID, touchedFiles)
}

// RequestMemorySearch implements the `memory:search` request/response
// pair. On timeout it degrades to an empty result rather than an error,
// "graceful degradation — never block the agent loop".
func (b *Bridge) RequestMemorySearch(ctx context.Context, filters model.SearchFilters) (*memory.SearchResult, error) {
	result, err := b.call(ctx, func(ctx context.Context) (any, error) {
		return b.mem.Search(ctx, filters)
	})
	if err != nil {
		if err == errTimedOut {
			return &memory.SearchResult{}, nil
		}
		return nil, fmt.Errorf("memory:search: %w", err)
	}
	return result.(*memory.SearchResult), nil
}

// RequestMemoryRecord implements the `memory:record` request/response
// pair.
func (b *Bridge) RequestMemoryRecord(ctx context.Context, entry *model.Memory) (string, error) {
	result, err := b.call(ctx, func(ctx context.Context) (any, error) {
		return b.mem.Store(ctx, entry)
	})
	if err != nil {
		if err == errTimedOut {
			return "", nil
		}
		return "", fmt.Errorf("memory:record: %w", err)
	}
	return result.(string), nil
}

// RequestStepInjection implements the `memory:step-injection-request`
// request/response pair.
func (b *Bridge) RequestStepInjection(ctx context.Context, projectID string, stepNumber int, recent model.RecentContext) (*model.Injection, error) {
	result, err := b.call(ctx, func(ctx context.Context) (any, error) {
		return b.decider.Decide(ctx, projectID, stepNumber, recent)
	})
	if err != nil {
		if err == errTimedOut {
			return nil, nil
		}
		return nil, fmt.Errorf("memory:step-injection-request: %w", err)
	}
	return result.(*model.Injection), nil
}

var errTimedOut = fmt.Errorf("bridge: request timed out")

// call implements the requestId-correlated timeout machinery shared by
// every request/response op: a fresh UUID identifies the pending entry,
// work runs in its own goroutine so a slow DB call can't wedge the
// caller past the deadline, and the entry is removed whether it
// completes or times out.
func (b *Bridge) call(ctx context.Context, work func(ctx context.Context) (any, error)) (any, error) {
	requestID := uuid.NewString()
	callCtx, cancel := context.WithTimeout(ctx, requestTimeout)

	b.mu.Lock()
	b.pending[requestID] = cancel
	b.mu.Unlock()
	defer b.resolve(requestID)

	type outcome struct {
		val any
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := work(callCtx)
		done <- outcome{v, err}
	}()

	select {
	case o := <-done:
		return o.val, o.err
	case <-callCtx.Done():
		slog.Warn("bridge: request timed out", "request_id", requestID)
		return nil, errTimedOut
	}
}

func (b *Bridge) resolve(requestID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cancel, ok := b.pending[requestID]; ok {
		cancel()
		delete(b.pending, requestID)
	}
}

// Shutdown implements "Cleanup": on worker exit, every pending
// entry is resolved (its context canceled) and cleared.
func (b *Bridge) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, cancel := range b.pending {
		cancel()
		delete(b.pending, id)
	}
}
