package bridge

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestBridge() *Bridge {
	return New(nil, nil, nil)
}

func TestCallReturnsWorkResult(t *testing.T) {
	b := newTestBridge()
	got, err := b.call(context.Background(), func(ctx context.Context) (any, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("call returned error: %v", err)
	}
	if got != "ok" {
		t.Fatalf("call = %v, want %q", got, "ok")
	}
	if len(b.pending) != 0 {
		t.Errorf("pending map not cleared after call completes, has %d entries", len(b.pending))
	}
}

func TestCallPropagatesWorkError(t *testing.T) {
	b := newTestBridge()
	wantErr := errors.New("boom")
	_, err := b.call(context.Background(), func(ctx context.Context) (any, error) {
		return nil, wantErr
	})
	if err != wantErr {
		t.Fatalf("call error = %v, want %v", err, wantErr)
	}
}

func TestCallTimesOutOnSlowWork(t *testing.T) {
	b := newTestBridge()
	// A parent deadline shorter than requestTimeout still bounds callCtx,
	// since context.WithTimeout never relaxes an already-tighter deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := b.call(ctx, func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	if err != errTimedOut {
		t.Fatalf("call error = %v, want errTimedOut", err)
	}
	if len(b.pending) != 0 {
		t.Errorf("pending map not cleared after timeout, has %d entries", len(b.pending))
	}
}

func TestShutdownClearsPending(t *testing.T) {
	b := newTestBridge()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b.pending["req1"] = cancel

	b.Shutdown()
	if len(b.pending) != 0 {
		t.Errorf("Shutdown left %d pending entries, want 0", len(b.pending))
	}
	select {
	case <-ctx.Done():
	default:
		t.Error("Shutdown did not cancel the pending request's context")
	}
}
