package memory

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// UpdateAccessCount bumps a memory's access_count and last_accessed_at.
// Failures are logged and swallowed: this runs on every retrieval hit
// and must never block the agent loop.
func (s *Service) UpdateAccessCount(ctx context.Context, id string) {
	_, err := s.st.Execute(ctx, `
		UPDATE memories SET access_count = access_count + 1, last_accessed_at = ?
		WHERE id = ?`, time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		slog.Warn("memory: update access count failed", "id", id, "error", err)
	}
}

// DeprecateMemory marks a memory superseded. Failures are
// logged and swallowed, matching the teacher's "never block on
// housekeeping writes" posture for a soft-delete marker.
func (s *Service) DeprecateMemory(ctx context.Context, id string) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.st.Execute(ctx, `UPDATE memories SET deprecated = 1, deprecated_at = ? WHERE id = ?`, now, id)
	if err != nil {
		slog.Warn("memory: deprecate failed", "id", id, "error", err)
	}
}

// VerifyMemory sets user_verified=true, clearing needs_review. Unlike
// the housekeeping ops above, this is user-initiated and its error
// propagates so the caller can report failure.
func (s *Service) VerifyMemory(ctx context.Context, id string) error {
	if _, err := s.st.Execute(ctx, `
		UPDATE memories SET user_verified = 1, needs_review = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("verify memory: %w", err)
	}
	return nil
}

// PinMemory sets or clears a memory's pinned flag. Search and ranking do
// not consult the flag.
func (s *Service) PinMemory(ctx context.Context, id string, pinned bool) error {
	if _, err := s.st.Execute(ctx, `UPDATE memories SET pinned = ? WHERE id = ?`, pinned, id); err != nil {
		return fmt.Errorf("pin memory: %w", err)
	}
	return nil
}

// DeleteMemory removes a memory row and its FTS and embedding rows,
// the inverse of Store's 3-statement insert.
func (s *Service) DeleteMemory(ctx context.Context, id string) error {
	stmts := []struct {
		sql  string
		args []any
	}{
		{`DELETE FROM memory_embeddings WHERE memory_id = ?`, []any{id}},
		{`DELETE FROM memories_fts WHERE memory_id = ?`, []any{id}},
		{`DELETE FROM memories WHERE id = ?`, []any{id}},
	}
	for _, stmt := range stmts {
		if _, err := s.st.Execute(ctx, stmt.sql, stmt.args...); err != nil {
			return fmt.Errorf("delete memory: %w", err)
		}
	}
	return nil
}
