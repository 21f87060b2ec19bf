package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentmemory/memoryd/internal/store"
)

const cacheTTL = 7 * 24 * time.Hour

// Cache is the content-addressed embedding cache
// (EmbeddingCache), keyed by sha256(text ‖ modelId ‖ dims).
type Cache struct {
	st *store.Store
}

// NewCache binds the cache to the shared Store.
func NewCache(st *store.Store) *Cache { return &Cache{st: st} }

// Key computes the cache key for a given text/model/dims triple.
func Key(text, modelID string, dims int) string {
	h := sha256.New()
	h.Write([]byte(text))
	h.Write([]byte{0})
	h.Write([]byte(modelID))
	h.Write([]byte{0})
	fmt.Fprintf(h, "%d", dims)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached vector if present and unexpired. Cache failures
// are non-fatal: callers treat any error as a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]float32, bool) {
	row := c.st.QueryRow(ctx, `SELECT vector FROM embedding_cache WHERE cache_key = ? AND expires_at > ?`,
		key, time.Now().UTC().Format(time.RFC3339Nano))
	var blob []byte
	if err := row.Scan(&blob); err != nil {
		return nil, false
	}
	return store.DecodeVector(blob), true
}

// Put inserts or replaces a cache entry with a 7-day expiry.
func (c *Cache) Put(ctx context.Context, key, modelID string, dims int, vector []float32) {
	now := time.Now().UTC()
	_, err := c.st.Execute(ctx,
		`INSERT INTO embedding_cache(cache_key, vector, model_id, dims, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET vector=excluded.vector, model_id=excluded.model_id,
		   dims=excluded.dims, created_at=excluded.created_at, expires_at=excluded.expires_at`,
		key, store.EncodeVector(vector), modelID, dims,
		now.Format(time.RFC3339Nano), now.Add(cacheTTL).Format(time.RFC3339Nano))
	if err != nil {
		slog.Warn("embedding cache write failed, continuing without cache", "error", err)
	}
}
