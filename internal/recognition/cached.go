package recognition

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"receipts/internal/cache"
	"receipts/internal/core"
)

// Cached reuses successful extractions for identical uploads and collapses
// concurrent identical uploads into a single call. Failures are not cached.
type Cached struct {
	next    Recognizer
	store   *cache.LRUCache[core.Extraction]
	group   singleflight.Group
	timeout time.Duration
}

// NewCached wraps next. The shared call is detached from any single caller
// and bounded by timeout instead; a non-positive timeout means no bound.
func NewCached(next Recognizer, store *cache.LRUCache[core.Extraction], timeout time.Duration) *Cached {
	return &Cached{next: next, store: store, timeout: timeout}
}

// Key identifies an upload by content and declared type.
func Key(data []byte, mimeType string) string {
	h := sha256.New()
	h.Write([]byte(mimeType))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cached) Recognize(ctx context.Context, data []byte, mimeType string) (core.Extraction, error) {
	key := Key(data, mimeType)
	if ex, ok := c.store.Get(key); ok {
		slog.DebugContext(ctx, "Recognition cache hit", "key", key[:12])
		return ex, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		if ex, ok := c.store.Get(key); ok {
			return ex, nil
		}
		// one caller going away must not fail the others waiting on this call
		callCtx := context.WithoutCancel(ctx)
		if c.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(callCtx, c.timeout)
			defer cancel()
		}
		ex, err := c.next.Recognize(callCtx, data, mimeType)
		if err != nil {
			return nil, err
		}
		c.store.Set(key, ex)
		return ex, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return core.Extraction{}, ctx.Err()
	case res = <-ch:
	}
	v, err, shared := res.Val, res.Err, res.Shared
	if err != nil {
		return core.Extraction{}, err
	}
	if shared {
		slog.DebugContext(ctx, "Recognition shared with concurrent upload", "key", key[:12])
	}
	return v.(core.Extraction), nil
}

// Stats exposes the underlying cache counters.
func (c *Cached) Stats() cache.Stats {
	return c.store.Stats()
}
