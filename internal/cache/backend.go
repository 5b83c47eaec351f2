package cache

import (
	"context"

	"github.com/dshills/codeward/internal/providers"
)

// Backend answers repeated requests from the cache and forwards the rest.
type Backend struct {
	next  providers.Backend
	cache *Cache
}

// Wrap returns b unchanged when c is nil or disabled.
func Wrap(b providers.Backend, c *Cache) providers.Backend {
	if c == nil || !c.Enabled() {
		return b
	}
	return &Backend{next: b, cache: c}
}

func (b *Backend) Name() string { return b.next.Name() }

func (b *Backend) Analyze(ctx context.Context, req providers.AnalysisRequest) (providers.AnalysisResponse, error) {
	key := BuildCacheKey(b.next.Name(), req.Model, req.Temperature, req.SystemPrompt, req.UserPrompt)
	if e, ok := b.cache.Get(key); ok {
		return providers.AnalysisResponse{Content: e.Response, TokensUsed: e.TokensUsed}, nil
	}
	resp, err := b.next.Analyze(ctx, req)
	if err != nil {
		return resp, err
	}
	// A failed write only costs a future cache miss.
	_ = b.cache.Put(key, resp.Content, resp.TokensUsed)
	return resp, nil
}
