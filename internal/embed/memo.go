package embed

import (
	"context"
	"sync"
)

// Memo caches vectors by exact text for the lifetime of one run.
// Errors are not cached.
type Memo struct {
	inner Embedder

	mu    sync.Mutex
	cache map[string][]float32
	hits  int
}

var _ Embedder = (*Memo)(nil)

func NewMemo(inner Embedder) *Memo {
	return &Memo{inner: inner, cache: make(map[string][]float32)}
}

func (m *Memo) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	if vec, ok := m.cache[text]; ok {
		m.hits++
		m.mu.Unlock()
		return vec, nil
	}
	m.mu.Unlock()

	vec, err := m.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.cache[text] = vec
	m.mu.Unlock()
	return vec, nil
}

// Hits returns how many calls were served from the cache.
func (m *Memo) Hits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits
}
