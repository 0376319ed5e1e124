// Package embed provides the text embedding capability used for semantic
// scoring, plus adapters that add caching, retries, truncation and latency
// tracking around a concrete provider.
package embed

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// DefaultConcurrency bounds in-flight embedding calls when a caller does not
// specify a limit.
const DefaultConcurrency = 4

// ErrEmptyText is returned by providers that refuse to embed empty input.
var ErrEmptyText = errors.New("embed: empty text")

// ErrDimensionMismatch is returned when two vectors cannot be compared.
var ErrDimensionMismatch = errors.New("embed: vector dimension mismatch")

// Embedder maps text to a fixed-length vector. Implementations must be safe
// for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Func adapts a plain function to the Embedder interface.
type Func func(ctx context.Context, text string) ([]float32, error)

func (f Func) Embed(ctx context.Context, text string) ([]float32, error) { return f(ctx, text) }

type result struct {
	idx int
	vec []float32
	err error
}

// All embeds texts with at most limit calls in flight and returns the
// vectors in input order. The first failure cancels the remaining calls and
// is returned.
func All(ctx context.Context, e Embedder, texts []string, limit int) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan result, len(texts))
	sem := make(chan struct{}, limit)

	for i, text := range texts {
		sem <- struct{}{}
		go func(i int, text string) {
			defer func() { <-sem }()
			if err := ctx.Err(); err != nil {
				results <- result{idx: i, err: err}
				return
			}
			vec, err := e.Embed(ctx, text)
			results <- result{idx: i, vec: vec, err: err}
		}(i, text)
	}

	vectors := make([][]float32, len(texts))
	var firstErr error
	for range texts {
		r := <-results
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("embed text %d: %w", r.idx, r.err)
				cancel()
			}
			continue
		}
		vectors[r.idx] = r.vec
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return vectors, nil
}

// Cosine returns the cosine similarity of a and b. Vectors of different or
// zero length are an error. A zero-norm vector scores 0. Negative values
// are returned unchanged.
func Cosine(a, b []float32) (float64, error) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// Clamp float error so identical vectors never exceed 1.
	return math.Max(-1, math.Min(1, sim)), nil
}
