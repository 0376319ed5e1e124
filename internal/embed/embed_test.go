package embed

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestCosine(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero norm", []float32{0, 0}, []float32{1, 1}, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Cosine(c.a, c.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-c.want) > 1e-9 {
				t.Errorf("expected %f, got %f", c.want, got)
			}
		})
	}
}

func TestCosineRejectsMismatchedVectors(t *testing.T) {
	cases := map[string][2][]float32{
		"length mismatch": {{1}, {1, 1}},
		"empty":           {nil, nil},
		"one empty":       {{1, 0}, nil},
	}
	for name, c := range cases {
		if _, err := Cosine(c[0], c[1]); !errors.Is(err, ErrDimensionMismatch) {
			t.Errorf("%s: expected ErrDimensionMismatch, got %v", name, err)
		}
	}
}

func mustCosine(t *testing.T, a, b []float32) float64 {
	t.Helper()
	sim, err := Cosine(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return sim
}

func TestAllPreservesOrder(t *testing.T) {
	e := Func(func(ctx context.Context, text string) ([]float32, error) {
		// Later items finish first.
		time.Sleep(time.Duration(5-len(text)) * time.Millisecond)
		return []float32{float32(len(text))}, nil
	})
	texts := []string{"a", "bb", "ccc", "dddd"}

	vecs, err := All(context.Background(), e, texts, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range vecs {
		if int(v[0]) != len(texts[i]) {
			t.Errorf("vector %d: expected %d, got %v", i, len(texts[i]), v[0])
		}
	}
}

func TestAllRespectsLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	e := Func(func(ctx context.Context, text string) ([]float32, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return []float32{1}, nil
	})

	texts := make([]string, 20)
	if _, err := All(context.Background(), e, texts, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak.Load() > 3 {
		t.Fatalf("expected at most 3 concurrent calls, got %d", peak.Load())
	}
}

func TestAllReturnsFirstError(t *testing.T) {
	sentinel := errors.New("provider down")
	e := Func(func(ctx context.Context, text string) ([]float32, error) {
		if text == "fail" {
			return nil, sentinel
		}
		return []float32{1}, nil
	})

	_, err := All(context.Background(), e, []string{"ok", "fail", "ok"}, 2)
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
}

func TestHashingDeterministicAndNormalised(t *testing.T) {
	h := NewHashing(64)
	ctx := context.Background()

	a, _ := h.Embed(ctx, "Gene expression methodology for literature review")
	b, _ := h.Embed(ctx, "Gene expression methodology for literature review")
	if sim := mustCosine(t, a, b); sim < 0.999 {
		t.Fatalf("expected identical vectors, got cosine %f", sim)
	}

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Fatalf("expected unit norm, got %f", norm)
	}
}

func TestHashingSharedVocabularyScoresHigher(t *testing.T) {
	h := NewHashing(DefaultHashingDim)
	ctx := context.Background()

	query, _ := h.Embed(ctx, "Role: researcher\nTask: literature review on gene expression methodology")
	related, _ := h.Embed(ctx, "Methodology: we measured gene expression across samples for the literature review")
	unrelated, _ := h.Embed(ctx, "We thank our families and funding agencies for their patience")

	rel, unrel := mustCosine(t, query, related), mustCosine(t, query, unrelated)
	if rel <= unrel {
		t.Fatalf("expected related text to score higher: related=%f unrelated=%f", rel, unrel)
	}
}

func TestHashingEmptyTextIsZeroVector(t *testing.T) {
	vec, err := NewHashing(8).Embed(context.Background(), "  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, v := range vec {
		if v != 0 {
			t.Fatalf("expected zero vector, got %v", vec)
		}
	}
}

func TestMemoCachesSuccessesOnly(t *testing.T) {
	var calls atomic.Int32
	inner := Func(func(ctx context.Context, text string) ([]float32, error) {
		calls.Add(1)
		if text == "bad" {
			return nil, errors.New("boom")
		}
		return []float32{1}, nil
	})
	m := NewMemo(inner)
	ctx := context.Background()

	m.Embed(ctx, "same")
	m.Embed(ctx, "same")
	m.Embed(ctx, "bad")
	m.Embed(ctx, "bad")

	if calls.Load() != 3 {
		t.Fatalf("expected 3 inner calls, got %d", calls.Load())
	}
	if m.Hits() != 1 {
		t.Fatalf("expected 1 hit, got %d", m.Hits())
	}
}

func TestRetryingRetriesRetryableErrors(t *testing.T) {
	var calls atomic.Int32
	inner := Func(func(ctx context.Context, text string) ([]float32, error) {
		if calls.Add(1) < 3 {
			return nil, &RetryableError{Err: errors.New("503")}
		}
		return []float32{1}, nil
	})
	r := WithRetry(inner, 3, nil)
	r.Backoff = func(int) time.Duration { return 0 }

	if _, err := r.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestRetryingStopsOnPermanentError(t *testing.T) {
	var calls atomic.Int32
	inner := Func(func(ctx context.Context, text string) ([]float32, error) {
		calls.Add(1)
		return nil, errors.New("invalid api key")
	})
	r := WithRetry(inner, 3, nil)
	r.Backoff = func(int) time.Duration { return 0 }

	if _, err := r.Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 call, got %d", calls.Load())
	}
}

func TestRetryingGivesUp(t *testing.T) {
	inner := Func(func(ctx context.Context, text string) ([]float32, error) {
		return nil, &RetryableError{Err: errors.New("429")}
	})
	r := WithRetry(inner, 2, nil)
	r.Backoff = func(int) time.Duration { return 0 }

	_, err := r.Embed(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "after 2 attempts") {
		t.Fatalf("expected give-up error, got %v", err)
	}
}

func TestBackoffBounds(t *testing.T) {
	for attempt := range 8 {
		d := Backoff(attempt)
		base := time.Duration(1<<uint(attempt)) * time.Second
		if base > 30*time.Second {
			base = 30 * time.Second
		}
		if d < base || d >= base+base/2 {
			t.Errorf("attempt %d: backoff %v outside [%v, %v)", attempt, d, base, base+base/2)
		}
	}
}

func TestTruncate(t *testing.T) {
	text := strings.Repeat("word ", 100)
	got := Truncate(text, 10)
	if n := len(strings.Fields(got)); n != 7 {
		t.Fatalf("expected 7 words, got %d", n)
	}
	if Truncate("short text", 10) != "short text" {
		t.Fatal("expected short text unchanged")
	}
}

func TestEstimateTokens(t *testing.T) {
	if EstimateTokens("") != 0 {
		t.Fatal("expected 0 tokens for empty text")
	}
	if got := EstimateTokens("one"); got != 1 {
		t.Fatalf("expected 1 token, got %d", got)
	}
	if got := EstimateTokens("one two three four five six"); got != 7 {
		t.Fatalf("expected 7 tokens, got %d", got)
	}
}
