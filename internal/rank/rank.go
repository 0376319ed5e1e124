// Package rank scores sections against a persona profile and orders them.
package rank

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dgallion1/docpersona/internal/doctree"
	"github.com/dgallion1/docpersona/internal/embed"
	"github.com/dgallion1/docpersona/internal/persona"
)

const (
	SemanticWeight = 0.65
	KeywordWeight  = 0.35
)

// ScoredSection is a section with its relevance signals.
type ScoredSection struct {
	Section       doctree.Section
	SemanticScore float64
	KeywordScore  float64
	OverallScore  float64
}

// KeywordScore is the fraction of focus areas occurring as a
// case-insensitive substring of content. It is 0 when there are none.
func KeywordScore(content string, focus []string) float64 {
	if len(focus) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	matches := 0
	for _, term := range focus {
		if strings.Contains(lower, strings.ToLower(term)) {
			matches++
		}
	}
	return float64(matches) / float64(len(focus))
}

// Overall combines the two signals.
func Overall(semantic, keyword float64) float64 {
	return SemanticWeight*semantic + KeywordWeight*keyword
}

// Scorer embeds every section and ranks them by overall score.
type Scorer struct {
	Embedder      embed.Embedder
	MaxConcurrent int
}

// ScoreAndRank scores all sections and returns them sorted by descending
// overall score. Ties keep their input order. Any embedding failure,
// including a vector whose width differs from the profile's, aborts the
// ranking.
func (s *Scorer) ScoreAndRank(ctx context.Context, sections []doctree.Section, profile *persona.Profile) ([]ScoredSection, error) {
	if len(sections) == 0 {
		return []ScoredSection{}, nil
	}

	texts := make([]string, len(sections))
	for i, sec := range sections {
		texts[i] = sec.Content
	}
	vectors, err := embed.All(ctx, s.Embedder, texts, s.MaxConcurrent)
	if err != nil {
		return nil, fmt.Errorf("embed sections: %w", err)
	}

	scored := make([]ScoredSection, len(sections))
	for i, sec := range sections {
		semantic, err := embed.Cosine(profile.Embedding, vectors[i])
		if err != nil {
			return nil, fmt.Errorf("embed sections: vector %d has dimension %d, want %d: %w",
				i, len(vectors[i]), len(profile.Embedding), err)
		}
		keyword := KeywordScore(sec.Content, profile.FocusAreas)
		scored[i] = ScoredSection{
			Section:       sec,
			SemanticScore: semantic,
			KeywordScore:  keyword,
			OverallScore:  Overall(semantic, keyword),
		}
	}

	slices.SortStableFunc(scored, func(a, b ScoredSection) int {
		switch {
		case a.OverallScore > b.OverallScore:
			return -1
		case a.OverallScore < b.OverallScore:
			return 1
		}
		return 0
	})
	return scored, nil
}
