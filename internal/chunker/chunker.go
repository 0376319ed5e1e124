// Package chunker splits section content into candidate excerpts and picks
// the ones closest to a persona profile.
package chunker

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docpersona/internal/embed"
	"github.com/dgallion1/docpersona/internal/persona"
)

const (
	DefaultMaxChunks = 3
	// MinChunkLength is the shortest trimmed chunk worth scoring.
	MinChunkLength = 30
	// MaxCleanLength is the length above which Clean elides the middle.
	MaxCleanLength = 400
	// ContinuationMarker replaces the elided middle of a long excerpt.
	ContinuationMarker = "[...continues...]"
)

// Chunk is a scored excerpt of a section.
type Chunk struct {
	Raw       string
	Cleaned   string
	Relevance float64
	Position  int // index in Split output
}

// Split breaks content into paragraphs. Content with fewer than two
// paragraphs is split into sentence pairs instead.
func Split(content string) []string {
	paras := splitByParagraphs(content)
	if len(paras) >= 2 {
		return paras
	}
	return sentencePairs(content)
}

func splitByParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func sentencePairs(text string) []string {
	var sentences []string
	for _, s := range strings.Split(text, ".") {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}

	var pairs []string
	for i := 0; i < len(sentences); i += 2 {
		end := min(i+2, len(sentences))
		pairs = append(pairs, strings.Join(sentences[i:end], ". "))
	}
	return pairs
}

// Clean collapses whitespace and trims. Text longer than MaxCleanLength
// with more than three period-separated pieces is reduced to its first and
// last sentence around ContinuationMarker.
func Clean(text string) string {
	cleaned := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(cleaned) <= MaxCleanLength {
		return cleaned
	}

	pieces := strings.Split(cleaned, ".")
	if len(pieces) <= 3 {
		return cleaned
	}
	first := strings.TrimSpace(pieces[0])
	last := ""
	for i := len(pieces) - 1; i > 0; i-- {
		if p := strings.TrimSpace(pieces[i]); p != "" {
			last = p
			break
		}
	}
	return strings.TrimSpace(first + ". " + ContinuationMarker + " " + last)
}

// Extractor scores the chunks of a section against a profile.
type Extractor struct {
	Embedder      embed.Embedder
	MaxConcurrent int
}

// TopChunks returns up to maxCount chunks of content ordered by descending
// relevance; ties keep split order. maxCount <= 0 means DefaultMaxChunks.
func (x *Extractor) TopChunks(ctx context.Context, content string, profile *persona.Profile, maxCount int) ([]Chunk, error) {
	if maxCount <= 0 {
		maxCount = DefaultMaxChunks
	}

	var chunks []Chunk
	for i, raw := range Split(content) {
		if utf8.RuneCountInString(strings.TrimSpace(raw)) < MinChunkLength {
			continue
		}
		chunks = append(chunks, Chunk{Raw: raw, Cleaned: Clean(raw), Position: i})
	}
	if len(chunks) == 0 {
		return []Chunk{}, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Raw
	}
	vectors, err := embed.All(ctx, x.Embedder, texts, x.MaxConcurrent)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	for i := range chunks {
		rel, err := embed.Cosine(profile.Embedding, vectors[i])
		if err != nil {
			return nil, fmt.Errorf("embed chunks: vector %d has dimension %d, want %d: %w",
				i, len(vectors[i]), len(profile.Embedding), err)
		}
		chunks[i].Relevance = rel
	}

	slices.SortStableFunc(chunks, func(a, b Chunk) int {
		switch {
		case a.Relevance > b.Relevance:
			return -1
		case a.Relevance < b.Relevance:
			return 1
		}
		return 0
	})
	if len(chunks) > maxCount {
		chunks = chunks[:maxCount]
	}
	return chunks, nil
}
