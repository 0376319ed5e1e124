// Package persona turns a persona description and a job-to-be-done into a
// scoring profile: an embedded context string plus focus keywords.
package persona

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docpersona/internal/embed"
)

const (
	DefaultPersona = "General Researcher"
	DefaultTask    = "Extract relevant information from documents"
)

// Profile is the scoring target for one run.
type Profile struct {
	Persona     string
	Task        string
	ContextText string
	FocusAreas  []string // sorted, unique
	Embedding   []float32
}

// ContextText formats the text that is embedded for the profile.
func ContextText(persona, task string) string {
	return fmt.Sprintf("Role: %s\nTask: %s", persona, task)
}

var wordRE = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// TaskKeywords returns every word of four or more characters in the
// lower-cased task, in order of appearance.
func TaskKeywords(task string) []string {
	var out []string
	for _, w := range wordRE.FindAllString(strings.ToLower(task), -1) {
		if utf8.RuneCountInString(w) >= 4 {
			out = append(out, w)
		}
	}
	return out
}

// FocusAreas collects the interest terms of every lexicon role mentioned in
// persona or task, plus the task keywords. The result is sorted and unique.
func FocusAreas(lex Lexicon, persona, task string) []string {
	combined := strings.ToLower(persona + " " + task)

	var terms []string
	for role, interests := range lex.Interests() {
		if strings.Contains(combined, strings.ToLower(role)) {
			terms = append(terms, interests...)
		}
	}
	terms = append(terms, TaskKeywords(task)...)

	for i, t := range terms {
		terms[i] = strings.ToLower(t)
	}
	slices.Sort(terms)
	return slices.Compact(terms)
}

// Profiler builds profiles. Lexicon defaults to DefaultLexicon.
type Profiler struct {
	Embedder embed.Embedder
	Lexicon  Lexicon
}

// Build derives the profile for persona and task. Empty inputs fall back to
// DefaultPersona and DefaultTask. Embedding failures are returned.
func (p *Profiler) Build(ctx context.Context, persona, task string) (*Profile, error) {
	persona = strings.TrimSpace(persona)
	if persona == "" {
		persona = DefaultPersona
	}
	task = strings.TrimSpace(task)
	if task == "" {
		task = DefaultTask
	}
	lex := p.Lexicon
	if lex == nil {
		lex = DefaultLexicon
	}

	text := ContextText(persona, task)
	vec, err := p.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed persona context: %w", err)
	}

	return &Profile{
		Persona:     persona,
		Task:        task,
		ContextText: text,
		FocusAreas:  FocusAreas(lex, persona, task),
		Embedding:   vec,
	}, nil
}
