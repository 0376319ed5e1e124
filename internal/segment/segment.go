// Package segment splits a parsed document into titled sections using
// font-style and keyword heuristics.
package segment

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docpersona/internal/doctree"
)

// Kind classifies a block as opening a new section or continuing one.
type Kind int

const (
	KindContinuation Kind = iota
	KindHeading
)

func (k Kind) String() string {
	if k == KindHeading {
		return "heading"
	}
	return "continuation"
}

const (
	// MinContentLength is the content length a section must exceed to be kept.
	MinContentLength = 50
	// MaxSectionStartLength bounds the text that may read as a keyword heading.
	MaxSectionStartLength = 80

	maxTitleLength  = 60
	truncatedLength = 50
)

// SectionIndicators are words that mark a short block as a section start.
var SectionIndicators = []string{
	"introduction", "background", "methodology", "results", "discussion",
	"conclusion", "abstract", "summary", "chapter", "section", "overview",
	"analysis", "literature review", "related work", "evaluation",
	"implementation", "experiments", "findings",
}

// SeemsLikeSectionStart reports whether short text names a typical section.
func SeemsLikeSectionStart(text string) bool {
	if utf8.RuneCountInString(text) > MaxSectionStartLength {
		return false
	}
	if strings.Count(text, "\n") > 1 {
		return false
	}
	lower := strings.ToLower(text)
	for _, ind := range SectionIndicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}

// Classify decides whether a block opens a new section.
func Classify(block doctree.Block) Kind {
	return classify(block, block.Text())
}

func classify(block doctree.Block, text string) Kind {
	for _, line := range block.Lines {
		for _, span := range line.Spans {
			if span.IsHeadingLike() {
				return KindHeading
			}
		}
	}
	if SeemsLikeSectionStart(text) {
		return KindHeading
	}
	return KindContinuation
}

// SynthesizeTitle derives a title from the text before the first period.
func SynthesizeTitle(text string) string {
	first, _, _ := strings.Cut(text, ".")
	if utf8.RuneCountInString(first) < maxTitleLength {
		return first
	}
	return string([]rune(first)[:truncatedLength]) + "..."
}

// Segment walks the document's blocks in order and returns its sections.
// Sections with content of MinContentLength characters or fewer are dropped.
func Segment(tree *doctree.DocTree) []doctree.Section {
	if tree == nil {
		return nil
	}

	var sections []doctree.Section
	var current *doctree.Section

	flush := func() {
		if current != nil && utf8.RuneCountInString(current.Content) > MinContentLength {
			sections = append(sections, *current)
		}
		current = nil
	}

	for _, block := range tree.Blocks {
		text := block.Text()
		if text == "" {
			continue
		}

		if classify(block, text) == KindHeading {
			flush()
			current = &doctree.Section{Title: text, Content: text, Page: block.Page, Source: tree.Source}
			continue
		}

		if current == nil {
			current = &doctree.Section{
				Title:   SynthesizeTitle(text),
				Content: text,
				Page:    block.Page,
				Source:  tree.Source,
			}
			continue
		}
		current.Content += "\n\n" + text
	}
	flush()

	return sections
}
