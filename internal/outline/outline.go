// Package outline extracts a document title and an H1-H3 heading outline
// from span font sizes.
package outline

import (
	"encoding/json"
	"io"
	"math"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/docpersona/internal/doctree"
)

// DefaultTitle is used when no title-sized heading is found.
const DefaultTitle = "Document"

// Level names in descending font-size order.
const (
	LevelTitle = "TITLE"
	LevelH1    = "H1"
	LevelH2    = "H2"
	LevelH3    = "H3"
)

var levelNames = []string{LevelTitle, LevelH1, LevelH2, LevelH3}

// Heading is one outline entry.
type Heading struct {
	Level string `json:"level"`
	Text  string `json:"text"`
	Page  int    `json:"page"`
}

// Outline is the extracted structure of one document.
type Outline struct {
	Title    string    `json:"title"`
	Headings []Heading `json:"outline"`
}

const (
	maxHeadingLength = 150
	maxCapsLength    = 80
	maxPeriods       = 2
)

var (
	numberedRE = regexp.MustCompile(`^\d+(\.\d+)*\.?\s+`)
	chapterRE  = regexp.MustCompile(`^(chapter|section)\s+\d+`)

	structuralWords = []string{"chapter", "section", "introduction", "conclusion", "abstract", "summary"}
)

// IsHeading decides whether text set in a heading-sized font reads as a
// heading.
func IsHeading(text string, bold bool) bool {
	if utf8.RuneCountInString(text) > maxHeadingLength {
		return false
	}
	if strings.Count(text, ".") > maxPeriods {
		return false
	}
	if bold {
		return true
	}
	if isAllCaps(text) && utf8.RuneCountInString(text) < maxCapsLength {
		return true
	}

	lower := strings.ToLower(text)
	if numberedRE.MatchString(lower) || chapterRE.MatchString(lower) {
		return true
	}
	for _, w := range structuralWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// isAllCaps reports whether text has at least one letter and no lower-case
// letters.
func isAllCaps(text string) bool {
	hasLetter := false
	for _, r := range text {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// sizeKey rounds a font size to a tenth of a point so sizes that differ
// only by float noise group together.
func sizeKey(size float64) float64 {
	return math.Round(size*10) / 10
}

// levelMap assigns TITLE, H1, H2 and H3 to the four largest sizes above
// the body size. The body size is the most common size by span count, the
// smaller one on ties.
func levelMap(spans []doctree.Span) map[float64]string {
	counts := map[float64]int{}
	for _, s := range spans {
		counts[sizeKey(s.FontSize)]++
	}
	if len(counts) == 0 {
		return nil
	}

	sizes := make([]float64, 0, len(counts))
	for size := range counts {
		sizes = append(sizes, size)
	}
	slices.Sort(sizes)

	body := sizes[0]
	for _, size := range sizes {
		if counts[size] > counts[body] {
			body = size
		}
	}

	levels := map[float64]string{}
	rank := 0
	for i := len(sizes) - 1; i >= 0 && rank < len(levelNames); i-- {
		if sizes[i] <= body {
			break
		}
		levels[sizes[i]] = levelNames[rank]
		rank++
	}
	return levels
}

// Extract walks the document's spans in reading order and builds its outline.
func Extract(tree *doctree.DocTree) Outline {
	out := Outline{Headings: []Heading{}}

	var spans []doctree.Span
	for _, s := range tree.Spans() {
		s.Text = strings.TrimSpace(s.Text)
		if s.Text != "" {
			spans = append(spans, s)
		}
	}

	levels := levelMap(spans)
	for _, s := range spans {
		level, ok := levels[sizeKey(s.FontSize)]
		if !ok || !IsHeading(s.Text, s.Bold()) {
			continue
		}
		if level == LevelTitle {
			if out.Title == "" {
				out.Title = s.Text
			}
			continue
		}
		out.Headings = append(out.Headings, Heading{Level: level, Text: s.Text, Page: s.Page})
	}

	if out.Title == "" {
		out.Title = DefaultTitle
	}
	return out
}

// WriteJSON writes the outline as indented JSON without HTML escaping.
func (o Outline) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(o)
}
