package parser

import (
	"testing"

	"github.com/dgallion1/docpersona/internal/doctree"
)

// word lays out s as per-character glyphs starting at x.
func word(font string, size, x float64, s string) []glyph {
	var out []glyph
	w := size * 0.5
	for i, r := range s {
		out = append(out, glyph{font: font, size: size, x: x + float64(i)*w, w: w, s: string(r)})
	}
	return out
}

func TestBuildLineMergesGlyphsIntoSpans(t *testing.T) {
	glyphs := append(word("Arial-BoldMT", 14, 10, "Results"), word("ArialMT", 14, 70, "overview")...)
	line := buildLine(glyphs, 2)

	if len(line.Spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(line.Spans))
	}
	if line.Spans[0].Text != "Results" || !line.Spans[0].Bold() {
		t.Errorf("expected bold %q, got %q bold=%v", "Results", line.Spans[0].Text, line.Spans[0].Bold())
	}
	if line.Spans[1].Text != " overview" || line.Spans[1].Bold() {
		t.Errorf("expected regular %q, got %q", " overview", line.Spans[1].Text)
	}
	if line.Text() != "Results overview" {
		t.Errorf("expected line text %q, got %q", "Results overview", line.Text())
	}
	if line.Spans[0].Page != 2 {
		t.Errorf("expected page 2, got %d", line.Spans[0].Page)
	}
}

func TestBuildLineInsertsSpaceOnGap(t *testing.T) {
	glyphs := append(word("Times", 10, 0, "two"), word("Times", 10, 40, "words")...)
	line := buildLine(glyphs, 1)
	if len(line.Spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(line.Spans))
	}
	if line.Spans[0].Text != "two words" {
		t.Errorf("expected %q, got %q", "two words", line.Spans[0].Text)
	}
}

func TestBuildLineSortsByX(t *testing.T) {
	glyphs := []glyph{
		{font: "F", size: 10, x: 5, w: 5, s: "b"},
		{font: "F", size: 10, x: 0, w: 5, s: "a"},
	}
	if got := buildLine(glyphs, 1).Text(); got != "ab" {
		t.Errorf("expected %q, got %q", "ab", got)
	}
}

func TestGroupRowsSplitsOnGapAndStyle(t *testing.T) {
	rows := []glyphRow{
		{y: 600, glyphs: word("Body", 10, 0, "second")},
		{y: 700, glyphs: word("Heading-Bold", 16, 0, "Methods")},
		{y: 612, glyphs: word("Body", 10, 0, "first")},
		{y: 500, glyphs: word("Body", 10, 0, "far")},
	}
	blocks := groupRows(rows, 3)

	want := []string{"Methods", "first\nsecond", "far"}
	if len(blocks) != len(want) {
		t.Fatalf("expected %d blocks, got %d", len(want), len(blocks))
	}
	for i, w := range want {
		if got := blocks[i].Text(); got != w {
			t.Errorf("block[%d]: expected %q, got %q", i, w, got)
		}
		if blocks[i].Page != 3 {
			t.Errorf("block[%d]: expected page 3, got %d", i, blocks[i].Page)
		}
	}
	if !blocks[0].Lines[0].Spans[0].IsHeadingLike() {
		t.Error("expected bold 16pt row to be heading-like")
	}
}

func TestFontFlags(t *testing.T) {
	cases := []struct {
		font string
		want doctree.StyleFlags
	}{
		{"ABCDEF+Arial-BoldMT", doctree.FlagBold},
		{"Helvetica-Oblique", doctree.FlagItalic},
		{"Calibri-BoldItalic", doctree.FlagBold | doctree.FlagItalic},
		{"TimesNewRoman", 0},
	}
	for _, c := range cases {
		if got := fontFlags(c.font); got != c.want {
			t.Errorf("%s: expected %d, got %d", c.font, c.want, got)
		}
	}
}

func TestPlainTextBlocks(t *testing.T) {
	text := "Page one   para.\n\nSecond  para.\fPage two para.\n"
	blocks := plainTextBlocks(text)
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	if blocks[0].Text() != "Page one para." {
		t.Errorf("expected collapsed spaces, got %q", blocks[0].Text())
	}
	if blocks[2].Page != 2 {
		t.Errorf("expected page 2, got %d", blocks[2].Page)
	}
}
