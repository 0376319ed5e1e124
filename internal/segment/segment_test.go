package segment

import (
	"strings"
	"testing"

	"github.com/dgallion1/docpersona/internal/doctree"
)

func plain(page int, text string) doctree.Block {
	return doctree.Block{Page: page, Lines: []doctree.Line{{Spans: []doctree.Span{{Text: text, FontSize: 10, Page: page}}}}}
}

func heading(page int, text string) doctree.Block {
	return doctree.Block{Page: page, Lines: []doctree.Line{{Spans: []doctree.Span{
		{Text: text, FontSize: 16, Flags: doctree.FlagBold, Page: page},
	}}}}
}

func TestSegmentHeadingAndContinuations(t *testing.T) {
	body := strings.Repeat("Body text about the study design. ", 3)
	tree := &doctree.DocTree{Source: "paper.pdf", Blocks: []doctree.Block{
		heading(1, "Data Collection"),
		plain(1, body),
		plain(2, "More detail on page two."),
	}}

	sections := Segment(tree)
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	s := sections[0]
	if s.Title != "Data Collection" {
		t.Errorf("expected title %q, got %q", "Data Collection", s.Title)
	}
	if s.Page != 1 || s.Source != "paper.pdf" {
		t.Errorf("expected page 1 of paper.pdf, got page %d of %q", s.Page, s.Source)
	}
	want := "Data Collection\n\n" + strings.TrimSpace(body) + "\n\nMore detail on page two."
	if s.Content != want {
		t.Errorf("expected content %q, got %q", want, s.Content)
	}
}

func TestSegmentLengthThreshold(t *testing.T) {
	fifty := strings.Repeat("a", 50)
	fiftyOne := strings.Repeat("b", 51)

	tree := &doctree.DocTree{Blocks: []doctree.Block{plain(1, fifty)}}
	if got := Segment(tree); len(got) != 0 {
		t.Fatalf("expected 50-char section dropped, got %d sections", len(got))
	}

	tree = &doctree.DocTree{Blocks: []doctree.Block{plain(1, fiftyOne)}}
	if got := Segment(tree); len(got) != 1 {
		t.Fatalf("expected 51-char section kept, got %d sections", len(got))
	}
}

func TestSegmentSynthesizesTitleWithoutHeading(t *testing.T) {
	text := "Plain opening sentence. Then a lot of additional narrative that keeps going."
	sections := Segment(&doctree.DocTree{Blocks: []doctree.Block{plain(3, text)}})
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if sections[0].Title != "Plain opening sentence" {
		t.Errorf("expected synthesized title, got %q", sections[0].Title)
	}
	if sections[0].Page != 3 {
		t.Errorf("expected page 3, got %d", sections[0].Page)
	}
}

func TestSegmentSkipsEmptyBlocks(t *testing.T) {
	tree := &doctree.DocTree{Blocks: []doctree.Block{plain(1, "   "), plain(1, "")}}
	if got := Segment(tree); len(got) != 0 {
		t.Fatalf("expected no sections, got %d", len(got))
	}
	if got := Segment(&doctree.DocTree{}); got != nil {
		t.Fatalf("expected nil for empty document, got %v", got)
	}
}

func TestSegmentKeywordHeadingStartsNewSection(t *testing.T) {
	body := strings.Repeat("Some sentence of prose here. ", 3)
	tree := &doctree.DocTree{Blocks: []doctree.Block{
		plain(1, body),
		plain(2, "2. Results"),
		plain(2, body),
	}}
	sections := Segment(tree)
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[1].Title != "2. Results" || sections[1].Page != 2 {
		t.Errorf("expected second section %q on page 2, got %q on page %d", "2. Results", sections[1].Title, sections[1].Page)
	}
}

func TestClassify(t *testing.T) {
	if Classify(heading(1, "Anything")) != KindHeading {
		t.Error("expected bold large span to be a heading")
	}
	small := doctree.Block{Lines: []doctree.Line{{Spans: []doctree.Span{{Text: "Note", FontSize: 11, Flags: doctree.FlagBold}}}}}
	if Classify(small) != KindContinuation {
		t.Error("expected 11pt bold span to be a continuation")
	}
	if Classify(plain(1, "Literature Review")) != KindHeading {
		t.Error("expected keyword block to be a heading")
	}
}

func TestSeemsLikeSectionStart(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"1. Introduction", true},
		{"RELATED WORK", true},
		{"Some random caption", false},
		{"Results\nand\nmore", false},
		{strings.Repeat("x", 70) + " methodology", false},
	}
	for _, c := range cases {
		if got := SeemsLikeSectionStart(c.text); got != c.want {
			t.Errorf("%q: expected %v, got %v", c.text, c.want, got)
		}
	}
}

func TestSynthesizeTitle(t *testing.T) {
	if got := SynthesizeTitle("Short one. Rest"); got != "Short one" {
		t.Errorf("expected %q, got %q", "Short one", got)
	}
	long := strings.Repeat("abcdefghij", 7)
	want := long[:50] + "..."
	if got := SynthesizeTitle(long + ". tail"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	exactly59 := strings.Repeat("z", 59)
	if got := SynthesizeTitle(exactly59); got != exactly59 {
		t.Errorf("expected 59-char title kept whole, got %q", got)
	}
}
