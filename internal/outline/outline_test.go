package outline

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/dgallion1/docpersona/internal/doctree"
)

func block(page int, spans ...doctree.Span) doctree.Block {
	for i := range spans {
		spans[i].Page = page
	}
	return doctree.Block{Page: page, Lines: []doctree.Line{{Spans: spans}}}
}

func body(text string) doctree.Span { return doctree.Span{Text: text, FontSize: 10} }

func TestExtractTitleAndLevels(t *testing.T) {
	tree := &doctree.DocTree{Blocks: []doctree.Block{
		block(1, doctree.Span{Text: "Annual Report", FontSize: 24, Flags: doctree.FlagBold}),
		block(1, body("intro words"), body("more words"), body("even more")),
		block(2, doctree.Span{Text: "1. Introduction", FontSize: 18}),
		block(2, body("text"), body("text")),
		block(3, doctree.Span{Text: "Revenue", FontSize: 14, Flags: doctree.FlagBold}),
		block(3, doctree.Span{Text: "quarterly detail", FontSize: 12}),
		block(4, doctree.Span{Text: "SUMMARY TABLE", FontSize: 12}),
	}}

	got := Extract(tree)
	if got.Title != "Annual Report" {
		t.Errorf("expected title %q, got %q", "Annual Report", got.Title)
	}
	want := []Heading{
		{Level: LevelH1, Text: "1. Introduction", Page: 2},
		{Level: LevelH2, Text: "Revenue", Page: 3},
		{Level: LevelH3, Text: "SUMMARY TABLE", Page: 4},
	}
	if len(got.Headings) != len(want) {
		t.Fatalf("expected %d headings, got %d: %+v", len(want), len(got.Headings), got.Headings)
	}
	for i := range want {
		if got.Headings[i] != want[i] {
			t.Errorf("heading %d: expected %+v, got %+v", i, want[i], got.Headings[i])
		}
	}
}

func TestExtractSingleFontDocument(t *testing.T) {
	tree := &doctree.DocTree{Blocks: []doctree.Block{
		block(1, body("INTRODUCTION"), body("plain text")),
	}}
	got := Extract(tree)
	if got.Title != DefaultTitle {
		t.Errorf("expected default title, got %q", got.Title)
	}
	if len(got.Headings) != 0 {
		t.Errorf("expected no headings, got %+v", got.Headings)
	}
}

func TestExtractEmptyDocument(t *testing.T) {
	got := Extract(&doctree.DocTree{})
	if got.Title != DefaultTitle || got.Headings == nil || len(got.Headings) != 0 {
		t.Fatalf("expected default title and empty headings, got %+v", got)
	}
}

func TestLevelMapBodyTieGoesToSmaller(t *testing.T) {
	spans := []doctree.Span{{FontSize: 10}, {FontSize: 12}, {FontSize: 16}}
	levels := levelMap(spans)
	if _, ok := levels[10]; ok {
		t.Error("expected smallest tied size to be body")
	}
	if levels[16] != LevelTitle || levels[12] != LevelH1 {
		t.Errorf("expected 16=TITLE 12=H1, got %v", levels)
	}
}

func TestLevelMapOnlyFourLevels(t *testing.T) {
	spans := []doctree.Span{{FontSize: 9}, {FontSize: 9}, {FontSize: 10}, {FontSize: 11}, {FontSize: 12}, {FontSize: 13}, {FontSize: 14}}
	levels := levelMap(spans)
	if len(levels) != 4 {
		t.Fatalf("expected 4 levels, got %v", levels)
	}
	if _, ok := levels[10]; ok {
		t.Error("expected fifth-largest size unmapped")
	}
}

func TestIsHeading(t *testing.T) {
	cases := []struct {
		text string
		bold bool
		want bool
	}{
		{"Plain bold label", true, true},
		{"REVENUE BY REGION", false, true},
		{"2.1 Data sources", false, true},
		{"Chapter 4 The Return", false, true},
		{"Executive summary", false, true},
		{"just a caption", false, false},
		{"One. Two. Three. Four", true, false},
	}
	for _, c := range cases {
		if got := IsHeading(c.text, c.bold); got != c.want {
			t.Errorf("%q bold=%v: expected %v, got %v", c.text, c.bold, c.want, got)
		}
	}
}

func TestWriteJSONLayout(t *testing.T) {
	var buf bytes.Buffer
	o := Outline{Title: "R&D", Headings: []Heading{{Level: LevelH1, Text: "Intro", Page: 1}}}
	if err := o.WriteJSON(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if _, ok := decoded["outline"]; !ok {
		t.Error("expected outline key")
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"R&D"`)) {
		t.Errorf("expected unescaped ampersand, got %s", buf.String())
	}
}
