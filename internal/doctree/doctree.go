package doctree

import "strings"

// StyleFlags is a bit set of span style attributes.
type StyleFlags uint32

const (
	FlagItalic StyleFlags = 2
	FlagBold   StyleFlags = 16
)

// HeadingFontSize is the size a bold span must exceed to read as a heading.
const HeadingFontSize = 11.0

// Span is a run of text sharing one font and style.
type Span struct {
	Text     string
	Page     int // 1-based
	FontSize float64
	FontName string
	Flags    StyleFlags
}

// Bold reports whether the bold bit is set.
func (s Span) Bold() bool { return s.Flags&FlagBold != 0 }

// IsHeadingLike reports whether the span looks like a heading on its own.
func (s Span) IsHeadingLike() bool {
	return s.FontSize > HeadingFontSize && s.Bold()
}

// Line is an ordered run of spans on one visual line.
type Line struct {
	Spans []Span
}

// Text concatenates the spans of the line without a separator.
func (l Line) Text() string {
	var b strings.Builder
	for _, s := range l.Spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Block is a visually grouped run of lines, typically a paragraph or heading.
type Block struct {
	Page  int // 1-based
	Lines []Line
}

// Text joins the block's lines with newlines and trims the result.
func (b Block) Text() string {
	lines := make([]string, len(b.Lines))
	for i, l := range b.Lines {
		lines[i] = l.Text()
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Spans returns every span of the block in reading order.
func (b Block) Spans() []Span {
	var out []Span
	for _, l := range b.Lines {
		out = append(out, l.Spans...)
	}
	return out
}

// DocTree is one parsed document: its blocks in reading order.
type DocTree struct {
	Source string  // file name the document was read from
	Title  string  // metadata title, or the file name without extension
	Blocks []Block // reading order, pages ascending
}

// Spans returns every span of the document in reading order.
func (t *DocTree) Spans() []Span {
	var out []Span
	for _, b := range t.Blocks {
		out = append(out, b.Spans()...)
	}
	return out
}

// Pages returns the highest page number seen, or 0 for an empty document.
func (t *DocTree) Pages() int {
	max := 0
	for _, b := range t.Blocks {
		if b.Page > max {
			max = b.Page
		}
	}
	return max
}

// Section is a titled run of content attributed to a source document and
// the page it starts on.
type Section struct {
	Title   string
	Content string
	Page    int
	Source  string
}
