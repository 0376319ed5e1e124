package parser

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"slices"
	"strings"

	"github.com/dgallion1/docpersona/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. It reads styled glyph runs with the Go
// library and, when enabled, falls back to unstyled pdftotext output.
type PDFParser struct {
	FallbackPdftotext bool
}

// A new block starts when the vertical gap between rows exceeds this many
// line heights.
const blockGapFactor = 1.5

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "docpersona-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	tree := &doctree.DocTree{Source: filename, Title: baseTitle(filename)}

	title, blocks, err := extractPDFBlocks(tmpPath)
	if (err != nil || len(blocks) == 0) && p.FallbackPdftotext {
		var text string
		text, err = extractPdftotext(tmpPath)
		blocks = plainTextBlocks(text)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	if title != "" {
		tree.Title = title
	}
	tree.Blocks = blocks
	return tree, nil
}

func extractPDFBlocks(path string) (string, []doctree.Block, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	title := strings.TrimSpace(normalize(reader.Trailer().Key("Info").Key("Title").Text()))

	var blocks []doctree.Block
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}

		pageRows := make([]glyphRow, 0, len(rows))
		for _, row := range rows {
			gr := glyphRow{y: float64(row.Position)}
			for _, t := range row.Content {
				gr.glyphs = append(gr.glyphs, glyph{font: t.Font, size: t.FontSize, x: t.X, w: t.W, s: t.S})
			}
			pageRows = append(pageRows, gr)
		}
		blocks = append(blocks, groupRows(pageRows, i)...)
	}
	return title, blocks, nil
}

// glyph is one positioned text run as reported by the PDF library, often a
// single character.
type glyph struct {
	font string
	size float64
	x, w float64
	s    string
}

type glyphRow struct {
	y      float64 // baseline, larger is higher on the page
	glyphs []glyph
}

// fontFlags derives style bits from a font name such as "ABCDEF+Arial-BoldMT".
func fontFlags(font string) doctree.StyleFlags {
	name := strings.ToLower(font)
	var flags doctree.StyleFlags
	for _, w := range []string{"bold", "black", "heavy", "semibold", "demi"} {
		if strings.Contains(name, w) {
			flags |= doctree.FlagBold
			break
		}
	}
	if strings.Contains(name, "italic") || strings.Contains(name, "oblique") {
		flags |= doctree.FlagItalic
	}
	return flags
}

// buildLine merges horizontally adjacent glyphs sharing a font and size into
// spans. A gap wider than a quarter of the font size reads as a space.
func buildLine(glyphs []glyph, page int) doctree.Line {
	sorted := slices.Clone(glyphs)
	slices.SortStableFunc(sorted, func(a, b glyph) int {
		switch {
		case a.x < b.x:
			return -1
		case a.x > b.x:
			return 1
		}
		return 0
	})

	var line doctree.Line
	var cur *doctree.Span
	var end float64
	for _, g := range sorted {
		text := normalize(g.s)
		if text == "" {
			continue
		}
		gap := g.x - end
		spaced := cur != nil && gap > g.size*0.25

		if cur == nil || cur.FontName != g.font || cur.FontSize != g.size {
			if spaced && !strings.HasSuffix(cur.Text, " ") && !strings.HasPrefix(text, " ") {
				text = " " + text
			}
			line.Spans = append(line.Spans, doctree.Span{
				Text:     text,
				Page:     page,
				FontSize: g.size,
				FontName: g.font,
				Flags:    fontFlags(g.font),
			})
			cur = &line.Spans[len(line.Spans)-1]
		} else {
			if spaced && !strings.HasSuffix(cur.Text, " ") && !strings.HasPrefix(text, " ") {
				cur.Text += " "
			}
			cur.Text += text
		}
		end = g.x + g.w
	}

	// Drop spans that are only whitespace.
	line.Spans = slices.DeleteFunc(line.Spans, func(s doctree.Span) bool {
		return strings.TrimSpace(s.Text) == ""
	})
	return line
}

// lineStyle is the size and boldness of the line's longest span.
func lineStyle(l doctree.Line) (float64, bool) {
	var size float64
	var bold bool
	best := -1
	for _, s := range l.Spans {
		if n := len(strings.TrimSpace(s.Text)); n > best {
			best, size, bold = n, s.FontSize, s.Bold()
		}
	}
	return size, bold
}

// groupRows turns the rows of one page into blocks. Rows are read top to
// bottom; a block ends at a large vertical gap or a change of line style.
func groupRows(rows []glyphRow, page int) []doctree.Block {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b glyphRow) int {
		switch {
		case a.y > b.y:
			return -1
		case a.y < b.y:
			return 1
		}
		return 0
	})

	var blocks []doctree.Block
	var cur doctree.Block
	var prevY, prevSize float64
	var prevBold bool

	for _, row := range sorted {
		line := buildLine(row.glyphs, page)
		if len(line.Spans) == 0 {
			continue
		}
		size, bold := lineStyle(line)

		if len(cur.Lines) > 0 {
			height := math.Max(size, prevSize)
			gap := prevY - row.y
			if gap > blockGapFactor*height || bold != prevBold || math.Abs(size-prevSize) > 1 {
				blocks = append(blocks, cur)
				cur = doctree.Block{}
			}
		}
		cur.Page = page
		cur.Lines = append(cur.Lines, line)
		prevY, prevSize, prevBold = row.y, size, bold
	}
	if len(cur.Lines) > 0 {
		blocks = append(blocks, cur)
	}
	return blocks
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

// plainTextBlocks splits pdftotext output into pages on form feeds and
// pages into paragraphs on blank lines.
func plainTextBlocks(text string) []doctree.Block {
	var blocks blockList
	for i, page := range strings.Split(text, "\f") {
		for _, para := range strings.Split(page, "\n\n") {
			lines := strings.Split(para, "\n")
			for j, l := range lines {
				lines[j] = strings.Join(strings.Fields(l), " ")
			}
			blocks.add(bodyBlock(i+1, strings.Join(lines, "\n")))
		}
	}
	return blocks
}
