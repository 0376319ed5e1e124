// Package parser turns uploaded documents into styled span blocks.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docpersona/internal/doctree"
	"golang.org/x/text/unicode/norm"
)

// Parser converts raw document bytes into a DocTree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.DocTree, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// Options tune parser selection.
type Options struct {
	// PDFFallbackPdftotext shells out to pdftotext when the PDF library
	// fails or finds no text.
	PDFFallbackPdftotext bool
}

// ForFile returns the appropriate parser for a filename with default options.
func ForFile(filename string) (Parser, error) {
	return Options{}.ForFile(filename)
}

// ForFile returns the appropriate parser for a filename.
func (o Options) ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: o.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Sizes given to structural formats that carry no real font metrics.
const (
	bodyFontSize = 10.0
	fontFamily   = "Helvetica"
)

// headingFontSize maps heading level 1-6 to a size above the
// heading-like threshold, larger for higher levels.
func headingFontSize(level int) float64 {
	switch level {
	case 1:
		return 20
	case 2:
		return 16
	case 3:
		return 14
	case 4:
		return 13
	default:
		return 12
	}
}

// normalize applies NFKC so ligatures and compatibility forms compare as
// plain text.
func normalize(s string) string {
	return norm.NFKC.String(s)
}

// textBlock builds a block with one single-span line per line of text.
// Blank lines are dropped.
func textBlock(page int, text string, size float64, flags doctree.StyleFlags) doctree.Block {
	font := fontFamily
	if flags&doctree.FlagBold != 0 {
		font += "-Bold"
	}
	b := doctree.Block{Page: page}
	for _, line := range strings.Split(normalize(text), "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.Lines = append(b.Lines, doctree.Line{Spans: []doctree.Span{{
			Text:     line,
			Page:     page,
			FontSize: size,
			FontName: font,
			Flags:    flags,
		}}})
	}
	return b
}

func bodyBlock(page int, text string) doctree.Block {
	return textBlock(page, text, bodyFontSize, 0)
}

func headingBlock(page, level int, text string) doctree.Block {
	return textBlock(page, text, headingFontSize(level), doctree.FlagBold)
}

// blockList appends only blocks that carry text.
type blockList []doctree.Block

func (l *blockList) add(b doctree.Block) {
	if len(b.Lines) > 0 {
		*l = append(*l, b)
	}
}

func baseTitle(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
