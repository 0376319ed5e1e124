package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docpersona/internal/doctree"
)

// TextParser handles plain text files. Blank-line separated paragraphs
// become body blocks on page 1.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var blocks blockList
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			blocks.add(bodyBlock(1, current.String()))
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &doctree.DocTree{
		Source: filename,
		Title:  baseTitle(filename),
		Blocks: blocks,
	}, nil
}
