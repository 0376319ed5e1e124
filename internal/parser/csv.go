package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docpersona/internal/doctree"
)

// csvBatchSize is the number of records folded into one block.
const csvBatchSize = 20

// CSVParser handles CSV files. The header row becomes a heading block and
// records are grouped into body blocks of "column: value" lines.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	tree := &doctree.DocTree{Source: filename, Title: baseTitle(filename)}
	if len(records) == 0 {
		return tree, nil
	}

	headers := records[0]
	var blocks blockList
	blocks.add(headingBlock(1, 2, "Columns: "+strings.Join(headers, ", ")))

	rows := records[1:]
	for i := 0; i < len(rows); i += csvBatchSize {
		end := min(i+csvBatchSize, len(rows))

		var text strings.Builder
		for _, row := range rows[i:end] {
			cells := make([]string, 0, len(row))
			for j, cell := range row {
				if j < len(headers) {
					cells = append(cells, headers[j]+": "+cell)
				} else {
					cells = append(cells, cell)
				}
			}
			text.WriteString(strings.Join(cells, ", "))
			text.WriteString("\n")
		}
		blocks.add(bodyBlock(1, text.String()))
	}

	tree.Blocks = blocks
	return tree, nil
}
