package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/diarist/internal/doctree"
)

// CSVParser reads diary exports with one row per day. The header names the
// columns; a date or title column becomes the section heading and a body,
// content or text column its paragraph. Without a recognised body column
// every cell is joined.
type CSVParser struct{}

var (
	csvHeadingColumns = []string{"date", "title", "day"}
	csvBodyColumns    = []string{"body", "content", "text", "entry"}
)

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	b := doctree.NewBuilder()
	if len(records) == 0 {
		return b.Tree(baseTitle(filename)), nil
	}

	headers := records[0]
	headingCol := columnIndex(headers, csvHeadingColumns)
	bodyCol := columnIndex(headers, csvBodyColumns)

	for _, row := range records[1:] {
		if headingCol >= 0 && headingCol < len(row) && strings.TrimSpace(row[headingCol]) != "" {
			b.Heading(1, strings.TrimSpace(row[headingCol]))
		}
		if bodyCol >= 0 {
			if bodyCol < len(row) {
				b.Paragraph(row[bodyCol])
			}
			continue
		}
		var cells []string
		for i, cell := range row {
			if i != headingCol && strings.TrimSpace(cell) != "" {
				cells = append(cells, strings.TrimSpace(cell))
			}
		}
		b.Paragraph(strings.Join(cells, " "))
	}
	return b.Tree(baseTitle(filename)), nil
}

// columnIndex finds the first header matching any name, case-insensitively.
func columnIndex(headers, names []string) int {
	for _, name := range names {
		for i, h := range headers {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
	}
	return -1
}
