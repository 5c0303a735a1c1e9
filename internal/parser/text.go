package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/diarist/internal/doctree"
)

// TextParser handles plain text diaries. Blank lines separate paragraphs and
// line breaks inside a paragraph are kept.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	b := doctree.NewBuilder()
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.TrimSpace(line) == "" {
			b.Paragraph(strings.Join(lines, "\n"))
			lines = lines[:0]
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	b.Paragraph(strings.Join(lines, "\n"))

	return b.Tree(baseTitle(filename)), nil
}
