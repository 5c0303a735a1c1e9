package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/diarist/internal/doctree"
)

// MarkdownParser handles Markdown diaries using goldmark. Formatting marks are
// dropped; a level-1 heading before any text becomes the title.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	title := baseTitle(filename)
	b := doctree.NewBuilder()
	first := true
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			heading := inlineText(h, src)
			if first && h.Level == 1 {
				title = heading
			} else {
				b.Heading(h.Level, heading)
			}
			first = false
			continue
		}
		first = false
		if _, ok := n.(*ast.ThematicBreak); ok {
			continue
		}
		b.Paragraph(blockText(n, src))
	}
	return b.Tree(title), nil
}

// blockText returns the text of a block, one paragraph per child block.
func blockText(n ast.Node, src []byte) string {
	switch n.(type) {
	case *ast.List, *ast.Blockquote:
		var parts []string
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t := blockText(c, src); t != "" {
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, "\n")
	case *ast.ListItem:
		var parts []string
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t := blockText(c, src); t != "" {
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, " ")
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		var buf bytes.Buffer
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	return inlineText(n, src)
}

// inlineText concatenates the text segments under n.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				buf.Write(t.Segment.Value(src))
				if t.HardLineBreak() || t.SoftLineBreak() {
					buf.WriteByte('\n')
				}
			case *ast.String:
				buf.Write(t.Value)
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}
