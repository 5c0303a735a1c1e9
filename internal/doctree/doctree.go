// Package doctree is the intermediate form of an imported diary file: a
// heading tree that is flattened into a single entry body.
package doctree

import "strings"

// DocTree is the root of a parsed file.
type DocTree struct {
	Title    string     // From metadata or the file name
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section.
type DocNode struct {
	Title    string // Section heading (empty for plain text)
	Text     string // Paragraphs, separated by blank lines
	Page     int    // Source page (0 if N/A)
	Children []*DocNode
}

// Body flattens the tree into diary text. Headings and paragraphs become
// blocks separated by one blank line; whitespace inside a block is kept.
func (t *DocTree) Body() string {
	var blocks []string
	var walk func(nodes []*DocNode)
	walk = func(nodes []*DocNode) {
		for _, n := range nodes {
			if title := strings.TrimSpace(n.Title); title != "" {
				blocks = append(blocks, title)
			}
			for _, para := range strings.Split(n.Text, "\n\n") {
				if para = strings.TrimSpace(para); para != "" {
					blocks = append(blocks, para)
				}
			}
			walk(n.Children)
		}
	}
	walk(t.Children)
	return strings.Join(blocks, "\n\n")
}

// Builder assembles a tree from a flat stream of headings and paragraphs,
// nesting each heading under the nearest shallower one.
type Builder struct {
	root  *DocNode
	stack []level
	text  []string
}

type level struct {
	node  *DocNode
	depth int
}

func NewBuilder() *Builder {
	root := &DocNode{}
	return &Builder{root: root, stack: []level{{node: root}}}
}

// Heading opens a section at depth (1 for a top-level heading).
func (b *Builder) Heading(depth int, title string) {
	b.flush()
	n := &DocNode{Title: title}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].depth >= depth {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].node
	parent.Children = append(parent.Children, n)
	b.stack = append(b.stack, level{node: n, depth: depth})
}

// Paragraph adds text to the current section. Blank text is ignored.
func (b *Builder) Paragraph(text string) {
	if text = strings.TrimSpace(text); text != "" {
		b.text = append(b.text, text)
	}
}

func (b *Builder) flush() {
	if len(b.text) == 0 {
		return
	}
	top := b.stack[len(b.stack)-1].node
	joined := strings.Join(b.text, "\n\n")
	if top.Text != "" {
		top.Text += "\n\n" + joined
	} else {
		top.Text = joined
	}
	b.text = b.text[:0]
}

// Tree finishes the build. Text before the first heading comes first.
func (b *Builder) Tree(title string) *DocTree {
	b.flush()
	tree := &DocTree{Title: title}
	if b.root.Text != "" {
		tree.Children = append(tree.Children, &DocNode{Text: b.root.Text})
	}
	tree.Children = append(tree.Children, b.root.Children...)
	return tree
}
