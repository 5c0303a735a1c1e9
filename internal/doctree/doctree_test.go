package doctree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Nesting(t *testing.T) {
	b := NewBuilder()
	b.Paragraph("preface")
	b.Heading(1, "Week 1")
	b.Paragraph("  monday  ")
	b.Heading(2, "Tuesday")
	b.Paragraph("rain")
	b.Paragraph("")
	b.Paragraph("more rain")
	b.Heading(1, "Week 2")

	tree := b.Tree("journal")
	assert.Equal(t, "journal", tree.Title)
	require.Len(t, tree.Children, 3)
	assert.Equal(t, "preface", tree.Children[0].Text)

	w1 := tree.Children[1]
	assert.Equal(t, "Week 1", w1.Title)
	assert.Equal(t, "monday", w1.Text)
	require.Len(t, w1.Children, 1)
	assert.Equal(t, "rain\n\nmore rain", w1.Children[0].Text)

	assert.Equal(t, "Week 2", tree.Children[2].Title)
	assert.Empty(t, tree.Children[2].Text)
}

func TestBody_Flatten(t *testing.T) {
	tree := &DocTree{Children: []*DocNode{
		{Text: "first line\nsecond line"},
		{Title: " Page ", Text: "a\n\n\n\nb", Children: []*DocNode{{Text: "  "}}},
	}}
	assert.Equal(t, "first line\nsecond line\n\nPage\n\na\n\nb", tree.Body())
}

func TestBody_Empty(t *testing.T) {
	assert.Equal(t, "", (&DocTree{}).Body())
	assert.Equal(t, "", NewBuilder().Tree("x").Body())
}
