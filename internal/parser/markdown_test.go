package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeName(v any) string { return fmt.Sprintf("%T", v) }

func TestMarkdownParser_TitleAndSections(t *testing.T) {
	input := `# 5월 1일

오늘은 **정말** 좋은 날이었다.

## 아침

커피를 마셨다.
그리고 _산책_ 했다.

---

## 저녁

- 친구를 만났다
- 영화를 봤다
`
	tree, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "may.md")
	require.NoError(t, err)

	assert.Equal(t, "5월 1일", tree.Title)
	require.Len(t, tree.Children, 3)
	assert.Equal(t, "오늘은 정말 좋은 날이었다.", tree.Children[0].Text)
	assert.Equal(t, "아침", tree.Children[1].Title)
	assert.Equal(t, "커피를 마셨다.\n그리고 산책 했다.", tree.Children[1].Text)
	assert.Equal(t, "저녁", tree.Children[2].Title)
	assert.Equal(t, "친구를 만났다\n영화를 봤다", tree.Children[2].Text)
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	tree, err := (&MarkdownParser{}).Parse(strings.NewReader("just a line\n\nand another"), "notes.markdown")
	require.NoError(t, err)
	assert.Equal(t, "notes", tree.Title)
	assert.Equal(t, "just a line\n\nand another", tree.Body())
}

func TestMarkdownParser_NestedHeadings(t *testing.T) {
	input := "intro\n\n## A\n\na text\n\n### A1\n\na1 text\n\n## B\n\nb text\n"
	tree, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "n.md")
	require.NoError(t, err)

	require.Len(t, tree.Children, 3)
	assert.Equal(t, "intro", tree.Children[0].Text)
	a := tree.Children[1]
	require.Len(t, a.Children, 1)
	assert.Equal(t, "A1", a.Children[0].Title)
	assert.Equal(t, "intro\n\nA\n\na text\n\nA1\n\na1 text\n\nB\n\nb text", tree.Body())
}

func TestHTMLParser_Blog(t *testing.T) {
	input := `<html><head><title>My Day</title><style>p{}</style></head>
<body><nav>menu</nav>
<h2>Morning</h2><p>Woke up<br>late.</p>
<script>alert(1)</script>
<h2>Night</h2><ul><li>read</li><li>slept</li></ul>
<footer>copyright</footer></body></html>`
	tree, err := (&HTMLParser{}).Parse(strings.NewReader(input), "day.html")
	require.NoError(t, err)

	assert.Equal(t, "My Day", tree.Title)
	assert.Equal(t, "Morning\n\nWoke up\nlate.\n\nNight\n\nread\n\nslept", tree.Body())
}

func TestHTMLParser_HeadingLevel(t *testing.T) {
	assert.Equal(t, 1, headingLevel("h1"))
	assert.Equal(t, 6, headingLevel("h6"))
	assert.Equal(t, 0, headingLevel("h7"))
	assert.Equal(t, 0, headingLevel("hr"))
	assert.Equal(t, 0, headingLevel("p"))
}
