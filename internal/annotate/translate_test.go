package annotate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/diarist/internal/document"
)

func TestWordSpanToCharRange_SentenceSnap(t *testing.T) {
	doc := document.New("나는 오늘 행복했다. 그랬다")

	r, err := WordSpanToCharRange(doc, WordIndexSpan{StartWord: 0, EndWord: 1})
	require.NoError(t, err)
	assert.Equal(t, "나는 오늘 행복했다.", doc.SliceRange(r))
	assert.Equal(t, rng(0, 11), r)
}

func TestWordSpanToCharRange(t *testing.T) {
	doc := document.New("I woke up. It rained! Was it fine? Then I slept")

	tests := []struct {
		name string
		span WordIndexSpan
		want string
	}{
		{"end word terminates", WordIndexSpan{0, 2}, "I woke up."},
		{"snap to exclamation", WordIndexSpan{3, 3}, "It rained!"},
		{"snap to question", WordIndexSpan{5, 5}, "Was it fine?"},
		{"single terminated word", WordIndexSpan{2, 2}, "up."},
		{"no terminator runs to end", WordIndexSpan{8, 9}, "Then I slept"},
		{"crosses sentences", WordIndexSpan{1, 4}, "woke up. It rained!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := WordSpanToCharRange(doc, tt.span)
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.SliceRange(r))
		})
	}
}

func TestWordSpanToCharRange_Errors(t *testing.T) {
	doc := document.New("one two three.")

	for _, span := range []WordIndexSpan{
		{StartWord: 3, EndWord: 3},
		{StartWord: -1, EndWord: 1},
		{StartWord: 0, EndWord: 3},
		{StartWord: 2, EndWord: 1},
	} {
		_, err := WordSpanToCharRange(doc, span)
		var te *TranslationError
		require.ErrorAs(t, err, &te, "span %+v", span)
		assert.Equal(t, 3, te.WordCount)
	}

	_, err := WordSpanToCharRange(document.New("   "), WordIndexSpan{})
	assert.Error(t, err)
}

func TestWordSpanToCharRange_SubstringMatch(t *testing.T) {
	// Decimals match as terminators; the heuristic is kept as is.
	doc := document.New("ran 3.5 km today. done")
	r, err := WordSpanToCharRange(doc, WordIndexSpan{0, 0})
	require.NoError(t, err)
	assert.Equal(t, "ran 3.5", doc.SliceRange(r))
}

func TestTranslator_CustomTerminators(t *testing.T) {
	doc := document.New("오늘은 좋았다 내일도 좋겠지")
	tr := NewTranslator("다")

	r, err := tr.WordSpanToCharRange(doc, WordIndexSpan{0, 0})
	require.NoError(t, err)
	assert.Equal(t, "오늘은 좋았다", doc.SliceRange(r))
}

func TestTranslator_MultipleWhitespace(t *testing.T) {
	doc := document.New("first  line.\n\nsecond line.")
	r, err := WordSpanToCharRange(doc, WordIndexSpan{2, 2})
	require.NoError(t, err)
	assert.Equal(t, "second line.", doc.SliceRange(r))
}
