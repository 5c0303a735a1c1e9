package annotate

import (
	"strings"

	"github.com/dgallion1/diarist/internal/document"
)

// WordIndexSpan addresses whitespace tokens. It is only used at the
// feedback collaborator boundary and is never persisted.
type WordIndexSpan struct {
	StartWord int `json:"start"`
	EndWord   int `json:"end"`
}

// DefaultTerminators mark the end of a sentence. Matching is plain substring
// containment, so abbreviations and decimals also match.
var DefaultTerminators = []string{".", "!", "?"}

// Translator converts word spans into character ranges.
type Translator struct {
	Terminators []string
}

// NewTranslator returns a translator using terms, or DefaultTerminators when
// none are given.
func NewTranslator(terms ...string) *Translator {
	if len(terms) == 0 {
		terms = DefaultTerminators
	}
	return &Translator{Terminators: terms}
}

// WordSpanToCharRange uses DefaultTerminators.
func WordSpanToCharRange(doc document.Document, span WordIndexSpan) (document.Range, error) {
	return NewTranslator().WordSpanToCharRange(doc, span)
}

// WordSpanToCharRange maps span onto doc.
//
// The range starts at the first character of StartWord. The end is snapped
// forward from EndWord to the first token containing a terminator. With no
// terminator left the range runs to the end of the document.
func (t *Translator) WordSpanToCharRange(doc document.Document, span WordIndexSpan) (document.Range, error) {
	return t.TranslateTokens(doc.Tokens(), doc.Len(), span)
}

// TranslateTokens is WordSpanToCharRange over a pre-tokenized document of
// length docLen, for callers placing many spans over the same text.
func (t *Translator) TranslateTokens(tokens []document.Token, docLen int, span WordIndexSpan) (document.Range, error) {
	n := len(tokens)
	switch {
	case span.StartWord < 0 || span.StartWord >= n:
		return document.Range{}, &TranslationError{Span: span, WordCount: n, Reason: "start word out of range"}
	case span.EndWord < 0 || span.EndWord >= n:
		return document.Range{}, &TranslationError{Span: span, WordCount: n, Reason: "end word out of range"}
	case span.StartWord > span.EndWord:
		return document.Range{}, &TranslationError{Span: span, WordCount: n, Reason: "start after end"}
	}

	r := document.Range{Start: tokens[span.StartWord].Start, End: docLen}
	for i := span.EndWord; i < n; i++ {
		if t.terminates(tokens[i].Text) {
			r.End = tokens[i].End
			break
		}
	}
	return r, nil
}

func (t *Translator) terminates(word string) bool {
	for _, term := range t.Terminators {
		if term != "" && strings.Contains(word, term) {
			return true
		}
	}
	return false
}
