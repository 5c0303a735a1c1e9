package annotate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/diarist/internal/document"
)

// ErrNotConfirmed is returned by CommitInsert when existing highlights would
// be replaced and the caller has not confirmed it.
var ErrNotConfirmed = errors.New("replacing existing highlights requires confirmation")

// TranslationError reports a word span that cannot be placed in the document.
type TranslationError struct {
	Span      WordIndexSpan
	WordCount int
	Reason    string
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translate word span [%d,%d] over %d words: %s",
		e.Span.StartWord, e.Span.EndWord, e.WordCount, e.Reason)
}

// InvalidRangeError reports an annotation whose range is empty or outside
// the buffer. The annotation is dropped.
type InvalidRangeError struct {
	Key    string
	Range  document.Range
	DocLen int
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("annotation %s: range %s invalid for length %d", e.Key, e.Range, e.DocLen)
}

// DestructiveOverlapWarning lists highlights that an edit or a new highlight
// would delete. It is a confirmation signal, not a failure.
type DestructiveOverlapWarning struct {
	Highlights []*Highlight
}

func (w *DestructiveOverlapWarning) Error() string {
	parts := make([]string, len(w.Highlights))
	for i, h := range w.Highlights {
		parts[i] = fmt.Sprintf("%s %s", h.Emotion.Name, h.Range)
	}
	return fmt.Sprintf("change would remove %d highlight(s): %s", len(w.Highlights), strings.Join(parts, ", "))
}

// IsDestructiveOverlap reports whether err carries a DestructiveOverlapWarning.
func IsDestructiveOverlap(err error) bool {
	var w *DestructiveOverlapWarning
	return errors.As(err, &w)
}

func newOverlapWarning(as []Annotation) *DestructiveOverlapWarning {
	var hs []*Highlight
	for _, a := range as {
		if h, ok := a.(*Highlight); ok {
			hs = append(hs, h)
		}
	}
	if len(hs) == 0 {
		return nil
	}
	return &DestructiveOverlapWarning{Highlights: hs}
}
