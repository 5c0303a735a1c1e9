package feedback

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dgallion1/diarist/internal/annotate"
	"github.com/dgallion1/diarist/internal/document"
)

// Outcome is the detailed result of one feedback round trip.
type Outcome struct {
	Comments []*annotate.Comment
	// Invalid counts items rejected by ValidateItem.
	Invalid int
	// Unplaced counts items whose word span could not be translated.
	Unplaced int
	// Err is the collaborator failure, if any. Comments is empty when set.
	Err error
}

// Adapter calls a Collaborator and converts its word spans into comments.
type Adapter struct {
	collab     Collaborator
	translator *annotate.Translator
	log        *slog.Logger
}

// NewAdapter creates an adapter. A nil translator uses the default terminators.
func NewAdapter(collab Collaborator, translator *annotate.Translator, log *slog.Logger) *Adapter {
	if translator == nil {
		translator = annotate.NewTranslator()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{collab: collab, translator: translator, log: log}
}

// RequestFeedback returns AI comments for doc. Any collaborator failure or an
// empty reply yields an empty list; no feedback is a normal outcome.
func (a *Adapter) RequestFeedback(ctx context.Context, doc document.Document) []*annotate.Comment {
	return a.Request(ctx, doc).Comments
}

// Request performs a single round trip without retries and reports what was
// dropped along the way.
func (a *Adapter) Request(ctx context.Context, doc document.Document) Outcome {
	tokens := doc.Tokens()
	if len(tokens) == 0 {
		return Outcome{}
	}
	words := make([]string, len(tokens))
	for i, t := range tokens {
		words[i] = t.Text
	}

	items, err := a.collab.Feedback(ctx, words)
	if err != nil {
		a.log.Warn("feedback request failed", "words", len(words), "error", err)
		return Outcome{Err: err}
	}

	var out Outcome
	for i := range items {
		item := items[i]
		if !ValidateItem(&item) {
			out.Invalid++
			continue
		}
		r, err := a.translator.TranslateTokens(tokens, doc.Len(), annotate.WordIndexSpan{StartWord: item.Start, EndWord: item.End})
		if err != nil {
			var te *annotate.TranslationError
			if !errors.As(err, &te) {
				a.log.Error("unexpected translation error", "error", err)
			}
			out.Unplaced++
			continue
		}
		c := annotate.NewComment(r, item.Content, annotate.AuthorAI)
		c.Excerpt = doc.SliceRange(r)
		out.Comments = append(out.Comments, c)
	}

	if out.Unplaced > 0 || out.Invalid > 0 {
		a.log.Info("feedback items could not be placed",
			"unplaced", out.Unplaced,
			"invalid", out.Invalid,
			"placed", len(out.Comments),
		)
	}
	return out
}
