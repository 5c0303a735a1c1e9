// Package annotate keeps emotion highlights and feedback comments anchored to
// a diary body while it is edited.
//
// Ranges are UTF-16 offsets into a document.Document. The flow on every
// accepted text change is LocateEdit, then Reconcile, then Store.Apply; AI
// feedback is translated from word spans with a Translator before insertion.
package annotate

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dgallion1/diarist/internal/document"
	"github.com/dgallion1/diarist/internal/emotion"
)

// AuthorAI is the author recorded on generated feedback comments.
const AuthorAI = "AI"

// Kind names an annotation variant.
type Kind string

const (
	KindHighlight Kind = "highlight"
	KindComment   Kind = "comment"
)

// Annotation is implemented only by *Highlight and *Comment.
type Annotation interface {
	Key() string
	Kind() Kind
	Span() document.Range
	withSpan(r document.Range, excerpt string) Annotation
}

// Highlight tags a range with an emotion. Highlights never overlap each other.
type Highlight struct {
	ID      string
	Range   document.Range
	Emotion emotion.Emotion
	Excerpt string
}

// NewHighlight creates a highlight with a fresh id.
func NewHighlight(r document.Range, e emotion.Emotion) *Highlight {
	return &Highlight{ID: uuid.New().String(), Range: r, Emotion: e}
}

func (h *Highlight) Key() string          { return h.ID }
func (h *Highlight) Kind() Kind           { return KindHighlight }
func (h *Highlight) Span() document.Range { return h.Range }

func (h *Highlight) withSpan(r document.Range, excerpt string) Annotation {
	c := *h
	c.Range = r
	c.Excerpt = excerpt
	return &c
}

// Comment is feedback anchored to a range. Comments may overlap anything.
type Comment struct {
	ID      string
	Range   document.Range
	Content string
	Author  string
	Excerpt string
}

// NewComment creates a comment whose id is derived from its creation range.
func NewComment(r document.Range, content, author string) *Comment {
	return &Comment{ID: commentID(r), Range: r, Content: content, Author: author}
}

func (c *Comment) Key() string          { return c.ID }
func (c *Comment) Kind() Kind           { return KindComment }
func (c *Comment) Span() document.Range { return c.Range }

func (c *Comment) withSpan(r document.Range, excerpt string) Annotation {
	cp := *c
	cp.Range = r
	cp.Excerpt = excerpt
	return &cp
}

func commentID(r document.Range) string {
	return fmt.Sprintf("comment-%d-%d", r.Start, r.End)
}

// clone returns a shallow copy with the same span and excerpt.
func clone(a Annotation) Annotation {
	switch v := a.(type) {
	case *Highlight:
		return v.withSpan(v.Range, v.Excerpt)
	case *Comment:
		return v.withSpan(v.Range, v.Excerpt)
	default:
		panic(fmt.Sprintf("annotate: unknown annotation type %T", a))
	}
}
