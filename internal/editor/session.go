// Package editor drives the annotation engine for one diary entry at a time:
// text edits with overlap confirmation, highlight placement and attaching AI
// feedback.
package editor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/diarist/internal/annotate"
	"github.com/dgallion1/diarist/internal/document"
	"github.com/dgallion1/diarist/internal/emotion"
	"github.com/dgallion1/diarist/internal/entry"
)

var (
	ErrNoPendingEdit      = errors.New("no pending edit")
	ErrStaleFeedback      = errors.New("entry changed since feedback was requested")
	ErrAnnotationNotFound = errors.New("annotation not found")
)

// EditOutcome describes what an edit did to the annotation set.
type EditOutcome struct {
	Edit annotate.Edit `json:"edit"`
	// Pending is true when the edit waits for Confirm or Discard.
	Pending bool `json:"pending"`
	// Warning lists highlights the edit would delete.
	Warning *annotate.DestructiveOverlapWarning `json:"-"`
	// RemovedComments were intersected by the deletion and are gone once the
	// edit is applied.
	RemovedComments []*annotate.Comment `json:"-"`
	// Dropped holds annotations whose shifted range no longer fit the text.
	Dropped []*annotate.InvalidRangeError `json:"-"`
}

type pendingEdit struct {
	doc    document.Document
	edit   annotate.Edit
	result annotate.Result
}

// Session owns the committed text and annotation set of one entry. The
// store's document is the previous text for the next edit and only advances
// once an edit is applied. Not safe for concurrent use.
type Session struct {
	entry   *entry.Entry
	store   *annotate.Store
	pending *pendingEdit
	dirty   bool
	log     *slog.Logger
}

// NewSession restores e's annotations. Stored annotations that no longer fit
// the body are dropped and logged.
func NewSession(e *entry.Entry, log *slog.Logger) (*Session, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("entry_id", e.ID)

	doc := document.New(e.Body)
	store, dropped, err := annotate.Unmarshal(doc, []byte(e.Annotations))
	if err != nil {
		return nil, fmt.Errorf("load entry %s: %w", e.ID, err)
	}
	for _, d := range dropped {
		log.Warn("dropping stored annotation", "error", d)
	}
	cp := *e
	return &Session{entry: &cp, store: store, dirty: len(dropped) > 0, log: log}, nil
}

// Entry returns a copy of the entry with body and annotations synced.
func (s *Session) Entry() entry.Entry {
	s.sync()
	return *s.entry
}

func (s *Session) Store() *annotate.Store { return s.store }

func (s *Session) Version() int64 { return s.entry.Version }

// HasPending reports whether an edit awaits confirmation.
func (s *Session) HasPending() bool { return s.pending != nil }

// SetTitle changes the entry title.
func (s *Session) SetTitle(title string) {
	if s.entry.Title != title {
		s.entry.Title = title
		s.dirty = true
	}
}

// Edit reconciles the annotation set against newText. When the edit would
// delete highlights it is held pending and the previous text stays current
// until Confirm. Any earlier pending edit is replaced.
func (s *Session) Edit(newText string) EditOutcome {
	newDoc := document.New(newText)
	prev := s.store.Document()
	s.pending = nil

	edit := annotate.LocateEdit(prev, newDoc)
	if edit.IsNoop() {
		return EditOutcome{Edit: edit}
	}

	res := annotate.Reconcile(s.store.All(), edit, newDoc)
	out := EditOutcome{
		Edit:            edit,
		Warning:         res.Warning(),
		RemovedComments: res.OverlappingComments(),
		Dropped:         res.Dropped,
	}
	if out.Warning != nil {
		s.pending = &pendingEdit{doc: newDoc, edit: edit, result: res}
		out.Pending = true
		return out
	}
	s.apply(newDoc, res)
	return out
}

// Confirm applies the pending edit, deleting the overlapping annotations.
func (s *Session) Confirm() (EditOutcome, error) {
	p := s.pending
	if p == nil {
		return EditOutcome{}, ErrNoPendingEdit
	}
	s.pending = nil
	s.apply(p.doc, p.result)
	s.log.Info("edit confirmed", "removed_highlights", len(p.result.Warning().Highlights))
	return EditOutcome{
		Edit:            p.edit,
		RemovedComments: p.result.OverlappingComments(),
		Dropped:         p.result.Dropped,
	}, nil
}

// Discard rejects the pending edit; the previous text stays current.
func (s *Session) Discard() error {
	if s.pending == nil {
		return ErrNoPendingEdit
	}
	s.pending = nil
	return nil
}

// ProposeHighlight returns the highlights a new highlight over r would replace.
func (s *Session) ProposeHighlight(r document.Range) []*annotate.Highlight {
	var out []*annotate.Highlight
	for _, a := range s.store.ProposeInsert(r) {
		if h, ok := a.(*annotate.Highlight); ok {
			out = append(out, h)
		}
	}
	return out
}

// CommitHighlight tags r with e. If highlights would be replaced and
// confirmed is false, annotate.ErrNotConfirmed is returned.
func (s *Session) CommitHighlight(r document.Range, e emotion.Emotion, confirmed bool) (*annotate.Highlight, []*annotate.Highlight, error) {
	h := annotate.NewHighlight(r, e)
	replaced, err := s.store.CommitInsert(h, confirmed)
	if err != nil {
		return nil, nil, err
	}
	s.dirty = true

	stored, _ := s.store.Get(h.ID)
	var out []*annotate.Highlight
	for _, a := range replaced {
		out = append(out, a.(*annotate.Highlight))
	}
	return stored.(*annotate.Highlight), out, nil
}

// RemoveAnnotation deletes an annotation by key.
func (s *Session) RemoveAnnotation(key string) error {
	if _, ok := s.store.Get(key); !ok {
		return ErrAnnotationNotFound
	}
	s.store.Remove(key)
	s.dirty = true
	return nil
}

// AttachFeedback replaces the AI comments with comments computed against
// baseVersion. Feedback for an older version is rejected.
func (s *Session) AttachFeedback(baseVersion int64, comments []*annotate.Comment) (int, error) {
	if baseVersion != s.entry.Version || s.pending != nil {
		return 0, ErrStaleFeedback
	}
	for _, c := range s.store.Comments() {
		if c.Author == annotate.AuthorAI {
			s.store.Remove(c.ID)
		}
	}
	attached := 0
	for _, c := range comments {
		if err := s.store.Insert(c); err != nil {
			s.log.Warn("feedback comment rejected", "comment_id", c.ID, "error", err)
			continue
		}
		attached++
	}
	s.dirty = true
	return attached, nil
}

func (s *Session) apply(doc document.Document, res annotate.Result) {
	for _, d := range s.store.Apply(doc, res.Kept) {
		s.log.Warn("annotation dropped on apply", "error", d)
	}
	for _, d := range res.Dropped {
		s.log.Warn("annotation dropped by edit", "error", d)
	}
	s.dirty = true
}

// sync writes the store back into the entry fields.
func (s *Session) sync() {
	s.entry.Body = s.store.Document().String()
	data, err := annotate.Marshal(s.store)
	if err != nil {
		s.log.Error("encode annotations", "error", err)
		return
	}
	s.entry.Annotations = string(data)
}

// Dirty reports whether the session has changes not yet saved.
func (s *Session) Dirty() bool { return s.dirty }

func (s *Session) markSaved(e *entry.Entry) {
	s.entry.Version = e.Version
	s.entry.ContentHash = e.ContentHash
	s.entry.UpdatedAt = e.UpdatedAt
	s.dirty = false
}
