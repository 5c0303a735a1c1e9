package annotate

import (
	"fmt"
	"sort"

	"github.com/dgallion1/diarist/internal/document"
)

type storeItem struct {
	a   Annotation
	seq uint64
}

// Store is the annotation set of one document. Items are kept ordered by
// range start, ties broken by insertion order. Store is not safe for
// concurrent use.
type Store struct {
	doc   document.Document
	items []storeItem
	seq   uint64
}

// NewStore creates an empty set for doc.
func NewStore(doc document.Document) *Store {
	return &Store{doc: doc}
}

// Document returns the text the current ranges refer to.
func (s *Store) Document() document.Document {
	return s.doc
}

// Len returns the number of annotations.
func (s *Store) Len() int {
	return len(s.items)
}

// Get looks an annotation up by key.
func (s *Store) Get(key string) (Annotation, bool) {
	if i := s.indexOf(key); i >= 0 {
		return clone(s.items[i].a), true
	}
	return nil, false
}

// ProposeInsert returns the highlights a new highlight over r would replace.
func (s *Store) ProposeInsert(r document.Range) []Annotation {
	var out []Annotation
	for _, it := range s.items {
		if it.a.Kind() == KindHighlight && it.a.Span().Intersects(r) {
			out = append(out, clone(it.a))
		}
	}
	return out
}

// Insert adds a, replacing intersecting highlights unconditionally.
func (s *Store) Insert(a Annotation) error {
	_, err := s.CommitInsert(a, true)
	return err
}

// CommitInsert adds a and returns what it replaced.
//
// A highlight removes every existing highlight it intersects (no splitting).
// When that set is non-empty and confirmed is false, nothing changes and
// ErrNotConfirmed is returned. Re-inserting a highlight under its own id
// replaces the old copy without confirmation. A comment whose id is taken
// gets a numeric suffix.
func (s *Store) CommitInsert(a Annotation, confirmed bool) ([]Annotation, error) {
	r := a.Span()
	if !r.ValidIn(s.doc.Len()) {
		return nil, &InvalidRangeError{Key: a.Key(), Range: r, DocLen: s.doc.Len()}
	}

	var replaced []Annotation
	switch v := a.(type) {
	case *Highlight:
		if v.ID == "" {
			return nil, fmt.Errorf("highlight id is required")
		}
		var conflicts []Annotation
		for _, it := range s.items {
			if it.a.Kind() == KindHighlight && it.a.Key() != v.ID && it.a.Span().Intersects(r) {
				conflicts = append(conflicts, it.a)
			}
		}
		if len(conflicts) > 0 && !confirmed {
			return nil, ErrNotConfirmed
		}
		if i := s.indexOf(v.ID); i >= 0 {
			s.removeAt(i)
		}
		for _, c := range conflicts {
			s.Remove(c.Key())
		}
		replaced = conflicts
		a = v.withSpan(r, s.doc.SliceRange(r))
	case *Comment:
		cp := v.withSpan(r, s.doc.SliceRange(r)).(*Comment)
		if cp.ID == "" {
			cp.ID = commentID(r)
		}
		cp.ID = s.uniqueKey(cp.ID)
		a = cp
	default:
		return nil, fmt.Errorf("annotate: unknown annotation type %T", a)
	}

	s.insertSorted(a)
	return replaced, nil
}

// Remove deletes the annotation with key. Missing keys are ignored.
func (s *Store) Remove(key string) {
	if i := s.indexOf(key); i >= 0 {
		s.removeAt(i)
	}
}

// QueryOverlaps returns annotations of any kind that intersect r, in order.
func (s *Store) QueryOverlaps(r document.Range) []Annotation {
	var out []Annotation
	for _, it := range s.items {
		if it.a.Span().Intersects(r) {
			out = append(out, clone(it.a))
		}
	}
	return out
}

// All returns every annotation by start ascending, ties in insertion order.
func (s *Store) All() []Annotation {
	out := make([]Annotation, len(s.items))
	for i, it := range s.items {
		out[i] = clone(it.a)
	}
	return out
}

// Highlights returns only the highlights, in order.
func (s *Store) Highlights() []*Highlight {
	var out []*Highlight
	for _, it := range s.items {
		if h, ok := it.a.(*Highlight); ok {
			out = append(out, clone(h).(*Highlight))
		}
	}
	return out
}

// Comments returns only the comments, in order.
func (s *Store) Comments() []*Comment {
	var out []*Comment
	for _, it := range s.items {
		if c, ok := it.a.(*Comment); ok {
			out = append(out, clone(c).(*Comment))
		}
	}
	return out
}

// Apply moves the set onto doc, keeping only kept. Annotations already in
// the store retain their insertion order for ties; new ones are appended.
// Annotations that do not fit doc are dropped and reported.
func (s *Store) Apply(doc document.Document, kept []Annotation) []*InvalidRangeError {
	prior := make(map[string]uint64, len(s.items))
	for _, it := range s.items {
		prior[it.a.Key()] = it.seq
	}

	var dropped []*InvalidRangeError
	items := make([]storeItem, 0, len(kept))
	for _, a := range kept {
		r := a.Span()
		if !r.ValidIn(doc.Len()) {
			dropped = append(dropped, &InvalidRangeError{Key: a.Key(), Range: r, DocLen: doc.Len()})
			continue
		}
		seq, ok := prior[a.Key()]
		if !ok {
			s.seq++
			seq = s.seq
		}
		items = append(items, storeItem{a: clone(a), seq: seq})
	}
	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := items[i].a.Span(), items[j].a.Span()
		if ri.Start != rj.Start {
			return ri.Start < rj.Start
		}
		return items[i].seq < items[j].seq
	})

	s.doc = doc
	s.items = items
	return dropped
}

func (s *Store) insertSorted(a Annotation) {
	s.seq++
	start := a.Span().Start
	i := sort.Search(len(s.items), func(i int) bool {
		return s.items[i].a.Span().Start > start
	})
	s.items = append(s.items, storeItem{})
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = storeItem{a: a, seq: s.seq}
}

func (s *Store) indexOf(key string) int {
	for i, it := range s.items {
		if it.a.Key() == key {
			return i
		}
	}
	return -1
}

func (s *Store) removeAt(i int) {
	s.items = append(s.items[:i], s.items[i+1:]...)
}

func (s *Store) uniqueKey(key string) string {
	if s.indexOf(key) < 0 {
		return key
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", key, n)
		if s.indexOf(candidate) < 0 {
			return candidate
		}
	}
}
