package annotate

import "github.com/dgallion1/diarist/internal/document"

// Result is the outcome of reconciling annotations across one edit.
type Result struct {
	// Kept holds unaffected and shifted annotations in input order.
	Kept []Annotation
	// Overlapping holds annotations that intersect the deleted span. Callers
	// must confirm before highlights among them are removed; comments are
	// dropped without asking.
	Overlapping []Annotation
	// Dropped records shifted annotations whose new range was invalid.
	Dropped []*InvalidRangeError
}

// Warning returns the overlapping highlights as a confirmation signal, or nil
// when none would be lost.
func (r Result) Warning() *DestructiveOverlapWarning {
	return newOverlapWarning(r.Overlapping)
}

// OverlappingComments returns the comments that will be silently discarded.
func (r Result) OverlappingComments() []*Comment {
	var out []*Comment
	for _, a := range r.Overlapping {
		if c, ok := a.(*Comment); ok {
			out = append(out, c)
		}
	}
	return out
}

// Reconcile remaps every annotation across edit. newText must be the buffer
// the edit produced. Inputs are not modified.
//
// For a range [s,e) with c = ChangeStart and d = DeletedLength:
//   - e <= c: unaffected, kept as is.
//   - s < c+d && e > c: intersects the deleted span, reported as overlapping.
//   - s >= c+d: shifted by the edit delta; dropped if the result is invalid.
func Reconcile(annotations []Annotation, edit Edit, newText document.Document) Result {
	var res Result
	c, d, delta := edit.ChangeStart, edit.DeletedLength, edit.Delta()
	n := newText.Len()

	for _, a := range annotations {
		r := a.Span()
		switch {
		case r.End <= c:
			res.Kept = append(res.Kept, clone(a))
		case r.Start < c+d && r.End > c:
			res.Overlapping = append(res.Overlapping, clone(a))
		default:
			moved := r.Shift(delta)
			if !moved.ValidIn(n) {
				res.Dropped = append(res.Dropped, &InvalidRangeError{Key: a.Key(), Range: moved, DocLen: n})
				continue
			}
			if delta == 0 {
				res.Kept = append(res.Kept, clone(a))
				continue
			}
			res.Kept = append(res.Kept, a.withSpan(moved, newText.SliceRange(moved)))
		}
	}
	return res
}
