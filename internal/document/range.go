package document

import "fmt"

// Range is a half-open interval [Start, End) of UTF-16 offsets.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns End - Start.
func (r Range) Len() int {
	return r.End - r.Start
}

// IsEmpty reports whether the range covers nothing.
func (r Range) IsEmpty() bool {
	return r.End <= r.Start
}

// Intersects reports whether the two ranges share at least one offset.
func (r Range) Intersects(o Range) bool {
	return r.Start < o.End && r.End > o.Start
}

// Shift moves both ends by delta.
func (r Range) Shift(delta int) Range {
	return Range{Start: r.Start + delta, End: r.End + delta}
}

// ValidIn reports whether the range is non-empty and fits a buffer of length n.
func (r Range) ValidIn(n int) bool {
	return r.Start >= 0 && r.Start < r.End && r.End <= n
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}
