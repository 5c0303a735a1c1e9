package annotate

import "github.com/dgallion1/diarist/internal/document"

// Edit is the single contiguous change between two snapshots of a document.
type Edit struct {
	ChangeStart    int `json:"change_start"`
	DeletedLength  int `json:"deleted_length"`
	InsertedLength int `json:"inserted_length"`
}

// Delta is the change in document length.
func (e Edit) Delta() int {
	return e.InsertedLength - e.DeletedLength
}

// IsNoop reports whether nothing changed.
func (e Edit) IsNoop() bool {
	return e.DeletedLength == 0 && e.InsertedLength == 0
}

// Deleted is the replaced span in the old text.
func (e Edit) Deleted() document.Range {
	return document.Range{Start: e.ChangeStart, End: e.ChangeStart + e.DeletedLength}
}

// Inserted is the replacement span in the new text.
func (e Edit) Inserted() document.Range {
	return document.Range{Start: e.ChangeStart, End: e.ChangeStart + e.InsertedLength}
}

// LocateEdit finds the edited region with a common prefix scan followed by a
// common suffix scan that never crosses the prefix. A paste that repeats text
// elsewhere is reported as one region bounded by the outermost mismatch.
func LocateEdit(oldText, newText document.Document) Edit {
	oldLen, newLen := oldText.Len(), newText.Len()

	start := 0
	for start < oldLen && start < newLen && oldText.Unit(start) == newText.Unit(start) {
		start++
	}

	oldEnd, newEnd := oldLen-1, newLen-1
	for oldEnd >= start && newEnd >= start && oldText.Unit(oldEnd) == newText.Unit(newEnd) {
		oldEnd--
		newEnd--
	}

	return Edit{
		ChangeStart:    start,
		DeletedLength:  oldEnd + 1 - start,
		InsertedLength: newEnd + 1 - start,
	}
}
