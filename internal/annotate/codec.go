package annotate

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgallion1/diarist/internal/document"
	"github.com/dgallion1/diarist/internal/emotion"
)

// WireSet is the persisted and exchanged shape of an annotation set.
type WireSet struct {
	Comments   []WireComment   `json:"comments"`
	Highlights []WireHighlight `json:"highlights"`
}

// WireComment is one comment on the wire.
type WireComment struct {
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Content string `json:"content"`
	Author  string `json:"author"`
}

// WireHighlight is one highlight on the wire. Highlight ids are client-side
// only and are not persisted.
type WireHighlight struct {
	Start   int             `json:"start"`
	End     int             `json:"end"`
	Emotion emotion.Emotion `json:"emotion"`
}

// Encode converts the store into its wire shape, each list in store order.
func Encode(s *Store) WireSet {
	set := WireSet{
		Comments:   []WireComment{},
		Highlights: []WireHighlight{},
	}
	for _, it := range s.items {
		switch v := it.a.(type) {
		case *Highlight:
			set.Highlights = append(set.Highlights, WireHighlight{
				Start:   v.Range.Start,
				End:     v.Range.End,
				Emotion: v.Emotion,
			})
		case *Comment:
			set.Comments = append(set.Comments, WireComment{
				Start:   v.Range.Start,
				End:     v.Range.End,
				Content: v.Content,
				Author:  v.Author,
			})
		default:
			panic(fmt.Sprintf("annotate: unknown annotation type %T", it.a))
		}
	}
	return set
}

// Marshal encodes the store as JSON.
func Marshal(s *Store) ([]byte, error) {
	data, err := json.Marshal(Encode(s))
	if err != nil {
		return nil, fmt.Errorf("marshal annotations: %w", err)
	}
	return data, nil
}

// Decode rebuilds a store for doc. Entries that do not fit doc are skipped and
// returned; highlights are inserted before comments, each in list order.
func Decode(doc document.Document, set WireSet) (*Store, []*InvalidRangeError) {
	s := NewStore(doc)
	var dropped []*InvalidRangeError

	keep := func(err error) {
		var ire *InvalidRangeError
		if errors.As(err, &ire) {
			dropped = append(dropped, ire)
		}
	}

	for _, wh := range set.Highlights {
		r := document.Range{Start: wh.Start, End: wh.End}
		keep(s.Insert(NewHighlight(r, wh.Emotion)))
	}
	for _, wc := range set.Comments {
		r := document.Range{Start: wc.Start, End: wc.End}
		keep(s.Insert(NewComment(r, wc.Content, wc.Author)))
	}
	return s, dropped
}

// Unmarshal parses JSON produced by Marshal. Empty input yields an empty set.
func Unmarshal(doc document.Document, data []byte) (*Store, []*InvalidRangeError, error) {
	if len(data) == 0 {
		return NewStore(doc), nil, nil
	}
	var set WireSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, nil, fmt.Errorf("unmarshal annotations: %w", err)
	}
	s, dropped := Decode(doc, set)
	return s, dropped, nil
}
