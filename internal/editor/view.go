package editor

import (
	"time"

	"github.com/dgallion1/diarist/internal/annotate"
	"github.com/dgallion1/diarist/internal/emotion"
)

type HighlightView struct {
	ID      string          `json:"id"`
	Start   int             `json:"start"`
	End     int             `json:"end"`
	Emotion emotion.Emotion `json:"emotion"`
	Excerpt string          `json:"excerpt"`
}

type CommentView struct {
	ID      string `json:"id"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Content string `json:"content"`
	Author  string `json:"author"`
	Excerpt string `json:"excerpt"`
}

// EntryView is the client representation of an entry and its annotations.
type EntryView struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Title      string          `json:"title"`
	Body       string          `json:"body"`
	Version    int64           `json:"version"`
	Pending    bool            `json:"pending_edit"`
	Highlights []HighlightView `json:"highlights"`
	Comments   []CommentView   `json:"comments"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// OutcomeView is the client representation of an EditOutcome.
type OutcomeView struct {
	Edit                 annotate.Edit   `json:"edit"`
	Pending              bool            `json:"pending"`
	ThreatenedHighlights []HighlightView `json:"threatened_highlights"`
	RemovedComments      []CommentView   `json:"removed_comments"`
	DroppedKeys          []string        `json:"dropped"`
}

func NewHighlightView(h *annotate.Highlight) HighlightView {
	return HighlightView{ID: h.ID, Start: h.Range.Start, End: h.Range.End, Emotion: h.Emotion, Excerpt: h.Excerpt}
}

func NewCommentView(c *annotate.Comment) CommentView {
	return CommentView{ID: c.ID, Start: c.Range.Start, End: c.Range.End, Content: c.Content, Author: c.Author, Excerpt: c.Excerpt}
}

func HighlightViews(hs []*annotate.Highlight) []HighlightView {
	out := make([]HighlightView, 0, len(hs))
	for _, h := range hs {
		out = append(out, NewHighlightView(h))
	}
	return out
}

func CommentViews(cs []*annotate.Comment) []CommentView {
	out := make([]CommentView, 0, len(cs))
	for _, c := range cs {
		out = append(out, NewCommentView(c))
	}
	return out
}

// View renders the session's committed state.
func (s *Session) View() EntryView {
	e := s.Entry()
	return EntryView{
		ID:         e.ID,
		UserID:     e.UserID,
		Title:      e.Title,
		Body:       e.Body,
		Version:    e.Version,
		Pending:    s.pending != nil,
		Highlights: HighlightViews(s.store.Highlights()),
		Comments:   CommentViews(s.store.Comments()),
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

// View renders the outcome for clients.
func (o EditOutcome) View() OutcomeView {
	v := OutcomeView{
		Edit:                 o.Edit,
		Pending:              o.Pending,
		ThreatenedHighlights: []HighlightView{},
		RemovedComments:      CommentViews(o.RemovedComments),
		DroppedKeys:          make([]string, 0, len(o.Dropped)),
	}
	if o.Warning != nil {
		v.ThreatenedHighlights = HighlightViews(o.Warning.Highlights)
	}
	for _, d := range o.Dropped {
		v.DroppedKeys = append(v.DroppedKeys, d.Key)
	}
	return v
}
