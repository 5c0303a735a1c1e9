package api

import (
	"errors"
	"net/http"

	"github.com/dgallion1/diarist/internal/annotate"
	"github.com/dgallion1/diarist/internal/document"
	"github.com/dgallion1/diarist/internal/editor"
	"github.com/go-chi/chi/v5"
)

type editResponse struct {
	Outcome editor.OutcomeView `json:"outcome"`
	Entry   editor.EntryView   `json:"entry"`
}

type rangeRequest struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (q rangeRequest) toRange() document.Range {
	return document.Range{Start: q.Start, End: q.End}
}

// handleEdit replaces the entry text. Edits that would delete highlights come
// back with outcome.pending set and leave the text unchanged until confirmed.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, maxJSONBody, &req) {
		return
	}

	var out editor.EditOutcome
	view, err := s.registry.Update(r.Context(), chi.URLParam(r, "entryID"), func(sess *editor.Session) error {
		out = sess.Edit(req.Text)
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, editResponse{Outcome: out.View(), Entry: view})
}

func (s *Server) handleConfirmEdit(w http.ResponseWriter, r *http.Request) {
	var out editor.EditOutcome
	view, err := s.registry.Update(r.Context(), chi.URLParam(r, "entryID"), func(sess *editor.Session) error {
		var err error
		out, err = sess.Confirm()
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, editResponse{Outcome: out.View(), Entry: view})
}

func (s *Server) handleDiscardEdit(w http.ResponseWriter, r *http.Request) {
	view, err := s.registry.Update(r.Context(), chi.URLParam(r, "entryID"), func(sess *editor.Session) error {
		return sess.Discard()
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleProposeHighlight(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if !decodeJSON(w, r, maxJSONBody, &req) {
		return
	}

	var conflicts []*annotate.Highlight
	err := s.registry.Do(r.Context(), chi.URLParam(r, "entryID"), func(sess *editor.Session) error {
		rng := req.toRange()
		if n := sess.Store().Document().Len(); !rng.ValidIn(n) {
			return &annotate.InvalidRangeError{Key: "proposed", Range: rng, DocLen: n}
		}
		conflicts = sess.ProposeHighlight(rng)
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conflicts": editor.HighlightViews(conflicts)})
}

// handleCommitHighlight places a highlight. Replacing existing highlights
// needs confirmed=true; otherwise 409 lists the conflicts.
func (s *Server) handleCommitHighlight(w http.ResponseWriter, r *http.Request) {
	var req struct {
		rangeRequest
		EmotionID int  `json:"emotion_id"`
		Confirmed bool `json:"confirmed"`
	}
	if !decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	emo, err := s.emotions.Get(req.EmotionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var (
		placed    *annotate.Highlight
		replaced  []*annotate.Highlight
		conflicts []*annotate.Highlight
	)
	view, err := s.registry.Update(r.Context(), chi.URLParam(r, "entryID"), func(sess *editor.Session) error {
		var err error
		placed, replaced, err = sess.CommitHighlight(req.toRange(), emo, req.Confirmed)
		if errors.Is(err, annotate.ErrNotConfirmed) {
			conflicts = sess.ProposeHighlight(req.toRange())
		}
		return err
	})
	switch {
	case errors.Is(err, annotate.ErrNotConfirmed):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     err.Error(),
			"conflicts": editor.HighlightViews(conflicts),
		})
		return
	case err != nil:
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"highlight": editor.NewHighlightView(placed),
		"replaced":  editor.HighlightViews(replaced),
		"entry":     view,
	})
}

func (s *Server) handleDeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	annID := chi.URLParam(r, "annID")
	view, err := s.registry.Update(r.Context(), chi.URLParam(r, "entryID"), func(sess *editor.Session) error {
		return sess.RemoveAnnotation(annID)
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
