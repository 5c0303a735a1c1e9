package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dgallion1/diarist/internal/editor"
	"github.com/dgallion1/diarist/internal/emotion"
	"github.com/dgallion1/diarist/internal/entry"
	"github.com/go-chi/chi/v5"
)

// maxJSONBody bounds request bodies that carry entry text.
const maxJSONBody = 4 << 20

type entrySummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Server) handleListEmotions(w http.ResponseWriter, r *http.Request) {
	list := s.emotions.List()
	if list == nil {
		list = []emotion.Emotion{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"emotions": list})
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
		Title  string `json:"title"`
		Body   string `json:"body"`
	}
	if !decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	if req.UserID == "" {
		jsonError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	e := &entry.Entry{UserID: req.UserID, Title: req.Title, Body: req.Body}
	if err := s.repo.Create(r.Context(), e); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondEntry(w, r, e.ID, http.StatusCreated)
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		jsonError(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := s.repo.List(r.Context(), userID, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]entrySummary, 0, len(entries))
	for _, e := range entries {
		out = append(out, entrySummary{
			ID:        e.ID,
			Title:     e.Title,
			Version:   e.Version,
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	s.respondEntry(w, r, chi.URLParam(r, "entryID"), http.StatusOK)
}

func (s *Server) handleUpdateTitle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if !decodeJSON(w, r, maxJSONBody, &req) {
		return
	}

	view, err := s.registry.Update(r.Context(), chi.URLParam(r, "entryID"), func(sess *editor.Session) error {
		sess.SetTitle(req.Title)
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "entryID")
	if err := s.repo.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.registry.Forget(id)
	w.WriteHeader(http.StatusNoContent)
}

// respondEntry writes the entry's committed view.
func (s *Server) respondEntry(w http.ResponseWriter, r *http.Request, id string, code int) {
	view, err := s.registry.Update(r.Context(), id, func(*editor.Session) error { return nil })
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, code, view)
}
