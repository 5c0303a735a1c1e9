package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/diarist/internal/editor"
	"github.com/dgallion1/diarist/internal/parser"
	"github.com/dgallion1/diarist/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// errPendingEdit rejects feedback while an edit awaits confirmation.
var errPendingEdit = errors.New("entry has an unconfirmed edit")

func (s *Server) handleRequestFeedback(w http.ResponseWriter, r *http.Request) {
	var job *pipeline.Job
	err := s.registry.Do(r.Context(), chi.URLParam(r, "entryID"), func(sess *editor.Session) error {
		if sess.HasPending() {
			return errPendingEdit
		}
		e := sess.Entry()
		job = pipeline.NewFeedbackJob(e.ID, e.UserID, e.Body, e.Version)
		return nil
	})
	if errors.Is(err, errPendingEdit) {
		jsonError(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	s.accepted(w, job)
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// handleImport turns an uploaded file into a new entry in the background.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	// extra 1MB for form overhead
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	userID := r.FormValue("user_id")
	if userID == "" {
		jsonError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	withFeedback := false
	if v := r.FormValue("feedback"); v != "" {
		if withFeedback, err = strconv.ParseBool(v); err != nil {
			jsonError(w, "feedback must be a boolean", http.StatusBadRequest)
			return
		}
	}

	job := pipeline.NewImportJob(userID, filename, r.FormValue("title"), data, withFeedback)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	s.accepted(w, job)
}

func (s *Server) accepted(w http.ResponseWriter, job *pipeline.Job) {
	snap := job.Snapshot()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   snap.ID,
		"kind":     snap.Kind,
		"entry_id": snap.EntryID,
		"status":   snap.Status,
		"poll_url": fmt.Sprintf("/api/feedback/%s", snap.ID),
	})
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
