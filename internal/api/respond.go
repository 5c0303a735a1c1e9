package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/diarist/internal/annotate"
	"github.com/dgallion1/diarist/internal/editor"
	"github.com/dgallion1/diarist/internal/emotion"
	"github.com/dgallion1/diarist/internal/entry"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		tr *annotate.TranslationError
		ir *annotate.InvalidRangeError
	)
	switch {
	case errors.Is(err, entry.ErrEntryNotFound),
		errors.Is(err, editor.ErrAnnotationNotFound):
		return http.StatusNotFound
	case errors.Is(err, entry.ErrVersionConflict),
		errors.Is(err, editor.ErrNoPendingEdit),
		errors.Is(err, annotate.ErrNotConfirmed):
		return http.StatusConflict
	case errors.Is(err, emotion.ErrUnknownEmotion),
		errors.As(err, &tr),
		errors.As(err, &ir):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.log.Error("request failed", "path", r.URL.Path, "error", err)
		jsonError(w, "internal error", code)
		return
	}
	jsonError(w, err.Error(), code)
}
