package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/diarist/internal/config"
	"github.com/dgallion1/diarist/internal/editor"
	"github.com/dgallion1/diarist/internal/emotion"
	"github.com/dgallion1/diarist/internal/entry"
	"github.com/dgallion1/diarist/internal/feedback"
	"github.com/dgallion1/diarist/internal/pipeline"
)

const testKey = "test-key"

type fixedCollaborator struct {
	items []feedback.Item
}

func (f fixedCollaborator) Feedback(context.Context, []string) ([]feedback.Item, error) {
	return f.items, nil
}

func newTestServer(t *testing.T, collab feedback.Collaborator) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo, err := entry.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "api.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	cfg := config.Config{
		APIKey:         testKey,
		WorkerCount:    1,
		MaxQueueSize:   8,
		MaxUploadBytes: 1 << 20,
		JobTTL:         time.Hour,
	}
	registry := editor.NewRegistry(repo, log)
	orch := pipeline.NewOrchestrator(cfg, feedback.NewAdapter(collab, nil, log), registry, repo, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	return NewServer(orch, registry, repo, emotion.Default(), nil, log, cfg)
}

func call(t *testing.T, srv http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Authorization", "Bearer "+testKey)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createEntry(t *testing.T, srv http.Handler, body string) editor.EntryView {
	t.Helper()
	rec := call(t, srv, http.MethodPost, "/api/entries", map[string]string{"user_id": "u1", "title": "day", "body": body})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[editor.EntryView](t, rec)
}

func awaitJob(t *testing.T, srv http.Handler, id string) pipeline.JobSnapshot {
	t.Helper()
	var snap pipeline.JobSnapshot
	require.Eventually(t, func() bool {
		req := httptest.NewRequest(http.MethodGet, "/api/feedback/"+id, nil)
		req.Header.Set("Authorization", "Bearer "+testKey)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			return false
		}
		var cur pipeline.JobSnapshot
		if json.Unmarshal(rec.Body.Bytes(), &cur) != nil {
			return false
		}
		snap = cur
		return snap.Done()
	}, 5*time.Second, 10*time.Millisecond)
	return snap
}

func TestHealthAndAuth(t *testing.T) {
	srv := newTestServer(t, feedback.Disabled{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/emotions", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/emotions", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid api key"}`, rec.Body.String())
}

func TestListEmotions(t *testing.T) {
	srv := newTestServer(t, feedback.Disabled{})
	rec := call(t, srv, http.MethodGet, "/api/emotions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[struct {
		Emotions []emotion.Emotion `json:"emotions"`
	}](t, rec)
	assert.Equal(t, emotion.Default().List(), got.Emotions)
}

func TestEntryLifecycle(t *testing.T) {
	srv := newTestServer(t, feedback.Disabled{})
	created := createEntry(t, srv, "I felt happy today.")
	assert.Equal(t, int64(1), created.Version)
	assert.Empty(t, created.Highlights)

	rec := call(t, srv, http.MethodPatch, "/api/entries/"+created.ID, map[string]string{"title": "Tuesday"})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[editor.EntryView](t, rec)
	assert.Equal(t, "Tuesday", updated.Title)
	assert.Equal(t, int64(2), updated.Version)

	rec = call(t, srv, http.MethodGet, "/api/entries?user_id=u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.ID)

	rec = call(t, srv, http.MethodGet, "/api/entries", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, srv, http.MethodDelete, "/api/entries/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = call(t, srv, http.MethodGet, "/api/entries/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHighlightAndDestructiveEdit(t *testing.T) {
	srv := newTestServer(t, feedback.Disabled{})
	e := createEntry(t, srv, "I felt happy today.")
	emo := emotion.Default().List()[0]
	base := "/api/entries/" + e.ID

	rec := call(t, srv, http.MethodPost, base+"/highlights/propose", map[string]int{"start": 7, "end": 12})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"conflicts":[]}`, rec.Body.String())

	rec = call(t, srv, http.MethodPost, base+"/highlights", map[string]any{"start": 7, "end": 12, "emotion_id": emo.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	placed := decode[struct {
		Highlight editor.HighlightView `json:"highlight"`
	}](t, rec).Highlight
	assert.Equal(t, "happy", placed.Excerpt)

	// Overlapping highlight needs confirmation.
	rec = call(t, srv, http.MethodPost, base+"/highlights", map[string]any{"start": 2, "end": 9, "emotion_id": emo.ID})
	require.Equal(t, http.StatusConflict, rec.Code)
	conflict := decode[struct {
		Conflicts []editor.HighlightView `json:"conflicts"`
	}](t, rec)
	require.Len(t, conflict.Conflicts, 1)
	assert.Equal(t, placed.ID, conflict.Conflicts[0].ID)

	// Inserting before the highlight shifts it.
	rec = call(t, srv, http.MethodPost, base+"/edits", map[string]string{"text": "Yes. I felt happy today."})
	require.Equal(t, http.StatusOK, rec.Code)
	shifted := decode[editResponse](t, rec)
	assert.False(t, shifted.Outcome.Pending)
	require.Len(t, shifted.Entry.Highlights, 1)
	assert.Equal(t, 12, shifted.Entry.Highlights[0].Start)
	assert.Equal(t, 17, shifted.Entry.Highlights[0].End)

	// Deleting the highlighted word is held until confirmed.
	rec = call(t, srv, http.MethodPost, base+"/edits", map[string]string{"text": "Yes. I felt today."})
	require.Equal(t, http.StatusOK, rec.Code)
	held := decode[editResponse](t, rec)
	assert.True(t, held.Outcome.Pending)
	require.Len(t, held.Outcome.ThreatenedHighlights, 1)
	assert.Equal(t, "Yes. I felt happy today.", held.Entry.Body)
	assert.True(t, held.Entry.Pending)

	rec = call(t, srv, http.MethodPost, base+"/feedback", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = call(t, srv, http.MethodPost, base+"/edits/confirm", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	confirmed := decode[editResponse](t, rec)
	assert.Equal(t, "Yes. I felt today.", confirmed.Entry.Body)
	assert.Empty(t, confirmed.Entry.Highlights)
	assert.False(t, confirmed.Entry.Pending)

	rec = call(t, srv, http.MethodPost, base+"/edits/confirm", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDiscardKeepsText(t *testing.T) {
	srv := newTestServer(t, feedback.Disabled{})
	e := createEntry(t, srv, "rain again")
	base := "/api/entries/" + e.ID

	rec := call(t, srv, http.MethodPost, base+"/highlights", map[string]any{"start": 0, "end": 4, "emotion_id": emotion.Default().List()[0].ID})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = call(t, srv, http.MethodPost, base+"/edits", map[string]string{"text": "again"})
	require.True(t, decode[editResponse](t, rec).Outcome.Pending)

	rec = call(t, srv, http.MethodPost, base+"/edits/discard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[editor.EntryView](t, rec)
	assert.Equal(t, "rain again", view.Body)
	assert.Len(t, view.Highlights, 1)
}

func TestHighlightValidation(t *testing.T) {
	srv := newTestServer(t, feedback.Disabled{})
	e := createEntry(t, srv, "short")
	base := "/api/entries/" + e.ID

	rec := call(t, srv, http.MethodPost, base+"/highlights", map[string]any{"start": 0, "end": 3, "emotion_id": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, srv, http.MethodPost, base+"/highlights", map[string]any{"start": 2, "end": 40, "emotion_id": emotion.Default().List()[0].ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, srv, http.MethodPost, base+"/highlights/propose", map[string]int{"start": 3, "end": 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, srv, http.MethodDelete, base+"/annotations/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(t, srv, http.MethodPost, base+"/edits", map[string]any{"text": "x", "extra": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeedbackJobAttachesComments(t *testing.T) {
	srv := newTestServer(t, fixedCollaborator{items: []feedback.Item{{Start: 0, End: 0, Content: "nice walk"}}})
	e := createEntry(t, srv, "Walked home. Slept early.")

	rec := call(t, srv, http.MethodPost, "/api/entries/"+e.ID+"/feedback", nil)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	accepted := decode[map[string]any](t, rec)
	jobID, _ := accepted["job_id"].(string)
	require.NotEmpty(t, jobID)

	snap := awaitJob(t, srv, jobID)
	require.Equal(t, pipeline.StatusCompleted, snap.Status, snap.Progress.Errors)

	view := decode[editor.EntryView](t, call(t, srv, http.MethodGet, "/api/entries/"+e.ID, nil))
	require.Len(t, view.Comments, 1)
	c := view.Comments[0]
	assert.Equal(t, "Walked home.", c.Excerpt)
	assert.Equal(t, "AI", c.Author)

	rec = call(t, srv, http.MethodDelete, "/api/entries/"+e.ID+"/annotations/"+c.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[editor.EntryView](t, rec).Comments)

	rec = call(t, srv, http.MethodGet, "/api/feedback/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImport(t *testing.T) {
	srv := newTestServer(t, feedback.Disabled{})

	upload := func(name, content string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("user_id", "u1"))
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, _ = fw.Write([]byte(content))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/entries/import", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+testKey)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		return rec
	}

	rec := upload("../../notes.md", "# Sunday\n\nSlow morning.\n")
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	jobID := decode[map[string]any](t, rec)["job_id"].(string)

	snap := awaitJob(t, srv, jobID)
	require.Equal(t, pipeline.StatusCompleted, snap.Status, snap.Progress.Errors)
	assert.Equal(t, "notes.md", snap.Filename)

	view := decode[editor.EntryView](t, call(t, srv, http.MethodGet, "/api/entries/"+snap.EntryID, nil))
	assert.Equal(t, "Sunday", view.Title)
	assert.Equal(t, "Slow morning.", view.Body)

	rec = upload("photo.png", "not text")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "unsupported file type"))
}

func TestLLMStatsUnavailable(t *testing.T) {
	srv := newTestServer(t, feedback.Disabled{})
	rec := call(t, srv, http.MethodGet, "/api/stats/llm", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"diary.txt":          "diary.txt",
		"../../etc/passwd":   "passwd",
		`C:\Users\me\a.docx`: "a.docx",
		"":                   "unnamed",
		"a..b.md":            "a_b.md",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeFilename(in), in)
	}
}
