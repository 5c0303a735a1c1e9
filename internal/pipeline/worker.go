package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/diarist/internal/document"
	"github.com/dgallion1/diarist/internal/editor"
	"github.com/dgallion1/diarist/internal/entry"
	"github.com/dgallion1/diarist/internal/feedback"
	"github.com/dgallion1/diarist/internal/parser"
)

// dedupWindow is how many recent entries an import is compared against.
const dedupWindow = 200

// Worker processes one job at a time.
type Worker struct {
	adapter  *feedback.Adapter
	registry *editor.Registry
	repo     entry.Repository
	log      *slog.Logger
	parseOpt parser.Options

	backoff func(int) time.Duration
}

func NewWorker(adapter *feedback.Adapter, registry *editor.Registry, repo entry.Repository, log *slog.Logger, opts parser.Options) *Worker {
	return &Worker{
		adapter:  adapter,
		registry: registry,
		repo:     repo,
		log:      log,
		parseOpt: opts,
		backoff:  Backoff,
	}
}

// Process runs a job to a terminal status.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "kind", job.Kind, "user_id", job.UserID)

	switch job.Kind {
	case KindImport:
		if !w.importFile(ctx, job, log) || !job.WithFeedback {
			return
		}
		w.requestFeedback(ctx, job, log.With("entry_id", job.EntryID))
	case KindFeedback:
		w.requestFeedback(ctx, job, log.With("entry_id", job.EntryID))
	default:
		log.Error("unknown job kind")
		job.AddError(fmt.Sprintf("unknown job kind %q", job.Kind))
		job.SetStatus(StatusFailed, "queued")
	}
}

// importFile parses the upload and stores it as a new entry. It reports
// whether an entry was created.
func (w *Worker) importFile(ctx context.Context, job *Job, log *slog.Logger) bool {
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.parseOpt)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return false
	}

	tree, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	job.releaseFile()
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return false
	}

	body := tree.Body()
	if strings.TrimSpace(body) == "" {
		job.AddError("no text found in file")
		job.SetStatus(StatusFailed, "parsing")
		return false
	}

	existing, err := w.findDuplicate(ctx, job.UserID, entry.HashBody(body))
	if err != nil {
		log.Warn("dedup check failed, proceeding", "error", err)
	} else if existing != nil {
		log.Info("duplicate import, skipping", "existing_entry_id", existing.ID)
		job.setEntry(existing.ID, existing.Version, existing.Body)
		job.SetStatus(StatusDupSkipped, "dedup")
		return false
	}

	job.SetStatus(StatusStoring, "storing")
	title := job.Title
	if title == "" {
		title = tree.Title
	}
	e := &entry.Entry{UserID: job.UserID, Title: title, Body: body}
	if err := w.repo.Create(ctx, e); err != nil {
		log.Error("create entry failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return false
	}
	job.setEntry(e.ID, e.Version, e.Body)
	log.Info("imported entry", "entry_id", e.ID, "chars", document.New(body).Len())

	if !job.WithFeedback {
		job.SetStatus(StatusCompleted, "done")
	}
	return true
}

func (w *Worker) findDuplicate(ctx context.Context, userID, hash string) (*entry.Entry, error) {
	entries, err := w.repo.List(ctx, userID, dedupWindow)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.ContentHash == hash {
			return e, nil
		}
	}
	return nil, nil
}

// requestFeedback asks the collaborator about the job's text and attaches
// the result unless the entry moved on in the meantime.
func (w *Worker) requestFeedback(ctx context.Context, job *Job, log *slog.Logger) {
	job.SetStatus(StatusRequesting, "requesting")
	snap := job.Snapshot()
	job.mu.Lock()
	doc := document.New(job.body)
	job.mu.Unlock()

	var out feedback.Outcome
	err := withRetry(ctx, w.backoff, func(attempt int) error {
		job.IncrAttempts()
		out = w.adapter.Request(ctx, doc)
		if out.Err != nil && IsRetryable(out.Err) {
			log.Warn("retryable feedback error", "attempt", attempt, "error", out.Err)
		}
		return out.Err
	})
	if err != nil {
		log.Error("feedback request failed", "error", err)
		job.AddError(fmt.Sprintf("feedback: %s", err))
		job.SetStatus(StatusFailed, "requesting")
		return
	}
	job.SetItems(len(out.Comments), out.Invalid, out.Unplaced)

	job.SetStatus(StatusAttaching, "attaching")
	var attached int
	err = w.registry.Do(ctx, snap.EntryID, func(s *editor.Session) error {
		var err error
		attached, err = s.AttachFeedback(snap.BaseVersion, out.Comments)
		return err
	})
	switch {
	case errors.Is(err, editor.ErrStaleFeedback):
		log.Info("entry changed during feedback, discarding", "base_version", snap.BaseVersion)
		job.SetStatus(StatusStale, "discarded")
		return
	case err != nil:
		log.Error("attach feedback failed", "error", err)
		job.AddError(fmt.Sprintf("attach: %s", err))
		job.SetStatus(StatusFailed, "attaching")
		return
	}

	job.SetAttached(attached)
	log.Info("feedback attached", "comments", attached, "invalid", out.Invalid, "unplaced", out.Unplaced)
	job.SetStatus(StatusCompleted, "done")
}
