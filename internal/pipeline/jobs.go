// Package pipeline runs feedback requests and file imports in the
// background and tracks their progress for polling clients.
package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobKind selects what a worker does with a job.
type JobKind string

const (
	KindFeedback JobKind = "feedback"
	KindImport   JobKind = "import"
)

// JobStatus represents the state of a job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusStoring    JobStatus = "storing"
	StatusRequesting JobStatus = "requesting"
	StatusAttaching  JobStatus = "attaching"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusStale      JobStatus = "stale"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Job tracks one feedback request or import.
type Job struct {
	mu sync.Mutex

	ID      string  `json:"job_id"`
	Kind    JobKind `json:"kind"`
	EntryID string  `json:"entry_id"`
	UserID  string  `json:"user_id"`

	// BaseVersion is the entry version the feedback is computed against.
	BaseVersion int64 `json:"base_version"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename,omitempty"`
	Title    string    `json:"title,omitempty"`

	// WithFeedback makes an import request feedback once the entry exists.
	WithFeedback bool `json:"with_feedback"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	body     string
	errors   []string
}

// Progress counts what happened to the collaborator's items.
type Progress struct {
	Attempts int      `json:"attempts"`
	Placed   int      `json:"placed"`
	Invalid  int      `json:"invalid"`
	Unplaced int      `json:"unplaced"`
	Attached int      `json:"attached"`
	Errors   []string `json:"errors"`
}

// NewFeedbackJob asks for feedback on body, the text of entryID at version.
func NewFeedbackJob(entryID, userID, body string, version int64) *Job {
	now := time.Now()
	return &Job{
		ID:          uuid.NewString(),
		Kind:        KindFeedback,
		EntryID:     entryID,
		UserID:      userID,
		BaseVersion: version,
		Status:      StatusQueued,
		Phase:       "queued",
		CreatedAt:   now,
		UpdatedAt:   now,
		body:        body,
	}
}

// NewImportJob creates an entry for userID from an uploaded file.
func NewImportJob(userID, filename, title string, data []byte, withFeedback bool) *Job {
	now := time.Now()
	return &Job{
		ID:           uuid.NewString(),
		Kind:         KindImport,
		UserID:       userID,
		Status:       StatusQueued,
		Phase:        "queued",
		Filename:     filename,
		Title:        title,
		WithFeedback: withFeedback,
		CreatedAt:    now,
		UpdatedAt:    now,
		fileData:     data,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes jobs not updated within the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// IncrAttempts counts one collaborator call.
func (j *Job) IncrAttempts() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Attempts++
	j.UpdatedAt = time.Now()
}

// SetItems records how the collaborator's items were placed.
func (j *Job) SetItems(placed, invalid, unplaced int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Placed = placed
	j.Progress.Invalid = invalid
	j.Progress.Unplaced = unplaced
	j.UpdatedAt = time.Now()
}

// SetAttached records how many comments reached the entry.
func (j *Job) SetAttached(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Attached = n
	j.UpdatedAt = time.Now()
}

// setEntry binds an import job to the entry it created.
func (j *Job) setEntry(id string, version int64, body string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.EntryID = id
	j.BaseVersion = version
	j.body = body
	j.UpdatedAt = time.Now()
}

// FileData returns the raw upload.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// releaseFile drops the upload once it has been parsed.
func (j *Job) releaseFile() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Kind        JobKind   `json:"kind"`
	EntryID     string    `json:"entry_id"`
	UserID      string    `json:"user_id"`
	BaseVersion int64     `json:"base_version"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename,omitempty"`
	Title       string    `json:"title,omitempty"`
	Progress    Progress  `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.errors))
	copy(errs, j.errors)
	progress := j.Progress
	progress.Errors = errs
	return JobSnapshot{
		ID:          j.ID,
		Kind:        j.Kind,
		EntryID:     j.EntryID,
		UserID:      j.UserID,
		BaseVersion: j.BaseVersion,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Title:       j.Title,
		Progress:    progress,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// Done reports whether the job reached a terminal status.
func (s JobSnapshot) Done() bool {
	switch s.Status {
	case StatusCompleted, StatusFailed, StatusStale, StatusDupSkipped:
		return true
	}
	return false
}
