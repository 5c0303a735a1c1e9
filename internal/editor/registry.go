package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgallion1/diarist/internal/entry"
)

// Registry hands out sessions one caller at a time per entry. Sessions stay
// cached so that pending edits survive between requests.
type Registry struct {
	repo entry.Repository
	log  *slog.Logger

	mu       sync.Mutex
	locks    map[string]*sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(repo entry.Repository, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		repo:     repo,
		log:      log,
		locks:    make(map[string]*sync.Mutex),
		sessions: make(map[string]*Session),
	}
}

func (r *Registry) lockFor(id string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[id]
	if !ok {
		l = &sync.Mutex{}
		r.locks[id] = l
	}
	return l
}

// Do runs fn with exclusive access to the entry's session and saves the
// entry afterwards if fn changed it. A version conflict on save evicts the
// cached session so the next call reloads it.
func (r *Registry) Do(ctx context.Context, id string, fn func(*Session) error) error {
	return r.run(ctx, id, fn, nil)
}

// Update is Do followed by a view of the saved entry, taken under the same
// lock. The view is only valid when err is nil.
func (r *Registry) Update(ctx context.Context, id string, fn func(*Session) error) (EntryView, error) {
	var view EntryView
	err := r.run(ctx, id, fn, func(s *Session) { view = s.View() })
	return view, err
}

func (r *Registry) run(ctx context.Context, id string, fn func(*Session) error, after func(*Session)) error {
	l := r.lockFor(id)
	l.Lock()
	defer l.Unlock()

	s, err := r.load(ctx, id)
	if err != nil {
		return err
	}

	if err := fn(s); err != nil {
		if s.Dirty() {
			if saveErr := r.save(ctx, id, s); saveErr != nil {
				return saveErr
			}
		}
		return err
	}
	if s.Dirty() {
		if err := r.save(ctx, id, s); err != nil {
			return err
		}
	}
	if after != nil {
		after(s)
	}
	return nil
}

func (r *Registry) save(ctx context.Context, id string, s *Session) error {
	e := s.Entry()
	if err := r.repo.Save(ctx, &e); err != nil {
		r.evict(id)
		if errors.Is(err, entry.ErrVersionConflict) {
			r.log.Warn("entry changed underneath session", "entry_id", id)
		}
		return fmt.Errorf("save entry %s: %w", id, err)
	}
	s.markSaved(&e)
	return nil
}

// Forget drops the cached session, for example after the entry is deleted.
func (r *Registry) Forget(id string) {
	l := r.lockFor(id)
	l.Lock()
	defer l.Unlock()
	r.evict(id)
}

func (r *Registry) load(ctx context.Context, id string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if ok {
		return s, nil
	}

	e, err := r.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s, err = NewSession(e, r.log)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	return s, nil
}

func (r *Registry) evict(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}
