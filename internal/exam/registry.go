package exam

import (
	"sync"
	"time"
)

// Registry keeps composed exams in memory until they expire. Exams do not
// survive a restart.
type Registry struct {
	mu        sync.RWMutex
	exams     map[string]Exam
	retention time.Duration
}

// NewRegistry keeps each exam for its time limit plus retention.
func NewRegistry(retention time.Duration) *Registry {
	return &Registry{exams: map[string]Exam{}, retention: retention}
}

func (r *Registry) Put(e Exam) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exams[e.ID] = e
}

func (r *Registry) Get(id string) (Exam, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.exams[id]
	if !ok {
		return Exam{}, ErrExamNotFound
	}
	return e, nil
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.exams, id)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.exams)
}

// PurgeExpired drops exams whose deadline plus retention is before now and
// reports how many were removed.
func (r *Registry) PurgeExpired(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.exams {
		if e.ExpiresAt().Add(r.retention).Before(now) {
			delete(r.exams, id)
			n++
		}
	}
	return n
}
