package experiment

import (
	"errors"
	"sync"
)

// ErrRunNotFound is returned when a run with the given ID is not found.
var ErrRunNotFound = errors.New("run not found")

// ErrEmptyID is returned when trying to store a run with an empty ID.
var ErrEmptyID = errors.New("empty run ID")

// RunStore keeps summaries of generated runs.
type RunStore interface {
	Set(run *RunSummary) error
	Read(id string) (*RunSummary, error)
	GetAll() ([]*RunSummary, error)
}

// LocalStorage is an in-memory RunStore holding at most capacity runs.
// The oldest run is evicted first. Safe for concurrent use.
type LocalStorage struct {
	mu       sync.RWMutex
	capacity int
	order    []string
	m        map[string]*RunSummary
}

// NewLocalStorage instantiates an empty LocalStorage. A non-positive capacity means unbounded.
func NewLocalStorage(capacity int) *LocalStorage {
	return &LocalStorage{
		capacity: capacity,
		m:        map[string]*RunSummary{},
	}
}

// Set stores run, replacing a previous run with the same ID.
// Returns ErrEmptyID if the run has an empty ID.
func (l *LocalStorage) Set(run *RunSummary) error {
	if run.ID == "" {
		return ErrEmptyID
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.m[run.ID]; !ok {
		l.order = append(l.order, run.ID)
	}
	l.m[run.ID] = run

	for l.capacity > 0 && len(l.order) > l.capacity {
		delete(l.m, l.order[0])
		l.order = l.order[1:]
	}
	return nil
}

// Read retrieves a run by ID.
// Returns ErrRunNotFound if the run is not found.
func (l *LocalStorage) Read(id string) (*RunSummary, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	r, ok := l.m[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return r, nil
}

// GetAll retrieves all stored runs, oldest first.
func (l *LocalStorage) GetAll() ([]*RunSummary, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	runs := make([]*RunSummary, 0, len(l.order))
	for _, id := range l.order {
		runs = append(runs, l.m[id])
	}
	return runs, nil
}
