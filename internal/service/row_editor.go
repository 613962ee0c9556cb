package service

import (
	"sync"

	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
	"github.com/noah-isme/edu-center-api/pkg/rowedit"
)

// rowEditor tracks in-progress inline edits so one row has at most one
// editing session at a time.
type rowEditor[T any] struct {
	mu       sync.Mutex
	sessions map[string]*rowedit.Session[T]
}

func newRowEditor[T any]() *rowEditor[T] {
	return &rowEditor[T]{sessions: make(map[string]*rowedit.Session[T])}
}

// Edit runs one edit of the row identified by key. The second return value is
// the snapshot taken before the edit; callers hand it back on failure so the
// row can be restored.
func (e *rowEditor[T]) Edit(key string, current, edited T, validate func(T) error, commit func(T) (T, error)) (T, T, error) {
	e.mu.Lock()
	if _, busy := e.sessions[key]; busy {
		e.mu.Unlock()
		var zero T
		return zero, current, appErrors.Clone(appErrors.ErrEditInProgress, "row is already being edited")
	}
	session := rowedit.New(current)
	if err := session.Begin(); err != nil {
		e.mu.Unlock()
		var zero T
		return zero, current, err
	}
	e.sessions[key] = session
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.sessions, key)
		e.mu.Unlock()
	}()

	result, err := session.Save(edited, validate, commit)
	if err != nil {
		original, _ := session.Cancel()
		return result, original, err
	}
	return result, session.Snapshot(), nil
}

// Editing reports whether key currently has an open session.
func (e *rowEditor[T]) Editing(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.sessions[key]
	return ok
}
