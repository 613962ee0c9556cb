// Package rowedit models the inline edit lifecycle of a table row:
// viewing -> editing -> (saving | cancelled) -> viewing.
package rowedit

import (
	"errors"
	"sync"
)

// State of a row.
type State string

const (
	StateViewing State = "viewing"
	StateEditing State = "editing"
	StateSaving  State = "saving"
)

var (
	// ErrAlreadyEditing is returned by Begin when the row is not in viewing.
	ErrAlreadyEditing = errors.New("row is already being edited")
	// ErrNotEditing is returned by Save/Cancel outside the editing state.
	ErrNotEditing = errors.New("row is not being edited")
)

// Session holds the snapshot taken on Begin so a failed or cancelled edit
// can restore the original values.
type Session[T any] struct {
	mu       sync.Mutex
	state    State
	current  T
	snapshot T
}

// New wraps the current row values in viewing state.
func New[T any](current T) *Session[T] {
	return &Session[T]{state: StateViewing, current: current}
}

// Begin enters editing, snapshotting the current values.
func (s *Session[T]) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateViewing {
		return ErrAlreadyEditing
	}
	s.snapshot = s.current
	s.state = StateEditing
	return nil
}

// Save validates and commits the edited value. Validation or commit failures
// leave the session in editing with the snapshot intact.
func (s *Session[T]) Save(edited T, validate func(T) error, commit func(T) (T, error)) (T, error) {
	s.mu.Lock()
	if s.state != StateEditing {
		s.mu.Unlock()
		var zero T
		return zero, ErrNotEditing
	}
	s.state = StateSaving
	s.mu.Unlock()

	result, err := s.save(edited, validate, commit)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateEditing
		return result, err
	}
	s.current = result
	s.state = StateViewing
	return result, nil
}

func (s *Session[T]) save(edited T, validate func(T) error, commit func(T) (T, error)) (T, error) {
	if validate != nil {
		if err := validate(edited); err != nil {
			return edited, err
		}
	}
	if commit == nil {
		return edited, nil
	}
	return commit(edited)
}

// Cancel restores the snapshot and returns to viewing.
func (s *Session[T]) Cancel() (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEditing {
		return s.current, ErrNotEditing
	}
	s.current = s.snapshot
	s.state = StateViewing
	return s.current, nil
}

// State reports the current lifecycle state.
func (s *Session[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the values captured by Begin.
func (s *Session[T]) Snapshot() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Current returns the committed values.
func (s *Session[T]) Current() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
