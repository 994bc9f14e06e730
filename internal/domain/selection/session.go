// Package selection implements the confirm/cancel contract shared by the
// batch and prescription picking surfaces.
package selection

import "errors"

// ErrNoSelection is returned when Confirm is called with nothing selected.
var ErrNoSelection = errors.New("no selection")

// Result is the terminal outcome of a selection flow. A cancelled flow is
// reported as Confirmed=false with a zero payload, distinct from an error.
type Result[T any] struct {
	Confirmed bool `json:"confirmed"`
	Payload   T    `json:"payload,omitempty"`
}

// Guard validates a candidate before it becomes the current selection.
// A non-nil error rejects the candidate and leaves the session unchanged.
type Guard[T any] func(T) error

// Session tracks the current selection for one picking flow. It is owned by
// a single checkout session and is not safe for concurrent use.
type Session[T any] struct {
	current  T
	selected bool
	guard    Guard[T]
}

// NewSession creates an empty session. guard may be nil.
func NewSession[T any](guard Guard[T]) *Session[T] {
	return &Session[T]{guard: guard}
}

// Select makes candidate the current selection, unless the guard rejects it.
// On rejection the previous selection is kept.
func (s *Session[T]) Select(candidate T) error {
	if s.guard != nil {
		if err := s.guard(candidate); err != nil {
			return err
		}
	}
	s.current = candidate
	s.selected = true
	return nil
}

// Selected returns the current selection and whether one is present.
func (s *Session[T]) Selected() (T, bool) {
	return s.current, s.selected
}

// Confirm completes the flow with the current selection. It fails with
// ErrNoSelection when nothing has been selected.
func (s *Session[T]) Confirm() (Result[T], error) {
	if !s.selected {
		return Result[T]{}, ErrNoSelection
	}
	return Result[T]{Confirmed: true, Payload: s.current}, nil
}

// Cancel completes the flow without a selection. It never mutates the
// session, so a caller may still confirm afterwards.
func (s *Session[T]) Cancel() Result[T] {
	return Result[T]{}
}
