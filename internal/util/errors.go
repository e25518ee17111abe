package util

import (
	"errors"
	"fmt"
)

var (
	ErrViewNotFound       = errors.New("view not found")
	ErrViewClosed         = errors.New("view closed")
	ErrQuizSubmitted      = errors.New("quiz already submitted")
	ErrQuestionOutOfRange = errors.New("question index out of range")
	ErrUnknownOption      = errors.New("option does not belong to question")
	ErrNoActiveLesson     = errors.New("no active lesson")
	ErrInvalidQuestion    = errors.New("correct option is not one of the question options")
)

// FetchError is returned when a catalog load fails: transport error,
// non-2xx status or an undecodable payload.
type FetchError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s: unexpected status %d", e.Op, e.URL, e.StatusCode)
	case e.URL == "":
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// PersistError wraps a failed progress snapshot delivery. It is logged and
// never returned to callers of the tracker.
type PersistError struct {
	LessonID string
	Err      error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist progress for lesson %s: %v", e.LessonID, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
