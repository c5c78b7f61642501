package application

import (
	"errors"
	"strings"
)

var (
	ErrNotAgreed            = errors.New("please agree to the terms")
	ErrIncompleteDraft      = errors.New("required fields are missing")
	ErrPersistenceFailed    = errors.New("error submitting application")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSubmissionInProgress = errors.New("a submission is already in progress")
	ErrInvalidEdit          = errors.New("invalid field edit")
)

// IncompleteDraftError lists the required fields that were blank.
type IncompleteDraftError struct {
	Fields []string
}

func (e *IncompleteDraftError) Error() string {
	return ErrIncompleteDraft.Error() + ": " + strings.Join(e.Fields, ", ")
}

func (e *IncompleteDraftError) Unwrap() error {
	return ErrIncompleteDraft
}

// PersistenceError carries the document store's failure.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return ErrPersistenceFailed.Error() + ": " + e.Message()
}

// Message is the collaborator-supplied text shown to the applicant.
func (e *PersistenceError) Message() string {
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistenceFailed
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
