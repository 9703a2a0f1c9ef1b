package services

import (
	"fmt"
	"strings"
)

// ValidationError reports missing or malformed input. It is raised before any
// write, so a validation failure is never partially applied.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an unknown id.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InvalidTokenError reports a token that is absent or in the wrong state for
// the requested operation.
type InvalidTokenError struct {
	Reason string
}

func (e *InvalidTokenError) Error() string {
	if e.Reason == "" {
		return "invalid token"
	}
	return "invalid token: " + e.Reason
}

// AlreadyCompletedError is the idempotency guard for re-submitting a survey
// that was already completed.
type AlreadyCompletedError struct{}

func (e *AlreadyCompletedError) Error() string { return "survey already completed" }

// InvalidQuestionError lists question ids in a submission that do not belong
// to the recipient's run.
type InvalidQuestionError struct {
	QuestionIDs []string
}

func (e *InvalidQuestionError) Error() string {
	return "questions do not belong to this survey: " + strings.Join(e.QuestionIDs, ", ")
}

// NoAudienceError means activation resolved zero recipients; the run stays in
// draft.
type NoAudienceError struct {
	RunID string
}

func (e *NoAudienceError) Error() string {
	return fmt.Sprintf("no eligible recipients resolved for run %s", e.RunID)
}

// DispatchError records a notifier failure for a single recipient inside a
// batch. It is captured per item and never aborts the batch.
type DispatchError struct {
	Email string
	Err   error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch to %s failed: %v", e.Email, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
