package entity

import (
	"errors"
	"fmt"
)

// ErrValidation is the parent of every input validation failure. Validation
// errors are raised before any write.
var ErrValidation = errors.New("validation failed")

// Validation errors.
var (
	ErrInvalidUserID       = fmt.Errorf("%w: invalid user ID", ErrValidation)
	ErrInvalidProblemID    = fmt.Errorf("%w: invalid problem ID", ErrValidation)
	ErrInvalidProblemTitle = fmt.Errorf("%w: invalid problem title", ErrValidation)
	ErrInvalidDifficulty   = fmt.Errorf("%w: difficulty must be Easy, Medium or Hard", ErrValidation)
	ErrInvalidConfidence   = fmt.Errorf("%w: confidence rating must be between 1 and 5", ErrValidation)
	ErrInvalidOutcome      = fmt.Errorf("%w: outcome must be Solved, Failed or HintUsed", ErrValidation)
	ErrInvalidTimeTaken    = fmt.Errorf("%w: time taken must not be negative", ErrValidation)
	ErrInvalidFilter       = fmt.Errorf("%w: invalid filter or order_by", ErrValidation)
)

// Domain errors for problems and attempts.
var (
	ErrProblemNotFound  = errors.New("problem not found")
	ErrDuplicateProblem = errors.New("problem already exists")

	// ErrAttemptWrite means the attempt record was not persisted. Nothing
	// else was written and the whole operation may be retried.
	ErrAttemptWrite = errors.New("attempt write failed")
	// ErrScheduleWrite means the attempt is durable but the problem schedule
	// is stale until reconciled.
	ErrScheduleWrite = errors.New("schedule write failed")
	// ErrConcurrentModification means another writer changed the schedule
	// between read and conditional write.
	ErrConcurrentModification = errors.New("problem schedule modified concurrently")
)

// ScheduleWriteError reports a failed schedule write after the attempt was
// recorded.
type ScheduleWriteError struct {
	Attempt Attempt
	Err     error
}

func (e *ScheduleWriteError) Error() string {
	return fmt.Sprintf("%s: attempt %d recorded for problem %d: %v",
		ErrScheduleWrite, e.Attempt.ID, e.Attempt.ProblemID, e.Err)
}

func (e *ScheduleWriteError) Unwrap() []error {
	return []error{ErrScheduleWrite, e.Err}
}

// IsRetryable reports whether the caller can retry the whole operation
// without risking a duplicated attempt.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrScheduleWrite) {
		return false
	}
	return errors.Is(err, ErrAttemptWrite) || errors.Is(err, ErrConcurrentModification)
}
