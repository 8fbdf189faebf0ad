package entity

import (
	"strings"
	"time"
)

// Outcome describes how a practice attempt ended.
type Outcome string

const (
	OutcomeSolved   Outcome = "Solved"
	OutcomeFailed   Outcome = "Failed"
	OutcomeHintUsed Outcome = "HintUsed"
)

// ParseOutcome accepts the canonical names case-insensitively, plus the
// snake_case spelling of HintUsed.
func ParseOutcome(raw string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "solved":
		return OutcomeSolved, nil
	case "failed":
		return OutcomeFailed, nil
	case "hintused", "hint_used":
		return OutcomeHintUsed, nil
	default:
		return "", ErrInvalidOutcome
	}
}

// IsValid reports whether o is one of the known outcomes.
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeSolved, OutcomeFailed, OutcomeHintUsed:
		return true
	default:
		return false
	}
}

// Attempt is an immutable log entry for one practice attempt.
type Attempt struct {
	ID               int64
	ProblemID        int64
	UserID           int64
	AttemptedAt      time.Time
	Outcome          Outcome
	ConfidenceRating int
	TimeTakenSeconds *int32
	Notes            string
	CreatedAt        time.Time
}

// ValidateConfidence checks the 1-5 self-reported rating.
func ValidateConfidence(rating int) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidConfidence
	}
	return nil
}
