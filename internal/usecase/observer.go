package usecase

import (
	"github.com/eslsoft/dsasheet/internal/entity"
	"github.com/eslsoft/dsasheet/internal/srs"
)

// Failure stages reported to AttemptObserver.AttemptFailed.
const (
	StageValidate       = "validate"
	StageLoad           = "load"
	StageAttemptWrite   = "attempt_write"
	StageScheduleWrite  = "schedule_write"
	StageConflictBudget = "conflict_budget"
)

// AttemptObserver receives attempt logging events, typically to export metrics.
type AttemptObserver interface {
	AttemptRecorded(outcome entity.Outcome, tier srs.Tier)
	AttemptFailed(stage string)
	ScheduleConflict()
	Reconciled(repaired bool)
}

// NoopObserver discards every event.
type NoopObserver struct{}

func (NoopObserver) AttemptRecorded(entity.Outcome, srs.Tier) {}
func (NoopObserver) AttemptFailed(string)                     {}
func (NoopObserver) ScheduleConflict()                        {}
func (NoopObserver) Reconciled(bool)                          {}
