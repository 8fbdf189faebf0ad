package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/eslsoft/dsasheet/internal/entity"
	"github.com/eslsoft/dsasheet/internal/repository"
	"github.com/eslsoft/dsasheet/internal/srs"
)

const defaultConflictRetries = 3

// AttemptSettings tunes the attempt logger.
type AttemptSettings struct {
	// ConflictRetries bounds reconciliation retries after a lost conditional write.
	ConflictRetries int
	// RecordTimeout bounds a whole RecordAttempt call. Zero disables it.
	RecordTimeout time.Duration
	// ReconcileRate limits problems per second during a user sweep. Zero means unlimited.
	ReconcileRate float64
}

// LogAttemptInput is a single practice attempt reported by the user.
type LogAttemptInput struct {
	UserID           int64
	ProblemID        int64
	Outcome          entity.Outcome
	ConfidenceRating int
	TimeTakenSeconds *int32
	Notes            string
}

func (in LogAttemptInput) validate() error {
	switch {
	case in.UserID <= 0:
		return entity.ErrInvalidUserID
	case in.ProblemID <= 0:
		return entity.ErrInvalidProblemID
	case !in.Outcome.IsValid():
		return entity.ErrInvalidOutcome
	case in.TimeTakenSeconds != nil && *in.TimeTakenSeconds < 0:
		return entity.ErrInvalidTimeTaken
	}
	return entity.ValidateConfidence(in.ConfidenceRating)
}

// AttemptResult is the schedule produced by a recorded attempt.
type AttemptResult struct {
	Attempt  entity.Attempt
	Tier     srs.Tier
	Schedule entity.ScheduleCache
}

// ReconcileResult describes one reconciliation pass over a problem.
type ReconcileResult struct {
	ProblemID int64
	Before    entity.ScheduleCache
	After     entity.ScheduleCache
	Repaired  bool
}

// SweepResult summarises a reconciliation sweep over a user's problems.
type SweepResult struct {
	Checked  int
	Repaired int
	Failed   int
}

// AttemptUsecase logs attempts and keeps problem schedules consistent with
// the attempt history.
type AttemptUsecase interface {
	RecordAttempt(ctx context.Context, in LogAttemptInput) (*AttemptResult, error)
	ListAttempts(ctx context.Context, userID, problemID int64) ([]entity.Attempt, error)
	Reconcile(ctx context.Context, userID, problemID int64) (*ReconcileResult, error)
	ReconcileUser(ctx context.Context, userID int64) (*SweepResult, error)
}

// NewAttemptUsecase wires the repositories with the scheduler.
func NewAttemptUsecase(
	problems repository.ProblemRepository,
	attempts repository.AttemptRepository,
	scheduler *srs.Scheduler,
	settings AttemptSettings,
	observer AttemptObserver,
	logger logrus.FieldLogger,
) AttemptUsecase {
	if settings.ConflictRetries <= 0 {
		settings.ConflictRetries = defaultConflictRetries
	}
	if observer == nil {
		observer = NoopObserver{}
	}
	if scheduler == nil {
		scheduler = srs.New()
	}
	return &attemptUsecase{
		problems:  problems,
		attempts:  attempts,
		scheduler: scheduler,
		settings:  settings,
		observer:  observer,
		logger:    logger,
		locks:     newKeyedMutex(),
		clock:     time.Now,
	}
}

type attemptUsecase struct {
	problems  repository.ProblemRepository
	attempts  repository.AttemptRepository
	scheduler *srs.Scheduler
	settings  AttemptSettings
	observer  AttemptObserver
	logger    logrus.FieldLogger
	locks     *keyedMutex
	clock     func() time.Time
}

func (u *attemptUsecase) RecordAttempt(ctx context.Context, in LogAttemptInput) (*AttemptResult, error) {
	if err := in.validate(); err != nil {
		u.observer.AttemptFailed(StageValidate)
		return nil, err
	}
	if u.settings.RecordTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.settings.RecordTimeout)
		defer cancel()
	}

	unlock, err := u.locks.Lock(ctx, in.ProblemID)
	if err != nil {
		u.observer.AttemptFailed(StageLoad)
		return nil, fmt.Errorf("wait for problem %d: %w", in.ProblemID, err)
	}
	defer unlock()

	log := u.logger.WithFields(logrus.Fields{"user_id": in.UserID, "problem_id": in.ProblemID})

	problem, err := u.loadConsistent(ctx, in.UserID, in.ProblemID, log)
	if err != nil {
		u.observer.AttemptFailed(StageLoad)
		return nil, err
	}

	now := u.clock()
	saved, err := u.attempts.Insert(ctx, &entity.Attempt{
		ProblemID:        problem.ID,
		UserID:           in.UserID,
		AttemptedAt:      now,
		Outcome:          in.Outcome,
		ConfidenceRating: in.ConfidenceRating,
		TimeTakenSeconds: in.TimeTakenSeconds,
		Notes:            strings.TrimSpace(in.Notes),
		CreatedAt:        now,
	})
	if err != nil {
		u.observer.AttemptFailed(StageAttemptWrite)
		log.WithError(err).Warn("attempt write failed")
		return nil, fmt.Errorf("%w: %w", entity.ErrAttemptWrite, err)
	}

	tier, _ := srs.Classify(saved.ConfidenceRating)
	schedule, err := u.advance(ctx, problem, saved)
	if err != nil {
		if errors.Is(err, entity.ErrConcurrentModification) {
			u.observer.AttemptFailed(StageConflictBudget)
		} else {
			u.observer.AttemptFailed(StageScheduleWrite)
		}
		log.WithError(err).WithField("attempt_id", saved.ID).Error("attempt recorded but schedule not updated")
		return nil, &entity.ScheduleWriteError{Attempt: *saved, Err: err}
	}

	u.observer.AttemptRecorded(saved.Outcome, tier)
	log.WithFields(logrus.Fields{
		"attempt_id":    saved.ID,
		"tier":          tier.String(),
		"bucket":        schedule.Bucket,
		"interval_days": schedule.IntervalDays,
	}).Info("attempt recorded")

	return &AttemptResult{Attempt: *saved, Tier: tier, Schedule: schedule}, nil
}

// advance folds a freshly inserted attempt into the cached schedule and
// writes it conditionally. When the attempt does not sort last, or another
// writer got in first, the schedule is rebuilt from the full history.
func (u *attemptUsecase) advance(ctx context.Context, problem *entity.Problem, attempt *entity.Attempt) (entity.ScheduleCache, error) {
	cached := problem.Schedule
	if last := cached.LastAttemptAt; last != nil && attempt.AttemptedAt.Before(*last) {
		return u.rebuildWithRetry(ctx, problem.UserID, problem.ID)
	}

	state, _, err := u.scheduler.Apply(toState(cached), reviewOf(*attempt))
	if err != nil {
		return entity.ScheduleCache{}, err
	}
	next := fromState(state)
	err = u.problems.UpdateSchedule(ctx, repository.ScheduleUpdate{
		ProblemID:            problem.ID,
		UserID:               problem.UserID,
		ExpectedAttemptCount: cached.AttemptCount,
		Schedule:             next,
	})
	switch {
	case err == nil:
		return next, nil
	case errors.Is(err, entity.ErrConcurrentModification):
		u.observer.ScheduleConflict()
		return u.rebuildWithRetry(ctx, problem.UserID, problem.ID)
	default:
		return entity.ScheduleCache{}, err
	}
}

func (u *attemptUsecase) rebuildWithRetry(ctx context.Context, userID, problemID int64) (entity.ScheduleCache, error) {
	var lastErr error
	for i := 0; i < u.settings.ConflictRetries; i++ {
		res, err := u.reconcileLocked(ctx, userID, problemID)
		if err == nil {
			return res.After, nil
		}
		if !errors.Is(err, entity.ErrConcurrentModification) {
			return entity.ScheduleCache{}, err
		}
		u.observer.ScheduleConflict()
		lastErr = err
	}
	return entity.ScheduleCache{}, lastErr
}

// loadConsistent reads the problem and repairs its schedule first when the
// cache does not cover every stored attempt.
func (u *attemptUsecase) loadConsistent(ctx context.Context, userID, problemID int64, log logrus.FieldLogger) (*entity.Problem, error) {
	problem, err := u.problems.GetByID(ctx, userID, problemID)
	if err != nil {
		return nil, err
	}
	count, err := u.attempts.Count(ctx, userID, problemID)
	if err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}
	if count == problem.Schedule.AttemptCount {
		return problem, nil
	}

	log.WithFields(logrus.Fields{
		"cached_attempts": problem.Schedule.AttemptCount,
		"stored_attempts": count,
	}).Warn("stale schedule detected, reconciling before use")
	if _, err := u.rebuildWithRetry(ctx, userID, problemID); err != nil {
		return nil, fmt.Errorf("repair stale schedule: %w", err)
	}
	return u.problems.GetByID(ctx, userID, problemID)
}

func (u *attemptUsecase) ListAttempts(ctx context.Context, userID, problemID int64) ([]entity.Attempt, error) {
	if userID <= 0 {
		return nil, entity.ErrInvalidUserID
	}
	if problemID <= 0 {
		return nil, entity.ErrInvalidProblemID
	}
	if _, err := u.problems.GetByID(ctx, userID, problemID); err != nil {
		return nil, err
	}
	return u.attempts.ListByProblem(ctx, userID, problemID)
}

func (u *attemptUsecase) Reconcile(ctx context.Context, userID, problemID int64) (*ReconcileResult, error) {
	if userID <= 0 {
		return nil, entity.ErrInvalidUserID
	}
	if problemID <= 0 {
		return nil, entity.ErrInvalidProblemID
	}
	unlock, err := u.locks.Lock(ctx, problemID)
	if err != nil {
		return nil, fmt.Errorf("wait for problem %d: %w", problemID, err)
	}
	defer unlock()

	var res *ReconcileResult
	for i := 0; i < u.settings.ConflictRetries; i++ {
		res, err = u.reconcileLocked(ctx, userID, problemID)
		if !errors.Is(err, entity.ErrConcurrentModification) {
			break
		}
		u.observer.ScheduleConflict()
	}
	return res, err
}

// reconcileLocked rebuilds the schedule from the attempt history. The caller
// must hold the problem lock.
func (u *attemptUsecase) reconcileLocked(ctx context.Context, userID, problemID int64) (*ReconcileResult, error) {
	problem, err := u.problems.GetByID(ctx, userID, problemID)
	if err != nil {
		return nil, err
	}
	history, err := u.attempts.ListByProblem(ctx, userID, problemID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	reviews := make([]srs.Review, 0, len(history))
	for _, attempt := range history {
		reviews = append(reviews, reviewOf(attempt))
	}
	state, err := u.scheduler.Replay(reviews)
	if err != nil {
		return nil, fmt.Errorf("replay attempts for problem %d: %w", problemID, err)
	}

	rebuilt := fromState(state)
	res := &ReconcileResult{ProblemID: problemID, Before: problem.Schedule, After: rebuilt}
	if toState(problem.Schedule).Equal(state) {
		u.observer.Reconciled(false)
		return res, nil
	}

	err = u.problems.UpdateSchedule(ctx, repository.ScheduleUpdate{
		ProblemID:            problemID,
		UserID:               userID,
		ExpectedAttemptCount: problem.Schedule.AttemptCount,
		Schedule:             rebuilt,
	})
	if err != nil {
		return nil, err
	}
	res.Repaired = true
	u.observer.Reconciled(true)
	u.logger.WithFields(logrus.Fields{
		"user_id":       userID,
		"problem_id":    problemID,
		"bucket_before": problem.Schedule.Bucket,
		"bucket_after":  rebuilt.Bucket,
		"attempts":      rebuilt.AttemptCount,
	}).Info("schedule reconciled")
	return res, nil
}

func (u *attemptUsecase) ReconcileUser(ctx context.Context, userID int64) (*SweepResult, error) {
	if userID <= 0 {
		return nil, entity.ErrInvalidUserID
	}
	problems, err := u.problems.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if u.settings.ReconcileRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(u.settings.ReconcileRate), 1)
	}

	result := &SweepResult{}
	var errs []error
	for _, problem := range problems {
		if err := limiter.Wait(ctx); err != nil {
			errs = append(errs, err)
			break
		}
		result.Checked++
		res, err := u.Reconcile(ctx, userID, problem.ID)
		if err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("problem %d: %w", problem.ID, err))
			continue
		}
		if res.Repaired {
			result.Repaired++
		}
	}
	return result, errors.Join(errs...)
}

func reviewOf(a entity.Attempt) srs.Review {
	return srs.Review{Seq: a.ID, At: a.AttemptedAt, Rating: a.ConfidenceRating}
}

func toState(c entity.ScheduleCache) srs.State {
	return srs.State{
		Bucket:             c.Bucket,
		IntervalDays:       c.IntervalDays,
		NextReviewAt:       c.NextReviewAt,
		PersonalDifficulty: c.PersonalDifficulty,
		Folded:             c.AttemptCount,
		LastReviewAt:       c.LastAttemptAt,
	}
}

func fromState(s srs.State) entity.ScheduleCache {
	return entity.ScheduleCache{
		Bucket:             s.Bucket,
		IntervalDays:       s.IntervalDays,
		NextReviewAt:       s.NextReviewAt,
		PersonalDifficulty: s.PersonalDifficulty,
		AttemptCount:       s.Folded,
		LastAttemptAt:      s.LastReviewAt,
	}
}
