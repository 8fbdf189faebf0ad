package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/dsasheet/internal/entity"
	"github.com/eslsoft/dsasheet/internal/srs"
)

const testUserID int64 = 7

var testStart = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type attemptFixture struct {
	uc       *attemptUsecase
	problems *fakeProblemRepo
	attempts *fakeAttemptRepo
	observer *recordingObserver
	logs     *logtest.Hook
}

func newAttemptFixture(t *testing.T) *attemptFixture {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	f := &attemptFixture{
		problems: newFakeProblemRepo(),
		attempts: newFakeAttemptRepo(),
		observer: newRecordingObserver(),
		logs:     hook,
	}
	f.uc = NewAttemptUsecase(f.problems, f.attempts, srs.New(), AttemptSettings{}, f.observer, logger).(*attemptUsecase)
	f.uc.clock = stepClock(testStart, time.Hour)
	return f
}

func (f *attemptFixture) addProblem(t *testing.T, userID int64, title string) int64 {
	t.Helper()
	p, err := f.problems.Create(context.Background(), &entity.Problem{UserID: userID, Title: title})
	require.NoError(t, err)
	return p.ID
}

func (f *attemptFixture) record(t *testing.T, problemID int64, rating int) *AttemptResult {
	t.Helper()
	res, err := f.uc.RecordAttempt(context.Background(), LogAttemptInput{
		UserID:           testUserID,
		ProblemID:        problemID,
		Outcome:          entity.OutcomeSolved,
		ConfidenceRating: rating,
	})
	require.NoError(t, err)
	return res
}

// requireConsistent asserts the cached schedule equals a replay of the full history.
func (f *attemptFixture) requireConsistent(t *testing.T, problemID int64) srs.State {
	t.Helper()
	history, err := f.attempts.ListByProblem(context.Background(), testUserID, problemID)
	require.NoError(t, err)
	reviews := make([]srs.Review, 0, len(history))
	for _, a := range history {
		reviews = append(reviews, reviewOf(a))
	}
	want, err := srs.New().Replay(reviews)
	require.NoError(t, err)
	got := toState(f.problems.schedule(problemID))
	require.Truef(t, got.Equal(want), "cached %+v, replay %+v", got, want)
	return want
}

func TestRecordAttempt_ColdStartGrowth(t *testing.T) {
	f := newAttemptFixture(t)
	id := f.addProblem(t, testUserID, "Two Sum")

	steps := []struct {
		rating   int
		bucket   int
		interval int
		pd       int
	}{
		{5, 1, 3, 1},
		{4, 2, 7, 3},
		{5, 3, 11, 1},
		{5, 4, 24, 1},
	}
	for i, step := range steps {
		at := testStart.Add(time.Duration(i) * time.Hour)
		res := f.record(t, id, step.rating)
		assert.Equal(t, step.bucket, res.Schedule.Bucket, "attempt %d bucket", i)
		assert.Equal(t, step.interval, res.Schedule.IntervalDays, "attempt %d interval", i)
		assert.Equal(t, step.pd, res.Schedule.PersonalDifficulty, "attempt %d difficulty", i)
		assert.Equal(t, srs.TierGrow, res.Tier)
		require.NotNil(t, res.Schedule.NextReviewAt)
		assert.True(t, res.Schedule.NextReviewAt.Equal(at.AddDate(0, 0, step.interval)))
		assert.Equal(t, int64(i+1), res.Schedule.AttemptCount)
		assert.True(t, res.Attempt.AttemptedAt.Equal(at))
	}
	f.requireConsistent(t, id)
	assert.Equal(t, len(steps), f.observer.recorded)
}

func TestRecordAttempt_ForgettingResets(t *testing.T) {
	f := newAttemptFixture(t)
	id := f.addProblem(t, testUserID, "Course Schedule")

	f.record(t, id, 5)
	f.record(t, id, 5)
	f.record(t, id, 5)
	assert.Equal(t, 3, f.problems.schedule(id).Bucket)

	res := f.record(t, id, 2)
	assert.Equal(t, srs.TierReset, res.Tier)
	assert.Equal(t, 0, res.Schedule.Bucket)
	assert.Equal(t, 1, res.Schedule.IntervalDays)
	assert.Equal(t, 7, res.Schedule.PersonalDifficulty)

	res = f.record(t, id, 3)
	assert.Equal(t, srs.TierShortBump, res.Tier)
	assert.Equal(t, 1, res.Schedule.Bucket)
	assert.Equal(t, 3, res.Schedule.IntervalDays)
	f.requireConsistent(t, id)
}

func TestRecordAttempt_ValidationWritesNothing(t *testing.T) {
	f := newAttemptFixture(t)
	id := f.addProblem(t, testUserID, "LRU Cache")
	negative := int32(-5)

	cases := []struct {
		name string
		in   LogAttemptInput
		want error
	}{
		{"rating zero", LogAttemptInput{UserID: testUserID, ProblemID: id, Outcome: entity.OutcomeSolved, ConfidenceRating: 0}, entity.ErrInvalidConfidence},
		{"rating six", LogAttemptInput{UserID: testUserID, ProblemID: id, Outcome: entity.OutcomeSolved, ConfidenceRating: 6}, entity.ErrInvalidConfidence},
		{"unknown outcome", LogAttemptInput{UserID: testUserID, ProblemID: id, Outcome: "Skipped", ConfidenceRating: 3}, entity.ErrInvalidOutcome},
		{"missing user", LogAttemptInput{ProblemID: id, Outcome: entity.OutcomeFailed, ConfidenceRating: 3}, entity.ErrInvalidUserID},
		{"missing problem", LogAttemptInput{UserID: testUserID, Outcome: entity.OutcomeFailed, ConfidenceRating: 3}, entity.ErrInvalidProblemID},
		{"negative time", LogAttemptInput{UserID: testUserID, ProblemID: id, Outcome: entity.OutcomeHintUsed, ConfidenceRating: 3, TimeTakenSeconds: &negative}, entity.ErrInvalidTimeTaken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.RecordAttempt(context.Background(), tc.in)
			require.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, entity.ErrValidation)
		})
	}

	count, err := f.attempts.Count(context.Background(), testUserID, id)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, f.problems.updates)
	assert.Equal(t, len(cases), f.observer.failed[StageValidate])
}

func TestRecordAttempt_ProblemOfAnotherUser(t *testing.T) {
	f := newAttemptFixture(t)
	id := f.addProblem(t, testUserID+1, "Word Ladder")

	_, err := f.uc.RecordAttempt(context.Background(), LogAttemptInput{
		UserID: testUserID, ProblemID: id, Outcome: entity.OutcomeSolved, ConfidenceRating: 4,
	})
	require.ErrorIs(t, err, entity.ErrProblemNotFound)

	count, err := f.attempts.CountByUser(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRecordAttempt_AttemptWriteFailure(t *testing.T) {
	f := newAttemptFixture(t)
	id := f.addProblem(t, testUserID, "Merge Intervals")
	f.attempts.insertErr = errInjected

	_, err := f.uc.RecordAttempt(context.Background(), LogAttemptInput{
		UserID: testUserID, ProblemID: id, Outcome: entity.OutcomeSolved, ConfidenceRating: 5,
	})
	require.ErrorIs(t, err, entity.ErrAttemptWrite)
	assert.ErrorIs(t, err, errInjected)
	assert.True(t, entity.IsRetryable(err))
	assert.Zero(t, f.problems.updates)
	assert.Equal(t, entity.ScheduleCache{}, f.problems.schedule(id))
	assert.Equal(t, 1, f.observer.failed[StageAttemptWrite])

	f.attempts.insertErr = nil
	res := f.record(t, id, 5)
	assert.Equal(t, 1, res.Schedule.Bucket)
}

func TestRecordAttempt_CrashBetweenWritesIsRepaired(t *testing.T) {
	f := newAttemptFixture(t)
	id := f.addProblem(t, testUserID, "Number of Islands")
	f.record(t, id, 5)

	f.problems.updateErr = errInjected
	_, err := f.uc.RecordAttempt(context.Background(), LogAttemptInput{
		UserID: testUserID, ProblemID: id, Outcome: entity.OutcomeSolved, ConfidenceRating: 4,
	})
	var swErr *entity.ScheduleWriteError
	require.ErrorAs(t, err, &swErr)
	assert.ErrorIs(t, err, entity.ErrScheduleWrite)
	assert.False(t, entity.IsRetryable(err))
	assert.Equal(t, id, swErr.Attempt.ProblemID)
	assert.NotZero(t, swErr.Attempt.ID)
	assert.Equal(t, 1, f.observer.failed[StageScheduleWrite])

	// attempt is durable, cache still reflects one attempt
	count, err := f.attempts.Count(context.Background(), testUserID, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, int64(1), f.problems.schedule(id).AttemptCount)

	f.problems.updateErr = nil
	res, err := f.uc.Reconcile(context.Background(), testUserID, id)
	require.NoError(t, err)
	assert.True(t, res.Repaired)
	assert.Equal(t, 1, res.Before.Bucket)
	assert.Equal(t, 2, res.After.Bucket)
	assert.Equal(t, 7, res.After.IntervalDays)
	f.requireConsistent(t, id)

	res, err = f.uc.Reconcile(context.Background(), testUserID, id)
	require.NoError(t, err)
	assert.False(t, res.Repaired)
}

func TestRecordAttempt_StaleCacheRepairedBeforeUse(t *testing.T) {
	f := newAttemptFixture(t)
	id := f.addProblem(t, testUserID, "Coin Change")
	f.record(t, id, 5)

	// an attempt written by a process that died before its schedule write
	f.attempts.add(entity.Attempt{
		ProblemID: id, UserID: testUserID, AttemptedAt: testStart.Add(30 * time.Minute),
		Outcome: entity.OutcomeSolved, ConfidenceRating: 5,
	})

	res := f.record(t, id, 5)
	assert.Equal(t, 3, res.Schedule.Bucket)
	assert.Equal(t, int64(3), res.Schedule.AttemptCount)
	f.requireConsistent(t, id)
	assert.Equal(t, 1, f.observer.repaired)

	var warned bool
	for _, entry := range f.logs.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Message == "stale schedule detected, reconciling before use" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestRecordAttempt_ConflictFallsBackToReplay(t *testing.T) {
	f := newAttemptFixture(t)
	id := f.addProblem(t, testUserID, "Edit Distance")
	f.record(t, id, 4)

	var once sync.Once
	f.problems.beforeUpdate = func() { once.Do(func() { f.problems.bumpCount(id) }) }

	res := f.record(t, id, 5)
	assert.Equal(t, 2, res.Schedule.Bucket)
	assert.Equal(t, int64(2), res.Schedule.AttemptCount)
	assert.Equal(t, 1, f.observer.conflicts)
	f.requireConsistent(t, id)
}

func TestRecordAttempt_ConflictBudgetExhausted(t *testing.T) {
	f := newAttemptFixture(t)
	id := f.addProblem(t, testUserID, "Trapping Rain Water")
	f.problems.beforeUpdate = func() { f.problems.bumpCount(id) }

	_, err := f.uc.RecordAttempt(context.Background(), LogAttemptInput{
		UserID: testUserID, ProblemID: id, Outcome: entity.OutcomeSolved, ConfidenceRating: 5,
	})
	require.ErrorIs(t, err, entity.ErrConcurrentModification)
	var swErr *entity.ScheduleWriteError
	require.ErrorAs(t, err, &swErr)
	assert.Equal(t, 1, f.observer.failed[StageConflictBudget])
	assert.Equal(t, 1+defaultConflictRetries, f.observer.conflicts)
	assert.False(t, entity.IsRetryable(err), "attempt is durable, resubmitting would duplicate it")

	count, err := f.attempts.Count(context.Background(), testUserID, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	f.problems.beforeUpdate = nil
	_, err = f.uc.Reconcile(context.Background(), testUserID, id)
	require.NoError(t, err)
	f.requireConsistent(t, id)
}

func TestRecordAttempt_ReplayMatchesIncrementalFold(t *testing.T) {
	f := newAttemptFixture(t)
	id := f.addProblem(t, testUserID, "Longest Increasing Subsequence")

	ratings := []int{1, 5, 5, 3, 4, 4, 5, 2, 5, 5, 5, 5, 1, 3, 4, 5, 5, 5, 2, 4}
	for _, rating := range ratings {
		f.record(t, id, rating)
		f.requireConsistent(t, id)
	}

	res, err := f.uc.Reconcile(context.Background(), testUserID, id)
	require.NoError(t, err)
	assert.False(t, res.Repaired)
	assert.Equal(t, int64(len(ratings)), res.After.AttemptCount)
}

func TestRecordAttempt_OutOfOrderTimestampReplays(t *testing.T) {
	f := newAttemptFixture(t)
	id := f.addProblem(t, testUserID, "Median of Two Sorted Arrays")

	// an attempt imported with a timestamp ahead of the clock
	f.attempts.add(entity.Attempt{
		ProblemID: id, UserID: testUserID, AttemptedAt: testStart.AddDate(0, 1, 0),
		Outcome: entity.OutcomeSolved, ConfidenceRating: 5,
	})
	_, err := f.uc.Reconcile(context.Background(), testUserID, id)
	require.NoError(t, err)

	res := f.record(t, id, 1)
	// the earlier failure sorts first, the later success still decides the state
	assert.Equal(t, 1, res.Schedule.Bucket)
	assert.Equal(t, 3, res.Schedule.IntervalDays)
	f.requireConsistent(t, id)
}

func TestRecordAttempt_ConcurrentCallsSerialize(t *testing.T) {
	f := newAttemptFixture(t)
	first := f.addProblem(t, testUserID, "Binary Tree Level Order")
	second := f.addProblem(t, testUserID, "Kth Largest Element")

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers*2)
	for i := 0; i < workers; i++ {
		for _, id := range []int64{first, second} {
			wg.Add(1)
			go func(id int64, rating int) {
				defer wg.Done()
				_, err := f.uc.RecordAttempt(context.Background(), LogAttemptInput{
					UserID: testUserID, ProblemID: id, Outcome: entity.OutcomeSolved, ConfidenceRating: rating,
				})
				errs <- err
			}(id, i%5+1)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	for _, id := range []int64{first, second} {
		state := f.requireConsistent(t, id)
		assert.Equal(t, int64(workers), state.Folded)
	}
	assert.Zero(t, f.uc.locks.size())
}

func TestRecordAttempt_CanceledContext(t *testing.T) {
	f := newAttemptFixture(t)
	id := f.addProblem(t, testUserID, "Jump Game")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.uc.RecordAttempt(ctx, LogAttemptInput{
		UserID: testUserID, ProblemID: id, Outcome: entity.OutcomeSolved, ConfidenceRating: 4,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestListAttempts(t *testing.T) {
	f := newAttemptFixture(t)
	id := f.addProblem(t, testUserID, "Valid Parentheses")
	f.record(t, id, 2)
	f.record(t, id, 4)
	f.attempts.add(entity.Attempt{
		ProblemID: id, UserID: testUserID, AttemptedAt: testStart.Add(-time.Hour),
		Outcome: entity.OutcomeFailed, ConfidenceRating: 1,
	})

	list, err := f.uc.ListAttempts(context.Background(), testUserID, id)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, 1, list[0].ConfidenceRating)
	assert.Equal(t, 2, list[1].ConfidenceRating)
	assert.Equal(t, 4, list[2].ConfidenceRating)

	_, err = f.uc.ListAttempts(context.Background(), testUserID+1, id)
	assert.ErrorIs(t, err, entity.ErrProblemNotFound)
	_, err = f.uc.ListAttempts(context.Background(), testUserID, 0)
	assert.ErrorIs(t, err, entity.ErrInvalidProblemID)
}

func TestReconcileUser(t *testing.T) {
	f := newAttemptFixture(t)
	clean := f.addProblem(t, testUserID, "Reverse Linked List")
	stale := f.addProblem(t, testUserID, "Clone Graph")
	f.addProblem(t, testUserID+1, "Someone Else's Problem")
	f.record(t, clean, 4)
	f.attempts.add(entity.Attempt{
		ProblemID: stale, UserID: testUserID, AttemptedAt: testStart,
		Outcome: entity.OutcomeSolved, ConfidenceRating: 3,
	})
	f.uc.settings.ReconcileRate = 1000

	res, err := f.uc.ReconcileUser(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Checked: 2, Repaired: 1}, *res)
	f.requireConsistent(t, stale)

	_, err = f.uc.ReconcileUser(context.Background(), 0)
	assert.ErrorIs(t, err, entity.ErrInvalidUserID)
}

func TestReconcileUser_ReportsFailures(t *testing.T) {
	f := newAttemptFixture(t)
	id := f.addProblem(t, testUserID, "Word Search")
	f.attempts.add(entity.Attempt{
		ProblemID: id, UserID: testUserID, AttemptedAt: testStart,
		Outcome: entity.OutcomeSolved, ConfidenceRating: 5,
	})
	f.problems.updateErr = errInjected

	res, err := f.uc.ReconcileUser(context.Background(), testUserID)
	require.ErrorIs(t, err, errInjected)
	assert.Equal(t, SweepResult{Checked: 1, Failed: 1}, *res)
}
