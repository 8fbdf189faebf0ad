package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/eslsoft/dsasheet/internal/entity"
	"github.com/eslsoft/dsasheet/internal/repository"
	"github.com/eslsoft/dsasheet/internal/srs"
)

const recentWindow = 7 * 24 * time.Hour

// Stats summarises a user's sheet.
type Stats struct {
	TotalProblems     int64
	DueNow            int64
	NeverReviewed     int64
	ProblemsPerBucket map[int]int64
	TotalAttempts     int64
	// RecentAttempts, AverageConfidence and AttemptsByOutcome cover the last
	// seven days.
	RecentAttempts    int64
	AverageConfidence float64
	AttemptsByOutcome map[entity.Outcome]int64
}

// ReviewUsecase selects what to practice next.
type ReviewUsecase interface {
	// DueQueue returns the problems due now, never reviewed first. A limit of
	// zero or less returns every due problem.
	DueQueue(ctx context.Context, userID int64, limit int) ([]entity.Problem, error)
	Stats(ctx context.Context, userID int64) (*Stats, error)
}

type reviewUsecase struct {
	problems repository.ProblemRepository
	attempts repository.AttemptRepository
	clock    func() time.Time
}

// NewReviewUsecase constructs a ReviewUsecase.
func NewReviewUsecase(problems repository.ProblemRepository, attempts repository.AttemptRepository) ReviewUsecase {
	return &reviewUsecase{problems: problems, attempts: attempts, clock: time.Now}
}

func problemDueKey(p entity.Problem) (int64, *time.Time) {
	return p.ID, p.Schedule.NextReviewAt
}

func (u *reviewUsecase) DueQueue(ctx context.Context, userID int64, limit int) ([]entity.Problem, error) {
	if userID <= 0 {
		return nil, entity.ErrInvalidUserID
	}
	problems, err := u.problems.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}
	due := srs.SelectDue(problems, u.clock(), problemDueKey)
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (u *reviewUsecase) Stats(ctx context.Context, userID int64) (*Stats, error) {
	if userID <= 0 {
		return nil, entity.ErrInvalidUserID
	}
	now := u.clock()

	problems, err := u.problems.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}
	total, err := u.attempts.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}
	recent, err := u.attempts.ListByUserSince(ctx, userID, now.Add(-recentWindow))
	if err != nil {
		return nil, fmt.Errorf("list recent attempts: %w", err)
	}

	stats := &Stats{
		TotalProblems:     int64(len(problems)),
		DueNow:            int64(len(srs.SelectDue(problems, now, problemDueKey))),
		NeverReviewed:     int64(lo.CountBy(problems, func(p entity.Problem) bool { return p.Schedule.NextReviewAt == nil })),
		ProblemsPerBucket: make(map[int]int64),
		TotalAttempts:     total,
		RecentAttempts:    int64(len(recent)),
		AttemptsByOutcome: make(map[entity.Outcome]int64),
	}
	for _, p := range problems {
		stats.ProblemsPerBucket[p.Schedule.Bucket]++
	}
	for _, a := range recent {
		stats.AttemptsByOutcome[a.Outcome]++
	}
	if len(recent) > 0 {
		sum := lo.SumBy(recent, func(a entity.Attempt) int { return a.ConfidenceRating })
		stats.AverageConfidence = float64(sum) / float64(len(recent))
	}
	return stats, nil
}
