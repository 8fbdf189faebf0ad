package repository

import (
	"context"

	"github.com/eslsoft/dsasheet/internal/entity"
)

// ListProblemQuery holds parameters for listing a user's problems.
type ListProblemQuery struct {
	Pagination
	FilterOrder

	UserID int64
}

// ScheduleUpdate is a conditional write of a problem's schedule cache. It only
// applies when the stored attempt count still equals ExpectedAttemptCount.
type ScheduleUpdate struct {
	ProblemID            int64
	UserID               int64
	ExpectedAttemptCount int64
	Schedule             entity.ScheduleCache
}

// ProblemRepository abstracts persistence for problems to keep usecases storage agnostic.
type ProblemRepository interface {
	Create(ctx context.Context, problem *entity.Problem) (*entity.Problem, error)
	GetByID(ctx context.Context, userID, id int64) (*entity.Problem, error)
	FindByTitle(ctx context.Context, userID int64, title string) (*entity.Problem, error)
	List(ctx context.Context, query *ListProblemQuery) ([]entity.Problem, int64, error)
	// ListByUser returns every problem of the user, unpaginated.
	ListByUser(ctx context.Context, userID int64) ([]entity.Problem, error)
	// UpdateSchedule returns entity.ErrConcurrentModification when the
	// expected attempt count no longer matches and entity.ErrProblemNotFound
	// when the row is gone.
	UpdateSchedule(ctx context.Context, update ScheduleUpdate) error
	Delete(ctx context.Context, userID, id int64) error
}
