package usecase

import (
	"context"
	"time"

	"github.com/eslsoft/dsasheet/internal/entity"
	"github.com/eslsoft/dsasheet/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// ProblemUsecase manages the problems on a user's sheet. It never touches
// the schedule of an existing problem.
type ProblemUsecase interface {
	AddProblem(ctx context.Context, userID int64, problem *entity.Problem) (*entity.Problem, error)
	GetProblem(ctx context.Context, userID, id int64) (*entity.Problem, error)
	ListProblems(ctx context.Context, query *repository.ListProblemQuery) ([]entity.Problem, int64, error)
	DeleteProblem(ctx context.Context, userID, id int64) error
}

// NewProblemUsecase wires the repository with default behaviour.
func NewProblemUsecase(repo repository.ProblemRepository) ProblemUsecase {
	return &problemUsecase{
		repo:  repo,
		clock: time.Now,
	}
}

type problemUsecase struct {
	repo  repository.ProblemRepository
	clock func() time.Time
}

func (u *problemUsecase) AddProblem(ctx context.Context, userID int64, problem *entity.Problem) (*entity.Problem, error) {
	if userID <= 0 {
		return nil, entity.ErrInvalidUserID
	}
	if problem == nil {
		return nil, entity.ErrInvalidProblemTitle
	}

	p := *problem
	p.ID = 0
	p.UserID = userID
	p.Schedule = entity.ScheduleCache{}
	p.Normalize(u.clock())
	if p.Title == "" {
		return nil, entity.ErrInvalidProblemTitle
	}
	difficulty, err := entity.ParseDifficulty(string(p.Difficulty))
	if err != nil {
		return nil, err
	}
	p.Difficulty = difficulty

	existing, err := u.repo.FindByTitle(ctx, userID, p.Title)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, entity.ErrDuplicateProblem
	}
	return u.repo.Create(ctx, &p)
}

func (u *problemUsecase) GetProblem(ctx context.Context, userID, id int64) (*entity.Problem, error) {
	if userID <= 0 {
		return nil, entity.ErrInvalidUserID
	}
	if id <= 0 {
		return nil, entity.ErrProblemNotFound
	}
	return u.repo.GetByID(ctx, userID, id)
}

func (u *problemUsecase) ListProblems(ctx context.Context, query *repository.ListProblemQuery) ([]entity.Problem, int64, error) {
	if query == nil || query.UserID <= 0 {
		return nil, 0, entity.ErrInvalidUserID
	}
	q := *query
	if q.PageNo <= 0 {
		q.PageNo = 1
	}
	switch {
	case q.PageSize <= 0:
		q.PageSize = defaultPageSize
	case q.PageSize > maxPageSize:
		q.PageSize = maxPageSize
	}
	return u.repo.List(ctx, &q)
}

func (u *problemUsecase) DeleteProblem(ctx context.Context, userID, id int64) error {
	if userID <= 0 {
		return entity.ErrInvalidUserID
	}
	if id <= 0 {
		return entity.ErrProblemNotFound
	}
	return u.repo.Delete(ctx, userID, id)
}
