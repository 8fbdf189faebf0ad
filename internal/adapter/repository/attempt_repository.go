package repository

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"

	"github.com/eslsoft/dsasheet/internal/entity"
	"github.com/eslsoft/dsasheet/internal/infrastructure/database/migrate"
	"github.com/eslsoft/dsasheet/internal/repository"
)

var attemptColumns = []string{
	"id", "problem_id", "user_id", "attempted_at", "outcome", "confidence_rating",
	"time_taken_seconds", "notes", "created_at",
}

// AttemptRepository is the append-only attempt log on top of the ent SQL builder.
type AttemptRepository struct {
	store
}

// NewAttemptRepository constructs an ent SQL backed repository.
func NewAttemptRepository(drv dialect.Driver) repository.AttemptRepository {
	return &AttemptRepository{store: newStore(drv)}
}

func (r *AttemptRepository) Insert(ctx context.Context, a *entity.Attempt) (*entity.Attempt, error) {
	saved := *a
	saved.AttemptedAt = a.AttemptedAt.UTC()
	saved.CreatedAt = a.CreatedAt.UTC()

	var taken any
	if a.TimeTakenSeconds != nil {
		taken = *a.TimeTakenSeconds
	}
	ins := r.builder().Insert(migrate.AttemptsTable.Name).
		Columns("problem_id", "user_id", "attempted_at", "outcome", "confidence_rating", "time_taken_seconds", "notes", "created_at").
		Values(saved.ProblemID, saved.UserID, saved.AttemptedAt, string(saved.Outcome), saved.ConfidenceRating, taken, saved.Notes, saved.CreatedAt)

	id, err := r.insert(ctx, ins)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, entity.ErrProblemNotFound
		}
		return nil, fmt.Errorf("insert attempt: %w", err)
	}
	saved.ID = id
	return &saved, nil
}

func (r *AttemptRepository) selectAttempts() (*sql.Selector, *sql.SelectTable) {
	t := sql.Table(migrate.AttemptsTable.Name)
	return r.builder().Select(t.Columns(attemptColumns...)...).From(t), t
}

// ListByProblem returns the history in replay order.
func (r *AttemptRepository) ListByProblem(ctx context.Context, userID, problemID int64) ([]entity.Attempt, error) {
	sel, t := r.selectAttempts()
	sel.Where(sql.And(sql.EQ(t.C("problem_id"), problemID), sql.EQ(t.C("user_id"), userID))).
		OrderBy(sql.Asc(t.C("attempted_at")), sql.Asc(t.C("id")))
	return r.scanAttempts(ctx, sel)
}

func (r *AttemptRepository) Count(ctx context.Context, userID, problemID int64) (int64, error) {
	t := sql.Table(migrate.AttemptsTable.Name)
	return r.count(ctx, r.builder().Select(sql.Count("*")).From(t).
		Where(sql.And(sql.EQ(t.C("problem_id"), problemID), sql.EQ(t.C("user_id"), userID))))
}

func (r *AttemptRepository) ListByUserSince(ctx context.Context, userID int64, since time.Time) ([]entity.Attempt, error) {
	sel, t := r.selectAttempts()
	sel.Where(sql.And(sql.EQ(t.C("user_id"), userID), sql.GTE(t.C("attempted_at"), since.UTC()))).
		OrderBy(sql.Asc(t.C("attempted_at")), sql.Asc(t.C("id")))
	return r.scanAttempts(ctx, sel)
}

func (r *AttemptRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	t := sql.Table(migrate.AttemptsTable.Name)
	return r.count(ctx, r.builder().Select(sql.Count("*")).From(t).Where(sql.EQ(t.C("user_id"), userID)))
}

func (r *AttemptRepository) scanAttempts(ctx context.Context, sel *sql.Selector) ([]entity.Attempt, error) {
	var items []entity.Attempt
	err := r.query(ctx, sel, func(rows *sql.Rows) error {
		var (
			a       entity.Attempt
			outcome string
			taken   stdsql.NullInt32
		)
		if err := rows.Scan(&a.ID, &a.ProblemID, &a.UserID, &a.AttemptedAt, &outcome,
			&a.ConfidenceRating, &taken, &a.Notes, &a.CreatedAt); err != nil {
			return fmt.Errorf("scan attempt: %w", err)
		}
		a.Outcome = entity.Outcome(outcome)
		a.AttemptedAt = a.AttemptedAt.UTC()
		a.CreatedAt = a.CreatedAt.UTC()
		if taken.Valid {
			v := taken.Int32
			a.TimeTakenSeconds = &v
		}
		items = append(items, a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
