package repository

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"

	"github.com/eslsoft/dsasheet/internal/entity"
	"github.com/eslsoft/dsasheet/internal/infrastructure/database/migrate"
	"github.com/eslsoft/dsasheet/internal/infrastructure/database/types"
	"github.com/eslsoft/dsasheet/internal/repository"
	"github.com/eslsoft/dsasheet/pkg/filterexpr"
)

var problemColumns = []string{
	"id", "user_id", "title", "source_url", "difficulty", "topic", "tags", "notes",
	"bucket", "interval_days", "next_review_at", "personal_difficulty", "attempt_count", "last_attempt_at",
	"created_at", "updated_at",
}

type ProblemRepository struct {
	store
	drv   dialect.Driver
	clock func() time.Time
}

// NewProblemRepository constructs an ent SQL backed repository.
func NewProblemRepository(drv dialect.Driver) repository.ProblemRepository {
	return &ProblemRepository{store: newStore(drv), drv: drv, clock: time.Now}
}

func (r *ProblemRepository) selectProblems() (*sql.Selector, *sql.SelectTable) {
	t := sql.Table(migrate.ProblemsTable.Name)
	return r.builder().Select(t.Columns(problemColumns...)...).From(t), t
}

func (r *ProblemRepository) Create(ctx context.Context, p *entity.Problem) (*entity.Problem, error) {
	created := *p
	created.CreatedAt = p.CreatedAt.UTC()
	created.UpdatedAt = p.UpdatedAt.UTC()

	ins := r.builder().Insert(migrate.ProblemsTable.Name).
		Columns(
			"user_id", "title", "title_key", "source_url", "difficulty", "topic", "tags", "notes",
			"bucket", "interval_days", "next_review_at", "personal_difficulty", "attempt_count", "last_attempt_at",
			"created_at", "updated_at",
		).
		Values(
			created.UserID, created.Title, titleKey(created.Title), created.SourceURL, string(created.Difficulty),
			created.Topic, types.Tags(created.Tags), created.Notes,
			created.Schedule.Bucket, created.Schedule.IntervalDays, nullTime(created.Schedule.NextReviewAt),
			created.Schedule.PersonalDifficulty, created.Schedule.AttemptCount, nullTime(created.Schedule.LastAttemptAt),
			created.CreatedAt, created.UpdatedAt,
		)

	id, err := r.insert(ctx, ins)
	if err != nil {
		return nil, translateProblemError(err)
	}
	created.ID = id
	return &created, nil
}

func (r *ProblemRepository) GetByID(ctx context.Context, userID, id int64) (*entity.Problem, error) {
	sel, t := r.selectProblems()
	sel.Where(sql.And(sql.EQ(t.C("id"), id), sql.EQ(t.C("user_id"), userID)))
	items, err := r.scanProblems(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, entity.ErrProblemNotFound
	}
	return &items[0], nil
}

// FindByTitle matches titles case-insensitively and returns nil when absent.
func (r *ProblemRepository) FindByTitle(ctx context.Context, userID int64, title string) (*entity.Problem, error) {
	sel, t := r.selectProblems()
	sel.Where(sql.And(sql.EQ(t.C("user_id"), userID), sql.EQ(t.C("title_key"), titleKey(title))))
	items, err := r.scanProblems(ctx, sel)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return &items[0], nil
}

func (r *ProblemRepository) List(ctx context.Context, query *repository.ListProblemQuery) ([]entity.Problem, int64, error) {
	compiled, err := filterexpr.Compile(query.GetFilter(), query.GetOrderBy(), listProblemsSchema)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", entity.ErrInvalidFilter, err)
	}

	t := sql.Table(migrate.ProblemsTable.Name)
	countSel := r.builder().Select(sql.Count("*")).From(t).Where(sql.EQ(t.C("user_id"), query.UserID))
	compiled.ApplyWhere(countSel)
	total, err := r.count(ctx, countSel)
	if err != nil {
		return nil, 0, err
	}

	sel, t := r.selectProblems()
	sel.Where(sql.EQ(t.C("user_id"), query.UserID))
	compiled.Apply(sel)
	if query.PageSize > 0 {
		sel.Limit(int(query.PageSize)).Offset(int(query.Offset()))
	}
	items, err := r.scanProblems(ctx, sel)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *ProblemRepository) ListByUser(ctx context.Context, userID int64) ([]entity.Problem, error) {
	sel, t := r.selectProblems()
	sel.Where(sql.EQ(t.C("user_id"), userID)).OrderBy(sql.Asc(t.C("id")))
	return r.scanProblems(ctx, sel)
}

// UpdateSchedule writes the schedule only if attempt_count still equals the
// expected value.
func (r *ProblemRepository) UpdateSchedule(ctx context.Context, update repository.ScheduleUpdate) error {
	s := update.Schedule
	upd := r.builder().Update(migrate.ProblemsTable.Name).
		Set("bucket", s.Bucket).
		Set("interval_days", s.IntervalDays).
		Set("personal_difficulty", s.PersonalDifficulty).
		Set("attempt_count", s.AttemptCount).
		Set("updated_at", r.clock().UTC())
	setNullableTime(upd, "next_review_at", s.NextReviewAt)
	setNullableTime(upd, "last_attempt_at", s.LastAttemptAt)
	upd.Where(sql.And(
		sql.EQ("id", update.ProblemID),
		sql.EQ("user_id", update.UserID),
		sql.EQ("attempt_count", update.ExpectedAttemptCount),
	))

	affected, err := r.exec(ctx, upd)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if affected > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, update.UserID, update.ProblemID); err != nil {
		return err
	}
	return entity.ErrConcurrentModification
}

// Delete removes the problem together with its attempt history.
func (r *ProblemRepository) Delete(ctx context.Context, userID, id int64) (err error) {
	tx, err := r.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txStore := r.withTx(tx)
	if _, err = txStore.exec(ctx, r.builder().Delete(migrate.AttemptsTable.Name).
		Where(sql.And(sql.EQ("problem_id", id), sql.EQ("user_id", userID)))); err != nil {
		return fmt.Errorf("delete attempts: %w", err)
	}
	affected, err := txStore.exec(ctx, r.builder().Delete(migrate.ProblemsTable.Name).
		Where(sql.And(sql.EQ("id", id), sql.EQ("user_id", userID))))
	if err != nil {
		return fmt.Errorf("delete problem: %w", err)
	}
	if affected == 0 {
		err = entity.ErrProblemNotFound
		return err
	}
	return tx.Commit()
}

func (r *ProblemRepository) scanProblems(ctx context.Context, sel *sql.Selector) ([]entity.Problem, error) {
	var items []entity.Problem
	err := r.query(ctx, sel, func(rows *sql.Rows) error {
		var (
			p          entity.Problem
			difficulty string
			tags       types.Tags
			next, last stdsql.NullTime
		)
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Title, &p.SourceURL, &difficulty, &p.Topic, &tags, &p.Notes,
			&p.Schedule.Bucket, &p.Schedule.IntervalDays, &next, &p.Schedule.PersonalDifficulty,
			&p.Schedule.AttemptCount, &last, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return fmt.Errorf("scan problem: %w", err)
		}
		p.Difficulty = entity.Difficulty(difficulty)
		p.Tags = []string(tags)
		p.Schedule.NextReviewAt = timePtr(next)
		p.Schedule.LastAttemptAt = timePtr(last)
		items = append(items, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func translateProblemError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return entity.ErrDuplicateProblem
	}
	return err
}

func titleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func setNullableTime(upd *sql.UpdateBuilder, column string, t *time.Time) {
	if t == nil {
		upd.SetNull(column)
		return
	}
	upd.Set(column, t.UTC())
}

func timePtr(t stdsql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
