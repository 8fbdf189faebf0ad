package repository

import (
	"context"
	"time"

	"github.com/eslsoft/dsasheet/internal/entity"
)

// AttemptRepository is the append-only attempt log. Attempts are immutable,
// so it has no update or delete.
type AttemptRepository interface {
	Insert(ctx context.Context, attempt *entity.Attempt) (*entity.Attempt, error)
	// ListByProblem returns attempts ordered by attempted_at, then id.
	ListByProblem(ctx context.Context, userID, problemID int64) ([]entity.Attempt, error)
	Count(ctx context.Context, userID, problemID int64) (int64, error)
	// ListByUserSince returns the user's attempts at or after since.
	ListByUserSince(ctx context.Context, userID int64, since time.Time) ([]entity.Attempt, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
}
