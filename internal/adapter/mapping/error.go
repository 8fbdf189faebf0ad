package mapping

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/eslsoft/dsasheet/internal/entity"
)

// ToConnectError maps domain errors to connect codes. A concurrent
// modification is checked before the schedule write it may be wrapped in.
func ToConnectError(err error) error {
	var connectErr *connect.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &connectErr):
		return err
	case errors.Is(err, entity.ErrValidation):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, entity.ErrProblemNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, entity.ErrDuplicateProblem):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, entity.ErrAttemptWrite):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, entity.ErrConcurrentModification):
		return connect.NewError(connect.CodeAborted, err)
	case errors.Is(err, entity.ErrScheduleWrite):
		return connect.NewError(connect.CodeInternal, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
