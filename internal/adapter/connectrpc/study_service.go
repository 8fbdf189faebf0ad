package connectrpc

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/eslsoft/dsasheet/internal/adapter/mapping"
	"github.com/eslsoft/dsasheet/internal/repository"
	"github.com/eslsoft/dsasheet/internal/usecase"
	studyv1 "github.com/eslsoft/dsasheet/pkg/api/study/v1"
	"github.com/eslsoft/dsasheet/pkg/api/study/v1/studyv1connect"
)

var _ studyv1connect.StudyServiceHandler = (*StudyServiceServer)(nil)

var errRequestRequired = errors.New("request required")

type StudyServiceServer struct {
	problems usecase.ProblemUsecase
	attempts usecase.AttemptUsecase
	reviews  usecase.ReviewUsecase
}

func NewStudyServiceServer(problems usecase.ProblemUsecase, attempts usecase.AttemptUsecase, reviews usecase.ReviewUsecase) *StudyServiceServer {
	return &StudyServiceServer{problems: problems, attempts: attempts, reviews: reviews}
}

func (s *StudyServiceServer) AddProblem(ctx context.Context, req *connect.Request[studyv1.AddProblemRequest]) (*connect.Response[studyv1.Problem], error) {
	if req.Msg == nil || req.Msg.Problem == nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("problem payload required"))
	}
	problem, err := mapping.FromApiProblem(req.Msg.Problem)
	if err != nil {
		return nil, mapping.ToConnectError(err)
	}
	result, err := s.problems.AddProblem(ctx, req.Msg.UserID, problem)
	if err != nil {
		return nil, mapping.ToConnectError(err)
	}
	return connect.NewResponse(mapping.ToApiProblem(result)), nil
}

func (s *StudyServiceServer) GetProblem(ctx context.Context, req *connect.Request[studyv1.ProblemRequest]) (*connect.Response[studyv1.Problem], error) {
	if req.Msg == nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, errRequestRequired)
	}
	result, err := s.problems.GetProblem(ctx, req.Msg.UserID, req.Msg.ProblemID)
	if err != nil {
		return nil, mapping.ToConnectError(err)
	}
	return connect.NewResponse(mapping.ToApiProblem(result)), nil
}

func (s *StudyServiceServer) ListProblems(ctx context.Context, req *connect.Request[studyv1.ListProblemsRequest]) (*connect.Response[studyv1.ListProblemsResponse], error) {
	if req.Msg == nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, errRequestRequired)
	}
	msg := req.Msg
	query := &repository.ListProblemQuery{
		Pagination: convertPagination(msg.Pagination),
		FilterOrder: repository.FilterOrder{
			Filter:  msg.Filter,
			OrderBy: msg.OrderBy,
		},
		UserID: msg.UserID,
	}
	items, total, err := s.problems.ListProblems(ctx, query)
	if err != nil {
		return nil, mapping.ToConnectError(err)
	}
	return connect.NewResponse(&studyv1.ListProblemsResponse{
		Problems: mapping.ToApiProblems(items),
		Pagination: &studyv1.PaginationResponse{
			Total:  total,
			PageNo: query.PageNo,
		},
	}), nil
}

func (s *StudyServiceServer) DeleteProblem(ctx context.Context, req *connect.Request[studyv1.ProblemRequest]) (*connect.Response[studyv1.Empty], error) {
	if req.Msg == nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, errRequestRequired)
	}
	if err := s.problems.DeleteProblem(ctx, req.Msg.UserID, req.Msg.ProblemID); err != nil {
		return nil, mapping.ToConnectError(err)
	}
	return connect.NewResponse(&studyv1.Empty{}), nil
}

// LogAttempt records an attempt and returns the new schedule. When only the
// schedule write fails the attempt is durable and the error says so.
func (s *StudyServiceServer) LogAttempt(ctx context.Context, req *connect.Request[studyv1.LogAttemptRequest]) (*connect.Response[studyv1.LogAttemptResponse], error) {
	if req.Msg == nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, errRequestRequired)
	}
	in, err := mapping.FromApiLogAttempt(req.Msg)
	if err != nil {
		return nil, mapping.ToConnectError(err)
	}
	result, err := s.attempts.RecordAttempt(ctx, in)
	if err != nil {
		return nil, mapping.ToConnectError(err)
	}
	return connect.NewResponse(mapping.ToApiAttemptResult(result)), nil
}

func (s *StudyServiceServer) ListAttempts(ctx context.Context, req *connect.Request[studyv1.ProblemRequest]) (*connect.Response[studyv1.ListAttemptsResponse], error) {
	if req.Msg == nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, errRequestRequired)
	}
	items, err := s.attempts.ListAttempts(ctx, req.Msg.UserID, req.Msg.ProblemID)
	if err != nil {
		return nil, mapping.ToConnectError(err)
	}
	return connect.NewResponse(&studyv1.ListAttemptsResponse{Attempts: mapping.ToApiAttempts(items)}), nil
}

func (s *StudyServiceServer) GetDueQueue(ctx context.Context, req *connect.Request[studyv1.GetDueQueueRequest]) (*connect.Response[studyv1.GetDueQueueResponse], error) {
	if req.Msg == nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, errRequestRequired)
	}
	items, err := s.reviews.DueQueue(ctx, req.Msg.UserID, req.Msg.Limit)
	if err != nil {
		return nil, mapping.ToConnectError(err)
	}
	return connect.NewResponse(&studyv1.GetDueQueueResponse{Problems: mapping.ToApiProblems(items)}), nil
}

func (s *StudyServiceServer) GetStats(ctx context.Context, req *connect.Request[studyv1.GetStatsRequest]) (*connect.Response[studyv1.Stats], error) {
	if req.Msg == nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, errRequestRequired)
	}
	stats, err := s.reviews.Stats(ctx, req.Msg.UserID)
	if err != nil {
		return nil, mapping.ToConnectError(err)
	}
	return connect.NewResponse(mapping.ToApiStats(stats)), nil
}

func (s *StudyServiceServer) ReconcileProblem(ctx context.Context, req *connect.Request[studyv1.ProblemRequest]) (*connect.Response[studyv1.ReconcileProblemResponse], error) {
	if req.Msg == nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, errRequestRequired)
	}
	result, err := s.attempts.Reconcile(ctx, req.Msg.UserID, req.Msg.ProblemID)
	if err != nil {
		return nil, mapping.ToConnectError(err)
	}
	return connect.NewResponse(mapping.ToApiReconcileResult(result)), nil
}
