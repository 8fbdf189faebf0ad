// Package studyv1connect binds the StudyService messages to connect
// handlers and clients. Messages travel as JSON.
package studyv1connect

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	studyv1 "github.com/eslsoft/dsasheet/pkg/api/study/v1"
)

// StudyServiceName is the fully-qualified name of the StudyService service.
const StudyServiceName = "dsasheet.v1.StudyService"

const (
	StudyServiceAddProblemProcedure       = "/dsasheet.v1.StudyService/AddProblem"
	StudyServiceGetProblemProcedure       = "/dsasheet.v1.StudyService/GetProblem"
	StudyServiceListProblemsProcedure     = "/dsasheet.v1.StudyService/ListProblems"
	StudyServiceDeleteProblemProcedure    = "/dsasheet.v1.StudyService/DeleteProblem"
	StudyServiceLogAttemptProcedure       = "/dsasheet.v1.StudyService/LogAttempt"
	StudyServiceListAttemptsProcedure     = "/dsasheet.v1.StudyService/ListAttempts"
	StudyServiceGetDueQueueProcedure      = "/dsasheet.v1.StudyService/GetDueQueue"
	StudyServiceGetStatsProcedure         = "/dsasheet.v1.StudyService/GetStats"
	StudyServiceReconcileProblemProcedure = "/dsasheet.v1.StudyService/ReconcileProblem"
)

// Codec marshals messages with encoding/json. It is registered under the
// "json" name so it replaces connect's protojson codec.
type Codec struct{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(msg any) ([]byte, error) { return json.Marshal(msg) }

func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

// StudyServiceHandler is implemented by the server side of StudyService.
type StudyServiceHandler interface {
	AddProblem(context.Context, *connect.Request[studyv1.AddProblemRequest]) (*connect.Response[studyv1.Problem], error)
	GetProblem(context.Context, *connect.Request[studyv1.ProblemRequest]) (*connect.Response[studyv1.Problem], error)
	ListProblems(context.Context, *connect.Request[studyv1.ListProblemsRequest]) (*connect.Response[studyv1.ListProblemsResponse], error)
	DeleteProblem(context.Context, *connect.Request[studyv1.ProblemRequest]) (*connect.Response[studyv1.Empty], error)
	LogAttempt(context.Context, *connect.Request[studyv1.LogAttemptRequest]) (*connect.Response[studyv1.LogAttemptResponse], error)
	ListAttempts(context.Context, *connect.Request[studyv1.ProblemRequest]) (*connect.Response[studyv1.ListAttemptsResponse], error)
	GetDueQueue(context.Context, *connect.Request[studyv1.GetDueQueueRequest]) (*connect.Response[studyv1.GetDueQueueResponse], error)
	GetStats(context.Context, *connect.Request[studyv1.GetStatsRequest]) (*connect.Response[studyv1.Stats], error)
	ReconcileProblem(context.Context, *connect.Request[studyv1.ProblemRequest]) (*connect.Response[studyv1.ReconcileProblemResponse], error)
}

// NewStudyServiceHandler builds an HTTP handler serving every StudyService
// procedure. It returns the path to mount it on.
func NewStudyServiceHandler(svc StudyServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
	idempotent := append([]connect.HandlerOption{connect.WithIdempotency(connect.IdempotencyNoSideEffects)}, opts...)

	mux := http.NewServeMux()
	mux.Handle(StudyServiceAddProblemProcedure, connect.NewUnaryHandler(StudyServiceAddProblemProcedure, svc.AddProblem, opts...))
	mux.Handle(StudyServiceGetProblemProcedure, connect.NewUnaryHandler(StudyServiceGetProblemProcedure, svc.GetProblem, idempotent...))
	mux.Handle(StudyServiceListProblemsProcedure, connect.NewUnaryHandler(StudyServiceListProblemsProcedure, svc.ListProblems, idempotent...))
	mux.Handle(StudyServiceDeleteProblemProcedure, connect.NewUnaryHandler(StudyServiceDeleteProblemProcedure, svc.DeleteProblem, opts...))
	mux.Handle(StudyServiceLogAttemptProcedure, connect.NewUnaryHandler(StudyServiceLogAttemptProcedure, svc.LogAttempt, opts...))
	mux.Handle(StudyServiceListAttemptsProcedure, connect.NewUnaryHandler(StudyServiceListAttemptsProcedure, svc.ListAttempts, idempotent...))
	mux.Handle(StudyServiceGetDueQueueProcedure, connect.NewUnaryHandler(StudyServiceGetDueQueueProcedure, svc.GetDueQueue, idempotent...))
	mux.Handle(StudyServiceGetStatsProcedure, connect.NewUnaryHandler(StudyServiceGetStatsProcedure, svc.GetStats, idempotent...))
	mux.Handle(StudyServiceReconcileProblemProcedure, connect.NewUnaryHandler(StudyServiceReconcileProblemProcedure, svc.ReconcileProblem, opts...))
	return "/" + StudyServiceName + "/", mux
}

// StudyServiceClient calls a remote StudyService.
type StudyServiceClient struct {
	addProblem       *connect.Client[studyv1.AddProblemRequest, studyv1.Problem]
	getProblem       *connect.Client[studyv1.ProblemRequest, studyv1.Problem]
	listProblems     *connect.Client[studyv1.ListProblemsRequest, studyv1.ListProblemsResponse]
	deleteProblem    *connect.Client[studyv1.ProblemRequest, studyv1.Empty]
	logAttempt       *connect.Client[studyv1.LogAttemptRequest, studyv1.LogAttemptResponse]
	listAttempts     *connect.Client[studyv1.ProblemRequest, studyv1.ListAttemptsResponse]
	getDueQueue      *connect.Client[studyv1.GetDueQueueRequest, studyv1.GetDueQueueResponse]
	getStats         *connect.Client[studyv1.GetStatsRequest, studyv1.Stats]
	reconcileProblem *connect.Client[studyv1.ProblemRequest, studyv1.ReconcileProblemResponse]
}

// NewStudyServiceClient constructs a client for the service at baseURL.
func NewStudyServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *StudyServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &StudyServiceClient{
		addProblem:       connect.NewClient[studyv1.AddProblemRequest, studyv1.Problem](httpClient, baseURL+StudyServiceAddProblemProcedure, opts...),
		getProblem:       connect.NewClient[studyv1.ProblemRequest, studyv1.Problem](httpClient, baseURL+StudyServiceGetProblemProcedure, opts...),
		listProblems:     connect.NewClient[studyv1.ListProblemsRequest, studyv1.ListProblemsResponse](httpClient, baseURL+StudyServiceListProblemsProcedure, opts...),
		deleteProblem:    connect.NewClient[studyv1.ProblemRequest, studyv1.Empty](httpClient, baseURL+StudyServiceDeleteProblemProcedure, opts...),
		logAttempt:       connect.NewClient[studyv1.LogAttemptRequest, studyv1.LogAttemptResponse](httpClient, baseURL+StudyServiceLogAttemptProcedure, opts...),
		listAttempts:     connect.NewClient[studyv1.ProblemRequest, studyv1.ListAttemptsResponse](httpClient, baseURL+StudyServiceListAttemptsProcedure, opts...),
		getDueQueue:      connect.NewClient[studyv1.GetDueQueueRequest, studyv1.GetDueQueueResponse](httpClient, baseURL+StudyServiceGetDueQueueProcedure, opts...),
		getStats:         connect.NewClient[studyv1.GetStatsRequest, studyv1.Stats](httpClient, baseURL+StudyServiceGetStatsProcedure, opts...),
		reconcileProblem: connect.NewClient[studyv1.ProblemRequest, studyv1.ReconcileProblemResponse](httpClient, baseURL+StudyServiceReconcileProblemProcedure, opts...),
	}
}

func (c *StudyServiceClient) AddProblem(ctx context.Context, req *connect.Request[studyv1.AddProblemRequest]) (*connect.Response[studyv1.Problem], error) {
	return c.addProblem.CallUnary(ctx, req)
}

func (c *StudyServiceClient) GetProblem(ctx context.Context, req *connect.Request[studyv1.ProblemRequest]) (*connect.Response[studyv1.Problem], error) {
	return c.getProblem.CallUnary(ctx, req)
}

func (c *StudyServiceClient) ListProblems(ctx context.Context, req *connect.Request[studyv1.ListProblemsRequest]) (*connect.Response[studyv1.ListProblemsResponse], error) {
	return c.listProblems.CallUnary(ctx, req)
}

func (c *StudyServiceClient) DeleteProblem(ctx context.Context, req *connect.Request[studyv1.ProblemRequest]) (*connect.Response[studyv1.Empty], error) {
	return c.deleteProblem.CallUnary(ctx, req)
}

func (c *StudyServiceClient) LogAttempt(ctx context.Context, req *connect.Request[studyv1.LogAttemptRequest]) (*connect.Response[studyv1.LogAttemptResponse], error) {
	return c.logAttempt.CallUnary(ctx, req)
}

func (c *StudyServiceClient) ListAttempts(ctx context.Context, req *connect.Request[studyv1.ProblemRequest]) (*connect.Response[studyv1.ListAttemptsResponse], error) {
	return c.listAttempts.CallUnary(ctx, req)
}

func (c *StudyServiceClient) GetDueQueue(ctx context.Context, req *connect.Request[studyv1.GetDueQueueRequest]) (*connect.Response[studyv1.GetDueQueueResponse], error) {
	return c.getDueQueue.CallUnary(ctx, req)
}

func (c *StudyServiceClient) GetStats(ctx context.Context, req *connect.Request[studyv1.GetStatsRequest]) (*connect.Response[studyv1.Stats], error) {
	return c.getStats.CallUnary(ctx, req)
}

func (c *StudyServiceClient) ReconcileProblem(ctx context.Context, req *connect.Request[studyv1.ProblemRequest]) (*connect.Response[studyv1.ReconcileProblemResponse], error) {
	return c.reconcileProblem.CallUnary(ctx, req)
}
