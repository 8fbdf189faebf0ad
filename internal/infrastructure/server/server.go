package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"connectrpc.com/connect"
	connectcors "connectrpc.com/cors"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/eslsoft/dsasheet/internal/infrastructure/config"
	"github.com/eslsoft/dsasheet/internal/infrastructure/metrics"
	"github.com/eslsoft/dsasheet/pkg/api/study/v1/studyv1connect"
)

const shutdownTimeout = 5 * time.Second

// Server represents the application server
type Server struct {
	config     *config.Config
	grpcServer *grpc.Server
	health     *health.Server
	httpServer *http.Server
	logger     *logrus.Logger
}

// NewServer mounts the connect API, /metrics and /healthz on one HTTP
// listener and serves gRPC health checks on a second one.
func NewServer(cfg *config.Config, logger *logrus.Logger, study studyv1connect.StudyServiceHandler, collector *metrics.Collector) *Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(logging.UnaryServerInterceptor(InterceptorLogger(logger))),
	)
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	reflection.Register(grpcServer)

	mux := http.NewServeMux()
	path, handler := studyv1connect.NewStudyServiceHandler(study,
		connect.WithInterceptors(Logger(logger)),
	)
	mux.Handle(path, handler)
	mux.Handle("/metrics", collector.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:           h2c.NewHandler(withCORS(cfg.Server.CORSOrigins, mux), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{
		config:     cfg,
		grpcServer: grpcServer,
		health:     healthSrv,
		httpServer: httpServer,
		logger:     logger,
	}
}

func withCORS(origins []string, h http.Handler) http.Handler {
	if len(origins) == 0 {
		return h
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: connectcors.AllowedMethods(),
		AllowedHeaders: connectcors.AllowedHeaders(),
		ExposedHeaders: append(connectcors.ExposedHeaders(), requestIDHeader),
		MaxAge:         7200,
	}).Handler(h)
}

// Run serves both listeners until ctx is canceled or one of them fails,
// then shuts both down.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(s.StartGRPC)
	g.Go(s.StartHTTP)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// StartGRPC starts the gRPC server
func (s *Server) StartGRPC() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.GRPCPort)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.logger.Infof("gRPC server starting on %s", addr)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(studyv1connect.StudyServiceName, healthpb.HealthCheckResponse_SERVING)

	if err := s.grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("failed to serve gRPC: %w", err)
	}

	return nil
}

// StartHTTP starts the HTTP server
func (s *Server) StartHTTP() error {
	s.logger.Infof("HTTP server starting on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve HTTP: %w", err)
	}

	return nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	s.health.Shutdown()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Errorf("failed to shutdown HTTP server: %v", err)
	}

	s.grpcServer.GracefulStop()

	s.logger.Info("server shutdown complete")
	return nil
}
