//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"github.com/eslsoft/dsasheet/internal/adapter/connectrpc"
	"github.com/eslsoft/dsasheet/internal/adapter/repository"
	"github.com/eslsoft/dsasheet/internal/infrastructure/config"
	"github.com/eslsoft/dsasheet/internal/infrastructure/database"
	"github.com/eslsoft/dsasheet/internal/infrastructure/metrics"
	"github.com/eslsoft/dsasheet/internal/infrastructure/server"
	"github.com/eslsoft/dsasheet/internal/usecase"
	"github.com/eslsoft/dsasheet/pkg/api/study/v1/studyv1connect"
)

var configSet = wire.NewSet(
	config.Load,
)

var databaseSet = wire.NewSet(
	database.NewDriver,
)

var repositorySet = wire.NewSet(
	repository.NewProblemRepository,
	repository.NewAttemptRepository,
)

var usecaseSet = wire.NewSet(
	newScheduler,
	newAttemptSettings,
	metrics.NewCollector,
	wire.Bind(new(usecase.AttemptObserver), new(*metrics.Collector)),
	usecase.NewProblemUsecase,
	usecase.NewAttemptUsecase,
	usecase.NewReviewUsecase,
	newBackupService,
)

var serviceSet = wire.NewSet(
	connectrpc.NewStudyServiceServer,
	wire.Bind(new(studyv1connect.StudyServiceHandler), new(*connectrpc.StudyServiceServer)),
)

var serverSet = wire.NewSet(
	server.NewLogger,
	fieldLogger,
	server.NewServer,
)

// Initialize builds the application container using Wire.
func Initialize() (*Container, func(), error) {
	wire.Build(
		configSet,
		databaseSet,
		repositorySet,
		usecaseSet,
		serviceSet,
		serverSet,
		wire.Struct(new(Container), "*"),
	)
	return nil, nil, nil
}
