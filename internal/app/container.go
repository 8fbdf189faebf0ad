package app

import (
	"entgo.io/ent/dialect"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/dsasheet/internal/infrastructure/config"
	"github.com/eslsoft/dsasheet/internal/infrastructure/server"
	"github.com/eslsoft/dsasheet/internal/usecase"
	"github.com/eslsoft/dsasheet/internal/usecase/backup"
)

// Container aggregates the application dependencies produced by Wire.
type Container struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Driver   dialect.Driver
	Server   *server.Server
	Problems usecase.ProblemUsecase
	Attempts usecase.AttemptUsecase
	Reviews  usecase.ReviewUsecase
	Backup   *backup.Service
}
