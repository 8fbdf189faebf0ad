package app

import (
	"entgo.io/ent/dialect"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/dsasheet/internal/infrastructure/config"
	"github.com/eslsoft/dsasheet/internal/srs"
	"github.com/eslsoft/dsasheet/internal/usecase"
	"github.com/eslsoft/dsasheet/internal/usecase/backup"
)

func newScheduler(cfg *config.Config) *srs.Scheduler {
	return srs.New(srs.WithMaxIntervalDays(cfg.SRS.MaxIntervalDays))
}

func newAttemptSettings(cfg *config.Config) usecase.AttemptSettings {
	return usecase.AttemptSettings{
		ConflictRetries: cfg.SRS.ConflictRetries,
		RecordTimeout:   cfg.SRS.RecordTimeout,
		ReconcileRate:   cfg.SRS.ReconcileRate,
	}
}

func newBackupService(drv dialect.Driver) *backup.Service {
	return backup.NewService(drv)
}

func fieldLogger(l *logrus.Logger) logrus.FieldLogger {
	return l
}
