//go:build wireinject
// +build wireinject

package factory

import (
	"context"

	"github.com/google/wire"
	"github.com/sirupsen/logrus"
	"github.com/voxscribe/voxscribe-server/pkg/config"
	"github.com/voxscribe/voxscribe-server/pkg/controllers"
	"github.com/voxscribe/voxscribe-server/pkg/helpers"
	"github.com/voxscribe/voxscribe-server/pkg/insights"
	"github.com/voxscribe/voxscribe-server/pkg/insights/providers/azure"
	"github.com/voxscribe/voxscribe-server/pkg/metrics"
	"github.com/voxscribe/voxscribe-server/pkg/models"
	"github.com/voxscribe/voxscribe-server/pkg/services/db"
	"github.com/voxscribe/voxscribe-server/pkg/services/nats"
	"github.com/voxscribe/voxscribe-server/pkg/services/redis"
)

// build the dependency set for services
var serviceSet = wire.NewSet(
	dbservice.New,
	redisservice.New,
	natsservice.New,
)

func provideTranscriptionNotifier(app *config.AppConfig, natsService *natsservice.NatsService, logger *logrus.Logger) *helpers.TranscriptionNotifier {
	return helpers.NewTranscriptionNotifier(natsService, app.Notifier.Workers, metrics.DefaultMetrics, logger)
}

// build the dependency set for helpers
var helperSet = wire.NewSet(
	provideTranscriptionNotifier,
)

func provideRecognizer(app *config.AppConfig, logger *logrus.Logger) insights.Recognizer {
	return azure.NewRecognizer(app, logger)
}

// build the dependency set for models
var modelSet = wire.NewSet(
	provideRecognizer,
	models.NewTranscriptionModel,
	models.NewJanitorModel,
)

// build the dependency set for controllers
var controllerSet = wire.NewSet(
	controllers.NewTranscriptionController,
	controllers.NewHealthCheckController,
)

// NewAppFactory is the injector function that wire will implement.
func NewAppFactory(ctx context.Context, appConfig *config.AppConfig) (*Application, error) {
	wire.Build(
		serviceSet,
		helperSet,
		modelSet,
		controllerSet,
		wire.FieldsOf(new(*config.AppConfig), "DB", "RDS", "Logger"),

		wire.Struct(new(ApplicationControllers), "*"),
		wire.Struct(new(Application), "*"),
	)
	return nil, nil
}
