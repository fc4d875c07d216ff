package factory

import (
	"context"

	"github.com/voxscribe/voxscribe-server/pkg/config"
	"github.com/voxscribe/voxscribe-server/pkg/controllers"
	"github.com/voxscribe/voxscribe-server/pkg/helpers"
	"github.com/voxscribe/voxscribe-server/pkg/models"
	dbservice "github.com/voxscribe/voxscribe-server/pkg/services/db"
)

// ApplicationControllers holds all the controllers.
type ApplicationControllers struct {
	TranscriptionController *controllers.TranscriptionController
	HealthCheckController   *controllers.HealthCheckController
}

// Application is the root struct holding all dependencies.
type Application struct {
	Controllers  *ApplicationControllers
	AppConfig    *config.AppConfig
	Ctx          context.Context
	ds           *dbservice.DatabaseService
	janitorModel *models.JanitorModel
	notifier     *helpers.TranscriptionNotifier
}

func (a *Application) Boot() {
	if a.AppConfig.DatabaseInfo.AutoMigrate {
		if err := a.ds.AutoMigrate(); err != nil {
			a.AppConfig.Logger.WithError(err).Fatalln("failed to migrate database")
		}
	}

	go a.janitorModel.StartJanitor()
}

func (a *Application) Shutdown() {
	a.janitorModel.Shutdown()
	// publish whatever is still queued
	a.notifier.Shutdown()
}
