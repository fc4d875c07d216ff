package routers

import (
	"io"
	"runtime"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	rr "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/voxscribe/voxscribe-server/pkg/config"
	"github.com/voxscribe/voxscribe-server/pkg/factory"
	"github.com/voxscribe/voxscribe-server/version"
)

type router struct {
	app  *fiber.App
	ctrl *factory.ApplicationControllers
}

func New(appConfig *config.AppConfig, ctrl *factory.ApplicationControllers) *fiber.App {
	cnf := fiber.Config{
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
		AppName:     "voxscribe version: " + version.Version + " runtime: " + runtime.Version(),
	}

	if appConfig.Client.ProxyHeader != "" {
		cnf.ProxyHeader = appConfig.Client.ProxyHeader
	}

	app := fiber.New(cnf)

	app.Use(logger.New(logger.Config{
		Done: func(c *fiber.Ctx, logString []byte) {
			appConfig.Logger.Debugln(string(logString))
		},
		Format: "${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}",
		Output: io.Discard,
	}))

	if appConfig.Client.PrometheusConf.Enable {
		prometheus := fiberprometheus.New("voxscribe")
		prometheus.RegisterAt(app, appConfig.Client.PrometheusConf.MetricsPath)
		app.Use(prometheus.Middleware)
	}

	app.Use(rr.New())
	app.Use(cors.New(cors.Config{
		AllowMethods: "POST,GET,OPTIONS",
	}))

	r := &router{
		app:  app,
		ctrl: ctrl,
	}

	r.registerBaseRoutes()
	r.registerAPIRoutes()

	// must stay the last handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).SendString("not found")
	})

	return app
}

func (r *router) registerBaseRoutes() {
	r.app.Get("/healthCheck", r.ctrl.HealthCheckController.HandleHealthCheck)
}

func (r *router) registerAPIRoutes() {
	api := r.app.Group("/api")
	api.Post("/azure-transcription", r.ctrl.TranscriptionController.HandleAzureTranscription)
	api.Get("/transcriptions/recent", r.ctrl.TranscriptionController.HandleRecentTranscriptions)
	api.Get("/jobs/:jobId", r.ctrl.TranscriptionController.HandleJobStatus)
}
