package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	dbservice "github.com/voxscribe/voxscribe-server/pkg/services/db"
	redisservice "github.com/voxscribe/voxscribe-server/pkg/services/redis"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthCheckController struct {
	ds     pinger
	rs     pinger
	logger *logrus.Entry
}

func NewHealthCheckController(ds *dbservice.DatabaseService, rs *redisservice.RedisService, logger *logrus.Logger) *HealthCheckController {
	return &HealthCheckController{
		ds:     ds,
		rs:     rs,
		logger: logger.WithField("controller", "health_check"),
	}
}

func (hc *HealthCheckController) HandleHealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	if err := hc.ds.Ping(ctx); err != nil {
		hc.logger.WithError(err).Errorln("database health check failed")
		return c.Status(fiber.StatusServiceUnavailable).SendString("Unhealthy: database")
	}
	if err := hc.rs.Ping(ctx); err != nil {
		hc.logger.WithError(err).Errorln("redis health check failed")
		return c.Status(fiber.StatusServiceUnavailable).SendString("Unhealthy: redis")
	}

	return c.Status(fiber.StatusOK).SendString("Healthy")
}
