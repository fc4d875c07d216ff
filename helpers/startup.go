package helpers

import (
	"context"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"github.com/voxscribe/voxscribe-server/pkg/config"
	"github.com/voxscribe/voxscribe-server/pkg/factory"
	"gopkg.in/yaml.v3"
)

// maxConnectWait bounds how long the server waits for its backing
// services while booting, e.g. when started together with them.
const maxConnectWait = time.Minute

func PrepareServer(ctx context.Context, appCnf *config.AppConfig) error {
	// orm
	err := connectWithRetry(ctx, appCnf.Logger, "database", func() error {
		return factory.NewDatabaseConnection(ctx, appCnf)
	})
	if err != nil {
		return err
	}

	// redis
	err = connectWithRetry(ctx, appCnf.Logger, "redis", func() error {
		return factory.NewRedisConnection(ctx, appCnf)
	})
	if err != nil {
		return err
	}

	// nats is optional
	return connectWithRetry(ctx, appCnf.Logger, "nats", func() error {
		return factory.NewNatsConnection(appCnf)
	})
}

func connectWithRetry(ctx context.Context, logger *logrus.Logger, name string, connect func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = maxConnectWait

	return backoff.RetryNotify(connect, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
		logger.WithError(err).WithFields(logrus.Fields{
			"service": name,
			"retryIn": next.String(),
		}).Warnln("connection failed, retrying")
	})
}

func ReadYamlConfigFile(cnfFile string) (*config.AppConfig, error) {
	yamlFile, err := os.ReadFile(cnfFile)
	if err != nil {
		return nil, err
	}

	appCnf := new(config.AppConfig)
	err = yaml.Unmarshal(yamlFile, appCnf)
	if err != nil {
		return nil, err
	}

	// get current working dir
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	// set the root path
	appCnf.RootWorkingDir = wd

	return appCnf, nil
}
