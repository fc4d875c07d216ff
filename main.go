package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"github.com/voxscribe/voxscribe-server/helpers"
	"github.com/voxscribe/voxscribe-server/pkg/config"
	"github.com/voxscribe/voxscribe-server/pkg/factory"
	"github.com/voxscribe/voxscribe-server/pkg/logging"
	"github.com/voxscribe/voxscribe-server/pkg/routers"
	"github.com/voxscribe/voxscribe-server/version"
)

func main() {
	// .env is optional, real environment variables win
	_ = godotenv.Load()

	cli.VersionPrinter = func(c *cli.Command) {
		fmt.Printf("%s\n", c.Version)
	}

	app := &cli.Command{
		Name:        "voxscribe-server",
		Usage:       "Audio transcription service backed by Azure Speech",
		Description: "without option will start server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "Configuration file",
				DefaultText: "config.yaml",
				Value:       "config.yaml",
			},
		},
		Action:  startServer,
		Version: version.Version,
	}
	err := app.Run(context.Background(), os.Args)
	if err != nil {
		logrus.Fatalln(err)
	}
}

func startServer(ctx context.Context, c *cli.Command) error {
	appCnf, err := helpers.ReadYamlConfigFile(c.String("config"))
	if err != nil {
		return err
	}

	appCnf, err = config.New(appCnf)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(&appCnf.LogSettings)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to setup logger")
	}
	appCnf.Logger = logger

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// now prepare our server
	err = helpers.PrepareServer(ctx, appCnf)
	if err != nil {
		logger.Fatalln(err)
	}
	// defer close connections
	defer helpers.HandleCloseConnections(appCnf)

	appFactory, err := factory.NewAppFactory(ctx, appCnf)
	if err != nil {
		logger.Fatalln(err)
	}

	// boot up some services
	appFactory.Boot()

	rt := routers.New(appFactory.AppConfig, appFactory.Controllers)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		sig := <-sigChan
		logger.WithField("signal", sig.String()).Infoln("exit requested, shutting down")
		// running jobs are aborted with the application context
		cancel()
		appFactory.Shutdown()
		_ = rt.Shutdown()
	}()

	err = rt.Listen(fmt.Sprintf(":%d", appCnf.Client.Port))
	if err != nil {
		logger.Fatalln(err)
	}
	return nil
}
