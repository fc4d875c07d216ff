package logging

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/DeRuina/timberjack"
	"github.com/sirupsen/logrus"
	"github.com/voxscribe/voxscribe-server/pkg/config"
)

// NewLogger creates and configures a new logrus.Logger based on the provided configuration.
func NewLogger(cfg *config.LogSettings) (*logrus.Logger, error) {
	logger := logrus.New()

	logLevel := logrus.InfoLevel
	if cfg.LogLevel != nil && *cfg.LogLevel != "" {
		if lv, err := logrus.ParseLevel(strings.ToLower(*cfg.LogLevel)); err == nil {
			logLevel = lv
		}
	}
	logger.SetLevel(logLevel)

	var output io.Writer = os.Stdout
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
			return nil, err
		}
		fileLogger := &timberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
		}
		output = io.MultiWriter(os.Stdout, fileLogger)
		// the main logger isn't configured yet
		logrus.New().Infof("File logging enabled, writing to %s", cfg.LogFile)
	}
	logger.SetOutput(output)

	textFormatter := &logrus.TextFormatter{
		FullTimestamp: true,
		// SourceFormatter prints the caller instead
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			return "", ""
		},
	}

	logger.SetFormatter(&SourceFormatter{
		Underlying: textFormatter,
	})
	logger.SetReportCaller(true)

	return logger, nil
}
