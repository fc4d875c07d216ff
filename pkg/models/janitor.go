package models

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/voxscribe/voxscribe-server/pkg/config"
)

// JanitorModel removes job directories left behind by a crashed process.
// Temp directories are local to each instance, so every instance runs its
// own janitor.
type JanitorModel struct {
	ctx    context.Context
	cancel context.CancelFunc
	app    *config.AppConfig
	tm     *TranscriptionModel
	logger *logrus.Entry
	now    func() time.Time
}

func NewJanitorModel(mainCtx context.Context, app *config.AppConfig, tm *TranscriptionModel, logger *logrus.Logger) *JanitorModel {
	ctx, cancel := context.WithCancel(mainCtx)

	return &JanitorModel{
		ctx:    ctx,
		cancel: cancel,
		app:    app,
		tm:     tm,
		logger: logger.WithField("model", "janitor"),
		now:    time.Now,
	}
}

// StartJanitor blocks until Shutdown or the parent context is done.
func (m *JanitorModel) StartJanitor() {
	if !m.app.Janitor.Enabled {
		m.logger.Infoln("janitor disabled")
		return
	}
	m.logger.WithFields(logrus.Fields{
		"interval":   m.app.Janitor.Interval.String(),
		"staleAfter": m.app.Janitor.StaleAfter.String(),
	}).Infoln("janitor starting")

	ticker := time.NewTicker(m.app.Janitor.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			m.logger.WithError(m.ctx.Err()).Infoln("janitor shutdown completed")
			return
		case <-ticker.C:
			m.removeStaleJobDirs()
		}
	}
}

// removeStaleJobDirs returns the number of directories removed.
func (m *JanitorModel) removeStaleJobDirs() int {
	root := m.app.Pipeline.TempDir
	entries, err := os.ReadDir(root)
	if err != nil {
		m.logger.WithError(err).WithField("dir", root).Errorln("failed to read pipeline temp directory")
		return 0
	}

	cutoff := m.now().Add(-m.app.Janitor.StaleAfter)
	removed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id, ok := jobIdFromDir(e.Name())
		if !ok {
			continue
		}
		if m.tm != nil && m.tm.IsActive(id) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		dir := filepath.Join(root, e.Name())
		if err := os.RemoveAll(dir); err != nil {
			m.logger.WithError(err).WithField("dir", dir).Errorln("failed to remove stale job directory")
			continue
		}
		removed++
	}

	if removed > 0 {
		m.logger.WithField("removed", removed).Infoln("removed stale job directories")
	}
	return removed
}

func (m *JanitorModel) Shutdown() {
	m.logger.Infoln("janitor shutting down")
	m.cancel()
}

func jobIdFromDir(name string) (string, bool) {
	if !strings.HasPrefix(name, jobDirPrefix) {
		return "", false
	}
	id := strings.TrimPrefix(name, jobDirPrefix)
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}
