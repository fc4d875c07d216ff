package models

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/voxscribe/voxscribe-server/pkg/dbmodels"
	redisservice "github.com/voxscribe/voxscribe-server/pkg/services/redis"
)

// GetRecentTranscriptions returns records created within window, newest
// first. Zero values fall back to the configured defaults and limit is
// clamped to recent.max_limit.
func (m *TranscriptionModel) GetRecentTranscriptions(ctx context.Context, window time.Duration, limit int) ([]*dbmodels.Transcription, error) {
	if window <= 0 {
		window = m.app.Recent.Window
	}
	if limit <= 0 {
		limit = m.app.Recent.Limit
	}
	if m.app.Recent.MaxLimit > 0 && limit > m.app.Recent.MaxLimit {
		limit = m.app.Recent.MaxLimit
	}

	// concurrent identical requests share one cache lookup and query
	key := fmt.Sprintf("%d:%d", int64(window/time.Second), limit)
	v, err, _ := m.recent.Do(key, func() (interface{}, error) {
		return m.loadRecent(ctx, window, limit)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*dbmodels.Transcription), nil
}

func (m *TranscriptionModel) loadRecent(ctx context.Context, window time.Duration, limit int) ([]*dbmodels.Transcription, error) {
	log := m.logger.WithFields(logrus.Fields{
		"window": window.String(),
		"limit":  limit,
		"method": "loadRecent",
	})

	version, err := m.cache.RecentCacheVersion(ctx)
	useCache := err == nil
	if err != nil {
		log.WithError(err).Warnln("recent cache unavailable, reading from database")
	}

	if useCache {
		list, hit, err := m.cache.GetRecentCache(ctx, version, window, limit)
		if err != nil {
			log.WithError(err).Warnln("failed to read recent cache")
		} else if hit {
			return list, nil
		}
	}

	list, err := m.store.GetRecentTranscriptions(m.now().Add(-window), limit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*dbmodels.Transcription{}
	}

	if useCache {
		if err := m.cache.SetRecentCache(ctx, version, window, limit, list, m.app.Recent.CacheTTL); err != nil {
			log.WithError(err).Warnln("failed to store recent cache")
		}
	}
	return list, nil
}

// GetJobStatus returns nil when the job is unknown or its status expired.
func (m *TranscriptionModel) GetJobStatus(ctx context.Context, jobId string) (*redisservice.JobStatus, error) {
	return m.statuses.GetJobStatus(ctx, jobId)
}
