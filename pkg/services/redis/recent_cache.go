package redisservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/voxscribe/voxscribe-server/pkg/dbmodels"
)

const (
	recentCacheVersionKey = Prefix + "recent:version"
	recentCacheKey        = Prefix + "recent:v%d:%d:%d"
)

// RecentCacheVersion identifies a generation of cached recent lists. Every
// insert bumps it, which orphans all previously cached lists at once.
func (s *RedisService) RecentCacheVersion(ctx context.Context) (int64, error) {
	v, err := s.rc.Get(ctx, recentCacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// GetRecentCache returns the cached list for this version, window and limit.
// The boolean is false on a cache miss.
func (s *RedisService) GetRecentCache(ctx context.Context, version int64, window time.Duration, limit int) ([]*dbmodels.Transcription, bool, error) {
	key := fmt.Sprintf(recentCacheKey, version, int64(window.Seconds()), limit)
	data, err := s.rc.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}

	var list []*dbmodels.Transcription
	if err := json.Unmarshal(data, &list); err != nil {
		// a broken entry behaves like a miss
		s.logger.WithError(err).WithField("key", key).Warnln("dropping unreadable recent cache entry")
		_ = s.rc.Del(ctx, key).Err()
		return nil, false, nil
	}
	return list, true, nil
}

func (s *RedisService) SetRecentCache(ctx context.Context, version int64, window time.Duration, limit int, list []*dbmodels.Transcription, ttl time.Duration) error {
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(recentCacheKey, version, int64(window.Seconds()), limit)
	return s.rc.Set(ctx, key, data, ttl).Err()
}

func (s *RedisService) InvalidateRecentCache(ctx context.Context) error {
	return s.rc.Incr(ctx, recentCacheVersionKey).Err()
}
