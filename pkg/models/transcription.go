package models

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/voxscribe/voxscribe-server/pkg/config"
	"github.com/voxscribe/voxscribe-server/pkg/dbmodels"
	"github.com/voxscribe/voxscribe-server/pkg/helpers"
	"github.com/voxscribe/voxscribe-server/pkg/insights"
	"github.com/voxscribe/voxscribe-server/pkg/insights/media"
	"github.com/voxscribe/voxscribe-server/pkg/metrics"
	dbservice "github.com/voxscribe/voxscribe-server/pkg/services/db"
	natsservice "github.com/voxscribe/voxscribe-server/pkg/services/nats"
	redisservice "github.com/voxscribe/voxscribe-server/pkg/services/redis"
	"golang.org/x/sync/singleflight"
)

const (
	jobDirPrefix      = "job-"
	originalFileName  = "original"
	canonicalFileName = "canonical.wav"
)

type audioFetcher interface {
	Fetch(ctx context.Context, sourceURL, dst string) (*media.FetchResult, error)
}

type audioTranscoder interface {
	Validate() error
	Convert(ctx context.Context, src, dst string) <-chan error
}

type transcriptionStore interface {
	InsertTranscription(info *dbmodels.Transcription) (int64, error)
	GetRecentTranscriptions(since time.Time, limit int) ([]*dbmodels.Transcription, error)
	GetTranscriptionBySourceURL(sourceURL string) (*dbmodels.Transcription, error)
}

type jobStatusStore interface {
	SetJobStatus(ctx context.Context, status *redisservice.JobStatus, ttl time.Duration) error
	GetJobStatus(ctx context.Context, jobId string) (*redisservice.JobStatus, error)
}

type recentCache interface {
	RecentCacheVersion(ctx context.Context) (int64, error)
	GetRecentCache(ctx context.Context, version int64, window time.Duration, limit int) ([]*dbmodels.Transcription, bool, error)
	SetRecentCache(ctx context.Context, version int64, window time.Duration, limit int, list []*dbmodels.Transcription, ttl time.Duration) error
	InvalidateRecentCache(ctx context.Context) error
}

type eventNotifier interface {
	Notify(ev *natsservice.TranscriptionEvent)
}

// TranscriptionModel runs transcription jobs from source url to stored record.
type TranscriptionModel struct {
	ctx        context.Context
	app        *config.AppConfig
	fetcher    audioFetcher
	transcoder audioTranscoder
	recognizer insights.Recognizer
	store      transcriptionStore
	statuses   jobStatusStore
	cache      recentCache
	notifier   eventNotifier
	metrics    *metrics.Metrics
	logger     *logrus.Entry

	// active holds the ids of jobs running in this process
	active sync.Map
	recent singleflight.Group
	now    func() time.Time
}

func NewTranscriptionModel(ctx context.Context, app *config.AppConfig, ds *dbservice.DatabaseService, rs *redisservice.RedisService, notifier *helpers.TranscriptionNotifier, recognizer insights.Recognizer, logger *logrus.Logger) *TranscriptionModel {
	log := logger.WithField("model", "transcription")

	return &TranscriptionModel{
		ctx:        ctx,
		app:        app,
		fetcher:    media.NewFetcher(&app.Fetcher, log.WithField("component", "fetcher")),
		transcoder: media.NewTranscoder(&app.Transcoder, log.WithField("component", "transcoder")),
		recognizer: recognizer,
		store:      ds,
		statuses:   rs,
		cache:      rs,
		notifier:   notifier,
		metrics:    metrics.DefaultMetrics,
		logger:     log,
		now:        time.Now,
	}
}

// Context is the application context jobs run on.
func (m *TranscriptionModel) Context() context.Context {
	return m.ctx
}

// IsActive reports whether the job is still running in this process.
func (m *TranscriptionModel) IsActive(jobId string) bool {
	_, ok := m.active.Load(jobId)
	return ok
}

// transcriptionJob is the transient state of a single Run.
type transcriptionJob struct {
	ID                string
	SourceURL         string
	Language          string
	Dir               string
	OriginalFilePath  string
	CanonicalFilePath string
	State             JobState
	StartedAt         time.Time
	Utterances        int
}

func (m *TranscriptionModel) newJob(id, sourceURL, language string) *transcriptionJob {
	dir := filepath.Join(m.app.Pipeline.TempDir, jobDirPrefix+id)
	return &transcriptionJob{
		ID:                id,
		SourceURL:         sourceURL,
		Language:          language,
		Dir:               dir,
		OriginalFilePath:  filepath.Join(dir, originalFileName),
		CanonicalFilePath: filepath.Join(dir, canonicalFileName),
		State:             JobPending,
		StartedAt:         m.now(),
	}
}
