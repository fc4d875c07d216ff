package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/voxscribe/voxscribe-server/pkg/config"
	"github.com/voxscribe/voxscribe-server/pkg/dbmodels"
	"github.com/voxscribe/voxscribe-server/pkg/insights"
	"github.com/voxscribe/voxscribe-server/pkg/insights/media"
	"github.com/voxscribe/voxscribe-server/pkg/metrics"
	natsservice "github.com/voxscribe/voxscribe-server/pkg/services/nats"
	redisservice "github.com/voxscribe/voxscribe-server/pkg/services/redis"
)

type fakeFetcher struct {
	calls int32
	err   error
}

func (f *fakeFetcher) Fetch(ctx context.Context, sourceURL, dst string) (*media.FetchResult, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	data := []byte("ID3 fake mp3 payload")
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return nil, insights.NewError(insights.KindStorage, "fetch", err)
	}
	return &media.FetchResult{Path: dst, Size: int64(len(data)), MimeType: "audio/mpeg"}, nil
}

type fakeTranscoder struct {
	calls       int32
	validateErr error
	err         error
}

func (f *fakeTranscoder) Validate() error {
	return f.validateErr
}

func (f *fakeTranscoder) Convert(ctx context.Context, src, dst string) <-chan error {
	atomic.AddInt32(&f.calls, 1)
	done := make(chan error, 1)
	if f.err == nil {
		if err := os.WriteFile(dst, []byte("RIFF"), 0644); err != nil {
			done <- err
			close(done)
			return done
		}
	}
	done <- f.err
	close(done)
	return done
}

// scriptedSession replays a fixed list of events.
type scriptedSession struct {
	events   chan *insights.RecognitionEvent
	startErr error
	stops    int32
	closes   int32
}

func newScriptedSession(evs ...*insights.RecognitionEvent) *scriptedSession {
	ch := make(chan *insights.RecognitionEvent, len(evs))
	for _, ev := range evs {
		ch <- ev
	}
	return &scriptedSession{events: ch}
}

func (s *scriptedSession) Start() <-chan error {
	ch := make(chan error, 1)
	ch <- s.startErr
	return ch
}

func (s *scriptedSession) Stop() <-chan error {
	atomic.AddInt32(&s.stops, 1)
	ch := make(chan error, 1)
	ch <- nil
	return ch
}

func (s *scriptedSession) Events() <-chan *insights.RecognitionEvent {
	return s.events
}

func (s *scriptedSession) Close() {
	atomic.AddInt32(&s.closes, 1)
}

type fakeRecognizer struct {
	validateErr error
	sessionErr  error
	session     *scriptedSession
	sessions    int32
	language    string
}

func (f *fakeRecognizer) Validate() error {
	return f.validateErr
}

func (f *fakeRecognizer) NewSession(language, wavPath string) (insights.RecognitionSession, error) {
	atomic.AddInt32(&f.sessions, 1)
	f.language = language
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	if _, err := os.Stat(wavPath); err != nil {
		return nil, err
	}
	return f.session, nil
}

type fakeStore struct {
	mu       sync.Mutex
	records  []*dbmodels.Transcription
	err      error
	queries  int32
	lastFrom time.Time
	lastSize int
}

func (f *fakeStore) InsertTranscription(info *dbmodels.Transcription) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.records = append(f.records, info)
	return 1, nil
}

func (f *fakeStore) GetRecentTranscriptions(since time.Time, limit int) ([]*dbmodels.Transcription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	atomic.AddInt32(&f.queries, 1)
	f.lastFrom = since
	f.lastSize = limit
	if f.err != nil {
		return nil, f.err
	}
	var list []*dbmodels.Transcription
	for i := len(f.records) - 1; i >= 0 && len(list) < limit; i-- {
		if !f.records[i].CreatedAt.Before(since) {
			list = append(list, f.records[i])
		}
	}
	return list, nil
}

func (f *fakeStore) GetTranscriptionBySourceURL(sourceURL string) (*dbmodels.Transcription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.SourceURL == sourceURL {
			return r, nil
		}
	}
	return nil, nil
}

type fakeRedis struct {
	mu          sync.Mutex
	statuses    map[string]*redisservice.JobStatus
	history     []string
	version     int64
	cached      map[string][]*dbmodels.Transcription
	unavailable bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		statuses: make(map[string]*redisservice.JobStatus),
		cached:   make(map[string][]*dbmodels.Transcription),
	}
}

var errRedisDown = errors.New("dial tcp: connection refused")

func (f *fakeRedis) SetJobStatus(ctx context.Context, status *redisservice.JobStatus, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unavailable {
		return errRedisDown
	}
	cp := *status
	f.statuses[status.JobId] = &cp
	f.history = append(f.history, status.State)
	return nil
}

func (f *fakeRedis) GetJobStatus(ctx context.Context, jobId string) (*redisservice.JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unavailable {
		return nil, errRedisDown
	}
	return f.statuses[jobId], nil
}

func (f *fakeRedis) RecentCacheVersion(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unavailable {
		return 0, errRedisDown
	}
	return f.version, nil
}

func cacheKey(version int64, window time.Duration, limit int) string {
	return fmt.Sprintf("%d/%s/%d", version, window, limit)
}

func (f *fakeRedis) GetRecentCache(ctx context.Context, version int64, window time.Duration, limit int) ([]*dbmodels.Transcription, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list, ok := f.cached[cacheKey(version, window, limit)]
	return list, ok, nil
}

func (f *fakeRedis) SetRecentCache(ctx context.Context, version int64, window time.Duration, limit int, list []*dbmodels.Transcription, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cached[cacheKey(version, window, limit)] = list
	return nil
}

func (f *fakeRedis) InvalidateRecentCache(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unavailable {
		return errRedisDown
	}
	f.version++
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []*natsservice.TranscriptionEvent
}

func (f *fakeNotifier) Notify(ev *natsservice.TranscriptionEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeNotifier) types() []natsservice.TranscriptionEventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []natsservice.TranscriptionEventType
	for _, ev := range f.events {
		out = append(out, ev.Event)
	}
	return out
}

type testFixture struct {
	model      *TranscriptionModel
	app        *config.AppConfig
	fetcher    *fakeFetcher
	transcoder *fakeTranscoder
	recognizer *fakeRecognizer
	store      *fakeStore
	redis      *fakeRedis
	notifier   *fakeNotifier
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testAppConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	return &config.AppConfig{
		Pipeline: config.PipelineInfo{
			TempDir:            t.TempDir(),
			DefaultLanguage:    config.DefaultLanguage,
			RecognitionTimeout: 5 * time.Second,
			CancelGrace:        time.Second,
			StopTimeout:        time.Second,
			JobStatusTTL:       time.Hour,
		},
		Recent: config.RecentSettings{
			Window:   config.DefaultRecentWindow,
			Limit:    config.DefaultRecentLimit,
			MaxLimit: 2000,
			CacheTTL: time.Minute,
		},
		Janitor: config.JanitorSettings{
			Enabled:    true,
			Interval:   time.Minute,
			StaleAfter: time.Hour,
		},
	}
}

func newTestFixture(t *testing.T, session *scriptedSession) *testFixture {
	t.Helper()
	f := &testFixture{
		app:        testAppConfig(t),
		fetcher:    &fakeFetcher{},
		transcoder: &fakeTranscoder{},
		recognizer: &fakeRecognizer{session: session},
		store:      &fakeStore{},
		redis:      newFakeRedis(),
		notifier:   &fakeNotifier{},
	}
	f.model = &TranscriptionModel{
		ctx:        context.Background(),
		app:        f.app,
		fetcher:    f.fetcher,
		transcoder: f.transcoder,
		recognizer: f.recognizer,
		store:      f.store,
		statuses:   f.redis,
		cache:      f.redis,
		notifier:   f.notifier,
		metrics:    metrics.DefaultMetrics,
		logger:     testLogger().WithField("model", "transcription"),
		now:        time.Now,
	}
	return f
}

// assertNoJobDirs checks that every job directory was removed.
func assertNoJobDirs(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		t.Errorf("temp directory not cleaned up: %s", e.Name())
	}
}

func recognized(text string) *insights.RecognitionEvent {
	return &insights.RecognitionEvent{Type: insights.EventRecognized, Text: text, Reason: insights.ReasonRecognizedSpeech}
}

func sessionStopped() *insights.RecognitionEvent {
	return &insights.RecognitionEvent{Type: insights.EventSessionStopped}
}
