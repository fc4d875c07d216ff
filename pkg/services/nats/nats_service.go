package natsservice

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"github.com/voxscribe/voxscribe-server/pkg/config"
)

type TranscriptionEventType string

const (
	EventTranscriptionStarted   TranscriptionEventType = "transcription.started"
	EventTranscriptionCompleted TranscriptionEventType = "transcription.completed"
	EventTranscriptionFailed    TranscriptionEventType = "transcription.failed"
)

// TranscriptionEvent is published on the configured subject whenever a job
// starts or reaches a terminal state.
type TranscriptionEvent struct {
	Event           TranscriptionEventType `json:"event"`
	JobId           string                 `json:"job_id"`
	TranscriptionId string                 `json:"transcription_id,omitempty"`
	SourceURL       string                 `json:"source_url"`
	Language        string                 `json:"language"`
	Kind            string                 `json:"kind,omitempty"`
	Error           string                 `json:"error,omitempty"`
	Utterances      int                    `json:"utterances"`
	DurationMs      int64                  `json:"duration_ms"`
	Time            int64                  `json:"time"`
}

type NatsService struct {
	ctx     context.Context
	app     *config.AppConfig
	nc      *nats.Conn
	subject string
	logger  *logrus.Entry
}

func New(app *config.AppConfig, logger *logrus.Logger) *NatsService {
	return &NatsService{
		ctx:     context.Background(),
		app:     app,
		nc:      app.NatsConn,
		subject: app.NatsInfo.Subjects.TranscriptionEvents,
		logger:  logger.WithField("service", "nats"),
	}
}

// Enabled reports whether a NATS connection was configured.
func (s *NatsService) Enabled() bool {
	return s.nc != nil
}

// PublishTranscriptionEvent is a no-op without a connection.
func (s *NatsService) PublishTranscriptionEvent(ev *TranscriptionEvent) error {
	if s.nc == nil {
		return nil
	}
	if ev.Time == 0 {
		ev.Time = time.Now().UnixMilli()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.nc.Publish(s.subject, data)
}

func (s *NatsService) Ping() error {
	if s.nc == nil {
		return nil
	}
	if !s.nc.IsConnected() {
		return nats.ErrConnectionClosed
	}
	return s.nc.FlushTimeout(2 * time.Second)
}
