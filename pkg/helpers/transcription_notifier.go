package helpers

import (
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/sirupsen/logrus"
	"github.com/voxscribe/voxscribe-server/pkg/metrics"
	natsservice "github.com/voxscribe/voxscribe-server/pkg/services/nats"
)

type eventPublisher interface {
	PublishTranscriptionEvent(ev *natsservice.TranscriptionEvent) error
}

// TranscriptionNotifier publishes job events off the request path. Events of
// all jobs share one bounded pool, so a slow broker never blocks a pipeline.
type TranscriptionNotifier struct {
	publisher eventPublisher
	pool      *workerpool.WorkerPool
	metrics   *metrics.Metrics
	stopOnce  sync.Once
	logger    *logrus.Entry
}

func NewTranscriptionNotifier(publisher eventPublisher, workers int, m *metrics.Metrics, logger *logrus.Logger) *TranscriptionNotifier {
	if workers <= 0 {
		workers = 1
	}
	return &TranscriptionNotifier{
		publisher: publisher,
		pool:      workerpool.New(workers),
		metrics:   m,
		logger:    logger.WithField("helper", "transcriptionNotifier"),
	}
}

func (n *TranscriptionNotifier) Notify(ev *natsservice.TranscriptionEvent) {
	if n.pool.Stopped() {
		return
	}
	n.pool.Submit(func() {
		err := n.publisher.PublishTranscriptionEvent(ev)
		if n.metrics != nil {
			n.metrics.RecordEventPublished(string(ev.Event), err)
		}
		if err != nil {
			n.logger.WithError(err).WithFields(logrus.Fields{
				"event": ev.Event,
				"jobId": ev.JobId,
			}).Errorln("failed to publish transcription event")
		}
	})
}

// Shutdown waits for queued events to be published.
func (n *TranscriptionNotifier) Shutdown() {
	n.stopOnce.Do(func() {
		n.pool.StopWait()
	})
}
