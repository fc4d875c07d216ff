package models

import (
	"context"
	"errors"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/voxscribe/voxscribe-server/pkg/config"
	"github.com/voxscribe/voxscribe-server/pkg/dbmodels"
	"github.com/voxscribe/voxscribe-server/pkg/insights"
	dbservice "github.com/voxscribe/voxscribe-server/pkg/services/db"
	natsservice "github.com/voxscribe/voxscribe-server/pkg/services/nats"
	redisservice "github.com/voxscribe/voxscribe-server/pkg/services/redis"
	"golang.org/x/text/language"
)

// Run transcribes the audio behind sourceURL and stores the result.
// Stages run strictly in order and the first failure ends the job. The job
// directory is removed before Run returns, on every path.
func (m *TranscriptionModel) Run(ctx context.Context, sourceURL, lang string) (*dbmodels.Transcription, error) {
	if err := m.checkConfiguration(); err != nil {
		return nil, err
	}

	sourceURL, lang, err := m.validateRequest(sourceURL, lang)
	if err != nil {
		return nil, err
	}

	job := m.newJob(uuid.NewString(), sourceURL, lang)
	log := m.logger.WithFields(logrus.Fields{
		"jobId":     job.ID,
		"sourceURL": job.SourceURL,
		"language":  job.Language,
		"method":    "Run",
	})

	m.active.Store(job.ID, struct{}{})
	defer m.active.Delete(job.ID)

	m.metrics.RecordJobStarted()
	m.notify(job, natsservice.EventTranscriptionStarted, nil, nil)
	log.Infoln("transcription job started")

	defer m.cleanup(job, log)

	record, err := m.process(ctx, job, log)
	if err != nil {
		m.fail(job, err, log)
		return nil, err
	}

	m.moveTo(job, JobDone, record, nil)
	m.metrics.RecordJobFinished("ok", m.now().Sub(job.StartedAt))
	m.notify(job, natsservice.EventTranscriptionCompleted, record, nil)
	log.WithField("utterances", job.Utterances).Infoln("transcription job finished")

	return record, nil
}

func (m *TranscriptionModel) checkConfiguration() error {
	if err := m.transcoder.Validate(); err != nil {
		return err
	}
	if m.recognizer == nil {
		return insights.NewError(insights.KindConfiguration, "recognizer", errors.New("no recognizer configured"))
	}
	return m.recognizer.Validate()
}

func (m *TranscriptionModel) validateRequest(sourceURL, lang string) (string, string, error) {
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return "", "", insights.NewError(insights.KindValidation, "validate request", errors.New(config.SourceURLRequired))
	}
	u, err := url.Parse(sourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", "", insights.NewError(insights.KindValidation, "validate request", errors.New(config.InvalidSourceURL)).
			WithDetails(sourceURL)
	}

	lang = strings.TrimSpace(lang)
	if lang == "" {
		lang = m.app.Pipeline.DefaultLanguage
	}
	if lang == "" {
		lang = config.DefaultLanguage
	}
	if _, err := language.Parse(lang); err != nil {
		return "", "", insights.NewError(insights.KindValidation, "validate request", errors.New(config.InvalidLanguage)).
			WithDetails(lang)
	}

	return sourceURL, lang, nil
}

func (m *TranscriptionModel) process(ctx context.Context, job *transcriptionJob, log *logrus.Entry) (*dbmodels.Transcription, error) {
	if err := os.MkdirAll(job.Dir, 0755); err != nil {
		return nil, insights.NewError(insights.KindStorage, "create job directory", err)
	}

	// fetch
	m.moveTo(job, JobFetching, nil, nil)
	stageStart := m.now()
	res, err := m.fetcher.Fetch(ctx, job.SourceURL, job.OriginalFilePath)
	if err != nil {
		return nil, err
	}
	m.metrics.RecordStage("fetch", m.now().Sub(stageStart))
	m.metrics.RecordFetchedBytes(res.Size)
	log.WithFields(logrus.Fields{
		"size":     res.Size,
		"mimeType": res.MimeType,
	}).Infoln("source audio fetched")

	// transcode
	m.moveTo(job, JobTranscoding, nil, nil)
	stageStart = m.now()
	if err = <-m.transcoder.Convert(ctx, job.OriginalFilePath, job.CanonicalFilePath); err != nil {
		return nil, err
	}
	m.metrics.RecordStage("transcode", m.now().Sub(stageStart))

	// recognize
	m.moveTo(job, JobRecognizing, nil, nil)
	stageStart = m.now()
	transcript, err := m.recognize(ctx, job, log)
	if err != nil {
		return nil, err
	}
	m.metrics.RecordStage("recognize", m.now().Sub(stageStart))

	// persist
	m.moveTo(job, JobPersisting, nil, nil)
	stageStart = m.now()
	record := &dbmodels.Transcription{
		TranscriptionId: job.ID,
		SourceURL:       job.SourceURL,
		Transcript:      transcript,
		Language:        job.Language,
		CreatedAt:       m.now().UTC(),
	}
	if err = m.persist(record); err != nil {
		return nil, err
	}
	m.metrics.RecordStage("persist", m.now().Sub(stageStart))

	if err := m.cache.InvalidateRecentCache(m.ctx); err != nil {
		log.WithError(err).Warnln("failed to invalidate recent transcriptions cache")
	}

	return record, nil
}

func (m *TranscriptionModel) recognize(ctx context.Context, job *transcriptionJob, log *logrus.Entry) (string, error) {
	session, err := m.recognizer.NewSession(job.Language, job.CanonicalFilePath)
	if err != nil {
		var ie *insights.Error
		if errors.As(err, &ie) {
			return "", err
		}
		return "", insights.NewError(insights.KindSessionStart, "create recognition session", err)
	}
	defer session.Close()

	agg := insights.NewTranscriptAggregator()
	opts := insights.RecognitionOptions{
		Timeout:     m.app.Pipeline.RecognitionTimeout,
		CancelGrace: m.app.Pipeline.CancelGrace,
		StopTimeout: m.app.Pipeline.StopTimeout,
		OnEvent: func(ev *insights.RecognitionEvent) {
			switch {
			case ev.Type == insights.EventRecognizing:
				m.metrics.RecordPartial()
			case ev.Type == insights.EventRecognized && ev.Reason == insights.ReasonRecognizedSpeech:
				m.metrics.RecordUtterance()
			case ev.IsTerminalCancellation():
				m.metrics.RecordCancellation(ev.CancellationReason.String())
			}
		},
	}

	err = insights.Recognize(ctx, session, agg, opts, log)
	job.Utterances = agg.Utterances()
	if err != nil {
		return "", err
	}
	return agg.Transcript(), nil
}

func (m *TranscriptionModel) persist(record *dbmodels.Transcription) error {
	_, err := m.store.InsertTranscription(record)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, dbservice.ErrDuplicateSourceURL):
		details := "a transcription for this audio url already exists"
		if existing, _ := m.store.GetTranscriptionBySourceURL(record.SourceURL); existing != nil {
			details += ": " + existing.TranscriptionId
		}
		return insights.NewError(insights.KindPersistence, "persist transcription", err).
			WithDetails(details)
	default:
		return insights.NewError(insights.KindPersistence, "persist transcription", err)
	}
}

func (m *TranscriptionModel) fail(job *transcriptionJob, err error, log *logrus.Entry) {
	kind := insights.KindOf(err)
	log.WithError(err).WithFields(logrus.Fields{
		"kind":  kind,
		"stage": job.State.String(),
	}).Errorln("transcription job failed")

	m.moveTo(job, JobFailed, nil, err)
	m.metrics.RecordJobFinished(string(kind), m.now().Sub(job.StartedAt))
	m.notify(job, natsservice.EventTranscriptionFailed, nil, err)
}

// cleanup removes the job directory with both temp files.
func (m *TranscriptionModel) cleanup(job *transcriptionJob, log *logrus.Entry) {
	if err := os.RemoveAll(job.Dir); err != nil {
		log.WithError(err).WithField("dir", job.Dir).Errorln("failed to remove job directory")
	}
}

// moveTo records the new state. Status writes are best effort.
func (m *TranscriptionModel) moveTo(job *transcriptionJob, state JobState, record *dbmodels.Transcription, jobErr error) {
	job.State = state

	status := &redisservice.JobStatus{
		JobId:     job.ID,
		State:     state.String(),
		SourceURL: job.SourceURL,
		Language:  job.Language,
		UpdatedAt: m.now().UnixMilli(),
	}
	if record != nil {
		status.TranscriptionId = record.TranscriptionId
	}
	if jobErr != nil {
		status.Kind = string(insights.KindOf(jobErr))
		status.Error = jobErr.Error()
	}

	if err := m.statuses.SetJobStatus(m.ctx, status, m.app.Pipeline.JobStatusTTL); err != nil {
		m.logger.WithError(err).WithField("jobId", job.ID).Warnln("failed to store job status")
	}
}

func (m *TranscriptionModel) notify(job *transcriptionJob, event natsservice.TranscriptionEventType, record *dbmodels.Transcription, jobErr error) {
	if m.notifier == nil {
		return
	}
	ev := &natsservice.TranscriptionEvent{
		Event:      event,
		JobId:      job.ID,
		SourceURL:  job.SourceURL,
		Language:   job.Language,
		Utterances: job.Utterances,
		DurationMs: m.now().Sub(job.StartedAt).Milliseconds(),
		Time:       m.now().UnixMilli(),
	}
	if record != nil {
		ev.TranscriptionId = record.TranscriptionId
	}
	if jobErr != nil {
		ev.Kind = string(insights.KindOf(jobErr))
		ev.Error = jobErr.Error()
	}
	m.notifier.Notify(ev)
}
