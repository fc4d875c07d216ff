package azure

import (
	"strconv"
	"sync"

	"github.com/Microsoft/cognitive-services-speech-sdk-go/audio"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/common"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/speech"
	"github.com/sirupsen/logrus"
	"github.com/voxscribe/voxscribe-server/pkg/insights"
)

// session adapts the SDK's callback registration to an ordered event channel.
type session struct {
	speechConfig *speech.SpeechConfig
	audioConfig  *audio.AudioConfig
	recognizer   *speech.SpeechRecognizer

	events    chan *insights.RecognitionEvent
	done      chan struct{}
	closeOnce sync.Once
	log       *logrus.Entry
}

func (s *session) registerHandlers() {
	s.recognizer.SessionStarted(func(e speech.SessionEventArgs) {
		defer e.Close()
		s.log.WithField("sessionId", e.SessionID).Infoln("azure recognition session started")
	})

	s.recognizer.Recognizing(func(e speech.SpeechRecognitionEventArgs) {
		defer e.Close()
		s.emit(&insights.RecognitionEvent{
			Type:     insights.EventRecognizing,
			Text:     e.Result.Text,
			Offset:   e.Result.Offset,
			Duration: e.Result.Duration,
		})
	})

	s.recognizer.Recognized(func(e speech.SpeechRecognitionEventArgs) {
		defer e.Close()
		s.emit(&insights.RecognitionEvent{
			Type:     insights.EventRecognized,
			Text:     e.Result.Text,
			Reason:   resultReason(e.Result.Reason),
			Offset:   e.Result.Offset,
			Duration: e.Result.Duration,
		})
	})

	s.recognizer.Canceled(func(e speech.SpeechRecognitionCanceledEventArgs) {
		defer e.Close()
		ev := &insights.RecognitionEvent{
			Type:               insights.EventCanceled,
			CancellationReason: cancellationReason(e.Reason),
			ErrorDetails:       e.ErrorDetails,
		}
		if e.Reason == common.Error {
			ev.ErrorCode = strconv.Itoa(int(e.ErrorCode))
		}
		s.emit(ev)
	})

	s.recognizer.SessionStopped(func(e speech.SessionEventArgs) {
		defer e.Close()
		s.log.WithField("sessionId", e.SessionID).Infoln("azure recognition session stopped")
		s.emit(&insights.RecognitionEvent{Type: insights.EventSessionStopped})
	})
}

// emit blocks until the event is consumed or the session is closed, which
// keeps the delivery order of the SDK callbacks.
func (s *session) emit(ev *insights.RecognitionEvent) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

func (s *session) Start() <-chan error {
	return s.recognizer.StartContinuousRecognitionAsync()
}

func (s *session) Stop() <-chan error {
	return s.recognizer.StopContinuousRecognitionAsync()
}

func (s *session) Events() <-chan *insights.RecognitionEvent {
	return s.events
}

func (s *session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.recognizer.Close()
		s.audioConfig.Close()
		s.speechConfig.Close()
	})
}

func resultReason(r common.ResultReason) insights.ResultReason {
	switch r {
	case common.RecognizedSpeech:
		return insights.ReasonRecognizedSpeech
	case common.NoMatch:
		return insights.ReasonNoMatch
	}
	return insights.ReasonOther
}

func cancellationReason(r common.CancellationReason) insights.CancellationReason {
	switch r {
	case common.EndOfStream:
		return insights.CancellationEndOfStream
	case common.CancelledByUser:
		return insights.CancellationByUser
	}
	return insights.CancellationError
}
