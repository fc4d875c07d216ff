package insights

import "time"

type RecognitionEventType int

const (
	// EventRecognizing is an interim hypothesis, never part of the transcript.
	EventRecognizing RecognitionEventType = iota
	// EventRecognized is a finalized utterance.
	EventRecognized
	EventCanceled
	EventSessionStopped
)

func (t RecognitionEventType) String() string {
	switch t {
	case EventRecognizing:
		return "recognizing"
	case EventRecognized:
		return "recognized"
	case EventCanceled:
		return "canceled"
	case EventSessionStopped:
		return "session_stopped"
	}
	return "unknown"
}

// ResultReason is the outcome of a finalized utterance.
type ResultReason int

const (
	ReasonOther ResultReason = iota
	ReasonRecognizedSpeech
	ReasonNoMatch
)

func (r ResultReason) String() string {
	switch r {
	case ReasonRecognizedSpeech:
		return "recognized_speech"
	case ReasonNoMatch:
		return "no_match"
	}
	return "other"
}

type CancellationReason int

const (
	CancellationError CancellationReason = iota
	// CancellationEndOfStream is reported once the service consumed the whole audio input.
	CancellationEndOfStream
	CancellationByUser
)

func (r CancellationReason) String() string {
	switch r {
	case CancellationEndOfStream:
		return "end_of_stream"
	case CancellationByUser:
		return "cancelled_by_user"
	}
	return "error"
}

// RecognitionEvent is a provider independent view of one session event.
type RecognitionEvent struct {
	Type   RecognitionEventType
	Text   string
	Reason ResultReason

	// set for EventCanceled
	CancellationReason CancellationReason
	ErrorCode          string
	ErrorDetails       string

	// position of the utterance in the audio
	Offset   time.Duration
	Duration time.Duration
}

// IsTerminalCancellation reports whether the event ends the session abnormally.
func (e *RecognitionEvent) IsTerminalCancellation() bool {
	return e.Type == EventCanceled && e.CancellationReason != CancellationEndOfStream
}

// RecognitionSession is a single continuous recognition over one canonical WAV file.
// Start and Stop are asynchronous: the returned channel delivers the acknowledgment.
// Events are delivered in the order the service produced them.
type RecognitionSession interface {
	Start() <-chan error
	Stop() <-chan error
	Events() <-chan *RecognitionEvent
	// Close releases the session. It must be safe to call more than once.
	Close()
}

// Recognizer opens recognition sessions against a speech service.
type Recognizer interface {
	// Validate reports missing or invalid credentials as a KindConfiguration error.
	Validate() error
	NewSession(language, wavPath string) (RecognitionSession, error)
}
