package insights

import "strings"

// TranscriptAggregator assembles the final transcript from recognition events.
// It is owned by a single aggregation goroutine and is not safe for concurrent use.
type TranscriptAggregator struct {
	buf        strings.Builder
	utterances int
}

func NewTranscriptAggregator() *TranscriptAggregator {
	return &TranscriptAggregator{}
}

// Add appends the text of a finalized, successfully recognized utterance
// followed by a single space. Every other event is ignored.
// It reports whether the event contributed to the transcript.
func (a *TranscriptAggregator) Add(ev *RecognitionEvent) bool {
	if ev == nil || ev.Type != EventRecognized || ev.Reason != ReasonRecognizedSpeech {
		return false
	}
	a.buf.WriteString(ev.Text)
	a.buf.WriteByte(' ')
	a.utterances++
	return true
}

// Transcript returns the accumulated text without leading or trailing whitespace.
func (a *TranscriptAggregator) Transcript() string {
	return strings.TrimSpace(a.buf.String())
}

func (a *TranscriptAggregator) Utterances() int {
	return a.utterances
}
