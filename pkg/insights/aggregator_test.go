package insights

import (
	"errors"
	"fmt"
	"testing"
)

func TestTranscriptAggregator(t *testing.T) {
	tests := []struct {
		name   string
		events []*RecognitionEvent
		want   string
		count  int
	}{
		{
			name: "empty",
			want: "",
		},
		{
			name:   "partials never contribute",
			events: []*RecognitionEvent{partial("hello"), partial("hello wor")},
			want:   "",
		},
		{
			name:   "keeps delivery order",
			events: []*RecognitionEvent{recognized("b"), recognized("a"), recognized("c")},
			want:   "b a c",
			count:  3,
		},
		{
			name: "skips no match and other reasons",
			events: []*RecognitionEvent{
				recognized("one"),
				{Type: EventRecognized, Text: "noise", Reason: ReasonNoMatch},
				{Type: EventRecognized, Text: "other", Reason: ReasonOther},
				recognized("two"),
			},
			want:  "one two",
			count: 2,
		},
		{
			name:   "trims outer whitespace only",
			events: []*RecognitionEvent{recognized("  padded"), recognized("text  ")},
			want:   "padded text",
			count:  2,
		},
		{
			name:   "ignores cancellation and stop events",
			events: []*RecognitionEvent{endOfStream, recognized("x"), stopped, nil},
			want:   "x",
			count:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewTranscriptAggregator()
			for _, ev := range tt.events {
				agg.Add(ev)
			}
			if got := agg.Transcript(); got != tt.want {
				t.Errorf("Transcript() = %q, want %q", got, tt.want)
			}
			if agg.Utterances() != tt.count {
				t.Errorf("Utterances() = %d, want %d", agg.Utterances(), tt.count)
			}
		})
	}
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("wrapped: %w", NewError(KindTranscode, "convert", cause).WithDetails("exit status 1"))

	if KindOf(err) != KindTranscode {
		t.Errorf("KindOf() = %s", KindOf(err))
	}
	if !errors.Is(err, cause) {
		t.Error("cause should be reachable through Unwrap")
	}
	if KindOf(nil) != "" {
		t.Error("nil error has no kind")
	}
	if KindOf(cause) != KindUnknown {
		t.Error("unclassified errors are unknown")
	}
	if got := NewError(KindFetch, "fetch", cause).Error(); got != "fetch_error: fetch: boom" {
		t.Errorf("Error() = %q", got)
	}
}
