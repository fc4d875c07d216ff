package models

type JobState int

const (
	JobPending JobState = iota
	JobFetching
	JobTranscoding
	JobRecognizing
	JobPersisting
	JobDone
	JobFailed
)

func (s JobState) String() string {
	switch s {
	case JobPending:
		return "pending"
	case JobFetching:
		return "fetching"
	case JobTranscoding:
		return "transcoding"
	case JobRecognizing:
		return "recognizing"
	case JobPersisting:
		return "persisting"
	case JobDone:
		return "done"
	case JobFailed:
		return "failed"
	}
	return "unknown"
}

// IsTerminal reports whether no further stage will run.
func (s JobState) IsTerminal() bool {
	return s == JobDone || s == JobFailed
}
