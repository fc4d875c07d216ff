package config

const (
	AzureCredentialsNotSet = "Azure credentials not set"
	FfmpegNotFound         = "ffmpeg executable not found"
	SourceURLRequired      = "audioUrl is required"
	InvalidSourceURL       = "audioUrl must be an absolute http or https url"
	InvalidLanguage        = "language must be a locale code like en-US"
	TranscriptionFailed    = "transcription failed"
	JobNotFound            = "job not found"
)
