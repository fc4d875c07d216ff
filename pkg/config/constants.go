package config

import "time"

const (
	DefaultPort       = 5000
	DefaultLanguage   = "en-US"
	DefaultSampleRate = 16000

	DefaultMaxFetchSize int64 = 200 * 1024 * 1024 // 200MiB
	DefaultFetchTimeout       = 2 * time.Minute

	DefaultRecognitionTimeout = 30 * time.Minute
	DefaultCancelGrace        = 10 * time.Second
	DefaultStopTimeout        = 30 * time.Second
	DefaultJobStatusTTL       = 24 * time.Hour

	DefaultRecentWindow   = 30 * 24 * time.Hour
	DefaultRecentLimit    = 1000
	DefaultRecentCacheTTL = 30 * time.Second

	DefaultJanitorInterval   = 10 * time.Minute
	DefaultJanitorStaleAfter = 2 * time.Hour

	DefaultNotifierWorkers            = 4
	DefaultTranscriptionEventsSubject = "voxscribe.transcription.events"

	EnvAzureKey    = "AZURE_KEY"
	EnvAzureRegion = "AZURE_REGION"
	EnvPort        = "PORT"
)
