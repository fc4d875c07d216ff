package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var dbTablePrefix string

type AppConfig struct {
	RDS      *redis.Client
	DB       *gorm.DB
	Logger   *logrus.Logger
	NatsConn *nats.Conn

	RootWorkingDir string
	Client         ClientInfo      `yaml:"client"`
	LogSettings    LogSettings     `yaml:"log_settings"`
	DatabaseInfo   DatabaseInfo    `yaml:"database_info"`
	RedisInfo      RedisInfo       `yaml:"redis_info"`
	NatsInfo       NatsInfo        `yaml:"nats_info"`
	AzureSpeech    AzureSpeech     `yaml:"azure_speech"`
	Transcoder     TranscoderInfo  `yaml:"transcoder"`
	Fetcher        FetcherSettings `yaml:"fetcher"`
	Pipeline       PipelineInfo    `yaml:"pipeline"`
	Recent         RecentSettings  `yaml:"recent"`
	Janitor        JanitorSettings `yaml:"janitor"`
	Notifier       NotifierInfo    `yaml:"notifier"`
}

type ClientInfo struct {
	Port           int            `yaml:"port"`
	Debug          bool           `yaml:"debug"`
	PrometheusConf PrometheusConf `yaml:"prometheus"`
	ProxyHeader    string         `yaml:"proxy_header"`
}

type PrometheusConf struct {
	Enable      bool   `yaml:"enable"`
	MetricsPath string `yaml:"metrics_path"`
}

type LogSettings struct {
	LogFile    string  `yaml:"log_file"`
	MaxSize    int     `yaml:"max_size"`
	MaxBackups int     `yaml:"max_backups"`
	MaxAge     int     `yaml:"max_age"`
	LogLevel   *string `yaml:"log_level"`
}

type DatabaseInfo struct {
	Host            string          `yaml:"host"`
	Port            int32           `yaml:"port"`
	Username        string          `yaml:"username"`
	Password        string          `yaml:"password"`
	DBName          string          `yaml:"db"`
	Prefix          string          `yaml:"prefix"`
	Charset         *string         `yaml:"charset"`
	Loc             *string         `yaml:"loc"`
	ConnMaxLifetime *time.Duration  `yaml:"conn_max_lifetime"`
	MaxOpenConns    *int            `yaml:"max_open_conns"`
	AutoMigrate     bool            `yaml:"auto_migrate"`
	Replicas        []ReplicaDBInfo `yaml:"replicas"`
}

// ReplicaDBInfo holds connection details for a read replica database.
type ReplicaDBInfo struct {
	Host     string `yaml:"host"`
	Port     int32  `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type RedisInfo struct {
	Host              string   `yaml:"host"`
	Username          string   `yaml:"username"`
	Password          string   `yaml:"password"`
	DBName            int      `yaml:"db"`
	UseTLS            bool     `yaml:"use_tls"`
	MasterName        string   `yaml:"sentinel_master_name"`
	SentinelUsername  string   `yaml:"sentinel_username"`
	SentinelPassword  string   `yaml:"sentinel_password"`
	SentinelAddresses []string `yaml:"sentinel_addresses"`
}

// NatsInfo is optional. Without nats_urls no transcription events are published.
type NatsInfo struct {
	NatsUrls []string     `yaml:"nats_urls"`
	User     string       `yaml:"user"`
	Password string       `yaml:"password"`
	Nkey     *string      `yaml:"nkey"`
	Subjects NatsSubjects `yaml:"subjects"`
}

type NatsSubjects struct {
	TranscriptionEvents string `yaml:"transcription_events"`
}

type TranscoderInfo struct {
	FfmpegPath string `yaml:"ffmpeg_path"`
	SampleRate int    `yaml:"sample_rate"`
}

type FetcherSettings struct {
	MaxSize      int64         `yaml:"max_size"`
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	AllowedTypes []string      `yaml:"allowed_types"`
}

type PipelineInfo struct {
	TempDir            string        `yaml:"temp_dir"`
	DefaultLanguage    string        `yaml:"default_language"`
	RecognitionTimeout time.Duration `yaml:"recognition_timeout"`
	CancelGrace        time.Duration `yaml:"cancel_grace"`
	StopTimeout        time.Duration `yaml:"stop_timeout"`
	JobStatusTTL       time.Duration `yaml:"job_status_ttl"`
}

type RecentSettings struct {
	Window   time.Duration `yaml:"window"`
	Limit    int           `yaml:"limit"`
	MaxLimit int           `yaml:"max_limit"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type JanitorSettings struct {
	Enabled    bool          `yaml:"enabled"`
	Interval   time.Duration `yaml:"interval"`
	StaleAfter time.Duration `yaml:"stale_after"`
}

type NotifierInfo struct {
	Workers int `yaml:"workers"`
}

func New(appCnf *AppConfig) (*AppConfig, error) {
	applyEnvOverrides(appCnf)

	if appCnf.Client.Port == 0 {
		appCnf.Client.Port = DefaultPort
	}
	if appCnf.Client.PrometheusConf.MetricsPath == "" {
		appCnf.Client.PrometheusConf.MetricsPath = "/metrics"
	}

	// transcoder
	if appCnf.Transcoder.FfmpegPath == "" {
		appCnf.Transcoder.FfmpegPath = "ffmpeg"
	}
	if appCnf.Transcoder.SampleRate <= 0 {
		appCnf.Transcoder.SampleRate = DefaultSampleRate
	}

	// fetcher
	if appCnf.Fetcher.MaxSize <= 0 {
		appCnf.Fetcher.MaxSize = DefaultMaxFetchSize
	}
	if appCnf.Fetcher.Timeout <= 0 {
		appCnf.Fetcher.Timeout = DefaultFetchTimeout
	}
	if appCnf.Fetcher.UserAgent == "" {
		appCnf.Fetcher.UserAgent = "voxscribe-server"
	}
	if len(appCnf.Fetcher.AllowedTypes) == 0 {
		appCnf.Fetcher.AllowedTypes = []string{"audio/", "video/", "application/ogg"}
	}

	// pipeline
	if appCnf.Pipeline.DefaultLanguage == "" {
		appCnf.Pipeline.DefaultLanguage = DefaultLanguage
	}
	if appCnf.Pipeline.RecognitionTimeout <= 0 {
		appCnf.Pipeline.RecognitionTimeout = DefaultRecognitionTimeout
	}
	if appCnf.Pipeline.CancelGrace <= 0 {
		appCnf.Pipeline.CancelGrace = DefaultCancelGrace
	}
	if appCnf.Pipeline.StopTimeout <= 0 {
		appCnf.Pipeline.StopTimeout = DefaultStopTimeout
	}
	if appCnf.Pipeline.JobStatusTTL <= 0 {
		appCnf.Pipeline.JobStatusTTL = DefaultJobStatusTTL
	}
	if appCnf.Pipeline.TempDir == "" {
		appCnf.Pipeline.TempDir = filepath.Join(os.TempDir(), "voxscribe")
	}
	p := appCnf.Pipeline.TempDir
	if strings.HasPrefix(p, "./") {
		p = filepath.Join(appCnf.RootWorkingDir, p)
		appCnf.Pipeline.TempDir = p
	}
	if err := os.MkdirAll(p, 0755); err != nil {
		return nil, fmt.Errorf("failed to create pipeline temp directory %s: %w", p, err)
	}

	// recent records
	if appCnf.Recent.Window <= 0 {
		appCnf.Recent.Window = DefaultRecentWindow
	}
	if appCnf.Recent.Limit <= 0 {
		appCnf.Recent.Limit = DefaultRecentLimit
	}
	if appCnf.Recent.MaxLimit < appCnf.Recent.Limit {
		appCnf.Recent.MaxLimit = appCnf.Recent.Limit
	}
	if appCnf.Recent.CacheTTL <= 0 {
		appCnf.Recent.CacheTTL = DefaultRecentCacheTTL
	}

	if appCnf.Janitor.Interval <= 0 {
		appCnf.Janitor.Interval = DefaultJanitorInterval
	}
	if appCnf.Janitor.StaleAfter <= 0 {
		appCnf.Janitor.StaleAfter = DefaultJanitorStaleAfter
	}

	if appCnf.Notifier.Workers <= 0 {
		appCnf.Notifier.Workers = DefaultNotifierWorkers
	}
	if appCnf.NatsInfo.Subjects.TranscriptionEvents == "" {
		appCnf.NatsInfo.Subjects.TranscriptionEvents = DefaultTranscriptionEventsSubject
	}

	if appCnf.DatabaseInfo.Prefix != "" {
		dbTablePrefix = appCnf.DatabaseInfo.Prefix
	}

	return appCnf, nil
}

// applyEnvOverrides lets deployments keep secrets out of the yaml file.
func applyEnvOverrides(appCnf *AppConfig) {
	if v := os.Getenv(EnvAzureKey); v != "" {
		appCnf.AzureSpeech.SubscriptionKey = v
	}
	if v := os.Getenv(EnvAzureRegion); v != "" {
		appCnf.AzureSpeech.ServiceRegion = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			appCnf.Client.Port = port
		}
	}
}

func FormatDBTable(table string) string {
	if dbTablePrefix != "" {
		return dbTablePrefix + table
	}
	return table
}
