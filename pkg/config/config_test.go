package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func readTestConfig(t *testing.T) *AppConfig {
	t.Helper()
	yamlFile, err := os.ReadFile("../../test/config.yaml")
	if err != nil {
		t.Fatal(err)
	}

	appConfig := new(AppConfig)
	err = yaml.Unmarshal(yamlFile, appConfig)
	if err != nil {
		t.Fatal(err)
	}
	appConfig.RootWorkingDir = t.TempDir()
	return appConfig
}

func TestNew_FromYaml(t *testing.T) {
	appCnf, err := New(readTestConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if appCnf.Client.Port != 5000 {
		t.Errorf("expected port 5000, got %d", appCnf.Client.Port)
	}
	if appCnf.Pipeline.RecognitionTimeout != 30*time.Minute {
		t.Errorf("expected recognition timeout 30m, got %s", appCnf.Pipeline.RecognitionTimeout)
	}
	if appCnf.Recent.Window != 30*24*time.Hour {
		t.Errorf("expected recent window 720h, got %s", appCnf.Recent.Window)
	}
	// relative temp dir is resolved against the working dir and created
	want := filepath.Join(appCnf.RootWorkingDir, "tmp")
	if appCnf.Pipeline.TempDir != want {
		t.Errorf("expected temp dir %s, got %s", want, appCnf.Pipeline.TempDir)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("temp dir was not created: %v", err)
	}
	if got := FormatDBTable("transcriptions"); got != "vx_transcriptions" {
		t.Errorf("FormatDBTable() = %s", got)
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Setenv(EnvAzureKey, "")
	t.Setenv(EnvAzureRegion, "")
	t.Setenv(EnvPort, "")

	appCnf, err := New(&AppConfig{
		Pipeline: PipelineInfo{TempDir: filepath.Join(t.TempDir(), "jobs")},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"port", appCnf.Client.Port, DefaultPort},
		{"ffmpeg", appCnf.Transcoder.FfmpegPath, "ffmpeg"},
		{"sample rate", appCnf.Transcoder.SampleRate, DefaultSampleRate},
		{"language", appCnf.Pipeline.DefaultLanguage, "en-US"},
		{"cancel grace", appCnf.Pipeline.CancelGrace, DefaultCancelGrace},
		{"stop timeout", appCnf.Pipeline.StopTimeout, DefaultStopTimeout},
		{"max fetch size", appCnf.Fetcher.MaxSize, DefaultMaxFetchSize},
		{"recent limit", appCnf.Recent.Limit, 1000},
		{"recent max limit", appCnf.Recent.MaxLimit, 1000},
		{"subject", appCnf.NatsInfo.Subjects.TranscriptionEvents, DefaultTranscriptionEventsSubject},
		{"credentials", appCnf.AzureSpeech.HasCredentials(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv(EnvAzureKey, "env-key")
	t.Setenv(EnvAzureRegion, "westeurope")
	t.Setenv(EnvPort, "8080")

	appCnf, err := New(readTestConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if appCnf.AzureSpeech.SubscriptionKey != "env-key" || appCnf.AzureSpeech.ServiceRegion != "westeurope" {
		t.Errorf("azure credentials not taken from env: %+v", appCnf.AzureSpeech)
	}
	if !appCnf.AzureSpeech.HasCredentials() {
		t.Error("expected credentials to be present")
	}
	if appCnf.Client.Port != 8080 {
		t.Errorf("expected port 8080, got %d", appCnf.Client.Port)
	}
}
