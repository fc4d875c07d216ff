package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/voxscribe/voxscribe-server/pkg/config"
	"github.com/voxscribe/voxscribe-server/pkg/insights"
)

// maxDiagnosticLen caps the amount of process output carried in an error.
const maxDiagnosticLen = 4096

type commandResult struct {
	Stderr   string
	ExitCode int
}

type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

type execRunner struct{}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{Stderr: stderr.String()}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}

// Transcoder converts arbitrary input audio into the canonical waveform:
// mono, 16 bit linear PCM in a WAV container at the configured sample rate.
type Transcoder struct {
	ffmpegPath string
	sampleRate int
	runner     commandRunner
	cnfErr     error
	logger     *logrus.Entry
}

// NewTranscoder resolves the ffmpeg binary once. A missing binary does not
// fail construction; it is reported by Validate before any job starts.
func NewTranscoder(cnf *config.TranscoderInfo, logger *logrus.Entry) *Transcoder {
	t := &Transcoder{
		sampleRate: cnf.SampleRate,
		runner:     &execRunner{},
		logger:     logger.WithField("component", "transcoder"),
	}
	if t.sampleRate <= 0 {
		t.sampleRate = config.DefaultSampleRate
	}

	p, err := exec.LookPath(cnf.FfmpegPath)
	if err != nil {
		t.cnfErr = insights.NewError(insights.KindConfiguration, "resolve ffmpeg", err).WithDetails(config.FfmpegNotFound)
		t.logger.WithError(err).Warnln(config.FfmpegNotFound)
	} else {
		t.ffmpegPath = p
	}
	return t
}

func (t *Transcoder) Validate() error {
	return t.cnfErr
}

func (t *Transcoder) SampleRate() int {
	return t.sampleRate
}

func (t *Transcoder) args(src, dst string) []string {
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error", "-y",
		"-i", src,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(t.sampleRate),
		"-acodec", "pcm_s16le",
		"-f", "wav",
		dst,
	}
}

// Convert starts the conversion and returns its completion signal. The
// channel receives exactly one value, nil once dst is fully written and
// verified, and is then closed.
func (t *Transcoder) Convert(ctx context.Context, src, dst string) <-chan error {
	status := make(chan error, 1)
	if t.cnfErr != nil {
		status <- t.cnfErr
		close(status)
		return status
	}

	go func() {
		defer close(status)
		status <- t.convert(ctx, src, dst)
	}()
	return status
}

func (t *Transcoder) convert(ctx context.Context, src, dst string) error {
	log := t.logger.WithFields(logrus.Fields{
		"method": "Convert",
		"src":    src,
		"dst":    dst,
	})
	start := time.Now()

	res, err := t.runner.Run(ctx, t.ffmpegPath, t.args(src, dst)...)
	if err != nil {
		log.WithError(err).WithField("exitCode", res.ExitCode).Errorln("ffmpeg failed")
		return insights.NewError(insights.KindTranscode, "convert", err).
			WithDetails(fmt.Sprintf("exit code %d: %s", res.ExitCode, truncate(res.Stderr)))
	}

	info, err := ReadWAVInfo(dst)
	if err != nil {
		return insights.NewError(insights.KindTranscode, "verify output", err)
	}
	if err := info.ValidateCanonical(t.sampleRate); err != nil {
		return insights.NewError(insights.KindTranscode, "verify output", err)
	}

	log.WithFields(logrus.Fields{
		"dataSize": info.DataSize,
		"took":     time.Since(start).String(),
	}).Infoln("audio converted")
	return nil
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxDiagnosticLen {
		return s[len(s)-maxDiagnosticLen:]
	}
	return s
}
