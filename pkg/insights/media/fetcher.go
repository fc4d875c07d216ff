package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/cavaliergopher/grab/v3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
	"github.com/voxscribe/voxscribe-server/pkg/config"
	"github.com/voxscribe/voxscribe-server/pkg/insights"
)

const fetchProgressInterval = 250 * time.Millisecond

var (
	ErrTooLarge     = errors.New("payload exceeds the configured size limit")
	ErrEmptyPayload = errors.New("empty content")
)

type FetchResult struct {
	Path     string
	Size     int64
	MimeType string
}

// Fetcher downloads remote audio into a job owned file.
type Fetcher struct {
	client       *grab.Client
	maxSize      int64
	timeout      time.Duration
	allowedTypes []string
	logger       *logrus.Entry
}

func NewFetcher(cnf *config.FetcherSettings, logger *logrus.Entry) *Fetcher {
	client := grab.NewClient()
	if cnf.UserAgent != "" {
		client.UserAgent = cnf.UserAgent
	}

	return &Fetcher{
		client:       client,
		maxSize:      cnf.MaxSize,
		timeout:      cnf.Timeout,
		allowedTypes: cnf.AllowedTypes,
		logger:       logger.WithField("component", "fetcher"),
	}
}

// Fetch downloads sourceURL into dst. Network, status, size and content type
// problems are reported as fetch errors, local file problems as storage errors.
func (f *Fetcher) Fetch(ctx context.Context, sourceURL, dst string) (*FetchResult, error) {
	log := f.logger.WithFields(logrus.Fields{
		"method":    "Fetch",
		"sourceUrl": sourceURL,
	})

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := grab.NewRequest(dst, sourceURL)
	if err != nil {
		return nil, insights.NewError(insights.KindFetch, "fetch", err)
	}
	req = req.WithContext(ctx)
	req.NoResume = true
	req.BeforeCopy = func(resp *grab.Response) error {
		if f.maxSize > 0 && resp.HTTPResponse != nil && resp.HTTPResponse.ContentLength > f.maxSize {
			return ErrTooLarge
		}
		return nil
	}

	resp := f.client.Do(req)

	// the advertised length may be missing, so the running count is enforced too
	tooLarge := false
	ticker := time.NewTicker(fetchProgressInterval)
	defer ticker.Stop()
loop:
	for {
		select {
		case <-ticker.C:
			if f.maxSize > 0 && resp.BytesComplete() > f.maxSize {
				tooLarge = true
				_ = resp.Cancel()
			}
		case <-resp.Done:
			break loop
		}
	}

	if err := resp.Err(); err != nil {
		if tooLarge {
			err = ErrTooLarge
		}
		return nil, classifyFetchError(err)
	}

	size := resp.BytesComplete()
	if f.maxSize > 0 && size > f.maxSize {
		return nil, insights.NewError(insights.KindFetch, "fetch", ErrTooLarge)
	}
	if size == 0 {
		return nil, insights.NewError(insights.KindFetch, "fetch", ErrEmptyPayload)
	}

	mType, err := mimetype.DetectFile(dst)
	if err != nil {
		return nil, insights.NewError(insights.KindStorage, "detect content type", err)
	}
	if !f.isAllowedType(mType) {
		return nil, insights.Errorf(insights.KindFetch, "fetch", "unsupported content type %s", mType.String())
	}

	log.WithFields(logrus.Fields{
		"size":     size,
		"mimeType": mType.String(),
	}).Infoln("source audio downloaded")

	return &FetchResult{
		Path:     dst,
		Size:     size,
		MimeType: mType.String(),
	}, nil
}

func (f *Fetcher) isAllowedType(mType *mimetype.MIME) bool {
	for m := mType; m != nil; m = m.Parent() {
		for _, allowed := range f.allowedTypes {
			if strings.HasSuffix(allowed, "/") {
				if strings.HasPrefix(m.String(), allowed) {
					return true
				}
			} else if m.Is(allowed) {
				return true
			}
		}
	}
	return false
}

func classifyFetchError(err error) *insights.Error {
	var pathErr *fs.PathError
	switch {
	case errors.Is(err, ErrTooLarge):
		return insights.NewError(insights.KindFetch, "fetch", ErrTooLarge)
	case grab.IsStatusCodeError(err):
		return insights.NewError(insights.KindFetch, "fetch", fmt.Errorf("unexpected response: %w", err))
	case errors.As(err, &pathErr), errors.Is(err, os.ErrPermission):
		return insights.NewError(insights.KindStorage, "write source file", err)
	}
	return insights.NewError(insights.KindFetch, "fetch", err)
}
