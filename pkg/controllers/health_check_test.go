package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(ctx context.Context) error {
	return f.err
}

func TestHealthCheckController_HandleHealthCheck(t *testing.T) {
	down := errors.New("connection refused")

	tests := []struct {
		name     string
		ds, rs   pinger
		wantCode int
		wantBody string
	}{
		{"healthy", fakePinger{}, fakePinger{}, http.StatusOK, "Healthy"},
		{"database down", fakePinger{err: down}, fakePinger{}, http.StatusServiceUnavailable, "Unhealthy: database"},
		{"redis down", fakePinger{}, fakePinger{err: down}, http.StatusServiceUnavailable, "Unhealthy: redis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := logrus.New()
			l.SetOutput(io.Discard)
			hc := &HealthCheckController{ds: tt.ds, rs: tt.rs, logger: logrus.NewEntry(l)}

			app := fiber.New()
			app.Get("/healthCheck", hc.HandleHealthCheck)

			code, body := doRequest(t, app, http.MethodGet, "/healthCheck", "")
			if code != tt.wantCode || string(body) != tt.wantBody {
				t.Errorf("got %d %q, want %d %q", code, body, tt.wantCode, tt.wantBody)
			}
		})
	}
}
