package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/voxscribe/voxscribe-server/pkg/config"
	"github.com/voxscribe/voxscribe-server/pkg/dbmodels"
	"github.com/voxscribe/voxscribe-server/pkg/insights"
	"github.com/voxscribe/voxscribe-server/pkg/models"
	redisservice "github.com/voxscribe/voxscribe-server/pkg/services/redis"
)

type transcriptionModel interface {
	Context() context.Context
	Run(ctx context.Context, sourceURL, lang string) (*dbmodels.Transcription, error)
	GetRecentTranscriptions(ctx context.Context, window time.Duration, limit int) ([]*dbmodels.Transcription, error)
	GetJobStatus(ctx context.Context, jobId string) (*redisservice.JobStatus, error)
}

type TranscriptionController struct {
	tm     transcriptionModel
	logger *logrus.Entry
}

func NewTranscriptionController(tm *models.TranscriptionModel, logger *logrus.Logger) *TranscriptionController {
	return &TranscriptionController{
		tm:     tm,
		logger: logger.WithField("controller", "transcription"),
	}
}

type transcriptionReq struct {
	AudioURL string `json:"audioUrl"`
	Language string `json:"language"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// HandleAzureTranscription runs a transcription job and answers once it has
// finished. The job runs on the application context, so a client hanging up
// does not abort it.
func (tc *TranscriptionController) HandleAzureTranscription(c *fiber.Ctx) error {
	req := new(transcriptionReq)
	if err := c.BodyParser(req); err != nil {
		return sendTranscriptionError(c, insights.NewError(insights.KindValidation, "parse request", err))
	}

	record, err := tc.tm.Run(tc.tm.Context(), req.AudioURL, req.Language)
	if err != nil {
		return sendTranscriptionError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(record)
}

func (tc *TranscriptionController) HandleRecentTranscriptions(c *fiber.Ctx) error {
	days := c.QueryInt("days", 0)
	limit := c.QueryInt("limit", 0)
	if days < 0 || limit < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error: "days and limit must be positive numbers",
			Kind:  string(insights.KindValidation),
		})
	}

	list, err := tc.tm.GetRecentTranscriptions(c.UserContext(), time.Duration(days)*24*time.Hour, limit)
	if err != nil {
		tc.logger.WithError(err).Errorln("failed to load recent transcriptions")
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{
			Error:   "failed to load recent transcriptions",
			Details: err.Error(),
			Kind:    string(insights.KindPersistence),
		})
	}

	return c.Status(fiber.StatusOK).JSON(list)
}

func (tc *TranscriptionController) HandleJobStatus(c *fiber.Ctx) error {
	jobId := c.Params("jobId")
	status, err := tc.tm.GetJobStatus(c.UserContext(), jobId)
	if err != nil {
		tc.logger.WithError(err).WithField("jobId", jobId).Errorln("failed to load job status")
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{
			Error:   "failed to load job status",
			Details: err.Error(),
		})
	}
	if status == nil {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: config.JobNotFound})
	}

	return c.Status(fiber.StatusOK).JSON(status)
}

func sendTranscriptionError(c *fiber.Ctx, err error) error {
	kind := insights.KindOf(err)
	status := fiber.StatusInternalServerError
	if kind == insights.KindValidation {
		status = fiber.StatusBadRequest
	}

	details := err.Error()
	var ie *insights.Error
	if errors.As(err, &ie) && ie.Details != "" {
		details = ie.Details
	}

	return c.Status(status).JSON(errorResponse{
		Error:   config.TranscriptionFailed,
		Details: details,
		Kind:    string(kind),
	})
}
