package redisservice

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const jobStatusKey = Prefix + "job:%s"

// JobStatus is the last known state of a transcription job.
type JobStatus struct {
	JobId           string `json:"jobId"`
	State           string `json:"state"`
	SourceURL       string `json:"audioUrl"`
	Language        string `json:"language"`
	Kind            string `json:"kind,omitempty"`
	Error           string `json:"error,omitempty"`
	TranscriptionId string `json:"transcriptionId,omitempty"`
	UpdatedAt       int64  `json:"updatedAt"`
}

// SetJobStatus overwrites the job's hash and refreshes its ttl.
func (s *RedisService) SetJobStatus(ctx context.Context, status *JobStatus, ttl time.Duration) error {
	key := fmt.Sprintf(jobStatusKey, status.JobId)
	if status.UpdatedAt == 0 {
		status.UpdatedAt = time.Now().UnixMilli()
	}

	fields := map[string]interface{}{
		"job_id":           status.JobId,
		"state":            status.State,
		"source_url":       status.SourceURL,
		"language":         status.Language,
		"kind":             status.Kind,
		"error":            status.Error,
		"transcription_id": status.TranscriptionId,
		"updated_at":       status.UpdatedAt,
	}

	pp := s.rc.TxPipeline()
	pp.HSet(ctx, key, fields)
	if ttl > 0 {
		pp.Expire(ctx, key, ttl)
	}
	_, err := pp.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store job status %s: %w", status.JobId, err)
	}
	return nil
}

// GetJobStatus returns (nil, nil) when the job is unknown or expired.
func (s *RedisService) GetJobStatus(ctx context.Context, jobId string) (*JobStatus, error) {
	fields, err := s.rc.HGetAll(ctx, fmt.Sprintf(jobStatusKey, jobId)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	updatedAt, _ := strconv.ParseInt(fields["updated_at"], 10, 64)
	return &JobStatus{
		JobId:           fields["job_id"],
		State:           fields["state"],
		SourceURL:       fields["source_url"],
		Language:        fields["language"],
		Kind:            fields["kind"],
		Error:           fields["error"],
		TranscriptionId: fields["transcription_id"],
		UpdatedAt:       updatedAt,
	}, nil
}
