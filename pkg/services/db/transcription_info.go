package dbservice

import (
	"errors"
	"time"

	"github.com/voxscribe/voxscribe-server/pkg/dbmodels"
	"gorm.io/gorm"
)

// GetRecentTranscriptions returns records created at or after since, newest first.
// A limit of 0 means no limit.
func (s *DatabaseService) GetRecentTranscriptions(since time.Time, limit int) ([]*dbmodels.Transcription, error) {
	var transcriptions []*dbmodels.Transcription

	tx := s.db.Model(&dbmodels.Transcription{}).
		Where("created_at >= ?", since).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	err := tx.Find(&transcriptions).Error
	if err != nil {
		return nil, err
	}

	return transcriptions, nil
}

// GetTranscriptionBySourceURL returns (nil, nil) if the record is not found.
func (s *DatabaseService) GetTranscriptionBySourceURL(sourceURL string) (*dbmodels.Transcription, error) {
	var info dbmodels.Transcription
	result := s.db.Where("source_url = ?", sourceURL).First(&info)

	switch {
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		return nil, nil
	case result.Error != nil:
		return nil, result.Error
	}

	return &info, nil
}
