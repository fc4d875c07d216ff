package dbmodels

import (
	"time"

	"github.com/voxscribe/voxscribe-server/pkg/config"
)

// Transcription is the persisted result of one successful pipeline run.
// The json names are the ones the web client reads.
type Transcription struct {
	ID              uint64    `gorm:"primarykey" json:"-"`
	TranscriptionId string    `gorm:"column:transcription_id;type:varchar(36);not null;uniqueIndex" json:"id"`
	SourceURL       string    `gorm:"column:source_url;type:varchar(700);not null;uniqueIndex:idx_source_url" json:"audioUrl"`
	Transcript      string    `gorm:"column:transcript;type:longtext;not null" json:"transcription"`
	Language        string    `gorm:"column:language;type:varchar(35);not null;default:en-US;index:idx_language_created,priority:1" json:"language"`
	CreatedAt       time.Time `gorm:"column:created_at;not null;index:idx_language_created,priority:2;index:idx_created_at" json:"createdAt"`
}

func (t *Transcription) TableName() string {
	return config.FormatDBTable("transcriptions")
}
