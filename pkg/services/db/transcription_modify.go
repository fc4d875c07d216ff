package dbservice

import (
	"fmt"

	"github.com/voxscribe/voxscribe-server/pkg/dbmodels"
)

// InsertTranscription stores a new transcription. The unique index on
// source_url rejects a second record for the same url with ErrDuplicateSourceURL.
// It returns the number of rows affected.
func (s *DatabaseService) InsertTranscription(info *dbmodels.Transcription) (int64, error) {
	result := s.db.Create(info)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return 0, fmt.Errorf("%w: %s", ErrDuplicateSourceURL, info.SourceURL)
		}
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
