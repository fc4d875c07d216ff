package dbservice

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"github.com/voxscribe/voxscribe-server/pkg/dbmodels"
	"gorm.io/gorm"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

var ErrDuplicateSourceURL = errors.New("a transcription for this source url already exists")

type DatabaseService struct {
	db     *gorm.DB
	logger *logrus.Entry
}

func New(db *gorm.DB, logger *logrus.Logger) *DatabaseService {
	return &DatabaseService{
		db:     db,
		logger: logger.WithField("service", "database"),
	}
}

// AutoMigrate creates or updates the tables this service writes to.
func (s *DatabaseService) AutoMigrate() error {
	return s.db.AutoMigrate(&dbmodels.Transcription{})
}

func (s *DatabaseService) Ping(ctx context.Context) error {
	d, err := s.db.DB()
	if err != nil {
		return err
	}
	return d.PingContext(ctx)
}

func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
