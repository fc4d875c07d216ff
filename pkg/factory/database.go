package factory

import (
	"context"
	"strconv"
	"time"

	sqldriver "github.com/go-sql-driver/mysql"
	"github.com/voxscribe/voxscribe-server/pkg/config"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

func NewDatabaseConnection(ctx context.Context, appCnf *config.AppConfig) error {
	info := appCnf.DatabaseInfo

	dsn, err := buildDSN(&info, info.Username, info.Password, info.Host, info.Port)
	if err != nil {
		return err
	}

	mysqlCnf := mysql.Config{
		DSN: dsn,
	}
	cnf := &gorm.Config{
		// duplicate source urls surface as gorm.ErrDuplicatedKey
		TranslateError: true,
	}

	loggerCnf := logger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  logger.Info,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      false,
		Colorful:                  true,
	}
	if !appCnf.Client.Debug {
		loggerCnf.LogLevel = logger.Warn
		loggerCnf.Colorful = false
	}
	cnf.Logger = logger.New(appCnf.Logger, loggerCnf)

	db, err := gorm.Open(mysql.New(mysqlCnf), cnf)
	if err != nil {
		return err
	}

	if len(info.Replicas) > 0 {
		appCnf.Logger.Infof("found %d read replicas, configuring dbresolver", len(info.Replicas))
		var replicaDialectors []gorm.Dialector

		for _, r := range info.Replicas {
			// replicas inherit the primary's credentials and port
			if r.Username == "" {
				r.Username = info.Username
			}
			if r.Password == "" {
				r.Password = info.Password
			}
			if r.Port == 0 {
				r.Port = info.Port
			}

			replicaDsn, err := buildDSN(&info, r.Username, r.Password, r.Host, r.Port)
			if err != nil {
				return err
			}
			replicaDialectors = append(replicaDialectors, mysql.Open(replicaDsn))
		}
		resolverCnf := dbresolver.Config{
			Replicas: replicaDialectors,
			Policy:   dbresolver.RandomPolicy{},
		}
		if appCnf.Client.Debug {
			resolverCnf.TraceResolverMode = true
		}

		err = db.Use(dbresolver.Register(resolverCnf))
		if err != nil {
			return err
		}
	}

	d, err := db.DB()
	if err != nil {
		return err
	}
	err = d.PingContext(ctx)
	if err != nil {
		return err
	}

	connMaxLifetime := time.Minute * 4
	if info.ConnMaxLifetime != nil && *info.ConnMaxLifetime > 0 {
		connMaxLifetime = *info.ConnMaxLifetime
	}
	maxOpenConns := 10
	if info.MaxOpenConns != nil && *info.MaxOpenConns > 0 {
		maxOpenConns = *info.MaxOpenConns
	}

	// https://github.com/go-sql-driver/mysql?tab=readme-ov-file#important-settings
	d.SetConnMaxLifetime(connMaxLifetime)
	d.SetMaxOpenConns(maxOpenConns)
	d.SetMaxIdleConns(maxOpenConns)

	appCnf.DB = db
	return nil
}

// buildDSN lets the driver handle escaping of credentials and location.
func buildDSN(info *config.DatabaseInfo, user, password, host string, port int32) (string, error) {
	charset := "utf8mb4"
	loc := time.UTC
	if info.Charset != nil && *info.Charset != "" {
		charset = *info.Charset
	}
	if info.Loc != nil && *info.Loc != "" {
		l, err := time.LoadLocation(*info.Loc)
		if err != nil {
			return "", err
		}
		loc = l
	}

	c := sqldriver.NewConfig()
	c.User = user
	c.Passwd = password
	c.Net = "tcp"
	c.Addr = host
	if port > 0 {
		c.Addr = host + ":" + strconv.Itoa(int(port))
	}
	c.DBName = info.DBName
	c.ParseTime = true
	c.Loc = loc
	c.Params = map[string]string{"charset": charset}

	return c.FormatDSN(), nil
}
