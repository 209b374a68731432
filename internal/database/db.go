package database

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database bundles the raw SQL handle used by the user directory and the ORM used by the
// message store. SQL is nil when the directory lives in memory.
type Database struct {
	SQL *sqlx.DB
	ORM *gorm.DB
}

var gormConfig = &gorm.Config{
	Logger: logger.Default.LogMode(logger.Warn),
}

// OpenPostgres connects to Postgres once and shares the pool between sqlx and gorm.
func OpenPostgres(ctx context.Context, dsn string, log logrus.FieldLogger) (*Database, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connect to postgres")
	}

	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(100)
	db.SetConnMaxLifetime(time.Hour)

	orm, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), gormConfig)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "open gorm on postgres pool")
	}

	log.Info("connected to postgres")
	return &Database{SQL: db, ORM: orm}, nil
}

// OpenSQLite opens the message store at path for local runs.
func OpenSQLite(path string, log logrus.FieldLogger) (*Database, error) {
	orm, err := gorm.Open(sqlite.Open(path), gormConfig)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %s", path)
	}
	if strings.Contains(path, ":memory:") {
		// A shared in-memory database lives as long as one connection does.
		sqlDB, err := orm.DB()
		if err != nil {
			return nil, errors.Wrap(err, "sqlite handle")
		}
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxIdleTime(0)
		sqlDB.SetConnMaxLifetime(0)
	}
	log.WithField("path", path).Info("opened sqlite message store")
	return &Database{ORM: orm}, nil
}

// Migrate applies the raw SQL schema, when a SQL handle is present, and auto-migrates models.
func (d *Database) Migrate(ctx context.Context, schema string, models ...interface{}) error {
	if d.SQL != nil && schema != "" {
		if _, err := d.SQL.ExecContext(ctx, schema); err != nil {
			return errors.Wrap(err, "apply schema")
		}
	}
	if err := d.ORM.WithContext(ctx).AutoMigrate(models...); err != nil {
		return errors.Wrap(err, "auto-migrate")
	}
	return nil
}

func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.ORM.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	sqlDB, err := d.ORM.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
