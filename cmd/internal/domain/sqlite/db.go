package sqlite

import (
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"sharenotes/cmd/internal/domain/entity"
)

// InMemory opens a private database that lives as long as the returned handle.
const InMemory = ":memory:"

func Init(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "opening database at %s", path)
	}

	err = db.AutoMigrate(
		&entity.User{},
		&entity.Profile{},
		&entity.Note{},
		&entity.Share{},
		&entity.Connection{},
	)
	if err != nil {
		return nil, errors.Wrap(err, "migrating schema")
	}

	// A single connection serializes writes and keeps ":memory:" databases
	// from being split across connections.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "accessing connection pool")
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)
	if path == InMemory {
		sqlDB.SetConnMaxLifetime(0)
	}

	return db, nil
}
