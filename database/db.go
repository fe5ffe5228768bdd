package database

import (
	"github.com/chxlky/trello-ringcentral-relay/internal/models"
	"github.com/m-mizutani/goerr/v2"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = goerr.New("record not found")

func Open(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to database", goerr.V("path", dbPath))
	}

	if err := db.AutoMigrate(&models.Subscription{}, &models.TrelloCredential{}, &models.Bot{}, &models.CalendarEntry{}); err != nil {
		return nil, goerr.Wrap(err, "failed to migrate database")
	}
	return db, nil
}

func Init(dbPath string) *gorm.DB {
	db, err := Open(dbPath)
	if err != nil {
		zap.L().Fatal("Failed to initialise database", zap.Error(err))
	}

	zap.L().Info("Database initialised and migrated successfully")

	return db
}
