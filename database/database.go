package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"animelog/config"
	"animelog/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the configured database and runs migrations.
func InitDB() *gorm.DB {
	// GORM logger configuration
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level (Silent, Error, Warn, Info)
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			Colorful:                  true,        // Enable color
		},
	)

	var dialector gorm.Dialector
	switch config.AppConfig.DatabaseDriver {
	case "mysql":
		dialector = mysql.Open(config.AppConfig.DatabaseURL)
	case "sqlite":
		dialector = sqlite.Open(config.AppConfig.DatabaseURL)
	default:
		panic(fmt.Errorf("unsupported database driver: %s", config.AppConfig.DatabaseDriver))
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		panic(fmt.Errorf("failed to connect database: %w", err))
	}

	if err := db.AutoMigrate(&models.User{}, &models.Anime{}); err != nil {
		panic(fmt.Errorf("failed to migrate database: %w", err))
	}

	return db
}
