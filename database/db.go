package database

import (
	"fmt"
	"os"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the hosted remote database (Postgres). Initialized by Connect.
var DB *gorm.DB

// QueueDB is the local SQLite database holding the durable mutation queue.
// Initialized by ConnectQueue.
var QueueDB *gorm.DB

// Connect opens the hosted Postgres database from environment variables.
func Connect() error {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		envDefault("DB_HOST", "localhost"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		envDefault("DB_PORT", "5432"),
		envDefault("DB_SSLMODE", "require"))

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("connect to remote database: %w", err)
	}
	DB = db
	return nil
}

// ConnectQueue opens (or creates) the local queue database file.
func ConnectQueue(path string) error {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("open local queue database %s: %w", path, err)
	}
	QueueDB = db
	return nil
}

// Ping checks remote reachability; used by the connectivity glue in main.
func Ping() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
