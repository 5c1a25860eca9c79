/*
 * file: db.go
 * package: db
 * description:
 *     Establishes and configures the connection to the PostgreSQL archive
 *     database using GORM. Pooling settings favor the archive's write-light,
 *     read-occasional access pattern; schema migration is automatic since
 *     the archive schema has no production migration history to protect.
 */

package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/juan10024/bombrelay-server/internal/core/domain"
)

// Config carries the connection parameters for the archive database.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// Initialize configures and returns a GORM DB instance connected to the
// archive database, with its schema migrated.
func Initialize(cfg Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port,
	)

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to archive database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := gdb.AutoMigrate(&domain.MatchRecord{}, &domain.PlayerResult{}); err != nil {
		return nil, fmt.Errorf("archive schema migration failed: %w", err)
	}

	return gdb, nil
}
