package db

import (
	"fmt"
	"time"

	"hospital/internal/config"
	"hospital/internal/patient"
	"hospital/internal/user"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// gormWriter routes gorm's slow-query and error output into zerolog.
type gormWriter struct {
	logger zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.logger.Warn().Str("component", "gorm").Msgf(format, args...)
}

func dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return postgres.Open(cfg.Database.DSN), nil
	case "sqlite":
		return sqlite.Open(cfg.Database.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

// Open connects to the configured database without touching the schema.
func Open(cfg *config.Config, logger zerolog.Logger) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(d, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(gormWriter{logger: logger}, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
}

// Migrate creates or updates the patients, accounts and join tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&patient.Patient{}); err != nil {
		return fmt.Errorf("migrate patients: %w", err)
	}
	if err := db.AutoMigrate(&user.AppRole{}, &user.AppUser{}); err != nil {
		return fmt.Errorf("migrate accounts: %w", err)
	}
	return nil
}

func Init(cfg *config.Config, logger zerolog.Logger) error {
	db, err := Open(cfg, logger)
	if err != nil {
		return err
	}
	if err := Migrate(db); err != nil {
		return err
	}
	DB = db
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database connected and migrated")
	return nil
}
