package database

import (
	"fmt"
	stdlog "log"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rpupo63/portfolio-backend/config"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

// DSN builds the primary connection string from DB_TYPE
func DSN(c map[string]string) (string, error) {
	dbType := config.GetString(c, "DB_TYPE", "postgres")
	switch dbType {
	case "supa":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=require",
			config.GetString(c, "SUPABASE_DB_HOST", ""),
			config.GetString(c, "SUPABASE_DB_USER", ""),
			config.GetString(c, "SUPABASE_DB_PASSWORD", ""),
			config.GetString(c, "SUPABASE_DB_NAME", ""),
			config.GetString(c, "SUPABASE_DB_PORT", "5432"),
		), nil
	case "postgres":
		url := config.GetString(c, "DATABASE_URL", "")
		if url == "" {
			return "", fmt.Errorf("DATABASE_URL is required when DB_TYPE is postgres")
		}
		return url, nil
	case "sqlite":
		return config.GetString(c, "DATABASE_URL", "portfolio.db"), nil
	default:
		return "", fmt.Errorf("unsupported DB_TYPE %q", dbType)
	}
}

func logLevel(c map[string]string) logger.LogLevel {
	switch strings.ToLower(config.GetString(c, "DB_LOG_LEVEL", "warn")) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Open connects to the configured database. Postgres connections register
// read replicas when DATABASE_REPLICA_URLS is set; sqlite is meant for local
// development and tests.
func Open(c map[string]string) (*gorm.DB, error) {
	dsn, err := DSN(c)
	if err != nil {
		return nil, err
	}
	isSQLite := config.GetString(c, "DB_TYPE", "postgres") == "sqlite"

	newLogger := logger.New(
		stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
		logger.Config{
			SlowThreshold:             10 * time.Second,
			LogLevel:                  logLevel(c),
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	var dialector gorm.Dialector
	if isSQLite {
		dialector = sqlite.Open(dsn)
	} else {
		dialector = postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		})
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		PrepareStmt:                              false,
		Logger:                                   newLogger,
		DisableForeignKeyConstraintWhenMigrating: isSQLite,
	})
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if isSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// every connection to :memory: would see its own empty database
		sqlDB.SetMaxOpenConns(1)
	} else if replicas := config.GetStringSlice(c, "DATABASE_REPLICA_URLS"); len(replicas) > 0 {
		dialectors := make([]gorm.Dialector, 0, len(replicas))
		for _, replica := range replicas {
			dialectors = append(dialectors, postgres.New(postgres.Config{
				DSN:                  replica,
				PreferSimpleProtocol: true,
			}))
		}
		err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: dialectors,
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return nil, fmt.Errorf("error registering read replicas: %w", err)
		}
		log.Info().Int("replicas", len(replicas)).Msg("Registered read replicas")
	}

	var result int
	if err := db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		return nil, fmt.Errorf("error testing database connection: %w", err)
	}

	return db, nil
}
