package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gym-occupancy-backend/config"
	"gym-occupancy-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	log.Println("Running database migrations...")
	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// Migrate runs AutoMigrate for all models plus the hand-written DDL the
// occupancy invariant depends on. Exposed so tests can migrate an
// in-memory database the same way production does.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Equipment{},
		&model.UsageRecord{},
		&model.Exercise{},
		&model.Account{},
		&model.PushSubscription{},
		&model.ZoneWatch{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return applyIndexDDL(db)
}

func applyIndexDDL(db *gorm.DB) error {
	ddls := []string{
		// One active session per user. AutoMigrate cannot express a partial
		// unique index, and the check-in guard alone cannot close the
		// read-then-write window between two concurrent transactions, so
		// this constraint is what makes a double check-in fail at commit.
		// Both postgres and sqlite support the WHERE clause.
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_equipment_active_user " +
			"ON equipment (\"current_user\") WHERE status = 'in_use' AND \"current_user\" <> '';",

		// Ledger scans for one unit come back ordered by recency anyway.
		"CREATE INDEX IF NOT EXISTS idx_usage_records_equipment_end " +
			"ON usage_records (equipment_id, end_time DESC);",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
